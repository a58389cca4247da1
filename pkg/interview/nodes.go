package interview

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/retry"
)

// Node names.
const (
	NodeGreet            = "greet"
	NodeCheckIdentity    = "check_identity"
	NodeAskTopic         = "ask_topic"
	NodeCheckTopic       = "check_topic"
	NodeAskDifficulty    = "ask_difficulty"
	NodeCheckDifficulty  = "check_difficulty"
	NodePrepareQuestions = "prepare_questions"
	NodeAskQuestion      = "ask_question"
	NodeCheckAnswer      = "check_answer"
	NodeRepeatQuestion   = "repeat_question"
	NodeEndQuit          = "end_quit"
	NodeEndComplete      = "end_complete"
)

// Retry operation names, used in logs and metrics.
const (
	OpIdentity   = "classify_identity"
	OpTopic      = "classify_topic"
	OpDifficulty = "classify_difficulty"
	OpReply      = "classify_reply"
	OpEvaluate   = "evaluate_answer"
	OpGenerate   = "generate_questions"
)

type nodes struct {
	classifier ports.Classifier
	generator  ports.Generator
	policy     retry.Policy
}

func say(texts ...string) domain.Update {
	msgs := make([]domain.Message, 0, len(texts))
	for _, t := range texts {
		msgs = append(msgs, domain.Say(t))
	}
	return domain.Update{Messages: msgs}
}

func outcome[O ~string](u domain.Update, o O) domain.Update {
	u.Outcome = domain.Ptr(string(o))
	return u
}

func input(s *domain.State) string {
	return strings.TrimSpace(s.Slots.LastInput)
}

// --- identity ---

func (n *nodes) greet(_ context.Context, s *domain.State) (domain.Update, error) {
	if s.Slots.StudentName == "" {
		return say(askNameText), nil
	}
	return say(confirmNameText(s.Slots.StudentName)), nil
}

func (n *nodes) checkIdentity(ctx context.Context, s *domain.State) (domain.Update, error) {
	text := input(s)
	if text == "" {
		return outcome(domain.Update{}, IdentitySilence), nil
	}

	expected := s.Slots.StudentName
	v, _ := retry.Do(ctx, n.policy, OpIdentity, ports.IdentityVerdict{Intent: ports.IdentityUnclear},
		func(ctx context.Context) (ports.IdentityVerdict, error) {
			return n.classifier.Identity(ctx, expected, text)
		})
	name := strings.TrimSpace(v.Name)

	switch v.Intent {
	case ports.IdentityQuit:
		return outcome(domain.Update{}, IdentityQuit), nil
	case ports.IdentityDenied:
		if expected == "" {
			return outcome(say(notCaughtText), IdentityRepeat), nil
		}
		return outcome(domain.Update{}, IdentityNotValid), nil
	case ports.IdentityConfirmed:
		switch {
		case expected != "":
			return outcome(domain.Update{}, IdentityValid), nil
		case name != "":
			u := outcome(domain.Update{}, IdentityValid)
			u.StudentName = domain.Ptr(name)
			return u, nil
		}
	}
	return outcome(say(notCaughtText), IdentityRepeat), nil
}

// --- topic ---

func (n *nodes) askTopic(_ context.Context, s *domain.State) (domain.Update, error) {
	return say(askTopicText(s.Slots.StudentName)), nil
}

func (n *nodes) checkTopic(ctx context.Context, s *domain.State) (domain.Update, error) {
	text := input(s)
	if text == "" {
		return outcome(domain.Update{}, TopicSilence), nil
	}

	v, _ := retry.Do(ctx, n.policy, OpTopic, ports.TopicVerdict{Intent: ports.TopicUnclear},
		func(ctx context.Context) (ports.TopicVerdict, error) {
			return n.classifier.Topic(ctx, text)
		})

	switch topic := strings.TrimSpace(v.Topic); {
	case v.Intent == ports.TopicQuit:
		return outcome(domain.Update{}, TopicQuit), nil
	case v.Intent == ports.TopicChosen && topic != "":
		u := outcome(domain.Update{}, TopicValid)
		u.Topic = domain.Ptr(topic)
		return u, nil
	}
	return outcome(say(notCaughtText), TopicRepeat), nil
}

// --- difficulty ---

func (n *nodes) askDifficulty(_ context.Context, s *domain.State) (domain.Update, error) {
	return say(askDifficultyText(s.Slots.Topic)), nil
}

func (n *nodes) checkDifficulty(ctx context.Context, s *domain.State) (domain.Update, error) {
	text := input(s)
	if text == "" {
		return outcome(domain.Update{}, DifficultySilence), nil
	}

	v, _ := retry.Do(ctx, n.policy, OpDifficulty, ports.DifficultyVerdict{Intent: ports.DifficultyUnclear},
		func(ctx context.Context) (ports.DifficultyVerdict, error) {
			return n.classifier.Difficulty(ctx, text)
		})

	switch level := strings.ToLower(strings.TrimSpace(v.Difficulty)); {
	case v.Intent == ports.DifficultyQuit:
		return outcome(domain.Update{}, DifficultyQuit), nil
	case v.Intent == ports.DifficultyChosen && level != "":
		u := outcome(domain.Update{}, DifficultyValid)
		u.Difficulty = domain.Ptr(level)
		return u, nil
	}
	return outcome(say(notCaughtText), DifficultyRepeat), nil
}

// --- questions ---

func (n *nodes) prepareQuestions(ctx context.Context, s *domain.State) (domain.Update, error) {
	count := s.Slots.MaxQuestions
	if count <= 0 {
		count = domain.DefaultMaxQuestions
	}
	topic, level := s.Slots.Topic, s.Slots.Difficulty

	generated, _ := retry.Do(ctx, n.policy, OpGenerate, FallbackQuestions(topic, count),
		func(ctx context.Context) ([]string, error) {
			return n.generator.GenerateQuestions(ctx, topic, level, count)
		})

	u := say(poolReadyText(count, topic, level))
	u.QuestionPool = normalizePool(generated, topic, count)
	return u, nil
}

func (n *nodes) askQuestion(_ context.Context, s *domain.State) (domain.Update, error) {
	q, ok := s.NextQuestion()
	if !ok {
		return domain.Update{}, fmt.Errorf("%w: question pool exhausted after %d questions", domain.ErrInternal, len(s.Asked))
	}
	u := say(questionText(len(s.Asked)+1, s.Slots.MaxQuestions, q))
	u.Asked = domain.Ptr(q)
	return u, nil
}

func (n *nodes) repeatQuestion(_ context.Context, s *domain.State) (domain.Update, error) {
	q := s.CurrentQuestion()
	if q == "" {
		return domain.Update{}, fmt.Errorf("%w: no question to repeat", domain.ErrInternal)
	}
	return say(questionText(len(s.Asked), s.Slots.MaxQuestions, q)), nil
}

func (n *nodes) checkAnswer(ctx context.Context, s *domain.State) (domain.Update, error) {
	text := input(s)
	if text == "" {
		return outcome(domain.Update{}, AnswerSilence), nil
	}
	question := s.CurrentQuestion()

	reply, _ := retry.Do(ctx, n.policy, OpReply, ports.ReplyVerdict{Intent: ports.ReplyAnswer},
		func(ctx context.Context) (ports.ReplyVerdict, error) {
			return n.classifier.Reply(ctx, question, text)
		})
	switch reply.Intent {
	case ports.ReplyQuit:
		return outcome(domain.Update{}, AnswerQuit), nil
	case ports.ReplyRepeat:
		return outcome(domain.Update{}, AnswerRepeat), nil
	}

	topic := s.Slots.Topic
	eval, _ := retry.Do(ctx, n.policy, OpEvaluate, ports.Evaluation{Feedback: FallbackFeedback},
		func(ctx context.Context) (ports.Evaluation, error) {
			return n.classifier.Evaluate(ctx, topic, question, text)
		})
	if strings.TrimSpace(eval.Feedback) == "" {
		eval.Feedback = FallbackFeedback
	}

	count := s.Slots.QuestionCount + 1
	next := AnswerNext
	if count >= s.Slots.MaxQuestions {
		next = AnswerFinished
	}

	u := outcome(say(feedbackText(eval)), next)
	u.QuestionCount = domain.Ptr(count)
	u.Results = []domain.Result{{
		Question:   question,
		Answer:     text,
		Passed:     eval.Passed,
		Feedback:   eval.Feedback,
		Correction: eval.Correction,
	}}
	return u, nil
}

// --- endings ---

func (n *nodes) endQuit(_ context.Context, s *domain.State) (domain.Update, error) {
	if IdentityOutcome(s.Slots.Outcome) == IdentityNotValid {
		return say(wrongPersonText(s.Slots.StudentName)), nil
	}
	return say(quitText(s.Slots.StudentName)), nil
}

func (n *nodes) endComplete(_ context.Context, s *domain.State) (domain.Update, error) {
	return say(summaryText(s.Results), farewellText(s.Slots.StudentName, s.Slots.Topic)), nil
}
