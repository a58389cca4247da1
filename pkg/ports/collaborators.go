package ports

import "context"

// IdentityIntent is the classifier's reading of the identity confirmation reply.
type IdentityIntent string

const (
	IdentityConfirmed IdentityIntent = "confirmed"
	IdentityDenied    IdentityIntent = "denied"
	IdentityUnclear   IdentityIntent = "unclear"
	IdentityQuit      IdentityIntent = "quit"
)

// IdentityVerdict is the structured result for the identity stage.
// Name carries the first name when the reply introduces the student.
type IdentityVerdict struct {
	Intent IdentityIntent `json:"intent"`
	Name   string         `json:"name,omitempty"`
}

// TopicIntent is the classifier's reading of the topic reply.
type TopicIntent string

const (
	TopicChosen  TopicIntent = "chosen"
	TopicUnclear TopicIntent = "unclear"
	TopicQuit    TopicIntent = "quit"
)

// TopicVerdict is the structured result for the topic stage.
type TopicVerdict struct {
	Intent TopicIntent `json:"intent"`
	Topic  string      `json:"topic,omitempty"`
}

// DifficultyIntent is the classifier's reading of the difficulty reply.
type DifficultyIntent string

const (
	DifficultyChosen  DifficultyIntent = "chosen"
	DifficultyUnclear DifficultyIntent = "unclear"
	DifficultyQuit    DifficultyIntent = "quit"
)

// DifficultyVerdict is the structured result for the difficulty stage.
type DifficultyVerdict struct {
	Intent     DifficultyIntent `json:"intent"`
	Difficulty string           `json:"difficulty,omitempty"`
}

// ReplyIntent is the classifier's reading of a reply to an interview question.
type ReplyIntent string

const (
	ReplyAnswer ReplyIntent = "answer"
	ReplyRepeat ReplyIntent = "repeat"
	ReplyQuit   ReplyIntent = "quit"
)

// ReplyVerdict is the structured result for a question reply.
type ReplyVerdict struct {
	Intent ReplyIntent `json:"intent"`
}

// Evaluation is the pass/fail judgement of an answer.
type Evaluation struct {
	Passed     bool   `json:"passed"`
	Feedback   string `json:"feedback"`
	Correction string `json:"correction,omitempty"`
}

// Classifier converts free text into structured verdicts, one schema per stage.
// Implementations may fail or time out; callers wrap them with retry.Do.
type Classifier interface {
	Identity(ctx context.Context, expectedName, text string) (IdentityVerdict, error)
	Topic(ctx context.Context, text string) (TopicVerdict, error)
	Difficulty(ctx context.Context, text string) (DifficultyVerdict, error)
	Reply(ctx context.Context, question, text string) (ReplyVerdict, error)
	Evaluate(ctx context.Context, topic, question, answer string) (Evaluation, error)
}

// Generator produces an ordered pool of interview questions.
type Generator interface {
	GenerateQuestions(ctx context.Context, topic, difficulty string, count int) ([]string, error)
}
