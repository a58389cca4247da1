package interview

import (
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/graph"
)

// IdentityOutcome routes after the identity check.
type IdentityOutcome string

const (
	IdentityValid    IdentityOutcome = "valid"
	IdentityNotValid IdentityOutcome = "not_valid"
	IdentityRepeat   IdentityOutcome = "repeat"
	IdentityQuit     IdentityOutcome = "quit"
	IdentitySilence  IdentityOutcome = "silence"
)

// IdentityOutcomes is the closed set of identity outcomes.
var IdentityOutcomes = []IdentityOutcome{IdentityValid, IdentityNotValid, IdentityRepeat, IdentityQuit, IdentitySilence}

// TopicOutcome routes after the topic check.
type TopicOutcome string

const (
	TopicValid   TopicOutcome = "topic_valid"
	TopicRepeat  TopicOutcome = "repeat"
	TopicQuit    TopicOutcome = "quit"
	TopicSilence TopicOutcome = "silence"
)

// TopicOutcomes is the closed set of topic outcomes.
var TopicOutcomes = []TopicOutcome{TopicValid, TopicRepeat, TopicQuit, TopicSilence}

// DifficultyOutcome routes after the difficulty check.
type DifficultyOutcome string

const (
	DifficultyValid   DifficultyOutcome = "difficulty_valid"
	DifficultyRepeat  DifficultyOutcome = "repeat"
	DifficultyQuit    DifficultyOutcome = "quit"
	DifficultySilence DifficultyOutcome = "silence"
)

// DifficultyOutcomes is the closed set of difficulty outcomes.
var DifficultyOutcomes = []DifficultyOutcome{DifficultyValid, DifficultyRepeat, DifficultyQuit, DifficultySilence}

// AnswerOutcome routes after an answer has been checked.
type AnswerOutcome string

const (
	AnswerNext     AnswerOutcome = "next_question"
	AnswerFinished AnswerOutcome = "finished"
	AnswerRepeat   AnswerOutcome = "repeat"
	AnswerQuit     AnswerOutcome = "quit"
	AnswerSilence  AnswerOutcome = "silence"
)

// AnswerOutcomes is the closed set of answer outcomes.
var AnswerOutcomes = []AnswerOutcome{AnswerNext, AnswerFinished, AnswerRepeat, AnswerQuit, AnswerSilence}

// identityRouter reads the outcome check_identity recorded. Every router here
// only reads the preceding check node's outcome; a value outside the declared
// set surfaces as a RoutingError in the executor.
func identityRouter() graph.Router {
	return graph.NewRouter("identity", IdentityOutcomes, func(s *domain.State) IdentityOutcome {
		return IdentityOutcome(s.Slots.Outcome)
	})
}

func topicRouter() graph.Router {
	return graph.NewRouter("topic", TopicOutcomes, func(s *domain.State) TopicOutcome {
		return TopicOutcome(s.Slots.Outcome)
	})
}

func difficultyRouter() graph.Router {
	return graph.NewRouter("difficulty", DifficultyOutcomes, func(s *domain.State) DifficultyOutcome {
		return DifficultyOutcome(s.Slots.Outcome)
	})
}

func answerRouter() graph.Router {
	return graph.NewRouter("answer", AnswerOutcomes, func(s *domain.State) AnswerOutcome {
		return AnswerOutcome(s.Slots.Outcome)
	})
}
