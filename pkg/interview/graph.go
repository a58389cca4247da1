package interview

import (
	"errors"

	"github.com/aretw0/parley/pkg/graph"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/retry"
)

// Deps are the collaborators the interview nodes call.
type Deps struct {
	Classifier ports.Classifier
	Generator  ports.Generator
	// Retry governs every collaborator call. The zero value is three attempts.
	Retry retry.Policy
}

// NewGraph builds and validates the interview graph.
func NewGraph(deps Deps) (*graph.Definition, error) {
	if deps.Classifier == nil || deps.Generator == nil {
		return nil, errors.New("interview: classifier and generator are required")
	}
	n := &nodes{
		classifier: deps.Classifier,
		generator:  deps.Generator,
		policy:     deps.Retry,
	}

	b := graph.New()

	b.AddNode(NodeGreet, n.greet)
	b.AddNode(NodeCheckIdentity, n.checkIdentity, graph.InterruptBefore())
	b.AddNode(NodeAskTopic, n.askTopic)
	b.AddNode(NodeCheckTopic, n.checkTopic, graph.InterruptBefore())
	b.AddNode(NodeAskDifficulty, n.askDifficulty)
	b.AddNode(NodeCheckDifficulty, n.checkDifficulty, graph.InterruptBefore())
	b.AddNode(NodePrepareQuestions, n.prepareQuestions)
	b.AddNode(NodeAskQuestion, n.askQuestion)
	b.AddNode(NodeCheckAnswer, n.checkAnswer, graph.InterruptBefore())
	b.AddNode(NodeRepeatQuestion, n.repeatQuestion)
	b.AddNode(NodeEndQuit, n.endQuit)
	b.AddNode(NodeEndComplete, n.endComplete)

	b.SetEntry(NodeGreet)

	b.AddEdge(NodeGreet, NodeCheckIdentity)
	b.AddConditionalEdge(NodeCheckIdentity, identityRouter(), graph.Routes(map[IdentityOutcome]string{
		IdentityValid:    NodeAskTopic,
		IdentityNotValid: NodeEndQuit,
		IdentityQuit:     NodeEndQuit,
		IdentityRepeat:   NodeGreet,
		IdentitySilence:  NodeGreet,
	}))

	b.AddEdge(NodeAskTopic, NodeCheckTopic)
	b.AddConditionalEdge(NodeCheckTopic, topicRouter(), graph.Routes(map[TopicOutcome]string{
		TopicValid:   NodeAskDifficulty,
		TopicQuit:    NodeEndQuit,
		TopicRepeat:  NodeAskTopic,
		TopicSilence: NodeAskTopic,
	}))

	b.AddEdge(NodeAskDifficulty, NodeCheckDifficulty)
	b.AddConditionalEdge(NodeCheckDifficulty, difficultyRouter(), graph.Routes(map[DifficultyOutcome]string{
		DifficultyValid:   NodePrepareQuestions,
		DifficultyQuit:    NodeEndQuit,
		DifficultyRepeat:  NodeAskDifficulty,
		DifficultySilence: NodeAskDifficulty,
	}))

	b.AddEdge(NodePrepareQuestions, NodeAskQuestion)
	b.AddEdge(NodeAskQuestion, NodeCheckAnswer)
	b.AddConditionalEdge(NodeCheckAnswer, answerRouter(), graph.Routes(map[AnswerOutcome]string{
		AnswerNext:     NodeAskQuestion,
		AnswerFinished: NodeEndComplete,
		AnswerQuit:     NodeEndQuit,
		AnswerRepeat:   NodeRepeatQuestion,
		AnswerSilence:  NodeRepeatQuestion,
	}))
	b.AddEdge(NodeRepeatQuestion, NodeCheckAnswer)

	b.AddEdge(NodeEndQuit, graph.End)
	b.AddEdge(NodeEndComplete, graph.End)

	return b.Build()
}
