package graph_test

import (
	"context"
	"testing"

	presentation "github.com/aretw0/parley/internal/presentation/graph"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verdict string

const (
	yes verdict = "yes"
	no  verdict = "no"
	huh verdict = "huh"
)

func noop(context.Context, *domain.State) (domain.Update, error) { return domain.Update{}, nil }

func sample(t *testing.T) *graph.Definition {
	t.Helper()
	r := graph.NewRouter("verdict", []verdict{yes, no, huh}, func(*domain.State) verdict { return yes })
	def, err := graph.New().
		AddNode("ask", noop).
		AddNode("check-reply", noop, graph.InterruptBefore()).
		AddNode("done", noop).
		AddEdge("ask", "check-reply").
		AddConditionalEdge("check-reply", r, graph.Routes(map[verdict]string{
			yes: "done",
			no:  graph.End,
			huh: "ask",
		})).
		AddEdge("done", graph.End).
		SetEntry("ask").
		Build()
	require.NoError(t, err)
	return def
}

func TestGenerateMermaid(t *testing.T) {
	out := presentation.GenerateMermaid(sample(t), nil)

	for _, want := range []string{
		"graph TD\n",
		"ask((\"ask\"))",
		"check_reply[/\"check-reply\"/]",
		"done[\"done\"]",
		"ask --> check_reply",
		"check_reply -- \"yes\" --> done",
		"check_reply -- \"no\" --> END",
		"check_reply -- \"huh\" --> ask",
		"done --> END",
		"END(((\"end\")))",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_GroupsOutcomes(t *testing.T) {
	r := graph.NewRouter("verdict", []verdict{yes, no, huh}, func(*domain.State) verdict { return yes })
	def := graph.New().
		AddNode("ask", noop, graph.InterruptBefore()).
		AddConditionalEdge("ask", r, graph.Routes(map[verdict]string{
			yes: graph.End,
			no:  "ask",
			huh: "ask",
		})).
		SetEntry("ask").
		MustBuild()

	out := presentation.GenerateMermaid(def, nil)
	assert.Contains(t, out, "ask -- \"huh / no\" --> ask")
	assert.Contains(t, out, "ask -- \"yes\" --> END")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	out := presentation.GenerateMermaid(sample(t), &presentation.Overlay{CurrentNode: "check-reply"})
	assert.Contains(t, out, "classDef current")
	assert.Contains(t, out, "class check_reply current;")
}
