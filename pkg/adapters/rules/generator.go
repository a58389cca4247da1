package rules

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/pkg/ports"
)

var bank = map[string][]string{
	"easy": {
		"What is %s, and what is it commonly used for?",
		"How do you write a simple \"hello world\" style example in %s?",
		"What is a variable in %s and how do you declare one?",
		"Name one basic data type in %s and describe when you would use it.",
		"How do you add a comment in %s code?",
	},
	"medium": {
		"How does %s handle errors, and what is a good practice for dealing with them?",
		"Explain how you would organise a small project written in %s.",
		"What is the difference between a value and a reference in %s?",
		"How would you test a function written in %s?",
		"Describe a common collection type in %s and its trade-offs.",
	},
	"hard": {
		"How does %s manage memory, and what pitfalls should you watch for?",
		"Explain how concurrency or parallelism works in %s.",
		"How would you profile and speed up a slow program written in %s?",
		"Describe a design pattern that fits %s well and why.",
		"What happens under the hood when a %s program starts running?",
	},
}

// Generator produces questions from a fixed template bank.
type Generator struct{}

// NewGenerator returns a template-based generator.
func NewGenerator() *Generator {
	return &Generator{}
}

var _ ports.Generator = (*Generator)(nil)

// GenerateQuestions fills count templates for the given difficulty with topic.
// Unknown difficulties use the medium bank.
func (g *Generator) GenerateQuestions(ctx context.Context, topic, difficulty string, count int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, fmt.Errorf("question count must be positive, got %d", count)
	}
	templates, ok := bank[difficulty]
	if !ok {
		templates = bank["medium"]
	}
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		q := fmt.Sprintf(templates[i%len(templates)], topic)
		if i >= len(templates) {
			q = fmt.Sprintf("%s (part %d)", q, i/len(templates)+1)
		}
		out = append(out, q)
	}
	return out, nil
}
