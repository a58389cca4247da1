package interview

import (
	"fmt"
	"slices"
	"strings"
)

var fallbackTemplates = []string{
	"In your own words, what is %s and what is it typically used for?",
	"Can you describe one core concept of %s and give a small example?",
	"What is a common mistake beginners make with %s, and how would you avoid it?",
	"How would you explain the difference between two key features of %s?",
	"Describe a small project you could build with %s. Which parts of it would you use?",
	"What tools or resources would you use to debug a problem in %s?",
}

// FallbackQuestions returns count scripted questions about topic. It is used
// when the Generator cannot produce a pool.
func FallbackQuestions(topic string, count int) []string {
	if topic == "" {
		topic = "this topic"
	}
	out := make([]string, 0, count)
	for i := 0; len(out) < count; i++ {
		q := fmt.Sprintf(fallbackTemplates[i%len(fallbackTemplates)], topic)
		if i >= len(fallbackTemplates) {
			q = fmt.Sprintf("%s (follow-up %d)", q, i/len(fallbackTemplates))
		}
		out = append(out, q)
	}
	return out
}

// normalizePool trims, de-duplicates and caps generated questions, topping the
// pool up from the fallback set when the generator returned too few.
func normalizePool(generated []string, topic string, count int) []string {
	pool := make([]string, 0, count)
	add := func(q string) {
		q = strings.TrimSpace(q)
		if q == "" || len(pool) >= count || slices.Contains(pool, q) {
			return
		}
		pool = append(pool, q)
	}
	for _, q := range generated {
		add(q)
	}
	for _, q := range FallbackQuestions(topic, count*2) {
		add(q)
	}
	return pool
}
