package interview

import (
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// FallbackFeedback is sent when an answer cannot be evaluated.
const FallbackFeedback = "Nice effort! Let's keep going."

const (
	askNameText   = "Hey there! 👋 I'm your friendly AI interviewer. Before we start, what's your name?"
	notCaughtText = "Sorry, I didn't quite catch that."
)

func confirmNameText(name string) string {
	return fmt.Sprintf("Hey there! 👋 I'm your friendly AI interviewer. Am I speaking with %s?", name)
}

func askTopicText(name string) string {
	return fmt.Sprintf("Awesome, %s! 🎯 What topic would you like to practice? (e.g. Python, JavaScript, SQL, React, Java, C++, etc.)", name)
}

func askDifficultyText(topic string) string {
	return fmt.Sprintf("%s it is! How challenging should the questions be: easy, medium or hard?", topic)
}

func poolReadyText(count int, topic, difficulty string) string {
	return fmt.Sprintf("Great, I've prepared %d %s questions on %s. Take your time with each one.", count, difficulty, topic)
}

func questionText(n, total int, q string) string {
	return fmt.Sprintf("Question %d of %d: %s", n, total, q)
}

func feedbackText(e ports.Evaluation) string {
	if e.Correction == "" {
		return e.Feedback
	}
	return e.Feedback + "\n\n" + e.Correction
}

func wrongPersonText(name string) string {
	return fmt.Sprintf("Sorry about that! This interview was set up for %s, so I'll stop here. Goodbye! 👋", name)
}

func quitText(name string) string {
	if name == "" {
		return "No problem, we can stop here. Come back any time. Goodbye! 👋"
	}
	return fmt.Sprintf("No problem, %s, we can stop here. Come back any time. Goodbye! 👋", name)
}

func summaryText(results []domain.Result) string {
	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You got %d of %d answers right.", passed, len(results))
	for i, r := range results {
		mark := "✗"
		if r.Passed {
			mark = "✓"
		}
		fmt.Fprintf(&b, "\n%s %d. %s", mark, i+1, r.Question)
	}
	return b.String()
}

func farewellText(name, topic string) string {
	return fmt.Sprintf("Great job %s! 🎉 That was a solid practice session on %s. Keep learning and you'll do amazing. Good luck! 🚀", name, topic)
}
