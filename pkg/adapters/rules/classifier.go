package rules

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/aretw0/parley/pkg/ports"
)

var namePrefixes = []string{"my name is ", "name is ", "i'm ", "im ", "i am ", "call me ", "it's ", "its ", "this is "}

var topics = map[string]string{
	"python": "Python", "go": "Go", "golang": "Go", "javascript": "JavaScript", "js": "JavaScript",
	"typescript": "TypeScript", "ts": "TypeScript", "sql": "SQL", "react": "React", "java": "Java",
	"c++": "C++", "cpp": "C++", "c#": "C#", "csharp": "C#", "rust": "Rust", "ruby": "Ruby",
	"kotlin": "Kotlin", "swift": "Swift", "php": "PHP", "html": "HTML", "css": "CSS",
	"docker": "Docker", "kubernetes": "Kubernetes", "git": "Git", "linux": "Linux",
}

var levels = map[string]string{
	"easy": "easy", "beginner": "easy", "simple": "easy", "basic": "easy", "low": "easy",
	"medium": "medium", "intermediate": "medium", "moderate": "medium", "normal": "medium", "mid": "medium",
	"hard": "hard", "advanced": "hard", "difficult": "hard", "expert": "hard", "high": "hard", "tough": "hard",
}

var unsureAnswers = []string{"i don't know", "i dont know", "no idea", "not sure", "idk", "no clue", "pass"}

// Classifier is a keyword-based ports.Classifier.
type Classifier struct{}

// NewClassifier returns a rule-based classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

var _ ports.Classifier = (*Classifier)(nil)

// Identity recognises yes/no confirmations and, when no name is expected, introductions.
func (c *Classifier) Identity(_ context.Context, expectedName, text string) (ports.IdentityVerdict, error) {
	if IsQuit(text) {
		return ports.IdentityVerdict{Intent: ports.IdentityQuit}, nil
	}
	ws := words(text)
	name := extractName(text)

	if expectedName == "" {
		if name != "" {
			return ports.IdentityVerdict{Intent: ports.IdentityConfirmed, Name: name}, nil
		}
		return ports.IdentityVerdict{Intent: ports.IdentityUnclear}, nil
	}

	switch {
	case anyWord(ws, noWords):
		return ports.IdentityVerdict{Intent: ports.IdentityDenied, Name: name}, nil
	case anyWord(ws, yesWords), anyWord(ws, words(expectedName)):
		return ports.IdentityVerdict{Intent: ports.IdentityConfirmed}, nil
	}
	return ports.IdentityVerdict{Intent: ports.IdentityUnclear}, nil
}

// extractName pulls a first name out of an introduction such as "I'm Ada" or a bare "Ada".
func extractName(text string) string {
	text = strings.TrimSpace(text)
	// Prefixes only match at a word boundary; the leading space makes index i in
	// padded line up with i-1 in text.
	padded := " " + strings.ToLower(text)
	rest := ""
	for _, p := range namePrefixes {
		if i := strings.Index(padded, " "+p); i >= 0 {
			rest = strings.TrimSpace(text[i+len(p):])
			break
		}
	}
	if rest == "" {
		ws := strings.Fields(text)
		if len(ws) == 0 || len(ws) > 2 {
			return ""
		}
		rest = ws[0]
	}
	first := strings.FieldsFunc(rest, func(r rune) bool { return !unicode.IsLetter(r) && r != '-' && r != '\'' })
	if len(first) == 0 {
		return ""
	}
	candidate := strings.ToLower(first[0])
	for _, stop := range [][]string{yesWords, noWords, QuitKeywords, {"hi", "hello", "hey", "the", "a"}} {
		for _, w := range stop {
			if candidate == w {
				return ""
			}
		}
	}
	return title(candidate)
}

// Topic picks a known technology, or accepts a short free-form subject.
func (c *Classifier) Topic(_ context.Context, text string) (ports.TopicVerdict, error) {
	if IsQuit(text) {
		return ports.TopicVerdict{Intent: ports.TopicQuit}, nil
	}
	ws := words(text)
	for _, w := range ws {
		if t, ok := topics[w]; ok {
			return ports.TopicVerdict{Intent: ports.TopicChosen, Topic: t}, nil
		}
	}
	if len(ws) > 0 && len(ws) <= 3 && !anyWord(ws, yesWords) && !anyWord(ws, noWords) {
		return ports.TopicVerdict{Intent: ports.TopicChosen, Topic: title(strings.Join(ws, " "))}, nil
	}
	return ports.TopicVerdict{Intent: ports.TopicUnclear}, nil
}

// Difficulty maps synonyms onto easy, medium and hard.
func (c *Classifier) Difficulty(_ context.Context, text string) (ports.DifficultyVerdict, error) {
	if IsQuit(text) {
		return ports.DifficultyVerdict{Intent: ports.DifficultyQuit}, nil
	}
	for _, w := range words(text) {
		if l, ok := levels[w]; ok {
			return ports.DifficultyVerdict{Intent: ports.DifficultyChosen, Difficulty: l}, nil
		}
	}
	return ports.DifficultyVerdict{Intent: ports.DifficultyUnclear}, nil
}

// Reply separates answers from requests to repeat or stop.
func (c *Classifier) Reply(_ context.Context, _, text string) (ports.ReplyVerdict, error) {
	switch {
	case IsQuit(text):
		return ports.ReplyVerdict{Intent: ports.ReplyQuit}, nil
	case isRepeat(text):
		return ports.ReplyVerdict{Intent: ports.ReplyRepeat}, nil
	}
	return ports.ReplyVerdict{Intent: ports.ReplyAnswer}, nil
}

// Evaluate passes answers that make a real attempt. It cannot judge correctness.
func (c *Classifier) Evaluate(_ context.Context, topic, question, answer string) (ports.Evaluation, error) {
	n := normalize(answer)
	if n == "" || containsAny(n, unsureAnswers) {
		return ports.Evaluation{
			Passed:     false,
			Feedback:   "That's okay, not knowing is part of learning! 🌱",
			Correction: fmt.Sprintf("Take a moment later to look this one up: %s", question),
		}, nil
	}
	if len(words(answer)) < 4 {
		return ports.Evaluation{
			Passed:   false,
			Feedback: fmt.Sprintf("Thanks! Try to explain a little more next time, it really helps with %s interviews.", topic),
		}, nil
	}
	return ports.Evaluation{
		Passed:   true,
		Feedback: "Nice, that's a thoughtful answer! 👍",
	}, nil
}
