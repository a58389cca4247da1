package rules

import (
	"slices"
	"strings"
	"unicode"
)

// QuitKeywords end the interview when they make up a short reply.
var QuitKeywords = []string{"quit", "exit", "stop", "end", "bye", "done"}

var quitPhrases = []string{
	"want to stop", "want to quit", "wanna stop", "wanna quit",
	"i'm done", "im done", "i am done", "no more", "that's enough", "that is enough",
	"let's stop", "lets stop", "end the interview", "stop the interview", "goodbye",
}

var yesWords = []string{"yes", "yeah", "yep", "yup", "sure", "correct", "right", "ok", "okay", "y", "indeed", "speaking", "affirmative"}

var noWords = []string{"no", "nope", "nah", "wrong", "incorrect", "n"}

var repeatPhrases = []string{
	"repeat", "again", "pardon", "come again", "didn't catch", "didn't get", "what was the question",
	"say that", "one more time",
}

// words lowercases text and splits it on anything that is not a letter, digit, '+', '#' or apostrophe.
func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#' && r != '\''
	})
}

func normalize(text string) string {
	return strings.Join(words(text), " ")
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func anyWord(ws, vocab []string) bool {
	for _, w := range ws {
		if slices.Contains(vocab, w) {
			return true
		}
	}
	return false
}

// IsQuit reports whether a reply asks to end the interview. Long replies only
// count when they contain an explicit phrase, so an answer that mentions
// "end" in passing is not mistaken for a request to stop.
func IsQuit(text string) bool {
	n := normalize(text)
	if n == "" {
		return false
	}
	if containsAny(n, quitPhrases) {
		return true
	}
	ws := words(text)
	return len(ws) <= 3 && anyWord(ws, QuitKeywords)
}

func isRepeat(text string) bool {
	n := normalize(text)
	if len(words(text)) <= 6 && containsAny(n, repeatPhrases) {
		return true
	}
	return n == "what" || n == "huh" || n == "sorry"
}

func title(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
