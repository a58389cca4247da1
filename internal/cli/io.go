package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/parley/internal/presentation/tui"
	"github.com/aretw0/parley/pkg/session"
)

// IOHandler defines how a session talks to the student.
// This allows switching between Text (terminal) and JSON (structured) modes.
type IOHandler interface {
	// Output presents what a Start or Resume produced.
	Output(ctx context.Context, res *session.Result) error
	// Input blocks until the student replies or ctx is done.
	Input(ctx context.Context) (string, error)
	// SystemOutput reports something about the session rather than from the interviewer.
	SystemOutput(ctx context.Context, msg string) error
}

// lineReader pumps lines from a reader on a single goroutine so Input can
// select on ctx while a read is pending.
type lineReader struct {
	once  sync.Once
	r     *bufio.Reader
	lines chan lineResult
}

type lineResult struct {
	text string
	err  error
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r), lines: make(chan lineResult)}
}

func (l *lineReader) next(ctx context.Context) (string, error) {
	l.once.Do(func() {
		go func() {
			for {
				text, err := l.r.ReadString('\n')
				if err != nil && text == "" {
					l.lines <- lineResult{err: err}
					close(l.lines)
					return
				}
				l.lines <- lineResult{text: strings.TrimRight(text, "\r\n")}
			}
		}()
	})
	select {
	case <-ctx.Done():
		return "", errInterrupted
	case res, ok := <-l.lines:
		if !ok {
			return "", io.EOF
		}
		return res.text, res.err
	}
}

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Writer   io.Writer
	Renderer tui.Renderer
	lines    *lineReader
}

// NewTextHandler creates a handler for terminal IO. Messages are printed raw
// unless a Renderer is set.
func NewTextHandler(r io.Reader, w io.Writer) *TextHandler {
	return &TextHandler{
		Writer: w,
		lines:  newLineReader(r),
	}
}

func (h *TextHandler) Output(ctx context.Context, res *session.Result) error {
	for _, m := range res.Messages {
		output := m.Text
		if h.Renderer != nil {
			if rendered, err := h.Renderer(m.Text); err == nil {
				output = rendered
			}
		}
		if _, err := fmt.Fprintln(h.Writer, strings.TrimSpace(output)); err != nil {
			return err
		}
	}
	return nil
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	fmt.Fprint(h.Writer, "> ")
	text, err := h.lines.next(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	printSystemMessage(h.Writer, "%s", msg)
	return nil
}

// Turn is one JSON line written in JSON mode.
type Turn struct {
	Type     string          `json:"type"`
	Messages []string        `json:"messages,omitempty"`
	Status   *session.Status `json:"status,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// JSONHandler speaks JSON Lines: one Turn per output, one reply per input line.
type JSONHandler struct {
	Encoder *json.Encoder
	lines   *lineReader
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	return &JSONHandler{
		Encoder: json.NewEncoder(w),
		lines:   newLineReader(r),
	}
}

func (h *JSONHandler) Output(ctx context.Context, res *session.Result) error {
	texts := make([]string, 0, len(res.Messages))
	for _, m := range res.Messages {
		texts = append(texts, m.Text)
	}
	status := res.Status
	return h.Encoder.Encode(Turn{Type: "turn", Messages: texts, Status: &status})
}

// Input accepts either a JSON string ("value") or a raw line.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	text, err := h.lines.next(ctx)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)

	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return val, nil
	}
	return text, nil
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(Turn{Type: "system", Message: msg})
}
