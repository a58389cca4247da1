package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModel is the part of an eino chat model the client needs.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Config selects and tunes an OpenAI-compatible model.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Client is a Classifier and a Generator backed by a chat model.
type Client struct {
	model  ChatModel
	logger *slog.Logger
}

var (
	_ ports.Classifier = (*Client)(nil)
	_ ports.Generator  = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for an OpenAI-compatible endpoint.
func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: api key is required")
	}
	mc := &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	}
	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		mc.MaxTokens = &maxTokens
	}
	if cfg.Temperature > 0 {
		temperature := float32(cfg.Temperature)
		mc.Temperature = &temperature
	}

	cm, err := openai.NewChatModel(ctx, mc)
	if err != nil {
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}
	return NewFromModel(cm, opts...), nil
}

// NewFromModel wraps an existing chat model.
func NewFromModel(m ChatModel, opts ...Option) *Client {
	c := &Client{model: m, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ask sends a system prompt plus the student's text and decodes the JSON reply into out.
func (c *Client) ask(ctx context.Context, op, system, user string, out any) error {
	msgs := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}
	resp, err := c.model.Generate(ctx, msgs)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp == nil {
		return fmt.Errorf("%s: empty response: %w", op, domain.ErrMalformedResponse)
	}

	raw := extractJSON(resp.Content)
	if err := sonic.UnmarshalString(raw, out); err != nil {
		c.logger.DebugContext(ctx, "unparseable model output", "op", op, "content", resp.Content)
		return fmt.Errorf("%s: %v: %w", op, err, domain.ErrMalformedResponse)
	}
	return nil
}

// extractJSON trims code fences and surrounding prose, keeping the outermost object.
func extractJSON(content string) string {
	s := strings.TrimSpace(content)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

func malformed(op, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %w", op, fmt.Sprintf(format, args...), domain.ErrMalformedResponse)
}

// Identity classifies the identity confirmation reply.
func (c *Client) Identity(ctx context.Context, expectedName, text string) (ports.IdentityVerdict, error) {
	var v ports.IdentityVerdict
	if err := c.ask(ctx, "identity", fmt.Sprintf(identityPrompt, expectedName), text, &v); err != nil {
		return v, err
	}
	switch v.Intent {
	case ports.IdentityConfirmed, ports.IdentityDenied, ports.IdentityUnclear, ports.IdentityQuit:
		v.Name = strings.TrimSpace(v.Name)
		return v, nil
	}
	return ports.IdentityVerdict{}, malformed("identity", "unknown intent %q", v.Intent)
}

// Topic classifies the topic reply.
func (c *Client) Topic(ctx context.Context, text string) (ports.TopicVerdict, error) {
	var v ports.TopicVerdict
	if err := c.ask(ctx, "topic", topicPrompt, text, &v); err != nil {
		return v, err
	}
	switch v.Intent {
	case ports.TopicChosen, ports.TopicUnclear, ports.TopicQuit:
		v.Topic = strings.TrimSpace(v.Topic)
		return v, nil
	}
	return ports.TopicVerdict{}, malformed("topic", "unknown intent %q", v.Intent)
}

// Difficulty classifies the difficulty reply.
func (c *Client) Difficulty(ctx context.Context, text string) (ports.DifficultyVerdict, error) {
	var v ports.DifficultyVerdict
	if err := c.ask(ctx, "difficulty", difficultyPrompt, text, &v); err != nil {
		return v, err
	}
	switch v.Intent {
	case ports.DifficultyChosen:
		switch d := strings.ToLower(strings.TrimSpace(v.Difficulty)); d {
		case "easy", "medium", "hard":
			v.Difficulty = d
			return v, nil
		}
		return ports.DifficultyVerdict{}, malformed("difficulty", "unknown level %q", v.Difficulty)
	case ports.DifficultyUnclear, ports.DifficultyQuit:
		return v, nil
	}
	return ports.DifficultyVerdict{}, malformed("difficulty", "unknown intent %q", v.Intent)
}

// Reply classifies a reply to an interview question.
func (c *Client) Reply(ctx context.Context, question, text string) (ports.ReplyVerdict, error) {
	var v ports.ReplyVerdict
	if err := c.ask(ctx, "reply", fmt.Sprintf(replyPrompt, question), text, &v); err != nil {
		return v, err
	}
	switch v.Intent {
	case ports.ReplyAnswer, ports.ReplyRepeat, ports.ReplyQuit:
		return v, nil
	}
	return ports.ReplyVerdict{}, malformed("reply", "unknown intent %q", v.Intent)
}

// Evaluate grades an answer.
func (c *Client) Evaluate(ctx context.Context, topic, question, answer string) (ports.Evaluation, error) {
	var e ports.Evaluation
	if err := c.ask(ctx, "evaluate", fmt.Sprintf(evaluatePrompt, topic, question), answer, &e); err != nil {
		return e, err
	}
	e.Feedback = strings.TrimSpace(e.Feedback)
	e.Correction = strings.TrimSpace(e.Correction)
	if e.Feedback == "" {
		return ports.Evaluation{}, malformed("evaluate", "missing feedback")
	}
	return e, nil
}

// GenerateQuestions asks the model for a question pool.
func (c *Client) GenerateQuestions(ctx context.Context, topic, difficulty string, count int) ([]string, error) {
	var out struct {
		Questions []string `json:"questions"`
	}
	prompt := fmt.Sprintf(questionsPrompt, count, difficulty, topic)
	if err := c.ask(ctx, "questions", prompt, "Please write the questions now.", &out); err != nil {
		return nil, err
	}
	qs := make([]string, 0, len(out.Questions))
	for _, q := range out.Questions {
		if q = strings.TrimSpace(q); q != "" {
			qs = append(qs, q)
		}
	}
	if len(qs) == 0 {
		return nil, malformed("questions", "no questions returned")
	}
	return qs, nil
}
