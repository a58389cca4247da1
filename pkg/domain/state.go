package domain

import (
	"fmt"
	"slices"
	"time"
)

// Role identifies the author of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// Message is a single entry of the conversation log.
type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// DefaultMaxQuestions is used when a session starts without an explicit limit.
const DefaultMaxQuestions = 3

// Slots holds the scalar values a session accumulates.
type Slots struct {
	StudentName   string `json:"student_name,omitempty"`
	Topic         string `json:"topic,omitempty"`
	Difficulty    string `json:"difficulty,omitempty"`
	QuestionCount int    `json:"question_count"`
	MaxQuestions  int    `json:"max_questions"`

	// LastInput is the most recent human input, written by the controller on resume.
	LastInput string `json:"last_input,omitempty"`
	// Outcome is the last classification produced by a check node; routers read it.
	Outcome string `json:"outcome,omitempty"`
}

// Result records the evaluation of one answered question.
type Result struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Passed     bool   `json:"passed"`
	Feedback   string `json:"feedback"`
	Correction string `json:"correction,omitempty"`
}

// State represents the snapshot of a session.
type State struct {
	SessionID string `json:"session_id"`

	// Messages is append-only. Nothing may reorder or truncate it.
	Messages []Message `json:"messages"`

	Slots Slots `json:"slots"`

	// QuestionPool is the ordered list produced by the generator.
	QuestionPool []string `json:"question_pool,omitempty"`
	// Asked is the subset of QuestionPool already put to the student, in order.
	Asked []string `json:"asked,omitempty"`

	Results []Result `json:"results,omitempty"`

	// PendingNode is the name of the next node to run.
	PendingNode string `json:"pending_node"`

	// Terminal is set exactly once, when the session reaches the end marker.
	Terminal bool `json:"terminal"`

	// Steps counts node executions over the life of the session.
	Steps int64 `json:"steps"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewState creates a clean state positioned at the entry node.
func NewState(sessionID, entryNode string, slots Slots) *State {
	if slots.MaxQuestions <= 0 {
		slots.MaxQuestions = DefaultMaxQuestions
	}
	now := time.Now().UTC()
	return &State{
		SessionID:   sessionID,
		Messages:    []Message{},
		Slots:       slots,
		PendingNode: entryNode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CurrentQuestion returns the last question asked, or "" if none.
func (s *State) CurrentQuestion() string {
	if len(s.Asked) == 0 {
		return ""
	}
	return s.Asked[len(s.Asked)-1]
}

// NextQuestion returns the first pooled question not yet asked.
func (s *State) NextQuestion() (string, bool) {
	for _, q := range s.QuestionPool {
		if !slices.Contains(s.Asked, q) {
			return q, true
		}
	}
	return "", false
}

// Clone returns a deep copy safe for independent mutation.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	next := *s
	next.Messages = slices.Clone(s.Messages)
	next.QuestionPool = slices.Clone(s.QuestionPool)
	next.Asked = slices.Clone(s.Asked)
	next.Results = slices.Clone(s.Results)
	if next.Messages == nil {
		next.Messages = []Message{}
	}
	return &next
}

// Apply merges a partial update into the state.
// Messages and results are appended; scalar fields present in the update overwrite.
// A non-nil QuestionPool replaces the pool and clears the asked subset and the counter.
func (s *State) Apply(u Update) error {
	if u.QuestionPool != nil {
		s.QuestionPool = slices.Clone(u.QuestionPool)
		s.Asked = nil
		s.Slots.QuestionCount = 0
	}
	if u.Asked != nil {
		if !slices.Contains(s.QuestionPool, *u.Asked) {
			return fmt.Errorf("question %q is not part of the pool", *u.Asked)
		}
		s.Asked = append(s.Asked, *u.Asked)
	}
	if u.QuestionCount != nil {
		if *u.QuestionCount < s.Slots.QuestionCount {
			return fmt.Errorf("question count cannot decrease from %d to %d", s.Slots.QuestionCount, *u.QuestionCount)
		}
		s.Slots.QuestionCount = *u.QuestionCount
	}
	if u.StudentName != nil {
		s.Slots.StudentName = *u.StudentName
	}
	if u.Topic != nil {
		s.Slots.Topic = *u.Topic
	}
	if u.Difficulty != nil {
		s.Slots.Difficulty = *u.Difficulty
	}
	if u.Outcome != nil {
		s.Slots.Outcome = *u.Outcome
	}

	now := time.Now().UTC()
	for _, m := range u.Messages {
		if m.Timestamp.IsZero() {
			m.Timestamp = now
		}
		s.Messages = append(s.Messages, m)
	}
	s.Results = append(s.Results, u.Results...)
	s.UpdatedAt = now
	return nil
}

// Checkpoint is the unit of crash recovery: a full snapshot plus the next node to run.
type Checkpoint struct {
	SessionID   string    `json:"session_id"`
	State       *State    `json:"state"`
	PendingNode string    `json:"pending_node"`
	Seq         int64     `json:"seq"`
	SavedAt     time.Time `json:"saved_at"`

	// Sealed holds the encrypted State when the store is wrapped by an
	// encryption layer. State then only carries routing metadata.
	Sealed string `json:"sealed,omitempty"`
}

// Clone returns a deep copy of the checkpoint.
func (c *Checkpoint) Clone() *Checkpoint {
	if c == nil {
		return nil
	}
	next := *c
	next.State = c.State.Clone()
	return &next
}
