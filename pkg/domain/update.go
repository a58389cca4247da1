package domain

// Update is the partial state change returned by a node handler.
// Nil pointer fields leave the corresponding slot untouched.
type Update struct {
	Messages []Message
	Results  []Result

	StudentName   *string
	Topic         *string
	Difficulty    *string
	QuestionCount *int
	Outcome       *string

	// QuestionPool, when non-nil, starts a new pool.
	QuestionPool []string
	// Asked marks a pooled question as put to the student.
	Asked *string
}

// Say builds an assistant message.
func Say(text string) Message {
	return Message{Role: RoleAssistant, Text: text}
}

// Ptr returns a pointer to v. Handy for building updates.
func Ptr[T any](v T) *T {
	return &v
}
