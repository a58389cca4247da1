// Package llm implements ports.Classifier and ports.Generator on top of an
// eino chat model. Every call asks the model for a small JSON object and
// validates it; anything that does not decode into the expected schema is
// reported as domain.ErrMalformedResponse so the retry policy can try again.
package llm
