// Package rules provides offline, keyword-based implementations of
// ports.Classifier and ports.Generator. They let the interview run without a
// language model and give tests a deterministic collaborator.
package rules
