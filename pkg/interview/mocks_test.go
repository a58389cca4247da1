package interview_test

import (
	"context"

	"github.com/aretw0/parley/pkg/ports"
	"github.com/stretchr/testify/mock"
)

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Identity(ctx context.Context, expectedName, text string) (ports.IdentityVerdict, error) {
	args := m.Called(ctx, expectedName, text)
	return args.Get(0).(ports.IdentityVerdict), args.Error(1)
}

func (m *mockClassifier) Topic(ctx context.Context, text string) (ports.TopicVerdict, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(ports.TopicVerdict), args.Error(1)
}

func (m *mockClassifier) Difficulty(ctx context.Context, text string) (ports.DifficultyVerdict, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(ports.DifficultyVerdict), args.Error(1)
}

func (m *mockClassifier) Reply(ctx context.Context, question, text string) (ports.ReplyVerdict, error) {
	args := m.Called(ctx, question, text)
	return args.Get(0).(ports.ReplyVerdict), args.Error(1)
}

func (m *mockClassifier) Evaluate(ctx context.Context, topic, question, answer string) (ports.Evaluation, error) {
	args := m.Called(ctx, topic, question, answer)
	return args.Get(0).(ports.Evaluation), args.Error(1)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateQuestions(ctx context.Context, topic, difficulty string, count int) ([]string, error) {
	args := m.Called(ctx, topic, difficulty, count)
	qs, _ := args.Get(0).([]string)
	return qs, args.Error(1)
}
