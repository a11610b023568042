package mocks

import (
	"context"

	"github.com/trellisdata/trellis/internal/domain"
	"github.com/trellisdata/trellis/internal/generation"
)

// MockGenerator implements generation.Generator for testing.
type MockGenerator struct {
	CompleteFn func(ctx context.Context, prompt string, policy domain.RunPolicy) (*generation.Completion, error)

	Completion   *generation.Completion
	DefaultError error

	// Prompts records every prompt passed to Complete.
	Prompts []string
}

var _ generation.Generator = (*MockGenerator)(nil)

// Complete implements generation.Generator.
func (m *MockGenerator) Complete(ctx context.Context, prompt string, policy domain.RunPolicy) (*generation.Completion, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, prompt, policy)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	return m.Completion, nil
}
