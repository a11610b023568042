package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePayload(t *testing.T) {
	t.Parallel()

	t.Run("accepts payload with all required fields", func(t *testing.T) {
		t.Parallel()
		doc, err := ValidatePayload(
			`{"summary": "text", "skills": ["a", "b"], "extra": 1}`,
			[]string{"summary", "skills"},
		)
		require.NoError(t, err)
		assert.Contains(t, doc, "summary")
		assert.Contains(t, doc, "skills")
		assert.Contains(t, doc, "extra", "undeclared fields are kept, not rejected")
	})

	t.Run("rejects missing required fields", func(t *testing.T) {
		t.Parallel()
		_, err := ValidatePayload(`{"summary": "text"}`, []string{"summary", "skills", "outlook"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidPayload)
		assert.Contains(t, err.Error(), "skills")
		assert.Contains(t, err.Error(), "outlook")
	})

	t.Run("rejects non-object payloads", func(t *testing.T) {
		t.Parallel()
		for _, raw := range []string{`[1, 2]`, `"text"`, `42`, `not json at all`} {
			_, err := ValidatePayload(raw, nil)
			assert.ErrorIs(t, err, ErrInvalidPayload, "payload: %s", raw)
		}
	})

	t.Run("rejects empty payload", func(t *testing.T) {
		t.Parallel()
		_, err := ValidatePayload("", []string{"summary"})
		assert.ErrorIs(t, err, ErrInvalidPayload)

		_, err = ValidatePayload("   \n  ", []string{"summary"})
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("rejects null payload even with no required fields", func(t *testing.T) {
		t.Parallel()
		_, err := ValidatePayload(`null`, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidPayload)

		_, err = ValidatePayload(`null`, []string{"summary"})
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("null field values still count as present", func(t *testing.T) {
		t.Parallel()
		doc, err := ValidatePayload(`{"summary": null}`, []string{"summary"})
		require.NoError(t, err)
		assert.Contains(t, doc, "summary")
	})

	t.Run("no required fields accepts any object", func(t *testing.T) {
		t.Parallel()
		doc, err := ValidatePayload(`{}`, nil)
		require.NoError(t, err)
		assert.Empty(t, doc)
	})
}

func TestValidatePayloadStripsCodeFences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "json fence",
			raw:  "```json\n{\"summary\": \"ok\"}\n```",
		},
		{
			name: "bare fence",
			raw:  "```\n{\"summary\": \"ok\"}\n```",
		},
		{
			name: "fence with surrounding whitespace",
			raw:  "\n\n```json\n{\"summary\": \"ok\"}\n```\n\n",
		},
		{
			name: "no fence",
			raw:  `{"summary": "ok"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc, err := ValidatePayload(tt.raw, []string{"summary"})
			require.NoError(t, err)
			assert.Contains(t, doc, "summary")
		})
	}
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	assert.True(t, IsTransient(ErrRateLimited))
	assert.True(t, IsTransient(ErrServerFault))
	assert.True(t, IsTransient(ErrTimeout))

	assert.False(t, IsTransient(ErrClientFault))
	assert.False(t, IsTransient(ErrAuthFailure))
	assert.False(t, IsTransient(ErrInvalidPayload))
	assert.False(t, IsTransient(ErrInvalidConfig))
	assert.False(t, IsTransient(nil))
}

func TestIsValidationFailure(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValidationFailure(ErrInvalidPayload))
	assert.False(t, IsValidationFailure(ErrClientFault))
	assert.False(t, IsValidationFailure(nil))
}
