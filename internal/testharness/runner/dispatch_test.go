package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCaseCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"517", 517},
		{" 42\n", 42},
		{"0", 0},
		{"", 0},
		{"abc", 0},
		{"12.5", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseCaseCount([]byte(tt.in)), "input %q", tt.in)
	}
}

func TestParseCaseInfo(t *testing.T) {
	id, desc, err := parseCaseInfo([]byte(`{"id": "1.1.1", "description": "Send text message with payload 0."}`))
	require.NoError(t, err)
	assert.Equal(t, "1.1.1", id)
	assert.Equal(t, "Send text message with payload 0.", desc)

	id, desc, err = parseCaseInfo([]byte(`{"id": "", "description": "", "extra": 1}`))
	require.NoError(t, err, "empty strings and unknown keys are accepted")
	assert.Empty(t, id)
	assert.Empty(t, desc)
}

func TestParseCaseInfo_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"not json", `hello`, "case info"},
		{"missing id", `{"description": "d"}`, `missing string field "id"`},
		{"missing description", `{"id": "1"}`, `missing string field "description"`},
		{"wrong type", `{"id": 1, "description": "d"}`, "case info"},
		{"null id", `{"id": null, "description": "d"}`, `missing string field "id"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseCaseInfo([]byte(tt.in))
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.want)
			assert.True(t, IsCategory(err, ErrCatParse))
		})
	}
}

func TestParseCaseStatus(t *testing.T) {
	behavior, err := parseCaseStatus([]byte(`{"behavior": "NON-STRICT"}`))
	require.NoError(t, err)
	assert.Equal(t, "NON-STRICT", behavior)

	_, err = parseCaseStatus([]byte(`{}`))
	assert.ErrorContains(t, err, `missing string field "behavior"`)
	assert.True(t, IsCategory(err, ErrCatParse))

	_, err = parseCaseStatus([]byte(`[]`))
	assert.True(t, IsCategory(err, ErrCatParse))
}

func TestHandleVerdict(t *testing.T) {
	tests := []struct {
		behavior string
		pass     bool
	}{
		{"OK", true},
		{"INFORMATIONAL", true},
		{"ok", false},
		{"NON-STRICT", false},
		{"WRONG CODE", false},
		{"UNIMPLEMENTED", false},
		{"FAILED", false},
	}
	for _, tt := range tests {
		t.Run(tt.behavior, func(t *testing.T) {
			r, _ := newMockedRunner(t, nil)
			r.current = newCase(1)
			r.handleVerdict([]byte(`{"behavior":"` + tt.behavior + `"}`))

			assert.Equal(t, tt.behavior, r.current.Behavior)
			assert.Equal(t, !tt.pass, r.Failed())
			assert.Equal(t, !tt.pass, r.current.Failed())
		})
	}
}
