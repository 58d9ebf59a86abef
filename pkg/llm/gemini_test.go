package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	out    string
	err    error
	prompt string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.out, s.err
}

func TestDraftScriptStripsFences(t *testing.T) {
	gen := &stubGenerator{out: "```text\nHello and welcome to our product tour.\n```"}
	script, err := NewScriptWriter(gen).DraftScript(context.Background(), "product tour", "de")
	require.NoError(t, err)
	require.Equal(t, "Hello and welcome to our product tour.", script)
	require.Contains(t, gen.prompt, `"de"`)
	require.Contains(t, gen.prompt, "product tour")
}

func TestDraftScriptTruncatesLongOutput(t *testing.T) {
	long := strings.Repeat("This sentence is padding. ", 400)
	script, err := NewScriptWriter(&stubGenerator{out: long}).DraftScript(context.Background(), "t", "")
	require.NoError(t, err)
	require.LessOrEqual(t, len([]rune(script)), MaxScriptLength)
	require.True(t, strings.HasSuffix(script, "."))
}

func TestDraftScriptErrors(t *testing.T) {
	_, err := NewScriptWriter(&stubGenerator{out: "```\n```"}).DraftScript(context.Background(), "t", "en")
	require.ErrorIs(t, err, ErrEmptyDraft)

	boom := errors.New("quota")
	_, err = NewScriptWriter(&stubGenerator{err: boom}).DraftScript(context.Background(), "t", "en")
	require.ErrorIs(t, err, boom)
}

func TestStripFences(t *testing.T) {
	require.Equal(t, "plain", StripFences("  plain  "))
	require.Equal(t, "one line", StripFences("```one line```"))
	require.Equal(t, "body", StripFences("```markdown\nbody\n```"))
}
