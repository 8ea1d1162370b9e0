package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/internal/model"
)

// panicParser always panics; used to verify per-file recovery.
type panicParser struct{}

func (p *panicParser) Languages() []string { return []string{"panicky"} }

func (p *panicParser) Extract(ctx context.Context, rec model.FileRecord, content []byte) (*Result, error) {
	panic("boom")
}

func rec(path, language string) model.FileRecord {
	return model.FileRecord{Path: path, Language: language}
}

func TestRegistry_UnknownLanguageEmptyResult(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	res := r.Extract(context.Background(), rec("data.cfg", ""), []byte("whatever"))

	assert.Empty(t, res.Symbols)
	assert.Empty(t, res.Fragment.Imports)
	assert.Equal(t, "data.cfg", res.Fragment.FilePath)
}

func TestRegistry_PanicRecoveredPerFile(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(&panicParser{})

	res := r.Extract(context.Background(), rec("x.weird", "panicky"), []byte("x"))
	require.NotNil(t, res)
	assert.Empty(t, res.Symbols)
	assert.Equal(t, "x.weird", res.Fragment.FilePath)
}

func TestRegistry_SizeCeilingSkipsParser(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	huge := []byte("x = 1\n" + strings.Repeat("# padding padding padding\n", 50000))
	require.Greater(t, int64(len(huge)), int64(1<<20))

	res := r.Extract(context.Background(), rec("gen.py", "python"), huge)
	assert.Empty(t, res.Symbols)
}

func TestRegistry_SupportsBuiltins(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, lang := range []string{"python", "go", "typescript", "javascript", "java"} {
		assert.True(t, r.Supports(lang), "expected support for %s", lang)
	}
	assert.False(t, r.Supports("cobol"))
}
