package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribe-ai/scribe/internal/toolcall"
	"github.com/scribe-ai/scribe/internal/vault"
)

func newFileExecutor(t *testing.T) (*Executor, *vault.Vault) {
	t.Helper()
	v, err := vault.Open(t.TempDir())
	require.NoError(t, err)
	return New(Config{Vault: v}), v
}

func TestWriteAndReadFile(t *testing.T) {
	e, _ := newFileExecutor(t)
	ctx := t.Context()

	out, err := e.Execute(ctx, toolcall.WriteFile{Path: "notes/a.md", Content: "alpha\nbeta"})
	require.NoError(t, err)
	assert.Contains(t, out, "notes/a.md")

	out, err = e.Execute(ctx, toolcall.ReadFile{Path: "notes/a.md"})
	require.NoError(t, err)
	assert.Equal(t, "notes/a.md:\n1 | alpha\n2 | beta", out)
}

func TestReadFileMissingPath(t *testing.T) {
	e, _ := newFileExecutor(t)

	_, err := e.Execute(t.Context(), toolcall.ReadFile{})
	assert.Error(t, err)
}

func TestInsertContentInMiddle(t *testing.T) {
	e, v := newFileExecutor(t)
	require.NoError(t, v.WriteFile("a.md", "one\ntwo\nthree"))

	_, err := e.Execute(t.Context(), toolcall.InsertContent{Path: "a.md", StartLine: 2, EndLine: 2, Content: "inserted"})
	require.NoError(t, err)

	got, err := v.ReadFile("a.md")
	require.NoError(t, err)
	assert.Equal(t, "one\ninserted\ntwo\nthree", got)
}

func TestInsertContentAppendsOnZeroOrOverflow(t *testing.T) {
	e, v := newFileExecutor(t)

	for _, startLine := range []int{0, 99} {
		require.NoError(t, v.WriteFile("a.md", "one\ntwo"))
		_, err := e.Execute(t.Context(), toolcall.InsertContent{Path: "a.md", StartLine: startLine, Content: "tail"})
		require.NoError(t, err)

		got, rerr := v.ReadFile("a.md")
		require.NoError(t, rerr)
		assert.Equal(t, "one\ntwo\ntail", got, "start_line %d should append", startLine)
	}
}

func TestInsertContentCreatesMissingNote(t *testing.T) {
	e, v := newFileExecutor(t)

	_, err := e.Execute(t.Context(), toolcall.InsertContent{Path: "new.md", Content: "hello"})
	require.NoError(t, err)
	assert.True(t, v.Exists("new.md"))
}

func TestListFiles(t *testing.T) {
	e, v := newFileExecutor(t)
	require.NoError(t, v.WriteFile("a.md", "a"))
	require.NoError(t, v.WriteFile("sub/b.md", "b"))

	out, err := e.Execute(t.Context(), toolcall.ListFiles{Path: ""})
	require.NoError(t, err)
	assert.Contains(t, out, "a.md")
	assert.Contains(t, out, "sub/")
	assert.NotContains(t, out, "b.md", "non-recursive listing stays shallow")

	out, err = e.Execute(t.Context(), toolcall.ListFiles{Path: "", Recursive: true})
	require.NoError(t, err)
	assert.Contains(t, out, "sub/b.md")
}

func TestMatchSearchCaseInsensitive(t *testing.T) {
	e, v := newFileExecutor(t)
	require.NoError(t, v.WriteFile("a.md", "The QUICK fox\nslow dog"))
	require.NoError(t, v.WriteFile("b.md", "nothing here"))

	out, err := e.Execute(t.Context(), toolcall.MatchSearch{Query: "quick"})
	require.NoError(t, err)
	assert.Equal(t, "a.md:1: The QUICK fox", out)
}

func TestMatchSearchNoHits(t *testing.T) {
	e, v := newFileExecutor(t)
	require.NoError(t, v.WriteFile("a.md", "text"))

	out, err := e.Execute(t.Context(), toolcall.MatchSearch{Query: "absent"})
	require.NoError(t, err)
	assert.Equal(t, "No matches found.", out)
}

func TestRegexSearchWithFilePattern(t *testing.T) {
	e, v := newFileExecutor(t)
	require.NoError(t, v.WriteFile("daily.md", "- [ ] task one"))
	require.NoError(t, v.WriteFile("other.txt", "- [ ] task two"))

	out, err := e.Execute(t.Context(), toolcall.RegexSearch{Regex: `\- \[ \]`, FilePattern: "*.md"})
	require.NoError(t, err)
	assert.Contains(t, out, "daily.md:1:")
	assert.NotContains(t, out, "other.txt")
}

func TestRegexSearchInvalidPattern(t *testing.T) {
	e, _ := newFileExecutor(t)

	_, err := e.Execute(t.Context(), toolcall.RegexSearch{Regex: "("})
	assert.Error(t, err)
}

func TestSemanticSearchFallsBackWithoutRanker(t *testing.T) {
	e, v := newFileExecutor(t)
	require.NoError(t, v.WriteFile("a.md", "meeting notes"))

	out, err := e.Execute(t.Context(), toolcall.SemanticSearch{Query: "meeting"})
	require.NoError(t, err)
	assert.Contains(t, out, "a.md:1: meeting notes")
}

func TestSearchAndReplaceLiteral(t *testing.T) {
	e, v := newFileExecutor(t)
	require.NoError(t, v.WriteFile("a.md", "foo bar foo"))

	out, err := e.Execute(t.Context(), toolcall.SearchAndReplace{
		Path:       "a.md",
		Operations: []toolcall.Operation{{Search: "foo", Replace: "baz"}},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 1")

	got, _ := v.ReadFile("a.md")
	assert.Equal(t, "baz bar baz", got)
}

func TestSearchAndReplaceLineRange(t *testing.T) {
	e, v := newFileExecutor(t)
	require.NoError(t, v.WriteFile("a.md", "x\nx\nx"))

	_, err := e.Execute(t.Context(), toolcall.SearchAndReplace{
		Path:       "a.md",
		Operations: []toolcall.Operation{{Search: "x", Replace: "y", StartLine: 2, EndLine: 2}},
	})
	require.NoError(t, err)

	got, _ := v.ReadFile("a.md")
	assert.Equal(t, "x\ny\nx", got)
}

func TestSearchAndReplaceRegexWithFlags(t *testing.T) {
	e, v := newFileExecutor(t)
	require.NoError(t, v.WriteFile("a.md", "Alpha\nALPHA\nbeta"))

	_, err := e.Execute(t.Context(), toolcall.SearchAndReplace{
		Path: "a.md",
		Operations: []toolcall.Operation{
			{Search: "alpha", Replace: "gamma", UseRegex: true, RegexFlags: "i"},
		},
	})
	require.NoError(t, err)

	got, _ := v.ReadFile("a.md")
	assert.Equal(t, "gamma\ngamma\nbeta", got)
}

func TestSearchAndReplaceIgnoreCaseLiteral(t *testing.T) {
	e, v := newFileExecutor(t)
	require.NoError(t, v.WriteFile("a.md", "Hello HELLO hello"))

	_, err := e.Execute(t.Context(), toolcall.SearchAndReplace{
		Path:       "a.md",
		Operations: []toolcall.Operation{{Search: "hello", Replace: "bye", IgnoreCase: true}},
	})
	require.NoError(t, err)

	got, _ := v.ReadFile("a.md")
	assert.Equal(t, "bye bye bye", got)
}

func TestSearchAndReplaceOutOfRangeIsNoop(t *testing.T) {
	e, v := newFileExecutor(t)
	require.NoError(t, v.WriteFile("a.md", "only line"))

	out, err := e.Execute(t.Context(), toolcall.SearchAndReplace{
		Path:       "a.md",
		Operations: []toolcall.Operation{{Search: "only", Replace: "gone", StartLine: 5, EndLine: 9}},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "0 of 1")

	got, _ := v.ReadFile("a.md")
	assert.Equal(t, "only line", got)
}

func TestApplyDiff(t *testing.T) {
	e, v := newFileExecutor(t)
	require.NoError(t, v.WriteFile("a.md", "one\ntwo\nthree\n"))

	diff := `--- a/a.md
+++ b/a.md
@@ -1,3 +1,3 @@
 one
-two
+2
 three
`
	out, err := e.Execute(t.Context(), toolcall.ApplyDiff{Path: "a.md", Diff: diff})
	require.NoError(t, err)
	assert.Contains(t, out, "1 hunk(s)")

	got, _ := v.ReadFile("a.md")
	assert.Equal(t, "one\n2\nthree\n", got)
}

func TestApplyDiffContextMismatch(t *testing.T) {
	e, v := newFileExecutor(t)
	require.NoError(t, v.WriteFile("a.md", "completely different\n"))

	diff := `@@ -1,2 +1,2 @@
 one
-two
+2
`
	_, err := e.Execute(t.Context(), toolcall.ApplyDiff{Path: "a.md", Diff: diff})
	require.Error(t, err)

	got, _ := v.ReadFile("a.md")
	assert.Equal(t, "completely different\n", got, "a failed diff leaves the note untouched")
}

func TestApplyDiffMultipleHunks(t *testing.T) {
	e, v := newFileExecutor(t)
	require.NoError(t, v.WriteFile("a.md", "a\nb\nc\nd\ne\nf\ng\nh\n"))

	diff := `@@ -1,2 +1,2 @@
 a
-b
+B
@@ -7,2 +7,2 @@
 g
-h
+H
`
	out, err := e.Execute(t.Context(), toolcall.ApplyDiff{Path: "a.md", Diff: diff})
	require.NoError(t, err)
	assert.Contains(t, out, "2 hunk(s)")

	got, _ := v.ReadFile("a.md")
	assert.Equal(t, "a\nB\nc\nd\ne\nf\ng\nH\n", got)
}
