package executor

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	errs "github.com/scribe-ai/scribe/internal/errors"
	"github.com/scribe-ai/scribe/internal/toolcall"
)

func (e *Executor) writeFile(c toolcall.WriteFile) (string, error) {
	if c.Path == "" {
		return "", errs.Model(errs.CodeToolInvalidParams, "write_to_file requires a path")
	}
	if err := e.vault.WriteFile(c.Path, c.Content); err != nil {
		return "", err
	}
	return fmt.Sprintf("Saved %s (%d bytes).", c.Path, len(c.Content)), nil
}

func (e *Executor) readFile(c toolcall.ReadFile) (string, error) {
	if c.Path == "" {
		return "", errs.Model(errs.CodeToolInvalidParams, "read_file requires a path")
	}
	content, err := e.vault.ReadFile(c.Path)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(c.Path)
	sb.WriteString(":\n")
	for i, line := range strings.Split(content, "\n") {
		fmt.Fprintf(&sb, "%d | %s\n", i+1, line)
	}
	return strings.TrimSuffix(sb.String(), "\n"), nil
}

// insertContent inserts before the 1-based line number; 0 appends at the
// end of the note. A missing note is treated as empty and created.
func (e *Executor) insertContent(c toolcall.InsertContent) (string, error) {
	if c.Path == "" {
		return "", errs.Model(errs.CodeToolInvalidParams, "insert_content requires a path")
	}

	content := ""
	if e.vault.Exists(c.Path) {
		var err error
		content, err = e.vault.ReadFile(c.Path)
		if err != nil {
			return "", err
		}
	}

	lines := strings.Split(content, "\n")
	insert := strings.Split(c.Content, "\n")

	at := c.StartLine
	if at <= 0 || at > len(lines) {
		at = len(lines) + 1
	}

	out := make([]string, 0, len(lines)+len(insert))
	out = append(out, lines[:at-1]...)
	out = append(out, insert...)
	out = append(out, lines[at-1:]...)

	if err := e.vault.WriteFile(c.Path, strings.Join(out, "\n")); err != nil {
		return "", err
	}
	return fmt.Sprintf("Inserted %d line(s) into %s at line %d.", len(insert), c.Path, at), nil
}

func (e *Executor) listFiles(c toolcall.ListFiles) (string, error) {
	entries, err := e.vault.List(c.Path, c.Recursive)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "(empty folder)", nil
	}
	var sb strings.Builder
	for _, entry := range entries {
		sb.WriteString(entry.Path)
		sb.WriteByte('\n')
	}
	return strings.TrimSuffix(sb.String(), "\n"), nil
}

func (e *Executor) matchSearch(c toolcall.MatchSearch) (string, error) {
	if c.Query == "" {
		return "", errs.Model(errs.CodeToolInvalidParams, "search requires a query")
	}
	needle := strings.ToLower(c.Query)
	return e.scanNotes(c.Path, "", func(line string) bool {
		return strings.Contains(strings.ToLower(line), needle)
	})
}

func (e *Executor) regexSearch(c toolcall.RegexSearch) (string, error) {
	if c.Regex == "" {
		return "", errs.Model(errs.CodeToolInvalidParams, "regex_search requires a regex")
	}
	re, err := regexp.Compile(c.Regex)
	if err != nil {
		return "", errs.Wrap(err, errs.CodeToolInvalidParams, "invalid regex", errs.CategoryModel)
	}
	return e.scanNotes(c.Path, c.FilePattern, re.MatchString)
}

// scanNotes walks note files under root, reporting matching lines as
// "path:line: text". filePattern, when set, is matched against base names.
func (e *Executor) scanNotes(root, filePattern string, match func(line string) bool) (string, error) {
	var sb strings.Builder
	hits := 0

	err := e.vault.WalkFiles(root, func(rel string) error {
		if filePattern != "" {
			ok, merr := filepath.Match(filePattern, filepath.Base(rel))
			if merr != nil || !ok {
				return nil
			}
		}
		content, rerr := e.vault.ReadFile(rel)
		if rerr != nil {
			return nil // unreadable notes are skipped, not fatal
		}
		for i, line := range strings.Split(content, "\n") {
			if match(line) {
				fmt.Fprintf(&sb, "%s:%d: %s\n", rel, i+1, line)
				hits++
			}
		}
		return nil
	})
	if err != nil {
		return "", errs.Wrap(err, errs.CodeToolExecutionFailed, "search failed", errs.CategorySystem)
	}
	if hits == 0 {
		return "No matches found.", nil
	}
	return strings.TrimSuffix(sb.String(), "\n"), nil
}

// semanticSearch delegates to the configured ranker and degrades to a
// plain substring search when no ranker is wired.
func (e *Executor) semanticSearch(ctx context.Context, c toolcall.SemanticSearch) (string, error) {
	if c.Query == "" {
		return "", errs.Model(errs.CodeToolInvalidParams, "semantic_search requires a query")
	}
	if e.ranker == nil {
		return e.matchSearch(toolcall.MatchSearch{Query: c.Query})
	}

	notes, err := e.ranker.Rank(ctx, c.Query, 10)
	if err != nil {
		return "", errs.Wrap(err, errs.CodeToolExecutionFailed, "semantic search failed", errs.CategoryTemporary)
	}
	if len(notes) == 0 {
		return "No matches found.", nil
	}
	var sb strings.Builder
	for _, n := range notes {
		fmt.Fprintf(&sb, "%s (%.2f)\n", n.Path, n.Score)
		if n.Excerpt != "" {
			sb.WriteString("  " + n.Excerpt + "\n")
		}
	}
	return strings.TrimSuffix(sb.String(), "\n"), nil
}

func (e *Executor) searchAndReplace(c toolcall.SearchAndReplace) (string, error) {
	if c.Path == "" {
		return "", errs.Model(errs.CodeToolInvalidParams, "search_and_replace requires a path")
	}
	if len(c.Operations) == 0 {
		return "No operations to apply to " + c.Path + ".", nil
	}

	content, err := e.vault.ReadFile(c.Path)
	if err != nil {
		return "", err
	}

	applied := 0
	for _, op := range c.Operations {
		next, aerr := applyOperation(content, op)
		if aerr != nil {
			return "", aerr
		}
		if next != content {
			applied++
		}
		content = next
	}

	if err := e.vault.WriteFile(c.Path, content); err != nil {
		return "", err
	}
	return fmt.Sprintf("Applied %d of %d operation(s) to %s.", applied, len(c.Operations), c.Path), nil
}

// applyOperation applies one search/replace step, optionally restricted
// to a 1-based inclusive line range.
func applyOperation(content string, op toolcall.Operation) (string, error) {
	lines := strings.Split(content, "\n")

	start, end := op.StartLine, op.EndLine
	if start <= 0 {
		start = 1
	}
	if end <= 0 || end > len(lines) {
		end = len(lines)
	}
	if start > len(lines) || start > end {
		return content, nil
	}

	region := strings.Join(lines[start-1:end], "\n")

	var replaced string
	if op.UseRegex {
		re, err := regexp.Compile(regexFlags(op) + op.Search)
		if err != nil {
			return "", errs.Wrap(err, errs.CodeToolInvalidParams, "invalid search pattern", errs.CategoryModel)
		}
		replaced = re.ReplaceAllString(region, op.Replace)
	} else if op.IgnoreCase {
		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(op.Search))
		if err != nil {
			return "", errs.Wrap(err, errs.CodeToolInvalidParams, "invalid search pattern", errs.CategoryModel)
		}
		replaced = re.ReplaceAllString(region, strings.ReplaceAll(op.Replace, "$", "$$"))
	} else {
		replaced = strings.ReplaceAll(region, op.Search, op.Replace)
	}

	out := append([]string{}, lines[:start-1]...)
	out = append(out, strings.Split(replaced, "\n")...)
	out = append(out, lines[end:]...)
	return strings.Join(out, "\n"), nil
}

// regexFlags translates wire-format flag letters into Go inline flags.
// "g" is implied: replacement is always global.
func regexFlags(op toolcall.Operation) string {
	flags := ""
	if op.IgnoreCase || strings.Contains(op.RegexFlags, "i") {
		flags += "i"
	}
	if strings.Contains(op.RegexFlags, "m") {
		flags += "m"
	}
	if strings.Contains(op.RegexFlags, "s") {
		flags += "s"
	}
	if flags == "" {
		return ""
	}
	return "(?" + flags + ")"
}

func (e *Executor) applyDiff(c toolcall.ApplyDiff) (string, error) {
	if c.Path == "" {
		return "", errs.Model(errs.CodeToolInvalidParams, "apply_diff requires a path")
	}
	content, err := e.vault.ReadFile(c.Path)
	if err != nil {
		return "", err
	}
	patched, hunks, err := applyUnifiedDiff(content, c.Diff)
	if err != nil {
		return "", err
	}
	if err := e.vault.WriteFile(c.Path, patched); err != nil {
		return "", err
	}
	return fmt.Sprintf("Applied %d hunk(s) to %s.", hunks, c.Path), nil
}
