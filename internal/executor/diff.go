package executor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	errs "github.com/scribe-ai/scribe/internal/errors"
)

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// applyUnifiedDiff applies a unified diff to content and returns the
// patched text and the number of hunks applied. Context and deletion
// lines must match the original; a mismatch rejects the whole diff so a
// half-applied note is never written.
func applyUnifiedDiff(content, diff string) (string, int, error) {
	lines := strings.Split(content, "\n")
	diffLines := strings.Split(diff, "\n")

	var out []string
	cursor := 0 // next original line not yet copied, 0-based
	hunks := 0

	i := 0
	for i < len(diffLines) {
		line := diffLines[i]

		m := hunkHeaderRe.FindStringSubmatch(line)
		if m == nil {
			// File headers ("--- a/...", "+++ b/...") and any prose
			// around the diff are skipped.
			i++
			continue
		}

		oldStart, _ := strconv.Atoi(m[1])
		if oldStart < 1 {
			oldStart = 1
		}
		hunkStart := oldStart - 1
		if hunkStart < cursor || hunkStart > len(lines) {
			return "", 0, errs.Model(errs.CodeBadPayload, fmt.Sprintf("hunk %d out of order or out of range", hunks+1))
		}

		out = append(out, lines[cursor:hunkStart]...)
		cursor = hunkStart

		i++
		for i < len(diffLines) {
			dl := diffLines[i]
			if dl == "" && i == len(diffLines)-1 {
				i++
				break
			}
			if hunkHeaderRe.MatchString(dl) {
				break
			}

			switch {
			case strings.HasPrefix(dl, " "):
				if cursor >= len(lines) || lines[cursor] != dl[1:] {
					return "", 0, errs.Model(errs.CodeBadPayload, fmt.Sprintf("context mismatch at line %d", cursor+1))
				}
				out = append(out, lines[cursor])
				cursor++
			case strings.HasPrefix(dl, "-"):
				if cursor >= len(lines) || lines[cursor] != dl[1:] {
					return "", 0, errs.Model(errs.CodeBadPayload, fmt.Sprintf("deletion mismatch at line %d", cursor+1))
				}
				cursor++
			case strings.HasPrefix(dl, "+"):
				out = append(out, dl[1:])
			case strings.HasPrefix(dl, `\`):
				// "\ No newline at end of file" markers.
			default:
				// Unprefixed line inside a hunk: tolerate it as context
				// with a stripped leading space (models drop it often).
				if cursor < len(lines) && lines[cursor] == dl {
					out = append(out, lines[cursor])
					cursor++
				} else {
					return "", 0, errs.Model(errs.CodeBadPayload, fmt.Sprintf("unexpected diff line: %q", dl))
				}
			}
			i++
		}
		hunks++
	}

	if hunks == 0 {
		return "", 0, errs.Model(errs.CodeBadPayload, "diff contains no hunks")
	}

	out = append(out, lines[cursor:]...)
	return strings.Join(out, "\n"), hunks, nil
}
