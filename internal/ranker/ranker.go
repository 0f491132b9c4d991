// Package ranker scores vault notes against a natural-language query.
//
// It is the default backend behind semantic search: a lexical
// term-frequency ranker that needs no embedding service. Hosts with a
// real embedding index can swap it out through the executor's Ranker
// hook.
package ranker

import (
	"context"
	"sort"
	"strings"

	"github.com/scribe-ai/scribe/internal/executor"
	"github.com/scribe-ai/scribe/internal/vault"
)

// Lexical ranks notes by overlap between query terms and note content,
// weighting title hits above body hits.
type Lexical struct {
	Vault *vault.Vault

	// MaxNoteBytes bounds how much of a large note is scored.
	MaxNoteBytes int

	// ExcerptChars bounds the excerpt returned with each hit.
	ExcerptChars int
}

// New creates a lexical ranker over the given vault.
func New(v *vault.Vault) *Lexical {
	return &Lexical{
		Vault:        v,
		MaxNoteBytes: 1 << 20,
		ExcerptChars: 160,
	}
}

// Rank scores every note in the vault and returns the top limit hits,
// best first. Notes with no term overlap are omitted.
func (l *Lexical) Rank(ctx context.Context, query string, limit int) ([]executor.RankedNote, error) {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	var hits []executor.RankedNote
	err := l.Vault.WalkFiles("", func(rel string) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		content, rerr := l.Vault.ReadFile(rel)
		if rerr != nil {
			return nil // unreadable notes are skipped
		}
		if l.MaxNoteBytes > 0 && len(content) > l.MaxNoteBytes {
			content = content[:l.MaxNoteBytes]
		}

		score, excerpt := l.score(rel, content, terms)
		if score <= 0 {
			return nil
		}
		hits = append(hits, executor.RankedNote{Path: rel, Score: score, Excerpt: excerpt})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// score counts term occurrences, with a path match worth several body
// matches. The excerpt is the first line containing any term.
func (l *Lexical) score(rel, content string, terms []string) (float64, string) {
	lowerPath := strings.ToLower(rel)
	lowerContent := strings.ToLower(content)

	var score float64
	for _, term := range terms {
		score += 3 * float64(strings.Count(lowerPath, term))
		score += float64(strings.Count(lowerContent, term))
	}
	if score == 0 {
		return 0, ""
	}

	excerpt := ""
	for _, line := range strings.Split(content, "\n") {
		lower := strings.ToLower(line)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				excerpt = strings.TrimSpace(line)
				break
			}
		}
		if excerpt != "" {
			break
		}
	}
	if l.ExcerptChars > 0 && len(excerpt) > l.ExcerptChars {
		excerpt = excerpt[:l.ExcerptChars]
	}
	return score, excerpt
}

func tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	var terms []string
	for _, f := range fields {
		f = strings.Trim(f, `.,;:!?"'()[]{}`)
		if len(f) < 2 {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}
