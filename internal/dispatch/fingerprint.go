package dispatch

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/scribe-ai/scribe/internal/parser"
)

// Fingerprint computes the dedup identity of a block.
//
// The key is a structural hash of the block itself, not of the tool call
// it maps to: two byte-identical tool calls at different offsets are
// distinct model intents and must both run, so the span participates.
// Serialization is canonical: struct fields encode in declaration order
// and encoding/json sorts map keys, so key-order noise cannot split or
// merge a fingerprint.
func Fingerprint(b parser.Block) string {
	data, err := json.Marshal(b)
	if err != nil {
		// Blocks are plain data; Marshal only fails on exotic Parameters
		// payloads. Fall back to the verbose representation.
		data = []byte(fmt.Sprintf("%#v", b))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
