// Package codec translates diagram IR into renderer text formats.
//
// Every codec is a pure, stateless function over the IR: deterministic
// output (stable sorts, no map iteration), target-safe identifiers via a
// shared sanitizer, and a trailing content-hash fingerprint so downstream
// consumers can detect change without diffing the whole document.
package codec

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/archivis/archivis/pkg/ir"
)

// fingerprintLen is the number of hex characters kept from the sha256 sum.
const fingerprintLen = 16

// Fingerprint hashes codec body content for change detection.
func Fingerprint(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}

// visibleBlocks returns the non-hidden blocks sorted by id.
func visibleBlocks(d *ir.Diagram) []ir.Block {
	blocks := make([]ir.Block, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		if !b.Hidden {
			blocks = append(blocks, b)
		}
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].ID < blocks[j].ID })
	return blocks
}

// visibleEdges returns the edges whose endpoints are both visible, sorted by
// the (from, to, type, label) tuple.
func visibleEdges(d *ir.Diagram, blocks []ir.Block) []ir.Edge {
	visible := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		visible[b.ID] = true
	}

	edges := make([]ir.Edge, 0, len(d.Edges))
	for _, e := range d.Edges {
		if visible[e.From] && visible[e.To] {
			edges = append(edges, e)
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		if a.RelationType != b.RelationType {
			return a.RelationType < b.RelationType
		}
		return a.Label < b.Label
	})
	return edges
}

// identifiers builds the block-id -> target-safe token mapping. Blocks are
// processed in sorted id order so suffix assignment on collisions is stable.
func identifiers(blocks []ir.Block) map[string]string {
	san := ir.NewSanitizer()
	out := make(map[string]string, len(blocks))
	for _, b := range blocks {
		out[b.ID] = san.Sanitize(b.ID)
	}
	return out
}
