// Package category orders the category keys observed across source snapshots
// into a stable, user-facing display order.
package category

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultPriority is the display precedence used when no priority table is configured:
// domestic board categories newest generation first with desktop before laptop, then the
// spot-exchange generations, then the macro indicator groups.
var DefaultPriority = []string{
	"DDR5 RAM (데스크탑)",
	"DDR4 RAM (데스크탑)",
	"DDR3 RAM (데스크탑)",
	"DDR5 RAM (노트북)",
	"DDR4 RAM (노트북)",
	"DDR3 RAM (노트북)",
	"DDR5",
	"DDR4",
	"DDR3",
	"indices",
	"macro",
	"forex",
	"bonds",
}

// Normalizer orders category keys by a fixed priority table. Keys missing from the
// table are placed after every listed key and ordered among themselves by
// locale-aware collation.
//
// A Normalizer is immutable after construction and safe for concurrent use.
type Normalizer struct {
	rank map[string]int
	tag  language.Tag
}

// NewNormalizer builds a Normalizer from a priority table. Earlier entries sort first;
// repeated entries keep their first position. Fallback collation uses tag.
func NewNormalizer(priority []string, tag language.Tag) *Normalizer {
	rank := make(map[string]int, len(priority))
	for i, key := range priority {
		if _, ok := rank[key]; !ok {
			rank[key] = i
		}
	}
	return &Normalizer{rank: rank, tag: tag}
}

// NewDefaultNormalizer returns a Normalizer using DefaultPriority and Korean collation.
func NewDefaultNormalizer() *Normalizer {
	return NewNormalizer(DefaultPriority, language.Korean)
}

// Normalize returns the distinct keys in canonical order. The result depends only on
// the set of keys given, never on their order or multiplicity.
func (n *Normalizer) Normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}

	// Collators keep internal buffers, so each call gets its own.
	coll := collate.New(n.tag)
	unranked := len(n.rank)

	slices.SortFunc(out, func(a, b string) int {
		ra, ok := n.rank[a]
		if !ok {
			ra = unranked
		}
		rb, ok := n.rank[b]
		if !ok {
			rb = unranked
		}
		if ra != rb {
			return ra - rb
		}
		if c := coll.CompareString(a, b); c != 0 {
			return c
		}
		// Collation can treat distinct strings as equal; fall back to byte order.
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})

	return out
}

// Rank reports the priority position of key, or false when it is not in the table.
func (n *Normalizer) Rank(key string) (int, bool) {
	r, ok := n.rank[key]
	return r, ok
}
