package extract

import (
	"encoding/json"
	"fmt"
	"sort"
)

// mintKey is the field name carrying a token identifier anywhere in a parsed
// Solana transaction document.
const mintKey = "mint"

// Mints unmarshals a transaction payload and returns the distinct token
// identifiers it references at any depth, excluding the native mint sentinel.
// The result is sorted so callers get stable iteration.
func Mints(payload json.RawMessage, nativeMint string) ([]string, error) {
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("extract: decode payload: %w", err)
	}

	seen := make(map[string]struct{})
	collect(doc, mintKey, seen)
	delete(seen, nativeMint)

	mints := make([]string, 0, len(seen))
	for mint := range seen {
		mints = append(mints, mint)
	}
	sort.Strings(mints)
	return mints, nil
}

// collect walks the decoded document depth-first. A matching key contributes
// its value, and every mapping or sequence value is recursed into regardless
// of key match, so occurrences at different depths are all found.
func collect(node any, key string, seen map[string]struct{}) {
	switch v := node.(type) {
	case map[string]any:
		for k, child := range v {
			if k == key {
				if s, ok := child.(string); ok {
					seen[s] = struct{}{}
				}
			}
			switch child.(type) {
			case map[string]any, []any:
				collect(child, key, seen)
			}
		}
	case []any:
		for _, child := range v {
			collect(child, key, seen)
		}
	}
}
