package draft

import "benefits-web/internal/grid"

// Policy decides what happens when a saved draft and the remote rows
// disagree on mount
type Policy string

const (
	// PolicyReplace discards the local draft in favor of the remote rows
	PolicyReplace Policy = "replace"
	// PolicyMerge keeps the local rows and appends remote rows whose
	// normalized key matches no local row
	PolicyMerge Policy = "merge"
	// PolicyKeep keeps the local draft untouched
	PolicyKeep Policy = "keep"
)

// Resolve applies the chosen conflict policy. keyField names the column
// used for matching (the companies step matches on CNPJ); normalize, when
// set, canonicalizes key values before comparison.
func Resolve(policy Policy, local, remote []grid.Row, keyField string, normalize func(string) string) []grid.Row {
	norm := func(v string) string {
		if normalize != nil {
			return normalize(v)
		}
		return v
	}

	switch policy {
	case PolicyReplace:
		return remote
	case PolicyMerge:
		seen := make(map[string]bool, len(local))
		for _, r := range local {
			if key := norm(r.Fields[keyField]); key != "" {
				seen[key] = true
			}
		}
		merged := local
		for _, r := range remote {
			if key := norm(r.Fields[keyField]); key == "" || !seen[key] {
				merged = append(merged, r)
			}
		}
		return merged
	default: // PolicyKeep
		return local
	}
}
