package discovery

import (
	"github.com/kavir10/lead-scoring/internal/model"
)

// Dedup drops leads whose identity key was already seen. The first
// occurrence wins and later duplicates are discarded without merging.
// Leads must have PhoneNormalized set before calling.
func Dedup(leads []model.Lead) []model.Lead {
	seen := make(map[model.Key]struct{}, len(leads))
	out := make([]model.Lead, 0, len(leads))
	for i := range leads {
		k := leads[i].Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, leads[i])
	}
	return out
}
