package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/kavir10/lead-scoring/internal/model"
)

// Summary counts ranked leads per tier and business type.
type Summary struct {
	Total  int
	ByTier map[model.Tier]int
	ByType map[model.BusinessType]int
	// TopTypes counts A and B tier leads per business type.
	TopTypes map[model.BusinessType]int
}

// Summarize builds the end-of-run summary.
func Summarize(leads []model.Lead) Summary {
	s := Summary{
		Total:    len(leads),
		ByTier:   map[model.Tier]int{},
		ByType:   map[model.BusinessType]int{},
		TopTypes: map[model.BusinessType]int{},
	}
	for _, l := range leads {
		s.ByTier[l.Tier]++
		s.ByType[l.BusinessType]++
		if l.Tier == model.TierA || l.Tier == model.TierB {
			s.TopTypes[l.BusinessType]++
		}
	}
	return s
}

// Print writes the summary as plain text.
func (s Summary) Print(w io.Writer) {
	_, _ = fmt.Fprintf(w, "\n--- Summary ---\n")
	_, _ = fmt.Fprintf(w, "Total leads:        %d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Hot leads (A):      %d\n", s.ByTier[model.TierA])
	_, _ = fmt.Fprintf(w, "Warm leads (B):     %d\n", s.ByTier[model.TierB])
	_, _ = fmt.Fprintf(w, "Worth a look (C):   %d\n", s.ByTier[model.TierC])
	_, _ = fmt.Fprintf(w, "Low priority (D):   %d\n", s.ByTier[model.TierD])

	if len(s.ByType) == 0 {
		return
	}
	types := make([]string, 0, len(s.ByType))
	for t := range s.ByType {
		types = append(types, string(t))
	}
	sort.Strings(types)

	_, _ = fmt.Fprintf(w, "\nBy business type (total / A+B):\n")
	for _, t := range types {
		bt := model.BusinessType(t)
		name := t
		if name == "" {
			name = "unknown"
		}
		_, _ = fmt.Fprintf(w, "  %-12s %5d / %d\n", name, s.ByType[bt], s.TopTypes[bt])
	}
}
