package ranking

import (
	"path/filepath"
	"sort"
	"strings"
)

const maxRedFlags = 2

// Normalize enforces output invariants the model cannot be trusted with:
// scores clamped to [0, 100], slices never nil, at most two red flags,
// names falling back to the file name, and ranks reassigned 1-based after
// an independent re-sort by score.
func Normalize(candidates []Candidate) []Candidate {
	out := make([]Candidate, len(candidates))
	copy(out, candidates)

	for i := range out {
		c := &out[i]
		if c.Score < 0 {
			c.Score = 0
		}
		if c.Score > 100 {
			c.Score = 100
		}
		if c.Reasons == nil {
			c.Reasons = []string{}
		}
		if c.RedFlags == nil {
			c.RedFlags = []string{}
		}
		if len(c.RedFlags) > maxRedFlags {
			c.RedFlags = c.RedFlags[:maxRedFlags]
		}
		if c.Links == nil {
			c.Links = []string{}
		}
		if c.Citations == nil {
			c.Citations = []string{}
		}
		if strings.TrimSpace(c.Name) == "" {
			c.Name = nameFromFile(c.FileName)
		}
	}

	// Stable on ties: the model is instructed to order equal scores by
	// recency of experience, which the pipeline cannot recompute.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func nameFromFile(fileName string) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return strings.TrimSpace(base)
}
