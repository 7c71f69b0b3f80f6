package recon

import (
	"sort"
	"strings"

	"github.com/omhartigan/billpayer-recon/internal/fuzzy"
)

// Rank scores every roster entry against name and returns candidates in
// descending score order. Scoring is case-folded Ratcliff/Obershelp
// similarity; ties keep roster order (stable sort), so the ranking is a pure
// function of its inputs. Roster entries with a blank display name are
// ignored. An empty roster yields nil.
func Rank(name string, roster []BillpayerIdentity) []Candidate {
	folded := strings.ToLower(strings.TrimSpace(name))

	candidates := make([]Candidate, 0, len(roster))
	for _, id := range roster {
		if strings.TrimSpace(id.DisplayName) == "" {
			continue
		}
		score := fuzzy.Ratio(folded, strings.ToLower(id.DisplayName))
		candidates = append(candidates, Candidate{Score: score, Identity: id})
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}
