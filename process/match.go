package process

import (
	"strings"

	"github.com/giwty/steam-library-manager/hltb"
)

// SelectBestMatch picks the candidate whose title equals the query title
// case-insensitively, else the first candidate (the service's own ranking is
// trusted as the fallback ordering). Returns nil on an empty candidate list.
func SelectBestMatch(candidates []hltb.Candidate, queryTitle string) *hltb.Candidate {
	if len(candidates) == 0 {
		return nil
	}
	for i := range candidates {
		if strings.EqualFold(candidates[i].Title, queryTitle) {
			return &candidates[i]
		}
	}
	return &candidates[0]
}
