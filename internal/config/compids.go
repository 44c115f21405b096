package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCompIDs expands an ID spec like "1-150" or "11,12,40-45" into a list
// of competition IDs, excluding any in skip. Ranges may be given in either
// order. Duplicate entries are preserved in spec order only once.
func ParseCompIDs(spec string, skip []int) ([]int, error) {
	skipSet := make(map[int]struct{}, len(skip))
	for _, id := range skip {
		skipSet[id] = struct{}{}
	}

	seen := make(map[int]struct{})
	var out []int
	add := func(id int) {
		if _, skipped := skipSet[id]; skipped {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	for _, piece := range strings.Split(spec, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		if a, b, isRange := strings.Cut(piece, "-"); isRange {
			lo, err := strconv.Atoi(strings.TrimSpace(a))
			if err != nil {
				return nil, fmt.Errorf("invalid range start %q", a)
			}
			hi, err := strconv.Atoi(strings.TrimSpace(b))
			if err != nil {
				return nil, fmt.Errorf("invalid range end %q", b)
			}
			if lo > hi {
				lo, hi = hi, lo
			}
			for id := lo; id <= hi; id++ {
				add(id)
			}
			continue
		}
		id, err := strconv.Atoi(piece)
		if err != nil {
			return nil, fmt.Errorf("invalid competition ID %q", piece)
		}
		add(id)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("spec %q yields no competition IDs", spec)
	}
	return out, nil
}
