package statute

import (
	"regexp"
	"slices"
	"strconv"
)

var (
	articleRefPattern = regexp.MustCompile(`(\d{1,4})\s+straipsn\p{L}*`)
	abbrevRefPattern  = regexp.MustCompile(`(\d{1,4})\s*str\.|\bstr\.\s*(\d{1,4})`)
)

// ExtractCrossReferences returns the distinct article numbers mentioned in body, ascending.
// The article itself and numbers outside [1, maxArticle] are excluded.
func ExtractCrossReferences(body string, self, maxArticle int) []int {
	seen := make(map[int]struct{})

	add := func(s string) {
		n, err := strconv.Atoi(s)
		if err != nil || n == self || n < 1 || n > maxArticle {
			return
		}
		seen[n] = struct{}{}
	}

	for _, m := range articleRefPattern.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	for _, m := range abbrevRefPattern.FindAllStringSubmatch(body, -1) {
		if m[1] != "" {
			add(m[1])
		} else {
			add(m[2])
		}
	}

	if len(seen) == 0 {
		return nil
	}

	refs := make([]int, 0, len(seen))
	for n := range seen {
		refs = append(refs, n)
	}
	slices.Sort(refs)
	return refs
}
