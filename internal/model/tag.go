package model

import (
	"sort"
	"strings"
	"time"
)

// MaxTagLength bounds tag names, whether created explicitly or through a
// document write.
const MaxTagLength = 50

// Tag is a shared label with a usage counter.
type Tag struct {
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
	UsageCount int       `json:"usageCount"`
}

// NormalizeTag trims and lowercases a tag name.
func NormalizeTag(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeTags normalizes, drops empty names and de-duplicates, returning
// the names sorted. The result is never nil.
func NormalizeTags(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = NormalizeTag(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// DiffTags returns the names present in next but not prev (added) and in
// prev but not next (removed). Inputs are expected to be normalized.
func DiffTags(prev, next []string) (added, removed []string) {
	in := func(set []string, name string) bool {
		for _, s := range set {
			if s == name {
				return true
			}
		}
		return false
	}
	for _, n := range next {
		if !in(prev, n) {
			added = append(added, n)
		}
	}
	for _, p := range prev {
		if !in(next, p) {
			removed = append(removed, p)
		}
	}
	return added, removed
}

// SortTags orders tags by usage count descending, then name ascending.
func SortTags(tags []Tag) {
	sort.SliceStable(tags, func(i, j int) bool {
		if tags[i].UsageCount != tags[j].UsageCount {
			return tags[i].UsageCount > tags[j].UsageCount
		}
		return tags[i].Name < tags[j].Name
	})
}
