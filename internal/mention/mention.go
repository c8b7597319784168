// Package mention finds @Name references to known participants in message
// text and keeps a draft's selected mentions consistent with its text.
package mention

import (
	"sort"
	"strings"

	"github.com/frahmantamala/resolution-tracker/internal/user"
)

const (
	trigger = '@'
	escape  = '\\'
)

// IsBoundary reports whether r may terminate a mention.
func IsBoundary(r rune) bool {
	switch r {
	case ' ', '\t', '\r', '\n', '.', ',', ';', ':', '!', '?', '(', ')', '"', '\'':
		return true
	}
	return false
}

// triggerAt reports whether runes[i] starts a mention.
func triggerAt(runes []rune, i int) bool {
	return runes[i] == trigger && (i == 0 || runes[i-1] != escape)
}

// matchesAt reports whether name follows position i verbatim and is
// boundary terminated.
func matchesAt(runes []rune, i int, name []rune) bool {
	if len(name) == 0 || i+len(name) > len(runes) {
		return false
	}
	for j, r := range name {
		if runes[i+j] != r {
			return false
		}
	}
	end := i + len(name)
	return end == len(runes) || IsBoundary(runes[end])
}

type candidate struct {
	user user.User
	name []rune
}

// candidates orders known users by display name length, longest first, so
// the first boundary-terminated match is the longest one.
func candidates(known []user.User) []candidate {
	out := make([]candidate, 0, len(known))
	for _, u := range known {
		name := []rune(u.DisplayName())
		if len(name) == 0 {
			continue
		}
		out = append(out, candidate{user: u, name: name})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].name) > len(out[j].name)
	})
	return out
}

// Parse returns the known users mentioned in text, de-duplicated by id in
// order of first appearance. Matching is case sensitive against display
// names; an @ preceded by a backslash is literal.
func Parse(text string, known []user.User) []user.User {
	if !strings.ContainsRune(text, trigger) || len(known) == 0 {
		return nil
	}
	runes := []rune(text)
	cands := candidates(known)

	var out []user.User
	seen := make(map[int64]struct{})
	for i := range runes {
		if !triggerAt(runes, i) {
			continue
		}
		for _, c := range cands {
			if !matchesAt(runes, i+1, c.name) {
				continue
			}
			if _, dup := seen[c.user.ID]; !dup {
				seen[c.user.ID] = struct{}{}
				out = append(out, c.user)
			}
			break
		}
	}
	return out
}

// Contains reports whether text still mentions u verbatim.
func Contains(text string, u user.User) bool {
	name := []rune(u.DisplayName())
	runes := []rune(text)
	for i := range runes {
		if triggerAt(runes, i) && matchesAt(runes, i+1, name) {
			return true
		}
	}
	return false
}

// Prune keeps the selected users whose @Name is still present in text.
func Prune(text string, selected []user.User) []user.User {
	var out []user.User
	for _, u := range selected {
		if Contains(text, u) {
			out = append(out, u)
		}
	}
	return out
}

// Union merges mention lists, de-duplicated by id, first occurrence wins.
func Union(lists ...[]user.User) []user.User {
	var out []user.User
	seen := make(map[int64]struct{})
	for _, list := range lists {
		for _, u := range list {
			if _, dup := seen[u.ID]; dup {
				continue
			}
			seen[u.ID] = struct{}{}
			out = append(out, u)
		}
	}
	return out
}
