package service

import (
	"regexp"
	"strings"
)

// Blacklist holds lower-cased label names excluded from one ingestion.
type Blacklist map[string]struct{}

// NewBlacklist merges term lists into one case-insensitive set.
func NewBlacklist(lists ...[]string) Blacklist {
	b := Blacklist{}
	for _, list := range lists {
		for _, term := range list {
			term = strings.ToLower(strings.TrimSpace(term))
			if term != "" {
				b[term] = struct{}{}
			}
		}
	}
	return b
}

// Contains matches name case-insensitively.
func (b Blacklist) Contains(name string) bool {
	_, ok := b[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// SplitLabels splits a raw comma separated field. It does not filter.
func SplitLabels(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// NormalizeLabels parses a raw comma separated field into clean label names.
func NormalizeLabels(raw string, blacklist Blacklist) []string {
	return NormalizeLabelList(SplitLabels(raw), blacklist)
}

// NormalizeLabelList trims names, drops empty and blacklisted entries and
// collapses case-insensitive duplicates, keeping the first spelling seen.
// Internal whitespace is preserved.
func NormalizeLabelList(names []string, blacklist Blacklist) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || blacklist.Contains(name) {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonWord       = regexp.MustCompile(`[^\w\-]+`)
	hyphenRun     = regexp.MustCompile(`\-\-+`)
)

// Slugify derives a URL slug from a title or label name.
func Slugify(text string) string {
	s := strings.TrimSpace(strings.ToLower(text))
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = nonWord.ReplaceAllString(s, "")
	s = hyphenRun.ReplaceAllString(s, "-")
	if s == "" {
		return "untitled"
	}
	return s
}
