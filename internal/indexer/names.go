package indexer

import (
	"regexp"
	"sort"
	"strings"
)

const maxCollegeNames = 5

var (
	comparePairPattern = regexp.MustCompile(`Compare\s+(.+?)\s+and\s+(.+?)\s+across`)
	collegeNamePattern = regexp.MustCompile(`[A-Z][A-Za-z\s]+(?:University|Institute|College|IIM|IIT|NIT)[A-Za-z\s]*`)

	examNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bJEE\s*(?:Main|Advanced)?\b`),
		regexp.MustCompile(`(?i)\bNEET\b`),
		regexp.MustCompile(`(?i)\bCAT\b`),
		regexp.MustCompile(`(?i)\bGATE\b`),
		regexp.MustCompile(`(?i)\bCLAT\b`),
		regexp.MustCompile(`(?i)\bMHT\s*CET\b`),
		regexp.MustCompile(`(?i)\bTS\s*EAMCET\b`),
		regexp.MustCompile(`(?i)\bAP\s*EAMCET\b`),
		regexp.MustCompile(`(?i)\bBITSAT\b`),
		regexp.MustCompile(`(?i)\bVITEEE\b`),
	}
)

// ExtractCollegeNames returns up to five distinct college names mentioned in
// content, in order of first appearance.
func ExtractCollegeNames(content string) []string {
	var candidates []string
	for _, m := range comparePairPattern.FindAllStringSubmatch(content, -1) {
		candidates = append(candidates, m[1], m[2])
	}
	candidates = append(candidates, collegeNamePattern.FindAllString(content, -1)...)

	seen := make(map[string]bool)
	var names []string
	for _, c := range candidates {
		name := Preprocess(c)
		if len(name) <= 3 || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
		if len(names) == maxCollegeNames {
			break
		}
	}
	return names
}

// ExtractExamNames returns the distinct, upper-cased entrance exam names
// mentioned in content, sorted.
func ExtractExamNames(content string) []string {
	seen := make(map[string]bool)
	for _, p := range examNamePatterns {
		for _, m := range p.FindAllString(content, -1) {
			seen[strings.ToUpper(m)] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
