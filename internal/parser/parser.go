// Package parser locates the markdown structure plan-bridge cares about:
// explicit phase headings ("## Phase 2: Build") and level-two section
// boundaries.
//
// Matching is regex based. Headings are matched at line starts only
// and fenced code blocks are not special-cased, so a heading inside a code
// fence still counts.
package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// phaseHeadingPattern matches "## Phase N: Title" style headings.
	// The separator class includes newlines, so a bare "## Phase 3" heading
	// takes its title from the following line.
	phaseHeadingPattern = regexp.MustCompile(`(?im)^##\s+(Phase|Step|Stage)\s+(\d+)[:\s]+(.+)$`)

	// anyPhaseHeadingPattern marks the boundary that ends a phase section.
	anyPhaseHeadingPattern = regexp.MustCompile(`(?im)^##\s+(Phase|Step|Stage)\s+\d+`)

	// sectionSplitPattern splits content on level-two headings.
	sectionSplitPattern = regexp.MustCompile(`(?m)^##\s+`)
)

// PhaseHeading is an explicit phase heading found in plan content.
type PhaseHeading struct {
	Kind    string // "Phase", "Step" or "Stage" as written
	Number  int
	Title   string
	Start   int    // Byte offset of the heading
	End     int    // Byte offset where the section ends (exclusive)
	Section string // Verbatim text from Start to End
}

// PhaseHeadings returns every explicit phase heading in content, ordered by
// phase number. Headings sharing a number keep their document order.
func PhaseHeadings(content string) []PhaseHeading {
	matches := phaseHeadingPattern.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return nil
	}

	headings := make([]PhaseHeading, 0, len(matches))
	for _, m := range matches {
		number, err := strconv.Atoi(content[m[4]:m[5]])
		if err != nil {
			// Digits too long for an int; not a usable phase number.
			continue
		}
		start := m[0]
		end := sectionEnd(content, start, anyPhaseHeadingPattern)
		headings = append(headings, PhaseHeading{
			Kind:    content[m[2]:m[3]],
			Number:  number,
			Title:   strings.TrimSpace(content[m[6]:m[7]]),
			Start:   start,
			End:     end,
			Section: content[start:end],
		})
	}

	sort.SliceStable(headings, func(i, j int) bool {
		return headings[i].Number < headings[j].Number
	})
	return headings
}

// PhaseSection returns the verbatim section for phase number n, from its
// heading to the heading of phase n+1 (or end of content), trimmed.
// The second return value is false when no heading for n exists.
func PhaseSection(content string, n int) (string, bool) {
	start := numberedHeadingPattern(n).FindStringIndex(content)
	if start == nil {
		return "", false
	}
	end := sectionEnd(content, start[0], numberedHeadingPattern(n+1))
	return strings.TrimSpace(content[start[0]:end]), true
}

// SplitSections splits content on "## " heading boundaries and drops blank
// pieces. Text before the first heading is kept as its own section.
// Sections are returned untrimmed with the heading marker removed.
func SplitSections(content string) []string {
	var sections []string
	for _, s := range sectionSplitPattern.Split(content, -1) {
		if strings.TrimSpace(s) != "" {
			sections = append(sections, s)
		}
	}
	return sections
}

// FirstLine returns the first line of s, trimmed.
func FirstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// Truncate returns at most n characters of s. It counts runes so multi-byte
// text is never cut mid-character.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// sectionEnd finds where the section beginning at start ends: the next match
// of boundary searched from one byte past start, or the end of content.
func sectionEnd(content string, start int, boundary *regexp.Regexp) int {
	if start+1 > len(content) {
		return len(content)
	}
	loc := boundary.FindStringIndex(content[start+1:])
	if loc == nil {
		return len(content)
	}
	return start + 1 + loc[0]
}

// numberedHeadingPattern matches the heading of one specific phase number.
func numberedHeadingPattern(n int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`(?im)^##\s+(Phase|Step|Stage)\s+%d[:\s]+`, n))
}
