// Package complexity scores plan text and decomposes complex plans into
// ordered, dependent phases.
//
// Everything here is a pure function of its input: the same text always
// yields the same Analysis.
package complexity

import (
	"math"
	"regexp"
	"strings"
)

// Scoring weights and caps. Each term is capped on its own before summing.
const (
	filePoints      = 5
	fileCap         = 40
	phaseBonus      = 15
	dependencyBonus = 10
	stepPoints      = 2
	stepCap         = 20
	linesPerPoint   = 10
	lineCap         = 15

	// ComplexScore is the score at or above which a plan is complex.
	ComplexScore = 50
	// ComplexFileCount forces a plan to be complex regardless of score.
	ComplexFileCount = 5
)

// Indicators are the raw signals extracted from plan text.
type Indicators struct {
	FileCount       int  `json:"file_count" yaml:"file_count"`
	HasPhases       bool `json:"has_phases" yaml:"has_phases"`
	HasDependencies bool `json:"has_dependencies" yaml:"has_dependencies"`
	EstimatedSteps  int  `json:"estimated_steps" yaml:"estimated_steps"`
	TotalLines      int  `json:"total_lines" yaml:"total_lines"`
}

// Analysis is the result of scoring a plan. It is transient and never stored.
type Analysis struct {
	IsComplex         bool                  `json:"is_complex" yaml:"is_complex"`
	Score             int                   `json:"score" yaml:"score"`
	Indicators        Indicators            `json:"indicators" yaml:"indicators"`
	RecommendedPhases []PhaseRecommendation `json:"recommended_phases" yaml:"recommended_phases"`
}

var (
	// Extensions are ordered longest first so "app.tsx" is not cut to "app.ts".
	bareFilePattern   = regexp.MustCompile(`[\w-]+\.(tsx|ts|jsx|json|js|md|html|css|py|go|rs|java|cpp|c|h)`)
	quotedPathPattern = regexp.MustCompile("`" + `[\w/-]+\.\w+` + "`")
	fileLabelPattern  = regexp.MustCompile("(?i)" + `\*\*File:\*\*\s*` + "`?" + `[\w./-]+` + "`?")

	phasePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)phase\s+\d+`),
		regexp.MustCompile(`(?i)step\s+\d+`),
		regexp.MustCompile(`(?i)stage\s+\d+`),
		regexp.MustCompile(`(?i)part\s+\d+`),
		regexp.MustCompile(`(?i)##\s+(phase|step|stage|part)`),
	}

	dependencyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)depend(s|encies|ency)`),
		regexp.MustCompile(`(?i)require(s|ments|ment)`),
		regexp.MustCompile(`(?i)prerequisite`),
		regexp.MustCompile(`(?i)after.*complete`),
		regexp.MustCompile(`(?i)before.*start`),
	}

	stepPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*\d+\.\s+`),
		regexp.MustCompile(`(?m)^\s*-\s+\[[ x]\]\s+`),
		regexp.MustCompile(`(?m)^\s*[-*]\s+(Add|Create|Implement|Update|Fix|Remove|Refactor|Test)`),
	}
)

// Analyze scores content and, when it is complex, recommends phases.
func Analyze(content string) Analysis {
	ind := Indicators{
		FileCount:       countFileReferences(content),
		HasPhases:       matchesAny(content, phasePatterns),
		HasDependencies: matchesAny(content, dependencyPatterns),
		EstimatedSteps:  countSteps(content),
		TotalLines:      len(strings.Split(content, "\n")),
	}

	raw := rawScore(ind)
	isComplex := raw >= ComplexScore || ind.FileCount >= ComplexFileCount

	recommendations := []PhaseRecommendation{}
	if isComplex {
		recommendations = Recommend(content, ind.FileCount)
	}

	return Analysis{
		IsComplex:         isComplex,
		Score:             int(math.Round(raw)),
		Indicators:        ind,
		RecommendedPhases: recommendations,
	}
}

// rawScore sums the individually capped terms. The line term is fractional.
func rawScore(ind Indicators) float64 {
	score := float64(min(ind.FileCount*filePoints, fileCap))
	if ind.HasPhases {
		score += phaseBonus
	}
	if ind.HasDependencies {
		score += dependencyBonus
	}
	score += float64(min(ind.EstimatedSteps*stepPoints, stepCap))
	score += math.Min(float64(ind.TotalLines)/linesPerPoint, lineCap)
	return score
}

// countFileReferences counts distinct matched substrings across the three
// file reference patterns. "a.ts" and "`a.ts`" count as two references.
func countFileReferences(content string) int {
	seen := make(map[string]struct{})
	for _, re := range []*regexp.Regexp{bareFilePattern, quotedPathPattern, fileLabelPattern} {
		for _, m := range re.FindAllString(content, -1) {
			seen[m] = struct{}{}
		}
	}
	return len(seen)
}

// countSteps adds up matches of every step pattern without deduplication.
func countSteps(content string) int {
	total := 0
	for _, re := range stepPatterns {
		total += len(re.FindAllStringIndex(content, -1))
	}
	return total
}

func matchesAny(content string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(content) {
			return true
		}
	}
	return false
}
