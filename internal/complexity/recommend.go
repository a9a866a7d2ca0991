package complexity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gerunddev/planbridge/internal/parser"
)

// Source identifies which heuristic produced a recommendation.
type Source string

const (
	SourceExplicit   Source = "explicit"
	SourceKeyword    Source = "keyword"
	SourceStructural Source = "structural"
)

// Truncation limits for recommendation descriptions, in characters.
const (
	explicitDescriptionLimit   = 300
	structuralDescriptionLimit = 200
	maxEstimatedFiles          = 5
	maxStructuralPhases        = 4
	// Structural splitting needs more than this many sections.
	minStructuralSections = 2
	// coreFileThreshold adds a Core phase even without core keywords.
	coreFileThreshold = 3
)

// PhaseRecommendation is one proposed phase.
type PhaseRecommendation struct {
	Name           string   `json:"name" yaml:"name"`
	Description    string   `json:"description" yaml:"description"`
	EstimatedFiles []string `json:"estimated_files" yaml:"estimated_files"`
	Rationale      string   `json:"rationale" yaml:"rationale"`
	Source         Source   `json:"source" yaml:"source"`
}

var (
	// sectionFilePattern finds code file tokens inside one section.
	sectionFilePattern = regexp.MustCompile(`[\w/-]+\.(tsx|ts|jsx|json|js|md)\b`)

	// fileTokenPattern finds any path-like token with a known extension.
	// Keyword phases filter these tokens by topic.
	fileTokenPattern = regexp.MustCompile(`[\w./-]*[\w-]\.(tsx|ts|jsx|json|js|md|html|css|py|go|rs|java|cpp|c|h|ya?ml|toml)\b`)

	setupSignal   = regexp.MustCompile(`(?i)setup|install|config|init`)
	coreSignal    = regexp.MustCompile(`(?i)implement|core|main|feature|logic`)
	testingSignal = regexp.MustCompile(`(?i)test|spec|coverage|qa`)
	docsSignal    = regexp.MustCompile(`(?i)document|readme|guide|wiki`)

	setupFiles   = regexp.MustCompile(`(?i)setup|config|package\.json|tsconfig`)
	coreFiles    = regexp.MustCompile(`\.(tsx|ts|jsx|js|py|go|rs)$`)
	testingFiles = regexp.MustCompile(`(?i)test|spec|__tests__`)
	docsFiles    = regexp.MustCompile(`(?i)readme|docs?|guide|wiki`)
)

// keywordPhase is a standard phase triggered by topic keywords.
type keywordPhase struct {
	topic       string
	name        string
	description string
	reason      string
	signal      *regexp.Regexp
	files       func(token string) bool
}

// keywordPhases are evaluated in this fixed order.
var keywordPhases = []keywordPhase{
	{
		topic:       "setup",
		name:        "Setup & Configuration",
		description: "Initialize project structure, install dependencies, configure tooling",
		reason:      "foundation must be established before feature implementation",
		signal:      setupSignal,
		files:       setupFiles.MatchString,
	},
	{
		topic:       "core",
		name:        "Core Implementation",
		description: "Implement main features, business logic, and primary functionality",
		reason:      "primary functionality forms the bulk of the implementation",
		signal:      coreSignal,
		files: func(token string) bool {
			return coreFiles.MatchString(token) && !testingFiles.MatchString(token)
		},
	},
	{
		topic:       "testing",
		name:        "Testing & Validation",
		description: "Write tests, add coverage, validate behavior",
		reason:      "testing requires completed implementation to verify",
		signal:      testingSignal,
		files:       testingFiles.MatchString,
	},
	{
		topic:       "docs",
		name:        "Documentation",
		description: "Update README, write guides, document API",
		reason:      "documentation reflects final implementation details",
		signal:      docsSignal,
		files:       docsFiles.MatchString,
	},
}

// Recommend proposes ordered phases for content. It tries explicit phase
// headings first, then keyword-triggered standard phases, then a structural
// split on "## " sections. The result may be empty.
func Recommend(content string, fileCount int) []PhaseRecommendation {
	if recs := explicitPhases(content); len(recs) > 0 {
		return recs
	}
	if recs := keywordRecommendations(content, fileCount); len(recs) > 0 {
		return recs
	}
	return structuralPhases(content)
}

// explicitPhases builds one recommendation per "## Phase N: Title" heading.
func explicitPhases(content string) []PhaseRecommendation {
	headings := parser.PhaseHeadings(content)
	recs := make([]PhaseRecommendation, 0, len(headings))
	for _, h := range headings {
		recs = append(recs, PhaseRecommendation{
			Name:           h.Title,
			Description:    strings.TrimSpace(parser.Truncate(h.Section, explicitDescriptionLimit)),
			EstimatedFiles: uniqueFiles(sectionFilePattern.FindAllString(h.Section, -1)),
			Rationale:      fmt.Sprintf("Explicitly defined in plan as Phase %d", h.Number),
			Source:         SourceExplicit,
		})
	}
	return recs
}

// keywordRecommendations emits the standard phases whose topic keywords
// appear anywhere in content.
func keywordRecommendations(content string, fileCount int) []PhaseRecommendation {
	var tokens []string
	var recs []PhaseRecommendation
	for _, kp := range keywordPhases {
		triggered := kp.signal.MatchString(content)
		if kp.topic == "core" && fileCount >= coreFileThreshold {
			triggered = true
		}
		if !triggered {
			continue
		}
		if tokens == nil {
			tokens = fileTokenPattern.FindAllString(content, -1)
		}

		var files []string
		for _, tok := range tokens {
			if kp.files(tok) {
				files = append(files, tok)
			}
		}

		recs = append(recs, PhaseRecommendation{
			Name:           kp.name,
			Description:    kp.description,
			EstimatedFiles: uniqueFiles(files),
			Rationale:      fmt.Sprintf("Keyword match (%s): %s", kp.topic, kp.reason),
			Source:         SourceKeyword,
		})
	}
	return recs
}

// structuralPhases splits content on level-two headings and turns up to
// the first four sections into phases.
func structuralPhases(content string) []PhaseRecommendation {
	sections := parser.SplitSections(content)
	if len(sections) <= minStructuralSections {
		return []PhaseRecommendation{}
	}
	if len(sections) > maxStructuralPhases {
		sections = sections[:maxStructuralPhases]
	}

	recs := make([]PhaseRecommendation, 0, len(sections))
	for i, section := range sections {
		name := parser.FirstLine(section)
		if name == "" {
			name = fmt.Sprintf("Phase %d", i+1)
		}
		recs = append(recs, PhaseRecommendation{
			Name:           name,
			Description:    strings.TrimSpace(parser.Truncate(section, structuralDescriptionLimit)),
			EstimatedFiles: uniqueFiles(sectionFilePattern.FindAllString(section, -1)),
			Rationale:      fmt.Sprintf("Structural split: based on plan section %d", i+1),
			Source:         SourceStructural,
		})
	}
	return recs
}

// uniqueFiles deduplicates by exact text, keeps first-seen order and caps
// the list at maxEstimatedFiles.
func uniqueFiles(matches []string) []string {
	seen := make(map[string]struct{}, len(matches))
	files := []string{}
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		files = append(files, m)
		if len(files) == maxEstimatedFiles {
			break
		}
	}
	return files
}
