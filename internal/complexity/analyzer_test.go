package complexity

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// explicitPlan has six distinct .ts references and two explicit phases.
const explicitPlan = `# Plan

## Phase 1: Setup
Create config.ts and env.ts.

## Phase 2: Build
Write api.ts, db.ts, routes.ts and server.ts.`

// numberedPlan builds content with 12 numbered list lines and 140 lines total,
// no file references and no phase or dependency language.
func numberedPlan() string {
	lines := make([]string, 0, 140)
	for i := 1; i <= 12; i++ {
		lines = append(lines, fmt.Sprintf("%d. Item", i))
	}
	for len(lines) < 140 {
		lines = append(lines, "filler text")
	}
	return strings.Join(lines, "\n")
}

// expectedScore recomputes the score from indicators using the documented formula.
func expectedScore(ind Indicators) float64 {
	score := math.Min(float64(ind.FileCount*5), 40)
	if ind.HasPhases {
		score += 15
	}
	if ind.HasDependencies {
		score += 10
	}
	score += math.Min(float64(ind.EstimatedSteps*2), 20)
	score += math.Min(float64(ind.TotalLines)/10, 15)
	return score
}

// =============================================================================
// Indicator Tests
// =============================================================================

func TestAnalyze_FileReferences(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"none", "no files here", 0},
		{"bare", "edit main.go and util.go", 2},
		{"duplicate bare", "main.go then main.go again", 1},
		{"whole extension", "app.tsx and app.ts", 2},
		{"quoted counts separately", "see `lib/a.rb`", 1},
		{"quoted and bare", "see `a.ts`", 2},
		{"file label", "**File:** `src/server.go`", 3},
		{"unknown extension", "notes.txt and image.png", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(tt.content).Indicators.FileCount
			if got != tt.want {
				t.Errorf("FileCount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAnalyze_PhaseMarkers(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"Do this in phase 2.", true},
		{"STEP 10 is last", true},
		{"stage 1", true},
		{"Part 3 covers it", true},
		{"## Phase overview", true},
		{"## Part two", true},
		{"a phased approach", false},
		{"step one", false},
	}

	for _, tt := range tests {
		got := Analyze(tt.content).Indicators.HasPhases
		if got != tt.want {
			t.Errorf("HasPhases(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}

func TestAnalyze_DependencyLanguage(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"This depends on auth", true},
		{"Dependencies: none", true},
		{"requirements listed below", true},
		{"a prerequisite for release", true},
		{"after the migration is complete", true},
		{"before we start", true},
		{"after lunch\nthen complete", false},
		{"independent work", false},
	}

	for _, tt := range tests {
		got := Analyze(tt.content).Indicators.HasDependencies
		if got != tt.want {
			t.Errorf("HasDependencies(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}

func TestAnalyze_StepsAreAdditive(t *testing.T) {
	content := strings.Join([]string{
		"1. First thing",
		"2. Second thing",
		"- [ ] open task",
		"- [x] done task",
		"- Add a handler",
		"* Refactor the store",
		"- nothing actionable",
	}, "\n")

	got := Analyze(content).Indicators.EstimatedSteps
	if got != 6 {
		t.Errorf("EstimatedSteps = %d, want 6", got)
	}
}

func TestAnalyze_TotalLines(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 1},
		{"one line", 1},
		{"a\nb", 2},
		{"a\nb\n", 3},
	}

	for _, tt := range tests {
		if got := Analyze(tt.content).Indicators.TotalLines; got != tt.want {
			t.Errorf("TotalLines(%q) = %d, want %d", tt.content, got, tt.want)
		}
	}
}

// =============================================================================
// Score Tests
// =============================================================================

func TestAnalyze_ScoreIsSumOfCappedTerms(t *testing.T) {
	inputs := []string{
		"",
		"edit main.go",
		explicitPlan,
		numberedPlan(),
		"phase 1 depends on setup.go\n1. Add it\n- [ ] Test it",
		strings.Repeat("a.go b.go c.go d.go e.go f.go g.go h.go i.go j.go\n", 30),
	}

	for i, content := range inputs {
		a := Analyze(content)
		want := int(math.Round(expectedScore(a.Indicators)))
		if a.Score != want {
			t.Errorf("input %d: Score = %d, want %d (indicators %+v)", i, a.Score, want, a.Indicators)
		}
		if a.Score < 0 || a.Score > 100 {
			t.Errorf("input %d: Score %d out of range", i, a.Score)
		}
	}
}

func TestAnalyze_FileTermCapped(t *testing.T) {
	var refs []string
	for i := 0; i < 20; i++ {
		refs = append(refs, fmt.Sprintf("f%d.go", i))
	}
	a := Analyze(strings.Join(refs, " "))

	if a.Indicators.FileCount != 20 {
		t.Fatalf("FileCount = %d, want 20", a.Indicators.FileCount)
	}
	// 40 from files, 0.1 from a single line.
	if a.Score != 40 {
		t.Errorf("Score = %d, want 40", a.Score)
	}
}

func TestAnalyze_FileCountForcesComplex(t *testing.T) {
	a := Analyze("a.go b.go c.go d.go e.go")

	if a.Score >= ComplexScore {
		t.Fatalf("test input should score below threshold, got %d", a.Score)
	}
	if !a.IsComplex {
		t.Error("expected five files to force IsComplex")
	}

	b := Analyze("a.go b.go c.go d.go")
	if b.IsComplex {
		t.Error("four files with a low score should not be complex")
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	for _, content := range []string{explicitPlan, numberedPlan(), keywordPlan, structuralPlan()} {
		first := Analyze(content)
		second := Analyze(content)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("Analyze not idempotent (-first +second):\n%s", diff)
		}
	}
}

// =============================================================================
// Worked Examples
// =============================================================================

func TestAnalyze_ExplicitPhasesExample(t *testing.T) {
	a := Analyze(explicitPlan)

	if a.Indicators.FileCount != 6 {
		t.Errorf("FileCount = %d, want 6", a.Indicators.FileCount)
	}
	if !a.Indicators.HasPhases {
		t.Error("expected HasPhases")
	}
	if !a.IsComplex {
		t.Fatal("expected IsComplex")
	}

	if len(a.RecommendedPhases) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(a.RecommendedPhases))
	}
	for i, want := range []string{"Setup", "Build"} {
		rec := a.RecommendedPhases[i]
		if rec.Name != want {
			t.Errorf("phase %d name = %q, want %q", i+1, rec.Name, want)
		}
		if rec.Source != SourceExplicit {
			t.Errorf("phase %d source = %s, want explicit", i+1, rec.Source)
		}
	}
}

func TestAnalyze_NumberedListExample(t *testing.T) {
	a := Analyze(numberedPlan())

	want := Indicators{FileCount: 0, HasPhases: false, HasDependencies: false, EstimatedSteps: 12, TotalLines: 140}
	if diff := cmp.Diff(want, a.Indicators); diff != "" {
		t.Errorf("indicators mismatch (-want +got):\n%s", diff)
	}
	if a.Score != 34 {
		t.Errorf("Score = %d, want 34", a.Score)
	}
	if a.IsComplex {
		t.Error("expected not complex")
	}
	if len(a.RecommendedPhases) != 0 {
		t.Errorf("expected no recommendations, got %d", len(a.RecommendedPhases))
	}
}
