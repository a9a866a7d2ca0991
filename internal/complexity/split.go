package complexity

import "github.com/gerunddev/planbridge/internal/plan"

// SplitIntoPhases turns p into a phased plan following analysis.
//
// A plan that is not complex, or complex but without any recommendation,
// is returned unchanged with IsPhased false. Otherwise every recommendation
// becomes a phase; each phase depends on its predecessor only and the first
// phase becomes current.
func SplitIntoPhases(p plan.Plan, analysis Analysis) plan.Plan {
	recs := analysis.RecommendedPhases
	if !analysis.IsComplex || len(recs) == 0 {
		p.IsPhased = false
		return p
	}

	phases := make([]plan.Phase, len(recs))
	for i, rec := range recs {
		deps := []string{}
		if i > 0 {
			deps = []string{recs[i-1].Name}
		}
		phases[i] = plan.Phase{
			ID:              plan.NewID(),
			PhaseNumber:     i + 1,
			Name:            rec.Name,
			Description:     rec.Description,
			Dependencies:    deps,
			Content:         ExtractPhaseContent(p.Content, rec, i, len(recs)),
			Status:          plan.StatusSubmitted,
			Reviews:         []plan.Review{},
			FixReports:      []plan.FixReport{},
			SelfAssessments: []plan.SelfAssessment{},
			CreatedAt:       p.CreatedAt,
			UpdatedAt:       p.UpdatedAt,
		}
	}

	p.IsPhased = true
	p.Phases = phases
	p.CurrentPhaseID = phases[0].ID
	return p
}
