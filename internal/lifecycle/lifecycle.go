// Package lifecycle applies review workflow events to plans and phases.
//
// Events land on a Target: the plan itself when it is unphased, otherwise
// its current phase. All functions mutate the plan in place and stamp
// updated_at; persisting the result is the caller's job.
package lifecycle

import (
	"errors"

	"github.com/gerunddev/planbridge/internal/plan"
)

var (
	// ErrNotPhased is returned by phase operations on an unphased plan.
	ErrNotPhased = errors.New("plan is not phased")

	// ErrNoActivePhase is returned when a phased plan has no current phase.
	ErrNoActivePhase = errors.New("plan has no active phase")

	// ErrReviewNotFound is returned when a fix report names an unknown review.
	ErrReviewNotFound = errors.New("review not found")
)

// Target is the entity review events are recorded against.
type Target struct {
	plan  *plan.Plan
	phase *plan.Phase
}

// Resolve picks the plan, or its current phase when the plan is phased.
func Resolve(p *plan.Plan) (Target, error) {
	if !p.IsPhased {
		return Target{plan: p}, nil
	}
	cur := p.CurrentPhase()
	if cur == nil {
		return Target{}, ErrNoActivePhase
	}
	return Target{plan: p, phase: cur}, nil
}

// Phase returns the targeted phase, or nil when the target is the plan.
func (t Target) Phase() *plan.Phase {
	return t.phase
}

// ID returns the id of the targeted plan or phase.
func (t Target) ID() string {
	if t.phase != nil {
		return t.phase.ID
	}
	return t.plan.ID
}

// Status returns the status of the targeted plan or phase.
func (t Target) Status() plan.Status {
	if t.phase != nil {
		return t.phase.Status
	}
	return t.plan.Status
}

// Reviews returns the target's reviews in submission order.
func (t Target) Reviews() []plan.Review {
	if t.phase != nil {
		return t.phase.Reviews
	}
	return t.plan.Reviews
}

// LatestReview returns the most recent review, or nil.
func (t Target) LatestReview() *plan.Review {
	reviews := t.Reviews()
	if len(reviews) == 0 {
		return nil
	}
	latest := reviews[len(reviews)-1]
	return &latest
}

// LatestReview returns the most recent review on the plan's target along
// with the target id. A phased plan whose phases are all done reports its
// last phase. The review is nil when none has been submitted.
func LatestReview(p *plan.Plan) (*plan.Review, string) {
	target, err := Resolve(p)
	if err != nil {
		if len(p.Phases) == 0 {
			return nil, p.ID
		}
		last := &p.Phases[len(p.Phases)-1]
		target = Target{plan: p, phase: last}
	}
	return target.LatestReview(), target.ID()
}

func (t Target) findReview(id string) bool {
	for _, r := range t.Reviews() {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (t Target) setStatus(s plan.Status) {
	if t.phase != nil {
		t.phase.Status = s
		t.phase.UpdatedAt = plan.Timestamp()
		return
	}
	t.plan.Status = s
}

// ReviewResult describes the outcome of SubmitReview.
type ReviewResult struct {
	Review      plan.Review
	Approved    bool
	PlanStatus  plan.Status
	PhaseID     string
	PhaseStatus plan.Status
	IsLastPhase bool
}

// SubmitReview records a review. Empty findings approve the target and
// anything else sends it back for fixes.
//
// For phased plans an approved phase completes, and the plan completes only
// when that phase is the last one. The current phase does not move; that is
// AdvancePhase's job.
func SubmitReview(p *plan.Plan, findings []string) (ReviewResult, error) {
	target, err := Resolve(p)
	if err != nil {
		return ReviewResult{}, err
	}
	if findings == nil {
		findings = []string{}
	}

	approved := len(findings) == 0
	review := plan.Review{
		ID:        plan.NewID(),
		Timestamp: plan.Timestamp(),
		Findings:  findings,
		Status:    plan.ReviewNeedsFixes,
	}
	targetStatus := plan.StatusNeedsFixes
	if approved {
		review.Status = plan.ReviewApproved
		targetStatus = plan.StatusCompleted
	}

	result := ReviewResult{Review: review, Approved: approved}

	if ph := target.phase; ph != nil {
		ph.Reviews = append(ph.Reviews, review)
		target.setStatus(targetStatus)

		result.PhaseID = ph.ID
		result.PhaseStatus = ph.Status
		result.IsLastPhase = ph.PhaseNumber == len(p.Phases)
		switch {
		case !approved:
			p.Status = plan.StatusNeedsFixes
		case result.IsLastPhase:
			p.Status = plan.StatusCompleted
		default:
			p.Status = plan.StatusInProgress
		}
	} else {
		p.Reviews = append(p.Reviews, review)
		target.setStatus(targetStatus)
	}

	p.Touch()
	result.PlanStatus = p.Status
	return result, nil
}

// FixResult describes the outcome of SubmitFixReport.
type FixResult struct {
	FixReport   plan.FixReport
	PlanStatus  plan.Status
	PhaseID     string
	PhaseStatus plan.Status
}

// SubmitFixReport records fixes for a review on the target and requests a
// new review. reviewID must name a review already recorded on the target.
func SubmitFixReport(p *plan.Plan, reviewID string, fixes []string) (FixResult, error) {
	target, err := Resolve(p)
	if err != nil {
		return FixResult{}, err
	}
	if !target.findReview(reviewID) {
		return FixResult{}, ErrReviewNotFound
	}
	if fixes == nil {
		fixes = []string{}
	}

	report := plan.FixReport{
		ID:           plan.NewID(),
		Timestamp:    plan.Timestamp(),
		ReviewID:     reviewID,
		FixesApplied: fixes,
	}

	result := FixResult{FixReport: report}
	if ph := target.phase; ph != nil {
		ph.FixReports = append(ph.FixReports, report)
		result.PhaseID = ph.ID
	} else {
		p.FixReports = append(p.FixReports, report)
	}
	target.setStatus(plan.StatusReviewRequested)
	// Plan status mirrors the phase.
	p.Status = plan.StatusReviewRequested
	p.Touch()

	if target.phase != nil {
		result.PhaseStatus = target.phase.Status
	}
	result.PlanStatus = p.Status
	return result, nil
}

// AddSelfAssessment appends an implementer self-assessment to the target.
// id, timestamp and target_id are assigned here; status never changes.
func AddSelfAssessment(p *plan.Plan, a plan.SelfAssessment) (plan.SelfAssessment, error) {
	target, err := Resolve(p)
	if err != nil {
		return plan.SelfAssessment{}, err
	}

	a.ID = plan.NewID()
	a.Timestamp = plan.Timestamp()
	a.TargetID = target.ID()
	a.FilesChanged = nonNil(a.FilesChanged)
	a.RequirementsMet = nonNil(a.RequirementsMet)
	a.Concerns = nonNil(a.Concerns)
	a.Questions = nonNil(a.Questions)

	if ph := target.phase; ph != nil {
		ph.SelfAssessments = append(ph.SelfAssessments, a)
		ph.UpdatedAt = plan.Timestamp()
	} else {
		p.SelfAssessments = append(p.SelfAssessments, a)
	}
	p.Touch()
	return a, nil
}

// AdvanceResult describes the outcome of AdvancePhase.
type AdvanceResult struct {
	// CompletedPhase is the phase just closed; nil when nothing was left.
	CompletedPhase *plan.Phase
	// CurrentPhase is the newly current phase; nil once all are done.
	CurrentPhase       *plan.Phase
	AllPhasesCompleted bool
	PlanStatus         plan.Status
}

// AdvancePhase completes the current phase and moves to the next phase by
// number. After the last phase the plan completes and no phase is current;
// further calls change nothing and report AllPhasesCompleted.
func AdvancePhase(p *plan.Plan) (AdvanceResult, error) {
	if !p.IsPhased {
		return AdvanceResult{}, ErrNotPhased
	}

	cur := p.CurrentPhase()
	if cur == nil {
		if len(p.Phases) > 0 && p.CompletedPhases() == len(p.Phases) {
			return AdvanceResult{AllPhasesCompleted: true, PlanStatus: p.Status}, nil
		}
		return AdvanceResult{}, ErrNoActivePhase
	}

	cur.Status = plan.StatusCompleted
	cur.UpdatedAt = plan.Timestamp()
	completed := *cur

	result := AdvanceResult{CompletedPhase: &completed}
	if next := p.PhaseByNumber(cur.PhaseNumber + 1); next != nil {
		p.CurrentPhaseID = next.ID
		p.Status = plan.StatusInProgress
		current := *next
		result.CurrentPhase = &current
	} else {
		p.CurrentPhaseID = ""
		p.Status = plan.StatusCompleted
		result.AllPhasesCompleted = true
	}

	p.Touch()
	result.PlanStatus = p.Status
	return result, nil
}

// UpdateStatus overwrites the plan's status without any transition checks.
func UpdateStatus(p *plan.Plan, s plan.Status) {
	p.Status = s
	p.Touch()
}

// Reset returns the plan and every phase to submitted and clears reviews
// and fix reports. Self-assessments are kept. A phased plan restarts at its
// first phase.
func Reset(p *plan.Plan) {
	now := plan.Timestamp()

	p.Status = plan.StatusSubmitted
	p.Reviews = []plan.Review{}
	p.FixReports = []plan.FixReport{}

	for i := range p.Phases {
		ph := &p.Phases[i]
		ph.Status = plan.StatusSubmitted
		ph.Reviews = []plan.Review{}
		ph.FixReports = []plan.FixReport{}
		ph.UpdatedAt = now
	}
	if p.IsPhased && len(p.Phases) > 0 {
		p.CurrentPhaseID = firstPhase(p).ID
	}

	p.UpdatedAt = now
}

// ForceComplete marks the plan completed. Phases are left alone.
func ForceComplete(p *plan.Plan) {
	p.Status = plan.StatusCompleted
	p.Touch()
}

func firstPhase(p *plan.Plan) *plan.Phase {
	if ph := p.PhaseByNumber(1); ph != nil {
		return ph
	}
	return &p.Phases[0]
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
