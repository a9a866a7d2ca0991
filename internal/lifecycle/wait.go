package lifecycle

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gerunddev/planbridge/internal/log"
	"github.com/gerunddev/planbridge/internal/plan"
)

// DefaultPollInterval is used when a Waiter has no interval configured.
const DefaultPollInterval = 5 * time.Second

// Loader reads a plan by id. projectPath is a lookup hint and may be empty.
type Loader interface {
	Load(id, projectPath string) (*plan.Plan, error)
}

// WaitResult reports how a wait ended.
type WaitResult struct {
	Reached       bool        `json:"reached"`
	PlanID        string      `json:"plan_id"`
	Status        plan.Status `json:"status"`
	WaitedSeconds int         `json:"waited_seconds"`
	Message       string      `json:"message,omitempty"`
}

// Waiter polls a plan until it reaches a status.
type Waiter struct {
	Loader   Loader
	Interval time.Duration
}

// Wait re-reads the plan every interval until its status equals target,
// the plan is completed, or timeout elapses. The plan is checked once
// immediately.
//
// Cancellation of ctx is ignored; only timeout ends the wait. Load errors,
// including a missing plan, end the wait and are returned as is.
func (w *Waiter) Wait(ctx context.Context, id, projectPath string, target plan.Status, timeout time.Duration) (WaitResult, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	interval := w.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		p, err := w.Loader.Load(id, projectPath)
		if err != nil {
			return WaitResult{}, err
		}

		result := WaitResult{
			PlanID:        p.ID,
			Status:        p.Status,
			WaitedSeconds: secondsSince(start),
		}
		switch {
		case p.Status == target:
			result.Reached = true
			return result, nil
		case p.Status == plan.StatusCompleted:
			result.Message = "Plan already completed."
			return result, nil
		}

		log.Debug("waiting for plan status", "id", id, "target", target, "status", p.Status)

		select {
		case <-ctx.Done():
			result.WaitedSeconds = secondsSince(start)
			result.Message = fmt.Sprintf("Timeout after %ds. Plan status is still: %s",
				int(math.Round(timeout.Seconds())), p.Status)
			return result, nil
		case <-ticker.C:
		}
	}
}

func secondsSince(start time.Time) int {
	return int(math.Round(time.Since(start).Seconds()))
}
