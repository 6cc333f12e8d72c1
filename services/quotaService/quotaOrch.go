package quotaService

import (
	"fmt"
	"time"

	"pickemEngine/models"

	"gorm.io/gorm"
)

// Governor enforces the external feed's rolling call budget. Every fetcher
// must ask CanCall before a request and RecordCall only after a
// verified-successful response. Denial carries a reason and has no side
// effects; callers degrade to their documented fallback instead of failing.
type Governor struct {
	db     *gorm.DB
	budget int
	window time.Duration
}

func New(db *gorm.DB, budget int) *Governor {
	return &Governor{
		db:     db,
		budget: budget,
		window: 30 * 24 * time.Hour,
	}
}

// CanCall reports whether a call of the given cost fits inside the rolling
// budget. The returned reason is empty when the call is allowed.
func (g *Governor) CanCall(cost int) (bool, string) {
	used, err := g.used()
	if err != nil {
		// If the ledger is unreadable, deny: an uncounted call could blow
		// the budget.
		return false, fmt.Sprintf("quota ledger unavailable: %v", err)
	}

	if used+cost > g.budget {
		return false, fmt.Sprintf("quota exceeded: %d of %d calls used in the last 30 days", used, g.budget)
	}
	return true, ""
}

// RecordCall writes a ledger row for a completed, successful call.
func (g *Governor) RecordCall(endpoint string, cost int) error {
	call := models.ApiCall{
		Endpoint: endpoint,
		Cost:     cost,
	}
	return g.db.Create(&call).Error
}

// Remaining returns how many calls are left in the rolling window.
func (g *Governor) Remaining() (int, error) {
	used, err := g.used()
	if err != nil {
		return 0, err
	}
	remaining := g.budget - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (g *Governor) used() (int, error) {
	var total *int
	cutoff := time.Now().Add(-g.window)
	err := g.db.Model(&models.ApiCall{}).
		Where("created_at > ?", cutoff).
		Select("SUM(cost)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
