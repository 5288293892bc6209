// Package popup decides when a promotional overlay may be shown to a visitor
// and keeps the per-visitor view history that decision depends on.
package popup

import (
	"time"

	"github.com/autoteile-schmidt/service-portal-api/models"
)

const day = 24 * time.Hour

// Config holds the campaign state and thresholds the policy reads.
type Config struct {
	Active       bool
	CreatedAt    time.Time
	Duration     time.Duration
	MaxViews     int
	ViewInterval time.Duration
}

// ConfigFromCampaign converts the stored day-based thresholds.
func ConfigFromCampaign(c *models.PopupCampaign) Config {
	return Config{
		Active:       c.Active,
		CreatedAt:    c.CreatedAt,
		Duration:     time.Duration(c.DurationDays) * day,
		MaxViews:     c.MaxViews,
		ViewInterval: time.Duration(c.IntervalDays) * day,
	}
}

// History is what a visitor has seen of one campaign.
type History struct {
	ViewCount int
	LastSeen  *time.Time
}

// Record returns the history after one more impression at now. Count and
// timestamp change together and are persisted in one write.
func (h History) Record(now time.Time) History {
	seen := now
	return History{ViewCount: h.ViewCount + 1, LastSeen: &seen}
}

// Reason explains a decision.
type Reason string

const (
	ReasonInactive   Reason = "inactive"
	ReasonExpired    Reason = "expired"
	ReasonCapReached Reason = "cap_reached"
	ReasonInterval   Reason = "interval"
	ReasonEligible   Reason = "eligible"
)

// Evaluate applies the policy:
//
//	active AND now-createdAt <= duration AND viewCount < maxViews
//	AND (lastSeen == nil OR now-lastSeen >= viewInterval)
func Evaluate(cfg Config, h History, now time.Time) (bool, Reason) {
	switch {
	case !cfg.Active:
		return false, ReasonInactive
	case now.Sub(cfg.CreatedAt) > cfg.Duration:
		return false, ReasonExpired
	case h.ViewCount >= cfg.MaxViews:
		return false, ReasonCapReached
	case h.LastSeen != nil && now.Sub(*h.LastSeen) < cfg.ViewInterval:
		return false, ReasonInterval
	}
	return true, ReasonEligible
}

// Eligible reports whether the popup may be displayed.
func Eligible(cfg Config, h History, now time.Time) bool {
	ok, _ := Evaluate(cfg, h, now)
	return ok
}
