package popup

import (
	"context"
	"errors"
	"time"

	"github.com/autoteile-schmidt/service-portal-api/logger"
	"github.com/autoteile-schmidt/service-portal-api/models"
	"github.com/autoteile-schmidt/service-portal-api/store"
)

var ErrCampaignNotFound = errors.New("popup campaign not found")

// Decision is the outcome of one evaluation.
type Decision struct {
	CampaignID string `json:"campaignId"`
	Display    bool   `json:"display"`
	Reason     Reason `json:"reason"`
	ViewCount  int    `json:"viewCount"`

	// Campaign is set when the popup is displayed.
	Campaign *models.PopupCampaign `json:"campaign,omitempty"`
}

// Tracker evaluates campaigns for visitors and records impressions.
type Tracker struct {
	campaigns store.Repository[models.PopupCampaign]
	history   HistoryStore
	log       logger.Logger
	Now       func() time.Time
}

func NewTracker(campaigns store.Repository[models.PopupCampaign], history HistoryStore, log logger.Logger) *Tracker {
	return &Tracker{campaigns: campaigns, history: history, log: log, Now: time.Now}
}

// Evaluate decides whether the campaign is shown to visitorID. A positive
// decision counts as an impression.
func (t *Tracker) Evaluate(ctx context.Context, campaignID, visitorID string) (Decision, error) {
	campaign, err := t.campaigns.Get(ctx, campaignID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Decision{}, ErrCampaignNotFound
		}
		return Decision{}, err
	}

	h, err := t.history.Load(ctx, campaignID, visitorID)
	if err != nil {
		return Decision{}, err
	}

	now := t.Now()
	display, reason := Evaluate(ConfigFromCampaign(campaign), h, now)
	decision := Decision{CampaignID: campaignID, Display: display, Reason: reason, ViewCount: h.ViewCount}
	if !display {
		return decision, nil
	}

	decision.Campaign = campaign
	h = h.Record(now)
	if err := t.history.Save(ctx, campaignID, visitorID, h); err != nil {
		// the overlay is advisory; show it even if the impression is lost
		t.log.Warn("popup", "failed to record impression", map[string]interface{}{
			"campaign": campaignID,
			"error":    err,
		})
		return decision, nil
	}
	decision.ViewCount = h.ViewCount
	return decision, nil
}

// Reset clears a visitor's history for a campaign.
func (t *Tracker) Reset(ctx context.Context, campaignID, visitorID string) error {
	return t.history.Save(ctx, campaignID, visitorID, History{})
}
