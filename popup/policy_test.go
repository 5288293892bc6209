package popup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var created = time.Date(2030, 3, 1, 9, 0, 0, 0, time.UTC)

func campaignConfig() Config {
	return Config{
		Active:       true,
		CreatedAt:    created,
		Duration:     7 * day,
		MaxViews:     2,
		ViewInterval: 2 * day,
	}
}

func seenAt(t time.Time, count int) History {
	return History{ViewCount: count, LastSeen: &t}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		history History
		now     time.Time
		want    bool
		reason  Reason
	}{
		{"first visit", nil, History{}, created.Add(time.Hour), true, ReasonEligible},
		{"inactive", func(c *Config) { c.Active = false }, History{}, created, false, ReasonInactive},
		{"expired", nil, History{}, created.Add(7*day + time.Second), false, ReasonExpired},
		{"last moment of duration", nil, History{}, created.Add(7 * day), true, ReasonEligible},
		{"cap reached", nil, seenAt(created, 2), created.Add(5 * day), false, ReasonCapReached},
		{"within interval", nil, seenAt(created, 1), created.Add(day), false, ReasonInterval},
		{"interval elapsed exactly", nil, seenAt(created, 1), created.Add(2 * day), true, ReasonEligible},
		{"zero max views", func(c *Config) { c.MaxViews = 0 }, History{}, created, false, ReasonCapReached},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := campaignConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			got, reason := Evaluate(cfg, tt.history, tt.now)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.reason, reason)
			assert.Equal(t, tt.want, Eligible(cfg, tt.history, tt.now))
		})
	}
}

func TestRecordIncrementsCountAndTimestampTogether(t *testing.T) {
	h := History{}.Record(created)
	assert.Equal(t, 1, h.ViewCount)
	assert.Equal(t, created, *h.LastSeen)

	later := created.Add(3 * day)
	h2 := h.Record(later)
	assert.Equal(t, 2, h2.ViewCount)
	assert.Equal(t, later, *h2.LastSeen)
	assert.Equal(t, created, *h.LastSeen, "record must not mutate the previous history")
}

func TestDisplaysNeverExceedMaxViews(t *testing.T) {
	cfg := campaignConfig()
	cfg.Duration = 365 * day
	cfg.MaxViews = 3
	cfg.ViewInterval = 0

	var h History
	shown := 0
	for i := 0; i < 50; i++ {
		now := created.Add(time.Duration(i) * time.Hour)
		if Eligible(cfg, h, now) {
			h = h.Record(now)
			shown++
		}
	}
	assert.Equal(t, 3, shown)
}
