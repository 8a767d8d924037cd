package panel

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/portfolio-app/utils"
)

// PollInterval is how often the poller reconciles the panel with the server.
const PollInterval = 60 * time.Second

// Poller is the fallback to the stream: it re-fetches on a fixed interval and lets the
// panel diff the result.
type Poller struct {
	Interval time.Duration
	panel    *Panel
}

func NewPoller(p *Panel) *Poller {
	return &Poller{Interval: PollInterval, panel: p}
}

// Run polls until ctx is cancelled. Cancelling also aborts an in-flight fetch.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			diff, err := p.panel.Fetch(ctx)
			if err != nil {
				continue
			}
			if !diff.Empty() {
				utils.InfoLogger.WithFields(logrus.Fields{
					"added":   diff.Added,
					"removed": diff.Removed,
					"updated": diff.Updated,
				}).Info("Poll reconciled notifications")
			}
		}
	}
}
