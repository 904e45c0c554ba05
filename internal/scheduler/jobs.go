package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/olegiv/wpbridge/internal/blog"
	"github.com/olegiv/wpbridge/internal/geoip"
	"github.com/olegiv/wpbridge/internal/model"
)

// Job names.
const (
	JobSourceProbe    = "source_probe"
	JobGeoIPReload    = "geoip_reload"
	JobEventRetention = "event_retention"
)

// EventPruner deletes old event log entries.
type EventPruner interface {
	DeleteEventsBefore(ctx context.Context, before time.Time) (int64, error)
}

// SourceProbeJob checks the content source. A failing source is reported
// by the monitor itself, so the job only fails when the probe cannot run.
func SourceProbeJob(m *blog.Monitor, schedule string) Job {
	return Job{
		Name:        JobSourceProbe,
		Description: "Checks that the content source answers",
		Schedule:    schedule,
		Timeout:     time.Minute,
		Run: func(ctx context.Context) error {
			m.Check(ctx)
			return ctx.Err()
		},
	}
}

// GeoIPReloadJob reopens the GeoIP database when the file was replaced.
func GeoIPReloadJob(g *geoip.Lookup, logger *slog.Logger) Job {
	return Job{
		Name:        JobGeoIPReload,
		Description: "Reloads the GeoIP country database",
		Schedule:    "@daily",
		Run: func(context.Context) error {
			changed, err := g.Reload()
			if err != nil {
				return err
			}
			if changed {
				logger.Info("GeoIP database reloaded")
			}
			return nil
		},
	}
}

// EventRetentionJob removes events older than days.
func EventRetentionJob(p EventPruner, days int, logger *slog.Logger) Job {
	return Job{
		Name:        JobEventRetention,
		Description: "Deletes old event log entries",
		Schedule:    "30 3 * * *",
		Timeout:     5 * time.Minute,
		Run: func(ctx context.Context) error {
			if days < 1 {
				return errors.New("event retention must be at least one day")
			}
			cutoff := time.Now().UTC().AddDate(0, 0, -days)
			n, err := p.DeleteEventsBefore(ctx, cutoff)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("pruned event log", "deleted", n, "before", cutoff.Format(time.DateOnly),
					"category", model.EventCategorySystem)
			}
			return nil
		},
	}
}
