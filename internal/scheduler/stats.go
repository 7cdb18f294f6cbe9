// Package scheduler refreshes the content gauges on a fixed cron cadence so
// /metrics reflects post and user counts without touching the hot path.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/colefleming/inkwell/internal/metrics"
	"github.com/colefleming/inkwell/internal/models"
	"github.com/colefleming/inkwell/internal/repo"
	"github.com/robfig/cron/v3"
)

// RunStats starts a cron scheduler that refreshes the posts_live and
// users_total gauges once a minute. It refreshes once immediately so the
// gauges are populated before the first tick. The returned cron can be
// stopped by the caller on shutdown.
func RunStats(posts *repo.PostRepo, users *repo.UserRepo) *cron.Cron {
	refresh := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		counts, err := posts.CountByStatus(ctx)
		if err != nil {
			slog.Error("stats: count posts", "err", err)
		} else {
			for _, status := range []string{models.StatusDraft, models.StatusPublished} {
				metrics.SetPostsLive(status, counts[status])
			}
		}

		n, err := users.Count(ctx)
		if err != nil {
			slog.Error("stats: count users", "err", err)
			return
		}
		metrics.SetUsersTotal(n)
	}

	refresh()

	c := cron.New()
	if _, err := c.AddFunc("* * * * *", refresh); err != nil {
		slog.Error("stats: add cron entry", "err", err)
		return c
	}
	c.Start()
	return c
}
