package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"text/tabwriter"
	"time"

	"ai-shopping-list/internal/devserver"
	"ai-shopping-list/internal/metrics"
	"ai-shopping-list/internal/session"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// PrintMetrics prints daily request and token usage plus process health.
func (a *App) PrintMetrics(ctx context.Context, days int) error {
	usage, err := a.metricsStore.GetDailyUsage(ctx, days)
	if err != nil {
		return err
	}

	if len(usage) == 0 {
		a.println("No requests recorded yet.")
	} else {
		w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tAPI\tERRORS\tAVG MS\tLLM\tPROMPT\tCOMPLETION")
		for _, d := range usage {
			fmt.Fprintf(w, "%s\t%s\t%d\t%.0f\t%d\t%s\t%s\n",
				d.Date,
				humanize.Comma(int64(d.APIRequests)),
				d.Errors,
				d.AvgLatencyMS,
				d.LLMCalls,
				humanize.Comma(int64(d.TotalPrompt)),
				humanize.Comma(int64(d.TotalCompletion)),
			)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	h := metrics.GetSysHealth(a.cfg.DataDir)
	a.printf("\nMemory: %s alloc, %s sys, %d GC runs\n", h.Alloc, h.Sys, h.NumGC)
	a.printf("Data dir: %s\n", h.DataDiskSize)
	return nil
}

// CleanupMetrics removes metric records older than days and expired
// sessions.
func (a *App) CleanupMetrics(ctx context.Context, days int) error {
	affected, err := a.metricsStore.Cleanup(ctx, days)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	sessions, err := session.CleanupExpired(ctx, a.db.SQL, time.Now())
	if err != nil {
		return err
	}
	a.printf("Successfully removed %d old metric records and %d expired sessions.\n", affected, sessions)
	return nil
}

// ServeDevAPI runs the in-memory API server on ln until ctx is cancelled.
// With an assistant configured, generated lists come from the model.
func (a *App) ServeDevAPI(ctx context.Context, ln net.Listener) error {
	opts := devserver.Options{
		Secret:   a.cfg.DevJWTSecret,
		TokenTTL: a.cfg.DevTokenTTL,
		Logger:   a.logger.Named("devserver"),
	}
	if a.suggester != nil {
		opts.Generator = devserver.SuggestGenerator{Suggester: a.suggester}
	}
	srv, err := devserver.New(opts)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	a.logger.Info("dev API server listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dev server forced to shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
