// Package pipeline wires one complete design run: environment validation,
// workspace setup, stats persistence, the acceptance loop, and completion
// reporting.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/taejun-song/bindcraft-nhej/internal/config"
	"github.com/taejun-song/bindcraft-nhej/internal/executor"
	"github.com/taejun-song/bindcraft-nhej/internal/loop"
	"github.com/taejun-song/bindcraft-nhej/internal/notify"
	"github.com/taejun-song/bindcraft-nhej/internal/remote"
	"github.com/taejun-song/bindcraft-nhej/internal/settings"
	"github.com/taejun-song/bindcraft-nhej/internal/statstore"
	"github.com/taejun-song/bindcraft-nhej/internal/workspace"
)

// Pipeline is one full design run. Executor, Notifier and Stats may be left
// nil: the executor is then built from the protocol settings, notifications
// from the configured backends, and stats recorded to the workspace's
// sqlite database.
type Pipeline struct {
	Run      *settings.RunSettings
	Protocol *config.Protocol
	Executor executor.Executor
	Notifier notify.Notifier
	Stats    Stats
	Debug    bool
}

// Stats is the statistics sink a run records through. statstore.Store
// implements it.
type Stats interface {
	loop.Stats
	StartRun(binderName string, startedAt time.Time) (string, error)
	FinishRun(id string, attempted, accepted, skipped int, outcome string) error
}

// Result reports the finished run.
type Result struct {
	Summary loop.Summary
	RunID   string
}

// Execute runs the pipeline. Environment failures surface before any
// workspace mutation; loop-level trajectory failures are aggregated into
// the summary instead of being returned per-iteration.
func (p *Pipeline) Execute(ctx context.Context) (*Result, error) {
	if _, err := os.Stat(p.Run.StartingPDB); err != nil {
		return nil, fmt.Errorf("starting pdb %s: %w", p.Run.StartingPDB, err)
	}
	if err := executor.ValidateTools(p.Protocol.RequiredTools()); err != nil {
		return nil, err
	}

	exec, err := p.buildExecutor()
	if err != nil {
		return nil, err
	}

	ws := workspace.New(p.Run.DesignPath)
	if err := ws.Create(); err != nil {
		return nil, err
	}

	stats := p.Stats
	if stats == nil {
		store, err := statstore.New(ws.StatsPath())
		if err != nil {
			return nil, fmt.Errorf("opening stats store: %w", err)
		}
		defer store.Close()
		stats = store
	}

	// Persist the settings record before the first trajectory so an
	// interrupted run can be resumed from the workspace alone.
	if err := p.Run.Save(p.Run.SettingsFile()); err != nil {
		return nil, fmt.Errorf("saving settings: %w", err)
	}

	runID, err := stats.StartRun(p.Run.BinderName, time.Now())
	if err != nil {
		return nil, err
	}

	l := loop.New(p.Run, p.Protocol, ws, exec)
	l.Stats = stats
	l.RunID = runID
	l.Debug = p.Debug

	summary, loopErr := l.Go(ctx)

	// A failed summary write must not displace the run's actual outcome:
	// the work is done and the caller needs its result either way.
	if err := stats.FinishRun(runID, summary.Attempted, summary.Accepted, summary.Skipped, string(summary.Outcome)); err != nil {
		log.Printf("[pipeline] recording run summary for %s: %v", runID, err)
	}

	p.notifyDone(summary, loopErr)
	return &Result{Summary: summary, RunID: runID}, loopErr
}

func (p *Pipeline) buildExecutor() (executor.Executor, error) {
	if p.Executor != nil {
		return p.Executor, nil
	}
	cfg := p.Protocol.Executor
	switch cfg.Mode {
	case "", "local":
		if cfg.Command == "" {
			return nil, fmt.Errorf("executor.command is not configured")
		}
		return executor.NewLocal(cfg.Command, p.Run, p.Debug), nil
	case "remote":
		if cfg.RemoteURL == "" {
			return nil, fmt.Errorf("executor.remote_url is not configured")
		}
		return remote.NewClient(cfg.RemoteURL, p.Run, p.Debug), nil
	default:
		return nil, fmt.Errorf("unknown executor mode %q", cfg.Mode)
	}
}

func (p *Pipeline) notifyDone(summary loop.Summary, loopErr error) {
	notifier := p.Notifier
	if notifier == nil {
		notifier = notify.FromConfig(p.Protocol.Notifications)
	}

	n := notify.Notification{
		Binder:  p.Run.BinderName,
		Message: fmt.Sprintf("%d accepted, %d attempted, %d skipped in %s", summary.Accepted, summary.Attempted, summary.Skipped, summary.ElapsedText()),
	}
	switch {
	case loopErr != nil:
		n.Title = "Design run failed"
		n.Type = notify.NotifyError
		n.Message = loopErr.Error()
	case summary.Outcome == loop.OutcomeCeilingReached:
		n.Title = "Design run exhausted trajectory ceiling"
		n.Type = notify.NotifyWarning
	default:
		n.Title = "Design run complete"
		n.Type = notify.NotifySuccess
	}
	if err := notifier.Send(n); err != nil && p.Debug {
		fmt.Fprintf(os.Stderr, "notification failed: %v\n", err)
	}
}
