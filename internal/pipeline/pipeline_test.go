package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/taejun-song/bindcraft-nhej/internal/config"
	"github.com/taejun-song/bindcraft-nhej/internal/domain"
	"github.com/taejun-song/bindcraft-nhej/internal/executor"
	"github.com/taejun-song/bindcraft-nhej/internal/loop"
	"github.com/taejun-song/bindcraft-nhej/internal/notify"
	"github.com/taejun-song/bindcraft-nhej/internal/settings"
	"github.com/taejun-song/bindcraft-nhej/internal/statstore"
	"github.com/taejun-song/bindcraft-nhej/internal/workspace"
)

func testSettings(t *testing.T) *settings.RunSettings {
	t.Helper()
	dir := t.TempDir()

	pdb := filepath.Join(dir, "target.pdb")
	if err := os.WriteFile(pdb, []byte("ATOM\n"), 0644); err != nil {
		t.Fatal(err)
	}

	run, err := settings.New(filepath.Join(dir, "designs"), "pdl1", pdb, []string{"A"}, nil, 40, 80, 2)
	if err != nil {
		t.Fatal(err)
	}
	return run
}

func TestPipeline_Execute(t *testing.T) {
	run := testSettings(t)
	scripted := &executor.Scripted{Verdicts: []domain.Verdict{{Success: true, Sequence: "MKVL"}}}

	p := &Pipeline{
		Run:      run,
		Protocol: config.Default(),
		Executor: scripted,
		Notifier: notify.NoopNotifier{},
	}

	result, err := p.Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if result.Summary.Outcome != loop.OutcomeQuotaReached {
		t.Errorf("Outcome = %q, want %q", result.Summary.Outcome, loop.OutcomeQuotaReached)
	}
	if result.Summary.Accepted != 2 {
		t.Errorf("Accepted = %d, want 2", result.Summary.Accepted)
	}

	// Settings record persisted into the workspace
	saved, err := settings.Load(run.SettingsFile())
	if err != nil {
		t.Fatalf("settings not persisted: %v", err)
	}
	if saved.BinderName != "pdl1" {
		t.Errorf("persisted BinderName = %q, want pdl1", saved.BinderName)
	}

	// Workspace categories created
	ws := workspace.New(run.DesignPath)
	if _, err := os.Stat(ws.Path(workspace.TrajectoryClashing)); err != nil {
		t.Errorf("workspace not created: %v", err)
	}

	// Run and trajectories recorded
	store, err := statstore.New(ws.StatsPath())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	runs, err := store.ListRuns(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("recorded runs = %d, want 1", len(runs))
	}
	if runs[0].Accepted != 2 || runs[0].Outcome != string(loop.OutcomeQuotaReached) {
		t.Errorf("recorded run = %d accepted, outcome %q", runs[0].Accepted, runs[0].Outcome)
	}

	trajectories, err := store.ListTrajectories(statstore.ListOptions{RunID: result.RunID})
	if err != nil {
		t.Fatal(err)
	}
	if len(trajectories) != 2 {
		t.Errorf("recorded trajectories = %d, want 2", len(trajectories))
	}
}

// failingStats accepts every record but cannot persist the run summary.
type failingStats struct {
	finishErr  error
	finishSeen bool
}

func (s *failingStats) StartRun(binderName string, startedAt time.Time) (string, error) {
	return "run-1", nil
}

func (s *failingStats) FinishRun(id string, attempted, accepted, skipped int, outcome string) error {
	s.finishSeen = true
	return s.finishErr
}

func (s *failingStats) RecordTrajectory(rec *statstore.TrajectoryRecord) error { return nil }

func TestPipeline_FinishRunFailureKeepsSummary(t *testing.T) {
	run := testSettings(t)
	stats := &failingStats{finishErr: errors.New("database is locked")}

	p := &Pipeline{
		Run:      run,
		Protocol: config.Default(),
		Executor: &executor.Scripted{Verdicts: []domain.Verdict{{Success: true, Sequence: "MKVL"}}},
		Notifier: notify.NoopNotifier{},
		Stats:    stats,
	}

	result, err := p.Execute(context.Background())
	if err != nil {
		t.Fatalf("summary write failure surfaced as run error: %v", err)
	}
	if !stats.finishSeen {
		t.Fatal("FinishRun was never attempted")
	}
	if result.Summary.Outcome != loop.OutcomeQuotaReached {
		t.Errorf("Outcome = %q, want %q", result.Summary.Outcome, loop.OutcomeQuotaReached)
	}
	if result.Summary.Accepted != 2 {
		t.Errorf("Accepted = %d, want 2", result.Summary.Accepted)
	}
}

func TestPipeline_MissingStartingPDB(t *testing.T) {
	dir := t.TempDir()
	run, err := settings.New(filepath.Join(dir, "designs"), "pdl1", filepath.Join(dir, "absent.pdb"), []string{"A"}, nil, 40, 80, 1)
	if err != nil {
		t.Fatal(err)
	}

	p := &Pipeline{Run: run, Protocol: config.Default(), Executor: &executor.Scripted{}, Notifier: notify.NoopNotifier{}}
	if _, err := p.Execute(context.Background()); err == nil {
		t.Fatal("expected error for missing starting pdb")
	}

	// No workspace side effects before validation passes
	if _, err := os.Stat(run.DesignPath); !os.IsNotExist(err) {
		t.Error("workspace created despite failed validation")
	}
}

func TestPipeline_MissingTool(t *testing.T) {
	run := testSettings(t)
	protocol := config.Default()
	protocol.Tools.DSSPPath = "/nonexistent/dssp"

	p := &Pipeline{Run: run, Protocol: protocol, Executor: &executor.Scripted{}, Notifier: notify.NoopNotifier{}}
	_, err := p.Execute(context.Background())
	if _, isEnv := err.(*executor.EnvironmentError); !isEnv {
		t.Fatalf("err = %v, want EnvironmentError", err)
	}

	if _, err := os.Stat(run.DesignPath); !os.IsNotExist(err) {
		t.Error("workspace created despite failed validation")
	}
}

func TestPipeline_UnconfiguredExecutor(t *testing.T) {
	run := testSettings(t)

	p := &Pipeline{Run: run, Protocol: config.Default(), Notifier: notify.NoopNotifier{}}
	if _, err := p.Execute(context.Background()); err == nil {
		t.Fatal("expected error for unconfigured executor command")
	}
}
