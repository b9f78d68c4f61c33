package executor

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/taejun-song/bindcraft-nhej/internal/config"
	"github.com/taejun-song/bindcraft-nhej/internal/domain"
	"github.com/taejun-song/bindcraft-nhej/internal/settings"
)

func writeScript(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "predict.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func testRun(t *testing.T, dir string) *settings.RunSettings {
	t.Helper()
	run, err := settings.Default(dir, "binder", filepath.Join(dir, "target.pdb"))
	if err != nil {
		t.Fatal(err)
	}
	return run
}

func TestLocal_Execute(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	dir := t.TempDir()
	script := writeScript(t, dir, `
echo "running hallucination" >&2
echo '{"success": true, "metrics": {"plddt": 85.0, "ptm": 0.8, "i_ptm": 0.75, "pae": 5.0, "i_pae": 4.5}, "sequence": "MKVL", "terminate": ""}'
`)

	local := NewLocal(script, testRun(t, dir), false)
	attempt := domain.NewAttempt("binder", 50, 42, -0.3)

	verdict, err := local.Execute(context.Background(), attempt, config.Default())
	if err != nil {
		t.Fatal(err)
	}

	if !verdict.Accepted() {
		t.Errorf("Accepted = false, want true")
	}
	if verdict.Metrics.PLDDT != 85.0 {
		t.Errorf("PLDDT = %v, want 85.0", verdict.Metrics.PLDDT)
	}
	if verdict.Sequence != "MKVL" {
		t.Errorf("Sequence = %q, want MKVL", verdict.Sequence)
	}
}

func TestLocal_Execute_EarlyTerminate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	dir := t.TempDir()
	script := writeScript(t, dir, `
echo '{"success": true, "metrics": {}, "sequence": "", "terminate": "low_confidence"}'
`)

	local := NewLocal(script, testRun(t, dir), false)
	verdict, err := local.Execute(context.Background(), domain.NewAttempt("binder", 50, 1, -0.3), config.Default())
	if err != nil {
		t.Fatal(err)
	}
	if verdict.Accepted() {
		t.Error("Accepted = true for terminated trajectory")
	}
	if verdict.Status() != domain.TrajectoryAborted {
		t.Errorf("Status = %q, want %q", verdict.Status(), domain.TrajectoryAborted)
	}
}

func TestLocal_Execute_CrashIsFailureNotFault(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	dir := t.TempDir()
	script := writeScript(t, dir, `
echo "CUDA out of memory" >&2
exit 1
`)

	local := NewLocal(script, testRun(t, dir), false)
	verdict, err := local.Execute(context.Background(), domain.NewAttempt("binder", 50, 1, -0.3), config.Default())
	if err != nil {
		t.Fatalf("crash should classify as failure, got fault: %v", err)
	}
	if verdict.Success {
		t.Error("Success = true for crashed predictor")
	}
	if verdict.FailureReason == "" {
		t.Error("FailureReason empty, want crash details")
	}
}

func TestLocal_Execute_GarbageVerdictIsFault(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	dir := t.TempDir()
	script := writeScript(t, dir, `echo "not json"`)

	local := NewLocal(script, testRun(t, dir), false)
	_, err := local.Execute(context.Background(), domain.NewAttempt("binder", 50, 1, -0.3), config.Default())
	if err == nil {
		t.Fatal("expected fault for unparseable verdict")
	}
}

func TestValidateTools(t *testing.T) {
	dir := t.TempDir()

	ok := filepath.Join(dir, "dssp")
	if err := os.WriteFile(ok, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	notExec := filepath.Join(dir, "dalphaball")
	if err := os.WriteFile(notExec, []byte("binary"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := ValidateTools([]string{ok}); err != nil {
		t.Errorf("ValidateTools = %v, want nil", err)
	}

	err := ValidateTools([]string{ok, notExec, filepath.Join(dir, "absent")})
	envErr, isEnv := err.(*EnvironmentError)
	if !isEnv {
		t.Fatalf("err = %v, want EnvironmentError", err)
	}
	if len(envErr.Missing) != 2 {
		t.Errorf("Missing count = %d, want 2: %v", len(envErr.Missing), envErr.Missing)
	}
}
