package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Loss.WeightHelicity != -0.3 {
		t.Errorf("WeightHelicity = %v, want -0.3", cfg.Loss.WeightHelicity)
	}
	if cfg.Limits.MaxTrajectories != 1000 {
		t.Errorf("MaxTrajectories = %d, want 1000", cfg.Limits.MaxTrajectories)
	}
	if cfg.Design.SoftIterations != 75 {
		t.Errorf("SoftIterations = %d, want 75", cfg.Design.SoftIterations)
	}
	if cfg.MPNN.NumSeqs != 20 {
		t.Errorf("MPNN.NumSeqs = %d, want 20", cfg.MPNN.NumSeqs)
	}
	if cfg.Executor.Mode != "local" {
		t.Errorf("Executor.Mode = %q, want local", cfg.Executor.Mode)
	}
}

func TestLoad_Missing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Limits.MaxTrajectories != 1000 {
		t.Errorf("MaxTrajectories = %d, want default 1000", cfg.Limits.MaxTrajectories)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "protocol.toml")

	content := `
[loss]
random_helicity = true
weight_helicity = -0.5

[limits]
max_trajectories = 50

[executor]
mode = "remote"
remote_url = "ws://gpu01:8090/predict"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if !cfg.Loss.RandomHelicity {
		t.Error("RandomHelicity = false, want true")
	}
	if cfg.Loss.WeightHelicity != -0.5 {
		t.Errorf("WeightHelicity = %v, want -0.5", cfg.Loss.WeightHelicity)
	}
	if cfg.Limits.MaxTrajectories != 50 {
		t.Errorf("MaxTrajectories = %d, want 50", cfg.Limits.MaxTrajectories)
	}
	if cfg.Executor.Mode != "remote" {
		t.Errorf("Executor.Mode = %q, want remote", cfg.Executor.Mode)
	}

	// Untouched sections keep defaults
	if cfg.Design.SoftIterations != 75 {
		t.Errorf("SoftIterations = %d, want 75", cfg.Design.SoftIterations)
	}
}

func TestRequiredTools(t *testing.T) {
	cfg := Default()
	cfg.Executor.Command = "/opt/bindcraft/predict"
	cfg.Tools.DSSPPath = "/opt/bindcraft/dssp"

	tools := cfg.RequiredTools()
	if len(tools) != 2 {
		t.Fatalf("RequiredTools count = %d, want 2", len(tools))
	}

	// Remote mode does not require the local command
	cfg.Executor.Mode = "remote"
	tools = cfg.RequiredTools()
	if len(tools) != 1 {
		t.Errorf("RequiredTools count = %d, want 1", len(tools))
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input string
		want  string
	}{
		{"~/tools/dssp", filepath.Join(home, "tools", "dssp")},
		{"/absolute/path", "/absolute/path"},
		{"", ""},
	}

	for _, tt := range tests {
		got := ExpandPath(tt.input)
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
