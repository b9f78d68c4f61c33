package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCreate(t *testing.T) {
	root := filepath.Join(t.TempDir(), "run")
	ws := New(root)

	if err := ws.Create(); err != nil {
		t.Fatal(err)
	}

	for _, c := range Categories {
		info, err := os.Stat(ws.Path(c))
		if err != nil {
			t.Errorf("category %s: %v", c, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("category %s is not a directory", c)
		}
	}
}

func TestCreate_Idempotent(t *testing.T) {
	root := filepath.Join(t.TempDir(), "run")
	ws := New(root)

	if err := ws.Create(); err != nil {
		t.Fatal(err)
	}

	// Drop an artifact, re-create, artifact must survive
	pdb := ws.PDBPath(Trajectory, "binder_l50_s1")
	if err := os.WriteFile(pdb, []byte("ATOM\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := ws.Create(); err != nil {
		t.Fatalf("second Create: %v", err)
	}

	if _, err := os.Stat(pdb); err != nil {
		t.Errorf("artifact lost after re-create: %v", err)
	}
}

func TestHasTrajectory(t *testing.T) {
	ws := New(t.TempDir())
	if err := ws.Create(); err != nil {
		t.Fatal(err)
	}

	name := "binder_l64_s991"
	if ws.HasTrajectory(name) {
		t.Error("HasTrajectory = true before any artifact exists")
	}

	for _, c := range []Category{Trajectory, TrajectoryRelaxed, TrajectoryLowConfidence, TrajectoryClashing} {
		pdb := ws.PDBPath(c, name)
		if err := os.WriteFile(pdb, []byte("ATOM\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if !ws.HasTrajectory(name) {
			t.Errorf("HasTrajectory = false with artifact in %s", c)
		}
		os.Remove(pdb)
	}
}

func TestHasTrajectory_IgnoresFinalCategories(t *testing.T) {
	ws := New(t.TempDir())
	if err := ws.Create(); err != nil {
		t.Fatal(err)
	}

	name := "binder_l64_s991"
	if err := os.WriteFile(ws.PDBPath(Accepted, name), []byte("ATOM\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ws.PDBPath(Rejected, name), []byte("ATOM\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if ws.HasTrajectory(name) {
		t.Error("HasTrajectory = true for artifact only in Accepted/Rejected")
	}
}

func TestPDBPath(t *testing.T) {
	ws := New("/designs/pdl1")
	got := ws.PDBPath(TrajectoryClashing, "pdl1_l50_s3")
	want := filepath.Join("/designs/pdl1", "Trajectory", "Clashing", "pdl1_l50_s3.pdb")
	if got != want {
		t.Errorf("PDBPath = %q, want %q", got, want)
	}
}
