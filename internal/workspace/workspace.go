// Package workspace manages the durable on-disk layout of one design run:
// a fixed set of named artifact categories rooted at the design path.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// Category identifies one artifact bucket in the run workspace. The set of
// categories is a stable contract consumed by downstream triage tooling and
// is fixed at workspace creation.
type Category string

const (
	Trajectory              Category = "Trajectory"
	TrajectoryRelaxed       Category = "Trajectory/Relaxed"
	TrajectoryLowConfidence Category = "Trajectory/LowConfidence"
	TrajectoryClashing      Category = "Trajectory/Clashing"
	TrajectoryAnimation     Category = "Trajectory/Animation"
	TrajectoryPlots         Category = "Trajectory/Plots"
	MPNN                    Category = "MPNN"
	MPNNRelaxed             Category = "MPNN/Relaxed"
	MPNNBinder              Category = "MPNN/Binder"
	Accepted                Category = "Accepted"
	AcceptedRanked          Category = "Accepted/Ranked"
	AcceptedAnimation       Category = "Accepted/Animation"
	AcceptedPlots           Category = "Accepted/Plots"
	Rejected                Category = "Rejected"
)

// Categories lists every category in the workspace.
var Categories = []Category{
	Trajectory,
	TrajectoryRelaxed,
	TrajectoryLowConfidence,
	TrajectoryClashing,
	TrajectoryAnimation,
	TrajectoryPlots,
	MPNN,
	MPNNRelaxed,
	MPNNBinder,
	Accepted,
	AcceptedRanked,
	AcceptedAnimation,
	AcceptedPlots,
	Rejected,
}

// trajectoryTerminal are the categories the duplicate guard scans: a
// trajectory whose PDB landed in any of these has already consumed its
// attempt. Accepted/Rejected are reached only after the later redesign stage
// and are deliberately not scanned.
var trajectoryTerminal = []Category{
	Trajectory,
	TrajectoryRelaxed,
	TrajectoryLowConfidence,
	TrajectoryClashing,
}

// Workspace is the category-to-path mapping for one run.
type Workspace struct {
	root  string
	paths map[Category]string
}

// New builds a Workspace rooted at the given design path. No directories are
// created until Create is called.
func New(root string) *Workspace {
	paths := make(map[Category]string, len(Categories))
	for _, c := range Categories {
		paths[c] = filepath.Join(root, filepath.FromSlash(string(c)))
	}
	return &Workspace{root: root, paths: paths}
}

// Root returns the design path the workspace is rooted at.
func (w *Workspace) Root() string {
	return w.root
}

// Path returns the directory backing a category.
func (w *Workspace) Path(c Category) string {
	return w.paths[c]
}

// Create makes every category directory. It is idempotent: re-running
// against an existing workspace is safe.
func (w *Workspace) Create() error {
	for _, c := range Categories {
		if err := os.MkdirAll(w.paths[c], 0755); err != nil {
			return fmt.Errorf("creating %s: %w", c, err)
		}
	}
	return nil
}

// PDBPath returns the path of the named trajectory PDB within a category.
func (w *Workspace) PDBPath(c Category, name string) string {
	return filepath.Join(w.paths[c], name+".pdb")
}

// HasTrajectory reports whether a trajectory with this name already exists
// in any trajectory-terminal category. The acceptance loop checks this
// before invoking the executor so that resuming an interrupted run never
// redoes completed work.
func (w *Workspace) HasTrajectory(name string) bool {
	for _, c := range trajectoryTerminal {
		if _, err := os.Stat(w.PDBPath(c, name)); err == nil {
			return true
		}
	}
	return false
}

// StatsPath returns the location of the run statistics database.
func (w *Workspace) StatsPath() string {
	return filepath.Join(w.root, "design_stats.db")
}
