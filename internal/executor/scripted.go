package executor

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/taejun-song/bindcraft-nhej/internal/config"
	"github.com/taejun-song/bindcraft-nhej/internal/domain"
	"github.com/taejun-song/bindcraft-nhej/internal/workspace"
)

// Scripted is a fake executor for tests: it replays a fixed sequence of
// verdicts (the last one repeats) and records every attempt it was given.
type Scripted struct {
	Verdicts   []domain.Verdict
	Fault      error // returned once FaultAfter calls have completed
	FaultAfter int
	Workspace  *workspace.Workspace // when set, artifacts are written like a real predictor
	Calls      []domain.Attempt

	mu sync.Mutex
}

// Execute replays the next scripted verdict.
func (s *Scripted) Execute(ctx context.Context, attempt domain.Attempt, protocol *config.Protocol) (domain.Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fault != nil && len(s.Calls) >= s.FaultAfter {
		return domain.Verdict{}, s.Fault
	}
	s.Calls = append(s.Calls, attempt)

	i := len(s.Calls) - 1
	if i >= len(s.Verdicts) {
		i = len(s.Verdicts) - 1
	}
	var verdict domain.Verdict
	if i >= 0 {
		verdict = s.Verdicts[i]
	}

	if s.Workspace != nil {
		if c, ok := artifactCategory(verdict); ok {
			_ = os.WriteFile(s.Workspace.PDBPath(c, attempt.Name), []byte("ATOM\n"), 0644)
		}
	}
	return verdict, nil
}

func artifactCategory(v domain.Verdict) (workspace.Category, bool) {
	switch {
	case v.Accepted():
		return workspace.Trajectory, true
	case v.Success && strings.Contains(v.TerminateReason, "clash"):
		return workspace.TrajectoryClashing, true
	case v.Success:
		return workspace.TrajectoryLowConfidence, true
	default:
		return "", false
	}
}
