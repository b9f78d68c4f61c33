// Package loop drives the design run: it samples attempt parameters,
// consults the duplicate guard, invokes the executor, classifies the result
// and decides when to stop.
package loop

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/taejun-song/bindcraft-nhej/internal/config"
	"github.com/taejun-song/bindcraft-nhej/internal/domain"
	"github.com/taejun-song/bindcraft-nhej/internal/executor"
	"github.com/taejun-song/bindcraft-nhej/internal/settings"
	"github.com/taejun-song/bindcraft-nhej/internal/statstore"
	"github.com/taejun-song/bindcraft-nhej/internal/workspace"
)

// DefaultCeiling is the hard safety bound on executed attempts. Hitting it
// is a policy circuit breaker, not an error.
const DefaultCeiling = 1000

// seedRange is the exclusive upper bound for sampled trajectory seeds.
const seedRange = 1000000

// Outcome names the terminal state the loop stopped in.
type Outcome string

const (
	OutcomeQuotaReached   Outcome = "quota_reached"
	OutcomeCeilingReached Outcome = "ceiling_reached"
	OutcomeCancelled      Outcome = "cancelled"
	OutcomeFault          Outcome = "fault"
)

// RunState holds the mutable counters owned exclusively by the loop.
type RunState struct {
	Attempted int
	Accepted  int
	Skipped   int
	StartTime time.Time
}

// Summary is the end-of-run aggregate reported to the caller.
type Summary struct {
	Attempted int
	Accepted  int
	Skipped   int
	Elapsed   time.Duration
	Outcome   Outcome
}

// ElapsedText formats the elapsed time for run reports.
func (s Summary) ElapsedText() string {
	secs := int(s.Elapsed.Seconds())
	return fmt.Sprintf("%d hours, %d minutes, %d seconds", secs/3600, (secs%3600)/60, secs%60)
}

// Stats is the sink the loop writes per-trajectory outcomes to.
type Stats interface {
	RecordTrajectory(rec *statstore.TrajectoryRecord) error
}

// Loop is the acceptance loop for one run. It is a single logical worker:
// no concurrent iterations against the same workspace are permitted, because
// the duplicate guard's check-then-act sequence is not atomic.
type Loop struct {
	Run       *settings.RunSettings
	Protocol  *config.Protocol
	Workspace *workspace.Workspace
	Executor  executor.Executor
	Stats     Stats  // optional
	RunID     string // statstore run ID, informational
	Ceiling   int
	Debug     bool
	Rand      *rand.Rand
}

// New builds a Loop with the ceiling taken from the protocol limits.
func New(run *settings.RunSettings, protocol *config.Protocol, ws *workspace.Workspace, exec executor.Executor) *Loop {
	ceiling := protocol.Limits.MaxTrajectories
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	return &Loop{
		Run:       run,
		Protocol:  protocol,
		Workspace: ws,
		Executor:  exec,
		Ceiling:   ceiling,
		Rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Go runs the loop until the quota is met, the safety ceiling is hit, the
// context is cancelled, or the executor faults. The returned Summary is
// valid in every case; the error is non-nil only for cancellation and
// executor faults.
func (l *Loop) Go(ctx context.Context) (Summary, error) {
	state := RunState{StartTime: time.Now()}
	quota := l.Run.NumberOfFinalDesigns

	// An invocation in flight runs to completion even when ctx is cancelled
	// or a deadline expires: killing the predictor mid-trajectory leaves a
	// partial PDB that the duplicate guard would trust on resume.
	execCtx := context.WithoutCancel(ctx)

	for state.Accepted < quota {
		// Cancellation is checked only here: Execute is an opaque external
		// call that must run to completion once started.
		if err := ctx.Err(); err != nil {
			return l.summarize(state, OutcomeCancelled), err
		}

		// Sampling
		seed := l.Rand.Intn(seedRange)
		length := l.Run.MinLength() + l.Rand.Intn(l.Run.MaxLength()-l.Run.MinLength()+1)
		attempt := domain.NewAttempt(l.Run.BinderName, length, seed, l.sampleHelicity())

		// Skip: an attempt whose name already landed in a trajectory-terminal
		// category costs nothing, which makes resuming an interrupted run safe.
		if l.Workspace.HasTrajectory(attempt.Name) {
			if l.Debug {
				log.Printf("[loop] trajectory %s already exists, skipping", attempt.Name)
			}
			state.Skipped++
			continue
		}

		// Execute
		if l.Debug {
			log.Printf("[loop] starting trajectory %s", attempt.Name)
		}
		start := time.Now()
		verdict, err := l.Executor.Execute(execCtx, attempt, l.Protocol)
		duration := time.Since(start)
		if err != nil {
			state.Attempted++
			l.record(attempt, domain.Verdict{FailureReason: err.Error()}, duration)
			return l.summarize(state, OutcomeFault), fmt.Errorf("executing %s: %w", attempt.Name, err)
		}

		// Classify
		state.Attempted++
		if verdict.Accepted() {
			state.Accepted++
		}
		l.record(attempt, verdict, duration)

		if state.Attempted >= l.Ceiling && state.Accepted < quota {
			return l.summarize(state, OutcomeCeilingReached), nil
		}
	}

	return l.summarize(state, OutcomeQuotaReached), nil
}

// sampleHelicity returns the helicity loss weight for one attempt: the
// protocol default, or a fresh uniform draw when random helicity is enabled.
func (l *Loop) sampleHelicity() float64 {
	if l.Protocol.Loss.RandomHelicity {
		return -3 + l.Rand.Float64()*4 // uniform in [-3, 1)
	}
	return l.Protocol.Loss.WeightHelicity
}

func (l *Loop) record(attempt domain.Attempt, verdict domain.Verdict, duration time.Duration) {
	if l.Stats == nil {
		return
	}
	rec := &statstore.TrajectoryRecord{
		RunID:           l.RunID,
		Name:            attempt.Name,
		Length:          attempt.Length,
		Seed:            attempt.Seed,
		Helicity:        attempt.Helicity,
		Status:          verdict.Status(),
		Metrics:         verdict.Metrics,
		Sequence:        verdict.Sequence,
		TerminateReason: verdict.TerminateReason,
		FailureReason:   verdict.FailureReason,
		Duration:        duration,
	}
	if err := l.Stats.RecordTrajectory(rec); err != nil {
		log.Printf("[loop] recording trajectory %s: %v", attempt.Name, err)
	}
}

func (l *Loop) summarize(state RunState, outcome Outcome) Summary {
	return Summary{
		Attempted: state.Attempted,
		Accepted:  state.Accepted,
		Skipped:   state.Skipped,
		Elapsed:   time.Since(state.StartTime),
		Outcome:   outcome,
	}
}
