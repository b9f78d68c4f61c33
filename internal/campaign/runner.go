package campaign

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taejun-song/bindcraft-nhej/internal/config"
	"github.com/taejun-song/bindcraft-nhej/internal/executor"
	"github.com/taejun-song/bindcraft-nhej/internal/notify"
	"github.com/taejun-song/bindcraft-nhej/internal/pipeline"
	"github.com/taejun-song/bindcraft-nhej/internal/settings"
)

// Runner executes campaigns as full design runs. Protocol is the base
// protocol used when a campaign does not name its own protocol_path.
// Executor overrides the protocol's executor configuration when set.
type Runner struct {
	Protocol *config.Protocol
	Executor executor.Executor
	Debug    bool
}

// Run executes one campaign to completion. The campaign's MaxDuration
// bounds the run; a run cut off by the deadline reports a cancelled
// outcome like any other interruption.
func (r *Runner) Run(ctx context.Context, c CampaignConfig) (*pipeline.Result, error) {
	run, err := settings.Load(c.SettingsPath)
	if err != nil {
		return nil, fmt.Errorf("campaign %s: %w", c.Name, err)
	}

	protocol := r.Protocol
	if c.ProtocolPath != "" {
		protocol, err = config.Load(c.ProtocolPath)
		if err != nil {
			return nil, fmt.Errorf("campaign %s: %w", c.Name, err)
		}
	}
	if protocol == nil {
		protocol = config.Default()
	}

	runCtx := ctx
	if c.MaxDuration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(c.MaxDuration))
		defer cancel()
	}

	p := &pipeline.Pipeline{
		Run:      run,
		Protocol: protocol,
		Executor: r.Executor,
		Debug:    r.Debug,
	}
	if !c.NotifyOnComplete {
		p.Notifier = notify.NoopNotifier{}
	}

	return p.Execute(runCtx)
}

// RunAll executes every campaign concurrently. Each campaign owns its
// workspace, so runs are independent; the first error cancels the rest.
func (r *Runner) RunAll(ctx context.Context, campaigns []CampaignConfig) (map[string]*pipeline.Result, error) {
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	results := make(map[string]*pipeline.Result, len(campaigns))
	for _, c := range campaigns {
		g.Go(func() error {
			result, err := r.Run(gctx, c)
			if err != nil {
				return fmt.Errorf("campaign %s: %w", c.Name, err)
			}
			mu.Lock()
			results[c.Name] = result
			mu.Unlock()
			log.Printf("campaign %s: %d accepted in %s", c.Name, result.Summary.Accepted, result.Summary.ElapsedText())
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
