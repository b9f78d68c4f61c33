// Package executor defines the trajectory executor boundary: the single
// abstract capability the acceptance loop invokes per attempt. The real
// structure predictor lives behind this interface as a separately-versioned
// collaborator.
package executor

import (
	"context"

	"github.com/taejun-song/bindcraft-nhej/internal/config"
	"github.com/taejun-song/bindcraft-nhej/internal/domain"
)

// Executor runs one design attempt and returns its verdict. Implementations
// must be total (always return) and must not touch the loop's run state;
// they may write artifacts into the workspace's trajectory categories using
// the attempt name as base identifier.
//
// A returned error is an unrecoverable executor fault: the loop stops and
// propagates it. A failed trajectory is reported through the Verdict, not
// the error.
type Executor interface {
	Execute(ctx context.Context, attempt domain.Attempt, protocol *config.Protocol) (domain.Verdict, error)
}
