package executor

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/taejun-song/bindcraft-nhej/internal/config"
	"github.com/taejun-song/bindcraft-nhej/internal/domain"
	"github.com/taejun-song/bindcraft-nhej/internal/settings"
)

// Local runs the predictor as a subprocess. The predictor receives the
// attempt parameters as flags plus the run settings and protocol files, and
// prints its verdict as a single JSON object on the last stdout line.
type Local struct {
	command string
	run     *settings.RunSettings
	debug   bool
}

// NewLocal creates a Local executor for the given predictor command.
func NewLocal(command string, run *settings.RunSettings, debug bool) *Local {
	return &Local{command: command, run: run, debug: debug}
}

// Execute runs one trajectory. It blocks until the predictor exits; callers
// needing bounded run time cancel through the context.
func (l *Local) Execute(ctx context.Context, attempt domain.Attempt, protocol *config.Protocol) (domain.Verdict, error) {
	protocolPath, err := writeProtocolFile(protocol)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("writing protocol file: %w", err)
	}
	defer os.Remove(protocolPath)

	cmd := exec.CommandContext(ctx, l.command,
		"--name", attempt.Name,
		"--length", strconv.Itoa(attempt.Length),
		"--seed", strconv.Itoa(attempt.Seed),
		"--helicity", strconv.FormatFloat(attempt.Helicity, 'f', -1, 64),
		"--settings", l.run.SettingsFile(),
		"--protocol", protocolPath,
	)
	cmd.Dir = l.run.DesignPath

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return domain.Verdict{}, err
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if l.debug {
		log.Printf("[executor] starting trajectory %s: length=%d seed=%d", attempt.Name, attempt.Length, attempt.Seed)
	}
	if err := cmd.Start(); err != nil {
		return domain.Verdict{}, fmt.Errorf("starting predictor: %w", err)
	}

	// The predictor logs to stderr; only its final JSON verdict goes to
	// stdout. Keep the last non-empty line.
	var lastLine string
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lastLine = line
		}
	}

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return domain.Verdict{}, ctx.Err()
	}

	if lastLine == "" {
		if waitErr != nil {
			// The predictor crashed without reporting a verdict. Treat it as
			// a failed trajectory, not a fault: a single bad seed must not
			// end the run.
			return domain.Verdict{
				FailureReason: fmt.Sprintf("%v: %s", waitErr, tail(stderr.String())),
			}, nil
		}
		return domain.Verdict{}, fmt.Errorf("predictor produced no verdict for %s", attempt.Name)
	}

	var verdict domain.Verdict
	if err := json.Unmarshal([]byte(lastLine), &verdict); err != nil {
		return domain.Verdict{}, fmt.Errorf("parsing predictor verdict: %w", err)
	}

	if l.debug {
		log.Printf("[executor] trajectory %s: success=%v terminate=%q", attempt.Name, verdict.Success, verdict.TerminateReason)
	}
	return verdict, nil
}

func writeProtocolFile(protocol *config.Protocol) (string, error) {
	f, err := os.CreateTemp("", "bindcraft-protocol-*.toml")
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := toml.Marshal(protocol)
	if err != nil {
		os.Remove(f.Name())
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// tail returns the last few lines of predictor stderr for error messages.
func tail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.Join(lines, " / ")
}
