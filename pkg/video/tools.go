package video

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrToolNotFound is returned when no candidate answers the version probe.
var ErrToolNotFound = errors.New("tool not found")

const versionProbeTimeout = 5 * time.Second

// CommandRunner executes an external program and returns its combined output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil && ctx.Err() != nil {
		return out, fmt.Errorf("%s: %w", name, ctx.Err())
	}
	return out, err
}

// Locate returns the first candidate that answers "-version" within five
// seconds.
func Locate(ctx context.Context, runner CommandRunner, candidates []string) (string, error) {
	for _, candidate := range candidates {
		probeCtx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
		_, err := runner.Run(probeCtx, candidate, "-version")
		cancel()
		if err == nil {
			log.Debugf("Found %s", candidate)
			return candidate, nil
		}
		log.Debugf("Tool candidate %s unavailable: %v", candidate, err)
	}
	return "", fmt.Errorf("%w among %s", ErrToolNotFound, strings.Join(candidates, ", "))
}
