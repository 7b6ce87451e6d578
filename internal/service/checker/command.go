package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/oshokin/rpmstamp/internal/config"
	"github.com/oshokin/rpmstamp/internal/logger"
	"github.com/oshokin/rpmstamp/internal/service/resolver"
)

// Options controls the check run.
type Options struct {
	// Config is the loaded project configuration.
	Config *config.Config
}

var (
	errConfigRequired = errors.New("configuration is required")
	errEmptyStep      = errors.New("step has no command")
)

// checker runs the configured test steps in order.
type checker struct {
	// cfg holds the steps and the interpreter.
	cfg *config.Config
	// prepare ensures the generated file exists before any step runs.
	prepare func(ctx context.Context) error
	// stdout and stderr receive step output.
	stdout io.Writer
	stderr io.Writer
}

// Run ensures the generated file and executes every test step, stopping at the first failure.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "checker")

	if opts == nil || opts.Config == nil {
		return errConfigRequired
	}

	cfg := opts.Config
	prepare := func(ctx context.Context) error {
		_, err := resolver.Run(ctx, &resolver.Options{Config: cfg})

		return err
	}

	return newChecker(cfg, prepare, os.Stdout, os.Stderr).Run(ctx)
}

func newChecker(cfg *config.Config, prepare func(context.Context) error, stdout, stderr io.Writer) *checker {
	return &checker{
		cfg:     cfg,
		prepare: prepare,
		stdout:  stdout,
		stderr:  stderr,
	}
}

func (c *checker) Run(ctx context.Context) error {
	if err := c.prepare(ctx); err != nil {
		return fmt.Errorf("prepare generated file: %w", err)
	}

	for _, step := range c.cfg.TestSteps {
		if err := c.runStep(ctx, step); err != nil {
			return fmt.Errorf("step %s: %w", step.Name, err)
		}
	}

	logger.InfoKV(ctx, "All checks passed", "steps", len(c.cfg.TestSteps))

	return nil
}

// runStep executes a single step with inherited output. The *exec.ExitError stays in the chain.
func (c *checker) runStep(ctx context.Context, step config.Step) error {
	command := c.cfg.ExpandStep(step)
	if len(command) == 0 {
		return errEmptyStep
	}

	logger.InfoKV(ctx, "Running step", "step", step.Name, "command", command)

	started := time.Now()

	//nolint:gosec // Steps come from the project's own configuration.
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", command[0], err)
	}

	logger.DebugKV(ctx, "Step finished", "step", step.Name, "elapsed", time.Since(started).String())

	return nil
}
