package manifest

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Runner executes a package manager command and returns its standard output
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands as local subprocesses. It blocks until the process
// exits; the context is the only way to bound it.
type ExecRunner struct{}

// Run executes name with args in dir. A non-zero exit is an *ExternalToolError
// carrying the captured stderr.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &ExternalToolError{
			Tool:     name,
			Args:     args,
			Dir:      dir,
			ExitCode: exitCode,
			Stderr:   stderr.String(),
			Err:      err,
		}
	}

	return stdout.Bytes(), nil
}
