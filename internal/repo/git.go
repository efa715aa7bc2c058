package repo

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wledbackup/internal/logging"
)

// CommitMessage is the message of every backup commit.
const CommitMessage = "wled-backup sync"

// Result is the captured output of one git invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner runs git with the given arguments inside dir.
//
// A command that ran and exited non-zero is not an error for the Runner;
// the exit code is reported in the Result. err is reserved for commands that
// could not be started or were interrupted.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (Result, error)
}

// ExecRunner runs the git binary via os/exec.
type ExecRunner struct {
	// GitPath is the git binary. Default: "git" (searches PATH)
	GitPath string
}

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, dir string, args ...string) (Result, error) {
	gitPath := r.GitPath
	if gitPath == "" {
		gitPath = "git"
	}

	cmd := exec.CommandContext(ctx, gitPath, append([]string{"-C", dir}, args...)...)
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	result := Result{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		result.ExitCode = -1
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return result, err
	}
	return result, nil
}

// Repository is a git working copy holding the backups.
type Repository struct {
	// Dir is the working copy root
	Dir string

	// Runner executes git. Default: ExecRunner{}
	Runner Runner

	logger *zap.Logger
}

// New creates a repository handle for dir.
func New(dir string, logger *zap.Logger) *Repository {
	return &Repository{
		Dir:    dir,
		Runner: ExecRunner{},
		logger: logging.OrNop(logger),
	}
}

// Check verifies that Dir is inside a git working copy.
func (r *Repository) Check(ctx context.Context) error {
	result, err := r.git(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return err
	}
	if strings.TrimSpace(result.Stdout) != "true" {
		return gitError([]string{"rev-parse", "--is-inside-work-tree"}, result, errors.New("not a working tree"))
	}
	return nil
}

// Add stages name, a path relative to the working copy root.
func (r *Repository) Add(ctx context.Context, name string) error {
	_, err := r.git(ctx, "add", "--", name)
	return err
}

// Commit records everything staged. When nothing is staged it logs and
// returns without creating a commit. The returned bool reports whether a
// commit was made.
func (r *Repository) Commit(ctx context.Context, message string) (bool, error) {
	result, err := r.run(ctx, "diff", "--cached", "--quiet")
	if err != nil {
		return false, err
	}
	switch result.ExitCode {
	case 0:
		r.logger.Info("nothing to commit, backup unchanged", zap.String("dir", r.Dir))
		return false, nil
	case 1:
	default:
		return false, gitError([]string{"diff", "--cached", "--quiet"}, result, nil)
	}

	if _, err := r.git(ctx, "commit", "-m", message); err != nil {
		return false, err
	}
	r.logger.Info("committed backup", zap.String("dir", r.Dir), zap.String("message", message))
	return true, nil
}

// Push pushes the current branch to its configured upstream.
func (r *Repository) Push(ctx context.Context) error {
	if _, err := r.git(ctx, "push"); err != nil {
		return err
	}
	r.logger.Info("pushed backup", zap.String("dir", r.Dir))
	return nil
}

// git runs a command and turns a non-zero exit into a GitError.
func (r *Repository) git(ctx context.Context, args ...string) (Result, error) {
	result, err := r.run(ctx, args...)
	if err != nil {
		return result, err
	}
	if result.ExitCode != 0 {
		return result, gitError(args, result, nil)
	}
	return result, nil
}

func (r *Repository) run(ctx context.Context, args ...string) (Result, error) {
	runner := r.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	start := time.Now()
	result, err := runner.Run(ctx, r.Dir, args...)

	r.logger.Debug("git command complete",
		zap.Strings("args", args),
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", time.Since(start)),
		zap.String("stderr", result.Stderr),
	)

	if err != nil {
		return result, gitError(args, result, err)
	}
	return result, nil
}

func gitError(args []string, result Result, err error) *GitError {
	exitCode := result.ExitCode
	if err != nil {
		exitCode = -1
	}
	return &GitError{
		Args:     args,
		ExitCode: exitCode,
		Stderr:   result.Stderr,
		Err:      err,
	}
}
