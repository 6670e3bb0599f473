package deploy

import (
	"context"

	"github.com/tooldesk/tooldesk/internal/command"
)

// Runner executes deployment shell commands. Implementations report
// command failure through the Result; the error is reserved for
// commands that could not run at all. Tests drive the state machine
// with a scripted Runner.
type Runner interface {
	Run(ctx context.Context, dir, cmd string) (command.Result, error)
}

// ExecRunner runs commands on the host through the command package.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

func (ExecRunner) Run(ctx context.Context, dir, cmd string) (command.Result, error) {
	return command.Run(ctx, cmd, command.Options{Dir: dir})
}
