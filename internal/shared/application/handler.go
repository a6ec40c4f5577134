package application

import "context"

// Command is a state-changing request. The name labels logs and metrics.
type Command interface {
	CommandName() string
}

// CommandHandler executes one kind of command.
type CommandHandler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}
