package scheduler

import "errors"

var (
	// ErrSignatureMismatch is returned when a block is added with a
	// stream count its input or output signature does not accept.
	ErrSignatureMismatch = errors.New("scheduler: stream count violates block signature")
	// ErrUnknownBlock is returned by Connect when a referenced block name
	// was never added to the graph.
	ErrUnknownBlock = errors.New("scheduler: unknown block name")
	// ErrAlreadyRunning is returned by AddBlock/Connect once Run has been
	// called — the graph must be fixed before the scheduler starts.
	ErrAlreadyRunning = errors.New("scheduler: graph already running")
	// ErrStartFailure wraps a block.Start error, which aborts the whole
	// graph's execution per the Block Base contract.
	ErrStartFailure = errors.New("scheduler: block failed to start")
)
