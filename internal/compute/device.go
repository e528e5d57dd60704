package compute

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrKernelFault is returned when a kernel panics during execution.
	ErrKernelFault = errors.New("kernel fault")

	// ErrNotCommitted is returned by Wait on a command buffer that was never committed.
	ErrNotCommitted = errors.New("command buffer not committed")
)

// Kernel is invoked once per global work-item id in [0, n).
type Kernel func(gid int)

// Device executes kernels.
type Device interface {
	// Name identifies the backend.
	Name() string
	// NewCommandBuffer returns an empty command buffer.
	NewCommandBuffer() CommandBuffer
}

// CommandBuffer records dispatches for asynchronous execution.
type CommandBuffer interface {
	// Dispatch records kernel k over n work items. label names the dispatch
	// in errors.
	Dispatch(label string, n int, k Kernel)
	// Commit submits the recorded dispatches. Further Dispatch calls are ignored.
	Commit()
	// Wait blocks until all dispatches complete. When ctx is done first,
	// remaining work groups are abandoned and Wait returns ctx.Err() once
	// no kernel is running any more, so buffers the kernels write are free
	// for reuse.
	Wait(ctx context.Context) error
}

// DispatchError reports a failed dispatch.
//
// The original underlying error can be accessed via errors.Unwrap.
type DispatchError struct {
	Label string
	cause error
}

// NewDispatchError wraps cause for the dispatch with the given label.
func NewDispatchError(label string, cause error) *DispatchError {
	return &DispatchError{Label: label, cause: cause}
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %q failed: %v", e.Label, e.cause)
}

func (e *DispatchError) Unwrap() error { return e.cause }
