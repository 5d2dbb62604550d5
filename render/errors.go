package render

import (
	"errors"
	"fmt"
)

// ErrLoanInUse is returned when a world already holds a loan resource before an
// exchange starts, which means something else wrote to the reserved slot.
var ErrLoanInUse = errors.New("loan slot already in use")

// FrameError reports the frame and stage a fatal error happened in.
type FrameError struct {
	Frame uint64
	Stage RenderStage
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d: stage %s: %v", e.Frame, e.Stage, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}
