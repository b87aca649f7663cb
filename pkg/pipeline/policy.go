package pipeline

import "github.com/user/framegrab/pkg/ports"

// Policy decides when the pipeline stops before the end of the stream.
// The driver consults it once per loop iteration and once after every
// dispatched frame.
type Policy interface {
	// Done reports whether the run should stop, given the number of frames
	// dispatched so far.
	Done(frames int) bool
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(frames int) bool

// Done implements Policy.
func (f PolicyFunc) Done(frames int) bool {
	return f(frames)
}

// FrameCap stops after a fixed number of frames. Zero or less means no cap.
type FrameCap int

// Done implements Policy.
func (c FrameCap) Done(frames int) bool {
	return c > 0 && frames >= int(c)
}

// QuitSignal stops when the quit source reports a request.
type QuitSignal struct {
	Source ports.QuitSource
}

// Done implements Policy.
func (q QuitSignal) Done(int) bool {
	return q.Source.QuitRequested()
}

// Either stops as soon as any of the policies does.
func Either(policies ...Policy) Policy {
	return PolicyFunc(func(frames int) bool {
		for _, p := range policies {
			if p != nil && p.Done(frames) {
				return true
			}
		}
		return false
	})
}

// Never is a policy that runs until the end of the stream.
var Never Policy = PolicyFunc(func(int) bool { return false })
