package ttyarb

import "time"

// request is the tagged union dispatched over the rendezvous channel from
// any Handle to the single Worker goroutine that owns the Connection. Only
// one of clear/transmit/receive is non-nil.
type request struct {
	clear    *clearRequest
	transmit *transmitRequest
	receive  *receiveRequest
}

// clearRequest asks the worker to drain any pending inbound bytes from the
// device and discard the staging buffer.
type clearRequest struct {
	reply chan error
}

// transmitRequest asks the worker to write data to the device before
// deadline elapses, opportunistically draining inbound bytes along the way.
type transmitRequest struct {
	data     []byte
	deadline time.Time
	reply    chan error
}

// receiveRequest asks the worker for bytes out of the staging buffer. If
// hasDelim, the worker waits up to deadline for delim to appear and returns
// everything up to and including it, or everything collected if delim has
// not arrived by then; otherwise it returns whatever is collected by
// deadline. A zero deadline polls the device once without blocking.
type receiveRequest struct {
	delim    byte
	hasDelim bool
	deadline time.Time
	reply    chan receiveResult
}

// receiveResult is the worker's answer to a receiveRequest. data is nil
// (not an empty slice) when nothing was collected, matching spec.md's
// explicit "nil means nothing received" contract.
type receiveResult struct {
	data []byte
	err  error
}
