package ttyarb

/*
MIT License

Copyright (c) 2015-2017 University Corporation for Atmospheric Research

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

import (
	"strings"
	"time"
)

// Handle is the public entry point to a serial-port arbitrator. It is a
// small struct of reference types (a *Connection and a request channel),
// so a Handle value is cheap to copy and safe to share across goroutines
// without an explicit Clone method - every copy talks to the same
// Connection and the same worker goroutine.
type Handle struct {
	conn *Connection
	reqs chan request
}

// New creates a Handle with no device path set and starts its worker
// goroutine. Call Open before any Transmit or Receive will succeed.
func New() *Handle {
	conn := newConnection()
	reqs := make(chan request)

	w := newWorker(conn, reqs)
	go w.run()

	return &Handle{conn: conn, reqs: reqs}
}

// Open sets the device path and attempts to open it immediately, subject
// to cool-off if a previous attempt recently failed.
func (h *Handle) Open(path string) error {
	h.conn.SetPath(path)
	_, err := h.conn.Open()
	return err
}

// Close closes the underlying device. It is always safe to call, even if
// the device was never opened.
func (h *Handle) Close() {
	h.conn.Close()
}

// IsOpen reports whether the device is currently open.
func (h *Handle) IsOpen() bool {
	return h.conn.IsOpen()
}

// Status returns a diagnostic snapshot of the connection.
func (h *Handle) Status() Status {
	return h.conn.Status()
}

// SetCooloffDuration changes how long Open refuses to retry after a
// failure. A duration of zero disables cool-off entirely.
func (h *Handle) SetCooloffDuration(d time.Duration) {
	h.conn.SetCooloffDuration(d)
}

// ClearRx drains any pending inbound bytes from the device and discards
// the staging buffer, blocking until the worker has done so.
func (h *Handle) ClearRx() error {
	reply := make(chan error, 1)
	req := request{clear: &clearRequest{reply: reply}}
	if err := h.send(req); err != nil {
		return err
	}
	return h.recvErr(reply)
}

// Transmit writes data to the device, blocking until it has all been
// written or deadline elapses. deadline is a mandatory absolute timestamp,
// not optional: a zero time.Time is the most-past deadline there is, so it
// makes a single non-blocking attempt and fails with a TimedOut error if
// any bytes are still unsent, rather than waiting forever.
func (h *Handle) Transmit(data []byte, deadline time.Time) error {
	reply := make(chan error, 1)
	req := request{transmit: &transmitRequest{data: data, deadline: deadline, reply: reply}}
	if err := h.send(req); err != nil {
		return err
	}
	return h.recvErr(reply)
}

// TransmitString is a convenience wrapper over Transmit for callers working
// with text protocols. It sends the bytes of s unchanged.
func (h *Handle) TransmitString(s string, deadline time.Time) error {
	return h.Transmit([]byte(s), deadline)
}

// Receive returns bytes collected from the device. If hasDelim, it waits
// until deadline for delim to appear in the stream and returns everything
// up to and including it, or everything collected if delim has not arrived
// by then; otherwise it returns whatever is available by deadline. A zero
// deadline polls the device once without blocking. A nil return (with a
// nil error) means nothing was collected.
func (h *Handle) Receive(delim byte, hasDelim bool, deadline time.Time) ([]byte, error) {
	reply := make(chan receiveResult, 1)
	req := request{receive: &receiveRequest{delim: delim, hasDelim: hasDelim, deadline: deadline, reply: reply}}
	if err := h.send(req); err != nil {
		return nil, err
	}
	result, err := h.recvResult(reply)
	if err != nil {
		return nil, err
	}
	return result.data, result.err
}

// ReceiveUntil is a convenience wrapper over Receive for the common case of
// waiting for a single delimiter byte.
func (h *Handle) ReceiveUntil(delim byte, deadline time.Time) ([]byte, error) {
	return h.Receive(delim, true, deadline)
}

// ReceiveAll is a convenience wrapper over Receive for collecting whatever
// is available without waiting for a delimiter.
func (h *Handle) ReceiveAll(deadline time.Time) ([]byte, error) {
	return h.Receive(0, false, deadline)
}

// ReceiveString is a lossy convenience wrapper over Receive for callers
// working with text protocols. Invalid UTF-8 sequences are replaced with
// U+FFFD.
func (h *Handle) ReceiveString(delim byte, hasDelim bool, deadline time.Time) (string, error) {
	data, err := h.Receive(delim, hasDelim, deadline)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}

// send dispatches req over the zero-capacity rendezvous channel, blocking
// until the worker goroutine picks it up.
func (h *Handle) send(req request) error {
	h.reqs <- req
	return nil
}

func (h *Handle) recvErr(reply chan error) error {
	return <-reply
}

func (h *Handle) recvResult(reply chan receiveResult) (receiveResult, error) {
	return <-reply, nil
}
