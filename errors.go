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
	"net"

	"github.com/pkg/errors"
)

// Kind classifies the errors this package returns, so callers who don't
// want to type-assert down to net.Error can switch on something coarser.
type Kind int

const (
	// KindInternal is what KindOf reports for any error that carries no
	// Kind of its own: ErrInternal, read(2)/write(2) failures, and errors
	// from other packages.
	KindInternal Kind = iota
	// KindNotConnected is returned when an operation is attempted before
	// any path has been set, or when opening the device fails.
	KindNotConnected
	// KindQuotaExceeded is returned when Open is attempted while the
	// connection is cooling off from a previous failure.
	KindQuotaExceeded
	// KindTimedOut is returned when a deadline elapses before a Transmit
	// operation completes. Receive never returns it: no data by the
	// deadline is a nil result.
	KindTimedOut
	// KindDisconnected is returned when poll(2) reports POLLHUP.
	KindDisconnected
	// KindInvalidDescriptor is returned when poll(2) reports POLLNVAL.
	KindInvalidDescriptor
	// KindPollError is returned when poll(2) reports POLLERR, or the
	// poll syscall itself fails.
	KindPollError
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindNotConnected:
		return "not connected"
	case KindQuotaExceeded:
		return "quota exceeded"
	case KindTimedOut:
		return "timed out"
	case KindDisconnected:
		return "disconnected"
	case KindInvalidDescriptor:
		return "invalid descriptor"
	case KindPollError:
		return "poll error"
	default:
		return "unknown"
	}
}

var _ error = &arbError{}
var _ net.Error = &arbError{}

type arbError struct {
	err                error
	kind               Kind
	temporary, timeout bool
}

// newErr returns an error that conforms to net.Error and carries a Kind.
func newErr(kind Kind, temporary, timeout bool, err error) *arbError {
	return &arbError{
		err:       err,
		kind:      kind,
		temporary: temporary,
		timeout:   timeout,
	}
}

/*Error returns the base error as a string, and conforms to the error interface */
func (ae *arbError) Error() string {
	return ae.err.Error()
}

// Unwrap allows errors.Is / errors.As to reach the wrapped cause.
func (ae *arbError) Unwrap() error {
	return ae.err
}

/*Temporary returns true if the error is a temporary error, indicating the
connection is still active */
func (ae *arbError) Temporary() bool {
	return ae.temporary
}

func (ae *arbError) Timeout() bool {
	return ae.timeout
}

// Kind returns the classification of this error.
func (ae *arbError) Kind() Kind {
	return ae.kind
}

/*IsTemporary is a shorthand way to check if a returned error is temporary. Dont
pass nil errors here, the desired behaviour is not defined, and will panic*/
func IsTemporary(err error) bool {
	if err == nil {
		panic("Unable to determine what to do with a nil error.")
	}
	if ne, ok := err.(net.Error); ok {
		return ne.Temporary()
	}
	return false
}

/*IsTimeout is a shorthand way to check if a returned error is a timeout. Dont
pass nil errors here, the desired behaviour is not defined, and will panic*/
func IsTimeout(err error) bool {
	if err == nil {
		panic("Unable to determine what to do with a nil error.")
	}
	if ne, ok := err.(net.Error); ok {
		return ne.Timeout()
	}
	return false
}

// KindOf returns the Kind of err if it was produced by this package, and
// KindInternal otherwise. Passing nil panics, same as IsTemporary/IsTimeout.
func KindOf(err error) Kind {
	if err == nil {
		panic("Unable to determine what to do with a nil error.")
	}
	if ae, ok := err.(*arbError); ok {
		return ae.kind
	}
	return KindInternal
}

var (
	// ErrInternal describes a request that cannot reach the worker
	// goroutine. The worker goroutine runs for the life of the process and
	// Handle methods block on its channels without checking for it, so no
	// Handle method returns ErrInternal.
	ErrInternal = errors.New("arbitrator worker is no longer running")

	errNoPath     = errors.New("no device path has been set")
	errCoolingOff = errors.New("connection is cooling off after a previous failure")
)

func errNotConnected(err error) *arbError {
	return newErr(KindNotConnected, false, false, err)
}

func errQuotaExceeded(err error) *arbError {
	return newErr(KindQuotaExceeded, true, false, err)
}

func errTimedOut(err error) *arbError {
	return newErr(KindTimedOut, true, true, err)
}

func errDisconnected(err error) *arbError {
	return newErr(KindDisconnected, true, false, err)
}

func errInvalidDescriptor(err error) *arbError {
	return newErr(KindInvalidDescriptor, false, false, err)
}

func errPoll(err error) *arbError {
	return newErr(KindPollError, true, false, err)
}
