/*
Package ttyarb arbitrates access to a POSIX serial (TTY) device so that
concurrent callers can transmit and receive without garbling each other's
bytes on the wire.

# Purpose

Opening /dev/ttyUSB0 (or any other TTY) and calling Read/Write directly on
the resulting *os.File works, right up until two goroutines try to use it
at the same time, or the USB-serial adapter gets unplugged mid-transaction.
This package exists to take those two problems off your hands: a single
background goroutine owns the device, serializes every Transmit/Receive/
ClearRx request that comes in through a Handle, and automatically closes
and re-opens the device (subject to a configurable cool-off) whenever an
I/O error suggests the far end has gone away.

# Architecture

A Handle is a thin, cheaply-copyable façade over two things: a Connection
(the device path, file descriptor, and cool-off bookkeeping) and a
zero-capacity request channel. Calling Transmit, Receive or ClearRx builds
a request, sends it to the channel, and blocks on a per-request reply
channel for the answer. The single worker goroutine reading that channel
is the only goroutine that does I/O on the file descriptor - polling it for
readiness, reading from it into a FIFO staging buffer, and writing to it -
so no locking is needed around the device itself. The worker reopens the
device when a request finds it closed; Handle.Open and Handle.Close open
and close it directly from the calling goroutine.

# Deadlines

Every blocking operation takes an absolute time.Time deadline rather than a
relative duration, so a caller composing several operations can share one
deadline across all of them without re-deriving it at each call. A zero
time.Time is the most-past deadline there is, not "no deadline": it polls
once without blocking and returns immediately with whatever could be done
in that single attempt - a TimedOut error from Transmit if any bytes are
still unsent, or whatever (possibly nothing) had already been collected
from Receive.

# Error Handling

Errors from opening, cool-off, deadlines and poll(2) conform to net.Error:
after a type assertion (or via the package-level IsTemporary/IsTimeout
helpers) you have access to .Timeout() and .Temporary(). They additionally
carry a Kind, retrievable via KindOf, that classifies why the error occurred
(NotConnected, QuotaExceeded, TimedOut, Disconnected, InvalidDescriptor, or
PollError). Failures of the read(2) and write(2) calls themselves are
returned as plain wrapped errors: they do not implement net.Error, and
KindOf reports them as KindInternal.

This package does not attempt to hide connection failures from the caller
by silently retrying forever - if the device is gone, Transmit and Receive
return an error and it is up to the caller to decide whether to keep
trying. What this package does guarantee is that once the cool-off window
has passed, the very next call will attempt to re-open the device and
pick back up automatically.

This package does not log anything internally; pass an error up to
whatever logging the caller already has in place.
*/
package ttyarb
