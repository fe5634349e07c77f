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
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Connection owns the lifecycle of a single TTY file descriptor: the path
// to open, the fd itself once opened, and the cool-off bookkeeping that
// keeps a flapping device from being hammered with open(2) retries.
//
// All fields are guarded by mux. A Connection is shared between the Worker
// goroutine and any caller that reads Status, so every access goes through
// the lock.
type Connection struct {
	mux sync.Mutex

	path string
	fd   int
	open bool

	cooloff      time.Duration
	lastAttempt  time.Time
	hadLastError bool
}

// newConnection returns a Connection with no path set and cool-off
// disabled, matching the teacher's zero-value-friendly constructors.
func newConnection() *Connection {
	return &Connection{fd: -1}
}

// SetPath changes the device path used by subsequent Open calls and closes
// any already-open descriptor, so the next Open uses the new path. The
// cool-off state is left as it is.
func (c *Connection) SetPath(path string) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.path = path
	c.closeLocked(false)
}

// Path returns the currently configured device path.
func (c *Connection) Path() string {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.path
}

// SetCooloffDuration changes how long Open refuses to retry after a
// failure. A duration of zero disables cool-off: every call attempts to
// reopen immediately.
func (c *Connection) SetCooloffDuration(d time.Duration) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.cooloff = d
}

// IsOpen reports whether the connection currently holds a live descriptor.
func (c *Connection) IsOpen() bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.open
}

// Status returns a point-in-time snapshot suitable for diagnostics.
func (c *Connection) Status() Status {
	c.mux.Lock()
	defer c.mux.Unlock()

	s := Status{Path: c.path, Open: c.open}
	if c.hadLastError && c.cooloff > 0 {
		until := c.lastAttempt.Add(c.cooloff)
		if remaining := time.Until(until); remaining > 0 {
			s.CoolingOff = true
			s.CoolRemaining = remaining
		}
	}
	return s
}

// Open returns the live file descriptor, opening it first if necessary. If
// a previous attempt failed and the cool-off window has not yet elapsed,
// Open fails fast with a QuotaExceeded error instead of retrying the
// open(2) call.
func (c *Connection) Open() (int, error) {
	c.mux.Lock()
	defer c.mux.Unlock()

	if c.open {
		return c.fd, nil
	}

	if c.hadLastError && c.cooloff > 0 {
		until := c.lastAttempt.Add(c.cooloff)
		if time.Now().Before(until) {
			return -1, errQuotaExceeded(errCoolingOff)
		}
	}

	// Arm the cool-off clock before attempting anything else, so a
	// failure below - whether from a missing path or from the OS open
	// itself - still starts the cool-off window.
	c.lastAttempt = time.Now()

	if c.path == "" {
		c.hadLastError = true
		return -1, errNotConnected(errNoPath)
	}

	fd, err := portOpen(c.path)
	if err != nil {
		c.hadLastError = true
		return -1, errNotConnected(err)
	}

	c.fd = fd
	c.open = true
	c.hadLastError = false
	return fd, nil
}

// Close closes the descriptor if open, and idempotently does nothing
// otherwise. It also clears the cool-off window: the close is intentional,
// so the next Open attempts the device immediately.
func (c *Connection) Close() {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.closeLocked(true)
}

// closeFromError is used internally by the worker after a read/write/poll
// error: it closes the descriptor and marks the attempt as failed so the
// next Open respects cool-off.
func (c *Connection) closeFromError() {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.hadLastError = true
	c.lastAttempt = time.Now()
	c.closeLocked(false)
}

func (c *Connection) closeLocked(resetError bool) {
	if c.open {
		unix.Close(c.fd)
		c.fd = -1
		c.open = false
	}
	if resetError {
		c.hadLastError = false
	}
}
