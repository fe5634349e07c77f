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
	"bytes"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Linux's asm-generic/poll.h defines these but golang.org/x/sys/unix does
// not carry all of them on every platform/version, so they are pinned here
// directly rather than gambled on being exported under unix.POLLRDNORM etc.
const (
	pollRDNORM = 0x040
	pollRDBAND = 0x080
	pollWRNORM = 0x100
	pollWRBAND = 0x200
)

// portOpenFlags are the flags used to open a TTY device for non-blocking,
// synchronized, controlling-terminal-free raw access.
const portOpenFlags = unix.O_RDWR | unix.O_APPEND | unix.O_DSYNC | unix.O_RSYNC |
	unix.O_SYNC | unix.O_NOCTTY | unix.O_NONBLOCK

// portOpen opens path for raw, non-blocking serial access and puts the
// underlying termios into raw mode. The returned fd is owned by the caller.
func portOpen(path string) (int, error) {
	fd, err := unix.Open(path, portOpenFlags, 0)
	if err != nil {
		return -1, errors.Wrapf(err, "open %s", path)
	}

	attr, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		unix.Close(fd)
		return -1, errors.Wrapf(err, "get termios for %s", path)
	}

	makeRaw(attr)

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, attr); err != nil {
		unix.Close(fd)
		return -1, errors.Wrapf(err, "set termios for %s", path)
	}

	return fd, nil
}

// makeRaw clears the termios flags that would otherwise impose line
// discipline, echo, signal generation, or character translation on a TTY -
// equivalent to the C library's cfmakeraw(3).
func makeRaw(attr *unix.Termios) {
	attr.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	attr.Oflag &^= unix.OPOST
	attr.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	attr.Cflag &^= unix.CSIZE | unix.PARENB
	attr.Cflag |= unix.CS8
	attr.Cc[unix.VMIN] = 1
	attr.Cc[unix.VTIME] = 0
}

// pollKind selects which readiness condition portPoll waits for.
type pollKind int

const (
	pollForRead pollKind = iota
	pollForWrite
)

// pollResult reports what portPoll observed.
type pollResult int

const (
	pollTimedOut pollResult = iota
	pollReadReady
	pollWriteReady
	pollUndocumented
)

// portPoll waits until fd is ready for the requested direction, or until
// deadline elapses. A zero deadline means return immediately (non-blocking
// poll). Mirrors the revent priority of poll(2): hangup, then invalid fd,
// then error, then write-ready, then read-ready.
func portPoll(fd int, kind pollKind, deadline time.Time) (pollResult, error) {
	timeout := 0
	if !deadline.IsZero() {
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		timeout = int(remaining / time.Millisecond)
	}

	var events int16
	switch kind {
	case pollForRead:
		events = unix.POLLIN | unix.POLLPRI | pollRDNORM | pollRDBAND
	case pollForWrite:
		events = unix.POLLPRI | unix.POLLOUT | pollWRNORM | pollWRBAND
	}

	fds := []unix.PollFd{{Fd: int32(fd), Events: events}}
	n, err := unix.Poll(fds, timeout)
	if err != nil {
		if err == unix.EINTR {
			return pollUndocumented, nil
		}
		return 0, errPoll(errors.Wrap(err, "poll"))
	}
	if n == 0 {
		return pollTimedOut, nil
	}

	revents := fds[0].Revents
	switch {
	case revents&unix.POLLHUP != 0:
		return 0, errDisconnected(errors.New("POLLHUP: device has been disconnected"))
	case revents&unix.POLLNVAL != 0:
		return 0, errInvalidDescriptor(errors.New("POLLNVAL: invalid file descriptor"))
	case revents&unix.POLLERR != 0:
		return 0, errPoll(errors.New("POLLERR: an error has occurred"))
	case revents&(unix.POLLOUT|pollWRNORM|pollWRBAND) != 0:
		return pollWriteReady, nil
	case revents&(unix.POLLIN|pollRDNORM|pollRDBAND|unix.POLLPRI) != 0:
		return pollReadReady, nil
	default:
		return pollUndocumented, nil
	}
}

// portRead drains whatever is currently available on fd into buff. EOF,
// EAGAIN/EWOULDBLOCK and EINTR are not errors for our purposes - they just
// mean "no more data right now".
func portRead(fd int, buff *bytes.Buffer) error {
	scratch := make([]byte, 64*1024)
	for {
		n, err := unix.Read(fd, scratch)
		if err != nil {
			switch err {
			case unix.EINTR, unix.EAGAIN:
				return nil
			default:
				return errors.Wrap(err, "read")
			}
		}
		if n == 0 {
			return nil
		}
		buff.Write(scratch[:n])
	}
}

// portWrite attempts a single write of data and reports how many bytes were
// actually written. EAGAIN/EINTR are reported as zero progress, not errors.
func portWrite(fd int, data []byte) (int, error) {
	n, err := unix.Write(fd, data)
	if err != nil {
		switch err {
		case unix.EINTR, unix.EAGAIN:
			return 0, nil
		default:
			return 0, errors.Wrap(err, "write")
		}
	}
	return n, nil
}

// portSend writes all of data to fd, opportunistically draining any
// inbound bytes into recv along the way, until either everything has been
// sent or deadline elapses.
func portSend(fd int, data []byte, recv *bytes.Buffer, deadline time.Time) error {
	pending := data
	for {
		result, err := portPoll(fd, pollForWrite, deadline)
		if err != nil {
			return err
		}
		switch result {
		case pollReadReady:
			if err := portRead(fd, recv); err != nil {
				return err
			}
		case pollWriteReady:
			n, err := portWrite(fd, pending)
			if err != nil {
				return err
			}
			pending = pending[n:]
		case pollTimedOut, pollUndocumented:
			// Nothing made progress this iteration; deadline check below
			// decides whether to keep trying.
		}

		if len(pending) == 0 {
			return nil
		}
		if !time.Now().Before(deadline) {
			return errTimedOut(errors.New("transmit deadline exceeded"))
		}
	}
}

// portRecv reads from fd into buff until the single-byte delimiter (if
// hasDelim) appears in buff, or deadline elapses. A zero deadline means
// poll without blocking and return on the first timeout - used for the
// worker's opportunistic, idle-interval drains.
func portRecv(fd int, buff *bytes.Buffer, delim byte, hasDelim bool, deadline time.Time) error {
	for {
		result, err := portPoll(fd, pollForRead, deadline)
		if err != nil {
			return err
		}
		switch result {
		case pollTimedOut:
			return nil
		case pollReadReady:
			if err := portRead(fd, buff); err != nil {
				return err
			}
		case pollWriteReady, pollUndocumented:
			// No read progress possible this iteration.
		}

		if hasDelim && bytes.IndexByte(buff.Bytes(), delim) >= 0 {
			return nil
		}
	}
}
