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
)

// pollingInterval bounds how long the worker can go between opportunistic
// drains of the device when it is otherwise idle, so an inbound FIFO on the
// far end never starves for lack of a reader.
const pollingInterval = time.Millisecond

// worker is the single goroutine that owns a Connection. Every read, write
// and poll of the device happens here and nowhere else, which is what lets
// a Handle be shared across goroutines without its own locking: callers
// only touch the request channel, apart from Handle.Open and Handle.Close,
// which open and close the descriptor directly.
type worker struct {
	conn *Connection
	reqs <-chan request
	buff bytes.Buffer
}

func newWorker(conn *Connection, reqs <-chan request) *worker {
	return &worker{conn: conn, reqs: reqs}
}

// run is the worker's main loop. It returns once reqs is closed, which is
// the only way a Worker goroutine ever terminates.
func (w *worker) run() {
	ticker := time.NewTicker(pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case req, ok := <-w.reqs:
			if !ok {
				return
			}
			w.dispatch(req)
		case <-ticker.C:
			// Opportunistically collect incoming data so the RX FIFO on
			// the device side doesn't starve while nobody is asking for
			// it. Only when already open - this must never be what
			// triggers a reopen attempt.
			if w.conn.IsOpen() {
				_ = w.receiveFromPort(false, 0, time.Time{})
			}
		}
	}
}

func (w *worker) dispatch(req request) {
	switch {
	case req.clear != nil:
		w.handleClear(req.clear)
	case req.transmit != nil:
		w.handleTransmit(req.transmit)
	case req.receive != nil:
		w.handleReceive(req.receive)
	}
}

func (w *worker) handleClear(r *clearRequest) {
	var err error
	if w.conn.IsOpen() {
		err = w.receiveFromPort(false, 0, time.Time{})
	}
	w.buff.Reset()
	trySend(r.reply, err)
}

func (w *worker) handleTransmit(r *transmitRequest) {
	err := w.transmitToPort(r.data, r.deadline)
	trySend(r.reply, err)
}

func (w *worker) handleReceive(r *receiveRequest) {
	if r.hasDelim {
		if data := w.collectUntilOrNothing(r.delim); data != nil {
			tryReply(r.reply, receiveResult{data: data})
			return
		}
	}

	if err := w.receiveFromPort(r.hasDelim, r.delim, r.deadline); err != nil {
		tryReply(r.reply, receiveResult{err: err})
		return
	}

	var data []byte
	if r.hasDelim {
		data = w.collectUntilOrEverything(r.delim)
	} else {
		data = w.collectEverything()
	}
	tryReply(r.reply, receiveResult{data: data})
}

// receiveFromPort opens the connection (if needed) and reads whatever is
// available into the staging buffer, until the delimiter shows up (if
// hasDelim) or deadline elapses. Any I/O error closes the connection so the
// next attempt goes through the cool-off gate.
func (w *worker) receiveFromPort(hasDelim bool, delim byte, deadline time.Time) error {
	fd, err := w.conn.Open()
	if err != nil {
		return err
	}
	if err := portRecv(fd, &w.buff, delim, hasDelim, deadline); err != nil {
		w.conn.closeFromError()
		return err
	}
	return nil
}

// transmitToPort opens the connection (if needed) and writes data to it,
// opportunistically draining any inbound bytes into the staging buffer
// along the way, until everything is written or deadline elapses.
func (w *worker) transmitToPort(data []byte, deadline time.Time) error {
	fd, err := w.conn.Open()
	if err != nil {
		return err
	}
	if err := portSend(fd, data, &w.buff, deadline); err != nil {
		w.conn.closeFromError()
		return err
	}
	return nil
}

// collectEverything drains the entire staging buffer, or returns nil if it
// is empty.
func (w *worker) collectEverything() []byte {
	if w.buff.Len() == 0 {
		return nil
	}
	return append([]byte(nil), w.buff.Next(w.buff.Len())...)
}

// collectUntilOrEverything drains up to and including the first occurrence
// of delim, or the whole buffer if delim is not present.
func (w *worker) collectUntilOrEverything(delim byte) []byte {
	if w.buff.Len() == 0 {
		return nil
	}
	if pos := bytes.IndexByte(w.buff.Bytes(), delim); pos >= 0 {
		return append([]byte(nil), w.buff.Next(pos+1)...)
	}
	return w.collectEverything()
}

// collectUntilOrNothing drains up to and including the first occurrence of
// delim, leaving the buffer untouched (and returning nil) if delim is not
// yet present.
func (w *worker) collectUntilOrNothing(delim byte) []byte {
	if w.buff.Len() == 0 {
		return nil
	}
	pos := bytes.IndexByte(w.buff.Bytes(), delim)
	if pos < 0 {
		return nil
	}
	return append([]byte(nil), w.buff.Next(pos+1)...)
}

// trySend delivers err on reply without blocking if nobody is listening -
// a receive request's caller may have already given up.
func trySend(reply chan error, err error) {
	select {
	case reply <- err:
	default:
	}
}

func tryReply(reply chan receiveResult, result receiveResult) {
	select {
	case reply <- result:
	default:
	}
}
