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

// These tests drive a Handle against a real pseudo-terminal pair rather
// than a fake: the slave side is opened through the library exactly like a
// physical TTY, and bytes written to the master come back through the
// kernel's line discipline like a loopback serial cable would.

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/creack/pty"
)

// openLoopback opens a pty pair, hands the slave side to a fresh Handle,
// and returns both the handle and the master side so the test can act as
// the "far end" of the cable.
func openLoopback(t *testing.T) (h *Handle, master *os.File, cleanup func()) {
	t.Helper()
	master, slave, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable in this environment: %v", err)
	}

	h = New()
	if err := h.Open(slave.Name()); err != nil {
		master.Close()
		slave.Close()
		t.Fatalf("Open(%s): %v", slave.Name(), err)
	}

	cleanup = func() {
		h.Close()
		slave.Close()
		master.Close()
	}
	return h, master, cleanup
}

func deadlineIn(d time.Duration) time.Time {
	return time.Now().Add(d)
}

func TestLoopbackTransmitAndReceiveAll(t *testing.T) {
	h, master, cleanup := openLoopback(t)
	defer cleanup()

	if !h.IsOpen() {
		t.Error("Expected handle to report open after a successful Open")
	}

	msg := []byte("the quick brown fox\n")
	if _, err := master.Write(msg); err != nil {
		t.Fatalf("master write: %v", err)
	}

	data, err := h.ReceiveAll(deadlineIn(2 * time.Second))
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(data) != string(msg) {
		t.Errorf("Receive got %q, want %q", data, msg)
	}
}

func TestLoopbackReceiveUntilDelimiter(t *testing.T) {
	h, master, cleanup := openLoopback(t)
	defer cleanup()

	if _, err := master.Write([]byte("partial")); err != nil {
		t.Fatalf("master write: %v", err)
	}
	if _, err := master.Write([]byte(" line\n and the rest")); err != nil {
		t.Fatalf("master write: %v", err)
	}

	data, err := h.ReceiveUntil('\n', deadlineIn(2*time.Second))
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(data) != "partial line\n" {
		t.Errorf("Receive got %q, want %q", data, "partial line\n")
	}

	rest, err := h.ReceiveAll(deadlineIn(2 * time.Second))
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(rest) != " and the rest" {
		t.Errorf("Receive got %q, want %q", rest, " and the rest")
	}
}

func TestLoopbackReceiveTimesOutWithNoData(t *testing.T) {
	h, _, cleanup := openLoopback(t)
	defer cleanup()

	data, err := h.ReceiveAll(deadlineIn(30 * time.Millisecond))
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if data != nil {
		t.Errorf("Receive got %q, want nil on timeout with no data", data)
	}
}

func TestLoopbackClearRxDropsStaleData(t *testing.T) {
	h, master, cleanup := openLoopback(t)
	defer cleanup()

	if _, err := master.Write([]byte("stale")); err != nil {
		t.Fatalf("master write: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if err := h.ClearRx(); err != nil {
		t.Fatalf("ClearRx: %v", err)
	}

	if _, err := master.Write([]byte("fresh\n")); err != nil {
		t.Fatalf("master write: %v", err)
	}
	data, err := h.ReceiveUntil('\n', deadlineIn(2*time.Second))
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(data) != "fresh\n" {
		t.Errorf("Receive got %q, want %q (stale data should have been cleared)", data, "fresh\n")
	}
}

func TestLoopbackTransmitToMaster(t *testing.T) {
	h, master, cleanup := openLoopback(t)
	defer cleanup()

	if err := h.TransmitString("hello\n", deadlineIn(2*time.Second)); err != nil {
		t.Fatalf("Transmit: %v", err)
	}

	buf := make([]byte, 16)
	master.SetReadDeadline(deadlineIn(2 * time.Second))
	n, err := master.Read(buf)
	if err != nil {
		t.Fatalf("master read: %v", err)
	}
	if string(buf[:n]) != "hello\n" {
		t.Errorf("master got %q, want %q", buf[:n], "hello\n")
	}
}

func TestStatusStringIncludesPath(t *testing.T) {
	h, _, cleanup := openLoopback(t)
	defer cleanup()

	s := h.Status()
	if !s.Open {
		t.Error("Expected status to report the device open")
	}
	if s.String() == "" {
		t.Error("Expected a non-empty rendered status table")
	}
	if s.Path == "" || !strings.Contains(s.String(), s.Path) {
		t.Errorf("Expected the rendered status table to include the path %q", s.Path)
	}
}
