package ttyarb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectEverything(t *testing.T) {
	w := &worker{}
	assert.Nil(t, w.collectEverything())

	w.buff.WriteString("hello world")
	data := w.collectEverything()
	assert.Equal(t, "hello world", string(data))
	assert.Equal(t, 0, w.buff.Len())
}

func TestCollectUntilOrEverythingFound(t *testing.T) {
	w := &worker{}
	w.buff.WriteString("abc\ndef")
	data := w.collectUntilOrEverything('\n')
	assert.Equal(t, "abc\n", string(data))
	assert.Equal(t, "def", w.buff.String())
}

func TestCollectUntilOrEverythingNotFound(t *testing.T) {
	w := &worker{}
	w.buff.WriteString("abcdef")
	data := w.collectUntilOrEverything('\n')
	assert.Equal(t, "abcdef", string(data))
	assert.Equal(t, 0, w.buff.Len())
}

func TestCollectUntilOrNothing(t *testing.T) {
	w := &worker{}
	w.buff.WriteString("abcdef")
	assert.Nil(t, w.collectUntilOrNothing('\n'))
	assert.Equal(t, "abcdef", w.buff.String(), "buffer must be untouched when delimiter is absent")

	w.buff.WriteString("\nmore")
	data := w.collectUntilOrNothing('\n')
	assert.Equal(t, "abcdef\n", string(data))
	assert.Equal(t, "more", w.buff.String())
}

func TestHandleClearWithoutOpenConnection(t *testing.T) {
	conn := newConnection()
	w := &worker{conn: conn}
	w.buff.WriteString("stale data")

	reply := make(chan error, 1)
	w.handleClear(&clearRequest{reply: reply})

	require.NoError(t, <-reply)
	assert.Equal(t, 0, w.buff.Len())
}

func TestHandleReceiveFastPath(t *testing.T) {
	conn := newConnection()
	w := &worker{conn: conn}
	w.buff.WriteString("ping\n")

	reply := make(chan receiveResult, 1)
	w.handleReceive(&receiveRequest{delim: '\n', hasDelim: true, reply: reply})

	result := <-reply
	require.NoError(t, result.err)
	assert.Equal(t, "ping\n", string(result.data))
}

func TestHandleReceiveNoPathReportsError(t *testing.T) {
	conn := newConnection()
	w := &worker{conn: conn}

	reply := make(chan receiveResult, 1)
	w.handleReceive(&receiveRequest{reply: reply})

	result := <-reply
	require.Error(t, result.err)
	assert.Equal(t, KindNotConnected, KindOf(result.err))
}

func TestHandleTransmitNoPathReportsError(t *testing.T) {
	conn := newConnection()
	w := &worker{conn: conn}

	reply := make(chan error, 1)
	w.handleTransmit(&transmitRequest{data: []byte("x"), reply: reply})

	err := <-reply
	require.Error(t, err)
	assert.Equal(t, KindNotConnected, KindOf(err))
}
