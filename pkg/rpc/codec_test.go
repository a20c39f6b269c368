package rpc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	in := Request{Method: MethodTrain, Body: []byte{0xc0}}
	require.NoError(t, writeMessage(&buf, &in))

	var out Request
	require.NoError(t, readMessage(&buf, DefaultMaxFrameSize, &out))
	assert.Equal(t, in.Method, out.Method)
}

func TestCodecSequentialFrames(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, writeMessage(&buf, &Response{Rc: RcOK}))
	require.NoError(t, writeMessage(&buf, &Response{Rc: RcNotFound, Error: "nope"}))

	var first, second Response
	require.NoError(t, readMessage(&buf, DefaultMaxFrameSize, &first))
	require.NoError(t, readMessage(&buf, DefaultMaxFrameSize, &second))
	assert.Equal(t, RcOK, first.Rc)
	assert.Equal(t, RcNotFound, second.Rc)
	assert.Equal(t, "nope", second.Error)
}

func TestCodecFrameTooLarge(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, writeMessage(&buf, &Request{Method: MethodChat}))

	var out Request
	err := readMessage(&buf, 4, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds limit")
}

func TestCodecTruncatedFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeMessage(&buf, &Request{Method: MethodChat}))

	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-2])
	var out Request
	assert.Error(t, readMessage(truncated, DefaultMaxFrameSize, &out))
}
