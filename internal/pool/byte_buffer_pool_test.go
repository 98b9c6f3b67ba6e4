package pool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteBuffer_WriteAndReset(t *testing.T) {
	bb := NewByteBuffer(4)

	n, err := bb.Write([]byte("hello world"))
	require.NoError(t, err)
	require.Equal(t, 11, n)
	require.Equal(t, "hello world", string(bb.Bytes()))
	require.GreaterOrEqual(t, bb.Cap(), 11)

	capBefore := bb.Cap()
	bb.Reset()
	require.Equal(t, 0, bb.Len())
	require.Equal(t, capBefore, bb.Cap())
}

func TestByteBuffer_Grow(t *testing.T) {
	t.Run("no-op with enough capacity", func(t *testing.T) {
		bb := NewByteBuffer(64)
		bb.Grow(32)
		require.Equal(t, 64, bb.Cap())
	})

	t.Run("small buffer grows by default step", func(t *testing.T) {
		bb := NewByteBuffer(0)
		bb.Grow(10)
		require.Equal(t, FrameBufferDefaultSize, bb.Cap())
	})

	t.Run("large request", func(t *testing.T) {
		bb := NewByteBuffer(0)
		bb.Grow(FrameBufferDefaultSize * 3)
		require.GreaterOrEqual(t, bb.Cap(), FrameBufferDefaultSize*3)
	})

	t.Run("keeps content", func(t *testing.T) {
		bb := NewByteBuffer(2)
		_, _ = bb.Write([]byte{1, 2})
		bb.Grow(100)
		require.Equal(t, []byte{1, 2}, bb.Bytes())
	})
}

func TestByteBuffer_Consume(t *testing.T) {
	bb := NewByteBuffer(16)
	_, _ = bb.Write([]byte("abcdef"))

	bb.Consume(2)
	require.Equal(t, "cdef", string(bb.Bytes()))

	bb.Consume(10)
	require.Equal(t, 0, bb.Len())
}

func TestByteBuffer_WriteTo(t *testing.T) {
	bb := NewByteBuffer(16)
	_, _ = bb.Write([]byte("chunk"))

	var out bytes.Buffer
	n, err := bb.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(5), n)
	require.Equal(t, "chunk", out.String())
}

func TestByteBufferPool(t *testing.T) {
	p := NewByteBufferPool(8, 64)

	bb := p.Get()
	require.NotNil(t, bb)
	require.Equal(t, 0, bb.Len())

	_, _ = bb.Write([]byte("data"))
	p.Put(bb)

	again := p.Get()
	require.Equal(t, 0, again.Len())

	// oversized buffers are dropped without panicking
	big := NewByteBuffer(128)
	p.Put(big)
	p.Put(nil)
}

func TestDefaultPools(t *testing.T) {
	chunk := GetChunkBuffer()
	require.GreaterOrEqual(t, chunk.Cap(), 0)
	_, _ = chunk.Write([]byte{1})
	PutChunkBuffer(chunk)

	frame := GetFrameBuffer()
	require.Equal(t, 0, frame.Len())
	PutFrameBuffer(frame)
}
