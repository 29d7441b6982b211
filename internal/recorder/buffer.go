package recorder

import "finfo/internal/codec"

// Buffer accumulates newline-joined encoded lines. It is not safe for
// concurrent use; the Writer owns it exclusively.
type Buffer struct {
	data  []byte
	lines int
}

// NewBuffer allocates a buffer with sizeHint bytes of capacity.
func NewBuffer(sizeHint int) *Buffer {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Buffer{data: make([]byte, 0, sizeHint)}
}

// Len returns the number of buffered lines.
func (b *Buffer) Len() int {
	return b.lines
}

// Size returns the joined payload size in bytes.
func (b *Buffer) Size() int {
	return len(b.data)
}

// Bytes returns the joined payload without a trailing newline. The slice is
// valid until the next mutation.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Reset empties the buffer and keeps its capacity. The Writer calls it only
// after the payload returned by Bytes has been delivered.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
	b.lines = 0
}

// appendSample encodes v in place as a new line.
func appendSample[T any](b *Buffer, encode codec.Encoder[T], v T) {
	if b.lines > 0 {
		b.data = append(b.data, '\n')
	}
	b.data = encode(b.data, v)
	b.lines++
}
