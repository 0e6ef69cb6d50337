package sandbox

import (
	"bytes"
	"strings"
)

// boundedBuffer keeps at most limit bytes and silently drops the rest.
// Write never fails so log demultiplexing keeps draining the stream.
type boundedBuffer struct {
	limit     int
	buf       bytes.Buffer
	truncated bool
}

func newBoundedBuffer(limit int) *boundedBuffer {
	return &boundedBuffer{limit: limit}
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	room := b.limit - b.buf.Len()
	if room <= 0 {
		if len(p) > 0 {
			b.truncated = true
		}
		return len(p), nil
	}
	if len(p) > room {
		b.buf.Write(p[:room])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

// String decodes the captured bytes, replacing invalid UTF-8 and dropping NUL bytes,
// which text columns cannot store.
func (b *boundedBuffer) String() string {
	s := strings.ToValidUTF8(b.buf.String(), "�")
	return strings.ReplaceAll(s, "\x00", "")
}
