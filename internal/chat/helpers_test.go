package chat

import (
	"bytes"
	"sync"
	"time"
)

const (
	eventually = 2 * time.Second
	tick       = 10 * time.Millisecond
)

// syncBuffer is a bytes.Buffer safe to read while a session writes to it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
