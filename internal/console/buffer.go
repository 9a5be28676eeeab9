package console

import (
	"strings"
	"sync"
)

// Buffer is a thread-safe circular byte buffer holding the most recent
// console output. Unlike a drain-on-read pipe, Peek leaves content in
// place: the screen is a retained surface that polls snapshot repeatedly.
type Buffer struct {
	data []byte
	size int
	head int
	tail int
	mu   sync.RWMutex
}

// NewBuffer creates a circular buffer retaining up to size bytes.
func NewBuffer(size int) *Buffer {
	return &Buffer{
		data: make([]byte, size),
		size: size,
	}
}

// Write appends data, evicting the oldest bytes once full.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range p {
		b.data[b.tail] = c
		b.tail = (b.tail + 1) % b.size
		if b.tail == b.head {
			b.head = (b.head + 1) % b.size
		}
	}
	return len(p), nil
}

// Peek returns a copy of the retained content, oldest first.
func (b *Buffer) Peek() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.head == b.tail {
		return []byte{}
	}

	var result []byte
	if b.tail > b.head {
		result = make([]byte, b.tail-b.head)
		copy(result, b.data[b.head:b.tail])
	} else {
		first := b.data[b.head:]
		second := b.data[:b.tail]
		result = make([]byte, len(first)+len(second))
		copy(result, first)
		copy(result[len(first):], second)
	}
	return result
}

// Reset discards all retained content.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head = 0
	b.tail = 0
}

// TailLines splits raw into lines and returns up to maxLines of the most
// recent ones, oldest first. Carriage returns and trailing whitespace are
// stripped per line; a trailing newline does not produce a phantom empty
// row below the cursor.
func TailLines(raw []byte, maxLines int) []string {
	if maxLines <= 0 || len(raw) == 0 {
		return []string{}
	}
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	rows := strings.Split(text, "\n")
	if len(rows) > maxLines {
		rows = rows[len(rows)-maxLines:]
	}
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = strings.TrimRight(strings.ReplaceAll(row, "\r", ""), " \t")
	}
	return lines
}
