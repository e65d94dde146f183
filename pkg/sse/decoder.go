package sse

import (
	"bytes"
	"iter"
)

var delimiter = []byte(Delimiter)

// Decoder turns chunks arriving at arbitrary boundaries into complete event
// blocks. It keeps a carry-over buffer holding the trailing, not yet
// delimited fragment between calls to Feed.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	buf []byte
}

// NewDecoder returns an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends chunk to the carry-over buffer and returns the complete
// blocks now available, in order. Blocks are split off lazily as the
// sequence is ranged over; blocks left unconsumed when iteration stops
// early are yielded by the next call. The sequence is not restartable.
func (d *Decoder) Feed(chunk []byte) iter.Seq[string] {
	d.buf = append(d.buf, chunk...)

	return func(yield func(string) bool) {
		for {
			i := bytes.Index(d.buf, delimiter)
			if i < 0 {
				return
			}

			block := string(d.buf[:i])
			d.buf = d.buf[i+len(delimiter):]
			if !yield(block) {
				return
			}
		}
	}
}

// Remainder returns the buffered fragment that has not been delimited yet.
func (d *Decoder) Remainder() string {
	return string(d.buf)
}

// Reset discards the carry-over buffer and returns what was discarded.
// Callers use it at end of stream, where a trailing fragment is incomplete
// and is dropped rather than treated as an error.
func (d *Decoder) Reset() string {
	rest := string(d.buf)
	d.buf = d.buf[:0]
	return rest
}
