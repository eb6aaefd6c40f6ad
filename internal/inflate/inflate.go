// Package inflate recovers the game-state stream from the framed compressed
// blocks of a save container.
package inflate

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// stepSize is how much output is requested per decompression step
const stepSize = 1 << 20

// StepError reports a decompression step that failed part way through a
// block. The bytes decoded before the failure are still returned.
type StepError struct {
	Consumed int   // Compressed bytes consumed when the step failed
	Produced int   // Bytes decoded before the failure
	Err      error // Underlying deflate error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("inflate step failed after %d compressed bytes (%d decoded): %v", e.Consumed, e.Produced, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Result is the outcome of inflating one compressed buffer
type Result struct {
	Data     []byte // Decoded bytes
	Consumed int    // Compressed bytes consumed, including any zlib header
}

// Inflate decodes a compressed buffer with raw deflate semantics.
//
// A leading zlib header is skipped and no trailing checksum is expected.
// Running out of input is the normal end of a sync-flushed stream. Any other
// decoding failure stops the attempt and is returned as a *StepError along
// with everything decoded until then.
func Inflate(src []byte) (Result, error) {
	header := 0
	if HasZlibHeader(src) {
		header = 2
	}

	cr := &countingReader{r: bytes.NewReader(src[header:])}
	fr := flate.NewReader(cr)
	defer fr.Close()

	var out []byte
	for {
		if cap(out)-len(out) < stepSize {
			grown := make([]byte, len(out), len(out)+stepSize)
			copy(grown, out)
			out = grown
		}

		n, err := fr.Read(out[len(out):cap(out)])
		out = out[:len(out)+n]

		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return Result{Data: out, Consumed: header + cr.n}, nil
		default:
			res := Result{Data: out, Consumed: header + cr.n}
			return res, &StepError{Consumed: res.Consumed, Produced: len(out), Err: err}
		}
	}
}

// HasZlibHeader reports whether b starts with a valid zlib CMF/FLG pair
// declaring deflate and no preset dictionary.
func HasZlibHeader(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	cmf, flg := b[0], b[1]
	if cmf&0x0F != 8 || cmf>>4 > 7 {
		return false
	}
	if flg&0x20 != 0 {
		return false
	}
	return (uint16(cmf)<<8|uint16(flg))%31 == 0
}

// countingReader tracks how many compressed bytes the decoder pulled.
// It implements io.ByteReader so flate does not add its own buffering.
type countingReader struct {
	r *bytes.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}
