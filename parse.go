package onebrc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// parser decodes key/value lines from one byte range. Keys and values are
// views into a reused read buffer; nothing is heap-allocated per line.
// A partition always starts at a line boundary (the partitioner cuts only
// at newlines), so the first bytes are never mid-line.
type parser struct {
	r   *io.SectionReader
	buf []byte
	sep byte
}

func newParser(r io.ReaderAt, rng ByteRange, sep byte, bufSize int) *parser {
	return &parser{
		r:   io.NewSectionReader(r, rng.Start, rng.size()),
		buf: make([]byte, bufSize),
		sep: sep,
	}
}

// drain parses every line in the range into agg, carrying the trailing
// partial line across buffer refills. It returns the number of valid rows.
// ctx is polled once per refill so a sibling task's failure stops the scan
// promptly.
func (p *parser) drain(ctx context.Context, agg *Aggregate) (uint64, error) {
	var rows uint64
	leftover := 0
	for {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		n, err := p.r.Read(p.buf[leftover:])
		if n > 0 {
			data := p.buf[:leftover+n]
			last := bytes.LastIndexByte(data, '\n')
			if last >= 0 {
				rows += p.lines(data[:last+1], agg)
				leftover = copy(p.buf, data[last+1:])
			} else {
				leftover = len(data)
				if leftover == len(p.buf) {
					// A line longer than the buffer; grow rather than
					// tear it.
					grown := make([]byte, 2*len(p.buf))
					copy(grown, p.buf)
					p.buf = grown
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				// The range may end without a trailing newline.
				if leftover > 0 && p.line(p.buf[:leftover], agg) {
					rows++
				}
				return rows, nil
			}
			return rows, fmt.Errorf("read range: %w", err)
		}
	}
}

// lines handles a block of whole lines, each ending in '\n'.
func (p *parser) lines(block []byte, agg *Aggregate) uint64 {
	var rows uint64
	for len(block) > 0 {
		nl := bytes.IndexByte(block, '\n')
		if p.line(block[:nl], agg) {
			rows++
		}
		block = block[nl+1:]
	}
	return rows
}

// line folds one record into agg. Malformed lines (not exactly one
// separator, or an undecodable value) are dropped and report false.
func (p *parser) line(b []byte, agg *Aggregate) bool {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		b = b[:n-1]
	}
	sep := bytes.IndexByte(b, p.sep)
	if sep < 0 || bytes.IndexByte(b[sep+1:], p.sep) >= 0 {
		return false
	}
	v, ok := decodeValue(b[sep+1:])
	if !ok {
		return false
	}
	agg.Update(b[:sep], v)
	return true
}

var pow10 = [...]float64{
	1, 1e1, 1e2, 1e3, 1e4, 1e5, 1e6, 1e7, 1e8, 1e9,
	1e10, 1e11, 1e12, 1e13, 1e14, 1e15,
}

// decodeValue parses a signed decimal of the shape -?digits[.digits...]
// directly from raw bytes. Up to 15 digits feed a single integer mantissa
// and the fractional length selects the divisor, so the result is the
// correctly rounded quotient; longer values fall back to
// strconv.ParseFloat, whose conversion is correctly rounded at any length.
// Either way the result matches strconv.ParseFloat bit for bit.
func decodeValue(b []byte) (float64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	digits := b
	neg := b[0] == '-'
	if neg {
		digits = b[1:]
	}

	var mantissa int64
	n := 0
	frac := -1 // digits seen after the decimal point; -1 until one is seen
	for _, c := range digits {
		if c == '.' {
			if frac >= 0 {
				return 0, false
			}
			frac = 0
			continue
		}
		if c < '0' || c > '9' {
			return 0, false
		}
		mantissa = mantissa*10 + int64(c-'0')
		n++
		if frac >= 0 {
			frac++
		}
	}
	if n == 0 {
		return 0, false
	}
	if n > 15 {
		// float64(mantissa) is no longer exact past 15 digits, and
		// dividing a rounded mantissa would round twice.
		v, err := strconv.ParseFloat(bytesToString(b), 64)
		return v, err == nil
	}

	v := float64(mantissa)
	if frac > 0 {
		v /= pow10[frac]
	}
	if neg {
		v = -v
	}
	return v, true
}
