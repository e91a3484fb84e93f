package onebrc

import (
	"bytes"
	"errors"
	"io"
)

type scanDir int

const (
	scanForward scanDir = iota
	scanBackward
)

// scanner locates newline bytes near a target offset by reading bounded
// windows rather than the whole file. Only the partitioner uses it, so its
// cost is independent of file size.
type scanner struct {
	r    io.ReaderAt
	size int64
	buf  []byte
}

func newScanner(r io.ReaderAt, size int64, window int) *scanner {
	return &scanner{r: r, size: size, buf: make([]byte, window)}
}

// newline returns the offset of the nearest '\n' at-or-after off (forward)
// or at-or-before off (backward). found is false if no newline exists in
// that direction.
func (s *scanner) newline(off int64, dir scanDir) (pos int64, found bool, err error) {
	if dir == scanForward {
		return s.forward(off)
	}
	return s.backward(off)
}

func (s *scanner) forward(off int64) (int64, bool, error) {
	for pos := off; pos < s.size; {
		n := int64(len(s.buf))
		if pos+n > s.size {
			n = s.size - pos
		}
		if err := s.read(s.buf[:n], pos); err != nil {
			return 0, false, err
		}
		if i := bytes.IndexByte(s.buf[:n], '\n'); i >= 0 {
			return pos + int64(i), true, nil
		}
		pos += n
	}
	return 0, false, nil
}

func (s *scanner) backward(off int64) (int64, bool, error) {
	if off >= s.size {
		off = s.size - 1
	}
	for end := off + 1; end > 0; {
		start := end - int64(len(s.buf))
		if start < 0 {
			start = 0
		}
		if err := s.read(s.buf[:end-start], start); err != nil {
			return 0, false, err
		}
		if i := bytes.LastIndexByte(s.buf[:end-start], '\n'); i >= 0 {
			return start + int64(i), true, nil
		}
		end = start
	}
	return 0, false, nil
}

func (s *scanner) read(p []byte, off int64) error {
	n, err := s.r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return err
}
