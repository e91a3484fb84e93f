package onebrc

import (
	"fmt"
	"io"
)

// ByteRange is a contiguous, line-aligned span of the input file assigned
// to exactly one task. Bounds are inclusive.
type ByteRange struct {
	Start int64
	End   int64
}

func (r ByteRange) size() int64 { return r.End - r.Start + 1 }

// Partition divides [0, size) into at most n ranges of roughly equal size,
// cutting only at newlines so no line is split across two ranges. The
// returned ranges are contiguous and exhaustive: the first starts at 0, the
// last ends at size-1, and each starts one byte past its predecessor's end.
// A file with fewer lines than n yields fewer ranges; an empty file yields
// none.
func Partition(r io.ReaderAt, size int64, n, window int) ([]ByteRange, error) {
	if size == 0 {
		return nil, nil
	}
	if n < 1 {
		n = 1
	}
	approx := size / int64(n)
	if approx < 1 {
		approx = 1
	}

	sc := newScanner(r, size, window)
	ranges := make([]ByteRange, 0, n)

	var cursor int64
	for i := 0; i < n-1 && cursor < size; i++ {
		target := cursor + approx - 1
		if target >= size-1 {
			break
		}
		cut, found, err := sc.newline(target, scanForward)
		if err != nil {
			return nil, fmt.Errorf("scan for cut near offset %d: %w", target, err)
		}
		if !found || cut >= size-1 {
			// No newline between the tentative cut and EOF, so the
			// remainder is one final range.
			return append(ranges, ByteRange{cursor, size - 1}), nil
		}
		ranges = append(ranges, ByteRange{cursor, cut})
		cursor = cut + 1
	}
	if cursor < size {
		ranges = append(ranges, ByteRange{cursor, size - 1})
	}
	return ranges, nil
}
