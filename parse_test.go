package onebrc

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"testing"
)

func TestDecodeValueParity(t *testing.T) {
	inputs := []string{
		"0", "0.0", "-0.0", "1", "-1", "7.5", "-7.5",
		"33.9", "-10.3", "99.9", "-99.9", "123.456", "0.125",
		"5.", ".5", "-.5", "1234567.8901", "000.1", "42",
		// Past 15 significant digits float64(int64) rounds, so naive
		// mantissa division would round twice and drift one ulp.
		"9007199254740993",
		"68.5203512935528753",
		"-68.5203512935528753",
		"0.1234567890123456789",
		// Integer parts wide enough to overflow an int64 mantissa.
		"99999999999999999999.9",
		"12345678901234567890",
		"-18446744073709551616",
	}
	// And a spread of generated shapes: any sign, 1..21 integer digits,
	// 0..21 fractional digits.
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		var sb strings.Builder
		if rnd.Intn(2) == 0 {
			sb.WriteByte('-')
		}
		for j, n := 0, 1+rnd.Intn(21); j < n; j++ {
			sb.WriteByte(byte('0' + rnd.Intn(10)))
		}
		if frac := rnd.Intn(22); frac > 0 {
			sb.WriteByte('.')
			for j := 0; j < frac; j++ {
				sb.WriteByte(byte('0' + rnd.Intn(10)))
			}
		}
		inputs = append(inputs, sb.String())
	}

	for _, in := range inputs {
		want, err := strconv.ParseFloat(in, 64)
		if err != nil {
			t.Fatalf("bad test input %q: %v", in, err)
		}
		got, ok := decodeValue([]byte(in))
		if !ok {
			t.Errorf("decodeValue(%q) rejected a valid value", in)
			continue
		}
		if math.Float64bits(got) != math.Float64bits(want) {
			t.Errorf("decodeValue(%q) = %v (%#x), want %v (%#x)",
				in, got, math.Float64bits(got), want, math.Float64bits(want))
		}
	}
}

func TestDecodeValueMalformed(t *testing.T) {
	for _, in := range []string{
		"", "-", ".", "-.", "1.2.3", "12a", "a12", "1 ", " 1",
		"+1", "1e5", "NaN", "--1", "1-", "1.2-",
	} {
		if v, ok := decodeValue([]byte(in)); ok {
			t.Errorf("decodeValue(%q) = %v, want rejection", in, v)
		}
	}
}

func drainAll(t *testing.T, data string, bufSize int) (*Report, uint64) {
	t.Helper()
	agg := NewAggregate()
	p := newParser(bytes.NewReader([]byte(data)), ByteRange{0, int64(len(data)) - 1}, ';', bufSize)
	rows, err := p.drain(context.Background(), agg)
	if err != nil {
		t.Fatal(err)
	}
	return BuildReport(agg), rows
}

func TestParserCarriesPartialLines(t *testing.T) {
	// A tiny buffer forces a refill inside nearly every line.
	data := "Tel Aviv;33.9\nDhaka;36.9\nTel Aviv;30.1\n"
	rep, rows := drainAll(t, data, 8)
	if rows != 3 {
		t.Fatalf("rows = %d, want 3", rows)
	}
	s, ok := rep.Stats("Tel Aviv")
	if !ok || s.Count != 2 {
		t.Errorf("Tel Aviv stats = %+v, ok=%v", s, ok)
	}
}

func TestParserGrowsForLongLines(t *testing.T) {
	key := strings.Repeat("x", 100)
	data := key + ";1.5\nshort;2.5\n"
	rep, rows := drainAll(t, data, 8)
	if rows != 2 {
		t.Fatalf("rows = %d, want 2", rows)
	}
	if s, ok := rep.Stats(key); !ok || s.Min != 1.5 {
		t.Errorf("long key stats = %+v, ok=%v", s, ok)
	}
}

func TestParserSkipsMalformed(t *testing.T) {
	data := "a;1.0\nBadLine\nb;2.0\nc;1;2\nd;abc\n\nb;4.0\n"
	rep, rows := drainAll(t, data, 64)
	if rows != 3 {
		t.Fatalf("rows = %d, want 3", rows)
	}
	if rep.Len() != 2 {
		t.Fatalf("keys = %v, want [a b]", rep.Keys())
	}
	if s, _ := rep.Stats("b"); s.Count != 2 || s.Sum != 6.0 {
		t.Errorf("b stats = %+v", s)
	}
}

func TestParserCRLF(t *testing.T) {
	data := "a;1.5\r\nb;-2.5\r\n"
	rep, rows := drainAll(t, data, 64)
	if rows != 2 {
		t.Fatalf("rows = %d, want 2", rows)
	}
	if s, _ := rep.Stats("b"); s.Max != -2.5 {
		t.Errorf("b stats = %+v, CR leaked into the value", s)
	}
}

func TestParserNoTrailingNewline(t *testing.T) {
	rep, rows := drainAll(t, "a;1.0\nb;2.0", 64)
	if rows != 2 || rep.Len() != 2 {
		t.Errorf("rows = %d, keys = %v", rows, rep.Keys())
	}
}

func TestParserCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	data := []byte("a;1.0\n")
	p := newParser(bytes.NewReader(data), ByteRange{0, int64(len(data)) - 1}, ';', 64)
	if _, err := p.drain(ctx, NewAggregate()); err == nil {
		t.Error("drain ignored a cancelled context")
	}
}

func TestParserRangeSubset(t *testing.T) {
	// Only lines fully inside the range are parsed.
	data := "aa;1.0\nbb;2.0\ncc;3.0\n"
	agg := NewAggregate()
	p := newParser(bytes.NewReader([]byte(data)), ByteRange{7, 13}, ';', 64)
	rows, err := p.drain(context.Background(), agg)
	if err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Fatalf("rows = %d, want 1", rows)
	}
	if _, ok := BuildReport(agg).Stats("bb"); !ok {
		t.Error("range [7,13] should contain only line bb")
	}
}

func BenchmarkDecodeValue(b *testing.B) {
	in := []byte("-23.7")
	for i := 0; i < b.N; i++ {
		if _, ok := decodeValue(in); !ok {
			b.Fatal("rejected")
		}
	}
}

func BenchmarkParser(b *testing.B) {
	var sb strings.Builder
	rnd := rand.New(rand.NewSource(3))
	for i := 0; i < 10000; i++ {
		fmt.Fprintf(&sb, "station-%03d;%.1f\n", rnd.Intn(100), float64(rnd.Intn(1999)-999)/10)
	}
	data := []byte(sb.String())
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p := newParser(bytes.NewReader(data), ByteRange{0, int64(len(data)) - 1}, ';', DefaultBufferSize)
		if _, err := p.drain(context.Background(), NewAggregate()); err != nil {
			b.Fatal(err)
		}
	}
}
