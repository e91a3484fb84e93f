// Command datagen writes a synthetic input file of key;value lines for
// benchmarks and manual runs. Values are signed decimals with one
// fractional digit in [-99.9, 99.9].
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
)

func main() {
	var (
		out  = flag.String("out", "measurements.txt", "output file path")
		rows = flag.Int64("rows", 1_000_000, "number of lines to write")
		keys = flag.Int("keys", 400, "number of distinct keys")
		seed = flag.Int64("seed", 1, "random seed")
	)
	flag.Parse()

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "datagen: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	rnd := rand.New(rand.NewSource(*seed))
	names := make([]string, *keys)
	for i := range names {
		names[i] = fmt.Sprintf("station-%04d", i)
	}

	w := bufio.NewWriterSize(f, 1<<20)
	for i := int64(0); i < *rows; i++ {
		v := float64(rnd.Intn(1999)-999) / 10
		fmt.Fprintf(w, "%s;%.1f\n", names[rnd.Intn(len(names))], v)
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "datagen: %v\n", err)
		os.Exit(1)
	}
}
