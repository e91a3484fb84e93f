package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pkg/profile"

	onebrc "github.com/tkim90/1brc"
)

func main() {
	var (
		file    = flag.String("file", "measurements.txt", "input file path")
		workers = flag.Int("workers", 0, "parallel tasks (0 = number of CPUs)")
		sep     = flag.String("sep", ";", "field separator, a single byte")
		buffer  = flag.Int("buffer", onebrc.DefaultBufferSize, "per-task read buffer size in bytes")
		window  = flag.Int("window", onebrc.DefaultScanWindow, "partitioner scan window size in bytes")
		useMMap = flag.Bool("mmap", false, "read through a shared memory mapping")
		prof    = flag.String("profile", "", `write a profile to the current directory: "cpu" or "mem"`)
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if len(*sep) != 1 {
		fmt.Fprintf(os.Stderr, "onebrc: -sep must be a single byte, got %q\n", *sep)
		os.Exit(2)
	}

	switch *prof {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	default:
		fmt.Fprintf(os.Stderr, "onebrc: unknown profile %q\n", *prof)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	started := time.Now()
	rep, err := onebrc.Run(context.Background(), onebrc.Config{
		Path:       *file,
		Workers:    *workers,
		Sep:        (*sep)[0],
		BufferSize: *buffer,
		ScanWindow: *window,
		MMap:       *useMMap,
		Logger:     logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "onebrc: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(rep.String())
	fmt.Fprintf(os.Stderr, "%.3fs\n", time.Since(started).Seconds())
}
