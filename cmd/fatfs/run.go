package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hupe1980/fatfs"
	"github.com/hupe1980/fatfs/region"
	"github.com/hupe1980/fatfs/snapshot"
)

// suite tallies named checks and prints one line per check.
type suite struct {
	out    io.Writer
	run    int
	passed int
}

func (s *suite) check(name string, ok bool) {
	s.run++
	if ok {
		s.passed++
		fmt.Fprintf(s.out, "[PASS] %s\n", name)
		return
	}
	fmt.Fprintf(s.out, "[FAIL] %s\n", name)
}

func (s *suite) failed() bool { return s.passed != s.run }

func newLogger(c LogConfig, w io.Writer) (*fatfs.Logger, error) {
	var cfg Config
	cfg.Log = c
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return fatfs.NewLogger(slog.NewJSONHandler(w, opts)), nil
	}
	return fatfs.NewLogger(slog.NewTextHandler(w, opts)), nil
}

func acquireRegion(c RegionConfig, size int) (*region.Region, error) {
	var opts []region.Option
	if limit, _ := parseOptionalBytes(c.MemoryLimit); limit > 0 {
		opts = append(opts, region.WithBudget(region.NewBudget(limit)))
	}

	switch c.Backing {
	case "anonymous":
		return region.Anonymous(size, opts...)
	case "file":
		return region.MapFile(c.Path, size, opts...)
	default:
		return region.Heap(size, opts...)
	}
}

func listing(fs *fatfs.FS) []string {
	var names []string
	for e := range fs.ListDir() {
		names = append(names, fmt.Sprintf("%s (%s)", e.Name, e.Kind))
	}
	return names
}

func printListing(w io.Writer, title string, fs *fatfs.FS) {
	fmt.Fprintln(w, title)
	for _, line := range listing(fs) {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

// run executes the harness scenario against a fresh region and optionally
// snapshots the result.
func run(ctx context.Context, cfg *Config, out, logOut io.Writer) error {
	start := time.Now()

	logger, err := newLogger(cfg.Log, logOut)
	if err != nil {
		return err
	}
	size, err := cfg.RegionSize()
	if err != nil {
		return err
	}

	r, err := acquireRegion(cfg.Region, size)
	if err != nil {
		return fmt.Errorf("failed to acquire region: %w", err)
	}
	defer r.Close()

	metrics := &fatfs.BasicMetricsCollector{}
	fs, err := fatfs.New(r.Bytes(),
		fatfs.WithLogger(logger),
		fatfs.WithMetricsCollector(metrics),
		fatfs.WithEntryTablePercent(cfg.Region.EntryPercent),
		fatfs.WithClampedReads(cfg.Region.ClampReads),
	)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "File system initialized.")
	fmt.Fprintf(out, "Total size: %s\n", humanize.IBytes(uint64(fs.TotalSize())))      //nolint:gosec // non-negative
	fmt.Fprintf(out, "Occupied size: %s\n", humanize.IBytes(uint64(fs.OccupiedSize()))) //nolint:gosec // non-negative

	s := &suite{out: out}
	scenario(s, fs, out)

	_, err = fatfs.New(make([]byte, fatfs.MinRegionSize-1))
	s.check("initialize rejects an undersized region", errors.Is(err, fatfs.ErrInsufficientSize))

	s.check("consistency check", fs.Check() == nil)

	if err := r.Sync(); err != nil {
		return fmt.Errorf("failed to sync region: %w", err)
	}

	if err := save(ctx, cfg.Snapshot, fs, logger, s); err != nil {
		return err
	}

	stats := metrics.GetStats()
	fmt.Fprintf(out, "Operations:\t%d creates, %d opens, %s written, %s read\n",
		stats.CreateCount, stats.OpenCount,
		humanize.IBytes(uint64(stats.WriteBytes)), humanize.IBytes(uint64(stats.ReadBytes))) //nolint:gosec // counters
	fmt.Fprintf(out, "Total tests ran:\t%d\n", s.run)
	fmt.Fprintf(out, "Total tests passed:\t%d\n", s.passed)
	fmt.Fprintf(out, "Time:\t%s\n", time.Since(start).Round(time.Microsecond))

	if s.failed() {
		return fmt.Errorf("%d of %d checks failed", s.run-s.passed, s.run)
	}
	return nil
}

func scenario(s *suite, fs *fatfs.FS, out io.Writer) {
	for _, step := range []func() error{
		func() error { return fs.CreateDir("dir1") },
		func() error { return fs.CreateDir("dir2") },
		func() error { return fs.ChangeDir("dir1") },
		func() error { return fs.CreateDir("dir3") },
		func() error { return fs.ChangeDir("dir3") },
		func() error { return fs.CreateDir("dir4") },
		func() error { return fs.CreateFile("file3.txt") },
		func() error { return fs.CreateFile("file4.txt") },
		func() error { return fs.ChangeDir("/") },
		func() error { return fs.CreateFile("file1.txt") },
		func() error { return fs.CreateFile("file2.txt") },
	} {
		if err := step(); err != nil {
			s.check(fmt.Sprintf("build tree: %v", err), false)
			return
		}
	}

	printListing(out, "Listing root directory:", fs)
	s.check("root listing", slices.Equal(listing(fs), []string{
		"dir1 (dir)", "dir2 (dir)", "file1.txt (file)", "file2.txt (file)",
	}))

	msg := []byte("Hello, World!")
	f, err := fs.Open("file1.txt")
	if err != nil {
		s.check("open file1.txt", false)
		return
	}
	n, err := f.Write(msg)
	s.check("write returns 13", err == nil && n == len(msg))

	attrs, err := f.Attributes()
	s.check("size is 13", err == nil && attrs.Size == int64(len(msg)))
	fmt.Fprintf(out, "Size of 'file1.txt': %s\n", humanize.IBytes(uint64(attrs.Size))) //nolint:gosec // non-negative

	_, err = f.Seek(0, fatfs.FromStart)
	s.check("seek to start", err == nil)
	got, err := f.ReadBytes(len(msg))
	s.check("read back", err == nil && string(got) == string(msg))
	_ = f.Close()

	fmt.Fprintf(out, "Occupied size: %s\n", humanize.IBytes(uint64(fs.OccupiedSize()))) //nolint:gosec // non-negative

	s.check("erase file1.txt", fs.EraseFile("file1.txt") == nil)
	s.check("erase non-empty dir1 fails", errors.Is(fs.EraseDir("dir1"), fatfs.ErrNotEmpty))
	s.check("erase empty dir2", fs.EraseDir("dir2") == nil)

	printListing(out, "Listing root directory after erasures:", fs)
	s.check("listing after erasures", slices.Equal(listing(fs), []string{
		"dir1 (dir)", "file2.txt (file)",
	}))
}

func save(ctx context.Context, c SnapshotConfig, fs *fatfs.FS, logger *fatfs.Logger, s *suite) error {
	store, err := openStore(ctx, c)
	if err != nil || store == nil {
		return err
	}

	compression, err := snapshot.ParseCompression(c.Compression)
	if err != nil {
		return err
	}
	ioLimit, err := parseOptionalBytes(c.IOLimit)
	if err != nil {
		return err
	}
	opts := []snapshot.Option{
		snapshot.WithCompression(compression),
		snapshot.WithLogger(logger),
		snapshot.WithIOLimit(ioLimit),
	}

	if err := snapshot.Save(ctx, store, c.Name, fs, opts...); err != nil {
		return err
	}

	restored, err := snapshot.Restore(ctx, store, c.Name, make([]byte, len(fs.Image())), opts...)
	s.check("snapshot round trip", err == nil && restored.Stats() == fs.Stats())
	return nil
}

func exitCode(err error) int {
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatfs:", err)
		return 1
	}
	return 0
}
