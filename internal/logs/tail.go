package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	scanBufferSize = 64 * 1024
	maxLineSize    = 1024 * 1024
	defaultPoll    = 250 * time.Millisecond
)

// Filter selects log entries. Each clause lists alternatives; an entry passes
// when it contains at least one alternative of every clause. The zero value
// keeps every entry.
type Filter struct {
	Clauses [][]string
}

// Require adds a clause satisfied by any of the given substrings.
func (f *Filter) Require(alternatives ...string) {
	f.Clauses = append(f.Clauses, alternatives)
}

// Match reports whether entry satisfies every clause.
func (f Filter) Match(entry string) bool {
	for _, clause := range f.Clauses {
		matched := false
		for _, needle := range clause {
			if needle != "" && strings.Contains(entry, needle) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// entryBuilder joins a console entry's header with its indented attribute lines.
type entryBuilder struct {
	lines []string
}

func (b *entryBuilder) add(line string, emit func(string)) {
	continuation := strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
	if !continuation {
		b.flush(emit)
	}
	b.lines = append(b.lines, line)
}

func (b *entryBuilder) flush(emit func(string)) {
	if len(b.lines) == 0 {
		return
	}
	emit(strings.Join(b.lines, "\n"))
	b.lines = b.lines[:0]
}

// Last returns up to limit trailing entries of path that pass filter, plus the
// end-of-file offset. A missing file yields no entries and offset 0.
func Last(path string, limit int, filter Filter) ([]string, int64, error) {
	file, err := open(path)
	if err != nil || file == nil {
		return nil, 0, err
	}
	defer file.Close()

	if limit <= 0 {
		offset, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, offset, nil
	}

	ring := make([]string, limit)
	count, next := 0, 0
	keep := func(entry string) {
		if !filter.Match(entry) {
			return
		}
		ring[next] = entry
		next = (next + 1) % limit
		if count < limit {
			count++
		}
	}
	var builder entryBuilder
	offset, err := scanFrom(file, 0, func(line string) { builder.add(line, keep) })
	if err != nil {
		return nil, 0, err
	}
	builder.flush(keep)

	entries := make([]string, 0, count)
	start := 0
	if count == limit {
		start = next
	}
	for i := range count {
		entries = append(entries, ring[(start+i)%limit])
	}
	return entries, offset, nil
}

// Follow polls path from offset and calls emit for every new entry that passes
// filter. It returns nil when ctx ends. A truncated file is read from the start.
func Follow(ctx context.Context, path string, offset int64, poll time.Duration, filter Filter, emit func(string)) error {
	if poll <= 0 {
		poll = defaultPoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	keep := func(entry string) {
		if filter.Match(entry) {
			emit(entry)
		}
	}
	for {
		var builder entryBuilder
		next, err := readFrom(path, offset, func(line string) { builder.add(line, keep) })
		if err != nil {
			return err
		}
		// Each entry is written in one call, so a poll never ends mid-entry.
		builder.flush(keep)
		offset = next

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func readFrom(path string, offset int64, fn func(string)) (int64, error) {
	file, err := open(path)
	if err != nil || file == nil {
		return 0, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}
	return scanFrom(file, offset, fn)
}

func open(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("log path %q is a directory", path)
	}
	return file, nil
}

// scanFrom reads complete lines only; a trailing partial line is left for the
// next read so a line being written is never split.
func scanFrom(file *os.File, offset int64, fn func(string)) (int64, error) {
	reader := bufio.NewReaderSize(file, scanBufferSize)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return offset, nil
			}
			return offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		text := strings.TrimRight(line, "\r\n")
		if len(text) > maxLineSize {
			text = text[:maxLineSize]
		}
		fn(text)
	}
}
