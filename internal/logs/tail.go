package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// PollInterval is how often Follow checks the file for new output.
const PollInterval = 250 * time.Millisecond

// TailOptions controls a single Tail call. A negative Offset reads the last
// Limit lines; a non-negative Offset reads everything after it.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// TailResult carries the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
	// Truncated is set when the file shrank below the requested offset.
	Truncated bool
}

// Tail reads lines from path. A missing file yields an empty result.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	result := TailResult{Offset: opts.Offset}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			result.Offset = 0
			return result, nil
		}
		return result, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return result, fmt.Errorf("log path %q is a directory", path)
	}
	if opts.Wait < 0 {
		opts.Wait = 0
	}

	if opts.Offset < 0 {
		lines, offset, err := readLastLines(path, opts.Limit)
		if err != nil {
			return result, err
		}
		result.Lines, result.Offset = lines, offset
	} else {
		offset := opts.Offset
		if offset > info.Size() {
			offset = 0
			result.Truncated = true
		}
		lines, next, err := readForward(path, offset)
		if err != nil {
			return result, err
		}
		result.Lines, result.Offset = lines, next
	}

	if opts.Follow && opts.Wait > 0 && len(result.Lines) == 0 {
		return waitForLines(ctx, path, result.Offset, opts.Wait)
	}
	return result, nil
}

// Follow prints the last limit lines of path to w and then keeps printing
// new lines until ctx is cancelled.
func Follow(ctx context.Context, path string, limit int, w io.Writer) error {
	result, err := Tail(ctx, path, TailOptions{Offset: -1, Limit: limit})
	if err != nil {
		return err
	}
	writeLines(w, result.Lines)
	offset := result.Offset

	for {
		next, err := Tail(ctx, path, TailOptions{Offset: offset, Follow: true, Wait: time.Second})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		if next.Truncated {
			fmt.Fprintln(w, "--- log truncated (web UI restarted) ---")
		}
		writeLines(w, next.Lines)
		offset = next.Offset
		if ctx.Err() != nil {
			return nil
		}
	}
}

func writeLines(w io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

func readLastLines(path string, limit int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, end, nil
	}

	ring := newLineRing(limit)
	scanner := newScanner(file)
	for scanner.Scan() {
		ring.push(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, fmt.Errorf("determine log offset: %w", err)
	}
	return ring.slice(), offset, nil
}

func readForward(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	// Only complete lines are consumed so a partially written line is
	// picked up whole on the next poll.
	reader := bufio.NewReader(file)
	var lines []string
	consumed := offset
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, 0, fmt.Errorf("read log file: %w", err)
		}
		consumed += int64(len(line))
		lines = append(lines, line[:len(line)-1])
	}
	return lines, consumed, nil
}

func waitForLines(ctx context.Context, path string, offset int64, wait time.Duration) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	result := TailResult{Offset: offset}
	for {
		if info, err := os.Stat(path); err == nil && info.Size() < offset {
			offset = 0
			result.Truncated = true
		}
		lines, next, err := readForward(path, offset)
		if err != nil {
			return result, err
		}
		result.Offset = next
		if len(lines) > 0 {
			result.Lines = lines
			return result, nil
		}
		if time.Now().After(deadline) {
			return result, nil
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}
	}
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}

type lineRing struct {
	items []string
	next  int
	full  bool
}

func newLineRing(size int) *lineRing {
	return &lineRing{items: make([]string, size)}
}

func (r *lineRing) push(line string) {
	r.items[r.next] = line
	r.next = (r.next + 1) % len(r.items)
	if r.next == 0 {
		r.full = true
	}
}

func (r *lineRing) slice() []string {
	if !r.full {
		return append([]string(nil), r.items[:r.next]...)
	}
	out := make([]string, 0, len(r.items))
	out = append(out, r.items[r.next:]...)
	return append(out, r.items[:r.next]...)
}
