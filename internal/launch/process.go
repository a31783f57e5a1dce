package launch

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"devbox/internal/fileutil"
)

// Probe reports whether pid names a live process. Zombies count as dead.
func Probe(pid int) bool {
	if pid <= 0 {
		return false
	}
	if err := unix.Kill(pid, 0); err != nil && !errors.Is(err, unix.EPERM) {
		return false
	}
	return processState(pid) != 'Z'
}

// processState returns the state letter from /proc/<pid>/stat, or 0 when it
// cannot be read.
func processState(pid int) byte {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0
	}
	// The command name may contain spaces and parentheses; the state follows the last ')'.
	idx := bytes.LastIndexByte(data, ')')
	if idx < 0 || idx+2 >= len(data) {
		return 0
	}
	return data[idx+2]
}

// ErrInvalidPIDFile reports a PID file whose contents cannot be parsed.
var ErrInvalidPIDFile = errors.New("invalid pid file")

// pidRecord is what the PID file holds: the server PID and the process start
// time (field 22 of /proc/<pid>/stat) observed when it was spawned. The start
// time tells a recycled PID apart from the server.
type pidRecord struct {
	PID   int
	Start uint64
}

// ReadPID returns the PID recorded at path, or 0 when the file is missing.
func ReadPID(path string) (int, error) {
	rec, err := readPIDRecord(path)
	return rec.PID, err
}

func readPIDRecord(path string) (pidRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return pidRecord{}, nil
		}
		return pidRecord{}, fmt.Errorf("read pid file %q: %w", path, err)
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return pidRecord{}, nil
	}
	pid, err := strconv.Atoi(fields[0])
	if err != nil || pid <= 0 {
		return pidRecord{}, fmt.Errorf("%w: %q holds pid %q", ErrInvalidPIDFile, path, fields[0])
	}
	rec := pidRecord{PID: pid}
	if len(fields) > 1 {
		start, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return pidRecord{}, fmt.Errorf("%w: %q holds start time %q", ErrInvalidPIDFile, path, fields[1])
		}
		rec.Start = start
	}
	return rec, nil
}

// RecordPID writes pid and its current start time to path.
func RecordPID(path string, pid int) error {
	start, _ := processStartTime(pid)
	body := strconv.Itoa(pid) + "\n" + strconv.FormatUint(start, 10) + "\n"
	return fileutil.WriteFileAtomic(path, []byte(body), 0o644)
}

// owns reports whether rec still describes the live process it was written for.
func (rec pidRecord) owns() bool {
	if rec.Start == 0 || !Probe(rec.PID) {
		return false
	}
	start, ok := processStartTime(rec.PID)
	return ok && start == rec.Start
}

// processStartTime returns the start time of pid in clock ticks since boot.
func processStartTime(pid int) (uint64, bool) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0, false
	}
	idx := bytes.LastIndexByte(data, ')')
	if idx < 0 {
		return 0, false
	}
	// Fields after the command name start at field 3 (state).
	fields := strings.Fields(string(data[idx+1:]))
	if len(fields) < 20 {
		return 0, false
	}
	start, err := strconv.ParseUint(fields[19], 10, 64)
	if err != nil {
		return 0, false
	}
	return start, true
}

func removePID(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove pid file %q: %w", path, err)
	}
	return nil
}

// signalGroup signals the process group led by pid, falling back to the
// single process when the group is gone.
func signalGroup(pid int, sig unix.Signal) error {
	if err := unix.Kill(-pid, sig); err == nil {
		return nil
	}
	if err := unix.Kill(pid, sig); err != nil && !errors.Is(err, unix.ESRCH) {
		return err
	}
	return nil
}
