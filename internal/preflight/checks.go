package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"devbox/internal/appconfig"
	"devbox/internal/config"
)

const healthCheckName = "Web UI health"

// HealthTimeout bounds the HTTP health probe.
const HealthTimeout = 3 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckStateDirectory is CheckDirectoryAccess for the state dir, which is
// created on the first run and so may legitimately be absent.
func CheckStateDirectory(path string) Result {
	const name = "State directory"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (created on first run)", path)}
	}
	return CheckDirectoryAccess(name, path)
}

// CheckHealth issues a GET against the web UI health endpoint.
func CheckHealth(ctx context.Context, url string) Result {
	checkCtx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()

	client := &http.Client{Timeout: HealthTimeout}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Name: healthCheckName, Detail: fmt.Sprintf("bad url (%v)", err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: healthCheckName, Detail: summarizeHealthError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Result{Name: healthCheckName, Passed: true, Detail: fmt.Sprintf("%s (%d)", url, resp.StatusCode)}
	}
	return Result{Name: healthCheckName, Detail: fmt.Sprintf("%s returned %d", url, resp.StatusCode)}
}

// CheckAppConfig reports whether the app config exists and carries the LLM
// settings the web UI needs.
func CheckAppConfig(cfg *config.Config) Result {
	const name = "App config"
	readiness, err := appconfig.Inspect(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if readiness.Ready() {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (model %s)", readiness.Path, readiness.Model)}
	}
	return Result{Name: name, Detail: fmt.Sprintf("%s (missing: %s)", readiness.Path, strings.Join(readiness.Missing(), ", "))}
}

func summarizeHealthError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out"
	}
	if errors.Is(err, unix.ECONNREFUSED) {
		return "connection refused"
	}
	return err.Error()
}
