// Package adb drives a device through the adb executable.
package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/frudas24/devmirror/internal/logging"
)

const (
	// PullModePull copies the remote file with adb pull through a temp file.
	PullModePull = "pull"
	// PullModeExecOut streams the remote file over adb exec-out.
	PullModeExecOut = "exec-out"
	// CompressionGzip compresses on the device and inflates locally (exec-out only).
	CompressionGzip = "gzip"
)

// ErrNoDevice reports that no attached device is in the ready state.
var ErrNoDevice = errors.New("adb: no device")

// Result is the outcome of one adb invocation. A non-zero exit is OK=false, not an error.
type Result struct {
	OK     bool
	Stdout string
	Stderr string
}

// Transport is the command and file-pull surface the mirror consumes.
type Transport interface {
	Pull(ctx context.Context, remotePath string) ([]byte, error)
	Shell(ctx context.Context, args ...string) Result
	ListDevices(ctx context.Context) (bool, error)
}

// Options configures a Client.
type Options struct {
	Path           string
	Serial         string
	CommandTimeout time.Duration
	PullTimeout    time.Duration
	PullMode       string
	Compression    string
	TempDir        string
}

// execFunc runs a process and returns its raw output.
type execFunc func(ctx context.Context, name string, args []string) (stdout, stderr []byte, err error)

// Client runs adb commands against one device.
type Client struct {
	opts   Options
	logger *slog.Logger
	exec   execFunc
}

// NewClient returns a Client using the given options.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if opts.Path == "" {
		opts.Path = "adb"
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = 10 * time.Second
	}
	if opts.PullTimeout <= 0 {
		opts.PullTimeout = 10 * time.Second
	}
	if opts.PullMode == "" {
		opts.PullMode = PullModePull
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{opts: opts, logger: logger, exec: runProcess}
}

// Run executes adb with args and collects its output.
func (c *Client) Run(ctx context.Context, args ...string) Result {
	ctx, cancel := context.WithTimeout(ctx, c.opts.CommandTimeout)
	defer cancel()
	stdout, stderr, err := c.exec(ctx, c.opts.Path, c.withSerial(args))
	res := Result{OK: err == nil, Stdout: string(stdout), Stderr: string(stderr)}
	if err != nil {
		if res.Stderr == "" {
			res.Stderr = err.Error()
		}
		c.logger.Debug("adb command failed",
			logging.String("args", fmt.Sprint(args)),
			logging.Error(err))
	}
	return res
}

// Shell runs adb shell with args.
func (c *Client) Shell(ctx context.Context, args ...string) Result {
	return c.Run(ctx, append([]string{"shell"}, args...)...)
}

// ListDevices reports whether a device is attached and ready.
func (c *Client) ListDevices(ctx context.Context) (bool, error) {
	res := c.Run(ctx, "devices")
	if !res.OK {
		return false, fmt.Errorf("adb devices: %s", res.Stderr)
	}
	for _, d := range ParseDevices(res.Stdout) {
		if d.State != "device" {
			continue
		}
		if c.opts.Serial == "" || d.Serial == c.opts.Serial {
			return true, nil
		}
	}
	return false, nil
}

// Pull fetches a remote file using the configured pull mode.
func (c *Client) Pull(ctx context.Context, remotePath string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.PullTimeout)
	defer cancel()
	switch {
	case c.opts.PullMode == PullModeExecOut && c.opts.Compression == CompressionGzip:
		return c.pullGzip(ctx, remotePath)
	case c.opts.PullMode == PullModeExecOut:
		return c.pullExecOut(ctx, remotePath)
	default:
		return c.pullFile(ctx, remotePath)
	}
}

// pullFile copies remotePath into a temp file and reads it back.
func (c *Client) pullFile(ctx context.Context, remotePath string) ([]byte, error) {
	dir := c.opts.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, "devmirror-fb-*.raw")
	if err != nil {
		return nil, err
	}
	local := f.Name()
	_ = f.Close()
	defer func() { _ = os.Remove(local) }()

	_, stderr, err := c.exec(ctx, c.opts.Path, c.withSerial([]string{"pull", remotePath, filepath.Clean(local)}))
	if err != nil {
		return nil, pullError(remotePath, stderr, err)
	}
	return os.ReadFile(local)
}

// pullExecOut streams remotePath over stdout.
func (c *Client) pullExecOut(ctx context.Context, remotePath string) ([]byte, error) {
	stdout, stderr, err := c.exec(ctx, c.opts.Path, c.withSerial([]string{"exec-out", "cat", remotePath}))
	if err != nil {
		return nil, pullError(remotePath, stderr, err)
	}
	return stdout, nil
}

// pullGzip compresses remotePath on the device and inflates it locally.
func (c *Client) pullGzip(ctx context.Context, remotePath string) ([]byte, error) {
	stdout, stderr, err := c.exec(ctx, c.opts.Path, c.withSerial([]string{"exec-out", "gzip", "-c", remotePath}))
	if err != nil {
		return nil, pullError(remotePath, stderr, err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(stdout))
	if err != nil {
		return nil, fmt.Errorf("inflate %s: %w", remotePath, err)
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("inflate %s: %w", remotePath, err)
	}
	return data, nil
}

// withSerial prefixes args with -s when a serial is pinned.
func (c *Client) withSerial(args []string) []string {
	if c.opts.Serial == "" {
		return args
	}
	return append([]string{"-s", c.opts.Serial}, args...)
}

// pullError folds stderr into a pull failure.
func pullError(remotePath string, stderr []byte, err error) error {
	msg := string(bytes.TrimSpace(stderr))
	if msg == "" {
		return fmt.Errorf("pull %s: %w", remotePath, err)
	}
	return fmt.Errorf("pull %s: %s: %w", remotePath, msg, err)
}

// runProcess executes name with args and captures both output streams.
func runProcess(ctx context.Context, name string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	configureCmd(cmd)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if ctx.Err() != nil && err != nil {
		err = fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	return stdout.Bytes(), stderr.Bytes(), err
}
