// Package cliphist wraps the cliphist clipboard-history tool and the
// wl-paste watcher that feeds it.
package cliphist

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"github.com/runger/glint/internal/picker"
)

// Client shells out to cliphist and wl-copy. It also manages a single
// "wl-paste --watch cliphist store" process so history keeps filling
// while the picker runs.
type Client struct {
	logger *slog.Logger

	mu      sync.Mutex
	watcher *exec.Cmd
}

var _ picker.ClipboardTool = (*Client)(nil)

// NewClient returns a client; Available reports whether the required
// binaries exist on PATH.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{logger: logger}
}

// Available reports whether cliphist and wl-copy are on PATH.
func (c *Client) Available() bool {
	for _, bin := range []string{"cliphist", "wl-copy"} {
		if _, err := exec.LookPath(bin); err != nil {
			c.logger.Debug("clipboard tool missing", "binary", bin)
			return false
		}
	}
	return true
}

// List returns the clipboard history, newest first, as cliphist
// reports it. Each line is "<id>\t<preview>".
func (c *Client) List(ctx context.Context) ([]picker.ClipboardRecord, error) {
	cmd := exec.CommandContext(ctx, "cliphist", "list")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("cliphist list: %w", err)
	}

	var records []picker.ClipboardRecord
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		id, content, ok := strings.Cut(line, "\t")
		if !ok {
			c.logger.Debug("skipping malformed history line", "line", line)
			continue
		}
		records = append(records, picker.ClipboardRecord{
			ToolID:  id,
			Content: content,
			Raw:     line,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cliphist list: scan output: %w", err)
	}
	return records, nil
}

// Delete removes one entry. cliphist identifies entries by the full
// list line, passed on stdin.
func (c *Client) Delete(ctx context.Context, raw string) error {
	cmd := exec.CommandContext(ctx, "cliphist", "delete")
	cmd.Stdin = strings.NewReader(raw)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("cliphist delete: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Wipe clears the entire history.
func (c *Client) Wipe(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "cliphist", "wipe")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("cliphist wipe: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Copy decodes an entry to its full content and places it on the
// Wayland clipboard via wl-copy.
func (c *Client) Copy(ctx context.Context, raw string) error {
	decode := exec.CommandContext(ctx, "cliphist", "decode")
	decode.Stdin = strings.NewReader(raw)
	content, err := decode.Output()
	if err != nil {
		return fmt.Errorf("cliphist decode: %w", err)
	}

	copyCmd := exec.CommandContext(ctx, "wl-copy")
	copyCmd.Stdin = bytes.NewReader(content)
	if out, err := copyCmd.CombinedOutput(); err != nil {
		return fmt.Errorf("wl-copy: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// EnsureWatcher starts "wl-paste --watch cliphist store" unless one is
// already running, either ours or one started elsewhere in the session.
func (c *Client) EnsureWatcher(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher != nil && c.watcher.Process != nil {
		return nil
	}
	if _, err := exec.LookPath("wl-paste"); err != nil {
		return fmt.Errorf("clipboard watcher: wl-paste not found: %w", err)
	}
	if watcherRunning(ctx) {
		c.logger.Debug("clipboard watcher already running elsewhere")
		return nil
	}

	cmd := exec.Command("wl-paste", "--watch", "cliphist", "store")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("clipboard watcher: start: %w", err)
	}
	c.watcher = cmd
	c.logger.Info("clipboard watcher started", "pid", cmd.Process.Pid)

	// Reap on exit so a crashed watcher can be restarted.
	go func(cmd *exec.Cmd) {
		err := cmd.Wait()
		c.mu.Lock()
		if c.watcher == cmd {
			c.watcher = nil
		}
		c.mu.Unlock()
		if err != nil {
			c.logger.Warn("clipboard watcher exited", "error", err)
		}
	}(cmd)
	return nil
}

// watcherRunning reports whether some wl-paste/cliphist watcher
// already exists in this session.
func watcherRunning(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "pgrep", "-f", "wl-paste.*cliphist")
	return cmd.Run() == nil
}

// StopWatcher kills the watcher this client started. Watchers started
// elsewhere are left alone.
func (c *Client) StopWatcher() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher == nil || c.watcher.Process == nil {
		return nil
	}
	err := c.watcher.Process.Kill()
	c.watcher = nil
	if err != nil {
		return fmt.Errorf("clipboard watcher: stop: %w", err)
	}
	return nil
}
