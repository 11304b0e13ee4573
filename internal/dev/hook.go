package dev

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strings"

	"github.com/creack/pty"
)

// HookRunner runs a shell command after each successful generation. Output
// is read through a pseudo-terminal so tools keep their colored output.
type HookRunner struct {
	Command string
	Dir     string

	// Output receives each non-empty output line. Nil logs through slog.
	Output func(line string)
}

// NewHookRunner returns a runner for command, or nil if command is empty
func NewHookRunner(command, dir string) *HookRunner {
	if strings.TrimSpace(command) == "" {
		return nil
	}
	return &HookRunner{Command: command, Dir: dir}
}

// Run executes the hook and waits for it to exit
func (h *HookRunner) Run(ctx context.Context) error {
	cmd := shellCommand(ctx, h.Command)
	cmd.Dir = h.Dir
	cmd.Env = os.Environ()

	slog.Debug("running hook", "cmd", h.Command)

	ptmx, err := pty.Start(cmd)
	if errors.Is(err, pty.ErrUnsupported) {
		return h.runWithPipes(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to start hook with PTY: %w", err)
	}
	defer ptmx.Close()

	// The PTY read fails with EIO once the child exits; that ends the copy.
	h.copyLines(ptmx)

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("hook %q failed: %w", h.Command, err)
	}
	return nil
}

func (h *HookRunner) runWithPipes(ctx context.Context) error {
	cmd := shellCommand(ctx, h.Command)
	cmd.Dir = h.Dir

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start hook: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.copyLines(pr)
	}()

	err := cmd.Wait()
	pw.Close()
	<-done

	if err != nil {
		return fmt.Errorf("hook %q failed: %w", h.Command, err)
	}
	return nil
}

// maxHookLine bounds a single line of hook output
const maxHookLine = 1 << 20

func (h *HookRunner) copyLines(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxHookLine)
	for scanner.Scan() {
		line := formatHookLine(scanner.Text())
		if line == "" {
			continue
		}
		if h.Output != nil {
			h.Output(line)
		} else {
			slog.Info(line, "source", "hook")
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("hook output truncated", "err", err)
	}
	// The child blocks on a full pty or pipe unless the rest is read
	_, _ = io.Copy(io.Discard, r)
}

func shellCommand(ctx context.Context, command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	return exec.CommandContext(ctx, "sh", "-c", command)
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

// formatHookLine strips terminal escapes and carriage returns
func formatHookLine(line string) string {
	line = ansiEscape.ReplaceAllString(line, "")
	if i := strings.LastIndexByte(line, '\r'); i >= 0 {
		// progress bars redraw the line; keep the final state
		if rest := line[i+1:]; strings.TrimSpace(rest) != "" {
			line = rest
		} else {
			line = line[:i]
		}
	}
	return strings.TrimRight(line, " \t")
}
