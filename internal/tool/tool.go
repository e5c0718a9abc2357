// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tool locates and runs the external programs docutils delegates
// conversions to: LibreOffice for documents, poppler or MuPDF for page
// rendering.
package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"syscall"
)

// Well-known binaries. Detection order matters: the first one found wins.
var (
	OfficeBinaries     = []string{"libreoffice", "soffice"}
	RasterizerBinaries = []string{"pdftoppm", "mutool"}
)

// ErrNotFound is returned when no candidate binary is on PATH, or when a
// binary disappears between detection and execution.
var ErrNotFound = errors.New("executable not found")

// Tool runs one external program.
type Tool interface {
	// Name returns the binary name, e.g. "libreoffice".
	Name() string

	// Run executes the binary with args. Stdout is written to stdout when
	// non-nil; stderr is captured and attached to the returned *RunError.
	Run(ctx context.Context, stdout io.Writer, args ...string) error
}

// RunError describes a failed invocation.
type RunError struct {
	Name     string
	Args     []string
	ExitCode int
	Stderr   string
	TimedOut bool
	Err      error
}

func (e *RunError) Error() string {
	var b strings.Builder
	switch {
	case e.TimedOut:
		fmt.Fprintf(&b, "%s timed out", e.Name)
	case e.ExitCode != 0:
		fmt.Fprintf(&b, "%s exited with code %d", e.Name, e.ExitCode)
	default:
		fmt.Fprintf(&b, "%s failed: %v", e.Name, e.Err)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, ": %s", e.Stderr)
	}
	return b.String()
}

func (e *RunError) Unwrap() error { return e.Err }

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

var defaultExec executor = osExecutor{}

// binary implements Tool for a named program.
type binary struct {
	name string
	exec executor
}

func (b *binary) Name() string { return b.name }

func (b *binary) Run(ctx context.Context, stdout io.Writer, args ...string) error {
	if stdout == nil {
		stdout = io.Discard
	}
	var stderr bytes.Buffer
	err := b.exec.Run(ctx, b.name, args, stdout, &stderr)
	if err == nil {
		return nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%s: %w", b.name, ErrNotFound)
	}

	re := &RunError{
		Name:   b.name,
		Args:   args,
		Stderr: strings.TrimSpace(stderr.String()),
		Err:    err,
	}
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		re.TimedOut = true
		re.Err = ctxErr
		return re
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			re.ExitCode = status.ExitStatus()
		} else {
			re.ExitCode = exitErr.ExitCode()
		}
	}
	return re
}

// Detect returns a Tool for the first candidate found on PATH.
func Detect(candidates ...string) (Tool, error) {
	return detect(defaultExec, candidates...)
}

// New returns a Tool for name without checking PATH.
func New(name string) Tool {
	return &binary{name: name, exec: defaultExec}
}

func detect(exec executor, candidates ...string) (Tool, error) {
	for _, c := range candidates {
		if _, err := exec.LookPath(c); err == nil {
			return &binary{name: c, exec: exec}, nil
		}
	}
	return nil, fmt.Errorf("none of %s found on PATH: %w", strings.Join(candidates, ", "), ErrNotFound)
}
