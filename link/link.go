// Package link drives the external C toolchain: it writes the fixed
// runner stub and the generated assembly into a scratch directory,
// invokes the platform C compiler to produce an executable, and can
// run that executable and check for the runner's success sentinel.
package link

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrLinkFailed wraps a failure of the external C compiler invocation.
var ErrLinkFailed = errors.New("link: external compiler failed")

// ErrRunFailed indicates the linked executable did not complete
// successfully: either it exited nonzero, or its stderr never printed
// the runner's success sentinel.
var ErrRunFailed = errors.New("link: program run failed")

// successSentinel is what the runner stub prints to stderr right
// before a normal exit. Its absence is as good as a nonzero exit code.
const successSentinel = "Exited successfully\n"

// runnerStub is a fixed C source: it allocates a 4-million-byte
// zero-initialized tape, passes a pointer to its midpoint into
// bb_run (the entry symbol codegen/asm emits; the stub calls no other
// generated symbol), frees it, and prints the success sentinel.
const runnerStub = `#include <stdlib.h>
#include <stdio.h>

extern void bb_run(unsigned char *head);

int main(void) {
    size_t size = 4 * 1000 * 1000;
    unsigned char *tape = calloc(size, 1);
    if (!tape) {
        fprintf(stderr, "tape allocation failed\n");
        return 1;
    }
    bb_run(tape + size / 2);
    free(tape);
    fprintf(stderr, "Exited successfully\n");
    return 0;
}
`

// Driver owns one scratch directory for one compile+run cycle.
type Driver struct {
	// CC is the external C compiler invoked to assemble and link.
	// Defaults to "cc" when empty.
	CC string

	dir string
	exe string
}

// NewDriver creates a scratch directory under os.TempDir. Callers must
// call Close when done to remove it.
func NewDriver() (*Driver, error) {
	dir, err := os.MkdirTemp("", "brainbug-")
	if err != nil {
		return nil, fmt.Errorf("link: create scratch dir: %w", err)
	}
	return &Driver{dir: dir}, nil
}

// Close removes the scratch directory and everything in it.
func (d *Driver) Close() error {
	return os.RemoveAll(d.dir)
}

// Compile writes the runner stub and asmText to the scratch directory
// and invokes the C compiler to produce an executable named outName.
// It returns the path to that executable.
func (d *Driver) Compile(asmText, outName string) (string, error) {
	stubPath := filepath.Join(d.dir, "runner.c")
	if err := os.WriteFile(stubPath, []byte(runnerStub), 0o644); err != nil {
		return "", fmt.Errorf("link: write runner stub: %w", err)
	}

	asmPath := filepath.Join(d.dir, "program.s")
	if err := os.WriteFile(asmPath, []byte(asmText), 0o644); err != nil {
		return "", fmt.Errorf("link: write generated assembly: %w", err)
	}

	exePath := filepath.Join(d.dir, outName)
	cc := d.CC
	if cc == "" {
		cc = "cc"
	}

	var stderr bytes.Buffer
	cmd := exec.Command(cc, stubPath, asmPath, "-o", exePath)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %v: %s", ErrLinkFailed, err, tail(stderr.String(), 4096))
	}

	d.exe = exePath
	return exePath, nil
}

// Run executes the last-compiled executable, connecting stdin/stdout
// to in/out, and reports ErrRunFailed if the process exits nonzero or
// never printed the runner's success sentinel to stderr.
func (d *Driver) Run(in *os.File, out *os.File) error {
	if d.exe == "" {
		return fmt.Errorf("link: Run called before a successful Compile")
	}

	var stderr bytes.Buffer
	cmd := exec.Command(d.exe)
	cmd.Stdin = in
	cmd.Stdout = out
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	sawSentinel := strings.Contains(stderr.String(), successSentinel)
	if runErr != nil || !sawSentinel {
		return fmt.Errorf("%w: %v: %s", ErrRunFailed, runErr, tail(stderr.String(), 4096))
	}
	return nil
}

// tail returns the last n bytes of s, for bounding error messages that
// embed captured subprocess stderr.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
