package link_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Urethramancer/brainbug/link"
)

// fakeCC is a tiny shell script standing in for a C compiler: it
// takes the place of `cc` so these tests never depend on a real
// toolchain being installed. $@ ends with "-o outpath"; we just need
// an executable file to appear there.
func writeFakeCC(t *testing.T, dir string, succeed bool) string {
	t.Helper()
	path := filepath.Join(dir, "fakecc.sh")
	body := "#!/bin/sh\n"
	if succeed {
		body += "for last; do :; done\ncp \"$0\" \"$last\"\nchmod +x \"$last\"\nexit 0\n"
	} else {
		body += "echo 'fake compiler error' 1>&2\nexit 1\n"
	}
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write fake cc: %v", err)
	}
	return path
}

func TestCompileWritesStubAndAsm(t *testing.T) {
	d, err := link.NewDriver()
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}
	defer d.Close()

	d.CC = writeFakeCC(t, t.TempDir(), true)
	exe, err := d.Compile(".text\n", "out")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := os.Stat(exe); err != nil {
		t.Errorf("executable not created: %v", err)
	}
}

func TestCompileFailurePropagatesErrLinkFailed(t *testing.T) {
	d, err := link.NewDriver()
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}
	defer d.Close()

	d.CC = writeFakeCC(t, t.TempDir(), false)
	_, err = d.Compile(".text\n", "out")
	if !errors.Is(err, link.ErrLinkFailed) {
		t.Errorf("err = %v, want ErrLinkFailed", err)
	}
}

func TestRunBeforeCompileErrors(t *testing.T) {
	d, err := link.NewDriver()
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}
	defer d.Close()

	if err := d.Run(os.Stdin, os.Stdout); err == nil {
		t.Errorf("want error calling Run before Compile")
	}
}

func TestCloseRemovesScratchDir(t *testing.T) {
	d, err := link.NewDriver()
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}
	d.CC = writeFakeCC(t, t.TempDir(), true)
	exe, err := d.Compile(".text\n", "out")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(exe); err == nil {
		t.Errorf("expected scratch dir to be removed")
	}
}
