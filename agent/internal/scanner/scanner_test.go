package scanner

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doniyusdinar/scanfleet/pkg/models"
)

// fakeScanner writes a shell script standing in for clamdscan
func fakeScanner(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "clamdscan")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestArgs(t *testing.T) {
	assert.Equal(t, []string{"--fdpass", "--multiscan", "/data"}, Args(models.ScanCommand{Path: "/data", Recursive: true}))
	assert.Equal(t, []string{"--fdpass", "/data"}, Args(models.ScanCommand{Path: "/data"}))
}

func TestExecuteClean(t *testing.T) {
	bin := fakeScanner(t, `echo "$@"; echo "Infected files: 0"; exit 0`)

	res := NewExecutor(bin).Execute(models.ScanCommand{Path: "/data", Recursive: true})
	assert.True(t, res.Success)
	assert.Zero(t, res.InfectedFiles)
	assert.Contains(t, res.Details, "--fdpass --multiscan /data")
}

func TestExecuteThreatsFound(t *testing.T) {
	bin := fakeScanner(t, `
echo "/data/a.exe: Win.Test.EICAR_HDB-1 FOUND"
echo "/data/b.doc: Doc.Macro FOUND"
echo "/data/c.txt: OK"
echo "Infected files: 2"
exit 1`)

	res := NewExecutor(bin).Execute(models.ScanCommand{Path: "/data", Recursive: true})
	assert.True(t, res.Success)
	assert.Equal(t, int32(2), res.InfectedFiles)
	assert.Contains(t, res.Details, "EICAR")
}

func TestExecuteScannerError(t *testing.T) {
	bin := fakeScanner(t, `echo "ERROR: Could not connect to clamd" >&2; exit 2`)

	res := NewExecutor(bin).Execute(models.ScanCommand{Path: "/data"})
	assert.False(t, res.Success)
	assert.Zero(t, res.InfectedFiles)
	// stderr is used when stdout is empty
	assert.Contains(t, res.Details, "Could not connect to clamd")
}

func TestExecuteLaunchFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-scanner")

	res := NewExecutor(missing).Execute(models.ScanCommand{Path: "/data"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Details, "Failed to execute "+missing)
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		name         string
		code         int
		stdout       string
		stderr       string
		wantSuccess  bool
		wantInfected int32
		wantDetails  string
	}{
		{"clean", 0, "ok\n", "", true, 0, "ok\n"},
		{"found", 1, "a: X FOUND\nb: Y FOUND\n", "", true, 2, "a: X FOUND\nb: Y FOUND\n"},
		{"found markers ignored on clean exit", 0, "a: X FOUND\n", "", true, 0, "a: X FOUND\n"},
		{"error falls back to stderr", 2, "", "boom", false, 0, "boom"},
		{"signal", -1, "partial", "", false, 0, "partial"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := interpret(tt.code, tt.stdout, tt.stderr)
			assert.Equal(t, tt.wantSuccess, res.Success)
			assert.Equal(t, tt.wantInfected, res.InfectedFiles)
			assert.Equal(t, tt.wantDetails, res.Details)
		})
	}
}

func TestNewExecutorDefaultBinary(t *testing.T) {
	assert.Equal(t, DefaultBinary, NewExecutor("").binary)
}
