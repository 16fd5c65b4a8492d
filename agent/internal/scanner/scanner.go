package scanner

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/doniyusdinar/scanfleet/pkg/logger"
	"github.com/doniyusdinar/scanfleet/pkg/models"
)

// DefaultBinary is the clamd client the agent shells out to
const DefaultBinary = "clamdscan"

// threatMarker marks an infected file in clamdscan output
const threatMarker = " FOUND"

// Result is the interpreted outcome of one scanner run
type Result struct {
	Success       bool
	Details       string
	InfectedFiles int32
}

type Executor struct {
	binary string
}

func NewExecutor(binary string) *Executor {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Executor{binary: binary}
}

// Args builds the scanner command line for a scan command
func Args(cmd models.ScanCommand) []string {
	args := []string{"--fdpass"}
	if cmd.Recursive {
		args = append(args, "--multiscan")
	}
	return append(args, cmd.Path)
}

// Execute runs the scanner and waits for it to exit. Exit code 0 means
// clean, 1 means threats were found, anything else is a scanner error.
// A started scan cannot be interrupted.
func (e *Executor) Execute(cmd models.ScanCommand) Result {
	var stdout, stderr bytes.Buffer
	c := exec.Command(e.binary, Args(cmd)...)
	c.Stdout = &stdout
	c.Stderr = &stderr

	code := 0
	if err := c.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			logger.Log.Errorf("Failed to execute %s: %v", e.binary, err)
			return Result{
				Success: false,
				Details: fmt.Sprintf("Failed to execute %s: %v", e.binary, err),
			}
		}
		code = exitErr.ExitCode()
	}

	return interpret(code, stdout.String(), stderr.String())
}

func interpret(code int, stdout, stderr string) Result {
	res := Result{
		Success: code == 0 || code == 1,
		Details: stdout,
	}
	if res.Details == "" {
		res.Details = stderr
	}
	if code == 1 {
		res.InfectedFiles = countThreats(stdout)
	}
	return res
}

func countThreats(output string) int32 {
	var n int32
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, threatMarker) {
			n++
		}
	}
	return n
}
