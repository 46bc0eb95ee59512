package cli

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func withoutEnv(keys ...string) []string {
	out := make([]string, 0, len(os.Environ()))
	for _, e := range os.Environ() {
		skip := false
		for _, key := range keys {
			if strings.HasPrefix(e, key+"=") {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, e)
		}
	}
	return out
}

func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	// internal/cli -> repo root
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func goExe() string {
	if runtime.GOOS == "windows" {
		return "go.exe"
	}
	return "go"
}

func buildBinary(t *testing.T) string {
	t.Helper()

	outPath := filepath.Join(t.TempDir(), "jdk25tracker-test")
	if runtime.GOOS == "windows" {
		outPath += ".exe"
	}

	cmd := exec.Command(goExe(), "build", "-o", outPath, "./cmd/jdk25tracker")
	cmd.Dir = repoRoot(t)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build jdk25tracker binary: %v; output=%s", err, string(out))
	}

	return outPath
}

// runBinary runs the binary in an empty directory so no .env or
// jdk25tracker.yaml is picked up.
func runBinary(t *testing.T, binary string, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(binary, args...)
	cmd.Dir = t.TempDir()
	cmd.Env = withoutEnv("SPREADSHEET_ID", "JDK25_SPREADSHEET_ID", "REPORTS_DIR", "LOG_FORMAT")

	out, err := cmd.CombinedOutput()
	if err == nil {
		return string(out), 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %T: %v; output=%s", err, err, string(out))
	}
	return string(out), exitErr.ProcessState.ExitCode()
}

func TestCLI_ExitCodes(t *testing.T) {
	binary := buildBinary(t)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{
			name:     "update without spreadsheet",
			args:     []string{"update", "tracking.json"},
			wantCode: 3,
			wantOut:  "no spreadsheet ID or URL provided",
		},
		{
			name:     "update with foreign spreadsheet host",
			args:     []string{"update", "tracking.json", "https://example.com/spreadsheets/d/abc"},
			wantCode: 3,
			wantOut:  "docs.google.com",
		},
		{
			name:     "validate without inputs",
			args:     []string{"validate", "missing.json"},
			wantCode: 3,
			wantOut:  "Java_25_Compatibility_check.csv",
		},
		{
			name:     "unknown flag",
			args:     []string{"manual", "--bogus"},
			wantCode: 3,
			wantOut:  "unknown flag",
		},
		{
			name:     "collect without dates",
			args:     []string{"collect"},
			wantCode: 3,
			wantOut:  "--start/--end",
		},
		{
			name:     "version",
			args:     []string{"version"},
			wantCode: 0,
			wantOut:  "jdk25tracker dev",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, code := runBinary(t, binary, tt.args...)
			if code != tt.wantCode {
				t.Fatalf("expected exit code %d, got %d; output=%s", tt.wantCode, code, out)
			}
			if !strings.Contains(out, tt.wantOut) {
				t.Fatalf("expected output to contain %q; output=%s", tt.wantOut, out)
			}
		})
	}
}
