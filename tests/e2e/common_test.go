package e2e

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// buildWhiteboardBinary builds the whiteboard binary in the specified directory
// and returns its path. It handles the build command execution and error checking.
func buildWhiteboardBinary(t *testing.T, dir string) string {
	t.Helper()
	bin := filepath.Join(dir, "whiteboard.exe")
	// Assumes tests are running from tests/e2e or similar depth.
	buildCmd := exec.Command("go", "build", "-o", bin, "../../cmd/whiteboard")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build whiteboard: %v\n%s", err, string(out))
	}
	return bin
}

// sandboxEnv points every per-user directory the CLI resolves into a temp
// home, so test runs never touch the real config, state, or recent catalog.
func sandboxEnv(t *testing.T) []string {
	t.Helper()
	home := t.TempDir()
	return append(os.Environ(),
		"HOME="+home,
		"USERPROFILE="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, ".config"),
		"XDG_DATA_HOME="+filepath.Join(home, ".local", "share"),
		"APPDATA="+filepath.Join(home, "AppData", "Roaming"),
		"LOCALAPPDATA="+filepath.Join(home, "AppData", "Local"),
	)
}

// runCmd executes a command and returns its combined output. A non-zero exit
// fails the test.
func runCmd(t *testing.T, dir string, env []string, name string, args ...string) string {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Env = env
	fmt.Printf("[%s] Executing: %s %v\n", dir, name, args)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Command %s %v failed in %s: %v\n%s", name, args, dir, err, string(out))
	}
	return string(out)
}

// runCmdExpectError executes a command that must exit non-zero and returns its
// combined output.
func runCmdExpectError(t *testing.T, dir string, env []string, name string, args ...string) string {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Env = env
	fmt.Printf("[%s] Executing (failure expected): %s %v\n", dir, name, args)
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("Command %s %v unexpectedly succeeded in %s:\n%s", name, args, dir, string(out))
	}
	return string(out)
}
