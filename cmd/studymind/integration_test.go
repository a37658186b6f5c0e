package main

import (
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/csheth/studymind/internal/tuitest"
)

func TestDashboardShowsWelcome(t *testing.T) {
	t.Parallel()

	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	session, err := tuitest.Start(tuitest.Options{
		Command: []string{binary, "--no-alt-screen", "--no-relay"},
		Dir:     cmdDir,
		Env:     isolatedEnv(t),
		Width:   100,
		Height:  32,
	})
	if err != nil {
		t.Fatalf("start CLI: %v", err)
	}
	if screen, err := session.WaitFor("StudyMind AI", 5*time.Second); err != nil {
		_ = session.Quit(time.Second)
		t.Fatalf("welcome not rendered: %v\n%s", err, screen)
	}
	if _, err := session.WaitFor("Enter a PDF path or URL", 2*time.Second); err != nil {
		_ = session.Quit(time.Second)
		t.Fatalf("composer prompt not rendered: %v", err)
	}
	if err := session.Quit(5 * time.Second); err != nil {
		t.Fatalf("quit: %v", err)
	}
}

func TestDashboardReportsMissingFile(t *testing.T) {
	t.Parallel()

	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	session, err := tuitest.Start(tuitest.Options{
		Command: []string{binary, "--no-alt-screen", "--no-relay"},
		Dir:     t.TempDir(),
		Env:     isolatedEnv(t),
	})
	if err != nil {
		t.Fatalf("start CLI: %v", err)
	}
	defer func() { _ = session.Quit(5 * time.Second) }()

	if _, err := session.WaitFor("Enter a PDF path or URL", 5*time.Second); err != nil {
		t.Fatalf("composer prompt not rendered: %v", err)
	}
	if err := session.Type("absent.pdf"); err != nil {
		t.Fatalf("type path: %v", err)
	}
	if err := session.Press(tuitest.Enter); err != nil {
		t.Fatalf("press enter: %v", err)
	}
	if screen, err := session.WaitFor("no such file or directory", 5*time.Second); err != nil {
		t.Fatalf("load error not shown: %v\n%s", err, screen)
	}
}

func TestPrefsCommandsRoundTrip(t *testing.T) {
	t.Parallel()

	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	env := isolatedEnv(t)

	run := func(args ...string) string {
		t.Helper()
		cmd := exec.Command(binary, args...)
		cmd.Env = append(cmd.Environ(), env...)
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("%s: %v\n%s", strings.Join(args, " "), err, out)
		}
		return string(out)
	}

	run("prefs", "set", "--provider", "OpenRouter", "--key", "sk-test-abcd1234")
	out := run("prefs", "show")
	if !strings.Contains(out, "openrouter") || !strings.Contains(out, "****1234") {
		t.Fatalf("unexpected prefs output:\n%s", out)
	}
	if strings.Contains(out, "sk-test") {
		t.Fatalf("prefs show leaked the key:\n%s", out)
	}

	run("prefs", "forget")
	if out := run("prefs", "show"); strings.Count(out, "(not set)") != 2 {
		t.Fatalf("prefs not cleared:\n%s", out)
	}

	cmd := exec.Command(binary, "prefs", "set", "--provider", "nope")
	cmd.Env = append(cmd.Environ(), env...)
	if err := cmd.Run(); err == nil {
		t.Fatalf("unknown provider should be rejected")
	}
}

// isolatedEnv points every XDG location at a temp dir and blanks the
// variables that would leak the caller's credentials or relay.
func isolatedEnv(t *testing.T) []string {
	t.Helper()
	root := t.TempDir()
	return []string{
		"XDG_CONFIG_HOME=" + filepath.Join(root, "config"),
		"XDG_DATA_HOME=" + filepath.Join(root, "data"),
		"XDG_CACHE_HOME=" + filepath.Join(root, "cache"),
		"HOME=" + root,
		"STUDYMIND_API_KEY=",
		"STUDYMIND_PROVIDER=",
		"STUDYMIND_RELAY_ADDR=127.0.0.1:1",
	}
}

func moduleDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	return filepath.Dir(file)
}

func buildBinary(t *testing.T, cmdDir string) string {
	t.Helper()
	tmp := t.TempDir()
	name := "studymind-integration"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	binPath := filepath.Join(tmp, name)
	cmd := exec.Command("go", "build", "-o", binPath, ".")
	cmd.Dir = cmdDir
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build CLI: %v\n%s", err, output)
	}
	return binPath
}
