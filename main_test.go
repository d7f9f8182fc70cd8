package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/vyPal/cstmt/lib/parser"
	"github.com/vyPal/cstmt/lib/project"
)

// run executes the CLI with args and returns stdout, stderr and the exit
// code it asked for.
func run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	code := 0
	oldExiter, oldErrWriter := cli.OsExiter, cli.ErrWriter
	var stdout, stderr bytes.Buffer
	cli.OsExiter = func(c int) { code = c }
	cli.ErrWriter = &stderr
	defer func() { cli.OsExiter, cli.ErrWriter = oldExiter, oldErrWriter }()

	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	if err := app.Run(append([]string{"cstmt"}, args...)); err != nil && code == 0 {
		t.Fatalf("run %v: %v", args, err)
	}
	return stdout.String(), stderr.String(), code
}

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckReportsDiagnostics(t *testing.T) {
	dir := t.TempDir()
	good := writeSource(t, dir, "good.c", "int main(void) { if (1) return 0; return 1; }\n")
	bad := writeSource(t, dir, "bad.c", "int main(void) {\n\tif 1) return 0;\n\tx = 2\n}\n")

	if _, stderr, code := run(t, "check", good); code != 0 || stderr != "" {
		t.Errorf("clean file: code %d, stderr %q", code, stderr)
	}

	_, stderr, code := run(t, "check", bad)
	if code != 1 {
		t.Errorf("exit code %d, want 1", code)
	}
	for _, want := range []string{
		bad + ":2:5:",
		"expected '(' after 'if'",
		"expected ';' after expression",
	} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr lacks %q:\n%s", want, stderr)
		}
	}
}

func TestCheckWithoutFiles(t *testing.T) {
	wd, _ := os.Getwd()
	defer os.Chdir(wd)
	os.Chdir(t.TempDir())

	if _, _, code := run(t, "check"); code != 1 {
		t.Errorf("exit code %d, want 1", code)
	}
}

func TestDumpSource(t *testing.T) {
	stdout, _, code := run(t, "dump", "-s", "int x; int main(void) { return x; }")
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	want := "(decl [int] x)\n(func [int] main(void) (block (return x)))\n"
	if stdout != want {
		t.Errorf("got\n%s\nwant\n%s", stdout, want)
	}
}

func TestBuildUsesCache(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "sum.c", "int sum(int n) { int s = 0; while (n) s += n--; return s; }\n")
	out := filepath.Join(dir, "out")
	cacheDir := filepath.Join(dir, "cache")

	stdout, stderr, code := run(t, "build", "-o", out, "--cache-dir", cacheDir, src)
	if code != 0 {
		t.Fatalf("first build failed: %s", stderr)
	}
	if !strings.Contains(stdout, "wrote") {
		t.Errorf("first build output %q", stdout)
	}
	ll, err := os.ReadFile(filepath.Join(out, "sum.ll"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(ll), "define i32 @sum(i32 %n)") {
		t.Errorf("unexpected IR:\n%s", ll)
	}

	stdout, _, _ = run(t, "build", "-o", out, "--cache-dir", cacheDir, src)
	if !strings.Contains(stdout, "is up to date") {
		t.Errorf("second build did not use the cache: %q", stdout)
	}

	stdout, _, _ = run(t, "build", "-o", out, "--no-cache", src)
	if !strings.Contains(stdout, "wrote") {
		t.Errorf("--no-cache build output %q", stdout)
	}
}

func TestBuildFailures(t *testing.T) {
	dir := t.TempDir()
	syntax := writeSource(t, dir, "syntax.c", "int f(void) { return }\n")
	semantic := writeSource(t, dir, "semantic.c", "void f(void) { break; }\n")

	_, stderr, code := run(t, "build", "-o", dir, "--no-cache", syntax, semantic)
	if code != 1 {
		t.Errorf("exit code %d, want 1", code)
	}
	for _, want := range []string{"expected expression", "'break' statement not in loop"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr lacks %q:\n%s", want, stderr)
		}
	}
}

func TestBuildRejectsOutputCollision(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"a", "b"} {
		if err := os.Mkdir(filepath.Join(dir, sub), 0755); err != nil {
			t.Fatal(err)
		}
	}
	a := writeSource(t, dir, filepath.Join("a", "main.c"), "int main(void) { return 1; }\n")
	b := writeSource(t, dir, filepath.Join("b", "main.c"), "int main(void) { return 2; }\n")
	out := filepath.Join(dir, "out")

	_, stderr, code := run(t, "build", "-o", out, "--no-cache", a, b)
	if code != 1 {
		t.Errorf("exit code %d, want 1", code)
	}
	if !strings.Contains(stderr, "would both be written to") {
		t.Errorf("stderr lacks the collision:\n%s", stderr)
	}
	if entries, _ := os.ReadDir(out); len(entries) != 0 {
		t.Errorf("wrote %d file(s) despite the collision", len(entries))
	}

	stdout, _, code := run(t, "build", "-o", out, "--no-cache", a, a)
	if code != 0 || strings.Count(stdout, "wrote") != 1 {
		t.Errorf("repeated source: code %d, output %q", code, stdout)
	}
}

func TestInitThenBuildFromConfig(t *testing.T) {
	dir := t.TempDir()
	if _, _, code := run(t, "init", "-n", "hello", dir); code != 0 {
		t.Fatalf("init exit code %d", code)
	}
	conf, err := project.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if conf.Name != "hello" {
		t.Errorf("name = %q", conf.Name)
	}

	_, stderr, code := run(t, "--config", filepath.Join(dir, project.FileName), "build", "--no-cache")
	if code != 0 {
		t.Fatalf("build from config failed: %s", stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "build", "main.ll")); err != nil {
		t.Error(err)
	}
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func waitFor(t *testing.T, buf *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(buf.String(), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q, have:\n%s", want, buf.String())
}

func TestWatchRechecksOnWrite(t *testing.T) {
	dir := t.TempDir()
	file := writeSource(t, dir, "w.c", "int x;\n")

	ctx, cancel := context.WithCancel(context.Background())
	var out syncBuffer
	done := make(chan error, 1)
	go func() { done <- watchFiles(ctx, &out, []string{file}, parser.Options{}) }()

	waitFor(t, &out, "w.c: 0 diagnostic(s)")
	writeSource(t, dir, "w.c", "int x\n")
	waitFor(t, &out, "w.c: 1 diagnostic(s)")

	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func BenchmarkParse(b *testing.B) {
	var src strings.Builder
	for i := 0; i < 200; i++ {
		src.WriteString("int f(int n) { for (int i = 0; i < n; i++) { if (i % 3) continue; else n -= i; } return n; }\n")
	}
	s := src.String()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := parser.ParseString("bench.c", s, parser.Options{}); err != nil {
			b.Fatal(err)
		}
	}
}
