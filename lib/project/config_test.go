package project

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	var c Config
	c.CreateDefault("demo")
	c.Requires = ">= 0.1"
	c.Parser.MaxDepth = 64

	wrote, err := c.Save(filepath.Join(dir, FileName), false, nil)
	if err != nil || !wrote {
		t.Fatalf("Save() = %v, %v", wrote, err)
	}
	got, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	c.Dir = dir
	if !reflect.DeepEqual(*got, c) {
		t.Errorf("round trip changed config:\n got %+v\nwant %+v", *got, c)
	}
}

func TestSaveAsksBeforeOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("name: old\n"), 0644); err != nil {
		t.Fatal(err)
	}
	var c Config
	c.CreateDefault(".")

	var asked string
	wrote, err := c.Save(path, false, func(prompt string) bool {
		asked = prompt
		return false
	})
	if err != nil || wrote {
		t.Fatalf("Save() = %v, %v; want no write", wrote, err)
	}
	if !strings.HasSuffix(asked, "already exists. Overwrite?") {
		t.Errorf("prompt = %q", asked)
	}
	if b, _ := os.ReadFile(path); string(b) != "name: old\n" {
		t.Errorf("file was modified: %q", b)
	}

	if wrote, err := c.Save(path, true, nil); err != nil || !wrote {
		t.Fatalf("forced Save() = %v, %v", wrote, err)
	}
	got, err := Load(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "NewProject" {
		t.Errorf("name = %q, want NewProject", got.Name)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	if !os.IsNotExist(err) {
		t.Errorf("got %v, want a not-exist error", err)
	}
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		requires string
		tool     string
		ok       bool
	}{
		{"", "0.1.0", true},
		{">= 0.1", "0.3.0", true},
		{"^1.0", "0.3.0", false},
		{"~0.3", "0.3.9", true},
		{"not a constraint", "0.3.0", false},
	}
	for _, tt := range tests {
		c := Config{Name: "p", Requires: tt.requires}
		err := c.CheckVersion(tt.tool)
		if (err == nil) != tt.ok {
			t.Errorf("CheckVersion(%q, %q) = %v, want ok=%v", tt.requires, tt.tool, err, tt.ok)
		}
	}
}

func TestSourceFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.c", "b.c", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	c := Config{Sources: []string{"*.c", "a.c", "missing/*.c"}, Output: "out", Dir: dir}
	got, err := c.SourceFiles()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.c"), filepath.Join(dir, "b.c")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got := c.OutputDir(); got != filepath.Join(dir, "out") {
		t.Errorf("OutputDir() = %q", got)
	}
}
