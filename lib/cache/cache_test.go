package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFreshAfterRecord(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.c")
	out := filepath.Join(dir, "a.ll")
	writeFile(t, src, "int x;")
	writeFile(t, out, "; ir")

	c, err := Open(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	sum, err := SumFile(src, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if c.Fresh(src, sum, out) {
		t.Fatal("empty cache reported a fresh entry")
	}
	c.Record(src, sum, out)
	if !c.Fresh(src, sum, out) {
		t.Error("recorded entry is not fresh")
	}
	if c.Fresh(src, sum, filepath.Join(dir, "elsewhere.ll")) {
		t.Error("entry fresh for a different output path")
	}

	writeFile(t, src, "int y;")
	changed, _ := SumFile(src, "v1")
	if c.Fresh(src, changed, out) {
		t.Error("edited source still fresh")
	}
	if other, _ := SumFile(src, "v2"); other == changed {
		t.Error("salt does not change the sum")
	}

	os.Remove(out)
	if c.Fresh(src, sum, out) {
		t.Error("entry fresh after its output was deleted")
	}
}

func TestSaveAndReopen(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	c.Record("a.c", "1", "a.ll")
	c.Record("b.c", "2", "b.ll")
	c.Forget("b.c")
	if err := c.Save(); err != nil {
		t.Fatal(err)
	}

	again, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(again.entries) != 1 {
		t.Errorf("reopened cache has %d entries, want 1", len(again.entries))
	}
}

func TestCorruptIndexIsIgnored(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, indexFile), "not gob")
	c, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.entries) != 0 {
		t.Errorf("corrupt index produced %d entries", len(c.entries))
	}
}

func TestSums(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for _, name := range []string{"a.c", "b.c", "c.c"} {
		p := filepath.Join(dir, name)
		writeFile(t, p, name)
		files = append(files, p)
	}
	sums, err := Sums(files, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 3 || sums[files[0]] == sums[files[1]] {
		t.Errorf("unexpected sums %v", sums)
	}

	if _, err := Sums(append(files, filepath.Join(dir, "missing.c")), ""); err == nil {
		t.Error("missing file did not fail")
	}
}
