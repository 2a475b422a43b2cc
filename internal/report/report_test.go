package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/erodriguezln/keyrank/internal/counter"
)

func TestRender(t *testing.T) {
	entries := []counter.Entry{
		{Key: "Messi", Count: 2},
		{Key: "Ronaldo", Count: 1},
	}

	got := Render(entries)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")

	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), got)
	}
	if !strings.HasPrefix(lines[0], "Key") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "---") {
		t.Errorf("separator = %q", lines[1])
	}
	if want := "Messi" + strings.Repeat(" ", 19) + "|\t2"; lines[2] != want {
		t.Errorf("row = %q, want %q", lines[2], want)
	}
	if want := "Ronaldo" + strings.Repeat(" ", 17) + "|\t1"; lines[3] != want {
		t.Errorf("row = %q, want %q", lines[3], want)
	}
}

// Padding counts runes, not bytes: multi-byte names must align with ASCII
// ones.
func TestRenderPadsRunes(t *testing.T) {
	got := Render([]counter.Entry{
		{Key: "Mbappé", Count: 3},
		{Key: "Xavi", Count: 3},
	})
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")

	sepA := strings.IndexByte(lines[2], '|')
	sepB := strings.IndexByte(lines[3], '|')
	// Mbappé has one two-byte rune, so its separator lands one byte later.
	if sepA-sepB != 1 {
		t.Errorf("separator offsets %d and %d; accented key not padded by runes", sepA, sepB)
	}
}

func TestRenderEmpty(t *testing.T) {
	got := Render(nil)
	if lines := strings.Split(strings.TrimRight(got, "\n"), "\n"); len(lines) != 2 {
		t.Errorf("empty report should be header and separator only, got %q", got)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	entries := []counter.Entry{{Key: "Messi", Count: 2}}

	if err := WriteFile(path, entries); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != Render(entries) {
		t.Error("file contents differ from rendered report")
	}
}

func TestWriteFileLeavesNothingOnFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does", "not", "exist")
	path := filepath.Join(dir, "report.txt")

	if err := WriteFile(path, nil); err == nil {
		t.Fatal("expected error for unwritable directory")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("partial report left behind")
	}
}

func TestWriteFileOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries := []counter.Entry{{Key: "Haaland", Count: 9}}
	if err := WriteFile(path, entries); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != Render(entries) {
		t.Error("stale report not replaced")
	}
}
