package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/erodriguezln/keyrank/pkg/errors"
)

func writeCorpus(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.txt")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractKey(t *testing.T) {
	reader := NewReader(',')

	tests := []struct {
		line string
		want string
	}{
		{"a,Messi", "Messi"},
		{"a,b,Messi", "Messi"},
		{"a,Messi\r", "Messi"},
		{",Messi", "Messi"},
		{"trailing,", ""},
		{"no delimiter here", ""},
		{"", ""},
		{"a,Mbappé", "Mbappé"},
	}
	for _, tt := range tests {
		if got := reader.ExtractKey(tt.line); got != tt.want {
			t.Errorf("ExtractKey(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestCountLines(t *testing.T) {
	reader := NewReader(',')

	path := writeCorpus(t, "a,x\nb,y\nc,z\n")
	got, err := reader.CountLines(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != 3 {
		t.Errorf("CountLines = %d, want 3", got)
	}

	empty := writeCorpus(t, "")
	got, err = reader.CountLines(empty)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("CountLines(empty) = %d, want 0", got)
	}
}

func TestCountLinesUnreadable(t *testing.T) {
	reader := NewReader(',')
	_, err := reader.CountLines(filepath.Join(t.TempDir(), "missing.txt"))
	if !errors.Is(err, apperrors.ErrResource) {
		t.Errorf("error = %v, want ErrResource", err)
	}
}

func TestReadKeys(t *testing.T) {
	reader := NewReader(',')
	path := writeCorpus(t, "1,Messi\r\n2,Ronaldo\n3,Messi\n4,Haaland\n")

	tests := []struct {
		name       string
		start, end int
		want       []string
	}{
		{"full corpus", 0, 4, []string{"Messi", "Ronaldo", "Messi", "Haaland"}},
		{"middle range", 1, 3, []string{"Ronaldo", "Messi"}},
		{"tail", 3, 4, []string{"Haaland"}},
		{"empty range", 2, 2, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reader.ReadKeys(path, tt.start, tt.end)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d keys, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("key[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestReadKeysMalformedLine(t *testing.T) {
	reader := NewReader(',')
	path := writeCorpus(t, "1,Messi\nno delimiter\n2,Ronaldo\n")

	got, err := reader.ReadKeys(path, 0, 3)
	if err != nil {
		t.Fatal(err)
	}
	// A line without the delimiter still occupies its slot, as the empty key.
	want := []string{"Messi", "", "Ronaldo"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReadKeysRangeBeyondCorpus(t *testing.T) {
	reader := NewReader(',')
	path := writeCorpus(t, "1,Messi\n")

	if _, err := reader.ReadKeys(path, 0, 5); !errors.Is(err, apperrors.ErrResource) {
		t.Errorf("range past end: error = %v, want ErrResource", err)
	}
	if _, err := reader.ReadKeys(path, 3, 5); !errors.Is(err, apperrors.ErrResource) {
		t.Errorf("start past end: error = %v, want ErrResource", err)
	}
}

func TestReadKeysInvalidRange(t *testing.T) {
	reader := NewReader(',')
	path := writeCorpus(t, "1,Messi\n")

	if _, err := reader.ReadKeys(path, -1, 1); !errors.Is(err, apperrors.ErrConfiguration) {
		t.Errorf("negative start: error = %v, want ErrConfiguration", err)
	}
	if _, err := reader.ReadKeys(path, 2, 1); !errors.Is(err, apperrors.ErrConfiguration) {
		t.Errorf("inverted range: error = %v, want ErrConfiguration", err)
	}
}

func TestReadKeysUnreadable(t *testing.T) {
	reader := NewReader(',')
	_, err := reader.ReadKeys(filepath.Join(t.TempDir(), "missing.txt"), 0, 1)
	if !errors.Is(err, apperrors.ErrResource) {
		t.Errorf("error = %v, want ErrResource", err)
	}
}
