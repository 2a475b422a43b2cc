// Package report renders a ranked snapshot as the fixed-width plain-text
// award report and writes it to disk.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/erodriguezln/keyrank/internal/counter"
	apperrors "github.com/erodriguezln/keyrank/pkg/errors"
)

const (
	nameColumnWidth = 24
	separatorWidth  = 35
)

// Render produces the report text: a header, a separator, and one row per
// entry with the key padded to a fixed column width. Padding counts runes,
// not bytes, so accented names line up.
func Render(entries []counter.Entry) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-*s|\tCount\n", nameColumnWidth, "Key"))
	b.WriteString(strings.Repeat("-", separatorWidth))
	b.WriteByte('\n')

	for _, e := range entries {
		b.WriteString(e.Key)
		for pad := utf8.RuneCountInString(e.Key); pad < nameColumnWidth; pad++ {
			b.WriteByte(' ')
		}
		b.WriteString(fmt.Sprintf("|\t%d\n", e.Count))
	}
	return b.String()
}

// WriteFile renders the entries and writes the report atomically: the text
// goes to a temp file in the target directory first and is renamed into
// place, so a failed run never leaves a partial report behind.
func WriteFile(path string, entries []counter.Entry) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".report-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating report temp file in %s: %v", apperrors.ErrResource, dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(Render(entries)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing report: %v", apperrors.ErrResource, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: closing report temp file: %v", apperrors.ErrResource, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: renaming report into place: %v", apperrors.ErrResource, err)
	}
	return nil
}
