// Package corpus reads line ranges out of a text corpus and extracts the
// counting key from each line. The key is the substring after the last
// delimiter byte, with trailing line-ending bytes stripped. A line without
// the delimiter yields the empty key rather than faulting; the counting
// table tallies it like any other key.
package corpus

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	apperrors "github.com/erodriguezln/keyrank/pkg/errors"
)

const defaultMaxLineBytes = 1 << 20

// Reader extracts keys from a delimited corpus. It holds no file state:
// every call opens its own handle, so concurrent workers never share a read
// cursor.
type Reader struct {
	delimiter    byte
	maxLineBytes int
}

// Option configures a Reader.
type Option func(*Reader)

// WithMaxLineBytes bounds the scanner's per-line buffer.
func WithMaxLineBytes(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxLineBytes = n
		}
	}
}

// NewReader creates a Reader splitting on the given delimiter byte.
func NewReader(delimiter byte, opts ...Option) *Reader {
	r := &Reader{
		delimiter:    delimiter,
		maxLineBytes: defaultMaxLineBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CountLines scans the whole corpus once and returns its line count.
func (r *Reader) CountLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: opening corpus %s: %v", apperrors.ErrResource, path, err)
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 0, 64*1024), r.maxLineBytes)
	count := 0
	for s.Scan() {
		count++
	}
	if err := s.Err(); err != nil {
		return 0, fmt.Errorf("%w: counting lines in %s: %v", apperrors.ErrResource, path, err)
	}
	return count, nil
}

// ReadKeys returns the extracted key for every line in [startLine, endLine),
// in line order. The result always has endLine-startLine elements; malformed
// lines contribute the empty key. The corpus ending before endLine is a
// resource error.
func (r *Reader) ReadKeys(path string, startLine, endLine int) ([]string, error) {
	if startLine < 0 || endLine < startLine {
		return nil, fmt.Errorf("%w: invalid line range [%d, %d)", apperrors.ErrConfiguration, startLine, endLine)
	}
	if startLine == endLine {
		return []string{}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening corpus %s: %v", apperrors.ErrResource, path, err)
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 0, 64*1024), r.maxLineBytes)

	for skipped := 0; skipped < startLine; skipped++ {
		if !s.Scan() {
			if err := s.Err(); err != nil {
				return nil, fmt.Errorf("%w: reading %s: %v", apperrors.ErrResource, path, err)
			}
			return nil, fmt.Errorf("%w: corpus %s ends at line %d, range starts at %d", apperrors.ErrResource, path, skipped, startLine)
		}
	}

	keys := make([]string, 0, endLine-startLine)
	for line := startLine; line < endLine; line++ {
		if !s.Scan() {
			if err := s.Err(); err != nil {
				return nil, fmt.Errorf("%w: reading %s: %v", apperrors.ErrResource, path, err)
			}
			return nil, fmt.Errorf("%w: corpus %s ends at line %d, range ends at %d", apperrors.ErrResource, path, line, endLine)
		}
		keys = append(keys, r.ExtractKey(s.Text()))
	}
	return keys, nil
}

// ExtractKey returns the counting key for one raw line: everything after the
// last delimiter, trailing \r and \n removed. No delimiter means no key.
func (r *Reader) ExtractKey(line string) string {
	idx := strings.LastIndexByte(line, r.delimiter)
	if idx < 0 {
		return ""
	}
	return strings.TrimRight(line[idx+1:], "\r\n")
}
