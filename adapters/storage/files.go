// Package storage provides the file and memory backends that feed runs into
// the pipeline and persist its output.
package storage

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"trajectory-stn/internal/errors"
)

// Stdout is the output path that writes to standard output
const Stdout = "-"

// maxLineBytes bounds a single trajectory line
const maxLineBytes = 4 << 20

// FileStore reads run files from disk
type FileStore struct{}

// NewFileStore creates a file store
func NewFileStore() *FileStore {
	return &FileStore{}
}

// List returns the files in dir ending in ext, sorted by name so run
// numbering is reproducible. Subdirectories are not descended.
func (s *FileStore) List(ctx context.Context, dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Input(fmt.Sprintf("failed to read directory %s", dir), err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, ctx.Err()
}

// ReadLines returns the lines of a run file without line terminators
func (s *FileStore) ReadLines(ctx context.Context, id string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(id)
	if err != nil {
		return nil, errors.Input(fmt.Sprintf("failed to open run %s", id), err)
	}
	defer f.Close()

	lines, err := scanLines(f)
	if err != nil {
		return nil, errors.Input(fmt.Sprintf("failed to read run %s", id), err)
	}
	return lines, nil
}

func scanLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	return lines, sc.Err()
}

// FileWriter writes output lines to a path, or stdout for "-"
type FileWriter struct {
	Path   string
	stdout io.Writer
}

// NewFileWriter creates a writer for path
func NewFileWriter(path string) *FileWriter {
	return &FileWriter{Path: path, stdout: os.Stdout}
}

// WithStdout redirects "-" output to out
func (w *FileWriter) WithStdout(out io.Writer) *FileWriter {
	w.stdout = out
	return w
}

// WriteLines writes every line newline-terminated. Files are written to a
// temporary sibling and renamed, so readers never see a partial edge list.
func (w *FileWriter) WriteLines(ctx context.Context, lines []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.Path == "" || w.Path == Stdout {
		return writeLines(w.stdout, lines)
	}

	dir := filepath.Dir(w.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Input(fmt.Sprintf("failed to create output directory %s", dir), err)
	}
	tmp, err := os.CreateTemp(dir, ".stn-*")
	if err != nil {
		return errors.Input("failed to create temporary output", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeLines(tmp, lines); err != nil {
		tmp.Close()
		return errors.Input("failed to write output", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Input("failed to close output", err)
	}
	if err := os.Rename(tmp.Name(), w.Path); err != nil {
		return errors.Input(fmt.Sprintf("failed to move output to %s", w.Path), err)
	}
	return nil
}

func writeLines(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	for _, line := range lines {
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// MemoryStore keeps runs and output in memory
type MemoryStore struct {
	mu     sync.RWMutex
	runs   map[string][]string
	output []string
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string][]string)}
}

// Put stores a run under dir/name
func (s *MemoryStore) Put(dir, name string, lines []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[filepath.Join(dir, name)] = append([]string(nil), lines...)
}

// List returns stored ids under dir with the extension, sorted
func (s *MemoryStore) List(ctx context.Context, dir, ext string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id := range s.runs {
		if filepath.Dir(id) == filepath.Clean(dir) && strings.HasSuffix(id, ext) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ReadLines returns a stored run
func (s *MemoryStore) ReadLines(ctx context.Context, id string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines, ok := s.runs[id]
	if !ok {
		return nil, errors.Input(fmt.Sprintf("run %s not found", id), nil)
	}
	return append([]string(nil), lines...), nil
}

// WriteLines replaces the stored output
func (s *MemoryStore) WriteLines(ctx context.Context, lines []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = append([]string(nil), lines...)
	return nil
}

// Output returns the last written output
func (s *MemoryStore) Output() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.output...)
}
