package scanner

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/repolens/repolens/internal/model"
)

// DefaultMaxFileSize is the size ceiling above which a file is treated as
// generated/non-source and skipped silently.
const DefaultMaxFileSize = 1 << 20 // 1 MiB

// binarySniffLen is how many leading bytes are inspected for a NUL byte.
const binarySniffLen = 8192

// deniedDirs are excluded by exact path-segment name, not content
// inspection: version-control metadata, dependency/vendor trees, and build
// output.
var deniedDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	".idea":        true,
	".vscode":      true,
	".repolens":    true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"bin":          true,
	"obj":          true,
	"__pycache__":  true,
}

// DeniedDir reports whether a directory name is on the built-in denylist.
// The watcher uses this to avoid recursing into trees the scanner would
// skip anyway.
func DeniedDir(name string) bool {
	return deniedDirs[name]
}

// Options configures a Scanner.
type Options struct {
	// MaxFileSize overrides the default size ceiling when > 0.
	MaxFileSize int64

	// IgnorePatterns are additional glob patterns (slash separated,
	// matched against the relative path) to exclude.
	IgnorePatterns []string

	// UseGitignore enables .gitignore handling at the scan root.
	UseGitignore bool
}

// Scanner walks a root directory and produces FileRecords for all eligible
// files, ordered lexicographically by relative path so downstream diffing
// is stable. It has no side effects beyond reading the filesystem.
type Scanner struct {
	maxFileSize  int64
	ignoreGlobs  []glob.Glob
	useGitignore bool
}

// New creates a Scanner. Invalid ignore patterns fail construction.
func New(opts Options) (*Scanner, error) {
	s := &Scanner{
		maxFileSize:  opts.MaxFileSize,
		useGitignore: opts.UseGitignore,
	}
	if s.maxFileSize <= 0 {
		s.maxFileSize = DefaultMaxFileSize
	}

	for _, pattern := range opts.IgnorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("failed to compile ignore pattern %q: %w", pattern, err)
		}
		s.ignoreGlobs = append(s.ignoreGlobs, g)
	}

	return s, nil
}

// Scan walks root and returns records for all eligible files. A missing or
// unreadable root is an input error; everything else (binary files,
// oversized files, unreadable individual files) is skipped silently.
func (s *Scanner) Scan(root string) ([]model.FileRecord, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scan root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", root)
	}

	var gitIgnore *ignore.GitIgnore
	if s.useGitignore {
		// Missing .gitignore is fine; scanning proceeds without it.
		if gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
			gitIgnore = gi
		}
	}

	var records []model.FileRecord

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// Unreadable subtree: skip, do not fail the scan.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && deniedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		if s.ignored(relPath) {
			return nil
		}
		if gitIgnore != nil && gitIgnore.MatchesPath(relPath) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil
		}
		if fi.Size() > s.maxFileSize {
			return nil
		}

		rec, ok := s.readRecord(path, relPath)
		if ok {
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Path < records[j].Path
	})

	return records, nil
}

// readRecord reads one file and builds its record. Binary-looking content
// and read failures return ok=false.
func (s *Scanner) readRecord(absPath, relPath string) (model.FileRecord, bool) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return model.FileRecord{}, false
	}
	if int64(len(data)) > s.maxFileSize {
		return model.FileRecord{}, false
	}
	if isBinary(data) {
		return model.FileRecord{}, false
	}

	return model.FileRecord{
		Path:        relPath,
		Language:    DetectLanguage(relPath),
		SizeBytes:   int64(len(data)),
		LineCount:   countLines(data),
		Fingerprint: Fingerprint(data),
	}, true
}

func (s *Scanner) ignored(relPath string) bool {
	for _, g := range s.ignoreGlobs {
		if g.Match(relPath) {
			return true
		}
	}
	return false
}

// Fingerprint computes the content fingerprint: SHA-256 of the raw bytes,
// fixed-width hex.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// isBinary reports whether the leading bytes contain a NUL byte.
func isBinary(data []byte) bool {
	n := len(data)
	if n > binarySniffLen {
		n = binarySniffLen
	}
	return bytes.IndexByte(data[:n], 0) != -1
}

// countLines counts lines the way editors do: a trailing newline does not
// start an extra line, and an empty file has zero lines.
func countLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	count := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		count++
	}
	return count
}
