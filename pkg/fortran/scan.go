package fortran

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ScanOptions configures directory scanning.
type ScanOptions struct {
	SkipHidden      bool     // Skip hidden files and directories (starting with .)
	DefaultExcludes []string // Directory names to exclude
	Extensions      []string // Source extensions to accept (lowercase, with dot)
}

// DefaultScanOptions returns scanning options with sensible defaults. Free
// and fixed form extensions are both accepted.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		SkipHidden: true,
		DefaultExcludes: []string{
			".git",
			"build",
			"doc",
			"CMakeFiles",
			".hg",
			".svn",
		},
		Extensions: []string{".f90", ".f95", ".f03", ".f08", ".f", ".for", ".fpp"},
	}
}

// ScanDir walks root and returns the paths of all Fortran source files.
// Extension matching is case-insensitive (.F90 and .f90 both count).
func ScanDir(root string, opts ScanOptions) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}

	var files []string
	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if path == absRoot {
			return nil
		}
		if opts.SkipHidden && strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			for _, exclude := range opts.DefaultExcludes {
				if strings.EqualFold(info.Name(), exclude) {
					return filepath.SkipDir
				}
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, want := range opts.Extensions {
			if ext == want {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}
	return files, nil
}

// Scan walks root with default options and parses every Fortran file found.
// Unreadable files are skipped rather than failing the whole scan.
func Scan(root string) ([]*File, error) {
	paths, err := ScanDir(root, DefaultScanOptions())
	if err != nil {
		return nil, err
	}
	parsed := make([]*File, 0, len(paths))
	for _, path := range paths {
		f, err := ParseFile(path)
		if err != nil {
			continue
		}
		parsed = append(parsed, f)
	}
	return parsed, nil
}
