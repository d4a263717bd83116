package crawler

import (
	"io/fs"
	"log"
	"path/filepath"
	"strings"

	"declcheck/internal/decl"
	"declcheck/internal/extractor"
)

// Crawler scans a directory tree for C source files and streams their
// declarations.
type Crawler struct {
	extractor *extractor.Extractor
	ignored   []string
}

// NewCrawler creates a new crawler instance. Extra ignore directories
// can be added on top of the defaults.
func NewCrawler(ext *extractor.Extractor, extraIgnores ...string) *Crawler {
	return &Crawler{
		extractor: ext,
		ignored:   append([]string{".git", "vendor", "node_modules", "testdata"}, extraIgnores...),
	}
}

// ScanProject walks the root directory and processes all .c and .h
// files. It uses a callback to stream declarations in traversal order,
// so the caller decides whether to buffer. Files that fail to parse are
// skipped with a log line; the scan continues.
func (c *Crawler) ScanProject(root string, onDecl func(decl.Declaration)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext != ".c" && ext != ".h" {
			return nil
		}

		decls, err := c.extractor.ExtractFromFile(path)
		if err != nil {
			log.Printf("skipping %s: %v", path, err)
			return nil
		}

		for _, dec := range decls {
			onDecl(dec)
		}

		return nil
	})
}
