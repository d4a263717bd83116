package crawler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"declcheck/internal/decl"
	"declcheck/internal/extractor"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCrawler_ScanProject(t *testing.T) {
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "point.h"), `
struct Point {
    int x;
    int y;
};
`)
	writeFile(t, filepath.Join(root, "src", "math.c"), `
int add(int a, int b) {
    return a + b;
}
`)
	// Ignored locations and non-C files must not contribute.
	writeFile(t, filepath.Join(root, "vendor", "dep.c"), `int hidden(void) { return 0; }`)
	writeFile(t, filepath.Join(root, "notes.txt"), `int not_code(void);`)

	ext, err := extractor.NewExtractor("c")
	require.NoError(t, err)

	var decls []decl.Declaration
	err = NewCrawler(ext).ScanProject(root, func(d decl.Declaration) {
		decls = append(decls, d)
	})
	require.NoError(t, err)

	names := make(map[string]decl.Kind)
	for _, d := range decls {
		names[d.Name] = d.Kind
	}

	assert.Equal(t, decl.KindRecord, names["Point"])
	assert.Equal(t, decl.KindFunction, names["add"])
	assert.NotContains(t, names, "hidden")
	assert.NotContains(t, names, "not_code")
}

func TestCrawler_ExtraIgnores(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "third_party", "lib.c"), `int ignored(void) { return 0; }`)
	writeFile(t, filepath.Join(root, "main.c"), `int kept(void) { return 0; }`)

	ext, err := extractor.NewExtractor("c")
	require.NoError(t, err)

	var names []string
	err = NewCrawler(ext, "third_party").ScanProject(root, func(d decl.Declaration) {
		names = append(names, d.Name)
	})
	require.NoError(t, err)

	assert.Contains(t, names, "kept")
	assert.NotContains(t, names, "ignored")
}
