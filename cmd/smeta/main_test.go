package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/smeta/internal/estimate"
)

// sandbox isolates config lookup and returns an absolute path to a copy of
// the test estimate inside the new working directory.
func sandbox(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("../../testdata/estimate.xml")
	require.NoError(t, err)

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(dir, "estimate.xml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestParse(t *testing.T) {
	path := sandbox(t)

	out, _, err := run(t, "parse", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Section: Раздел 1. Земляные работы")
	assert.Contains(t, out, "Total estimate cost: 23604.72")
	assert.Contains(t, out, "=== CHECKS ===")
	assert.Equal(t, 7, strings.Count(out, "✅"))
}

func TestParseDefaultInputPath(t *testing.T) {
	path := sandbox(t)
	require.NoError(t, os.Rename(path, filepath.Join(filepath.Dir(path), "376-УКС_С Раздел ПД № 11 02-01-02 АР.xml")))

	out, _, err := run(t, "parse")
	require.NoError(t, err)
	assert.Contains(t, out, "Total estimate cost: 23604.72")
}

func TestParseMissingFileDegrades(t *testing.T) {
	sandbox(t)

	out, errOut, err := run(t, "parse", "missing.xml")
	require.NoError(t, err)
	assert.Contains(t, out, "No estimate data")
	assert.Contains(t, out, "estimate data not loaded")
	assert.Contains(t, errOut, "extraction failed")
}

func TestParseStructuredOutput(t *testing.T) {
	path := sandbox(t)

	out, _, err := run(t, "parse", path, "-o", "json")
	require.NoError(t, err)
	require.NoError(t, estimate.ValidateJSON([]byte(out)))

	out, _, err = run(t, "parse", path, "--output", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "total_cost: 23604.72")

	_, _, err = run(t, "parse", path, "-o", "docx")
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	path := sandbox(t)

	out, _, err := run(t, "check", path, "--strict")
	require.NoError(t, err)
	assert.Contains(t, out, "Check 7: no empty units")
	assert.NotContains(t, out, "Section:")
}

func TestCheckStrictFails(t *testing.T) {
	sandbox(t)
	orphan := filepath.Join(t.TempDir(), "orphan.xml")
	require.NoError(t, os.WriteFile(orphan, []byte(`<Root><Chapter Caption="A">
  <Position Caption="m" Code="ФССЦ01" Units="т"><PriceBase PZ="1"/></Position>
</Chapter></Root>`), 0o644))

	out, _, err := run(t, "check", orphan)
	require.NoError(t, err)
	assert.Contains(t, out, "❌")

	_, _, err = run(t, "check", orphan, "--strict")
	assert.Error(t, err)

	_, _, err = run(t, "check", "missing.xml", "--strict")
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	path := sandbox(t)
	dir := filepath.Dir(path)

	for _, format := range []string{"json", "yaml", "md", "html", "docx", "text"} {
		t.Run(format, func(t *testing.T) {
			_, _, err := run(t, "export", path, "--format", format)
			require.NoError(t, err)

			ext := "." + format
			if format == "text" {
				ext = ".txt"
			}
			info, err := os.Stat(filepath.Join(dir, "estimate"+ext))
			require.NoError(t, err)
			assert.NotZero(t, info.Size())
		})
	}

	out, _, err := run(t, "export", path, "-f", "md", "--out", "-", "--title", "Кровля")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Кровля\n"))

	_, _, err = run(t, "export", path, "-f", "pdf")
	assert.Error(t, err)

	_, _, err = run(t, "export", filepath.Join(dir, "missing.xml"))
	assert.Error(t, err)
}

func TestVerifyRoundTrip(t *testing.T) {
	path := sandbox(t)
	result := filepath.Join(filepath.Dir(path), "result.json")

	_, _, err := run(t, "export", path, "--out", result)
	require.NoError(t, err)

	out, _, err := run(t, "verify", result)
	require.NoError(t, err)
	assert.Equal(t, 7, strings.Count(out, "✅"))

	data, err := os.ReadFile(result)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), `"total_fer": 2`, `"total_fer": 3`, 1)
	require.NotEqual(t, string(data), tampered)
	require.NoError(t, os.WriteFile(result, []byte(tampered), 0o644))

	_, _, err = run(t, "verify", result)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(result, []byte(`{"total_cost": "x"}`), 0o644))
	_, _, err = run(t, "verify", result)
	assert.Error(t, err)
}

func TestBatch(t *testing.T) {
	path := sandbox(t)
	root := t.TempDir()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.xml"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.xml"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "broken.xml"), []byte("<x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	out, _, err := run(t, "batch", root)
	require.NoError(t, err)
	assert.Contains(t, out, "a.xml")
	assert.Contains(t, out, filepath.Join("sub", "b.xml"))
	assert.Contains(t, out, "7/7")
	assert.NotContains(t, out, "notes.txt")
	assert.Contains(t, out, "3 files, 1 failed, combined total 47209.44")

	out, _, err = run(t, "batch", root, "--include", "sub/*.xml", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"file": "sub/b.xml"`)
	assert.NotContains(t, out, "a.xml")
}
