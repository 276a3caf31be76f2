package download

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestSaveWritesArchive(t *testing.T) {
	dir := t.TempDir()
	trig := Trigger{Dir: dir}

	path, err := trig.Save([]byte("PK-data"), "Software_Engineer_at_Google_both.zip")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Software_Engineer_at_Google_both.zip"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PK-data", string(data))

	// transient file is gone
	assert.Equal(t, []string{"Software_Engineer_at_Google_both.zip"}, listNames(t, dir))
}

func TestSaveDeduplicatesNames(t *testing.T) {
	dir := t.TempDir()
	trig := Trigger{Dir: dir}

	first, err := trig.Save([]byte("1"), "SRE_resume.zip")
	require.NoError(t, err)
	second, err := trig.Save([]byte("2"), "SRE_resume.zip")
	require.NoError(t, err)
	third, err := trig.Save([]byte("3"), "SRE_resume.zip")
	require.NoError(t, err)

	assert.Equal(t, "SRE_resume.zip", filepath.Base(first))
	assert.Equal(t, "SRE_resume (1).zip", filepath.Base(second))
	assert.Equal(t, "SRE_resume (2).zip", filepath.Base(third))
	assert.Len(t, listNames(t, dir), 3)
}

func TestSaveStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	path, err := Trigger{Dir: dir}.Save([]byte("x"), "../../etc/evil.zip")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "evil.zip"), path)
}

func TestSaveCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "downloads")
	_, err := Trigger{Dir: dir}.Save([]byte("x"), "a_resume.zip")
	require.NoError(t, err)
	assert.Equal(t, []string{"a_resume.zip"}, listNames(t, dir))
}

func TestSaveFailureLeavesNothingBehind(t *testing.T) {
	dir := t.TempDir()
	// every candidate name is taken
	require.NoError(t, os.Mkdir(filepath.Join(dir, "x_resume.zip"), 0o755))
	for n := 1; n <= maxDuplicates; n++ {
		require.NoError(t, os.Mkdir(filepath.Join(dir, fmt.Sprintf("x_resume (%d).zip", n)), 0o755))
	}

	_, err := Trigger{Dir: dir}.Save([]byte("x"), "x_resume.zip")
	require.Error(t, err)

	for _, name := range listNames(t, dir) {
		assert.NotContains(t, name, ".part")
	}
}

func TestSaveRejectsEmptyName(t *testing.T) {
	_, err := Trigger{Dir: t.TempDir()}.Save([]byte("x"), "")
	assert.Error(t, err)
}
