package automod

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGlobalListsTrimsAndSkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blacklist.txt")
	require.NoError(t, os.WriteFile(path, []byte("  badword  \n\nscamword\n   \n"), 0o644))

	lists := LoadGlobalLists(path, "")
	assert.Equal(t, []string{"badword", "scamword"}, lists.Blacklist)
	assert.Empty(t, lists.BadLinks)
}

func TestLoadGlobalListsMissingFileDegradesToEmpty(t *testing.T) {
	lists := LoadGlobalLists("/does/not/exist.txt", "/also/missing.txt")
	assert.Empty(t, lists.Blacklist)
	assert.Empty(t, lists.BadLinks)
}
