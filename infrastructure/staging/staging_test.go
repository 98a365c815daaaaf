package staging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArea_SaveRemove(t *testing.T) {
	area, err := NewArea(filepath.Join(t.TempDir(), "temp_videos"))
	require.NoError(t, err)

	path, size, err := area.Save(strings.NewReader("fake video"), "Holiday.MP4")
	require.NoError(t, err)
	assert.Equal(t, int64(10), size)
	assert.Equal(t, ".mp4", filepath.Ext(path))
	assert.Equal(t, area.Dir(), filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fake video", string(data))

	require.NoError(t, area.Remove(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, area.Remove(path))
	assert.NoError(t, area.Remove(""))
}

func TestArea_SaveUniqueNames(t *testing.T) {
	area, err := NewArea(t.TempDir())
	require.NoError(t, err)
	a, _, err := area.Save(strings.NewReader("a"), "clip.mov")
	require.NoError(t, err)
	b, _, err := area.Save(strings.NewReader("b"), "clip.mov")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestArea_Sweep(t *testing.T) {
	area, err := NewArea(t.TempDir())
	require.NoError(t, err)
	oldPath, _, err := area.Save(strings.NewReader("old"), "old.mp4")
	require.NoError(t, err)
	freshPath, _, err := area.Save(strings.NewReader("new"), "new.mp4")
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(area.Dir(), "nested"), 0o755))

	now := time.Now()
	require.NoError(t, os.Chtimes(oldPath, now.Add(-7*time.Hour), now.Add(-7*time.Hour)))

	removed, err := area.Sweep(6*time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, oldPath)
	assert.FileExists(t, freshPath)
	assert.DirExists(t, filepath.Join(area.Dir(), "nested"))
}
