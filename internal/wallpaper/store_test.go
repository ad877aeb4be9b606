package wallpaper

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func newTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	s := NewStore(opts, nil)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestListFiltersToImageFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "sunset.jpg"))
	touch(t, filepath.Join(dir, "forest.PNG"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "video.mp4"))

	s := newTestStore(t, Options{Directory: dir})
	files, err := s.List(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "sunset.jpg"),
		filepath.Join(dir, "forest.PNG"),
	}, files)
}

func TestListHonorsDepthBound(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "top.jpg"))
	touch(t, filepath.Join(dir, "sub", "mid.jpg"))
	touch(t, filepath.Join(dir, "sub", "deeper", "low.jpg"))

	s := newTestStore(t, Options{Directory: dir, MaxDepth: 2})
	files, err := s.List(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "top.jpg"),
		filepath.Join(dir, "sub", "mid.jpg"),
	}, files)
}

func TestListSkipsHiddenUnlessConfigured(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "visible.jpg"))
	touch(t, filepath.Join(dir, ".secret.jpg"))
	touch(t, filepath.Join(dir, ".stash", "tucked.jpg"))

	s := newTestStore(t, Options{Directory: dir})
	files, err := s.List(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "visible.jpg")}, files)

	s2 := newTestStore(t, Options{Directory: dir, IncludeHidden: true})
	files, err = s2.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestListMissingDirectoryIsEmpty(t *testing.T) {
	s := newTestStore(t, Options{Directory: filepath.Join(t.TempDir(), "nope")})

	files, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestRefreshForcesRescan(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.jpg"))

	s := newTestStore(t, Options{Directory: dir})
	files, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)

	touch(t, filepath.Join(dir, "b.jpg"))
	require.NoError(t, s.Refresh(context.Background()))

	files, err = s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestApplyRunsCommandAndTracksCurrent(t *testing.T) {
	s := newTestStore(t, Options{Directory: t.TempDir(), ApplyCommand: "true"})

	require.NoError(t, s.Apply(context.Background(), "/w/pick.jpg"))
	assert.Equal(t, "/w/pick.jpg", s.Current())
}

func TestApplyFailureSurfaces(t *testing.T) {
	s := newTestStore(t, Options{Directory: t.TempDir(), ApplyCommand: "false"})

	err := s.Apply(context.Background(), "/w/pick.jpg")
	assert.Error(t, err)
	assert.Empty(t, s.Current(), "a failed apply must not change the current wallpaper")
}

func TestApplyWithoutCommandRejected(t *testing.T) {
	s := newTestStore(t, Options{Directory: t.TempDir()})
	assert.Error(t, s.Apply(context.Background(), "/w/pick.jpg"))
}

func TestThemeStateTrackedWithoutCommand(t *testing.T) {
	s := newTestStore(t, Options{Directory: t.TempDir()})

	require.NoError(t, s.SetMode(context.Background(), "dark"))
	require.NoError(t, s.SetScheme(context.Background(), "gruvbox"))
	assert.Equal(t, "dark", s.Mode())
	assert.Equal(t, "gruvbox", s.Scheme())
}

func TestThumbnailDecodesImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	require.NoError(t, f.Close())

	s := newTestStore(t, Options{Directory: dir})
	img, err := s.Thumbnail(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())

	_, err = s.Thumbnail(context.Background(), filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}
