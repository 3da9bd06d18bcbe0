package mock

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbhub/contents_sdk_go/internal/devseed"
)

func fixedClock() func() time.Time {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return base }
}

func TestSeedCreatesParents(t *testing.T) {
	s := New(WithClock(fixedClock()))
	require.NoError(t, s.Seed([]devseed.ContentsSeedEntry{
		{Path: "a/b/c.txt", Type: "file", Format: "text", Content: "deep"},
	}))

	model, err := s.Get("a/b", "", true)
	require.NoError(t, err)
	assert.Equal(t, TypeDirectory, model.Type)

	leaf, err := s.Get("a/b/c.txt", "", true)
	require.NoError(t, err)
	assert.Equal(t, "deep", leaf.Content)
	assert.Equal(t, "2024-05-01T10:00:00Z", leaf.Created)
}

func TestGetDirectoryListing(t *testing.T) {
	s := New()
	require.NoError(t, s.Seed([]devseed.ContentsSeedEntry{
		{Path: "dir/a.txt", Content: "a"},
		{Path: "dir/b.txt", Content: "b"},
		{Path: "dir/sub", Type: TypeDirectory},
	}))

	model, err := s.Get("dir", TypeDirectory, true)
	require.NoError(t, err)
	children, ok := model.Content.([]*Model)
	require.True(t, ok)
	require.Len(t, children, 3)
	assert.Equal(t, "dir/a.txt", children[0].Path)
	// listing entries carry no payload of their own
	assert.Nil(t, children[0].Content)

	// type filter rejects non-directories
	_, err = s.Get("dir/a.txt", TypeDirectory, true)
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestNewUntitledNamesAreUnique(t *testing.T) {
	s := New()

	first, err := s.NewUntitled("", TypeFile, ".txt", "")
	require.NoError(t, err)
	second, err := s.NewUntitled("", TypeFile, ".txt", "")
	require.NoError(t, err)
	assert.Equal(t, "untitled.txt", first.Path)
	assert.Equal(t, "untitled1.txt", second.Path)

	nb, err := s.NewUntitled("", TypeNotebook, "", "")
	require.NoError(t, err)
	assert.Equal(t, "Untitled.ipynb", nb.Path)

	dir, err := s.NewUntitled("", TypeDirectory, "", "")
	require.NoError(t, err)
	assert.Equal(t, "Untitled Folder", dir.Path)

	hinted, err := s.NewUntitled("", TypeFile, ".txt", "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", hinted.Path)

	_, err = s.NewUntitled("untitled.txt", TypeFile, "", "")
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestSaveCreatesAndUpdates(t *testing.T) {
	s := New()

	model, created, err := s.Save("notes.md", SaveModel{Format: "text", Content: json.RawMessage(`"v1"`)})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "v1", model.Content)
	assert.Equal(t, TypeFile, model.Type)

	model, created, err = s.Save("notes.md", SaveModel{Format: "text", Content: json.RawMessage(`"v2"`)})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "v2", model.Content)

	// .ipynb defaults to the notebook type
	nb, _, err := s.Save("work/x.ipynb", SaveModel{Format: "json", Content: json.RawMessage(`{"cells": []}`)})
	require.NoError(t, err)
	assert.Equal(t, TypeNotebook, nb.Type)
}

func TestRenameMovesSubtreeAndCheckpoints(t *testing.T) {
	s := New()
	require.NoError(t, s.Seed([]devseed.ContentsSeedEntry{
		{Path: "old/a.txt", Content: "a"},
		{Path: "old/sub/b.txt", Content: "b"},
	}))
	cp, err := s.CreateCheckpoint("old/a.txt")
	require.NoError(t, err)

	_, err = s.Rename("old", "new")
	require.NoError(t, err)

	_, err = s.Get("old/a.txt", "", false)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get("new/sub/b.txt", "", false)
	assert.NoError(t, err)

	// only the renamed node itself carries its snapshots forward; moved
	// children leave theirs behind
	cps, err := s.ListCheckpoints("new/a.txt")
	require.NoError(t, err)
	assert.Empty(t, cps)

	_, err = s.Rename("new/sub/b.txt", "new/sub/c.txt")
	require.NoError(t, err)

	cp2, err := s.CreateCheckpoint("new/sub/c.txt")
	require.NoError(t, err)
	assert.NotEqual(t, cp.ID, cp2.ID)
	cps, err = s.ListCheckpoints("new/sub/c.txt")
	require.NoError(t, err)
	require.Len(t, cps, 1)
}

func TestRenameTargetTaken(t *testing.T) {
	s := New()
	require.NoError(t, s.Seed([]devseed.ContentsSeedEntry{
		{Path: "a.txt", Content: "a"},
		{Path: "b.txt", Content: "b"},
	}))

	_, err := s.Rename("a.txt", "b.txt")
	assert.ErrorIs(t, err, ErrExists)
}

func TestCopyPicksFreshName(t *testing.T) {
	s := New()
	require.NoError(t, s.Seed([]devseed.ContentsSeedEntry{
		{Path: "dir/a.txt", Content: "payload"},
	}))

	first, err := s.Copy("dir/a.txt", "dir")
	require.NoError(t, err)
	assert.Equal(t, "dir/a-Copy1.txt", first.Path)

	second, err := s.Copy("dir/a.txt", "dir")
	require.NoError(t, err)
	assert.Equal(t, "dir/a-Copy2.txt", second.Path)

	_, err = s.Copy("dir", "dir")
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestDeleteDirectorySemantics(t *testing.T) {
	s := New()
	require.NoError(t, s.Seed([]devseed.ContentsSeedEntry{
		{Path: "dir/a.txt", Content: "a"},
	}))

	assert.ErrorIs(t, s.Delete("dir"), ErrDirectoryNotEmpty)
	require.NoError(t, s.Delete("dir/a.txt"))
	require.NoError(t, s.Delete("dir"))
	assert.ErrorIs(t, s.Delete("dir"), ErrNotFound)
}

func TestCheckpointLifecycle(t *testing.T) {
	ids := 0
	s := New(WithIDGenerator(func() string {
		ids++
		return fmt.Sprintf("cp-%d", ids)
	}))
	require.NoError(t, s.Seed([]devseed.ContentsSeedEntry{
		{Path: "nb.ipynb", Type: TypeNotebook, Content: `{"cells": []}`},
	}))

	cp1, err := s.CreateCheckpoint("nb.ipynb")
	require.NoError(t, err)
	cp2, err := s.CreateCheckpoint("nb.ipynb")
	require.NoError(t, err)
	assert.Equal(t, "cp-1", cp1.ID)
	assert.Equal(t, "cp-2", cp2.ID)

	cps, err := s.ListCheckpoints("nb.ipynb")
	require.NoError(t, err)
	require.Len(t, cps, 2)

	_, _, err = s.Save("nb.ipynb", SaveModel{Type: TypeNotebook, Format: "json", Content: json.RawMessage(`{"cells": [1]}`)})
	require.NoError(t, err)

	require.NoError(t, s.RestoreCheckpoint("nb.ipynb", "cp-1"))
	model, err := s.Get("nb.ipynb", "", true)
	require.NoError(t, err)
	doc, err := json.Marshal(model.Content)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cells": []}`, string(doc))

	require.NoError(t, s.DeleteCheckpoint("nb.ipynb", "cp-1"))
	cps, err = s.ListCheckpoints("nb.ipynb")
	require.NoError(t, err)
	require.Len(t, cps, 1)
	assert.Equal(t, "cp-2", cps[0].ID)

	assert.ErrorIs(t, s.RestoreCheckpoint("nb.ipynb", "gone"), ErrNotFound)
	assert.ErrorIs(t, s.DeleteCheckpoint("nb.ipynb", "gone"), ErrNotFound)
}

func TestFileMimetypeDetection(t *testing.T) {
	s := New()
	require.NoError(t, s.Seed([]devseed.ContentsSeedEntry{
		{Path: "page.html", Content: "<!DOCTYPE html><html><body>hi</body></html>"},
	}))

	model, err := s.Get("page.html", "", true)
	require.NoError(t, err)
	require.NotNil(t, model.Mimetype)
	assert.Contains(t, *model.Mimetype, "text/html")
}
