package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/firebird-suite/magpie/pkg/logger"
)

type fakeStore struct {
	objects map[string]string
	types   map[string]string
	failOn  string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]string{}, types: map[string]string{}}
}

func (f *fakeStore) Put(_ context.Context, key string, content []byte, contentType string) error {
	if key == f.failOn {
		return errors.New("access denied")
	}
	f.objects[key] = string(content)
	f.types[key] = contentType
	return nil
}

func (f *fakeStore) List(_ context.Context, prefix string) ([]string, error) {
	prefix = strings.TrimSuffix(prefix, "/") + "/"
	var rels []string
	for key := range f.objects {
		if rel, ok := strings.CutPrefix(key, prefix); ok {
			rels = append(rels, rel)
		}
	}
	sort.Strings(rels)
	return rels, nil
}

func versionDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"obf2mcp.srg":  "CL: a b\n",
		"1.18.1.json":  "{}",
		"1.18.1.tiny":  "v1\tobf\tmcp\n",
		"mcp2obf.csrg": "b a\n",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestPublishDir(t *testing.T) {
	store := newFakeStore()
	p := New(store, "/mappings/", logger.NewSilentLogger())

	res, err := p.PublishDir(context.Background(), "1.18.1", versionDir(t))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"mappings/1.18.1/1.18.1.json",
		"mappings/1.18.1/1.18.1.tiny",
		"mappings/1.18.1/mcp2obf.csrg",
		"mappings/1.18.1/obf2mcp.srg",
	}, res.Keys)
	assert.Zero(t, res.Replaced)
	assert.Empty(t, res.Stale)
	assert.Equal(t, "CL: a b\n", store.objects["mappings/1.18.1/obf2mcp.srg"])
	assert.Equal(t, "application/json", store.types["mappings/1.18.1/1.18.1.json"])
}

func TestPublishDir_NoPrefix(t *testing.T) {
	store := newFakeStore()
	res, err := New(store, "", logger.NewSilentLogger()).PublishDir(context.Background(), "1.18.1", versionDir(t))
	require.NoError(t, err)
	assert.Contains(t, res.Keys, "1.18.1/obf2mcp.srg")
}

func TestPublishDir_UploadFailure(t *testing.T) {
	store := newFakeStore()
	store.failOn = "1.18.1/1.18.1.tiny"

	res, err := New(store, "", logger.NewSilentLogger()).PublishDir(context.Background(), "1.18.1", versionDir(t))
	assert.ErrorContains(t, err, "access denied")
	assert.Equal(t, []string{"1.18.1/1.18.1.json"}, res.Keys)
}

func TestPublishDir_MissingDir(t *testing.T) {
	_, err := New(newFakeStore(), "", logger.NewSilentLogger()).
		PublishDir(context.Background(), "1.18.1", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestPublishDir_ReportsReplacedAndStale(t *testing.T) {
	store := newFakeStore()
	store.objects["mappings/1.18.1/obf2mcp.srg"] = "old"
	store.objects["mappings/1.18.1/obf2yarn.srg"] = "old"
	store.objects["mappings/1.18.2/obf2yarn.srg"] = "other version"

	res, err := New(store, "mappings", logger.NewSilentLogger()).
		PublishDir(context.Background(), "1.18.1", versionDir(t))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Replaced)
	assert.Equal(t, []string{"mappings/1.18.1/obf2yarn.srg"}, res.Stale)
	assert.Equal(t, "CL: a b\n", store.objects["mappings/1.18.1/obf2mcp.srg"])
	assert.Equal(t, "old", store.objects["mappings/1.18.1/obf2yarn.srg"], "stale objects are left in place")
}
