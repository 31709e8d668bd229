package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/LdDl/skeleton-retriever/retriever"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.db")
	logger, _ := test.NewNullLogger()
	store, err := Open(path, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store, path
}

func skeletonProperties(tag string) retriever.Properties {
	sk := retriever.NewCandidate([]retriever.TaggedPoint{
		{Tag: retriever.ShoulderLeft, Point: retriever.NewPoint(0.2, -0.55, 2)},
		{Tag: retriever.ShoulderRight, Point: retriever.NewPoint(-0.2, -0.55, 2)},
		{Tag: retriever.HandLeft, Point: retriever.NewPoint(0.3, -0.05, 2), Stale: true},
	})
	sk.SetTag(tag)
	return sk.ToProperties()
}

func TestStoreLifecycle(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	first, err := store.Add(ctx, skeletonProperties(""))
	require.NoError(t, err)
	second, err := store.Add(ctx, skeletonProperties(""))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	updated := skeletonProperties("#1")
	require.NoError(t, store.Set(ctx, first, updated))
	props, err := store.Get(ctx, first)
	require.NoError(t, err)
	if diff := cmp.Diff(updated, props); diff != "" {
		t.Errorf("stored properties mismatch (-want +got):\n%s", diff)
	}

	objects, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, first, objects[0].ID)
	assert.Equal(t, second, objects[1].ID)
	assert.False(t, objects[0].UpdatedAt.IsZero())

	require.NoError(t, store.Delete(ctx, first))
	_, err = store.Get(ctx, first)
	assert.True(t, errors.Is(err, retriever.ErrUnknownObject))
	objects, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, objects, 1)
}

func TestStoreUnknownObject(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	err := store.Set(ctx, 100, skeletonProperties(""))
	assert.True(t, errors.Is(err, retriever.ErrUnknownObject), "got %v", err)
	err = store.Delete(ctx, 100)
	assert.True(t, errors.Is(err, retriever.ErrUnknownObject), "got %v", err)

	id, err := store.Add(ctx, skeletonProperties(""))
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, id))
	err = store.Delete(ctx, id)
	assert.True(t, errors.Is(err, retriever.ErrUnknownObject), "second delete must fail")
}

func TestStoreReopen(t *testing.T) {
	store, path := openTestStore(t)
	ctx := context.Background()
	id, err := store.Add(ctx, skeletonProperties("#5"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Migrations are not applied twice
	logger, _ := test.NewNullLogger()
	reopened, err := Open(path, logger)
	require.NoError(t, err)
	defer reopened.Close()
	props, err := reopened.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "#5", props["tag"])
}

func TestStoreInvalidProperties(t *testing.T) {
	store, _ := openTestStore(t)
	_, err := store.Add(context.Background(), retriever.Properties{"bad": struct{}{}})
	assert.Error(t, err)
}
