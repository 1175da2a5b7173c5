package local_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob/adapters/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathTraversalProtection(t *testing.T) {
	storeDir := t.TempDir()

	secretDir := t.TempDir()
	secretFile := filepath.Join(secretDir, "secret.txt")
	err := os.WriteFile(secretFile, []byte("super_secret_data"), 0644)
	require.NoError(t, err)

	cfg := blob.Config{LocalDir: storeDir}
	store, err := local.New(cfg)
	require.NoError(t, err)

	relPath, err := filepath.Rel(filepath.Join(storeDir, "bucket"), secretFile)
	require.NoError(t, err)
	if !strings.Contains(relPath, "..") {
		relPath = "../" + filepath.Base(secretDir) + "/secret.txt"
	}

	ctx := context.Background()

	t.Run("Get blocks traversal", func(t *testing.T) {
		_, err := store.Get(ctx, "bucket", relPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "path traversal detected")
	})

	t.Run("Put blocks traversal", func(t *testing.T) {
		err := store.Put(ctx, "bucket", relPath, strings.NewReader("malicious"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "path traversal detected")
	})

	t.Run("Delete blocks traversal", func(t *testing.T) {
		err := store.Delete(ctx, "bucket", relPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "path traversal detected")
	})
}

func TestRelativePathInitialization(t *testing.T) {
	tmpDir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(cwd)

	err = os.Chdir(tmpDir)
	require.NoError(t, err)

	cfg := blob.Config{LocalDir: "."}
	store, err := local.New(cfg)
	require.NoError(t, err)

	ctx := context.Background()

	err = store.Put(ctx, "bucket", "test.txt", strings.NewReader("content"))
	require.NoError(t, err)

	_, err = store.Get(ctx, "bucket", "../../outside.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path traversal detected")
}

func TestDeleteMissingKeyIsNoop(t *testing.T) {
	cfg := blob.Config{LocalDir: t.TempDir()}
	store, err := local.New(cfg)
	require.NoError(t, err)

	err = store.Delete(context.Background(), "bucket", "never-existed.txt")
	require.NoError(t, err)
}
