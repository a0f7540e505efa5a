package throttle

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, "k", []Record{{TeacherID: "t1", Timestamp: 1}}, time.Minute))

	loaded, err := store.Load(ctx, "k")
	require.NoError(t, err)
	loaded[0].TeacherID = "mutated"

	again, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "t1", again[0].TeacherID)

	require.NoError(t, store.Save(ctx, "k", nil, time.Minute))
	empty, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFileStoreDeletesEmptyKeys(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "throttle.json")
	store := NewFileStore(path)

	require.NoError(t, store.Save(ctx, "a", []Record{{TeacherID: "t1"}}, 0))
	require.NoError(t, store.Save(ctx, "b", []Record{{TeacherID: "t2"}}, 0))
	require.NoError(t, store.Save(ctx, "a", nil, 0))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"a"`)
	assert.Contains(t, string(raw), `"teacherId":"t2"`)
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "throttle.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path).Load(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode throttle records")
}
