package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "lunchbot/pkg/logx"
)

func openForTest(t *testing.T, cfg Config) Store {
	t.Helper()
	st, err := Open(context.Background(), cfg, logx.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestStoreDrivers(t *testing.T) {
	dir := t.TempDir()
	drivers := []struct {
		name string
		cfg  Config
	}{
		{name: "memory", cfg: Config{Driver: "memory"}},
		{name: "file", cfg: Config{Driver: "file", Path: filepath.Join(dir, "blobs")}},
		{name: "sqlite", cfg: Config{Driver: "sqlite", Path: filepath.Join(dir, "blobs.db")}},
		{name: "sqlite in-memory", cfg: Config{Driver: "sqlite3", Path: ":memory:"}},
	}

	for _, tt := range drivers {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			st := openForTest(t, tt.cfg)

			_, err := st.Get(ctx, "data.json")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, st.Put(ctx, "data.json", []byte(`[{"NAME":"첫번째"}]`)))
			got, err := st.Get(ctx, "data.json")
			require.NoError(t, err)
			assert.Equal(t, `[{"NAME":"첫번째"}]`, string(got))

			// Put replaces the whole object.
			require.NoError(t, st.Put(ctx, "data.json", []byte(`[]`)))
			got, err = st.Get(ctx, "data.json")
			require.NoError(t, err)
			assert.Equal(t, `[]`, string(got))

			assert.Error(t, st.Put(ctx, "", []byte("x")))
		})
	}
}

func TestFileStoreLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	st := openForTest(t, Config{Driver: "file", Path: dir})

	require.NoError(t, st.Put(context.Background(), "data.json", []byte("[]")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "data.json", entries[0].Name())
}

func TestStoreClosed(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Close())
	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Put(ctx, "k", nil), ErrClosed)
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	src := []byte("abc")
	require.NoError(t, m.Put(ctx, "k", src))
	src[0] = 'z'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestOpenRejectsBadConfig(t *testing.T) {
	ctx := context.Background()
	_, err := Open(ctx, Config{Driver: "ftp"}, logx.Nop())
	assert.EqualError(t, err, "unknown storage driver: ftp")

	_, err = Open(ctx, Config{Driver: "sqlite"}, logx.Nop())
	assert.Error(t, err)

	_, err = Open(ctx, Config{Driver: "gcs"}, logx.Nop())
	assert.Error(t, err)

	_, err = Open(ctx, Config{Driver: "s3"}, logx.Nop())
	assert.Error(t, err)
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "data.json", objectName("", "data.json"))
	assert.Equal(t, "lunch/data.json", objectName("/lunch/", "data.json"))
	assert.Equal(t, "a/b/data.json", objectName("a/b", "data.json"))
}
