package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	cases := map[string]string{
		"report.pdf":             "1700000000123-report.pdf",
		"../../etc/passwd":       "1700000000123-passwd",
		`C:\Users\bob\notes.txt`: "1700000000123-notes.txt",
		"dir/sub/file.png":       "1700000000123-file.png",
	}

	for in, want := range cases {
		got, err := ObjectName(now, in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "  ", "..", "/"} {
		_, err := ObjectName(now, bad)
		assert.ErrorIs(t, err, ErrEmptyName, "name %q", bad)
	}
}

func TestDiskStore_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir)
	require.NoError(t, err)
	s.now = func() time.Time { return time.UnixMilli(42) }

	stored, err := s.Save(context.Background(), Object{
		OriginalName: "report.pdf",
		Body:         strings.NewReader("hello"),
	})
	require.NoError(t, err)

	assert.Equal(t, "42-report.pdf", stored.Name)
	assert.Equal(t, filepath.Join(s.Dir(), "42-report.pdf"), stored.Path)
	assert.Equal(t, int64(5), stored.Size)

	data, err := os.ReadFile(stored.Path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, s.Delete(context.Background(), stored.Name))
	_, err = os.Stat(stored.Path)
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, s.Delete(context.Background(), stored.Name))
}

func TestDiskStore_SameNameSameMillisecondKeepsBoth(t *testing.T) {
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	s.now = func() time.Time { return time.UnixMilli(7) }

	first, err := s.Save(context.Background(), Object{OriginalName: "a.txt", Body: strings.NewReader("one")})
	require.NoError(t, err)
	assert.Equal(t, "7-a.txt", first.Name)

	second, err := s.Save(context.Background(), Object{OriginalName: "a.txt", Body: strings.NewReader("two")})
	require.NoError(t, err)
	assert.NotEqual(t, first.Name, second.Name)
	assert.Regexp(t, `^7-[0-9a-f-]{8}-a\.txt$`, second.Name)
	assert.Equal(t, filepath.Join(s.Dir(), second.Name), second.Path)

	data, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	data, err = os.ReadFile(second.Path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestDiskStore_DeleteRejectsPaths(t *testing.T) {
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	assert.ErrorIs(t, s.Delete(context.Background(), "../x"), ErrEmptyName)
	assert.ErrorIs(t, s.Delete(context.Background(), ""), ErrEmptyName)
}

func TestNormaliseEndpoint(t *testing.T) {
	ep, secure, err := normaliseEndpoint("https://s3.local:9000")
	require.NoError(t, err)
	assert.Equal(t, "s3.local:9000", ep)
	assert.True(t, secure)

	ep, secure, err = normaliseEndpoint("minio:9000")
	require.NoError(t, err)
	assert.Equal(t, "minio:9000", ep)
	assert.False(t, secure)

	_, _, err = normaliseEndpoint("http://minio:9000/bucket")
	assert.Error(t, err)

	_, _, err = normaliseEndpoint(" ")
	assert.Error(t, err)
}

func TestNewMinioStore_IncompleteConfig(t *testing.T) {
	_, err := NewMinioStore(context.Background(), MinioConfig{Endpoint: "minio:9000"})
	assert.Error(t, err)
}
