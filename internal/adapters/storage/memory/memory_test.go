package memory

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icewright/icewright/internal/domain/storage"
)

func TestWriteReadRoundTrip(t *testing.T) {
	b := New()
	ctx := context.Background()

	data := []byte("metadata json")
	require.NoError(t, b.Write(ctx, "mem://t1/metadata/v1.json", bytes.NewReader(data), int64(len(data))))

	r, err := b.Read(ctx, "mem://t1/metadata/v1.json")
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestReadMissingObjectReturnsIOError(t *testing.T) {
	b := New()

	_, err := b.Read(context.Background(), "mem://missing")
	require.Error(t, err)

	var ioErr *storage.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestListReturnsOnlyMatchingPrefixSorted(t *testing.T) {
	b := New()
	ctx := context.Background()

	for _, loc := range []storage.Location{"mem://a/2", "mem://a/1", "mem://b/1"} {
		require.NoError(t, b.Write(ctx, loc, bytes.NewReader([]byte("x")), 1))
	}

	got, err := b.List(ctx, "mem://a/")
	require.NoError(t, err)
	assert.Equal(t, []storage.Location{"mem://a/1", "mem://a/2"}, got)
}

func TestRemoveAllDeletesEverythingUnderPrefix(t *testing.T) {
	b := New()
	ctx := context.Background()

	require.NoError(t, b.Write(ctx, "mem://t/metadata/v1.json", bytes.NewReader([]byte("x")), 1))
	require.NoError(t, b.Write(ctx, "mem://t/metadata/v2.json", bytes.NewReader([]byte("x")), 1))
	require.NoError(t, b.Write(ctx, "mem://other/v1.json", bytes.NewReader([]byte("x")), 1))

	require.NoError(t, b.RemoveAll(ctx, "mem://t/"))

	remaining, err := b.List(ctx, "mem://")
	require.NoError(t, err)
	assert.Equal(t, []storage.Location{"mem://other/v1.json"}, remaining)
}

func TestValidateLocationRejectsEmpty(t *testing.T) {
	b := New()
	assert.Error(t, b.ValidateLocation(context.Background(), ""))
	assert.NoError(t, b.ValidateLocation(context.Background(), "mem://ok"))
}
