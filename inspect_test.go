package zip1970

import (
	"bytes"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/zip1970/internal/testutil"
)

func TestInspect(t *testing.T) {
	t.Parallel()

	data := testutil.BuildZip(t, sampleEntries(), "")
	filter, err := NewFilter(`.*\.txt`, "")
	require.NoError(t, err)

	infos, err := Inspect(testutil.NewReader(t, data), filter)
	require.NoError(t, err)
	require.Len(t, infos, 4)

	tests := []struct {
		name   string
		match  bool
		size   uint64
		digest digest.Digest
	}{
		{name: "a.txt", match: true, size: 12, digest: digest.FromString("content of a")},
		{name: "b/", match: false, size: 0, digest: digest.FromString("")},
		{name: "b/c.txt", match: true, size: 24, digest: digest.FromString("content of c, compressed")},
		{name: "empty.txt", match: true, size: 0, digest: digest.FromString("")},
	}
	for i, tt := range tests {
		assert.Equal(t, tt.name, infos[i].Name)
		assert.Equal(t, tt.match, infos[i].Match, tt.name)
		assert.Equal(t, tt.size, infos[i].Size, tt.name)
		assert.Equal(t, tt.digest, infos[i].Digest, tt.name)
		assert.True(t, infos[i].Times.Modified.Equal(mtime2022), tt.name)
	}
}

// Content digests are unchanged by a transform, whatever the filter outcome.
func TestInspectContentPreserved(t *testing.T) {
	t.Parallel()

	data := testutil.BuildZip(t, sampleEntries(), "")
	filter, err := NewFilter(`b/.*`, "")
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = NewTransformer(
		WithFilter(filter),
		WithOverrides(Overrides{Modified: &epoch, Created: &epoch, Accessed: &epoch}),
	).Process(testutil.NewReader(t, data), &out)
	require.NoError(t, err)

	before, err := Inspect(testutil.NewReader(t, data), filter)
	require.NoError(t, err)
	after, err := Inspect(testutil.NewReader(t, out.Bytes()), filter)
	require.NoError(t, err)

	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Digest, after[i].Digest, before[i].Name)
		assert.Equal(t, before[i].Size, after[i].Size, before[i].Name)
		if before[i].Match {
			assert.True(t, after[i].Times.Created.Equal(epoch), before[i].Name)
		} else {
			assert.True(t, before[i].Times.Modified.Equal(after[i].Times.Modified), before[i].Name)
			assert.True(t, after[i].Times.Created.IsZero(), before[i].Name)
		}
	}
}
