package rangeindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/posdb/chessposdb/internal/key"
)

type fakeReader struct {
	keys      []key.Key
	entrySize int64
}

func (f fakeReader) KeyAt(offset int64) (key.Key, error) {
	return f.keys[offset/f.entrySize], nil
}

func buildTestIndex(t *testing.T, granularity int, hashes []uint64) (*RangeIndex, fakeReader) {
	t.Helper()
	const entrySize = int64(20)

	keys := make([]key.Key, len(hashes))
	for i, h := range hashes {
		keys[i] = key.New(h, false, key.NullReverseMove, 0, 0)
	}

	b := NewBuilder(granularity, entrySize)
	for i, k := range keys {
		b.AddEntry(k, int64(i)*entrySize)
	}
	return b.Finish(nil), fakeReader{keys: keys, entrySize: entrySize}
}

func TestEqualRangeFindsExactRun(t *testing.T) {
	hashes := []uint64{1, 2, 2, 2, 3, 5, 5, 8, 9, 9}
	ri, reader := buildTestIndex(t, 2, hashes)

	target := key.New(2, false, key.NullReverseMove, 0, 0)
	lo, hi, err := ri.EqualRange(target, reader)
	require.NoError(t, err)

	gotLo, gotHi := lo/20, hi/20
	require.EqualValues(t, 1, gotLo)
	require.EqualValues(t, 4, gotHi)
}

func TestEqualRangeMissingKeyIsEmpty(t *testing.T) {
	hashes := []uint64{1, 2, 2, 5, 9}
	ri, reader := buildTestIndex(t, 2, hashes)

	target := key.New(4, false, key.NullReverseMove, 0, 0)
	lo, hi, err := ri.EqualRange(target, reader)
	require.NoError(t, err)
	require.Equal(t, lo, hi, "expected empty range for missing key")
}

func TestEqualRangeRunSpanningMultipleSamples(t *testing.T) {
	hashes := []uint64{1, 7, 7, 7, 7, 7, 7, 9}
	ri, reader := buildTestIndex(t, 2, hashes)

	target := key.New(7, false, key.NullReverseMove, 0, 0)
	lo, hi, err := ri.EqualRange(target, reader)
	require.NoError(t, err)

	gotLo, gotHi := lo/20, hi/20
	require.EqualValues(t, 1, gotLo)
	require.EqualValues(t, 7, gotHi)
}

func TestPersistLoadRoundTrip(t *testing.T) {
	hashes := []uint64{1, 2, 2, 5, 9, 12}
	ri, _ := buildTestIndex(t, 2, hashes)

	dir := t.TempDir()
	path := filepath.Join(dir, "1_index")
	require.NoError(t, Persist(path, ri))

	loaded, err := Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, ri.Len(), loaded.Len())
	require.EqualValues(t, len(hashes), loaded.EntryCount())

	_, err = os.Stat(path)
	require.NoError(t, err, "expected persisted file to exist")

	wantSamples, _ := ri.samplesSnapshot()
	gotSamples, _ := loaded.samplesSnapshot()
	if diff := cmp.Diff(wantSamples, gotSamples); diff != "" {
		t.Fatalf("persisted samples differ from loaded samples (-want +got):\n%s", diff)
	}
}
