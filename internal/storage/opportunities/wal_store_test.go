package opportunities

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/spreadscan/internal/domain"
)

func TestWALStorePersistAndReplay(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Persist(sampleOpportunity("BTC", 1)))
	require.NoError(t, store.Persist(sampleOpportunity("ETH", 1)))
	require.NoError(t, store.Persist(sampleOpportunity("BTC", 2)))

	records, err := store.All()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "BTC", records[0].Opportunity.BaseAsset)
	require.Equal(t, "ETH", records[1].Opportunity.BaseAsset)
	require.Equal(t, uint64(2), records[2].Opportunity.CycleNumber)

	// indexes are strictly increasing so stream readers can resume
	require.Less(t, records[0].Index, records[1].Index)
	require.Less(t, records[1].Index, records[2].Index)
}

func TestWALStoreAfterResumesFromIndex(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Persist(sampleOpportunity("BTC", 1)))
	require.NoError(t, store.Persist(sampleOpportunity("ETH", 2)))

	all, err := store.All()
	require.NoError(t, err)
	require.Len(t, all, 2)

	tail, err := store.After(all[0].Index)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	require.Equal(t, "ETH", tail[0].Opportunity.BaseAsset)

	empty, err := store.After(all[1].Index)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestWALStoreRejectsEmptyAsset(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	err = store.Persist(domain.Opportunity{})
	require.Error(t, err)
}

func TestWALStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewWALStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Persist(sampleOpportunity("BTC", 1)))
	require.NoError(t, store.Close())

	reopened, err := NewWALStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.All()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "BTC", records[0].Opportunity.BaseAsset)
}
