package ledger

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetAsset_MissingReturnsFalse(t *testing.T) {
	t.Parallel()

	store := NewStore()
	_, ok := store.GetAsset("1")
	require.False(t, ok)
	_, ok = store.GetListing("1")
	require.False(t, ok)
}

func TestPutAsset_OverwritesExisting(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.PutAsset("1", Asset{Creator: "alice", Owner: "alice", Metadata: json.RawMessage(`"a"`)})
	store.PutAsset("1", Asset{Creator: "bob", Owner: "bob", Metadata: json.RawMessage(`"b"`)})

	got, ok := store.GetAsset("1")
	require.True(t, ok)
	require.Equal(t, Identity("bob"), got.Creator)
	require.JSONEq(t, `"b"`, string(got.Metadata))
	require.Equal(t, 1, store.AssetCount())
}

func TestGetAsset_ReturnsCopy(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.PutAsset("1", Asset{Creator: "alice", Owner: "alice", Metadata: json.RawMessage(`{"n":1}`)})

	got, _ := store.GetAsset("1")
	got.Owner = "mallory"
	got.Metadata[2] = 'x'

	again, _ := store.GetAsset("1")
	require.Equal(t, Identity("alice"), again.Owner)
	require.JSONEq(t, `{"n":1}`, string(again.Metadata))
}

func TestGetListing_ReturnsCopyOfPrice(t *testing.T) {
	t.Parallel()

	store := NewStore()
	price := big.NewInt(100)
	store.PutListing("1", Listing{Price: price, Seller: "alice"})
	price.SetInt64(1)

	got, ok := store.GetListing("1")
	require.True(t, ok)
	require.Equal(t, "100", got.Price.String())

	got.Price.SetInt64(2)
	again, _ := store.GetListing("1")
	require.Equal(t, "100", again.Price.String())
}

func TestRemoveListing(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.PutListing("1", Listing{Price: big.NewInt(5), Seller: "alice"})
	require.Equal(t, 1, store.ListingCount())

	store.RemoveListing("1")
	store.RemoveListing("missing")

	_, ok := store.GetListing("1")
	require.False(t, ok)
	require.Equal(t, 0, store.ListingCount())
}
