package ledger

import (
	"encoding/json"
	"math/big"
)

// Identity is the host-authenticated sender address. It is compared for
// equality only.
type Identity string

// Asset is one minted NFT.
type Asset struct {
	// Creator is the minting sender and never changes.
	Creator Identity
	// Owner is the current holder; only a purchase changes it.
	Owner Identity
	// Metadata is the opaque JSON value supplied at mint time.
	Metadata json.RawMessage
}

// Listing is an open sale offer for an asset.
type Listing struct {
	// Price is the minimum acceptable payment.
	Price *big.Int
	// Seller was the asset owner when the listing was created.
	Seller Identity
}

// Store holds the asset and listing tables for the process lifetime.
type Store struct {
	assets   map[string]Asset
	listings map[string]Listing
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		assets:   make(map[string]Asset),
		listings: make(map[string]Listing),
	}
}

// GetAsset returns the asset minted under id.
func (s *Store) GetAsset(id string) (Asset, bool) {
	asset, ok := s.assets[id]
	if !ok {
		return Asset{}, false
	}
	return asset.clone(), true
}

// PutAsset creates or replaces the asset under id.
func (s *Store) PutAsset(id string, asset Asset) {
	s.assets[id] = asset.clone()
}

// GetListing returns the open listing for id.
func (s *Store) GetListing(id string) (Listing, bool) {
	listing, ok := s.listings[id]
	if !ok {
		return Listing{}, false
	}
	return listing.clone(), true
}

// PutListing creates or replaces the listing for id.
func (s *Store) PutListing(id string, listing Listing) {
	s.listings[id] = listing.clone()
}

// RemoveListing deletes the listing for id. Removing a missing listing is a
// no-op.
func (s *Store) RemoveListing(id string) {
	delete(s.listings, id)
}

// AssetCount returns the number of minted assets.
func (s *Store) AssetCount() int {
	return len(s.assets)
}

// ListingCount returns the number of open listings.
func (s *Store) ListingCount() int {
	return len(s.listings)
}

func (a Asset) clone() Asset {
	if a.Metadata != nil {
		a.Metadata = append(json.RawMessage(nil), a.Metadata...)
	}
	return a
}

func (l Listing) clone() Listing {
	if l.Price != nil {
		l.Price = new(big.Int).Set(l.Price)
	}
	return l
}
