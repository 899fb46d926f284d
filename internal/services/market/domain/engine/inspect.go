package engine

import (
	"encoding/json"
	"strings"

	"github.com/louisbranch/marketplace/internal/services/market/domain/amount"
)

// AssetView is the nft half of a snapshot. A missing asset renders as {}.
type AssetView struct {
	Creator  string          `json:"creator,omitempty"`
	Owner    string          `json:"owner,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// SaleView is the sale half of a snapshot. A missing listing renders as {}.
type SaleView struct {
	Price  string `json:"price,omitempty"`
	Seller string `json:"seller,omitempty"`
}

// Snapshot is the inspect answer for one token id.
type Snapshot struct {
	TokenID string    `json:"-"`
	NFT     AssetView `json:"nft"`
	Sale    SaleView  `json:"sale"`
}

// JSON renders the snapshot as the host report payload.
func (s Snapshot) JSON() []byte {
	data, err := json.Marshal(s)
	if err != nil {
		// Only metadata can fail to marshal, and it was valid JSON when stored.
		return []byte(`{"nft":{},"sale":{}}`)
	}
	return data
}

// TokenIDFromQuery returns the second slash-delimited segment of query. It
// reports false when query has no such segment; "nft/" addresses the empty
// token id.
func TokenIDFromQuery(query string) (string, bool) {
	_, rest, ok := strings.Cut(query, "/")
	if !ok {
		return "", false
	}
	tokenID, _, _ := strings.Cut(rest, "/")
	return tokenID, true
}

// Inspect returns the asset and listing addressed by query. It never fails.
func (p *Processor) Inspect(query string) Snapshot {
	tokenID, ok := TokenIDFromQuery(query)
	if !ok {
		return Snapshot{}
	}
	snapshot := Snapshot{TokenID: tokenID}
	if asset, ok := p.store.GetAsset(tokenID); ok {
		snapshot.NFT = AssetView{
			Creator:  string(asset.Creator),
			Owner:    string(asset.Owner),
			Metadata: asset.Metadata,
		}
	}
	if listing, ok := p.store.GetListing(tokenID); ok {
		snapshot.Sale = SaleView{
			Price:  amount.Format(listing.Price),
			Seller: string(listing.Seller),
		}
	}
	return snapshot
}
