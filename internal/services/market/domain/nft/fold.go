package nft

import (
	"encoding/json"
	"fmt"

	"github.com/louisbranch/marketplace/internal/services/market/domain/amount"
	"github.com/louisbranch/marketplace/internal/services/market/domain/event"
	"github.com/louisbranch/marketplace/internal/services/market/domain/ledger"
)

// Fold applies evt to store. Every check happens before the first write, so
// a failed fold leaves the store unchanged.
func Fold(store *ledger.Store, evt event.Event) error {
	switch evt.Type {
	case event.TypeMinted:
		var payload MintedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return fmt.Errorf("fold %s: %w", evt.Type, err)
		}
		creator := ledger.Identity(payload.Creator)
		store.PutAsset(evt.TokenID, ledger.Asset{
			Creator:  creator,
			Owner:    creator,
			Metadata: payload.Metadata,
		})
	case event.TypeListed:
		var payload ListedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return fmt.Errorf("fold %s: %w", evt.Type, err)
		}
		price, err := amount.ParseString(payload.Price)
		if err != nil {
			return fmt.Errorf("fold %s: price: %w", evt.Type, err)
		}
		store.PutListing(evt.TokenID, ledger.Listing{
			Price:  price,
			Seller: ledger.Identity(payload.Seller),
		})
	case event.TypePurchased:
		var payload PurchasedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return fmt.Errorf("fold %s: %w", evt.Type, err)
		}
		asset, ok := store.GetAsset(evt.TokenID)
		if !ok {
			return fmt.Errorf("fold %s: asset %q not found", evt.Type, evt.TokenID)
		}
		asset.Owner = ledger.Identity(payload.Buyer)
		store.PutAsset(evt.TokenID, asset)
		store.RemoveListing(evt.TokenID)
	default:
		return fmt.Errorf("fold: unknown event type %q", evt.Type)
	}
	return nil
}
