package nft

import (
	"encoding/json"

	"github.com/louisbranch/marketplace/internal/services/market/domain/amount"
	"github.com/louisbranch/marketplace/internal/services/market/domain/command"
	"github.com/louisbranch/marketplace/internal/services/market/domain/event"
	"github.com/louisbranch/marketplace/internal/services/market/domain/ledger"
	"github.com/louisbranch/marketplace/internal/services/market/domain/royalty"
)

const (
	MethodMint command.Method = "mint_nft"
	MethodList command.Method = "list_for_sale"
	MethodBuy  command.Method = "buy_nft"

	RejectionCodeAssetNotFound       = "ASSET_NOT_FOUND"
	RejectionCodeAssetNotOwned       = "ASSET_NOT_OWNED"
	RejectionCodeListingNotFound     = "LISTING_NOT_FOUND"
	RejectionCodePaymentInsufficient = "PAYMENT_INSUFFICIENT"
)

// State is the read side of the ledger used by the decider.
type State interface {
	GetAsset(id string) (ledger.Asset, bool)
	GetListing(id string) (ledger.Listing, bool)
}

// RegisterCommands adds the marketplace methods to registry.
func RegisterCommands(registry *command.Registry) error {
	definitions := []command.Definition{
		{Method: MethodMint, ValidatePayload: func(raw json.RawMessage) error {
			_, err := DecodeMint(raw)
			return err
		}},
		{Method: MethodList, ValidatePayload: func(raw json.RawMessage) error {
			_, err := DecodeList(raw)
			return err
		}},
		{Method: MethodBuy, ValidatePayload: func(raw json.RawMessage) error {
			_, err := DecodeBuy(raw)
			return err
		}},
	}
	for _, def := range definitions {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// Decider decides marketplace commands against the current ledger.
type Decider struct {
	Royalty royalty.Schedule
}

// Decide returns the decision for cmd. Unknown methods yield an empty
// decision.
func (d Decider) Decide(state State, cmd command.Command) command.Decision {
	switch cmd.Method {
	case MethodMint:
		return d.decideMint(cmd)
	case MethodList:
		return d.decideList(state, cmd)
	case MethodBuy:
		return d.decideBuy(state, cmd)
	default:
		return command.Decision{}
	}
}

// decideMint always succeeds. Minting an existing id replaces the asset,
// including its creator.
func (d Decider) decideMint(cmd command.Command) command.Decision {
	payload, err := DecodeMint(cmd.PayloadJSON)
	if err != nil {
		return rejectDecode(err)
	}
	payloadJSON, _ := json.Marshal(MintedPayload{
		Creator:  cmd.Sender,
		Metadata: payload.Metadata,
	})
	return command.Accept(command.NewEvent(cmd, event.TypeMinted, payload.TokenID, payloadJSON))
}

// decideList checks the asset before the price, so listing a token the
// sender cannot list is a business rejection whatever the price field holds.
func (d Decider) decideList(state State, cmd command.Command) command.Decision {
	payload, err := DecodeList(cmd.PayloadJSON)
	if err != nil {
		return rejectDecode(err)
	}
	asset, ok := state.GetAsset(payload.TokenID)
	if !ok {
		return command.Reject(command.Rejection{
			Code:    RejectionCodeAssetNotFound,
			Message: "nft does not exist",
		})
	}
	if asset.Owner != ledger.Identity(cmd.Sender) {
		return command.Reject(command.Rejection{
			Code:    RejectionCodeAssetNotOwned,
			Message: "nft not owned by sender",
		})
	}
	price, err := payload.Price()
	if err != nil {
		return rejectDecode(err)
	}
	payloadJSON, _ := json.Marshal(ListedPayload{
		Price:  amount.Format(price),
		Seller: cmd.Sender,
	})
	return command.Accept(command.NewEvent(cmd, event.TypeListed, payload.TokenID, payloadJSON))
}

// decideBuy reads the amount only once a listing exists.
func (d Decider) decideBuy(state State, cmd command.Command) command.Decision {
	payload, err := DecodeBuy(cmd.PayloadJSON)
	if err != nil {
		return rejectDecode(err)
	}
	listing, ok := state.GetListing(payload.TokenID)
	if !ok {
		return command.Reject(command.Rejection{
			Code:    RejectionCodeListingNotFound,
			Message: "sale not found",
		})
	}
	paid, err := payload.Amount()
	if err != nil {
		return rejectDecode(err)
	}
	if paid.Cmp(listing.Price) < 0 {
		return command.Reject(command.Rejection{
			Code:    RejectionCodePaymentInsufficient,
			Message: "insufficient amount",
		})
	}
	asset, ok := state.GetAsset(payload.TokenID)
	if !ok {
		// A listing without an asset breaks the ledger invariant.
		return command.Reject(command.Rejection{
			Code:    command.RejectionCodeInternalFault,
			Message: "listing has no asset",
		})
	}
	split, err := d.Royalty.Split(listing.Price)
	if err != nil {
		return command.Reject(command.Rejection{
			Code:    command.RejectionCodeInternalFault,
			Message: err.Error(),
		})
	}
	payloadJSON, _ := json.Marshal(PurchasedPayload{
		TokenID:        payload.TokenID,
		Buyer:          cmd.Sender,
		Seller:         string(listing.Seller),
		Creator:        string(asset.Creator),
		Price:          amount.Format(split.Price),
		Amount:         amount.Format(paid),
		Royalty:        amount.Format(split.Royalty),
		AmountToSeller: amount.Format(split.ToSeller),
	})
	return command.Accept(command.NewEvent(cmd, event.TypePurchased, payload.TokenID, payloadJSON))
}

func rejectDecode(err error) command.Decision {
	return command.Reject(command.Rejection{
		Code:    command.RejectionCodePayloadDecodeFailed,
		Message: err.Error(),
	})
}
