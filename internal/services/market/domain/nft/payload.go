package nft

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/louisbranch/marketplace/internal/services/market/domain/amount"
	"github.com/shopspring/decimal"
)

var (
	// ErrTokenIDRequired indicates a command without a tokenId.
	ErrTokenIDRequired = errors.New("tokenId is required")
	// ErrTokenIDInvalid indicates a tokenId that is neither a string nor a number.
	ErrTokenIDInvalid = errors.New("tokenId must be a string or number")
)

// MintCommand is the decoded mint_nft payload.
type MintCommand struct {
	TokenID  string
	Metadata json.RawMessage
}

// ListCommand is the decoded list_for_sale payload. The price is parsed
// on demand, after the asset checks, so a list that cannot apply never
// fails on its price.
type ListCommand struct {
	TokenID  string
	rawPrice json.RawMessage
}

// Price parses the listing price.
func (c ListCommand) Price() (*big.Int, error) {
	price, err := amount.Parse(c.rawPrice)
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	return price, nil
}

// BuyCommand is the decoded buy_nft payload. The amount is parsed on demand,
// after the listing lookup.
type BuyCommand struct {
	TokenID   string
	rawAmount json.RawMessage
}

// Amount parses the offered amount.
func (c BuyCommand) Amount() (*big.Int, error) {
	paid, err := amount.Parse(c.rawAmount)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	return paid, nil
}

type wireFields struct {
	TokenID  json.RawMessage `json:"tokenId"`
	Metadata json.RawMessage `json:"metadata"`
	Price    json.RawMessage `json:"price"`
	Amount   json.RawMessage `json:"amount"`
}

func decodeFields(raw []byte) (wireFields, error) {
	var fields wireFields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return wireFields{}, fmt.Errorf("decode payload: %w", err)
	}
	return fields, nil
}

// DecodeMint decodes a mint_nft payload.
func DecodeMint(raw []byte) (MintCommand, error) {
	fields, err := decodeFields(raw)
	if err != nil {
		return MintCommand{}, err
	}
	tokenID, err := parseTokenID(fields.TokenID)
	if err != nil {
		return MintCommand{}, err
	}
	return MintCommand{TokenID: tokenID, Metadata: fields.Metadata}, nil
}

// DecodeList decodes a list_for_sale payload.
func DecodeList(raw []byte) (ListCommand, error) {
	fields, err := decodeFields(raw)
	if err != nil {
		return ListCommand{}, err
	}
	tokenID, err := parseTokenID(fields.TokenID)
	if err != nil {
		return ListCommand{}, err
	}
	return ListCommand{TokenID: tokenID, rawPrice: fields.Price}, nil
}

// DecodeBuy decodes a buy_nft payload.
func DecodeBuy(raw []byte) (BuyCommand, error) {
	fields, err := decodeFields(raw)
	if err != nil {
		return BuyCommand{}, err
	}
	tokenID, err := parseTokenID(fields.TokenID)
	if err != nil {
		return BuyCommand{}, err
	}
	return BuyCommand{TokenID: tokenID, rawAmount: fields.Amount}, nil
}

// parseTokenID accepts a JSON string verbatim or a JSON number in canonical
// decimal form, so 1, 1.0 and "1" address the same asset. Numbers whose
// canonical form would exceed amount.MaxDigits digits on either side of the
// point are rejected before they are rendered.
func parseTokenID(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", ErrTokenIDRequired
	}
	switch c := trimmed[0]; {
	case c == '"':
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return "", fmt.Errorf("%w: %v", ErrTokenIDInvalid, err)
		}
		return id, nil
	case c == '-' || (c >= '0' && c <= '9'):
		return canonicalNumber(string(trimmed))
	default:
		return "", ErrTokenIDInvalid
	}
}

func canonicalNumber(literal string) (string, error) {
	if len(literal) > amount.MaxLiteralLen {
		return "", fmt.Errorf("%w: number too long", ErrTokenIDInvalid)
	}
	value, err := decimal.NewFromString(literal)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenIDInvalid, err)
	}
	if value.IsZero() {
		return "0", nil
	}
	digits := int64(len(value.Coefficient().String()))
	if value.Sign() < 0 {
		digits--
	}
	exp := int64(value.Exponent())
	if exp > 0 && digits+exp > amount.MaxDigits || exp < -amount.MaxDigits {
		return "", fmt.Errorf("%w: %s is out of range", ErrTokenIDInvalid, literal)
	}
	return value.String(), nil
}

// MintedPayload is the nft.minted event body.
type MintedPayload struct {
	Creator  string          `json:"creator"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// ListedPayload is the nft.listed event body.
type ListedPayload struct {
	Price  string `json:"price"`
	Seller string `json:"seller"`
}

// PurchasedPayload is the nft.purchased event body. It doubles as the
// settlement instruction handed to the host: no value moves inside the
// ledger, only ownership.
type PurchasedPayload struct {
	TokenID        string `json:"tokenId"`
	Buyer          string `json:"buyer"`
	Seller         string `json:"seller"`
	Creator        string `json:"creator"`
	Price          string `json:"price"`
	Amount         string `json:"amount"`
	Royalty        string `json:"royalty"`
	AmountToSeller string `json:"amountToSeller"`
}
