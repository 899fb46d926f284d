// Package event defines the ledger events emitted by accepted commands.
package event

// Type identifies a ledger event.
type Type string

const (
	// TypeMinted records a mint_nft command.
	TypeMinted Type = "nft.minted"
	// TypeListed records a successful list_for_sale command.
	TypeListed Type = "nft.listed"
	// TypePurchased records a successful buy_nft command.
	TypePurchased Type = "nft.purchased"
)

// Event is one state change for a single token.
type Event struct {
	Type        Type
	TokenID     string
	ActorID     string
	RequestID   string
	InputIndex  uint64
	PayloadJSON []byte
}
