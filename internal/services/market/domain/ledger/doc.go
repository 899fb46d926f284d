// Package ledger owns the marketplace tables: minted assets and open
// listings, both keyed by token id.
//
// The store performs no validation. Deciders in the nft package check
// ownership and listing rules before any event reaches the store, and the
// fold applies only accepted events. Reads return copies so a caller holding
// an Asset or Listing cannot change a table row behind the store's back.
package ledger
