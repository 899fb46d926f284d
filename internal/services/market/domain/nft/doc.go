// Package nft holds the marketplace aggregate: command payloads, the decider
// that turns mint/list/buy commands into ledger events, and the fold that
// applies those events to the ledger store.
//
// Deciders never mutate state. A decision either carries one event or a
// business rejection; rejections leave the ledger untouched and are only
// surfaced through logs and the journal.
package nft
