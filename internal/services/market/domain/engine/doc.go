// Package engine is the marketplace command processor.
//
// Process takes one host input (sender plus raw payload), decodes it into a
// command, routes it through the nft decider and folds accepted events into
// the ledger store. Inspect answers point queries against the same store.
//
// Two failure classes are kept apart. Structural failures (invalid UTF-8,
// malformed JSON, malformed fields, internal faults) reject the input and
// produce a diagnostic report. Business-rule failures (listing an asset the
// sender does not own, paying less than the price, buying an unlisted asset)
// are logged and the input is still accepted: the verdict says the input was
// processed, not that its intent succeeded.
//
// The processor is not safe for concurrent use. The host delivers inputs one
// at a time and callers that add other entry points must serialize them.
package engine
