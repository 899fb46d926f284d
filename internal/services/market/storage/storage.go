// Package storage defines the journal contract for processed inputs.
//
// The journal is an audit trail for operators and settlement tooling. The
// ledger is never rebuilt from it.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAlreadyRecorded indicates an input index that was journaled before.
	ErrAlreadyRecorded = errors.New("input already recorded")
)

// Entry is one processed advance input.
type Entry struct {
	Seq              int64
	InputIndex       uint64
	RequestID        string
	Sender           string
	Method           string
	TokenID          string
	Verdict          string
	RejectionCode    string
	RejectionMessage string
	// SettlementJSON is the purchase settlement instruction, if any.
	SettlementJSON []byte
	RecordedAt     time.Time
}

// EntryPage is one page of journal entries ordered by Seq.
type EntryPage struct {
	Entries []Entry
	NextSeq int64
}

// Journal persists processed inputs.
type Journal interface {
	Record(ctx context.Context, entry Entry) error
	ListEntries(ctx context.Context, afterSeq int64, pageSize int) (EntryPage, error)
}
