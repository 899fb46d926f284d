package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/marketplace/internal/services/market/domain/engine"
	"github.com/louisbranch/marketplace/internal/services/market/domain/ledger"
	"github.com/louisbranch/marketplace/internal/services/market/rollup"
	"github.com/louisbranch/marketplace/internal/services/market/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const (
	alice = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	bob   = "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"
)

type memoryJournal struct {
	entries []storage.Entry
	err     error
}

func (j *memoryJournal) Record(_ context.Context, entry storage.Entry) error {
	if j.err != nil {
		return j.err
	}
	j.entries = append(j.entries, entry)
	return nil
}

func (j *memoryJournal) ListEntries(context.Context, int64, int) (storage.EntryPage, error) {
	return storage.EntryPage{Entries: j.entries}, nil
}

func newTestRuntime(t *testing.T, opts ...RuntimeOption) *Runtime {
	t.Helper()
	processor, err := engine.NewProcessor(ledger.NewStore())
	require.NoError(t, err)
	runtime, err := NewRuntime(processor, opts...)
	require.NoError(t, err)
	runtime.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return runtime
}

func advance(sender, payload string, index uint64) rollup.Advance {
	return rollup.Advance{
		Metadata: rollup.Metadata{MsgSender: sender, InputIndex: index},
		Sender:   sender,
		Payload:  []byte(payload),
	}
}

func TestNewRuntimeRequiresProcessor(t *testing.T) {
	_, err := NewRuntime(nil)
	require.Error(t, err)
}

func TestHandleAdvancePurchaseEmitsSettlementNotice(t *testing.T) {
	journal := &memoryJournal{}
	runtime := newTestRuntime(t, WithJournal(journal))
	ctx := context.Background()

	mint := runtime.HandleAdvance(ctx, advance(alice, `{"method":"mint_nft","tokenId":"1","metadata":{"name":"cat"}}`, 0))
	require.Equal(t, rollup.StatusAccept, mint.Status)
	require.Empty(t, mint.Notices)

	list := runtime.HandleAdvance(ctx, advance(alice, `{"method":"list_for_sale","tokenId":"1","price":"1000"}`, 1))
	require.Equal(t, rollup.StatusAccept, list.Status)

	buy := runtime.HandleAdvance(ctx, advance(bob, `{"method":"buy_nft","tokenId":"1","amount":"1000"}`, 2))
	require.Equal(t, rollup.StatusAccept, buy.Status)
	require.Empty(t, buy.Reports)
	require.Len(t, buy.Notices, 1)

	var notice SettlementNotice
	require.NoError(t, json.Unmarshal(buy.Notices[0], &notice))
	require.Equal(t, SettlementNotice{
		Type:           "settlement",
		TokenID:        "1",
		Buyer:          bob,
		Seller:         alice,
		Creator:        alice,
		Price:          "1000",
		Royalty:        "50",
		AmountToSeller: "950",
	}, notice)

	require.Len(t, journal.entries, 3)
	last := journal.entries[2]
	require.Equal(t, uint64(2), last.InputIndex)
	require.Equal(t, "buy_nft", last.Method)
	require.Equal(t, "1", last.TokenID)
	require.Equal(t, "accept", last.Verdict)
	require.JSONEq(t, string(buy.Notices[0]), string(last.SettlementJSON))
	require.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), last.RecordedAt)
}

func TestHandleAdvanceStructuralRejectReports(t *testing.T) {
	journal := &memoryJournal{}
	runtime := newTestRuntime(t, WithJournal(journal))

	result := runtime.HandleAdvance(context.Background(), advance(alice, `not json`, 0))
	require.Equal(t, rollup.StatusReject, result.Status)
	require.Len(t, result.Reports, 1)
	require.Empty(t, result.Notices)

	require.Len(t, journal.entries, 1)
	require.Equal(t, "reject", journal.entries[0].Verdict)
	require.Equal(t, "PAYLOAD_DECODE_FAILED", journal.entries[0].RejectionCode)
	require.Equal(t, string(result.Reports[0]), journal.entries[0].RejectionMessage)
}

func TestHandleAdvanceBusinessRejectAccepts(t *testing.T) {
	journal := &memoryJournal{}
	runtime := newTestRuntime(t, WithJournal(journal))

	result := runtime.HandleAdvance(context.Background(), advance(bob, `{"method":"buy_nft","tokenId":"9","amount":"1"}`, 0))
	require.Equal(t, rollup.StatusAccept, result.Status)
	require.Empty(t, result.Reports)

	require.Len(t, journal.entries, 1)
	require.Equal(t, "accept", journal.entries[0].Verdict)
	require.Equal(t, "LISTING_NOT_FOUND", journal.entries[0].RejectionCode)
}

func TestJournalFailureKeepsVerdict(t *testing.T) {
	var logs bytes.Buffer
	journal := &memoryJournal{err: errors.New("disk full")}
	runtime := newTestRuntime(t, WithJournal(journal), WithLogger(zerolog.New(&logs)))

	result := runtime.HandleAdvance(context.Background(), advance(alice, `{"method":"mint_nft","tokenId":"1"}`, 0))
	require.Equal(t, rollup.StatusAccept, result.Status)
	require.Contains(t, logs.String(), "journal record failed")
	require.Contains(t, logs.String(), "disk full")
	require.Equal(t, alice, runtime.Inspect(context.Background(), "nft/1").NFT.Owner)
}

func TestHandleInspectReportsSnapshot(t *testing.T) {
	runtime := newTestRuntime(t)
	ctx := context.Background()
	runtime.HandleAdvance(ctx, advance(alice, `{"method":"mint_nft","tokenId":"1","metadata":{"name":"cat"}}`, 0))
	runtime.HandleAdvance(ctx, advance(alice, `{"method":"list_for_sale","tokenId":"1","price":12345678901234567890}`, 1))

	result := runtime.HandleInspect(ctx, rollup.Inspect{Payload: []byte("nft/1")})
	require.Equal(t, rollup.StatusAccept, result.Status)
	require.Len(t, result.Reports, 1)
	require.JSONEq(t, `{
		"nft":{"creator":"`+alice+`","owner":"`+alice+`","metadata":{"name":"cat"}},
		"sale":{"price":"12345678901234567890","seller":"`+alice+`"}
	}`, string(result.Reports[0]))

	missing := runtime.HandleInspect(ctx, rollup.Inspect{Payload: []byte("nft/2")})
	require.JSONEq(t, `{"nft":{},"sale":{}}`, string(missing.Reports[0]))
}

func TestRuntimeRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	runtime := newTestRuntime(t, WithTracerProvider(provider))

	runtime.HandleAdvance(context.Background(), advance(alice, `[]`, 4))
	runtime.Inspect(context.Background(), "nft/1")

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	require.Equal(t, "marketplace.Process", spans[0].Name())
	require.Equal(t, "marketplace.Inspect", spans[1].Name())

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	require.Equal(t, "reject", attrs["marketplace.verdict"])
	require.Equal(t, "4", attrs["marketplace.input_index"])
}

func TestRuntimeRecordsStructuralErrorOnSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	runtime := newTestRuntime(t, WithTracerProvider(provider))

	runtime.HandleAdvance(context.Background(), advance(alice, `not json`, 0))
	runtime.HandleAdvance(context.Background(), advance(bob, `{"method":"buy_nft","tokenId":"9","amount":"1"}`, 1))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	require.Len(t, spans[0].Events(), 1)
	require.Equal(t, "exception", spans[0].Events()[0].Name)
	require.Empty(t, spans[1].Events())
}
