package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/louisbranch/marketplace/internal/services/market/domain/engine"
	"github.com/louisbranch/marketplace/internal/services/market/domain/ledger"
	"github.com/louisbranch/marketplace/internal/services/market/domain/nft"
	"github.com/louisbranch/marketplace/internal/services/market/rollup"
	"github.com/louisbranch/marketplace/internal/services/market/storage"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/marketplace/internal/services/market/app"

// SettlementNotice is the notice payload emitted for each purchase.
type SettlementNotice struct {
	Type           string `json:"type"`
	TokenID        string `json:"tokenId"`
	Buyer          string `json:"buyer"`
	Seller         string `json:"seller"`
	Creator        string `json:"creator"`
	Price          string `json:"price"`
	Royalty        string `json:"royalty"`
	AmountToSeller string `json:"amountToSeller"`
}

func newSettlementNotice(p *nft.PurchasedPayload) SettlementNotice {
	return SettlementNotice{
		Type:           "settlement",
		TokenID:        p.TokenID,
		Buyer:          p.Buyer,
		Seller:         p.Seller,
		Creator:        p.Creator,
		Price:          p.Price,
		Royalty:        p.Royalty,
		AmountToSeller: p.AmountToSeller,
	}
}

// Runtime serializes every call into the processor. The host loop and the
// gRPC API may call it concurrently.
type Runtime struct {
	mu        sync.Mutex
	processor *engine.Processor
	journal   storage.Journal
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithJournal records every advance input in journal.
func WithJournal(journal storage.Journal) RuntimeOption {
	return func(r *Runtime) { r.journal = journal }
}

// WithLogger sets the runtime logger.
func WithLogger(logger zerolog.Logger) RuntimeOption {
	return func(r *Runtime) { r.logger = logger }
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(provider trace.TracerProvider) RuntimeOption {
	return func(r *Runtime) {
		if provider != nil {
			r.tracer = provider.Tracer(tracerName)
		}
	}
}

// NewRuntime wraps processor.
func NewRuntime(processor *engine.Processor, opts ...RuntimeOption) (*Runtime, error) {
	if processor == nil {
		return nil, errors.New("processor is required")
	}
	r := &Runtime{
		processor: processor,
		logger:    zerolog.Nop(),
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// HandleAdvance processes one advance input and builds the host outputs.
func (r *Runtime) HandleAdvance(ctx context.Context, advance rollup.Advance) rollup.AdvanceResult {
	ctx, span := r.tracer.Start(ctx, "marketplace.Process", trace.WithAttributes(
		attribute.Int64("marketplace.input_index", int64(advance.Metadata.InputIndex)),
		attribute.String("marketplace.sender", advance.Sender),
	))
	defer span.End()

	r.mu.Lock()
	out := r.processor.Process(ctx, engine.Input{
		Sender:     ledger.Identity(advance.Sender),
		Payload:    advance.Payload,
		InputIndex: advance.Metadata.InputIndex,
	})
	r.mu.Unlock()

	span.SetAttributes(
		attribute.String("marketplace.request_id", out.RequestID),
		attribute.String("marketplace.method", string(out.Method)),
		attribute.String("marketplace.verdict", string(out.Verdict)),
	)

	result := rollup.AdvanceResult{Status: rollup.StatusAccept}
	if out.Verdict == engine.VerdictReject {
		result.Status = rollup.StatusReject
		span.SetStatus(otelcodes.Error, string(out.Report))
	}
	if engine.IsStructural(out.Err) {
		span.RecordError(out.Err)
	}
	if len(out.Report) > 0 {
		result.Reports = append(result.Reports, out.Report)
	}

	var settlement []byte
	if out.Settlement != nil {
		data, err := json.Marshal(newSettlementNotice(out.Settlement))
		if err != nil {
			r.logger.Error().Err(err).Str("request_id", out.RequestID).Msg("encode settlement notice")
		} else {
			settlement = data
			result.Notices = append(result.Notices, data)
		}
	}

	r.record(ctx, advance, out, settlement)
	return result
}

// HandleInspect answers an inspect request with a snapshot report.
func (r *Runtime) HandleInspect(ctx context.Context, inspect rollup.Inspect) rollup.InspectResult {
	snapshot := r.Inspect(ctx, string(inspect.Payload))
	return rollup.InspectResult{Status: rollup.StatusAccept, Reports: [][]byte{snapshot.JSON()}}
}

// Inspect returns the snapshot addressed by query.
func (r *Runtime) Inspect(ctx context.Context, query string) engine.Snapshot {
	_, span := r.tracer.Start(ctx, "marketplace.Inspect", trace.WithAttributes(
		attribute.String("marketplace.query", query),
	))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processor.Inspect(query)
}

// record journals the outcome. Failures are logged; the verdict stands.
func (r *Runtime) record(ctx context.Context, advance rollup.Advance, out engine.Outcome, settlement []byte) {
	if r.journal == nil {
		return
	}
	entry := storage.Entry{
		InputIndex:     advance.Metadata.InputIndex,
		RequestID:      out.RequestID,
		Sender:         advance.Sender,
		Method:         string(out.Method),
		TokenID:        out.TokenID,
		Verdict:        string(out.Verdict),
		SettlementJSON: settlement,
		RecordedAt:     r.now().UTC(),
	}
	var structural *engine.StructuralError
	switch {
	case errors.As(out.Err, &structural):
		entry.RejectionCode = structural.Code
		entry.RejectionMessage = structural.Error()
	case out.Decision.Rejected():
		entry.RejectionCode = out.Decision.Rejections[0].Code
		entry.RejectionMessage = out.Decision.Rejections[0].Message
	}
	if err := r.journal.Record(ctx, entry); err != nil {
		level := r.logger.Error()
		if errors.Is(err, storage.ErrAlreadyRecorded) {
			level = r.logger.Warn()
		}
		level.Err(fmt.Errorf("journal input %d: %w", entry.InputIndex, err)).
			Str("request_id", out.RequestID).
			Msg("journal record failed")
	}
}
