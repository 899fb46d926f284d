package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/louisbranch/marketplace/internal/services/market/domain/command"
	"github.com/louisbranch/marketplace/internal/services/market/domain/event"
	"github.com/louisbranch/marketplace/internal/services/market/domain/ledger"
	"github.com/louisbranch/marketplace/internal/services/market/domain/nft"
	"github.com/louisbranch/marketplace/internal/services/market/domain/royalty"
	"github.com/rs/zerolog"
)

// Verdict is the per-input answer returned to the host.
type Verdict string

const (
	VerdictAccept Verdict = "accept"
	VerdictReject Verdict = "reject"
)

// Input is one advance request from the host.
type Input struct {
	Sender     ledger.Identity
	Payload    []byte
	InputIndex uint64
}

// Outcome is the result of processing one input.
type Outcome struct {
	Verdict   Verdict
	RequestID string
	Method    command.Method
	TokenID   string
	// Decision holds the applied events or the business rejections.
	Decision command.Decision
	// Err is set for structural rejections.
	Err error
	// Report is the diagnostic payload for the host, set on rejection.
	Report []byte
	// Settlement is set when a purchase succeeded.
	Settlement *nft.PurchasedPayload
}

// Processor applies marketplace commands to a ledger store.
type Processor struct {
	store        *ledger.Store
	commands     *command.Registry
	decider      nft.Decider
	logger       zerolog.Logger
	newRequestID func() string
}

// Option configures a Processor.
type Option func(*Processor)

// WithRoyalty overrides the default 5% royalty schedule.
func WithRoyalty(schedule royalty.Schedule) Option {
	return func(p *Processor) { p.decider.Royalty = schedule }
}

// WithLogger sets the logger used for business rejections and faults.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Processor) { p.logger = logger }
}

// WithRequestIDs overrides request id generation.
func WithRequestIDs(fn func() string) Option {
	return func(p *Processor) {
		if fn != nil {
			p.newRequestID = fn
		}
	}
}

// NewProcessor creates a processor that owns no state of its own; every
// read and write goes to store.
func NewProcessor(store *ledger.Store, opts ...Option) (*Processor, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	registry := command.NewRegistry()
	if err := nft.RegisterCommands(registry); err != nil {
		return nil, fmt.Errorf("register commands: %w", err)
	}
	p := &Processor{
		store:        store,
		commands:     registry,
		decider:      nft.Decider{Royalty: royalty.Default()},
		logger:       zerolog.Nop(),
		newRequestID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Process decodes and applies one input.
func (p *Processor) Process(ctx context.Context, in Input) (out Outcome) {
	requestID := p.newRequestID()
	logger := p.logger.With().
		Str("request_id", requestID).
		Uint64("input_index", in.InputIndex).
		Str("sender", string(in.Sender)).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			out = p.reject(logger, out, command.RejectionCodeInternalFault, fmt.Errorf("internal fault: %v", r))
		}
	}()
	out = Outcome{RequestID: requestID}

	if err := ctx.Err(); err != nil {
		return p.reject(logger, out, command.RejectionCodeInternalFault, err)
	}

	cmd, err := decodeCommand(in)
	if err != nil {
		return p.reject(logger, out, command.RejectionCodePayloadDecodeFailed, err)
	}
	cmd.RequestID = requestID
	out.Method = cmd.Method

	if _, ok := p.commands.Definition(cmd.Method); !ok {
		logger.Debug().Str("method", string(cmd.Method)).Msg("unrecognized method ignored")
		out.Verdict = VerdictAccept
		return out
	}
	cmd, err = p.commands.ValidateForDecision(cmd)
	if err != nil {
		return p.reject(logger, out, command.RejectionCodePayloadDecodeFailed, err)
	}

	decision := p.decider.Decide(p.store, cmd)
	out.Decision = decision
	if decision.Rejected() {
		for _, rejection := range decision.Rejections {
			switch rejection.Code {
			case command.RejectionCodePayloadDecodeFailed, command.RejectionCodeInternalFault:
				return p.reject(logger, out, rejection.Code, errors.New(rejection.Message))
			}
		}
		for _, rejection := range decision.Rejections {
			logger.Warn().
				Str("method", string(cmd.Method)).
				Str("code", rejection.Code).
				Msg(rejection.Message)
		}
		out.Verdict = VerdictAccept
		return out
	}

	for _, evt := range decision.Events {
		if err := nft.Fold(p.store, evt); err != nil {
			return p.reject(logger, out, command.RejectionCodeInternalFault, err)
		}
		out.TokenID = evt.TokenID
		if evt.Type == event.TypePurchased {
			var settlement nft.PurchasedPayload
			if err := json.Unmarshal(evt.PayloadJSON, &settlement); err == nil {
				out.Settlement = &settlement
				logger.Info().
					Str("token_id", evt.TokenID).
					Str("royalty", settlement.Royalty).
					Str("creator", settlement.Creator).
					Str("amount_to_seller", settlement.AmountToSeller).
					Msg("nft purchased")
			}
		}
	}
	logger.Info().
		Str("method", string(cmd.Method)).
		Str("token_id", out.TokenID).
		Int("assets", p.store.AssetCount()).
		Int("listings", p.store.ListingCount()).
		Msg("command applied")
	out.Verdict = VerdictAccept
	return out
}

func (p *Processor) reject(logger zerolog.Logger, out Outcome, code string, err error) Outcome {
	structural := &StructuralError{Code: code, Err: err}
	logger.Error().Err(err).Str("code", code).Msg("input rejected")
	out.Verdict = VerdictReject
	out.Err = structural
	out.Report = []byte(structural.Error())
	out.Settlement = nil
	return out
}

func decodeCommand(in Input) (command.Command, error) {
	if !utf8.Valid(in.Payload) {
		return command.Command{}, ErrPayloadNotUTF8
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(in.Payload, &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return command.Command{}, ErrPayloadNotObject
		}
		return command.Command{}, fmt.Errorf("parse payload: %w", err)
	}
	if fields == nil {
		return command.Command{}, ErrPayloadNotObject
	}
	// A non-string method matches nothing and is ignored like any other
	// unknown method.
	var method string
	_ = json.Unmarshal(fields["method"], &method)
	return command.Command{
		Method:      command.Method(method),
		Sender:      string(in.Sender),
		InputIndex:  in.InputIndex,
		PayloadJSON: in.Payload,
	}, nil
}
