package rollup

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-playground/validator/v10"
)

// ErrSenderInvalid indicates a msg_sender that is not a 20-byte address.
var ErrSenderInvalid = errors.New("msg_sender is not a valid address")

// RequestType identifies the kind of request returned by /finish.
type RequestType string

const (
	RequestAdvance RequestType = "advance_state"
	RequestInspect RequestType = "inspect_state"
)

// Metadata describes the origin of an advance input.
type Metadata struct {
	MsgSender   string `json:"msg_sender" validate:"required,eth_addr"`
	EpochIndex  uint64 `json:"epoch_index"`
	InputIndex  uint64 `json:"input_index"`
	BlockNumber uint64 `json:"block_number"`
	Timestamp   uint64 `json:"timestamp"`
}

type advanceData struct {
	Metadata *Metadata `json:"metadata" validate:"required"`
	Payload  string    `json:"payload" validate:"required,startswith=0x"`
}

type inspectData struct {
	Payload string `json:"payload" validate:"required,startswith=0x"`
}

// Advance is a decoded advance request.
type Advance struct {
	Metadata Metadata
	// Sender is the EIP-55 checksummed form of Metadata.MsgSender.
	Sender  string
	Payload []byte
}

// Inspect is a decoded inspect request.
type Inspect struct {
	Payload []byte
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeAdvance decodes and validates the data of an advance request.
func DecodeAdvance(data json.RawMessage) (Advance, error) {
	var wire advanceData
	if err := json.Unmarshal(data, &wire); err != nil {
		return Advance{}, fmt.Errorf("decode advance: %w", err)
	}
	if err := validate.Struct(wire); err != nil {
		return Advance{}, fmt.Errorf("validate advance: %w", err)
	}
	sender, err := ChecksumAddress(wire.Metadata.MsgSender)
	if err != nil {
		return Advance{}, err
	}
	payload, err := DecodeHex(wire.Payload)
	if err != nil {
		return Advance{}, err
	}
	return Advance{Metadata: *wire.Metadata, Sender: sender, Payload: payload}, nil
}

// DecodeInspect decodes and validates the data of an inspect request.
func DecodeInspect(data json.RawMessage) (Inspect, error) {
	var wire inspectData
	if err := json.Unmarshal(data, &wire); err != nil {
		return Inspect{}, fmt.Errorf("decode inspect: %w", err)
	}
	if err := validate.Struct(wire); err != nil {
		return Inspect{}, fmt.Errorf("validate inspect: %w", err)
	}
	payload, err := DecodeHex(wire.Payload)
	if err != nil {
		return Inspect{}, err
	}
	return Inspect{Payload: payload}, nil
}

// ChecksumAddress validates a hex address and returns its EIP-55 form, so
// senders compare equal regardless of the case the node used.
func ChecksumAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: %q", ErrSenderInvalid, address)
	}
	return common.HexToAddress(address).Hex(), nil
}

// DecodeHex decodes a 0x-prefixed hex payload.
func DecodeHex(payload string) ([]byte, error) {
	data, err := hexutil.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload hex: %w", err)
	}
	return data, nil
}

// EncodeHex encodes bytes as a 0x-prefixed hex payload.
func EncodeHex(data []byte) string {
	return hexutil.Encode(data)
}
