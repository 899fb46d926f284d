// Package errors provides coded errors that map onto gRPC statuses.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Inspect errors
	CodeInspectQueryRequired Code = "INSPECT_QUERY_REQUIRED"
	CodeInspectQueryInvalid  Code = "INSPECT_QUERY_INVALID"
	CodeInspectorUnavailable Code = "INSPECTOR_UNAVAILABLE"
	CodeSnapshotEncodeFailed Code = "SNAPSHOT_ENCODE_FAILED"
)

// GRPCCode returns the gRPC status code for c.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeInspectQueryRequired, CodeInspectQueryInvalid:
		return codes.InvalidArgument
	case CodeInspectorUnavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}
