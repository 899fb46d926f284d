package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("handler: %w", New(CodeInspectQueryRequired, "query is required"))
	require.True(t, stderrors.Is(err, New(CodeInspectQueryRequired, "")))
	require.False(t, stderrors.Is(err, New(CodeInspectQueryInvalid, "")))
	require.Equal(t, CodeInspectQueryRequired, GetCode(err))
	require.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
}

func TestWrapUnwraps(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(CodeSnapshotEncodeFailed, "encode snapshot", cause)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "encode snapshot", err.Error())
}

func TestGRPCCodeMapping(t *testing.T) {
	require.Equal(t, codes.InvalidArgument, CodeInspectQueryRequired.GRPCCode())
	require.Equal(t, codes.InvalidArgument, CodeInspectQueryInvalid.GRPCCode())
	require.Equal(t, codes.Unavailable, CodeInspectorUnavailable.GRPCCode())
	require.Equal(t, codes.Internal, CodeSnapshotEncodeFailed.GRPCCode())
	require.Equal(t, codes.Internal, CodeUnknown.GRPCCode())
}

func TestToGRPCStatusAttachesErrorInfo(t *testing.T) {
	err := WithMetadata(CodeInspectQueryInvalid, "query must be a string", map[string]string{"field": "query"}).ToGRPCStatus()

	st, ok := status.FromError(err)
	require.True(t, ok)
	require.Equal(t, codes.InvalidArgument, st.Code())
	require.Equal(t, "query must be a string", st.Message())
	require.Len(t, st.Details(), 1)
	info, ok := st.Details()[0].(*errdetails.ErrorInfo)
	require.True(t, ok)
	require.Equal(t, "INSPECT_QUERY_INVALID", info.GetReason())
	require.Equal(t, Domain, info.GetDomain())
	require.Equal(t, "query", info.GetMetadata()["field"])
}

func TestToGRPC(t *testing.T) {
	require.NoError(t, ToGRPC(nil))
	require.Equal(t, codes.Internal, status.Code(ToGRPC(stderrors.New("plain"))))
	require.Equal(t, codes.Unavailable, status.Code(ToGRPC(New(CodeInspectorUnavailable, "down"))))
}
