// Package inspect exposes ledger snapshots over gRPC for operators.
//
// The service is registered from a hand-written descriptor; requests and
// responses are google.protobuf.Struct values so no generated code is needed.
package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/marketplace/internal/platform/errors"
	"github.com/louisbranch/marketplace/internal/services/market/domain/engine"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "marketplace.v1.InspectService"
	// FullMethodInspect is the full method name of Inspect.
	FullMethodInspect = "/" + ServiceName + "/Inspect"
)

// Inspector answers snapshot queries.
type Inspector interface {
	Inspect(ctx context.Context, query string) engine.Snapshot
}

// InspectServer is the server API for the inspect service.
type InspectServer interface {
	Inspect(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// Service implements InspectServer over an Inspector.
type Service struct {
	inspector Inspector
}

// NewService creates the inspect service.
func NewService(inspector Inspector) *Service {
	return &Service{inspector: inspector}
}

// Inspect accepts {"query":"nft/<id>"} or {"token_id":"<id>"} and returns
// the snapshot as a struct.
func (s *Service) Inspect(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s == nil || s.inspector == nil {
		return nil, apperrors.New(apperrors.CodeInspectorUnavailable, "inspector is not configured").ToGRPCStatus()
	}
	if in == nil {
		return nil, apperrors.New(apperrors.CodeInspectQueryRequired, "inspect request is required").ToGRPCStatus()
	}
	query, err := queryFromRequest(in)
	if err != nil {
		return nil, apperrors.ToGRPC(err)
	}

	snapshot := s.inspector.Inspect(ctx, query)
	var fields map[string]any
	if err := json.Unmarshal(snapshot.JSON(), &fields); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSnapshotEncodeFailed, "decode snapshot", err).ToGRPCStatus()
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSnapshotEncodeFailed, "encode snapshot", err).ToGRPCStatus()
	}
	return out, nil
}

func queryFromRequest(in *structpb.Struct) (string, error) {
	fields := in.GetFields()
	if value, ok := fields["query"]; ok {
		query, ok := value.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return "", apperrors.WithMetadata(apperrors.CodeInspectQueryInvalid, "query must be a string", map[string]string{"field": "query"})
		}
		if strings.TrimSpace(query.StringValue) == "" {
			return "", apperrors.WithMetadata(apperrors.CodeInspectQueryRequired, "query is required", map[string]string{"field": "query"})
		}
		return query.StringValue, nil
	}
	if value, ok := fields["token_id"]; ok {
		tokenID := strings.TrimSpace(value.GetStringValue())
		if tokenID == "" {
			return "", apperrors.WithMetadata(apperrors.CodeInspectQueryInvalid, "token_id must be a non-empty string", map[string]string{"field": "token_id"})
		}
		return "nft/" + tokenID, nil
	}
	return "", apperrors.New(apperrors.CodeInspectQueryRequired, "query or token_id is required")
}

// ServiceDesc is the grpc.ServiceDesc for the inspect service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InspectServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Inspect", Handler: inspectHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "marketplace/v1/inspect.proto",
}

// Register adds the inspect service to server.
func Register(server grpc.ServiceRegistrar, srv InspectServer) {
	server.RegisterService(&ServiceDesc, srv)
}

func inspectHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InspectServer).Inspect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethodInspect}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InspectServer).Inspect(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls the inspect service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Inspect queries the snapshot for query.
func (c *Client) Inspect(ctx context.Context, query string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{"query": query})
	if err != nil {
		return nil, fmt.Errorf("build inspect request: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethodInspect, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
