// Package v1 declares the dashboard.v1.ActivationDashboard gRPC service.
//
// Payloads are well-known types: requests and responses are
// google.protobuf.Struct documents holding the JSON shapes of the HTTP API,
// so the service needs no generated message types.
package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "dashboard.v1.ActivationDashboard"

const (
	ActivationDashboard_GetDashboard_FullMethodName      = "/" + ServiceName + "/GetDashboard"
	ActivationDashboard_GetSurveyInsights_FullMethodName = "/" + ServiceName + "/GetSurveyInsights"
	ActivationDashboard_RefreshSnapshot_FullMethodName   = "/" + ServiceName + "/RefreshSnapshot"
)

// ActivationDashboardClient is the client API for the ActivationDashboard service.
type ActivationDashboardClient interface {
	// GetDashboard accepts {"activation_id": "...", "date": "..."}; both fields are optional.
	GetDashboard(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetSurveyInsights(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	RefreshSnapshot(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type activationDashboardClient struct {
	cc grpc.ClientConnInterface
}

func NewActivationDashboardClient(cc grpc.ClientConnInterface) ActivationDashboardClient {
	return &activationDashboardClient{cc}
}

func (c *activationDashboardClient) GetDashboard(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ActivationDashboard_GetDashboard_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *activationDashboardClient) GetSurveyInsights(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ActivationDashboard_GetSurveyInsights_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *activationDashboardClient) RefreshSnapshot(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ActivationDashboard_RefreshSnapshot_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ActivationDashboardServer is the server API for the ActivationDashboard service.
type ActivationDashboardServer interface {
	GetDashboard(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSurveyInsights(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	RefreshSnapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// UnimplementedActivationDashboardServer can be embedded for forward compatibility.
type UnimplementedActivationDashboardServer struct{}

func (UnimplementedActivationDashboardServer) GetDashboard(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetDashboard not implemented")
}

func (UnimplementedActivationDashboardServer) GetSurveyInsights(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetSurveyInsights not implemented")
}

func (UnimplementedActivationDashboardServer) RefreshSnapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method RefreshSnapshot not implemented")
}

func RegisterActivationDashboardServer(s grpc.ServiceRegistrar, srv ActivationDashboardServer) {
	s.RegisterService(&ActivationDashboard_ServiceDesc, srv)
}

func _ActivationDashboard_GetDashboard_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ActivationDashboardServer).GetDashboard(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ActivationDashboard_GetDashboard_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ActivationDashboardServer).GetDashboard(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _ActivationDashboard_GetSurveyInsights_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ActivationDashboardServer).GetSurveyInsights(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ActivationDashboard_GetSurveyInsights_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ActivationDashboardServer).GetSurveyInsights(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _ActivationDashboard_RefreshSnapshot_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ActivationDashboardServer).RefreshSnapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ActivationDashboard_RefreshSnapshot_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ActivationDashboardServer).RefreshSnapshot(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// ActivationDashboard_ServiceDesc is the grpc.ServiceDesc for the ActivationDashboard service.
var ActivationDashboard_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ActivationDashboardServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetDashboard", Handler: _ActivationDashboard_GetDashboard_Handler},
		{MethodName: "GetSurveyInsights", Handler: _ActivationDashboard_GetSurveyInsights_Handler},
		{MethodName: "RefreshSnapshot", Handler: _ActivationDashboard_RefreshSnapshot_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dashboard/v1/dashboard.proto",
}
