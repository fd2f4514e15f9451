package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// StaffingServiceName は gRPC のサービス名です。
const StaffingServiceName = "staffing.v1.StaffingService"

// StaffingServiceServer は StaffingService のサーバー側インターフェースです。
// リクエストとレスポンスは google.protobuf.Struct で受け渡します。
type StaffingServiceServer interface {
	CalculateWorkload(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ValidateAssignment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CreateAssignment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateAssignment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	TerminateAssignment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetAssignment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListAssignments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(StaffingServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + StaffingServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(StaffingServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(StaffingServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// StaffingServiceDesc は StaffingService の grpc.ServiceDesc です。
var StaffingServiceDesc = grpc.ServiceDesc{
	ServiceName: StaffingServiceName,
	HandlerType: (*StaffingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("CalculateWorkload", StaffingServiceServer.CalculateWorkload),
		unaryHandler("ValidateAssignment", StaffingServiceServer.ValidateAssignment),
		unaryHandler("CreateAssignment", StaffingServiceServer.CreateAssignment),
		unaryHandler("UpdateAssignment", StaffingServiceServer.UpdateAssignment),
		unaryHandler("TerminateAssignment", StaffingServiceServer.TerminateAssignment),
		unaryHandler("GetAssignment", StaffingServiceServer.GetAssignment),
		unaryHandler("ListAssignments", StaffingServiceServer.ListAssignments),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "staffing/v1/staffing.proto",
}

// RegisterStaffingServiceServer は srv を gRPC サーバーに登録します。
func RegisterStaffingServiceServer(s grpc.ServiceRegistrar, srv StaffingServiceServer) {
	s.RegisterService(&StaffingServiceDesc, srv)
}

// StaffingServiceClient は StaffingService を呼び出すクライアントです。
type StaffingServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewStaffingServiceClient は StaffingServiceClient を生成します。
func NewStaffingServiceClient(cc grpc.ClientConnInterface) *StaffingServiceClient {
	return &StaffingServiceClient{cc: cc}
}

// Call は method (例: "CreateAssignment") を呼び出します。
func (c *StaffingServiceClient) Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+StaffingServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
