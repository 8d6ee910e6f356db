package schedulingpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "routeplanner.scheduling.v1.SchedulingService"

const (
	MethodMaterializeWeek  = "/" + ServiceName + "/MaterializeWeek"
	MethodRescheduleVisit  = "/" + ServiceName + "/RescheduleVisit"
	MethodBatchReschedule  = "/" + ServiceName + "/BatchReschedule"
	MethodCompleteVisit    = "/" + ServiceName + "/CompleteVisit"
	MethodCancelVisit      = "/" + ServiceName + "/CancelVisit"
	MethodListVisits       = "/" + ServiceName + "/ListVisits"
	MethodGetPendingWork   = "/" + ServiceName + "/GetPendingWork"
	MethodGetWorkload      = "/" + ServiceName + "/GetWorkload"
	MethodGetConflictFlags = "/" + ServiceName + "/GetConflictFlags"
)

type SchedulingServiceServer interface {
	MaterializeWeek(context.Context, *MaterializeWeekRequest) (*MaterializeWeekResponse, error)
	RescheduleVisit(context.Context, *RescheduleVisitRequest) (*VisitStatusResponse, error)
	BatchReschedule(context.Context, *BatchRescheduleRequest) (*BatchRescheduleResponse, error)
	CompleteVisit(context.Context, *VisitRequest) (*VisitStatusResponse, error)
	CancelVisit(context.Context, *VisitRequest) (*VisitStatusResponse, error)
	ListVisits(context.Context, *ListVisitsRequest) (*ListVisitsResponse, error)
	GetPendingWork(context.Context, *TenantRequest) (*PendingWorkResponse, error)
	GetWorkload(context.Context, *RangeRequest) (*WorkloadResponse, error)
	GetConflictFlags(context.Context, *RangeRequest) (*ConflictFlagsResponse, error)
}

// UnimplementedSchedulingServiceServer отвечает Unimplemented на все методы;
// встраивается в реализации ради совместимости при добавлении RPC.
type UnimplementedSchedulingServiceServer struct{}

func (UnimplementedSchedulingServiceServer) MaterializeWeek(context.Context, *MaterializeWeekRequest) (*MaterializeWeekResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method MaterializeWeek not implemented")
}

func (UnimplementedSchedulingServiceServer) RescheduleVisit(context.Context, *RescheduleVisitRequest) (*VisitStatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RescheduleVisit not implemented")
}

func (UnimplementedSchedulingServiceServer) BatchReschedule(context.Context, *BatchRescheduleRequest) (*BatchRescheduleResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method BatchReschedule not implemented")
}

func (UnimplementedSchedulingServiceServer) CompleteVisit(context.Context, *VisitRequest) (*VisitStatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CompleteVisit not implemented")
}

func (UnimplementedSchedulingServiceServer) CancelVisit(context.Context, *VisitRequest) (*VisitStatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CancelVisit not implemented")
}

func (UnimplementedSchedulingServiceServer) ListVisits(context.Context, *ListVisitsRequest) (*ListVisitsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListVisits not implemented")
}

func (UnimplementedSchedulingServiceServer) GetPendingWork(context.Context, *TenantRequest) (*PendingWorkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetPendingWork not implemented")
}

func (UnimplementedSchedulingServiceServer) GetWorkload(context.Context, *RangeRequest) (*WorkloadResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetWorkload not implemented")
}

func (UnimplementedSchedulingServiceServer) GetConflictFlags(context.Context, *RangeRequest) (*ConflictFlagsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetConflictFlags not implemented")
}

func RegisterSchedulingServiceServer(s grpc.ServiceRegistrar, srv SchedulingServiceServer) {
	s.RegisterService(&SchedulingService_ServiceDesc, srv)
}

// unary собирает обработчик метода: декодирует запрос и пропускает вызов
// через интерсептор сервера, если он задан.
func unary[Req any, Resp any](
	fullMethod string,
	call func(SchedulingServiceServer, context.Context, *Req) (*Resp, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SchedulingServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SchedulingServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var SchedulingService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SchedulingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "MaterializeWeek", Handler: unary(MethodMaterializeWeek, SchedulingServiceServer.MaterializeWeek)},
		{MethodName: "RescheduleVisit", Handler: unary(MethodRescheduleVisit, SchedulingServiceServer.RescheduleVisit)},
		{MethodName: "BatchReschedule", Handler: unary(MethodBatchReschedule, SchedulingServiceServer.BatchReschedule)},
		{MethodName: "CompleteVisit", Handler: unary(MethodCompleteVisit, SchedulingServiceServer.CompleteVisit)},
		{MethodName: "CancelVisit", Handler: unary(MethodCancelVisit, SchedulingServiceServer.CancelVisit)},
		{MethodName: "ListVisits", Handler: unary(MethodListVisits, SchedulingServiceServer.ListVisits)},
		{MethodName: "GetPendingWork", Handler: unary(MethodGetPendingWork, SchedulingServiceServer.GetPendingWork)},
		{MethodName: "GetWorkload", Handler: unary(MethodGetWorkload, SchedulingServiceServer.GetWorkload)},
		{MethodName: "GetConflictFlags", Handler: unary(MethodGetConflictFlags, SchedulingServiceServer.GetConflictFlags)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "routeplanner/scheduling/v1/scheduling.proto",
}

type SchedulingServiceClient interface {
	MaterializeWeek(ctx context.Context, in *MaterializeWeekRequest, opts ...grpc.CallOption) (*MaterializeWeekResponse, error)
	RescheduleVisit(ctx context.Context, in *RescheduleVisitRequest, opts ...grpc.CallOption) (*VisitStatusResponse, error)
	BatchReschedule(ctx context.Context, in *BatchRescheduleRequest, opts ...grpc.CallOption) (*BatchRescheduleResponse, error)
	CompleteVisit(ctx context.Context, in *VisitRequest, opts ...grpc.CallOption) (*VisitStatusResponse, error)
	CancelVisit(ctx context.Context, in *VisitRequest, opts ...grpc.CallOption) (*VisitStatusResponse, error)
	ListVisits(ctx context.Context, in *ListVisitsRequest, opts ...grpc.CallOption) (*ListVisitsResponse, error)
	GetPendingWork(ctx context.Context, in *TenantRequest, opts ...grpc.CallOption) (*PendingWorkResponse, error)
	GetWorkload(ctx context.Context, in *RangeRequest, opts ...grpc.CallOption) (*WorkloadResponse, error)
	GetConflictFlags(ctx context.Context, in *RangeRequest, opts ...grpc.CallOption) (*ConflictFlagsResponse, error)
}

type schedulingServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewSchedulingServiceClient создаёт клиент, отправляющий сообщения JSON-кодеком.
func NewSchedulingServiceClient(cc grpc.ClientConnInterface) SchedulingServiceClient {
	return &schedulingServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *schedulingServiceClient) MaterializeWeek(ctx context.Context, in *MaterializeWeekRequest, opts ...grpc.CallOption) (*MaterializeWeekResponse, error) {
	return invoke[MaterializeWeekResponse](ctx, c.cc, MethodMaterializeWeek, in, opts)
}

func (c *schedulingServiceClient) RescheduleVisit(ctx context.Context, in *RescheduleVisitRequest, opts ...grpc.CallOption) (*VisitStatusResponse, error) {
	return invoke[VisitStatusResponse](ctx, c.cc, MethodRescheduleVisit, in, opts)
}

func (c *schedulingServiceClient) BatchReschedule(ctx context.Context, in *BatchRescheduleRequest, opts ...grpc.CallOption) (*BatchRescheduleResponse, error) {
	return invoke[BatchRescheduleResponse](ctx, c.cc, MethodBatchReschedule, in, opts)
}

func (c *schedulingServiceClient) CompleteVisit(ctx context.Context, in *VisitRequest, opts ...grpc.CallOption) (*VisitStatusResponse, error) {
	return invoke[VisitStatusResponse](ctx, c.cc, MethodCompleteVisit, in, opts)
}

func (c *schedulingServiceClient) CancelVisit(ctx context.Context, in *VisitRequest, opts ...grpc.CallOption) (*VisitStatusResponse, error) {
	return invoke[VisitStatusResponse](ctx, c.cc, MethodCancelVisit, in, opts)
}

func (c *schedulingServiceClient) ListVisits(ctx context.Context, in *ListVisitsRequest, opts ...grpc.CallOption) (*ListVisitsResponse, error) {
	return invoke[ListVisitsResponse](ctx, c.cc, MethodListVisits, in, opts)
}

func (c *schedulingServiceClient) GetPendingWork(ctx context.Context, in *TenantRequest, opts ...grpc.CallOption) (*PendingWorkResponse, error) {
	return invoke[PendingWorkResponse](ctx, c.cc, MethodGetPendingWork, in, opts)
}

func (c *schedulingServiceClient) GetWorkload(ctx context.Context, in *RangeRequest, opts ...grpc.CallOption) (*WorkloadResponse, error) {
	return invoke[WorkloadResponse](ctx, c.cc, MethodGetWorkload, in, opts)
}

func (c *schedulingServiceClient) GetConflictFlags(ctx context.Context, in *RangeRequest, opts ...grpc.CallOption) (*ConflictFlagsResponse, error) {
	return invoke[ConflictFlagsResponse](ctx, c.cc, MethodGetConflictFlags, in, opts)
}
