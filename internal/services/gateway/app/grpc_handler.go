package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/LeonardoBeccarini/farmfuture/internal/catalog"
	"github.com/LeonardoBeccarini/farmfuture/pkg/query"
)

const (
	DashboardServiceName = "farmfuture.dashboard.v1.DashboardService"

	queryMethod   = "/" + DashboardServiceName + "/Query"
	summaryMethod = "/" + DashboardServiceName + "/Summary"
)

// DashboardServer answers list and summary requests. Requests and responses
// are google.protobuf.Struct:
//
//	request  {entity, query, facets: {name: value}, scope}
//	Query    -> {entity, total, count, items}
//	Summary  -> {entity, summary}
type DashboardServer interface {
	Query(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Summary(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var dashboardServiceDesc = grpc.ServiceDesc{
	ServiceName: DashboardServiceName,
	HandlerType: (*DashboardServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Query", Handler: unary(queryMethod, DashboardServer.Query)},
		{MethodName: "Summary", Handler: unary(summaryMethod, DashboardServer.Summary)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "farmfuture/dashboard/v1/dashboard.proto",
}

type grpcMethod func(DashboardServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(fullMethod string, call grpcMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DashboardServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DashboardServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RegisterGRPC installs the dashboard service and the standard health
// service on s.
func (g *Gateway) RegisterGRPC(s *grpc.Server) *health.Server {
	s.RegisterService(&dashboardServiceDesc, &grpcHandler{gw: g})
	hs := health.NewServer()
	hs.SetServingStatus(DashboardServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return hs
}

// LoggingInterceptor logs every unary call with its gRPC status code.
func LoggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		log.Info("grpc request", zap.String("method", info.FullMethod), zap.Stringer("code", status.Code(err)))
		return resp, err
	}
}

type grpcHandler struct {
	gw *Gateway
}

func (h *grpcHandler) Query(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	entity, c, _, err := parseRequest(in)
	if err != nil {
		return nil, err
	}
	sel, err := catalog.Select(h.gw.store.Snapshot(), entity, c)
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(sel)
}

func (h *grpcHandler) Summary(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	entity, c, filtered, err := parseRequest(in)
	if err != nil {
		return nil, err
	}
	sum, err := catalog.Summarize(h.gw.store.Snapshot(), entity, c, filtered)
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(struct {
		Entity  string `json:"entity"`
		Summary any    `json:"summary"`
	}{entity, sum})
}

func parseRequest(in *structpb.Struct) (string, query.Criteria, bool, error) {
	f := in.GetFields()
	entity := f["entity"].GetStringValue()
	if entity == "" {
		return "", query.Criteria{}, false, status.Error(codes.InvalidArgument, "entity is required")
	}
	c := query.Criteria{Query: f["query"].GetStringValue(), Facets: query.Facets{}}
	for k, v := range f["facets"].GetStructValue().GetFields() {
		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return "", query.Criteria{}, false, status.Errorf(codes.InvalidArgument, "facet %q must be a string", k)
		}
		c.Facets[k] = s.StringValue
	}
	filtered, err := parseScope(f["scope"].GetStringValue())
	if err != nil {
		return "", query.Criteria{}, false, status.Error(codes.InvalidArgument, err.Error())
	}
	return entity, c, filtered, nil
}

func grpcError(err error) error {
	switch {
	case errors.Is(err, catalog.ErrUnknownEntity), errors.Is(err, catalog.ErrNoSummary):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, errBadRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// toStruct goes through JSON so typed slices and nested structs keep their
// JSON field names.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// DashboardClient calls a remote DashboardService.
type DashboardClient struct {
	cc grpc.ClientConnInterface
}

func NewDashboardClient(cc grpc.ClientConnInterface) *DashboardClient {
	return &DashboardClient{cc: cc}
}

func (c *DashboardClient) Query(ctx context.Context, entity string, crit query.Criteria) (map[string]any, error) {
	return c.call(ctx, queryMethod, entity, crit, false)
}

func (c *DashboardClient) Summary(ctx context.Context, entity string, crit query.Criteria, filtered bool) (map[string]any, error) {
	return c.call(ctx, summaryMethod, entity, crit, filtered)
}

func (c *DashboardClient) call(ctx context.Context, method, entity string, crit query.Criteria, filtered bool) (map[string]any, error) {
	facets := make(map[string]any, len(crit.Facets))
	for k, v := range crit.Facets {
		facets[k] = v
	}
	scope := scopeAll
	if filtered {
		scope = scopeFiltered
	}
	in, err := structpb.NewStruct(map[string]any{
		"entity": entity,
		"query":  crit.Query,
		"facets": facets,
		"scope":  scope,
	})
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}
