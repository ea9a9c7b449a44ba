package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	pb "github.com/godilite/activation-insights/api/v1"
	"github.com/godilite/activation-insights/internal/service"
	"github.com/godilite/activation-insights/pkg/cache"
)

const defaultGRPCTimeout = 20 * time.Second

type CacheKeyType string

const (
	cacheKeyDashboard CacheKeyType = "grpc:dashboard"
	cacheKeySurveys   CacheKeyType = "grpc:survey_insights"
)

type GRPCHandlers struct {
	pb.UnimplementedActivationDashboardServer
	dashboard DashboardService
	cache     *cache.ReadThrough
	logger    *zap.Logger
}

// NewGRPCHandlers initializes the gRPC handlers.
func NewGRPCHandlers(dashboard DashboardService, rt *cache.ReadThrough, logger *zap.Logger) *GRPCHandlers {
	if dashboard == nil {
		panic("nil DashboardService provided to NewGRPCHandlers")
	}
	if rt == nil {
		panic("nil ReadThrough cache provided to NewGRPCHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandlers{
		dashboard: dashboard,
		cache:     rt,
		logger:    logger.Named("grpc-handler"),
	}
}

// parseFilter reads the optional activation_id and date fields. activation_id
// may be sent as a string or a whole number.
func (s *GRPCHandlers) parseFilter(req *structpb.Struct) (service.Filter, error) {
	fields := req.GetFields()

	var activation string
	if v, ok := fields["activation_id"]; ok {
		switch k := v.GetKind().(type) {
		case *structpb.Value_StringValue:
			activation = k.StringValue
		case *structpb.Value_NumberValue:
			if k.NumberValue != math.Trunc(k.NumberValue) {
				return service.Filter{}, status.Error(codes.InvalidArgument, "activation_id must be a whole number")
			}
			activation = strconv.FormatInt(int64(k.NumberValue), 10)
		case *structpb.Value_NullValue:
		default:
			return service.Filter{}, status.Error(codes.InvalidArgument, "activation_id must be a string or number")
		}
	}

	var date string
	if v, ok := fields["date"]; ok {
		switch k := v.GetKind().(type) {
		case *structpb.Value_StringValue:
			date = k.StringValue
		case *structpb.Value_NullValue:
		default:
			return service.Filter{}, status.Error(codes.InvalidArgument, "date must be a string")
		}
	}

	f, err := service.ParseFilter(activation, date, s.dashboard.Location())
	if err != nil {
		return service.Filter{}, status.Error(codes.InvalidArgument, err.Error())
	}
	return f, nil
}

// normalizeKey scopes cached responses to one snapshot, so a refresh never serves stale data.
func normalizeKey(prefix CacheKeyType, snapshotID string, parts ...string) string {
	key := fmt.Sprintf("%s:%s", prefix, snapshotID)
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

func (s *GRPCHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, context.Canceled):
		s.logger.Warn("request canceled", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("request timeout", zap.String("op", op), zap.Error(err))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	case errors.Is(err, service.ErrInvalidFilter):
		s.logger.Info("invalid filter", zap.String("op", op), zap.Error(err))
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrSnapshotUnavailable):
		s.logger.Error("snapshot unavailable", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Unavailable, "snapshot unavailable")
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed: %v", op, err)
	}
}

// toStruct carries any JSON-serialisable value as a google.protobuf.Struct.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("convert response: %w", err)
	}
	return out, nil
}

func (s *GRPCHandlers) GetDashboard(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := s.parseFilter(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	snap, err := s.dashboard.EnsureSnapshot(ctx)
	if err != nil {
		return nil, s.handleError(ctx, "GetDashboard", err)
	}

	cacheKey := normalizeKey(cacheKeyDashboard, snap.ID, f.CacheKey())
	d, err := cache.FindAndCache(ctx, s.cache, cacheKey, func(fetchCtx context.Context) (service.Dashboard, error) {
		return s.dashboard.GetDashboard(fetchCtx, f)
	})
	if err != nil {
		return nil, s.handleError(ctx, "GetDashboard", err)
	}

	out, err := toStruct(d)
	if err != nil {
		return nil, s.handleError(ctx, "GetDashboard", err)
	}
	return out, nil
}

func (s *GRPCHandlers) GetSurveyInsights(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	snap, err := s.dashboard.EnsureSnapshot(ctx)
	if err != nil {
		return nil, s.handleError(ctx, "GetSurveyInsights", err)
	}

	cacheKey := normalizeKey(cacheKeySurveys, snap.ID)
	insights, err := cache.FindAndCache(ctx, s.cache, cacheKey, func(fetchCtx context.Context) (service.SurveyInsights, error) {
		return s.dashboard.GetSurveyInsights(fetchCtx)
	})
	if err != nil {
		return nil, s.handleError(ctx, "GetSurveyInsights", err)
	}

	out, err := toStruct(insights)
	if err != nil {
		return nil, s.handleError(ctx, "GetSurveyInsights", err)
	}
	return out, nil
}

func (s *GRPCHandlers) RefreshSnapshot(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	info, err := s.dashboard.Refresh(ctx)
	if err != nil {
		return nil, s.handleError(ctx, "RefreshSnapshot", err)
	}

	s.logger.Info("snapshot refreshed", zap.String("snapshot_id", info.ID))

	out, err := toStruct(info)
	if err != nil {
		return nil, s.handleError(ctx, "RefreshSnapshot", err)
	}
	return out, nil
}
