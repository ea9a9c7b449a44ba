package http

import (
	"context"
	"time"

	"github.com/godilite/activation-insights/internal/service"
)

// DashboardService is the service surface the HTTP handlers depend on.
type DashboardService interface {
	EnsureSnapshot(ctx context.Context) (service.SnapshotInfo, error)
	Refresh(ctx context.Context) (service.SnapshotInfo, error)
	GetDashboard(ctx context.Context, f service.Filter) (service.Dashboard, error)
	GetSurveyInsights(ctx context.Context) (service.SurveyInsights, error)
	Location() *time.Location
}
