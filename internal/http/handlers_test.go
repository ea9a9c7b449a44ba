package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	nethttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/godilite/activation-insights/internal/aggregate"
	"github.com/godilite/activation-insights/internal/grpc/mocks"
	"github.com/godilite/activation-insights/internal/service"
	"github.com/godilite/activation-insights/pkg/cache"
)

var brt = time.FixedZone("BRT", -3*60*60)

func newTestApp(t *testing.T, svc DashboardService) (*fiber.App, *cache.Memory) {
	t.Helper()
	mem, err := cache.NewMemory(16)
	require.NoError(t, err)
	h := NewHandlers(svc, cache.NewReadThrough(mem, time.Minute, zap.NewNop()), zap.NewNop())
	return NewApp(h, zap.NewNop(), "*"), mem
}

func do(t *testing.T, app *fiber.App, method, target string) (int, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, target, nil), 2000)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	return out.Error
}

func TestNewHandlers(t *testing.T) {
	rt := cache.NewReadThrough(&mocks.MockCacher{}, time.Minute, nil)

	assert.Panics(t, func() { NewHandlers(nil, rt, zap.NewNop()) })
	assert.Panics(t, func() { NewHandlers(&mocks.MockDashboardService{}, nil, zap.NewNop()) })

	h := NewHandlers(&mocks.MockDashboardService{}, rt, nil)
	assert.NotNil(t, h.logger)
	assert.Contains(t, h.schemas, "dashboard")
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t, &mocks.MockDashboardService{})

	code, body := do(t, app, nethttp.MethodGet, "/health")
	assert.Equal(t, fiber.StatusOK, code)
	assert.JSONEq(t, `{"status":"healthy"}`, string(body))
}

func TestGetDashboard(t *testing.T) {
	t.Run("filter is parsed from the query", func(t *testing.T) {
		var got service.Filter
		svc := &mocks.MockDashboardService{
			Loc: brt,
			GetDashboardFunc: func(ctx context.Context, f service.Filter) (service.Dashboard, error) {
				got = f
				return service.Dashboard{
					Snapshot:       service.SnapshotInfo{ID: "snapshot-test"},
					Filter:         f,
					TotalCheckins:  3,
					CheckinsPerDay: []aggregate.CountByKey{{Key: "10/03/2025", Count: 1}},
				}, nil
			},
		}
		app, _ := newTestApp(t, svc)

		code, body := do(t, app, nethttp.MethodGet, "/v1/dashboard?activation_id=7&date=2025-03-10")
		require.Equal(t, fiber.StatusOK, code, string(body))

		require.NotNil(t, got.ActivationID)
		assert.Equal(t, int64(7), *got.ActivationID)
		assert.Equal(t, "10/03/2025", got.Date)

		var d service.Dashboard
		require.NoError(t, json.Unmarshal(body, &d))
		assert.Equal(t, "snapshot-test", d.Snapshot.ID)
		assert.Equal(t, 3, d.TotalCheckins)
		assert.Equal(t, []aggregate.CountByKey{{Key: "10/03/2025", Count: 1}}, d.CheckinsPerDay)
	})

	t.Run("invalid filter is rejected before loading", func(t *testing.T) {
		var loads atomic.Int32
		svc := &mocks.MockDashboardService{
			EnsureSnapshotFunc: func(ctx context.Context) (service.SnapshotInfo, error) {
				loads.Add(1)
				return service.SnapshotInfo{ID: "s"}, nil
			},
		}
		app, _ := newTestApp(t, svc)

		for _, q := range []string{"activation_id=abc", "activation_id=0", "date=31/02/2025"} {
			code, _ := do(t, app, nethttp.MethodGet, "/v1/dashboard?"+q)
			assert.Equal(t, fiber.StatusBadRequest, code, q)
		}
		assert.Equal(t, int32(0), loads.Load())
	})

	t.Run("snapshot failure shows the localized message", func(t *testing.T) {
		svc := &mocks.MockDashboardService{
			EnsureSnapshotFunc: func(ctx context.Context) (service.SnapshotInfo, error) {
				return service.SnapshotInfo{}, fmt.Errorf("%w: %w", service.ErrSnapshotUnavailable, errors.New("dial tcp: refused"))
			},
		}
		app, _ := newTestApp(t, svc)

		code, body := do(t, app, nethttp.MethodGet, "/v1/dashboard")
		assert.Equal(t, fiber.StatusBadGateway, code)
		assert.Equal(t, snapshotUnavailableMessage, errorMessage(t, body))
	})

	t.Run("context errors are not internal", func(t *testing.T) {
		cases := []struct {
			err  error
			code int
		}{
			{fmt.Errorf("fetch: %w", context.Canceled), statusClientClosedRequest},
			{fmt.Errorf("fetch: %w", context.DeadlineExceeded), fiber.StatusGatewayTimeout},
		}
		for _, tc := range cases {
			svc := &mocks.MockDashboardService{
				GetDashboardFunc: func(ctx context.Context, f service.Filter) (service.Dashboard, error) {
					return service.Dashboard{}, tc.err
				},
			}
			app, _ := newTestApp(t, svc)

			code, _ := do(t, app, nethttp.MethodGet, "/v1/dashboard")
			assert.Equal(t, tc.code, code, tc.err.Error())
		}
	})

	t.Run("unexpected error is internal", func(t *testing.T) {
		svc := &mocks.MockDashboardService{
			GetDashboardFunc: func(ctx context.Context, f service.Filter) (service.Dashboard, error) {
				return service.Dashboard{}, errors.New("boom")
			},
		}
		app, _ := newTestApp(t, svc)

		code, body := do(t, app, nethttp.MethodGet, "/v1/dashboard")
		assert.Equal(t, fiber.StatusInternalServerError, code)
		assert.Equal(t, "internal error", errorMessage(t, body))
	})

	t.Run("responses are cached per snapshot and filter", func(t *testing.T) {
		var calls atomic.Int32
		svc := &mocks.MockDashboardService{
			GetDashboardFunc: func(ctx context.Context, f service.Filter) (service.Dashboard, error) {
				calls.Add(1)
				return service.Dashboard{Filter: f}, nil
			},
		}
		app, mem := newTestApp(t, svc)

		code, _ := do(t, app, nethttp.MethodGet, "/v1/dashboard?activation_id=7")
		require.Equal(t, fiber.StatusOK, code)
		require.Eventually(t, func() bool { return mem.Len() == 1 }, time.Second, 10*time.Millisecond)

		code, _ = do(t, app, nethttp.MethodGet, "/v1/dashboard?activation_id=7")
		require.Equal(t, fiber.StatusOK, code)
		assert.Equal(t, int32(1), calls.Load())

		code, _ = do(t, app, nethttp.MethodGet, "/v1/dashboard?activation_id=8")
		require.Equal(t, fiber.StatusOK, code)
		assert.Equal(t, int32(2), calls.Load())
	})
}

func TestGetSurveyInsights(t *testing.T) {
	svc := &mocks.MockDashboardService{
		GetSurveyInsightsFunc: func(ctx context.Context) (service.SurveyInsights, error) {
			return service.SurveyInsights{
				Snapshot:                service.SnapshotInfo{ID: "snapshot-test"},
				AverageExperienceRating: "4.50",
				Comments:                []aggregate.Comment{{SurveyID: 1, Text: "Muito bom"}},
			}, nil
		},
	}
	app, _ := newTestApp(t, svc)

	code, body := do(t, app, nethttp.MethodGet, "/v1/surveys")
	require.Equal(t, fiber.StatusOK, code)

	var in service.SurveyInsights
	require.NoError(t, json.Unmarshal(body, &in))
	assert.Equal(t, "4.50", in.AverageExperienceRating)
	require.Len(t, in.Comments, 1)
	assert.Equal(t, "Muito bom", in.Comments[0].Text)
}

func TestRefreshSnapshot(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &mocks.MockDashboardService{
			RefreshFunc: func(ctx context.Context) (service.SnapshotInfo, error) {
				return service.SnapshotInfo{ID: "fresh", Checkins: 4}, nil
			},
		}
		app, _ := newTestApp(t, svc)

		code, body := do(t, app, nethttp.MethodPost, "/v1/snapshot/refresh")
		require.Equal(t, fiber.StatusOK, code)

		var info service.SnapshotInfo
		require.NoError(t, json.Unmarshal(body, &info))
		assert.Equal(t, "fresh", info.ID)
		assert.Equal(t, 4, info.Checkins)
	})

	t.Run("upstream failure", func(t *testing.T) {
		svc := &mocks.MockDashboardService{
			RefreshFunc: func(ctx context.Context) (service.SnapshotInfo, error) {
				return service.SnapshotInfo{}, service.ErrSnapshotUnavailable
			},
		}
		app, _ := newTestApp(t, svc)

		code, body := do(t, app, nethttp.MethodPost, "/v1/snapshot/refresh")
		assert.Equal(t, fiber.StatusBadGateway, code)
		assert.Equal(t, snapshotUnavailableMessage, errorMessage(t, body))
	})
}

func TestGetSchema(t *testing.T) {
	app, _ := newTestApp(t, &mocks.MockDashboardService{})

	code, body := do(t, app, nethttp.MethodGet, "/v1/schema")
	require.Equal(t, fiber.StatusOK, code)

	var schemas map[string]struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(body, &schemas))
	assert.Contains(t, schemas["dashboard"].Properties, "totalResgates")
	assert.Contains(t, schemas["dashboard"].Properties, "checkinsPerActivation")
	assert.Contains(t, schemas["surveyInsights"].Properties, "blocks")
}

func TestUnknownRoute(t *testing.T) {
	app, _ := newTestApp(t, &mocks.MockDashboardService{})

	code, body := do(t, app, nethttp.MethodGet, "/v2/nothing")
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.NotEmpty(t, errorMessage(t, body))
}

func TestCORS(t *testing.T) {
	app, _ := newTestApp(t, &mocks.MockDashboardService{})

	req := httptest.NewRequest(nethttp.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServerServeAndShutdown(t *testing.T) {
	mem, err := cache.NewMemory(4)
	require.NoError(t, err)
	h := NewHandlers(&mocks.MockDashboardService{}, cache.NewReadThrough(mem, time.Minute, nil), zap.NewNop())

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv, err := NewServer(h, WithListener(lis), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	assert.Equal(t, lis.Addr().String(), srv.Addr().String())

	served := make(chan error, 1)
	go func() { served <- srv.Serve() }()

	url := "http://" + srv.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := nethttp.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == nethttp.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after shutdown")
	}
}

func TestNewServerRejectsInvalidPort(t *testing.T) {
	h := NewHandlers(&mocks.MockDashboardService{}, cache.NewReadThrough(&mocks.MockCacher{}, time.Minute, nil), nil)
	_, err := NewServer(h, WithPort(-1))
	assert.Error(t, err)
}
