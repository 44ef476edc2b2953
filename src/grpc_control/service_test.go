package grpc_control

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"chart-feed/src/config"
	datasource "chart-feed/src/data_source"
	"chart-feed/src/logger"
	"chart-feed/src/models"
	"chart-feed/src/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func idleConfig(name string) models.MSessionConfig {
	cfg := models.MSessionConfig{
		Name:          name,
		Symbol:        "TEST",
		IntervalMs:    3_600_000,
		SeedCount:     20,
		TimestampMode: config.TimestampOrdinal,
	}
	config.ApplySessionDefaults(&cfg)
	return cfg
}

func constant(v float64) datasource.FuncSource {
	return datasource.FuncSource{
		SourceName: "constant",
		FetchFunc: func(ctx context.Context) (models.MReading, error) {
			return models.MReading{Value: v}, nil
		},
	}
}

func newTestClient(t *testing.T) (*ChartControlClient, *ControlService) {
	t.Helper()
	log := logger.NewNopLogger()

	cfg := &config.Config{MConfig: &models.MConfig{Name: "chart-feed"}}
	cfg.Sessions = []models.MSessionConfig{idleConfig("alpha"), idleConfig("beta")}

	var sessions []*session.Session
	for _, sc := range cfg.Sessions {
		sessions = append(sessions, session.WithSource(sc, constant(42), nil, nil, log))
	}
	manager := session.NewManager(sessions, log)
	require.NoError(t, manager.Start(context.Background()))

	path := filepath.Join(t.TempDir(), "config.yaml")
	svc := NewControlService(cfg, manager, nil, nil, path, log)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterChartControlServer(srv, svc)
	go srv.Serve(lis)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		srv.Stop()
		manager.Stop()
	})
	return NewChartControlClient(conn), svc
}

func codeOf(err error) codes.Code {
	return status.Code(err)
}

// -----------------------------------------------------------------------------

func TestListSessions(t *testing.T) {
	client, _ := newTestClient(t)

	reply, err := client.ListSessions(context.Background())
	require.NoError(t, err)

	list := reply.GetFields()["sessions"].GetListValue().GetValues()
	require.Len(t, list, 2)

	first := list[0].GetStructValue().GetFields()
	assert.Equal(t, "alpha", first["name"].GetStringValue())
	assert.True(t, first["is_running"].GetBoolValue())
	assert.Equal(t, 20.0, first["stream_length"].GetNumberValue())
	assert.Equal(t, 20.0, first["visible_count"].GetNumberValue())
}

func TestLifecycleCommands(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	_, err := client.Call(ctx, "StartSession", map[string]interface{}{"name": "alpha"})
	assert.Equal(t, codes.FailedPrecondition, codeOf(err))

	reply, err := client.Call(ctx, "StopSession", map[string]interface{}{"name": "alpha"})
	require.NoError(t, err)
	assert.False(t, reply.GetFields()["is_running"].GetBoolValue())

	_, err = client.Call(ctx, "StopSession", map[string]interface{}{"name": "alpha"})
	assert.Equal(t, codes.FailedPrecondition, codeOf(err))

	reply, err = client.Call(ctx, "StartSession", map[string]interface{}{"name": "alpha"})
	require.NoError(t, err)
	assert.True(t, reply.GetFields()["is_running"].GetBoolValue())

	reply, err = client.Call(ctx, "PauseSession", map[string]interface{}{"name": "beta"})
	require.NoError(t, err)
	assert.True(t, reply.GetFields()["paused"].GetBoolValue())

	reply, err = client.Call(ctx, "ResumeSession", map[string]interface{}{"name": "beta"})
	require.NoError(t, err)
	assert.False(t, reply.GetFields()["paused"].GetBoolValue())

	_, err = client.Call(ctx, "StopSession", map[string]interface{}{"name": "gamma"})
	assert.Equal(t, codes.NotFound, codeOf(err))

	_, err = client.Call(ctx, "StartSession", map[string]interface{}{})
	assert.Equal(t, codes.InvalidArgument, codeOf(err))
}

func TestZoomCommands(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	reply, err := client.Call(ctx, "Zoom", map[string]interface{}{"name": "alpha", "direction": "in"})
	require.NoError(t, err)
	assert.Equal(t, 19.0, reply.GetFields()["visible_count"].GetNumberValue())

	reply, err = client.Call(ctx, "Zoom", map[string]interface{}{"name": "alpha", "direction": "in", "magnitude": 0.5})
	require.NoError(t, err)
	assert.Equal(t, 10.0, reply.GetFields()["visible_count"].GetNumberValue())

	// beta is untouched
	reply, err = client.Call(ctx, "ResetZoom", map[string]interface{}{"name": "beta"})
	require.NoError(t, err)
	assert.Equal(t, 20.0, reply.GetFields()["visible_count"].GetNumberValue())

	reply, err = client.Call(ctx, "ResetZoom", map[string]interface{}{"name": "alpha"})
	require.NoError(t, err)
	assert.Equal(t, 20.0, reply.GetFields()["visible_count"].GetNumberValue())

	_, err = client.Call(ctx, "Zoom", map[string]interface{}{"name": "alpha", "direction": "sideways"})
	assert.Equal(t, codes.InvalidArgument, codeOf(err))

	_, err = client.Call(ctx, "Zoom", map[string]interface{}{"name": "alpha", "direction": "out", "magnitude": -1.0})
	assert.Equal(t, codes.InvalidArgument, codeOf(err))

	_, err = client.Call(ctx, "Zoom", map[string]interface{}{"name": "gamma", "direction": "out"})
	assert.Equal(t, codes.NotFound, codeOf(err))
}

func TestAddAndRemoveSessionPersists(t *testing.T) {
	client, svc := newTestClient(t)
	ctx := context.Background()

	reply, err := client.Call(ctx, "AddSession", map[string]interface{}{
		"name":        "gamma",
		"symbol":      "GAM",
		"interval_ms": 3_600_000.0,
		"seed_count":  5.0,
		"policy":      "uniform",
		"min":         0.0,
		"max":         10.0,
	})
	require.NoError(t, err)
	assert.True(t, reply.GetFields()["is_running"].GetBoolValue())
	assert.Equal(t, 5.0, reply.GetFields()["stream_length"].GetNumberValue())

	_, found := svc.Config.FindSession("gamma")
	assert.True(t, found)
	saved, err := os.ReadFile(svc.ConfigPath)
	require.NoError(t, err)
	assert.Contains(t, string(saved), "gamma")

	_, err = client.Call(ctx, "AddSession", map[string]interface{}{"name": "gamma"})
	assert.Equal(t, codes.AlreadyExists, codeOf(err))

	_, err = client.Call(ctx, "AddSession", map[string]interface{}{"name": "delta", "policy": "zigzag"})
	assert.Equal(t, codes.InvalidArgument, codeOf(err))

	_, err = client.Call(ctx, "RemoveSession", map[string]interface{}{"name": "gamma"})
	require.NoError(t, err)
	_, found = svc.Config.FindSession("gamma")
	assert.False(t, found)

	_, err = client.Call(ctx, "RemoveSession", map[string]interface{}{"name": "gamma"})
	assert.Equal(t, codes.NotFound, codeOf(err))
}

func TestAddSessionRejectsBadNumbers(t *testing.T) {
	client, svc := newTestClient(t)
	ctx := context.Background()

	cases := map[string]map[string]interface{}{
		"enormous capacity":   {"name": "huge", "interval_ms": 1000.0, "capacity": 1e15},
		"capacity over limit": {"name": "big", "capacity": float64(config.MaxCapacity + 1)},
		"fractional capacity": {"name": "half", "capacity": 2.5},
		"negative interval":   {"name": "neg", "interval_ms": -5.0},
		"textual seed count":  {"name": "text", "seed_count": "lots"},
		"enormous seed count": {"name": "seedy", "seed_count": 1e12},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := client.Call(ctx, "AddSession", req)
			assert.Equal(t, codes.InvalidArgument, codeOf(err))
		})
	}

	// nothing was registered or persisted
	reply, err := client.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, reply.GetFields()["sessions"].GetListValue().GetValues(), 2)
	assert.Len(t, svc.Config.Sessions, 2)
}
