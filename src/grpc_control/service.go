package grpc_control

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"chart-feed/src/config"
	"chart-feed/src/helpers"
	"chart-feed/src/interfaces"
	"chart-feed/src/logger"
	"chart-feed/src/models"
	"chart-feed/src/session"
	"chart-feed/src/zoom"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ControlService implements ChartControlServer on top of a session manager.
type ControlService struct {
	Config     *config.Config
	Sessions   *session.Manager
	Publisher  interfaces.IPublisher
	Recorder   interfaces.IRecorder
	ConfigPath string
	Logger     *logger.Logger

	configMu sync.Mutex
}

// NewControlService creates a new instance of ControlService
func NewControlService(
	cfg *config.Config,
	sessions *session.Manager,
	publisher interfaces.IPublisher,
	recorder interfaces.IRecorder,
	cfgPath string,
	log *logger.Logger,
) *ControlService {
	return &ControlService{
		Config:     cfg,
		Sessions:   sessions,
		Publisher:  publisher,
		Recorder:   recorder,
		ConfigPath: cfgPath,
		Logger:     log,
	}
}

// -----------------------------------------------------------------------------

func (s *ControlService) ListSessions(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	statuses := s.Sessions.Statuses()
	list := make([]interface{}, 0, len(statuses))
	for _, st := range statuses {
		list = append(list, statusFields(st))
	}
	return newStruct(map[string]interface{}{"sessions": list})
}

// -----------------------------------------------------------------------------

// AddSession creates, registers and persists a new session.
func (s *ControlService) AddSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, err := requireName(req)
	if err != nil {
		return nil, err
	}
	fields := req.GetFields()

	cfg := models.MSessionConfig{
		Name:   name,
		Symbol: fields["symbol"].GetStringValue(),
	}
	for key, dst := range map[string]*int{
		"interval_ms": &cfg.IntervalMs,
		"capacity":    &cfg.Capacity,
		"seed_count":  &cfg.SeedCount,
	} {
		if *dst, err = intField(fields, key); err != nil {
			return nil, toStatus(err)
		}
	}
	cfg.Generator.Policy = fields["policy"].GetStringValue()
	cfg.Generator.Min = fields["min"].GetNumberValue()
	cfg.Generator.Max = fields["max"].GetNumberValue()
	config.ApplySessionDefaults(&cfg)

	if err := config.ValidateSession(&cfg); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	sess, err := session.FromConfig(cfg, s.Publisher, s.Recorder, s.Logger)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.Sessions.AddSession(sess); err != nil {
		return nil, toStatus(err)
	}

	s.persist(func(c *config.Config) {
		c.Sessions = append(c.Sessions, cfg)
	})

	s.Logger.Info("gRPC: Added session %s", name)
	return newStruct(statusFields(sess.Status()))
}

// -----------------------------------------------------------------------------

func (s *ControlService) RemoveSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, err := requireName(req)
	if err != nil {
		return nil, err
	}
	if err := s.Sessions.RemoveSession(name); err != nil {
		return nil, toStatus(err)
	}

	s.persist(func(c *config.Config) {
		kept := make([]models.MSessionConfig, 0, len(c.Sessions))
		for _, sc := range c.Sessions {
			if sc.Name != name {
				kept = append(kept, sc)
			}
		}
		c.Sessions = kept
	})

	s.Logger.Info("gRPC: Removed session %s", name)
	return newStruct(map[string]interface{}{"name": name, "removed": true})
}

// -----------------------------------------------------------------------------

func (s *ControlService) StartSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.withName(req, func(name string) error {
		return s.Sessions.StartSession(name)
	})
}

func (s *ControlService) StopSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.withName(req, func(name string) error {
		return s.Sessions.StopSession(name)
	})
}

func (s *ControlService) PauseSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.withSession(req, func(sess *session.Session) error {
		sess.Pause()
		return nil
	})
}

func (s *ControlService) ResumeSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.withSession(req, func(sess *session.Session) error {
		sess.Resume()
		return nil
	})
}

// -----------------------------------------------------------------------------

// Zoom expects {"name", "direction"} and an optional "magnitude".
func (s *ControlService) Zoom(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	dir, err := zoom.ParseDirection(fields["direction"].GetStringValue())
	if err != nil {
		return nil, toStatus(err)
	}
	magnitude := zoom.ButtonMagnitude
	if v, ok := fields["magnitude"]; ok {
		magnitude = v.GetNumberValue()
		if magnitude <= 0 {
			return nil, status.Error(codes.InvalidArgument, "magnitude must be positive")
		}
	}

	return s.withSession(req, func(sess *session.Session) error {
		sess.Zoom(dir, magnitude)
		return nil
	})
}

func (s *ControlService) ResetZoom(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.withSession(req, func(sess *session.Session) error {
		sess.ResetZoom()
		return nil
	})
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func (s *ControlService) withName(req *structpb.Struct, fn func(name string) error) (*structpb.Struct, error) {
	name, err := requireName(req)
	if err != nil {
		return nil, err
	}
	if err := fn(name); err != nil {
		s.Logger.Warning("gRPC: %s: %v", name, err)
		return nil, toStatus(err)
	}
	sess, err := s.Sessions.GetSession(name)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(statusFields(sess.Status()))
}

func (s *ControlService) withSession(req *structpb.Struct, fn func(sess *session.Session) error) (*structpb.Struct, error) {
	return s.withName(req, func(name string) error {
		sess, err := s.Sessions.GetSession(name)
		if err != nil {
			return err
		}
		return fn(sess)
	})
}

// persist applies fn to the in-memory config and saves it when a path is set.
func (s *ControlService) persist(fn func(c *config.Config)) {
	if s.Config == nil {
		return
	}
	s.configMu.Lock()
	defer s.configMu.Unlock()

	fn(s.Config)
	if s.ConfigPath == "" {
		return
	}
	if err := s.Config.Save(s.ConfigPath); err != nil {
		s.Logger.Error("gRPC: Failed to save config: %v", err)
	}
}

// -----------------------------------------------------------------------------

func requireName(req *structpb.Struct) (string, error) {
	name := req.GetFields()["name"].GetStringValue()
	if name == "" {
		return "", status.Error(codes.InvalidArgument, "name is required")
	}
	return name, nil
}

// intField reads an optional whole number; absent means 0.
func intField(fields map[string]*structpb.Value, key string) (int, error) {
	v, ok := fields[key]
	if !ok {
		return 0, nil
	}
	n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return 0, helpers.NewValidationError("%s must be a number", key)
	}
	f := n.NumberValue
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, helpers.NewValidationError("%s must be a whole number within range, got %v", key, f)
	}
	return int(f), nil
}

func toStatus(err error) error {
	var invalid *helpers.ValidationError
	switch {
	case errors.As(err, &invalid):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, session.ErrSessionNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, session.ErrSessionExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, session.ErrAlreadyRunning), errors.Is(err, session.ErrNotRunning):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func statusFields(st models.MSessionStatus) map[string]interface{} {
	return map[string]interface{}{
		"name":          st.Name,
		"symbol":        st.Symbol,
		"is_running":    st.IsRunning,
		"paused":        st.Paused,
		"stream_length": st.StreamLength,
		"capacity":      st.Capacity,
		"visible_count": st.VisibleCount,
		"produced":      st.Produced,
	}
}

func newStruct(fields map[string]interface{}) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode reply: %v", err))
	}
	return out, nil
}
