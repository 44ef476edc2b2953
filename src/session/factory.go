package session

import (
	"fmt"

	datasource "chart-feed/src/data_source"
	"chart-feed/src/interfaces"
	"chart-feed/src/logger"
	"chart-feed/src/models"
	"chart-feed/src/stream"
	"chart-feed/src/utils"
)

// FromConfig builds a session with the synthetic source its config describes.
func FromConfig(cfg models.MSessionConfig, publisher interfaces.IPublisher, recorder interfaces.IRecorder, log *logger.Logger) (*Session, error) {
	source, err := datasource.NewValueSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", cfg.Name, err)
	}
	return WithSource(cfg, source, publisher, recorder, log), nil
}

// WithSource builds a session around a caller supplied value source.
func WithSource(cfg models.MSessionConfig, source interfaces.IValueSource, publisher interfaces.IPublisher, recorder interfaces.IRecorder, log *logger.Logger) *Session {
	sessionLog := log.Named(cfg.Name)

	opts := stream.OptionsFromConfig(cfg)
	if cfg.MarketHours.Enabled {
		opts.Gate = utils.NewMarketHoursGate(cfg.MarketHours.MIC, cfg.Symbol, sessionLog)
	}

	st := stream.NewSampleStream(opts, source, sessionLog)
	return NewSession(cfg, st, publisher, recorder, sessionLog)
}

// -----------------------------------------------------------------------------

// BuildAll builds one session per configured block.
func BuildAll(sessions []models.MSessionConfig, publisher interfaces.IPublisher, recorder interfaces.IRecorder, log *logger.Logger) ([]*Session, error) {
	out := make([]*Session, 0, len(sessions))
	for _, cfg := range sessions {
		s, err := FromConfig(cfg, publisher, recorder, log)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
