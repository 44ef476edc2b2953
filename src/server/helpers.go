package server

import (
	"fmt"
	"math"

	"chart-feed/src/session"
	"chart-feed/src/zoom"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------

func (s *FastAPIServer) lookupSession(name string) (*session.Session, error) {
	if s.Sessions == nil {
		return nil, fmt.Errorf("%s: %w", name, session.ErrSessionNotFound)
	}
	return s.Sessions.GetSession(name)
}

// -----------------------------------------------------------------------------

// defaultSession is the first session by name, or "" when there is none.
func (s *FastAPIServer) defaultSession() string {
	if s.Sessions == nil {
		return ""
	}
	if all := s.Sessions.GetAllSessions(); len(all) > 0 {
		return all[0].Name()
	}
	return ""
}

// -----------------------------------------------------------------------------

// commandMagnitude falls back to the button zoom factor when none is given.
func commandMagnitude(m *float64) float64 {
	if m == nil || math.IsNaN(*m) || *m <= 0 {
		return zoom.ButtonMagnitude
	}
	return *m
}

// -----------------------------------------------------------------------------

func errorMessage(err error) gin.H {
	return gin.H{
		"type":    "ERROR",
		"message": err.Error(),
	}
}
