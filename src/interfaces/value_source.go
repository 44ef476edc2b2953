package interfaces

import (
	"context"

	"chart-feed/src/models"
)

// -----------------------------------------------------------------------------
// IValueSource produces the next reading for a stream.
// -----------------------------------------------------------------------------

type IValueSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// Fetch returns one reading. It must honour ctx's deadline; an error means
	// "no sample this period".
	Fetch(ctx context.Context) (models.MReading, error)
}
