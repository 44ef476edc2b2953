package interfaces

import "chart-feed/src/models"

// -----------------------------------------------------------------------------
// IRecorder archives produced samples. Sessions never read back from it.
// -----------------------------------------------------------------------------

type IRecorder interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveSamples inserts a batch of samples for one session.
	SaveSamples(session string, samples []models.MSample) error

	// -----------------------------------------------------------------------------

	// CleanupOldData removes data older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
