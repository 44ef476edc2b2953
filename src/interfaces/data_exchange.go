package interfaces

import "chart-feed/src/models"

// -----------------------------------------------------------------------------
// IPublisher receives every view a session emits (ticks, zoom, pointer).
// Implementations must not block the caller.
// -----------------------------------------------------------------------------

type IPublisher interface {
	Publish(view models.MViewState)
}

// -----------------------------------------------------------------------------
// IDataExchanger is the transport towards rendering collaborators.
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	IPublisher

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
