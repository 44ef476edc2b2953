package server

import (
	"encoding/json"
	"net/http"

	"chart-feed/src/models"
	"chart-feed/src/zoom"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// directMessage is a reply to one client, delivered by the hub so that only the
// hub ever writes to or closes a client's send channel.
type directMessage struct {
	client  *Client
	payload interface{}
}

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

func (s *FastAPIServer) startHub() {
	s.hubOnce.Do(func() {
		go s.handleWebsockets()
	})
}

// handleWebsockets is the main Hub loop
func (s *FastAPIServer) handleWebsockets() {
	for {
		select {
		case <-s.quit:
			for client := range s.clients {
				s.dropClient(client)
			}
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.connections.Add(1)
			if sess, err := s.lookupSession(client.Session()); err == nil {
				s.deliver(client, sess.InitialView())
			}

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				s.dropClient(client)
			}

		case msg := <-s.direct:
			if _, ok := s.clients[msg.client]; ok {
				s.deliver(msg.client, msg.payload)
			}

		case view := <-s.broadcast:
			s.stateMutex.Lock()
			s.latest[view.Session] = view
			s.stateMutex.Unlock()

			for client := range s.clients {
				if client.Session() == view.Session {
					s.deliver(client, view)
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------

// deliver never blocks the hub: a client whose buffer is full is dropped.
func (s *FastAPIServer) deliver(client *Client, payload interface{}) {
	select {
	case client.send <- payload:
	default:
		s.Logger.Warning("Client %s too slow, disconnecting", client.id)
		s.dropClient(client)
	}
}

func (s *FastAPIServer) dropClient(client *Client) {
	delete(s.clients, client)
	close(client.send)
	s.connections.Add(-1)
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Publish queues a view for its session's subscribers. Views are dropped, not
// queued indefinitely, when the hub falls behind.
func (s *FastAPIServer) Publish(view models.MViewState) {
	select {
	case s.broadcast <- view:
	default:
		if n := s.dropped.Add(1); n == 1 || n%100 == 0 {
			s.Logger.Warning("Broadcast queue full, %d views dropped so far", n)
		}
	}
}

// sendDirect queues a reply for a single client.
func (s *FastAPIServer) sendDirect(client *Client, payload interface{}) {
	select {
	case s.direct <- directMessage{client: client, payload: payload}:
	case <-s.quit:
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) handleWebSocket(c *gin.Context) {
	name := c.Query("session")
	if name == "" {
		name = s.defaultSession()
	}
	if _, err := s.lookupSession(name); err != nil {
		c.JSON(http.StatusNotFound, errorMessage(err))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan interface{}, 256),
	}
	client.SetSession(name)

	select {
	case s.register <- client:
	case <-s.quit:
		conn.Close()
		return
	}
	s.Logger.Info("Client %s connected to session %s", client.id, name)

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *FastAPIServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MClientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client %s", err, client.id)
		client.conn.Close()
		return
	}

	name := cmd.Session
	if name == "" {
		name = client.Session()
	}
	sess, err := s.lookupSession(name)
	if err != nil {
		s.sendDirect(client, errorMessage(err))
		return
	}

	switch cmd.Command {
	case "subscribe":
		client.SetSession(name)
		s.sendDirect(client, sess.InitialView())
	case "zoom_in":
		sess.Zoom(zoom.In, commandMagnitude(cmd.Magnitude))
	case "zoom_out":
		sess.Zoom(zoom.Out, commandMagnitude(cmd.Magnitude))
	case "wheel":
		sess.Wheel(cmd.DeltaY)
	case "reset_zoom":
		sess.ResetZoom()
	case "pointer_move":
		sess.Pointer(cmd.OffsetX, cmd.SurfaceWidth)
	case "pointer_leave":
		sess.PointerLeave()
	case "pause":
		sess.Pause()
	case "resume":
		sess.Resume()
	default:
		s.Logger.Debug("Ignoring unknown command %q from client %s", cmd.Command, client.id)
	}
}
