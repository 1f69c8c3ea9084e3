// Package ws streams snapshot refreshes and notifications to browsers over
// WebSocket.
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/HerbHall/netscope/internal/notify"
	"github.com/HerbHall/netscope/internal/provider"
	"github.com/HerbHall/netscope/pkg/models"
	"github.com/HerbHall/netscope/pkg/plugin"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler provides the WebSocket endpoint.
type Handler struct {
	hub      *Hub
	provider *provider.Provider
	logger   *zap.Logger
	unsubs   []func()
}

// Compile-time check that Handler implements the server interface.
var _ interface {
	RegisterRoutes(mux *http.ServeMux)
} = (*Handler)(nil)

// NewHandler creates a WebSocket handler and subscribes to provider and
// notification events on bus.
func NewHandler(p *provider.Provider, bus plugin.EventBus, logger *zap.Logger) *Handler {
	h := &Handler{
		hub:      NewHub(logger),
		provider: p,
		logger:   logger,
	}
	h.subscribeToEvents(bus)
	return h
}

// RegisterRoutes registers WebSocket routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/ws", h.handleStream)
}

// Hub returns the client hub.
func (h *Handler) Hub() *Hub { return h.hub }

// Close drops the bus subscriptions.
func (h *Handler) Close() {
	for _, u := range h.unsubs {
		u()
	}
	h.unsubs = nil
}

// handleStream upgrades the connection, sends the current snapshot, and
// then streams events until the client goes away.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	// Same-origin only; the dashboard is served by this process.
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Error("websocket accept failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:   conn,
		id:     uuid.NewString(),
		send:   make(chan Message, sendBuffer),
		logger: h.logger,
	}
	if snap := h.provider.Snapshot(); snap != nil {
		client.send <- Message{Type: MessageSnapshot, Sequence: snap.Sequence, Timestamp: snap.LastUpdated, Data: snap}
	}
	h.hub.Register(client)

	ctx := r.Context()
	done := make(chan struct{})
	go func() {
		client.writePump(ctx)
		close(done)
	}()

	client.readPump(ctx, h.handleCommand)

	h.hub.Unregister(client)
	_ = conn.Close(websocket.StatusNormalClosure, "")
	<-done
}

// handleCommand runs a client command. Results of a refresh reach every
// client through the bus; only errors are answered directly.
func (h *Handler) handleCommand(ctx context.Context, c *Client, cmd Command) {
	switch cmd.Type {
	case CommandRefresh:
		if _, err := h.provider.Refresh(ctx); err != nil {
			h.logger.Debug("websocket refresh failed", zap.String("client_id", c.id), zap.Error(err))
		}
	default:
		c.trySend(Message{Type: MessageError, Timestamp: time.Now(), Data: ErrorData{Error: "unknown command " + string(cmd.Type)}})
	}
}

func (h *Handler) subscribeToEvents(bus plugin.EventBus) {
	if bus == nil {
		return
	}

	h.unsubs = append(h.unsubs, bus.Subscribe(provider.TopicSnapshotRefreshed, func(_ context.Context, event plugin.Event) {
		snap, ok := event.Payload.(*models.Snapshot)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageRefreshed,
			Sequence:  snap.Sequence,
			Timestamp: event.Timestamp,
			Data:      refreshedData(snap),
		})
	}))

	h.unsubs = append(h.unsubs, bus.Subscribe(provider.TopicRefreshFailed, func(_ context.Context, event plugin.Event) {
		f, ok := event.Payload.(provider.RefreshFailure)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageRefreshFailed,
			Timestamp: event.Timestamp,
			Data:      ErrorData{Error: f.Error},
		})
	}))

	h.unsubs = append(h.unsubs, bus.Subscribe(notify.TopicToast, func(_ context.Context, event plugin.Event) {
		n, ok := event.Payload.(notify.Notification)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageNotification,
			Timestamp: n.Timestamp,
			Data:      n,
		})
	}))

	h.logger.Info("subscribed to network events for WebSocket broadcasting")
}
