package ws

import (
	"time"

	"github.com/HerbHall/netscope/pkg/models"
)

// MessageType discriminates WebSocket messages.
type MessageType string

// Server to client.
const (
	MessageSnapshot      MessageType = "snapshot"
	MessageRefreshed     MessageType = "snapshot.refreshed"
	MessageRefreshFailed MessageType = "refresh.failed"
	MessageNotification  MessageType = "notification"
	MessageError         MessageType = "error"
)

// Client to server.
const (
	CommandRefresh MessageType = "refresh"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type      MessageType `json:"type"`
	Sequence  uint64      `json:"sequence,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data,omitempty"`
}

// Command is a message sent by the browser.
type Command struct {
	Type MessageType `json:"type"`
}

// RefreshedData is the payload of snapshot.refreshed. Clients fetch the
// collections they display from the REST API.
type RefreshedData struct {
	LastUpdated   time.Time             `json:"last_updated"`
	Counts        models.SnapshotCounts `json:"counts"`
	NetworkStatus models.NetworkStatus  `json:"network_status"`
	StatusStats   models.StatusStats    `json:"status_stats"`
}

// ErrorData is the payload of refresh.failed and error messages.
type ErrorData struct {
	Error string `json:"error"`
}

func refreshedData(s *models.Snapshot) RefreshedData {
	return RefreshedData{
		LastUpdated:   s.LastUpdated,
		Counts:        s.Counts(),
		NetworkStatus: s.NetworkStatus,
		StatusStats:   s.StatusStats,
	}
}
