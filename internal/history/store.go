package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/HerbHall/netscope/pkg/models"
)

// Sample is one refresh worth of aggregate network data.
type Sample struct {
	ID            int64                `json:"id"`
	Sequence      uint64               `json:"sequence" example:"42"`
	RecordedAt    time.Time            `json:"recorded_at"`
	BytesIn       int64                `json:"bytes_in" example:"24117248"`
	BytesOut      int64                `json:"bytes_out" example:"7340032"`
	AvgLatencyMs  float64              `json:"avg_latency_ms" example:"18.4"`
	AvgPacketLoss float64              `json:"avg_packet_loss" example:"0.7"`
	DevicesOnline int                  `json:"devices_online" example:"9"`
	DevicesTotal  int                  `json:"devices_total" example:"10"`
	ActiveAlerts  int                  `json:"alerts_active" example:"2"`
	OverallStatus models.OverallStatus `json:"overall_status" example:"degraded"`
}

// EventKind classifies history events.
type EventKind string

const (
	EventStatusChange  EventKind = "status_change"
	EventRefreshFailed EventKind = "refresh_failed"
)

// Event is a notable moment: the overall status changed or a refresh failed.
type Event struct {
	ID         string    `json:"id"`
	Kind       EventKind `json:"kind" example:"status_change"`
	OccurredAt time.Time `json:"occurred_at"`
	Status     string    `json:"status,omitempty" example:"critical"`
	Previous   string    `json:"previous,omitempty" example:"degraded"`
	Message    string    `json:"message,omitempty"`
}

// SampleFromSnapshot reduces a snapshot to a history row. Bytes are the
// summed device throughput at refresh time.
func SampleFromSnapshot(s *models.Snapshot) Sample {
	out := Sample{
		Sequence:      s.Sequence,
		RecordedAt:    s.LastUpdated,
		AvgLatencyMs:  s.StatusStats.Latency.Value,
		DevicesOnline: s.NetworkStatus.DevicesOnline,
		DevicesTotal:  s.NetworkStatus.DevicesTotal,
		ActiveAlerts:  s.NetworkStatus.ActiveAlerts,
		OverallStatus: s.NetworkStatus.OverallStatus,
	}
	for i := range s.Devices {
		out.BytesIn += s.Devices[i].Bandwidth.Incoming
		out.BytesOut += s.Devices[i].Bandwidth.Outgoing
	}
	if n := len(s.Latency); n > 0 {
		var loss float64
		for i := range s.Latency {
			loss += s.Latency[i].PacketLoss
		}
		out.AvgPacketLoss = loss / float64(n)
	}
	return out
}

// Store provides database access for history data.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store on db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// InsertSample records a sample and sets its ID.
func (s *Store) InsertSample(ctx context.Context, smp *Sample) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO history_samples (
			sequence, recorded_at, bytes_in, bytes_out, avg_latency_ms, avg_packet_loss,
			devices_online, devices_total, active_alerts, overall_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		smp.Sequence, smp.RecordedAt.UTC(), smp.BytesIn, smp.BytesOut, smp.AvgLatencyMs,
		smp.AvgPacketLoss, smp.DevicesOnline, smp.DevicesTotal, smp.ActiveAlerts,
		string(smp.OverallStatus),
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	smp.ID, _ = res.LastInsertId()
	return nil
}

// ListSamples returns samples recorded at or after since, oldest first,
// capped at the most recent limit rows.
func (s *Store) ListSamples(ctx context.Context, since time.Time, limit int) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sequence, recorded_at, bytes_in, bytes_out, avg_latency_ms, avg_packet_loss,
			devices_online, devices_total, active_alerts, overall_status
		FROM (
			SELECT * FROM history_samples WHERE recorded_at >= ?
			ORDER BY recorded_at DESC, id DESC LIMIT ?
		) ORDER BY recorded_at ASC, id ASC`,
		since.UTC(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	defer rows.Close()

	samples := []Sample{}
	for rows.Next() {
		var smp Sample
		var status string
		if err := rows.Scan(
			&smp.ID, &smp.Sequence, &smp.RecordedAt, &smp.BytesIn, &smp.BytesOut,
			&smp.AvgLatencyMs, &smp.AvgPacketLoss, &smp.DevicesOnline, &smp.DevicesTotal,
			&smp.ActiveAlerts, &status,
		); err != nil {
			return nil, fmt.Errorf("scan sample row: %w", err)
		}
		smp.OverallStatus = models.OverallStatus(status)
		samples = append(samples, smp)
	}
	return samples, rows.Err()
}

// LastStatus returns the overall status of the newest sample, or "" when
// there are none.
func (s *Store) LastStatus(ctx context.Context) (models.OverallStatus, error) {
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT overall_status FROM history_samples ORDER BY recorded_at DESC, id DESC LIMIT 1`,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("last status: %w", err)
	}
	return models.OverallStatus(status), nil
}

// InsertEvent records an event.
func (s *Store) InsertEvent(ctx context.Context, e *Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history_events (id, kind, occurred_at, status, previous, message)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), e.OccurredAt.UTC(), e.Status, e.Previous, e.Message,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEvents returns the most recent events, newest first.
func (s *Store) ListEvents(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, occurred_at, status, previous, message
		FROM history_events ORDER BY occurred_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		var kind string
		if err := rows.Scan(&e.ID, &kind, &e.OccurredAt, &e.Status, &e.Previous, &e.Message); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		e.Kind = EventKind(kind)
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteBefore removes samples and events older than cutoff and returns
// how many rows of each were deleted.
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (samples, events int64, err error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM history_samples WHERE recorded_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, 0, fmt.Errorf("delete old samples: %w", err)
	}
	samples, _ = res.RowsAffected()

	res, err = s.db.ExecContext(ctx, `DELETE FROM history_events WHERE occurred_at < ?`, cutoff.UTC())
	if err != nil {
		return samples, 0, fmt.Errorf("delete old events: %w", err)
	}
	events, _ = res.RowsAffected()
	return samples, events, nil
}
