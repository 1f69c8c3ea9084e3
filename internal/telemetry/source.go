// Package telemetry produces the collections that make up a network
// snapshot: traffic and latency series, protocol mix, device inventory,
// and incidents. It also derives the status rollups from them.
package telemetry

import (
	"context"
	"time"

	"github.com/HerbHall/netscope/pkg/models"
)

// Source yields one collection per call. Implementations must be safe for
// use by a single refresh at a time; the provider never calls a Source
// concurrently with itself.
type Source interface {
	Traffic(ctx context.Context) ([]models.TrafficSample, error)
	Latency(ctx context.Context) ([]models.LatencySample, error)
	Protocols(ctx context.Context) ([]models.ProtocolShare, error)
	Devices(ctx context.Context) ([]models.Device, error)
	Incidents(ctx context.Context) ([]models.Incident, error)
}

// SampleInterval is the spacing of the traffic and latency series.
const SampleInterval = 5 * time.Minute
