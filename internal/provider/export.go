package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/HerbHall/netscope/internal/export"
	"github.com/HerbHall/netscope/pkg/models"
	"go.uber.org/zap"
)

// Export encodes the current snapshot in format and hands it to d. The
// outcome is reported as a notification either way. The snapshot is not
// changed.
func (p *Provider) Export(ctx context.Context, format string, d export.Deliverer) (*export.File, error) {
	f, err := p.export(ctx, format, d)
	label := "unknown"
	if parsed, perr := export.ParseFormat(format); perr == nil {
		label = string(parsed)
	}
	if err != nil {
		p.metrics.exports.WithLabelValues(label, "failure").Inc()
		p.logger.Warn("network export failed", zap.String("format", format), zap.Error(err))
		p.notify(ctx, "Export failed", "Could not export network data. Please try again.", models.NotificationDestructive)
		return nil, err
	}
	p.metrics.exports.WithLabelValues(label, "success").Inc()
	p.logger.Info("network data exported", zap.String("file", f.Name), zap.Int("bytes", len(f.Content)))
	p.notify(ctx, "Export successful", "Data exported as "+export.Format(label).Label(), models.NotificationDefault)
	return f, nil
}

func (p *Provider) export(ctx context.Context, format string, d export.Deliverer) (f *export.File, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("export panicked: %v", r)
		}
	}()

	fmtv, err := export.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	snap := p.snap.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	if d == nil {
		return nil, errors.New("no deliverer")
	}
	file, err := export.Encode(snap, fmtv, p.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := d.Deliver(ctx, file); err != nil {
		return nil, fmt.Errorf("deliver %s: %w", file.Name, err)
	}
	return &file, nil
}
