package history

import (
	"database/sql"

	"github.com/HerbHall/netscope/pkg/plugin"
)

func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create history tables",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS history_samples (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						sequence INTEGER NOT NULL,
						recorded_at DATETIME NOT NULL,
						bytes_in INTEGER NOT NULL,
						bytes_out INTEGER NOT NULL,
						avg_latency_ms REAL NOT NULL,
						avg_packet_loss REAL NOT NULL,
						devices_online INTEGER NOT NULL,
						devices_total INTEGER NOT NULL,
						active_alerts INTEGER NOT NULL,
						overall_status TEXT NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_history_samples_time ON history_samples(recorded_at)`,

					`CREATE TABLE IF NOT EXISTS history_events (
						id TEXT PRIMARY KEY,
						kind TEXT NOT NULL,
						occurred_at DATETIME NOT NULL,
						status TEXT NOT NULL DEFAULT '',
						previous TEXT NOT NULL DEFAULT '',
						message TEXT NOT NULL DEFAULT ''
					)`,
					`CREATE INDEX IF NOT EXISTS idx_history_events_time ON history_events(occurred_at)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
