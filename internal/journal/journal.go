// Package journal keeps an in-process event trail of a single monitoring
// run: cycle boundaries, clear outcomes, and status reports. It is backed
// by an in-memory SQLite database (github.com/ncruces/go-sqlite3), the
// same driver the teacher's internal/beads and internal/testutil packages
// register, migrated with golang-migrate/migrate/v4 the way the teacher's
// infrastructure/sqlite layer migrates its on-disk session database. The
// database is discarded on process exit: this is a diagnostic trail for
// the run that just ended, not persisted state (spec's Non-goal of
// persistence across process restarts).
package journal

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/tettuan/tmux-monitor/internal/engine"
	"github.com/tettuan/tmux-monitor/internal/errkind"
	"github.com/tettuan/tmux-monitor/internal/paneid"
	"github.com/tettuan/tmux-monitor/internal/pubsub"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Journal records engine.Payload events to an in-memory database for the
// lifetime of one process.
type Journal struct {
	db *sql.DB
}

// Open creates a fresh in-memory journal and applies its schema.
func Open() (*Journal, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, errkind.Wrap(errkind.RepositoryError, "opening in-memory journal", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		_ = db.Close()
		return nil, errkind.Wrap(errkind.RepositoryError, "loading journal migrations", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		_ = db.Close()
		return nil, errkind.Wrap(errkind.RepositoryError, "preparing journal migration driver", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		_ = db.Close()
		return nil, errkind.Wrap(errkind.RepositoryError, "building journal migrator", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		_ = db.Close()
		return nil, errkind.Wrap(errkind.RepositoryError, "migrating journal schema", err)
	}

	return &Journal{db: db}, nil
}

// Listen subscribes to broker and feeds every event to Record until ctx
// is cancelled. Meant to run in its own goroutine for the lifetime of an
// engine run.
func (j *Journal) Listen(ctx context.Context, broker *engine.Broker) {
	if j == nil {
		return
	}
	for evt := range broker.Subscribe(ctx) {
		j.Record(ctx, evt)
	}
}

// Close discards the journal. Safe to call on a nil *Journal.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// recordEvent inserts a single row into events.
func (j *Journal) recordEvent(ctx context.Context, cycleID, paneID, kind, detail string, at time.Time) {
	if j == nil {
		return
	}
	_, _ = j.db.ExecContext(ctx,
		`INSERT INTO events (cycle_id, pane_id, kind, detail, occurred_at) VALUES (?, ?, ?, ?, ?)`,
		cycleID, paneID, kind, detail, at,
	)
}

// upsertSnapshot records the latest known role/status/clear-attempts for a
// pane, overwriting any prior row. An empty role keeps the role already
// recorded for the pane.
func (j *Journal) upsertSnapshot(ctx context.Context, paneID, role, status string, clearAttempts int) {
	if j == nil {
		return
	}
	_, _ = j.db.ExecContext(ctx,
		`INSERT INTO pane_snapshots (pane_id, role, status, clear_attempts, updated_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(pane_id) DO UPDATE SET
		   role = CASE WHEN excluded.role = '' THEN pane_snapshots.role ELSE excluded.role END,
		   status = excluded.status,
		   clear_attempts = excluded.clear_attempts,
		   updated_at = CURRENT_TIMESTAMP`,
		paneID, role, status, clearAttempts,
	)
}

// Record translates one engine.Payload event into the appropriate journal
// writes. Intended to be called from a broker subscriber loop.
func (j *Journal) Record(ctx context.Context, evt pubsub.Event[engine.Payload]) {
	if j == nil {
		return
	}
	switch evt.Type {
	case engine.EventStateChanged:
		j.recordEvent(ctx, evt.Payload.CycleID, "", "state_changed", evt.Payload.State.String()+" "+evt.Payload.Reason, evt.Payload.At)
	case engine.EventPaneObserved:
		j.ObservePane(ctx, evt.Payload.PaneID, evt.Payload.Role, evt.Payload.Status, evt.Payload.ClearAttempts)
	case engine.EventCycleStarted:
		j.recordEvent(ctx, evt.Payload.CycleID, "", "cycle_started", "", evt.Payload.At)
	case engine.EventCycleFinished:
		j.recordEvent(ctx, evt.Payload.CycleID, "", "cycle_finished", "", evt.Payload.At)
	case engine.EventPaneCleared:
		o := evt.Payload.ClearOutcome
		j.recordEvent(ctx, evt.Payload.CycleID, o.PaneID, "pane_cleared", string(o.Kind)+" "+o.Reason, evt.Payload.At)
		j.upsertSnapshot(ctx, o.PaneID, "", string(o.Kind), o.RetryCount)
	case engine.EventReportSent:
		j.recordEvent(ctx, evt.Payload.CycleID, "", "report_sent", evt.Payload.ReportText, evt.Payload.At)
	case engine.EventReportSkipped:
		j.recordEvent(ctx, evt.Payload.CycleID, "", "report_skipped", evt.Payload.Reason, evt.Payload.At)
	case engine.EventFatal:
		j.recordEvent(ctx, evt.Payload.CycleID, "", "fatal", evt.Payload.Reason, evt.Payload.At)
	}
}

// ObservePane snapshots a pane's resolved role/status outside of a clear
// outcome, e.g. right after capture classification. clearAttempts is
// carried through rather than reset, since a capture observation must not
// erase the retry count a prior EventPaneCleared already recorded.
func (j *Journal) ObservePane(ctx context.Context, id paneid.ID, role, status string, clearAttempts int) {
	j.upsertSnapshot(ctx, id.String(), role, status, clearAttempts)
}

// PaneSummary is one row of the shutdown summary table.
type PaneSummary struct {
	PaneID        string
	Role          string
	Status        string
	ClearAttempts int
}

// Summary returns every pane's final snapshot, ordered by pane ID, for
// printing when the engine terminates.
func (j *Journal) Summary(ctx context.Context) ([]PaneSummary, error) {
	if j == nil {
		return nil, nil
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT pane_id, role, status, clear_attempts FROM pane_snapshots ORDER BY pane_id`)
	if err != nil {
		return nil, errkind.Wrap(errkind.RepositoryError, "querying journal summary", err)
	}
	defer rows.Close()

	var out []PaneSummary
	for rows.Next() {
		var s PaneSummary
		if err := rows.Scan(&s.PaneID, &s.Role, &s.Status, &s.ClearAttempts); err != nil {
			return nil, errkind.Wrap(errkind.RepositoryError, "scanning journal summary row", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// FormatSummary renders Summary's rows as the one-line-per-pane shutdown
// report.
func FormatSummary(rows []PaneSummary) string {
	if len(rows) == 0 {
		return "no panes observed"
	}
	out := ""
	for _, r := range rows {
		out += fmt.Sprintf("%s role=%s status=%s clear_attempts=%d\n", r.PaneID, r.Role, r.Status, r.ClearAttempts)
	}
	return out
}
