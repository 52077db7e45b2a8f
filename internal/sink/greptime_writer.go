package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"launchops-sim/internal/telemetry"
)

const defaultGreptimePort = 4001

type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes mission events and state rows to GreptimeDB.
type GreptimeDBWriter struct {
	client     greptimeClient
	eventTable string
	stateTable string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewGreptimeDBWriter connects to endpoint ("host" or "host:port").
func NewGreptimeDBWriter(endpoint, database string, logger *slog.Logger) (*GreptimeDBWriter, error) {
	host, port := endpoint, defaultGreptimePort
	if h, p, err := net.SplitHostPort(endpoint); err == nil {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("greptimedb endpoint %q: invalid port", endpoint)
		}
		host, port = h, n
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptimedb client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GreptimeDBWriter{
		client:     client,
		eventTable: telemetry.EventTableName,
		stateTable: telemetry.StateTableName,
		timeout:    5 * time.Second,
		logger:     logger,
	}, nil
}

func (w *GreptimeDBWriter) write(tbl *table.Table, rows int) error {
	timeout := w.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		return fmt.Errorf("greptimedb write: %w", err)
	}
	if w.logger != nil {
		w.logger.Debug("greptimedb write", "rows", rows)
	}
	return nil
}

// WriteEvent inserts a single log event.
func (w *GreptimeDBWriter) WriteEvent(ev telemetry.LogEvent) error {
	return w.WriteEvents([]telemetry.LogEvent{ev})
}

// WriteEvents inserts multiple log events.
func (w *GreptimeDBWriter) WriteEvents(events []telemetry.LogEvent) error {
	if len(events) == 0 {
		return nil
	}
	tbl, err := table.New(w.eventTable)
	if err != nil {
		return err
	}
	if err := tbl.AddTagColumn("run_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("level", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("message", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("is_admin", types.BOOLEAN); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}
	for _, ev := range events {
		if err := tbl.AddRow(ev.RunID, string(ev.Level), ev.Message, ev.IsAdmin, ev.Timestamp); err != nil {
			return err
		}
	}
	return w.write(tbl, len(events))
}

// WriteState inserts a state row. Diagnostics are stored as a JSON column.
func (w *GreptimeDBWriter) WriteState(row telemetry.StateRow) error {
	diag, err := json.Marshal(row.Diagnostics)
	if err != nil {
		return err
	}
	tbl, err := table.New(w.stateTable)
	if err != nil {
		return err
	}
	if err := tbl.AddTagColumn("run_id", types.STRING); err != nil {
		return err
	}
	fields := []struct {
		name string
		typ  types.ColumnType
	}{
		{"phase", types.INT64},
		{"state", types.STRING},
		{"countdown", types.INT64},
		{"locked", types.BOOLEAN},
		{"soft_hold", types.BOOLEAN},
		{"command_validated", types.BOOLEAN},
		{"diagnostics", types.JSON},
	}
	for _, f := range fields {
		if err := tbl.AddFieldColumn(f.name, f.typ); err != nil {
			return err
		}
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}
	if err := tbl.AddRow(row.RunID, int64(row.Phase), string(row.State), int64(row.Countdown),
		row.Locked, row.SoftHold, row.CommandValidated, string(diag), row.Timestamp); err != nil {
		return err
	}
	return w.write(tbl, 1)
}
