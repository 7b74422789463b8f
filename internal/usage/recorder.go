package usage

import (
	"context"
	"encoding/json"
	"time"

	"contentstudio/internal/infra"
	"contentstudio/internal/sqlinline"
)

// Recorder writes a usage event per tool invocation. It is nil-safe and
// best-effort: without a database the service runs fine, and a failed insert
// is logged, never propagated to the request.
type Recorder struct {
	sql    infra.SQLExecutor
	logger infra.Logger
}

// NewRecorder returns a Recorder, or nil when no SQL executor is configured.
func NewRecorder(sql infra.SQLExecutor, logger infra.Logger) *Recorder {
	if sql == nil {
		return nil
	}
	return &Recorder{sql: sql, logger: logger}
}

// Record persists one usage event.
func (r *Recorder) Record(ctx context.Context, requestID, tool string, success bool, latency time.Duration, props map[string]any) {
	if r == nil {
		return
	}
	var raw []byte
	if len(props) > 0 {
		raw, _ = json.Marshal(props)
	}
	_, err := r.sql.Exec(ctx, sqlinline.QInsertUsageEvent, requestID, tool, success, latency.Milliseconds(), raw)
	if err != nil {
		r.logger.Warn().Err(err).Str("tool", tool).Msg("usage: record failed")
	}
}

// ToolStats aggregates the last day of events for one tool.
type ToolStats struct {
	Tool   string `json:"tool"`
	OK     int64  `json:"ok"`
	Failed int64  `json:"failed"`
}

// Last24h returns per-tool success/failure counts for the trailing day.
func (r *Recorder) Last24h(ctx context.Context) ([]ToolStats, error) {
	if r == nil {
		return nil, nil
	}
	rows, err := r.sql.Query(ctx, sqlinline.QSelectUsageLast24h)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []ToolStats
	for rows.Next() {
		var s ToolStats
		if err := rows.Scan(&s.Tool, &s.OK, &s.Failed); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
