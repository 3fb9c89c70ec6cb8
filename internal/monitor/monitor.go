// Package monitor inspects the persisted record store on a schedule,
// computes integrity metrics and a moving-average trend, appends a bounded
// history log, and raises alerts when thresholds are crossed.
package monitor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vigiadata/vigia/internal/alert"
	"github.com/vigiadata/vigia/internal/clock"
	"github.com/vigiadata/vigia/internal/metrics"
)

// Snapshot is the monitor's view of the durable store: row totals, rows
// missing a required field, and the tracked numeric series in stored
// (chronological) order. A nil series element is a record whose tracked
// field is absent.
type Snapshot struct {
	Total  int
	Nulls  int
	Series []*float64
}

// Source is the durable store as seen by the monitor. Check verifies the
// store is reachable at all; Snapshot computes the current metrics view.
type Source interface {
	Check(ctx context.Context) error
	Snapshot(ctx context.Context) (Snapshot, error)
}

// Trend classifies the latest tracked value against its moving average.
type Trend string

// Trend classifications written to the history log.
const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// monitor run states, in order. Failure in the first two aborts the cycle.
type state string

const (
	stateCheckingSource state = "checking_source"
	stateCounting       state = "counting"
	stateAnalyzingTrend state = "analyzing_trend"
	stateLogging        state = "logging"
	stateAlerting       state = "alerting"
	stateDone           state = "done"
)

// Config holds the monitoring knobs. Epsilon is domain-specific: product
// prices tolerate a wider band (0.05) than financial indicators (0.02), so
// it is configuration, not a constant.
type Config struct {
	// Window is how many of the most recent records feed trend analysis.
	Window int
	// SMAWindow is the trailing value count averaged.
	SMAWindow int
	// MinValues is the non-null value count below which trend analysis is
	// skipped (not an error).
	MinValues int
	// Epsilon is the tolerance band around the moving average.
	Epsilon float64
}

// DefaultConfig returns the monitoring defaults with the given tolerance.
func DefaultConfig(epsilon float64) Config {
	return Config{Window: 30, SMAWindow: 5, MinValues: 5, Epsilon: epsilon}
}

// Monitor runs one monitoring cycle over a Source.
type Monitor struct {
	source  Source
	alerter alert.Alerter
	history *HistoryLog
	cfg     Config
	logger  *zap.Logger
	clock   clock.Clock
}

// New assembles a monitor. A nil alerter degrades to alert.NoOp.
func New(source Source, alerter alert.Alerter, history *HistoryLog, cfg Config, logger *zap.Logger, clk clock.Clock) *Monitor {
	metrics.Init()
	if alerter == nil {
		alerter = alert.NoOp{}
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Monitor{
		source:  source,
		alerter: alerter,
		history: history,
		cfg:     cfg,
		logger:  logger,
		clock:   clk,
	}
}

// Run executes one monitoring cycle and reports whether it fully completed.
// The boolean is the contract the scheduler consumes: false means the cycle
// aborted before the store could be measured.
func (m *Monitor) Run(ctx context.Context) bool {
	m.enter(stateCheckingSource)
	if err := m.source.Check(ctx); err != nil {
		m.logger.Error("store unreachable", zap.Error(err))
		m.send("vigia: store unreachable",
			fmt.Sprintf("The durable store could not be verified: %v", err))
		metrics.MonitorRun(false)
		return false
	}

	m.enter(stateCounting)
	snap, err := m.source.Snapshot(ctx)
	if err != nil {
		m.logger.Error("counting failed", zap.Error(err))
		m.send("vigia: counting failed",
			fmt.Sprintf("Record counting failed: %v", err))
		metrics.MonitorRun(false)
		return false
	}
	m.logger.Info("store measured",
		zap.Int("total_records", snap.Total),
		zap.Int("null_records", snap.Nulls),
	)

	entry := HistoryEntry{
		Timestamp:    m.clock.Now().UTC().Format("2006-01-02 15:04:05"),
		TotalRecords: snap.Total,
		NullRecords:  snap.Nulls,
	}

	m.enter(stateAnalyzingTrend)
	if result, ok := m.analyzeTrend(snap.Series); ok {
		entry.Trend = string(result.trend)
		entry.LastValue = &result.last
		entry.MovingAvg = &result.sma
		m.logger.Info("trend classified",
			zap.String("trend", string(result.trend)),
			zap.Float64("last_value", result.last),
			zap.Float64("moving_avg", result.sma),
		)
	} else {
		m.logger.Info("trend analysis skipped: not enough values",
			zap.Int("min_values", m.cfg.MinValues),
		)
	}

	m.enter(stateLogging)
	if m.history != nil {
		if err := m.history.Append(entry); err != nil {
			m.logger.Warn("history append failed", zap.Error(err))
		}
	}

	m.enter(stateAlerting)
	if snap.Nulls > 0 {
		m.send("vigia: data quality alert",
			fmt.Sprintf("%d of %d records are missing required fields.", snap.Nulls, snap.Total))
	}
	if entry.Trend != "" && entry.Trend != string(TrendStable) {
		m.send(fmt.Sprintf("vigia: trend %s", entry.Trend),
			fmt.Sprintf("Tracked value is %s: last=%.2f moving_avg=%.2f",
				entry.Trend, *entry.LastValue, *entry.MovingAvg))
	}

	m.enter(stateDone)
	metrics.MonitorRun(true)
	return true
}

func (m *Monitor) enter(s state) {
	m.logger.Debug("monitor state", zap.String("state", string(s)))
}

// send attempts delivery and records the outcome; delivery failure is never
// escalated.
func (m *Monitor) send(subject, body string) {
	delivered := m.alerter.Send(subject, body)
	metrics.AlertAttempt(delivered)
	if !delivered {
		m.logger.Warn("alert not delivered", zap.String("subject", subject))
	}
}

type trendResult struct {
	trend Trend
	last  float64
	sma   float64
}

// analyzeTrend classifies the last value against the trailing moving
// average. It needs at least MinValues non-null values inside the window;
// below that it reports no result.
func (m *Monitor) analyzeTrend(series []*float64) (trendResult, bool) {
	if len(series) > m.cfg.Window {
		series = series[len(series)-m.cfg.Window:]
	}
	values := make([]float64, 0, len(series))
	for _, v := range series {
		if v != nil {
			values = append(values, *v)
		}
	}
	if len(values) < m.cfg.MinValues || m.cfg.SMAWindow <= 0 || len(values) < m.cfg.SMAWindow {
		return trendResult{}, false
	}

	tail := values[len(values)-m.cfg.SMAWindow:]
	var sum float64
	for _, v := range tail {
		sum += v
	}
	sma := sum / float64(len(tail))
	last := values[len(values)-1]

	result := trendResult{last: last, sma: sma}
	switch {
	case last > sma*(1+m.cfg.Epsilon):
		result.trend = TrendRising
	case last < sma*(1-m.cfg.Epsilon):
		result.trend = TrendFalling
	default:
		result.trend = TrendStable
	}
	return result, true
}
