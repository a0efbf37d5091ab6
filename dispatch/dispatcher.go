// Package dispatch runs the daily reminder batch: scan for stale identity
// records, notify each one sequentially under the gateway's rate limit, and
// aggregate the per-item outcomes into a summary.
package dispatch

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-calsync/core"

	glog "github.com/goliatone/go-logger/glog"
)

var (
	errScannerRequired = errors.New("dispatch: scanner is required")
	errGatewayRequired = errors.New("dispatch: notification gateway is required")
)

// Scanner selects reminder candidates. core.Service satisfies it.
type Scanner interface {
	FindStale(ctx context.Context, threshold time.Duration) ([]core.IdentityRecord, error)
}

// SummaryNotifier receives the aggregate after a run, typically an admin
// mailbox. Failures are logged, never fatal.
type SummaryNotifier interface {
	SendSummary(ctx context.Context, summary core.BatchSummary) error
}

// RunOptions override the configured threshold and pacing for one run.
type RunOptions struct {
	Threshold            time.Duration
	MinDelayBetweenSends time.Duration
}

// Dispatcher drives one reminder batch per invocation. The loop is strictly
// sequential: the external delivery channel's capacity is the constraint, so
// parallelizing the items would defeat the pacing, not improve it.
type Dispatcher struct {
	scanner  Scanner
	gateway  core.NotificationGateway
	ledger   core.DispatchLedger
	summary  SummaryNotifier
	logger   core.Logger
	metrics  core.MetricsRecorder
	nowFn    func() time.Time
	minDelay time.Duration
}

type DispatcherConfig struct {
	Scanner              Scanner
	Gateway              core.NotificationGateway
	Ledger               core.DispatchLedger
	SummaryNotifier      SummaryNotifier
	Logger               core.Logger
	Metrics              core.MetricsRecorder
	Now                  func() time.Time
	MinDelayBetweenSends time.Duration
}

func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	if cfg.Scanner == nil {
		return nil, errScannerRequired
	}
	if cfg.Gateway == nil {
		return nil, errGatewayRequired
	}
	logger := glog.Ensure(cfg.Logger)
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = core.NopMetricsRecorder{}
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	minDelay := cfg.MinDelayBetweenSends
	if minDelay <= 0 {
		minDelay = core.DefaultMinSendDelay
	}
	return &Dispatcher{
		scanner:  cfg.Scanner,
		gateway:  cfg.Gateway,
		ledger:   cfg.Ledger,
		summary:  cfg.SummaryNotifier,
		logger:   logger,
		metrics:  metrics,
		nowFn:    nowFn,
		minDelay: minDelay,
	}, nil
}

// RunBatch processes every stale candidate exactly once. Item failures are
// recorded and never abort the loop; a scan failure is reported in the
// summary instead of propagating. The batch never raises past its own
// boundary.
func (d *Dispatcher) RunBatch(ctx context.Context, opts RunOptions) core.BatchSummary {
	if d == nil {
		return core.BatchSummary{Err: "dispatch: dispatcher is not configured"}
	}
	startedAt := d.nowFn()

	candidates, err := d.scanner.FindStale(ctx, opts.Threshold)
	if err != nil {
		d.logger.Error("reminder batch scan failed", "error", err.Error())
		return core.BatchSummary{Err: err.Error()}
	}
	if len(candidates) == 0 {
		d.logger.Info("no stale availability records found")
		return core.BatchSummary{}
	}

	minDelay := opts.MinDelayBetweenSends
	if minDelay <= 0 {
		minDelay = d.minDelay
	}

	summary := core.BatchSummary{
		Attempted: len(candidates),
		Items:     make([]core.SendOutcome, 0, len(candidates)),
	}
	for index, candidate := range candidates {
		outcome := d.processCandidate(ctx, candidate)
		if outcome.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		summary.Items = append(summary.Items, outcome)
		d.recordDispatch(ctx, outcome)

		// Pace the gateway; abort between items, never mid-item.
		if index < len(candidates)-1 {
			if waitErr := waitWithContext(ctx, minDelay); waitErr != nil {
				summary.Err = waitErr.Error()
				break
			}
		}
	}

	d.notifySummary(ctx, summary)
	d.observeBatch(ctx, startedAt, summary)
	return summary
}

func (d *Dispatcher) processCandidate(ctx context.Context, candidate core.IdentityRecord) core.SendOutcome {
	outcome := core.SendOutcome{
		ExternalUserID:  candidate.ExternalUserID,
		Email:           strings.TrimSpace(candidate.Email),
		DaysSinceUpdate: candidate.DaysSinceAvailabilityUpdate(d.nowFn()),
	}
	if !candidate.HasEmail() {
		outcome.Error = "no email address"
		d.logger.Info("skipping reminder, no email address",
			"external_user_id", candidate.ExternalUserID,
		)
		return outcome
	}

	receipt, err := d.gateway.Send(ctx, outcome.Email, candidate.ExternalUserID, outcome.DaysSinceUpdate)
	if err != nil {
		outcome.Error = err.Error()
		d.logger.Error("reminder send failed",
			"external_user_id", candidate.ExternalUserID,
			"email", outcome.Email,
			"error", err.Error(),
		)
		return outcome
	}

	outcome.Success = true
	outcome.MessageID = receipt.MessageID
	d.logger.Info("reminder sent",
		"external_user_id", candidate.ExternalUserID,
		"email", outcome.Email,
		"days_since_update", outcome.DaysSinceUpdate,
	)
	return outcome
}

func (d *Dispatcher) recordDispatch(ctx context.Context, outcome core.SendOutcome) {
	if d.ledger == nil {
		return
	}
	status := core.DispatchStatusFailed
	switch {
	case outcome.Success:
		status = core.DispatchStatusSent
	case outcome.Email == "":
		status = core.DispatchStatusSkipped
	}
	err := d.ledger.Record(ctx, core.ReminderDispatch{
		ExternalUserID:  outcome.ExternalUserID,
		Email:           outcome.Email,
		DaysSinceUpdate: outcome.DaysSinceUpdate,
		Status:          status,
		MessageID:       outcome.MessageID,
		Error:           outcome.Error,
		CreatedAt:       d.nowFn(),
	})
	if err != nil {
		d.logger.Error("dispatch ledger write failed",
			"external_user_id", outcome.ExternalUserID,
			"error", err.Error(),
		)
	}
}

func (d *Dispatcher) notifySummary(ctx context.Context, summary core.BatchSummary) {
	if d.summary == nil {
		return
	}
	if err := d.summary.SendSummary(ctx, summary); err != nil {
		d.logger.Error("admin summary notification failed", "error", err.Error())
	}
}

func (d *Dispatcher) observeBatch(ctx context.Context, startedAt time.Time, summary core.BatchSummary) {
	tags := map[string]string{"status": "success"}
	if summary.Err != "" {
		tags["status"] = "failure"
	}
	d.metrics.IncCounter(ctx, "calsync.reminder_batch.total", 1, tags)
	d.metrics.IncCounter(ctx, "calsync.reminder_batch.sent", int64(summary.Succeeded), nil)
	d.metrics.IncCounter(ctx, "calsync.reminder_batch.failed", int64(summary.Failed), nil)
	d.metrics.ObserveHistogram(ctx, "calsync.reminder_batch.duration_ms",
		float64(d.nowFn().Sub(startedAt).Milliseconds()), tags)
	d.logger.Info("reminder batch completed",
		"attempted", summary.Attempted,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
	)
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
