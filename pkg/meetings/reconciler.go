package meetings

import (
	"context"
	"time"

	"github.com/parleyhq/parley/config"
	perrors "github.com/parleyhq/parley/pkg/errors"
	"github.com/parleyhq/parley/pkg/identity"
	"github.com/parleyhq/parley/pkg/logging"
	"github.com/parleyhq/parley/pkg/observability"
)

// scanBatchSize bounds how many meetings one reconciler pass processes from
// each source.
const scanBatchSize = 100

// Reconciler drives pending meetings to a terminal provision state. It
// retries remote provisioning for meetings scheduled in the retry queue and
// for rows stuck pending without a queue entry, and marks meetings failed
// once retries are exhausted.
type Reconciler struct {
	svc    *Service
	cfg    config.ReconcilerConfig
	logger logging.Logger
}

// NewReconciler creates a reconciler over the given service.
func NewReconciler(svc *Service, logger logging.Logger) *Reconciler {
	return &Reconciler{
		svc:    svc,
		cfg:    svc.cfg.Reconciler,
		logger: logger,
	}
}

// Run executes reconcile passes on the configured interval until the context
// is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started",
		logging.F("interval", r.cfg.Interval.String()),
		logging.F("max_attempts", r.cfg.MaxAttempts))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				r.logger.Error("reconcile pass failed", logging.Err(err))
			}
		}
	}
}

// RunOnce performs a single reconcile pass: due queue entries first, then a
// sweep for rows stuck pending without a scheduled retry.
func (r *Reconciler) RunOnce(ctx context.Context) error {
	now := r.svc.now()

	due, err := r.svc.queue.Due(ctx, now, scanBatchSize)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(due))
	for _, entry := range due {
		seen[entry.MeetingID] = true
		r.reconcile(ctx, entry.MeetingID, entry.Attempt)
	}

	cutoff := now.Add(-r.cfg.StuckAfter)
	stuck, err := r.svc.store.ListStuckPending(ctx, cutoff, scanBatchSize)
	if err != nil {
		return err
	}
	for _, m := range stuck {
		if seen[m.ID] {
			continue
		}
		// No queue entry survived for this row, so the attempt count is
		// unknown; treat the sweep as its first retry.
		r.reconcile(ctx, m.ID, 0)
	}
	return nil
}

// reconcile retries provisioning for one meeting. attempt is the number of
// retries already performed.
func (r *Reconciler) reconcile(ctx context.Context, meetingID string, attempt int) {
	m, err := r.svc.store.GetByID(ctx, meetingID)
	if err != nil {
		if perrors.IsNotFound(err) {
			// Removed since it was scheduled.
			r.dropFromQueue(ctx, meetingID)
			return
		}
		r.logger.Error("failed to load meeting for reconciliation",
			logging.F("meeting_id", meetingID), logging.Err(err))
		return
	}
	if m.ProvisionState != ProvisionPending {
		r.dropFromQueue(ctx, meetingID)
		return
	}

	if attempt >= r.cfg.MaxAttempts {
		r.abandon(ctx, m, "retries exhausted")
		return
	}

	agent, err := r.svc.agents.GetByID(ctx, m.AgentID)
	if err != nil {
		if perrors.IsNotFound(err) {
			r.abandon(ctx, m, "agent no longer exists")
			return
		}
		r.logger.Error("failed to load agent for reconciliation",
			logging.F("meeting_id", m.ID), logging.Err(err))
		return
	}

	attempt++
	ctx, span := r.svc.tracer.StartProvision(ctx, m.ID, attempt)
	r.svc.metrics.ReconcileAttemptsTotal.Inc()

	err = r.svc.provision(ctx, m, identity.Caller{ID: m.UserID}, agent)
	observability.EndSpan(span, err)

	switch {
	case err == nil:
		if err := r.svc.store.SetProvisionState(ctx, m.ID, ProvisionReady); err != nil {
			r.logger.Error("failed to mark meeting ready",
				logging.F("meeting_id", m.ID), logging.Err(err))
			return
		}
		r.dropFromQueue(ctx, m.ID)
		r.svc.metrics.ProvisionedTotal.Inc()
		r.logger.Info("meeting provisioned by reconciler",
			logging.F("meeting_id", m.ID), logging.F("attempt", attempt))

	case perrors.IsRetryable(err):
		r.svc.metrics.ProvisionFailuresTotal.WithLabelValues(observability.ReasonProviderUnavailable).Inc()
		if attempt >= r.cfg.MaxAttempts {
			r.abandon(ctx, m, "retries exhausted")
			return
		}
		backoff := retryBackoff(r.svc.cfg.Reconciler, attempt+1)
		if err := r.svc.queue.Enqueue(ctx, m.ID, attempt, r.svc.now().Add(backoff)); err != nil {
			r.logger.Error("failed to reschedule provisioning retry",
				logging.F("meeting_id", m.ID), logging.Err(err))
		}

	default:
		// The provider rejected the call outright; retrying cannot help.
		r.svc.metrics.ProvisionFailuresTotal.WithLabelValues(observability.ReasonProviderRejected).Inc()
		r.abandon(ctx, m, "provider rejected call")
	}
}

// abandon marks the meeting failed and drops any scheduled retry.
func (r *Reconciler) abandon(ctx context.Context, m *Meeting, reason string) {
	if err := r.svc.store.SetProvisionState(ctx, m.ID, ProvisionFailed); err != nil {
		r.logger.Error("failed to mark meeting failed",
			logging.F("meeting_id", m.ID), logging.Err(err))
		return
	}
	r.dropFromQueue(ctx, m.ID)
	r.svc.metrics.ReconcileAbandonedTotal.Inc()
	r.logger.Warn("abandoned meeting provisioning",
		logging.F("meeting_id", m.ID), logging.F("reason", reason))
}

func (r *Reconciler) dropFromQueue(ctx context.Context, meetingID string) {
	if err := r.svc.queue.Remove(ctx, meetingID); err != nil {
		r.logger.Error("failed to drop queue entry",
			logging.F("meeting_id", meetingID), logging.Err(err))
	}
}
