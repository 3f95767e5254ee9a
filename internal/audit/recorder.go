package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"onboarding-service/internal/bucketing"
	"onboarding-service/internal/client"
	"onboarding-service/internal/util"
)

// Event types written to the audit trail.
const (
	EventSubmission   = "submission"
	EventLogin        = "login"
	EventLoginFailed  = "login_failed"
	EventStatusChange = "status_change"
	EventDelete       = "delete"
	EventExport       = "export"
)

const insertEventQuery = `
    INSERT INTO audit_events (event_date, event_time, event_type, actor, customer_id, detail)
    VALUES (?, ?, ?, ?, ?, ?)`

// Recorder appends dashboard and submission events to ClickHouse. Recording
// is best-effort: the caller's operation has already succeeded, so failures
// are logged and swallowed.
type Recorder struct {
	ch      *client.ClickHouseClient
	buckets *bucketing.BucketingManager
}

func NewRecorder(ch *client.ClickHouseClient, buckets *bucketing.BucketingManager) *Recorder {
	return &Recorder{
		ch:      ch,
		buckets: buckets,
	}
}

// Record writes one audit event. actor is the admin email, or "public" for
// anonymous submissions; detail carries event-specific context such as the
// new status or the export format.
func (r *Recorder) Record(ctx context.Context, eventType, actor, customerID, detail string) {
	if r.ch == nil {
		return
	}

	err := r.ch.Exec(ctx, insertEventQuery,
		r.buckets.GetDateBucket(),
		time.Now().UTC(),
		eventType,
		actor,
		customerID,
		detail,
	)
	if err != nil {
		util.Warn("Failed to record audit event",
			zap.String("event_type", eventType),
			zap.String("customer_id", customerID),
			zap.Error(err))
		return
	}

	util.Debug("Audit event recorded",
		zap.String("event_type", eventType),
		zap.String("actor", actor),
		zap.String("customer_id", customerID))
}
