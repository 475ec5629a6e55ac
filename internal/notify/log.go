package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// LogNotifier writes notices to the application log. It backs local
// development and acts as the fallback when no broker is configured.
type LogNotifier struct{}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) SendApprovalRequested(ctx context.Context, managerIDs []string, notice ApprovalNotice) error {
	n.logNotice("approval.requested", managerIDs, notice)
	return nil
}

func (n *LogNotifier) SendApproved(ctx context.Context, submitterID string, notice ApprovalNotice) error {
	n.logNotice("approval.approved", []string{submitterID}, notice)
	return nil
}

func (n *LogNotifier) SendDeclined(ctx context.Context, submitterID string, notice ApprovalNotice) error {
	n.logNotice("approval.declined", []string{submitterID}, notice)
	return nil
}

func (n *LogNotifier) logNotice(eventName string, recipients []string, notice ApprovalNotice) {
	data := map[string]any{
		"ts":          time.Now().Format(time.RFC3339Nano),
		"level":       "info",
		"component":   "notify",
		"event":       eventName,
		"recipients":  recipients,
		"request_id":  notice.RequestID,
		"document_id": notice.DocumentID,
		"project_id":  notice.ProjectID,
		"actor_id":    notice.ActorID,
	}
	if notice.Reason != "" {
		data["reason"] = notice.Reason
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal notification log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
