// Package notifications forwards lifecycle events to the notifications
// service. Delivery is strictly best-effort: the task transition has already
// committed by the time an event reaches this package, so failures are
// logged and dropped, never propagated.
package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"taskflow/services/tasks-service/logging"
	"taskflow/services/tasks-service/models"
	"taskflow/services/tasks-service/workflow"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

// eventPayload is the wire shape posted to the notifications service.
type eventPayload struct {
	ID          string             `json:"id"`
	Kind        workflow.EventKind `json:"kind"`
	TaskSno     int64              `json:"taskSno"`
	Description string             `json:"description"`
	ActorName   string             `json:"actorName"`
	Detail      string             `json:"detail,omitempty"`
	Recipients  []string           `json:"recipients"`
	OccurredAt  time.Time          `json:"occurredAt"`
}

// HTTPNotifier posts events to the notifications service behind a circuit
// breaker, one goroutine per event.
type HTTPNotifier struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewHTTPNotifier(baseURL string, client *http.Client, breaker *gobreaker.CircuitBreaker) *HTTPNotifier {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPNotifier{baseURL: baseURL, client: client, breaker: breaker}
}

// Emit dispatches the event asynchronously and returns immediately.
func (n *HTTPNotifier) Emit(ev workflow.Event, task *models.Task) {
	payload := eventPayload{
		ID:          uuid.New().String(),
		Kind:        ev.Kind,
		TaskSno:     task.Sno,
		Description: task.Description,
		ActorName:   ev.ActorName,
		Detail:      ev.Detail,
		Recipients:  ev.Recipients,
		OccurredAt:  time.Now(),
	}

	go func() {
		_, err := n.breaker.Execute(func() (interface{}, error) {
			return nil, n.post(payload)
		})
		if err != nil {
			logging.Logger.Warnf("Event ID: NOTIFY_DELIVERY_FAILED, Description: Could not deliver %s event for task #%d: %v", ev.Kind, task.Sno, err)
		}
	}()
}

func (n *HTTPNotifier) post(payload eventPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %v", err)
	}

	resp, err := n.client.Post(n.baseURL+"/api/notifications/events", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notifications service unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notifications service returned status %d", resp.StatusCode)
	}
	return nil
}
