package workflow

// EventKind labels a lifecycle event emitted after a committed transition.
type EventKind string

const (
	EventTaskAssigned    EventKind = "task_assigned"
	EventStatusChanged   EventKind = "status_changed"
	EventHandedToCreator EventKind = "handed_to_creator"
	EventTaskApproved    EventKind = "task_approved"
	EventTaskRejected    EventKind = "task_rejected"
)

// Event describes what happened to a task and who should hear about it.
// Delivery is the notification collaborator's problem; the workflow only
// names recipients by contact email.
type Event struct {
	Kind       EventKind
	ActorName  string
	Recipients []string
	Detail     string
}

func (e *Event) addRecipient(email string) {
	if email == "" {
		return
	}
	for _, r := range e.Recipients {
		if r == email {
			return
		}
	}
	e.Recipients = append(e.Recipients, email)
}
