package realtime

import (
	"context"

	"github.com/rs/zerolog"
)

// CaretakerDirectory resolves the caretakers linked to a patient so their
// clients can be notified of the patient's medication activity.
type CaretakerDirectory interface {
	CaretakerIDs(ctx context.Context, patientID int64) ([]int64, error)
}

// Notifier fans medication events out to the affected users' topics.
// Delivery is best effort: failures are logged, never surfaced to the caller.
type Notifier struct {
	pub Publisher
	dir CaretakerDirectory
	log zerolog.Logger
}

// NewNotifier creates a Notifier publishing through pub and resolving
// caretaker links through dir.
func NewNotifier(pub Publisher, dir CaretakerDirectory, log zerolog.Logger) *Notifier {
	return &Notifier{pub: pub, dir: dir, log: log}
}

// NotifyPatient publishes an event to a single patient's topic.
func (n *Notifier) NotifyPatient(ctx context.Context, patientID int64, eventType string, payload map[string]any) {
	n.publish(ctx, UserTopic(patientID), eventType, payload)
}

// NotifyPatientAndCaretakers publishes an event to the patient's own topic,
// then publishes a "patient_"-prefixed variant, tagged with the patient's id
// and username, to every linked caretaker's topic.
func (n *Notifier) NotifyPatientAndCaretakers(ctx context.Context, patientID int64, patientUsername, eventType string, payload map[string]any) {
	n.publish(ctx, UserTopic(patientID), eventType, payload)

	caretakers, err := n.dir.CaretakerIDs(ctx, patientID)
	if err != nil {
		n.log.Error().Err(err).
			Int64("patient_id", patientID).
			Str("event", eventType).
			Msg("resolve caretakers for notification")
		return
	}

	tagged := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		tagged[k] = v
	}
	tagged["patient_id"] = patientID
	tagged["patient_username"] = patientUsername

	for _, caretakerID := range caretakers {
		n.publish(ctx, UserTopic(caretakerID), "patient_"+eventType, tagged)
	}
}

func (n *Notifier) publish(ctx context.Context, topic, eventType string, payload map[string]any) {
	event, err := NewEvent(eventType, payload)
	if err != nil {
		n.log.Error().Err(err).Str("event", eventType).Msg("build event")
		return
	}
	if err := n.pub.Publish(ctx, topic, event); err != nil {
		n.log.Error().Err(err).
			Str("topic", topic).
			Str("event", eventType).
			Msg("publish event")
	}
}
