package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AcademicEventType string

const (
	EventRecordCreated    AcademicEventType = "academic.created"
	EventRecordUpdated    AcademicEventType = "academic.updated"
	EventDocumentUploaded AcademicEventType = "document.uploaded"
	EventDocumentReplaced AcademicEventType = "document.replaced"
)

type AcademicEvent struct {
	EventType   AcademicEventType `json:"event_type"`
	UserID      uuid.UUID         `json:"user_id"`
	Section     string            `json:"section,omitempty"`
	Index       int               `json:"index,omitempty"`
	URL         string            `json:"url,omitempty"`
	PreviousURL string            `json:"previous_url,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

type EventPublisher interface {
	PublishAcademicEvent(ctx context.Context, e AcademicEvent) error
}
