package model

import "time"

type ReviewEventType string

const (
	ReviewSubmitted ReviewEventType = "review_submitted"
	ReviewLiked     ReviewEventType = "review_liked"
	ReviewDeleted   ReviewEventType = "review_deleted"
	ReviewAppended  ReviewEventType = "review_appended"
)

// ReviewEvent is published after the gateway commits a review mutation.
type ReviewEvent struct {
	Type       ReviewEventType `json:"type"`
	ReviewID   string          `json:"review_id"`
	TargetID   string          `json:"target_id,omitempty"`
	TargetKind TargetKind      `json:"target_kind,omitempty"`
	AuthorID   string          `json:"author_id,omitempty"`
	Rating     int             `json:"rating,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}
