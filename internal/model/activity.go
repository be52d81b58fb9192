package model

import "time"

// EventType identifies the kind of activity event fed to the engine
type EventType string

const (
	EventAttendance          EventType = "event_attendance"
	EventActivityCompletion  EventType = "activity_completion"
	EventFeedbackSubmitted   EventType = "feedback_submitted"
	EventRecognitionGiven    EventType = "recognition_given"
	EventRecognitionReceived EventType = "recognition_received"
	EventChallengeCompleted  EventType = "challenge_completed"
	EventMediaUploaded       EventType = "media_uploaded"
	EventProfileUpdated      EventType = "profile_updated"
	EventContentCreated      EventType = "content_created"
)

var eventTypes = []EventType{
	EventAttendance,
	EventActivityCompletion,
	EventFeedbackSubmitted,
	EventRecognitionGiven,
	EventRecognitionReceived,
	EventChallengeCompleted,
	EventMediaUploaded,
	EventProfileUpdated,
	EventContentCreated,
}

// EventTypes returns all known event types
func EventTypes() []EventType {
	out := make([]EventType, len(eventTypes))
	copy(out, eventTypes)
	return out
}

// IsValid reports whether t is a known event type
func (t EventType) IsValid() bool {
	for _, known := range eventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ActivityEvent is a single qualifying action by a user.
// ID doubles as the idempotency key for point awards.
type ActivityEvent struct {
	ID              string    `json:"id" validate:"required,max=128"`
	UserID          string    `json:"user_id" validate:"required,max=128"`
	Type            EventType `json:"type" validate:"required,eventtype"`
	OccurredAt      time.Time `json:"occurred_at"`
	SourceID        string    `json:"source_id,omitempty" validate:"max=128"` // event, activity, challenge or peer id
	EngagementScore *float64  `json:"engagement_score,omitempty"`
	EngagementScale int       `json:"engagement_scale,omitempty" validate:"omitempty,oneof=5 10"`
	Quantity        int       `json:"quantity,omitempty" validate:"gte=0"`
}

// Engagement scores are normalized to this scale at the snapshot boundary
const (
	CanonicalEngagementScale = 5
	HighEngagementThreshold  = 4.0
)

// Participation records a user's involvement in a scheduled event
type Participation struct {
	ID                string     `json:"id"`
	EventID           string     `json:"event_id"`
	Attended          bool       `json:"attended"`
	AttendedAt        *time.Time `json:"attended_at,omitempty"`
	ActivityCompleted bool       `json:"activity_completed"`
	FeedbackSubmitted bool       `json:"feedback_submitted"`
	EngagementScore   *float64   `json:"engagement_score,omitempty"`
	EngagementScale   int        `json:"engagement_scale,omitempty"`
	RecordedAt        time.Time  `json:"recorded_at"`
}

// Recognition is peer recognition from giver to recipient
type Recognition struct {
	ID          string    `json:"id"`
	GiverID     string    `json:"giver_id"`
	RecipientID string    `json:"recipient_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Feedback is an event feedback submission
type Feedback struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	Rating      *float64  `json:"rating,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ChallengeCompletion marks a challenge finished by the user
type ChallengeCompletion struct {
	ID          string    `json:"id"`
	ChallengeID string    `json:"challenge_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// Contribution covers uploads, content and profile updates
type Contribution struct {
	ID        string    `json:"id"`
	Kind      EventType `json:"kind"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityHistory is everything the store knows about one user's activity
type ActivityHistory struct {
	UserID         string                `json:"user_id"`
	Participations []Participation       `json:"participations"`
	Recognitions   []Recognition         `json:"recognitions"`
	Feedback       []Feedback            `json:"feedback"`
	Completions    []ChallengeCompletion `json:"completions"`
	Contributions  []Contribution        `json:"contributions"`
	Ledger         []PointsLedgerEntry   `json:"ledger"`
	Redemptions    []Redemption          `json:"redemptions"`
}

// Contains reports whether an event with this id was already recorded,
// either as an activity record or as the source of a ledger entry
func (h *ActivityHistory) Contains(eventID string) bool {
	if h == nil || eventID == "" {
		return false
	}
	for _, p := range h.Participations {
		if p.ID == eventID {
			return true
		}
	}
	for _, r := range h.Recognitions {
		if r.ID == eventID {
			return true
		}
	}
	for _, f := range h.Feedback {
		if f.ID == eventID {
			return true
		}
	}
	for _, c := range h.Completions {
		if c.ID == eventID {
			return true
		}
	}
	for _, c := range h.Contributions {
		if c.ID == eventID {
			return true
		}
	}
	for _, e := range h.Ledger {
		if e.SourceID == eventID {
			return true
		}
	}
	return false
}

// Credited reports whether the history already holds the action ev records
// for the same source: an attendance, activity completion or feedback on one
// scheduled event earns points once whatever event id it arrives under.
// Other event types are never collapsed.
func (h *ActivityHistory) Credited(ev ActivityEvent) bool {
	if h == nil || ev.SourceID == "" {
		return false
	}
	switch ev.Type {
	case EventAttendance, EventActivityCompletion:
		for _, p := range h.Participations {
			if p.EventID != ev.SourceID {
				continue
			}
			if (ev.Type == EventAttendance && p.Attended) || (ev.Type == EventActivityCompletion && p.ActivityCompleted) {
				return true
			}
		}
	case EventFeedbackSubmitted:
		for _, p := range h.Participations {
			if p.EventID == ev.SourceID && p.FeedbackSubmitted {
				return true
			}
		}
		for _, f := range h.Feedback {
			if f.EventID == ev.SourceID {
				return true
			}
		}
	}
	return false
}

// HasCompletion reports whether the user has completed challengeID
func (h *ActivityHistory) HasCompletion(challengeID string) bool {
	if h == nil {
		return false
	}
	for _, c := range h.Completions {
		if c.ChallengeID == challengeID {
			return true
		}
	}
	return false
}
