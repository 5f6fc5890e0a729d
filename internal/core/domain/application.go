package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type AppID string

// ApplicationStatus is the lifecycle state of one application.
type ApplicationStatus string

const (
	AppStatusPreparing ApplicationStatus = "preparing"
	AppStatusReady     ApplicationStatus = "ready"
	AppStatusSubmitted ApplicationStatus = "submitted"
	AppStatusInterview ApplicationStatus = "interview"
	AppStatusOffer     ApplicationStatus = "offer"
	AppStatusRejected  ApplicationStatus = "rejected"
)

// allowedTransitions is the closed edge table. rejected is absorbing:
// reachable from every non-terminal state, with no outgoing edges.
// No backward edges exist.
var allowedTransitions = map[ApplicationStatus][]ApplicationStatus{
	AppStatusPreparing: {AppStatusReady, AppStatusRejected},
	AppStatusReady:     {AppStatusSubmitted, AppStatusRejected},
	AppStatusSubmitted: {AppStatusInterview, AppStatusRejected},
	AppStatusInterview: {AppStatusOffer, AppStatusRejected},
	AppStatusOffer:     {},
	AppStatusRejected:  {},
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s ApplicationStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

// CanTransition reports whether the edge s -> to is in the table.
func (s ApplicationStatus) CanTransition(to ApplicationStatus) bool {
	for _, next := range allowedTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// TimelineEntry is one event in an application's append-only history.
type TimelineEntry struct {
	Status    ApplicationStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Note      string            `json:"note,omitempty"`
}

// Application records a user's pursuit of one job. Created in preparing,
// mutated only through Transition/AddNote, never deleted: terminal states
// are kept for history. MatchScore is a snapshot taken at creation.
type Application struct {
	ID             AppID             `json:"app_id"`
	UserID         UserID            `json:"user_id"`
	JobID          JobID             `json:"job_id"`
	Status         ApplicationStatus `json:"status"`
	MatchScore     int               `json:"match_score"`
	TailoredResume string            `json:"tailored_resume,omitempty"`
	CoverLetter    string            `json:"cover_letter,omitempty"`
	FormAnswers    map[string]string `json:"form_answers,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	SubmittedAt    *time.Time        `json:"submitted_at,omitempty"`
	Timeline       []TimelineEntry   `json:"timeline"`
}

var ErrApplicationNotFound = errors.New("application not found")

// NewApplication creates an application in preparing with its first
// timeline entry. The match score is frozen here.
func NewApplication(userID UserID, jobID JobID, matchScore int) *Application {
	now := time.Now().UTC()
	return &Application{
		ID:         AppID(uuid.New().String()[:12]),
		UserID:     userID,
		JobID:      jobID,
		Status:     AppStatusPreparing,
		MatchScore: matchScore,
		CreatedAt:  now,
		UpdatedAt:  now,
		Timeline: []TimelineEntry{{
			Status:    AppStatusPreparing,
			Timestamp: now,
			Note:      "application created",
		}},
	}
}

// Transition moves the application along one legal edge, appending exactly
// one timeline entry. On an illegal edge it returns IllegalTransitionError
// and leaves the application unmodified.
func (a *Application) Transition(to ApplicationStatus, note string) error {
	if !a.Status.CanTransition(to) {
		return &IllegalTransitionError{From: a.Status, To: to}
	}

	now := a.entryTime()
	a.Status = to
	a.UpdatedAt = now
	if to == AppStatusSubmitted && a.SubmittedAt == nil {
		a.SubmittedAt = &now
	}
	a.Timeline = append(a.Timeline, TimelineEntry{
		Status:    to,
		Timestamp: now,
		Note:      note,
	})
	return nil
}

// AddNote appends a free-text entry carrying the current status.
// Not a transition; always succeeds.
func (a *Application) AddNote(note string) {
	now := a.entryTime()
	a.UpdatedAt = now
	a.Timeline = append(a.Timeline, TimelineEntry{
		Status:    a.Status,
		Timestamp: now,
		Note:      note,
	})
}

// entryTime clamps against the last entry so timeline timestamps stay
// non-decreasing even if the wall clock steps backwards.
func (a *Application) entryTime() time.Time {
	now := time.Now().UTC()
	if n := len(a.Timeline); n > 0 && now.Before(a.Timeline[n-1].Timestamp) {
		return a.Timeline[n-1].Timestamp
	}
	return now
}
