package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApplicationStartsPreparing(t *testing.T) {
	app := NewApplication("user-1", "job-1", 82)

	assert.Equal(t, AppStatusPreparing, app.Status)
	assert.Equal(t, 82, app.MatchScore)
	assert.Nil(t, app.SubmittedAt)
	require.Len(t, app.Timeline, 1)
	assert.Equal(t, AppStatusPreparing, app.Timeline[0].Status)
}

func TestApplicationHappyPath(t *testing.T) {
	app := NewApplication("user-1", "job-1", 75)

	for _, next := range []ApplicationStatus{
		AppStatusReady, AppStatusSubmitted, AppStatusInterview, AppStatusOffer,
	} {
		require.NoError(t, app.Transition(next, ""))
		assert.Equal(t, next, app.Status)
	}

	assert.True(t, app.Status.IsTerminal())
	require.NotNil(t, app.SubmittedAt)
	// created + 4 transitions
	assert.Len(t, app.Timeline, 5)
}

func TestApplicationRejectedFromEveryNonTerminalState(t *testing.T) {
	path := []ApplicationStatus{
		AppStatusReady, AppStatusSubmitted, AppStatusInterview,
	}

	for steps := 0; steps <= len(path); steps++ {
		app := NewApplication("user-1", "job-1", 50)
		for _, next := range path[:steps] {
			require.NoError(t, app.Transition(next, ""))
		}
		from := app.Status
		require.NoError(t, app.Transition(AppStatusRejected, "no fit"), "from %s", from)
		assert.Equal(t, AppStatusRejected, app.Status)
	}
}

func TestApplicationIllegalTransitions(t *testing.T) {
	cases := []struct {
		name string
		walk []ApplicationStatus
		to   ApplicationStatus
	}{
		{"skip ready", nil, AppStatusSubmitted},
		{"skip submitted", []ApplicationStatus{AppStatusReady}, AppStatusInterview},
		{"backward from submitted", []ApplicationStatus{AppStatusReady, AppStatusSubmitted}, AppStatusPreparing},
		{"out of offer", []ApplicationStatus{AppStatusReady, AppStatusSubmitted, AppStatusInterview, AppStatusOffer}, AppStatusRejected},
		{"out of rejected", []ApplicationStatus{AppStatusRejected}, AppStatusReady},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := NewApplication("user-1", "job-1", 50)
			for _, next := range tc.walk {
				require.NoError(t, app.Transition(next, ""))
			}
			before := app.Status
			entries := len(app.Timeline)

			err := app.Transition(tc.to, "")
			var illegal *IllegalTransitionError
			require.ErrorAs(t, err, &illegal)
			assert.Equal(t, before, illegal.From)
			assert.Equal(t, tc.to, illegal.To)

			// rejected edge leaves the application untouched
			assert.Equal(t, before, app.Status)
			assert.Len(t, app.Timeline, entries)
		})
	}
}

func TestApplicationSubmittedAtStampedOnce(t *testing.T) {
	app := NewApplication("user-1", "job-1", 90)
	require.NoError(t, app.Transition(AppStatusReady, ""))
	require.NoError(t, app.Transition(AppStatusSubmitted, "sent via portal"))

	require.NotNil(t, app.SubmittedAt)
	stamped := *app.SubmittedAt
	assert.Equal(t, app.Timeline[len(app.Timeline)-1].Timestamp, stamped)
}

func TestApplicationTimelineNonDecreasing(t *testing.T) {
	app := NewApplication("user-1", "job-1", 60)
	require.NoError(t, app.Transition(AppStatusReady, ""))
	app.AddNote("recruiter pinged")
	require.NoError(t, app.Transition(AppStatusSubmitted, ""))
	app.AddNote("follow-up sent")

	var prev time.Time
	for i, entry := range app.Timeline {
		assert.False(t, entry.Timestamp.Before(prev), "entry %d went backwards", i)
		prev = entry.Timestamp
	}
}

func TestAddNoteKeepsStatus(t *testing.T) {
	app := NewApplication("user-1", "job-1", 60)
	require.NoError(t, app.Transition(AppStatusReady, ""))

	app.AddNote("waiting on referral")

	assert.Equal(t, AppStatusReady, app.Status)
	last := app.Timeline[len(app.Timeline)-1]
	assert.Equal(t, AppStatusReady, last.Status)
	assert.Equal(t, "waiting on referral", last.Note)
}
