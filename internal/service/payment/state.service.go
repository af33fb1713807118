package payment

import (
	"errors"
	"mobile-banking-core/internal/common/enum"
	types "mobile-banking-core/internal/common/type"
	"mobile-banking-core/internal/pkg/backend"
	"time"
)

// TimeoutMessage is the error text of a flow whose poll ran out of time.
const TimeoutMessage = "timeout"

// ErrPollTimeout marks a flow failed by the poll cap rather than by the server.
var ErrPollTimeout = errors.New(TimeoutMessage)

// State is one payment attempt as the screen sees it. It is only changed
// through the transition functions in this file.
type State struct {
	Stage           enum.PaymentStageEnum `json:"stage"`
	Kind            enum.PaymentKindEnum  `json:"kind,omitempty"`
	IdempotencyKey  string                `json:"idempotencyKey,omitempty"`
	Amount          *types.Money          `json:"amount,omitempty"`
	IntentID        *string               `json:"intentId,omitempty"`
	Intent          *backend.Intent       `json:"intent,omitempty"`
	Error           *string               `json:"error,omitempty"`
	Err             error                 `json:"-"`
	ActionURL       *string               `json:"actionUrl,omitempty"`
	ActionSentForID *string               `json:"actionSentForId,omitempty"`
	PollAttempts    int                   `json:"pollAttempts"`
	PollElapsedMs   int64                 `json:"pollElapsedMs"`
	StartedAt       *time.Time            `json:"startedAt,omitempty"`
	FinishedAt      *time.Time            `json:"finishedAt,omitempty"`
}

func NewState() State {
	return State{Stage: enum.STAGE_IDLE}
}

// TimedOut reports whether the flow failed on the poll cap.
func (s State) TimedOut() bool {
	return errors.Is(s.Err, ErrPollTimeout)
}

// Begin enters CREATING for a new attempt. ActionSentForID survives so a
// retried attempt that lands on the same intent does not prompt twice.
func Begin(s State, kind enum.PaymentKindEnum, amount types.Money, now time.Time) State {
	return State{
		Stage:           enum.STAGE_CREATING,
		Kind:            kind,
		Amount:          &amount,
		ActionSentForID: s.ActionSentForID,
		StartedAt:       &now,
	}
}

func WithKey(s State, key string) State {
	s.IdempotencyKey = key
	return s
}

// CreationFailed is terminal and carries the underlying message.
func CreationFailed(s State, err error, now time.Time) State {
	return fail(s, err, now)
}

// Created enters PROCESSING for the new intent and applies its status.
func Created(s State, intent backend.Intent, now time.Time) State {
	id := intent.IntentID
	s.Stage = enum.STAGE_PROCESSING
	s.IntentID = &id
	return ApplyIntent(s, intent, now)
}

// ApplyIntent maps a fetched intent onto the flow.
func ApplyIntent(s State, intent backend.Intent, now time.Time) State {
	s.Intent = &intent

	switch intent.Status {
	case enum.INTENT_SUCCESS:
		s.Stage = enum.STAGE_SUCCEEDED
		s.ActionURL = nil
		s.FinishedAt = &now
	case enum.INTENT_FAILED:
		msg := "payment failed"
		if intent.Description != nil && *intent.Description != "" {
			msg = *intent.Description
		}
		s = fail(s, errors.New(msg), now)
	case enum.INTENT_CANCELED:
		s.Stage = enum.STAGE_CANCELED
		s.ActionURL = nil
		s.FinishedAt = &now
	case enum.INTENT_PENDING, enum.INTENT_PROCESSING:
		s.Stage = enum.STAGE_PROCESSING
		s = surfaceAction(s, intent)
	}
	return s
}

// surfaceAction exposes the return URL at most once per intent id.
func surfaceAction(s State, intent backend.Intent) State {
	if intent.ReturnURL == nil || *intent.ReturnURL == "" {
		return s
	}
	if s.ActionSentForID != nil && *s.ActionSentForID == intent.IntentID {
		return s
	}
	url, id := *intent.ReturnURL, intent.IntentID
	s.ActionURL = &url
	s.ActionSentForID = &id
	return s
}

// Polled records one poll fetch and the total time waited so far.
func Polled(s State, elapsed time.Duration) State {
	s.PollAttempts++
	s.PollElapsedMs = elapsed.Milliseconds()
	return s
}

func TimedOut(s State, now time.Time) State {
	return fail(s, ErrPollTimeout, now)
}

// ActionConsumed clears the surfaced URL once the shell opened it.
func ActionConsumed(s State) State {
	s.ActionURL = nil
	return s
}

func fail(s State, err error, now time.Time) State {
	msg := err.Error()
	s.Stage = enum.STAGE_FAILED
	s.Error = &msg
	s.Err = err
	s.ActionURL = nil
	s.FinishedAt = &now
	return s
}
