// Package batch moves job/resume memberships through parsing and matching.
package batch

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/spigell/jd-matcher/internal/matching"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusMatching   Status = "MATCHING"
	StatusDone       Status = "DONE"
	StatusError      Status = "ERROR"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusProcessing, StatusMatching, StatusDone, StatusError}

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusError},
	StatusProcessing: {StatusMatching, StatusError},
	StatusMatching:   {StatusDone, StatusError},
	StatusDone:       {StatusDone, StatusMatching, StatusError},
	StatusError:      {StatusPending, StatusMatching},
}

var ErrInvalidTransition = errors.New("invalid status transition")

func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// CanTransition reports whether a membership may move from s to next.
func (s Status) CanTransition(next Status) bool {
	return slices.Contains(transitions[s], next)
}

// Membership links one resume to one job and tracks its processing.
type Membership struct {
	ID          string `json:"id"`
	JobID       string `json:"jobId"`
	CandidateID string `json:"candidateId,omitempty"`
	// ResumeFileName is the original name of the resume document.
	ResumeFileName string `json:"resumeFileName,omitempty"`
	// ResumePath points at the plain text resume when ResumeText is empty.
	ResumePath  string `json:"resumePath,omitempty"`
	ResumeText  string `json:"resumeText,omitempty"`
	UpdateNotes string `json:"updateNotes,omitempty"`
	Status      Status `json:"status"`
	Error       string `json:"error,omitempty"`

	RunID      string                     `json:"runId,omitempty"`
	Dimensions map[string]matching.Result `json:"dimensions,omitempty"`
	Scores     *matching.CompositeResult  `json:"finalScores,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// moveTo changes the status. Leaving DONE drops the scores, keeping the
// dimension results for later re-aggregation.
func (m *Membership) moveTo(next Status, now time.Time) error {
	if !m.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s for membership %s", ErrInvalidTransition, m.Status, next, m.ID)
	}
	m.Status = next
	m.UpdatedAt = now
	if next != StatusDone {
		m.Scores = nil
	}
	if next != StatusError {
		m.Error = ""
	}
	return nil
}
