// Package triage holds the per-kind status machines admins move submissions
// through.
package triage

import (
	"context"
	"errors"
	"fmt"

	"github.com/autoteile-schmidt/service-portal-api/models"
	"github.com/autoteile-schmidt/service-portal-api/store"
)

var (
	// ErrUnknownStatus is returned for a status outside the kind's set.
	ErrUnknownStatus = errors.New("unknown status")
	// ErrTerminalState is returned when a terminal status would be left
	// without an explicit reopen.
	ErrTerminalState = errors.New("status is terminal")
)

// Machine describes the statuses of one submission kind. Any status may move
// to any other, except that terminal statuses are only left on reopen.
type Machine struct {
	Kind     string
	Initial  string
	States   []string
	Terminal []string
}

var (
	Contact = Machine{
		Kind:     "contact",
		Initial:  models.ContactStatusNew,
		States:   []string{models.ContactStatusNew, models.ContactStatusRead, models.ContactStatusReplied},
		Terminal: []string{models.ContactStatusReplied},
	}
	Complaint = Machine{
		Kind:     "complaint",
		Initial:  models.ComplaintStatusNew,
		States:   []string{models.ComplaintStatusNew, models.ComplaintStatusInProgress, models.ComplaintStatusResolved, models.ComplaintStatusRejected},
		Terminal: []string{models.ComplaintStatusResolved, models.ComplaintStatusRejected},
	}
	Return = Machine{
		Kind:     "return",
		Initial:  models.ReturnStatusPending,
		States:   []string{models.ReturnStatusPending, models.ReturnStatusApproved, models.ReturnStatusRejected, models.ReturnStatusCompleted},
		Terminal: []string{models.ReturnStatusRejected, models.ReturnStatusCompleted},
	}
	B2BRegistration = Machine{
		Kind:     "b2b_registration",
		Initial:  models.B2BStatusNew,
		States:   []string{models.B2BStatusNew, models.B2BStatusContacted, models.B2BStatusApproved, models.B2BStatusRejected},
		Terminal: []string{models.B2BStatusApproved, models.B2BStatusRejected},
	}
	MotorInquiry = Machine{
		Kind:     "motor_inquiry",
		Initial:  models.MotorStatusNew,
		States:   []string{models.MotorStatusNew, models.MotorStatusInReview, models.MotorStatusQuoted, models.MotorStatusClosed},
		Terminal: []string{models.MotorStatusClosed},
	}
)

// Machines lists every machine, in dashboard order.
var Machines = []Machine{Complaint, Return, B2BRegistration, MotorInquiry, Contact}

// Valid reports whether status belongs to the machine.
func (m Machine) Valid(status string) bool {
	return contains(m.States, status)
}

// IsTerminal reports whether status is a terminal status of the machine.
func (m Machine) IsTerminal(status string) bool {
	return contains(m.Terminal, status)
}

// Transition checks a move from one status to another. Staying in the same
// status is always allowed.
func (m Machine) Transition(from, to string, reopen bool) error {
	if !m.Valid(to) {
		return fmt.Errorf("%w: %q is not a %s status", ErrUnknownStatus, to, m.Kind)
	}
	if from == to {
		return nil
	}
	if m.IsTerminal(from) && !reopen {
		return fmt.Errorf("%w: %s %q requires reopen", ErrTerminalState, m.Kind, from)
	}
	return nil
}

// Change is an admin's triage action on one record.
type Change struct {
	Status        string
	ProcessorName *string
	AdminNotes    *string
	Reopen        bool
}

// Apply loads the record, checks the transition and patches only the status,
// processor name and admin notes. Submission content is never touched.
func Apply[T models.Submission](ctx context.Context, repo store.Repository[T], m Machine, id string, change Change) (*T, string, error) {
	current, err := repo.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	from := (*current).CurrentStatus()

	if err := m.Transition(from, change.Status, change.Reopen); err != nil {
		return nil, from, err
	}

	patch := store.Patch{"status": change.Status}
	if change.ProcessorName != nil {
		patch["processor_name"] = *change.ProcessorName
	}
	if change.AdminNotes != nil {
		patch["admin_notes"] = *change.AdminNotes
	}

	updated, err := repo.Update(ctx, id, patch)
	if err != nil {
		return nil, from, err
	}
	return updated, from, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
