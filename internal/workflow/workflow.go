package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the review state of an application.
type Status string

const (
	StatusApplied   Status = "applied"
	StatusInterview Status = "interview"
	StatusReject    Status = "reject"
	StatusHire      Status = "hire"
)

// Action is an HR decision applied to an application.
type Action string

const (
	ActionInterview Action = "interview"
	ActionReject    Action = "reject"
	ActionHire      Action = "hire"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// InvalidTransitionError carries the state the action was attempted from.
type InvalidTransitionError struct {
	From   Status
	Action Action
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s an application in status %q", e.Action, e.From)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

type edge struct {
	from   Status
	action Action
}

var transitions = map[edge]Status{
	{StatusApplied, ActionInterview}: StatusInterview,
	{StatusApplied, ActionReject}:    StatusReject,
	{StatusInterview, ActionHire}:    StatusHire,
	{StatusInterview, ActionReject}:  StatusReject,
}

// Next returns the status reached by applying action to from.
func Next(from Status, action Action) (Status, error) {
	to, ok := transitions[edge{from, action}]
	if !ok {
		return "", &InvalidTransitionError{From: from, Action: action}
	}
	return to, nil
}

// Terminal reports whether no action is legal from s.
func (s Status) Terminal() bool {
	return s == StatusReject || s == StatusHire
}

func (s Status) Valid() bool {
	switch s {
	case StatusApplied, StatusInterview, StatusReject, StatusHire:
		return true
	}
	return false
}

// Notifies reports whether reaching this edge authorizes a candidate notification.
func Notifies(from Status, action Action) bool {
	return from == StatusApplied && action == ActionInterview
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

func ParseAction(raw string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(raw)))
	switch a {
	case ActionInterview, ActionReject, ActionHire:
		return a, nil
	}
	return "", fmt.Errorf("unknown action %q", raw)
}

// Actions lists the actions legal from s, in table order.
func Actions(s Status) []Action {
	out := make([]Action, 0, 2)
	for _, a := range []Action{ActionInterview, ActionHire, ActionReject} {
		if _, ok := transitions[edge{s, a}]; ok {
			out = append(out, a)
		}
	}
	return out
}
