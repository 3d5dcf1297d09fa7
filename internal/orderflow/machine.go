// Package orderflow holds the order lifecycle rules shared by every path that
// moves an order between statuses.
package orderflow

import (
	"errors"
	"fmt"
)

// Status is an order lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var (
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNoChange          = errors.New("order already has this status")
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// ParseStatus validates s.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further fulfillment happens from s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Policy decides which edges an actor class may take.
type Policy interface {
	Name() string
	Allows(from, to Status) bool
}

type logisticsPolicy struct{}

var logisticsEdges = map[Status][]Status{
	StatusPending:    {StatusShipped},
	StatusConfirmed:  {StatusShipped},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusDelivered},
}

func (logisticsPolicy) Name() string { return "logistics" }

func (logisticsPolicy) Allows(from, to Status) bool {
	for _, s := range logisticsEdges[from] {
		if s == to {
			return true
		}
	}
	return false
}

type adminPolicy struct{}

func (adminPolicy) Name() string { return "admin" }

// Admins may move an order to any status, including out of a terminal one.
func (adminPolicy) Allows(from, to Status) bool {
	return from != to
}

var (
	// LogisticsPolicy is the fixed table delivery partners follow.
	LogisticsPolicy Policy = logisticsPolicy{}
	// AdminPolicy is the operational override used by admins.
	AdminPolicy Policy = adminPolicy{}
)

// Effects lists the side writes a transition requires.
type Effects struct {
	StampDelivered bool
	StampCancelled bool
}

// Transition validates from→to under policy.
func Transition(policy Policy, from, to Status) (Effects, error) {
	if !from.Valid() {
		return Effects{}, fmt.Errorf("%w: current %q", ErrInvalidStatus, from)
	}
	if !to.Valid() {
		return Effects{}, fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if from == to {
		return Effects{}, ErrNoChange
	}
	if !policy.Allows(from, to) {
		return Effects{}, fmt.Errorf("%w: %s cannot move %s to %s", ErrInvalidTransition, policy.Name(), from, to)
	}
	return Effects{
		StampDelivered: to == StatusDelivered,
		StampCancelled: to == StatusCancelled,
	}, nil
}

// Assign returns the status an order takes when a logistics partner is
// assigned or swapped. Orders not yet shipped move to processing; a shipped
// order keeps its status. Terminal orders cannot be reassigned.
func Assign(from Status) (Status, error) {
	switch from {
	case StatusPending, StatusConfirmed, StatusProcessing:
		return StatusProcessing, nil
	case StatusShipped:
		return from, nil
	}
	return "", fmt.Errorf("%w: cannot assign an order in %s", ErrInvalidTransition, from)
}

// Unassign returns the status an order falls back to when its partner is
// removed. A processing order drops back to confirmed; pending, confirmed
// and shipped orders keep their status.
func Unassign(from Status) (Status, error) {
	switch from {
	case StatusProcessing:
		return StatusConfirmed, nil
	case StatusPending, StatusConfirmed, StatusShipped:
		return from, nil
	}
	return "", fmt.Errorf("%w: cannot unassign an order in %s", ErrInvalidTransition, from)
}
