package application

import (
	dErrors "copydesk/pkg/domain-errors"
)

// Status values mirror the applications.status column.
//
// Valid status graph:
//
//	submitted ──► a_register ──► sent_to_court ──► court_replied
//	                                                     │
//	         superintendent_received ◄───────────────────┘
//	                    │
//	            call_for_notice ──► payment_received ──► xerox_assigned
//	                    │                                      │
//	                struck_off                 ready ◄─────────┘
//	                                             │
//	                                         delivered
//
// delivered and struck_off are terminal. struck_off is reachable only from
// call_for_notice (grace period elapsed without payment).
type Status string

const (
	StatusSubmitted              Status = "submitted"
	StatusARegister              Status = "a_register"
	StatusSentToCourt            Status = "sent_to_court"
	StatusCourtReplied           Status = "court_replied"
	StatusSuperintendentReceived Status = "superintendent_received"
	StatusCallForNotice          Status = "call_for_notice"
	StatusPaymentReceived        Status = "payment_received"
	StatusXeroxAssigned          Status = "xerox_assigned"
	StatusReady                  Status = "ready"
	StatusDelivered              Status = "delivered"
	StatusStruckOff              Status = "struck_off"
)

// validTransitions lists every allowed (from → to) edge. Skipping stages and
// moving backward are both unrepresentable here, so they get rejected at the
// boundary rather than documented away.
var validTransitions = map[Status][]Status{
	StatusSubmitted:              {StatusARegister},
	StatusARegister:              {StatusSentToCourt},
	StatusSentToCourt:            {StatusCourtReplied},
	StatusCourtReplied:           {StatusSuperintendentReceived},
	StatusSuperintendentReceived: {StatusCallForNotice},
	StatusCallForNotice:          {StatusPaymentReceived, StatusStruckOff},
	StatusPaymentReceived:        {StatusXeroxAssigned},
	StatusXeroxAssigned:          {StatusReady},
	StatusReady:                  {StatusDelivered},
	// delivered and struck_off are terminal — no outgoing transitions
}

// ParseStatus converts a raw string to a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := validTransitions[st]; ok {
		return st, nil
	}
	if st == StatusDelivered || st == StatusStruckOff {
		return st, nil
	}
	return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown application status %q", s)
}

// CanTransition reports whether moving from → to is a legal edge.
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the legal next statuses from a given status.
// Terminal states return an empty slice.
func AllowedTransitions(from Status) []Status {
	allowed := validTransitions[from]
	out := make([]Status, len(allowed))
	copy(out, allowed)
	return out
}

// IsTerminal reports whether no transitions leave the given status.
func IsTerminal(s Status) bool {
	return len(validTransitions[s]) == 0
}
