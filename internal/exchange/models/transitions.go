package models

import (
	"fmt"

	e "github.com/gartstein/tradehub/internal/exchange/errors"
)

// dealTransitions lists, for every deal status, the statuses it may move to.
// COMPLETED and CANCELED are terminal.
var dealTransitions = map[DealStatus][]DealStatus{
	DealAgreement:             {DealDispatcherAppointment, DealLoading, DealProblem, DealCanceled},
	DealDispatcherAppointment: {DealLoading, DealProblem, DealCanceled},
	DealLoading:               {DealUnloading, DealProblem, DealCanceled},
	DealUnloading:             {DealAcceptance, DealCompleted, DealProblem, DealCanceled},
	DealAcceptance:            {DealCompleted, DealProblem, DealCanceled},
	DealProblem: {
		DealAgreement, DealDispatcherAppointment, DealLoading, DealUnloading,
		DealAcceptance, DealCompleted, DealCanceled,
	},
	DealCompleted: {},
	DealCanceled:  {},
}

var transportTransitions = map[TransportStatus][]TransportStatus{
	TransportAgreement:       {TransportLoading, TransportCanceled},
	TransportLoading:         {TransportUnloading, TransportCanceled},
	TransportUnloading:       {TransportFinalAcceptance, TransportCompleted, TransportCanceled},
	TransportFinalAcceptance: {TransportCompleted, TransportCanceled},
	TransportCompleted:       {},
	TransportCanceled:        {},
}

// transportToDealStatus is how a transport status propagates to its deal.
var transportToDealStatus = map[TransportStatus]DealStatus{
	TransportLoading:   DealLoading,
	TransportUnloading: DealUnloading,
}

func containsDealStatus(list []DealStatus, s DealStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsTransportStatus(list []TransportStatus, s TransportStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s DealStatus) IsTerminal() bool {
	return s == DealCompleted || s == DealCanceled
}

// ValidateDealTransition fails with ErrInvalidTransition when from -> to is
// not in the table. Staying in the same status is always allowed.
func ValidateDealTransition(from, to DealStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown deal status %q", e.ErrInvalidInput, to)
	}
	if from == to {
		return nil
	}
	if !containsDealStatus(dealTransitions[from], to) {
		return fmt.Errorf("%w: deal %s -> %s", e.ErrInvalidTransition, from, to)
	}
	return nil
}

func (s TransportStatus) IsTerminal() bool {
	return s == TransportCompleted || s == TransportCanceled
}

func ValidateTransportTransition(from, to TransportStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown transport status %q", e.ErrInvalidInput, to)
	}
	if from == to {
		return nil
	}
	if !containsTransportStatus(transportTransitions[from], to) {
		return fmt.Errorf("%w: transport application %s -> %s", e.ErrInvalidTransition, from, to)
	}
	return nil
}

// DealStatusForTransport returns the deal status implied by a transport
// status, if any.
func DealStatusForTransport(s TransportStatus) (DealStatus, bool) {
	d, ok := transportToDealStatus[s]
	return d, ok
}
