package checkin

import (
	"fmt"
)

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeAlreadyAttended
	OutcomeNotFound
	OutcomeFailed
	// OutcomeRejected is a scan whose text is not a pass; no lookup happens.
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeAlreadyAttended:
		return "already_attended"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeFailed:
		return "failed"
	case OutcomeRejected:
		return "invalid_credential"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

type Effect int

const (
	EffectPersistCheckIn Effect = iota
	EffectReloadRoster
)

func (e Effect) String() string {
	switch e {
	case EffectPersistCheckIn:
		return "persist_check_in"
	case EffectReloadRoster:
		return "reload_roster"
	}
	return fmt.Sprintf("effect(%d)", int(e))
}

func (e Effect) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// Decision is what should happen for a registration given a roster snapshot.
type Decision struct {
	Outcome Outcome
	Entry   *RosterEntry
	Effects []Effect
}

func (d Decision) Has(e Effect) bool {
	for _, x := range d.Effects {
		if x == e {
			return true
		}
	}
	return false
}

// Decide is pure: the only path that writes is an unattended registration
// present in the roster.
func Decide(registrationID string, roster Roster) Decision {
	entry, ok := roster.Find(registrationID)
	if !ok {
		return Decision{Outcome: OutcomeNotFound}
	}
	if entry.Attended {
		return Decision{Outcome: OutcomeAlreadyAttended, Entry: &entry}
	}
	return Decision{
		Outcome: OutcomeSuccess,
		Entry:   &entry,
		Effects: []Effect{EffectPersistCheckIn, EffectReloadRoster},
	}
}
