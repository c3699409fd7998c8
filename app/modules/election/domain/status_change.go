package electiondomain

import (
	"strings"
	"time"
)

// ChangeType identifies an audit event. The set is closed: values outside the
// declared constants are rejected by ParseChangeType and UnmarshalText.
type ChangeType uint8

const (
	ChangeCreated ChangeType = iota + 1
	ChangeOpened
	ChangeClosed
	ChangeDeleted
	ChangeTitleChanged
	ChangeSystemChanged
	ChangeMinimumChanged
	ChangeRequirementsChanged
	ChangeDurationSet
	ChangeDurationCleared
	ChangeBallotModeChanged
	ChangeCandidateAdded
	ChangeCandidateRemoved
	ChangePollAdded
	ChangePollRemoved
	ChangeExported
)

var changeTypeNames = map[ChangeType]string{
	ChangeCreated:             "CREATED",
	ChangeOpened:              "OPENED",
	ChangeClosed:              "CLOSED",
	ChangeDeleted:             "DELETED",
	ChangeTitleChanged:        "TITLE_CHANGED",
	ChangeSystemChanged:       "SYSTEM_CHANGED",
	ChangeMinimumChanged:      "MINIMUM_CHANGED",
	ChangeRequirementsChanged: "REQUIREMENTS_CHANGED",
	ChangeDurationSet:         "DURATION_SET",
	ChangeDurationCleared:     "DURATION_CLEARED",
	ChangeBallotModeChanged:   "BALLOT_MODE_CHANGED",
	ChangeCandidateAdded:      "CANDIDATE_ADDED",
	ChangeCandidateRemoved:    "CANDIDATE_REMOVED",
	ChangePollAdded:           "POLL_ADDED",
	ChangePollRemoved:         "POLL_REMOVED",
	ChangeExported:            "EXPORTED",
}

// ChangeTypes lists every change type in declaration order.
func ChangeTypes() []ChangeType {
	out := make([]ChangeType, 0, len(changeTypeNames))
	for t := ChangeCreated; t <= ChangeExported; t++ {
		out = append(out, t)
	}
	return out
}

func (t ChangeType) String() string {
	if name, ok := changeTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Valid reports whether t is one of the declared change types.
func (t ChangeType) Valid() bool {
	_, ok := changeTypeNames[t]
	return ok
}

// ParseChangeType converts a stored name back to a ChangeType.
func ParseChangeType(s string) (ChangeType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for t, name := range changeTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, ErrUnknownChangeType
}

func (t ChangeType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, ErrUnknownChangeType
	}
	return []byte(t.String()), nil
}

func (t *ChangeType) UnmarshalText(b []byte) error {
	parsed, err := ParseChangeType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// StatusChange is one append-only audit entry.
type StatusChange struct {
	Time    time.Time
	Type    ChangeType
	Actor   string
	Details *string
}

// NewStatusChange builds an entry with optional details. Empty details are
// stored as absent.
func NewStatusChange(at time.Time, typ ChangeType, actor, details string) StatusChange {
	sc := StatusChange{Time: at.UTC(), Type: typ, Actor: actor}
	if details != "" {
		d := details
		sc.Details = &d
	}
	return sc
}

// DetailsOrEmpty returns the details text or "".
func (s StatusChange) DetailsOrEmpty() string {
	if s.Details == nil {
		return ""
	}
	return *s.Details
}

// Clone returns a copy that shares no memory with s.
func (s StatusChange) Clone() StatusChange {
	if s.Details != nil {
		d := *s.Details
		s.Details = &d
	}
	return s
}
