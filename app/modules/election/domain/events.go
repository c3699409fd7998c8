package electiondomain

import "time"

// StatusChangedTopic carries every committed audit entry.
const StatusChangedTopic = "election.status_changed.v1"

// StatusChangedEvent is published after an audit entry has been committed.
type StatusChangedEvent struct {
	ElectionID ElectionID `json:"election_id"`
	Title      string     `json:"title"`
	Status     Status     `json:"status"`
	Change     ChangeType `json:"change"`
	Actor      string     `json:"actor"`
	Details    *string    `json:"details,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// NewStatusChangedEvent builds the event for an entry of e.
func NewStatusChangedEvent(e *Election, sc StatusChange) StatusChangedEvent {
	sc = sc.Clone()
	return StatusChangedEvent{
		ElectionID: e.ID,
		Title:      e.Title,
		Status:     e.Status,
		Change:     sc.Type,
		Actor:      sc.Actor,
		Details:    sc.Details,
		OccurredAt: sc.Time,
	}
}
