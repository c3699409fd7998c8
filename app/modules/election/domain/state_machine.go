package electiondomain

// Action is a lifecycle request.
type Action string

const (
	ActionOpen   Action = "open"
	ActionClose  Action = "close"
	ActionDelete Action = "delete"
)

// Transition is the planned outcome of a lifecycle request. A NoOp transition
// succeeds without writing anything or emitting an audit entry.
type Transition struct {
	From   Status
	To     Status
	Change ChangeType
	NoOp   bool
}

// PlanTransition applies the lifecycle rules:
//
//	open:   CLOSED -> OPEN (OPENED), no-op when OPEN
//	close:  OPEN -> CLOSED (CLOSED), no-op when CLOSED
//	delete: any -> DELETED (DELETED), no-op when DELETED
//
// DELETED is terminal, so open and close fail on a deleted election.
func PlanTransition(from Status, action Action) (Transition, error) {
	switch action {
	case ActionOpen:
		switch from {
		case StatusOpen:
			return Transition{From: from, To: from, NoOp: true}, nil
		case StatusClosed:
			return Transition{From: from, To: StatusOpen, Change: ChangeOpened}, nil
		}
	case ActionClose:
		switch from {
		case StatusClosed:
			return Transition{From: from, To: from, NoOp: true}, nil
		case StatusOpen:
			return Transition{From: from, To: StatusClosed, Change: ChangeClosed}, nil
		}
	case ActionDelete:
		if from == StatusDeleted {
			return Transition{From: from, To: from, NoOp: true}, nil
		}
		return Transition{From: from, To: StatusDeleted, Change: ChangeDeleted}, nil
	default:
		return Transition{}, newKindError(ErrValidation, "unknown lifecycle action "+string(action))
	}
	return Transition{}, ErrElectionDeleted
}
