package electionservice

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
	electiondb "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/infrastructure/repositories"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/future"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/results"
	"github.com/uptrace/bun"
)

// CreateElection stores a new CLOSED election with its CREATED audit entry.
func (s *ElectionService) CreateElection(ctx context.Context, req CreateElectionRequest, actor string) *future.Future[ElectionSnapshot] {
	const operation = "CreateElection"

	draft, err := electiondomain.NewElection(req.Title, req.System, req.MinimumVotes, actor, s.clock.Now())
	if err != nil {
		return future.Failed[ElectionSnapshot](err)
	}

	return schedule(s, ctx, operation, createLane, func(ctx context.Context) (ElectionSnapshot, error) {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		result, err := withTelemetry(s, ctx, operation, "new", func(ctx context.Context) (results.OperationResult[*electiondomain.Election, error], error) {
			return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*electiondomain.Election, error], error) {
				id, err := s.repo.InsertElection(ctx, db, draft)
				if err != nil {
					return results.OperationResult[*electiondomain.Election, error]{}, err
				}
				created, err := s.repo.LoadElection(ctx, db, id)
				if err != nil {
					return results.OperationResult[*electiondomain.Election, error]{}, err
				}
				return results.SuccessResult[*electiondomain.Election, error](created), nil
			})
		})
		if err != nil {
			return ElectionSnapshot{}, electiondomain.StorageError(operation, err)
		}
		if !result.IsSuccess() {
			return ElectionSnapshot{}, electiondomain.StorageError(operation, fmt.Errorf("election was not stored"))
		}

		created := *result.Success
		return s.commit(ctx, created.ID, created, false, created.StatusChanges), nil
	})
}

// editPlan describes a metadata change. A nil fields value means the
// requested value is already in place and nothing is written.
type editPlan struct {
	fields  *electiondb.UpdateFields
	change  electiondomain.ChangeType
	details string
}

// edit applies a single-column metadata change and audits it.
func (s *ElectionService) edit(ctx context.Context, operation string, id electiondomain.ElectionID, actor string, plan func(e *electiondomain.Election) editPlan) *future.Future[ElectionSnapshot] {
	actor, err := electiondomain.NormalizeActor(actor)
	if err != nil {
		return future.Failed[ElectionSnapshot](err)
	}
	return mutateSnapshot(s, ctx, operation, id, func(ctx context.Context, m *mutation) (results.OperationResult[struct{}, error], error) {
		p := plan(m.election)
		if p.fields == nil {
			return done, nil
		}
		if err := s.repo.UpdateElection(ctx, m.db, id, p.fields); err != nil {
			return results.OperationResult[struct{}, error]{}, err
		}
		if err := m.audit(ctx, p.change, actor, p.details); err != nil {
			return results.OperationResult[struct{}, error]{}, err
		}
		return done, nil
	})
}

func changed(from, to string) string {
	return from + " -> " + to
}

// SetTitle renames an election.
func (s *ElectionService) SetTitle(ctx context.Context, id electiondomain.ElectionID, title, actor string) *future.Future[ElectionSnapshot] {
	title, err := electiondomain.NormalizeTitle(title)
	if err != nil {
		return future.Failed[ElectionSnapshot](err)
	}
	return s.edit(ctx, "SetTitle", id, actor, func(e *electiondomain.Election) editPlan {
		if e.Title == title {
			return editPlan{}
		}
		return editPlan{
			fields:  &electiondb.UpdateFields{Title: &title},
			change:  electiondomain.ChangeTitleChanged,
			details: changed(e.Title, title),
		}
	})
}

// SetVotingSystem switches between preferential and block voting.
func (s *ElectionService) SetVotingSystem(ctx context.Context, id electiondomain.ElectionID, system electiondomain.VotingSystem, actor string) *future.Future[ElectionSnapshot] {
	system, err := electiondomain.ParseVotingSystem(string(system))
	if err != nil {
		return future.Failed[ElectionSnapshot](err)
	}
	return s.edit(ctx, "SetVotingSystem", id, actor, func(e *electiondomain.Election) editPlan {
		if e.System == system {
			return editPlan{}
		}
		return editPlan{
			fields:  &electiondb.UpdateFields{System: &system},
			change:  electiondomain.ChangeSystemChanged,
			details: changed(string(e.System), string(system)),
		}
	})
}

// SetMinimumVotes sets the selection minimum. Values below 1 are stored as 1.
func (s *ElectionService) SetMinimumVotes(ctx context.Context, id electiondomain.ElectionID, minimum int, actor string) *future.Future[ElectionSnapshot] {
	minimum = electiondomain.ClampMinimumVotes(minimum)
	return s.edit(ctx, "SetMinimumVotes", id, actor, func(e *electiondomain.Election) editPlan {
		if e.MinimumVotes == minimum {
			return editPlan{}
		}
		return editPlan{
			fields:  &electiondb.UpdateFields{MinimumVotes: &minimum},
			change:  electiondomain.ChangeMinimumChanged,
			details: changed(strconv.Itoa(e.MinimumVotes), strconv.Itoa(minimum)),
		}
	})
}

// SetBallotMode changes how ballots are presented.
func (s *ElectionService) SetBallotMode(ctx context.Context, id electiondomain.ElectionID, mode electiondomain.BallotMode, actor string) *future.Future[ElectionSnapshot] {
	mode, err := electiondomain.ParseBallotMode(string(mode))
	if err != nil {
		return future.Failed[ElectionSnapshot](err)
	}
	return s.edit(ctx, "SetBallotMode", id, actor, func(e *electiondomain.Election) editPlan {
		if e.BallotMode == mode {
			return editPlan{}
		}
		return editPlan{
			fields:  &electiondb.UpdateFields{BallotMode: &mode},
			change:  electiondomain.ChangeBallotModeChanged,
			details: changed(string(e.BallotMode), string(mode)),
		}
	})
}

// SetDuration sets how long the election stays open.
func (s *ElectionService) SetDuration(ctx context.Context, id electiondomain.ElectionID, d electiondomain.Duration, actor string) *future.Future[ElectionSnapshot] {
	if err := d.Validate(); err != nil {
		return future.Failed[ElectionSnapshot](err)
	}
	return s.edit(ctx, "SetDuration", id, actor, func(e *electiondomain.Election) editPlan {
		if e.Duration != nil && *e.Duration == d {
			return editPlan{}
		}
		return editPlan{
			fields:  &electiondb.UpdateFields{Duration: &d},
			change:  electiondomain.ChangeDurationSet,
			details: d.String(),
		}
	})
}

// SetDurationText parses text such as "1d12h" or "next friday at 6pm" against
// the service clock and sets the result as the duration.
func (s *ElectionService) SetDurationText(ctx context.Context, id electiondomain.ElectionID, text, actor string) *future.Future[ElectionSnapshot] {
	d, err := electiondomain.ParseDuration(text, s.clock.Now())
	if err != nil {
		return future.Failed[ElectionSnapshot](err)
	}
	return s.SetDuration(ctx, id, d, actor)
}

// ClearDuration removes the duration so the election only closes manually.
func (s *ElectionService) ClearDuration(ctx context.Context, id electiondomain.ElectionID, actor string) *future.Future[ElectionSnapshot] {
	return s.edit(ctx, "ClearDuration", id, actor, func(e *electiondomain.Election) editPlan {
		if e.Duration == nil {
			return editPlan{}
		}
		return editPlan{
			fields: &electiondb.UpdateFields{ClearDuration: true},
			change: electiondomain.ChangeDurationCleared,
		}
	})
}

// SetRequirements replaces the voting requirements.
func (s *ElectionService) SetRequirements(ctx context.Context, id electiondomain.ElectionID, permissions []string, activePlaytimeMinutes int, actor string) *future.Future[ElectionSnapshot] {
	req, err := electiondomain.NewRequirements(permissions, activePlaytimeMinutes)
	if err != nil {
		return future.Failed[ElectionSnapshot](err)
	}
	actor, err = electiondomain.NormalizeActor(actor)
	if err != nil {
		return future.Failed[ElectionSnapshot](err)
	}
	return mutateSnapshot(s, ctx, "SetRequirements", id, func(ctx context.Context, m *mutation) (results.OperationResult[struct{}, error], error) {
		if m.election.Requirements.Equal(req) {
			return done, nil
		}
		if err := s.repo.ReplaceRequirements(ctx, m.db, id, req); err != nil {
			return results.OperationResult[struct{}, error]{}, err
		}
		details := fmt.Sprintf("permissions=[%s] playtime=%dm", strings.Join(req.Permissions, ","), req.ActivePlaytimeMinutes)
		if err := m.audit(ctx, electiondomain.ChangeRequirementsChanged, actor, details); err != nil {
			return results.OperationResult[struct{}, error]{}, err
		}
		return done, nil
	})
}

// OpenElection starts accepting ballots.
func (s *ElectionService) OpenElection(ctx context.Context, id electiondomain.ElectionID, actor string) *future.Future[ElectionSnapshot] {
	return s.transition(ctx, "OpenElection", id, electiondomain.ActionOpen, actor)
}

// CloseElection stops accepting ballots.
func (s *ElectionService) CloseElection(ctx context.Context, id electiondomain.ElectionID, actor string) *future.Future[ElectionSnapshot] {
	return s.transition(ctx, "CloseElection", id, electiondomain.ActionClose, actor)
}

// DeleteElection marks an election DELETED. Its rows stay until the purge
// sweep removes them after the retention window.
func (s *ElectionService) DeleteElection(ctx context.Context, id electiondomain.ElectionID, actor string) *future.Future[ElectionSnapshot] {
	return s.transition(ctx, "DeleteElection", id, electiondomain.ActionDelete, actor)
}

func (s *ElectionService) transition(ctx context.Context, operation string, id electiondomain.ElectionID, action electiondomain.Action, actor string) *future.Future[ElectionSnapshot] {
	actor, err := electiondomain.NormalizeActor(actor)
	if err != nil {
		return future.Failed[ElectionSnapshot](err)
	}
	return mutateSnapshot(s, ctx, operation, id, func(ctx context.Context, m *mutation) (results.OperationResult[struct{}, error], error) {
		if _, err := applyTransition(ctx, m, action, actor); err != nil {
			return split[struct{}](err)
		}
		return done, nil
	})
}

// applyTransition plans and persists a lifecycle change. It reports whether
// anything was written.
func applyTransition(ctx context.Context, m *mutation, action electiondomain.Action, actor string) (bool, error) {
	t, err := electiondomain.PlanTransition(m.election.Status, action)
	if err != nil {
		return false, err
	}
	if t.NoOp {
		return false, nil
	}
	if err := m.repo.UpdateElection(ctx, m.db, m.election.ID, &electiondb.UpdateFields{Status: &t.To}); err != nil {
		return false, err
	}
	if err := m.audit(ctx, t.Change, actor, ""); err != nil {
		return false, err
	}
	return true, nil
}

// MarkExported records that the election's results were exported.
func (s *ElectionService) MarkExported(ctx context.Context, id electiondomain.ElectionID, actor string) *future.Future[ElectionSnapshot] {
	actor, err := electiondomain.NormalizeActor(actor)
	if err != nil {
		return future.Failed[ElectionSnapshot](err)
	}
	return mutateSnapshot(s, ctx, "MarkExported", id, func(ctx context.Context, m *mutation) (results.OperationResult[struct{}, error], error) {
		if err := m.audit(ctx, electiondomain.ChangeExported, actor, ""); err != nil {
			return results.OperationResult[struct{}, error]{}, err
		}
		return done, nil
	})
}
