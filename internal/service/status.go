package service

import (
	"context"
	"database/sql"

	"github.com/Kauanrodrigues01/academy/internal/status"
	"github.com/Kauanrodrigues01/academy/internal/store"
	"github.com/Kauanrodrigues01/academy/internal/websocket"
)

type Status struct {
	*env
}

// RefreshResult summarizes one pass over the members table.
type RefreshResult struct {
	Checked     int
	Activated   int
	Deactivated int
}

func (r RefreshResult) Changed() bool {
	return r.Activated+r.Deactivated > 0
}

// Refresh recomputes one member's status.
func (s *Status) Refresh(ctx context.Context, memberID int64) (status.Transition, error) {
	now := s.clock()
	var tr status.Transition
	err := store.Tx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		tr, err = refreshMember(tx, memberID, status.Date(now), now)
		return err
	})
	if err != nil {
		return status.Unchanged, err
	}
	if tr != status.Unchanged {
		s.notifier.Broadcast(websocket.NewMessage("member", "updated", memberID, nil))
	}
	return tr, nil
}

// RefreshAll recomputes every member, active or not, so a back-dated payment
// correction is picked up on the next run too.
func (s *Status) RefreshAll(ctx context.Context) (RefreshResult, error) {
	now := s.clock()
	today := status.Date(now)

	var res RefreshResult
	err := store.Tx(ctx, s.db, func(tx *sql.Tx) error {
		members, err := store.NewMemberStore(tx).ListActivity()
		if err != nil {
			return err
		}
		for _, m := range members {
			if err := ctx.Err(); err != nil {
				return err
			}
			res.Checked++
			tr, err := applyStatus(tx, m.ID, m.FullName, m.IsActive, m.LastPaymentDate, today, now)
			if err != nil {
				return err
			}
			switch tr {
			case status.Activated:
				res.Activated++
			case status.Deactivated:
				res.Deactivated++
			}
		}
		return nil
	})
	if err != nil {
		return RefreshResult{}, err
	}

	s.metrics.StatusChanges(res.Activated, res.Deactivated)
	if res.Changed() {
		s.logger.Info("member statuses refreshed", "checked", res.Checked, "activated", res.Activated, "deactivated", res.Deactivated)
		s.notifier.Broadcast(websocket.NewMessage("status", "refreshed", 0, map[string]any{
			"activated":   res.Activated,
			"deactivated": res.Deactivated,
		}))
	}
	return res, nil
}

// Counts returns the current active and pending totals and publishes them
// to the members gauge.
func (s *Status) Counts(ctx context.Context) (active, pending int, err error) {
	active, pending, err = store.NewMemberStore(s.db).CountByStatus()
	if err != nil {
		return 0, 0, err
	}
	s.metrics.SetMembers(active, pending)
	return active, pending, nil
}
