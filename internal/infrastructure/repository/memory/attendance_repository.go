package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/attendance"
)

type AttendanceRepository struct {
	store *Store
}

func (r *AttendanceRepository) Create(_ context.Context, record attendance.Record) (attendance.Record, error) {
	err := r.store.write(func(t *tables) error {
		for _, existing := range t.attendance {
			if existing.GameID == record.GameID && existing.UserID == record.UserID {
				return fmt.Errorf("%w: game=%s user=%d", attendance.ErrAlreadyRegistered, record.GameID, record.UserID)
			}
		}

		t.nextAttendanceID++
		now := time.Now().UTC()
		record.ID = t.nextAttendanceID
		record.CreatedAt = now
		record.UpdatedAt = now
		t.attendance[record.ID] = record
		return nil
	})
	if err != nil {
		return attendance.Record{}, err
	}
	return record, nil
}

func (r *AttendanceRepository) GetByIDForUpdate(_ context.Context, id int64) (attendance.Record, bool, error) {
	var (
		record attendance.Record
		exists bool
	)
	r.store.read(func(t *tables) {
		record, exists = t.attendance[id]
	})
	return record, exists, nil
}

func (r *AttendanceRepository) ListPendingByGameForUpdate(_ context.Context, gameID string) ([]attendance.Record, error) {
	return r.filter(func(record attendance.Record) bool {
		return record.GameID == gameID && record.IsPending()
	}), nil
}

func (r *AttendanceRepository) ListByUserForUpdate(_ context.Context, userID int64) ([]attendance.Record, error) {
	return r.filter(func(record attendance.Record) bool {
		return record.UserID == userID
	}), nil
}

func (r *AttendanceRepository) UpdateStatuses(_ context.Context, records []attendance.Record) error {
	return r.store.write(func(t *tables) error {
		now := time.Now().UTC()
		for _, record := range records {
			current, ok := t.attendance[record.ID]
			if !ok {
				return fmt.Errorf("attendance record %d not found", record.ID)
			}
			current.Status = record.Status
			current.UpdatedAt = now
			t.attendance[record.ID] = current
		}
		return nil
	})
}

func (r *AttendanceRepository) UpdateCheeringTeam(_ context.Context, id, teamID int64, status *attendance.Status) error {
	return r.store.write(func(t *tables) error {
		current, ok := t.attendance[id]
		if !ok {
			return fmt.Errorf("attendance record %d not found", id)
		}
		current.CheeringTeamID = teamID
		current.Status = status
		current.UpdatedAt = time.Now().UTC()
		t.attendance[id] = current
		return nil
	})
}

func (r *AttendanceRepository) Delete(_ context.Context, id int64) error {
	return r.store.write(func(t *tables) error {
		delete(t.attendance, id)
		return nil
	})
}

func (r *AttendanceRepository) DeleteByUser(_ context.Context, userID int64) error {
	return r.store.write(func(t *tables) error {
		for id, record := range t.attendance {
			if record.UserID == userID {
				delete(t.attendance, id)
			}
		}
		return nil
	})
}

func (r *AttendanceRepository) filter(keep func(attendance.Record) bool) []attendance.Record {
	out := make([]attendance.Record, 0)
	r.store.read(func(t *tables) {
		for _, record := range t.attendance {
			if keep(record) {
				out = append(out, record)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
