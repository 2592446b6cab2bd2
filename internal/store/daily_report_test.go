package store

import (
	"testing"

	"github.com/Kauanrodrigues01/academy/internal/model"
)

func TestDailyReportUpsert(t *testing.T) {
	rs := NewDailyReportStore(setupTestDB(t))

	first, err := rs.Upsert(model.DailyReport{Date: date(2026, 5, 20), ActiveMembers: 3, PendingMembers: 1, NewMembers: 1, Profit: 9000})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second, err := rs.Upsert(model.DailyReport{Date: date(2026, 5, 20), ActiveMembers: 4, PendingMembers: 0, NewMembers: 2, Profit: 12000})
	if err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("upsert created a second row: %d vs %d", first.ID, second.ID)
	}
	if second.ActiveMembers != 4 || second.Profit != 12000 {
		t.Errorf("report = %+v, want replaced values", second)
	}

	rs.Upsert(model.DailyReport{Date: date(2026, 5, 19)})
	list, err := rs.ListRecent(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || !list[0].Date.Equal(date(2026, 5, 20)) {
		t.Errorf("list = %+v, want 2 reports newest first", list)
	}
}

func TestDailyReportGetByDateMissing(t *testing.T) {
	rs := NewDailyReportStore(setupTestDB(t))
	r, err := rs.GetByDate(date(2026, 1, 1))
	if err != nil || r != nil {
		t.Errorf("GetByDate = %+v, %v; want nil, nil", r, err)
	}
}
