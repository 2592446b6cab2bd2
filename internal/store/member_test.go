package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/Kauanrodrigues01/academy/internal/database"
	"github.com/Kauanrodrigues01/academy/internal/model"
)

var testNow = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func createMember(t *testing.T, ms *MemberStore, name, email string) *model.Member {
	t.Helper()
	m, err := ms.Create(MemberParams{
		FullName:  name,
		Email:     email,
		Phone:     "11987654321",
		StartDate: date(2026, 5, 1),
	}, testNow)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	return m
}

func TestMemberCreate(t *testing.T) {
	ms := NewMemberStore(setupTestDB(t))

	m := createMember(t, ms, "Ana Souza", "ana@example.com")
	if m.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if m.FullName != "Ana Souza" {
		t.Errorf("full name = %q, want %q", m.FullName, "Ana Souza")
	}
	if m.IsActive {
		t.Error("new member should start inactive")
	}
	if !m.StartDate.Equal(date(2026, 5, 1)) {
		t.Errorf("start date = %v, want 2026-05-01", m.StartDate)
	}
	if !m.CreatedAt.Equal(testNow) {
		t.Errorf("created_at = %v, want %v", m.CreatedAt, testNow)
	}
}

func TestMemberCreateDuplicateEmail(t *testing.T) {
	ms := NewMemberStore(setupTestDB(t))

	createMember(t, ms, "Ana Souza", "ana@example.com")
	_, err := ms.Create(MemberParams{FullName: "Ana Dois", Email: "ANA@example.com", Phone: "11987654321", StartDate: testNow}, testNow)
	if err == nil {
		t.Fatal("expected error for duplicate email, got nil")
	}
}

func TestMemberGetByIDNotFound(t *testing.T) {
	ms := NewMemberStore(setupTestDB(t))

	m, err := ms.GetByID(999)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil, got %+v", m)
	}
}

func TestMemberEmailExists(t *testing.T) {
	ms := NewMemberStore(setupTestDB(t))
	ana := createMember(t, ms, "Ana Souza", "ana@example.com")

	exists, err := ms.EmailExists("ana@example.com", 0)
	if err != nil || !exists {
		t.Errorf("EmailExists = %v, %v; want true, nil", exists, err)
	}
	exists, err = ms.EmailExists("ana@example.com", ana.ID)
	if err != nil || exists {
		t.Errorf("EmailExists excluding self = %v, %v; want false, nil", exists, err)
	}
	exists, _ = ms.EmailExists("bruno@example.com", 0)
	if exists {
		t.Error("unknown email should not exist")
	}
}

func TestMemberUpdateKeepsActiveFlag(t *testing.T) {
	ms := NewMemberStore(setupTestDB(t))
	m := createMember(t, ms, "Ana Souza", "ana@example.com")

	if err := ms.SetActive(m.ID, true, testNow); err != nil {
		t.Fatalf("set active: %v", err)
	}

	later := testNow.Add(time.Hour)
	updated, err := ms.Update(m.ID, MemberParams{
		FullName:  "Ana Souza Lima",
		Email:     "ana.lima@example.com",
		Phone:     "11900001111",
		StartDate: m.StartDate,
	}, later)
	if err != nil {
		t.Fatalf("update member: %v", err)
	}
	if updated.FullName != "Ana Souza Lima" {
		t.Errorf("full name = %q, want %q", updated.FullName, "Ana Souza Lima")
	}
	if !updated.IsActive {
		t.Error("update must not reset the active flag")
	}
	if !updated.UpdatedAt.Equal(later) {
		t.Errorf("updated_at = %v, want %v", updated.UpdatedAt, later)
	}
}

func TestMemberDeleteNullsPayments(t *testing.T) {
	db := setupTestDB(t)
	ms := NewMemberStore(db)
	ps := NewPaymentStore(db)

	m := createMember(t, ms, "Ana Souza", "ana@example.com")
	p, err := ps.Create(m.ID, 10000, date(2026, 5, 10), testNow)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	if err := ms.Delete(m.ID); err != nil {
		t.Fatalf("delete member: %v", err)
	}

	got, err := ps.GetByID(p.ID)
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if got == nil {
		t.Fatal("payment should survive member deletion")
	}
	if got.MemberID != nil {
		t.Errorf("member_id = %v, want nil", *got.MemberID)
	}
	if got.PayerLabel() != "Pagamento sem aluno associado" {
		t.Errorf("payer label = %q", got.PayerLabel())
	}
}

func TestMemberListFilters(t *testing.T) {
	db := setupTestDB(t)
	ms := NewMemberStore(db)
	ps := NewPaymentStore(db)

	john := createMember(t, ms, "John Doe", "john@example.com")
	jane := createMember(t, ms, "Jane Smith", "jane@example.com")
	ms.SetActive(john.ID, true, testNow)
	ps.Create(john.ID, 10000, date(2026, 5, 10), testNow)
	ps.Create(jane.ID, 10000, date(2026, 4, 1), testNow)

	tests := []struct {
		name   string
		filter MemberFilter
		want   []string
	}{
		{"no filter", MemberFilter{}, []string{"Jane Smith", "John Doe"}},
		{"search by name", MemberFilter{Query: "John"}, []string{"John Doe"}},
		{"search by email", MemberFilter{Query: "jane@"}, []string{"Jane Smith"}},
		{"active", MemberFilter{Status: "active"}, []string{"John Doe"}},
		{"inactive", MemberFilter{Status: "inactive"}, []string{"Jane Smith"}},
		{"payment date", MemberFilter{LastPayment: ptrTime(date(2026, 5, 10))}, []string{"John Doe"}},
		{"no match", MemberFilter{Query: "Nonexistent Name"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := ms.List(tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(page.Members) != len(tt.want) {
				t.Fatalf("got %d members, want %d", len(page.Members), len(tt.want))
			}
			for i, name := range tt.want {
				if page.Members[i].FullName != name {
					t.Errorf("members[%d] = %q, want %q", i, page.Members[i].FullName, name)
				}
			}
		})
	}
}

func TestMemberListLastPaymentDate(t *testing.T) {
	db := setupTestDB(t)
	ms := NewMemberStore(db)
	ps := NewPaymentStore(db)

	m := createMember(t, ms, "Ana Souza", "ana@example.com")
	ps.Create(m.ID, 10000, date(2026, 3, 1), testNow)
	ps.Create(m.ID, 10000, date(2026, 5, 2), testNow)
	createMember(t, ms, "Bruno Lima", "bruno@example.com")

	page, err := ms.List(MemberFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Members[0].LastPaymentDate == nil || !page.Members[0].LastPaymentDate.Equal(date(2026, 5, 2)) {
		t.Errorf("last payment = %v, want 2026-05-02", page.Members[0].LastPaymentDate)
	}
	if page.Members[1].LastPaymentDate != nil {
		t.Errorf("member without payments has last payment %v", page.Members[1].LastPaymentDate)
	}
}

func TestMemberListPagination(t *testing.T) {
	ms := NewMemberStore(setupTestDB(t))
	for i := 0; i < 12; i++ {
		createMember(t, ms, "Member "+string(rune('A'+i)), "member"+string(rune('a'+i))+"@example.com")
	}

	page, err := ms.List(MemberFilter{Page: 2, PerPage: 5})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 12 || page.TotalPages != 3 {
		t.Errorf("total = %d pages = %d, want 12 and 3", page.Total, page.TotalPages)
	}
	if len(page.Members) != 5 || page.Members[0].FullName != "Member F" {
		t.Errorf("page 2 starts with %q (len %d), want Member F (len 5)", page.Members[0].FullName, len(page.Members))
	}

	page, _ = ms.List(MemberFilter{Page: 99, PerPage: 5})
	if page.Page != 3 || len(page.Members) != 2 {
		t.Errorf("out of range page = %d len %d, want page 3 len 2", page.Page, len(page.Members))
	}
}

func TestMemberCountByStatus(t *testing.T) {
	ms := NewMemberStore(setupTestDB(t))

	active, pending, err := ms.CountByStatus()
	if err != nil || active != 0 || pending != 0 {
		t.Fatalf("empty counts = %d, %d, %v", active, pending, err)
	}

	a := createMember(t, ms, "Ana Souza", "ana@example.com")
	createMember(t, ms, "Bruno Lima", "bruno@example.com")
	createMember(t, ms, "Carla Dias", "carla@example.com")
	ms.SetActive(a.ID, true, testNow)

	active, pending, err = ms.CountByStatus()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if active != 1 || pending != 2 {
		t.Errorf("active = %d pending = %d, want 1 and 2", active, pending)
	}
}

func TestMemberCountStartedBetween(t *testing.T) {
	ms := NewMemberStore(setupTestDB(t))
	ms.Create(MemberParams{FullName: "Ana", Email: "a@example.com", Phone: "11987654321", StartDate: date(2026, 4, 30)}, testNow)
	ms.Create(MemberParams{FullName: "Bia", Email: "b@example.com", Phone: "11987654321", StartDate: date(2026, 5, 1)}, testNow)
	ms.Create(MemberParams{FullName: "Caio", Email: "c@example.com", Phone: "11987654321", StartDate: date(2026, 5, 31)}, testNow)

	n, err := ms.CountStartedBetween(date(2026, 5, 1), date(2026, 6, 1))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestMemberListActivity(t *testing.T) {
	db := setupTestDB(t)
	ms := NewMemberStore(db)
	ps := NewPaymentStore(db)

	a := createMember(t, ms, "Ana Souza", "ana@example.com")
	createMember(t, ms, "Bruno Lima", "bruno@example.com")
	ps.Create(a.ID, 5000, date(2026, 5, 1), testNow)
	ps.Create(a.ID, 5000, date(2026, 5, 15), testNow)

	rows, err := ms.ListActivity()
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len = %d, want 2", len(rows))
	}
	if rows[0].LastPaymentDate == nil || !rows[0].LastPaymentDate.Equal(date(2026, 5, 15)) {
		t.Errorf("last payment = %v, want 2026-05-15", rows[0].LastPaymentDate)
	}
	if rows[1].LastPaymentDate != nil {
		t.Errorf("member without payments has last payment %v", rows[1].LastPaymentDate)
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
