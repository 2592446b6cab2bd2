package model

import "testing"

func TestPaymentPayerLabel(t *testing.T) {
	id := int64(3)
	p := Payment{MemberID: &id, MemberName: "Ana Souza"}
	if got := p.PayerLabel(); got != "Ana Souza" {
		t.Errorf("PayerLabel() = %q, want %q", got, "Ana Souza")
	}

	orphan := Payment{}
	if got := orphan.PayerLabel(); got != "Pagamento sem aluno associado" {
		t.Errorf("PayerLabel() = %q, want orphan label", got)
	}
}

func TestEventTypeValid(t *testing.T) {
	for _, e := range []EventType{EventCreated, EventUpdated, EventDeleted, EventPayment, EventPending} {
		if !e.Valid() {
			t.Errorf("%q should be valid", e)
		}
	}
	if EventType("archived").Valid() {
		t.Error("unknown event type should be invalid")
	}
}

func TestMemberStatusLabel(t *testing.T) {
	m := Member{IsActive: true}
	if m.StatusLabel() != "Ativo" {
		t.Errorf("StatusLabel() = %q, want Ativo", m.StatusLabel())
	}
	m.IsActive = false
	if m.StatusLabel() != "Pendente" {
		t.Errorf("StatusLabel() = %q, want Pendente", m.StatusLabel())
	}
}

func TestBackupStatusLabel(t *testing.T) {
	if got := BackupStatusCompleted.Label(); got != "Concluído" {
		t.Errorf("Label() = %q, want Concluído", got)
	}
	if got := BackupStatus("odd").Label(); got != "odd" {
		t.Errorf("Label() = %q, want raw value", got)
	}
}
