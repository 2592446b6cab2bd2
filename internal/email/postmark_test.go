package email

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendPasswordReset(t *testing.T) {
	var received postmarkEmail
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@academia.test", WithAPIURL(server.URL))
	link := "https://academia.test/password-reset/confirm?token=abc"
	if err := client.SendPasswordReset(context.Background(), "ana@example.com", "Ana", link); err != nil {
		t.Fatalf("send password reset: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if received.To != "ana@example.com" || received.From != "noreply@academia.test" {
		t.Errorf("To/From = %q/%q", received.To, received.From)
	}
	if received.Subject != "Redefinição de senha" {
		t.Errorf("Subject = %q", received.Subject)
	}
	if !strings.Contains(received.TextBody, link) {
		t.Errorf("text body should carry the link, got %q", received.TextBody)
	}
}

func TestSendPasswordResetNotConfiguredLogsLink(t *testing.T) {
	var buf bytes.Buffer
	client := NewClient("", "noreply@academia.test", WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	if err := client.SendPasswordReset(context.Background(), "ana@example.com", "Ana", "https://x.test/reset?token=t1"); err != nil {
		t.Fatalf("unconfigured client should not fail: %v", err)
	}
	if !strings.Contains(buf.String(), "token=t1") {
		t.Errorf("log should contain the link, got %q", buf.String())
	}
}

func TestSendPasswordResetAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"ErrorCode": 300, "Message": "Invalid email request"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@academia.test", WithAPIURL(server.URL))
	err := client.SendPasswordReset(context.Background(), "ana@example.com", "Ana", "https://x.test")
	if err == nil {
		t.Fatal("expected error for API failure")
	}
	if !strings.Contains(err.Error(), "Invalid email request") {
		t.Errorf("error = %v, want postmark message", err)
	}
}

func TestConfigured(t *testing.T) {
	if !NewClient("token", "from@test.com").Configured() {
		t.Error("expected Configured() = true")
	}
	if NewClient("", "from@test.com").Configured() {
		t.Error("expected Configured() = false")
	}
}
