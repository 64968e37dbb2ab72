package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/identity"
	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/obs"
)

func TestLogEvent(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	logger.SetFlags(0)
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = identity.ContextWithUser(ctx, identity.AuthenticatedUser{UID: "u42", Role: "ADMIN"})

	if err := LogEvent(ctx, "provision.role.set", map[string]any{"role": "POLICE"}); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	line := buf.String()
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" {
		t.Fatalf("unexpected type: %v", entry["type"])
	}
	if entry["event"] != "provision.role.set" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["uid"] != "u42" {
		t.Fatalf("unexpected uid: %v", entry["uid"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["role"] != "POLICE" {
		t.Fatalf("fields missing or incorrect: %v", entry["fields"])
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for empty event name")
	}
}
