package envelope

import "testing"

func TestRedactStringLeafUnderSecretKey(t *testing.T) {
	r := NewRedactor()
	out := r.Redact(map[string]any{
		"username": "alice",
		"password": "hunter2",
	}).(map[string]any)

	if out["username"] != "alice" {
		t.Fatalf("non-secret key mutated: %v", out["username"])
	}
	if out["password"] != RedactedPlaceholder {
		t.Fatalf("expected password redacted, got %v", out["password"])
	}
}

func TestRedactNestedAndExtraKeys(t *testing.T) {
	r := NewRedactor("dsn")
	out := r.Redact(map[string]any{
		"connection": map[string]any{
			"dsn":  "postgres://user:pw@host/db",
			"host": "host",
		},
		"api_key": "sk-abc",
		"rows":    []any{map[string]any{"token": "xyz"}},
	}).(map[string]any)

	conn := out["connection"].(map[string]any)
	if conn["dsn"] != RedactedPlaceholder {
		t.Fatalf("expected dsn redacted, got %v", conn["dsn"])
	}
	if conn["host"] != "host" {
		t.Fatalf("host should not be redacted: %v", conn["host"])
	}
	if out["api_key"] != RedactedPlaceholder {
		t.Fatalf("expected api_key redacted, got %v", out["api_key"])
	}
	rows := out["rows"].([]any)
	row := rows[0].(map[string]any)
	if row["token"] != RedactedPlaceholder {
		t.Fatalf("expected nested token redacted, got %v", row["token"])
	}
}

func TestRedactToolErrorDetails(t *testing.T) {
	r := NewRedactor()
	err := New(KindUpstream, "dial_failed", "connection failed").
		WithDetail("secret", "s3cr3t").
		WithDetail("host", "example.com")

	redacted := r.RedactToolError(err)
	if redacted.Details["secret"] != RedactedPlaceholder {
		t.Fatalf("expected secret detail redacted, got %v", redacted.Details["secret"])
	}
	if redacted.Details["host"] != "example.com" {
		t.Fatalf("host detail should survive, got %v", redacted.Details["host"])
	}
}

func TestRedactCaseInsensitive(t *testing.T) {
	r := NewRedactor()
	out := r.Redact(map[string]any{"Authorization": "Bearer abc"}).(map[string]any)
	if out["Authorization"] != RedactedPlaceholder {
		t.Fatalf("expected case-insensitive match, got %v", out["Authorization"])
	}
}
