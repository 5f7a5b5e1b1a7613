package config

import (
	"os"
	"testing"
)

func TestEnvOr(t *testing.T) {
	t.Setenv("HISTORANDO_TEST_SET", "from-env")

	if got := envOr("HISTORANDO_TEST_SET", "fallback"); got != "from-env" {
		t.Errorf("expected env value, got %q", got)
	}
	if got := envOr("HISTORANDO_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("QR_WORKER_COUNT", "8")
	if got := envInt("QR_WORKER_COUNT", 3); got != 8 {
		t.Errorf("expected override 8, got %d", got)
	}

	t.Setenv("QR_WORKER_COUNT", "not-a-number")
	if got := envInt("QR_WORKER_COUNT", 3); got != 3 {
		t.Errorf("expected fallback on garbage, got %d", got)
	}

	if got := envInt("HISTORANDO_TEST_UNSET_INT", 3); got != 3 {
		t.Errorf("expected fallback when unset, got %d", got)
	}
}

func TestRequireEnv(t *testing.T) {
	t.Setenv("HISTORANDO_TEST_REQUIRED", "value123")
	if got := requireEnv("HISTORANDO_TEST_REQUIRED"); got != "value123" {
		t.Errorf("expected value123, got %q", got)
	}

	os.Unsetenv("HISTORANDO_TEST_MISSING")
	defer func() {
		if recover() == nil {
			t.Error("expected panic for missing required variable")
		}
	}()
	requireEnv("HISTORANDO_TEST_MISSING")
}
