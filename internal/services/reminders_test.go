package services

import (
	"testing"
	"time"
)

func TestShouldSendByLastSent(t *testing.T) {
	now := time.Date(2026, 6, 14, 9, 30, 0, 0, time.UTC)

	if !shouldSendByLastSent("", walkReminderInterval, now) {
		t.Fatalf("expected missing last-sent marker to allow sending")
	}

	if !shouldSendByLastSent("garbage", walkReminderInterval, now) {
		t.Fatalf("expected unparseable marker to allow sending")
	}

	recent := now.Add(-2 * 24 * time.Hour).Format(time.RFC3339)
	if shouldSendByLastSent(recent, walkReminderInterval, now) {
		t.Fatalf("expected reminder sent two days ago to block sending")
	}

	old := now.Add(-8 * 24 * time.Hour).Format(time.RFC3339)
	if !shouldSendByLastSent(old, walkReminderInterval, now) {
		t.Fatalf("expected week-old marker to allow sending")
	}
}

func TestReminderReferenceTime(t *testing.T) {
	created := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	if got := reminderReferenceTime(nil, created); !got.Equal(created) {
		t.Fatalf("expected created_at fallback for users without walks, got %v", got)
	}

	lastWalk := time.Date(2026, 6, 2, 17, 45, 0, 0, time.UTC)
	if got := reminderReferenceTime(&lastWalk, created); !got.Equal(lastWalk) {
		t.Fatalf("expected latest walk to win over created_at, got %v", got)
	}

	zero := time.Time{}
	if got := reminderReferenceTime(&zero, created); !got.Equal(created) {
		t.Fatalf("expected zero activity timestamp to fall back to created_at, got %v", got)
	}
}
