package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLockKeyIsPerTrainerAndDay(t *testing.T) {
	trainer := uuid.MustParse("6f1c2a9e-3b1d-4c55-9a52-0d4b8f7e2c11")
	day := time.Date(2026, time.March, 11, 15, 30, 0, 0, time.UTC)

	got := LockKey(trainer, day)
	want := "lock:trainer:6f1c2a9e-3b1d-4c55-9a52-0d4b8f7e2c11:2026-03-11"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}

	if LockKey(trainer, day.AddDate(0, 0, 1)) == got {
		t.Fatalf("different days must not share a lock")
	}
	if LockKey(uuid.New(), day) == got {
		t.Fatalf("different trainers must not share a lock")
	}
}

func TestNopLockerRunsFn(t *testing.T) {
	var l Locker = NopLocker{}
	want := errors.New("boom")

	calls := 0
	err := l.WithTrainerDayLock(context.Background(), uuid.New(), time.Now(), func(context.Context) error {
		calls++
		return want
	})
	if calls != 1 {
		t.Fatalf("expected fn to run once, ran %d times", calls)
	}
	if !errors.Is(err, want) {
		t.Fatalf("expected fn error to be returned, got %v", err)
	}
}
