package usage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestConsumeCountsDownAndBlocksAtLimit(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	now := time.Date(2026, time.August, 10, 12, 0, 0, 0, time.UTC)
	svc.Now = fixedClock(now)
	ctx := context.Background()

	for i := 0; i < FreeMonthlyLimit; i++ {
		u, err := svc.Consume(ctx, "u1", TierFree)
		if err != nil {
			t.Fatalf("Consume %d: %v", i, err)
		}
		if u.Used != i+1 {
			t.Fatalf("used = %d, want %d", u.Used, i+1)
		}
	}

	u, err := svc.Consume(ctx, "u1", TierFree)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if u.Used != FreeMonthlyLimit {
		t.Fatalf("rejection must not consume: used = %d", u.Used)
	}
}

func TestConsumeResetsNextMonth(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	svc.Now = fixedClock(time.Date(2026, time.August, 31, 23, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for i := 0; i < FreeMonthlyLimit; i++ {
		if _, err := svc.Consume(ctx, "u1", TierFree); err != nil {
			t.Fatalf("Consume: %v", err)
		}
	}
	if _, err := svc.Consume(ctx, "u1", TierFree); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	svc.Now = fixedClock(time.Date(2026, time.September, 1, 0, 30, 0, 0, time.UTC))
	u, err := svc.Consume(ctx, "u1", TierFree)
	if err != nil {
		t.Fatalf("Consume after reset: %v", err)
	}
	if u.Used != 1 {
		t.Fatalf("used = %d after monthly reset, want 1", u.Used)
	}
}

func TestTierUpgradeMidMonthKeepsSpend(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	svc.Now = fixedClock(time.Date(2026, time.August, 10, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for i := 0; i < FreeMonthlyLimit; i++ {
		if _, err := svc.Consume(ctx, "u1", TierFree); err != nil {
			t.Fatalf("Consume: %v", err)
		}
	}

	u, err := svc.Consume(ctx, "u1", TierPro)
	if err != nil {
		t.Fatalf("Consume after upgrade: %v", err)
	}
	if u.Limit != ProMonthlyLimit {
		t.Fatalf("limit = %d, want %d", u.Limit, ProMonthlyLimit)
	}
	if u.Used != FreeMonthlyLimit+1 {
		t.Fatalf("used = %d, upgrade should keep prior spend", u.Used)
	}
}

func TestGetDoesNotConsume(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	svc.Now = fixedClock(time.Date(2026, time.August, 10, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	u, err := svc.Get(ctx, "u1", TierFree)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if u.Used != 0 || u.Remaining() != FreeMonthlyLimit {
		t.Fatalf("unexpected fresh counter %+v", u)
	}

	if _, err := svc.Get(ctx, "u1", TierFree); err != nil {
		t.Fatalf("Get: %v", err)
	}
	u, _ = svc.Get(ctx, "u1", TierFree)
	if u.Used != 0 {
		t.Fatalf("Get consumed quota: used = %d", u.Used)
	}
}
