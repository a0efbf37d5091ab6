package core

import (
	"testing"
	"time"
)

func TestDaysSinceAvailabilityUpdate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("never updated", func(t *testing.T) {
		record := IdentityRecord{}
		if got := record.DaysSinceAvailabilityUpdate(now); got != DaysNeverUpdated {
			t.Fatalf("expected sentinel %d, got %d", DaysNeverUpdated, got)
		}
	})

	t.Run("floors partial days", func(t *testing.T) {
		at := now.Add(-(29*24 + 23) * time.Hour)
		record := IdentityRecord{AvailabilityLastUpdated: &at}
		if got := record.DaysSinceAvailabilityUpdate(now); got != 29 {
			t.Fatalf("expected 29 days, got %d", got)
		}
	})

	t.Run("exact day boundary", func(t *testing.T) {
		at := now.Add(-30 * 24 * time.Hour)
		record := IdentityRecord{AvailabilityLastUpdated: &at}
		if got := record.DaysSinceAvailabilityUpdate(now); got != 30 {
			t.Fatalf("expected 30 days, got %d", got)
		}
	})

	t.Run("future timestamp clamps to zero", func(t *testing.T) {
		at := now.Add(time.Hour)
		record := IdentityRecord{AvailabilityLastUpdated: &at}
		if got := record.DaysSinceAvailabilityUpdate(now); got != 0 {
			t.Fatalf("expected 0 days, got %d", got)
		}
	})
}

func TestIdentityRecordHasEmail(t *testing.T) {
	if (IdentityRecord{Email: "   "}).HasEmail() {
		t.Fatalf("whitespace email should not count")
	}
	if !(IdentityRecord{Email: "a@b.c"}).HasEmail() {
		t.Fatalf("expected email to be usable")
	}
}

func TestCreateIdentityInputValidate(t *testing.T) {
	valid := CreateIdentityInput{ExternalUserID: 1, AccessToken: "at", RefreshToken: "rt"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
	if err := (CreateIdentityInput{AccessToken: "at", RefreshToken: "rt"}).Validate(); err == nil {
		t.Fatalf("expected missing external user id to fail")
	}
	if err := (CreateIdentityInput{ExternalUserID: 1, AccessToken: "at"}).Validate(); err == nil {
		t.Fatalf("expected incomplete token pair to fail")
	}
}

func TestReplaceTokensInputValidate(t *testing.T) {
	valid := ReplaceTokensInput{CurrentAccessToken: "cur", NewAccessToken: "at", NewRefreshToken: "rt"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
	if err := (ReplaceTokensInput{NewAccessToken: "at", NewRefreshToken: "rt"}).Validate(); err == nil {
		t.Fatalf("expected missing current token to fail")
	}
	if err := (ReplaceTokensInput{CurrentAccessToken: "cur", NewAccessToken: "at"}).Validate(); err == nil {
		t.Fatalf("expected incomplete replacement pair to fail")
	}
}
