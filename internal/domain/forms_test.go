package domain

import (
	"testing"
	"time"
)

func TestFieldSpecValidate(t *testing.T) {
	cases := []struct {
		name  string
		spec  FieldSpec
		value string
		want  string
	}{
		{"required empty", FieldSpec{Label: "First name", Required: true}, "   ", "First name is required"},
		{"optional empty", FieldSpec{Label: "Company name"}, "", ""},
		{"email ok", FieldSpec{Label: "Email address", Required: true, Kind: KindEmail}, "a@b.co", ""},
		{"email bad", FieldSpec{Label: "Email address", Required: true, Kind: KindEmail}, "a@b", MsgInvalidEmail},
		{"phone ok", FieldSpec{Label: "Phone", Required: true, Kind: KindPhone}, "+20 (100) 123-4567", ""},
		{"phone short", FieldSpec{Label: "Phone", Required: true, Kind: KindPhone}, "12345", MsgInvalidPhone},
		{"postcode ok", FieldSpec{Label: "Postcode / ZIP", Required: true, Kind: KindPostcode}, "SW1A 1AA", ""},
		{"postcode long", FieldSpec{Label: "Postcode / ZIP", Required: true, Kind: KindPostcode}, "12345678901", MsgInvalidPostcode},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.spec.Validate(tc.value); got != tc.want {
				t.Fatalf("Validate(%q) = %q, want %q", tc.value, got, tc.want)
			}
		})
	}
}

func TestFormatPhone(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"12":             "12",
		"1234":           "123-4",
		"123456":         "123-456",
		"(012) 345-6789": "012-345-6789",
		"01234567899999": "012-345-6789",
	}
	for in, want := range cases {
		if got := FormatPhone(in); got != want {
			t.Fatalf("FormatPhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCountdownPadsAndClamps(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	end := now.Add(2*24*time.Hour + 3*time.Hour + 4*time.Minute + 5*time.Second)

	got := Countdown(end, now)
	if got.Days != "02" || got.Hours != "03" || got.Minutes != "04" || got.Seconds != "05" || got.Expired {
		t.Fatalf("unexpected countdown %+v", got)
	}

	past := Countdown(now.Add(-time.Minute), now)
	if !past.Expired || past.Days != "00" || past.Seconds != "00" {
		t.Fatalf("expected clamped countdown, got %+v", past)
	}
}

func TestNoticeVisibility(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	n := NewNotice(NoticeInfo, "No items selected", now, 3*time.Second)
	if !n.Visible(now.Add(2999 * time.Millisecond)) {
		t.Fatalf("expected notice visible inside window")
	}
	if n.Visible(now.Add(3 * time.Second)) {
		t.Fatalf("expected notice hidden at expiry")
	}
	if (Notice{}).Visible(now) {
		t.Fatalf("expected empty notice hidden")
	}
}
