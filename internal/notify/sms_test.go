package notify

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+15551234567", "+15551234567"},
		{"5551234567", "+15551234567"},
		{"555-123-4567", "+15551234567"},
		{"(555) 123-4567", "+15551234567"},
		{"445551234567", "+445551234567"},
	}
	for _, tc := range cases {
		if got := formatNumber(tc.in); got != tc.want {
			t.Errorf("formatNumber(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewSMSServiceRequiresCredentials(t *testing.T) {
	if s := NewSMSService("", "token", "+15550000000", zerolog.Nop()); s != nil {
		t.Error("expected nil service without account SID")
	}
	if s := NewSMSService("sid", "", "+15550000000", zerolog.Nop()); s != nil {
		t.Error("expected nil service without auth token")
	}
	if s := NewSMSService("sid", "token", "", zerolog.Nop()); s != nil {
		t.Error("expected nil service without from number")
	}
	if s := NewSMSService("sid", "token", "5551234567", zerolog.Nop()); s == nil {
		t.Error("expected service with full credentials")
	} else if s.from != "+15551234567" {
		t.Errorf("from number not normalized: %q", s.from)
	}
}

func TestNewCaregiverNotifierRequiresSMSAndPhone(t *testing.T) {
	sms := NewSMSService("sid", "token", "+15550000000", zerolog.Nop())
	if n := NewCaregiverNotifier(nil, "+15551234567", zerolog.Nop()); n != nil {
		t.Error("expected nil notifier without SMS service")
	}
	if n := NewCaregiverNotifier(sms, "", zerolog.Nop()); n != nil {
		t.Error("expected nil notifier without caregiver phone")
	}
	if n := NewCaregiverNotifier(sms, "+15551234567", zerolog.Nop()); n == nil {
		t.Error("expected notifier with SMS and phone")
	}
}
