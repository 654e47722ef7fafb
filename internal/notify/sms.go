// Package notify relays completed actions to a caregiver over SMS.
package notify

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSService sends text messages through Twilio.
type SMSService struct {
	client *twilio.RestClient
	from   string
	log    zerolog.Logger
}

// NewSMSService creates an SMS sender. It returns nil when credentials are
// missing so callers can treat SMS as an optional feature.
func NewSMSService(accountSID, authToken, from string, log zerolog.Logger) *SMSService {
	if accountSID == "" || authToken == "" || from == "" {
		return nil
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &SMSService{client: client, from: formatNumber(from), log: log}
}

// Send delivers one SMS.
func (s *SMSService) Send(to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(formatNumber(to))
	params.SetFrom(s.from)
	params.SetBody(body)

	_, err := s.client.Api.CreateMessage(params)
	return err
}

// formatNumber normalizes a phone number to E.164, assuming US numbers
// when no country code is present.
func formatNumber(phone string) string {
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if len(digits) == 10 {
		return "+1" + digits
	}
	return "+" + digits
}

// CaregiverNotifier tells a caregiver when the user marks medications as
// taken. Delivery failures are logged, never surfaced to the user.
type CaregiverNotifier struct {
	sms   *SMSService
	phone string
	log   zerolog.Logger
}

// NewCaregiverNotifier creates a notifier, or nil when SMS is unavailable
// or no caregiver phone is configured.
func NewCaregiverNotifier(sms *SMSService, caregiverPhone string, log zerolog.Logger) *CaregiverNotifier {
	if sms == nil || caregiverPhone == "" {
		return nil
	}
	return &CaregiverNotifier{sms: sms, phone: caregiverPhone, log: log}
}

// MedicationsTaken sends a summary SMS to the caregiver.
func (n *CaregiverNotifier) MedicationsTaken(ctx context.Context, userID string, names []string) {
	body := "Boomer AI: medications marked as taken (" + strings.Join(names, ", ") + ")."
	if err := n.sms.Send(n.phone, body); err != nil {
		n.log.Error().Err(err).Str("user", userID).Msg("caregiver SMS failed")
		return
	}
	n.log.Info().Str("user", userID).Int("count", len(names)).Msg("caregiver notified")
}
