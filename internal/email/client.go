// Package email defines the interface for transactional email delivery and
// provides a Resend-backed implementation.
package email

import "context"

// RiskAlertParams holds the data for the HR alert sent when an employee's
// result is graded high.
type RiskAlertParams struct {
	To                     string // HR mailbox
	EmployeeID             string
	EmployeeName           string // may be empty
	RiskLevel              string
	EmotionalExhaustion    int
	Depersonalization      int
	PersonalAccomplishment int
	TotalScore             int
}

// Sender is the interface the API uses to send email.
// Tests inject a stub that records calls without hitting the network.
type Sender interface {
	// SendRiskAlert notifies HR about a high-risk result. Failures are logged
	// by the caller and never fail the submission.
	SendRiskAlert(ctx context.Context, p RiskAlertParams) error
}

// nopSender drops every message. Used when no Resend key is configured.
type nopSender struct{}

// NewNopSender returns a Sender that does nothing.
func NewNopSender() Sender { return nopSender{} }

func (nopSender) SendRiskAlert(context.Context, RiskAlertParams) error { return nil }
