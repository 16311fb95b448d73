package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"
)

const resendEmailsURL = "https://api.resend.com/emails"

// resendClient is the concrete Sender backed by the Resend API.
type resendClient struct {
	apiKey     string
	endpoint   string
	fromAddr   string // e.g. "alerts@burnout.example.com"
	fromName   string // e.g. "Burnout Detector"
	baseURL    string // public API base, used for the dashboard link
	httpClient *http.Client
}

// NewResendClient returns a Sender that delivers email via Resend.
func NewResendClient(apiKey, fromAddr, fromName, baseURL string) Sender {
	return &resendClient{
		apiKey:   apiKey,
		endpoint: resendEmailsURL,
		fromAddr: fromAddr,
		fromName: fromName,
		baseURL:  baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ─── RESEND API SHAPES ────────────────────────────────────────────────────────

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Name       string `json:"name"`
		Message    string `json:"message"`
		StatusCode int    `json:"statusCode"`
	} `json:"error"`
}

// ─── SENDER IMPLEMENTATION ────────────────────────────────────────────────────

// SendRiskAlert sends the high-risk notification to HR.
func (c *resendClient) SendRiskAlert(ctx context.Context, p RiskAlertParams) error {
	who := p.EmployeeID
	if p.EmployeeName != "" {
		who = fmt.Sprintf("%s (%s)", p.EmployeeName, p.EmployeeID)
	}
	subject := fmt.Sprintf("Burnout risk alert: employee %s", who)
	dashboardURL := fmt.Sprintf("%s/api/hr/dashboard", c.baseURL)

	return c.send(ctx, p.To, subject, riskAlertHTML(who, p, dashboardURL))
}

// ─── HTTP SEND ────────────────────────────────────────────────────────────────

func (c *resendClient) send(ctx context.Context, to, subject, html string) error {
	from := fmt.Sprintf("%s <%s>", c.fromName, c.fromAddr)

	reqBody := resendRequest{
		From:    from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("email: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("email: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email: http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("email: read response: %w", err)
	}

	var parsed resendResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return fmt.Errorf("email: unmarshal response (status %d): %w", resp.StatusCode, err)
	}

	if parsed.Error != nil {
		return fmt.Errorf("email: Resend error %s: %s", parsed.Error.Name, parsed.Error.Message)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email: unexpected status %d: %.200s", resp.StatusCode, string(respBytes))
	}

	return nil
}

// ─── HTML TEMPLATES ───────────────────────────────────────────────────────────

func riskAlertHTML(who string, p RiskAlertParams, dashboardURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; color: #1a1a1a; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2 style="margin-bottom: 8px; color: #EF4444;">High burnout risk detected</h2>
  <p>Employee <strong>%s</strong> has just completed the burnout test with risk level
  <strong>%s</strong>.</p>
  <table style="border-collapse: collapse; margin: 16px 0;">
    <tr><td style="padding: 4px 12px 4px 0;">Emotional exhaustion</td><td><strong>%d</strong> / 30</td></tr>
    <tr><td style="padding: 4px 12px 4px 0;">Depersonalization</td><td><strong>%d</strong> / 24</td></tr>
    <tr><td style="padding: 4px 12px 4px 0;">Personal accomplishment</td><td><strong>%d</strong> / 30</td></tr>
    <tr><td style="padding: 4px 12px 4px 0;">Total</td><td><strong>%d</strong></td></tr>
  </table>
  <p>Consider reaching out to discuss workload and support options.</p>
  <p style="margin: 32px 0;">
    <a href="%s"
       style="background: #0f172a; color: #ffffff; padding: 12px 24px;
              border-radius: 6px; text-decoration: none; font-weight: 600;">
      Open HR dashboard
    </a>
  </p>
  <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 32px 0;">
  <p style="color: #9ca3af; font-size: 12px;">
    Burnout Detector · Results are screening indicators, not a diagnosis
  </p>
</body>
</html>`, html.EscapeString(who), html.EscapeString(p.RiskLevel),
		p.EmotionalExhaustion, p.Depersonalization, p.PersonalAccomplishment, p.TotalScore,
		dashboardURL)
}
