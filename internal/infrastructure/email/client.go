// Package email provides transactional email delivery for seller notifications.
package email

import (
	"fmt"
	"html"

	"github.com/resendlabs/resend-go"

	"github.com/BrightFrames/tapx-go/pkg/config"
)

// Client wraps the Resend API. When email is disabled by configuration the
// client is nil-safe and every send is a no-op.
type Client struct {
	resend    *resend.Client
	fromEmail string
	fromName  string
}

// NewClient builds a Client from the environment. Returns nil when email
// delivery is disabled or no API key is configured.
func NewClient() *Client {
	if !config.EmailEnabled || config.ResendAPIKey == "" {
		return nil
	}
	return &Client{
		resend:    resend.NewClient(config.ResendAPIKey),
		fromEmail: config.EmailFrom,
		fromName:  "TapX",
	}
}

// EnquiryNotification carries the fields rendered into the seller email.
type EnquiryNotification struct {
	SellerEmail string
	BuyerName   string
	BuyerEmail  string
	BuyerPhone  string
	Message     string
	BlockTitle  string
	ProfileName string
}

// SendEnquiryNotification emails the seller about a new enquiry.
func (c *Client) SendEnquiryNotification(n EnquiryNotification) error {
	if c == nil {
		return nil
	}

	subject := fmt.Sprintf("New enquiry from %s", n.BuyerName)
	body := fmt.Sprintf(`<h2>New enquiry on %s</h2>
<p><strong>From:</strong> %s (%s)</p>
<p><strong>Phone:</strong> %s</p>
<p><strong>Regarding:</strong> %s</p>
<p>%s</p>`,
		html.EscapeString(n.ProfileName),
		html.EscapeString(n.BuyerName),
		html.EscapeString(n.BuyerEmail),
		html.EscapeString(n.BuyerPhone),
		html.EscapeString(n.BlockTitle),
		html.EscapeString(n.Message),
	)

	request := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{n.SellerEmail},
		Subject: subject,
		Html:    body,
	}

	if _, err := c.resend.Emails.Send(request); err != nil {
		return fmt.Errorf("failed to send enquiry notification: %w", err)
	}
	return nil
}

// SendLoginCode emails a one-time login code.
func (c *Client) SendLoginCode(to, code string) error {
	if c == nil {
		return nil
	}

	request := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{to},
		Subject: "Your TapX login code",
		Html: fmt.Sprintf(`<h2>Your login code</h2>
<p style="font-size:24px;letter-spacing:4px"><strong>%s</strong></p>
<p>This code expires shortly. If you did not request it, ignore this email.</p>`,
			html.EscapeString(code)),
	}

	if _, err := c.resend.Emails.Send(request); err != nil {
		return fmt.Errorf("failed to send login code: %w", err)
	}
	return nil
}
