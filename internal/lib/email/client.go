// Package email provides an email sending client.
//
// It uses Resend (resend-go) as the email provider and renders
// email bodies from embedded HTML templates.
package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/deppfellow/cafe-menu/internal/config"
)

// sender is the part of the Resend emails service the client needs.
type sender interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Client wraps the Resend client and a logger.
type Client struct {
	sender sender
	from   string
	logger *zerolog.Logger
}

// NewClient creates an email Client.
//
// Without a Resend API key the client is disabled and Enabled reports false.
func NewClient(cfg *config.Config, logger *zerolog.Logger) *Client {
	c := &Client{
		from:   fmt.Sprintf("%s <%s>", config.ServiceName, cfg.Integration.SenderEmail),
		logger: logger,
	}
	if cfg.Integration.ResendAPIKey != "" {
		c.sender = resend.NewClient(cfg.Integration.ResendAPIKey).Emails
	}
	return c
}

// Enabled reports whether emails are actually delivered.
func (c *Client) Enabled() bool {
	return c.sender != nil
}

// Render executes the named embedded template with data.
func Render(templateName Template, data map[string]string) (string, error) {
	tmpl, err := template.ParseFS(templates, fmt.Sprintf("templates/%s.html", templateName))
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse email template %s", templateName)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", errors.Wrapf(err, "failed to execute email template %s", templateName)
	}
	return body.String(), nil
}

// SendEmail renders templateName with data and sends it through Resend.
func (c *Client) SendEmail(to, subject string, templateName Template, data map[string]string) error {
	if !c.Enabled() {
		return errors.New("email client is disabled: no Resend API key configured")
	}

	html, err := Render(templateName, data)
	if err != nil {
		return err
	}

	resp, err := c.sender.Send(&resend.SendEmailRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return errors.Wrap(err, "failed to send email")
	}

	c.logger.Debug().
		Str("email_id", resp.Id).
		Str("template", string(templateName)).
		Msg("email accepted by provider")

	return nil
}
