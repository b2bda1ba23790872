package ses

import (
	"context"
	"fmt"
	"html"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"invoicegen/internal/port"
)

type sesSender struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
}

// NewSESSender creates a new SES-backed EmailSender.
func NewSESSender(ctx context.Context, region, fromAddress, fromName string) (port.EmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return &sesSender{
		client:      sesv2.NewFromConfig(cfg),
		fromAddress: fromAddress,
		fromName:    fromName,
	}, nil
}

func (s *sesSender) SendBatchReadyEmail(ctx context.Context, toEmail string, msg port.BatchReadyEmail) error {
	subject := fmt.Sprintf("Your invoices are ready (%d generated)", msg.Succeeded)
	htmlBody := buildBatchReadyHTML(msg)
	textBody := buildBatchReadyText(msg)

	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildBatchReadyText(msg port.BatchReadyEmail) string {
	text := fmt.Sprintf("Batch %s finished: %d invoices generated, %d rows failed.\n\nDownload the archive:\n%s\n",
		msg.BatchID, msg.Succeeded, msg.Failed, msg.URL)
	if !msg.ExpiresAt.IsZero() {
		text += fmt.Sprintf("\nThis link expires at %s.\n", msg.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	return text
}

func buildBatchReadyHTML(msg port.BatchReadyEmail) string {
	expiry := ""
	if !msg.ExpiresAt.IsZero() {
		expiry = fmt.Sprintf(`<p style="color: #999; font-size: 12px;">This link expires at %s.</p>`,
			msg.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	link := html.EscapeString(msg.URL)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Your invoices are ready</h2>
  <p>Batch <code>%s</code> finished: %d invoices generated, %d rows failed.</p>
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Download archive</a>
  </p>
  <p>Or copy and paste this link into your browser:</p>
  <p style="word-break: break-all; color: #666;">%s</p>
  %s
</body>
</html>`, html.EscapeString(msg.BatchID), msg.Succeeded, msg.Failed, link, link, expiry)
}
