package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/dustin/go-humanize"

	"lifeline/internal/status"
)

// sesAPI is the part of the SES v2 client used to send mail
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService sends mail through Amazon SES
type EmailService struct {
	client     sesAPI
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
}

// NewEmailService creates a new email service. An empty fromEmail yields a disabled service.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string) (*EmailService, error) {
	if fromEmail == "" {
		logger.Infof("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Infof("email service enabled: from=%s, region=%s", fromEmail, awsRegion)
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL), nil
}

func newEmailService(client sesAPI, fromEmail, fromName, appBaseURL string) *EmailService {
	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		enabled:    true,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

var digestHTML = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333;">
	<h2>Your LifeLine inventory</h2>
	{{if .Digest.Expired}}
	<h3>Expired</h3>
	<ul>{{range .Expired}}<li><strong>{{.Name}}</strong> ({{.Quantity}} left) expired {{.When}}</li>{{end}}</ul>
	{{end}}
	{{if .Digest.LowStock}}
	<h3>Low stock</h3>
	<ul>{{range .LowStock}}<li><strong>{{.Name}}</strong>: {{.Quantity}} left</li>{{end}}</ul>
	{{end}}
	<p><a href="{{.AppURL}}">Open LifeLine</a></p>
</body>
</html>`))

type digestLine struct {
	Name     string
	Quantity int
	When     string
}

// SendInventoryDigest mails the expired and low-stock medications of one user
func (s *EmailService) SendInventoryDigest(ctx context.Context, toEmail string, digest *InventoryDigest) error {
	if !s.enabled {
		logger.Infof("skipping email send (service disabled): inventory digest to %s", toEmail)
		return nil
	}
	if digest.Empty() {
		return nil
	}

	data := struct {
		Digest   *InventoryDigest
		Expired  []digestLine
		LowStock []digestLine
		AppURL   string
	}{Digest: digest, AppURL: s.appBaseURL + "/"}

	var text strings.Builder
	text.WriteString("Your LifeLine inventory\n\n")
	for _, m := range digest.Expired {
		when := humanize.Time(m.ExpirationDate.Time)
		data.Expired = append(data.Expired, digestLine{Name: m.Name, Quantity: m.Quantity, When: when})
		fmt.Fprintf(&text, "EXPIRED  %s (%d left) expired %s\n", m.Name, m.Quantity, when)
	}
	for _, m := range digest.LowStock {
		data.LowStock = append(data.LowStock, digestLine{Name: m.Name, Quantity: m.Quantity})
		fmt.Fprintf(&text, "LOW      %s: %d left (below %d)\n", m.Name, m.Quantity, status.LowStockThreshold)
	}
	fmt.Fprintf(&text, "\nOpen LifeLine: %s/\n", s.appBaseURL)

	var html bytes.Buffer
	if err := digestHTML.Execute(&html, data); err != nil {
		return fmt.Errorf("failed to render digest email: %w", err)
	}

	subject := fmt.Sprintf("LifeLine: %d medication(s) need attention", len(digest.Expired)+len(digest.LowStock))
	return s.sendEmail(ctx, toEmail, subject, html.String(), text.String())
}

func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if result.MessageId != nil {
		logger.Debugf("SES message id: %s", *result.MessageId)
	}
	logger.Infof("email sent: to=%s, subject=%s", toEmail, subject)
	return nil
}
