package service

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"goalbingo/internal/battle"
	"goalbingo/internal/models"
)

// Notifier tells players about things that happened while they were away
type Notifier interface {
	SendWelcome(ctx context.Context, to models.User) error
	SendBattleInvite(ctx context.Context, to, from models.User, b models.Battle) error
	SendBattleResult(ctx context.Context, to, opponent models.User, b models.Battle, stats battle.Stats) error
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewEmailService creates a new email service
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*EmailService, error) {
	// If fromEmail is empty, create a disabled service
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		if debug {
			log.Println("[DEBUG] Email service will skip sending all emails")
		}
		return &EmailService{
			enabled: false,
			debug:   debug,
		}, nil
	}

	if debug {
		log.Printf("[DEBUG] Initializing email service with AWS SES")
		log.Printf("[DEBUG] AWS Region: %s", awsRegion)
		log.Printf("[DEBUG] From Email: %s", fromEmail)
		log.Printf("[DEBUG] App Base URL: %s", appBaseURL)
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		enabled:    true,
		debug:      debug,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// emailMessage is the content of one notification before it is rendered
type emailMessage struct {
	subject    string
	heading    string
	greeting   string
	paragraphs []string
	buttonText string
	link       string
}

const emailFooter = "This is an automated email from Goal Bingo. Please do not reply."

func (m emailMessage) html() string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #7c3aed; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #7c3aed; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
`)
	fmt.Fprintf(&b, "\t\t<div class=\"header\"><h1>%s</h1></div>\n", html.EscapeString(m.heading))
	b.WriteString("\t\t<div class=\"content\">\n")
	fmt.Fprintf(&b, "\t\t\t<p>%s</p>\n", html.EscapeString(m.greeting))
	for _, p := range m.paragraphs {
		fmt.Fprintf(&b, "\t\t\t<p>%s</p>\n", html.EscapeString(p))
	}
	if m.link != "" {
		fmt.Fprintf(&b, "\t\t\t<p style=\"text-align: center;\"><a href=\"%s\" class=\"button\">%s</a></p>\n",
			html.EscapeString(m.link), html.EscapeString(m.buttonText))
	}
	b.WriteString("\t\t</div>\n")
	fmt.Fprintf(&b, "\t\t<div class=\"footer\"><p>%s</p></div>\n", emailFooter)
	b.WriteString("\t</div>\n</body>\n</html>\n")
	return b.String()
}

func (m emailMessage) text() string {
	var b strings.Builder
	b.WriteString(m.greeting + "\n\n")
	for _, p := range m.paragraphs {
		b.WriteString(p + "\n\n")
	}
	if m.link != "" {
		fmt.Fprintf(&b, "%s: %s\n\n", m.buttonText, m.link)
	}
	b.WriteString("---\n" + emailFooter + "\n")
	return b.String()
}

func (s *EmailService) deliver(ctx context.Context, toEmail, kind string, m emailMessage) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): %s to %s", kind, toEmail)
		return nil
	}
	if s.debug {
		log.Printf("[DEBUG] Sending %s email: subject=%s, to=%s", kind, m.subject, toEmail)
	}
	return s.sendEmail(ctx, toEmail, m.subject, m.html(), m.text())
}

// SendWelcome greets a newly registered player
func (s *EmailService) SendWelcome(ctx context.Context, to models.User) error {
	return s.deliver(ctx, to.Email, "welcome", emailMessage{
		subject:  "Welcome to Goal Bingo!",
		heading:  "Welcome to Goal Bingo!",
		greeting: fmt.Sprintf("Hi %s,", to.DisplayName),
		paragraphs: []string{
			"Your account is ready. Fill a card with goals, tick them off and complete lines to earn bonus points.",
			"Keep a daily streak going to multiply the points every goal is worth.",
		},
		buttonText: "Create your first card",
		link:       s.appBaseURL + "/",
	})
}

// SendBattleInvite tells the opponent they were challenged
func (s *EmailService) SendBattleInvite(ctx context.Context, to, from models.User, b models.Battle) error {
	return s.deliver(ctx, to.Email, "battle invite", emailMessage{
		subject:  fmt.Sprintf("%s challenged you to a %d-day battle", from.DisplayName, b.DurationDays),
		heading:  "You have been challenged!",
		greeting: fmt.Sprintf("Hi %s,", to.DisplayName),
		paragraphs: []string{
			fmt.Sprintf("%s wants to see who can earn more points in the next %d days.", from.DisplayName, b.DurationDays),
			fmt.Sprintf("The winner takes a bonus of %d points.", b.BonusPoints),
		},
		buttonText: "View the battle",
		link:       fmt.Sprintf("%s/battles/%s", s.appBaseURL, b.ID),
	})
}

// SendBattleResult reports the outcome of a completed battle to one participant
func (s *EmailService) SendBattleResult(ctx context.Context, to, opponent models.User, b models.Battle, stats battle.Stats) error {
	mine, theirs := stats.Creator.TotalPoints, stats.Opponent.TotalPoints
	if to.ID == b.OpponentID {
		mine, theirs = theirs, mine
	}

	var subject, verdict string
	switch {
	case b.IsDraw:
		subject = fmt.Sprintf("Your battle with %s ended in a draw", opponent.DisplayName)
		verdict = "Nobody takes the bonus this time."
	case b.WinnerID != nil && *b.WinnerID == to.ID:
		subject = fmt.Sprintf("You beat %s!", opponent.DisplayName)
		verdict = fmt.Sprintf("You earned the %d point bonus.", b.BonusPoints)
	default:
		subject = fmt.Sprintf("%s won your battle", opponent.DisplayName)
		verdict = "Better luck in the next one."
	}

	return s.deliver(ctx, to.Email, "battle result", emailMessage{
		subject:  subject,
		heading:  "Battle over",
		greeting: fmt.Sprintf("Hi %s,", to.DisplayName),
		paragraphs: []string{
			fmt.Sprintf("Final score: you %d, %s %d.", mine, opponent.DisplayName, theirs),
			verdict,
		},
		buttonText: "Start a rematch",
		link:       fmt.Sprintf("%s/battles/%s", s.appBaseURL, b.ID),
	})
}

// sendEmail sends an email using Amazon SES
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
		if s.debug {
			log.Printf("[DEBUG] SES SendEmail failed: %v", err)
		}
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug && result.MessageId != nil {
		log.Printf("[DEBUG] Message ID: %s", *result.MessageId)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
