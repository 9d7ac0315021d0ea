// pkg/email/email.go
package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"
)

type EmailService struct {
	apiKey    string
	from      string
	templates *template.Template
}

// GlobalEmailService is the process-wide mailer, set once at startup. Callers
// nil-check it so a missing API key degrades to no email, not a crash.
var GlobalEmailService *EmailService

func InitEmailService(apiKey string) error {
	service, err := NewEmailService(apiKey)
	if err != nil {
		return err
	}
	GlobalEmailService = service
	return nil
}

type EmailData struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Html    string `json:"html"`
}

// Template data structures
type WelcomeEmailData struct {
	Name string
}

type SubscriptionStartedData struct {
	Name     string
	RenewsAt *time.Time
	HasRenew bool
}

type SubscriptionCancelledData struct {
	Name      string
	ExpiresAt *time.Time
}

type TrialEndingData struct {
	Name     string
	DaysLeft int
}

type JoinRequestData struct {
	CommunityName string
	RequesterName string
	RequesterMail string
	Message       string
}

func NewEmailService(apiKey string) (*EmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("error loading email templates: %v", err)
	}

	return &EmailService{
		apiKey:    apiKey,
		from:      "Huddle <noreply@huddle.events>",
		templates: templates,
	}, nil
}

func (s *EmailService) sendTemplateEmail(to, subject, templateName string, data interface{}) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("template execution error: %v", err)
	}

	emailData := EmailData{
		From:    s.from,
		To:      to,
		Subject: subject,
		Html:    body.String(),
	}

	jsonData, err := json.Marshal(emailData)
	if err != nil {
		return fmt.Errorf("error marshaling email data: %v", err)
	}

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Printf("Resend API error: Status: %d, Body: %s", resp.StatusCode, string(respBody))
		return fmt.Errorf("resend API error: %s", string(respBody))
	}

	return nil
}

// Email sending methods
func (s *EmailService) SendWelcomeEmail(email, name string) error {
	data := WelcomeEmailData{
		Name: name,
	}
	return s.sendTemplateEmail(email, "Welcome to Huddle! 🎉", "welcome.html", data)
}

func (s *EmailService) SendSubscriptionStartedEmail(email, name string, renewsAt *time.Time) error {
	data := SubscriptionStartedData{
		Name:     name,
		RenewsAt: renewsAt,
		HasRenew: renewsAt != nil,
	}
	return s.sendTemplateEmail(email, "Your Huddle subscription is live! 🚀", "subscription_started.html", data)
}

func (s *EmailService) SendSubscriptionCancelledEmail(email, name string, expiresAt *time.Time) error {
	data := SubscriptionCancelledData{
		Name:      name,
		ExpiresAt: expiresAt,
	}
	return s.sendTemplateEmail(email, "Your Huddle subscription was cancelled", "subscription_cancelled.html", data)
}

func (s *EmailService) SendTrialEndingEmail(email, name string, daysLeft int) error {
	data := TrialEndingData{
		Name:     name,
		DaysLeft: daysLeft,
	}
	subject := fmt.Sprintf("Your Huddle trial ends in %d days", daysLeft)
	if daysLeft == 1 {
		subject = "Your Huddle trial ends tomorrow"
	}
	return s.sendTemplateEmail(email, subject, "trial_ending.html", data)
}

func (s *EmailService) SendJoinRequestNotification(organizerEmail, communityName, requesterName, requesterMail, message string) error {
	data := JoinRequestData{
		CommunityName: communityName,
		RequesterName: requesterName,
		RequesterMail: requesterMail,
		Message:       message,
	}
	return s.sendTemplateEmail(organizerEmail, "New join request for your community! 📋", "join_request.html", data)
}
