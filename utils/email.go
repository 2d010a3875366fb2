package utils

import (
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"os"
	"strings"

	"datahub/model"

	"github.com/jordan-wright/email"
)

// Each notification renders from a parsed template against a typed parameter
// struct, so a template referencing a field the struct does not carry fails
// at render time instead of mailing a blank.

type inactivityParams struct {
	SubmissionName string
	StudyID        string
	DaysLeft       int
	PortalURL      string
}

type finalInactivityParams struct {
	SubmissionName string
	StudyID        string
	PortalURL      string
}

type completionParams struct {
	SubmissionName string
	StudyID        string
	PortalURL      string
}

var (
	inactivityTmpl = template.Must(template.New("inactivity").Parse(`
		<h2>Submission inactivity notice</h2>
		<p>Your data submission <b>{{.SubmissionName}}</b> (study {{.StudyID}})
		has been inactive. It will be permanently deleted in {{.DaysLeft}} days
		unless you resume work on it.</p>
		<p><a href="{{.PortalURL}}">Open the submission portal</a></p>
	`))
	finalInactivityTmpl = template.Must(template.New("final_inactivity").Parse(`
		<h2>Final deletion warning</h2>
		<p>Your data submission <b>{{.SubmissionName}}</b> (study {{.StudyID}})
		will be permanently deleted tomorrow. Resume work now to keep it.</p>
		<p><a href="{{.PortalURL}}">Open the submission portal</a></p>
	`))
	completionTmpl = template.Must(template.New("completion").Parse(`
		<h2>Submission completed</h2>
		<p>Your data submission <b>{{.SubmissionName}}</b> (study {{.StudyID}})
		has been completed and its data is now available.</p>
		<p><a href="{{.PortalURL}}">Open the submission portal</a></p>
	`))
)

func renderTemplate(tmpl *template.Template, params interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return nil, fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.Bytes(), nil
}

// EmailNotifier sends portal notification mail over SMTP.
type EmailNotifier struct {
	PortalURL string
}

// NewEmailNotifier builds the SMTP notifier. Links in the mail point at
// portalURL.
func NewEmailNotifier(portalURL string) *EmailNotifier {
	return &EmailNotifier{PortalURL: portalURL}
}

// SendInactivityWarning mails a reminder that an inactive submission will be
// deleted in daysLeft days.
func (n *EmailNotifier) SendInactivityWarning(to string, sub *model.Submission, daysLeft int) error {
	body, err := renderTemplate(inactivityTmpl, inactivityParams{
		SubmissionName: sub.Name,
		StudyID:        sub.StudyID,
		DaysLeft:       daysLeft,
		PortalURL:      n.PortalURL,
	})
	if err != nil {
		return err
	}
	return sendMail(to, "Data submission inactivity notice", body)
}

// SendFinalInactivityWarning mails the last warning before deletion.
func (n *EmailNotifier) SendFinalInactivityWarning(to string, sub *model.Submission) error {
	body, err := renderTemplate(finalInactivityTmpl, finalInactivityParams{
		SubmissionName: sub.Name,
		StudyID:        sub.StudyID,
		PortalURL:      n.PortalURL,
	})
	if err != nil {
		return err
	}
	return sendMail(to, "Final warning: data submission deletion", body)
}

// SendCompletionNotice mails the submitter when a submission completes.
func (n *EmailNotifier) SendCompletionNotice(to string, sub *model.Submission) error {
	body, err := renderTemplate(completionTmpl, completionParams{
		SubmissionName: sub.Name,
		StudyID:        sub.StudyID,
		PortalURL:      n.PortalURL,
	})
	if err != nil {
		return err
	}
	return sendMail(to, "Data submission completed", body)
}

// SendActivateMail sends the account activation email.
func SendActivateMail(to, link string) error {
	tmpl := template.Must(template.New("activate").Parse(`
		<h2>Welcome</h2>
		<p>Please click the link below to activate your account:</p>
		<a href="{{.Link}}">Activate account</a>
		<p>The link is valid for 10 minutes.</p>
	`))
	body, err := renderTemplate(tmpl, struct{ Link string }{Link: link})
	if err != nil {
		return err
	}
	return sendMail(to, "Account Activation", body)
}

func sendMail(to, subject string, body []byte) error {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASS")
	from := os.Getenv("SMTP_FROM")
	if host == "" || port == "" || user == "" || pass == "" || from == "" {
		return errors.New("smtp config missing")
	}

	e := email.NewEmail()
	e.From = from
	e.To = []string{to}
	e.Subject = subject
	e.HTML = body

	addr := host + ":" + port
	auth := smtp.PlainAuth("", user, pass, host)
	tlsConfig := &tls.Config{ServerName: host}
	useTLS := strings.EqualFold(os.Getenv("SMTP_TLS"), "true") ||
		os.Getenv("SMTP_TLS") == "1" ||
		port == "465"
	useStartTLS := strings.EqualFold(os.Getenv("SMTP_STARTTLS"), "true") ||
		os.Getenv("SMTP_STARTTLS") == "1"

	if useTLS {
		return e.SendWithTLS(addr, auth, tlsConfig)
	}
	if useStartTLS {
		return e.SendWithStartTLS(addr, auth, tlsConfig)
	}
	return e.Send(addr, auth)
}
