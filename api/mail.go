package main

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/go-mail/mail/v2"

	"github.com/harlequingg/todo-assistant/internal/todo"
)

//go:embed templates
var templateFS embed.FS

var welcomeTemplate = template.Must(template.ParseFS(templateFS, "templates/welcome.tmpl"))

const mailAttempts = 3

type mailer struct {
	dailer *mail.Dialer
	sender string
}

func newMailer(host string, port int, username string, password string, sender string) *mailer {
	dailer := mail.NewDialer(host, port, username, password)
	dailer.Timeout = 5 * time.Second
	return &mailer{
		dailer: dailer,
		sender: sender,
	}
}

func (m *mailer) send(to string, tmpl *template.Template, data any) error {
	msg, err := m.compose(to, tmpl, data)
	if err != nil {
		return err
	}

	for i := 0; i < mailAttempts; i++ {
		err = m.dailer.DialAndSend(msg)
		if err == nil {
			break
		}
	}
	return err
}

func (m *mailer) compose(to string, tmpl *template.Template, data any) (*mail.Message, error) {
	var subject bytes.Buffer
	if err := tmpl.ExecuteTemplate(&subject, "subject", data); err != nil {
		return nil, err
	}
	var plainBody bytes.Buffer
	if err := tmpl.ExecuteTemplate(&plainBody, "plainBody", data); err != nil {
		return nil, err
	}
	var htmlBody bytes.Buffer
	if err := tmpl.ExecuteTemplate(&htmlBody, "htmlBody", data); err != nil {
		return nil, err
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/plain", plainBody.String())
	msg.AddAlternative("text/html", htmlBody.String())
	return msg, nil
}

// welcome mails a newly created user in the background. It is a no-op when
// SMTP is not configured.
func (app *application) welcome(u todo.User) {
	if app.mailer == nil {
		return
	}
	go func() {
		if err := app.mailer.send(u.Email, welcomeTemplate, u); err != nil {
			app.log.Error("cannot send welcome mail", "email", u.Email, "error", err)
		}
	}()
}
