// Package mail delivers notification emails over SMTP.
package mail

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"text/template"

	gopkgmail "gopkg.in/gomail.v2"
)

type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	SSL      bool   `yaml:"ssl"`
}

// Email is one outgoing notification letter.
type Email struct {
	To      []string
	Subject string
	Data    map[string]any
}

// Dialer is the part of gomail's dialer the sender needs.
type Dialer interface {
	DialAndSend(m ...*gopkgmail.Message) error
}

type EmailSender struct {
	cfg    Config
	dialer Dialer
}

var (
	plainTmpl = template.Must(template.New("plain").Parse(
		"{{.name}}\n\n{{if .deal_number}}Deal № {{.deal_number}}\n{{end}}Open the exchange to see the details.\n"))
	htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Parse(
		`<p><b>{{.name}}</b></p>{{if .deal_number}}<p>Deal № {{.deal_number}}</p>{{end}}<p>Open the exchange to see the details.</p>`))
)

func NewEmailSender(cfg Config) *EmailSender {
	d := gopkgmail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.SSL = cfg.SSL
	return &EmailSender{cfg: cfg, dialer: d}
}

// NewEmailSenderWithDialer is used where the SMTP transport is substituted.
func NewEmailSenderWithDialer(cfg Config, d Dialer) *EmailSender {
	return &EmailSender{cfg: cfg, dialer: d}
}

func (s *EmailSender) Send(n Email) error {
	if len(n.To) == 0 {
		return nil
	}
	m, err := s.build(n)
	if err != nil {
		return err
	}
	return s.dialer.DialAndSend(m)
}

func (s *EmailSender) build(n Email) (*gopkgmail.Message, error) {
	var plain, html bytes.Buffer
	if err := plainTmpl.Execute(&plain, n.Data); err != nil {
		return nil, fmt.Errorf("render plain: %w", err)
	}
	if err := htmlTmpl.Execute(&html, n.Data); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	m := gopkgmail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", n.To...)
	m.SetHeader("Subject", n.Subject)
	m.SetBody("text/plain", plain.String())
	m.AddAlternative("text/html", html.String())
	return m, nil
}
