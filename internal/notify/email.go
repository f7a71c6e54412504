package notify

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/reportconsole/internal/config"
	"github.com/reportconsole/internal/models"
)

var (
	ErrEmailDisabled = errors.New("email is disabled for this report")
	ErrNoSender      = errors.New("email has no sender")
	ErrNoRecipients  = errors.New("email has no recipients")
)

// Preview is the notification mail a report run would send.
type Preview struct {
	From       string
	To         []string
	CC         []string
	BCC        []string
	Subject    string
	Body       string
	Attachment string

	msg *gomail.Message
}

// EmailPreview builds the run notification of v. The attachment carries no
// content; only its name is previewed.
func EmailPreview(v models.ReportView, now time.Time) (*Preview, error) {
	er := v.EmailReport
	if er == nil || er.Disable {
		return nil, ErrEmailDisabled
	}
	if !er.From.Valid || strings.TrimSpace(er.From.String) == "" {
		return nil, ErrNoSender
	}

	p := &Preview{From: er.From.String}
	for _, el := range v.EmailLists {
		if !el.Address.Valid || el.Address.String == "" {
			continue
		}
		switch strings.ToUpper(el.SendType.String) {
		case "CC":
			p.CC = append(p.CC, el.Address.String)
		case "BCC":
			p.BCC = append(p.BCC, el.Address.String)
		default:
			p.To = append(p.To, el.Address.String)
		}
	}
	if len(p.To)+len(p.CC)+len(p.BCC) == 0 {
		return nil, ErrNoRecipients
	}

	p.Subject = er.Subject.String
	if p.Subject == "" {
		p.Subject = fmt.Sprintf("%s (%s)", v.Name, now.Format("2006-01-02"))
	}
	p.Body = er.Body.String
	if er.Attachment.Valid && er.Attachment.Bool {
		p.Attachment = attachmentName(v, now)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", p.From)
	if len(p.To) > 0 {
		m.SetHeader("To", p.To...)
	}
	if len(p.CC) > 0 {
		m.SetHeader("Cc", p.CC...)
	}
	if len(p.BCC) > 0 {
		m.SetHeader("Bcc", p.BCC...)
	}
	m.SetHeader("Subject", p.Subject)
	m.SetDateHeader("Date", now)
	m.SetBody("text/html", p.Body)
	if p.Attachment != "" {
		m.Attach(p.Attachment, gomail.SetCopyFunc(func(io.Writer) error { return nil }))
	}
	p.msg = m
	return p, nil
}

func attachmentName(v models.ReportView, now time.Time) string {
	name := v.EmailReport.AttachmentName.String
	if name == "" {
		name = v.Name
	}
	if name == "" {
		name = "report-" + now.Format("20060102")
	}
	if zip := v.EmailReport.ZipFile; zip.Valid && zip.Bool && !strings.HasSuffix(strings.ToLower(name), ".zip") {
		name += ".zip"
	}
	return name
}

// WriteTo writes the MIME message.
func (p *Preview) WriteTo(w io.Writer) (int64, error) {
	return p.msg.WriteTo(w)
}

// Mailer delivers previews over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
}

// NewMailer returns nil when no SMTP host is configured.
func NewMailer(cfg config.EmailConfig) *Mailer {
	if cfg.SMTPHost == "" {
		return nil
	}
	return &Mailer{dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password)}
}

func (m *Mailer) Send(p *Preview) error {
	if err := m.dialer.DialAndSend(p.msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
