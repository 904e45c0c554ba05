// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mailer sends contact notifications over SMTP using the email
// settings stored in the database.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"sync"

	"github.com/jordan-wright/email"

	"github.com/olegiv/wpbridge/internal/model"
	"github.com/olegiv/wpbridge/internal/store"
)

// ErrDisabled is returned when email settings are disabled or incomplete.
var ErrDisabled = errors.New("email notifications are disabled")

// SettingsSource reads the current SMTP configuration.
type SettingsSource interface {
	GetEmailSettings(ctx context.Context) (store.EmailSettings, error)
}

// SendFunc delivers a message. It matches (*email.Email).Send.
type SendFunc func(e *email.Email, addr string, auth smtp.Auth) error

func smtpSend(e *email.Email, addr string, auth smtp.Auth) error {
	return e.Send(addr, auth)
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithSendFunc replaces SMTP delivery, for tests.
func WithSendFunc(f SendFunc) Option {
	return func(m *Mailer) { m.send = f }
}

// Mailer builds and sends notification mail.
type Mailer struct {
	settings SettingsSource
	send     SendFunc
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// New creates a Mailer.
func New(settings SettingsSource, logger *slog.Logger, opts ...Option) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mailer{settings: settings, send: smtpSend, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mailer) config(ctx context.Context) (store.EmailSettings, error) {
	s, err := m.settings.GetEmailSettings(ctx)
	if err != nil {
		return s, fmt.Errorf("loading email settings: %w", err)
	}
	if !s.Enabled || s.SMTPHost == "" || s.FromAddress == "" {
		return s, ErrDisabled
	}
	return s, nil
}

func (m *Mailer) deliver(s store.EmailSettings, e *email.Email) error {
	e.From = s.FromAddress
	if s.FromName != "" {
		e.From = fmt.Sprintf("%s <%s>", s.FromName, s.FromAddress)
	}

	addr := net.JoinHostPort(s.SMTPHost, strconv.FormatInt(s.SMTPPort, 10))
	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.SMTPHost)
	}
	if err := m.send(e, addr, auth); err != nil {
		return fmt.Errorf("sending mail via %s: %w", addr, err)
	}
	return nil
}

// NotifyContact mails a new lead to the notify address (or the sender
// address when none is set). Replies go to the visitor.
func (m *Mailer) NotifyContact(ctx context.Context, c store.Contact) error {
	s, err := m.config(ctx)
	if err != nil {
		return err
	}

	to := s.NotifyAddress
	if to == "" {
		to = s.FromAddress
	}

	e := &email.Email{
		To:      []string{to},
		ReplyTo: []string{c.Email},
		Subject: contactSubject(c),
		Text:    []byte(contactText(c)),
		HTML:    []byte(contactHTML(c)),
		Headers: textproto.MIMEHeader{},
	}
	e.Headers.Set("X-Contact-Reference", c.Reference)
	return m.deliver(s, e)
}

// NotifyContactAsync sends the notification in the background. Failures
// other than ErrDisabled are logged as warnings.
func (m *Mailer) NotifyContactAsync(ctx context.Context, c store.Contact) {
	ctx = context.WithoutCancel(ctx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		err := m.NotifyContact(ctx, c)
		switch {
		case err == nil:
			m.logger.Info("contact notification sent", "reference", c.Reference)
		case errors.Is(err, ErrDisabled):
			m.logger.Debug("contact notification skipped", "reference", c.Reference)
		default:
			m.logger.Warn("contact notification failed", "reference", c.Reference, "error", err,
				"category", model.EventCategoryMail)
		}
	}()
}

// SendTest sends a short message to verify the SMTP settings.
func (m *Mailer) SendTest(ctx context.Context, to string) error {
	s, err := m.config(ctx)
	if err != nil {
		return err
	}
	e := &email.Email{
		To:      []string{to},
		Subject: "wpbridge test message",
		Text:    []byte("Your SMTP settings work.\n"),
	}
	return m.deliver(s, e)
}

// Wait blocks until background notifications finish.
func (m *Mailer) Wait() {
	m.wg.Wait()
}

func contactSubject(c store.Contact) string {
	if c.Company != "" {
		return fmt.Sprintf("New contact: %s (%s)", oneLine(c.Name), oneLine(c.Company))
	}
	return "New contact: " + oneLine(c.Name)
}

type field struct{ label, value string }

func contactFields(c store.Contact) []field {
	fields := []field{
		{"Reference", c.Reference},
		{"Name", c.Name},
		{"Email", c.Email},
		{"Company", c.Company},
		{"Phone", c.Phone},
		{"Service", c.Service},
		{"Budget", c.Budget},
		{"Country", c.Country},
		{"Device", strings.TrimSpace(c.DeviceType + " " + c.Browser + " " + c.OS)},
	}
	out := fields[:0]
	for _, f := range fields {
		if f.value != "" {
			out = append(out, f)
		}
	}
	return out
}

func contactText(c store.Contact) string {
	var b strings.Builder
	for _, f := range contactFields(c) {
		fmt.Fprintf(&b, "%s: %s\n", f.label, f.value)
	}
	b.WriteString("\n")
	b.WriteString(c.Message)
	b.WriteString("\n")
	return b.String()
}

func contactHTML(c store.Contact) string {
	var b strings.Builder
	b.WriteString("<table>")
	for _, f := range contactFields(c) {
		fmt.Fprintf(&b, "<tr><th align=\"left\">%s</th><td>%s</td></tr>", f.label, html.EscapeString(f.value))
	}
	b.WriteString("</table><p>")
	b.WriteString(strings.ReplaceAll(html.EscapeString(c.Message), "\n", "<br>"))
	b.WriteString("</p>")
	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
