package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"sync"
	"testing"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/wpbridge/internal/store"
	"github.com/olegiv/wpbridge/internal/testutil"
)

type staticSettings struct {
	s   store.EmailSettings
	err error
}

func (s staticSettings) GetEmailSettings(context.Context) (store.EmailSettings, error) {
	return s.s, s.err
}

type recorder struct {
	mu    sync.Mutex
	sent  []*email.Email
	addrs []string
	auths []smtp.Auth
	err   error
}

func (r *recorder) send(e *email.Email, addr string, auth smtp.Auth) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, e)
	r.addrs = append(r.addrs, addr)
	r.auths = append(r.auths, auth)
	return r.err
}

var enabled = store.EmailSettings{
	Enabled:       true,
	SMTPHost:      "smtp.example.com",
	SMTPPort:      587,
	Username:      "mailer",
	Password:      "secret",
	FromAddress:   "noreply@example.com",
	FromName:      "Agency Site",
	NotifyAddress: "sales@example.com",
}

var contact = store.Contact{
	Reference: "9f0c2a3e",
	Name:      "Ada\nLovelace",
	Email:     "ada@example.com",
	Company:   "Engines <Ltd>",
	Message:   "Hello\nWe need a site.",
	Browser:   "Firefox",
	OS:        "Linux",
}

func TestNotifyContact(t *testing.T) {
	rec := &recorder{}
	m := New(staticSettings{s: enabled}, testutil.DiscardLogger(), WithSendFunc(rec.send))

	require.NoError(t, m.NotifyContact(context.Background(), contact))
	require.Len(t, rec.sent, 1)

	e := rec.sent[0]
	assert.Equal(t, []string{"sales@example.com"}, e.To)
	assert.Equal(t, []string{"ada@example.com"}, e.ReplyTo)
	assert.Equal(t, "Agency Site <noreply@example.com>", e.From)
	assert.Equal(t, "New contact: Ada Lovelace (Engines <Ltd>)", e.Subject)
	assert.Equal(t, "9f0c2a3e", e.Headers.Get("X-Contact-Reference"))
	assert.Contains(t, string(e.Text), "We need a site.")
	assert.Contains(t, string(e.HTML), "Engines &lt;Ltd&gt;")
	assert.Contains(t, string(e.HTML), "Hello<br>We need a site.")
	assert.NotContains(t, string(e.Text), "Phone:", "empty fields are omitted")
	assert.Equal(t, "smtp.example.com:587", rec.addrs[0])
	assert.NotNil(t, rec.auths[0])
}

func TestNotifyContact_FallsBackToFromAddress(t *testing.T) {
	rec := &recorder{}
	s := enabled
	s.NotifyAddress = ""
	s.Username = ""
	m := New(staticSettings{s: s}, testutil.DiscardLogger(), WithSendFunc(rec.send))

	require.NoError(t, m.NotifyContact(context.Background(), contact))
	assert.Equal(t, []string{"noreply@example.com"}, rec.sent[0].To)
	assert.Nil(t, rec.auths[0], "no auth without a username")
}

func TestNotifyContact_Disabled(t *testing.T) {
	for name, s := range map[string]store.EmailSettings{
		"disabled": {SMTPHost: "smtp.example.com", FromAddress: "a@example.com"},
		"no host":  {Enabled: true, FromAddress: "a@example.com"},
		"no from":  {Enabled: true, SMTPHost: "smtp.example.com"},
	} {
		t.Run(name, func(t *testing.T) {
			rec := &recorder{}
			m := New(staticSettings{s: s}, testutil.DiscardLogger(), WithSendFunc(rec.send))
			assert.ErrorIs(t, m.NotifyContact(context.Background(), contact), ErrDisabled)
			assert.Empty(t, rec.sent)
		})
	}
}

func TestNotifyContact_Errors(t *testing.T) {
	m := New(staticSettings{err: errors.New("no such table")}, testutil.DiscardLogger())
	assert.ErrorContains(t, m.NotifyContact(context.Background(), contact), "loading email settings")

	rec := &recorder{err: errors.New("535 auth failed")}
	m = New(staticSettings{s: enabled}, testutil.DiscardLogger(), WithSendFunc(rec.send))
	err := m.NotifyContact(context.Background(), contact)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "smtp.example.com:587"))
}

func TestNotifyContactAsync(t *testing.T) {
	rec := &recorder{}
	m := New(staticSettings{s: enabled}, testutil.DiscardLogger(), WithSendFunc(rec.send))

	ctx, cancel := context.WithCancel(context.Background())
	m.NotifyContactAsync(ctx, contact)
	cancel()
	m.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Len(t, rec.sent, 1, "request cancellation must not drop the notification")
}

func TestSendTest(t *testing.T) {
	rec := &recorder{}
	m := New(staticSettings{s: enabled}, testutil.DiscardLogger(), WithSendFunc(rec.send))

	require.NoError(t, m.SendTest(context.Background(), "ops@example.com"))
	assert.Equal(t, []string{"ops@example.com"}, rec.sent[0].To)
}
