package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"

	"github.com/hidenkeys/studios/booking"
	"github.com/hidenkeys/studios/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSummary() booking.Summary {
	return booking.Summary{
		ReservationID: "4f6c1a52-1111-4e57-9b1e-000000000001",
		Studio:        "Sea View",
		CheckIn:       "01.06.2025",
		CheckOut:      "04.06.2025",
		TotalPrice:    240,
		GuestName:     "Ivan Petrov",
		ContactMethod: "viber",
		ContactValue:  "+359888123456",
	}
}

func TestSMSText(t *testing.T) {
	text, err := SMSText(testSummary())
	require.NoError(t, err)
	assert.Equal(t, `Нова заявка за резервация!

Студио: Sea View
Дати: 01.06.2025 - 04.06.2025
Цена: 240 лв.

Клиент: Ivan Petrov
Контакт: viber - +359888123456`, text)
}

func TestTwilio_PostsMessage(t *testing.T) {
	var got struct {
		path, user, pass string
		form             map[string]string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got.path = r.URL.Path
		got.user, got.pass, _ = r.BasicAuth()
		got.form = map[string]string{"To": r.PostForm.Get("To"), "From": r.PostForm.Get("From"), "Body": r.PostForm.Get("Body")}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM123"}`))
	}))
	defer srv.Close()

	tw := NewTwilio(config.Twilio{AccountSID: "AC1", AuthToken: "tok", From: "+15550001", To: "+359888000000"})
	tw.baseURL = srv.URL

	require.NoError(t, tw.Notify(context.Background(), testSummary()))
	assert.Equal(t, "/2010-04-01/Accounts/AC1/Messages.json", got.path)
	assert.Equal(t, "AC1", got.user)
	assert.Equal(t, "tok", got.pass)
	assert.Equal(t, "+359888000000", got.form["To"])
	assert.Equal(t, "+15550001", got.form["From"])
	assert.Contains(t, got.form["Body"], "Студио: Sea View")
}

func TestTwilio_ReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":20003,"message":"Authenticate"}`))
	}))
	defer srv.Close()

	tw := NewTwilio(config.Twilio{AccountSID: "AC1", AuthToken: "bad", From: "a", To: "b"})
	tw.baseURL = srv.URL

	err := tw.Notify(context.Background(), testSummary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Authenticate")
	assert.Contains(t, err.Error(), "20003")
}

func TestEmail_SendsHTML(t *testing.T) {
	var addr, from string
	var to []string
	var msg string
	e := NewEmail(config.SMTP{Host: "smtp.example.com", Port: 587, User: "bot@example.com", Password: "pw", To: "staff@example.com"})
	e.send = func(a string, _ smtp.Auth, f string, t []string, m []byte) error {
		addr, from, to, msg = a, f, t, string(m)
		return nil
	}

	require.NoError(t, e.Notify(context.Background(), testSummary()))
	assert.Equal(t, "smtp.example.com:587", addr)
	assert.Equal(t, "bot@example.com", from)
	assert.Equal(t, []string{"staff@example.com"}, to)
	assert.Contains(t, msg, "Subject: Нова заявка: Sea View 01.06.2025 - 04.06.2025")
	assert.Contains(t, msg, "text/html")
	assert.Contains(t, msg, "<td>Ivan Petrov</td>")
}

func TestEmail_EscapesGuestInput(t *testing.T) {
	var msg string
	e := NewEmail(config.SMTP{Host: "localhost", Port: 25, To: "staff@example.com"})
	e.send = func(_ string, _ smtp.Auth, _ string, _ []string, m []byte) error {
		msg = string(m)
		return nil
	}
	s := testSummary()
	s.GuestName = "<script>x</script>"
	require.NoError(t, e.Notify(context.Background(), s))
	assert.False(t, strings.Contains(msg, "<script>"))
}

func TestMulti_DeliversToAllAndJoinsErrors(t *testing.T) {
	calls := 0
	ok := booking.NotifierFunc(func(context.Context, booking.Summary) error { calls++; return nil })
	boom := errors.New("boom")
	failing := booking.NotifierFunc(func(context.Context, booking.Summary) error { calls++; return boom })

	err := Multi{failing, ok}.Notify(context.Background(), testSummary())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)

	assert.NoError(t, Multi{ok}.Notify(context.Background(), testSummary()))
}

func TestFromConfig(t *testing.T) {
	n := FromConfig(config.Config{})
	assert.NoError(t, n.Notify(context.Background(), testSummary()))

	n = FromConfig(config.Config{
		Twilio: config.Twilio{AccountSID: "a", AuthToken: "b", From: "c", To: "d"},
		SMTP:   config.SMTP{Host: "h", To: "t@example.com"},
	})
	m, ok := n.(Multi)
	require.True(t, ok)
	assert.Len(t, m, 2)
}
