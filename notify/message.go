package notify

import (
	"bytes"
	"html/template"
	texttemplate "text/template"

	"github.com/hidenkeys/studios/booking"
)

var smsTemplate = texttemplate.Must(texttemplate.New("sms").Parse(`Нова заявка за резервация!

Студио: {{.Studio}}
Дати: {{.DateRange}}
Цена: {{.TotalPrice}} лв.

Клиент: {{.GuestName}}
Контакт: {{.ContactMethod}} - {{.ContactValue}}`))

var emailTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <h2>Нова заявка за резервация</h2>
  <table cellpadding="4">
    <tr><td><strong>Студио</strong></td><td>{{.Studio}}</td></tr>
    <tr><td><strong>Дати</strong></td><td>{{.DateRange}}</td></tr>
    <tr><td><strong>Цена</strong></td><td>{{.TotalPrice}} лв.</td></tr>
    <tr><td><strong>Клиент</strong></td><td>{{.GuestName}}</td></tr>
    <tr><td><strong>Контакт</strong></td><td>{{.ContactMethod}} - {{.ContactValue}}</td></tr>
  </table>
  <p style="color: #888;">{{.ReservationID}}</p>
</body>
</html>`))

// SMSText renders the staff text message for a new request.
func SMSText(s booking.Summary) (string, error) {
	var buf bytes.Buffer
	if err := smsTemplate.Execute(&buf, s); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func emailBody(s booking.Summary) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, s); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func emailSubject(s booking.Summary) string {
	return "Нова заявка: " + s.Studio + " " + s.DateRange()
}
