package guest

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod(" WhatsApp ")
	require.NoError(t, err)
	assert.Equal(t, WhatsApp, m)

	_, err = ParseMethod("telegram")
	assert.Error(t, err)
}

func TestCapabilities(t *testing.T) {
	for _, m := range []Method{Viber, WhatsApp, Phone} {
		assert.True(t, m.NeedsPhone(), m)
		assert.False(t, m.NeedsEmail(), m)
	}
	for _, m := range []Method{Email, Messenger} {
		assert.True(t, m.NeedsEmail(), m)
		assert.False(t, m.NeedsPhone(), m)
	}
}

func TestContact_Validate(t *testing.T) {
	cases := []struct {
		name    string
		contact Contact
		require bool
		field   string
	}{
		{"missing name", Contact{Methods: []Method{Email}, Email: "a@b.c"}, true, "name"},
		{"no methods", Contact{Name: "Ivan"}, true, "contactMethods"},
		{"no methods allowed for staff", Contact{Name: "Ivan"}, false, ""},
		{"viber without phone", Contact{Name: "Ivan", Methods: []Method{Viber}}, true, "phone"},
		{"email without at", Contact{Name: "Ivan", Methods: []Method{Email}, Email: "ivan"}, true, "email"},
		{"messenger needs email", Contact{Name: "Ivan", Methods: []Method{Messenger}, Phone: "888"}, false, "email"},
		{"unknown method", Contact{Name: "Ivan", Methods: []Method{"pigeon"}}, true, "contactMethods"},
		{"ok", Contact{Name: "Ivan", Methods: []Method{Viber, Email}, Phone: "888123456", Email: "ivan@example.com"}, true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.contact.Validate(tc.require)
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var fe *FieldError
			require.True(t, errors.As(err, &fe), "got %v", err)
			assert.Equal(t, tc.field, fe.Field)
		})
	}
}

func TestContact_NormalizeAndLists(t *testing.T) {
	c := Contact{
		Name:      "  Maria ",
		PhoneCode: "+30",
		Phone:     " 691 234 5678",
		Email:     "maria@example.com",
		Methods:   []Method{Viber, WhatsApp, Viber, Email},
	}.Normalize()

	assert.Equal(t, "Maria", c.Name)
	assert.Equal(t, []Method{Viber, WhatsApp, Email}, c.Methods)
	assert.Equal(t, "viber, whatsapp, email", c.MethodList())
	assert.Equal(t, "+30 691 234 5678, maria@example.com", c.ValueList())
	assert.Equal(t, "306912345678", c.PhoneDigits())
	assert.True(t, c.Reachable())
	assert.False(t, Contact{Name: "x", Methods: []Method{Viber}}.Reachable())
}

func TestContact_Links(t *testing.T) {
	c := Contact{
		Name:      "Ivan",
		PhoneCode: "+359",
		Phone:     "888 123 456",
		Email:     "ivan.petrov@example.com",
		Methods:   []Method{Viber, WhatsApp, Email, Messenger, Phone},
	}

	links := c.Links("Dates", "Hello Ivan")
	require.Len(t, links, 5)
	assert.Equal(t, "viber://chat?number=359888123456&text=Hello%20Ivan", links[0].URL)
	assert.Equal(t, "https://wa.me/359888123456?text=Hello%20Ivan", links[1].URL)
	assert.Equal(t, "mailto:ivan.petrov@example.com?subject=Dates&body=Hello%20Ivan", links[2].URL)
	assert.Equal(t, "https://m.me/ivan.petrov", links[3].URL)
	assert.Equal(t, "tel:+359888123456", links[4].URL)

	_, ok := Contact{Name: "x"}.Link(Viber, "", "")
	assert.False(t, ok)
}

func TestProposalMessage(t *testing.T) {
	p := Proposal{
		GuestName: "Ivan",
		Studio:    "Studio Sea",
		CheckIn:   time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:  time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC),
	}

	subject, body, err := ProposalMessage("България", p)
	require.NoError(t, err)
	assert.Equal(t, "Предложение за алтернативни дати", subject)
	assert.True(t, strings.HasPrefix(body, "Здравейте Ivan,"))
	assert.Contains(t, body, "Настаняване: 10.06.2025")
	assert.Contains(t, body, "Напускане: 15.06.2025")

	_, body, err = ProposalMessage("ro", p)
	require.NoError(t, err)
	assert.Contains(t, body, "Bună ziua Ivan")

	_, body, err = ProposalMessage("Deutschland", p)
	require.NoError(t, err)
	assert.Contains(t, body, "We would like to propose alternative dates for your reservation at Studio Sea")
}
