package guest

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// Method is a way of reaching a guest.
type Method string

const (
	Viber     Method = "viber"
	WhatsApp  Method = "whatsapp"
	Email     Method = "email"
	Messenger Method = "messenger"
	Phone     Method = "phone"
)

type capability struct {
	needsPhone bool
	needsEmail bool
}

// Messenger handles are derived from the e-mail address, like the admin
// console has always done.
var capabilities = map[Method]capability{
	Viber:     {needsPhone: true},
	WhatsApp:  {needsPhone: true},
	Phone:     {needsPhone: true},
	Email:     {needsEmail: true},
	Messenger: {needsEmail: true},
}

func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := capabilities[m]; !ok {
		return "", fmt.Errorf("unknown contact method %q", s)
	}
	return m, nil
}

func (m Method) Valid() bool {
	_, ok := capabilities[m]
	return ok
}

func (m Method) NeedsPhone() bool { return capabilities[m].needsPhone }

func (m Method) NeedsEmail() bool { return capabilities[m].needsEmail }

// FieldError names the contact field that failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

type Contact struct {
	Name      string   `json:"name"`
	Country   string   `json:"country"`
	PhoneCode string   `json:"phoneCountryCode"`
	Phone     string   `json:"phone"`
	Email     string   `json:"email"`
	Methods   []Method `json:"contactMethods"`
}

// Normalize trims the free-text fields and drops duplicate methods.
func (c Contact) Normalize() Contact {
	c.Name = strings.TrimSpace(c.Name)
	c.Country = strings.TrimSpace(c.Country)
	c.PhoneCode = strings.TrimSpace(c.PhoneCode)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.TrimSpace(c.Email)

	seen := make(map[Method]bool, len(c.Methods))
	methods := make([]Method, 0, len(c.Methods))
	for _, m := range c.Methods {
		if !seen[m] {
			seen[m] = true
			methods = append(methods, m)
		}
	}
	c.Methods = methods
	return c
}

// Validate checks the name and the value each chosen method needs. With
// requireMethod at least one method must be chosen.
func (c Contact) Validate(requireMethod bool) error {
	if c.Name == "" {
		return &FieldError{Field: "name", Reason: "is required"}
	}
	if requireMethod && len(c.Methods) == 0 {
		return &FieldError{Field: "contactMethods", Reason: "choose at least one contact method"}
	}
	for _, m := range c.Methods {
		if !m.Valid() {
			return &FieldError{Field: "contactMethods", Reason: fmt.Sprintf("unknown contact method %q", m)}
		}
		if m.NeedsPhone() && c.Phone == "" {
			return &FieldError{Field: "phone", Reason: fmt.Sprintf("is required for %s", m)}
		}
		if m.NeedsEmail() && !strings.Contains(c.Email, "@") {
			return &FieldError{Field: "email", Reason: fmt.Sprintf("a valid address is required for %s", m)}
		}
	}
	return nil
}

// Reachable reports whether some chosen method has the value it needs.
func (c Contact) Reachable() bool {
	for _, m := range c.Methods {
		if c.Value(m) != "" {
			return true
		}
	}
	return false
}

// PhoneDigits is the dialable number without formatting.
func (c Contact) PhoneDigits() string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, c.PhoneCode+c.Phone)
}

func (c Contact) Value(m Method) string {
	switch {
	case m.NeedsPhone():
		if c.Phone == "" {
			return ""
		}
		return strings.TrimSpace(c.PhoneCode + " " + c.Phone)
	case m.NeedsEmail():
		return c.Email
	}
	return ""
}

// MethodList renders the chosen methods as "viber, email".
func (c Contact) MethodList() string {
	names := make([]string, len(c.Methods))
	for i, m := range c.Methods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// ValueList renders the distinct contact values of the chosen methods.
func (c Contact) ValueList() string {
	var values []string
	seen := map[string]bool{}
	for _, m := range c.Methods {
		v := c.Value(m)
		if v != "" && !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	return strings.Join(values, ", ")
}

type Link struct {
	Method Method `json:"method"`
	URL    string `json:"url"`
}

// Link builds a deep link that opens a conversation with the guest over m,
// prefilled with message when the channel supports it.
func (c Contact) Link(m Method, subject, message string) (Link, bool) {
	if c.Value(m) == "" {
		return Link{}, false
	}
	text := escape(message)
	var u string
	switch m {
	case Viber:
		u = "viber://chat?number=" + c.PhoneDigits()
		if message != "" {
			u += "&text=" + text
		}
	case WhatsApp:
		u = "https://wa.me/" + c.PhoneDigits()
		if message != "" {
			u += "?text=" + text
		}
	case Phone:
		u = "tel:+" + c.PhoneDigits()
	case Email:
		u = "mailto:" + c.Email
		if message != "" {
			u += "?subject=" + escape(subject) + "&body=" + text
		}
	case Messenger:
		handle, _, _ := strings.Cut(c.Email, "@")
		u = "https://m.me/" + url.PathEscape(handle)
	default:
		return Link{}, false
	}
	return Link{Method: m, URL: u}, true
}

// Links returns a link for every reachable method.
func (c Contact) Links(subject, message string) []Link {
	var links []Link
	for _, m := range c.Methods {
		if l, ok := c.Link(m, subject, message); ok {
			links = append(links, l)
		}
	}
	return links
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
