package guest

import (
	"bytes"
	"strings"
	"text/template"
	"time"
)

const dateLayout = "02.01.2006"

type Proposal struct {
	GuestName string
	Studio    string
	CheckIn   time.Time
	CheckOut  time.Time
}

type proposalTemplate struct {
	subject string
	body    *template.Template
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format(dateLayout) },
}

func mustProposal(subject, body string) proposalTemplate {
	return proposalTemplate{
		subject: subject,
		body:    template.Must(template.New(subject).Funcs(funcs).Parse(body)),
	}
}

var defaultProposal = mustProposal("Alternative dates for your reservation",
	`Hello {{.GuestName}},

We would like to propose alternative dates for your reservation at {{.Studio}}:

Check-in: {{date .CheckIn}}
Check-out: {{date .CheckOut}}

Please let us know if these dates suit you.

Best regards,`)

// Keyed by the country name the guest picked, as stored on the reservation.
var proposals = map[string]proposalTemplate{
	"България": mustProposal("Предложение за алтернативни дати",
		`Здравейте {{.GuestName}},

Бихме искали да Ви предложим алтернативни дати за Вашата резервация в {{.Studio}}:

Настаняване: {{date .CheckIn}}
Напускане: {{date .CheckOut}}

Моля, уведомете ни дали тези дати Ви подхождат.

Поздрави,`),
	"Ελλάδα": mustProposal("Εναλλακτικές ημερομηνίες για την κράτησή σας",
		`Γεια σας {{.GuestName}},

Θα θέλαμε να σας προτείνουμε εναλλακτικές ημερομηνίες για την κράτησή σας στο {{.Studio}}:

Check-in: {{date .CheckIn}}
Check-out: {{date .CheckOut}}

Παρακαλούμε ενημερώστε μας αν αυτές οι ημερομηνίες σας ταιριάζουν.

Με εκτίμηση,`),
	"România": mustProposal("Date alternative pentru rezervarea dvs.",
		`Bună ziua {{.GuestName}},

Am dori să vă propunem date alternative pentru rezervarea dvs. la {{.Studio}}:

Check-in: {{date .CheckIn}}
Check-out: {{date .CheckOut}}

Vă rugăm să ne anunțați dacă aceste date vă convin.

Cu stimă,`),
}

var countryAliases = map[string]string{
	"bg": "България", "bulgaria": "България",
	"gr": "Ελλάδα", "el": "Ελλάδα", "greece": "Ελλάδα",
	"ro": "România", "romania": "România",
}

func lookupProposal(country string) proposalTemplate {
	if t, ok := proposals[country]; ok {
		return t
	}
	if name, ok := countryAliases[strings.ToLower(strings.TrimSpace(country))]; ok {
		return proposals[name]
	}
	return defaultProposal
}

// ProposalMessage renders the alternative-dates message in the language of
// the guest's country and returns it with a matching e-mail subject.
func ProposalMessage(country string, p Proposal) (subject, body string, err error) {
	t := lookupProposal(country)
	var buf bytes.Buffer
	if err := t.body.Execute(&buf, p); err != nil {
		return "", "", err
	}
	return t.subject, buf.String(), nil
}
