package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strings"
	"time"

	domain "github.com/ali-abouelaish/FleetManager-sub004/internal/domain/notification"
)

const (
	LabelExpired          = "EXPIRED"
	LabelExpiringSoonCaps = "EXPIRING SOON"
	LabelExpiringSoon     = "Expiring Soon"
)

// StatusLabel grades the urgency of an expiry: negative days is EXPIRED,
// 0 to 7 days is EXPIRING SOON, anything later is Expiring Soon.
func StatusLabel(days int) string {
	switch {
	case days < 0:
		return LabelExpired
	case days <= 7:
		return LabelExpiringSoonCaps
	}
	return LabelExpiringSoon
}

// DaysUntil prefers the stored day count and otherwise derives it from the
// expiry date. ok is false when neither is known.
func DaysUntil(n domain.Notification, now time.Time) (days int, ok bool) {
	if n.DaysUntilExpiry != nil {
		return *n.DaysUntilExpiry, true
	}
	if n.ExpiryDate == nil {
		return 0, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	e := n.ExpiryDate.UTC()
	exp := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Round(exp.Sub(today).Hours() / 24)), true
}

func UploadURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/compliance/upload/" + token
}

func BookingURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/compliance/book/" + token
}

var htmlBody = template.Must(template.New("compliance").Parse(`<!doctype html>
<html><body style="font-family:Arial,sans-serif;color:#222">
<h2 style="color:{{if .Expired}}#b00020{{else}}#b26a00{{end}}">{{.Label}}: {{.Certificate}}</h2>
<p>Hello,</p>
<p>The {{.Certificate}} for {{.Subject}} {{if .Expired}}expired{{else}}expires{{end}}{{if .Expiry}} on <strong>{{.Expiry}}</strong>{{end}}{{if .DaysText}} ({{.DaysText}}){{end}}.</p>
<p>Please act on one of the following:</p>
<ul>
<li><a href="{{.UploadURL}}">Upload the renewed document</a></li>
<li><a href="{{.BookingURL}}">Book an appointment</a></li>
</ul>
<p>Until this is resolved the affected vehicle or staff member may be placed on hold.</p>
</body></html>`))

type emailView struct {
	Label       string
	Expired     bool
	Certificate string
	Subject     string
	Expiry      string
	DaysText    string
	UploadURL   string
	BookingURL  string
}

// ComposeEmail renders the compliance email for n. subjectLabel names the
// vehicle or person the certificate belongs to.
func ComposeEmail(n domain.Notification, subjectLabel, baseURL string, now time.Time) (*EmailContent, error) {
	days, known := DaysUntil(n, now)
	label := LabelExpiringSoon
	if known {
		label = StatusLabel(days)
	}

	cert := n.CertificateName
	if cert == "" {
		cert = n.CertificateType
	}
	if cert == "" {
		cert = "compliance certificate"
	}

	v := emailView{
		Label:       label,
		Expired:     label == LabelExpired,
		Certificate: cert,
		Subject:     subjectLabel,
		UploadURL:   UploadURL(baseURL, n.EmailToken),
		BookingURL:  BookingURL(baseURL, n.EmailToken),
	}
	if n.ExpiryDate != nil {
		v.Expiry = n.ExpiryDate.UTC().Format("02 Jan 2006")
	}
	if known {
		v.DaysText = daysText(days)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "%s: %s\n\n", v.Label, v.Certificate)
	fmt.Fprintf(&text, "The %s for %s ", v.Certificate, v.Subject)
	if v.Expired {
		text.WriteString("expired")
	} else {
		text.WriteString("expires")
	}
	if v.Expiry != "" {
		fmt.Fprintf(&text, " on %s", v.Expiry)
	}
	if v.DaysText != "" {
		fmt.Fprintf(&text, " (%s)", v.DaysText)
	}
	text.WriteString(".\n\n")
	fmt.Fprintf(&text, "Upload the renewed document: %s\n", v.UploadURL)
	fmt.Fprintf(&text, "Book an appointment: %s\n", v.BookingURL)

	var html bytes.Buffer
	if err := htmlBody.Execute(&html, v); err != nil {
		return nil, err
	}

	return &EmailContent{
		Subject:     fmt.Sprintf("%s: %s - %s", v.Label, v.Certificate, v.Subject),
		StatusLabel: v.Label,
		Text:        text.String(),
		HTML:        html.String(),
		UploadURL:   v.UploadURL,
		BookingURL:  v.BookingURL,
	}, nil
}

func daysText(days int) string {
	switch {
	case days < -1:
		return fmt.Sprintf("%d days ago", -days)
	case days == -1:
		return "1 day ago"
	case days == 0:
		return "today"
	case days == 1:
		return "in 1 day"
	}
	return fmt.Sprintf("in %d days", days)
}
