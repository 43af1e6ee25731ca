package notifications

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	tmplAuthCode        = "auth_code.html"
	tmplSaleStarted     = "sale_started.html"
	tmplEstimation      = "estimation.html"
	tmplReminder        = "reminder.html"
	tmplClientFound     = "client_found.html"
	tmplPaymentReceived = "payment_received.html"
)

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type emailData struct {
	Subject       string
	Name          string
	RecordID      string
	Vehicle       string
	Code          string
	CodeMinutes   int
	Price         string
	Message       string
	Conditions    string
	ValidUntil    string
	DaysRemaining int
	Fee           string
	PaymentID     string
	Provider      string
	AuthURL       string
	EstimationURL string
	DashboardURL  string
}

func render(name string, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}
