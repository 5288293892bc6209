package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/autoteile-schmidt/service-portal-api/config"
	"github.com/autoteile-schmidt/service-portal-api/logger"
	"github.com/autoteile-schmidt/service-portal-api/models"
	"gopkg.in/gomail.v2"
)

// Kind selects the notification template.
type Kind string

const (
	KindContact              Kind = "contact"
	KindB2BRegistration      Kind = "b2b_registration"
	KindMotorInquiry         Kind = "motor_inquiry"
	KindReturn               Kind = "return"
	KindComplaint            Kind = "complaint"
	KindAppointmentRequested Kind = "appointment_requested"
	KindAppointmentConfirmed Kind = "appointment_confirmed"
)

// ErrDeliveryUnknown means the caller stopped waiting while the relay was
// still handling the mail; it may or may not arrive.
var ErrDeliveryUnknown = errors.New("mail delivery outcome unknown")

// Notifier sends a notification for a stored submission.
type Notifier interface {
	Notify(ctx context.Context, kind Kind, payload interface{}) error
}

// NewNotifier returns a mail notifier when SMTP is configured and a no-op
// notifier otherwise.
func NewNotifier(cfg *config.Config, log logger.Logger) Notifier {
	if !cfg.MailConfigured() || cfg.NotifyEmail == "" {
		log.Warn("mail", "SMTP not configured, notifications disabled", nil)
		return NewNoopNotifier(log)
	}
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUsername
	}
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	return NewMailService(dialer, from, cfg.NotifyEmail, log)
}

// MailSender is the part of gomail.Dialer the mail service needs.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// MailService renders one HTML template per kind and sends it to the staff
// inbox. Appointment mails also go to the requester.
type MailService struct {
	sender MailSender
	from   string
	staff  string
	log    logger.Logger
}

func NewMailService(sender MailSender, from, staff string, log logger.Logger) *MailService {
	return &MailService{sender: sender, from: from, staff: staff, log: log}
}

// Notify renders and sends the mail. gomail has no context support, so the
// send runs in a goroutine and ctx only bounds how long Notify waits. A send
// still running when ctx ends is reported as ErrDeliveryUnknown.
func (s *MailService) Notify(ctx context.Context, kind Kind, payload interface{}) error {
	msg, err := s.render(kind, payload)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- s.sender.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send %s mail: %w", kind, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send %s mail: %w: %w", kind, ErrDeliveryUnknown, ctx.Err())
	}
}

func (s *MailService) render(kind Kind, payload interface{}) (*gomail.Message, error) {
	tpl, ok := mailTemplates[kind]
	if !ok {
		return nil, fmt.Errorf("no mail template for %q", kind)
	}

	var body bytes.Buffer
	if err := tpl.body.Execute(&body, payload); err != nil {
		return nil, fmt.Errorf("render %s mail: %w", kind, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	to := []string{s.staff}
	if a, ok := payload.(*models.Appointment); ok && a.Email != "" {
		to = append(to, a.Email)
	}
	m.SetHeader("To", to...)
	m.SetHeader("Subject", tpl.subject)
	m.SetBody("text/html", body.String())
	return m, nil
}

// NoopNotifier is used when no mail transport is configured.
type NoopNotifier struct {
	log logger.Logger
}

func NewNoopNotifier(log logger.Logger) *NoopNotifier {
	return &NoopNotifier{log: log}
}

func (n *NoopNotifier) Notify(ctx context.Context, kind Kind, payload interface{}) error {
	n.log.Warn("mail", "mail transport missing, notification skipped", map[string]interface{}{"kind": string(kind)})
	return nil
}

// Dispatcher sends notifications in the background so a slow or failing
// mail relay never delays the response to the submitter.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	log      logger.Logger
	wg       sync.WaitGroup
}

func NewDispatcher(notifier Notifier, timeout time.Duration, log logger.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{notifier: notifier, timeout: timeout, log: log}
}

// Dispatch queues a notification. Each attempt gets its own timeout; a
// failed attempt is retried once and the outcome is logged. Attempts whose
// delivery is unknown are not retried, so a slow relay never gets the mail twice.
func (d *Dispatcher) Dispatch(kind Kind, payload interface{}) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		var err error
		for attempt := 1; attempt <= 2; attempt++ {
			if err = d.attempt(kind, payload); err == nil {
				d.log.Info("mail", "notification sent", map[string]interface{}{"kind": string(kind), "attempt": attempt})
				return
			}
			if errors.Is(err, ErrDeliveryUnknown) {
				d.log.Warn("mail", "notification outcome unknown, not retried", map[string]interface{}{"kind": string(kind), "attempt": attempt, "error": err})
				return
			}
			d.log.Warn("mail", "notification attempt failed", map[string]interface{}{"kind": string(kind), "attempt": attempt, "error": err})
		}
		d.log.Error("mail", "notification dropped", map[string]interface{}{"kind": string(kind), "error": err})
	}()
}

func (d *Dispatcher) attempt(kind Kind, payload interface{}) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(fmt.Sprint("notifier panic: ", r))
		}
	}()
	return d.notifier.Notify(ctx, kind, payload)
}

// Wait blocks until every dispatched notification has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

type mailTemplate struct {
	subject string
	body    *template.Template
}

var mailTemplates = map[Kind]mailTemplate{
	KindContact: {
		subject: "Neue Kontaktanfrage",
		body: mustTemplate(`<h2>Neue Kontaktanfrage</h2>
<p><strong>Name:</strong> {{.Name}}<br><strong>E-Mail:</strong> {{.Email}}<br><strong>Telefon:</strong> {{.Phone}}</p>
{{if .Subject}}<p><strong>Betreff:</strong> {{.Subject}}</p>{{end}}
<p>{{.Message}}</p>
<p>Vorgangsnummer: {{.ID}}</p>`),
	},
	KindB2BRegistration: {
		subject: "Neue B2B-Registrierung",
		body: mustTemplate(`<h2>Neue B2B-Registrierung</h2>
<p><strong>Firma:</strong> {{.CompanyName}}<br><strong>Ansprechpartner:</strong> {{.ContactPerson}}<br>
<strong>E-Mail:</strong> {{.Email}}<br><strong>Telefon:</strong> {{.Phone}}<br>
<strong>Adresse:</strong> {{.Address}}<br><strong>Geschäftsart:</strong> {{.BusinessType}}</p>
{{if .Message}}<p>{{.Message}}</p>{{end}}
<p>Vorgangsnummer: {{.ID}}</p>`),
	},
	KindMotorInquiry: {
		subject: "Neue Motoranfrage",
		body: mustTemplate(`<h2>Neue Motoranfrage</h2>
<p><strong>Name:</strong> {{.Name}}<br><strong>E-Mail:</strong> {{.Email}}<br><strong>Telefon:</strong> {{.Phone}}</p>
<p><strong>Fahrzeug:</strong> {{.VehicleModel}}{{if .VehicleYear}} ({{.VehicleYear}}){{end}}<br>
{{if .VIN}}<strong>FIN:</strong> {{.VIN}}<br>{{end}}{{if .EngineType}}<strong>Motor:</strong> {{.EngineType}}{{end}}</p>
<p>{{.Description}}</p>
<p>Vorgangsnummer: {{.ID}}</p>`),
	},
	KindReturn: {
		subject: "Neue Retoure",
		body: mustTemplate(`<h2>Neue Retourenanfrage</h2>
<p><strong>Auftrag:</strong> {{.OrderNumber}}<br><strong>Kundennummer:</strong> {{.CustomerNumber}}<br>
<strong>Kunde:</strong> {{.CustomerName}} ({{.Email}})</p>
<p><strong>Verpackung:</strong> {{.PackageCondition}}<br><strong>Produkt:</strong> {{.ProductCondition}}</p>
<ul>{{range .Articles}}<li>{{.Quantity}} x {{.Name}} ({{.ArticleNumber}})</li>{{end}}</ul>
<p>{{.Reason}}</p>
<p>Vorgangsnummer: {{.ID}}</p>`),
	},
	KindComplaint: {
		subject: "Neue Reklamation",
		body: mustTemplate(`<h2>Neue Reklamation</h2>
<p><strong>Kundennummer:</strong> {{.CustomerNumber}}<br><strong>Kunde:</strong> {{.CustomerName}} ({{.Email}}, {{.Phone}})<br>
<strong>Beleg:</strong> {{.ReceiptNumber}}<br><strong>Versand:</strong> {{.DeliveryForm}}<br>
<strong>Gewünschte Abwicklung:</strong> {{.PreferredHandling}}</p>
<ul>{{range .Items}}<li>{{.Quantity}} x {{.ArticleName}} ({{.Manufacturer}} {{.ArticleIndex}})</li>{{end}}</ul>
{{with .VehicleData}}<p><strong>Fahrzeug:</strong> {{.Manufacturer}} {{.Model}}{{if .VIN}}, FIN {{.VIN}}{{end}}</p>{{end}}
<p>{{.Description}}</p>
<p>Anhänge: {{len .Attachments}}</p>
<p>Vorgangsnummer: {{.ID}}</p>`),
	},
	KindAppointmentRequested: {
		subject: "Terminanfrage eingegangen",
		body: mustTemplate(`<h2>Terminanfrage</h2>
<p>{{.Name}} ({{.Email}}) hat einen Termin am <strong>{{.Date}}</strong> angefragt.</p>
<p>Bitte bestätigen Sie den Termin, um ihn verbindlich zu machen.</p>`),
	},
	KindAppointmentConfirmed: {
		subject: "Termin bestätigt",
		body: mustTemplate(`<h2>Termin bestätigt</h2>
<p>Der Termin am <strong>{{.Date}}</strong> für {{.Name}} ({{.Email}}) ist bestätigt.</p>`),
	},
}

func mustTemplate(body string) *template.Template {
	return template.Must(template.New("mail").Parse(body))
}
