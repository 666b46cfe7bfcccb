package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	appbilling "github.com/Nitish8696/flatgurugram/internal/application/billing"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/config"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// BillIssuedSubject is the subject line of new-bill notices
const BillIssuedSubject = "New Bill Generated"

// Sender delivers composed messages; *gomail.Dialer satisfies it
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailNotifier sends bill notices over SMTP
type EmailNotifier struct {
	sender Sender
	from   string
	logger *zap.Logger
}

// NewEmailNotifier creates a notifier that dials the configured SMTP server per message
func NewEmailNotifier(cfg config.MailConfig, logger *zap.Logger) *EmailNotifier {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return NewEmailNotifierWithSender(dialer, cfg.From, logger)
}

// NewEmailNotifierWithSender creates a notifier around an existing sender
func NewEmailNotifierWithSender(sender Sender, from string, logger *zap.Logger) *EmailNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailNotifier{sender: sender, from: from, logger: logger}
}

var billIssuedTemplate = template.Must(template.New("bill_issued").Parse(`<p>Dear {{.Name}},</p>
<p>A new {{.BillType}} bill has been generated for flat {{.FlatNumber}}.</p>
<p>Amount due: <strong>{{.Amount}}</strong></p>
<p>Due date: <strong>{{.DueDate}}</strong></p>
<p>Please log in to pay before the due date.</p>`))

type billIssuedView struct {
	Name       string
	FlatNumber string
	BillType   string
	Amount     string
	DueDate    string
}

// NotifyBillIssued implements appbilling.Notifier
func (n *EmailNotifier) NotifyBillIssued(ctx context.Context, notice appbilling.BillNotice) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name := notice.RecipientName
	if name == "" {
		name = "Resident"
	}
	var body bytes.Buffer
	err := billIssuedTemplate.Execute(&body, billIssuedView{
		Name:       name,
		FlatNumber: notice.FlatNumber,
		BillType:   notice.BillType.String(),
		Amount:     notice.TotalAmount.StringFixed(2),
		DueDate:    notice.DueDate.Format("02 Jan 2006"),
	})
	if err != nil {
		return fmt.Errorf("failed to render bill notice: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", notice.RecipientEmail)
	m.SetHeader("Subject", BillIssuedSubject)
	m.SetBody("text/html", body.String())

	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send bill notice: %w", err)
	}
	n.logger.Debug("bill notice sent",
		zap.String("flat_number", notice.FlatNumber),
		zap.String("bill_type", notice.BillType.String()))
	return nil
}

// LogNotifier logs notices instead of sending them; used when mail is disabled
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// NotifyBillIssued implements appbilling.Notifier
func (n *LogNotifier) NotifyBillIssued(_ context.Context, notice appbilling.BillNotice) error {
	n.logger.Info("bill notice (mail disabled)",
		zap.String("flat_number", notice.FlatNumber),
		zap.String("bill_type", notice.BillType.String()),
		zap.String("total_amount", notice.TotalAmount.StringFixed(2)))
	return nil
}

var (
	_ appbilling.Notifier = (*EmailNotifier)(nil)
	_ appbilling.Notifier = (*LogNotifier)(nil)
)
