package notify

import (
	"fmt"
	"strings"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/diamondaura/storefront/config"
	"github.com/diamondaura/storefront/pkg/common"
)

// Mailer sends customer emails for order events
type Mailer struct {
	from string
	send func(msgs ...*gomail.Message) error
}

// NewMailer delivers through the configured SMTP server
func NewMailer(cfg config.MailConfig) *Mailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Passwd)
	return &Mailer{from: cfg.From, send: d.DialAndSend}
}

// NewMailerWithSender delivers through s, tests pass a gomail.SendFunc
func NewMailerWithSender(from string, s gomail.Sender) *Mailer {
	return &Mailer{from: from, send: func(msgs ...*gomail.Message) error {
		return gomail.Send(s, msgs...)
	}}
}

// Subscribe attaches the mailer to the order topics; delivery runs off the request path
func (m *Mailer) Subscribe(bus EventBus.Bus) error {
	if err := bus.SubscribeAsync(TopicOrderPlaced, m.OnOrderPlaced, false); err != nil {
		return err
	}
	return bus.SubscribeAsync(TopicOrderStatusChanged, m.OnOrderStatusChanged, false)
}

func (m *Mailer) OnOrderPlaced(evt OrderPlaced) {
	if common.IsEmptyOrNA(evt.Email) {
		return
	}
	var body strings.Builder
	fmt.Fprintf(&body, "Dear %s,\n\nThank you for shopping with Diamond Aura.\n\n", evt.Name)
	for _, o := range evt.Orders {
		fmt.Fprintf(&body, "%s x %d @ %.2f\n", o.Description, o.Quantity, o.Price)
	}
	fmt.Fprintf(&body, "\nTotal: %s\nPayment: %s\n", evt.Total.StringFixed(2), evt.Method)
	if len(evt.Orders) > 0 {
		fmt.Fprintf(&body, "Ship to: %s\n", evt.Orders[0].Address)
	}
	m.deliver(evt.Email, "Your Diamond Aura order is placed", body.String())
}

func (m *Mailer) OnOrderStatusChanged(evt OrderStatusChanged) {
	if common.IsEmptyOrNA(evt.Email) {
		return
	}
	body := fmt.Sprintf("Dear %s,\n\nYour order for %s is now %s.\n", evt.Name, evt.Order.Description, evt.Order.Status)
	m.deliver(evt.Email, fmt.Sprintf("Order update: %s", evt.Order.Status), body)
}

func (m *Mailer) deliver(to, subject, body string) {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	if err := m.send(msg); err != nil {
		zap.L().Error("send mail failed",
			zap.String("namespace", "notify"),
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return
	}
	zap.L().Info("mail sent",
		zap.String("namespace", "notify"),
		zap.String("to", to),
		zap.String("subject", subject))
}
