package mailer

import (
	"fmt"
	"log"

	gomail "gopkg.in/gomail.v2"
)

// Mailer sends transactional order emails. A nil Mailer (no SMTP host
// configured) silently drops every send, so callers never branch on it.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(host string, port int, username, password, from string) *Mailer {
	if host == "" {
		log.Println("[MAIL] no smtp host configured, email disabled")
		return nil
	}
	return &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *Mailer) send(to, subject, htmlBody string) {
	if m == nil {
		return
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		log.Printf("[MAIL] failed to send %q to %s: %v", subject, to, err)
		return
	}
	log.Printf("[MAIL] sent %q to %s", subject, to)
}

// SendOrderConfirmation is fire-and-forget: call it in a goroutine so a slow
// SMTP server never delays the checkout response.
func (m *Mailer) SendOrderConfirmation(to, name, orderID string, totalPrice float64) {
	body := fmt.Sprintf(`
		<h2>Thank you for your order, %s!</h2>
		<p>Your order <strong>%s</strong> has been received.</p>
		<p>Order total: <strong>%.2f</strong></p>
		<p>We will let you know as soon as it ships.</p>`,
		name, orderID, totalPrice)
	m.send(to, "Order confirmation", body)
}

func (m *Mailer) SendOrderCancellation(to, name, orderID, reason string) {
	body := fmt.Sprintf(`
		<h2>Your order has been cancelled</h2>
		<p>Hi %s, order <strong>%s</strong> was cancelled.</p>
		<p>Reason: %s</p>
		<p>If you paid for this order the amount will be refunded.</p>`,
		name, orderID, reason)
	m.send(to, "Order cancelled", body)
}
