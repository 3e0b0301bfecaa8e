// Package queue contains the background consumer that turns booking
// events into customer email: voucher PDFs after payment, invoice PDFs
// after an invoice request.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/fario/flyschool/internal/mail"
	"github.com/fario/flyschool/internal/pdf"
)

// invoiceDueDays is how long bank-transfer customers have to pay.
const invoiceDueDays = 30

// Consumer listens on the booking events queue and sends the matching
// document email per message. Delivery failures reject the message
// without requeue so a bad payload cannot loop forever.
type Consumer struct {
	url        string
	mailer     mail.Mailer
	log        *zap.Logger
	schoolName string
	schoolAddr string
}

// NewConsumer returns a Consumer that connects to the given broker URL.
func NewConsumer(url string, mailer mail.Mailer, log *zap.Logger, schoolName, schoolAddr string) *Consumer {
	return &Consumer{url: url, mailer: mailer, log: log, schoolName: schoolName, schoolAddr: schoolAddr}
}

// Start connects to the broker, declares the durable booking events
// queue and consumes until ctx is cancelled. It runs a reconnect loop
// with capped exponential backoff so a broker restart never takes the
// consumer down with it.
func (c *Consumer) Start(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("booking consumer: dial failed, retrying",
				zap.Error(err), zap.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := c.consumeLoop(ctx, conn); err != nil {
			c.log.Warn("booking consumer: consume loop ended, reconnecting", zap.Error(err))
			_ = conn.Close()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		c.log.Warn("booking consumer: set QoS failed", zap.Error(err))
	}

	if _, err := ch.QueueDeclare(bookingQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(bookingQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(ctx, d.Body); err != nil {
				c.log.Error("booking consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	switch ev.Type {
	case TypeBookingPaid:
		return c.handlePaid(ctx, ev)
	case TypeInvoiceRequested:
		return c.handleInvoiceRequested(ctx, ev)
	default:
		c.log.Warn("booking consumer: unknown event type, dropping", zap.String("type", ev.Type))
		return nil
	}
}

// handlePaid sends the payment confirmation. Voucher bookings get the
// printable voucher attached.
func (c *Consumer) handlePaid(ctx context.Context, ev BookingEvent) error {
	msg := mail.Message{
		To:      ev.CustomerEmail,
		Subject: "Payment received - " + ev.Description,
		Body: fmt.Sprintf("Hello %s\n\nThank you, we received your payment of CHF %d.- for: %s.\n\nTight lines,\n%s\n",
			ev.CustomerName, ev.AmountCHF, ev.Description, c.schoolName),
	}
	if ev.VoucherCode != "" {
		doc, err := pdf.RenderVoucher(pdf.VoucherData{
			Code:       ev.VoucherCode,
			ValueCHF:   ev.VoucherValueCHF,
			Recipient:  ev.VoucherRecipient,
			Message:    ev.VoucherMessage,
			IssuedAt:   parseOccurredAt(ev.OccurredAt),
			SchoolName: c.schoolName,
			SchoolAddr: c.schoolAddr,
		})
		if err != nil {
			return fmt.Errorf("render voucher: %w", err)
		}
		msg.Subject = "Your gift voucher - " + c.schoolName
		msg.Body = fmt.Sprintf("Hello %s\n\nThank you for your purchase. Your gift voucher over CHF %d.- is attached.\nThe code is %s.\n\nTight lines,\n%s\n",
			ev.CustomerName, ev.VoucherValueCHF, ev.VoucherCode, c.schoolName)
		msg.Attachments = append(msg.Attachments, mail.Attachment{
			Filename: "voucher-" + ev.VoucherCode + ".pdf",
			Content:  doc,
		})
	}
	if err := c.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	c.log.Info("booking consumer: payment mail sent",
		zap.String("booking_id", ev.BookingID), zap.String("to", ev.CustomerEmail))
	return nil
}

// handleInvoiceRequested sends the invoice PDF for bank-transfer
// bookings.
func (c *Consumer) handleInvoiceRequested(ctx context.Context, ev BookingEvent) error {
	issued := parseOccurredAt(ev.OccurredAt)
	number := pdf.InvoiceNumber(ev.BookingID, issued)
	doc, err := pdf.RenderInvoice(pdf.InvoiceData{
		Number:       number,
		IssuedAt:     issued,
		DueAt:        issued.AddDate(0, 0, invoiceDueDays),
		CustomerName: ev.CustomerName,
		CustomerMail: ev.CustomerEmail,
		Lines: []pdf.InvoiceLine{{
			Description: ev.Description,
			Quantity:    ev.Quantity,
			UnitCHF:     ev.UnitCHF,
			TotalCHF:    ev.AmountCHF,
		}},
		TotalCHF:   ev.AmountCHF,
		IBAN:       ev.InvoiceIBAN,
		SchoolName: c.schoolName,
		SchoolAddr: c.schoolAddr,
	})
	if err != nil {
		return fmt.Errorf("render invoice: %w", err)
	}
	msg := mail.Message{
		To:      ev.CustomerEmail,
		Subject: "Invoice " + number + " - " + c.schoolName,
		Body: fmt.Sprintf("Hello %s\n\nThank you for your booking: %s.\nThe invoice over CHF %d.- is attached and payable within %d days.\n\nTight lines,\n%s\n",
			ev.CustomerName, ev.Description, ev.AmountCHF, invoiceDueDays, c.schoolName),
		Attachments: []mail.Attachment{{Filename: number + ".pdf", Content: doc}},
	}
	if err := c.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	c.log.Info("booking consumer: invoice mail sent",
		zap.String("booking_id", ev.BookingID), zap.String("invoice", number))
	return nil
}

func parseOccurredAt(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}
