// Package notification turns sale events into client-facing messages.
package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/sales"
	"github.com/solarerp/backend/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Template names
const (
	TemplateSaleRealized    = "sale_realized"
	TemplateInstallmentPaid = "installment_paid"
	TemplateSaleCompleted   = "sale_completed"
	TemplateSaleCancelled   = "sale_cancelled"
)

// Notification is one message addressed to a client
type Notification struct {
	TenantID uuid.UUID `json:"tenant_id"`
	ClientID uuid.UUID `json:"client_id"`
	Template string    `json:"template"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	EventID  uuid.UUID `json:"event_id"`
}

// Sender delivers notifications over some channel
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// SaleEventHandler notifies clients about their sales. Delivery failures are
// logged and swallowed so they never fail the business operation.
type SaleEventHandler struct {
	sender  Sender
	printer *message.Printer
	logger  *zap.Logger
}

// NewSaleEventHandler creates a handler writing amounts in the given locale
func NewSaleEventHandler(sender Sender, locale string, logger *zap.Logger) *SaleEventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.BrazilianPortuguese
	}
	return &SaleEventHandler{sender: sender, printer: message.NewPrinter(tag), logger: logger}
}

// EventTypes returns the sale events that produce notifications
func (h *SaleEventHandler) EventTypes() []string {
	return []string{
		sales.EventTypeSaleRealized,
		sales.EventTypeInstallmentPaid,
		sales.EventTypeSaleCompleted,
		sales.EventTypeSaleCancelled,
	}
}

// Handle renders and sends the notification for one event
func (h *SaleEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	n, ok := h.render(event)
	if !ok {
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	n.TenantID = event.TenantID()
	n.EventID = event.EventID()

	if err := h.sender.Send(ctx, n); err != nil {
		h.logger.Error("failed to send notification",
			zap.String("template", n.Template),
			zap.String("client_id", n.ClientID.String()),
			zap.Error(err))
		return nil
	}
	h.logger.Debug("notification sent",
		zap.String("template", n.Template),
		zap.String("client_id", n.ClientID.String()))
	return nil
}

func (h *SaleEventHandler) render(event shared.DomainEvent) (Notification, bool) {
	switch e := event.(type) {
	case *sales.SaleRealizedEvent:
		return Notification{
			ClientID: e.ClientID,
			Template: TemplateSaleRealized,
			Subject:  h.printer.Sprintf("Sale %s confirmed", e.SaleNumber),
			Body: h.printer.Sprintf("Your purchase %s of %s was confirmed in %d payment(s).",
				e.SaleNumber, h.Money(e.TotalAmount), len(e.Schedule)),
		}, true
	case *sales.InstallmentPaidEvent:
		label := h.printer.Sprintf("installment %d", e.InstallmentIndex)
		if e.IsEntry {
			label = "entry"
		}
		return Notification{
			ClientID: e.ClientID,
			Template: TemplateInstallmentPaid,
			Subject:  h.printer.Sprintf("Payment received for %s", e.SaleNumber),
			Body:     h.printer.Sprintf("We received %s for the %s of sale %s.", h.Money(e.Amount), label, e.SaleNumber),
		}, true
	case *sales.SaleCompletedEvent:
		return Notification{
			ClientID: e.ClientID,
			Template: TemplateSaleCompleted,
			Subject:  h.printer.Sprintf("Sale %s fully paid", e.SaleNumber),
			Body:     h.printer.Sprintf("Sale %s is settled. Total paid: %s.", e.SaleNumber, h.Money(e.TotalAmount)),
		}, true
	case *sales.SaleCancelledEvent:
		body := h.printer.Sprintf("Sale %s was cancelled.", e.SaleNumber)
		if e.Reason != "" {
			body = h.printer.Sprintf("Sale %s was cancelled: %s.", e.SaleNumber, e.Reason)
		}
		return Notification{
			ClientID: e.ClientID,
			Template: TemplateSaleCancelled,
			Subject:  h.printer.Sprintf("Sale %s cancelled", e.SaleNumber),
			Body:     body,
		}, true
	}
	return Notification{}, false
}

// Money formats an amount with the printer's digit grouping, e.g. R$ 1.234,50 in pt-BR
func (h *SaleEventHandler) Money(amount decimal.Decimal) string {
	return h.printer.Sprintf("R$ %.2f", amount.Round(sales.AmountPlaces).InexactFloat64())
}

var _ shared.EventHandler = (*SaleEventHandler)(nil)
