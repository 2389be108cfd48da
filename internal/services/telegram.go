package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/grocer/internal/models"
)

const telegramAPI = "https://api.telegram.org"

// TelegramNotifier posts new orders to the admin chat.
type TelegramNotifier struct {
	baseURL     string
	botToken    string
	adminChatID string
	client      *http.Client
	lg          *zap.Logger
}

// NewTelegramNotifier creates a TelegramNotifier. With an empty token or
// chat id every call is a no-op.
func NewTelegramNotifier(botToken, adminChatID string, lg *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		baseURL:     telegramAPI,
		botToken:    botToken,
		adminChatID: adminChatID,
		client:      &http.Client{Timeout: 5 * time.Second},
		lg:          lg.Named("telegram"),
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends an HTML message to chatID.
func (n *TelegramNotifier) SendMessage(ctx context.Context, chatID, text string) error {
	if n.botToken == "" || chatID == "" {
		n.lg.Debug("Telegram not configured, skipping message")
		return nil
	}

	body, err := json.Marshal(telegramMessage{ChatID: chatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "send telegram message")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

// OrderPlaced sends the order summary to the admin chat.
func (n *TelegramNotifier) OrderPlaced(ctx context.Context, order *models.Order) error {
	return n.SendMessage(ctx, n.adminChatID, FormatOrderMessage(order))
}

// FormatOrderMessage renders the admin chat summary for an order.
func FormatOrderMessage(order *models.Order) string {
	var items strings.Builder
	for i, item := range order.Items {
		fmt.Fprintf(&items, "%d. <b>%s</b> (%s)\n   %d x %s = %s\n",
			i+1,
			html.EscapeString(item.ProductName),
			html.EscapeString(item.Unit),
			item.Quantity,
			FormatAmount(item.UnitPrice),
			FormatAmount(item.LineTotal),
		)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>New order %s</b>\n\n", html.EscapeString(order.OrderNumber))
	b.WriteString(items.String())
	fmt.Fprintf(&b, "\n<b>Subtotal:</b> %s\n", FormatAmount(order.Subtotal))
	if order.DiscountAmount.IsPositive() {
		fmt.Fprintf(&b, "<b>Discount:</b> -%s (%s)\n", FormatAmount(order.DiscountAmount), html.EscapeString(order.DiscountCode))
	}
	fmt.Fprintf(&b, "<b>Total:</b> %s\n", FormatAmount(order.TotalAmount))
	fmt.Fprintf(&b, "<b>Payment:</b> %s / %s\n", html.EscapeString(order.PaymentMethod), html.EscapeString(order.PaymentStatus))
	if addr := order.ShippingAddress; addr.Line1 != "" {
		fmt.Fprintf(&b, "<b>Ship to:</b> %s, %s\n", html.EscapeString(addr.Line1), html.EscapeString(addr.City))
	}
	return strings.TrimSpace(b.String())
}

// FormatAmount renders an amount with two decimals and thousand separators.
func FormatAmount(amount decimal.Decimal) string {
	s := amount.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, frac, _ := strings.Cut(s, ".")
	var out strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(digit)
	}
	return sign + out.String() + "." + frac
}
