package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"sortebem/domain/entities"
)

// WhatsAppNotifier delivers card codes over a WhatsApp gateway API.
// Delivery is best-effort: callers log failures and move on.
type WhatsAppNotifier struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

// NewWhatsAppNotifier creates a WhatsApp notifier for the given gateway
func NewWhatsAppNotifier(apiURL, apiKey string) *WhatsAppNotifier {
	return &WhatsAppNotifier{
		apiURL: apiURL,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type whatsAppMessage struct {
	Number  string `json:"number"`
	Message string `json:"message"`
}

// SendCards sends the card codes for a round to a WhatsApp number
func (n *WhatsAppNotifier) SendCards(ctx context.Context, destination string, cardCodes []string, round *entities.Round) error {
	body, err := json.Marshal(whatsAppMessage{
		Number:  cleanPhoneNumber(destination),
		Message: buildCardMessage(cardCodes, round),
	})
	if err != nil {
		return fmt.Errorf("failed to encode whatsapp message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build whatsapp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send whatsapp message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp gateway returned %d: %s", resp.StatusCode, string(detail))
	}

	log.WithFields(log.Fields{
		"cards": len(cardCodes),
		"round": round.Number,
	}).Info("Cards delivered via WhatsApp")
	return nil
}

// buildCardMessage formats the card delivery message
func buildCardMessage(cardCodes []string, round *entities.Round) string {
	roundType := "Regular"
	if round.Type == entities.RoundTypeSpecial {
		roundType = "Especial"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SORTEBEM - Suas Cartelas!\n\n")
	fmt.Fprintf(&b, "Rodada #%d (%s):\n\n", round.Number, roundType)
	for _, code := range cardCodes {
		fmt.Fprintf(&b, "*%s*\n", code)
	}
	fmt.Fprintf(&b, "\nSorteio: %s\n\nBoa sorte!", round.EndsAt.Format("02/01/2006 15:04"))
	return b.String()
}

// cleanPhoneNumber strips everything but digits from a phone number
func cleanPhoneNumber(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
