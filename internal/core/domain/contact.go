package domain

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Contact Links
// =============================================================================

// DefaultCountryCode is the Costa Rica calling code.
const DefaultCountryCode = "506"

// ErrPhoneRequired is returned when a contact link has no usable digits.
var ErrPhoneRequired = errors.New("whatsapp number is required")

// WhatsAppURL builds a wa.me link for phone with a prefilled message.
// Non-digits are dropped and countryCode is prepended to local eight digit
// numbers.
//
// Example:
//
//	WhatsAppURL("8888-1234", "506", "Hola") // "https://wa.me/50688881234?text=Hola"
func WhatsAppURL(phone, countryCode, message string) (string, error) {
	digits := onlyDigits(phone)
	if digits == "" {
		return "", ErrPhoneRequired
	}
	cc := onlyDigits(countryCode)
	if cc != "" && len(digits) == 8 {
		digits = cc + digits
	}
	u := "https://wa.me/" + digits
	if message != "" {
		u += "?text=" + url.QueryEscape(message)
	}
	return u, nil
}

// ContactMessage is the default message a visitor sends about an item.
func ContactMessage(itemName string) string {
	if itemName == "" {
		return "Hola, vi su emprendimiento en Costa Rica Emprende y me gustaría más información."
	}
	return "Hola, vi " + itemName + " en Costa Rica Emprende y me gustaría más información."
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// =============================================================================
// Contact Events
// =============================================================================

// ContactEvent records a visitor opening a WhatsApp conversation. ProductID and
// ServiceID are optional and at most one is expected to be set.
type ContactEvent struct {
	ID          string     `json:"id"`
	BusinessID  string     `json:"business_id"`
	ProductID   string     `json:"product_id,omitempty"`
	ServiceID   string     `json:"service_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// NewContactEvent creates an unprocessed contact event.
func NewContactEvent(businessID, productID, serviceID string) (ContactEvent, error) {
	if businessID == "" {
		return ContactEvent{}, ErrBusinessRequired
	}
	return ContactEvent{
		ID:         uuid.New().String(),
		BusinessID: businessID,
		ProductID:  productID,
		ServiceID:  serviceID,
		CreatedAt:  time.Now(),
	}, nil
}

// ContactTotals are counter increments keyed by entity id.
type ContactTotals struct {
	Businesses map[string]int64
	Products   map[string]int64
	Services   map[string]int64
}

// TallyContacts folds events into per-entity counter increments.
func TallyContacts(events []ContactEvent) ContactTotals {
	t := ContactTotals{
		Businesses: make(map[string]int64),
		Products:   make(map[string]int64),
		Services:   make(map[string]int64),
	}
	for _, e := range events {
		t.Businesses[e.BusinessID]++
		if e.ProductID != "" {
			t.Products[e.ProductID]++
		}
		if e.ServiceID != "" {
			t.Services[e.ServiceID]++
		}
	}
	return t
}
