package models

import "github.com/shopspring/decimal"

// APIResponse is the envelope for all JSON API responses.
type APIResponse struct {
	Status bool        `json:"status"`
	Msg    string      `json:"msg"`
	Obj    interface{} `json:"obj"`
}

// PaginatedResponse wraps list payloads with pagination metadata.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// ItemKind identifies what a checkout session is buying.
type ItemKind string

const (
	KindOffer        ItemKind = "offer"
	KindProduct      ItemKind = "product"
	KindGroupPackage ItemKind = "group"
)

// Valid reports whether the kind is one of the three purchasable kinds.
func (k ItemKind) Valid() bool {
	switch k {
	case KindOffer, KindProduct, KindGroupPackage:
		return true
	}
	return false
}

// DefaultCurrency is applied when the platform omits a currency for an item.
const DefaultCurrency = "XAF"

// PurchasableItem is an immutable snapshot of what is being bought,
// fetched once per checkout session.
type PurchasableItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Image       string          `json:"image,omitempty"`
	Kind        ItemKind        `json:"kind"`
}

// GroupContext is the enclosing group of an offer or product, when any.
// IsPackage=true means the group itself is directly purchasable;
// false means it is only a listing container.
type GroupContext struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	IsPackage bool              `json:"is_package"`
	Items     []PurchasableItem `json:"items,omitempty"`
}

// MethodType is the payment method family, which decides the extra
// form fields a submission must carry.
type MethodType string

const (
	MethodCard        MethodType = "card"
	MethodMobileMoney MethodType = "mobile_money"
	MethodBankAccount MethodType = "bank_account"
	MethodWallet      MethodType = "wallet"
	MethodTransfer    MethodType = "bank_transfer"
)

// PaymentMethod is one enabled payment channel as reported by the platform.
type PaymentMethod struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Type    MethodType `json:"type"`
	Channel string     `json:"channel,omitempty"`
	Country string     `json:"country,omitempty"`
	Logo    string     `json:"logo,omitempty"`
}

// RequiredFields lists the method-specific form fields the checkout form
// must collect for this method's type.
func (m PaymentMethod) RequiredFields() []string {
	switch m.Type {
	case MethodMobileMoney:
		return []string{"phone"}
	case MethodBankAccount:
		return []string{"account_holder", "bank_code", "account_number"}
	case MethodCard:
		return []string{"card_number", "card_expiry", "card_cvc"}
	}
	return nil
}

// TicketCredential is an issued access secret. The client never validates
// or mutates it, only stores and hands it to the terminal page.
type TicketCredential struct {
	TicketID   string `json:"ticket_id"`
	Password   string `json:"password"`
	ValidFrom  string `json:"valid_from,omitempty"`
	ValidUntil string `json:"valid_until,omitempty"`
	OfferName  string `json:"offer_name,omitempty"`
}

// PurchaseTarget pins a checkout request to exactly one purchasable thing.
type PurchaseTarget struct {
	Kind ItemKind `json:"kind"`
	ID   string   `json:"id"`
}

// CheckoutRequest is the normalized submission sent to the platform.
// Constructed once per submit and never mutated after being sent.
type CheckoutRequest struct {
	Email           string            `json:"email"`
	Phone           string            `json:"phone,omitempty"`
	PaymentMethodID string            `json:"payment_method_id"`
	Channel         string            `json:"channel,omitempty"`
	Target          PurchaseTarget    `json:"purchase_target"`
	MethodFields    map[string]string `json:"method_fields,omitempty"`
}
