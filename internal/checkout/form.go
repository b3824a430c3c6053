package checkout

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"payflow/internal/models"
)

// Submission is the raw checkout form input: contact email plus whatever
// extra fields the selected payment method's type requires.
type Submission struct {
	Email           string `json:"email" validate:"required,email"`
	PaymentMethodID string `json:"payment_method_id" validate:"required"`
	Channel         string `json:"channel"`

	// mobile_money
	Phone string `json:"phone"`

	// bank_account
	AccountHolder string `json:"account_holder"`
	BankCode      string `json:"bank_code"`
	AccountNumber string `json:"account_number"`

	// card
	CardNumber string `json:"card_number"`
	CardExpiry string `json:"card_expiry"`
	CardCVC    string `json:"card_cvc"`
}

var (
	validate = validator.New()

	phonePattern   = regexp.MustCompile(`^[\d+\-()]+$`)
	digitsPattern  = regexp.MustCompile(`^\d+$`)
	expiryPattern  = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvcPattern     = regexp.MustCompile(`^\d{3,4}$`)
	cardGroupSplit = strings.NewReplacer(" ", "")
)

// Validate checks a submission against the selected method's field
// requirements. All rules are local and synchronous. The result maps field
// names to user-facing messages; an empty map means the form is valid.
// Validation never fails with an error of its own.
func Validate(sub Submission, method *models.PaymentMethod) map[string]string {
	errs := make(map[string]string)

	if err := validate.Struct(sub); err != nil {
		if invalid, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range invalid {
				switch fe.Field() {
				case "Email":
					if fe.Tag() == "required" {
						errs["email"] = "Email is required"
					} else {
						errs["email"] = "Enter a valid email address"
					}
				case "PaymentMethodID":
					errs["payment_method_id"] = "Select a payment method"
				}
			}
		} else {
			errs["form"] = "Invalid submission"
		}
	}

	// A selected method that no longer exists blocks submission the same
	// way an empty selection does.
	if method == nil {
		if _, seen := errs["payment_method_id"]; !seen && sub.PaymentMethodID != "" {
			errs["payment_method_id"] = "Select a payment method"
		}
		return errs
	}

	switch method.Type {
	case models.MethodMobileMoney:
		if sub.Phone == "" {
			errs["phone"] = "Phone number is required"
		} else if !phonePattern.MatchString(sub.Phone) {
			errs["phone"] = "Enter a valid phone number"
		}

	case models.MethodBankAccount:
		if sub.AccountHolder == "" {
			errs["account_holder"] = "Account holder name is required"
		}
		if sub.BankCode == "" {
			errs["bank_code"] = "Bank code is required"
		}
		if sub.AccountNumber == "" {
			errs["account_number"] = "Account number is required"
		} else if !digitsPattern.MatchString(sub.AccountNumber) {
			errs["account_number"] = "Account number must be numeric"
		}

	case models.MethodCard:
		digits := cardGroupSplit.Replace(sub.CardNumber)
		if digits == "" {
			errs["card_number"] = "Card number is required"
		} else if !digitsPattern.MatchString(digits) || len(digits) < 13 || len(digits) > 19 {
			errs["card_number"] = "Enter a valid card number"
		}
		if !expiryPattern.MatchString(sub.CardExpiry) {
			errs["card_expiry"] = "Expiry must be MM/YY"
		}
		if !cvcPattern.MatchString(sub.CardCVC) {
			errs["card_cvc"] = "Enter a valid security code"
		}
	}

	return errs
}

// BuildRequest produces the normalized request sent to the platform.
// Called once per submit, after Validate returned no errors; the result is
// never mutated afterwards.
func BuildRequest(sub Submission, method *models.PaymentMethod, target models.PurchaseTarget) models.CheckoutRequest {
	fields := make(map[string]string)
	switch method.Type {
	case models.MethodBankAccount:
		fields["account_holder"] = strings.TrimSpace(sub.AccountHolder)
		fields["bank_code"] = strings.TrimSpace(sub.BankCode)
		fields["account_number"] = sub.AccountNumber
	case models.MethodCard:
		fields["card_number"] = cardGroupSplit.Replace(sub.CardNumber)
		fields["card_expiry"] = sub.CardExpiry
		fields["card_cvc"] = sub.CardCVC
	}

	channel := sub.Channel
	if channel == "" {
		channel = method.Channel
	}

	return models.CheckoutRequest{
		Email:           strings.TrimSpace(sub.Email),
		Phone:           strings.TrimSpace(sub.Phone),
		PaymentMethodID: method.ID,
		Channel:         channel,
		Target:          target,
		MethodFields:    fields,
	}
}
