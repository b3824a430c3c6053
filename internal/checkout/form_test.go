package checkout

import (
	"testing"

	"payflow/internal/models"
)

var (
	cardMethod   = &models.PaymentMethod{ID: "m-card", Type: models.MethodCard}
	momoMethod   = &models.PaymentMethod{ID: "m-momo", Type: models.MethodMobileMoney, Channel: "mtn"}
	bankMethod   = &models.PaymentMethod{ID: "m-bank", Type: models.MethodBankAccount}
	walletMethod = &models.PaymentMethod{ID: "m-wallet", Type: models.MethodWallet}
)

// TestValidateEmail covers the required and format rules.
func TestValidateEmail(t *testing.T) {
	t.Parallel()

	errs := Validate(Submission{PaymentMethodID: "m-wallet"}, walletMethod)
	if errs["email"] == "" {
		t.Fatal("missing email should be rejected")
	}

	errs = Validate(Submission{Email: "not-an-email", PaymentMethodID: "m-wallet"}, walletMethod)
	if errs["email"] == "" {
		t.Fatal("malformed email should be rejected")
	}

	errs = Validate(Submission{Email: "jane@example.cm", PaymentMethodID: "m-wallet"}, walletMethod)
	if len(errs) != 0 {
		t.Fatalf("wallet submission should need no extra fields: %#v", errs)
	}
}

// TestValidateMethodRequired blocks submission without a method selection.
func TestValidateMethodRequired(t *testing.T) {
	t.Parallel()

	errs := Validate(Submission{Email: "jane@example.cm"}, nil)
	if errs["payment_method_id"] == "" {
		t.Fatal("missing method should be rejected")
	}
}

// TestValidateCardNumberLength: 15 digits in grouped form must be rejected,
// 16 digits must pass.
func TestValidateCardNumberLength(t *testing.T) {
	t.Parallel()

	base := Submission{
		Email:           "jane@example.cm",
		PaymentMethodID: "m-card",
		CardExpiry:      "04/27",
		CardCVC:         "123",
	}

	sub := base
	sub.CardNumber = "4532 1234 5678 901" // 15 digits
	if errs := Validate(sub, cardMethod); errs["card_number"] == "" {
		t.Fatal("15-digit card number should be rejected")
	}

	sub.CardNumber = "4532 1234 5678 9012" // 16 digits
	if errs := Validate(sub, cardMethod); len(errs) != 0 {
		t.Fatalf("16-digit card number should pass: %#v", errs)
	}

	sub.CardNumber = "4532123456789012345678" // 22 digits
	if errs := Validate(sub, cardMethod); errs["card_number"] == "" {
		t.Fatal("over-long card number should be rejected")
	}
}

// TestValidateCardExpiryAndCVC covers the MM/YY and CVC patterns.
func TestValidateCardExpiryAndCVC(t *testing.T) {
	t.Parallel()

	sub := Submission{
		Email:           "jane@example.cm",
		PaymentMethodID: "m-card",
		CardNumber:      "4532123456789012",
		CardExpiry:      "13/27",
		CardCVC:         "12",
	}
	errs := Validate(sub, cardMethod)
	if errs["card_expiry"] == "" {
		t.Fatal("month 13 should be rejected")
	}
	if errs["card_cvc"] == "" {
		t.Fatal("2-digit cvc should be rejected")
	}

	sub.CardExpiry = "12/26"
	sub.CardCVC = "1234"
	if errs := Validate(sub, cardMethod); len(errs) != 0 {
		t.Fatalf("valid card fields rejected: %#v", errs)
	}
}

// TestValidateMobileMoneyPhone covers the phone pattern.
func TestValidateMobileMoneyPhone(t *testing.T) {
	t.Parallel()

	sub := Submission{Email: "jane@example.cm", PaymentMethodID: "m-momo"}
	if errs := Validate(sub, momoMethod); errs["phone"] == "" {
		t.Fatal("missing phone should be rejected")
	}

	sub.Phone = "+237 699 112 233"
	if errs := Validate(sub, momoMethod); errs["phone"] == "" {
		t.Fatal("spaces are outside the phone pattern")
	}

	sub.Phone = "+237-699-112-233"
	if errs := Validate(sub, momoMethod); len(errs) != 0 {
		t.Fatalf("valid phone rejected: %#v", errs)
	}
}

// TestValidateBankAccount requires holder, bank code and a numeric account.
func TestValidateBankAccount(t *testing.T) {
	t.Parallel()

	sub := Submission{Email: "jane@example.cm", PaymentMethodID: "m-bank", AccountNumber: "12AB"}
	errs := Validate(sub, bankMethod)
	if errs["account_holder"] == "" || errs["bank_code"] == "" {
		t.Fatalf("missing bank fields should be rejected: %#v", errs)
	}
	if errs["account_number"] == "" {
		t.Fatal("non-numeric account number should be rejected")
	}

	sub.AccountHolder = "Jane N."
	sub.BankCode = "10005"
	sub.AccountNumber = "00012345"
	if errs := Validate(sub, bankMethod); len(errs) != 0 {
		t.Fatalf("complete bank submission rejected: %#v", errs)
	}
}

// TestBuildRequestNormalizesCard: grouping spaces are stripped before the
// request leaves the form.
func TestBuildRequestNormalizesCard(t *testing.T) {
	t.Parallel()

	sub := Submission{
		Email:           " jane@example.cm ",
		PaymentMethodID: "m-card",
		CardNumber:      "4532 1234 5678 9012",
		CardExpiry:      "04/27",
		CardCVC:         "123",
	}
	target := models.PurchaseTarget{Kind: models.KindOffer, ID: "7"}
	req := BuildRequest(sub, cardMethod, target)

	if req.Email != "jane@example.cm" {
		t.Fatalf("email not trimmed: %q", req.Email)
	}
	if req.MethodFields["card_number"] != "4532123456789012" {
		t.Fatalf("card number not normalized: %q", req.MethodFields["card_number"])
	}
	if req.Target != target {
		t.Fatalf("target mismatch: %#v", req.Target)
	}
}

// TestBuildRequestChannelFallback uses the method's channel when the
// submission does not pick one.
func TestBuildRequestChannelFallback(t *testing.T) {
	t.Parallel()

	sub := Submission{Email: "j@e.cm", PaymentMethodID: "m-momo", Phone: "699112233"}
	req := BuildRequest(sub, momoMethod, models.PurchaseTarget{Kind: models.KindProduct, ID: "3"})
	if req.Channel != "mtn" {
		t.Fatalf("expected method channel fallback, got %q", req.Channel)
	}
}
