package validation

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/soundvault/earnings-backend/internal/domain/valueobject"
	"github.com/soundvault/earnings-backend/internal/models"
	"github.com/soundvault/earnings-backend/internal/pkg/apperror"
)

// WithdrawalForm: поля формы вывода средств в том виде, в каком их прислал клиент.
type WithdrawalForm struct {
	Amount               string `json:"amount"`
	PaymentMethod        string `json:"payment_method"`
	RoutingNumber        string `json:"routing_number"`
	AccountNumber        string `json:"account_number"`
	ConfirmAccountNumber string `json:"confirm_account_number"`
	PaypalEmail          string `json:"paypal_email"`
	AccountDetails       string `json:"account_details"`
}

// ValidatedWithdrawal: результат успешной проверки формы.
type ValidatedWithdrawal struct {
	Amount  decimal.Decimal
	Method  valueobject.PaymentMethod
	Details models.AccountDetails
	Hint    string
}

// AmountFloat возвращает сумму для хранения в numeric колонке.
func (v *ValidatedWithdrawal) AmountFloat() float64 {
	f, _ := v.Amount.Float64()
	return f
}

// ValidateWithdrawal проверяет форму до любых сетевых вызовов.
// Сумма округляется до центов; должна быть > 0 и не больше доступного баланса.
func ValidateWithdrawal(form WithdrawalForm, availableBalance float64) (*ValidatedWithdrawal, error) {
	amount, err := valueobject.ParseAmount(form.Amount)
	if err != nil {
		return nil, err
	}
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, apperror.Validation("please enter a valid amount")
	}
	if amount.GreaterThan(decimal.NewFromFloat(availableBalance)) {
		return nil, apperror.ErrInsufficientFunds
	}

	method, err := valueobject.NewPaymentMethod(strings.TrimSpace(form.PaymentMethod))
	if err != nil {
		return nil, err
	}

	result := &ValidatedWithdrawal{Amount: amount, Method: method}

	switch method {
	case valueobject.PaymentMethodBankTransfer:
		routing := strings.TrimSpace(form.RoutingNumber)
		account := strings.TrimSpace(form.AccountNumber)
		confirm := strings.TrimSpace(form.ConfirmAccountNumber)
		if routing == "" || account == "" || confirm == "" {
			return nil, apperror.Validation("please fill in all bank details")
		}
		if account != confirm {
			return nil, apperror.Validation("account numbers do not match")
		}
		if err := ValidateLength("routing number", routing, 0, MaxRoutingNumberLength); err != nil {
			return nil, apperror.Validation("%s", err.Error())
		}
		if err := ValidateLength("account number", account, 0, MaxAccountNumberLength); err != nil {
			return nil, apperror.Validation("%s", err.Error())
		}
		result.Details = models.AccountDetails{RoutingNumber: routing, AccountNumber: account}
		result.Hint = "Bank ••••" + lastN(account, 4)

	case valueobject.PaymentMethodPayPal:
		email := strings.TrimSpace(form.PaypalEmail)
		if email == "" {
			return nil, apperror.Validation("please enter your PayPal email")
		}
		if err := ValidateEmail(email); err != nil {
			return nil, apperror.Validation("please enter a valid PayPal email")
		}
		result.Details = models.AccountDetails{PaypalEmail: strings.ToLower(email)}
		result.Hint = "PayPal " + maskEmail(strings.ToLower(email))

	case valueobject.PaymentMethodOther:
		details := strings.TrimSpace(form.AccountDetails)
		if details == "" {
			return nil, apperror.Validation("please enter your account details")
		}
		if err := ValidateLength("account details", details, 0, MaxAccountDetailsLength); err != nil {
			return nil, apperror.Validation("%s", err.Error())
		}
		result.Details = models.AccountDetails{Details: details}
		result.Hint = "Other"

	case valueobject.PaymentMethodCheck:
		// Для чека реквизиты не сохраняются: запрос уходит в чат поддержки.
		result.Hint = "Check"
	}

	return result, nil
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return email
	}
	local := email[:at]
	if len(local) <= 2 {
		return local[:1] + "***" + email[at:]
	}
	return local[:2] + "***" + email[at:]
}
