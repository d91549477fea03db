package fieldmap

import (
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/divinecia/Househelp-sub000/internal/domain"
)

// idColumns are stored as uuid; any other value fails the cast in Postgres.
var idColumns = []string{
	"id", "user_id", "worker_id", "homeowner_id", "booking_id",
	"reporter_id", "reported_user_id", "respondent_id", "verified_by",
}

// CheckIDs rejects id columns of rec whose value is not a UUID. Missing and
// null values pass.
func CheckIDs(rec domain.Record) error {
	var invalid []string
	for _, column := range idColumns {
		switch v := rec[column].(type) {
		case nil, uuid.UUID:
		case string:
			if _, err := uuid.Parse(v); err != nil {
				invalid = append(invalid, column)
			}
		default:
			invalid = append(invalid, column)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return domain.NewValidationError("invalid value for "+strings.Join(invalid, ", "), invalid...)
	}
	return nil
}

var paymentSynonyms = map[string]domain.PaymentMethod{
	"mobile_money":     domain.MethodMobileMoney,
	"mobile money":     domain.MethodMobileMoney,
	"mtn mobile money": domain.MethodMobileMoney,
	"mtn momo":         domain.MethodMobileMoney,
	"momo":             domain.MethodMobileMoney,
	"airtel money":     domain.MethodMobileMoney,
	"card":             domain.MethodCard,
	"visa":             domain.MethodCard,
	"mastercard":       domain.MethodCard,
	"credit card":      domain.MethodCard,
	"debit card":       domain.MethodCard,
	"bank_transfer":    domain.MethodBankTransfer,
	"bank transfer":    domain.MethodBankTransfer,
	"bank":             domain.MethodBankTransfer,
	"cash":             domain.MethodCash,
}

// PaymentMethod resolves a UI label or code to a stored payment method.
func PaymentMethod(label string) (domain.PaymentMethod, error) {
	if m, ok := paymentSynonyms[normalize(label)]; ok {
		return m, nil
	}
	return "", domain.NewValidationError("invalid value for method", "method")
}

// BookingStatus resolves a status label, including the "accepted" alias for
// assigned.
func BookingStatus(label string) (domain.BookingStatus, error) {
	if normalize(label) == "accepted" {
		return domain.BookingAssigned, nil
	}
	return domain.ParseBookingStatus(label)
}

func oneOf(allowed ...string) Transform {
	return func(column string, v any) (any, error) {
		if v == nil {
			return nil, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, domain.NewValidationError("invalid value for "+column, column)
		}
		s = normalize(s)
		if s == "" {
			return nil, nil
		}
		if !slices.Contains(allowed, s) {
			return nil, domain.NewValidationError("invalid value for "+column, column)
		}
		return s, nil
	}
}

func yesNo(column string, v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return t, nil
	case string:
		switch normalize(t) {
		case "":
			return nil, nil
		case "yes", "y", "true":
			return true, nil
		case "no", "n", "false":
			return false, nil
		}
	}
	return nil, domain.NewValidationError("invalid value for "+column, column)
}

func paymentMethod(column string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, domain.NewValidationError("invalid value for "+column, column)
	}
	if normalize(s) == "" {
		return nil, nil
	}
	m, err := PaymentMethod(s)
	if err != nil {
		return nil, domain.NewValidationError("invalid value for "+column, column)
	}
	return string(m), nil
}

func bookingStatus(column string, v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, domain.NewValidationError("invalid value for "+column, column)
	}
	st, err := BookingStatus(s)
	if err != nil {
		return nil, err
	}
	return string(st), nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
