// Package fieldmap turns client payloads into column maps: camelCase keys
// become snake_case columns, UI labels become stored codes, and managed or
// dangerous keys are dropped.
package fieldmap

import (
	"sort"
	"strings"
	"unicode"

	"github.com/divinecia/Househelp-sub000/internal/domain"
)

type Entity string

const (
	Worker       Entity = "worker"
	Homeowner    Entity = "homeowner"
	Admin        Entity = "admin"
	Booking      Entity = "booking"
	Application  Entity = "application"
	Payment      Entity = "payment"
	Withdrawal   Entity = "withdrawal"
	Dispute      Entity = "dispute"
	Document     Entity = "document"
	Training     Entity = "training"
	Report       Entity = "report"
	Service      Entity = "service"
	Favorite     Entity = "favorite"
	Availability Entity = "availability"
)

// excluded keys are owned by the auth bridge and never written from a payload.
var excluded = map[string]struct{}{
	"email":     {},
	"password":  {},
	"role":      {},
	"fullName":  {},
	"full_name": {},
}

var dangerous = map[string]struct{}{
	"__proto__":   {},
	"constructor": {},
	"prototype":   {},
}

var commonRenames = map[string]string{
	"emergencyName":     "emergency_contact_name",
	"emergencyPhone":    "emergency_contact_phone",
	"emergencyRelation": "emergency_contact_relationship",
	"dob":               "date_of_birth",
	"nationalId":        "national_id",
	"userId":            "user_id",
	"workerId":          "worker_id",
	"homeownerId":       "homeowner_id",
	"bookingId":         "booking_id",
	"phoneNumber":       "phone",
}

var entityRenames = map[Entity]map[string]string{
	Worker: {
		"criminalRecord":  "has_criminal_record",
		"criminalDetails": "criminal_record_details",
		"expectedSalary":  "expected_wage",
		"education":       "education_level",
		"profilePicture":  "profile_image",
	},
	Homeowner: {
		"children":      "has_children",
		"pets":          "has_pets",
		"paymentMethod": "preferred_payment_method",
		"specialNeeds":  "special_requirements",
	},
	Admin: {},
	Booking: {
		"date":                "booking_date",
		"specialInstructions": "special_requests",
		"totalAmount":         "amount",
		"price":               "amount",
	},
	Application: {
		"coverLetter": "message",
		"rate":        "proposed_rate",
	},
	Payment: {
		"paymentMethod":  "method",
		"transactionRef": "tx_ref",
	},
	Withdrawal: {
		"paymentMethod": "method",
		"notes":         "admin_notes",
	},
	Dispute: {
		"respondentId": "respondent_id",
		"notes":        "resolution_notes",
	},
	Document: {
		"type":     "document_type",
		"url":      "file_url",
		"fileName": "file_name",
		"reason":   "rejection_reason",
	},
	Training:     {"maxParticipants": "max_participants"},
	Report:       {"type": "report_type", "reportedUserId": "reported_user_id"},
	Service:      {"price": "base_price", "active": "is_active"},
	Favorite:     {},
	Availability: {"day": "day_of_week", "available": "is_available"},
}

// Transform converts a payload value into its stored form. It returns a
// validation error for values outside the column's domain.
type Transform func(column string, v any) (any, error)

var columnTransforms = map[string]Transform{
	"gender":                   oneOf("male", "female", "other"),
	"marital_status":           oneOf("single", "married", "divorced", "widowed"),
	"residence_type":           oneOf("house", "apartment", "villa", "compound", "other"),
	"has_criminal_record":      yesNo,
	"has_children":             yesNo,
	"has_pets":                 yesNo,
	"is_available":             yesNo,
	"is_active":                yesNo,
	"preferred_payment_method": paymentMethod,
	"method":                   paymentMethod,
}

var entityTransforms = map[Entity]map[string]Transform{
	Booking: {"status": bookingStatus},
}

// Map converts a client payload for the given entity into a column map.
// Unknown enum values are rejected; excluded keys are dropped.
func Map(entity Entity, payload map[string]any) (domain.Record, error) {
	clean, _ := Sanitize(payload).(map[string]any)
	out := make(domain.Record, len(clean))
	var invalid []string

	for key, value := range clean {
		if _, skip := excluded[key]; skip {
			continue
		}
		column := columnName(entity, key)
		if _, skip := excluded[column]; skip {
			continue
		}

		if fn := transformFor(entity, column); fn != nil {
			v, err := fn(column, value)
			if err != nil {
				invalid = append(invalid, column)
				continue
			}
			value = v
		} else {
			value = snakeKeys(value)
		}
		out[column] = value
	}

	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, domain.NewValidationError("invalid value for "+strings.Join(invalid, ", "), invalid...)
	}
	return out, nil
}

// Filter maps list query parameters onto the allowed filter columns. Id
// columns must hold a UUID.
func Filter(entity Entity, query map[string]string, allowed []string) (domain.Record, error) {
	payload := make(map[string]any, len(query))
	for k, v := range query {
		payload[k] = v
	}
	mapped, err := Map(entity, payload)
	if err != nil {
		return nil, err
	}
	filter := Pick(mapped, allowed)
	if err := CheckIDs(filter); err != nil {
		return nil, err
	}
	return filter, nil
}

// Pick keeps only the whitelisted columns of rec.
func Pick(rec domain.Record, columns []string) domain.Record {
	out := make(domain.Record, len(columns))
	for _, c := range columns {
		if v, ok := rec[c]; ok {
			out[c] = v
		}
	}
	return out
}

// Sanitize removes prototype-pollution keys from v at every depth.
func Sanitize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if _, bad := dangerous[k]; bad {
				continue
			}
			out[k] = Sanitize(val)
		}
		return out
	case domain.Record:
		return domain.Record(Sanitize(map[string]any(t)).(map[string]any))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Sanitize(val)
		}
		return out
	default:
		return v
	}
}

// ToSnake converts a camelCase or PascalCase key to snake_case. Keys that are
// already snake_case come back unchanged.
func ToSnake(key string) string {
	runes := []rune(key)
	var b strings.Builder
	b.Grow(len(key) + 4)

	for i, r := range runes {
		if r == '-' || r == ' ' {
			b.WriteRune('_')
			continue
		}
		if !unicode.IsUpper(r) {
			b.WriteRune(r)
			continue
		}
		if i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteRune('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func columnName(entity Entity, key string) string {
	if c, ok := entityRenames[entity][key]; ok {
		return c
	}
	if c, ok := commonRenames[key]; ok {
		return c
	}
	return ToSnake(key)
}

func transformFor(entity Entity, column string) Transform {
	if fn, ok := entityTransforms[entity][column]; ok {
		return fn
	}
	return columnTransforms[column]
}

func snakeKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[ToSnake(k)] = snakeKeys(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = snakeKeys(val)
		}
		return out
	default:
		return v
	}
}
