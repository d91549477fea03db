package fieldmap

import "github.com/divinecia/Househelp-sub000/internal/domain"

// columns lists, per entity, the columns a payload may write. Ids, owner
// keys set by the server and timestamps are not listed.
var columns = map[Entity][]string{
	Worker: {
		"phone", "national_id", "gender", "date_of_birth", "marital_status", "address", "district",
		"sector", "skills", "experience", "languages", "expected_wage", "hourly_rate", "education_level",
		"emergency_contact_name", "emergency_contact_phone", "emergency_contact_relationship",
		"has_criminal_record", "criminal_record_details", "profile_image", "bio", "status", "rating",
	},
	Homeowner: {
		"phone", "national_id", "gender", "marital_status", "address", "district", "sector",
		"residence_type", "household_size", "has_children", "has_pets", "preferred_payment_method",
		"emergency_contact_name", "emergency_contact_phone", "special_requirements",
	},
	Admin:    {"phone", "department"},
	Service:  {"name", "description", "category", "base_price", "is_active"},
	Training: {"title", "description", "category", "duration", "instructor", "location", "start_date", "max_participants", "status"},
	Report:   {"reported_user_id", "booking_id", "report_type", "title", "description", "status"},
	Document: {"document_type", "file_url", "file_name"},
	Favorite: {"worker_id"},
	Availability: {
		"worker_id", "day_of_week", "start_time", "end_time", "is_available",
	},
}

// Columns returns the writable columns of entity.
func Columns(entity Entity) []string {
	return columns[entity]
}

// Restrict drops every key of rec that is not a writable column of entity.
func Restrict(entity Entity, rec domain.Record) domain.Record {
	return Pick(rec, columns[entity])
}
