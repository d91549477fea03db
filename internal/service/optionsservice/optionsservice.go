package optionsservice

import (
	"context"

	"go.uber.org/zap"

	"github.com/divinecia/Househelp-sub000/internal/domain"
)

type Repo interface {
	List(ctx context.Context, category string) ([]domain.Option, error)
}

type Service struct {
	repo Repo
}

func New(repo Repo) *Service {
	return &Service{repo: repo}
}

func opts(pairs ...string) []domain.Option {
	out := make([]domain.Option, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, domain.Option{Label: pairs[i], Value: pairs[i+1]})
	}
	return out
}

// fallbacks are served when the options table has nothing for a category or
// cannot be read. The keys are the only known categories.
var fallbacks = map[string][]domain.Option{
	"genders":          opts("Male", "male", "Female", "female", "Other", "other"),
	"marital-statuses": opts("Single", "single", "Married", "married", "Divorced", "divorced", "Widowed", "widowed"),
	"residence-types":  opts("House", "house", "Apartment", "apartment", "Villa", "villa", "Compound", "compound", "Other", "other"),
	"payment-methods": opts("Mobile Money", string(domain.MethodMobileMoney), "Card", string(domain.MethodCard),
		"Bank Transfer", string(domain.MethodBankTransfer), "Cash", string(domain.MethodCash)),
	"service-types": opts("House Cleaning", "cleaning", "Cooking", "cooking", "Laundry", "laundry",
		"Childcare", "childcare", "Elderly Care", "elderly_care", "Gardening", "gardening", "Security", "security"),
	"languages": opts("Kinyarwanda", "kinyarwanda", "English", "english", "French", "french", "Swahili", "swahili"),
	"districts": opts("Bugesera", "bugesera", "Burera", "burera", "Gakenke", "gakenke", "Gasabo", "gasabo",
		"Gatsibo", "gatsibo", "Gicumbi", "gicumbi", "Gisagara", "gisagara", "Huye", "huye", "Kamonyi", "kamonyi",
		"Karongi", "karongi", "Kayonza", "kayonza", "Kicukiro", "kicukiro", "Kirehe", "kirehe", "Muhanga", "muhanga",
		"Musanze", "musanze", "Ngoma", "ngoma", "Ngororero", "ngororero", "Nyabihu", "nyabihu", "Nyagatare", "nyagatare",
		"Nyamagabe", "nyamagabe", "Nyamasheke", "nyamasheke", "Nyanza", "nyanza", "Nyarugenge", "nyarugenge",
		"Nyaruguru", "nyaruguru", "Rubavu", "rubavu", "Ruhango", "ruhango", "Rulindo", "rulindo", "Rusizi", "rusizi",
		"Rutsiro", "rutsiro", "Rwamagana", "rwamagana"),
}

// List returns the dropdown entries of a category, never an empty list for
// a known category.
func (s *Service) List(ctx context.Context, category string) ([]domain.Option, error) {
	fallback, ok := fallbacks[category]
	if !ok {
		return nil, domain.ErrNotFound
	}
	options, err := s.repo.List(ctx, category)
	if err != nil {
		zap.L().Warn("serving fallback options", zap.Error(err), zap.String("category", category))
		return fallback, nil
	}
	if len(options) == 0 {
		return fallback, nil
	}
	return options, nil
}
