package optionsservice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/divinecia/Househelp-sub000/internal/domain"
)

func NewMock(t *testing.T) (*Service, *MockRepo) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepo(ctrl)
	return New(repo), repo
}

func TestList(t *testing.T) {
	genders := []domain.Option{{Label: "Male", Value: "male"}, {Label: "Female", Value: "female"}, {Label: "Other", Value: "other"}}

	tests := []struct {
		name        string
		category    string
		prepareMock func(repo *MockRepo)
		expected    []domain.Option
		expectedErr error
	}{
		{
			name:     "Stored options win",
			category: "genders",
			prepareMock: func(repo *MockRepo) {
				repo.EXPECT().List(gomock.Any(), "genders").Return([]domain.Option{{Label: "Woman", Value: "female"}}, nil)
			},
			expected: []domain.Option{{Label: "Woman", Value: "female"}},
		},
		{
			name:     "Empty table falls back",
			category: "genders",
			prepareMock: func(repo *MockRepo) {
				repo.EXPECT().List(gomock.Any(), "genders").Return(nil, nil)
			},
			expected: genders,
		},
		{
			name:     "Database failure falls back",
			category: "genders",
			prepareMock: func(repo *MockRepo) {
				repo.EXPECT().List(gomock.Any(), "genders").Return(nil, errors.New("db down"))
			},
			expected: genders,
		},
		{
			name:        "Unknown category",
			category:    "planets",
			prepareMock: func(repo *MockRepo) {},
			expectedErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo := NewMock(t)
			tt.prepareMock(repo)
			got, err := service.List(context.Background(), tt.category)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFallbacks_NeverEmpty(t *testing.T) {
	for category, options := range fallbacks {
		assert.NotEmpty(t, options, category)
	}
	assert.Len(t, fallbacks["districts"], 30)
}
