package optionsrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"

	"github.com/divinecia/Househelp-sub000/internal/domain"
)

func TestRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	t.Cleanup(mock.Close)
	repo := New(mock)
	query := regexp.QuoteMeta("SELECT label, value FROM options WHERE category = $1 ORDER BY sort_order, label")

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
		result    []domain.Option
	}{
		{
			name: "Options found",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs("languages").
					WillReturnRows(pgxmock.NewRows([]string{"label", "value"}).AddRow("Kinyarwanda", "kinyarwanda"))
			},
			result: []domain.Option{{Label: "Kinyarwanda", Value: "kinyarwanda"}},
		},
		{
			name: "Empty table",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs("languages").WillReturnRows(pgxmock.NewRows([]string{"label", "value"}))
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs("languages").WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.List(context.Background(), "languages")
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.result, result)
			}
		})
	}
}
