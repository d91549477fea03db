package optionsrepo

import (
	"context"

	"go.uber.org/zap"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/internal/pg"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) List(ctx context.Context, category string) ([]domain.Option, error) {
	query := "SELECT label, value FROM options WHERE category = $1 ORDER BY sort_order, label"
	rows, err := r.db.Query(ctx, query, category)
	if err != nil {
		zap.L().Error("failed to fetch options", zap.Error(err), zap.String("category", category))
		return nil, err
	}
	defer rows.Close()

	var options []domain.Option
	for rows.Next() {
		var o domain.Option
		if err := rows.Scan(&o.Label, &o.Value); err != nil {
			zap.L().Error("failed to scan option row", zap.Error(err))
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}
