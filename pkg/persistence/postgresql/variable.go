package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/persistence"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type VariableRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewVariableRepository(db *sql.DB, logger *slog.Logger) *VariableRepository {
	return &VariableRepository{db: db, logger: logger}
}

func (r *VariableRepository) GetAll(ctx context.Context) ([]*models.Variable, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, value, type, created_at, updated_at
		FROM variables
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query variables: %w", err)
	}
	defer closeRows(ctx, r.logger, rows)

	variables := make([]*models.Variable, 0)

	for rows.Next() {
		var v models.Variable
		if err := rows.Scan(&v.ID, &v.Name, &v.Value, &v.Type, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan variable: %w", err)
		}

		variables = append(variables, &v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variables: %w", err)
	}

	return variables, nil
}

func (r *VariableRepository) Save(ctx context.Context, variable *models.Variable) error {
	now := time.Now().UTC()

	if variable.ID == "" {
		variable.ID = uuid.NewString()
	}

	if variable.CreatedAt.IsZero() {
		variable.CreatedAt = now
	}

	if variable.Type == "" {
		variable.Type = "static"
	}

	variable.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO variables (id, name, value, type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			value = EXCLUDED.value,
			type = EXCLUDED.type,
			updated_at = EXCLUDED.updated_at
	`, variable.ID, variable.Name, variable.Value, variable.Type, variable.CreatedAt, variable.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return &persistence.VariableError{Op: "Save", Name: variable.Name, Err: persistence.ErrVariableAlreadyExists}
		}

		return &persistence.VariableError{Op: "Save", Name: variable.Name, Err: err}
	}

	return nil
}

func (r *VariableRepository) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return &persistence.VariableError{Op: "Delete", Name: id, Err: persistence.ErrVariableNotFound}
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM variables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete variable: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &persistence.VariableError{Op: "Delete", Name: id, Err: persistence.ErrVariableNotFound}
	}

	return nil
}
