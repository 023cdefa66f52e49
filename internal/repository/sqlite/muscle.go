package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/pose-mock/internal/apperror"
	"github.com/sakif/pose-mock/internal/model"
)

// SeedMuscles checks emptiness and inserts inside one transaction, so two
// concurrent seeds cannot both see an empty table.
func (db *DB) SeedMuscles(ctx context.Context, muscles []model.Muscle) (bool, error) {
	inserted := false
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM muscles`).Scan(&count); err != nil {
			return fmt.Errorf("sqlite: counting muscles: %w", err)
		}
		if count > 0 {
			return nil
		}
		for _, m := range muscles {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO muscles (name, name_ua, body_part) VALUES (?, ?, ?)`,
				m.Name, m.NameUA, m.BodyPart,
			)
			if err != nil {
				return fmt.Errorf("sqlite: inserting muscle %q: %w", m.Name, err)
			}
		}
		inserted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (db *DB) ListMuscles(ctx context.Context) ([]model.Muscle, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, name_ua, body_part FROM muscles ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing muscles: %w", err)
	}
	defer rows.Close()

	muscles := []model.Muscle{}
	for rows.Next() {
		var m model.Muscle
		if err := rows.Scan(&m.ID, &m.Name, &m.NameUA, &m.BodyPart); err != nil {
			return nil, fmt.Errorf("sqlite: scanning muscle: %w", err)
		}
		muscles = append(muscles, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating muscles: %w", err)
	}
	return muscles, nil
}

func (db *DB) GetMuscle(ctx context.Context, id int64) (*model.Muscle, error) {
	var m model.Muscle
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, name_ua, body_part FROM muscles WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &m.NameUA, &m.BodyPart)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("Muscle")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting muscle %d: %w", id, err)
	}
	return &m, nil
}
