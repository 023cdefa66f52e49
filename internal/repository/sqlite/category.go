package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/pose-mock/internal/apperror"
	"github.com/sakif/pose-mock/internal/model"
)

func (db *DB) CreateCategory(ctx context.Context, category *model.Category) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, description) VALUES (?, ?, ?)`,
		category.UserID, category.Name, category.Description,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading category id: %w", err)
	}
	category.ID = id
	return nil
}

func (db *DB) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	var c model.Category
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, name, description FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.UserID, &c.Name, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("Category")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting category %d: %w", id, err)
	}
	return &c, nil
}

func (db *DB) ListCategories(ctx context.Context, userID int64) ([]model.Category, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, name, description FROM categories WHERE user_id = ? ORDER BY id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("sqlite: scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating categories: %w", err)
	}
	return categories, nil
}

// DeleteCategory relies on poses.category_id ON DELETE SET NULL for the
// orphaning.
func (db *DB) DeleteCategory(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting category %d: %w", id, err)
	}
	return requireAffected(res, "Category")
}

func (db *DB) CountPosesByCategory(ctx context.Context, userID int64) (map[int64]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT category_id, COUNT(*) FROM poses
		 WHERE user_id = ? AND category_id IS NOT NULL
		 GROUP BY category_id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting poses: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var categoryID int64
		var n int
		if err := rows.Scan(&categoryID, &n); err != nil {
			return nil, fmt.Errorf("sqlite: scanning pose count: %w", err)
		}
		counts[categoryID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating pose counts: %w", err)
	}
	return counts, nil
}

// requireAffected turns "zero rows changed" into a NotFound for resource.
func requireAffected(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: reading rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource)
	}
	return nil
}
