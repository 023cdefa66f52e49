package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/pose-mock/internal/apperror"
)

// PutUpload replaces any blob already stored in the slot.
func (db *DB) PutUpload(ctx context.Context, poseID int64, slot string, data []byte) error {
	if data == nil {
		data = []byte{} // nil would bind as NULL
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO uploads (pose_id, slot, data) VALUES (?, ?, ?)
		 ON CONFLICT (pose_id, slot) DO UPDATE SET data = excluded.data`,
		poseID, slot, data,
	)
	if err != nil {
		return fmt.Errorf("sqlite: storing upload for pose %d: %w", poseID, err)
	}
	return nil
}

func (db *DB) GetUpload(ctx context.Context, poseID int64, slot string) ([]byte, error) {
	var data []byte
	err := db.conn.QueryRowContext(ctx,
		`SELECT data FROM uploads WHERE pose_id = ? AND slot = ?`, poseID, slot,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("Upload")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading upload for pose %d: %w", poseID, err)
	}
	return data, nil
}
