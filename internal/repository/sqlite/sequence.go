package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sakif/pose-mock/internal/apperror"
	"github.com/sakif/pose-mock/internal/model"
	"github.com/sakif/pose-mock/internal/repository"
)

const sequenceColumns = `id, user_id, name, description, difficulty, created_at, updated_at`

func scanSequence(s scanner) (model.Sequence, error) {
	var seq model.Sequence
	var createdAt, updatedAt string
	err := s.Scan(&seq.ID, &seq.UserID, &seq.Name, &seq.Description, &seq.Difficulty, &createdAt, &updatedAt)
	if err != nil {
		return seq, err
	}
	if seq.CreatedAt, err = parseTime(createdAt); err != nil {
		return seq, err
	}
	if seq.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return seq, err
	}
	return seq, nil
}

func (db *DB) CreateSequence(ctx context.Context, sequence *model.Sequence) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO sequences (user_id, name, description, difficulty, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			sequence.UserID, sequence.Name, sequence.Description, sequence.Difficulty,
			formatTime(sequence.CreatedAt), formatTime(sequence.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting sequence: %w", err)
		}
		seqID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading sequence id: %w", err)
		}

		childIDs := make([]int64, len(sequence.Poses))
		for i, sp := range sequence.Poses {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO sequence_poses (sequence_id, pose_id, order_index,
					duration_seconds, transition_note, pose_name, pose_code,
					pose_photo_path, pose_schema_path)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				seqID, sp.PoseID, sp.OrderIndex, sp.DurationSeconds, sp.TransitionNote,
				sp.PoseName, sp.PoseCode, sp.PosePhotoPath, sp.PoseSchemaPath,
			)
			if err != nil {
				return fmt.Errorf("sqlite: inserting sequence pose: %w", err)
			}
			if childIDs[i], err = res.LastInsertId(); err != nil {
				return fmt.Errorf("sqlite: reading sequence pose id: %w", err)
			}
		}

		// Only publish ids once every insert has succeeded.
		sequence.ID = seqID
		for i := range sequence.Poses {
			sequence.Poses[i].ID = childIDs[i]
		}
		return nil
	})
}

func (db *DB) GetSequence(ctx context.Context, id int64) (*model.Sequence, error) {
	seq, err := scanSequence(db.conn.QueryRowContext(ctx,
		`SELECT `+sequenceColumns+` FROM sequences WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("Sequence")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting sequence %d: %w", id, err)
	}

	children, err := db.sequencePoses(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	seq.Poses = sequencePosesOrEmpty(children[id])
	return &seq, nil
}

func (db *DB) ListSequences(ctx context.Context, userID int64, opts repository.ListOptions) ([]model.Sequence, int, error) {
	var total int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sequences WHERE user_id = ?`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting sequences: %w", err)
	}

	if opts.Limit <= 0 {
		return []model.Sequence{}, total, nil
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+sequenceColumns+` FROM sequences WHERE user_id = ?
		 ORDER BY id LIMIT ? OFFSET ?`, userID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing sequences: %w", err)
	}

	sequences := []model.Sequence{}
	for rows.Next() {
		seq, err := scanSequence(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("sqlite: scanning sequence: %w", err)
		}
		sequences = append(sequences, seq)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating sequences: %w", err)
	}

	ids := make([]int64, len(sequences))
	for i, seq := range sequences {
		ids[i] = seq.ID
	}
	children, err := db.sequencePoses(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range sequences {
		sequences[i].Poses = sequencePosesOrEmpty(children[sequences[i].ID])
	}
	return sequences, total, nil
}

func (db *DB) sequencePoses(ctx context.Context, sequenceIDs []int64) (map[int64][]model.SequencePose, error) {
	out := make(map[int64][]model.SequencePose, len(sequenceIDs))
	if len(sequenceIDs) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(sequenceIDs)), ",")
	args := make([]any, len(sequenceIDs))
	for i, id := range sequenceIDs {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT sequence_id, id, pose_id, order_index, duration_seconds,
			transition_note, pose_name, pose_code, pose_photo_path, pose_schema_path
		 FROM sequence_poses WHERE sequence_id IN (`+placeholders+`)
		 ORDER BY sequence_id, id`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading sequence poses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var seqID int64
		var sp model.SequencePose
		if err := rows.Scan(&seqID, &sp.ID, &sp.PoseID, &sp.OrderIndex, &sp.DurationSeconds,
			&sp.TransitionNote, &sp.PoseName, &sp.PoseCode, &sp.PosePhotoPath, &sp.PoseSchemaPath,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning sequence pose: %w", err)
		}
		out[seqID] = append(out[seqID], sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating sequence poses: %w", err)
	}
	return out, nil
}

func sequencePosesOrEmpty(sp []model.SequencePose) []model.SequencePose {
	if sp == nil {
		return []model.SequencePose{}
	}
	return sp
}

func (db *DB) UpdateSequence(ctx context.Context, sequence *model.Sequence) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE sequences SET name = ?, description = ?, difficulty = ?, updated_at = ?
		 WHERE id = ?`,
		sequence.Name, sequence.Description, sequence.Difficulty,
		formatTime(sequence.UpdatedAt), sequence.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating sequence %d: %w", sequence.ID, err)
	}
	return requireAffected(res, "Sequence")
}

// DeleteSequence relies on ON DELETE CASCADE for sequence_poses.
func (db *DB) DeleteSequence(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM sequences WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting sequence %d: %w", id, err)
	}
	return requireAffected(res, "Sequence")
}
