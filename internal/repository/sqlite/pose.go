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

const poseColumns = `id, user_id, code, name, name_en, category_id, description,
	effect, breathing, schema_path, photo_path, muscle_layer_path,
	skeleton_layer_path, version, created_at, updated_at`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPose(s scanner) (model.Pose, error) {
	var p model.Pose
	var createdAt, updatedAt string
	err := s.Scan(
		&p.ID, &p.UserID, &p.Code, &p.Name, &p.NameEN, &p.CategoryID,
		&p.Description, &p.Effect, &p.Breathing, &p.SchemaPath, &p.PhotoPath,
		&p.MuscleLayerPath, &p.SkeletonLayerPath, &p.Version,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return p, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return p, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return p, err
	}
	return p, nil
}

func (db *DB) CreatePose(ctx context.Context, pose *model.Pose) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO poses (user_id, code, name, name_en, category_id,
				description, effect, breathing, schema_path, photo_path,
				muscle_layer_path, skeleton_layer_path, version, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			pose.UserID, pose.Code, pose.Name, pose.NameEN, pose.CategoryID,
			pose.Description, pose.Effect, pose.Breathing, pose.SchemaPath,
			pose.PhotoPath, pose.MuscleLayerPath, pose.SkeletonLayerPath,
			pose.Version, formatTime(pose.CreatedAt), formatTime(pose.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting pose: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading pose id: %w", err)
		}
		if err := insertPoseMuscles(ctx, tx, id, pose.Muscles); err != nil {
			return err
		}
		pose.ID = id
		return nil
	})
}

func insertPoseMuscles(ctx context.Context, q queryer, poseID int64, muscles []model.PoseMuscle) error {
	for i, m := range muscles {
		_, err := q.ExecContext(ctx,
			`INSERT INTO pose_muscles (pose_id, position, muscle_id, muscle_name,
				muscle_name_ua, body_part, activation_level)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			poseID, i, m.MuscleID, m.MuscleName, m.MuscleNameUA, m.BodyPart, m.ActivationLevel,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting muscle %d for pose %d: %w", m.MuscleID, poseID, err)
		}
	}
	return nil
}

func (db *DB) GetPose(ctx context.Context, id int64) (*model.Pose, error) {
	p, err := scanPose(db.conn.QueryRowContext(ctx,
		`SELECT `+poseColumns+` FROM poses WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("Pose")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting pose %d: %w", id, err)
	}

	muscles, err := db.poseMuscles(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	p.Muscles = musclesOrEmpty(muscles[id])
	return &p, nil
}

func (db *DB) ListPoses(ctx context.Context, filter repository.PoseFilter) ([]model.Pose, int, error) {
	where := `WHERE user_id = ?`
	args := []any{filter.UserID}
	if filter.CategoryID != nil {
		where += ` AND category_id = ?`
		args = append(args, *filter.CategoryID)
	}

	var total int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM poses `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting poses: %w", err)
	}

	if filter.Limit <= 0 {
		return []model.Pose{}, total, nil
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+poseColumns+` FROM poses `+where+` ORDER BY id LIMIT ? OFFSET ?`,
		append(args, filter.Limit, filter.Offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing poses: %w", err)
	}

	poses := []model.Pose{}
	for rows.Next() {
		p, err := scanPose(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("sqlite: scanning pose: %w", err)
		}
		poses = append(poses, p)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating poses: %w", err)
	}

	// rows is closed before this second query; see the note in New.
	ids := make([]int64, len(poses))
	for i, p := range poses {
		ids[i] = p.ID
	}
	muscles, err := db.poseMuscles(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range poses {
		poses[i].Muscles = musclesOrEmpty(muscles[poses[i].ID])
	}
	return poses, total, nil
}

// poseMuscles loads the muscle links for every id in one query.
func (db *DB) poseMuscles(ctx context.Context, poseIDs []int64) (map[int64][]model.PoseMuscle, error) {
	out := make(map[int64][]model.PoseMuscle, len(poseIDs))
	if len(poseIDs) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(poseIDs)), ",")
	args := make([]any, len(poseIDs))
	for i, id := range poseIDs {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT pose_id, muscle_id, muscle_name, muscle_name_ua, body_part, activation_level
		 FROM pose_muscles WHERE pose_id IN (`+placeholders+`)
		 ORDER BY pose_id, position`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading pose muscles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var poseID int64
		var m model.PoseMuscle
		if err := rows.Scan(&poseID, &m.MuscleID, &m.MuscleName, &m.MuscleNameUA, &m.BodyPart, &m.ActivationLevel); err != nil {
			return nil, fmt.Errorf("sqlite: scanning pose muscle: %w", err)
		}
		out[poseID] = append(out[poseID], m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating pose muscles: %w", err)
	}
	return out, nil
}

func musclesOrEmpty(m []model.PoseMuscle) []model.PoseMuscle {
	if m == nil {
		return []model.PoseMuscle{}
	}
	return m
}

// UpdatePose rewrites every column and replaces the muscle links.
func (db *DB) UpdatePose(ctx context.Context, pose *model.Pose) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE poses SET user_id = ?, code = ?, name = ?, name_en = ?,
				category_id = ?, description = ?, effect = ?, breathing = ?,
				schema_path = ?, photo_path = ?, muscle_layer_path = ?,
				skeleton_layer_path = ?, version = ?, created_at = ?, updated_at = ?
			 WHERE id = ?`,
			pose.UserID, pose.Code, pose.Name, pose.NameEN, pose.CategoryID,
			pose.Description, pose.Effect, pose.Breathing, pose.SchemaPath,
			pose.PhotoPath, pose.MuscleLayerPath, pose.SkeletonLayerPath,
			pose.Version, formatTime(pose.CreatedAt), formatTime(pose.UpdatedAt),
			pose.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating pose %d: %w", pose.ID, err)
		}
		if err := requireAffected(res, "Pose"); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM pose_muscles WHERE pose_id = ?`, pose.ID); err != nil {
			return fmt.Errorf("sqlite: clearing muscles for pose %d: %w", pose.ID, err)
		}
		return insertPoseMuscles(ctx, tx, pose.ID, pose.Muscles)
	})
}

// DeletePose removes the pose, its muscle links (by cascade) and its
// upload blobs.
func (db *DB) DeletePose(ctx context.Context, id int64) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM poses WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlite: deleting pose %d: %w", id, err)
		}
		if err := requireAffected(res, "Pose"); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM uploads WHERE pose_id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: deleting uploads for pose %d: %w", id, err)
		}
		return nil
	})
}
