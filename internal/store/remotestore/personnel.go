package remotestore

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/relentnet/matchops-sync/internal/domain"
	"github.com/relentnet/matchops-sync/internal/errs"
)

func (r *RemoteDataStore) GetAllPersonnel(ctx context.Context) ([]domain.Personnel, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	return withRetry(ctx, func(ctx context.Context) ([]domain.Personnel, error) {
		rows, err := r.pool.Query(ctx, `
			SELECT id, name, role, email, phone, certifications, notes, created_at, updated_at
			FROM personnel WHERE user_id = $1 ORDER BY created_at DESC
		`, r.userID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		out := make([]domain.Personnel, 0)
		for rows.Next() {
			p, err := scanPersonnel(rows)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, rows.Err()
	})
}

func (r *RemoteDataStore) GetPersonnelByID(ctx context.Context, id string) (*domain.Personnel, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	return withRetry(ctx, func(ctx context.Context) (*domain.Personnel, error) {
		row := r.pool.QueryRow(ctx, `
			SELECT id, name, role, email, phone, certifications, notes, created_at, updated_at
			FROM personnel WHERE id = $1 AND user_id = $2
		`, id, r.userID)
		p, err := scanPersonnel(row)
		if isNoRows(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &p, nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPersonnel(row rowScanner) (domain.Personnel, error) {
	var p domain.Personnel
	var certRaw []byte
	var createdAt, updatedAt timeValue
	if err := row.Scan(&p.ID, &p.Name, &p.Role, &p.Email, &p.Phone, &certRaw, &p.Notes, &createdAt, &updatedAt); err != nil {
		return domain.Personnel{}, err
	}
	if len(certRaw) > 0 {
		_ = json.Unmarshal(certRaw, &p.Certifications)
	}
	p.CreatedAt, p.UpdatedAt = createdAt.String(), updatedAt.String()
	return p, nil
}

func (r *RemoteDataStore) personnelExistsWithKey(ctx context.Context, key, excludeID string) (bool, error) {
	personnel, err := r.GetAllPersonnel(ctx)
	if err != nil {
		return false, err
	}
	for _, existing := range personnel {
		if existing.ID != excludeID && existing.UniqueKey() == key {
			return true, nil
		}
	}
	return false, nil
}

func (r *RemoteDataStore) AddPersonnelMember(ctx context.Context, p domain.Personnel) (domain.Personnel, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return domain.Personnel{}, err
	}
	p.Name = domain.NormalizeName(p.Name)
	if err := domain.ValidateName(p.Name, maxNameLen); err != nil {
		return domain.Personnel{}, errs.Wrap(errs.Validation, "personnel name invalid", err)
	}
	if exists, err := r.personnelExistsWithKey(ctx, p.UniqueKey(), ""); err != nil {
		return domain.Personnel{}, err
	} else if exists {
		return domain.Personnel{}, errs.New(errs.AlreadyExists, "a personnel member with this name already exists")
	}
	p.ID = "personnel_" + uuid.NewString()
	certRaw, _ := json.Marshal(p.Certifications)
	return withRetry(ctx, func(ctx context.Context) (domain.Personnel, error) {
		var createdAt, updatedAt timeValue
		err := r.pool.QueryRow(ctx, `
			INSERT INTO personnel (id, user_id, name, role, email, phone, certifications, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			RETURNING created_at, updated_at
		`, p.ID, r.userID, p.Name, p.Role, p.Email, p.Phone, certRaw, p.Notes,
		).Scan(&createdAt, &updatedAt)
		if err != nil {
			return domain.Personnel{}, err
		}
		p.CreatedAt, p.UpdatedAt = createdAt.String(), updatedAt.String()
		return p, nil
	})
}

func (r *RemoteDataStore) UpdatePersonnelMember(ctx context.Context, id string, patch domain.Personnel) (*domain.Personnel, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	patch.Name = domain.NormalizeName(patch.Name)
	if err := domain.ValidateName(patch.Name, maxNameLen); err != nil {
		return nil, errs.Wrap(errs.Validation, "personnel name invalid", err)
	}
	if exists, err := r.personnelExistsWithKey(ctx, patch.UniqueKey(), id); err != nil {
		return nil, err
	} else if exists {
		return nil, errs.New(errs.AlreadyExists, "a personnel member with this name already exists")
	}
	certRaw, _ := json.Marshal(patch.Certifications)
	return withRetry(ctx, func(ctx context.Context) (*domain.Personnel, error) {
		row := r.pool.QueryRow(ctx, `
			UPDATE personnel SET name=$3, role=$4, email=$5, phone=$6, certifications=$7, notes=$8, updated_at=now()
			WHERE id = $1 AND user_id = $2
			RETURNING id, name, role, email, phone, certifications, notes, created_at, updated_at
		`, id, r.userID, patch.Name, patch.Role, patch.Email, patch.Phone, certRaw, patch.Notes)
		p, err := scanPersonnel(row)
		if isNoRows(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &p, nil
	})
}

// RemovePersonnelMember deletes the personnel row and scrubs the matching
// game_events JSONB references within the same transaction, mirroring the
// two-phase-locked cascade LocalDataStore performs in-process. Postgres row locks replace the in-process key lock here.
func (r *RemoteDataStore) RemovePersonnelMember(ctx context.Context, id string) error {
	if err := r.checkCallPreconditions(); err != nil {
		return err
	}
	_, err := withRetry(ctx, func(ctx context.Context) (struct{}, error) {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return struct{}{}, err
		}
		defer tx.Rollback(ctx)

		tag, err := tx.Exec(ctx, `DELETE FROM personnel WHERE id = $1 AND user_id = $2`, id, r.userID)
		if err != nil {
			return struct{}{}, err
		}
		if tag.RowsAffected() == 0 {
			return struct{}{}, nil
		}

		if _, err := tx.Exec(ctx, `
			UPDATE games SET
				game_events = (
					SELECT jsonb_agg(
						CASE WHEN elem->>'personnelId' = $1 THEN elem - 'personnelId' ELSE elem END
					)
					FROM jsonb_array_elements(game_events) AS elem
				),
				updated_at = now()
			WHERE user_id = $2 AND game_events @> jsonb_build_array(jsonb_build_object('personnelId', $1::text))
		`, id, r.userID); err != nil {
			return struct{}{}, err
		}

		return struct{}{}, tx.Commit(ctx)
	})
	return err
}
