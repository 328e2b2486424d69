// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package directory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/civilregistry/internal/platform/database/schema"
	"github.com/taibuivan/civilregistry/internal/platform/dberr"
)

// PostgresRepository reads profiles from users.admins and users.staff.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a [PostgresRepository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// FindAdmins loads admin profiles by id.
func (repository *PostgresRepository) FindAdmins(ctx context.Context, ids []int64) (map[int64]Profile, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, COALESCE(NULLIF(%s, ''), $2)
		FROM %s
		WHERE %s = ANY($1)
	`,
		schema.UsersAdmin.ID, schema.UsersAdmin.FullName, schema.UsersAdmin.Email, schema.UsersAdmin.Position,
		schema.UsersAdmin.Table,
		schema.UsersAdmin.ID,
	)
	return repository.find(ctx, query, UserTypeAdmin, ids, PositionAdmin)
}

// FindStaff loads staff profiles by id. Deactivated staff still resolve.
func (repository *PostgresRepository) FindStaff(ctx context.Context, ids []int64) (map[int64]Profile, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, $2::text
		FROM %s
		WHERE %s = ANY($1)
	`,
		schema.UsersStaff.ID, schema.UsersStaff.FullName, schema.UsersStaff.Email,
		schema.UsersStaff.Table,
		schema.UsersStaff.ID,
	)
	return repository.find(ctx, query, UserTypeStaff, ids, PositionStaff)
}

func (repository *PostgresRepository) find(ctx context.Context, query, userType string, ids []int64, position string) (map[int64]Profile, error) {
	rows, err := repository.pool.Query(ctx, query, ids, position)
	if err != nil {
		return nil, dberr.Wrap(err, "find_profiles")
	}
	defer rows.Close()

	profiles := make(map[int64]Profile, len(ids))
	for rows.Next() {
		var (
			id      int64
			profile Profile
			email   string
		)
		if err := rows.Scan(&id, &profile.FullName, &email, &profile.Position); err != nil {
			return nil, dberr.Wrap(err, "scan_profile")
		}
		profile.ID = &id
		profile.Email = &email
		profile.UserType = userType
		profiles[id] = profile
	}

	return profiles, dberr.Wrap(rows.Err(), "find_profiles")
}
