package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"forkplace.org/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store on PostgreSQL via database/sql.
type PGStore struct {
	db *sql.DB
}

// Open connects to PostgreSQL and tunes the pool.
func Open(dsn string) (*PGStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &PGStore{db: db}, nil
}

// NewPGStore wraps an existing handle (tests use sqlmock here).
func NewPGStore(db *sql.DB) *PGStore { return &PGStore{db: db} }

func (s *PGStore) Close() error { return s.db.Close() }

func (s *PGStore) DB() *sql.DB { return s.db }

const pgUniqueViolation = "23505"

func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrConflict
	}
	return err
}

// Subjects -----------------------------------------------------------------

func (s *PGStore) CreateSubject(ctx context.Context, subject *Subject) error {
	if subject.ID == "" {
		subject.ID = ids.New()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`insert into subjects(id, name, email, password_hash) values($1,$2,$3,$4)`,
		subject.ID, subject.Name, subject.Email, subject.PasswordHash,
	); err != nil {
		return mapPGError(err)
	}
	for _, roleID := range subject.RoleIDs {
		if _, err := tx.ExecContext(ctx,
			`insert into subject_roles(subject_id, role_id) values($1,$2) on conflict do nothing`,
			subject.ID, roleID,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const subjectColumns = `id, name, email, password_hash, suspended, coalesce(refresh_token, ''), created_at, updated_at`

func (s *PGStore) scanSubject(ctx context.Context, row *sql.Row) (*Subject, error) {
	var sub Subject
	err := row.Scan(&sub.ID, &sub.Name, &sub.Email, &sub.PasswordHash,
		&sub.Suspended, &sub.RefreshToken, &sub.CreatedAt, &sub.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	roleIDs, err := s.subjectRoleIDs(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	sub.RoleIDs = roleIDs
	return &sub, nil
}

func (s *PGStore) subjectRoleIDs(ctx context.Context, subjectID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`select role_id from subject_roles where subject_id=$1 order by role_id`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *PGStore) FindSubjectByID(ctx context.Context, id string) (*Subject, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+subjectColumns+` from subjects where id=$1`, id)
	return s.scanSubject(ctx, row)
}

func (s *PGStore) FindSubjectByEmail(ctx context.Context, email string) (*Subject, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+subjectColumns+` from subjects where email=$1`, email)
	return s.scanSubject(ctx, row)
}

func (s *PGStore) FindSubjectByRefreshToken(ctx context.Context, token string) (*Subject, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`select `+subjectColumns+` from subjects where refresh_token=$1`, token)
	return s.scanSubject(ctx, row)
}

func (s *PGStore) UpdateSubject(ctx context.Context, id string, patch SubjectPatch) error {
	sets := []string{"updated_at = now()"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if patch.Name != nil {
		sets = append(sets, "name = "+arg(*patch.Name))
	}
	if patch.Email != nil {
		sets = append(sets, "email = "+arg(*patch.Email))
	}
	if patch.PasswordHash != nil {
		sets = append(sets, "password_hash = "+arg(*patch.PasswordHash))
	}
	if patch.Suspended != nil {
		sets = append(sets, "suspended = "+arg(*patch.Suspended))
	}
	if patch.RefreshToken != nil {
		if *patch.RefreshToken == "" {
			sets = append(sets, "refresh_token = null")
		} else {
			sets = append(sets, "refresh_token = "+arg(*patch.RefreshToken))
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	query := "update subjects set " + strings.Join(sets, ", ") + " where id = " + arg(id)
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return mapPGError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	if patch.RoleIDs != nil {
		if _, err := tx.ExecContext(ctx,
			`delete from subject_roles where subject_id=$1`, id); err != nil {
			return err
		}
		for _, roleID := range patch.RoleIDs {
			if _, err := tx.ExecContext(ctx,
				`insert into subject_roles(subject_id, role_id) values($1,$2)`,
				id, roleID,
			); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// Roles and permissions ----------------------------------------------------

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ",")
}

func (s *PGStore) RolesByID(ctx context.Context, roleIDs []string) ([]Role, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	args := make([]any, len(roleIDs))
	for i, id := range roleIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`select id, name, description, created_at, updated_at from roles where id in (`+placeholders(len(roleIDs))+`) order by name`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range roles {
		permIDs, err := s.rolePermissionIDs(ctx, roles[i].ID)
		if err != nil {
			return nil, err
		}
		roles[i].PermissionIDs = permIDs
	}
	return roles, nil
}

func (s *PGStore) rolePermissionIDs(ctx context.Context, roleID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`select permission_id from role_permissions where role_id=$1 order by permission_id`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *PGStore) PermissionsByID(ctx context.Context, permIDs []string) ([]Permission, error) {
	if len(permIDs) == 0 {
		return nil, nil
	}
	args := make([]any, len(permIDs))
	for i, id := range permIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`select id, name, resource, action, scope, created_at from permissions where id in (`+placeholders(len(permIDs))+`) order by name`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Resource, &p.Action, &p.Scope, &p.CreatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (s *PGStore) FindRoleByName(ctx context.Context, name string) (*Role, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, description, created_at, updated_at from roles where name=$1`, name)
	var r Role
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	permIDs, err := s.rolePermissionIDs(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	r.PermissionIDs = permIDs
	return &r, nil
}

func (s *PGStore) EnsurePermission(ctx context.Context, p *Permission) error {
	if p.ID == "" {
		p.ID = ids.New()
	}
	// Upsert keyed on the (resource, action, scope) triple; the id of a
	// pre-existing row wins so references stay stable across restarts.
	row := s.db.QueryRowContext(ctx, `
		insert into permissions(id, name, resource, action, scope)
		values ($1,$2,$3,$4,$5)
		on conflict (resource, action, scope) do update set name = excluded.name
		returning id, created_at
	`, p.ID, p.Name, p.Resource, string(p.Action), string(p.Scope))
	if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
		return mapPGError(err)
	}
	return nil
}

func (s *PGStore) EnsureRole(ctx context.Context, r *Role) error {
	if r.ID == "" {
		r.ID = ids.New()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		insert into roles(id, name, description)
		values ($1,$2,$3)
		on conflict (name) do update set description = excluded.description, updated_at = now()
		returning id, created_at, updated_at
	`, r.ID, r.Name, r.Description)
	if err := row.Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return mapPGError(err)
	}

	if _, err := tx.ExecContext(ctx,
		`delete from role_permissions where role_id=$1`, r.ID); err != nil {
		return err
	}
	for _, permID := range r.PermissionIDs {
		if _, err := tx.ExecContext(ctx,
			`insert into role_permissions(role_id, permission_id) values($1,$2)`,
			r.ID, permID,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}
