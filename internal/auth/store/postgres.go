package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"barangaylink/internal/auth/models"
	id "barangaylink/pkg/domain"
	dErrors "barangaylink/pkg/domain-errors"
	"barangaylink/pkg/platform/sentinel"
	"barangaylink/pkg/requestcontext"
)

const uniqueViolation = "23505"

// Postgres is the production UserStore.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const userColumns = `id, name, email, password_hash, role, active, created_at, updated_at`

func (p *Postgres) Create(ctx context.Context, user *models.User) error {
	now := requestcontext.Now(ctx)
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		user.ID.String(), user.Name, user.Email, user.PasswordHash,
		string(user.Role), user.Active, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "insert user")
	}
	return nil
}

func (p *Postgres) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, userID.String())
	return scanUser(row)
}

func (p *Postgres) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
	return scanUser(row)
}

func (p *Postgres) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = requestcontext.Now(ctx)
	res, err := p.db.ExecContext(ctx, `
		UPDATE users SET name = $1, email = $2, password_hash = $3,
			role = $4, active = $5, updated_at = $6
		WHERE id = $7`,
		user.Name, user.Email, user.PasswordHash,
		string(user.Role), user.Active, user.UpdatedAt, user.ID.String(),
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update user")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update user")
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, search string, page, perPage int) (UserPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 15
	}

	var (
		clause string
		args   []any
	)
	if s := strings.TrimSpace(search); s != "" {
		clause = ` WHERE name ILIKE $1 OR email ILIKE $1`
		args = append(args, "%"+s+"%")
	}

	var total int
	if err := p.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users"+clause, args...,
	).Scan(&total); err != nil {
		return UserPage{}, dErrors.Wrap(err, dErrors.CodeInternal, "count users")
	}

	lastPage := (total + perPage - 1) / perPage
	if lastPage == 0 {
		lastPage = 1
	}

	limitPos := len(args) + 1
	args = append(args, perPage, (page-1)*perPage)
	rows, err := p.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM users%s ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d",
			userColumns, clause, limitPos, limitPos+1),
		args...,
	)
	if err != nil {
		return UserPage{}, dErrors.Wrap(err, dErrors.CodeInternal, "list users")
	}
	defer rows.Close()

	items := make([]models.User, 0, perPage)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return UserPage{}, err
		}
		items = append(items, *u)
	}
	if err := rows.Err(); err != nil {
		return UserPage{}, dErrors.Wrap(err, dErrors.CodeInternal, "list users")
	}
	return UserPage{Items: items, Total: total, Page: page, PerPage: perPage, LastPage: lastPage}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u      models.User
		userID string
		role   string
	)
	err := row.Scan(&userID, &u.Name, &u.Email, &u.PasswordHash,
		&role, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan user")
	}
	if u.ID, err = id.ParseUserID(userID); err != nil {
		return nil, err
	}
	if u.Role, err = id.ParseRole(role); err != nil {
		return nil, err
	}
	return &u, nil
}
