package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"barangaylink/internal/application/models"
	id "barangaylink/pkg/domain"
	dErrors "barangaylink/pkg/domain-errors"
	"barangaylink/pkg/platform/sentinel"
	"barangaylink/pkg/requestcontext"
)

const uniqueViolation = "23505"

// Postgres is the production ApplicationStore. Payload and attachments live
// in JSONB so one table serves all document types; the version column backs
// the optimistic compare-and-swap.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const applicationColumns = `
	id, document_type, reference_number, owner_id, status, payload, attachments,
	issued_number, rejection_reason, admin_remarks, processed_by,
	approved_at, rejected_at, released_at, dispatched_at, arrived_at,
	completed_at, cancelled_at, expires_at, created_at, updated_at, version`

func (p *Postgres) Create(ctx context.Context, app *models.Application) error {
	payload, attachments, err := marshalDocs(app)
	if err != nil {
		return err
	}
	now := requestcontext.Now(ctx)
	app.CreatedAt = now
	app.UpdatedAt = now
	app.Version = 1

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO applications (`+applicationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`,
		app.ID.String(), string(app.Type), app.ReferenceNumber, app.OwnerID.String(),
		string(app.Status), payload, attachments,
		nullString(app.IssuedNumber), nullString(app.RejectionReason),
		nullString(app.AdminRemarks), nullUUID(app.ProcessedBy),
		app.ApprovedAt, app.RejectedAt, app.ReleasedAt, app.DispatchedAt,
		app.ArrivedAt, app.CompletedAt, app.CancelledAt, app.ExpiresAt,
		app.CreatedAt, app.UpdatedAt, app.Version,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "insert application")
	}
	return nil
}

func (p *Postgres) FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`,
		appID.String(),
	)
	return scanApplication(row)
}

func (p *Postgres) FindByReference(ctx context.Context, t models.DocumentType, reference string) (*models.Application, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications
		 WHERE document_type = $1 AND reference_number = $2`,
		string(t), reference,
	)
	return scanApplication(row)
}

func (p *Postgres) List(ctx context.Context, f ListFilter) (Page, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Type != "" {
		where = append(where, "document_type = "+arg(string(f.Type)))
	}
	if !f.OwnerID.IsNil() {
		where = append(where, "owner_id = "+arg(f.OwnerID.String()))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(string(f.Status)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		needle := arg("%" + s + "%")
		ors := []string{"reference_number ILIKE " + needle}
		for _, field := range f.SearchFields {
			ors = append(ors, fmt.Sprintf("payload->>%s ILIKE %s", arg(field), needle))
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := p.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM applications"+clause, args...,
	).Scan(&total); err != nil {
		return Page{}, dErrors.Wrap(err, dErrors.CodeInternal, "count applications")
	}

	page, perPage := normalizePaging(f.Page, f.PerPage)
	lastPage := (total + perPage - 1) / perPage
	if lastPage == 0 {
		lastPage = 1
	}

	query := "SELECT " + applicationColumns + " FROM applications" + clause +
		" ORDER BY created_at DESC, id ASC" +
		" LIMIT " + arg(perPage) + " OFFSET " + arg((page-1)*perPage)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Page{}, dErrors.Wrap(err, dErrors.CodeInternal, "list applications")
	}
	defer rows.Close()

	items := make([]models.Application, 0, perPage)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return Page{}, err
		}
		items = append(items, *app)
	}
	if err := rows.Err(); err != nil {
		return Page{}, dErrors.Wrap(err, dErrors.CodeInternal, "list applications")
	}
	return Page{Items: items, Total: total, Page: page, PerPage: perPage, LastPage: lastPage}, nil
}

func (p *Postgres) Update(ctx context.Context, app *models.Application) error {
	payload, attachments, err := marshalDocs(app)
	if err != nil {
		return err
	}
	app.UpdatedAt = requestcontext.Now(ctx)

	res, err := p.db.ExecContext(ctx, `
		UPDATE applications SET
			status = $1, payload = $2, attachments = $3,
			issued_number = $4, rejection_reason = $5, admin_remarks = $6,
			processed_by = $7,
			approved_at = $8, rejected_at = $9, released_at = $10,
			dispatched_at = $11, arrived_at = $12, completed_at = $13,
			cancelled_at = $14, expires_at = $15,
			updated_at = $16, version = version + 1
		WHERE id = $17 AND version = $18`,
		string(app.Status), payload, attachments,
		nullString(app.IssuedNumber), nullString(app.RejectionReason),
		nullString(app.AdminRemarks), nullUUID(app.ProcessedBy),
		app.ApprovedAt, app.RejectedAt, app.ReleasedAt,
		app.DispatchedAt, app.ArrivedAt, app.CompletedAt,
		app.CancelledAt, app.ExpiresAt,
		app.UpdatedAt, app.ID.String(), app.Version,
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update application")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update application")
	}
	if affected == 0 {
		// Row missing or version moved; disambiguate for the caller.
		if _, findErr := p.FindByID(ctx, app.ID); findErr != nil {
			return findErr
		}
		return sentinel.ErrConflict
	}
	app.Version++
	return nil
}

func (p *Postgres) Delete(ctx context.Context, appID id.ApplicationID) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, appID.String())
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete application")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete application")
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (p *Postgres) LastIssuedNumber(ctx context.Context, t models.DocumentType, pattern string) (string, error) {
	var last sql.NullString
	err := p.db.QueryRowContext(ctx, `
		SELECT MAX(issued_number) FROM applications
		WHERE document_type = $1 AND issued_number LIKE $2`,
		string(t), pattern,
	).Scan(&last)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "query last issued number")
	}
	return last.String, nil
}

func (p *Postgres) CountByStatus(ctx context.Context, t models.DocumentType) (map[models.Status]int, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM applications
		WHERE document_type = $1 GROUP BY status`,
		string(t),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "count by status")
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "count by status")
		}
		counts[models.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "count by status")
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var (
		app         models.Application
		appID       string
		docType     string
		ownerID     string
		status      string
		payload     []byte
		attachments []byte
		issued      sql.NullString
		reason      sql.NullString
		remarks     sql.NullString
		processedBy sql.NullString
	)
	err := row.Scan(
		&appID, &docType, &app.ReferenceNumber, &ownerID, &status,
		&payload, &attachments,
		&issued, &reason, &remarks, &processedBy,
		&app.ApprovedAt, &app.RejectedAt, &app.ReleasedAt, &app.DispatchedAt,
		&app.ArrivedAt, &app.CompletedAt, &app.CancelledAt, &app.ExpiresAt,
		&app.CreatedAt, &app.UpdatedAt, &app.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan application")
	}

	if app.ID, err = id.ParseApplicationID(appID); err != nil {
		return nil, err
	}
	if app.OwnerID, err = id.ParseUserID(ownerID); err != nil {
		return nil, err
	}
	if processedBy.Valid {
		if app.ProcessedBy, err = id.ParseUserID(processedBy.String); err != nil {
			return nil, err
		}
	}
	app.Type = models.DocumentType(docType)
	app.Status = models.Status(status)
	app.IssuedNumber = issued.String
	app.RejectionReason = reason.String
	app.AdminRemarks = remarks.String

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &app.Payload); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decode payload")
		}
	}
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &app.Attachments); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decode attachments")
		}
	}
	return &app, nil
}

func marshalDocs(app *models.Application) ([]byte, []byte, error) {
	payload := app.Payload
	if payload == nil {
		payload = models.Payload{}
	}
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode payload")
	}
	attachments := app.Attachments
	if attachments == nil {
		attachments = map[string]string{}
	}
	a, err := json.Marshal(attachments)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode attachments")
	}
	return p, a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullUUID(u id.UserID) sql.NullString {
	if u.IsNil() {
		return sql.NullString{}
	}
	return sql.NullString{String: u.String(), Valid: true}
}
