package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/khoahotran/academic-records/internal/domain/academic"
	"github.com/khoahotran/academic-records/pkg/logger"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const academicTable = "academic_records"

// academicDocument is the JSONB payload; identity and timestamps live in
// their own columns.
type academicDocument struct {
	Qualifications   []academic.Qualification   `json:"qualifications"`
	Experience       []academic.Experience      `json:"experience"`
	Publications     []academic.Publication     `json:"publications"`
	ResearchInterest *academic.ResearchInterest `json:"research_interest,omitempty"`
}

type postgresAcademicRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
	now    func() time.Time
}

func NewPostgresAcademicRepo(db *pgxpool.Pool, log logger.Logger) academic.Repository {
	return &postgresAcademicRepo{db: db, logger: log, now: func() time.Time { return time.Now().UTC() }}
}

func marshalDocument(r *academic.Record) ([]byte, error) {
	doc := academicDocument{
		Qualifications:   r.Qualifications,
		Experience:       r.Experience,
		Publications:     r.Publications,
		ResearchInterest: r.ResearchInterest,
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal academic document: %w", err)
	}
	return b, nil
}

func scanRecord(row pgx.Row) (*academic.Record, error) {
	var (
		userID    uuid.UUID
		docBytes  []byte
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&userID, &docBytes, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, academic.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to scan academic row: %w", err)
	}

	var doc academicDocument
	if err := json.Unmarshal(docBytes, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal academic document: %w", err)
	}

	r := academic.NewRecord(userID, createdAt)
	r.UpdatedAt = updatedAt
	r.Apply(academic.Patch{
		Qualifications:   &doc.Qualifications,
		Experience:       &doc.Experience,
		Publications:     &doc.Publications,
		ResearchInterest: doc.ResearchInterest,
	}, updatedAt)
	return r, nil
}

func selectRecord(userID uuid.UUID) sq.SelectBuilder {
	return psql.Select("user_id", "document", "created_at", "updated_at").
		From(academicTable).
		Where(sq.Eq{"user_id": userID})
}

func (r *postgresAcademicRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*academic.Record, error) {
	query, args, err := selectRecord(userID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select academic query: %w", err)
	}
	return scanRecord(r.db.QueryRow(ctx, query, args...))
}

func (r *postgresAcademicRepo) Upsert(ctx context.Context, rec *academic.Record) (bool, error) {
	doc, err := marshalDocument(rec)
	if err != nil {
		return false, err
	}

	// xmax is zero only on a freshly inserted tuple.
	query, args, err := psql.Insert(academicTable).
		Columns("user_id", "document", "created_at", "updated_at").
		Values(rec.UserID, doc, rec.CreatedAt, rec.UpdatedAt).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at RETURNING (xmax = 0), created_at").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build upsert academic query: %w", err)
	}

	var created bool
	if err := r.db.QueryRow(ctx, query, args...).Scan(&created, &rec.CreatedAt); err != nil {
		return false, fmt.Errorf("failed to upsert academic record: %w", err)
	}
	return created, nil
}

func (r *postgresAcademicRepo) Update(ctx context.Context, rec *academic.Record) error {
	doc, err := marshalDocument(rec)
	if err != nil {
		return err
	}
	query, args, err := psql.Update(academicTable).
		Set("document", doc).
		Set("updated_at", rec.UpdatedAt).
		Where(sq.Eq{"user_id": rec.UserID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update academic query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update academic record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return academic.ErrRecordNotFound
	}
	return nil
}

func (r *postgresAcademicRepo) Create(ctx context.Context, rec *academic.Record) error {
	doc, err := marshalDocument(rec)
	if err != nil {
		return err
	}
	query, args, err := psql.Insert(academicTable).
		Columns("user_id", "document", "created_at", "updated_at").
		Values(rec.UserID, doc, rec.CreatedAt, rec.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert academic query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return academic.ErrRecordExists
		}
		return fmt.Errorf("failed to insert academic record: %w", err)
	}
	return nil
}

func (r *postgresAcademicRepo) AttachDocument(ctx context.Context, userID uuid.UUID, sel academic.DocumentSelector, url string) (*academic.Record, string, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.logger.Error("Failed to rollback attach document", rbErr, zap.String("user_id", userID.String()))
		}
	}()

	query, args, err := selectRecord(userID).Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return nil, "", fmt.Errorf("failed to build lock academic query: %w", err)
	}
	rec, err := scanRecord(tx.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, "", err
	}

	prev, err := rec.AttachDocument(sel, url)
	if err != nil {
		return nil, "", err
	}
	rec.UpdatedAt = r.now()

	doc, err := marshalDocument(rec)
	if err != nil {
		return nil, "", err
	}
	query, args, err = psql.Update(academicTable).
		Set("document", doc).
		Set("updated_at", rec.UpdatedAt).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, "", fmt.Errorf("failed to build attach document query: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return nil, "", fmt.Errorf("failed to attach document: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, "", fmt.Errorf("failed to commit attach document: %w", err)
	}
	return rec, prev, nil
}
