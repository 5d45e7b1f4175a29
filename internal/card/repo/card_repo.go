package repo

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/card/entity"
)

// Repo is the id_cards repository. Every read and write is scoped to the
// owning user id, which is how row access is enforced.
type Repo struct {
	db *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// EnsureTable creates the id_cards table and its owner index when missing.
func (r *Repo) EnsureTable(ctx context.Context) error {
	var tblName sql.NullString
	if err := r.db.QueryRowContext(ctx, "SELECT to_regclass('public.id_cards')").Scan(&tblName); err != nil {
		return err
	}
	if !tblName.Valid {
		createTable := `CREATE TABLE id_cards (
			id varchar(32) PRIMARY KEY,
			user_id varchar(32) NOT NULL,
			full_name text NOT NULL,
			dob date NOT NULL,
			phone_number text NOT NULL,
			email text,
			organization_name text,
			photo_url text NOT NULL,
			signature_url text,
			id_number text NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now()
		)`
		if _, err := r.db.ExecContext(ctx, createTable); err != nil {
			return err
		}
	}

	var idxName sql.NullString
	if err := r.db.QueryRowContext(ctx, "SELECT to_regclass('public.idx_id_cards_user_created')").Scan(&idxName); err != nil {
		return err
	}
	if !idxName.Valid {
		createIndex := `CREATE INDEX idx_id_cards_user_created ON id_cards (user_id, created_at DESC)`
		if _, err := r.db.ExecContext(ctx, createIndex); err != nil {
			return err
		}
	}
	return nil
}

const selectColumns = `id, user_id, full_name, to_char(dob, 'YYYY-MM-DD') AS dob, phone_number,
	COALESCE(email, '') AS email, COALESCE(organization_name, '') AS organization_name,
	photo_url, COALESCE(signature_url, '') AS signature_url, id_number, created_at, updated_at`

// Insert stores c and fills in the server-assigned timestamps.
func (r *Repo) Insert(ctx context.Context, c *entity.Card) error {
	const q = `INSERT INTO id_cards (id, user_id, full_name, dob, phone_number, email, organization_name,
		photo_url, signature_url, id_number)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, NULLIF($9, ''), $10)
		RETURNING created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q, c.ID, c.UserID, c.FullName, c.DOB, c.PhoneNumber, c.Email,
		c.OrganizationName, c.PhotoURL, c.SignatureURL, c.IDNumber).Scan(&c.CreatedAt, &c.UpdatedAt)
}

// ListByOwner returns the owner's cards, newest first.
func (r *Repo) ListByOwner(ctx context.Context, userID string) ([]*entity.Card, error) {
	q := `SELECT ` + selectColumns + ` FROM id_cards WHERE user_id=$1 ORDER BY created_at DESC`
	out := []*entity.Card{}
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID returns every row matching id for the owner; callers decide what
// zero or several rows mean.
func (r *Repo) FindByID(ctx context.Context, userID, id string) ([]*entity.Card, error) {
	q := `SELECT ` + selectColumns + ` FROM id_cards WHERE id=$1 AND user_id=$2`
	out := []*entity.Card{}
	if err := r.db.SelectContext(ctx, &out, q, id, userID); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the editable columns and returns the affected row count.
func (r *Repo) Update(ctx context.Context, c *entity.Card) (int64, error) {
	const q = `UPDATE id_cards SET full_name=$1, dob=$2, phone_number=$3, email=NULLIF($4, ''),
		organization_name=NULLIF($5, ''), photo_url=$6, signature_url=NULLIF($7, ''), updated_at=now()
		WHERE id=$8 AND user_id=$9`
	res, err := r.db.ExecContext(ctx, q, c.FullName, c.DOB, c.PhoneNumber, c.Email, c.OrganizationName,
		c.PhotoURL, c.SignatureURL, c.ID, c.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes the owner's row and returns the affected row count.
func (r *Repo) Delete(ctx context.Context, userID, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM id_cards WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
