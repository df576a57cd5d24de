package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver

	"github.com/wadjakorntonsri/go-qr-platform/pkg/core/domain"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/ports"
)

type SQLiteRepository struct {
	db *sql.DB
}

// Open connects to a local SQLite file or a remote libSQL database, depending on the URL.
func Open(ctx context.Context, dbURL string) (*sql.DB, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}
	if driverName == "sqlite" {
		// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// NewSQLiteRepository migrates the schema on db. The caller owns db and closes it.
func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if err := migrate(db); err != nil {
		return nil, err
	}
	return &SQLiteRepository{db: db}, nil
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL DEFAULT 'user',
		qr_code_limit INTEGER NOT NULL DEFAULT 20,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS hosted_images (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		filename TEXT NOT NULL,
		file_path TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		file_size INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_hosted_images_user_id ON hosted_images(user_id);

	CREATE TABLE IF NOT EXISTS qr_codes (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		custom_name TEXT NOT NULL,
		target_type TEXT NOT NULL,
		target_url TEXT NOT NULL DEFAULT '',
		hosted_image_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_qr_codes_user_status ON qr_codes(user_id, status);

	CREATE TABLE IF NOT EXISTS qr_code_accesses (
		id TEXT PRIMARY KEY,
		qr_code_id TEXT NOT NULL,
		accessed_at INTEGER NOT NULL,
		user_agent TEXT NOT NULL DEFAULT '',
		referer TEXT NOT NULL DEFAULT '',
		ip_address TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_qr_code_accesses_qr_time ON qr_code_accesses(qr_code_id, accessed_at);
	`
	_, err := db.Exec(query)
	return err
}

// Timestamps are stored as unix milliseconds so range filters compare integers.
func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

type rowScanner interface {
	Scan(dest ...any) error
}

// --- QR codes ---

const qrColumns = `q.id, q.user_id, q.custom_name, q.target_type, q.target_url, q.hosted_image_id, q.status, q.created_at, q.updated_at`

const accessCountColumn = `(SELECT COUNT(*) FROM qr_code_accesses a WHERE a.qr_code_id = q.id)`

func scanQRCode(row rowScanner, extra ...any) (*domain.QRCode, error) {
	var qr domain.QRCode
	var createdAt, updatedAt int64
	dest := append([]any{
		&qr.ID, &qr.OwnerID, &qr.CustomName, &qr.TargetType, &qr.TargetURL,
		&qr.HostedImageID, &qr.Status, &createdAt, &updatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	qr.CreatedAt = fromMillis(createdAt)
	qr.UpdatedAt = fromMillis(updatedAt)
	return &qr, nil
}

func (r *SQLiteRepository) CreateQRCode(ctx context.Context, qr *domain.QRCode) error {
	query := `INSERT INTO qr_codes (id, user_id, custom_name, target_type, target_url, hosted_image_id, status, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		qr.ID, qr.OwnerID, qr.CustomName, qr.TargetType, qr.TargetURL, qr.HostedImageID, qr.Status,
		toMillis(qr.CreatedAt), toMillis(qr.UpdatedAt),
	)
	return err
}

func (r *SQLiteRepository) GetQRCode(ctx context.Context, id string) (*domain.QRCode, error) {
	query := `SELECT ` + qrColumns + ` FROM qr_codes q WHERE q.id = ?`

	qr, err := scanQRCode(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return qr, nil
}

func (r *SQLiteRepository) UpdateQRCode(ctx context.Context, qr *domain.QRCode) error {
	query := `UPDATE qr_codes SET custom_name = ?, target_type = ?, target_url = ?, hosted_image_id = ?, status = ?, updated_at = ?
			  WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		qr.CustomName, qr.TargetType, qr.TargetURL, qr.HostedImageID, qr.Status, toMillis(qr.UpdatedAt), qr.ID,
	)
	return err
}

func (r *SQLiteRepository) UpdateQRCodeStatus(ctx context.Context, id string, status domain.Status, updatedAt time.Time) error {
	query := `UPDATE qr_codes SET status = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, status, toMillis(updatedAt), id)
	return err
}

// filterClause renders the WHERE clause of a listing. No statuses means every status except deleted.
func filterClause(filter domain.QRCodeFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any

	if filter.OwnerID != "" {
		where += " AND q.user_id = ?"
		args = append(args, filter.OwnerID)
	}

	if len(filter.Statuses) == 0 {
		where += " AND q.status != ?"
		args = append(args, domain.StatusDeleted)
	} else {
		where += " AND q.status IN (?" + strings.Repeat(", ?", len(filter.Statuses)-1) + ")"
		for _, st := range filter.Statuses {
			args = append(args, st)
		}
	}
	return where, args
}

func (r *SQLiteRepository) ListQRCodes(ctx context.Context, filter domain.QRCodeFilter) ([]domain.QRCode, error) {
	where, args := filterClause(filter)
	query := `SELECT ` + qrColumns + `, ` + accessCountColumn + ` FROM qr_codes q` + where + ` ORDER BY q.created_at DESC, q.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var qrs []domain.QRCode
	for rows.Next() {
		var count int64
		qr, err := scanQRCode(rows, &count)
		if err != nil {
			return nil, err
		}
		qr.AccessCount = count
		qrs = append(qrs, *qr)
	}
	return qrs, rows.Err()
}

func (r *SQLiteRepository) ListQRCodesWithOwner(ctx context.Context, filter domain.QRCodeFilter) ([]domain.QRCodeWithOwner, error) {
	where, args := filterClause(filter)
	query := `SELECT ` + qrColumns + `, ` + accessCountColumn + `, u.id, u.name, u.email
			  FROM qr_codes q LEFT JOIN users u ON u.id = q.user_id` + where + ` ORDER BY q.created_at DESC, q.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var qrs []domain.QRCodeWithOwner
	for rows.Next() {
		var count int64
		var userID, userName, userEmail sql.NullString
		qr, err := scanQRCode(rows, &count, &userID, &userName, &userEmail)
		if err != nil {
			return nil, err
		}
		qr.AccessCount = count

		item := domain.QRCodeWithOwner{QRCode: *qr}
		if userID.Valid {
			item.Owner = &domain.UserSummary{ID: userID.String, Name: userName.String, Email: userEmail.String}
		}
		qrs = append(qrs, item)
	}
	return qrs, rows.Err()
}

func (r *SQLiteRepository) CountActiveQRCodes(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM qr_codes WHERE user_id = ? AND status != ?`, ownerID, domain.StatusDeleted,
	).Scan(&count)
	return count, err
}

// Dump returns every QR code, deleted ones included.
func (r *SQLiteRepository) Dump(ctx context.Context) ([]domain.QRCode, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+qrColumns+` FROM qr_codes q ORDER BY q.created_at, q.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var qrs []domain.QRCode
	for rows.Next() {
		qr, err := scanQRCode(rows)
		if err != nil {
			return nil, err
		}
		qrs = append(qrs, *qr)
	}
	return qrs, rows.Err()
}

// --- Access log ---

func (r *SQLiteRepository) InsertAccessEvent(ctx context.Context, event *domain.AccessEvent) error {
	query := `INSERT INTO qr_code_accesses (id, qr_code_id, accessed_at, user_agent, referer, ip_address) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.QRCodeID, toMillis(event.Timestamp), event.UserAgent, event.Referer, event.IPAddress,
	)
	return err
}

// ListAccessEventsInRange returns the events of qrID with start <= timestamp <= end, oldest first.
func (r *SQLiteRepository) ListAccessEventsInRange(ctx context.Context, qrID string, start, end time.Time) ([]domain.AccessEvent, error) {
	query := `SELECT id, qr_code_id, accessed_at, user_agent, referer, ip_address
			  FROM qr_code_accesses
			  WHERE qr_code_id = ? AND accessed_at >= ? AND accessed_at <= ?
			  ORDER BY accessed_at`

	rows, err := r.db.QueryContext(ctx, query, qrID, toMillis(start), toMillis(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.AccessEvent
	for rows.Next() {
		var ev domain.AccessEvent
		var ts int64
		if err := rows.Scan(&ev.ID, &ev.QRCodeID, &ts, &ev.UserAgent, &ev.Referer, &ev.IPAddress); err != nil {
			return nil, err
		}
		ev.Timestamp = fromMillis(ts)
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *SQLiteRepository) CountAccessEvents(ctx context.Context, qrID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM qr_code_accesses WHERE qr_code_id = ?`, qrID).Scan(&count)
	return count, err
}

func (r *SQLiteRepository) CountAccessEventsInRange(ctx context.Context, qrID string, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM qr_code_accesses WHERE qr_code_id = ? AND accessed_at >= ? AND accessed_at <= ?`,
		qrID, toMillis(start), toMillis(end),
	).Scan(&count)
	return count, err
}

// --- Users ---

const userColumns = `id, name, email, role, qr_code_limit, created_at, updated_at`

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var createdAt, updatedAt int64
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.QRCodeLimit, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return &u, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.Role, user.QRCodeLimit, toMillis(user.CreatedAt), toMillis(user.UpdatedAt),
	)
	return err
}

func (r *SQLiteRepository) getUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return r.getUser(ctx, "id = ?", id)
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getUser(ctx, "email = ?", email)
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, user *domain.User) error {
	query := `UPDATE users SET name = ?, email = ?, role = ?, qr_code_limit = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		user.Name, user.Email, user.Role, user.QRCodeLimit, toMillis(user.UpdatedAt), user.ID,
	)
	return err
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// --- Hosted images ---

func (r *SQLiteRepository) CreateHostedImage(ctx context.Context, img *domain.HostedImage) error {
	query := `INSERT INTO hosted_images (id, user_id, filename, file_path, mime_type, file_size, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		img.ID, img.OwnerID, img.Filename, img.FilePath, img.MimeType, img.FileSize, toMillis(img.CreatedAt),
	)
	return err
}

const imageColumns = `id, user_id, filename, file_path, mime_type, file_size, created_at`

func scanHostedImage(row rowScanner) (*domain.HostedImage, error) {
	var img domain.HostedImage
	var createdAt int64
	if err := row.Scan(
		&img.ID, &img.OwnerID, &img.Filename, &img.FilePath, &img.MimeType, &img.FileSize, &createdAt,
	); err != nil {
		return nil, err
	}
	img.CreatedAt = fromMillis(createdAt)
	return &img, nil
}

func (r *SQLiteRepository) GetHostedImage(ctx context.Context, id string) (*domain.HostedImage, error) {
	img, err := scanHostedImage(r.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM hosted_images WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return img, err
}

// DumpHostedImages returns every image row in creation order.
func (r *SQLiteRepository) DumpHostedImages(ctx context.Context) ([]domain.HostedImage, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+imageColumns+` FROM hosted_images ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []domain.HostedImage
	for rows.Next() {
		img, err := scanHostedImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, *img)
	}
	return images, rows.Err()
}

// Ensure interface compliance
var _ ports.Repository = (*SQLiteRepository)(nil)
