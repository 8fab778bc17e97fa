package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/linegate/internal/line"
	"github.com/mattjoyce/linegate/internal/log"
)

// User is a row in user_info.
type User struct {
	ID         string
	LineUserID string
	Email      *string
	IsActive   bool
	CreatedAt  time.Time
}

// MessageRecord is a row in message_records.
type MessageRecord struct {
	ID         string
	UserID     string
	LineUserID string
	Message    string
	Filename   string
	Filepath   *string
	Timestamp  time.Time
	CreatedAt  time.Time
}

// Store is the persistence collaborator: users and message records over
// sqlite. Serialization is pushed to sqlite itself (unique constraint on
// line_user_id, busy_timeout for concurrent writers).
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a Store over an opened database.
func New(db *sql.DB) *Store {
	return &Store{
		db:     db,
		logger: log.WithComponent("store"),
	}
}

// FindUserByLineID looks a user up by platform user id. Returns (nil, nil)
// when no such user exists.
func (s *Store) FindUserByLineID(ctx context.Context, lineUserID string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, line_user_id, email, is_active, created_at
FROM user_info
WHERE line_user_id = ?;
`, lineUserID)

	var (
		u          User
		email      sql.NullString
		isActive   int
		createdAtS string
	)
	err := row.Scan(&u.ID, &u.LineUserID, &email, &isActive, &createdAtS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if email.Valid {
		u.Email = &email.String
	}
	u.IsActive = isActive != 0
	if t, err := time.Parse(time.RFC3339Nano, createdAtS); err == nil {
		u.CreatedAt = t
	}
	return &u, nil
}

// CreateUser inserts a user for the given platform user id.
func (s *Store) CreateUser(ctx context.Context, lineUserID string) (*User, error) {
	if lineUserID == "" {
		return nil, fmt.Errorf("line user id is empty")
	}

	u := User{
		ID:         uuid.NewString(),
		LineUserID: lineUserID,
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO user_info(id, line_user_id, is_active, created_at)
VALUES(?, ?, 1, ?);
`, u.ID, u.LineUserID, u.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// CreateMessageRecord inserts one message record.
func (s *Store) CreateMessageRecord(ctx context.Context, rec MessageRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var filepathV any
	if rec.Filepath != nil {
		filepathV = *rec.Filepath
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO message_records(id, user_id, line_user_id, message, filename, filepath, timestamp, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?);
`, rec.ID, rec.UserID, rec.LineUserID, rec.Message, rec.Filename, filepathV,
		rec.Timestamp.UTC().Format(time.RFC3339), now)
	if err != nil {
		return fmt.Errorf("create message record: %w", err)
	}
	return nil
}

// MarkEventProcessed journals a webhook event id. Returns false when the
// id was already journaled, which means the event is a replay and must
// not produce side effects again.
func (s *Store) MarkEventProcessed(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		// Events without an id cannot be journaled; let them through.
		return true, nil
	}

	res, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO webhook_event_log(event_id, received_at)
VALUES(?, ?);
`, eventID, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return false, fmt.Errorf("journal webhook event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("journal webhook event: %w", err)
	}
	return n > 0, nil
}

// RecentMessages returns the newest records, newest first.
func (s *Store) RecentMessages(ctx context.Context, limit int) ([]MessageRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, line_user_id, message, filename, filepath, timestamp, created_at
FROM message_records
ORDER BY created_at DESC, rowid DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	defer rows.Close()

	var out []MessageRecord
	for rows.Next() {
		var (
			rec        MessageRecord
			filepathV  sql.NullString
			tsS        sql.NullString
			createdAtS string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.LineUserID, &rec.Message,
			&rec.Filename, &filepathV, &tsS, &createdAtS); err != nil {
			return nil, fmt.Errorf("scan message record: %w", err)
		}
		if filepathV.Valid {
			rec.Filepath = &filepathV.String
		}
		if tsS.Valid {
			if t, err := time.Parse(time.RFC3339, tsS.String); err == nil {
				rec.Timestamp = t
			}
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAtS); err == nil {
			rec.CreatedAt = t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Handle is the record handler for text messages: ensure the owning user
// exists, then write the message record. Every failure comes back as a
// HandleStatus, never as a raw error crossing the dispatcher boundary.
func (s *Store) Handle(ctx context.Context, msg line.Message) line.HandleStatus {
	user, err := s.FindUserByLineID(ctx, msg.OwnerID)
	if err != nil {
		s.logger.Error("user lookup failed", "line_user_id", msg.OwnerID, "error", err)
		return line.Failure(line.DatabaseReadError)
	}
	if user == nil {
		user, err = s.CreateUser(ctx, msg.OwnerID)
		if err != nil {
			s.logger.Error("user create failed", "line_user_id", msg.OwnerID, "error", err)
			return line.Failure(line.UserCreateError)
		}
	}

	err = s.CreateMessageRecord(ctx, MessageRecord{
		UserID:     user.ID,
		LineUserID: msg.OwnerID,
		Message:    msg.Text,
		Filename:   msg.Filename,
		Timestamp:  msg.Timestamp,
	})
	if err != nil {
		s.logger.Error("message record write failed", "message_id", msg.ID, "error", err)
		return line.Failure(line.DatabaseWriteError)
	}
	return line.OK()
}
