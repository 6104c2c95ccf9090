package store

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"kotonoha/internal/config"
	"kotonoha/internal/model"
)

// MySQLStore is a MessageStore backed by MySQL/MariaDB.
type MySQLStore struct {
	db *sql.DB
}

// OpenMySQL opens a database connection, verifies it, and ensures the
// messages table exists.
func OpenMySQL(cfg config.Config) (*MySQLStore, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
	)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 接続テスト
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}

	log.Println("✅ Database connection established")
	return s, nil
}

// NewMySQLStore wraps an existing connection (used by tests).
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

// Close closes the underlying database connection.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

func (s *MySQLStore) initSchema() error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS messages (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		sender VARCHAR(20) NOT NULL,
		` + "`text`" + ` VARCHAR(300) NOT NULL,
		created_at DATETIME NOT NULL,
		edited_at DATETIME NULL,
		deleted_at DATETIME NULL,
		is_edited BOOLEAN NOT NULL DEFAULT FALSE,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
	`
	if _, err := s.db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create messages table: %w", err)
	}
	return nil
}

// Create persists a new message with an AUTO_INCREMENT id.
func (s *MySQLStore) Create(m *model.ChatMessage) error {
	m.CreatedAt = time.Now()
	m.EditedAt = nil
	m.DeletedAt = nil
	m.IsEdited = false
	m.IsDeleted = false

	result, err := s.db.Exec(
		"INSERT INTO messages (sender, `text`, created_at, is_edited, is_deleted) VALUES (?, ?, ?, FALSE, FALSE)",
		m.Sender, m.Text, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to retrieve message id: %w", err)
	}
	m.ID = id

	return nil
}

// FindByID returns a single message regardless of its deletion state.
func (s *MySQLStore) FindByID(id int64) (*model.ChatMessage, error) {
	row := s.db.QueryRow(
		"SELECT id, sender, `text`, created_at, edited_at, deleted_at, is_edited, is_deleted FROM messages WHERE id = ?",
		id,
	)

	m, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query message: %w", err)
	}
	return m, nil
}

// SaveEdit persists a new text for a non-deleted message. The is_deleted
// guard and affected-row check make an edit racing a delete lose atomically.
func (s *MySQLStore) SaveEdit(id int64, text string, editedAt time.Time) error {
	result, err := s.db.Exec(
		"UPDATE messages SET `text` = ?, edited_at = ?, is_edited = TRUE WHERE id = ? AND is_deleted = FALSE",
		text, editedAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		// 行が無いのか削除済みなのかを読み直して区別する。
		// (同値更新でaffected 0になった場合はそのまま成功扱い)
		current, err := s.FindByID(id)
		if err != nil {
			return err
		}
		if current.IsDeleted {
			return ErrDeleted
		}
	}
	return nil
}

// MarkDeleted soft-deletes a message; the flag never resets once set.
func (s *MySQLStore) MarkDeleted(id int64, deletedAt time.Time) error {
	result, err := s.db.Exec(
		"UPDATE messages SET deleted_at = ?, is_deleted = TRUE WHERE id = ? AND is_deleted = FALSE",
		deletedAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		if _, err := s.FindByID(id); err != nil {
			return err
		}
		return ErrDeleted
	}
	return nil
}

// All returns every non-deleted message, oldest first.
func (s *MySQLStore) All() ([]model.ChatMessage, error) {
	return s.query(
		"SELECT id, sender, `text`, created_at, edited_at, deleted_at, is_edited, is_deleted FROM messages WHERE is_deleted = FALSE ORDER BY created_at ASC, id ASC",
	)
}

// Recent returns up to limit non-deleted messages, newest first.
func (s *MySQLStore) Recent(limit int) ([]model.ChatMessage, error) {
	return s.query(
		"SELECT id, sender, `text`, created_at, edited_at, deleted_at, is_edited, is_deleted FROM messages WHERE is_deleted = FALSE ORDER BY created_at DESC, id DESC LIMIT ?",
		limit,
	)
}

func (s *MySQLStore) query(q string, args ...interface{}) ([]model.ChatMessage, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	msgList := []model.ChatMessage{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgList = append(msgList, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return msgList, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row rowScanner) (*model.ChatMessage, error) {
	var m model.ChatMessage
	var editedAt, deletedAt sql.NullTime
	if err := row.Scan(&m.ID, &m.Sender, &m.Text, &m.CreatedAt, &editedAt, &deletedAt, &m.IsEdited, &m.IsDeleted); err != nil {
		return nil, err
	}
	if editedAt.Valid {
		m.EditedAt = &editedAt.Time
	}
	if deletedAt.Valid {
		m.DeletedAt = &deletedAt.Time
	}
	return &m, nil
}
