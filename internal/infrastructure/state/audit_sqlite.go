package state

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/doeshing/opsgpt/internal/domain"
	"github.com/doeshing/opsgpt/internal/pkg/filesystem"
	"github.com/doeshing/opsgpt/internal/ports"
)

// AuditStore mirrors processed commands into a SQLite database so they stay
// queryable after the session state rotates away.
type AuditStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewAuditStore creates (or opens) the audit database. An empty path defaults
// to ~/.opsgpt/audit.db.
func NewAuditStore(path string) (*AuditStore, error) {
	if path == "" {
		path = filepath.Join(filesystem.UserHomeDir(), ".opsgpt", "audit.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, domain.NewError(domain.ErrStateIO, "create audit directory").WithCause(err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, domain.NewError(domain.ErrStateIO, "open audit database").WithCause(err)
	}
	store := &AuditStore{db: db, path: path}
	if err := store.init(); err != nil {
		db.Close()
		return nil, domain.NewError(domain.ErrStateIO, "initialize audit schema").WithCause(err)
	}
	return store, nil
}

func (s *AuditStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS audit (
		id TEXT PRIMARY KEY,
		timestamp TEXT,
		input TEXT,
		intent TEXT,
		category TEXT,
		mode TEXT,
		success INTEGER,
		duration_ms INTEGER
	);`)
	return err
}

// Save inserts one audit record. A missing ID is assigned.
func (s *AuditStore) Save(record domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	_, err := s.db.Exec(`INSERT INTO audit
		(id, timestamp, input, intent, category, mode, success, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Timestamp.Format(time.RFC3339Nano),
		record.Input,
		record.Intent,
		string(record.Category),
		string(record.Mode),
		boolToInt(record.Success),
		record.Duration.Milliseconds(),
	)
	return err
}

// Records returns audit entries, newest first. limit <= 0 means no limit and
// search filters on input or intent.
func (s *AuditStore) Records(limit int, search string) ([]domain.AuditRecord, error) {
	builder := strings.Builder{}
	builder.WriteString("SELECT id, timestamp, input, intent, category, mode, success, duration_ms FROM audit")
	var args []any
	if search != "" {
		builder.WriteString(" WHERE input LIKE ? OR intent LIKE ?")
		args = append(args, "%"+search+"%", "%"+search+"%")
	}
	builder.WriteString(" ORDER BY datetime(timestamp) DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	rows, err := s.db.Query(builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.AuditRecord
	for rows.Next() {
		var rec domain.AuditRecord
		var ts, category, mode string
		var success int
		var durationMS int64
		if err := rows.Scan(&rec.ID, &ts, &rec.Input, &rec.Intent, &category, &mode, &success, &durationMS); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			rec.Timestamp = t
		}
		rec.Category = domain.TaskCategory(category)
		rec.Mode = domain.ExecutionMode(mode)
		rec.Success = success == 1
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Clear deletes all audit entries.
func (s *AuditStore) Clear() error {
	_, err := s.db.Exec("DELETE FROM audit")
	return err
}

// Path returns the sqlite database path.
func (s *AuditStore) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *AuditStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ports.AuditRepository = (*AuditStore)(nil)
