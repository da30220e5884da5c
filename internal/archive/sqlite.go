package archive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"signal-relay/internal/model"
)

type signalRecord struct {
	ID         string    `gorm:"primaryKey;size:36"`
	ReceivedAt time.Time `gorm:"index"`
	RemoteIP   string
	RequestID  string
	Outcome    string
	Signal     string `gorm:"index"`
	Symbol     string `gorm:"index"`
	Price      string
	Payload    string
}

func (signalRecord) TableName() string { return "signal_records" }

// SQLiteStore archives webhooks into a local SQLite file (pure Go driver).
type SQLiteStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewSQLiteStore opens or creates the database at path and migrates the schema.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create archive directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if err := db.AutoMigrate(&signalRecord{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger.With("component", "sqlite_archive")}
	s.logger.Info("archive opened", "path", path)
	return s, nil
}

// Save inserts rec as one row.
func (s *SQLiteStore) Save(ctx context.Context, rec model.Record) error {
	row := signalRecord{
		ID:         rec.ID.String(),
		ReceivedAt: rec.ReceivedAt,
		RemoteIP:   rec.RemoteIP,
		RequestID:  rec.RequestID,
		Outcome:    rec.Outcome,
		Signal:     rec.Signal.Kind,
		Symbol:     rec.Signal.Symbol,
		Payload:    string(rec.Payload),
	}
	if !rec.Signal.Price.IsZero() {
		row.Price = rec.Signal.Price.String()
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert signal %s: %w", row.ID, err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	s.logger.Debug("closing archive")
	return sqlDB.Close()
}
