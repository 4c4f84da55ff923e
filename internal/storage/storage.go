package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrUnsupportedDriver = errors.New("unsupported database driver")

// RoundRecord is one finished round. Live match state is never stored.
type RoundRecord struct {
	ID      uint   `gorm:"primaryKey"`
	Room    string `gorm:"index;size:32"`
	Round   int
	PlayerA string `gorm:"size:64"`
	PlayerB string `gorm:"size:64"`
	HealthA int
	HealthB int
	Winner  int
	Turns   int
	EndedAt time.Time `gorm:"index"`
}

type Store struct {
	db *gorm.DB
}

// Open connects with driver "postgres" or "sqlite" and migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.AutoMigrate(&RoundRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) RecordRound(ctx context.Context, rec RoundRecord) error {
	if rec.EndedAt.IsZero() {
		rec.EndedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("record round: %w", err)
	}
	return nil
}

// RecentRounds returns the newest rounds of a room first.
func (s *Store) RecentRounds(ctx context.Context, room string, limit int) ([]RoundRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []RoundRecord
	err := s.db.WithContext(ctx).
		Where("room = ?", room).
		Order("ended_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("recent rounds: %w", err)
	}
	return out, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
