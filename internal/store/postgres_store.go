package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/linguadesk/quiz-session-service/internal/models"
)

// answerCache is one quiz namespace persisted as a JSON map column.
type answerCache struct {
	Namespace string            `gorm:"primaryKey;size:128"`
	Entries   datatypes.JSONMap `gorm:"not null"`
	UpdatedAt time.Time
}

func (answerCache) TableName() string { return "answer_caches" }

// PostgresStore persists answer caches in a single gorm-managed table.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&answerCache{}); err != nil {
		return nil, fmt.Errorf("failed to migrate answer cache table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Get(ctx context.Context, quizID string) (models.AnswerSet, error) {
	var row answerCache
	err := s.db.WithContext(ctx).First(&row, "namespace = ?", Namespace(quizID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.AnswerSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read answer cache: %w", err)
	}
	return decodeEntries(row.Entries)
}

func (s *PostgresStore) MergeAndPersist(ctx context.Context, quizID string, partial models.AnswerSet) error {
	if len(partial) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ns := Namespace(quizID)

		var row answerCache
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&row, "namespace = ?", ns).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to read answer cache: %w", err)
		}

		cached, err := decodeEntries(row.Entries)
		if err != nil {
			return err
		}
		cached.Merge(partial)

		entries, err := encodeEntries(cached)
		if err != nil {
			return err
		}

		merged := answerCache{Namespace: ns, Entries: entries, UpdatedAt: time.Now()}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}},
			DoUpdates: clause.AssignmentColumns([]string{"entries", "updated_at"}),
		}).Create(&merged).Error
	})
}

func (s *PostgresStore) Clear(ctx context.Context, quizID string) error {
	err := s.db.WithContext(ctx).
		Delete(&answerCache{}, "namespace = ?", Namespace(quizID)).Error
	if err != nil {
		return fmt.Errorf("failed to clear answer cache: %w", err)
	}
	return nil
}

func decodeEntries(entries datatypes.JSONMap) (models.AnswerSet, error) {
	if len(entries) == 0 {
		return models.AnswerSet{}, nil
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to decode answer cache: %w", err)
	}
	var answers models.AnswerSet
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("failed to decode answer cache: %w", err)
	}
	return answers, nil
}

func encodeEntries(answers models.AnswerSet) (datatypes.JSONMap, error) {
	raw, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answer cache: %w", err)
	}
	var entries datatypes.JSONMap
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to encode answer cache: %w", err)
	}
	return entries, nil
}
