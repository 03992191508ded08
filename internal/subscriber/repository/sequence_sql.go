package repository

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/cabledesk/internal/subscriber/domain"
	"github.com/smallbiznis/cabledesk/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CodeSequence holds the last issued subscriber code sequence for one day.
type CodeSequence struct {
	Day       string    `gorm:"primaryKey;size:8"`
	LastValue int64     `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (CodeSequence) TableName() string { return "subscriber_code_sequences" }

var errSequenceContended = errors.New("sequence row changed concurrently")

const sequenceAttempts = 5

type sqlSequencer struct {
	db *gorm.DB
}

func NewSQLSequencer(db *gorm.DB) domain.Sequencer {
	return &sqlSequencer{db: db}
}

// Next increments the day's counter with a compare-and-set update. The
// first call of a day seeds the counter from the records already created
// that day, so codes continue from any pre-existing data.
func (s *sqlSequencer) Next(ctx context.Context, day time.Time) (int64, error) {
	var lastErr error
	for attempt := 0; attempt < sequenceAttempts; attempt++ {
		value, err := s.next(ctx, day)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, errSequenceContended) && !db.IsDuplicateKeyErr(err) {
			return 0, domain.NewStoreError("sequence", err)
		}
		lastErr = err
	}
	return 0, domain.NewStoreError("sequence", lastErr)
}

func (s *sqlSequencer) next(ctx context.Context, day time.Time) (int64, error) {
	key := day.Format("20060102")
	var value int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []CodeSequence
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("day = ?", key).
			Limit(1).
			Find(&rows).Error
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if len(rows) == 0 {
			start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
			count, err := countSince(tx, start)
			if err != nil {
				return err
			}
			value = count + 1
			return tx.Create(&CodeSequence{Day: key, LastValue: value, UpdatedAt: now}).Error
		}

		value = rows[0].LastValue + 1
		res := tx.Model(&CodeSequence{}).
			Where("day = ? AND last_value = ?", key, rows[0].LastValue).
			Updates(map[string]interface{}{"last_value": value, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return errSequenceContended
		}
		return nil
	})
	return value, err
}
