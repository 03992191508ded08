package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cabledesk/internal/clock"
	"github.com/smallbiznis/cabledesk/internal/subscriber/domain"
	"gorm.io/gorm"
)

// mutableColumns are the columns an update may overwrite.
var mutableColumns = []string{
	"subscriber_code",
	"name",
	"phone",
	"area",
	"address",
	"service_provider",
	"monthly_fee",
	"connection_date",
	"status",
	"last_edited_by",
	"last_edited_at",
	"updated_at",
}

type sqlRepo struct {
	db    *gorm.DB
	genID *snowflake.Node
	clock clock.Clock
}

// NewSQL returns the relational record store.
func NewSQL(db *gorm.DB, genID *snowflake.Node, clk clock.Clock) domain.Repository {
	return &sqlRepo{db: db, genID: genID, clock: clk}
}

func (r *sqlRepo) List(ctx context.Context) ([]domain.Subscriber, error) {
	var subscribers []domain.Subscriber
	err := r.db.WithContext(ctx).
		Order("created_at desc, id desc").
		Find(&subscribers).Error
	if err != nil {
		return nil, domain.NewStoreError("list", err)
	}
	return subscribers, nil
}

func (r *sqlRepo) Insert(ctx context.Context, subscriber *domain.Subscriber) error {
	stampInsert(subscriber, r.genID, r.clock.Now())
	return domain.NewStoreError("insert", r.db.WithContext(ctx).Create(subscriber).Error)
}

func (r *sqlRepo) BatchInsert(ctx context.Context, subscribers []*domain.Subscriber) error {
	if len(subscribers) == 0 {
		return nil
	}
	now := r.clock.Now()
	for _, s := range subscribers {
		stampInsert(s, r.genID, now)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(subscribers, 200).Error
	})
	return domain.NewStoreError("batch_insert", err)
}

func (r *sqlRepo) Update(ctx context.Context, id snowflake.ID, subscriber *domain.Subscriber) error {
	stampUpdate(subscriber, id, r.clock.Now())
	res := r.db.WithContext(ctx).
		Model(&domain.Subscriber{}).
		Where("id = ?", id).
		Select(mutableColumns).
		Updates(subscriber)
	if res.Error != nil {
		return domain.NewStoreError("update", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *sqlRepo) Delete(ctx context.Context, id snowflake.ID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Subscriber{})
	if res.Error != nil {
		return domain.NewStoreError("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *sqlRepo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Subscriber, error) {
	var subscribers []domain.Subscriber
	err := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&subscribers).Error
	if err != nil {
		return nil, domain.NewStoreError("find", err)
	}
	if len(subscribers) == 0 {
		return nil, nil
	}
	return &subscribers[0], nil
}

func (r *sqlRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	count, err := countSince(r.db.WithContext(ctx), since)
	if err != nil {
		return 0, domain.NewStoreError("count", err)
	}
	return count, nil
}

func countSince(db *gorm.DB, since time.Time) (int64, error) {
	var count int64
	err := db.Model(&domain.Subscriber{}).Where("created_at >= ?", since.UTC()).Count(&count).Error
	return count, err
}

func stampInsert(s *domain.Subscriber, genID *snowflake.Node, now time.Time) {
	now = now.UTC()
	if s.ID == 0 {
		s.ID = genID.Generate()
	}
	if s.Status == "" {
		s.Status = domain.StatusActive
	}
	s.CreatedAt = now
	s.UpdatedAt = now
	if s.LastEditedBy == "" {
		s.LastEditedBy = s.CreatedBy
	}
}

func stampUpdate(s *domain.Subscriber, id snowflake.ID, now time.Time) {
	now = now.UTC()
	s.ID = id
	if s.Status == "" {
		s.Status = domain.StatusActive
	}
	s.UpdatedAt = now
	s.LastEditedAt = &now
}
