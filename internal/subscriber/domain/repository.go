package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Repository is the record store boundary. Every failure other than a
// missing record comes back as a *StoreError.
type Repository interface {
	List(ctx context.Context) ([]Subscriber, error)
	Insert(ctx context.Context, subscriber *Subscriber) error
	BatchInsert(ctx context.Context, subscribers []*Subscriber) error
	Update(ctx context.Context, id snowflake.ID, subscriber *Subscriber) error
	Delete(ctx context.Context, id snowflake.ID) error
	FindByID(ctx context.Context, id snowflake.ID) (*Subscriber, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

// Sequencer hands out the per-day subscriber code sequence. Next is atomic
// in the backing store; two callers on the same day never share a value.
type Sequencer interface {
	Next(ctx context.Context, day time.Time) (int64, error)
}
