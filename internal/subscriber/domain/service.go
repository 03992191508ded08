package domain

import (
	"context"
	"io"
)

type CreateSubscriberRequest struct {
	Form     FormInput
	Operator string
}

type UpdateSubscriberRequest struct {
	ID       string
	Form     FormInput
	Operator string
}

type DeleteSubscriberRequest struct {
	ID        string
	Confirmed bool
}

type ImportRequest struct {
	Filename string
	Body     io.Reader
	Operator string
	DryRun   bool
}

type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type ImportSummary struct {
	BatchID  string       `json:"batch_id"`
	Format   string       `json:"format"`
	Rows     int          `json:"rows"`
	Imported int          `json:"imported"`
	Skipped  []SkippedRow `json:"skipped"`
	DryRun   bool         `json:"dry_run"`
	Records  []Subscriber `json:"-"`
}

type Service interface {
	List(ctx context.Context) ([]Subscriber, error)
	Get(ctx context.Context, id string) (Subscriber, error)
	Create(ctx context.Context, req CreateSubscriberRequest) (Subscriber, error)
	Update(ctx context.Context, req UpdateSubscriberRequest) (Subscriber, error)
	Delete(ctx context.Context, req DeleteSubscriberRequest) error
	Import(ctx context.Context, req ImportRequest) (ImportSummary, error)
}
