package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/cabledesk/internal/config"
	"github.com/smallbiznis/cabledesk/internal/observability/metrics"
	"github.com/smallbiznis/cabledesk/internal/subscriber/code"
	"github.com/smallbiznis/cabledesk/internal/subscriber/domain"
	"github.com/smallbiznis/cabledesk/internal/subscriber/importer"
	"github.com/smallbiznis/cabledesk/internal/subscriber/validation"
	"github.com/smallbiznis/cabledesk/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Repo      domain.Repository
	Codes     *code.Generator
	Catalog   *config.CatalogHolder
	Metrics   *metrics.Metrics   `optional:"true"`
	Telemetry *telemetry.Metrics `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	repo      domain.Repository
	codes     *code.Generator
	catalog   *config.CatalogHolder
	metrics   *metrics.Metrics
	telemetry *telemetry.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:       p.Log.Named("subscriber.service"),
		repo:      p.Repo,
		codes:     p.Codes,
		catalog:   p.Catalog,
		metrics:   p.Metrics,
		telemetry: p.Telemetry,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Subscriber, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, rawID string) (domain.Subscriber, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.Subscriber{}, err
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Subscriber{}, err
	}
	if item == nil {
		return domain.Subscriber{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateSubscriberRequest) (domain.Subscriber, error) {
	norm, err := s.validate(ctx, req.Form)
	if err != nil {
		return domain.Subscriber{}, err
	}

	if norm.SubscriberCode == "" {
		norm.SubscriberCode, err = s.codes.Next(ctx)
		if err != nil {
			s.recordMutation(ctx, "create", err)
			return domain.Subscriber{}, err
		}
	}

	operator := strings.TrimSpace(req.Operator)
	subscriber := domain.Subscriber{CreatedBy: operator, LastEditedBy: operator}
	norm.Apply(&subscriber)

	err = s.repo.Insert(ctx, &subscriber)
	s.recordMutation(ctx, "create", err)
	if err != nil {
		return domain.Subscriber{}, err
	}

	s.log.Info("subscriber created",
		zap.String("subscriber_id", subscriber.ID.String()),
		zap.String("subscriber_code", subscriber.SubscriberCode),
	)
	return subscriber, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateSubscriberRequest) (domain.Subscriber, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.Subscriber{}, err
	}

	norm, err := s.validate(ctx, req.Form)
	if err != nil {
		return domain.Subscriber{}, err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Subscriber{}, err
	}
	if existing == nil {
		return domain.Subscriber{}, domain.ErrNotFound
	}

	updated := *existing
	if norm.SubscriberCode == "" {
		norm.SubscriberCode = existing.SubscriberCode
	}
	norm.Apply(&updated)
	updated.LastEditedBy = strings.TrimSpace(req.Operator)

	err = s.repo.Update(ctx, id, &updated)
	s.recordMutation(ctx, "update", err)
	if err != nil {
		return domain.Subscriber{}, err
	}

	s.log.Info("subscriber updated", zap.String("subscriber_id", id.String()))
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, req domain.DeleteSubscriberRequest) error {
	if !req.Confirmed {
		return domain.ErrConfirmationMissing
	}

	id, err := parseID(req.ID)
	if err != nil {
		return err
	}

	err = s.repo.Delete(ctx, id)
	s.recordMutation(ctx, "delete", err)
	if err != nil {
		return err
	}

	s.log.Info("subscriber deleted", zap.String("subscriber_id", id.String()))
	return nil
}

func (s *Service) Import(ctx context.Context, req domain.ImportRequest) (domain.ImportSummary, error) {
	format, err := importer.DetectFormat(req.Filename)
	if err != nil {
		return domain.ImportSummary{}, &domain.ImportError{Reason: "expected a .xlsx or .csv file", Err: err}
	}

	decoder := importer.NewDecoder(s.catalog.Get().ServiceProviders)
	res, err := decoder.Decode(format, req.Body)
	if err != nil {
		s.recordMutation(ctx, "import", err)
		return domain.ImportSummary{}, err
	}

	summary := domain.ImportSummary{
		BatchID: ulid.Make().String(),
		Format:  format,
		Rows:    res.Rows,
		Skipped: res.Skipped,
		DryRun:  req.DryRun,
	}
	if summary.Skipped == nil {
		summary.Skipped = []domain.SkippedRow{}
	}

	log := s.log.With(zap.String("batch_id", summary.BatchID), zap.String("format", format))
	for _, skipped := range res.Skipped {
		log.Warn("import row skipped", zap.Int("row", skipped.Row), zap.String("reason", skipped.Reason))
	}
	s.metrics.RecordImportRows(ctx, format, "skipped", len(res.Skipped))

	if len(res.Accepted) == 0 {
		s.telemetry.ObserveImport(0, len(res.Skipped))
		s.recordMutation(ctx, "import", domain.ErrNoValidRows)
		return summary, &domain.ImportError{Reason: "no valid rows", Err: domain.ErrNoValidRows}
	}

	operator := strings.TrimSpace(req.Operator)
	batch := make([]*domain.Subscriber, 0, len(res.Accepted))
	for _, row := range res.Accepted {
		subscriber := &domain.Subscriber{CreatedBy: operator, LastEditedBy: operator}
		row.Normalized.Apply(subscriber)
		batch = append(batch, subscriber)
	}

	if !req.DryRun {
		if err := s.repo.BatchInsert(ctx, batch); err != nil {
			s.recordMutation(ctx, "import", err)
			return domain.ImportSummary{}, err
		}
		s.telemetry.ObserveImport(len(batch), len(res.Skipped))
		s.metrics.RecordImportRows(ctx, format, "accepted", len(batch))
		s.recordMutation(ctx, "import", nil)
	}

	summary.Imported = len(batch)
	summary.Records = make([]domain.Subscriber, 0, len(batch))
	for _, subscriber := range batch {
		summary.Records = append(summary.Records, *subscriber)
	}

	log.Info("import finished",
		zap.Int("rows", summary.Rows),
		zap.Int("imported", summary.Imported),
		zap.Int("skipped", len(summary.Skipped)),
		zap.Bool("dry_run", req.DryRun),
	)
	return summary, nil
}

func (s *Service) validate(ctx context.Context, form domain.FormInput) (domain.Normalized, error) {
	norm, err := validation.Validate(form, validation.FormRules(s.catalog.Get().ServiceProviders))
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			s.metrics.RecordValidationFailure(ctx, verr.Err.Error())
		}
		return domain.Normalized{}, err
	}
	return norm, nil
}

func (s *Service) recordMutation(ctx context.Context, op string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		var storeErr *domain.StoreError
		if errors.As(err, &storeErr) {
			s.log.Error("store call failed", zap.String("operation", op), zap.String("store_op", storeErr.Op), zap.Error(err))
		}
	}
	s.metrics.RecordMutation(ctx, op, outcome)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
