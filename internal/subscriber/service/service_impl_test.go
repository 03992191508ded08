package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cabledesk/internal/clock"
	"github.com/smallbiznis/cabledesk/internal/config"
	"github.com/smallbiznis/cabledesk/internal/subscriber/code"
	"github.com/smallbiznis/cabledesk/internal/subscriber/domain"
	"github.com/smallbiznis/cabledesk/internal/subscriber/repository"
	"github.com/smallbiznis/cabledesk/internal/subscriber/validation"
	"github.com/smallbiznis/cabledesk/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	svc   domain.Service
	repo  domain.Repository
	clock *clock.FakeClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Subscriber{}, &repository.CodeSequence{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
	repo := repository.NewSQL(conn, node, clk)
	gen, err := code.NewGenerator(code.DefaultTemplate, repository.NewSQLSequencer(conn), clk)
	require.NoError(t, err)

	svc := New(Params{
		Log:     zap.NewNop(),
		Repo:    repo,
		Codes:   gen,
		Catalog: config.NewStaticCatalogHolder(config.DefaultCatalogConfig()),
	})
	return fixture{svc: svc, repo: repo, clock: clk}
}

func form(name, phone string) domain.FormInput {
	return domain.FormInput{
		Name:            name,
		Phone:           phone,
		Area:            "Aluva",
		Address:         "Temple Road",
		ServiceProvider: "BSNL",
		MonthlyFee:      "700",
		ConnectionDate:  "2024-05-20",
	}
}

func TestCreateAssignsCodeAndAudit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, domain.CreateSubscriberRequest{Form: form("Anil", "9876543210"), Operator: "ravi"})
	require.NoError(t, err)
	assert.Equal(t, "SUB-20240601-001", first.SubscriberCode)
	assert.Equal(t, "ravi", first.CreatedBy)
	assert.NotZero(t, first.ID)

	second, err := f.svc.Create(ctx, domain.CreateSubscriberRequest{Form: form("Beena", "9876543211")})
	require.NoError(t, err)
	assert.Equal(t, "SUB-20240601-002", second.SubscriberCode)

	explicit := form("Chacko", "9876543212")
	explicit.SubscriberCode = "LEGACY-9"
	third, err := f.svc.Create(ctx, domain.CreateSubscriberRequest{Form: explicit})
	require.NoError(t, err)
	assert.Equal(t, "LEGACY-9", third.SubscriberCode)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestCreateValidationFailureSkipsStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, domain.CreateSubscriberRequest{Form: form("Anil", "12345")})
	assert.ErrorIs(t, err, validation.ErrInvalidPhone)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateKeepsCodeAndStampsEditor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, domain.CreateSubscriberRequest{Form: form("Anil", "9876543210"), Operator: "ravi"})
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	changed := form("Anil Kumar", "9876543210")
	changed.Status = "inactive"
	updated, err := f.svc.Update(ctx, domain.UpdateSubscriberRequest{ID: created.ID.String(), Form: changed, Operator: "meera"})
	require.NoError(t, err)

	assert.Equal(t, created.SubscriberCode, updated.SubscriberCode)
	assert.Equal(t, "ravi", updated.CreatedBy)
	assert.Equal(t, "meera", updated.LastEditedBy)
	require.NotNil(t, updated.LastEditedAt)

	got, err := f.svc.Get(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Anil Kumar", got.Name)
	assert.Equal(t, domain.StatusInactive, got.Status)

	_, err = f.svc.Update(ctx, domain.UpdateSubscriberRequest{ID: "123", Form: changed})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Update(ctx, domain.UpdateSubscriberRequest{ID: "abc", Form: changed})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, domain.CreateSubscriberRequest{Form: form("Anil", "9876543210")})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, domain.DeleteSubscriberRequest{ID: created.ID.String()})
	assert.ErrorIs(t, err, domain.ErrConfirmationMissing)

	require.NoError(t, f.svc.Delete(ctx, domain.DeleteSubscriberRequest{ID: created.ID.String(), Confirmed: true}))

	_, err = f.svc.Get(ctx, created.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestImport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	body := strings.Join([]string{
		"Name,Mobile,Area,Service,Fee",
		"Anil,9876543210,Aluva,Asianet,500",
		"Beena,9876543211,,Asianet,700",
		"Chacko,9876543212,Kakkanad,KCCL,n/a",
	}, "\n")

	summary, err := f.svc.Import(ctx, domain.ImportRequest{Filename: "list.csv", Body: strings.NewReader(body), Operator: "ravi"})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Rows)
	assert.Equal(t, 2, summary.Imported)
	require.Len(t, summary.Skipped, 1)
	assert.Equal(t, 2, summary.Skipped[0].Row)
	assert.NotEmpty(t, summary.BatchID)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	codes := []string{list[0].SubscriberCode, list[1].SubscriberCode}
	assert.ElementsMatch(t, []string{"SUB-IMPORT-001", "SUB-IMPORT-003"}, codes)
}

func TestImportDryRunAndEmptyBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	summary, err := f.svc.Import(ctx, domain.ImportRequest{
		Filename: "list.csv",
		Body:     strings.NewReader("Name,Mobile,Area,Service\nAnil,9876543210,Aluva,BSNL\n"),
		DryRun:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.svc.Import(ctx, domain.ImportRequest{
		Filename: "list.csv",
		Body:     strings.NewReader("Name,Mobile\nAnil,9876543210\n"),
	})
	assert.ErrorIs(t, err, domain.ErrNoValidRows)

	_, err = f.svc.Import(ctx, domain.ImportRequest{Filename: "list.txt", Body: strings.NewReader("")})
	var importErr *domain.ImportError
	assert.True(t, errors.As(err, &importErr))
}

type failingRepo struct {
	domain.Repository
	calls int
}

func (r *failingRepo) Insert(context.Context, *domain.Subscriber) error {
	r.calls++
	return domain.NewStoreError("insert", errors.New("connection reset"))
}

func (r *failingRepo) BatchInsert(context.Context, []*domain.Subscriber) error {
	r.calls++
	return domain.NewStoreError("batch_insert", errors.New("connection reset"))
}

type fixedSequencer struct{}

func (fixedSequencer) Next(context.Context, time.Time) (int64, error) { return 1, nil }

func TestStoreErrorsSurfaceOnce(t *testing.T) {
	repo := &failingRepo{}
	gen, err := code.NewGenerator("", fixedSequencer{}, clock.New())
	require.NoError(t, err)
	svc := New(Params{
		Log:     zap.NewNop(),
		Repo:    repo,
		Codes:   gen,
		Catalog: config.NewStaticCatalogHolder(config.DefaultCatalogConfig()),
	})

	_, err = svc.Create(context.Background(), domain.CreateSubscriberRequest{Form: form("Anil", "9876543210")})
	var storeErr *domain.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "connection reset", storeErr.Message)
	assert.Equal(t, 1, repo.calls, "no retry")

	_, err = svc.Import(context.Background(), domain.ImportRequest{
		Filename: "a.csv",
		Body:     strings.NewReader("Name,Mobile,Area,Service\nAnil,9876543210,Aluva,BSNL\n"),
	})
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "batch_insert", storeErr.Op)
}
