package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smallbiznis/cabledesk/internal/authorization"
	"github.com/smallbiznis/cabledesk/internal/clock"
	"github.com/smallbiznis/cabledesk/internal/config"
	obscontext "github.com/smallbiznis/cabledesk/internal/observability/context"
	"github.com/smallbiznis/cabledesk/internal/providers/pdf"
	subscriberdomain "github.com/smallbiznis/cabledesk/internal/subscriber/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscribers struct {
	records    []subscriberdomain.Subscriber
	deleted    []string
	lastImport subscriberdomain.ImportRequest
}

func (f *fakeSubscribers) List(ctx context.Context) ([]subscriberdomain.Subscriber, error) {
	return f.records, nil
}

func (f *fakeSubscribers) Get(ctx context.Context, id string) (subscriberdomain.Subscriber, error) {
	return subscriberdomain.Subscriber{}, subscriberdomain.ErrNotFound
}

func (f *fakeSubscribers) Create(ctx context.Context, req subscriberdomain.CreateSubscriberRequest) (subscriberdomain.Subscriber, error) {
	return subscriberdomain.Subscriber{}, nil
}

func (f *fakeSubscribers) Update(ctx context.Context, req subscriberdomain.UpdateSubscriberRequest) (subscriberdomain.Subscriber, error) {
	return subscriberdomain.Subscriber{}, nil
}

func (f *fakeSubscribers) Delete(ctx context.Context, req subscriberdomain.DeleteSubscriberRequest) error {
	if !req.Confirmed {
		return subscriberdomain.ErrConfirmationMissing
	}
	f.deleted = append(f.deleted, req.ID)
	return nil
}

func (f *fakeSubscribers) Import(ctx context.Context, req subscriberdomain.ImportRequest) (subscriberdomain.ImportSummary, error) {
	f.lastImport = req
	return subscriberdomain.ImportSummary{BatchID: "01TEST", Rows: 3, Imported: 2, DryRun: req.DryRun,
		Skipped: []subscriberdomain.SkippedRow{{Row: 2, Reason: "invalid_phone"}}}, nil
}

// fakeAuthz lets everyone through except viewers attempting a write.
type fakeAuthz struct {
	seen obscontext.Operator
}

func (f *fakeAuthz) Authorize(ctx context.Context, operator obscontext.Operator, object string, action string) error {
	f.seen = operator
	if operator.Role == authorization.RoleViewer && action != authorization.ActionSubscriberView {
		return authorization.ErrForbidden
	}
	return nil
}

func fakeRunner(subs *fakeSubscribers, authz *fakeAuthz) appRunner {
	return func(ctx context.Context, fn func(rt runtime) error) error {
		return fn(runtime{
			Config:      config.Config{DefaultOperator: "admin", DefaultOperatorRole: authorization.RoleAdmin},
			Catalog:     config.NewStaticCatalogHolder(config.DefaultCatalogConfig()),
			Clock:       clock.NewFakeClock(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)),
			Subscribers: subs,
			Authz:       authz,
			Reports:     pdf.New(),
		})
	}
}

func execute(t *testing.T, run appRunner, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(run)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func sampleRecords() []subscriberdomain.Subscriber {
	return []subscriberdomain.Subscriber{
		{ID: 1, Name: "Anil", Phone: "9000000001", Area: "Kochi", MonthlyFee: 500, Status: subscriberdomain.StatusActive},
		{ID: 2, Name: "Bindu", Phone: "9000000002", Area: "Aluva", MonthlyFee: 700, Status: subscriberdomain.StatusActive},
		{ID: 3, Name: "Chacko", Phone: "9000000003", Area: "Kochi", MonthlyFee: 1000, Status: subscriberdomain.StatusInactive},
	}
}

func TestListPrintsTableAndStats(t *testing.T) {
	subs := &fakeSubscribers{records: sampleRecords()}
	out, err := execute(t, fakeRunner(subs, &fakeAuthz{}), "", "list", "--area", "Kochi")
	require.NoError(t, err)

	assert.Contains(t, out, "Anil")
	assert.Contains(t, out, "Chacko")
	assert.NotContains(t, out, "Bindu")
	assert.Contains(t, out, "total 3  active 2  monthly revenue 1200.00")
}

func TestListJSON(t *testing.T) {
	subs := &fakeSubscribers{records: sampleRecords()}
	out, err := execute(t, fakeRunner(subs, &fakeAuthz{}), "", "list", "--fee-range", "high", "-o", "json")
	require.NoError(t, err)

	var v struct {
		Subscribers []subscriberdomain.Subscriber `json:"subscribers"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	require.Len(t, v.Subscribers, 1)
	assert.Equal(t, "Chacko", v.Subscribers[0].Name)
}

func TestListRejectsBadFeeRange(t *testing.T) {
	_, err := execute(t, fakeRunner(&fakeSubscribers{}, &fakeAuthz{}), "", "list", "--fee-range", "huge")
	assert.Error(t, err)
}

func TestImportDryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subs.csv")
	require.NoError(t, os.WriteFile(path, []byte("Name\n"), 0o600))

	subs := &fakeSubscribers{}
	authz := &fakeAuthz{}
	out, err := execute(t, fakeRunner(subs, authz), "", "import", path, "--dry-run", "--operator", "meera", "--role", "operator")
	require.NoError(t, err)

	assert.True(t, subs.lastImport.DryRun)
	assert.Equal(t, "subs.csv", subs.lastImport.Filename)
	assert.Equal(t, "meera", subs.lastImport.Operator)
	assert.Equal(t, "operator", authz.seen.Role)
	assert.Contains(t, out, "would import 2 of 3 rows (batch 01TEST)")
	assert.Contains(t, out, "row 2 skipped: invalid_phone")
}

func TestTemplateToStdout(t *testing.T) {
	out, err := execute(t, fakeRunner(&fakeSubscribers{}, &fakeAuthz{}), "", "template")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Subscriber_Id,Name,Mobile"))
}

func TestDeletePromptsForConfirmation(t *testing.T) {
	subs := &fakeSubscribers{}
	run := fakeRunner(subs, &fakeAuthz{})

	_, err := execute(t, run, "n\n", "delete", "7")
	assert.ErrorIs(t, err, errDeleteAborted)
	assert.Empty(t, subs.deleted)

	out, err := execute(t, run, "yes\n", "delete", "7")
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, subs.deleted)
	assert.Contains(t, out, "deleted 7")

	_, err = execute(t, run, "", "delete", "8", "--yes")
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "8"}, subs.deleted)
}

func TestViewerCannotDelete(t *testing.T) {
	subs := &fakeSubscribers{}
	_, err := execute(t, fakeRunner(subs, &fakeAuthz{}), "", "delete", "7", "--yes", "--role", "viewer")
	assert.ErrorIs(t, err, authorization.ErrForbidden)
	assert.Empty(t, subs.deleted)
}

func TestReportWritesPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.pdf")
	out, err := execute(t, fakeRunner(&fakeSubscribers{records: sampleRecords()}, &fakeAuthz{}), "", "report", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "3 subscribers")

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestSeedOnEmptyStore(t *testing.T) {
	out, err := execute(t, fakeRunner(&fakeSubscribers{}, &fakeAuthz{}), "", "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 5 subscribers")

	out, err = execute(t, fakeRunner(&fakeSubscribers{records: sampleRecords()}, &fakeAuthz{}), "", "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing seeded")
}
