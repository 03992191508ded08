package pdf

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/smallbiznis/cabledesk/internal/subscriber/domain"
	"github.com/smallbiznis/cabledesk/internal/subscriber/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRoster(t *testing.T) {
	records := []domain.Subscriber{
		{SubscriberCode: "SUB-001", Name: "Ravi", Phone: "9876543210", Area: "Kochi", ServiceProvider: "Asianet", MonthlyFee: 500, Status: domain.StatusActive},
		{SubscriberCode: "SUB-002", Name: "Anu", Phone: "9876543211", Area: "Aluva", ServiceProvider: "KCCL", MonthlyFee: 950, Status: domain.StatusSuspended},
	}
	data := RosterData{
		GeneratedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Area:        "Kochi",
		View:        view.Derive(records, view.NewState().WithArea("Kochi")),
	}

	r, err := New().GenerateRoster(context.Background(), data)
	require.NoError(t, err)

	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestGenerateRosterEmpty(t *testing.T) {
	r, err := New().GenerateRoster(context.Background(), RosterData{View: view.Derive(nil, view.NewState())})
	require.NoError(t, err)

	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.NotEmpty(t, body)
}

func TestGenerateRosterCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().GenerateRoster(ctx, RosterData{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilterLineDefaults(t *testing.T) {
	line := filterLine(RosterData{})
	assert.Contains(t, line, "Area: all")
	assert.Contains(t, line, "Fee range: all")
}
