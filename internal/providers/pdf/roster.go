package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cabledesk/internal/subscriber/view"
)

// RosterData is a derived view plus the filter labels it was built from.
type RosterData struct {
	Title       string
	GeneratedAt time.Time
	Search      string
	Area        string
	FeeRange    string
	View        view.View
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateRoster(ctx context.Context, data RosterData) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	title := data.Title
	if title == "" {
		title = "Subscriber roster"
	}
	m.AddRow(12,
		text.NewCol(8, title, props.Text{Size: 18, Style: fontstyle.Bold}),
		text.NewCol(4, data.GeneratedAt.Format("02 Jan 2006 15:04"), props.Text{Size: 9, Align: align.Right, Top: 4}),
	)
	m.AddRow(8,
		text.NewCol(12, filterLine(data), props.Text{Size: 9}),
	)

	stats := data.View.Stats
	m.AddRow(18,
		statCol("Total subscribers", fmt.Sprintf("%d", stats.Total)),
		statCol("Active", fmt.Sprintf("%d", stats.Active)),
		statCol("Monthly revenue", "Rs. "+stats.TotalRevenueDisplay),
	)
	m.AddRow(4, col.New(12))

	header := props.Text{Style: fontstyle.Bold, Size: 9}
	m.AddRow(8,
		text.NewCol(2, "Code", header),
		text.NewCol(2, "Name", header),
		text.NewCol(2, "Mobile", header),
		text.NewCol(2, "Area", header),
		text.NewCol(1, "Provider", header),
		text.NewCol(1, "Connected", header),
		text.NewCol(1, "Status", header),
		text.NewCol(1, "Fee", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	cell := props.Text{Size: 8}
	for _, s := range data.View.Subscribers {
		m.AddRow(7,
			text.NewCol(2, s.SubscriberCode, cell),
			text.NewCol(2, s.Name, cell),
			text.NewCol(2, s.Phone, cell),
			text.NewCol(2, s.Area, cell),
			text.NewCol(1, s.ServiceProvider, cell),
			text.NewCol(1, s.ConnectionDateString(), cell),
			text.NewCol(1, string(s.Status), cell),
			text.NewCol(1, decimal.NewFromFloat(s.MonthlyFee).StringFixed(2), props.Text{Size: 8, Align: align.Right}),
		)
	}
	if len(data.View.Subscribers) == 0 {
		m.AddRow(10, text.NewCol(12, "No subscribers match the current filters.", props.Text{Size: 9, Style: fontstyle.Italic, Top: 3}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}

func statCol(label, value string) core.Col {
	return col.New(4).Add(
		text.New(label, props.Text{Size: 8}),
		text.New(value, props.Text{Size: 14, Style: fontstyle.Bold, Top: 5}),
	)
}

func filterLine(data RosterData) string {
	search := data.Search
	if search == "" {
		search = "-"
	}
	area := data.Area
	if area == "" {
		area = view.AllAreas
	}
	feeRange := data.FeeRange
	if feeRange == "" {
		feeRange = string(view.FeeAll)
	}
	return fmt.Sprintf("Search: %s   Area: %s   Fee range: %s   Showing %d of %d",
		search, area, feeRange, len(data.View.Subscribers), data.View.Stats.Total)
}
