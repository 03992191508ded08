package code

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/cabledesk/internal/clock"
	"github.com/smallbiznis/cabledesk/internal/subscriber/domain"
)

var seqPadRe = regexp.MustCompile(`\{SEQ(\d+)\}`)

const (
	DefaultTemplate = "SUB-{YYYY}{MM}{DD}-{SEQ3}"
	importPrefix    = "SUB-IMPORT-"
)

// Format renders a subscriber code from template for the given day and
// sequence. Supported tokens: {YYYY} {YY} {MM} {DD} {SEQ} {SEQn}.
func Format(template string, day time.Time, seq int64) (string, error) {
	if strings.TrimSpace(template) == "" {
		return "", fmt.Errorf("subscriber code template is empty")
	}
	if seq <= 0 {
		return "", fmt.Errorf("invalid subscriber code sequence: %d", seq)
	}

	out := strings.NewReplacer(
		"{YYYY}", day.Format("2006"),
		"{YY}", day.Format("06"),
		"{MM}", day.Format("01"),
		"{DD}", day.Format("02"),
		"{SEQ}", strconv.FormatInt(seq, 10),
	).Replace(template)

	out = seqPadRe.ReplaceAllStringFunc(out, func(m string) string {
		width, err := strconv.Atoi(seqPadRe.FindStringSubmatch(m)[1])
		if err != nil || width <= 0 {
			return m
		}
		return fmt.Sprintf("%0*d", width, seq)
	})

	if strings.ContainsAny(out, "{}") {
		return "", fmt.Errorf("unresolved token in subscriber code template: %s", out)
	}
	return out, nil
}

// ImportCode is the fallback code for a spreadsheet row without one.
// row is the 1-based data row index.
func ImportCode(row int) string {
	return fmt.Sprintf("%s%03d", importPrefix, row)
}

// Generator issues codes for records created without one.
type Generator struct {
	template string
	seq      domain.Sequencer
	clock    clock.Clock
}

func NewGenerator(template string, seq domain.Sequencer, clk clock.Clock) (*Generator, error) {
	if strings.TrimSpace(template) == "" {
		template = DefaultTemplate
	}
	if _, err := Format(template, time.Now(), 1); err != nil {
		return nil, err
	}
	return &Generator{template: template, seq: seq, clock: clk}, nil
}

// Next reserves the next sequence value for today and formats it.
func (g *Generator) Next(ctx context.Context) (string, error) {
	day := g.clock.Now()
	n, err := g.seq.Next(ctx, day)
	if err != nil {
		return "", err
	}
	return Format(g.template, day, n)
}
