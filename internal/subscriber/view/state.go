package view

import (
	"errors"
	"strings"
)

// AllAreas is the area sentinel that disables the area filter.
const AllAreas = "all"

type FeeRange string

const (
	FeeAll    FeeRange = "all"
	FeeLow    FeeRange = "low"
	FeeMedium FeeRange = "medium"
	FeeHigh   FeeRange = "high"
)

var ErrInvalidFeeRange = errors.New("invalid_fee_range")

// ParseFeeRange accepts low, medium, high, all or empty (all).
func ParseFeeRange(raw string) (FeeRange, error) {
	switch FeeRange(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FeeAll:
		return FeeAll, nil
	case FeeLow:
		return FeeLow, nil
	case FeeMedium:
		return FeeMedium, nil
	case FeeHigh:
		return FeeHigh, nil
	}
	return "", ErrInvalidFeeRange
}

// Brackets are the lower bounds of the medium and high fee brackets.
type Brackets struct {
	MediumFrom float64
	HighFrom   float64
}

var DefaultBrackets = Brackets{MediumFrom: 600, HighFrom: 900}

// Classify places fee in exactly one bracket. Lower bounds are inclusive.
func (b Brackets) Classify(fee float64) FeeRange {
	switch {
	case fee >= b.HighFrom:
		return FeeHigh
	case fee >= b.MediumFrom:
		return FeeMedium
	default:
		return FeeLow
	}
}

// State is an immutable filter snapshot. The With methods return a copy.
type State struct {
	search   string
	area     string
	feeRange FeeRange
	brackets Brackets
}

func NewState() State {
	return State{area: AllAreas, feeRange: FeeAll, brackets: DefaultBrackets}
}

func (s State) WithSearch(term string) State {
	s.search = strings.TrimSpace(term)
	return s
}

func (s State) WithArea(area string) State {
	area = strings.TrimSpace(area)
	if area == "" || strings.EqualFold(area, AllAreas) {
		area = AllAreas
	}
	s.area = area
	return s
}

func (s State) WithFeeRange(r FeeRange) State {
	if r == "" {
		r = FeeAll
	}
	s.feeRange = r
	return s
}

func (s State) WithBrackets(b Brackets) State {
	s.brackets = b
	return s
}

func (s State) Search() string     { return s.search }
func (s State) Area() string       { return s.area }
func (s State) FeeRange() FeeRange { return s.feeRange }
func (s State) Brackets() Brackets { return s.brackets }
