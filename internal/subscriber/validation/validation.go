package validation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/cabledesk/internal/subscriber/domain"
)

var (
	ErrMissingFields         = errors.New("missing_fields")
	ErrInvalidPhone          = errors.New("invalid_phone")
	ErrReservedArea          = errors.New("reserved_area")
	ErrInvalidProvider       = errors.New("invalid_provider")
	ErrInvalidStatus         = errors.New("invalid_status")
	ErrInvalidFee            = errors.New("invalid_fee")
	ErrInvalidConnectionDate = errors.New("invalid_connection_date")
)

var phoneRe = regexp.MustCompile(`^[0-9]{10}$`)

// Error carries the failing fields alongside one of the sentinel errors above.
type Error struct {
	Err    error
	Fields []string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), strings.Join(e.Fields, ", "))
}

func (e *Error) Unwrap() error { return e.Err }

// Rules selects which optional requirements apply. The zero value is the
// strictest form: everything required, no provider restriction.
type Rules struct {
	OptionalAddress        bool
	OptionalConnectionDate bool
	OptionalFee            bool
	Providers              []string
}

// FormRules is the rule set for manual create and update.
func FormRules(providers []string) Rules {
	return Rules{Providers: providers}
}

// ImportRules relaxes the fields spreadsheets commonly omit.
func ImportRules(providers []string) Rules {
	return Rules{
		OptionalAddress:        true,
		OptionalConnectionDate: true,
		OptionalFee:            true,
		Providers:              providers,
	}
}

// form is a trimmed FormInput tagged for the validator. The Optional flags
// feed required_unless so one struct serves both rule sets. Field order is
// the order missing fields are reported in.
type form struct {
	SubscriberCode  string `json:"subscriber_code"`
	Name            string `json:"name" validate:"required"`
	Phone           string `json:"phone" validate:"required,phone10"`
	Area            string `json:"area" validate:"required,ne_ignore_case=all"`
	Address         string `json:"address" validate:"required_unless=OptionalAddress true"`
	MonthlyFee      string `json:"monthly_fee" validate:"required_unless=OptionalFee true,omitempty,fee"`
	ConnectionDate  string `json:"connection_date" validate:"required_unless=OptionalConnectionDate true,omitempty,datetime=2006-01-02"`
	ServiceProvider string `json:"service_provider" validate:"required,provider"`
	Status          string `json:"status" validate:"omitempty,subscriber_status"`

	OptionalAddress        bool `json:"-" validate:"-"`
	OptionalFee            bool `json:"-" validate:"-"`
	OptionalConnectionDate bool `json:"-" validate:"-"`
}

// tagErrors maps a failing tag to its sentinel. Earlier entries win when a
// form fails more than one check.
var tagErrors = []struct {
	tag string
	err error
}{
	{"phone10", ErrInvalidPhone},
	{"ne_ignore_case", ErrReservedArea},
	{"provider", ErrInvalidProvider},
	{"subscriber_status", ErrInvalidStatus},
	{"fee", ErrInvalidFee},
	{"datetime", ErrInvalidConnectionDate},
}

type providersKey struct{}

var formValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	}))
	mustRegister(v.RegisterValidation("fee", func(fl validator.FieldLevel) bool {
		_, ok := ParseFee(fl.Field().String())
		return ok
	}))
	mustRegister(v.RegisterValidation("subscriber_status", func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseStatus(fl.Field().String())
		return ok
	}))
	mustRegister(v.RegisterValidationCtx("provider", func(ctx context.Context, fl validator.FieldLevel) bool {
		providers, _ := ctx.Value(providersKey{}).([]string)
		_, ok := matchProvider(fl.Field().String(), providers)
		return ok
	}))
	return v
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}

// ValidPhone reports whether phone is exactly ten ASCII digits.
func ValidPhone(phone string) bool {
	return phoneRe.MatchString(phone)
}

// ParseFee parses a monthly fee. Negative and non-finite values are rejected.
func ParseFee(raw string) (float64, bool) {
	fee, err := strconv.ParseFloat(raw, 64)
	if err != nil || fee < 0 || math.IsNaN(fee) || math.IsInf(fee, 0) {
		return 0, false
	}
	return fee, true
}

func Validate(input domain.FormInput, rules Rules) (domain.Normalized, error) {
	in := form{
		SubscriberCode:         strings.TrimSpace(input.SubscriberCode),
		Name:                   strings.TrimSpace(input.Name),
		Phone:                  strings.TrimSpace(input.Phone),
		Area:                   strings.TrimSpace(input.Area),
		Address:                strings.TrimSpace(input.Address),
		ServiceProvider:        strings.TrimSpace(input.ServiceProvider),
		MonthlyFee:             strings.TrimSpace(input.MonthlyFee),
		ConnectionDate:         strings.TrimSpace(input.ConnectionDate),
		Status:                 strings.TrimSpace(input.Status),
		OptionalAddress:        rules.OptionalAddress,
		OptionalFee:            rules.OptionalFee,
		OptionalConnectionDate: rules.OptionalConnectionDate,
	}

	ctx := context.WithValue(context.Background(), providersKey{}, rules.Providers)
	if err := formValidator.StructCtx(ctx, in); err != nil {
		return domain.Normalized{}, toError(err)
	}

	provider, _ := matchProvider(in.ServiceProvider, rules.Providers)

	status := domain.StatusActive
	if in.Status != "" {
		status, _ = domain.ParseStatus(in.Status)
	}

	var fee float64
	if in.MonthlyFee != "" {
		fee, _ = ParseFee(in.MonthlyFee)
	}

	var connected *time.Time
	if in.ConnectionDate != "" {
		parsed, err := time.Parse(domain.DateLayout, in.ConnectionDate)
		if err != nil {
			return domain.Normalized{}, &Error{Err: ErrInvalidConnectionDate, Fields: []string{"connection_date"}}
		}
		connected = &parsed
	}

	return domain.Normalized{
		SubscriberCode:  in.SubscriberCode,
		Name:            in.Name,
		Phone:           in.Phone,
		Area:            in.Area,
		Address:         in.Address,
		ServiceProvider: provider,
		MonthlyFee:      fee,
		ConnectionDate:  connected,
		Status:          status,
	}, nil
}

// toError folds validator failures into a single *Error. Every empty
// required field is reported together; otherwise the highest-priority
// shape failure wins.
func toError(err error) error {
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return err
	}

	var missing []string
	for _, fe := range failures {
		if strings.HasPrefix(fe.Tag(), "required") {
			missing = append(missing, fe.Field())
		}
	}
	if len(missing) > 0 {
		return &Error{Err: ErrMissingFields, Fields: missing}
	}

	for _, te := range tagErrors {
		for _, fe := range failures {
			if fe.Tag() == te.tag {
				return &Error{Err: te.err, Fields: []string{fe.Field()}}
			}
		}
	}
	return &Error{Err: errors.New(failures[0].Tag()), Fields: []string{failures[0].Field()}}
}

// matchProvider returns the catalog spelling of value. An empty catalog
// accepts any non-empty provider.
func matchProvider(value string, providers []string) (string, bool) {
	if len(providers) == 0 {
		return value, value != ""
	}
	for _, p := range providers {
		if strings.EqualFold(p, value) {
			return p, true
		}
	}
	return "", false
}
