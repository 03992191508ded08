package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/cabledesk/internal/subscriber/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var providers = []string{"Asianet", "KCCL", "BSNL", "KFoN"}

func validForm() domain.FormInput {
	return domain.FormInput{
		Name:            "  Anil Kumar ",
		Phone:           "9876543210",
		Area:            "Kakkanad",
		Address:         "12 Temple Road",
		ServiceProvider: "Asianet",
		MonthlyFee:      "650.50",
		ConnectionDate:  "2024-03-01",
	}
}

func TestValidateAcceptsWellFormedInput(t *testing.T) {
	got, err := Validate(validForm(), FormRules(providers))
	require.NoError(t, err)

	assert.Equal(t, "Anil Kumar", got.Name)
	assert.Equal(t, 650.50, got.MonthlyFee)
	assert.Equal(t, domain.StatusActive, got.Status)
	require.NotNil(t, got.ConnectionDate)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *got.ConnectionDate)
}

func TestValidateMissingFields(t *testing.T) {
	fields := map[string]func(*domain.FormInput){
		"name":             func(f *domain.FormInput) { f.Name = " " },
		"phone":            func(f *domain.FormInput) { f.Phone = "" },
		"area":             func(f *domain.FormInput) { f.Area = "" },
		"address":          func(f *domain.FormInput) { f.Address = "" },
		"monthly_fee":      func(f *domain.FormInput) { f.MonthlyFee = "" },
		"connection_date":  func(f *domain.FormInput) { f.ConnectionDate = "" },
		"service_provider": func(f *domain.FormInput) { f.ServiceProvider = "" },
	}

	for field, blank := range fields {
		t.Run(field, func(t *testing.T) {
			form := validForm()
			blank(&form)

			_, err := Validate(form, FormRules(providers))
			require.ErrorIs(t, err, ErrMissingFields)

			var verr *Error
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, []string{field}, verr.Fields)
		})
	}
}

func TestValidateImportRulesRelaxOptionalFields(t *testing.T) {
	form := validForm()
	form.Address = ""
	form.ConnectionDate = ""
	form.MonthlyFee = ""

	got, err := Validate(form, ImportRules(providers))
	require.NoError(t, err)
	assert.Nil(t, got.ConnectionDate)
	assert.Zero(t, got.MonthlyFee)
}

func TestValidatePhone(t *testing.T) {
	cases := []struct {
		phone string
		ok    bool
	}{
		{"9876543210", true},
		{"0000000000", true},
		{"987654321", false},
		{"98765432101", false},
		{"98765-43210", false},
		{"+919876543210", false},
		{"98765432a0", false},
		{" 987654321", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, ValidPhone(tc.phone), tc.phone)
	}

	form := validForm()
	form.Phone = "98765 43210"
	_, err := Validate(form, FormRules(providers))
	assert.ErrorIs(t, err, ErrInvalidPhone)
}

func TestValidateProvider(t *testing.T) {
	form := validForm()
	form.ServiceProvider = "kccl"
	got, err := Validate(form, FormRules(providers))
	require.NoError(t, err)
	assert.Equal(t, "KCCL", got.ServiceProvider)

	form.ServiceProvider = "Hathway"
	_, err = Validate(form, FormRules(providers))
	assert.ErrorIs(t, err, ErrInvalidProvider)

	got, err = Validate(form, Rules{})
	require.NoError(t, err)
	assert.Equal(t, "Hathway", got.ServiceProvider)
}

func TestValidateStatusFeeAndDate(t *testing.T) {
	form := validForm()
	form.Status = "Suspended"
	got, err := Validate(form, FormRules(providers))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuspended, got.Status)

	form.Status = "paused"
	_, err = Validate(form, FormRules(providers))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	form = validForm()
	form.MonthlyFee = "-1"
	_, err = Validate(form, FormRules(providers))
	assert.ErrorIs(t, err, ErrInvalidFee)

	form.MonthlyFee = "abc"
	_, err = Validate(form, FormRules(providers))
	assert.ErrorIs(t, err, ErrInvalidFee)

	for _, fee := range []string{"Inf", "+Inf", "-Inf", "infinity", "NaN", "1e400"} {
		form.MonthlyFee = fee
		_, err = Validate(form, ImportRules(providers))
		assert.ErrorIs(t, err, ErrInvalidFee, fee)
	}

	form = validForm()
	form.ConnectionDate = "01/03/2024"
	_, err = Validate(form, FormRules(providers))
	assert.ErrorIs(t, err, ErrInvalidConnectionDate)
}

func TestValidateReportsEveryMissingFieldInFormOrder(t *testing.T) {
	_, err := Validate(domain.FormInput{Name: "Anil", Area: "Aluva"}, FormRules(providers))

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.ErrorIs(t, err, ErrMissingFields)
	assert.Equal(t, []string{"phone", "address", "monthly_fee", "connection_date", "service_provider"}, verr.Fields)
}

func TestValidateShapeErrorPrecedence(t *testing.T) {
	form := validForm()
	form.Phone = "123"
	form.ServiceProvider = "Hathway"
	form.MonthlyFee = "-5"

	_, err := Validate(form, FormRules(providers))
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, ErrInvalidPhone, verr.Err)
	assert.Equal(t, []string{"phone"}, verr.Fields)
}

func TestValidateRejectsReservedArea(t *testing.T) {
	for _, area := range []string{"all", "All", " ALL "} {
		form := validForm()
		form.Area = area
		_, err := Validate(form, FormRules(providers))
		assert.ErrorIs(t, err, ErrReservedArea, area)
	}
}

func TestParseFee(t *testing.T) {
	fee, ok := ParseFee("650.50")
	assert.True(t, ok)
	assert.Equal(t, 650.50, fee)

	fee, ok = ParseFee("0")
	assert.True(t, ok)
	assert.Zero(t, fee)

	for _, raw := range []string{"", "-1", "abc", "Inf", "NaN"} {
		_, ok := ParseFee(raw)
		assert.False(t, ok, raw)
	}
}
