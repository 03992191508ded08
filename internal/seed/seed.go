package seed

import (
	"context"
	"errors"

	subscriberdomain "github.com/smallbiznis/cabledesk/internal/subscriber/domain"
)

const seedOperator = "seed"

var demoRoster = []subscriberdomain.FormInput{
	{Name: "Anil Kumar", Phone: "9847000001", Area: "Kakkanad", Address: "12 Temple Road", ServiceProvider: "Asianet", MonthlyFee: "450", ConnectionDate: "2023-04-12", Status: "active"},
	{Name: "Bindu Thomas", Phone: "9847000002", Area: "Edappally", Address: "Flat 3B, Lulu Residency", ServiceProvider: "KCCL", MonthlyFee: "650", ConnectionDate: "2023-07-01", Status: "active"},
	{Name: "Chacko Varghese", Phone: "9847000003", Area: "Kakkanad", Address: "TC 22/41 Seaport Road", ServiceProvider: "BSNL", MonthlyFee: "999", ConnectionDate: "2022-11-20", Status: "suspended"},
	{Name: "Deepa Menon", Phone: "9847000004", Area: "Aluva", Address: "Market Junction", ServiceProvider: "KFoN", MonthlyFee: "300", ConnectionDate: "2024-01-05", Status: "inactive"},
	{Name: "Ebin Joseph", Phone: "9847000005", Area: "Edappally", Address: "8 Church Lane", ServiceProvider: "Asianet", MonthlyFee: "900", ConnectionDate: "2024-02-18", Status: "active"},
}

// EnsureDemoRoster creates a small demo roster when the store is empty and
// reports how many records it wrote.
func EnsureDemoRoster(ctx context.Context, svc subscriberdomain.Service) (int, error) {
	if svc == nil {
		return 0, errors.New("seed subscriber service is required")
	}

	existing, err := svc.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	created := 0
	for _, form := range demoRoster {
		if _, err := svc.Create(ctx, subscriberdomain.CreateSubscriberRequest{
			Form:     form,
			Operator: seedOperator,
		}); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
