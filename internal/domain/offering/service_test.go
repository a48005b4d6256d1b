package offering

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/plannio/plannio/internal/platform/errors"
)

func fixedNow() time.Time {
	return time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
}

func staticID() (string, error) {
	return "svc-test-id", nil
}

func TestCreateServiceDefaults(t *testing.T) {
	t.Parallel()

	got, err := Create(CreateInput{
		BusinessID:      "biz-1",
		Name:            " Haircut ",
		DurationMinutes: 45,
		PriceAmount:     decimal.RequireFromString("35.00"),
	}, fixedNow, staticID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.Name != "Haircut" {
		t.Fatalf("name = %q, want trimmed", got.Name)
	}
	if got.Currency != "EUR" {
		t.Fatalf("currency = %q, want EUR default", got.Currency)
	}
	if !got.Active {
		t.Fatal("new services must be active")
	}
	if got.Duration() != 45*time.Minute {
		t.Fatalf("duration = %v, want 45m", got.Duration())
	}
}

func TestCreateServiceValidatesDuration(t *testing.T) {
	t.Parallel()

	for _, minutes := range []int{0, 4, 481} {
		_, err := Create(CreateInput{BusinessID: "biz-1", Name: "X", DurationMinutes: minutes}, fixedNow, staticID)
		if apperrors.CodeOf(err) != apperrors.CodeServiceInvalidDuration {
			t.Fatalf("duration %d: err = %v, want invalid duration code", minutes, err)
		}
	}
}

func TestCreateServiceRejectsNegativePrice(t *testing.T) {
	t.Parallel()

	_, err := Create(CreateInput{
		BusinessID:      "biz-1",
		Name:            "X",
		DurationMinutes: 30,
		PriceAmount:     decimal.RequireFromString("-1"),
	}, fixedNow, staticID)
	if !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("err = %v, want ErrInvalidPrice", err)
	}
}

func TestNormalizeCurrency(t *testing.T) {
	t.Parallel()

	got, err := NormalizeCurrency(" usd ")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got != "USD" {
		t.Fatalf("currency = %q, want USD", got)
	}
	for _, bad := range []string{"EU", "EURO", "E1R"} {
		if _, err := NormalizeCurrency(bad); apperrors.CodeOf(err) != apperrors.CodeServiceInvalidCurrency {
			t.Fatalf("currency %q: err = %v, want invalid currency code", bad, err)
		}
	}
}
