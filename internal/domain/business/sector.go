package business

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/plannio/plannio/internal/platform/errors"
	"github.com/plannio/plannio/internal/platform/id"
)

// Sector is a seeded lookup entry classifying businesses (HEALTH, BEAUTY, ...).
type Sector struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

// ErrEmptySectorName indicates a missing sector name.
var ErrEmptySectorName = apperrors.New(apperrors.CodeBusinessSectorNameEmpty, "sector name is required")

// CreateSector creates a new sector with a generated ID.
func CreateSector(name, description string, now func() time.Time, idGenerator func() (string, error)) (Sector, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return Sector{}, ErrEmptySectorName
	}
	sectorID, err := idGenerator()
	if err != nil {
		return Sector{}, fmt.Errorf("generate sector id: %w", err)
	}
	return Sector{
		ID:          sectorID,
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   now().UTC(),
	}, nil
}
