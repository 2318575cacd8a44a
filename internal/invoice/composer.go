// =============================================================================
// Rent Receipt Generator - Invoice Composer
// =============================================================================
//
// This module combines one Entry with the run parameters into an Invoice:
// the ordered line items, the total, the building address and the output
// file name. It performs no I/O.
//
// LINE ITEMS (in print order):
//   1. "Renta {month} {year}"           rent
//   2. "Agua del {start} al {end}"      water
//   3. "Luz del {start} al {end}"       energy
//   4. one row per included extra charge, in index order
//   5. "TOTAL"                          sum of all the above
//
// FILE NAME:
//   {year}_{month}_depa_{apartment}_{last_name}.pdf, lowercased, with spaces
//   in the last name replaced by underscores.
//
// =============================================================================

package invoice

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ginjaninja78/rent-receipts/internal/config"
	"github.com/ginjaninja78/rent-receipts/internal/money"
	"github.com/ginjaninja78/rent-receipts/internal/types"
	"github.com/ginjaninja78/rent-receipts/pkg/utils"
)

// TotalLabel is the description of the last line item.
const TotalLabel = "TOTAL"

// Composer builds invoices for one configuration.
type Composer struct {
	cfg    *config.MainConfig
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Composer.
type Option func(*Composer)

// WithLogger sets the logger used for address fallback warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composer) { c.logger = logger }
}

// WithClock sets the source of the issue date.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) { c.now = now }
}

// NewComposer creates a Composer from the building table and address lines
// of cfg.
func NewComposer(cfg *config.MainConfig, opts ...Option) *Composer {
	c := &Composer{
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose builds the invoice of one entry.
func (c *Composer) Compose(entry types.Entry, params types.RunParameters) *types.Invoice {
	items := LineItems(entry, params)
	total := Total(entry)
	items = append(items, types.LineItem{
		Description: TotalLabel,
		Amount:      money.Present(total),
	})

	return &types.Invoice{
		Entry:     entry,
		Params:    params,
		Address:   c.Address(params.Building),
		LineItems: items,
		Total:     total,
		FileName:  FileName(params.Year, params.Month, entry.Apartment, entry.LastName),
		IssuedAt:  c.now(),
	}
}

// Address resolves the printed address of a building. An unknown
// identifier falls back to the default building with a warning.
func (c *Composer) Address(building string) types.Address {
	street, known := c.cfg.Street(building)
	resolved := building
	if !known {
		resolved = c.cfg.DefaultBuilding
		c.logger.Warn("unknown building, using default address",
			"building", building,
			"default", resolved)
	}

	return types.Address{
		Building: resolved,
		Street:   street,
		Lines:    c.cfg.AddressLines,
	}
}

// =============================================================================
// LINE ITEMS AND TOTAL
// =============================================================================

// LineItems returns the charge rows of an entry without the TOTAL row.
func LineItems(entry types.Entry, params types.RunParameters) []types.LineItem {
	items := []types.LineItem{
		{
			Description: fmt.Sprintf("Renta %s %d", params.Month, params.Year),
			Amount:      money.Present(entry.Rent),
		},
		{
			Description: fmt.Sprintf("Agua del %s al %s", params.Water.Start, params.Water.End),
			Amount:      money.Present(entry.Water),
		},
		{
			Description: fmt.Sprintf("Luz del %s al %s", params.Energy.Start, params.Energy.End),
			Amount:      money.Present(entry.Energy),
		},
	}

	for _, extra := range entry.Extras {
		items = append(items, types.LineItem{
			Description: extra.Label,
			Amount:      money.Present(extra.Amount),
		})
	}

	return items
}

// Total sums rent, water, energy and every included extra charge, rounded
// to two digits.
func Total(entry types.Entry) decimal.Decimal {
	amounts := []decimal.NullDecimal{
		money.Present(entry.Rent),
		money.Present(entry.Water),
		money.Present(entry.Energy),
	}
	for _, extra := range entry.Extras {
		amounts = append(amounts, money.Present(extra.Amount))
	}
	return money.Sum(amounts...)
}

// =============================================================================
// FILE NAME
// =============================================================================

// FileName returns the deterministic output file name of a receipt.
func FileName(year int, month, apartment, lastName string) string {
	lower := cases.Lower(language.Spanish)

	name := strings.ReplaceAll(strings.TrimSpace(lastName), " ", "_")
	return fmt.Sprintf("%d_%s_depa_%s_%s.pdf",
		year,
		utils.SafeFileComponent(lower.String(strings.TrimSpace(month))),
		utils.SafeFileComponent(apartment),
		utils.SafeFileComponent(lower.String(name)),
	)
}
