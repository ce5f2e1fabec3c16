package billing

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// PriceOption is one purchasable entry on the billing page. PriceID is the
// processor's price identifier; Plan is the tier it maps to.
type PriceOption struct {
	Key      string `yaml:"key"`      // stable internal key, e.g. "starter_monthly"
	PriceID  string `yaml:"price_id"` // processor price id, e.g. "price_1N..."
	Name     string `yaml:"name"`
	Amount   string `yaml:"amount"` // display string, e.g. "$49.99 / month"
	Plan     Plan   `yaml:"plan"`
	Interval string `yaml:"interval"` // "month" or "year"
}

// Catalog is the server-side price catalog and the price→plan resolver.
// Checkout requests are validated against it: a price id the catalog does
// not declare is rejected before any processor call.
type Catalog struct {
	options []PriceOption
	byPrice map[string]Plan
}

// NewCatalog builds a catalog from pre-declared options. Options with an
// empty PriceID are skipped so unconfigured environments degrade to an
// empty (but usable) catalog.
func NewCatalog(options ...PriceOption) (*Catalog, error) {
	c := &Catalog{byPrice: make(map[string]Plan, len(options))}
	for _, opt := range options {
		if opt.PriceID == "" {
			continue
		}
		if !opt.Plan.Valid() {
			return nil, errors.Join(ErrInvalidCatalog,
				fmt.Errorf("option %q maps to unknown plan %q", opt.Key, opt.Plan))
		}
		if _, dup := c.byPrice[opt.PriceID]; dup {
			return nil, errors.Join(ErrInvalidCatalog,
				fmt.Errorf("duplicate price id %q", opt.PriceID))
		}
		c.options = append(c.options, opt)
		c.byPrice[opt.PriceID] = opt.Plan
	}
	return c, nil
}

// NewCatalogFromYAML reads a catalog definition from r.
//
//	- key: starter_monthly
//	  price_id: price_123
//	  name: Starter Monthly
//	  amount: $49.99 / month
//	  plan: starter
//	  interval: month
func NewCatalogFromYAML(r io.Reader) (*Catalog, error) {
	var options []PriceOption
	if err := yaml.NewDecoder(r).Decode(&options); err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}
	return NewCatalog(options...)
}

// CatalogConfig declares the two standard price slots from the environment.
// Empty values are allowed; the catalog is simply smaller.
type CatalogConfig struct {
	StarterMonthlyPriceID string `env:"BILLING_PRICE_STARTER_MONTHLY"`
	StarterAnnualPriceID  string `env:"BILLING_PRICE_STARTER_ANNUAL"`
}

// NewCatalogFromConfig builds the default two-option catalog the billing
// page offers for self-service upgrades.
func NewCatalogFromConfig(cfg CatalogConfig) (*Catalog, error) {
	return NewCatalog(
		PriceOption{
			Key:      "starter_monthly",
			PriceID:  cfg.StarterMonthlyPriceID,
			Name:     "Starter Monthly",
			Amount:   "$49.99 / month",
			Plan:     PlanStarter,
			Interval: "month",
		},
		PriceOption{
			Key:      "starter_annual",
			PriceID:  cfg.StarterAnnualPriceID,
			Name:     "Starter Annual",
			Amount:   "$499 / year",
			Plan:     PlanStarter,
			Interval: "year",
		},
	)
}

// Options returns the purchasable entries in declaration order.
func (c *Catalog) Options() []PriceOption {
	out := make([]PriceOption, len(c.options))
	copy(out, c.options)
	return out
}

// Empty reports whether the catalog declares no purchasable prices.
func (c *Catalog) Empty() bool { return len(c.options) == 0 }

// Contains reports whether priceID is declared in the catalog. Checkout
// must call this before forwarding a caller-supplied price id.
func (c *Catalog) Contains(priceID string) bool {
	_, ok := c.byPrice[priceID]
	return ok
}

// PlanForPrice maps a processor price id to the internal tier. The second
// return is false for unknown prices; callers must treat that as "do not
// change the plan", never as a reset to trial.
func (c *Catalog) PlanForPrice(priceID string) (Plan, bool) {
	plan, ok := c.byPrice[priceID]
	return plan, ok
}
