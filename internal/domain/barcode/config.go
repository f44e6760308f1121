package barcode

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultPrefix       = "GPMS"
	DefaultCounterStart = int64(1000)
)

// Config is the generator configuration. Counters hold the next value that
// will be handed out for each type.
type Config struct {
	Prefix   string                `validate:"required,alphanum,uppercase,max=17"`
	Format   string                `validate:"required,eq=CODE128"`
	Counters map[BarcodeType]int64 `validate:"required"`
}

// DefaultConfig is used whenever the stored configuration cannot be read.
func DefaultConfig() *Config {
	return &Config{
		Prefix: DefaultPrefix,
		Format: FormatCode128,
		Counters: map[BarcodeType]int64{
			BarcodeTypeUnit:    DefaultCounterStart,
			BarcodeTypeProduct: DefaultCounterStart,
		},
	}
}

// Counter returns the next-available value for t, falling back to the default start.
func (c *Config) Counter(t BarcodeType) int64 {
	if v, ok := c.Counters[t]; ok {
		return v
	}
	return DefaultCounterStart
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func configValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the prefix/format shape and counter ranges.
func (c *Config) Validate() error {
	if err := configValidator().Struct(c); err != nil {
		return fmt.Errorf("invalid barcode config: %w", err)
	}
	for t, v := range c.Counters {
		if !t.IsValid() {
			return fmt.Errorf("invalid barcode config: unknown counter %q", t)
		}
		if v < 0 || v > MaxCounter+1 {
			return fmt.Errorf("invalid barcode config: counter %q out of range: %d", t, v)
		}
	}
	return nil
}
