package barcode

import (
	"fmt"
	"regexp"
	"strconv"
)

const (
	MinLength     = 4
	MaxLength     = 25
	CounterDigits = 6
	// MaxCounter is the largest value that fits the zero-padded counter field.
	MaxCounter = int64(999999)
)

var canonicalPattern = regexp.MustCompile(`^([A-Z0-9]+)([UP])([0-9]{6})$`)

// Compose builds PREFIX + type code + zero-padded counter.
func Compose(prefix string, barcodeType BarcodeType, counter int64) (string, error) {
	code := barcodeType.Code()
	if code == "" {
		return "", fmt.Errorf("unknown barcode type %q", barcodeType)
	}
	if counter < 0 {
		return "", fmt.Errorf("negative counter %d", counter)
	}
	if counter > MaxCounter {
		return "", fmt.Errorf("%w: %s counter reached %d", ErrCounterExhausted, barcodeType, counter)
	}
	return fmt.Sprintf("%s%s%0*d", prefix, code, CounterDigits, counter), nil
}

// ValidationResult is the outcome of ValidateCode128. Errors lists every
// rule the input broke, not just the first.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Format  string   `json:"format"`
	Errors  []string `json:"errors"`
}

// ValidateCode128 checks that s is printable-ASCII CODE128 data of a
// scannable length in the canonical registry shape.
func ValidateCode128(s string) ValidationResult {
	errs := make([]string, 0)

	if s == "" {
		errs = append(errs, "barcode must be a non-empty string")
	}
	if n := len(s); n < MinLength || n > MaxLength {
		errs = append(errs, fmt.Sprintf("barcode length must be between %d and %d characters, got %d", MinLength, MaxLength, n))
	}
	for i := 0; i < len(s); i++ {
		if c := s[i]; c < 0x20 || c > 0x7E {
			errs = append(errs, fmt.Sprintf("barcode contains a non-printable or non-ASCII byte 0x%02X at position %d", c, i))
			break
		}
	}
	if !canonicalPattern.MatchString(s) {
		errs = append(errs, "barcode must match PREFIX + U|P + 6 digits")
	}

	return ValidationResult{
		IsValid: len(errs) == 0,
		Format:  FormatCode128,
		Errors:  errs,
	}
}

// Info is the decomposition of a barcode string.
type Info struct {
	Prefix  string      `json:"prefix"`
	Type    BarcodeType `json:"type"`
	Counter int64       `json:"counter"`
	IsValid bool        `json:"isValid"`
}

// ParseBarcodeInfo splits a canonical barcode into its parts. Anything that
// is not canonical yields Type unknown and IsValid false.
func ParseBarcodeInfo(s string) Info {
	m := canonicalPattern.FindStringSubmatch(s)
	if m == nil || len(s) > MaxLength {
		return Info{Type: BarcodeTypeUnknown}
	}
	counter, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return Info{Type: BarcodeTypeUnknown}
	}
	return Info{
		Prefix:  m[1],
		Type:    barcodeTypeFromCode(m[2]),
		Counter: counter,
		IsValid: true,
	}
}
