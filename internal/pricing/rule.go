package pricing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrInvalidConfig is returned when a pricing rule cannot be constructed.
var ErrInvalidConfig = errors.New("invalid pricing config")

// Limit caps how many times a rule may fire. The zero value is unlimited.
type Limit struct {
	applications int
	capped       bool
}

// Unlimited returns a Limit without a cap.
func Unlimited() Limit { return Limit{} }

// LimitOf returns a Limit allowing n discount applications.
func LimitOf(n int) Limit { return Limit{applications: n, capped: true} }

// Applications reports the cap and whether one is set.
func (l Limit) Applications() (int, bool) { return l.applications, l.capped }

// IsUnlimited reports whether the limit has no cap.
func (l Limit) IsUnlimited() bool { return !l.capped }

// MarshalJSON renders the cap as a number, or null when unlimited.
func (l Limit) MarshalJSON() ([]byte, error) {
	if !l.capped {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(l.applications)), nil
}

func (l Limit) String() string {
	if !l.capped {
		return "unlimited"
	}
	return strconv.Itoa(l.applications)
}

// Rule describes one grouped discount: every Frequency-th unit of ItemName is
// charged NewCost, for at most Limit groups.
type Rule struct {
	Frequency int    `json:"frequency" validate:"gte=1"`
	ItemName  string `json:"item" validate:"required"`
	// TargetName is kept for configuration compatibility. The evaluator never
	// reads it; the rewritten price always applies to ItemName.
	TargetName string          `json:"target"`
	NewCost    decimal.Decimal `json:"newCost"`
	Limit      Limit           `json:"limit"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator instance used for pricing config.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// NewRule constructs a validated Rule.
func NewRule(frequency int, itemName, targetName string, newCost decimal.Decimal, limit Limit) (Rule, error) {
	r := Rule{
		Frequency:  frequency,
		ItemName:   itemName,
		TargetName: targetName,
		NewCost:    newCost,
		Limit:      limit,
	}
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}

// MustRule behaves like NewRule but panics on error.
func MustRule(frequency int, itemName, targetName string, newCost decimal.Decimal, limit Limit) Rule {
	r, err := NewRule(frequency, itemName, targetName, newCost, limit)
	if err != nil {
		panic(err)
	}
	return r
}

// Validate checks the rule invariants.
func (r Rule) Validate() error {
	if err := Validator().Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if n, capped := r.Limit.Applications(); capped && n < 1 {
		return fmt.Errorf("%w: limit must be at least 1, got %d", ErrInvalidConfig, n)
	}
	return nil
}

// Applies reports whether the rule fires for the count-th unit of name.
func (r Rule) Applies(name string, count int) bool {
	if r.ItemName != name || r.Frequency < 1 {
		return false
	}
	if count%r.Frequency != 0 {
		return false
	}
	n, capped := r.Limit.Applications()
	return !capped || count <= n*r.Frequency
}
