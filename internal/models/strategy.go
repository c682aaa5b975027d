package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StrategyStatus represents whether a strategy is in use.
type StrategyStatus string

const (
	StrategyStatusActive   StrategyStatus = "active"
	StrategyStatusInactive StrategyStatus = "inactive"
)

// Valid returns true if the strategy status is valid.
func (s StrategyStatus) Valid() bool {
	return s == StrategyStatusActive || s == StrategyStatusInactive
}

func (s StrategyStatus) String() string {
	return string(s)
}

// StrategyResult is the cached outcome of the most recent feasibility
// calculation. Only the calculation recorder writes it.
type StrategyResult string

const (
	StrategyResultNotCalculated StrategyResult = "not_calculated"
	StrategyResultSatisfiable   StrategyResult = "satisfiable"
	StrategyResultPartial       StrategyResult = "partial"
	StrategyResultUnsatisfiable StrategyResult = "unsatisfiable"
)

// Valid returns true if the strategy result is valid.
func (r StrategyResult) Valid() bool {
	switch r {
	case StrategyResultNotCalculated, StrategyResultSatisfiable,
		StrategyResultPartial, StrategyResultUnsatisfiable:
		return true
	default:
		return false
	}
}

func (r StrategyResult) String() string {
	return string(r)
}

// MaxStrategyBudget is the upper bound accepted for a strategy budget.
var MaxStrategyBudget = decimal.NewFromInt(100_000_000)

// Strategy is a named plan whose demand lines are checked for feasibility.
type Strategy struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	MaxBudget   decimal.Decimal `json:"max_budget"`
	Status      StrategyStatus  `json:"status"`
	Result      StrategyResult  `json:"result"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Validate checks if the strategy data is valid.
func (s *Strategy) Validate() error {
	var errs []error
	if s.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if s.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if !s.Status.Valid() {
		errs = append(errs, fmt.Errorf("invalid status: %s", s.Status))
	}
	if !s.Result.Valid() {
		errs = append(errs, fmt.Errorf("invalid result: %s", s.Result))
	}
	if err := ValidateBudget(s.MaxBudget); err != nil {
		errs = append(errs, fmt.Errorf("max_budget: %w", err))
	}
	return errors.Join(errs...)
}

// ValidateBudget rejects negative budgets and budgets above MaxStrategyBudget.
func ValidateBudget(b decimal.Decimal) error {
	if b.IsNegative() {
		return errors.New("must not be negative")
	}
	if b.GreaterThan(MaxStrategyBudget) {
		return fmt.Errorf("must not exceed %s", MaxStrategyBudget)
	}
	return nil
}

// DemandType distinguishes fixed demand from demand that varies per period.
type DemandType string

const (
	DemandTypeStatic  DemandType = "static"
	DemandTypeDynamic DemandType = "dynamic"
)

// Valid returns true if the demand type is valid.
func (d DemandType) Valid() bool {
	return d == DemandTypeStatic || d == DemandTypeDynamic
}

// Period is the planning horizon a demand quantity refers to.
type Period string

const (
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
	PeriodYearly    Period = "yearly"
)

// Valid returns true if the period is valid.
func (p Period) Valid() bool {
	switch p {
	case PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return true
	default:
		return false
	}
}

// Demand is one line of a strategy: a quantity of a product.
type Demand struct {
	ID         string          `json:"id"`
	StrategyID string          `json:"strategy_id"`
	ProductID  string          `json:"product_id"`
	DemandType DemandType      `json:"demand_type"`
	Quantity   decimal.Decimal `json:"quantity"`
	Period     Period          `json:"period"`
	Position   int             `json:"position"`
	CreatedAt  time.Time       `json:"created_at"`

	// Joined fields
	Product *Product `json:"product,omitempty"`
}

// Validate checks if the demand data is valid.
func (d *Demand) Validate() error {
	var errs []error
	if d.StrategyID == "" {
		errs = append(errs, errors.New("strategy_id is required"))
	}
	if d.ProductID == "" {
		errs = append(errs, errors.New("product_id is required"))
	}
	if !d.DemandType.Valid() {
		errs = append(errs, fmt.Errorf("invalid demand_type: %s", d.DemandType))
	}
	if !d.Period.Valid() {
		errs = append(errs, fmt.Errorf("invalid period: %s", d.Period))
	}
	if d.Quantity.IsNegative() {
		errs = append(errs, errors.New("quantity must not be negative"))
	}
	return errors.Join(errs...)
}

// StrategyFilter defines filters for querying strategies.
type StrategyFilter struct {
	Status *StrategyStatus
	Result *StrategyResult
	Search string
}

// StrategyList represents a paginated list of strategies.
type StrategyList struct {
	Strategies []*Strategy `json:"strategies"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	TotalPages int         `json:"total_pages"`
}
