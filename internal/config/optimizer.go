package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/tender-optimizer/internal/optimizer"
	"github.com/iwvelando/tender-optimizer/pkg/constants"
	"github.com/iwvelando/tender-optimizer/pkg/validation"
)

// OptimizerConfig selects the default strategy, weights and solver backend.
type OptimizerConfig struct {
	CostWeight        float64 `yaml:"costWeight" mapstructure:"costWeight"`
	PerformanceWeight float64 `yaml:"performanceWeight" mapstructure:"performanceWeight"`
	Backend           string  `yaml:"backend,omitempty" mapstructure:"backend"`
	Strategy          string  `yaml:"strategy,omitempty" mapstructure:"strategy"`
}

// CanonicalBackend returns the canonical identifier for a solver backend.
func CanonicalBackend(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultBackend
	}
	switch strings.ToLower(trimmed) {
	case "groupscan", "group_scan", "group-scan", "scan":
		return constants.BackendGroupScan
	case "simplex", "lp":
		return constants.BackendSimplex
	default:
		return strings.ToLower(trimmed)
	}
}

// Normalize ensures defaults and canonical values are applied before validation.
func (o *OptimizerConfig) Normalize() {
	if o == nil {
		return
	}
	o.Backend = CanonicalBackend(o.Backend)
	if kind, err := optimizer.ParseStrategyKind(o.Strategy); err == nil {
		o.Strategy = string(kind)
	}
}

// Validate returns an error when the optimizer configuration is unsupported.
func (o *OptimizerConfig) Validate() error {
	if o == nil {
		return fmt.Errorf("optimizer configuration cannot be nil")
	}

	o.Normalize()

	if err := o.Weights().Validate(); err != nil {
		return err
	}
	if err := validation.ValidateBackend(o.Backend); err != nil {
		return err
	}
	if _, err := optimizer.ParseStrategyKind(o.Strategy); err != nil {
		return err
	}
	return nil
}

// Weights returns the configured weight pair.
func (o *OptimizerConfig) Weights() optimizer.Weights {
	return optimizer.Weights{Cost: o.CostWeight, Performance: o.PerformanceWeight}
}

// StrategyKind returns the configured default strategy.
func (o *OptimizerConfig) StrategyKind() optimizer.StrategyKind {
	kind, err := optimizer.ParseStrategyKind(o.Strategy)
	if err != nil {
		return optimizer.StrategyOptimized
	}
	return kind
}

// DefaultStrategy pairs the configured strategy with the configured weights.
func (o *OptimizerConfig) DefaultStrategy() optimizer.Strategy {
	return optimizer.Strategy{Kind: o.StrategyKind(), Weights: o.Weights()}
}
