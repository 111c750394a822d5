// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package mapping transforms raw point values into display or control
// values. Every function is pure and never fails: a rule that cannot be
// applied returns the original value.
package mapping

import (
	"github.com/absmach/scadabind/pkg/errors"
	"github.com/absmach/scadabind/pkg/values"
)

// Type selects the mapping rule.
type Type string

const (
	Direct  Type = "direct"
	Boolean Type = "boolean"
	Range   Type = "range"
	Enum    Type = "enum"
)

var (
	// ErrUnknownType indicates a mapping type other than direct, boolean, range or enum.
	ErrUnknownType = errors.New("unknown mapping type")

	// ErrInvalidRange indicates a range rule whose min is greater than its max.
	ErrInvalidRange = errors.New("range rule min is greater than max")
)

// RangeRule maps every number in [Min, Max] to Value.
type RangeRule struct {
	Min   float64 `json:"min" mapstructure:"min"`
	Max   float64 `json:"max" mapstructure:"max"`
	Value any     `json:"value" mapstructure:"value"`
	Label string  `json:"label,omitempty" mapstructure:"label"`
	Unit  string  `json:"unit,omitempty" mapstructure:"unit"`
}

// Contains reports whether v lies within the inclusive bounds of the rule.
func (r RangeRule) Contains(v float64) bool {
	return r.Min <= v && v <= r.Max
}

// Config describes how a bound value is transformed.
type Config struct {
	Type             Type           `json:"type" mapstructure:"type"`
	ValueType        string         `json:"valueType,omitempty" mapstructure:"valueType"`
	TrueValue        any            `json:"trueValue,omitempty" mapstructure:"trueValue"`
	FalseValue       any            `json:"falseValue,omitempty" mapstructure:"falseValue"`
	RangeRules       []RangeRule    `json:"rangeRules,omitempty" mapstructure:"rangeRules"`
	EnumMappings     map[string]any `json:"enumMappings,omitempty" mapstructure:"enumMappings"`
	KeepOriginalUnit bool           `json:"keepOriginalUnit,omitempty" mapstructure:"keepOriginalUnit"`
	CustomUnit       string         `json:"customUnit,omitempty" mapstructure:"customUnit"`
}

// Validate checks that the rule can be applied as declared.
func (c Config) Validate() error {
	switch c.Type {
	case "", Direct, Boolean, Enum:
		return nil
	case Range:
		for _, r := range c.RangeRules {
			if r.Min > r.Max {
				return ErrInvalidRange
			}
		}
		return nil
	default:
		return ErrUnknownType
	}
}

// Apply maps value according to cfg. A nil cfg passes value through.
func Apply(value any, cfg *Config) any {
	if cfg == nil {
		return value
	}
	switch cfg.Type {
	case Boolean:
		return applyBoolean(value, cfg.TrueValue, cfg.FalseValue)
	case Range:
		return applyRange(value, cfg.RangeRules)
	case Enum:
		return applyEnum(value, cfg.EnumMappings)
	default:
		return value
	}
}

func applyBoolean(value, trueValue, falseValue any) any {
	if values.Truthy(value) {
		if trueValue == nil {
			return true
		}
		return trueValue
	}
	if falseValue == nil {
		return false
	}
	return falseValue
}

// First match wins. Overlapping rules resolve by declaration order.
func applyRange(value any, rules []RangeRule) any {
	n, ok := values.Number(value)
	if !ok {
		return value
	}
	for _, r := range rules {
		if r.Contains(n) {
			return r.Value
		}
	}
	return value
}

func applyEnum(value any, mappings map[string]any) any {
	if mapped, ok := mappings[values.String(value)]; ok && mapped != nil {
		return mapped
	}
	return value
}

// MatchRange returns the first rule that contains value.
func MatchRange(value any, rules []RangeRule) (RangeRule, bool) {
	n, ok := values.Number(value)
	if !ok {
		return RangeRule{}, false
	}
	for _, r := range rules {
		if r.Contains(n) {
			return r, true
		}
	}
	return RangeRule{}, false
}

// Unit resolves the unit to display next to a mapped value: the unit of
// the matched range rule first, then the custom unit unless the original
// unit is kept.
func Unit(value any, cfg *Config, original string) string {
	if cfg == nil {
		return original
	}
	if cfg.Type == Range {
		if r, ok := MatchRange(value, cfg.RangeRules); ok && r.Unit != "" {
			return r.Unit
		}
	}
	if !cfg.KeepOriginalUnit && cfg.CustomUnit != "" {
		return cfg.CustomUnit
	}
	return original
}
