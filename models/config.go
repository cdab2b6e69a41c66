package models

import (
	"encoding/json"
	"fmt"
)

type PairingMethod string

const (
	MethodSwiss       PairingMethod = "swiss"
	MethodRoundRobin  PairingMethod = "round_robin"
	MethodElimination PairingMethod = "elimination"
	MethodManual      PairingMethod = "manual"
)

type ByePolicy string

const (
	ByeLowest  ByePolicy = "lowest"
	ByeHighest ByePolicy = "highest"
	ByeRandom  ByePolicy = "random"
)

type BoardOrdering string

const (
	OrderByRating   BoardOrdering = "rating"
	OrderRandom     BoardOrdering = "random"
	OrderSequential BoardOrdering = "sequential"
)

// PairingConfig is the closed configuration record consumed by the pairing
// generator. It is stored per tournament as JSON, the same way bracket
// format settings are.
type PairingConfig struct {
	Method        PairingMethod `json:"method"`
	AvoidRepeats  bool          `json:"avoid_repeats"`
	ColorBalance  bool          `json:"color_balance"`
	ByePolicy     ByePolicy     `json:"bye_policy"`
	ByePoints     float64       `json:"bye_points"`
	BoardOrdering BoardOrdering `json:"board_ordering"`
	FirstBoard    int           `json:"first_board"`

	// Warning thresholds for the validator. ColorImbalanceMax is the largest
	// tolerated difference between a player's white and black game counts;
	// RatingGapMax is the largest opponent rating difference that passes
	// without comment. Zero RatingGapMax disables the check.
	ColorImbalanceMax int `json:"color_imbalance_max"`
	RatingGapMax      int `json:"rating_gap_max"`

	// Tiebreak systems in priority order, e.g. ["buchholz", "sonneborn_berger"].
	Tiebreaks []string `json:"tiebreaks"`
}

func DefaultPairingConfig() PairingConfig {
	return PairingConfig{
		Method:            MethodSwiss,
		AvoidRepeats:      true,
		ColorBalance:      true,
		ByePolicy:         ByeLowest,
		ByePoints:         1.0,
		BoardOrdering:     OrderByRating,
		FirstBoard:        1,
		ColorImbalanceMax: 1,
		RatingGapMax:      0,
		Tiebreaks:         []string{"buchholz", "sonneborn_berger", "head_to_head", "cumulative"},
	}
}

// ParsePairingConfig unmarshals a stored configuration, overlaying it on the
// defaults so that omitted fields keep sane values.
func ParsePairingConfig(raw string) (PairingConfig, error) {
	cfg := DefaultPairingConfig()
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return cfg, fmt.Errorf("invalid pairing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c PairingConfig) Validate() error {
	switch c.Method {
	case MethodSwiss, MethodRoundRobin, MethodElimination, MethodManual:
	default:
		return fmt.Errorf("invalid pairing config: unknown method %q", c.Method)
	}
	switch c.ByePolicy {
	case ByeLowest, ByeHighest, ByeRandom:
	default:
		return fmt.Errorf("invalid pairing config: unknown bye policy %q", c.ByePolicy)
	}
	switch c.BoardOrdering {
	case OrderByRating, OrderRandom, OrderSequential:
	default:
		return fmt.Errorf("invalid pairing config: unknown board ordering %q", c.BoardOrdering)
	}
	if c.ByePoints < 0 || c.ByePoints > 1 {
		return fmt.Errorf("invalid pairing config: bye points %v out of range [0,1]", c.ByePoints)
	}
	if c.FirstBoard < 1 {
		return fmt.Errorf("invalid pairing config: first board %d must be positive", c.FirstBoard)
	}
	return nil
}
