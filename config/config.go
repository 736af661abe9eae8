// Package config defines the immutable per-run configuration: account and
// symbol parameters, strategy rules (stops, schedule, trade limits),
// training thresholds and evaluation constraints.
//
// Configuration errors are detected once, at load/validation time, and are
// fatal to starting a run. The simulation core never re-validates per step.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/evotrade/trader/market"
	"gopkg.in/yaml.v3"
)

// Config represents the complete simulation configuration.
type Config struct {
	General    GeneralConfig    `json:"general" yaml:"general"`
	Symbol     SymbolInfo       `json:"symbol" yaml:"symbol"`
	Strategy   StrategyConfig   `json:"strategy" yaml:"strategy"`
	Training   TrainingConfig   `json:"training" yaml:"training"`
	Evaluation EvaluationConfig `json:"evaluation" yaml:"evaluation"`
}

// GeneralConfig contains account initialization parameters.
type GeneralConfig struct {
	Name            string  `json:"name" yaml:"name"`
	Symbol          string  `json:"symbol" yaml:"symbol"`
	InitialBalance  float64 `json:"initial_balance" yaml:"initial_balance"`
	AccountCurrency string  `json:"account_currency" yaml:"account_currency"`
	Leverage        int     `json:"leverage" yaml:"leverage"`
}

// SymbolInfo describes the traded instrument's contract terms.
type SymbolInfo struct {
	Asset            string  `json:"asset" yaml:"asset"`
	Base             string  `json:"base" yaml:"base"`
	DecimalPlaces    int     `json:"decimal_places" yaml:"decimal_places"`
	PointValue       float64 `json:"point_value" yaml:"point_value"`
	ContractSize     float64 `json:"contract_size" yaml:"contract_size"`
	MinLotSize       float64 `json:"min_lot_size" yaml:"min_lot_size"`
	MaxLotSize       float64 `json:"max_lot_size" yaml:"max_lot_size"`
	LotSizeStep      float64 `json:"lot_size_step" yaml:"lot_size_step"`
	CommissionPerLot float64 `json:"commission_per_lot" yaml:"commission_per_lot"`
	CommissionBase   string  `json:"commission_base" yaml:"commission_base"`
}

// StopKind selects how a stop-loss or take-profit price is derived.
type StopKind string

const (
	StopPoints   StopKind = "points"
	StopPercent  StopKind = "percent"
	StopExtremum StopKind = "extremum"
	StopATR      StopKind = "atr"
)

// StopConfig is a tagged variant: exactly the fields for Kind are read,
// the rest are ignored. Validated once at load time.
type StopConfig struct {
	Kind StopKind `json:"kind" yaml:"kind"`

	Points        float64 `json:"points,omitempty" yaml:"points,omitempty"`
	Percent       float64 `json:"percent,omitempty" yaml:"percent,omitempty"`
	Lookback      int     `json:"lookback,omitempty" yaml:"lookback,omitempty"`
	ATRPeriod     int     `json:"atr_period,omitempty" yaml:"atr_period,omitempty"`
	ATRMultiplier float64 `json:"atr_multiplier,omitempty" yaml:"atr_multiplier,omitempty"`
}

func (s StopConfig) validate(name string) error {
	switch s.Kind {
	case StopPoints:
		if s.Points <= 0 {
			return fmt.Errorf("%s: points must be positive", name)
		}
	case StopPercent:
		if s.Percent <= 0 {
			return fmt.Errorf("%s: percent must be positive", name)
		}
	case StopExtremum:
		if s.Lookback <= 0 {
			return fmt.Errorf("%s: lookback must be positive", name)
		}
	case StopATR:
		if s.ATRPeriod <= 0 || s.ATRMultiplier <= 0 {
			return fmt.Errorf("%s: atr_period and atr_multiplier must be positive", name)
		}
	default:
		return fmt.Errorf("%s: unknown kind %q", name, s.Kind)
	}
	return nil
}

// TrailingKind selects how the trailing distance and activation level are
// expressed.
type TrailingKind string

const (
	TrailingPoints  TrailingKind = "points"
	TrailingPercent TrailingKind = "percent"
)

// TrailingConfig configures the optional trailing stop. The stop only
// begins adjusting once unrealized profit exceeds the activation level.
type TrailingConfig struct {
	Kind TrailingKind `json:"kind" yaml:"kind"`

	ActivationPoints  float64 `json:"activation_points,omitempty" yaml:"activation_points,omitempty"`
	ActivationPercent float64 `json:"activation_percent,omitempty" yaml:"activation_percent,omitempty"`
	DistancePoints    float64 `json:"distance_points,omitempty" yaml:"distance_points,omitempty"`
	DistancePercent   float64 `json:"distance_percent,omitempty" yaml:"distance_percent,omitempty"`
}

func (tc TrailingConfig) validate() error {
	switch tc.Kind {
	case TrailingPoints:
		if tc.ActivationPoints <= 0 || tc.DistancePoints <= 0 {
			return fmt.Errorf("trailing_stop: activation_points and distance_points must be positive")
		}
	case TrailingPercent:
		if tc.ActivationPercent <= 0 || tc.DistancePercent <= 0 {
			return fmt.Errorf("trailing_stop: activation_percent and distance_percent must be positive")
		}
	default:
		return fmt.Errorf("trailing_stop: unknown kind %q", tc.Kind)
	}
	return nil
}

// StrategyConfig contains the trading rules applied every step.
type StrategyConfig struct {
	Timeframe    market.Timeframe `json:"timeframe" yaml:"timeframe"`
	RiskPerTrade float64          `json:"risk_per_trade" yaml:"risk_per_trade"`

	MaximumTradesPerDay            int     `json:"maximum_trades_per_day,omitempty" yaml:"maximum_trades_per_day,omitempty"`
	MaximumSpread                  float64 `json:"maximum_spread,omitempty" yaml:"maximum_spread,omitempty"`
	MinimumTradeDuration           int     `json:"minimum_trade_duration,omitempty" yaml:"minimum_trade_duration,omitempty"`
	MaximumTradeDuration           int     `json:"maximum_trade_duration,omitempty" yaml:"maximum_trade_duration,omitempty"`
	MinimumDurationBeforeNextTrade int     `json:"minimum_duration_before_next_trade,omitempty" yaml:"minimum_duration_before_next_trade,omitempty"`

	CanCloseTrade     *bool `json:"can_close_trade,omitempty" yaml:"can_close_trade,omitempty"`
	CanOpenLongTrade  *bool `json:"can_open_long_trade,omitempty" yaml:"can_open_long_trade,omitempty"`
	CanOpenShortTrade *bool `json:"can_open_short_trade,omitempty" yaml:"can_open_short_trade,omitempty"`

	StopLoss     StopConfig      `json:"stop_loss" yaml:"stop_loss"`
	TakeProfit   StopConfig      `json:"take_profit" yaml:"take_profit"`
	TrailingStop *TrailingConfig `json:"trailing_stop,omitempty" yaml:"trailing_stop,omitempty"`
	Schedule     *Schedule       `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

// TrainingConfig contains the date ranges and death thresholds applied by
// the trainer loop.
type TrainingConfig struct {
	Generations int `json:"generations" yaml:"generations"`

	// BadTraderThreshold is an absolute balance below which the trader dies.
	BadTraderThreshold *float64 `json:"bad_trader_threshold,omitempty" yaml:"bad_trader_threshold,omitempty"`
	// InactiveTraderThreshold is the number of bars without a trade after
	// which the trader dies.
	InactiveTraderThreshold *int `json:"inactive_trader_threshold,omitempty" yaml:"inactive_trader_threshold,omitempty"`

	TrainingStart time.Time `json:"training_start" yaml:"training_start"`
	TrainingEnd   time.Time `json:"training_end" yaml:"training_end"`
	TestStart     time.Time `json:"test_start" yaml:"test_start"`
	TestEnd       time.Time `json:"test_end" yaml:"test_end"`

	// DecisionThreshold forces a hold when the strongest decision output
	// falls below it.
	DecisionThreshold float64 `json:"decision_threshold,omitempty" yaml:"decision_threshold,omitempty"`
}

// EvaluationConfig holds the optional constraints applied when scoring a
// run. An absent constraint contributes no penalty.
type EvaluationConfig struct {
	MaximizeNbTrades       *bool    `json:"maximize_nb_trades,omitempty" yaml:"maximize_nb_trades,omitempty"`
	MinimumNbTrades        *int     `json:"minimum_nb_trades,omitempty" yaml:"minimum_nb_trades,omitempty"`
	MaximumTradeDuration   *int     `json:"maximum_trade_duration,omitempty" yaml:"maximum_trade_duration,omitempty"`
	ExpectedReturnPerDay   *float64 `json:"expected_return_per_day,omitempty" yaml:"expected_return_per_day,omitempty"`
	ExpectedReturnPerMonth *float64 `json:"expected_return_per_month,omitempty" yaml:"expected_return_per_month,omitempty"`
	ExpectedReturn         *float64 `json:"expected_return,omitempty" yaml:"expected_return,omitempty"`
	MaximumDrawdown        *float64 `json:"maximum_drawdown,omitempty" yaml:"maximum_drawdown,omitempty"`
	MinimumWinRate         *float64 `json:"minimum_win_rate,omitempty" yaml:"minimum_win_rate,omitempty"`
	MinimumProfitFactor    *float64 `json:"minimum_profit_factor,omitempty" yaml:"minimum_profit_factor,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON) and
// validates it.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.General.Symbol == "" {
		return fmt.Errorf("general.symbol is required")
	}
	if c.General.InitialBalance <= 0 {
		return fmt.Errorf("general.initial_balance must be positive")
	}
	if c.General.AccountCurrency == "" {
		return fmt.Errorf("general.account_currency is required")
	}
	if c.General.Leverage < 1 {
		return fmt.Errorf("general.leverage must be at least 1")
	}
	if c.Symbol.PointValue <= 0 {
		return fmt.Errorf("symbol.point_value must be positive")
	}
	if c.Symbol.ContractSize <= 0 {
		return fmt.Errorf("symbol.contract_size must be positive")
	}
	if c.Symbol.MinLotSize <= 0 || c.Symbol.MaxLotSize < c.Symbol.MinLotSize {
		return fmt.Errorf("symbol lot sizes are inconsistent")
	}
	if c.Symbol.LotSizeStep <= 0 {
		return fmt.Errorf("symbol.lot_size_step must be positive")
	}
	if c.Symbol.CommissionPerLot < 0 {
		return fmt.Errorf("symbol.commission_per_lot must not be negative")
	}
	if !c.Strategy.Timeframe.Valid() {
		return fmt.Errorf("strategy.timeframe %q is unknown", c.Strategy.Timeframe)
	}
	if c.Strategy.RiskPerTrade <= 0 || c.Strategy.RiskPerTrade > 1 {
		return fmt.Errorf("strategy.risk_per_trade must be between 0 and 1")
	}
	if err := c.Strategy.StopLoss.validate("strategy.stop_loss"); err != nil {
		return err
	}
	if err := c.Strategy.TakeProfit.validate("strategy.take_profit"); err != nil {
		return err
	}
	if c.Strategy.TrailingStop != nil {
		if err := c.Strategy.TrailingStop.validate(); err != nil {
			return err
		}
	}
	if c.Strategy.Schedule != nil {
		if err := c.Strategy.Schedule.validate(); err != nil {
			return err
		}
	}
	if c.Strategy.MinimumTradeDuration > 0 && c.Strategy.MaximumTradeDuration > 0 &&
		c.Strategy.MinimumTradeDuration > c.Strategy.MaximumTradeDuration {
		return fmt.Errorf("strategy.minimum_trade_duration exceeds maximum_trade_duration")
	}
	if !c.Training.TrainingStart.IsZero() && !c.Training.TrainingEnd.IsZero() &&
		!c.Training.TrainingStart.Before(c.Training.TrainingEnd) {
		return fmt.Errorf("training.training_start must precede training_end")
	}
	return nil
}

// CanOpenLong reports whether the strategy permits opening long positions
// (defaults to true when unset).
func (s StrategyConfig) CanOpenLong() bool { return boolOr(s.CanOpenLongTrade, true) }

// CanOpenShort reports whether the strategy permits opening short
// positions (defaults to true when unset).
func (s StrategyConfig) CanOpenShort() bool { return boolOr(s.CanOpenShortTrade, true) }

// CanClose reports whether the strategy permits decision-driven closes
// (defaults to true when unset).
func (s StrategyConfig) CanClose() bool { return boolOr(s.CanCloseTrade, true) }

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// Default returns a configuration with sensible defaults, useful for
// tests and the CLI demo paths.
func Default() *Config {
	return &Config{
		General: GeneralConfig{
			Name:            "default",
			Symbol:          "EURUSD",
			InitialBalance:  10000,
			AccountCurrency: "USD",
			Leverage:        30,
		},
		Symbol: SymbolInfo{
			Asset:            "EUR",
			Base:             "USD",
			DecimalPlaces:    5,
			PointValue:       0.0001,
			ContractSize:     100000,
			MinLotSize:       0.01,
			MaxLotSize:       100,
			LotSizeStep:      0.01,
			CommissionPerLot: 3,
			CommissionBase:   "USD",
		},
		Strategy: StrategyConfig{
			Timeframe:    market.H1,
			RiskPerTrade: 0.02,
			StopLoss:     StopConfig{Kind: StopPoints, Points: 50},
			TakeProfit:   StopConfig{Kind: StopPoints, Points: 100},
		},
		Training: TrainingConfig{
			Generations:       1,
			DecisionThreshold: 0.5,
		},
	}
}
