package tuning

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	// MaxRounds caps a run; 0 runs until the fixed point.
	MaxRounds int `yaml:"max_rounds" json:"max_rounds"`
	// MetricRounds is when the empty-tile metric is sampled; 0 disables it.
	MetricRounds    int `yaml:"metric_rounds" json:"metric_rounds"`
	RoundsPerSecond int `yaml:"rounds_per_second" json:"rounds_per_second"`

	AgentSymbol string `yaml:"agent_symbol" json:"agent_symbol"`
	EmptySymbol string `yaml:"empty_symbol" json:"empty_symbol"`

	Observer Observer `yaml:"observer" json:"observer"`
}

type Observer struct {
	// Linger keeps the observer endpoints up after the run, in milliseconds.
	LingerMs   int `yaml:"linger_ms" json:"linger_ms"`
	SessionBuf int `yaml:"session_buffer" json:"session_buffer"`
}

func Defaults() Tuning {
	return Tuning{
		MetricRounds: 10,
		AgentSymbol:  "#",
		EmptySymbol:  ".",
		Observer: Observer{
			SessionBuf: 64,
		},
	}
}

// Load reads a yaml file over Defaults, so omitted keys keep their default.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	var errs []error
	if t.MaxRounds < 0 {
		errs = append(errs, fmt.Errorf("max_rounds must be >= 0, got %d", t.MaxRounds))
	}
	if t.MetricRounds < 0 {
		errs = append(errs, fmt.Errorf("metric_rounds must be >= 0, got %d", t.MetricRounds))
	}
	if t.RoundsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("rounds_per_second must be >= 0, got %d", t.RoundsPerSecond))
	}
	if utf8.RuneCountInString(t.AgentSymbol) != 1 {
		errs = append(errs, fmt.Errorf("agent_symbol must be one character, got %q", t.AgentSymbol))
	}
	if utf8.RuneCountInString(t.EmptySymbol) != 1 {
		errs = append(errs, fmt.Errorf("empty_symbol must be one character, got %q", t.EmptySymbol))
	}
	if t.AgentSymbol == t.EmptySymbol {
		errs = append(errs, fmt.Errorf("agent_symbol and empty_symbol must differ"))
	}
	if t.Observer.SessionBuf <= 0 {
		errs = append(errs, fmt.Errorf("observer.session_buffer must be > 0"))
	}
	return errors.Join(errs...)
}

// Symbols returns the layout runes. Call only on a validated Tuning.
func (t Tuning) Symbols() (agent, empty rune) {
	agent, _ = utf8.DecodeRuneInString(t.AgentSymbol)
	empty, _ = utf8.DecodeRuneInString(t.EmptySymbol)
	return agent, empty
}
