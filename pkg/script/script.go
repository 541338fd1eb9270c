// Package script loads order-intent scripts and replays them against a book.
package script

import (
	"errors"
	"fmt"
	"os"

	"github.com/joripage/lazybook/pkg/orderbook"
	"gopkg.in/yaml.v3"
)

var ErrInvalidStep = errors.New("invalid script step")

type Op string

const (
	OpAdd      Op = "add"
	OpCancel   Op = "cancel"
	OpAmend    Op = "amend"
	OpMatch    Op = "match"
	OpSnapshot Op = "snapshot"
)

// Step is one order intent. Price and Qty are optional for amend, where zero
// keeps the current value. Depth is only read by snapshot.
type Step struct {
	Op    Op      `yaml:"op"`
	ID    string  `yaml:"id,omitempty"`
	Side  string  `yaml:"side,omitempty"`
	Price float64 `yaml:"price,omitempty"`
	Qty   int64   `yaml:"qty,omitempty"`
	Depth int     `yaml:"depth,omitempty"`
}

type Script struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

func Load(path string) (*Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func Parse(b []byte) (*Script, error) {
	s := &Script{}
	if err := yaml.Unmarshal(b, s); err != nil {
		return nil, err
	}
	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return s, nil
}

// side maps the script spelling onto the book's side.
func (s Step) side() orderbook.Side {
	switch s.Side {
	case "buy", "BUY":
		return orderbook.BUY
	case "sell", "SELL":
		return orderbook.SELL
	default:
		return orderbook.Side(s.Side)
	}
}

// validate checks the shape of a step. Value ranges are left to the book so
// that rejected intents can be replayed on purpose.
func (s Step) validate() error {
	switch s.Op {
	case OpAdd:
		if s.ID == "" || s.Side == "" {
			return fmt.Errorf("%w: add needs id and side", ErrInvalidStep)
		}
	case OpCancel:
		if s.ID == "" {
			return fmt.Errorf("%w: cancel needs id", ErrInvalidStep)
		}
	case OpAmend:
		if s.ID == "" {
			return fmt.Errorf("%w: amend needs id", ErrInvalidStep)
		}
		if s.Price == 0 && s.Qty == 0 {
			return fmt.Errorf("%w: amend needs price or qty", ErrInvalidStep)
		}
	case OpMatch, OpSnapshot:
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidStep, s.Op)
	}
	return nil
}
