package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Price is a trip fare. Clients send it either as a number or as a string
// ("8000", "8.000", "$ 8000"); it is always written back as a number.
type Price float64

func (p *Price) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if s, ok := raw.(string); ok {
		raw = normalizePrice(s)
	}
	if raw == nil || raw == "" {
		*p = 0
		return nil
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return fmt.Errorf("invalid price %s: %w", string(b), err)
	}
	if !Price(f).Finite() {
		return fmt.Errorf("invalid price %s: not a finite number", string(b))
	}
	*p = Price(f)
	return nil
}

// Finite reports whether p is neither NaN nor infinite.
func (p Price) Finite() bool {
	f := float64(p)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func normalizePrice(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, " ", "")
	// a single comma with at most two digits after it is a decimal comma:
	// "8,5", "8.000,50"
	if i := strings.LastIndex(s, ","); i >= 0 && strings.Count(s, ",") == 1 && len(s)-i-1 <= 2 {
		return strings.ReplaceAll(s[:i], ".", "") + "." + s[i+1:]
	}
	// thousands separators
	if strings.Count(s, ".") > 1 || (strings.Contains(s, ".") && len(s)-strings.LastIndex(s, ".") == 4) {
		s = strings.ReplaceAll(s, ".", "")
	}
	return strings.ReplaceAll(s, ",", "")
}
