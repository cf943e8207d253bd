package config

import (
	"fmt"
	"strings"

	"budget/internal/core"

	"github.com/BurntSushi/toml"
)

// currencyFile is the layout of the currency seed file:
//
//	[[currency]]
//	code   = "USD"
//	name   = "US dollar"
//	symbol = "$"
//	rate   = "3.2150"
//
// Rates are strings so they reach decimal parsing without float rounding.
type currencyFile struct {
	Currency []struct {
		Code   string `toml:"code"`
		Name   string `toml:"name"`
		Symbol string `toml:"symbol"`
		Rate   string `toml:"rate"`
	} `toml:"currency"`
}

// LoadCurrencies reads and validates a currency seed file.
func LoadCurrencies(path string) ([]core.Currency, error) {
	var f currencyFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("decode %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	out := make([]core.Currency, 0, len(f.Currency))
	seen := make(map[string]bool, len(f.Currency))
	for i, entry := range f.Currency {
		rate, err := core.ParseRate(entry.Rate)
		if err != nil {
			return nil, fmt.Errorf("currency #%d (%s): %w", i+1, entry.Code, err)
		}
		c := core.Currency{
			Code:   strings.ToUpper(strings.TrimSpace(entry.Code)),
			Name:   strings.TrimSpace(entry.Name),
			Symbol: strings.TrimSpace(entry.Symbol),
			Rate:   rate,
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("currency #%d (%s): %w", i+1, entry.Code, err)
		}
		if seen[c.Code] {
			return nil, fmt.Errorf("currency %s listed twice", c.Code)
		}
		seen[c.Code] = true
		out = append(out, c)
	}
	return out, nil
}
