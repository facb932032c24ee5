// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

package sunweg

import (
	"encoding/json"
	"strconv"
	"strings"
)

// currencyPrefixes are stripped before a monetary value is parsed.
var currencyPrefixes = []string{"R$", "$", "€", "£"}

// Numeric extracts a float from a platform value.  The platform mixes
// plain numbers with display strings like "11.72 MWh" or "R$ 1.234,56",
// using a comma as the decimal separator and a dot as the thousands
// separator.  When a unit suffix is present and a multiplier table is
// given, the result is converted accordingly.  The second return is
// false when the value cannot be parsed.
func Numeric(value any, multipliers map[string]float64) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		return numericString(v, multipliers)
	}
	return 0, false
}

func numericString(s string, multipliers map[string]float64) (float64, bool) {
	cleaned := s
	for _, prefix := range currencyPrefixes {
		cleaned = strings.TrimPrefix(cleaned, prefix)
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, false
	}

	parts := strings.Fields(cleaned)
	number, ok := decimal(parts[0])
	if !ok {
		return 0, false
	}

	if len(parts) > 1 && multipliers != nil {
		if multiplier, ok := multipliers[parts[1]]; ok {
			return number * multiplier, true
		}
	}

	return number, true
}

// decimal parses a Brazilian formatted number: "1.234,56" means one
// thousand and some.  A plain "11.72" is also accepted since the
// platform is not consistent about it.
func decimal(s string) (float64, bool) {
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
