package builtin

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stepwise/stepwise/engine/core"
	"github.com/stepwise/stepwise/engine/expr"
)

// Format implements core.format: type selects one of date/number/currency/
// string/json, each with its own optional parameters.
func Format(rawInputs map[string]any, env expr.Env) (map[string]any, error) {
	value, err := resolveBareValue(rawInputs["value"], env)
	if err != nil {
		return nil, err
	}
	typ, _ := stringParam(rawInputs, "type")

	var out string
	switch typ {
	case "date":
		out, err = formatDate(value, rawInputs)
	case "number":
		out, err = formatNumberValue(value, rawInputs)
	case "currency":
		out, err = formatCurrency(value, rawInputs)
	case "string":
		out, err = formatString(value, rawInputs)
	case "json":
		out, err = formatJSON(value)
	default:
		return nil, core.NewError(
			fmt.Errorf("core.format: unknown type %q", typ),
			core.CodeUnknownOperation,
			map[string]any{"type": typ},
		)
	}
	if err != nil {
		return nil, err
	}
	return map[string]any{"result": out}, nil
}

// dateTokenOrder translates the spec's minimum date-pattern tokens into
// Go's reference-time layout.
var dateTokenOrder = []struct{ token, layout string }{
	{"YYYY", "2006"}, {"MM", "01"}, {"DD", "02"},
	{"HH", "15"}, {"mm", "04"}, {"ss", "05"},
}

func translateDateLayout(pattern string) string {
	out := pattern
	for _, t := range dateTokenOrder {
		out = strings.ReplaceAll(out, t.token, t.layout)
	}
	return out
}

func formatDate(value expr.Value, params map[string]any) (string, error) {
	pattern, ok := stringParam(params, "format")
	if !ok {
		pattern = "YYYY-MM-DD"
	}
	var t time.Time
	switch value.Kind() {
	case expr.KindString:
		parsed, err := time.Parse(time.RFC3339, value.AsString())
		if err != nil {
			return "", core.NewError(fmt.Errorf("core.format date: %w", err), core.CodeTypeError, nil)
		}
		t = parsed
	case expr.KindNumber:
		t = time.Unix(int64(value.AsNumber()), 0).UTC()
	default:
		return "", core.NewError(fmt.Errorf("core.format date: value must be a timestamp string or epoch number"), core.CodeTypeError, nil)
	}
	return t.UTC().Format(translateDateLayout(pattern)), nil
}

func formatNumberValue(value expr.Value, params map[string]any) (string, error) {
	if value.Kind() != expr.KindNumber {
		return "", core.NewError(fmt.Errorf("core.format number: value must be a number"), core.CodeTypeError, nil)
	}
	precision := 2
	if p, ok := params["precision"]; ok {
		if pf, ok := p.(float64); ok {
			precision = int(pf)
		}
	}
	return strconv.FormatFloat(value.AsNumber(), 'f', precision, 64), nil
}

// currencySymbols covers the common ISO 4217 codes a workflow is likely to
// format; anything else falls back to a "<CODE> " prefix.
var currencySymbols = map[string]string{
	"USD": "$", "EUR": "€", "GBP": "£", "JPY": "¥",
}

func formatCurrency(value expr.Value, params map[string]any) (string, error) {
	if value.Kind() != expr.KindNumber {
		return "", core.NewError(fmt.Errorf("core.format currency: value must be a number"), core.CodeTypeError, nil)
	}
	code, ok := stringParam(params, "currency")
	if !ok {
		code = "USD"
	}
	d := decimal.NewFromFloat(value.AsNumber()).Round(2)
	symbol, known := currencySymbols[code]
	if !known {
		return fmt.Sprintf("%s %s", code, d.StringFixed(2)), nil
	}
	return symbol + d.StringFixed(2), nil
}

func formatString(value expr.Value, params map[string]any) (string, error) {
	s := value.String()
	mode, _ := stringParam(params, "format")
	switch mode {
	case "upper":
		return strings.ToUpper(s), nil
	case "lower":
		return strings.ToLower(s), nil
	case "title":
		return strings.Title(s), nil //nolint:staticcheck // matches the engine's sprig-backed title filter
	case "capitalize":
		if s == "" {
			return s, nil
		}
		return strings.ToUpper(s[:1]) + s[1:], nil
	case "trim":
		return strings.TrimSpace(s), nil
	default:
		return s, nil
	}
}

func formatJSON(value expr.Value) (string, error) {
	b, err := json.MarshalIndent(value.ToGo(), "", "  ")
	if err != nil {
		return "", core.NewError(fmt.Errorf("core.format json: %w", err), core.CodeTypeError, nil)
	}
	return string(b), nil
}
