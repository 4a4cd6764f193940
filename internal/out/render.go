package out

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/ericvale0128/cronaswap-interfacev3/internal/config"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/model"
)

// Plain output colors keys and flags errors. fatih/color disables itself when
// stdout is not a terminal or NO_COLOR is set.
var (
	keyColor   = color.New(color.FgCyan).SprintFunc()
	errorColor = color.New(color.FgRed, color.Bold).SprintFunc()
	warnColor  = color.New(color.FgYellow).SprintFunc()
)

func Render(w io.Writer, env model.Envelope, settings config.Settings) error {
	data := env.Data
	if len(settings.SelectFields) > 0 {
		data = project(data, settings.SelectFields)
	}

	if settings.ResultsOnly {
		if settings.OutputMode == "json" {
			return encodeJSON(w, data)
		}
		return renderPlain(w, data)
	}

	if settings.OutputMode == "json" {
		env.Data = data
		return encodeJSON(w, env)
	}

	if env.Error != nil {
		if _, err := fmt.Fprintf(w, "%s %s (%s, code %d)\n", errorColor("error:"), env.Error.Message, env.Error.Type, env.Error.Code); err != nil {
			return err
		}
	}
	for _, warning := range env.Warnings {
		if _, err := fmt.Fprintf(w, "%s %s\n", warnColor("warning:"), warning); err != nil {
			return err
		}
	}
	if data == nil {
		return nil
	}
	return renderPlain(w, data)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderPlain(w io.Writer, data any) error {
	v := reflect.ValueOf(data)
	if !v.IsValid() {
		_, err := fmt.Fprintln(w, "null")
		return err
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			item := normalizeValue(v.Index(i).Interface())
			line, err := toLine(item)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		if v.Len() == 0 {
			_, err := fmt.Fprintln(w, "[]")
			return err
		}
		return nil
	default:
		line, err := toLine(normalizeValue(data))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, line)
		return err
	}
}

func project(data any, fields []string) any {
	n := normalizeValue(data)
	switch t := n.(type) {
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, projectMap(m, fields))
		}
		return out
	case map[string]any:
		return projectMap(t, fields)
	default:
		return n
	}
}

// projectMap keeps the listed fields. A dotted field such as "input.symbol"
// reaches into nested objects and is emitted under its full dotted name.
func projectMap(m map[string]any, fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := lookupPath(m, f); ok {
			out[f] = v
		}
	}
	return out
}

func lookupPath(m map[string]any, path string) (any, bool) {
	if v, ok := m[path]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(path, ".")
	if !found {
		return nil, false
	}
	child, ok := m[head].(map[string]any)
	if !ok {
		return nil, false
	}
	return lookupPath(child, rest)
}

func normalizeValue(v any) any {
	buf, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(buf, &out); err != nil {
		return v
	}
	return out
}

func toLine(v any) (string, error) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			value, err := scalar(t[k])
			if err != nil {
				return "", err
			}
			parts = append(parts, fmt.Sprintf("%s=%s", keyColor(k), value))
		}
		return strings.Join(parts, " "), nil
	default:
		return scalar(v)
	}
}

func scalar(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case nil:
		return "null", nil
	case bool, float64:
		return fmt.Sprint(t), nil
	default:
		buf, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(buf), nil
	}
}
