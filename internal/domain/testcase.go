package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/miderror/dev-mentor/internal/static/errs"
)

// Expected is the expected output of a test case: either text or a boolean.
type Expected struct {
	text   string
	isBool bool
	value  bool
}

// ExpectText builds a textual expectation.
func ExpectText(s string) Expected {
	return Expected{text: s}
}

// ExpectBool builds a boolean expectation.
func ExpectBool(b bool) Expected {
	return Expected{text: canonicalBool(b), isBool: true, value: b}
}

func (e Expected) IsBool() bool {
	return e.isBool
}

// Normalized is the form actual output is compared against.
// Booleans use their canonical spelling (True/False) instead of lower-case JSON.
func (e Expected) Normalized() string {
	if e.isBool {
		return canonicalBool(e.value)
	}
	return strings.TrimSpace(e.text)
}

func (e Expected) String() string {
	return e.Normalized()
}

func (e Expected) MarshalJSON() ([]byte, error) {
	if e.isBool {
		return json.Marshal(e.value)
	}
	return json.Marshal(e.text)
}

func (e *Expected) UnmarshalJSON(data []byte) error {
	text, isBool, value, err := scalarText(data)
	if err != nil {
		return fmt.Errorf("expected: %w", err)
	}
	*e = Expected{text: text, isBool: isBool, value: value}
	return nil
}

// TestCase is one input/expected pair of a task. Read-only to the grader.
type TestCase struct {
	Input    []string `json:"input"`
	Expected Expected `json:"expected"`
}

// Stdin joins the input lines the way the program receives them.
func (t TestCase) Stdin() string {
	return strings.Join(t.Input, "\n")
}

func (t *TestCase) UnmarshalJSON(data []byte) error {
	var raw struct {
		Input    []json.RawMessage `json:"input"`
		Expected *Expected         `json:"expected"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInvalidTestCase, err)
	}
	if raw.Expected == nil {
		return fmt.Errorf("%w: no expected value", errs.ErrInvalidTestCase)
	}

	input := make([]string, 0, len(raw.Input))
	for i, item := range raw.Input {
		text, _, _, err := scalarText(item)
		if err != nil {
			return fmt.Errorf("%w: input[%d]: %v", errs.ErrInvalidTestCase, i, err)
		}
		input = append(input, text)
	}

	t.Input = input
	t.Expected = *raw.Expected
	return nil
}

// TestSuite is the JSON document tasks store their tests in.
type TestSuite struct {
	Tests []TestCase `json:"tests"`
}

func canonicalBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// scalarText renders a JSON scalar as the text a program would print for it.
func scalarText(data []byte) (text string, isBool bool, value bool, err error) {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		return "", false, false, fmt.Errorf("empty value")
	case bytes.Equal(data, []byte("true")):
		return canonicalBool(true), true, true, nil
	case bytes.Equal(data, []byte("false")):
		return canonicalBool(false), true, false, nil
	case bytes.Equal(data, []byte("null")):
		return "None", false, false, nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", false, false, err
		}
		return s, false, false, nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return "", false, false, fmt.Errorf("unsupported value %s", data)
		}
		text, err := numberText(n.String())
		if err != nil {
			return "", false, false, err
		}
		return text, false, false, nil
	}
}

// numberText prints a JSON number the way a Python program prints the parsed value:
// integers exactly, floats in their shortest round-trip form (2.50 -> 2.5, 1e3 -> 1000.0).
func numberText(lit string) (string, error) {
	if !strings.ContainsAny(lit, ".eE") {
		i, ok := new(big.Int).SetString(lit, 10)
		if !ok {
			return "", fmt.Errorf("invalid integer %s", lit)
		}
		return i.String(), nil
	}

	f, err := strconv.ParseFloat(lit, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return "", fmt.Errorf("invalid number %s: %w", lit, err)
	}
	switch {
	case math.IsInf(f, 1):
		return "inf", nil
	case math.IsInf(f, -1):
		return "-inf", nil
	}

	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64), nil
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s, nil
}
