package gcode

import (
	"math"
	"strconv"
	"strings"
)

// Instruction is one tokenized source line.
type Instruction struct {
	// Fields maps an upper case word letter to its value, e.g. 'X' -> 10.
	Fields map[byte]float64

	// HasHint is set when the comment carried a "type:" directive.
	HasHint bool
	Hint    FeatureType
	// HintName is the directive text as written, lower cased.
	HintName string
}

func (in Instruction) Field(letter byte) (float64, bool) {
	v, ok := in.Fields[letter]
	return v, ok
}

// Empty reports whether the line carried neither words nor a hint.
func (in Instruction) Empty() bool {
	return len(in.Fields) == 0 && !in.HasHint
}

const hintDirective = "type:"

// Tokenize converts one line into an Instruction. It never fails: words that
// don't parse are dropped.
func Tokenize(line string) Instruction {
	in := Instruction{}

	code := line
	if i := strings.IndexByte(line, ';'); i >= 0 {
		code = line[:i]
		comment := strings.ToLower(line[i+1:])
		if j := strings.Index(comment, hintDirective); j >= 0 {
			in.HasHint = true
			in.HintName = strings.TrimSpace(comment[j+len(hintDirective):])
			in.Hint = classifyHint(in.HintName)
		}
	}
	code = stripParens(code)

	for _, token := range strings.Fields(code) {
		if letter, value, ok := parseWord(token); ok {
			in.set(letter, value)
			continue
		}
		// A lone word whose number is out of range or not finite is dropped
		// whole. Splitting it would read an exponent as an E word.
		if isLetter(token[0]) && isNumeric(token[1:]) {
			continue
		}
		// G1X10Y5E.2
		words, ok := splitCompact(token)
		if !ok {
			continue
		}
		for _, w := range words {
			in.set(w.letter, w.value)
		}
	}
	return in
}

func (in *Instruction) set(letter byte, value float64) {
	if in.Fields == nil {
		in.Fields = map[byte]float64{}
	}
	in.Fields[letter] = value
}

// stripParens removes ( ... ) comments. An unterminated one runs to the end
// of the line.
func stripParens(s string) string {
	if strings.IndexByte(s, '(') < 0 {
		return s
	}
	var b strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '(':
			depth++
			b.WriteByte(' ')
		case c == ')' && depth > 0:
			depth--
		case depth == 0:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func upper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

func isNumberByte(c byte) bool {
	return ('0' <= c && c <= '9') || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E'
}

// isNumeric reports whether s is non-empty and made only of bytes that can
// appear in a decimal number.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isNumberByte(s[i]) {
			return false
		}
	}
	return true
}

// parseNumber accepts plain decimal notation only; strconv would also take
// "inf", "nan" and hex floats.
func parseNumber(s string) (float64, bool) {
	if !isNumeric(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func parseWord(token string) (byte, float64, bool) {
	if len(token) < 2 || !isLetter(token[0]) {
		return 0, 0, false
	}
	v, ok := parseNumber(token[1:])
	if !ok {
		return 0, 0, false
	}
	return upper(token[0]), v, true
}

type word struct {
	letter byte
	value  float64
}

// splitCompact splits a token made entirely of letter+number words. Only
// tokens that failed parseWord get here, so "X1E5" is still X=100000 while
// "X1Y2E5" becomes three words.
func splitCompact(token string) ([]word, bool) {
	var words []word
	i := 0
	for i < len(token) {
		if !isLetter(token[i]) {
			return nil, false
		}
		j := i + 1
		for j < len(token) && !isLetter(token[j]) {
			j++
		}
		v, ok := parseNumber(token[i+1 : j])
		if !ok {
			return nil, false
		}
		words = append(words, word{letter: upper(token[i]), value: v})
		i = j
	}
	return words, len(words) > 1
}
