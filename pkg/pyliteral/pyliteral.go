// Package pyliteral decodes Python literal expressions into Go values.
//
// The Toucan dataset stores tool invocations as the Python repr of a dict,
// e.g. {'name': 'get_weather', 'arguments': '{"city": "Paris"}'}, so the
// payload is not JSON and needs its own decoder. The grammar covered is the
// literal subset Python's ast.literal_eval accepts: dicts, lists, tuples,
// sets, strings in either quote style with escape sequences, integers,
// floats, True, False and None.
//
// Mapping: dict -> map[string]any, list/tuple/set -> []any, str -> string,
// int -> int64, float -> float64, True/False -> bool, None -> nil. Dict
// keys must be strings.
package pyliteral

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Decode parses a single Python literal from input. Trailing content after
// the literal is an error.
func Decode(input string) (any, error) {
	d := &decoder{src: input}
	d.skipSpace()
	value, err := d.value()
	if err != nil {
		return nil, err
	}
	d.skipSpace()
	if d.pos < len(d.src) {
		return nil, d.errorf("trailing content after literal")
	}
	return value, nil
}

// DecodeDict parses input and requires the result to be a dict.
func DecodeDict(input string) (map[string]any, error) {
	value, err := Decode(input)
	if err != nil {
		return nil, err
	}
	dict, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a dict literal, got %T", value)
	}
	return dict, nil
}

type decoder struct {
	src string
	pos int
}

func (d *decoder) errorf(format string, args ...any) error {
	return fmt.Errorf(format+" at offset %d", append(args, d.pos)...)
}

func (d *decoder) skipSpace() {
	for d.pos < len(d.src) {
		switch d.src[d.pos] {
		case ' ', '\t', '\n', '\r':
			d.pos++
		default:
			return
		}
	}
}

func (d *decoder) peek() (byte, bool) {
	if d.pos >= len(d.src) {
		return 0, false
	}
	return d.src[d.pos], true
}

func (d *decoder) value() (any, error) {
	c, ok := d.peek()
	if !ok {
		return nil, d.errorf("unexpected end of input")
	}
	switch {
	case c == '{':
		return d.dictOrSet()
	case c == '[':
		return d.list()
	case c == '(':
		return d.tuple()
	case c == '\'' || c == '"':
		return d.string()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return d.number()
	case isNameStart(c):
		return d.name()
	default:
		return nil, d.errorf("unexpected character %q", c)
	}
}

// dictOrSet parses either a dict or a set literal; both open with '{' and
// only the token after the first element tells them apart. An empty {} is a
// dict, as in Python.
func (d *decoder) dictOrSet() (any, error) {
	d.pos++ // consume '{'
	d.skipSpace()
	if c, ok := d.peek(); ok && c == '}' {
		d.pos++
		return map[string]any{}, nil
	}

	first, err := d.value()
	if err != nil {
		return nil, err
	}
	d.skipSpace()
	c, ok := d.peek()
	if !ok {
		return nil, d.errorf("unexpected end of input in dict")
	}
	if c == ':' {
		return d.dictRest(first)
	}
	return d.setRest(first)
}

func (d *decoder) dictRest(firstKey any) (map[string]any, error) {
	dict := map[string]any{}
	key := firstKey
	for {
		name, ok := key.(string)
		if !ok {
			return nil, d.errorf("dict key must be a string, got %T", key)
		}
		d.pos++ // consume ':'
		d.skipSpace()
		value, err := d.value()
		if err != nil {
			return nil, err
		}
		dict[name] = value
		d.skipSpace()
		c, ok := d.peek()
		if !ok {
			return nil, d.errorf("unexpected end of input in dict")
		}
		switch c {
		case '}':
			d.pos++
			return dict, nil
		case ',':
			d.pos++
			d.skipSpace()
			if c, ok := d.peek(); ok && c == '}' {
				d.pos++
				return dict, nil
			}
			key, err = d.value()
			if err != nil {
				return nil, err
			}
			d.skipSpace()
			if c, ok := d.peek(); !ok || c != ':' {
				return nil, d.errorf("expected ':' in dict")
			}
		default:
			return nil, d.errorf("expected ',' or '}' in dict, got %q", c)
		}
	}
}

func (d *decoder) setRest(first any) ([]any, error) {
	items := []any{first}
	for {
		d.skipSpace()
		c, ok := d.peek()
		if !ok {
			return nil, d.errorf("unexpected end of input in set")
		}
		switch c {
		case '}':
			d.pos++
			return items, nil
		case ',':
			d.pos++
			d.skipSpace()
			if c, ok := d.peek(); ok && c == '}' {
				d.pos++
				return items, nil
			}
			item, err := d.value()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		default:
			return nil, d.errorf("expected ',' or '}' in set, got %q", c)
		}
	}
}

func (d *decoder) list() ([]any, error) {
	d.pos++ // consume '['
	items := []any{}
	for {
		d.skipSpace()
		c, ok := d.peek()
		if !ok {
			return nil, d.errorf("unexpected end of input in list")
		}
		if c == ']' {
			d.pos++
			return items, nil
		}
		if len(items) > 0 {
			if c != ',' {
				return nil, d.errorf("expected ',' or ']' in list, got %q", c)
			}
			d.pos++
			d.skipSpace()
			if c, ok := d.peek(); ok && c == ']' {
				d.pos++
				return items, nil
			}
		}
		item, err := d.value()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

// tuple parses a parenthesized expression. As in Python, () is an empty
// tuple, (x) is just x, and a comma makes it a tuple proper.
func (d *decoder) tuple() (any, error) {
	d.pos++ // consume '('
	d.skipSpace()
	if c, ok := d.peek(); ok && c == ')' {
		d.pos++
		return []any{}, nil
	}

	first, err := d.value()
	if err != nil {
		return nil, err
	}
	d.skipSpace()
	c, ok := d.peek()
	if !ok {
		return nil, d.errorf("unexpected end of input in tuple")
	}
	if c == ')' {
		d.pos++
		return first, nil
	}
	if c != ',' {
		return nil, d.errorf("expected ',' or ')' in tuple, got %q", c)
	}

	items := []any{first}
	for {
		d.pos++ // consume ','
		d.skipSpace()
		c, ok := d.peek()
		if !ok {
			return nil, d.errorf("unexpected end of input in tuple")
		}
		if c == ')' {
			d.pos++
			return items, nil
		}
		item, err := d.value()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		d.skipSpace()
		c, ok = d.peek()
		if !ok {
			return nil, d.errorf("unexpected end of input in tuple")
		}
		if c == ')' {
			d.pos++
			return items, nil
		}
		if c != ',' {
			return nil, d.errorf("expected ',' or ')' in tuple, got %q", c)
		}
	}
}

func (d *decoder) string() (string, error) {
	quote := d.src[d.pos]
	d.pos++
	var b strings.Builder
	for {
		if d.pos >= len(d.src) {
			return "", d.errorf("unterminated string")
		}
		c := d.src[d.pos]
		switch c {
		case quote:
			d.pos++
			return b.String(), nil
		case '\n', '\r':
			return "", d.errorf("newline in string literal")
		case '\\':
			d.pos++
			if err := d.escape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteByte(c)
			d.pos++
		}
	}
}

// escape decodes the sequence following a backslash. Unrecognized escapes
// keep the backslash and the following character, matching Python.
func (d *decoder) escape(b *strings.Builder) error {
	if d.pos >= len(d.src) {
		return d.errorf("unterminated string")
	}
	c := d.src[d.pos]
	d.pos++
	switch c {
	case '\\', '\'', '"':
		b.WriteByte(c)
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'a':
		b.WriteByte('\a')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '\n':
		// Line continuation, both characters vanish.
	case 'x':
		return d.hexEscape(b, 2)
	case 'u':
		return d.hexEscape(b, 4)
	case 'U':
		return d.hexEscape(b, 8)
	case '0', '1', '2', '3', '4', '5', '6', '7':
		d.pos--
		return d.octalEscape(b)
	default:
		b.WriteByte('\\')
		b.WriteByte(c)
	}
	return nil
}

func (d *decoder) hexEscape(b *strings.Builder, digits int) error {
	if d.pos+digits > len(d.src) {
		return d.errorf("truncated escape sequence")
	}
	value, err := strconv.ParseUint(d.src[d.pos:d.pos+digits], 16, 32)
	if err != nil {
		return d.errorf("invalid escape sequence")
	}
	if value > utf8.MaxRune {
		return d.errorf("escape sequence out of range")
	}
	b.WriteRune(rune(value))
	d.pos += digits
	return nil
}

func (d *decoder) octalEscape(b *strings.Builder) error {
	value := 0
	for i := 0; i < 3 && d.pos < len(d.src); i++ {
		c := d.src[d.pos]
		if c < '0' || c > '7' {
			break
		}
		value = value*8 + int(c-'0')
		d.pos++
	}
	b.WriteRune(rune(value))
	return nil
}

func (d *decoder) number() (any, error) {
	start := d.pos
	if c, ok := d.peek(); ok && (c == '-' || c == '+') {
		d.pos++
	}
	isHex := strings.HasPrefix(d.src[d.pos:], "0x") || strings.HasPrefix(d.src[d.pos:], "0X") ||
		strings.HasPrefix(d.src[d.pos:], "0o") || strings.HasPrefix(d.src[d.pos:], "0O") ||
		strings.HasPrefix(d.src[d.pos:], "0b") || strings.HasPrefix(d.src[d.pos:], "0B")
	isFloat := false
	for d.pos < len(d.src) {
		c := d.src[d.pos]
		switch {
		case c >= '0' && c <= '9' || c == '_':
			d.pos++
		case isHex && (c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F' || c == 'x' || c == 'X' || c == 'o' || c == 'O'):
			d.pos++
		case !isHex && c == '.':
			isFloat = true
			d.pos++
		case !isHex && (c == 'e' || c == 'E'):
			isFloat = true
			d.pos++
			if c, ok := d.peek(); ok && (c == '-' || c == '+') {
				d.pos++
			}
		default:
			goto done
		}
	}
done:
	token := d.src[start:d.pos]
	if token == "" || token == "-" || token == "+" {
		return nil, d.errorf("invalid number")
	}
	if isFloat {
		value, err := strconv.ParseFloat(strings.ReplaceAll(token, "_", ""), 64)
		if err != nil {
			return nil, d.errorf("invalid number %q", token)
		}
		return value, nil
	}
	value, err := strconv.ParseInt(token, 0, 64)
	if err != nil {
		// Out-of-range integers fall back to float, everything else is a
		// malformed token.
		if fvalue, ferr := strconv.ParseFloat(strings.ReplaceAll(token, "_", ""), 64); ferr == nil {
			return fvalue, nil
		}
		return nil, d.errorf("invalid number %q", token)
	}
	return value, nil
}

func (d *decoder) name() (any, error) {
	start := d.pos
	for d.pos < len(d.src) && isNameChar(d.src[d.pos]) {
		d.pos++
	}
	switch d.src[start:d.pos] {
	case "True":
		return true, nil
	case "False":
		return false, nil
	case "None":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown identifier %q at offset %d", d.src[start:d.pos], start)
	}
}

func isNameStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isNameChar(c byte) bool {
	return isNameStart(c) || c >= '0' && c <= '9'
}
