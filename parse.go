package thingtalk

import (
	"fmt"
	"strings"
)

// ParseType parses the string form of a ThingTalk type as it appears in
// Thingpedia signature metadata and serialized ASTs, e.g. "String",
// "Measure(ms)", "Entity(tt:username)", "Array(Number)", "Enum(on,off)",
// "(String,Number)".
func ParseType(s string) (Type, error) {
	p := &typeParser{input: s}
	typ, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("invalid type %q: trailing input at offset %d", s, p.pos)
	}
	return typ, nil
}

type typeParser struct {
	input string
	pos   int
}

func (p *typeParser) parse() (Type, error) {
	p.skipSpace()
	if p.peek() == '(' {
		return p.parseTuple()
	}
	name := p.ident()
	if name == "" {
		return nil, fmt.Errorf("invalid type %q: expected type name at offset %d", p.input, p.pos)
	}
	switch name {
	case "Any":
		return TypeAny, nil
	case "Boolean", "Bool":
		return TypeBoolean, nil
	case "String":
		return TypeString, nil
	case "Number":
		return TypeNumber, nil
	case "Date":
		return TypeDate, nil
	case "Time":
		return TypeTime, nil
	case "Location":
		return TypeLocation, nil
	case "Currency":
		return TypeCurrency, nil
	case "Table":
		return TypeTable, nil
	case "Stream":
		return TypeStream, nil
	case "Measure":
		unit, err := p.argString()
		if err != nil {
			return nil, err
		}
		if unit != "" && !IsUnit(unit) {
			return nil, fmt.Errorf("invalid type %q: unknown unit %q", p.input, unit)
		}
		return NewMeasure(unit), nil
	case "Entity":
		kind, err := p.argString()
		if err != nil {
			return nil, err
		}
		return NewEntity(kind), nil
	case "Enum":
		choices, err := p.argList()
		if err != nil {
			return nil, err
		}
		return &TypeEnum{Choices: choices}, nil
	case "Array":
		if err := p.expect('('); err != nil {
			return nil, err
		}
		elem, err := p.parse()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return NewArray(elem), nil
	default:
		return nil, fmt.Errorf("invalid type %q: unknown type name %q", p.input, name)
	}
}

func (p *typeParser) parseTuple() (Type, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	var elems []Type
	for {
		elem, err := p.parse()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		p.skipSpace()
		if p.peek() != ',' {
			break
		}
		p.pos++
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return &TypeTuple{Elems: elems}, nil
}

// argString parses "(text)" where text runs to the closing parenthesis.
func (p *typeParser) argString() (string, error) {
	if err := p.expect('('); err != nil {
		return "", err
	}
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] != ')' {
		p.pos++
	}
	text := strings.TrimSpace(p.input[start:p.pos])
	if err := p.expect(')'); err != nil {
		return "", err
	}
	return text, nil
}

func (p *typeParser) argList() ([]string, error) {
	text, err := p.argString()
	if err != nil {
		return nil, err
	}
	if text == "" || text == "*" {
		return nil, nil
	}
	parts := strings.Split(text, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

func (p *typeParser) ident() string {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}

func (p *typeParser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != c {
		return fmt.Errorf("invalid type %q: expected %q at offset %d", p.input, string(c), p.pos)
	}
	p.pos++
	return nil
}

func (p *typeParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}
