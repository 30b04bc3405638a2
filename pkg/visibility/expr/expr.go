// Package expr compiles the small boolean language used by descriptor
// visibleWhen rules:
//
//	type == "Poll"
//	programType == "B.Voc" && !archived
//	departmentName ~= "hr" || session.role != "StudyCenter"
//
// "~=" compares strings case-insensitively. Identifiers resolve through the
// Lookup passed to Eval; dotted names are passed through unchanged.
package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/scanner"
)

// Lookup resolves an identifier to its current value.
type Lookup func(name string) (any, bool)

// Program is a compiled rule. The zero-value program (empty source) is
// always true.
type Program struct {
	source string
	root   node
}

// Compile parses source into a Program.
func Compile(source string) (*Program, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return &Program{}, nil
	}
	p := &parser{}
	p.init(trimmed)
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.tok != scanner.EOF {
		return nil, p.errorf("unexpected %q", p.text)
	}
	if p.err != nil {
		return nil, p.err
	}
	return &Program{source: trimmed, root: root}, nil
}

// MustCompile panics when source does not compile.
func MustCompile(source string) *Program {
	prog, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return prog
}

// String returns the normalised source.
func (p *Program) String() string {
	if p == nil {
		return ""
	}
	return p.source
}

// Eval runs the program against lookup.
func (p *Program) Eval(lookup Lookup) bool {
	if p == nil || p.root == nil {
		return true
	}
	if lookup == nil {
		lookup = func(string) (any, bool) { return nil, false }
	}
	return p.root.eval(lookup)
}

type node interface {
	eval(Lookup) bool
}

type orNode struct{ left, right node }

func (n orNode) eval(l Lookup) bool { return n.left.eval(l) || n.right.eval(l) }

type andNode struct{ left, right node }

func (n andNode) eval(l Lookup) bool { return n.left.eval(l) && n.right.eval(l) }

type notNode struct{ inner node }

func (n notNode) eval(l Lookup) bool { return !n.inner.eval(l) }

type truthyNode struct{ name string }

func (n truthyNode) eval(l Lookup) bool {
	value, ok := l(n.name)
	return ok && truthy(value)
}

type compareNode struct {
	name   string
	op     string
	value  any
	isNull bool
}

func (n compareNode) eval(l Lookup) bool {
	got, ok := l(n.name)
	if !ok {
		got = nil
	}
	var equal bool
	switch {
	case n.isNull:
		equal = got == nil || got == ""
	case n.op == "~=":
		equal = strings.EqualFold(strings.TrimSpace(stringify(got)), fmt.Sprint(n.value))
	default:
		equal = sameValue(got, n.value)
	}
	if n.op == "!=" {
		return !equal
	}
	return equal
}

func sameValue(got, want any) bool {
	switch typed := want.(type) {
	case bool:
		b, ok := got.(bool)
		if !ok {
			parsed, err := strconv.ParseBool(strings.TrimSpace(stringify(got)))
			b, ok = parsed, err == nil
		}
		return ok && b == typed
	case float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(stringify(got)), 64)
		return err == nil && f == typed
	default:
		return stringify(got) == fmt.Sprint(want)
	}
}

func truthy(value any) bool {
	switch typed := value.(type) {
	case nil:
		return false
	case bool:
		return typed
	case string:
		trimmed := strings.TrimSpace(typed)
		return trimmed != "" && !strings.EqualFold(trimmed, "false")
	case int:
		return typed != 0
	case float64:
		return typed != 0
	}
	return true
}

func stringify(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	}
	return fmt.Sprint(value)
}

type parser struct {
	sc   scanner.Scanner
	tok  rune
	text string
	err  error
}

func (p *parser) init(src string) {
	p.sc.Init(strings.NewReader(src))
	p.sc.Mode = scanner.ScanIdents | scanner.ScanStrings | scanner.ScanRawStrings | scanner.ScanInts | scanner.ScanFloats
	p.sc.IsIdentRune = func(ch rune, i int) bool {
		return ch == '_' || ch == '.' && i > 0 || ch == '-' && i > 0 ||
			ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' && i > 0
	}
	p.sc.Error = func(_ *scanner.Scanner, msg string) {
		if p.err == nil {
			p.err = errors.New("expr: " + msg)
		}
	}
	p.next()
}

func (p *parser) next() {
	p.tok = p.sc.Scan()
	p.text = p.sc.TokenText()
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("expr: "+format+" at %s", append(args, p.sc.Position)...)
}

// accept consumes a two-rune operator such as "&&" or "==".
func (p *parser) accept(first, second rune) bool {
	if p.tok != first || p.sc.Peek() != second {
		return false
	}
	p.sc.Next()
	p.next()
	return true
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept('|', '|') {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.accept('&', '&') {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.tok == '!' && p.sc.Peek() != '=' {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	if p.tok == '(' {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.tok != ')' {
			return nil, p.errorf("missing closing ')'")
		}
		p.next()
		return inner, nil
	}
	if p.tok != scanner.Ident {
		if p.tok == scanner.EOF {
			return nil, p.errorf("unexpected end of expression")
		}
		return nil, p.errorf("expected identifier, got %q", p.text)
	}
	name := p.text
	p.next()

	var op string
	switch {
	case p.accept('=', '='):
		op = "=="
	case p.accept('!', '='):
		op = "!="
	case p.accept('~', '='):
		op = "~="
	default:
		return truthyNode{name: name}, nil
	}

	cmp := compareNode{name: name, op: op}
	switch p.tok {
	case scanner.String, scanner.RawString:
		value, err := strconv.Unquote(p.text)
		if err != nil {
			return nil, p.errorf("invalid string %s", p.text)
		}
		cmp.value = value
	case scanner.Int, scanner.Float:
		f, err := strconv.ParseFloat(p.text, 64)
		if err != nil {
			return nil, p.errorf("invalid number %s", p.text)
		}
		cmp.value = f
	case scanner.Ident:
		switch p.text {
		case "true", "false":
			cmp.value = p.text == "true"
		case "null", "nil":
			cmp.isNull = true
		default:
			cmp.value = p.text
		}
	default:
		return nil, p.errorf("expected value after %s", op)
	}
	if op == "~=" && cmp.isNull {
		return nil, p.errorf("~= cannot compare against null")
	}
	p.next()
	return cmp, nil
}
