package metnet

import (
	"fmt"
	"sort"
	"strings"
)

// GeneRule is a parsed boolean gene-reaction association. A reaction stays
// active as long as its rule evaluates true over the set of functional
// genes; "and" models a complex requiring every subunit, "or" models
// isoenzymes.
type GeneRule struct {
	root ruleExpr
}

type ruleExpr interface {
	eval(active map[string]bool) bool
	collect(ids map[string]struct{})
}

type geneRef struct{ id string }

func (g geneRef) eval(active map[string]bool) bool {
	// Genes the model does not know about are assumed functional.
	on, known := active[g.id]
	return on || !known
}

func (g geneRef) collect(ids map[string]struct{}) { ids[g.id] = struct{}{} }

type boolOp struct {
	and      bool
	operands []ruleExpr
}

func (b boolOp) eval(active map[string]bool) bool {
	for _, op := range b.operands {
		v := op.eval(active)
		if b.and && !v {
			return false
		}
		if !b.and && v {
			return true
		}
	}
	return b.and
}

func (b boolOp) collect(ids map[string]struct{}) {
	for _, op := range b.operands {
		op.collect(ids)
	}
}

// Eval reports whether the rule is satisfied given a map from gene id to
// functional state. An empty rule is always satisfied.
func (r GeneRule) Eval(active map[string]bool) bool {
	if r.root == nil {
		return true
	}
	return r.root.eval(active)
}

// Genes returns the distinct gene ids referenced by the rule, sorted.
func (r GeneRule) Genes() []string {
	if r.root == nil {
		return nil
	}
	set := make(map[string]struct{})
	r.root.collect(set)
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ParseGeneRule parses a boolean gene association expression of the
// conventional form "(b0902 and b0903) or b3952". Operator keywords are
// case-insensitive. An empty expression parses to the always-true rule.
func ParseGeneRule(expr string) (GeneRule, error) {
	tokens := tokenizeRule(expr)
	if len(tokens) == 0 {
		return GeneRule{}, nil
	}
	p := &ruleParser{tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return GeneRule{}, err
	}
	if p.pos != len(p.tokens) {
		return GeneRule{}, fmt.Errorf("unexpected token %q in gene rule", p.tokens[p.pos])
	}
	return GeneRule{root: root}, nil
}

func tokenizeRule(expr string) []string {
	expr = strings.ReplaceAll(expr, "(", " ( ")
	expr = strings.ReplaceAll(expr, ")", " ) ")
	return strings.Fields(expr)
}

type ruleParser struct {
	tokens []string
	pos    int
}

func (p *ruleParser) parseOr() (ruleExpr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	operands := []ruleExpr{left}
	for p.pos < len(p.tokens) && strings.EqualFold(p.tokens[p.pos], "or") {
		p.pos++
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		operands = append(operands, next)
	}
	if len(operands) == 1 {
		return left, nil
	}
	return boolOp{and: false, operands: operands}, nil
}

func (p *ruleParser) parseAnd() (ruleExpr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	operands := []ruleExpr{left}
	for p.pos < len(p.tokens) && strings.EqualFold(p.tokens[p.pos], "and") {
		p.pos++
		next, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		operands = append(operands, next)
	}
	if len(operands) == 1 {
		return left, nil
	}
	return boolOp{and: true, operands: operands}, nil
}

func (p *ruleParser) parsePrimary() (ruleExpr, error) {
	if p.pos >= len(p.tokens) {
		return nil, fmt.Errorf("unexpected end of gene rule")
	}
	tok := p.tokens[p.pos]
	switch {
	case tok == "(":
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.pos >= len(p.tokens) || p.tokens[p.pos] != ")" {
			return nil, fmt.Errorf("missing closing parenthesis in gene rule")
		}
		p.pos++
		return inner, nil
	case tok == ")", strings.EqualFold(tok, "and"), strings.EqualFold(tok, "or"):
		return nil, fmt.Errorf("unexpected token %q in gene rule", tok)
	default:
		p.pos++
		return geneRef{id: tok}, nil
	}
}
