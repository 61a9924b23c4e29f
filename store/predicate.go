package store

import "fmt"

// Operator is a comparison understood by every store implementation.
type Operator string

const (
	OpEq     Operator = "="
	OpNotEq  Operator = "!="
	OpIn     Operator = "in"
	OpNotIn  Operator = "not in"
	OpLike   Operator = "like"
	OpGt     Operator = ">"
	OpGte    Operator = ">="
	OpLt     Operator = "<"
	OpLte    Operator = "<="
	OpIsSet  Operator = "is set"
	OpNotSet Operator = "is not set"
)

// Predicate is a single field comparison. When Child is set the predicate
// holds if any row of that child table matches.
type Predicate struct {
	Child string
	Field string
	Op    Operator
	Value any
}

func (p Predicate) String() string {
	field := p.Field
	if p.Child != "" {
		field = p.Child + "." + p.Field
	}
	switch p.Op {
	case OpIsSet, OpNotSet:
		return fmt.Sprintf("%s %s", field, p.Op)
	}
	return fmt.Sprintf("%s %s %v", field, p.Op, p.Value)
}

// Where builds a predicate on a record column.
func Where(field string, op Operator, value any) Predicate {
	return Predicate{Field: field, Op: op, Value: value}
}

// WhereChild builds a predicate on a child table column.
func WhereChild(child, field string, op Operator, value any) Predicate {
	return Predicate{Child: child, Field: field, Op: op, Value: value}
}

// PredicateSet is the working filter state of one query: And predicates are
// all required, and at least one Or predicate must hold when any are present.
// Predicates are only ever appended.
type PredicateSet struct {
	And []Predicate
	Or  []Predicate
}

// Filter builds a set from AND predicates.
func Filter(and ...Predicate) PredicateSet {
	return PredicateSet{And: and}
}

// Add appends AND predicates.
func (s *PredicateSet) Add(p ...Predicate) {
	s.And = append(s.And, p...)
}

// AddOr appends OR predicates.
func (s *PredicateSet) AddOr(p ...Predicate) {
	s.Or = append(s.Or, p...)
}

// Clone returns a copy that can be extended without touching s.
func (s PredicateSet) Clone() PredicateSet {
	return PredicateSet{
		And: append([]Predicate(nil), s.And...),
		Or:  append([]Predicate(nil), s.Or...),
	}
}

// Empty reports whether the set has no predicates.
func (s PredicateSet) Empty() bool {
	return len(s.And) == 0 && len(s.Or) == 0
}
