package query

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/engagement-ledger/ledger/internal/domain/ledger"
)

var (
	ErrInvalidFilter       = errors.New("invalid filter")
	ErrInvalidRange        = errors.New("range lower bound must be below upper bound")
	ErrDuplicateRoleFilter = errors.New("role filter specified more than once")
)

// Field is a numeric ledger attribute that filters can compare.
type Field string

const (
	FieldMessageCount Field = "msgcount"
	FieldTwitterCount Field = "twtcount"
	FieldJoined       Field = "joined"
	FieldWon          Field = "won"
	FieldArtCount     Field = "artcount"
)

// Comparison is one normalized "<field> <op> <value>" clause.
type Comparison struct {
	Field Field
	Op    string
	Value int
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s%s%d", c.Field, c.Op, c.Value)
}

// RoleResolver maps a filter token to a known role.
type RoleResolver interface {
	ResolveRole(token string) (ledger.ID, bool)
}

// Filter is a conjunction of comparisons plus at most one required role and
// at most one excluded role.
type Filter struct {
	Comparisons []Comparison
	RequireRole *ledger.ID
	ExcludeRole *ledger.ID

	expr *govaluate.EvaluableExpression
}

// Subject is what a filter is evaluated against.
type Subject struct {
	Record *ledger.Record
	Roles  []ledger.ID
}

var (
	simplePattern = regexp.MustCompile(`^(msgcount|twtcount|joined|won|artcount)(>=|<=|!=|>|<|=)(\d+)$`)
	rangePattern  = regexp.MustCompile(`^(\d+)(<=|<)artcount(<=|<)(\d+)$`)
)

// Parse builds a filter from tokens. Every token must be a numeric
// comparison, an artcount range or a role reference; anything else is an error.
func Parse(tokens []string, roles RoleResolver) (*Filter, error) {
	f := &Filter{}
	for _, raw := range tokens {
		tok := strings.TrimSpace(raw)
		if tok == "" {
			continue
		}
		compact := strings.ToLower(strings.Join(strings.Fields(tok), ""))

		if m := simplePattern.FindStringSubmatch(compact); m != nil {
			v, err := strconv.Atoi(m[3])
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, raw)
			}
			f.Comparisons = append(f.Comparisons, Comparison{Field: Field(m[1]), Op: m[2], Value: v})
			continue
		}

		if m := rangePattern.FindStringSubmatch(compact); m != nil {
			low, err1 := strconv.Atoi(m[1])
			high, err2 := strconv.Atoi(m[4])
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, raw)
			}
			if low >= high {
				return nil, fmt.Errorf("%w: %q", ErrInvalidRange, raw)
			}
			f.Comparisons = append(f.Comparisons,
				Comparison{Field: FieldArtCount, Op: flip(m[2]), Value: low},
				Comparison{Field: FieldArtCount, Op: m[3], Value: high},
			)
			continue
		}

		exclude, name := splitRoleToken(tok)
		if roles == nil || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, raw)
		}
		id, ok := roles.ResolveRole(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q is neither a filter nor a known role", ErrInvalidFilter, raw)
		}
		if exclude {
			if f.ExcludeRole != nil {
				return nil, fmt.Errorf("%w: excluded role %q", ErrDuplicateRoleFilter, raw)
			}
			f.ExcludeRole = &id
		} else {
			if f.RequireRole != nil {
				return nil, fmt.Errorf("%w: required role %q", ErrDuplicateRoleFilter, raw)
			}
			f.RequireRole = &id
		}
	}

	expr, err := govaluate.NewEvaluableExpression(f.expression())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	f.expr = expr
	return f, nil
}

// flip turns "low < artcount" into "artcount > low".
func flip(op string) string {
	if op == "<=" {
		return ">="
	}
	return ">"
}

func splitRoleToken(tok string) (bool, string) {
	lower := strings.ToLower(tok)
	for _, p := range []string{"not:", "!", "-"} {
		if strings.HasPrefix(lower, p) {
			return true, strings.TrimSpace(tok[len(p):])
		}
	}
	for _, p := range []string{"has:", "+"} {
		if strings.HasPrefix(lower, p) {
			return false, strings.TrimSpace(tok[len(p):])
		}
	}
	return false, tok
}

func (f *Filter) expression() string {
	clauses := make([]string, 0, len(f.Comparisons)+2)
	for _, c := range f.Comparisons {
		op := c.Op
		if op == "=" {
			op = "=="
		}
		clauses = append(clauses, fmt.Sprintf("%s %s %d", c.Field, op, c.Value))
	}
	if f.RequireRole != nil {
		clauses = append(clauses, "has_required_role")
	}
	if f.ExcludeRole != nil {
		clauses = append(clauses, "!has_excluded_role")
	}
	if len(clauses) == 0 {
		return "true"
	}
	return strings.Join(clauses, " && ")
}

// Match evaluates every clause against the subject's current counters and roles.
func (f *Filter) Match(s Subject) (bool, error) {
	if f.expr == nil {
		return true, nil
	}
	rec := s.Record
	if rec == nil {
		rec = ledger.NewRecord()
	}
	params := map[string]interface{}{
		string(FieldMessageCount): float64(rec.TotalMessageCount),
		string(FieldTwitterCount): float64(len(rec.TwitterLinks)),
		string(FieldJoined):       float64(len(rec.Events())),
		string(FieldWon):          float64(len(rec.Winners())),
		string(FieldArtCount):     float64(rec.ArtCount),
		"has_required_role":       f.RequireRole != nil && hasRole(s.Roles, *f.RequireRole),
		"has_excluded_role":       f.ExcludeRole != nil && hasRole(s.Roles, *f.ExcludeRole),
	}
	result, err := f.expr.Evaluate(params)
	if err != nil {
		return false, err
	}
	matched, ok := result.(bool)
	if !ok {
		return false, errors.New("filter did not evaluate to boolean")
	}
	return matched, nil
}

func hasRole(roles []ledger.ID, id ledger.ID) bool {
	for _, r := range roles {
		if r == id {
			return true
		}
	}
	return false
}
