package filter

import (
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/mvdham/permitctl/citypermit"
)

// Filter is a compiled boolean expression evaluated against reservation
// or favorite fields.
type Filter struct {
	expression string
	program    *vm.Program
}

// helperFunctions are exposed to every expression.
func helperFunctions() map[string]any {
	return map[string]any{
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
	}
}

// Compile compiles a filter expression.
func Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	program, err := expr.Compile(expression, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     err.Error(),
			Err:        err,
		}
	}

	return &Filter{expression: expression, program: program}, nil
}

// Expression returns the source expression.
func (f *Filter) Expression() string {
	return f.expression
}

// MatchReservation evaluates the filter against one reservation.
func (f *Filter) MatchReservation(r citypermit.Reservation) (bool, error) {
	env := map[string]any{
		"ID":        r.ID,
		"Plate":     r.LicensePlate,
		"Name":      r.Name,
		"StartTime": r.StartTime,
		"EndTime":   r.EndTime,
	}
	return f.match(env, r.LicensePlate)
}

// MatchFavorite evaluates the filter against one favorite.
func (f *Filter) MatchFavorite(v citypermit.Favorite) (bool, error) {
	env := map[string]any{
		"Plate": v.LicensePlate,
		"Name":  v.Name,
	}
	return f.match(env, v.LicensePlate)
}

func (f *Filter) match(env map[string]any, subject string) (bool, error) {
	for name, fn := range helperFunctions() {
		env[name] = fn
	}

	result, err := expr.Run(f.program, env)
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expression,
			Subject:    subject,
			Reason:     err.Error(),
			Err:        err,
		}
	}

	matched, ok := result.(bool)
	if !ok {
		return false, &EvaluationError{
			Expression: f.expression,
			Subject:    subject,
			Reason:     "expression did not evaluate to a boolean",
		}
	}
	return matched, nil
}

// Reservations returns the reservations matching the filter.
func Reservations(f *Filter, items []citypermit.Reservation) ([]citypermit.Reservation, error) {
	var matched []citypermit.Reservation
	for _, item := range items {
		ok, err := f.MatchReservation(item)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

// Favorites returns the favorites matching the filter.
func Favorites(f *Filter, items []citypermit.Favorite) ([]citypermit.Favorite, error) {
	var matched []citypermit.Favorite
	for _, item := range items {
		ok, err := f.MatchFavorite(item)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, item)
		}
	}
	return matched, nil
}
