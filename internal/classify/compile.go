package classify

import "github.com/iansherr/nvim-initmd/pkg/interfaces"

// compileStrategy transforms source before a compile attempt. Strategies are
// tried in order; the first successful compile wins and the error from the
// first attempt is the one surfaced when all fail.
type compileStrategy struct {
	name      string
	transform func(string) string
}

var compileStrategies = []compileStrategy{
	{name: "as-is", transform: func(source string) string {
		return source
	}},
	// Authors often omit the explicit return on a trailing expression.
	{name: "expression", transform: func(source string) string {
		return "return " + source
	}},
	// A statement sequence wrapped in an anonymous block scope; no
	// meaningful return value, used to surface syntax errors early.
	{name: "statement-block", transform: func(source string) string {
		return "do\n" + source + "\nend"
	}},
}

// Compile runs the layered fallback strategy list against the evaluator.
func Compile(evaluator interfaces.Evaluator, source string) (interfaces.Unit, error) {
	var firstErr error
	for _, strategy := range compileStrategies {
		unit, err := evaluator.Compile(strategy.transform(source))
		if err == nil {
			return unit, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
