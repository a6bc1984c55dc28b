package profile

import (
	"fmt"
	"regexp"

	"github.com/google/cel-go/cel"

	"github.com/sweeney/burner-controller/internal/logic"
)

// Variables available to guard expressions.
const (
	VarRun              = "run"
	VarWaterTemp        = "water_temp"
	VarFlameTemperature = "flame_temperature"
	VarElapsedMS        = "elapsed_ms"
)

// costLimit bounds the work a single guard evaluation may do.
const costLimit = 100000

var readings = map[string]*regexp.Regexp{
	VarWaterTemp:        regexp.MustCompile(`\b` + VarWaterTemp + `\b`),
	VarFlameTemperature: regexp.MustCompile(`\b` + VarFlameTemperature + `\b`),
}

func newEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable(VarRun, cel.BoolType),
		cel.Variable(VarWaterTemp, cel.DoubleType),
		cel.Variable(VarFlameTemperature, cel.DoubleType),
		cel.Variable(VarElapsedMS, cel.IntType),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	return env, nil
}

// compileGuard compiles expr into a logic.Guard. The expression must type
// check to bool. Reading a sensor value that is absent (NaN) makes the guard
// fail with logic.ErrMissingInput rather than silently compare false.
func compileGuard(env *cel.Env, component, expr string) (logic.Guard, error) {
	if expr == "" {
		return nil, &logic.ConfigurationError{Component: component, Reason: "empty expression"}
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, &logic.ConfigurationError{Component: component, Reason: fmt.Sprintf("compile %q: %v", expr, issues.Err())}
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, &logic.ConfigurationError{Component: component, Reason: fmt.Sprintf("%q must evaluate to bool, got %s", expr, ast.OutputType())}
	}
	prog, err := env.Program(ast, cel.CostLimit(costLimit))
	if err != nil {
		return nil, &logic.ConfigurationError{Component: component, Reason: fmt.Sprintf("program %q: %v", expr, err)}
	}

	var reads []string
	for name, re := range readings {
		if re.MatchString(expr) {
			reads = append(reads, name)
		}
	}

	return func(snap logic.Snapshot) (bool, error) {
		vars := map[string]any{
			VarRun:              snap.Controls.Run,
			VarWaterTemp:        snap.Controls.WaterTemp,
			VarFlameTemperature: snap.Sensors.FlameTemperature,
			VarElapsedMS:        snap.Elapsed.Milliseconds(),
		}
		for _, name := range reads {
			if logic.Missing(vars[name].(float64)) {
				return false, fmt.Errorf("%s: %w", name, logic.ErrMissingInput)
			}
		}
		out, _, err := prog.Eval(vars)
		if err != nil {
			return false, fmt.Errorf("evaluate %q: %w", expr, err)
		}
		v, ok := out.Value().(bool)
		if !ok {
			return false, fmt.Errorf("evaluate %q: result %v is not a bool", expr, out.Value())
		}
		return v, nil
	}, nil
}
