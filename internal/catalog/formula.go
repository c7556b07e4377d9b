package catalog

import (
	"fmt"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"report-studio/internal/domain"
)

const (
	formulaMaxSteps = uint64(50_000)
	formulaTimeout  = 2 * time.Second
)

// formulaRuntime evaluates calculated-field expressions. Formulas are
// single Starlark expressions over the other fields of the row; execution
// is step-limited and timeout-bounded so a bad formula cannot wedge a
// preview refresh.
type formulaRuntime struct {
	maxSteps uint64
	timeout  time.Duration
}

func newFormulaRuntime() *formulaRuntime {
	return &formulaRuntime{maxSteps: formulaMaxSteps, timeout: formulaTimeout}
}

// compile checks that a formula parses as a single expression. Name
// resolution is deferred to evaluation since the variables are row keys.
func (r *formulaRuntime) compile(fieldID, formula string) error {
	if _, err := (&syntax.FileOptions{}).ParseExpr(fieldID+".formula", formula, 0); err != nil {
		return domain.ErrValidation("field %q formula does not compile: %v", fieldID, err)
	}
	return nil
}

// eval runs the formula with the row's values bound as variables.
func (r *formulaRuntime) eval(fieldID, formula string, row map[string]interface{}) (interface{}, error) {
	env := make(starlark.StringDict, len(row))
	for key, val := range row {
		sv, err := toStarlark(val)
		if err != nil {
			return nil, domain.ErrValidation("field %q formula input %q: %v", fieldID, key, err)
		}
		env[key] = sv
	}

	thread := &starlark.Thread{Name: "formula-eval"}
	thread.SetMaxExecutionSteps(r.maxSteps)

	var result starlark.Value
	if err := runWithTimeout(thread, r.timeout, func() error {
		val, err := starlark.EvalOptions(&syntax.FileOptions{}, thread, fieldID+".formula", formula, env)
		if err != nil {
			return err
		}
		result = val
		return nil
	}); err != nil {
		return nil, domain.ErrValidation("field %q formula failed: %v", fieldID, err)
	}

	return fromStarlark(result)
}

func runWithTimeout(thread *starlark.Thread, timeout time.Duration, fn func() error) error {
	if timeout <= 0 {
		return fn()
	}

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		thread.Cancel("formula evaluation timed out")
		<-done
		return fmt.Errorf("evaluation timed out after %s", timeout)
	}
}

func toStarlark(v interface{}) (starlark.Value, error) {
	switch val := v.(type) {
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(val), nil
	case string:
		return starlark.String(val), nil
	case int:
		return starlark.MakeInt(val), nil
	case int32:
		return starlark.MakeInt(int(val)), nil
	case int64:
		return starlark.MakeInt64(val), nil
	case float32:
		return starlark.Float(val), nil
	case float64:
		return starlark.Float(val), nil
	case time.Time:
		return starlark.String(val.Format(time.RFC3339)), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func fromStarlark(v starlark.Value) (interface{}, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(val), nil
	case starlark.String:
		return string(val), nil
	case starlark.Int:
		if i, ok := val.Int64(); ok {
			return i, nil
		}
		f, _ := starlark.AsFloat(val)
		return f, nil
	case starlark.Float:
		return float64(val), nil
	default:
		return nil, fmt.Errorf("formula returned unsupported type %s", v.Type())
	}
}
