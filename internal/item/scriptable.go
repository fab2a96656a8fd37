package item

import "errors"

// ErrNoInterpreter is returned by the bridge when no interpreter is
// attached.
var ErrNoInterpreter = errors.New("no script interpreter attached")

// Interpreter is the external script engine collaborator. Call dispatches
// synchronously on the caller's goroutine; an implementation running its
// engine elsewhere must arrange its own hand-off — the bridge does not.
// Callers may assume request/response ordering but not reentrancy safety.
type Interpreter interface {
	// Call invokes a named method on the interpreter with the given
	// arguments and returns its result.
	Call(method string, args []any) (any, error)

	// CurrentArguments returns the arguments of the script call currently
	// being executed.
	CurrentArguments() []any
}

// Scriptable bridges a content-type module to the script interpreter
// without depending on the interpreter's implementation.
type Scriptable struct {
	interp Interpreter
}

// NewScriptable returns a bridge to interp, which may be nil.
func NewScriptable(interp Interpreter) *Scriptable {
	return &Scriptable{interp: interp}
}

// Attach sets the interpreter the bridge dispatches to.
func (s *Scriptable) Attach(interp Interpreter) { s.interp = interp }

// Call performs a blocking, same-goroutine invocation of method on the
// interpreter.
func (s *Scriptable) Call(method string, args []any) (any, error) {
	if s.interp == nil {
		return nil, ErrNoInterpreter
	}
	return s.interp.Call(method, args)
}

// Eval is sugar for Call("eval", [script]).
func (s *Scriptable) Eval(script string) (any, error) {
	return s.Call("eval", []any{script})
}

// CurrentArguments retrieves the interpreter's notion of the arguments to
// the currently executing script call. Returns nil when no interpreter is
// attached.
func (s *Scriptable) CurrentArguments() []any {
	if s.interp == nil {
		return nil
	}
	return s.interp.CurrentArguments()
}
