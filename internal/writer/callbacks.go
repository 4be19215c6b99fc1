package writer

import "github.com/pthm/openhelper/internal/gogen"

// Callback lifecycle methods the fan-out can invoke.
const (
	callbackOnCreate = "OnCreate"
	callbackOnOpen   = "OnOpen"
)

// invokeCallbacks emits the fan-out over the database's registered callbacks:
//
//	if len(d.database.Callbacks) > 0 {
//		for _, _callback := range d.database.Callbacks {
//			if err := _callback.OnOpen(ctx, db); err != nil {
//				return err
//			}
//		}
//	}
//
// range evaluates the slice once and walks it in registration order. The
// first callback error is returned as is.
func invokeCallbacks(scope *gogen.Scope, method, dbParam string) gogen.Stmt {
	callbackVar := scope.TmpVar("_callback")
	const callbacks = "d.database.Callbacks"
	return gogen.If{
		Cond: "len(" + callbacks + ") > 0",
		Then: gogen.Block{
			gogen.ForRange{
				Value: callbackVar,
				Expr:  callbacks,
				Body: gogen.Block{
					gogen.CheckErr{Call: callbackVar + "." + method + "(ctx, " + dbParam + ")"},
				},
			},
		},
	}
}
