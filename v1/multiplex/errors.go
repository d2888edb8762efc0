package multiplex

// An ErrorHandler may recover from a failed call by producing a value, or
// consume the failure by producing neither a value nor an error. A nil value
// with a nil error drops the result.
type ErrorHandler interface {
	Handle(*Call, error) (interface{}, error)
}

type ErrorHandlerFunc func(*Call, error) (interface{}, error)

func (f ErrorHandlerFunc) Handle(call *Call, err error) (interface{}, error) {
	return f(call, err)
}
