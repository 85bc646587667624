package instrument

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/loomkit/loom/pkg/reflectx"
)

// Shape is the closed set of execution/return styles an operation can have.
type Shape int

const (
	// SyncScalar blocks and produces a single result.
	SyncScalar Shape = iota
	// SyncStream blocks per pull and produces a lazy sequence of results.
	SyncStream
	// AsyncScalar returns immediately with a future for a single result.
	AsyncScalar
	// AsyncStream returns immediately with a channel of results.
	AsyncStream
)

func (s Shape) String() string {
	switch s {
	case SyncScalar:
		return "sync-scalar"
	case SyncStream:
		return "sync-streaming"
	case AsyncScalar:
		return "async-scalar"
	case AsyncStream:
		return "async-streaming"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

var (
	// ErrNotFunction is returned when the candidate is not a function.
	ErrNotFunction = errors.New("instrument: operation is not a function")
	// ErrShape is returned when a function does not match any of the four
	// canonical operation signatures.
	ErrShape = errors.New("instrument: unsupported operation shape")
)

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// Classify determines the shape of op from its type. It never invokes op.
//
// The decision is made on the results of the canonical signature
// func(context.Context, owner, in) ...: a single pointer result with an
// Await method is async-scalar, a receive channel is async-streaming, an
// iterator-shaped function result is sync-streaming, and any other single
// value plus error is sync-scalar.
func Classify(op any) (Shape, error) {
	if !reflectx.IsFunction(op) {
		return 0, ErrNotFunction
	}

	t := reflect.TypeOf(op)
	if t.NumIn() != 3 || t.In(0) != ctxType || t.IsVariadic() {
		return 0, fmt.Errorf("%w: %s must take (context.Context, owner, input)", ErrShape, reflectx.FunctionName(op))
	}

	switch t.NumOut() {
	case 1:
		out := t.Out(0)
		if out.Kind() == reflect.Ptr {
			if _, ok := out.MethodByName("Await"); ok {
				return AsyncScalar, nil
			}
		}
		return 0, fmt.Errorf("%w: %s returns a single value that is not awaitable", ErrShape, reflectx.FunctionName(op))
	case 2:
		if t.Out(1) != errType {
			return 0, fmt.Errorf("%w: %s second result must be error", ErrShape, reflectx.FunctionName(op))
		}
		out := t.Out(0)
		switch out.Kind() {
		case reflect.Chan:
			if out.ChanDir() != reflect.RecvDir {
				return 0, fmt.Errorf("%w: %s must return a receive-only channel", ErrShape, reflectx.FunctionName(op))
			}
			return AsyncStream, nil
		case reflect.Func:
			if isIterator(out) {
				return SyncStream, nil
			}
			return 0, fmt.Errorf("%w: %s returns a function that is not an iterator sequence", ErrShape, reflectx.FunctionName(op))
		default:
			return SyncScalar, nil
		}
	default:
		return 0, fmt.Errorf("%w: %s has unsupported result arity %d", ErrShape, reflectx.FunctionName(op), t.NumOut())
	}
}

// isIterator reports whether t has the iter.Seq2 form
// func(yield func(V, error) bool).
func isIterator(t reflect.Type) bool {
	if t.NumIn() != 1 || t.NumOut() != 0 {
		return false
	}
	yield := t.In(0)
	if yield.Kind() != reflect.Func || yield.NumIn() != 2 || yield.NumOut() != 1 {
		return false
	}
	return yield.In(1) == errType && yield.Out(0).Kind() == reflect.Bool
}
