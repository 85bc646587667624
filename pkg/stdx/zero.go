package stdx

// Zero returns the zero value for T. Useful on error paths of generic
// functions where a typed zero has to be produced without a declaration.
func Zero[T any]() T {
	var zero T
	return zero
}
