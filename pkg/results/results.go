// Package results holds the success/failure container returned by service
// operations. A Failure is a domain outcome the caller is expected to handle;
// infrastructure problems travel separately as plain errors.
package results

// OperationResult carries either a Success or a Failure payload. Both nil
// means the operation produced nothing (for example after a recovered panic).
type OperationResult[S any, F any] struct {
	Success *S
	Failure *F
}

// SuccessResult wraps a successful payload.
func SuccessResult[S any, F any](s S) OperationResult[S, F] {
	return OperationResult[S, F]{Success: &s}
}

// FailureResult wraps a domain failure.
func FailureResult[S any, F any](f F) OperationResult[S, F] {
	return OperationResult[S, F]{Failure: &f}
}

// IsSuccess reports whether a success payload is present.
func (r OperationResult[S, F]) IsSuccess() bool {
	return r.Success != nil
}

// IsFailure reports whether a failure payload is present.
func (r OperationResult[S, F]) IsFailure() bool {
	return r.Failure != nil
}

// Map converts the success payload, keeping any failure.
func Map[S any, T any, F any](r OperationResult[S, F], fn func(S) T) OperationResult[T, F] {
	out := OperationResult[T, F]{Failure: r.Failure}
	if r.Success != nil {
		v := fn(*r.Success)
		out.Success = &v
	}
	return out
}
