package wavecollapse

import "errors"

var (
	// ErrInvalidSourceFormat is returned when a source file or folder cannot be
	// decoded into tiles.
	ErrInvalidSourceFormat = errors.New("wavecollapse: invalid source format")
	// ErrEmptyTileSet is returned when a source produces no tiles.
	ErrEmptyTileSet = errors.New("wavecollapse: empty tile set")
	// ErrInvalidOptions is returned when Options or GridOptions are out of range.
	ErrInvalidOptions = errors.New("wavecollapse: invalid options")
	// ErrSolverFailure is returned once every snapshot has been exhausted and the
	// grid cannot be completed. The grid must be Reset before it can be reused.
	ErrSolverFailure = errors.New("wavecollapse: solver failure, no snapshot left to backtrack")

	// errContradiction signals an emptied cell during propagation. It is always
	// resolved by backtracking inside Step.
	errContradiction = errors.New("wavecollapse: contradiction")
)
