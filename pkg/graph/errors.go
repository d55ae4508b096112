package graph

import "errors"

// Sentinel errors for graph construction and scheduling.
var (
	ErrEmptyGraph        = errors.New("graph has no nodes")
	ErrCycleDetected     = errors.New("workflow contains cycles (circular dependencies)")
	ErrDanglingReference = errors.New("edge references an undeclared node")
	ErrTooManyNodes      = errors.New("graph exceeds the configured node limit")
	ErrTooManyEdges      = errors.New("graph exceeds the configured edge limit")
)
