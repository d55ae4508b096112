// Package graph implements the workflow DAG: port and step nodes, the
// edges that connect them, Kahn's-algorithm cycle detection, and the
// bookkeeping (Val/Status/Result) the round-based scheduler in
// pkg/workflow drives a node through.
package graph
