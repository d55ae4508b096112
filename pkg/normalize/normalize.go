// Package normalize coerces scalar-shaped document fields into the list
// shape downstream decoding code is allowed to assume, before any
// semantic interpretation of a loaded document.
package normalize

// listify is the reserved set of document fields that must be a sequence
// by the time loader/runnable code inspects them, even when the author
// wrote a single scalar value for convenience.
var listify = map[string]bool{
	"inputs":        true,
	"outputs":       true,
	"links":         true,
	"baseCmd":       true,
	"arguments":     true,
	"inputBindings": true,
	"schemaDefs":    true,
	"steps":         true,
}

// Normalize walks v in place (map and slice values are mutated directly;
// the returned value should still be used, since a bare scalar root has
// nothing to mutate into). It is idempotent: a tree already in list shape
// round-trips unchanged.
func Normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, child := range t {
			if listify[k] {
				if _, isSeq := child.([]interface{}); !isSeq {
					child = []interface{}{child}
				}
			}
			t[k] = Normalize(child)
		}
		return t
	case []interface{}:
		for i, elem := range t {
			t[i] = Normalize(elem)
		}
		return t
	default:
		return v
	}
}
