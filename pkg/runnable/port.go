package runnable

import "strings"

// Link is an inbound edge declaration on a port: spec §3/§6.
type Link struct {
	Source   string
	Position int
}

// Port is a parsed port declaration (spec §6): an id, a declared nesting
// depth, an optional literal default, optional inbound links, and -
// relevant only to CommandLineTool output ports - an output binding and
// declared type.
type Port struct {
	ID            string
	Depth         int
	Value         interface{}
	HasValue      bool
	Links         []Link
	OutputBinding map[string]interface{}
	Type          interface{}
}

// BareName strips a port id down to the name a Runnable.Run inputs/outputs
// mapping keys on: the leading "#" and, for step-scoped ids of the form
// "#step/port", everything up to and including the final "/".
func BareName(id string) string {
	id = strings.TrimPrefix(id, "#")
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// ParsePorts decodes a normalized "inputs"/"outputs" list (already
// guaranteed to be a []interface{} of mappings by pkg/normalize) into
// Ports.
func ParsePorts(raw []interface{}) []Port {
	ports := make([]Port, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		p := Port{Type: m["type"]}
		if id, ok := m["id"].(string); ok {
			p.ID = id
		}
		if d, ok := m["depth"].(int); ok {
			p.Depth = d
		} else if d, ok := m["depth"].(float64); ok {
			p.Depth = int(d)
		}
		if v, present := m["value"]; present {
			p.Value = v
			p.HasValue = true
		}
		if ob, ok := m["outputBinding"].(map[string]interface{}); ok {
			p.OutputBinding = ob
		}
		if rawLinks, ok := m["links"].([]interface{}); ok {
			for _, rl := range rawLinks {
				lm, ok := rl.(map[string]interface{})
				if !ok {
					continue
				}
				link := Link{}
				if src, ok := lm["source"].(string); ok {
					link.Source = src
				}
				if pos, ok := lm["position"].(int); ok {
					link.Position = pos
				} else if pos, ok := lm["position"].(float64); ok {
					link.Position = int(pos)
				}
				p.Links = append(p.Links, link)
			}
		}
		ports = append(ports, p)
	}
	return ports
}

// DepthIndex builds the bare-name -> declared-depth map RunOnce bodies
// hand back from InputDepth.
func DepthIndex(ports []Port) map[string]int {
	idx := make(map[string]int, len(ports))
	for _, p := range ports {
		idx[BareName(p.ID)] = p.Depth
	}
	return idx
}

// DefaultsIndex builds the bare-name -> literal-default map used to
// backfill any declared input port the caller did not supply.
func DefaultsIndex(ports []Port) map[string]interface{} {
	idx := make(map[string]interface{}, len(ports))
	for _, p := range ports {
		if p.HasValue {
			idx[BareName(p.ID)] = p.Value
		}
	}
	return idx
}
