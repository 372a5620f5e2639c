package lwo

import "github.com/Faultbox/lwotool/pkg/scene"

// edgeKey identifies an undirected mesh edge.
type edgeKey struct {
	a, b int
}

func makeEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// polygonEdgeSet indexes every undirected edge covered by at least one
// polygon perimeter. Built once per mesh.
func polygonEdgeSet(mesh *scene.Mesh) map[edgeKey]struct{} {
	set := make(map[edgeKey]struct{})
	for _, p := range mesh.Polygons {
		n := len(p.Vertices)
		for i := 0; i < n; i++ {
			set[makeEdgeKey(p.Vertices[i], p.Vertices[(i+1)%n])] = struct{}{}
		}
	}
	return set
}

// looseEdges returns the authored edges touched by zero polygons, in
// authored order. These survive export as degenerate two-vertex polygon
// entries so wire geometry is not silently dropped.
func looseEdges(mesh *scene.Mesh) [][2]int {
	if len(mesh.Edges) == 0 {
		return nil
	}
	covered := polygonEdgeSet(mesh)
	var loose [][2]int
	for _, e := range mesh.Edges {
		if _, ok := covered[makeEdgeKey(e[0], e[1])]; !ok {
			loose = append(loose, e)
		}
	}
	return loose
}
