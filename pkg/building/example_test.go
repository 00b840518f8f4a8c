package building_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/wayfinder/pkg/building"
)

func Example() {
	doc := `{"building": {"floors": [
		{"floor": 1, "nodes": [
			{"id": "lobby", "coordinates": {"x": 0, "y": 0}, "neighbors": ["stairs_a_1"]},
			{"id": "stairs_a_1", "coordinates": {"x": 50, "y": 0}, "neighbors": ["stairs_a_2", "ghost"]}
		]},
		{"floor": 2, "nodes": [
			{"id": "stairs_a_2", "coordinates": {"x": 50, "y": 0}}
		]}
	]}}`

	g, diags, err := building.ReadJSON(strings.NewReader(doc))
	if err != nil {
		panic(err)
	}
	fmt.Println("nodes:", g.NodeCount(), "edges:", g.EdgeCount(), "diagnostics:", len(diags))
	fmt.Println("floors:", g.Floors())
	fmt.Println("stairs_a_2 neighbors:", g.Neighbors("stairs_a_2"))
	// Output:
	// nodes: 3 edges: 2 diagnostics: 0
	// floors: [1 2]
	// stairs_a_2 neighbors: [stairs_a_1]
}

func ExampleAssemble() {
	g, _ := building.Assemble([]building.NodeSpec{
		{Node: building.Node{ID: "a"}, Neighbors: []string{"b", "a"}},
		{Node: building.Node{ID: "b"}},
	})
	fmt.Println(g.Neighbors("a"), g.Neighbors("b"))
	// Output: [b] [a]
}
