package graph

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
)

// Node is a graph vertex keyed by organization login.
type Node struct {
	ID       string
	NodeType string
	Grouping string
}

// Edge connects two nodes. Weight is 0 for unweighted (fork) relations.
type Edge struct {
	Source string
	Target string
	Weight int
}

// Graph is a small in-memory node/edge set, enough to serialize the
// derived networks. Node insertion order is preserved.
type Graph struct {
	Directed bool
	Nodes    []Node
	Edges    []Edge

	index map[string]int
}

func NewGraph(directed bool) *Graph {
	return &Graph{
		Directed: directed,
		index:    make(map[string]int),
	}
}

// AddNode inserts a node once; repeated adds of the same id are ignored.
func (g *Graph) AddNode(id, nodeType, grouping string) {
	if _, ok := g.index[id]; ok {
		return
	}
	g.index[id] = len(g.Nodes)
	g.Nodes = append(g.Nodes, Node{ID: id, NodeType: nodeType, Grouping: grouping})
}

func (g *Graph) AddEdge(source, target string, weight int) {
	g.Edges = append(g.Edges, Edge{Source: source, Target: target, Weight: weight})
}

// GEXF serialization

type gexfDoc struct {
	XMLName xml.Name  `xml:"gexf"`
	Xmlns   string    `xml:"xmlns,attr"`
	Version string    `xml:"version,attr"`
	Graph   gexfGraph `xml:"graph"`
}

type gexfGraph struct {
	DefaultEdgeType string         `xml:"defaultedgetype,attr"`
	Attributes      gexfAttributes `xml:"attributes"`
	Nodes           []gexfNode     `xml:"nodes>node"`
	Edges           []gexfEdge     `xml:"edges>edge"`
}

type gexfAttributes struct {
	Class string     `xml:"class,attr"`
	Attrs []gexfAttr `xml:"attribute"`
}

type gexfAttr struct {
	ID    string `xml:"id,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

type gexfNode struct {
	ID        string         `xml:"id,attr"`
	Label     string         `xml:"label,attr"`
	AttValues []gexfAttValue `xml:"attvalues>attvalue"`
}

type gexfAttValue struct {
	For   string `xml:"for,attr"`
	Value string `xml:"value,attr"`
}

type gexfEdge struct {
	ID     int    `xml:"id,attr"`
	Source string `xml:"source,attr"`
	Target string `xml:"target,attr"`
	Weight int    `xml:"weight,attr,omitempty"`
}

// WriteGEXF serializes the graph in GEXF 1.2, the format the graph
// tooling downstream expects.
func (g *Graph) WriteGEXF(path string) error {
	edgeType := "undirected"
	if g.Directed {
		edgeType = "directed"
	}

	doc := gexfDoc{
		Xmlns:   "http://www.gexf.net/1.2draft",
		Version: "1.2",
		Graph: gexfGraph{
			DefaultEdgeType: edgeType,
			Attributes: gexfAttributes{
				Class: "node",
				Attrs: []gexfAttr{
					{ID: "0", Title: "node_type", Type: "string"},
					{ID: "1", Title: "grouping", Type: "string"},
				},
			},
		},
	}

	for _, n := range g.Nodes {
		doc.Graph.Nodes = append(doc.Graph.Nodes, gexfNode{
			ID:    n.ID,
			Label: n.ID,
			AttValues: []gexfAttValue{
				{For: "0", Value: n.NodeType},
				{For: "1", Value: n.Grouping},
			},
		})
	}
	for i, e := range g.Edges {
		doc.Graph.Edges = append(doc.Graph.Edges, gexfEdge{
			ID:     i,
			Source: e.Source,
			Target: e.Target,
			Weight: e.Weight,
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize gexf: %w", err)
	}
	return os.WriteFile(path, append([]byte(xml.Header), out...), 0o644)
}

// node-link JSON serialization

type nodeLinkDoc struct {
	Directed bool           `json:"directed"`
	Nodes    []nodeLinkNode `json:"nodes"`
	Links    []nodeLinkEdge `json:"links"`
}

type nodeLinkNode struct {
	ID       string `json:"id"`
	NodeType string `json:"node_type"`
	Grouping string `json:"grouping"`
}

type nodeLinkEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight,omitempty"`
}

// WriteJSON serializes the graph in node-link form.
func (g *Graph) WriteJSON(path string) error {
	doc := nodeLinkDoc{
		Directed: g.Directed,
		Nodes:    make([]nodeLinkNode, 0, len(g.Nodes)),
		Links:    make([]nodeLinkEdge, 0, len(g.Edges)),
	}
	for _, n := range g.Nodes {
		doc.Nodes = append(doc.Nodes, nodeLinkNode{ID: n.ID, NodeType: n.NodeType, Grouping: n.Grouping})
	}
	for _, e := range g.Edges {
		doc.Links = append(doc.Links, nodeLinkEdge{Source: e.Source, Target: e.Target, Weight: e.Weight})
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize node-link json: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}
