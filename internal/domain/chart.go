package domain

// NodeKind tells groups from ledgers in a chart.
type NodeKind string

const (
	NodeGroup  NodeKind = "GROUP"
	NodeLedger NodeKind = "LEDGER"
)

// ChartNode is one group or ledger in a ChartOfAccounts. Children hold
// indexes into the owning chart's Nodes slice.
type ChartNode struct {
	Kind         NodeKind
	ID           int64
	ParentID     int64
	Name         string
	Code         string
	Weight       int
	AffectsGross bool
	LedgerType   LedgerType
	System       bool
	Balances
	Children []int
}

type nodeKey struct {
	kind NodeKind
	id   int64
}

// ChartOfAccounts is a forest of groups and ledgers stored as a flat arena.
// Nodes refer to each other by index, never by pointer.
type ChartOfAccounts struct {
	FactoryID                  string
	Nodes                      []ChartNode
	Roots                      []int
	DifferenceInOpeningBalance Balance

	index map[nodeKey]int
}

// NewChart returns an empty chart for factoryID.
func NewChart(factoryID string) *ChartOfAccounts {
	return &ChartOfAccounts{
		FactoryID:                  factoryID,
		DifferenceInOpeningBalance: ZeroBalance(Debit),
		index:                      make(map[nodeKey]int),
	}
}

// Add appends node and returns its index. A later node with the same kind
// and id shadows an earlier one in Lookup.
func (c *ChartOfAccounts) Add(node ChartNode) int {
	if c.index == nil {
		c.reindex()
	}
	c.Nodes = append(c.Nodes, node)
	idx := len(c.Nodes) - 1
	c.index[nodeKey{node.Kind, node.ID}] = idx
	return idx
}

// Lookup finds a node by kind and id.
func (c *ChartOfAccounts) Lookup(kind NodeKind, id int64) (int, bool) {
	if c.index == nil {
		c.reindex()
	}
	idx, ok := c.index[nodeKey{kind, id}]
	return idx, ok
}

func (c *ChartOfAccounts) reindex() {
	c.index = make(map[nodeKey]int, len(c.Nodes))
	for i, n := range c.Nodes {
		c.index[nodeKey{n.Kind, n.ID}] = i
	}
}

// Walk visits every node reachable from the roots in pre-order. Each node
// is visited at most once even if the arena is malformed.
func (c *ChartOfAccounts) Walk(fn func(idx, depth int)) {
	visited := make([]bool, len(c.Nodes))
	var visit func(idx, depth int)
	visit = func(idx, depth int) {
		if visited[idx] {
			return
		}
		visited[idx] = true
		fn(idx, depth)
		for _, child := range c.Nodes[idx].Children {
			visit(child, depth+1)
		}
	}
	for _, root := range c.Roots {
		visit(root, 0)
	}
}

// LedgerNodes returns the reachable ledgers in tree order.
func (c *ChartOfAccounts) LedgerNodes() []ChartNode {
	var out []ChartNode
	c.Walk(func(idx, _ int) {
		if c.Nodes[idx].Kind == NodeLedger {
			out = append(out, c.Nodes[idx])
		}
	})
	return out
}

// TreeNode is the nested rendering of a ChartNode.
type TreeNode struct {
	Kind         NodeKind   `json:"kind"`
	ID           int64      `json:"id"`
	ParentID     int64      `json:"parentId,omitempty"`
	Name         string     `json:"name"`
	Code         string     `json:"code,omitempty"`
	Weight       int        `json:"weight"`
	AffectsGross bool       `json:"affectsGross,omitempty"`
	LedgerType   LedgerType `json:"ledgerType,omitempty"`
	Balances
	Children []TreeNode `json:"children,omitempty"`
}

// Tree renders the roots as nested nodes.
func (c *ChartOfAccounts) Tree() []TreeNode {
	visited := make([]bool, len(c.Nodes))
	var render func(idx int) (TreeNode, bool)
	render = func(idx int) (TreeNode, bool) {
		if visited[idx] {
			return TreeNode{}, false
		}
		visited[idx] = true
		n := c.Nodes[idx]
		out := TreeNode{
			Kind:         n.Kind,
			ID:           n.ID,
			ParentID:     n.ParentID,
			Name:         n.Name,
			Code:         n.Code,
			Weight:       n.Weight,
			AffectsGross: n.AffectsGross,
			LedgerType:   n.LedgerType,
			Balances:     n.Balances,
		}
		for _, child := range n.Children {
			if rendered, ok := render(child); ok {
				out.Children = append(out.Children, rendered)
			}
		}
		return out, true
	}
	roots := make([]TreeNode, 0, len(c.Roots))
	for _, root := range c.Roots {
		if rendered, ok := render(root); ok {
			roots = append(roots, rendered)
		}
	}
	return roots
}
