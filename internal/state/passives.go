package state

// PassiveNode is one node of the passive tree.
type PassiveNode struct {
	ID       string         `json:"id" yaml:"id"`
	Name     string         `json:"name" yaml:"name"`
	Root     bool           `json:"root,omitempty" yaml:"root,omitempty"`
	Effects  []StatEffect   `json:"effects,omitempty" yaml:"effects,omitempty"`
	Triggers []TriggerSpecs `json:"triggers,omitempty" yaml:"triggers,omitempty"`
}

// PassiveConnection links two nodes. Connections are undirected.
type PassiveConnection struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// PassivesTreeSpecs is the static passive tree.
type PassivesTreeSpecs struct {
	Nodes       []PassiveNode       `json:"nodes" yaml:"nodes"`
	Connections []PassiveConnection `json:"connections" yaml:"connections"`
}

// Node returns the node with the given id.
func (t *PassivesTreeSpecs) Node(id string) (PassiveNode, bool) {
	if t == nil {
		return PassiveNode{}, false
	}
	for _, node := range t.Nodes {
		if node.ID == id {
			return node, true
		}
	}
	return PassiveNode{}, false
}

// Neighbours returns the ids connected to id.
func (t *PassivesTreeSpecs) Neighbours(id string) []string {
	if t == nil {
		return nil
	}
	var out []string
	for _, conn := range t.Connections {
		switch id {
		case conn.From:
			out = append(out, conn.To)
		case conn.To:
			out = append(out, conn.From)
		}
	}
	return out
}

// PassivesTreeState records purchased and ascended nodes.
type PassivesTreeState struct {
	Purchased map[string]bool `json:"purchased,omitempty"`
	Ascended  map[string]int  `json:"ascended,omitempty"`
}

// Owns reports whether the node counts as owned.
func (s *PassivesTreeState) Owns(id string) bool {
	if s == nil {
		return false
	}
	return s.Purchased[id] || s.Ascended[id] > 0
}
