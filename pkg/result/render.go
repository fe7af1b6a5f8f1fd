package result

import (
	"fmt"
	"strings"
)

const textWidth = 80

// ToText renders a node and its subtree as an indented listing. Case/Step
// headlines are right-padded with dots to textWidth before the status.
func (n *Node) ToText(indent int) string {
	var b strings.Builder
	n.writeText(&b, indent)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder, indent int) {
	prefix := strings.Repeat("  ", indent)
	switch n.Type {
	case TypeCase, TypeStep:
		line := prefix + n.Header
		pad := textWidth - len(line) - len(n.Status.String())
		if pad < 1 {
			pad = 1
		}
		b.WriteString(line)
		b.WriteString(strings.Repeat(".", pad))
		b.WriteString(n.Status.String())
		b.WriteString("\n")
		if n.Message != "" {
			b.WriteString(prefix + "  " + n.Message + "\n")
		}
	default:
		b.WriteString(prefix + n.Header + "\n")
	}
	for _, c := range n.Children {
		c.writeText(b, indent+1)
	}
}

// DictNode is the JSON-friendly structural projection of a Node, matching
// the shape the teacher's TestReport/TargetInfo types use for wire output.
type DictNode struct {
	Header    string      `json:"header"`
	Status    string      `json:"status"`
	Message   string      `json:"message,omitempty"`
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp"`
	Children  []*DictNode `json:"children,omitempty"`
}

// ToDict produces a lossless structural projection of the subtree rooted at
// n, used for §6's JSON wire output and round-tripped by invariant tests.
func (n *Node) ToDict() *DictNode {
	d := &DictNode{
		Header:    n.Header,
		Status:    n.Status.String(),
		Message:   n.Message,
		Type:      n.Type.String(),
		Timestamp: n.Timestamp.Format(timeLayout),
	}
	for _, c := range n.Children {
		d.Children = append(d.Children, c.ToDict())
	}
	return d
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// String implements fmt.Stringer by delegating to ToText(0); handy for log
// lines and test failure output.
func (n *Node) String() string {
	return fmt.Sprintf("%s", n.ToText(0))
}
