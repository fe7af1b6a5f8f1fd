package result

// PointStats is a multiset count of leaf statuses.
type PointStats map[Status]int

// GetTestPointStats counts leaves by status: a childless node counts once by
// its own status; a node with children sums over its children (never counts
// itself in addition to its children).
func GetTestPointStats(n *Node) PointStats {
	stats := PointStats{}
	accumulatePoints(n, stats)
	return stats
}

func accumulatePoints(n *Node, stats PointStats) {
	if len(n.Children) == 0 {
		stats[n.Status]++
		return
	}
	for _, c := range n.Children {
		accumulatePoints(c, stats)
	}
}

// CaseStats is a multiset count of Case-typed nodes by status.
type CaseStats map[Status]int

// GetTestCaseStats counts Case-typed nodes in the subtree by their own
// (already-promoted) status.
func GetTestCaseStats(n *Node) CaseStats {
	stats := CaseStats{}
	accumulateCases(n, stats)
	return stats
}

func accumulateCases(n *Node, stats CaseStats) {
	if n.Type == TypeCase {
		stats[n.Status]++
	}
	for _, c := range n.Children {
		accumulateCases(c, stats)
	}
}
