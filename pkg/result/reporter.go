package result

import (
	"sync"
	"time"
)

// Reporter owns the result tree's root and the "recent node" cursor. All
// mutating operations are serialized by a single mutex so the case runner's
// worker, event threads, and parallel logic modules can interleave safely —
// the same single-lock discipline the original reporter's method decorator
// enforced around every mutating call.
type Reporter struct {
	mu   sync.Mutex
	root *Node
	recent *Node

	haltOnFailure  bool
	haltOnException bool
	halt           *HaltController
}

// New creates a Reporter with a fresh root node.
func New() *Reporter {
	root := &Node{Header: "root", Status: StatusPass, Type: TypeOther, Timestamp: time.Now()}
	return &Reporter{root: root, recent: root, halt: NewHaltController()}
}

// Root returns the tree root. Safe to call at any time from any goroutine;
// callers that need a stable snapshot should use ToText/ToDict instead of
// walking Root directly while a campaign is in flight.
func (r *Reporter) Root() *Node {
	return r.root
}

// SetHalt arms or disarms the two halt flags (spec §4.A halt-on-failure /
// halt-on-exception). When armed, Add of a matching status blocks until
// Release is called on the embedded HaltController.
func (r *Reporter) SetHalt(onFailure, onException bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.haltOnFailure = onFailure
	r.haltOnException = onException
}

// Halt returns the embedded suspension controller, so an external observer
// (CLI, REST handler) can Release() a suspended producer.
func (r *Reporter) Halt() *HaltController {
	return r.halt
}

// AddNode appends a child to the recent node and advances the cursor to it.
func (r *Reporter) AddNode(header string, status Status, message string, typ NodeType) *Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addNodeLocked(header, status, message, typ)
}

func (r *Reporter) addNodeLocked(header string, status Status, message string, typ NodeType) *Node {
	n := &Node{
		Header:    header,
		Status:    status,
		Message:   message,
		Type:      typ,
		Parent:    r.recent,
		Timestamp: time.Now(),
	}
	r.recent.Children = append(r.recent.Children, n)
	r.recent = n
	if status != StatusInfo {
		n.setStatus(status)
	}
	return n
}

// Pop moves the cursor to the current node's parent; a no-op at the root.
func (r *Reporter) Pop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recent.Parent != nil {
		r.recent = r.recent.Parent
	}
}

// AddTest opens a Case node and descends the cursor into it.
func (r *Reporter) AddTest(name string) *Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addNodeLocked(name, StatusPass, "", TypeCase)
}

// EndTest restores the cursor to the case node's parent regardless of any
// unbalanced step groups left open by user code.
func (r *Reporter) EndTest() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for cur := r.recent; cur != nil; cur = cur.Parent {
		if cur.Type == TypeCase {
			r.recent = cur.Parent
			if r.recent == nil {
				r.recent = r.root
			}
			return
		}
	}
}

// AddList opens a TestList node.
func (r *Reporter) AddList(name string) *Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addNodeLocked(name, StatusPass, "", TypeTestList)
}

// EndList restores the cursor to the enclosing TestList's parent.
func (r *Reporter) EndList() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for cur := r.recent; cur != nil; cur = cur.Parent {
		if cur.Type == TypeTestList {
			r.recent = cur.Parent
			if r.recent == nil {
				r.recent = r.root
			}
			return
		}
	}
}

// AddStepGroup opens a Step node.
func (r *Reporter) AddStepGroup(name string) *Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addNodeLocked(name, StatusPass, "", TypeStep)
}

// EndStepGroup restores the cursor to the step group's parent.
func (r *Reporter) EndStepGroup() {
	r.Pop()
}

// AddEventGroup returns a detachable node rooted directly under the tree
// root, independent of the runner's current cursor, so the event scheduler
// can give each fired event its own subtree without disturbing the case
// runner's traversal.
func (r *Reporter) AddEventGroup(name string) *Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := &Node{Header: name, Status: StatusPass, Type: TypeEventGroup, Parent: r.root, Timestamp: time.Now()}
	r.root.Children = append(r.root.Children, n)
	return n
}

// Add appends a terminal Step child at the current cursor. If a matching
// halt flag is armed, the calling goroutine blocks on the HaltController
// until an external Release.
func (r *Reporter) Add(status Status, header string, message string) *Node {
	r.mu.Lock()
	shouldHalt := (status >= StatusFail && status < StatusException && r.haltOnFailure) ||
		(status == StatusException && r.haltOnException)
	cursor := r.recent
	n := r.addNodeLocked(header, status, message, TypeStep)
	r.recent = cursor
	r.mu.Unlock()

	if shouldHalt {
		r.halt.Wait(status)
	}
	return n
}

// AddAt appends a terminal Step child directly under the given node
// (convenience for callers that hold a node returned by AddEventGroup,
// outside of the cursor-based API).
func (r *Reporter) AddAt(parent *Node, status Status, header, message string) *Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := &Node{Header: header, Status: status, Message: message, Type: TypeStep, Parent: parent, Timestamp: time.Now()}
	parent.Children = append(parent.Children, n)
	if status != StatusInfo {
		n.setStatus(status)
	}
	return n
}

// SearchResult performs a depth-first search restricted to non-Step nodes,
// returning the first node whose Header matches name.
func (r *Reporter) SearchResult(name string) *Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return searchNonStep(r.root, name)
}

func searchNonStep(n *Node, name string) *Node {
	if n.Type != TypeStep && n.Header == name {
		return n
	}
	for _, c := range n.Children {
		if c.Type == TypeStep {
			continue
		}
		if found := searchNonStep(c, name); found != nil {
			return found
		}
	}
	return nil
}

// RegisterCaseLogSink attaches a log sink to the given Case node so writes
// routed through WriteCaseLog land in the per-case log file.
func (r *Reporter) RegisterCaseLogSink(n *Node, sink LogSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.logSink = sink
}

// UnregisterCaseLogSink detaches the log sink from the given node.
func (r *Reporter) UnregisterCaseLogSink(n *Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.logSink = nil
}

// WriteCaseLog writes a line to the nearest registered log sink above n, if
// any.
func (r *Reporter) WriteCaseLog(n *Node, line string) {
	r.mu.Lock()
	sink := n.findLogSink()
	r.mu.Unlock()
	if sink != nil {
		sink.Writeln(line)
	}
}
