package runtime

import (
	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/aretw0/sopnav/pkg/graph"
)

// Step describes a validated move.
type Step struct {
	From string
	To   string

	// Reset is set when the entry node restarted the path.
	Reset bool

	// Bundled lists the annotation nodes that follow To, in chain order.
	// They are delivered with the move but never enter the path.
	Bundled []string
}

// exit returns the node whose outgoing edges continue the walk after the
// step: the last bundled annotation, or To.
func (s Step) exit() string {
	if n := len(s.Bundled); n > 0 {
		return s.Bundled[n-1]
	}
	return s.To
}

// Move validates a move to target from the session's current node and
// returns the successor session. s itself is never modified, so a failed
// move leaves the traversal state exactly as it was. A legal move appends
// exactly target to the path, or resets it to [target] for the entry node.
//
// With bundle set, the chain of annotation nodes that directly follows
// target is reported in the step, and moves from a node resolve through
// the chain that follows it.
func Move(g *graph.Graph, s *domain.Session, target string, bundle bool) (*domain.Session, Step, error) {
	current := s.Current
	if !g.HasNode(target) {
		return nil, Step{}, &domain.UnknownNodeError{Node: target, Current: current, LegalNext: LegalNext(g, current, bundle)}
	}
	if !legal(g, current, target, bundle) {
		return nil, Step{}, &domain.IllegalTransitionError{From: current, To: target, LegalNext: LegalNext(g, current, bundle)}
	}

	next := s.Clone()
	step := Step{From: current, To: target}
	if target == g.Entry() {
		next.Path = []string{target}
		step.Reset = true
	} else {
		next.Path = append(next.Path, target)
	}
	next.Current = target

	if bundle {
		step.Bundled = annotationChain(g, target)
	}
	return next, step, nil
}

// LegalNext lists the moves available from current. With bundle set, a node
// followed by an annotation chain offers the moves that leave the chain.
func LegalNext(g *graph.Graph, current string, bundle bool) []string {
	if bundle {
		if chain := annotationChain(g, current); len(chain) > 0 {
			return g.LegalNext(chain[len(chain)-1])
		}
	}
	return g.LegalNext(current)
}

func legal(g *graph.Graph, current, target string, bundle bool) bool {
	if g.Legal(current, target) {
		return true
	}
	if !bundle {
		return false
	}
	chain := annotationChain(g, current)
	return len(chain) > 0 && g.Legal(chain[len(chain)-1], target)
}

// annotationChain follows single outgoing edges from id while they lead to
// annotation nodes. It stops at the first decision, action or terminal node.
func annotationChain(g *graph.Graph, id string) []string {
	var chain []string
	seen := map[string]bool{id: true}
	cur := id
	for {
		out := g.Outgoing(cur)
		if len(out) != 1 {
			return chain
		}
		n, ok := g.Node(out[0].To)
		if !ok || n.Kind != domain.KindAnnotation || seen[n.ID] {
			return chain
		}
		seen[n.ID] = true
		chain = append(chain, n.ID)
		cur = n.ID
	}
}
