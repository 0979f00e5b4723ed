package filter

// Predicate decides whether a frame is accepted. An error means the
// decision could not be made.
type Predicate interface {
	Match(rec Record) (bool, error)
}

// PredicateFunc adapts an ordinary function to Predicate.
type PredicateFunc func(rec Record) (bool, error)

func (f PredicateFunc) Match(rec Record) (bool, error) { return f(rec) }

// AcceptAll matches every record.
var AcceptAll = PredicateFunc(func(Record) (bool, error) { return true, nil })

// Chain accepts a record only when every predicate does. Evaluation stops
// at the first rejection or error.
type Chain struct {
	predicates []Predicate
}

// NewChain copies predicates; nil entries are skipped.
func NewChain(predicates ...Predicate) *Chain {
	all := make([]Predicate, 0, len(predicates))
	for _, p := range predicates {
		if p != nil {
			all = append(all, p)
		}
	}
	return &Chain{predicates: all}
}

func (c *Chain) Match(rec Record) (bool, error) {
	for _, p := range c.predicates {
		ok, err := p.Match(rec)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Len returns the number of predicates in the chain.
func (c *Chain) Len() int { return len(c.predicates) }

// Close closes every member that holds resources, such as a Lua state.
func (c *Chain) Close() {
	for _, p := range c.predicates {
		if cl, ok := p.(interface{ Close() }); ok {
			cl.Close()
		}
	}
}

// PortPredicate accepts frames whose TCP or UDP source or destination port
// is one of Ports.
type PortPredicate struct {
	Ports []int
}

func (p PortPredicate) Match(rec Record) (bool, error) {
	for _, k := range []string{KeyUDPSrcPort, KeyUDPDstPort, KeyTCPSrcPort, KeyTCPDstPort} {
		v, ok := rec.Int(k)
		if !ok {
			continue
		}
		for _, port := range p.Ports {
			if v == port {
				return true, nil
			}
		}
	}
	return false, nil
}
