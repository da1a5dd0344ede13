package requiredby

// queue holds pending extra activations. Both implementations guarantee
// termination: every item they hand out is retired for good.
type queue interface {
	push(a activation)
	pop() (activation, bool)
}

func newQueue(p Policy) queue {
	if p == DedupByActivation {
		return &activationQueue{seen: make(map[activationKey]bool)}
	}
	return &targetQueue{
		pending: make(map[string]activation),
		done:    make(map[string]bool),
	}
}

// targetQueue keys pending work by target name only. A later push for the
// same target replaces the earlier one; an expanded target is never
// expanded again.
type targetQueue struct {
	order   []string
	pending map[string]activation
	done    map[string]bool
}

func (q *targetQueue) push(a activation) {
	if q.done[a.target] {
		return
	}
	if _, ok := q.pending[a.target]; !ok {
		q.order = append(q.order, a.target)
	}
	q.pending[a.target] = a
}

func (q *targetQueue) pop() (activation, bool) {
	for len(q.order) > 0 {
		target := q.order[0]
		q.order = q.order[1:]
		a, ok := q.pending[target]
		if !ok {
			continue
		}
		delete(q.pending, target)
		q.done[target] = true
		return a, true
	}
	return activation{}, false
}

type activationKey struct {
	requirer, target, extra string
}

// activationQueue processes each (requirer, target, extra) once, in FIFO
// order.
type activationQueue struct {
	items []activation
	seen  map[activationKey]bool
}

func (q *activationQueue) push(a activation) {
	var fresh []string
	for _, extra := range a.extras {
		k := activationKey{a.requirer, a.target, extra}
		if !q.seen[k] {
			q.seen[k] = true
			fresh = append(fresh, extra)
		}
	}
	if len(fresh) > 0 {
		a.extras = fresh
		q.items = append(q.items, a)
	}
}

func (q *activationQueue) pop() (activation, bool) {
	if len(q.items) == 0 {
		return activation{}, false
	}
	a := q.items[0]
	q.items = q.items[1:]
	return a, true
}
