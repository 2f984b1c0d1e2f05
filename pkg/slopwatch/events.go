package slopwatch

import (
	"sort"
	"sync"

	"github.com/cognicore/slopwatch/pkg/slopwatch/rules"
)

// EventKind identifies what an Event reports.
type EventKind int

const (
	// CandidatePromoted fires when a phrase enters the candidate set.
	CandidatePromoted EventKind = iota
	// RuleAccepted fires for every rule that passed validation.
	RuleAccepted
	// RuleRejected fires for every proposed rule that failed validation.
	RuleRejected
	// Pruned fires when a prune pass removed records.
	Pruned
	// StateReplaced fires after a snapshot load or bulk re-analysis.
	StateReplaced
)

func (k EventKind) String() string {
	switch k {
	case CandidatePromoted:
		return "candidate_promoted"
	case RuleAccepted:
		return "rule_accepted"
	case RuleRejected:
		return "rule_rejected"
	case Pruned:
		return "pruned"
	case StateReplaced:
		return "state_replaced"
	}
	return "unknown"
}

// Event is delivered to observers. Only the fields relevant to Kind are set.
type Event struct {
	Kind   EventKind
	Phrase string
	Rule   *rules.Rule
	Reason string
	Count  int
}

// Observer receives engine events synchronously, outside engine locks.
type Observer func(Event)

type observers struct {
	mu     sync.RWMutex
	nextID int
	fns    map[int]Observer
}

func (o *observers) add(fn Observer) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fns == nil {
		o.fns = make(map[int]Observer)
	}
	id := o.nextID
	o.nextID++
	o.fns[id] = fn
	return func() {
		o.mu.Lock()
		delete(o.fns, id)
		o.mu.Unlock()
	}
}

func (o *observers) emit(ev Event) {
	o.mu.RLock()
	ids := make([]int, 0, len(o.fns))
	for id := range o.fns {
		ids = append(ids, id)
	}
	fns := make([]Observer, 0, len(ids))
	// subscription order
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, o.fns[id])
	}
	o.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
