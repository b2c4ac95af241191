package convert

// Tracker records which nodes are being converted and which are done.
// A Tracker belongs to one Converter and is never shared between conversions.
type Tracker struct {
	inProgress map[any]string // identity -> path where it was entered
	completed  map[any]Result
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		inProgress: make(map[any]string),
		completed:  make(map[any]Result),
	}
}

// Enter marks id as in progress at path. If id is already in progress the node
// is its own ancestor: Enter returns false and the path where id was entered.
func (t *Tracker) Enter(id any, path string) (string, bool) {
	if first, busy := t.inProgress[id]; busy {
		return first, false
	}
	t.inProgress[id] = path
	return "", true
}

// Leave clears the in-progress mark for id.
func (t *Tracker) Leave(id any) {
	delete(t.inProgress, id)
}

// Remember stores the converted result for id.
func (t *Tracker) Remember(id any, result Result) {
	t.completed[id] = result
}

// Lookup returns the stored result for id.
func (t *Tracker) Lookup(id any) (Result, bool) {
	r, ok := t.completed[id]
	return r, ok
}

// InProgress returns the number of nodes currently entered.
func (t *Tracker) InProgress() int {
	return len(t.inProgress)
}

// Cached returns the number of remembered results.
func (t *Tracker) Cached() int {
	return len(t.completed)
}
