package feed

// NoteRef identifies a note as either persisted (server-assigned id) or
// pending (client-synthesized temporary id). A tagged variant instead of
// sniffing id prefixes.
type NoteRef struct {
	id      string
	pending bool
}

func Persisted(id string) NoteRef {
	return NoteRef{id: id}
}

func Pending(tempID string) NoteRef {
	return NoteRef{id: tempID, pending: true}
}

func (r NoteRef) ID() string {
	return r.id
}

func (r NoteRef) IsPending() bool {
	return r.pending
}

// Reconciler maps temporary identifiers to the server-assigned ones once a
// create completes. The map is additive during a session; entries are
// pruned only when the pending row they belong to has left the cache.
type Reconciler struct {
	realByTemp map[string]string
}

func NewReconciler() *Reconciler {
	return &Reconciler{realByTemp: make(map[string]string)}
}

// Record stores the temp → real mapping for one completed create. Each
// temporary id maps to exactly one real id.
func (r *Reconciler) Record(tempID, realID string) {
	r.realByTemp[tempID] = realID
}

// Resolve returns the id to use for server calls. Persisted refs and
// unmapped pending refs pass through unchanged.
func (r *Reconciler) Resolve(ref NoteRef) string {
	if !ref.IsPending() {
		return ref.ID()
	}
	if real, ok := r.realByTemp[ref.ID()]; ok {
		return real
	}
	return ref.ID()
}

func (r *Reconciler) Resolved(tempID string) (string, bool) {
	real, ok := r.realByTemp[tempID]
	return real, ok
}

// Prune drops mappings whose temporary id no longer matters, i.e. the
// pending row has left the cache. Keeps a long session's map bounded.
func (r *Reconciler) Prune(live func(tempID string) bool) {
	for tempID := range r.realByTemp {
		if !live(tempID) {
			delete(r.realByTemp, tempID)
		}
	}
}

func (r *Reconciler) Forget(tempID string) {
	delete(r.realByTemp, tempID)
}

func (r *Reconciler) Len() int {
	return len(r.realByTemp)
}
