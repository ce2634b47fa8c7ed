package contract

// Constant is the value type contract storage and native function
// arguments traffic in: whatever the VM's bytecode can represent as a
// constant (integers, bools, byte strings). The host never interprets it
// beyond storing and returning it.
type Constant = any

// Storage is the backing adapter a ChainState overlay falls through to on
// a miss — the embedder's persistent contract key-value store, keyed by
// the same u64 keys bytecode uses.
type Storage interface {
	Load(key uint64) (Constant, bool)
}

// tombstone marks a key deleted in the overlay without forwarding to the
// backing store: it's the Some(None) case of Option<Option<Constant>> you
// get from flattening "present in overlay, deleted" into one map.
type tombstone struct{}

// Overlay is the per-invocation storage scratch described in spec §4.4: a
// write and delete buffer over a read-only backing Storage, with explicit
// tombstones so a delete-then-load inside the same invocation observes
// the delete rather than falling through to a stale backing value.
type Overlay struct {
	backing Storage
	pending map[uint64]Constant
}

// NewOverlay wraps backing in a fresh, empty overlay.
func NewOverlay(backing Storage) *Overlay {
	return &Overlay{backing: backing, pending: make(map[uint64]Constant)}
}

// Load implements storage.load: an overlay hit (including a tombstone)
// short-circuits the backing store entirely.
func (o *Overlay) Load(key uint64) (Constant, bool) {
	if v, ok := o.pending[key]; ok {
		if _, deleted := v.(tombstone); deleted {
			return nil, false
		}
		return v, true
	}
	if o.backing == nil {
		return nil, false
	}
	return o.backing.Load(key)
}

// Has implements storage.has as load(k).is_some().
func (o *Overlay) Has(key uint64) bool {
	_, ok := o.Load(key)
	return ok
}

// Store implements storage.store, buffering the write in the overlay.
func (o *Overlay) Store(key uint64, value Constant) {
	o.pending[key] = value
}

// Delete implements storage.delete by writing a tombstone, rather than
// removing the pending entry outright — the distinction matters when the
// key also exists in the backing store, which Load must no longer see.
func (o *Overlay) Delete(key uint64) {
	o.pending[key] = tombstone{}
}

// Writes returns every key the invocation touched (stored or deleted),
// keyed on whether the final state is a value or a tombstone — flushing
// these into the backing store is the embedder's responsibility post
// execution, per spec §4.4's "commit is the responsibility of the caller".
type OverlayWrite struct {
	Key     uint64
	Value   Constant
	Deleted bool
}

func (o *Overlay) Writes() []OverlayWrite {
	writes := make([]OverlayWrite, 0, len(o.pending))
	for k, v := range o.pending {
		if _, deleted := v.(tombstone); deleted {
			writes = append(writes, OverlayWrite{Key: k, Deleted: true})
			continue
		}
		writes = append(writes, OverlayWrite{Key: k, Value: v})
	}
	return writes
}
