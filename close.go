package facetree

// Close releases the term result cache. Searches started after Close fail
// with ErrClosed. Closing twice is a no-op.
func (e *Engine) Close() error {
	if e == nil || !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	if e.l1 != nil {
		return e.l1.Close()
	}
	return nil
}
