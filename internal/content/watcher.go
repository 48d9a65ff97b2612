package content

import (
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Callback receives the node a matcher found.
type Callback func(node *goquery.Selection)

type registration struct {
	id      int
	matcher Matcher
	cb      Callback
	once    bool
}

// Watcher re-tests matcher/callback registrations against each document
// snapshot it is notified with.
type Watcher struct {
	mu   sync.Mutex
	regs []*registration
	seq  int
}

// NewWatcher creates an empty watcher.
func NewWatcher() *Watcher {
	return &Watcher{}
}

// Watch invokes cb on every notification where m matches.
func (w *Watcher) Watch(m Matcher, cb Callback) (cancel func()) {
	return w.add(m, cb, false)
}

// WatchOnce invokes cb on the first matching notification only.
func (w *Watcher) WatchOnce(m Matcher, cb Callback) (cancel func()) {
	return w.add(m, cb, true)
}

func (w *Watcher) add(m Matcher, cb Callback, once bool) func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.seq++
	id := w.seq
	w.regs = append(w.regs, &registration{id: id, matcher: m, cb: cb, once: once})
	return func() { w.remove(id) }
}

func (w *Watcher) remove(id int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, r := range w.regs {
		if r.id == id {
			w.regs = append(w.regs[:i], w.regs[i+1:]...)
			return true
		}
	}
	return false
}

// Notify tests every registration against doc. Callbacks run without the
// lock held and may register or cancel watches.
func (w *Watcher) Notify(doc *goquery.Document) {
	w.mu.Lock()
	regs := make([]*registration, len(w.regs))
	copy(regs, w.regs)
	w.mu.Unlock()

	for _, r := range regs {
		node := r.matcher.Match(doc)
		if node.Length() == 0 {
			continue
		}
		// A once-registration fires only if this call removed it.
		if r.once && !w.remove(r.id) {
			continue
		}
		r.cb(node)
	}
}

// Len returns the number of live registrations.
func (w *Watcher) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.regs)
}
