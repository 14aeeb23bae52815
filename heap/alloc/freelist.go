package alloc

import "github.com/joshuapare/heapkit/internal/format"

// Segregated free lists. Roots live in the in-band root table; pred and succ
// live in the first two payload words of each free block. Both insert and
// remove are O(1) and are no-ops when the layout has no lists.

func (a *Allocator) classOf(size int) int {
	return format.ClassOf(size, a.layout.ListLimit)
}

func (a *Allocator) root(class int) int {
	return int(a.word(a.layout.RootOffset(class)))
}

func (a *Allocator) setRoot(class, p int) {
	a.setWord(a.layout.RootOffset(class), uint32(p))
}

func (a *Allocator) pred(p int) int { return int(a.word(p + format.PredLinkOffset)) }
func (a *Allocator) succ(p int) int { return int(a.word(p + format.SuccLinkOffset)) }

func (a *Allocator) setPred(p, v int) { a.setWord(p+format.PredLinkOffset, uint32(v)) }
func (a *Allocator) setSucc(p, v int) { a.setWord(p+format.SuccLinkOffset, uint32(v)) }

// insert pushes free block p onto the front of its class list.
func (a *Allocator) insert(p int) {
	if !a.layout.Linked() {
		return
	}
	c := a.classOf(a.size(p))
	old := a.root(c)
	a.setPred(p, format.NilOffset)
	a.setSucc(p, old)
	if old != format.NilOffset {
		a.setPred(old, p)
	}
	a.setRoot(c, p)
}

// remove unlinks free block p. The class is derived from p's current
// header, so it must run before p's tags change.
func (a *Allocator) remove(p int) {
	if !a.layout.Linked() {
		return
	}
	c := a.classOf(a.size(p))
	pred, succ := a.pred(p), a.succ(p)
	if pred == format.NilOffset {
		a.setRoot(c, succ)
	} else {
		a.setSucc(pred, succ)
	}
	if succ != format.NilOffset {
		a.setPred(succ, pred)
	}
}
