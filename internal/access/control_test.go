package access

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dshills/syncaccess/internal/native"
)

func TestControl_PrematureCreate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	orphan := NewControl(h.env, native.KindLabel, native.StyleNone)
	if orphan.CanCreate() {
		t.Error("CanCreate() = true without a parent")
	}
	if err := orphan.Create(ctx); !errors.Is(err, ErrNotCreatable) {
		t.Errorf("Create() error = %v, want ErrNotCreatable", err)
	}

	shell := NewShell(h.env, native.StyleNone)
	must(t, orphan.SetParentAccess(ctx, shell))
	if orphan.CanCreate() {
		t.Error("CanCreate() = true under an unrealized shell")
	}
	if err := orphan.Create(ctx); !errors.Is(err, ErrNotCreatable) {
		t.Errorf("Create() error = %v, want ErrNotCreatable", err)
	}
	if shell.HasDelegate() {
		t.Error("attaching a child must not realize the parent")
	}
	if n := h.countCreates(); n != 0 {
		t.Errorf("%d native creates, want 0", n)
	}
}

func TestControl_ParentGatedCreation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	root := NewShell(h.env, native.StyleNone)
	leaf := NewControl(h.env, native.KindLabel, native.StyleNone)
	must(t, leaf.SetText(ctx, "staged"))

	// Attached before the root exists: stays unrealized, no error.
	must(t, leaf.SetParentAccess(ctx, root))
	if leaf.HasDelegate() {
		t.Fatal("leaf realized before its parent")
	}

	// Creating the root does not create the leaf.
	must(t, root.Create(ctx))
	if !root.HasDelegate() {
		t.Fatal("root not realized")
	}
	if leaf.HasDelegate() {
		t.Error("creating the parent realized the child")
	}
	if !leaf.CanCreate() {
		t.Error("CanCreate() = false under a realized root")
	}

	// Re-attaching to the now-live root realizes the leaf immediately.
	must(t, leaf.SetParentAccess(ctx, root))
	if !leaf.HasDelegate() {
		t.Fatal("re-attach under a live parent did not realize the leaf")
	}
	if got, want := h.nativeParent(t, leaf.Node), h.nativeID(t, root.Node); got != want {
		t.Errorf("native parent = %d, want %d", got, want)
	}

	var text string
	h.onUI(t, func() { text = leaf.Delegate().Text() })
	if text != "staged" {
		t.Errorf("delegate text = %q, want staged value", text)
	}
	if n := h.countCreates(); n != 2 {
		t.Errorf("%d native creates, want 2", n)
	}
	if got := len(root.Children()); got != 1 {
		t.Errorf("root has %d children after re-attach, want 1", got)
	}
}

func TestControl_ExplicitCreateUnderLiveRoot(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	root := NewShell(h.env, native.StyleNone)
	leaf := NewControl(h.env, native.KindButton, native.StyleNone)
	must(t, leaf.SetParentAccess(ctx, root))
	must(t, root.Create(ctx))

	must(t, leaf.Create(ctx))
	must(t, leaf.Create(ctx))
	if !leaf.HasDelegate() {
		t.Fatal("leaf not realized")
	}
	if n := h.countCreates(); n != 2 {
		t.Errorf("%d native creates, want 2 (second Create is a no-op)", n)
	}
}

func TestControl_DeepChainCreatedBottomUpOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	shell := h.shell(t)

	const depth = 6
	chain := make([]*Composite, depth)
	for i := range chain {
		chain[i] = NewComposite(h.env, native.KindComposite, native.StyleNone)
	}
	leaf := NewControl(h.env, native.KindLabel, native.StyleNone)

	// Attach every link concurrently in a shuffled order.
	type link struct {
		child  interface{ SetParentAccess(context.Context, Parent) error }
		parent Parent
	}
	links := []link{{chain[0], shell}}
	for i := 1; i < depth; i++ {
		links = append(links, link{chain[i], chain[i-1]})
	}
	links = append(links, link{leaf, chain[depth-1]})
	rand.Shuffle(len(links), func(i, j int) { links[i], links[j] = links[j], links[i] })

	var wg sync.WaitGroup
	for _, l := range links {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.child.SetParentAccess(ctx, l.parent); err != nil {
				t.Errorf("SetParentAccess() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if !leaf.CanCreate() {
		t.Fatal("leaf not creatable with a realized shell at the top")
	}
	must(t, leaf.Create(ctx))

	// Every node realized, each exactly once, under its own parent's delegate.
	if n := h.countCreates(); n != depth+2 {
		t.Errorf("%d native creates, want %d", n, depth+2)
	}
	parentID := h.nativeID(t, shell.Node)
	for i, c := range chain {
		if !c.HasDelegate() {
			t.Fatalf("chain[%d] not realized", i)
		}
		if got := h.nativeParent(t, c.Node); got != parentID {
			t.Errorf("chain[%d] native parent = %d, want %d", i, got, parentID)
		}
		parentID = h.nativeID(t, c.Node)
	}
	if got := h.nativeParent(t, leaf.Node); got != parentID {
		t.Errorf("leaf native parent = %d, want %d", got, parentID)
	}
}

func TestControl_ReparentRealizedFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	shell := h.shell(t)
	a := NewComposite(h.env, native.KindComposite, native.StyleNone)
	b := NewComposite(h.env, native.KindGroup, native.StyleNone)
	must(t, a.SetParentAccess(ctx, shell))
	must(t, b.SetParentAccess(ctx, shell))

	label := NewControl(h.env, native.KindLabel, native.StyleNone)
	must(t, label.SetParentAccess(ctx, a))
	if err := label.SetParentAccess(ctx, b); !errors.Is(err, ErrReparent) {
		t.Errorf("SetParentAccess() error = %v, want ErrReparent", err)
	}
	if label.Parent() != a {
		t.Error("failed reparent changed the parent")
	}
}

func TestControl_UnrealizedReparent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := NewComposite(h.env, native.KindComposite, native.StyleNone)
	b := NewComposite(h.env, native.KindComposite, native.StyleNone)

	label := NewControl(h.env, native.KindLabel, native.StyleNone)
	must(t, label.SetParentAccess(ctx, a))
	must(t, label.SetParentAccess(ctx, b))

	if len(a.Children()) != 0 || len(b.Children()) != 1 {
		t.Errorf("children a=%d b=%d", len(a.Children()), len(b.Children()))
	}
	if label.Parent() != b {
		t.Error("Parent() not updated")
	}
}

func TestControl_ParentCycleRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := NewComposite(h.env, native.KindComposite, native.StyleNone)
	b := NewComposite(h.env, native.KindComposite, native.StyleNone)
	c := NewComposite(h.env, native.KindComposite, native.StyleNone)

	if err := a.SetParentAccess(ctx, a); !errors.Is(err, ErrCycle) {
		t.Errorf("self parent error = %v, want ErrCycle", err)
	}
	if a.Parent() != nil {
		t.Error("rejected self parent was recorded")
	}

	must(t, a.SetParentAccess(ctx, b))
	must(t, b.SetParentAccess(ctx, c))
	if err := c.SetParentAccess(ctx, a); !errors.Is(err, ErrCycle) {
		t.Errorf("cycle error = %v, want ErrCycle", err)
	}
	if c.Parent() != nil || len(a.Children()) != 0 {
		t.Error("rejected cycle changed the tree")
	}

	done := make(chan bool, 1)
	go func() { done <- a.CanCreate() }()
	select {
	case ok := <-done:
		if ok {
			t.Error("CanCreate() = true with no realized ancestor")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("CanCreate() did not return")
	}
	if err := a.Create(ctx); !errors.Is(err, ErrNotCreatable) {
		t.Errorf("Create() error = %v, want ErrNotCreatable", err)
	}
}

func TestComposite_StagedLayoutFlushedOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	shell := h.shell(t)

	staged := NewComposite(h.env, native.KindComposite, native.StyleNone)
	plain := NewComposite(h.env, native.KindComposite, native.StyleNone)
	must(t, staged.SetLayout(ctx, native.StackLayout{Vertical: true}))
	must(t, staged.SetParentAccess(ctx, shell))
	must(t, plain.SetParentAccess(ctx, shell))

	count := func(n *Node) int {
		total := 0
		for _, m := range h.methods(h.nativeID(t, n)) {
			if m == "setLayout" {
				total++
			}
		}
		return total
	}
	if got := count(staged.Node); got != 1 {
		t.Errorf("staged composite setLayout calls = %d, want 1", got)
	}
	if got := count(plain.Node); got != 0 {
		t.Errorf("composite without a layout got %d setLayout calls", got)
	}
}

func TestShell_RejectsParent(t *testing.T) {
	h := newHarness(t)
	s := NewShell(h.env, native.StyleNone)
	other := NewComposite(h.env, native.KindComposite, native.StyleNone)
	if err := s.SetParentAccess(context.Background(), other); !errors.Is(err, ErrShellParent) {
		t.Errorf("SetParentAccess() error = %v, want ErrShellParent", err)
	}
}

func TestComposite_LayoutStagedAndApplied(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	shell := NewShell(h.env, native.StyleNone)
	must(t, shell.SetSize(ctx, native.Size{Width: 10, Height: 4}))
	must(t, shell.SetLayout(ctx, native.StackLayout{Vertical: true}))
	must(t, shell.Layout(ctx)) // no-op before creation

	a := NewControl(h.env, native.KindLabel, native.StyleNone)
	b := NewControl(h.env, native.KindLabel, native.StyleNone)
	must(t, a.SetSize(ctx, native.Size{Width: 3, Height: 1}))
	must(t, b.SetSize(ctx, native.Size{Width: 3, Height: 2}))
	must(t, a.SetParentAccess(ctx, shell))
	must(t, b.SetParentAccess(ctx, shell))

	must(t, shell.Create(ctx))
	id := h.nativeID(t, shell.Node)
	got := h.methods(id)
	if want := []string{"create", "setSize", "setLayout"}; strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("shell calls = %v, want %v", got, want)
	}

	must(t, a.Create(ctx))
	must(t, b.Create(ctx))
	must(t, shell.Layout(ctx))

	if loc, _ := b.Location(ctx); loc != (native.Point{X: 0, Y: 1}) {
		t.Errorf("b located at %+v after layout", loc)
	}
}

func TestComposite_Tree(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	shell := h.shell(t)

	group := NewComposite(h.env, native.KindGroup, native.StyleNone)
	must(t, group.SetParentAccess(ctx, shell))
	label := NewControl(h.env, native.KindLabel, native.StyleNone)
	must(t, label.SetText(ctx, "hi"))
	must(t, label.SetParentAccess(ctx, group))
	pending := NewControl(h.env, native.KindButton, native.StyleNone)
	must(t, pending.SetParentAccess(ctx, NewComposite(h.env, native.KindComposite, native.StyleNone)))

	tree, err := shell.Tree(ctx)
	if err != nil {
		t.Fatalf("Tree() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(tree), "\n")
	if len(lines) != 3 {
		t.Fatalf("Tree() = %q", tree)
	}
	if !strings.HasPrefix(lines[0], "shell#") || !strings.HasSuffix(lines[0], "created") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "  group#") {
		t.Errorf("line 1 = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "    label#") || !strings.HasSuffix(lines[2], `created "hi"`) {
		t.Errorf("line 2 = %q", lines[2])
	}
}

func TestDispose_Unrealized(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	shell := h.shell(t)

	label := NewControl(h.env, native.KindLabel, native.StyleNone)
	must(t, label.Dispose(ctx))
	must(t, label.Dispose(ctx))

	if !label.IsDisposed(ctx) || label.State() != StateDisposed {
		t.Error("node not disposed")
	}
	if visible, _ := label.Visible(ctx); visible {
		t.Error("Visible() = true after dispose")
	}

	// A disposed node is never realized.
	must(t, label.SetParentAccess(ctx, shell))
	if label.HasDelegate() {
		t.Error("disposed node realized on attach")
	}
	if err := label.Create(ctx); !errors.Is(err, ErrDisposed) {
		t.Errorf("Create() error = %v, want ErrDisposed", err)
	}
	if n := h.countCreates(); n != 1 {
		t.Errorf("%d native creates, want only the shell", n)
	}
}

func TestDispose_RealizedAndMonotonic(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	shell := h.shell(t)

	label := NewControl(h.env, native.KindLabel, native.StyleNone)
	must(t, label.SetText(ctx, "last"))
	must(t, label.SetParentAccess(ctx, shell))
	id := h.nativeID(t, label.Node)

	must(t, label.Dispose(ctx))
	if !label.IsDisposed(ctx) || label.HasDelegate() {
		t.Fatal("node not disposed")
	}
	methods := h.methods(id)
	if methods[len(methods)-1] != "dispose" {
		t.Errorf("native calls = %v, want trailing dispose", methods)
	}

	// Mutators are dropped, queries answer from staged state.
	h.kit.ResetCalls()
	must(t, label.SetText(ctx, "ignored"))
	must(t, label.SetVisible(ctx, true))
	if calls := h.kit.Calls(); len(calls) != 0 {
		t.Errorf("native calls after dispose: %v", calls)
	}
	if got, _ := label.Text(ctx); got != "last" {
		t.Errorf("Text() = %q, want last known value", got)
	}
	if visible, _ := label.Visible(ctx); visible {
		t.Error("Visible() = true after dispose")
	}
	if enabled, _ := label.Enabled(ctx); enabled {
		t.Error("Enabled() = true after dispose")
	}
	if !label.IsDisposed(ctx) {
		t.Error("disposal is not monotonic")
	}
}

func TestDispose_NativeSideDetected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	shell := h.shell(t)

	label := NewControl(h.env, native.KindLabel, native.StyleNone)
	must(t, label.SetParentAccess(ctx, shell))
	other := NewControl(h.env, native.KindLabel, native.StyleNone)
	must(t, other.SetParentAccess(ctx, shell))

	// Destroy both widgets behind the nodes' backs.
	h.onUI(t, func() {
		label.Delegate().Dispose()
		other.Delegate().Dispose()
	})

	if !label.IsDisposed(ctx) {
		t.Error("IsDisposed() did not detect native disposal")
	}

	// An ordinary operation detects it too, without panicking.
	must(t, other.SetText(ctx, "x"))
	if other.State() != StateDisposed {
		t.Errorf("State() = %s, want disposed", other.State())
	}
	if visible, _ := other.Visible(ctx); visible {
		t.Error("Visible() = true after native disposal")
	}
}

func TestDispose_CompositePropagates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	shell := h.shell(t)

	group := NewComposite(h.env, native.KindGroup, native.StyleNone)
	must(t, group.SetParentAccess(ctx, shell))
	realized := NewControl(h.env, native.KindLabel, native.StyleNone)
	must(t, realized.SetParentAccess(ctx, group))
	inner := NewComposite(h.env, native.KindComposite, native.StyleNone)
	must(t, inner.SetParentAccess(ctx, group))
	unrealized := NewControl(h.env, native.KindButton, native.StyleNone)
	must(t, unrealized.Dispose(ctx)) // ensure attach below does nothing odd
	fresh := NewControl(h.env, native.KindButton, native.StyleNone)

	// fresh is attached to inner after inner is realized, then the shell goes.
	must(t, fresh.SetParentAccess(ctx, inner))
	must(t, shell.Dispose(ctx))

	for _, n := range []*Node{group.Node, realized.Node, inner.Node, fresh.Node} {
		if !n.IsDisposed(ctx) {
			t.Errorf("%s not disposed with its shell", n.Label())
		}
	}
	if len(h.kit.Shells()) != 0 {
		t.Error("native shell still live")
	}
}

func TestDispose_RacesWithCreation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	gate := newGatedToolkit(h.kit)
	h.env.Toolkit = gate

	shell := h.shell(t)
	label := NewControl(h.env, native.KindLabel, native.StyleNone)

	attached := make(chan error, 1)
	go func() { attached <- label.SetParentAccess(ctx, shell) }()

	select {
	case <-gate.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("creation never started")
	}

	// The UI goroutine is inside Create: Dispose must not wait for it.
	disposed := make(chan error, 1)
	go func() { disposed <- label.Dispose(ctx) }()
	select {
	case err := <-disposed:
		must(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Dispose blocked on an in-progress creation")
	}

	close(gate.release)
	must(t, <-attached)

	if label.HasDelegate() {
		t.Error("node kept a delegate after disposal during creation")
	}
	var live int
	h.onUI(t, func() {
		for _, s := range h.kit.Shells() {
			live += len(s.Children())
		}
	})
	if live != 0 {
		t.Errorf("%d native children survive, want 0", live)
	}
}
