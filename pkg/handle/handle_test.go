package handle

import "testing"

type item struct {
	h   Entity
	tag bool
	val string
}

func (i *item) Handle() Entity     { return i.h }
func (i *item) SetHandle(h Entity) { i.h = h }
func (i *item) Tagged() bool       { return i.tag }
func (i *item) SetTag(t bool)      { i.tag = t }

type itemList = IDList[item, *item, Entity]

func TestGroupHandles(t *testing.T) {
	g := Group(5)
	e := g.Entity(7)
	if e.IsFromRequest() {
		t.Fatalf("%s reported as request-owned", e)
	}
	if got := e.Group(); got != g {
		t.Errorf("Group() = %s, want %s", got, g)
	}
	if got := e.Local(); got != 7 {
		t.Errorf("Local() = %d, want 7", got)
	}
	p := g.Param(2)
	if p.IsFromRequest() || p.IsFromConstraint() {
		t.Fatalf("%s reported as request/constraint owned", p)
	}
	if got := p.Group(); got != g {
		t.Errorf("param Group() = %s, want %s", got, g)
	}
}

func TestRequestHandles(t *testing.T) {
	r := Request(9)
	e := r.Entity(1)
	if !e.IsFromRequest() {
		t.Fatalf("%s not reported as request-owned", e)
	}
	if got := e.Request(); got != r {
		t.Errorf("Request() = %s, want %s", got, r)
	}
	p := r.Param(16)
	if got := p.Request(); got != r {
		t.Errorf("param Request() = %s, want %s", got, r)
	}
}

func TestConstraintParam(t *testing.T) {
	p := Constraint(3).Param(0)
	if !p.IsFromConstraint() {
		t.Errorf("%s not reported as constraint-owned", p)
	}
	if p.IsFromRequest() {
		t.Errorf("%s reported as request-owned", p)
	}
}

func TestHandlesAreDistinct(t *testing.T) {
	seen := map[Entity]string{}
	for g := Group(1); g < 4; g++ {
		for i := 0; i < 3; i++ {
			e := g.Entity(i)
			if prev, ok := seen[e]; ok {
				t.Fatalf("%s collides with %s", e, prev)
			}
			seen[e] = "group"
		}
	}
	for r := Request(1); r < 4; r++ {
		for i := 0; i < 3; i++ {
			e := r.Entity(i)
			if prev, ok := seen[e]; ok {
				t.Fatalf("%s collides with %s", e, prev)
			}
			seen[e] = "request"
		}
	}
}

func TestLocalIndexOverflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range local index")
		}
	}()
	Group(1).Entity(MaxLocalIndex + 1)
}

func TestIDListAddAndAssign(t *testing.T) {
	var l itemList
	a := l.AddAndAssignID(item{val: "a"})
	b := l.AddAndAssignID(item{val: "b"})
	if b <= a {
		t.Fatalf("ids not increasing: %s then %s", a, b)
	}
	if got := l.FindByID(b).val; got != "b" {
		t.Errorf("FindByID(b).val = %q, want b", got)
	}

	// Removing the highest id must not let it be reissued.
	l.RemoveByID(b)
	c := l.AddAndAssignID(item{val: "c"})
	if c <= b {
		t.Errorf("reissued id %s after removing %s", c, b)
	}
}

func TestIDListSortedInsert(t *testing.T) {
	var l itemList
	for _, h := range []Entity{30, 10, 20} {
		l.Add(item{h: h})
	}
	got := l.Handles()
	want := []Entity{10, 20, 30}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Handles() = %v, want %v", got, want)
		}
	}
}

func TestIDListFind(t *testing.T) {
	var l itemList
	l.Add(item{h: 4, val: "x"})

	if l.FindByIDNoOops(5) != nil {
		t.Error("FindByIDNoOops returned an object for a missing id")
	}
	if !l.Contains(4) {
		t.Error("Contains(4) = false")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("FindByID on a missing id did not panic")
		}
	}()
	l.FindByID(5)
}

func TestIDListDuplicatePanics(t *testing.T) {
	var l itemList
	l.Add(item{h: 1})
	defer func() {
		if recover() == nil {
			t.Fatal("duplicate Add did not panic")
		}
	}()
	l.Add(item{h: 1})
}

func TestIDListRemoveTagged(t *testing.T) {
	var l itemList
	for h := Entity(1); h <= 6; h++ {
		l.Add(item{h: h})
	}
	l.ClearTags()
	for h := range l.All() {
		if h%2 == 0 {
			l.Tag(h)
		}
	}
	if n := l.RemoveTagged(); n != 3 {
		t.Fatalf("RemoveTagged() = %d, want 3", n)
	}
	for h, it := range l.All() {
		if h%2 == 0 {
			t.Errorf("tagged id %s survived", h)
		}
		if it.h != h {
			t.Errorf("object moved under a different handle: %s vs %s", it.h, h)
		}
	}
	if l.Len() != 3 {
		t.Errorf("Len() = %d, want 3", l.Len())
	}
}
