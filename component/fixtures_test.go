package component

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
)

// Test fixtures
// ---------------------------------------------------------------------

// recorder collects the lifecycle calls made on test components.
type recorder struct {
	calls   []string
	notes   []string
	decline map[string]bool
	fail    map[string]string
	refuse  map[string]bool
}

func newRecorder() *recorder {
	return &recorder{
		decline: make(map[string]bool),
		fail:    make(map[string]string),
		refuse:  make(map[string]bool),
	}
}

func (r *recorder) call(name, method string) error {
	r.calls = append(r.calls, name+"."+method)
	if r.fail[name] == method {
		return fmt.Errorf("%s.%s failed", name, method)
	}
	return nil
}

// node is embedded by the test component types. It activates unless the
// recorder says otherwise and records both service phases.
type node struct {
	name string
	rec  *recorder
}

func (n *node) nodeName() string { return n.name }

func (n *node) CanActivate(rc *RunContext) bool { return !n.rec.decline[n.name] }

func (n *node) Announce(rc *RunContext) error { return n.rec.call(n.name, "Announce") }

func (n *node) Build(rc *RunContext) error { return n.rec.call(n.name, "Build") }

type nodeA struct{ node }
type nodeB struct{ node }
type nodeC struct{ node }
type nodeD struct{ node }

// watching adds DependencyObserver to a node.
type watching struct{ node }

func (w *watching) ObserveInvocation(inv Invocation) error {
	from := "?"
	if n, ok := inv.Instance.(interface{ nodeName() string }); ok {
		from = n.nodeName()
	}
	w.rec.notes = append(w.rec.notes, w.name+"<-"+from+"."+inv.Method)
	if w.rec.refuse[w.name] {
		return fmt.Errorf("%s refused", w.name)
	}
	return nil
}

type watchTop struct{ watching }
type watchMid struct{ watching }
type watchLeaf struct{ watching }

// panel implements only the presentation phases.
type panel struct {
	name string
	rec  *recorder
}

func (p *panel) Prepare(rc *RunContext) error { return p.rec.call(p.name, "Prepare") }

func (p *panel) Render(rc *RunContext) error { return p.rec.call(p.name, "Render") }

// inert implements no lifecycle interface at all.
type inert struct{}

// nodeDef defines T as a recorded node called name.
func nodeDef[T any](name string, wrap func(node) *T, deps ...Kind) Definition {
	return Define[T](deps...).WithConstructors(func(rec *recorder) *T {
		return wrap(node{name: name, rec: rec})
	})
}

func wrapA(n node) *nodeA { return &nodeA{n} }
func wrapB(n node) *nodeB { return &nodeB{n} }
func wrapC(n node) *nodeC { return &nodeC{n} }
func wrapD(n node) *nodeD { return &nodeD{n} }

func wrapTop(n node) *watchTop   { return &watchTop{watching{n}} }
func wrapMid(n node) *watchMid   { return &watchMid{watching{n}} }
func wrapLeaf(n node) *watchLeaf { return &watchLeaf{watching{n}} }

// testSource is a ConfigSource backed by a type table and a nested map.
type testSource struct {
	values map[reflect.Type]any
	tree   map[string]any
}

func newTestSource(values ...any) *testSource {
	s := &testSource{
		values: make(map[reflect.Type]any),
		tree:   make(map[string]any),
	}
	for _, v := range values {
		s.values[reflect.TypeOf(v)] = v
	}
	return s
}

func (s *testSource) Resolve(shape reflect.Type) (any, bool) {
	v, ok := s.values[shape]
	return v, ok
}

func (s *testSource) Lookup(path string, shape reflect.Type) (any, bool, error) {
	var current any = s.tree
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false, nil
		}
		if current, ok = m[part]; !ok {
			return nil, false, nil
		}
	}
	v := reflect.ValueOf(current)
	if !v.Type().ConvertibleTo(shape) {
		return nil, false, fmt.Errorf("cannot convert %T to %s", current, shape)
	}
	return v.Convert(shape).Interface(), true, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mapDecls is a Declarations backed by a literal adjacency list.
type mapDecls map[Kind][]Kind

func (d mapDecls) IsLegalKind(kind Kind) bool {
	_, ok := d[kind]
	return ok
}

func (d mapDecls) DependenciesOf(kind Kind) []Kind {
	return d[kind]
}

func tk(name string) Kind {
	return Kind{Module: "test", Type: name}
}
