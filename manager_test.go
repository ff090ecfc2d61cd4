package emitter

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// traceListener records its tag into a shared call log.
type traceListener struct {
	tag string
	log *[]string
}

func (l traceListener) Handle(_ context.Context, _ *Event) error {
	*l.log = append(*l.log, l.tag)
	return nil
}

func TestManager_AddListener_SingleName(t *testing.T) {
	m := NewManager()
	var log []string
	l := traceListener{"a", &log}

	if !m.AddListener(l, "user.created") {
		t.Fatal("AddListener returned false")
	}
	if !m.HasListener(l, "user.created") {
		t.Error("expected listener registered")
	}
}

func TestManager_AddListener_PriorityMap(t *testing.T) {
	m := NewManager()
	var log []string
	l := traceListener{"a", &log}

	ok := m.AddListener(l, map[string]Priority{
		"user.created": PriorityHigh,
		"user.deleted": PriorityLow,
	})
	if !ok {
		t.Fatal("AddListener returned false")
	}
	if p, _ := m.ListenerPriority(l, "user.created"); p != PriorityHigh {
		t.Errorf("priority = %v, want PriorityHigh", p)
	}
	if p, _ := m.ListenerPriority(l, "user.deleted"); p != PriorityLow {
		t.Errorf("priority = %v, want PriorityLow", p)
	}
}

func TestManager_AddListener_IntMap(t *testing.T) {
	m := NewManager()
	var log []string
	l := traceListener{"a", &log}

	if !m.AddListener(l, map[string]int{"e": 42}) {
		t.Fatal("AddListener returned false")
	}
	if p, _ := m.ListenerPriority(l, "e"); p != 42 {
		t.Errorf("priority = %v, want 42", p)
	}
}

func TestManager_AddListener_NameList(t *testing.T) {
	m := NewManager()
	var log []string
	l := traceListener{"a", &log}

	if !m.AddListener(l, []string{"a.x", "a.y"}) {
		t.Fatal("AddListener returned false")
	}
	if m.CountListeners("a.x") != 1 || m.CountListeners("a.y") != 1 {
		t.Error("expected listener in both queues")
	}
}

func TestManager_AddListener_NoBinding(t *testing.T) {
	m := NewManager()
	var log []string
	l := traceListener{"a", &log}

	if m.AddListener(l, nil) {
		t.Error("nil definition should be a no-op returning false")
	}
	if m.AddListener(l, PriorityHigh) {
		t.Error("priority-only definition for a non-subscriber should return false")
	}
	if m.AddListener(nil, "e") {
		t.Error("nil listener should return false")
	}
	if m.AddListener(l, 3.14) {
		t.Error("unsupported definition should return false")
	}
}

func TestManager_AddListener_TrimsNames(t *testing.T) {
	m := NewManager()
	var log []string
	l := traceListener{"a", &log}

	if !m.AddListener(l, " .user.created. ") {
		t.Fatal("AddListener returned false")
	}
	if !m.HasListeners("user.created") {
		t.Error("expected trimmed queue name")
	}
	if m.AddListener(l, " . ") {
		t.Error("name empty after trimming should return false")
	}
}

func TestManager_AddListener_FactoryWrapped(t *testing.T) {
	m := NewManager()
	built := 0
	factory := func() (any, error) {
		built++
		var log []string
		return traceListener{"lazy", &log}, nil
	}

	if !m.AddListener(factory, "user.created") {
		t.Fatal("AddListener returned false")
	}
	if built != 0 {
		t.Errorf("factory ran %d times at registration, want 0", built)
	}

	if _, err := m.Trigger(context.Background(), "user.created", nil, nil); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if built != 1 {
		t.Errorf("factory ran %d times after trigger, want 1", built)
	}
}

func TestManager_RemoveListener_Factory(t *testing.T) {
	m := NewManager()
	fired := 0
	factory := func() (any, error) {
		return func(_ *Event) { fired++ }, nil
	}

	if !m.AddListener(factory, "e") {
		t.Fatal("AddListener returned false")
	}
	if !m.HasListener(factory, "e") {
		t.Error("expected factory listener registered")
	}

	// Removal by the original factory value reaches the lazy wrapper.
	m.RemoveListener(factory, "e")
	if m.HasListener(factory, "e") {
		t.Error("expected factory listener removed")
	}
	if _, err := m.Trigger(context.Background(), "e", nil, nil); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if fired != 0 {
		t.Errorf("removed listener fired %d times, want 0", fired)
	}
}

func TestManager_AddListener_FactoryReAddRepositions(t *testing.T) {
	m := NewManager()
	factory := func() (any, error) { return func(_ *Event) {}, nil }

	m.AddListener(factory, "e")
	m.Attach("e", factory, PriorityHigh)

	if m.CountListeners("e") != 1 {
		t.Errorf("CountListeners = %d, want 1: re-adding a factory must not duplicate", m.CountListeners("e"))
	}
	if p, ok := m.ListenerPriority(factory, "e"); !ok || p != PriorityHigh {
		t.Errorf("ListenerPriority = %v, %v; want PriorityHigh, true", p, ok)
	}
}

func TestManager_AttachDetach(t *testing.T) {
	m := NewManager()
	var log []string
	l := traceListener{"a", &log}

	if !m.Attach("e", l, PriorityHigh) {
		t.Fatal("Attach returned false")
	}
	if !m.HasListener(l, "e") {
		t.Error("expected listener attached")
	}

	m.Detach("e", l)
	if m.HasListener(l, "e") {
		t.Error("expected listener detached")
	}
}

func TestManager_RemoveListener_RoundTrip(t *testing.T) {
	m := NewManager()
	var log []string
	l := traceListener{"a", &log}

	m.AddListener(l, map[string]Priority{"e": 5})
	m.RemoveListener(l, "e")

	if m.HasListener(l, "e") {
		t.Error("expected listener removed")
	}
	// Removing an absent listener is still true.
	if !m.RemoveListener(l, "e") {
		t.Error("RemoveListener should always return true")
	}
}

func TestManager_RemoveListener_AllQueues(t *testing.T) {
	m := NewManager()
	var log []string
	l := traceListener{"a", &log}
	other := traceListener{"b", &log}

	m.AddListener(l, []string{"x", "y"})
	m.AddListener(other, "x")

	m.RemoveListener(l)
	if m.HasListener(l) {
		t.Error("expected listener removed everywhere")
	}
	if !m.HasListener(other, "x") {
		t.Error("other listeners must be untouched")
	}
}

func TestManager_ClearListeners(t *testing.T) {
	m := NewManager()
	var log []string
	m.AddListener(traceListener{"a", &log}, []string{"x", "y"})

	m.ClearListeners("x")
	if m.HasListeners("x") {
		t.Error("expected x cleared")
	}
	if !m.HasListeners("y") {
		t.Error("expected y to remain")
	}

	m.ClearListeners()
	if m.CountListeners() != 0 {
		t.Errorf("CountListeners() = %d, want 0", m.CountListeners())
	}
}

func TestManager_ListenedEvents(t *testing.T) {
	m := NewManager()
	var log []string
	m.AddListener(traceListener{"a", &log}, []string{"b.x", "a.y"})

	want := []string{"a.y", "b.x"}
	if got := m.ListenedEvents(); !reflect.DeepEqual(got, want) {
		t.Errorf("ListenedEvents() = %v, want %v", got, want)
	}
}

func TestManager_Templates(t *testing.T) {
	m := NewManager()
	tmpl := NewEvent("user.created")
	tmpl.SetParam("source", "import")

	if !m.AddEvent(tmpl) {
		t.Fatal("AddEvent returned false")
	}
	if m.AddEvent(NewEvent("user.created")) {
		t.Error("AddEvent should not replace an existing template")
	}
	if !m.HasEvent("user.created") {
		t.Error("expected template present")
	}
	if m.CountEvents() != 1 {
		t.Errorf("CountEvents() = %d, want 1", m.CountEvents())
	}

	got, ok := m.GetEvent("user.created")
	if !ok || got != tmpl {
		t.Error("expected the stored template back")
	}

	replacement := NewEvent("user.created")
	if !m.SetEvent(replacement) {
		t.Fatal("SetEvent returned false")
	}
	if got, _ := m.GetEvent("user.created"); got != replacement {
		t.Error("SetEvent should replace the template")
	}

	m.RemoveEvent("user.created")
	if m.HasEvent("user.created") {
		t.Error("expected template removed")
	}

	if m.AddEvent(nil) || m.SetEvent(nil) {
		t.Error("nil templates should be rejected")
	}
	if m.AddEvent(NewEvent("")) {
		t.Error("templates need a name")
	}
}

func TestManager_Trigger_Scenario(t *testing.T) {
	m := NewManager()
	calls := 0
	var gotName string
	var gotID any

	m.Attach("user.created", func(e *Event) {
		calls++
		gotName = e.Name()
		gotID, _ = e.Param("id")
	}, PriorityNormal)

	e, err := m.Trigger(context.Background(), "user.created", nil, NewParams().Set("id", 1))
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if gotName != "user.created" || gotID != 1 {
		t.Errorf("listener saw name=%q id=%v", gotName, gotID)
	}
	if e.Name() != "user.created" {
		t.Errorf("returned event name = %q", e.Name())
	}
}

func TestManager_Trigger_PriorityOrder(t *testing.T) {
	m := NewManager()
	var log []string

	m.Attach("e", traceListener{"low", &log}, PriorityLow)
	m.Attach("e", traceListener{"first-normal", &log}, PriorityNormal)
	m.Attach("e", traceListener{"second-normal", &log}, PriorityNormal)
	m.Attach("e", traceListener{"high", &log}, PriorityHigh)

	if _, err := m.Trigger(context.Background(), "e", nil, nil); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	want := []string{"high", "first-normal", "second-normal", "low"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("invocation order = %v, want %v", log, want)
	}
}

func TestManager_Trigger_PhaseOrder(t *testing.T) {
	m := NewManager()
	var log []string

	m.Attach("app.start", traceListener{"direct", &log}, PriorityNormal)
	m.Attach("app", traceListener{"prefix", &log}, PriorityNormal)
	m.Attach("app.*", traceListener{"group", &log}, PriorityNormal)
	m.Attach("*", traceListener{"global", &log}, PriorityNormal)

	if _, err := m.Trigger(context.Background(), "app.start", nil, nil); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	want := []string{"direct", "prefix", "group", "global"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("phase order = %v, want %v", log, want)
	}
}

func TestManager_Trigger_MethodHint(t *testing.T) {
	m := NewManager()
	a := &appListener{}
	m.Attach("app", a, PriorityNormal)

	if _, err := m.Trigger(context.Background(), "app.start", nil, nil); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if a.started != 1 {
		t.Errorf("started = %d, want 1: prefix queue gets the method hint", a.started)
	}
}

func TestManager_Trigger_GroupWildcardGetsHint(t *testing.T) {
	m := NewManager()
	a := &appListener{}
	m.Attach("app.*", a, PriorityNormal)

	if _, err := m.Trigger(context.Background(), "app.start", nil, nil); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if a.started != 1 {
		t.Errorf("started = %d, want 1: group queue gets the method hint", a.started)
	}
}

func TestManager_Trigger_GlobalReceivesEverything(t *testing.T) {
	m := NewManager()
	count := 0
	m.Attach("*", func(_ *Event) { count++ }, PriorityNormal)

	ctx := context.Background()
	for _, name := range []string{"a", "b.c", "d.e.f"} {
		if _, err := m.Trigger(ctx, name, nil, nil); err != nil {
			t.Fatalf("Trigger(%s): %v", name, err)
		}
	}
	if count != 3 {
		t.Errorf("global listener ran %d times, want 3", count)
	}
}

func TestManager_Trigger_StopHaltsQueueAndPhases(t *testing.T) {
	m := NewManager()
	var log []string

	m.Attach("app.start", func(e *Event) {
		log = append(log, "stopper")
		e.StopPropagation(true)
	}, PriorityHigh)
	m.Attach("app.start", traceListener{"same-queue", &log}, PriorityNormal)
	m.Attach("app", traceListener{"prefix", &log}, PriorityNormal)
	m.Attach("app.*", traceListener{"group", &log}, PriorityNormal)
	m.Attach("*", traceListener{"global", &log}, PriorityNormal)

	e, err := m.Trigger(context.Background(), "app.start", nil, nil)
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	want := []string{"stopper"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("invocations = %v, want %v", log, want)
	}
	if !e.IsPropagationStopped() {
		t.Error("returned event should carry the stop flag")
	}
}

func TestManager_Trigger_StopResetsPerCall(t *testing.T) {
	m := NewManager()
	stopped := true
	count := 0
	m.Attach("e", func(e *Event) {
		count++
		if stopped {
			e.StopPropagation(true)
		}
	}, PriorityNormal)
	m.Attach("e", func(_ *Event) { count++ }, PriorityLow)

	ctx := context.Background()
	if _, err := m.Trigger(ctx, "e", nil, nil); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if count != 1 {
		t.Fatalf("first pass calls = %d, want 1", count)
	}

	// The second trigger starts with the flag cleared and runs the full
	// queue independently of the first pass.
	stopped = false
	if _, err := m.Trigger(ctx, "e", nil, nil); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if count != 3 {
		t.Errorf("total calls = %d, want 3", count)
	}
}

func TestManager_Trigger_ParentDirectOnly(t *testing.T) {
	parent := NewManager()
	child := NewManager()
	child.SetParent(parent)

	var log []string
	parent.Attach("app.start", traceListener{"parent-direct", &log}, PriorityNormal)
	parent.Attach("app", traceListener{"parent-prefix", &log}, PriorityNormal)
	parent.Attach("app.*", traceListener{"parent-group", &log}, PriorityNormal)
	parent.Attach("*", traceListener{"parent-global", &log}, PriorityNormal)
	child.Attach("app.start", traceListener{"child-direct", &log}, PriorityNormal)

	if _, err := child.Trigger(context.Background(), "app.start", nil, nil); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	// The parent contributes only its direct-match queue; its own
	// hierarchical and global queues stay silent.
	want := []string{"child-direct", "parent-direct"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("invocations = %v, want %v", log, want)
	}
}

func TestManager_Trigger_ParentStop(t *testing.T) {
	parent := NewManager()
	child := NewManager()
	child.SetParent(parent)

	var log []string
	parent.Attach("app.start", func(e *Event) {
		log = append(log, "parent")
		e.StopPropagation(true)
	}, PriorityNormal)
	child.Attach("app", traceListener{"child-prefix", &log}, PriorityNormal)

	if _, err := child.Trigger(context.Background(), "app.start", nil, nil); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	want := []string{"parent"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("invocations = %v, want %v", log, want)
	}
}

func TestManager_Trigger_Template(t *testing.T) {
	m := NewManager()
	tmpl := NewEvent("user.created")
	tmpl.SetParam("source", "import")
	m.AddEvent(tmpl)

	var source any
	m.Attach("user.created", func(e *Event) {
		source, _ = e.Param("source")
	}, PriorityNormal)

	e, err := m.Trigger(context.Background(), "user.created", nil, nil)
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if e != tmpl {
		t.Error("expected the template instance to be dispatched")
	}
	if source != "import" {
		t.Errorf("listener saw source = %v, want import", source)
	}
}

func TestManager_Trigger_BasicEventClone(t *testing.T) {
	m := NewManager()
	proto := NewEvent("")
	proto.SetParam("defaults", true)
	m.SetBasicEvent(proto)

	ctx := context.Background()
	first, err := m.Trigger(ctx, "anything", nil, nil)
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	second, err := m.Trigger(ctx, "anything", nil, nil)
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	if first == second {
		t.Error("name-only triggers must clone the prototype, not reuse it")
	}
	if !first.HasParam("defaults") {
		t.Error("clone should inherit prototype params")
	}
	if proto.Name() != "" {
		t.Error("prototype must not be renamed by the wrap step")
	}
}

func TestManager_Trigger_SetsTargetAndParams(t *testing.T) {
	m := NewManager()
	e, err := m.Trigger(context.Background(), "e", "svc", NewParams().Set("k", "v"))
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if e.Target() != "svc" {
		t.Errorf("Target() = %v, want svc", e.Target())
	}
	if v, _ := e.Param("k"); v != "v" {
		t.Errorf("Param(k) = %v, want v", v)
	}
}

func TestManager_Trigger_EmptyName(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	if _, err := m.Trigger(ctx, "", nil, nil); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Trigger(\"\") = %v, want ErrEmptyName", err)
	}
	if _, err := m.Trigger(ctx, " . ", nil, nil); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Trigger(\" . \") = %v, want ErrEmptyName", err)
	}
	if _, err := m.TriggerEvent(ctx, NewEvent("")); !errors.Is(err, ErrEmptyName) {
		t.Errorf("TriggerEvent(empty) = %v, want ErrEmptyName", err)
	}
}

func TestManager_Trigger_InvalidArgument(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	if _, err := m.Trigger(ctx, 42, nil, nil); !errors.Is(err, ErrInvalidTrigger) {
		t.Errorf("Trigger(42) = %v, want ErrInvalidTrigger", err)
	}
	if _, err := m.Trigger(ctx, (*Event)(nil), nil, nil); !errors.Is(err, ErrNilEvent) {
		t.Errorf("Trigger(nil event) = %v, want ErrNilEvent", err)
	}
	if _, err := m.TriggerEvent(ctx, nil); !errors.Is(err, ErrNilEvent) {
		t.Errorf("TriggerEvent(nil) = %v, want ErrNilEvent", err)
	}
}

func TestManager_Trigger_ListenerErrorAborts(t *testing.T) {
	m := NewManager()
	wantErr := errors.New("boom")
	var log []string

	m.Attach("e", func(_ *Event) error {
		log = append(log, "failing")
		return wantErr
	}, PriorityHigh)
	m.Attach("e", traceListener{"after", &log}, PriorityNormal)
	m.Attach("*", traceListener{"global", &log}, PriorityNormal)

	e, err := m.Trigger(context.Background(), "e", nil, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Trigger error = %v, want %v", err, wantErr)
	}
	if e == nil {
		t.Fatal("event should be returned alongside the error")
	}

	want := []string{"failing"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("invocations = %v, want %v", log, want)
	}
}

func TestManager_TriggerEvent_Direct(t *testing.T) {
	m := NewManager()
	var seen *Event
	m.Attach("custom", func(e *Event) { seen = e }, PriorityNormal)

	e := NewEvent("custom")
	e.SetParam("k", 1)
	e.StopPropagation(true) // stale flag from a previous pass

	got, err := m.TriggerEvent(context.Background(), e)
	if err != nil {
		t.Fatalf("TriggerEvent: %v", err)
	}
	if got != e || seen != e {
		t.Error("the caller's event instance should flow through dispatch")
	}
}

func TestManager_TriggerBatch(t *testing.T) {
	m := NewManager()
	var names []string
	m.Attach("*", func(e *Event) {
		names = append(names, e.Name())
		e.SetParam("touched", e.Name())
	}, PriorityNormal)

	common := NewParams().Set("batch", 1)
	results, err := m.TriggerBatch(context.Background(), []string{"a", "b", "c"}, common)
	if err != nil {
		t.Fatalf("TriggerBatch: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("dispatch order = %v, want %v", names, want)
	}

	// Every event gets its own clone of the common params.
	if v, _ := results[0].Param("touched"); v != "a" {
		t.Errorf("results[0] touched = %v, want a", v)
	}
	if v, _ := results[1].Param("touched"); v != "b" {
		t.Errorf("results[1] touched = %v, want b", v)
	}
	if common.Has("touched") {
		t.Error("listener mutations must not leak into the common params")
	}
}

func TestManager_TriggerBatch_ErrorAborts(t *testing.T) {
	m := NewManager()
	wantErr := errors.New("boom")
	m.Attach("bad", func(_ *Event) error { return wantErr }, PriorityNormal)

	results, err := m.TriggerBatch(context.Background(), []string{"ok", "bad", "never"}, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("TriggerBatch error = %v, want %v", err, wantErr)
	}
	if len(results) != 1 {
		t.Errorf("results = %d, want 1 completed before the failure", len(results))
	}
}

func TestManager_Reset(t *testing.T) {
	parent := NewManager()
	m := NewManager()
	m.SetParent(parent)
	var log []string
	m.AddListener(traceListener{"a", &log}, "e")
	m.AddEvent(NewEvent("tmpl"))

	m.Reset()

	if m.CountListeners() != 0 || m.CountEvents() != 0 || m.Parent() != nil {
		t.Error("Reset should clear queues, templates and the parent reference")
	}
	// The parent is shared, not owned; it survives the child's reset.
	parent.AddListener(traceListener{"p", &log}, "e")
	if !parent.HasListeners("e") {
		t.Error("parent state must be unaffected")
	}
}

func TestManager_ConcurrentTriggers(t *testing.T) {
	m := NewManager()
	m.Attach("e", func(_ *Event) {}, PriorityNormal)

	done := make(chan struct{})
	ctx := context.Background()
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				if _, err := m.Trigger(ctx, "e", nil, nil); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
