package chronographer

import "testing"

func TestHookContainerEmitInvokesAttachedHooks(t *testing.T) {
	c := NewHookContainer()
	var got []int
	c.Attach(HookOnTaskEnd, HookFunc(func(_ *TaskContext, payload any) {
		got = append(got, payload.(int))
	}))
	c.Attach(HookOnTaskEnd, HookFunc(func(_ *TaskContext, payload any) {
		got = append(got, payload.(int)*10)
	}))

	c.Emit(newTestContext(), HookOnTaskEnd, 3)

	if len(got) != 2 || got[0] != 3 || got[1] != 30 {
		t.Fatalf("unexpected hook invocation order/values: %v", got)
	}
}

func TestHookContainerDetach(t *testing.T) {
	c := NewHookContainer()
	called := false
	handle := c.Attach(HookOnTaskEnd, HookFunc(func(*TaskContext, any) { called = true }))
	c.Detach(handle)

	c.Emit(newTestContext(), HookOnTaskEnd, nil)

	if called {
		t.Fatal("detached hook must not be invoked")
	}
}

func TestHookContainerEventsAreIndependent(t *testing.T) {
	c := NewHookContainer()
	startCalled, endCalled := false, false
	c.Attach(HookOnTaskStart, HookFunc(func(*TaskContext, any) { startCalled = true }))
	c.Attach(HookOnTaskEnd, HookFunc(func(*TaskContext, any) { endCalled = true }))

	c.Emit(newTestContext(), HookOnTaskStart, nil)

	if !startCalled {
		t.Fatal("expected start hook invoked")
	}
	if endCalled {
		t.Fatal("end hook must not fire on a start emit")
	}
}

func TestHookContainerAttachEmitsOnHookAttach(t *testing.T) {
	c := NewHookContainer()
	var attachedFor HookEvent = -1
	c.Attach(HookOnHookAttach, HookFunc(func(_ *TaskContext, payload any) {
		attachedFor = payload.(HookEvent)
	}))

	c.Attach(HookOnTaskEnd, HookFunc(func(*TaskContext, any) {}))

	if attachedFor != HookOnTaskEnd {
		t.Fatalf("expected HookOnHookAttach payload HookOnTaskEnd, got %v", attachedFor)
	}
}

func TestHookContainerDetachEmitsOnHookDetach(t *testing.T) {
	c := NewHookContainer()
	var detachedFor HookEvent = -1
	c.Attach(HookOnHookDetach, HookFunc(func(_ *TaskContext, payload any) {
		detachedFor = payload.(HookEvent)
	}))

	handle := c.Attach(HookOnTaskEnd, HookFunc(func(*TaskContext, any) {}))
	c.Detach(handle)

	if detachedFor != HookOnTaskEnd {
		t.Fatalf("expected HookOnHookDetach payload HookOnTaskEnd, got %v", detachedFor)
	}
}

func TestHookContainerEmitIgnoresSentinelEvent(t *testing.T) {
	c := NewHookContainer()
	called := false
	c.Attach(HookEventNone, HookFunc(func(*TaskContext, any) { called = true }))

	c.Emit(newTestContext(), HookEventNone, nil)

	if called {
		t.Fatal("HookEventNone must never be emitted, even if a hook is attached to it")
	}
}
