package chronographer

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
)

func TestDependencyFrameRunsInnerWhenAllGatesTrue(t *testing.T) {
	innerRan := false
	inner := NewExecutionFrame(func(*TaskContext) error { innerRan = true; return nil })
	frame := NewDependencyFrame(inner, DependencyUnresolvedFail, NewFlagDependency(true), NewFlagDependency(true))
	if err := frame.Run(newTestContext()); err != nil {
		t.Fatal(err)
	}
	if !innerRan {
		t.Fatal("expected inner frame to run")
	}
}

func TestDependencyFrameSkipsInnerWhenAnyGateFalse(t *testing.T) {
	innerRan := false
	inner := NewExecutionFrame(func(*TaskContext) error { innerRan = true; return nil })
	frame := NewDependencyFrame(inner, DependencyUnresolvedFail, NewFlagDependency(true), NewFlagDependency(false))
	err := frame.Run(newTestContext())
	if !errors.Is(err, ErrDependenciesUnresolved) {
		t.Fatalf("expected ErrDependenciesUnresolved, got %v", err)
	}
	if innerRan {
		t.Fatal("inner frame must not run when a gate is false")
	}
}

func TestDependencyFrameSkipPolicyReturnsOkWithoutRunningInner(t *testing.T) {
	innerRan := false
	inner := NewExecutionFrame(func(*TaskContext) error { innerRan = true; return nil })
	frame := NewDependencyFrame(inner, DependencyUnresolvedSkip, NewFlagDependency(false))
	if err := frame.Run(newTestContext()); err != nil {
		t.Fatalf("expected nil error under DependencyUnresolvedSkip, got %v", err)
	}
	if innerRan {
		t.Fatal("inner frame must not run when a gate is false, even under the skip policy")
	}
}

func TestLogicalDependencyAnd(t *testing.T) {
	d := NewLogicalDependency(LogicalAnd, NewFlagDependency(true), NewFlagDependency(false))
	ok, err := d.IsResolved(newTestContext())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("AND of true,false should be false")
	}
}

func TestLogicalDependencyOr(t *testing.T) {
	d := NewLogicalDependency(LogicalOr, NewFlagDependency(false), NewFlagDependency(true))
	ok, err := d.IsResolved(newTestContext())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("OR of false,true should be true")
	}
}

func TestLogicalDependencyXor(t *testing.T) {
	d := NewLogicalDependency(LogicalXor, NewFlagDependency(true), NewFlagDependency(false))
	ok, err := d.IsResolved(newTestContext())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("XOR of true,false should be true")
	}

	d2 := NewLogicalDependency(LogicalXor, NewFlagDependency(true), NewFlagDependency(true))
	ok2, err := d2.IsResolved(newTestContext())
	if err != nil {
		t.Fatal(err)
	}
	if ok2 {
		t.Fatal("XOR of true,true should be false")
	}
}

func TestNotDependency(t *testing.T) {
	d := NewNotDependency(NewFlagDependency(true))
	ok, err := d.IsResolved(newTestContext())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("NOT of true should be false")
	}
}

func TestDependencyDisableForcesResolved(t *testing.T) {
	flag := NewFlagDependency(false)
	flag.Disable()
	ok, err := flag.IsResolved(newTestContext())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("a disabled dependency must report resolved regardless of its own state")
	}

	flag.Enable()
	ok, err = flag.IsResolved(newTestContext())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("a re-enabled dependency must consult its own state again")
	}
}

type fakeObserver struct {
	succeeded map[TaskIdentifier]bool
}

func (f fakeObserver) HasSucceeded(id TaskIdentifier) bool { return f.succeeded[id] }

func TestTaskDependencyOnAllOf(t *testing.T) {
	idA := TaskIdentifier{value: uuid.New()}
	idB := TaskIdentifier{value: uuid.New()}
	obs := fakeObserver{succeeded: map[TaskIdentifier]bool{idA: true, idB: false}}

	d := NewTaskDependency(obs, OnAllOf, 0, idA, idB)
	ok, _ := d.IsResolved(newTestContext())
	if ok {
		t.Fatal("OnAllOf should require every target to have succeeded")
	}

	obs.succeeded[idB] = true
	ok, _ = d.IsResolved(newTestContext())
	if !ok {
		t.Fatal("OnAllOf should resolve true once all targets succeeded")
	}
}

func TestTaskDependencyOnNthCompletion(t *testing.T) {
	idA := TaskIdentifier{value: uuid.New()}
	idB := TaskIdentifier{value: uuid.New()}
	idC := TaskIdentifier{value: uuid.New()}
	obs := fakeObserver{succeeded: map[TaskIdentifier]bool{idA: true, idB: true, idC: false}}

	d := NewTaskDependency(obs, OnNthCompletion, 2, idA, idB, idC)
	ok, _ := d.IsResolved(newTestContext())
	if !ok {
		t.Fatal("expected OnNthCompletion(2) to resolve true with 2 successes")
	}
}

func TestDependencyFrameConcurrentAbortCount(t *testing.T) {
	var queried int32
	countingDep := NewDynamicDependency(func(*TaskContext) (bool, error) {
		atomic.AddInt32(&queried, 1)
		return false, nil
	})
	inner := NewExecutionFrame(func(*TaskContext) error { return nil })
	frame := NewDependencyFrame(inner, DependencyUnresolvedFail, countingDep, countingDep, countingDep)
	_ = frame.Run(newTestContext())
	if atomic.LoadInt32(&queried) == 0 {
		t.Fatal("expected at least one gate to be queried")
	}
}
