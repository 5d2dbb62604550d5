package ecs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/plus3/renderworld/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

// rendezvous blocks until every participant arrived or the timeout passes.
type rendezvous struct {
	wg   sync.WaitGroup
	done chan struct{}
}

func newRendezvous(n int) *rendezvous {
	r := &rendezvous{done: make(chan struct{})}
	r.wg.Add(n)
	go func() {
		r.wg.Wait()
		close(r.done)
	}()
	return r
}

func (r *rendezvous) arrive() error {
	r.wg.Done()
	select {
	case <-r.done:
		return nil
	case <-time.After(2 * time.Second):
		return errors.New("peer never arrived")
	}
}

type orderLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *orderLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, s)
}

func (l *orderLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

type namedSystem struct {
	name string
	fn   func(frame *ecs.UpdateFrame) error
}

func (s *namedSystem) Name() string { return s.name }

func (s *namedSystem) Execute(frame *ecs.UpdateFrame) error { return s.fn(frame) }

func TestStageRunsNonConflictingSystemsConcurrently(t *testing.T) {
	world := newTestWorld()
	meet := newRendezvous(2)

	stage := ecs.NewStage("concurrent").SetWorkerLimit(2)
	for i := 0; i < 2; i++ {
		stage.Register(ecs.SystemFunc(func(*ecs.UpdateFrame) error {
			return meet.arrive()
		}), ecs.Read[Position]())
	}

	require.NoError(t, stage.Run(t.Context(), world, 0))
}

func TestStageOrdersConflictingSystems(t *testing.T) {
	cases := []struct {
		name   string
		first  ecs.Access
		second ecs.Access
	}{
		{"read then write", ecs.Read[Position](), ecs.Write[Position]()},
		{"write then read", ecs.Write[Position](), ecs.Read[Position]()},
		{"write then write", ecs.Write[Position](), ecs.Write[Position]()},
		{"exclusive", ecs.ExclusiveAccess(), ecs.Read[Velocity]()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log := &orderLog{}
			stage := ecs.NewStage("ordered").SetWorkerLimit(4)
			stage.Register(ecs.SystemFunc(func(*ecs.UpdateFrame) error {
				time.Sleep(20 * time.Millisecond)
				log.add("first")
				return nil
			}), tc.first)
			stage.Register(ecs.SystemFunc(func(*ecs.UpdateFrame) error {
				log.add("second")
				return nil
			}), tc.second)

			require.NoError(t, stage.Run(t.Context(), newTestWorld(), 0))
			assert.Equal(t, []string{"first", "second"}, log.get())
		})
	}
}

func TestStageUndeclaredSystemsRunExclusively(t *testing.T) {
	log := &orderLog{}
	stage := ecs.NewStage("exclusive").SetWorkerLimit(4)
	stage.Register(ecs.SystemFunc(func(*ecs.UpdateFrame) error {
		time.Sleep(20 * time.Millisecond)
		log.add("undeclared")
		return nil
	}))
	stage.Register(ecs.SystemFunc(func(*ecs.UpdateFrame) error {
		log.add("reader")
		return nil
	}), ecs.Read[Name]())

	require.NoError(t, stage.Run(t.Context(), newTestWorld(), 0))
	assert.Equal(t, []string{"undeclared", "reader"}, log.get())
}

func TestStageExclusiveSpawnerWaitsForReaders(t *testing.T) {
	world := newTestWorld()
	world.Spawn(Velocity{DX: 1})

	var seen int
	stage := ecs.NewStage("structural").SetWorkerLimit(4)
	stage.Register(ecs.SystemFunc(func(frame *ecs.UpdateFrame) error {
		time.Sleep(20 * time.Millisecond)
		for range ecs.NewView[struct{ *Velocity }](frame.World).Values() {
			seen++
		}
		return nil
	}), ecs.Read[Velocity]())
	stage.Register(ecs.SystemFunc(func(frame *ecs.UpdateFrame) error {
		frame.World.Spawn(Velocity{DX: 2})
		return nil
	}), ecs.ExclusiveAccess())

	require.NoError(t, stage.Run(t.Context(), world, 0))
	assert.Equal(t, 1, seen, "reader finished before the world changed shape")
	assert.Equal(t, 2, world.EntityCount())
}

type declaringSystem struct {
	ran bool
}

func (s *declaringSystem) Access() ecs.Access { return ecs.Read[Position]() }

func (s *declaringSystem) Execute(*ecs.UpdateFrame) error {
	s.ran = true
	return nil
}

func TestStageUsesDeclaredAccess(t *testing.T) {
	meet := newRendezvous(2)
	declared := &declaringSystem{}

	stage := ecs.NewStage("declared").SetWorkerLimit(2)
	stage.Register(ecs.SystemFunc(func(*ecs.UpdateFrame) error {
		return meet.arrive()
	}), ecs.Read[Position]())
	stage.Register(ecs.SystemFunc(func(*ecs.UpdateFrame) error {
		return meet.arrive()
	}), ecs.Read[Position]())
	stage.Register(declared)

	require.NoError(t, stage.Run(t.Context(), newTestWorld(), 0))
	assert.True(t, declared.ran)
}

func TestStageFailureDiscardsBuffers(t *testing.T) {
	world := newTestWorld()
	boom := errors.New("boom")

	stage := ecs.NewStage("failing")
	stage.Register(&namedSystem{name: "spawner", fn: func(frame *ecs.UpdateFrame) error {
		frame.Commands.Spawn(Position{})
		return nil
	}}, ecs.NoAccess())
	stage.Register(&namedSystem{name: "broken", fn: func(*ecs.UpdateFrame) error {
		return boom
	}}, ecs.NoAccess())

	err := stage.Run(t.Context(), world, 0)
	require.ErrorIs(t, err, boom)

	var systemErr *ecs.SystemError
	require.ErrorAs(t, err, &systemErr)
	assert.Equal(t, "failing", systemErr.Stage)
	assert.Equal(t, "broken", systemErr.System)

	assert.Equal(t, 0, world.EntityCount())
	assert.Equal(t, 0, stage.PendingCommands())
}

func TestStageCombinesConcurrentFailures(t *testing.T) {
	meet := newRendezvous(2)
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	stage := ecs.NewStage("failing").SetWorkerLimit(2)
	stage.Register(ecs.SystemFunc(func(*ecs.UpdateFrame) error {
		_ = meet.arrive()
		return errA
	}), ecs.NoAccess())
	stage.Register(ecs.SystemFunc(func(*ecs.UpdateFrame) error {
		_ = meet.arrive()
		return errB
	}), ecs.NoAccess())

	err := stage.Run(t.Context(), newTestWorld(), 0)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Len(t, multierr.Errors(err), 2)
}

func TestStageStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	for _, workers := range []int{1, 4} {
		ran := false
		stage := ecs.NewStage("cancelled").SetWorkerLimit(workers)
		for i := 0; i < 2; i++ {
			stage.Register(ecs.SystemFunc(func(*ecs.UpdateFrame) error {
				ran = true
				return nil
			}))
		}

		err := stage.Run(ctx, newTestWorld(), 0)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, ran)
	}
}

func TestStageApplyBuffersToAnotherWorld(t *testing.T) {
	registry := newTestRegistry()
	source := ecs.NewWorld(registry)
	target := ecs.NewWorld(registry)

	stage := ecs.NewStage("deferred").SetApplyBuffers(false)
	assert.False(t, stage.AppliesBuffers())
	stage.Register(ecs.SystemFunc(func(frame *ecs.UpdateFrame) error {
		frame.Commands.Spawn(Name{Value: "x"})
		return nil
	}))

	require.NoError(t, stage.Run(t.Context(), source, 0))
	assert.Equal(t, 1, stage.PendingCommands())
	assert.Equal(t, 0, source.EntityCount())

	require.NoError(t, stage.ApplyBuffers(target))
	assert.Equal(t, 1, target.EntityCount())
}

type movementSystem struct {
	Movers  ecs.Query[movable]
	Gravity ecs.Singleton[Gravity]
	frames  int
}

func (s *movementSystem) Execute(frame *ecs.UpdateFrame) error {
	s.frames++
	g := s.Gravity.Get()
	for item := range s.Movers.Values() {
		item.Velocity.DY += g.G
		item.Position.Y += item.Velocity.DY * float32(frame.DeltaTime)
	}
	return nil
}

func TestStageBindsSystemFields(t *testing.T) {
	world := newTestWorld()
	ecs.InsertResource(world, Gravity{G: 1})
	id := world.Spawn(Position{}, Velocity{})

	system := &movementSystem{}
	stage := ecs.NewStage("physics")
	stage.Register(system, ecs.Write[Position](), ecs.Write[Velocity](), ecs.Read[Gravity]())

	require.NoError(t, stage.Run(t.Context(), world, 1))
	require.NoError(t, stage.Run(t.Context(), world, 1))

	assert.Equal(t, 2, system.frames)
	assert.Equal(t, float32(2), ecs.ReadComponent[Velocity](world, id).DY)
	assert.Equal(t, float32(3), ecs.ReadComponent[Position](world, id).Y)
}

func TestUpdateFrame(t *testing.T) {
	world := newTestWorld()

	var got ecs.UpdateFrame
	stage := ecs.NewStage("inspect")
	stage.Register(ecs.SystemFunc(func(frame *ecs.UpdateFrame) error {
		got = *frame
		return nil
	}))

	require.NoError(t, stage.Run(t.Context(), world, 0.5))
	assert.Equal(t, 0.5, got.DeltaTime)
	assert.Equal(t, "inspect", got.Stage)
	assert.Same(t, world, got.World)
	assert.NotNil(t, got.Commands)
}

func TestStageStats(t *testing.T) {
	stage := ecs.NewStage("stats")
	stage.Register(&namedSystem{name: "named", fn: func(*ecs.UpdateFrame) error {
		time.Sleep(time.Millisecond)
		return nil
	}})
	stage.Register(ecs.SystemFunc(func(*ecs.UpdateFrame) error { return nil }))
	stage.Register(&declaringSystem{})

	stats := stage.Stats()
	assert.Equal(t, 3, stats.SystemCount)
	assert.Equal(t, time.Duration(0), stats.Systems[0].MinDuration)

	world := newTestWorld()
	for i := 0; i < 3; i++ {
		require.NoError(t, stage.Run(t.Context(), world, 0))
	}

	stats = stage.Stats()
	assert.Equal(t, "stats", stats.Name)
	assert.Equal(t, int64(3), stats.Runs)
	assert.Equal(t, int64(9), stats.TotalExecutions)
	assert.Greater(t, stats.TotalDuration, time.Duration(0))

	named := stats.Systems[0]
	assert.Equal(t, "named", named.Name)
	assert.Equal(t, int64(3), named.ExecutionCount)
	assert.GreaterOrEqual(t, named.MinDuration, time.Millisecond)
	assert.GreaterOrEqual(t, named.MaxDuration, named.MinDuration)
	assert.Equal(t, named.TotalDuration/3, named.AvgDuration)

	assert.Contains(t, stats.Systems[1].Name, "TestStageStats")
	assert.Equal(t, "declaringSystem", stats.Systems[2].Name)
}
