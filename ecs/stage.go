package ecs

import (
	"context"
	"reflect"
	"runtime"
	"strings"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// StageStats provides statistics about a stage's execution.
type StageStats struct {
	Name            string
	SystemCount     int
	Runs            int64
	TotalExecutions int64
	LastDuration    time.Duration
	TotalDuration   time.Duration
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

// NamedSystem lets a system pick the name used in stats and errors.
type NamedSystem interface {
	Name() string
}

type worldBinder interface {
	Init(world *World)
}

type queryExecutor interface {
	Execute()
}

type stageSystem struct {
	system   System
	name     string
	access   Access
	commands *Commands
	frame    UpdateFrame
	boundTo  *World
	queries  []queryExecutor
	stats    systemStatsInternal
}

// Stage is a named group of systems that run together. Systems whose declared
// access does not conflict run concurrently on a bounded worker pool; conflicting
// systems run in registration order. The stage returns only after every system
// finished and, unless disabled, every command buffer has been applied.
type Stage struct {
	name         string
	systems      []*stageSystem
	deps         [][]int
	graphValid   bool
	applyBuffers bool
	workers      int

	runs          int64
	lastDuration  time.Duration
	totalDuration time.Duration
}

// NewStage creates a stage that applies its command buffers when it finishes and
// runs up to GOMAXPROCS systems at once.
func NewStage(name string) *Stage {
	return &Stage{
		name:         name,
		applyBuffers: true,
		workers:      runtime.GOMAXPROCS(0),
	}
}

// Name returns the stage name
func (s *Stage) Name() string {
	return s.name
}

// SetApplyBuffers controls whether Run applies the systems' command buffers to the
// world it ran on. Stages whose buffers belong to a different world turn this off
// and call ApplyBuffers themselves.
func (s *Stage) SetApplyBuffers(apply bool) *Stage {
	s.applyBuffers = apply
	return s
}

// AppliesBuffers reports whether Run applies command buffers
func (s *Stage) AppliesBuffers() bool {
	return s.applyBuffers
}

// SetWorkerLimit bounds how many systems may run at once. Values below 1 run
// systems one at a time.
func (s *Stage) SetWorkerLimit(n int) *Stage {
	if n < 1 {
		n = 1
	}
	s.workers = n
	return s
}

// Len returns the number of registered systems
func (s *Stage) Len() int {
	return len(s.systems)
}

// Register adds a system to the stage. The access declarations decide which other
// systems it may run alongside; with none given the system's own AccessDeclarer is
// used, and failing that the system runs exclusively.
func (s *Stage) Register(system System, access ...Access) {
	s.systems = append(s.systems, &stageSystem{
		system:   system,
		name:     systemName(system),
		access:   resolveAccess(system, access),
		commands: newCommands(),
		stats: systemStatsInternal{
			minDuration: time.Duration(1<<63 - 1),
		},
	})
	s.graphValid = false
}

func systemName(system System) string {
	if named, ok := system.(NamedSystem); ok {
		return named.Name()
	}

	systemValue := reflect.ValueOf(system)
	if systemValue.Kind() == reflect.Func {
		name := runtime.FuncForPC(systemValue.Pointer()).Name()
		return name[strings.LastIndex(name, "/")+1:]
	}

	systemType := systemValue.Type()
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	return systemType.Name()
}

// bind initializes the system's Query and Singleton fields against world
func (ss *stageSystem) bind(world *World) {
	if ss.boundTo == world {
		return
	}
	ss.boundTo = world
	ss.queries = ss.queries[:0]
	ss.frame = UpdateFrame{Commands: ss.commands, World: world}

	systemValue := reflect.ValueOf(ss.system)
	if systemValue.Kind() != reflect.Ptr {
		return
	}
	systemValue = systemValue.Elem()
	if systemValue.Kind() != reflect.Struct {
		return
	}

	systemType := systemValue.Type()
	for i := 0; i < systemValue.NumField(); i++ {
		field := systemValue.Field(i)
		if !field.CanSet() || field.Kind() != reflect.Struct {
			continue
		}

		typeName := field.Type().Name()
		if !strings.HasPrefix(typeName, "Query[") && !strings.HasPrefix(typeName, "Singleton[") {
			continue
		}

		binder, ok := field.Addr().Interface().(worldBinder)
		if !ok {
			panic("Init method not found on field: " + systemType.Field(i).Name)
		}
		binder.Init(world)

		if executor, ok := field.Addr().Interface().(queryExecutor); ok {
			ss.queries = append(ss.queries, executor)
		}
	}
}

func (s *Stage) ensureGraph() {
	if s.graphValid {
		return
	}
	s.deps = make([][]int, len(s.systems))
	for i, later := range s.systems {
		for j := 0; j < i; j++ {
			if s.systems[j].access.ConflictsWith(later.access) {
				s.deps[i] = append(s.deps[i], j)
			}
		}
	}
	s.graphValid = true
}

// Run executes every system against world and waits for all of them. A failing
// system fails the stage; its command buffers are then discarded instead of applied.
func (s *Stage) Run(ctx context.Context, world *World, dt float64) error {
	start := time.Now()
	s.ensureGraph()
	for _, ss := range s.systems {
		ss.bind(world)
	}

	var err error
	if s.workers <= 1 || len(s.systems) <= 1 {
		err = s.runSequential(ctx, dt)
	} else {
		err = s.runConcurrent(ctx, dt)
	}

	switch {
	case err != nil:
		s.discardBuffers()
	case s.applyBuffers:
		err = s.ApplyBuffers(world)
	}

	duration := time.Since(start)
	s.runs++
	s.lastDuration = duration
	s.totalDuration += duration
	return err
}

func (s *Stage) runSequential(ctx context.Context, dt float64) error {
	for _, ss := range s.systems {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.runSystem(ss, dt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stage) runConcurrent(ctx context.Context, dt float64) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	done := make([]chan struct{}, len(s.systems))
	for i := range done {
		done[i] = make(chan struct{})
	}
	errs := make([]error, len(s.systems))

	// Systems are started in registration order and only wait on earlier ones, so
	// the oldest unfinished system always has its dependencies satisfied.
	for i, ss := range s.systems {
		g.Go(func() error {
			defer close(done[i])
			for _, dep := range s.deps[i] {
				select {
				case <-done[dep]:
				case <-gctx.Done():
					return nil
				}
			}
			if gctx.Err() != nil {
				return nil
			}
			errs[i] = s.runSystem(ss, dt)
			return errs[i]
		})
	}

	_ = g.Wait()
	if err := multierr.Combine(errs...); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Stage) runSystem(ss *stageSystem, dt float64) error {
	for _, q := range ss.queries {
		q.Execute()
	}

	ss.frame.DeltaTime = dt
	ss.frame.Stage = s.name

	start := time.Now()
	err := ss.system.Execute(&ss.frame)
	duration := time.Since(start)

	stats := &ss.stats
	stats.executionCount++
	stats.lastDuration = duration
	stats.totalDuration += duration
	if duration < stats.minDuration {
		stats.minDuration = duration
	}
	if duration > stats.maxDuration {
		stats.maxDuration = duration
	}

	if err != nil {
		return &SystemError{Stage: s.name, System: ss.name, Err: err}
	}
	return nil
}

// ApplyBuffers flushes every system's command buffer into world, in registration
// order. It stops at the first failing buffer; later buffers are discarded.
func (s *Stage) ApplyBuffers(world *World) error {
	for i, ss := range s.systems {
		if err := ss.commands.Flush(world); err != nil {
			for _, rest := range s.systems[i+1:] {
				rest.commands.reset()
			}
			return &SystemError{Stage: s.name, System: ss.name, Err: err}
		}
	}
	return nil
}

// PendingCommands returns the number of queued but unapplied commands
func (s *Stage) PendingCommands() int {
	n := 0
	for _, ss := range s.systems {
		n += ss.commands.Len()
	}
	return n
}

func (s *Stage) discardBuffers() {
	for _, ss := range s.systems {
		ss.commands.reset()
	}
}

// Stats returns statistics about the stage and its systems.
func (s *Stage) Stats() StageStats {
	stats := StageStats{
		Name:          s.name,
		SystemCount:   len(s.systems),
		Runs:          s.runs,
		LastDuration:  s.lastDuration,
		TotalDuration: s.totalDuration,
		Systems:       make([]SystemStats, len(s.systems)),
	}

	for i, ss := range s.systems {
		internal := ss.stats
		avgDuration := time.Duration(0)
		minDuration := internal.minDuration
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
		} else {
			minDuration = 0
		}

		stats.Systems[i] = SystemStats{
			Name:           ss.name,
			ExecutionCount: internal.executionCount,
			MinDuration:    minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		stats.TotalExecutions += internal.executionCount
	}

	return stats
}
