package main

import (
	"math"
	"math/rand"

	"github.com/plus3/renderworld/backend/sprite"
	"github.com/plus3/renderworld/ecs"
)

type ResourceKind int

const (
	ResourceTree ResourceKind = iota
	ResourceRock
	ResourceBerryBush
)

const resourceScale = 0.6

type Resource struct {
	Kind         ResourceKind
	Amount       int
	Max          int
	RegrowthRate float32
	RegrowthTime float32
}

type Colony struct {
	Name  string
	Stock int
}

type Colonist struct {
	Colony   ecs.EntityId
	Speed    float32
	Carrying int
}

type TaskKind int

const (
	TaskIdle TaskKind = iota
	TaskGather
	TaskReturn
)

func (k TaskKind) String() string {
	switch k {
	case TaskGather:
		return "gather"
	case TaskReturn:
		return "return"
	default:
		return "idle"
	}
}

type Task struct {
	Kind      TaskKind
	Target    ecs.EntityId
	TargetPos sprite.Position
	Progress  float32
}

// WorldBounds is the size of the map in cells
type WorldBounds struct {
	Width, Height int
}

var pastelColors = [][3]uint8{
	{255, 179, 186},
	{179, 229, 252},
	{255, 223, 186},
	{186, 255, 201},
	{255, 200, 221},
	{186, 225, 255},
	{255, 255, 186},
	{217, 186, 255},
}

func registerColonyComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[Resource](registry)
	ecs.RegisterComponent[Colony](registry)
	ecs.RegisterComponent[Colonist](registry)
	ecs.RegisterComponent[Task](registry)
}

func spawnResources(world *ecs.World, n int, bounds WorldBounds, rng *rand.Rand) {
	for i := 0; i < n; i++ {
		var kind ResourceKind
		var color [3]uint8
		var amount int

		roll := rng.Float32()
		switch {
		case roll < 0.5:
			kind, color, amount = ResourceTree, [3]uint8{144, 238, 144}, 20
		case roll < 0.8:
			kind, color, amount = ResourceRock, [3]uint8{169, 169, 169}, 15
		default:
			kind, color, amount = ResourceBerryBush, [3]uint8{255, 182, 193}, 10
		}

		world.Spawn(
			sprite.Position{X: float32(rng.Intn(bounds.Width)), Y: float32(rng.Intn(bounds.Height))},
			sprite.Sprite{Color: color, Scale: resourceScale, Shape: sprite.ShapeSquare, Layer: 0},
			Resource{Kind: kind, Amount: amount, Max: amount, RegrowthRate: 0.2},
		)
	}
}

func spawnColony(world *ecs.World, name string, x, y float32, color [3]uint8, colonists int, rng *rand.Rand) ecs.EntityId {
	colony := world.Spawn(
		sprite.Position{X: x, Y: y},
		sprite.Sprite{Color: color, Scale: 1.5, Shape: sprite.ShapeSquare, Layer: 1},
		Colony{Name: name},
	)

	for i := 0; i < colonists; i++ {
		world.Spawn(
			sprite.Position{X: x + float32(rng.Intn(5)-2), Y: y + float32(rng.Intn(5)-2)},
			sprite.Sprite{Color: color, Scale: 0.4, Shape: sprite.ShapeCircle, Layer: 2},
			Colonist{Colony: colony, Speed: 6 + rng.Float32()*4},
			Task{},
		)
	}
	return colony
}

func distance(a, b sprite.Position) float32 {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	return float32(math.Sqrt(dx*dx + dy*dy))
}

// TaskAssignmentSystem sends idle colonists to the nearest resource that has
// anything left.
type TaskAssignmentSystem struct {
	Colonists ecs.Query[struct {
		*sprite.Position
		*Colonist
		*Task
	}]
	Resources ecs.Query[struct {
		*sprite.Position
		*Resource
	}]

	candidates []candidate
}

type candidate struct {
	id  ecs.EntityId
	pos sprite.Position
}

func (s *TaskAssignmentSystem) Execute(frame *ecs.UpdateFrame) error {
	s.candidates = s.candidates[:0]
	for id, res := range s.Resources.Iter() {
		if res.Resource.Amount > 0 {
			s.candidates = append(s.candidates, candidate{id: id, pos: *res.Position})
		}
	}
	if len(s.candidates) == 0 {
		return nil
	}

	for _, colonist := range s.Colonists.Iter() {
		if colonist.Task.Kind != TaskIdle {
			continue
		}
		best := s.candidates[0]
		bestDist := distance(*colonist.Position, best.pos)
		for _, c := range s.candidates[1:] {
			if d := distance(*colonist.Position, c.pos); d < bestDist {
				best, bestDist = c, d
			}
		}
		*colonist.Task = Task{Kind: TaskGather, Target: best.id, TargetPos: best.pos}
	}
	return nil
}

func (s *TaskAssignmentSystem) Access() ecs.Access {
	return ecs.Write[Task]().Merge(ecs.Read[sprite.Position](), ecs.Read[Resource](), ecs.Read[Colonist]())
}

// MovementSystem walks colonists towards their task's target.
type MovementSystem struct {
	Moving ecs.Query[struct {
		*sprite.Position
		*Colonist
		*Task
	}]
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) error {
	for _, entity := range s.Moving.Iter() {
		if entity.Task.Kind == TaskIdle {
			continue
		}

		dist := distance(*entity.Position, entity.Task.TargetPos)
		step := entity.Colonist.Speed * float32(frame.DeltaTime)
		if dist <= step {
			*entity.Position = entity.Task.TargetPos
			continue
		}
		entity.Position.X += (entity.Task.TargetPos.X - entity.Position.X) / dist * step
		entity.Position.Y += (entity.Task.TargetPos.Y - entity.Position.Y) / dist * step
	}
	return nil
}

func (s *MovementSystem) Access() ecs.Access {
	return ecs.Write[sprite.Position]().Merge(ecs.Read[Colonist](), ecs.Read[Task]())
}

// WorkSystem gathers from resources colonists stand on and delivers the load
// back to their colony.
type WorkSystem struct {
	Workers ecs.Query[struct {
		*sprite.Position
		*Colonist
		*Task
	}]
}

const arriveDistance = 0.1

func (s *WorkSystem) Execute(frame *ecs.UpdateFrame) error {
	for _, worker := range s.Workers.Iter() {
		task := worker.Task
		if task.Kind == TaskIdle || distance(*worker.Position, task.TargetPos) > arriveDistance {
			continue
		}

		switch task.Kind {
		case TaskGather:
			resource := ecs.ReadComponent[Resource](frame.World, task.Target)
			if resource == nil || resource.Amount == 0 {
				*task = Task{}
				continue
			}
			task.Progress += float32(frame.DeltaTime)
			if task.Progress < 1 {
				continue
			}
			resource.Amount--
			worker.Colonist.Carrying++

			home := ecs.ReadComponent[sprite.Position](frame.World, worker.Colonist.Colony)
			if home == nil {
				*task = Task{}
				continue
			}
			*task = Task{Kind: TaskReturn, Target: worker.Colonist.Colony, TargetPos: *home}

		case TaskReturn:
			if colony := ecs.ReadComponent[Colony](frame.World, task.Target); colony != nil {
				colony.Stock += worker.Colonist.Carrying
			}
			worker.Colonist.Carrying = 0
			*task = Task{}
		}
	}
	return nil
}

func (s *WorkSystem) Access() ecs.Access {
	return ecs.Write[Task]().Merge(
		ecs.Write[Colonist](),
		ecs.Write[Resource](),
		ecs.Write[Colony](),
		ecs.Read[sprite.Position](),
	)
}

// RegrowthSystem refills depleted resources and shrinks their sprite with the
// amount left; an empty resource is not drawn at all.
type RegrowthSystem struct {
	Resources ecs.Query[struct {
		*Resource
		*sprite.Sprite
	}]
}

func (s *RegrowthSystem) Execute(frame *ecs.UpdateFrame) error {
	for _, item := range s.Resources.Iter() {
		res := item.Resource
		if res.Amount < res.Max && res.RegrowthRate > 0 {
			res.RegrowthTime += float32(frame.DeltaTime)
			if res.RegrowthTime >= 1/res.RegrowthRate {
				res.Amount++
				res.RegrowthTime = 0
			}
		}
		item.Sprite.Scale = resourceScale * float32(res.Amount) / float32(max(res.Max, 1))
	}
	return nil
}

func (s *RegrowthSystem) Access() ecs.Access {
	return ecs.Write[Resource]().Merge(ecs.Write[sprite.Sprite]())
}

// registerColonySystems adds the colony simulation to scheduler in dependency order.
func registerColonySystems(scheduler *ecs.Scheduler) {
	scheduler.Register(&TaskAssignmentSystem{})
	scheduler.Register(&MovementSystem{})
	scheduler.Register(&WorkSystem{})
	scheduler.Register(&RegrowthSystem{})
}
