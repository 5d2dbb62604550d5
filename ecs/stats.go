package ecs

// WorldStats is a snapshot of a world's size.
type WorldStats struct {
	ArchetypeCount     int
	TotalEntityCount   int
	ResourceCount      int
	IdentifierSlots    int
	ReservedThrough    int
	Placeholder        bool
	ArchetypeBreakdown []ArchetypeStats
	ResourceTypes      []string
}

// ArchetypeStats describes one archetype of a WorldStats snapshot.
type ArchetypeStats struct {
	ID             uint32
	ComponentTypes []string
	EntityCount    int
}

// CollectStats gathers a WorldStats snapshot. Archetypes that currently hold no
// entities are left out of the breakdown.
func (w *World) CollectStats() WorldStats {
	stats := WorldStats{
		TotalEntityCount: w.EntityCount(),
		ResourceCount:    len(w.data.resources),
		IdentifierSlots:  w.data.entities.Len(),
		ReservedThrough:  w.data.entities.ReservedThrough(),
		Placeholder:      w.data.placeholder,
	}

	for _, archetype := range w.data.archetypeList {
		if archetype.Len() == 0 {
			continue
		}
		names := make([]string, len(archetype.types))
		for i, t := range archetype.types {
			names[i] = t.String()
		}
		stats.ArchetypeBreakdown = append(stats.ArchetypeBreakdown, ArchetypeStats{
			ID:             archetype.id,
			ComponentTypes: names,
			EntityCount:    archetype.Len(),
		})
	}
	stats.ArchetypeCount = len(stats.ArchetypeBreakdown)

	for _, t := range w.ResourceTypes() {
		stats.ResourceTypes = append(stats.ResourceTypes, t.String())
	}

	return stats
}
