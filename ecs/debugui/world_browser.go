package debugui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/renderworld/ecs"
)

type EntityInfo struct {
	ID             ecs.EntityId
	ArchetypeID    uint32
	ComponentTypes []string
}

type worldBrowserCache struct {
	entities           []EntityInfo
	lastArchetypeCount int
	lastEntityCount    int
	sortColumn         int
	sortAscending      bool
}

// WorldBrowserPanel lists the entities of one world slot, with a read-only view of
// the selected entity's components. It follows the slot, so while the contents
// are on loan it shows the scratch world standing in for them.
type WorldBrowserPanel struct {
	title              string
	cache              *worldBrowserCache
	selectedEntityId   ecs.EntityId
	hasSelection       bool
	filterText         string
	maxEntitiesPerPage int
	currentPage        int
}

func NewWorldBrowserPanel(title string, maxEntitiesPerPage int) *WorldBrowserPanel {
	return &WorldBrowserPanel{
		title: title,
		cache: &worldBrowserCache{
			lastArchetypeCount: -1,
			lastEntityCount:    -1,
			sortAscending:      true,
		},
		maxEntitiesPerPage: maxEntitiesPerPage,
	}
}

// SetFilter sets the search text entities are matched against
func (wb *WorldBrowserPanel) SetFilter(text string) {
	wb.filterText = text
	wb.currentPage = 0
}

// Select makes id the entity shown in the inspector
func (wb *WorldBrowserPanel) Select(id ecs.EntityId) {
	wb.selectedEntityId = id
	wb.hasSelection = true
}

// Selected returns the selected entity, if any
func (wb *WorldBrowserPanel) Selected() (ecs.EntityId, bool) {
	return wb.selectedEntityId, wb.hasSelection
}

func (wb *WorldBrowserPanel) Render(world *ecs.World) {
	if !imgui.BeginV(wb.title, nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	entities := world.Entities()
	imgui.Text(fmt.Sprintf("Entities: %d alive, %d identifier slots, reserved through %d",
		world.EntityCount(), entities.Len(), entities.ReservedThrough()))
	if world.IsPlaceholder() {
		imgui.Text("Contents on loan; showing scratch world")
	}

	if imgui.TreeNodeStr("Resources") {
		for _, t := range world.ResourceTypes() {
			imgui.BulletText(t.String())
		}
		imgui.TreePop()
	}
	imgui.Separator()

	if imgui.InputTextWithHint("##search", "Search...", &wb.filterText, imgui.InputTextFlagsNone, nil) {
		wb.currentPage = 0
	}
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		wb.SetFilter("")
	}

	filtered := wb.Rows(world)

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("EntityTable", 3, tableFlags, imgui.NewVec2(0, 300), 0) {
		imgui.TableSetupColumn("Entity ID")
		imgui.TableSetupColumn("Archetype ID")
		imgui.TableSetupColumn("Components")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			wb.cache.sortColumn = int(spec.ColumnIndex())
			wb.cache.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			wb.sortEntities()
			sortSpecs.SetSpecsDirty(false)
			filtered = wb.filter()
		}

		startIdx := wb.currentPage * wb.maxEntitiesPerPage
		endIdx := min(startIdx+wb.maxEntitiesPerPage, len(filtered))

		for i := startIdx; i < endIdx; i++ {
			entity := filtered[i]
			imgui.TableNextRow()

			imgui.TableNextColumn()
			isSelected := wb.hasSelection && wb.selectedEntityId == entity.ID
			if imgui.SelectableBoolV(entity.ID.String(), isSelected, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				wb.Select(entity.ID)
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("0x%X", entity.ArchetypeID))

			imgui.TableNextColumn()
			imgui.Text(strings.Join(entity.ComponentTypes, ", "))
		}

		imgui.EndTable()
	}

	if len(filtered) > wb.maxEntitiesPerPage {
		totalPages := (len(filtered) + wb.maxEntitiesPerPage - 1) / wb.maxEntitiesPerPage
		imgui.Text(fmt.Sprintf("Page %d / %d (%d entities)", wb.currentPage+1, totalPages, len(filtered)))
		imgui.SameLine()
		if imgui.Button("Prev") && wb.currentPage > 0 {
			wb.currentPage--
		}
		imgui.SameLine()
		if imgui.Button("Next") && wb.currentPage < totalPages-1 {
			wb.currentPage++
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d entities", len(filtered)))
	}

	wb.renderInspector(world)
	imgui.End()
}

func (wb *WorldBrowserPanel) renderInspector(world *ecs.World) {
	if !wb.hasSelection {
		return
	}
	imgui.Separator()

	if !world.Contains(wb.selectedEntityId) {
		imgui.Text(fmt.Sprintf("Entity %s is gone", wb.selectedEntityId))
		return
	}

	imgui.Text(fmt.Sprintf("Entity %s", wb.selectedEntityId))
	for _, component := range wb.Inspect(world) {
		if imgui.TreeNodeStr(component.Type) {
			for _, field := range component.Fields {
				imgui.Text(fmt.Sprintf("%s: %s", field.Name, field.Value))
			}
			imgui.TreePop()
		}
	}
}

// ComponentView is one component of the inspected entity
type ComponentView struct {
	Type   string
	Fields []FieldValue
}

// Inspect describes every component of the selected entity.
func (wb *WorldBrowserPanel) Inspect(world *ecs.World) []ComponentView {
	if !wb.hasSelection || !world.Contains(wb.selectedEntityId) {
		return nil
	}

	archetype := world.ArchetypeOf(wb.selectedEntityId)
	views := make([]ComponentView, 0, len(archetype.Types()))
	for _, compType := range archetype.Types() {
		views = append(views, ComponentView{
			Type:   compType.String(),
			Fields: globalReflectionCache.Describe(world.GetComponent(wb.selectedEntityId, compType)),
		})
	}
	return views
}

// Rows returns the world's entities after filtering, in the current sort order.
func (wb *WorldBrowserPanel) Rows(world *ecs.World) []EntityInfo {
	wb.rebuildCacheIfNeeded(world)
	return wb.filter()
}

func (wb *WorldBrowserPanel) rebuildCacheIfNeeded(world *ecs.World) {
	archetypeCount := len(world.GetArchetypes())
	entityCount := world.EntityCount()
	if wb.cache.lastArchetypeCount != archetypeCount || wb.cache.lastEntityCount != entityCount {
		wb.cache.entities = nil
		wb.cache.lastArchetypeCount = archetypeCount
		wb.cache.lastEntityCount = entityCount
	}

	if wb.cache.entities == nil {
		wb.rebuildCache(world)
	}
}

func (wb *WorldBrowserPanel) rebuildCache(world *ecs.World) {
	wb.cache.entities = make([]EntityInfo, 0, world.EntityCount())

	for _, archetype := range world.GetArchetypes() {
		componentTypes := make([]string, len(archetype.Types()))
		for i, t := range archetype.Types() {
			componentTypes[i] = t.String()
		}

		for entityId := range archetype.Iter() {
			wb.cache.entities = append(wb.cache.entities, EntityInfo{
				ID:             entityId,
				ArchetypeID:    archetype.ID(),
				ComponentTypes: componentTypes,
			})
		}
	}

	wb.sortEntities()
}

func (wb *WorldBrowserPanel) sortEntities() {
	sort.SliceStable(wb.cache.entities, func(i, j int) bool {
		a, b := wb.cache.entities[i], wb.cache.entities[j]
		var less bool

		switch wb.cache.sortColumn {
		case 1:
			less = a.ArchetypeID < b.ArchetypeID
		case 2:
			less = strings.Join(a.ComponentTypes, ",") < strings.Join(b.ComponentTypes, ",")
		default:
			less = a.ID.Index() < b.ID.Index()
		}

		if !wb.cache.sortAscending {
			return !less
		}
		return less
	})
}

func (wb *WorldBrowserPanel) filter() []EntityInfo {
	if wb.filterText == "" {
		return wb.cache.entities
	}

	filtered := make([]EntityInfo, 0, len(wb.cache.entities))
	filterLower := strings.ToLower(wb.filterText)

	for _, entity := range wb.cache.entities {
		idStr := entity.ID.String()
		archStr := fmt.Sprintf("0x%x", entity.ArchetypeID)
		componentsStr := strings.ToLower(strings.Join(entity.ComponentTypes, " "))

		if !strings.Contains(idStr, filterLower) &&
			!strings.Contains(archStr, filterLower) &&
			!strings.Contains(componentsStr, filterLower) {
			continue
		}
		filtered = append(filtered, entity)
	}

	return filtered
}
