package world_renderer

import (
	"cmp"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/game_object"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_context"
)

// cullResult holds one chunk's visible commands and the subset that casts shadows.
type cullResult struct {
	draws   []render_context.DrawCommand
	casters []render_context.DrawCommand
}

// cull tests every object's world bounds against frustum in chunks on pool and returns the visible
// commands and the visible shadow casters, in object order.
//
// Parameters:
//   - pool: the worker pool the chunks run on
//   - objs: the renderable objects
//   - frustum: the camera frustum
//   - chunkSize: the number of objects per task
//
// Returns:
//   - []render_context.DrawCommand: the visible commands
//   - []render_context.DrawCommand: the visible commands whose object casts shadows
func cull(pool worker.DynamicWorkerPool, objs []game_object.GameObject, frustum common.Frustum, chunkSize int) ([]render_context.DrawCommand, []render_context.DrawCommand) {
	chunkSize = max(chunkSize, 1)
	results := make([]cullResult, (len(objs)+chunkSize-1)/chunkSize)

	var wg sync.WaitGroup
	taskID := 0
	for chunk := range slices.Chunk(objs, chunkSize) {
		wg.Add(1)
		id := taskID
		taskID++
		pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				results[id] = cullChunk(chunk, frustum)
				return nil, nil
			},
		})
	}
	wg.Wait()

	var draws, casters []render_context.DrawCommand
	for _, r := range results {
		draws = append(draws, r.draws...)
		casters = append(casters, r.casters...)
	}
	return draws, casters
}

func cullChunk(objs []game_object.GameObject, frustum common.Frustum) cullResult {
	var out cullResult
	for _, obj := range objs {
		dc := render_context.NewDrawCommand(obj.Transform(), obj.Model(), obj.Material())
		if !frustum.IntersectsAABB(dc.Bounds) {
			continue
		}
		out.draws = append(out.draws, dc)
		if obj.CastShadows() {
			out.casters = append(out.casters, dc)
		}
	}
	return out
}

// sortDrawCommands orders cmds by sort key. Equal keys keep their relative order, so sorting an
// already sorted list leaves it unchanged.
func sortDrawCommands(cmds []render_context.DrawCommand) {
	slices.SortStableFunc(cmds, func(a, b render_context.DrawCommand) int {
		return cmp.Compare(a.SortKey, b.SortKey)
	})
}
