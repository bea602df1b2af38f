package world_renderer

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/game_object"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/model"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCullKeepsInsideAndIntersecting(t *testing.T) {
	pool := worker.NewDynamicWorkerPool(2, 16, time.Second)
	defer pool.Stop()

	// Looking down -Z from the origin.
	viewProj := common.Perspective(1.2, 1, 0.1, 100).Mul(common.LookAt(common.Vec3{}, common.Vec3{0, 0, -1}, common.Vec3{0, 1, 0}))
	frustum := common.ExtractFrustum(viewProj)

	cube := model.NewCube("cube", 1)
	mat := material.NewMaterial()
	obj := func(x, y, z, scale float32, cast bool) game_object.GameObject {
		return game_object.NewGameObject(
			game_object.WithModel(cube),
			game_object.WithMaterial(mat),
			game_object.WithPosition(x, y, z),
			game_object.WithScale(scale, scale, scale),
			game_object.WithCastShadows(cast),
		)
	}
	objs := []game_object.GameObject{
		obj(0, 0, -10, 1, true),   // inside
		obj(0, 0, 10, 1, true),    // behind
		obj(50, 0, -10, 1, true),  // far right
		obj(0, 0, -200, 1, true),  // beyond far plane
		obj(8, 0, -10, 6, false),  // straddles the right plane
		obj(0, 0, -0.1, 1, false), // straddles the near plane
	}

	draws, casters := cull(pool, objs, frustum, 1)
	require.Len(t, draws, 3)
	assert.Equal(t, common.Vec3{0, 0, -10}, draws[0].Transform.Translation())
	assert.Equal(t, common.Vec3{8, 0, -10}, draws[1].Transform.Translation())
	assert.Equal(t, common.Vec3{0, 0, -0.1}, draws[2].Transform.Translation())
	require.Len(t, casters, 1)
	assert.Equal(t, common.Vec3{0, 0, -10}, casters[0].Transform.Translation())
}

func TestCullChunkingPreservesOrder(t *testing.T) {
	pool := worker.NewDynamicWorkerPool(4, 64, time.Second)
	defer pool.Stop()

	frustum := common.ExtractFrustum(common.Ortho(-100, 100, -100, 100, -100, 100))
	objs := gridObjects(37, 37)
	for _, size := range []int{1, 4, 10, 100} {
		draws, casters := cull(pool, objs, frustum, size)
		require.Len(t, draws, 37)
		assert.Len(t, casters, 37)
		for i, dc := range draws {
			assert.Equal(t, objs[i].Position(), dc.Transform.Translation())
		}
	}
}

func TestSortDrawCommands(t *testing.T) {
	cube := model.NewCube("cube", 1)
	plane := model.NewPlane("plane", 1)
	a := material.NewMaterial()
	b := material.NewMaterial()

	at := func(x float32, mesh model.Model, mat material.Material) render_context.DrawCommand {
		return render_context.NewDrawCommand(common.Compose(common.Vec3{x, 0, 0}, common.Vec3{}, common.Vec3{1, 1, 1}), mesh, mat)
	}
	cmds := []render_context.DrawCommand{
		at(0, plane, b), at(1, cube, a), at(2, cube, b), at(3, plane, a), at(4, cube, a), at(5, cube, b),
	}

	sortDrawCommands(cmds)
	for i := 1; i < len(cmds); i++ {
		assert.LessOrEqual(t, cmds[i-1].SortKey, cmds[i].SortKey)
	}
	assert.Equal(t, a.ID(), cmds[0].Material.ID())
	assert.Equal(t, b.ID(), cmds[len(cmds)-1].Material.ID())

	once := append([]render_context.DrawCommand(nil), cmds...)
	sortDrawCommands(cmds)
	for i := range cmds {
		assert.Equal(t, once[i].Transform, cmds[i].Transform)
	}

	batches := render_context.Batches(cmds)
	assert.Len(t, batches, 4)
}
