package scene

import (
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/camera"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/game_object"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/light"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/resource_pool"
)

// tickChunkSize is the number of objects each Tick task advances.
const tickChunkSize = 512

// LightInstance is a light with its world-space position resolved. For a light attached to a
// GameObject the position is the object's position plus the light's offset; a free light uses
// its offset as its position.
type LightInstance struct {
	Light    light.Light
	Position common.Vec3
	// OwnerID is the ID of the owning GameObject, or 0 for a free light.
	OwnerID uint64
}

// Scene is the in-memory entity store the world renderer reads each frame. It holds GameObjects,
// free lights, the active play camera and the bound skybox. Safe for concurrent use.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Count returns the number of GameObjects in the scene.
	//
	// Returns:
	//   - int: the object count
	Count() int

	// Add adds a GameObject and returns its ID. Objects without an ID are assigned the next free one.
	//
	// Parameters:
	//   - obj: the GameObject to add
	//
	// Returns:
	//   - uint64: the object's ID
	Add(obj game_object.GameObject) uint64

	// Get retrieves a GameObject by its ID, or nil if not found.
	//
	// Parameters:
	//   - id: the object's unique ID
	//
	// Returns:
	//   - game_object.GameObject: the object or nil
	Get(id uint64) game_object.GameObject

	// Remove removes a GameObject by ID. Removing the active camera's object clears the active camera.
	//
	// Parameters:
	//   - id: the object's unique ID
	Remove(id uint64)

	// Clear removes all objects and free lights from the scene. The skybox binding is kept.
	Clear()

	// Renderables returns every enabled object with a model and a material, ordered by ID.
	//
	// Returns:
	//   - []game_object.GameObject: the renderable objects
	Renderables() []game_object.GameObject

	// AddLight adds a free light. Its offset is its world position.
	//
	// Parameters:
	//   - l: the Light to add
	AddLight(l light.Light)

	// RemoveLight removes a free light by reference.
	//
	// Parameters:
	//   - l: the Light to remove
	RemoveLight(l light.Light)

	// Lights returns free lights followed by object-attached lights in ID order, positions resolved.
	//
	// Returns:
	//   - []LightInstance: every light in the scene
	Lights() []LightInstance

	// ActiveCamera returns the camera of the active camera object, or nil if none is set.
	//
	// Returns:
	//   - camera.Camera: the play camera or nil
	ActiveCamera() camera.Camera

	// SetActiveCamera selects the object whose camera is used in play mode. An id of 0, or of an
	// object without a camera, clears the selection.
	//
	// Parameters:
	//   - id: the camera object's ID
	SetActiveCamera(id uint64)

	// Skybox returns the pool handle of the bound skybox cubemap.
	//
	// Returns:
	//   - resource_pool.Handle: the cubemap handle
	//   - bool: false if no skybox is bound
	Skybox() (resource_pool.Handle, bool)

	// SetSkybox binds a cubemap already put in the resource pool as the skybox.
	//
	// Parameters:
	//   - h: the cubemap handle
	SetSkybox(h resource_pool.Handle)

	// ClearSkybox unbinds the skybox.
	ClearSkybox()

	// ViewportSize returns the render area size.
	ViewportSize() common.Extent

	// SetViewportSize sets the render area size, typically from window resize events.
	//
	// Parameters:
	//   - extent: the new size in pixels
	SetViewportSize(extent common.Extent)

	// Tick advances every object by dt. Objects are ticked in parallel chunks on the scene's
	// worker pool, and Tick returns once all chunks are done.
	//
	// Parameters:
	//   - dt: elapsed seconds since the last tick
	Tick(dt float32)
}

type scene struct {
	mu *sync.RWMutex

	name string

	registry map[uint64]game_object.GameObject
	nextID   uint64

	lights []light.Light

	activeCameraID uint64
	skybox         resource_pool.Handle
	hasSkybox      bool
	viewport       common.Extent

	tickPool    worker.DynamicWorkerPool
	tickWorkers int
}

var _ Scene = &scene{}

// NewScene creates an empty Scene.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:          &sync.RWMutex{},
		name:        name,
		registry:    make(map[uint64]game_object.GameObject),
		nextID:      1,
		tickWorkers: max(runtime.NumCPU()-1, 1),
	}
	for _, option := range options {
		option(s)
	}

	// Workers persist across frames. The queue holds a full frame of chunks for typical scenes.
	s.tickPool = worker.NewDynamicWorkerPool(s.tickWorkers, 256, 1*time.Second)
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Add(obj game_object.GameObject) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(obj)
}

// add registers obj. Caller must hold the write lock.
func (s *scene) add(obj game_object.GameObject) uint64 {
	if obj.ID() == 0 {
		obj.SetID(s.nextID)
	}
	s.nextID = max(s.nextID, obj.ID()+1)
	s.registry[obj.ID()] = obj
	return obj.ID()
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.registry, id)
	if s.activeCameraID == id {
		s.activeCameraID = 0
	}
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.registry)
	s.lights = nil
	s.activeCameraID = 0
}

// sortedObjects returns the registry ordered by ID. Caller must hold a lock.
func (s *scene) sortedObjects() []game_object.GameObject {
	ids := make([]uint64, 0, len(s.registry))
	for id := range s.registry {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]game_object.GameObject, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.registry[id])
	}
	return out
}

func (s *scene) Renderables() []game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objs := s.sortedObjects()
	return slices.DeleteFunc(objs, func(obj game_object.GameObject) bool {
		return !obj.Renderable()
	})
}

func (s *scene) AddLight(l light.Light) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = append(s.lights, l)
}

func (s *scene) RemoveLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = slices.DeleteFunc(s.lights, func(existing light.Light) bool {
		return existing == l
	})
}

func (s *scene) Lights() []LightInstance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]LightInstance, 0, len(s.lights))
	for _, l := range s.lights {
		out = append(out, LightInstance{Light: l, Position: l.Offset()})
	}
	for _, obj := range s.sortedObjects() {
		l := obj.Light()
		if l == nil || !obj.Enabled() {
			continue
		}
		out = append(out, LightInstance{
			Light:    l,
			Position: obj.Position().Add(l.Offset()),
			OwnerID:  obj.ID(),
		})
	}
	return out
}

func (s *scene) ActiveCamera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.registry[s.activeCameraID]
	if !ok {
		return nil
	}
	return obj.Camera()
}

func (s *scene) SetActiveCamera(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.registry[id]
	if !ok || obj.Camera() == nil {
		s.activeCameraID = 0
		return
	}
	s.activeCameraID = id
}

func (s *scene) Skybox() (resource_pool.Handle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.skybox, s.hasSkybox
}

func (s *scene) SetSkybox(h resource_pool.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skybox = h
	s.hasSkybox = true
}

func (s *scene) ClearSkybox() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skybox = 0
	s.hasSkybox = false
}

func (s *scene) ViewportSize() common.Extent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewport
}

func (s *scene) SetViewportSize(extent common.Extent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = extent
}

func (s *scene) Tick(dt float32) {
	s.mu.RLock()
	objs := s.sortedObjects()
	s.mu.RUnlock()

	// A WaitGroup is the per-tick barrier; the pool's own Wait only returns once workers idle out.
	var wg sync.WaitGroup
	taskID := 0
	for chunk := range slices.Chunk(objs, tickChunkSize) {
		wg.Add(1)
		id := taskID
		taskID++
		s.tickPool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for _, obj := range chunk {
					obj.Tick(dt)
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
}
