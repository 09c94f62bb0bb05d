// Package impulse is a real-time, impulse-based rigid-body dynamics core:
// semi-implicit Euler integration, optional substepping, a
// sequential-impulse solver with warm-starting, and connectivity-based
// sleeping. Contacts are generated only for shapes that already overlap;
// there are no speculative contacts for separated pairs. Grounded on gazed-vu/physics/physics.go's
// Simulate entrypoint and shape-factory API, reworked from a fixed,
// cgo-backed box/box collision pipeline into a pure-Go, shape-agnostic
// core built from support mapping.
package impulse

import (
	"math"

	"github.com/gazed/impulse/broadphase"
	"github.com/gazed/impulse/constraintapi"
	"github.com/gazed/impulse/contact"
	"github.com/gazed/impulse/geom"
	"github.com/gazed/impulse/internal/workers"
	"github.com/gazed/impulse/island"
	"github.com/gazed/impulse/pool"
	"github.com/gazed/impulse/shape"
	"github.com/gazed/impulse/solver"
)

// Constraint is the world-facing constraint contract; constraintapi.Distance
// and any caller-defined joint satisfy it directly.
type Constraint = constraintapi.Constraint

// pairKey identifies an unordered pair of bodies for contact-manifold
// lookup, persisting a manifold across steps as long as the broadphase
// keeps reporting the pair as overlapping. Canonicalized by insertion
// order (World.order) so (a,b) and (b,a) hash to the same entry.
type pairKey struct {
	a, b pool.Handle
}

func (w *World) makePairKey(a, b pool.Handle) pairKey {
	if w.order[b] < w.order[a] {
		a, b = b, a
	}
	return pairKey{a, b}
}

type constraintEntry struct {
	a, b RigidBody
	c    Constraint
}

// World owns every body, contact manifold, and constraint, and advances
// them with Step. Grounded on gazed-vu/physics/physics.go's package-level
// Simulate function, turned into a method on an explicit World value so
// multiple independent simulations can coexist.
type World struct {
	config WorldConfig

	bodies *pool.Pool[rigidBodyData]
	tree   *broadphase.Tree
	graph  *island.Graph

	manifolds   map[pairKey]*contact.Manifold
	constraints []constraintEntry
	workerPool  *workers.Pool

	order     map[pool.Handle]int // insertion index, canonicalizes pair keys.
	nextOrder int

	proxyOwner map[broadphase.ProxyID]pool.Handle

	lastSubstepDt   float64
	pendingImpulses []impulseWriteback
}

// impulseWriteback links a manifold point to the three rows it produced, so
// writeBackStates can persist the post-solve accumulated impulses for next
// step's warm start without re-deriving which row came from which point.
type impulseWriteback struct {
	point          *contact.Point
	normal, t1, t2 *solver.Row
}

// NewWorld validates cfg and allocates the body pool. Returns an *Error
// with Kind InvalidArgument if cfg is invalid.
func NewWorld(cfg WorldConfig) (*World, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	w := &World{
		config:     cfg,
		bodies:     pool.New[rigidBodyData](cfg.MaxBodies),
		tree:       broadphase.NewTree(),
		graph:      island.New(),
		manifolds:  make(map[pairKey]*contact.Manifold),
		order:      make(map[pool.Handle]int),
		proxyOwner: make(map[broadphase.ProxyID]pool.Handle),
	}
	if cfg.Schedule == SchedulePersistent {
		w.workerPool = workers.NewPool(cfg.Workers)
	}
	return w, nil
}

// Close releases any persistent worker-pool goroutines started by
// SchedulePersistent. No-op for ScheduleRegular worlds.
func (w *World) Close() {
	if w.workerPool != nil {
		w.workerPool.Close()
	}
}

// AddBody registers a new body and returns its stable handle. Returns an
// *Error with Kind CapacityExceeded if MaxBodies would be exceeded, or
// ZeroMassShape if a Dynamic body with a shape has a non-positive Mass or a
// non-invertible inertia. A Dynamic body added without a shape and without
// a Mass starts with unit mass; AttachShape later sets its mass.
func (w *World) AddBody(data RigidBodyData) (RigidBody, error) {
	rec := rigidBodyData{
		kind:        data.Kind,
		position:    data.Position,
		rotation:    data.Rotation,
		shape:       data.Shape,
		friction:    data.Friction,
		restitution: data.Restitution,
		proxyNode:   -1,
	}
	if rec.rotation == (geom.Mat3{}) {
		rec.rotation = geom.Identity3
	}
	rec.linearDamping = data.LinearDamping
	if rec.linearDamping == 0 {
		rec.linearDamping = w.config.LinearDamping
	}
	rec.angularDamping = data.AngularDamping
	if rec.angularDamping == 0 {
		rec.angularDamping = w.config.AngularDamping
	}

	if data.Kind == Dynamic {
		mass := data.Mass
		if mass <= 0 && data.Shape == nil {
			mass = 1 // unit mass until AttachShape supplies one.
		}
		if mass <= 0 {
			return RigidBody{}, newError(ZeroMassShape, "dynamic body requires positive mass", nil)
		}
		rec.invMass = 1.0 / mass
		if data.Shape != nil {
			inertia := data.Shape.Inertia(mass)
			inv, ok := invertDiagonal(inertia)
			if !ok {
				return RigidBody{}, newError(ZeroMassShape, "shape produced a non-invertible inertia tensor", nil)
			}
			rec.localInvInertia = inv
		}
	}
	rec.updateInertiaTensor()

	h, err := w.bodies.Allocate(data.Kind != Static)
	if err != nil {
		return RigidBody{}, newError(CapacityExceeded, "body pool is full", err)
	}
	*w.bodies.Get(h) = rec

	w.graph.AddBody(h, data.Kind != Dynamic)
	w.order[h] = w.nextOrder
	w.nextOrder++

	if data.Shape != nil {
		box := worldAABB(data.Shape, rec.position, rec.rotation)
		proxy := broadphase.ProxyID(w.order[h])
		nodeID := w.tree.AddProxy(box, proxy)
		w.proxyOwner[proxy] = h
		b := w.bodies.Get(h)
		b.proxyNode = nodeID
	}

	return h, nil
}

// RemoveBody drops a body and its broadphase proxy, and any manifolds
// referencing it. Constraints referencing it become inert: Step silently
// skips constraint entries whose body handle no longer resolves.
func (w *World) RemoveBody(h RigidBody) {
	b := w.bodies.Get(h)
	if b == nil {
		return
	}
	if b.proxyNode >= 0 {
		delete(w.proxyOwner, broadphase.ProxyID(w.order[h]))
		w.tree.RemoveProxy(b.proxyNode)
	}
	w.graph.RemoveBody(h)
	delete(w.order, h)
	for key := range w.manifolds {
		if key.a == h || key.b == h {
			delete(w.manifolds, key)
		}
	}
	w.bodies.Free(h)
}

// Body returns a copy of the current public state for h, or ok=false if h
// doesn't resolve to a live body.
func (w *World) Body(h RigidBody) (data RigidBodyData, ok bool) {
	b := w.bodies.Get(h)
	if b == nil {
		return RigidBodyData{}, false
	}
	return RigidBodyData{
		Kind: b.kind, Position: b.position, Rotation: b.rotation,
		Shape: b.shape, Friction: b.friction, Restitution: b.restitution,
		LinearDamping: b.linearDamping, AngularDamping: b.angularDamping,
		Sleeping: b.sleeping,
	}, true
}

// LinearVelocity and AngularVelocity report a live body's current
// velocities, for callers that need them without a full Body snapshot.
func (w *World) LinearVelocity(h RigidBody) geom.Vec3 {
	if b := w.bodies.Get(h); b != nil {
		return b.linearVelocity
	}
	return geom.Zero3
}

func (w *World) AngularVelocity(h RigidBody) geom.Vec3 {
	if b := w.bodies.Get(h); b != nil {
		return b.angularVelocity
	}
	return geom.Zero3
}

// SetVelocity directly sets a body's linear and angular velocity, waking
// its island. Used to drive Kinematic bodies, which Step never integrates
// forces into.
func (w *World) SetVelocity(h RigidBody, linear, angular geom.Vec3) {
	b := w.bodies.Get(h)
	if b == nil {
		return
	}
	b.linearVelocity, b.angularVelocity = linear, angular
	w.graph.Wake(h)
	w.bodies.MoveActive(h, true)
}

// ApplyImpulse applies an instantaneous impulse at a world-space point on
// body h, waking its island if it was asleep.
func (w *World) ApplyImpulse(h RigidBody, impulse, worldPoint geom.Vec3) {
	b := w.bodies.Get(h)
	if b == nil || b.invMass == 0 {
		return
	}
	b.linearVelocity = b.linearVelocity.Add(impulse.Mul(b.invMass))
	r := worldPoint.Sub(b.position)
	b.angularVelocity = b.angularVelocity.Add(b.invInertia.Mul3x1(r.Cross(impulse)))
	w.graph.Wake(h)
	w.bodies.MoveActive(h, true)
}

// AddForce accumulates a force (and the torque from applying it at
// worldPoint rather than the center of mass) to be integrated on the next
// Step.
func (w *World) AddForce(h RigidBody, force, worldPoint geom.Vec3) {
	b := w.bodies.Get(h)
	if b == nil || b.invMass == 0 {
		return
	}
	b.force = b.force.Add(force)
	r := worldPoint.Sub(b.position)
	b.torque = b.torque.Add(r.Cross(force))
}

// AttachShape gives a body its collision geometry after the fact, deriving
// mass/inertia for Dynamic bodies and creating the broadphase proxy. Returns
// an *Error with Kind ShapeAlreadyAttached if h already has a shape, or
// ZeroMassShape if a Dynamic body's new shape yields zero/non-finite mass.
func (w *World) AttachShape(h RigidBody, s shape.Shape, mass float64) error {
	b := w.bodies.Get(h)
	if b == nil {
		return newError(InvalidArgument, "body is not registered", nil)
	}
	if b.shape != nil {
		return newError(ShapeAlreadyAttached, "body already has a shape attached", nil)
	}
	if b.kind == Dynamic {
		if mass <= 0 {
			return newError(ZeroMassShape, "dynamic body requires positive mass", nil)
		}
		inertia := s.Inertia(mass)
		inv, ok := invertDiagonal(inertia)
		if !ok {
			return newError(ZeroMassShape, "shape produced a non-invertible inertia tensor", nil)
		}
		b.invMass = 1.0 / mass
		b.localInvInertia = inv
		b.updateInertiaTensor()
	}
	b.shape = s

	box := worldAABB(s, b.position, b.rotation)
	proxy := broadphase.ProxyID(w.order[h])
	b.proxyNode = w.tree.AddProxy(box, proxy)
	w.proxyOwner[proxy] = h
	return nil
}

// DetachShape removes a body's collision geometry and its broadphase proxy,
// dropping any manifold that referenced it. Dynamic bodies keep whatever
// mass/inertia they already had; attaching a new shape later re-derives
// them. Returns an *Error with Kind ShapeNotPresent if h has no shape.
func (w *World) DetachShape(h RigidBody) error {
	b := w.bodies.Get(h)
	if b == nil || b.shape == nil {
		return newError(ShapeNotPresent, "body has no shape to detach", nil)
	}
	if b.proxyNode >= 0 {
		proxy := broadphase.ProxyID(w.order[h])
		delete(w.proxyOwner, proxy)
		w.tree.RemoveProxy(b.proxyNode)
		b.proxyNode = -1
	}
	b.shape = nil
	for key := range w.manifolds {
		if key.a == h || key.b == h {
			delete(w.manifolds, key)
		}
	}
	return nil
}

// AddConstraint registers a constraint between two bodies. Returns an
// *Error with Kind MissingConstraintInitialization if either handle does
// not currently resolve to a live body, or CapacityExceeded if
// MaxConstraints is reached.
func (w *World) AddConstraint(a, b RigidBody, c Constraint) error {
	if w.bodies.Get(a) == nil || w.bodies.Get(b) == nil {
		return newError(MissingConstraintInitialization, "both bodies must be registered before adding a constraint", nil)
	}
	if len(w.constraints) >= w.config.MaxConstraints {
		return newError(CapacityExceeded, "constraint pool is full", nil)
	}
	w.constraints = append(w.constraints, constraintEntry{a: a, b: b, c: c})
	return nil
}

// IsAwake reports whether h's island is currently simulated. Static bodies
// are always reported awake; a body not registered with the world reports
// false.
func (w *World) IsAwake(h RigidBody) bool {
	if w.bodies.Get(h) == nil {
		return false
	}
	return w.graph.IsActive(h)
}

// RayCast finds the first broadphase proxy whose AABB the ray
// [origin, origin + direction*maxT] intersects, calling visit for the
// nearest one found. Grounded on gazed-vu/physics/caster.go's ray-plane/
// ray-sphere casts, generalized to the tree's AABB slab test; exact
// per-shape intersection beyond the bounding box is left to the caller.
func (w *World) RayCast(origin, direction geom.Vec3, maxT float64, visit func(h RigidBody, t float64)) {
	var nearest RigidBody
	nearestT, found := maxT, false
	w.tree.RayCast(origin, direction, maxT, func(p broadphase.ProxyID, t float64) float64 {
		if h, ok := w.proxyOwner[p]; ok && (!found || t < nearestT) {
			nearest, nearestT, found = h, t, true
		}
		return 0
	})
	if found {
		visit(nearest, nearestT)
	}
}

// invertDiagonal inverts a diagonal inertia matrix, returning ok=false if
// any diagonal entry is non-positive or non-finite.
func invertDiagonal(m geom.Mat3) (geom.Mat3, bool) {
	var out geom.Mat3
	for i := 0; i < 3; i++ {
		v := m[i*3+i]
		if v <= 0 || v != v || math.IsInf(v, 0) {
			return geom.Mat3{}, false
		}
		out[i*3+i] = 1 / v
	}
	return out, true
}

// worldAABB returns s's world-space bounding box for the given pose,
// conservatively widened to axis alignment by unioning the 8 rotated
// corners of its local AABB.
func worldAABB(s interface{ LocalAABB() geom.AABB }, pos geom.Vec3, rot geom.Mat3) geom.AABB {
	local := s.LocalAABB()
	var box geom.AABB
	first := true
	for i := 0; i < 8; i++ {
		corner := geom.Vec3{
			pick(i&1 != 0, local.Min[0], local.Max[0]),
			pick(i&2 != 0, local.Min[1], local.Max[1]),
			pick(i&4 != 0, local.Min[2], local.Max[2]),
		}
		world := pos.Add(rot.Mul3x1(corner))
		if first {
			box = geom.AABB{Min: world, Max: world}
			first = false
		} else {
			box = box.Union(geom.AABB{Min: world, Max: world})
		}
	}
	return box
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return b
	}
	return a
}
