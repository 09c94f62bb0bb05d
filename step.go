package impulse

import (
	"github.com/gazed/impulse/broadphase"
	"github.com/gazed/impulse/constraintapi"
	"github.com/gazed/impulse/contact"
	"github.com/gazed/impulse/geom"
	"github.com/gazed/impulse/internal/workers"
	"github.com/gazed/impulse/narrowphase"
	"github.com/gazed/impulse/pool"
	"github.com/gazed/impulse/solver"
)

const (
	baumgarteFactor = 0.2
	penetrationSlop = 0.005
)

// Step advances the simulation by dt, split into WorldConfig.Substeps equal
// substeps each running the full integrate/collide/solve pipeline. Grounded
// on gazed-vu/physics/physics.go's Simulate, which this package replaces
// with a shape-agnostic, multi-body, substeppable pipeline.
func (w *World) Step(dt float64) {
	if dt <= 0 || w.bodies.Len() == 0 {
		return
	}
	sub := dt / float64(w.config.Substeps)
	for i := 0; i < w.config.Substeps; i++ {
		w.substep(sub)
	}
}

func (w *World) substep(dt float64) {
	w.lastSubstepDt = dt
	w.integrateForces(dt)
	w.updateBroadphase()

	pairs := w.collectCandidatePairs()
	w.generateContacts(pairs)

	states := make(map[pool.Handle]*solver.BodyState)
	groups := w.buildIslandRows(states)

	tasks := make([]workers.Task, 0, len(groups))
	for _, rows := range groups {
		rows := rows
		tasks = append(tasks, func() { solver.Solve(rows, w.config.SolverIterations) })
	}
	w.runTasks(tasks)

	w.writeBackStates(states)
	w.integratePositions(dt)
	w.updateSleep(dt)
	w.clearForces()
}

// integrateForces applies gravity and accumulated forces/torques to every
// active dynamic body's velocities. Kinematic and static bodies are never
// touched here, matching Simulate's own "fixed bodies skip gravity" rule.
func (w *World) integrateForces(dt float64) {
	for i := 0; i < w.bodies.ActiveLen(); i++ {
		h := w.bodies.HandleAt(i)
		b := w.bodies.Get(h)
		if b.kind != Dynamic {
			continue
		}
		if b.invMass != 0 {
			b.force = b.force.Add(w.config.Gravity.Mul(1.0 / b.invMass))
		}
		b.integrateVelocities(dt)
		if !geom.Finite(b.linearVelocity) || !geom.Finite(b.angularVelocity) {
			w.config.Logger.Warn("impulse: clamping non-finite velocity", "body", h)
			b.linearVelocity, b.angularVelocity = geom.Zero3, geom.Zero3
		}
	}
}

// updateBroadphase refreshes every active body's proxy AABB from its current
// pose.
func (w *World) updateBroadphase() {
	for i := 0; i < w.bodies.ActiveLen(); i++ {
		h := w.bodies.HandleAt(i)
		b := w.bodies.Get(h)
		if b.shape == nil || b.proxyNode < 0 {
			continue
		}
		box := worldAABB(b.shape, b.position, b.rotation)
		w.tree.Update(b.proxyNode, box)
	}
}

// collectCandidatePairs enumerates broadphase-overlapping proxy pairs and
// resolves them back to body handles, dropping pairs where neither body can
// move (two statics, or a static and a kinematic) since they can never
// produce a meaningful contact response.
func (w *World) collectCandidatePairs() []pairKey {
	var pairs []pairKey
	w.tree.EnumerateOverlaps(nil, func(pa, pb broadphase.ProxyID) {
		ha, okA := w.proxyOwner[pa]
		hb, okB := w.proxyOwner[pb]
		if !okA || !okB {
			return
		}
		ba, bb := w.bodies.Get(ha), w.bodies.Get(hb)
		if ba == nil || bb == nil {
			return
		}
		if ba.invMass == 0 && bb.invMass == 0 {
			return
		}
		pairs = append(pairs, w.makePairKey(ha, hb))
	})
	return pairs
}

// generateContacts runs narrowphase collision on each candidate pair,
// refreshing and merging its persistent manifold. A pair that no longer
// overlaps keeps its manifold while Refresh leaves it any points and loses
// it once it is empty; pairs that touch for the first time get a fresh
// manifold and union their islands.
func (w *World) generateContacts(pairs []pairKey) {
	seen := make(map[pairKey]bool, len(pairs))
	for _, key := range pairs {
		seen[key] = true

		a, b := w.bodies.Get(key.a), w.bodies.Get(key.b)
		if a == nil || b == nil || a.shape == nil || b.shape == nil {
			continue
		}

		wsA := narrowphase.WorldShape{Shape: a.shape, Position: a.position, Rotation: a.rotation}
		wsB := narrowphase.WorldShape{Shape: b.shape, Position: b.position, Rotation: b.rotation}
		result := narrowphase.Collide(wsA, wsB)

		m := w.manifolds[key]
		if m != nil {
			m.Refresh(
				func(local geom.Vec3) geom.Vec3 { return a.position.Add(a.rotation.Mul3x1(local)) },
				func(local geom.Vec3) geom.Vec3 { return b.position.Add(b.rotation.Mul3x1(local)) },
			)
		}

		if !result.Overlapping {
			if m != nil && len(m.Points) == 0 {
				delete(w.manifolds, key)
			}
			continue
		}

		fresh := make([]contact.Point, len(result.Points))
		for i, p := range result.Points {
			fresh[i] = contact.Point{
				LocalA: a.rotation.Transpose().Mul3x1(p.Position.Sub(a.position)),
				LocalB: b.rotation.Transpose().Mul3x1(p.Position.Sub(b.position)),
				WorldA: p.Position,
				WorldB: p.Position,
				Normal: result.Normal,
				Depth:  p.Depth,
			}
		}

		if m == nil {
			if len(w.manifolds) >= w.config.MaxContacts {
				w.config.Logger.Warn("impulse: contact manifold capacity reached, dropping new contact", "max", w.config.MaxContacts)
				continue
			}
			m = contact.New()
			w.manifolds[key] = m
		}
		m.Merge(fresh)

		// Union only links two dynamic bodies into one island; a kinematic
		// or static body is a connectivity break. Either still needs to
		// wake a sleeping dynamic body it has just started touching.
		w.graph.Union(key.a, key.b)
		if a.kind != Dynamic && b.kind == Dynamic {
			w.graph.Wake(key.b)
		} else if b.kind != Dynamic && a.kind == Dynamic {
			w.graph.Wake(key.a)
		}
	}

	for key := range w.manifolds {
		if !seen[key] {
			delete(w.manifolds, key)
		}
	}
}

// buildIslandRows builds solver rows for every live manifold and constraint,
// grouped by the island of one of their two bodies (both share an island
// root by the time this runs, since generateContacts already unioned every
// touching pair and constraints are unioned below).
func (w *World) buildIslandRows(states map[pool.Handle]*solver.BodyState) map[pool.Handle][]*solver.Row {
	for _, c := range w.constraints {
		if w.bodies.Get(c.a) != nil && w.bodies.Get(c.b) != nil {
			w.graph.Union(c.a, c.b)
		}
	}

	bodyIsland := make(map[pool.Handle]pool.Handle)
	for root, members := range w.graph.Islands() {
		for _, m := range members {
			bodyIsland[m] = root
		}
	}
	groupKey := func(a, b pool.Handle) pool.Handle {
		if root, ok := bodyIsland[a]; ok {
			return root
		}
		if root, ok := bodyIsland[b]; ok {
			return root
		}
		return a
	}

	groups := make(map[pool.Handle][]*solver.Row)

	for key, m := range w.manifolds {
		a, b := w.bodies.Get(key.a), w.bodies.Get(key.b)
		if a == nil || b == nil || !w.graph.IsActive(key.a) && !w.graph.IsActive(key.b) {
			continue
		}
		stA, stB := w.stateFor(states, key.a, a), w.stateFor(states, key.b, b)
		rows := w.contactRows(m, a, b, stA, stB)
		g := groupKey(key.a, key.b)
		groups[g] = append(groups[g], rows...)
	}

	for _, c := range w.constraints {
		a, b := w.bodies.Get(c.a), w.bodies.Get(c.b)
		if a == nil || b == nil {
			continue
		}
		if !w.graph.IsActive(c.a) && !w.graph.IsActive(c.b) {
			continue
		}
		stA, stB := w.stateFor(states, c.a, a), w.stateFor(states, c.b, b)
		refA := constraintapi.BodyRef{Position: a.position, Rotation: a.rotation, State: stA}
		refB := constraintapi.BodyRef{Position: b.position, Rotation: b.rotation, State: stB}
		rows := c.c.Rows(refA, refB, nil)
		g := groupKey(c.a, c.b)
		groups[g] = append(groups[g], rows...)
	}

	return groups
}

// contactRows builds a normal row plus two friction rows per manifold
// point, seeding each with the point's warm-started impulse from last step
// and recording the row in w.pendingImpulses so writeBackStates can copy the
// post-solve impulses back into the manifold once solving finishes.
func (w *World) contactRows(m *contact.Manifold, a, b *rigidBodyData, stA, stB *solver.BodyState) []*solver.Row {
	rows := make([]*solver.Row, 0, len(m.Points)*3)
	friction := combinedFriction(a, b)
	restitution := combinedRestitution(a, b)

	for i := range m.Points {
		p := &m.Points[i]
		p.Friction = friction
		p.Restitution = restitution

		rA := p.WorldA.Sub(a.position)
		rB := p.WorldB.Sub(b.position)
		n := p.Normal

		approachSpeed := velocityAt(stB, rB).Sub(velocityAt(stA, rA)).Dot(n)

		normalRow := &solver.Row{
			A: stA, B: stB,
			LinearA: n.Mul(-1), AngularA: rA.Cross(n.Mul(-1)),
			LinearB: n, AngularB: rB.Cross(n),
			Bias:           contactBias(p.Depth, p.Restitution, approachSpeed, w.stepDt()),
			LowerLimit:     0,
			UpperLimit:     1e12,
			AppliedImpulse: p.NormalImpulse,
		}
		rows = append(rows, normalRow)

		t1, t2 := geom.TangentBasis(n)
		friction1 := &solver.Row{
			A: stA, B: stB,
			LinearA: t1.Mul(-1), AngularA: rA.Cross(t1.Mul(-1)),
			LinearB: t1, AngularB: rB.Cross(t1),
			FrictionOf: normalRow, Friction: p.Friction, AppliedImpulse: p.Tangent1Impulse,
		}
		friction2 := &solver.Row{
			A: stA, B: stB,
			LinearA: t2.Mul(-1), AngularA: rA.Cross(t2.Mul(-1)),
			LinearB: t2, AngularB: rB.Cross(t2),
			FrictionOf: normalRow, Friction: p.Friction, AppliedImpulse: p.Tangent2Impulse,
		}
		rows = append(rows, friction1, friction2)

		w.pendingImpulses = append(w.pendingImpulses, impulseWriteback{point: p, normal: normalRow, t1: friction1, t2: friction2})
	}
	return rows
}

// contactBias computes the target closing velocity for a contact row: a
// Baumgarte position-correction term for penetration beyond penetrationSlop,
// or the restitution-scaled bounce velocity if the bodies are approaching,
// whichever demands more separation.
func contactBias(depth, restitution, approachSpeed, dt float64) float64 {
	positional := 0.0
	if depth > penetrationSlop && dt > 0 {
		positional = baumgarteFactor / dt * (depth - penetrationSlop)
	}
	bounce := 0.0
	if approachSpeed < 0 {
		bounce = -restitution * approachSpeed
	}
	if bounce > positional {
		return bounce
	}
	return positional
}

func velocityAt(st *solver.BodyState, r geom.Vec3) geom.Vec3 {
	return st.LinearVelocity.Add(st.AngularVelocity.Cross(r))
}

// stateFor returns the solver.BodyState backing h, creating and caching one
// seeded from the body's current velocities on first use this substep.
func (w *World) stateFor(states map[pool.Handle]*solver.BodyState, h pool.Handle, b *rigidBodyData) *solver.BodyState {
	if st, ok := states[h]; ok {
		return st
	}
	st := &solver.BodyState{
		LinearVelocity:  b.linearVelocity,
		AngularVelocity: b.angularVelocity,
		InvMass:         b.invMass,
		InvInertia:      b.invInertia,
	}
	states[h] = st
	return st
}

// writeBackStates copies post-solve velocities back into their owning
// bodies, and persists each contact row's accumulated impulse into its
// manifold point for next step's warm start.
func (w *World) writeBackStates(states map[pool.Handle]*solver.BodyState) {
	for h, st := range states {
		b := w.bodies.Get(h)
		if b == nil || b.invMass == 0 {
			continue
		}
		b.linearVelocity = st.LinearVelocity
		b.angularVelocity = st.AngularVelocity
	}
	for _, wb := range w.pendingImpulses {
		wb.point.NormalImpulse = wb.normal.AppliedImpulse
		wb.point.Tangent1Impulse = wb.t1.AppliedImpulse
		wb.point.Tangent2Impulse = wb.t2.AppliedImpulse
	}
	w.pendingImpulses = w.pendingImpulses[:0]
}

// integratePositions advances every active dynamic/kinematic body's pose by
// its current velocity.
func (w *World) integratePositions(dt float64) {
	for i := 0; i < w.bodies.ActiveLen(); i++ {
		h := w.bodies.HandleAt(i)
		b := w.bodies.Get(h)
		b.integratePosition(dt)
		b.updateInertiaTensor()
	}
}

// updateSleep accumulates each active body's sleep timer and moves whole
// islands that have gone still long enough into the pool's inactive
// partition, then wakes any island a fresh contact or applied impulse has
// touched back into the active partition.
func (w *World) updateSleep(dt float64) {
	for i := 0; i < w.bodies.ActiveLen(); i++ {
		h := w.bodies.HandleAt(i)
		b := w.bodies.Get(h)
		if b.kind != Dynamic {
			continue
		}
		below := b.speedBelowThreshold(w.config.LinearSleepThreshold, w.config.AngularSleepThreshold)
		w.graph.AccumulateSleepTime(h, below, dt, w.config.TimeToSleep)
	}

	var toSleep, toWake []pool.Handle
	for i := 0; i < w.bodies.ActiveLen(); i++ {
		h := w.bodies.HandleAt(i)
		if b := w.bodies.Get(h); b.kind == Dynamic && !w.graph.IsActive(h) {
			toSleep = append(toSleep, h)
		}
	}
	for i := w.bodies.ActiveLen(); i < w.bodies.Len(); i++ {
		h := w.bodies.HandleAt(i)
		if b := w.bodies.Get(h); b.kind == Dynamic && w.graph.IsActive(h) {
			toWake = append(toWake, h)
		}
	}

	for _, h := range toSleep {
		b := w.bodies.Get(h)
		b.linearVelocity, b.angularVelocity = geom.Zero3, geom.Zero3
		b.sleeping = true
		w.bodies.MoveActive(h, false)
	}
	for _, h := range toWake {
		w.bodies.Get(h).sleeping = false
		w.bodies.MoveActive(h, true)
	}
}

// clearForces zeroes every active body's accumulated force/torque.
func (w *World) clearForces() {
	for i := 0; i < w.bodies.ActiveLen(); i++ {
		w.bodies.Get(w.bodies.HandleAt(i)).clearForces()
	}
}

// runTasks dispatches tasks through the scheduling mode the world was
// configured with.
func (w *World) runTasks(tasks []workers.Task) {
	if len(tasks) == 0 {
		return
	}
	if w.workerPool != nil {
		w.workerPool.Run(tasks)
		return
	}
	workers.RunOnce(tasks)
}

// stepDt reports the substep duration last requested, used by contactBias.
// Stored rather than threaded through every call because Row construction
// already takes enough parameters.
func (w *World) stepDt() float64 {
	return w.lastSubstepDt
}
