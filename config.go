package impulse

import (
	"log/slog"

	"github.com/gazed/impulse/geom"
)

// ScheduleMode selects how Step fans work out across goroutines, matching
// the two worker-pool scheduling modes the core supports.
type ScheduleMode int

const (
	// ScheduleRegular spawns fresh goroutines per step and tears them down
	// afterward; simplest, best for infrequent or irregularly-sized steps.
	ScheduleRegular ScheduleMode = iota
	// SchedulePersistent keeps a long-lived worker pool parked between
	// steps, avoiding goroutine spawn overhead for steady fixed-timestep
	// simulation loops.
	SchedulePersistent
)

// WorldConfig carries every world tunable. Validated eagerly by NewWorld
// before any allocation; bad values return an *Error with Kind
// InvalidArgument and the world is not created.
type WorldConfig struct {
	// MaxBodies bounds the body pool's fixed capacity.
	MaxBodies int
	// MaxContacts bounds how many contact manifolds (body pairs in contact)
	// the world keeps; a newly touching pair beyond it gets no manifold that
	// step and the drop is logged.
	MaxContacts int
	// MaxConstraints bounds the user constraint pool's fixed capacity.
	MaxConstraints int

	// Gravity applied to every dynamic body each step, before the solver
	// runs.
	Gravity geom.Vec3

	// SolverIterations is how many sequential-impulse passes Step runs
	// over every row each solve.
	SolverIterations int
	// Substeps splits each Step call's dt into this many equal integration
	// substeps, each with its own narrowphase+solve pass, for stiffer
	// constraints and less tunneling without shrinking the caller's
	// timestep.
	Substeps int

	// LinearSleepThreshold and AngularSleepThreshold are the per-body
	// speed thresholds below which a body is considered "still" for
	// sleeping purposes.
	LinearSleepThreshold  float64
	AngularSleepThreshold float64
	// TimeToSleep is how long, in seconds, every body in an island must
	// stay below its sleep threshold before the island goes to sleep.
	TimeToSleep float64

	// LinearDamping and AngularDamping are default velocity decay rates, per
	// second, applied to bodies that don't override them individually: each
	// substep scales velocity by 1 - damping*dt, clamped at zero.
	LinearDamping  float64
	AngularDamping float64

	// Schedule selects the worker-pool scheduling mode Step uses to
	// parallelize across islands.
	Schedule ScheduleMode
	// Workers is the number of persistent goroutines to start when
	// Schedule is SchedulePersistent. Ignored otherwise.
	Workers int

	// Logger receives structured diagnostics (numerical anomalies,
	// dropped contacts, capacity pressure). Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultWorldConfig returns reasonable defaults for a small-to-medium
// simulation, matching gazed-vu/physics/physics.go's own hardcoded
// GRAVITY = 10.0 and single-substep default, with 8 solver iterations.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		MaxBodies:             1024,
		MaxContacts:           4096,
		MaxConstraints:        256,
		Gravity:               geom.Vec3{0, -10, 0},
		SolverIterations:      8,
		Substeps:              1,
		LinearSleepThreshold:  0.10,
		AngularSleepThreshold: 0.10,
		TimeToSleep:           1.0,
		LinearDamping:         0.0,
		AngularDamping:        0.0,
		Schedule:              ScheduleRegular,
	}
}

// validate checks every field for a sane value, filling in Logger if unset.
func (c *WorldConfig) validate() error {
	if c.MaxBodies <= 0 {
		return newError(InvalidArgument, "MaxBodies must be positive", nil)
	}
	if c.MaxContacts <= 0 {
		return newError(InvalidArgument, "MaxContacts must be positive", nil)
	}
	if c.MaxConstraints < 0 {
		return newError(InvalidArgument, "MaxConstraints must not be negative", nil)
	}
	if c.SolverIterations <= 0 {
		return newError(InvalidArgument, "SolverIterations must be positive", nil)
	}
	if c.Substeps <= 0 {
		return newError(InvalidArgument, "Substeps must be positive", nil)
	}
	if c.LinearSleepThreshold < 0 || c.AngularSleepThreshold < 0 {
		return newError(InvalidArgument, "sleep thresholds must not be negative", nil)
	}
	if c.TimeToSleep < 0 {
		return newError(InvalidArgument, "TimeToSleep must not be negative", nil)
	}
	if !geom.Finite(c.Gravity) {
		return newError(InvalidArgument, "Gravity must be finite", nil)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}
