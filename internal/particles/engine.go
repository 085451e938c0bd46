// Package particles implements the backdrop animation shown when no artwork
// is available: a fixed-size set of particles bouncing around a surface,
// pulling on each other and drawing lines between close pairs.
package particles

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrAlreadyInitialized is returned when Init is called a second time.
var ErrAlreadyInitialized = errors.New("particles: engine already initialized")

// Engine owns the particle store, the surface handle and the run state.
//
// Each frame runs clear, update and draw, then asks the host for the next
// frame. The frame loop never stops once started; Stop and Restart only flip
// the run state, and every step checks it.
type Engine struct {
	host   Host
	config Config
	rng    *rand.Rand
	logger zerolog.Logger

	// mu guards everything below. Hosts drive frames and resizes from a
	// single goroutine, but lifecycle calls can come from elsewhere.
	mu          sync.Mutex
	surface     Surface
	width       float64
	height      float64
	particles   []Particle
	running     bool
	initialized bool
}

// Option configures an Engine
type Option func(*Engine)

// WithRand sets the random source used to place particles
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithLogger sets the engine logger
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger.With().Str("component", "particles").Logger()
	}
}

// New creates an engine bound to host. The engine starts in the running
// state but does nothing until Init.
func New(host Host, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		host:    host,
		config:  cfg.withDefaults(),
		logger:  zerolog.Nop(),
		running: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.config
}

// Init prepares the surface, fills the store and starts the frame loop.
// It must be called exactly once, after the host can supply a surface.
func (e *Engine) Init() error {
	e.mu.Lock()
	if e.initialized {
		e.mu.Unlock()
		return ErrAlreadyInitialized
	}
	if err := e.prepareSurface(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.createParticles()
	e.initialized = true
	e.mu.Unlock()

	e.logger.Debug().
		Int("particles", e.config.ParticleCount).
		Float64("width", e.width).
		Float64("height", e.height).
		Msg("Particle engine started")

	e.host.OnResize(e.resize)
	e.loop()
	return nil
}

// Stop halts the simulation and blanks the surface. Calling it while
// already stopped does nothing.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}
	e.running = false
	if e.surface != nil {
		e.surface.Clear()
	}
	e.logger.Debug().Msg("Particle engine stopped")
}

// Restart replaces the store with fresh particles and resumes the
// simulation. It only has an effect while stopped.
func (e *Engine) Restart() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return
	}
	e.particles = nil
	e.createParticles()
	e.running = true
	e.logger.Debug().Msg("Particle engine restarted")
}

// Running reports whether the simulation is advancing
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Particles returns a copy of the current store
func (e *Engine) Particles() []Particle {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Particle, len(e.particles))
	copy(out, e.particles)
	return out
}

// loop runs one frame and queues the next
func (e *Engine) loop() {
	e.frame()
	e.host.RequestFrame(e.loop)
}

// frame runs a single clear, update, draw pass
func (e *Engine) frame() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clear()
	e.update()
	e.draw()
}

// resize re-reads the surface size. Particles keep their positions and
// velocities.
func (e *Engine) resize() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.prepareSurface(); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to prepare surface after resize")
		return
	}
	e.logger.Debug().
		Float64("width", e.width).
		Float64("height", e.height).
		Msg("Surface resized")
}

// prepareSurface looks up the surface and matches its buffer to its layout
// size. Must be called with e.mu held.
func (e *Engine) prepareSurface() error {
	s := e.host.Surface()
	if s == nil {
		return ErrNoSurface
	}

	w, h := s.LayoutSize()
	s.SetBufferSize(w, h)

	e.surface = s
	e.width = float64(w)
	e.height = float64(h)
	return nil
}

// createParticles appends ParticleCount new particles. The store must be
// empty; calling it otherwise grows the store past the configured count.
// Must be called with e.mu held.
func (e *Engine) createParticles() {
	for i := 0; i < e.config.ParticleCount; i++ {
		e.particles = append(e.particles, newParticle(e.rng, e.width, e.height))
	}
}

// clear wipes the surface ready for the next frame. Must be called with
// e.mu held.
func (e *Engine) clear() {
	if !e.running {
		return
	}
	e.surface.Clear()
}

// update moves every particle, bounces it off the edges and applies the
// pairwise pull. Lines between interacting pairs are drawn here, from the
// same positions the pull was computed from. Must be called with e.mu held.
func (e *Engine) update() {
	if !e.running {
		return
	}

	minDist := e.config.MinimumAffectingDistance
	for i := range e.particles {
		p := &e.particles[i]

		p.X += p.VX
		p.Y += p.VY

		// Reflect rather than clamp: a particle may sit past the edge for
		// one frame before its velocity turns around
		if p.X+p.Radius > e.width || p.X-p.Radius < 0 {
			p.VX = -p.VX
		}
		if p.Y+p.Radius > e.height || p.Y-p.Radius < 0 {
			p.VY = -p.VY
		}

		for j := i + 1; j < len(e.particles); j++ {
			q := &e.particles[j]

			in := interact(*p, *q, minDist)
			if !in.Linked {
				continue
			}
			drawLink(e.surface, *p, *q, in)
			in.apply(p, q)
		}
	}
}

// draw renders every particle. Must be called with e.mu held.
func (e *Engine) draw() {
	if !e.running {
		return
	}
	for _, p := range e.particles {
		drawParticle(e.surface, p)
	}
}
