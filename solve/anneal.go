package solve

import (
	"math"
	"math/rand"
	"sync"

	"github.com/blocksolve/blocksolve/bserr"
)

const (
	// annealStallLimit is the number of consecutive iterations without a
	// new best cost or an accepted move before the loop stops.
	annealStallLimit = 1000
	// annealMaxIterations is the hard cap regardless of stalling.
	annealMaxIterations = 10000
	// annealSeed is fixed so that identical inputs reproduce identical
	// annealing trajectories (spec.md §8's determinism invariant extends
	// to the RNG seed, not just the decomposition).
	annealSeed = 0
)

// SimulatedAnnealingConfig carries the five proposal
// parameters from spec.md §4.4(c) / the original's SimulatedAnnealingConfig
// (argmin_impls.rs): each of the small-move half-width, the big-jump
// scale, and the big-jump probability is linearly interpolated between a
// "min" value (as the anneal cools toward temperature 0) and an "init"
// value (at the starting temperature T0), and every proposed delta is
// finally clamped to ±MaxAbsStep regardless of how large the Cauchy tail
// draws.
type SimulatedAnnealingConfig struct {
	InitTemp float64 // T0

	SmallStepInit float64 // uniform small-move half-width at T0
	SmallStepMin  float64 // uniform small-move half-width as T -> 0

	BigStepInit float64 // Cauchy big-jump scale at T0
	BigStepMin  float64 // Cauchy big-jump scale as T -> 0

	PBigInit float64 // probability of a big jump at T0
	PBigMin  float64 // probability of a big jump as T -> 0

	MaxAbsStep float64 // hard clamp on any single proposed coordinate delta
}

// DefaultSimulatedAnnealingConfig returns spec.md §4.4(c)'s stated
// constants, matching the original's Default impl: T0=100,
// small_step in [0.01, 0.25], big_step in [0.10, ln 10], p_big in
// [0.02, 0.30], max_abs_step = ln 100.
func DefaultSimulatedAnnealingConfig() SimulatedAnnealingConfig {
	return SimulatedAnnealingConfig{
		InitTemp:      100,
		SmallStepInit: 0.25,
		SmallStepMin:  0.01,
		BigStepInit:   math.Log(10),
		BigStepMin:    0.10,
		PBigInit:      0.30,
		PBigMin:       0.02,
		MaxAbsStep:    math.Log(100),
	}
}

// sharedRNG is the persistent, seeded random source every
// SimulatedAnneal call draws from, guarded by a mutex since Go's rand.Rand
// is not safe for concurrent use. This mirrors the original's
// Arc<Mutex<StdRng>> (see DESIGN.md): there is no genuine concurrent
// contention in this package today, but the interface this RNG serves
// is shared across potentially-reentrant solver calls, so it is
// synchronized rather than assumed single-threaded.
var (
	sharedRNGOnce sync.Once
	sharedRNG     *rand.Rand
	sharedRNGMu   sync.Mutex
)

func rng() *rand.Rand {
	sharedRNGOnce.Do(func() {
		sharedRNG = rand.New(rand.NewSource(annealSeed))
	})
	return sharedRNG
}

func lerp(lo, hi, t float64) float64 { return lo + (hi-lo)*t }

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// propose mutates one coordinate of x (chosen uniformly at random) in
// place, mixing a small uniform move with a heavy-tailed Cauchy "big
// jump", with every interpolated quantity (and the resulting delta)
// following cfg exactly as spec.md §4.4(c) states.
func propose(x []float64, cfg SimulatedAnnealingConfig, temperature float64) {
	tau := 0.0
	if cfg.InitTemp > 0 {
		tau = clamp01(temperature / cfg.InitTemp)
	}
	r := rng()
	coord := r.Intn(len(x))

	pBig := clamp01(lerp(cfg.PBigMin, cfg.PBigInit, tau))
	smallStep := lerp(cfg.SmallStepMin, cfg.SmallStepInit, tau)
	bigStep := lerp(cfg.BigStepMin, cfg.BigStepInit, tau)

	var delta float64
	if r.Float64() < pBig {
		delta = bigStep * math.Tan(math.Pi*(r.Float64()-0.5)) // standard Cauchy sample
	} else {
		delta = smallStep * (2*r.Float64() - 1)
	}
	delta = clamp(delta, -cfg.MaxAbsStep, cfg.MaxAbsStep)

	x[coord] += delta
}

// SimulatedAnnealSettings configures solve.SimulatedAnneal. The zero
// value uses spec.md's stated defaults.
type SimulatedAnnealSettings struct {
	// Config carries the proposal-interpolation parameters. The zero
	// value (Config.InitTemp == 0) resolves to
	// DefaultSimulatedAnnealingConfig, i.e. T0=100.
	Config SimulatedAnnealingConfig
	// CoolingRate multiplies the temperature after every iteration.
	// 0 means the spec default of 0.99.
	CoolingRate float64
	Observer    Observer
}

func (s SimulatedAnnealSettings) config() SimulatedAnnealingConfig {
	if s.Config.InitTemp == 0 {
		return DefaultSimulatedAnnealingConfig()
	}
	return s.Config
}

func (s SimulatedAnnealSettings) coolingRate() float64 {
	if s.CoolingRate == 0 {
		return 0.99
	}
	return s.CoolingRate
}

func (s SimulatedAnnealSettings) observer() Observer {
	if s.Observer == nil {
		return NopObserver{}
	}
	return s.Observer
}

// SimulatedAnneal minimizes p.Cost starting at x0 by proposing one
// coordinate move per iteration (see propose) and accepting it whenever
// it improves cost, or with Metropolis probability exp(-(newCost-cost)/T)
// otherwise. It stops after annealStallLimit consecutive iterations with
// neither a new best cost nor an accepted move, or after
// annealMaxIterations regardless. It returns SimulatedAnnealingFailed if
// the cost at the starting point, or at any proposed point, is ever
// non-finite.
func SimulatedAnneal(p ScalarProblem, x0 []float64, settings SimulatedAnnealSettings) ([]float64, error) {
	sharedRNGMu.Lock()
	defer sharedRNGMu.Unlock()

	x := make([]float64, len(x0))
	copy(x, x0)
	cost := p.Cost(x)
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return nil, bserr.New(bserr.SimulatedAnnealingFailed, "simulatedanneal: initial cost is non-finite")
	}

	best := make([]float64, len(x))
	copy(best, x)
	bestCost := cost

	cfg := settings.config()
	temperature := cfg.InitTemp
	cooling := settings.coolingRate()
	obs := settings.observer()
	obs.Observe(0, cost)

	stall := 0
	for iter := 1; iter <= annealMaxIterations && stall < annealStallLimit; iter++ {
		candidate := make([]float64, len(x))
		copy(candidate, x)
		propose(candidate, cfg, temperature)

		candidateCost := p.Cost(candidate)
		if math.IsNaN(candidateCost) || math.IsInf(candidateCost, 0) {
			return nil, bserr.New(bserr.SimulatedAnnealingFailed,
				"simulatedanneal: proposed cost is non-finite at iteration %d", iter)
		}

		improved := false
		accepted := false
		delta := candidateCost - cost
		if delta < 0 || rng().Float64() < math.Exp(-delta/temperature) {
			x = candidate
			cost = candidateCost
			accepted = true
			if cost < bestCost {
				copy(best, x)
				bestCost = cost
				improved = true
			}
		}

		if improved || accepted {
			stall = 0
		} else {
			stall++
		}

		temperature *= cooling
		obs.Observe(iter, cost)
	}

	return best, nil
}
