package splash

import (
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// shardsPerWorker is M in spec §2: the number of shards each worker
	// draws roots from.
	shardsPerWorker = 5

	defaultSplashSize = 100
	defaultSeed       = int64(0x5e1f5eed)
)

// Configuration is the viper-unmarshalled, YAML-facing configuration for a
// scheduler run, distinct from the functional Option list used by callers
// constructing a Scheduler programmatically.
type Configuration struct {
	// SplashSize bounds the cumulative edgecount grown into a splash.
	SplashSize int `mapstructure:"splashSize" validate:"gt=0"`
	// Workers is the number of worker goroutines the engine launches.
	Workers int `mapstructure:"workers" validate:"gt=0"`
	// Seed drives the per-worker locally-randomised neighbour ordering.
	Seed int64 `mapstructure:"seed"`
	// MetricsRefreshPeriod is how often the metrics collector recomputes
	// its snapshot. Zero keeps the collector's one-second default.
	MetricsRefreshPeriod time.Duration `mapstructure:"metricsRefreshPeriod"`
}

// Options converts a Configuration into the Option list NewScheduler expects.
func (c Configuration) Options() []Option {
	opts := []Option{WithSplashSize(c.SplashSize)}
	if c.Seed != 0 {
		opts = append(opts, WithSeed(c.Seed))
	}
	return opts
}

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithSplashSize sets the maximum cumulative edgecount per splash.
// Default is 100.
func WithSplashSize(n int) Option {
	return func(s *Scheduler) {
		if n <= 0 {
			log.Warnf("splash: ignoring non-positive splash size %d", n)
			return
		}
		s.splashSize = n
	}
}

// WithSeed sets the base seed for the per-worker locally-randomised
// neighbour ordering used during splash growth.
func WithSeed(seed int64) Option {
	return func(s *Scheduler) { s.seed = seed }
}

// WithUpdateFunction sets the canonical update function up front, as an
// alternative to letting the first AddTask/AddTaskToAll call establish it.
func WithUpdateFunction(fn UpdateFunc) Option {
	return func(s *Scheduler) {
		s.updateFn = UpdateFunction{Func: fn}
	}
}

// WithMonitor overrides the default NopMonitor.
func WithMonitor(m Monitor) Option {
	return func(s *Scheduler) { s.monitor = m }
}

// WithShardPermutation supplies a fixed permutation of shard indices,
// applied on top of the default v mod Q assignment. len(perm) must equal
// numWorkers*shardsPerWorker.
func WithShardPermutation(perm []int) Option {
	return func(s *Scheduler) { s.shardPermutation = perm }
}

// OptionKey identifies a legacy, engine-facing configuration key as named
// in spec §4.1/§6, for engines that set options by opaque key/value pairs
// rather than functional options.
type OptionKey int

const (
	OptionSplashSize OptionKey = iota
	OptionUpdateFunction
)

// SetOption implements the engine-facing SPLASH_SIZE / UPDATE_FUNCTION
// configuration keys. Unknown keys are logged and ignored, never fatal.
func (s *Scheduler) SetOption(key OptionKey, value interface{}) {
	switch key {
	case OptionSplashSize:
		n, ok := value.(int)
		if !ok {
			log.Warnf("splash: SPLASH_SIZE expects an int, got %T", value)
			return
		}
		WithSplashSize(n)(s)
	case OptionUpdateFunction:
		fn, ok := value.(UpdateFunc)
		if !ok {
			log.Warnf("splash: UPDATE_FUNCTION expects an UpdateFunc, got %T", value)
			return
		}
		s.mu.Lock()
		s.updateFn = UpdateFunction{Func: fn}
		s.mu.Unlock()
	default:
		log.Warnf("splash: unknown option key %v, ignoring", key)
	}
}
