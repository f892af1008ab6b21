package resilience

import (
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
)

var ErrCircuitOpen = crerr.New("circuit breaker is open")

type CircuitState uint8

const (
	CircuitStateClosed CircuitState = iota
	CircuitStateOpen
	CircuitStateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitStateClosed:
		return "closed"
	case CircuitStateOpen:
		return "open"
	case CircuitStateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreaker works in two steps: Allow admits a call and hands back a
// Done callback that reports its outcome. Outcomes reported after the breaker
// moved to a new generation are ignored, so a slow call that started before
// the circuit opened cannot close it again.
type CircuitBreaker struct {
	mu sync.Mutex

	name             string
	failureThreshold int
	openTimeout      time.Duration
	halfOpenMaxReq   int
	onStateChange    func(name string, from, to CircuitState)

	state      CircuitState
	generation uint64
	failures   int
	expiresAt  time.Time
	inFlight   int
	trialWins  int
	now        func() time.Time
}

// Done reports whether the admitted call failed.
type Done func(failed bool)

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	cfg = NormalizeCircuitBreakerConfig(cfg)
	return &CircuitBreaker{
		name:             cfg.Name,
		failureThreshold: cfg.FailureThreshold,
		openTimeout:      cfg.OpenTimeout,
		halfOpenMaxReq:   cfg.HalfOpenMaxReq,
		onStateChange:    cfg.OnStateChange,
		state:            CircuitStateClosed,
		now:              time.Now,
	}
}

func (b *CircuitBreaker) Allow() (Done, error) {
	b.mu.Lock()
	from, to, changed := b.refresh(b.now())
	if b.state == CircuitStateOpen || (b.state == CircuitStateHalfOpen && b.inFlight >= b.halfOpenMaxReq) {
		b.mu.Unlock()
		b.notify(from, to, changed)
		return nil, ErrCircuitOpen
	}
	b.inFlight++
	generation := b.generation
	b.mu.Unlock()
	b.notify(from, to, changed)

	var once sync.Once
	return func(failed bool) {
		once.Do(func() { b.report(generation, failed) })
	}, nil
}

func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	from, to, changed := b.refresh(b.now())
	state := b.state
	b.mu.Unlock()
	b.notify(from, to, changed)
	return state
}

func (b *CircuitBreaker) report(generation uint64, failed bool) {
	b.mu.Lock()
	now := b.now()
	from, to, changed := b.refresh(now)
	if generation != b.generation {
		b.mu.Unlock()
		b.notify(from, to, changed)
		return
	}
	if b.inFlight > 0 {
		b.inFlight--
	}

	prev := b.state
	switch {
	case b.state == CircuitStateClosed && failed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.setState(CircuitStateOpen, now)
		}
	case b.state == CircuitStateClosed:
		b.failures = 0
	case b.state == CircuitStateHalfOpen && failed:
		b.setState(CircuitStateOpen, now)
	case b.state == CircuitStateHalfOpen:
		b.trialWins++
		if b.trialWins >= b.halfOpenMaxReq {
			b.setState(CircuitStateClosed, now)
		}
	}
	next := b.state
	b.mu.Unlock()

	b.notify(from, to, changed)
	b.notify(prev, next, prev != next)
}

// refresh moves an expired open circuit to half-open.
func (b *CircuitBreaker) refresh(now time.Time) (CircuitState, CircuitState, bool) {
	if b.state != CircuitStateOpen || now.Before(b.expiresAt) {
		return b.state, b.state, false
	}
	b.setState(CircuitStateHalfOpen, now)
	return CircuitStateOpen, CircuitStateHalfOpen, true
}

func (b *CircuitBreaker) setState(state CircuitState, now time.Time) {
	b.state = state
	b.generation++
	b.failures = 0
	b.inFlight = 0
	b.trialWins = 0
	b.expiresAt = time.Time{}
	if state == CircuitStateOpen {
		b.expiresAt = now.Add(b.openTimeout)
	}
}

func (b *CircuitBreaker) notify(from, to CircuitState, changed bool) {
	if changed && b.onStateChange != nil {
		b.onStateChange(b.name, from, to)
	}
}
