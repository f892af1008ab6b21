package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/jobscheduler"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/logging"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/metrics"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Job is the callback run by the scheduler. ctx is canceled when the scheduler stops.
type Job = func(ctx context.Context)

type Config struct {
	Location *time.Location
	Logger   *logging.Logger
	Metrics  *metrics.Recorder
}

// CronScheduler is a registry of named, cancelable jobs on top of a single
// robfig/cron instance. A name maps to at most one armed job: arming a name
// again replaces the previous job. Runs are serialized per name across
// re-arms: a run that finds the name busy is skipped.
type CronScheduler struct {
	cron    *cron.Cron
	parser  cron.Parser
	loc     *time.Location
	logger  *logging.Logger
	metrics *metrics.Recorder
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	jobs    map[string]*armedJob
	running map[string]struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

type armedJob struct {
	id      string
	name    string
	kind    jobscheduler.Kind
	entryID cron.EntryID
	armedAt time.Time
}

func New(cfg Config) *CronScheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &CronScheduler{
		cron:    cron.New(cron.WithLocation(loc), cron.WithLogger(newCronLogger(logger))),
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		loc:     loc,
		logger:  logger,
		metrics: cfg.Metrics,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]*armedJob),
		running: make(map[string]struct{}),
	}
}

func (s *CronScheduler) Start() {
	s.startOnce.Do(func() {
		s.cron.Start()
		s.logger.Info("job scheduler started", "location", s.loc.String())
	})
}

// Stop stops dispatching new runs and waits for running jobs until ctx expires.
func (s *CronScheduler) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		done := s.cron.Stop()
		s.cancel()
		select {
		case <-done.Done():
			s.logger.Info("job scheduler stopped")
		case <-ctx.Done():
			err = fmt.Errorf("wait for running jobs: %w", ctx.Err())
		}
	})
	return err
}

// ArmTrigger arms a one-shot job. When fireAt is not in the future the job runs
// immediately on the caller's goroutine.
func (s *CronScheduler) ArmTrigger(name string, fireAt time.Time, job Job) error {
	if err := validateArm(name, job); err != nil {
		return err
	}

	s.mu.Lock()
	s.removeLocked(name)
	if !fireAt.After(s.now()) {
		s.publishCountsLocked()
		s.mu.Unlock()

		s.logger.Info("trigger already due, running now", "job", name, "fire_at", fireAt)
		s.run(name, job)
		return nil
	}

	armed := s.newArmedJob(name)
	wrapped := cron.NewChain(cron.Recover(newCronLogger(s.logger))).Then(cron.FuncJob(func() {
		if !s.release(armed) {
			return
		}
		s.run(name, job)
	}))
	armed.entryID = s.cron.Schedule(&onceSchedule{at: fireAt.In(s.loc)}, wrapped)
	s.jobs[name] = armed
	s.publishCountsLocked()
	s.mu.Unlock()

	s.logger.Debug("trigger armed", "job", name, "fire_at", fireAt, "job_id", armed.id)
	return nil
}

// ArmInterval arms a repeating job. The first run starts immediately, then one
// run per period. A run is skipped while another run under the same name is
// still in flight, including one started by a job this call replaced.
func (s *CronScheduler) ArmInterval(name string, period time.Duration, job Job) error {
	if err := validateArm(name, job); err != nil {
		return err
	}
	if period <= 0 {
		return fmt.Errorf("interval for job %s must be > 0", name)
	}

	s.mu.Lock()
	s.removeLocked(name)
	armed := s.newArmedJob(name)
	wrapped := s.chain().Then(cron.FuncJob(func() {
		if !s.isCurrent(armed) {
			return
		}
		s.run(name, job)
	}))
	armed.entryID = s.cron.Schedule(cron.Every(period), wrapped)
	s.jobs[name] = armed
	s.publishCountsLocked()
	s.mu.Unlock()

	s.logger.Debug("interval job armed", "job", name, "period", period, "job_id", armed.id)
	go wrapped.Run()
	return nil
}

// ArmCron arms a job on a standard five-field cron expression evaluated in the
// scheduler location.
func (s *CronScheduler) ArmCron(name, spec string, job Job) error {
	if err := validateArm(name, job); err != nil {
		return err
	}
	schedule, err := s.parser.Parse(strings.TrimSpace(spec))
	if err != nil {
		return fmt.Errorf("parse cron spec %q for job %s: %w", spec, name, err)
	}

	s.mu.Lock()
	s.removeLocked(name)
	armed := s.newArmedJob(name)
	wrapped := s.chain().Then(cron.FuncJob(func() {
		if !s.isCurrent(armed) {
			return
		}
		s.run(name, job)
	}))
	armed.entryID = s.cron.Schedule(schedule, wrapped)
	s.jobs[name] = armed
	s.publishCountsLocked()
	s.mu.Unlock()

	s.logger.Info("cron job armed", "job", name, "spec", spec, "job_id", armed.id)
	return nil
}

// Cancel removes the job if present. It is safe to call from the job itself.
func (s *CronScheduler) Cancel(name string) {
	s.mu.Lock()
	removed := s.removeLocked(name)
	s.publishCountsLocked()
	s.mu.Unlock()

	if removed {
		s.logger.Debug("job canceled", "job", name)
	}
}

func (s *CronScheduler) Exists(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.jobs[name]
	return ok
}

// List returns the armed jobs ordered by name.
func (s *CronScheduler) List() []jobscheduler.Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]jobscheduler.Info, 0, len(s.jobs))
	for _, armed := range s.jobs {
		entry := s.cron.Entry(armed.entryID)
		out = append(out, jobscheduler.Info{
			ID:      armed.id,
			Name:    armed.name,
			Kind:    armed.kind,
			ArmedAt: armed.armedAt,
			Next:    entry.Next,
			Prev:    entry.Prev,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *CronScheduler) chain() cron.Chain {
	return cron.NewChain(cron.Recover(newCronLogger(s.logger)))
}

func (s *CronScheduler) newArmedJob(name string) *armedJob {
	kind, _, ok := jobscheduler.ParseName(name)
	if !ok {
		kind = jobscheduler.Kind("other")
	}
	return &armedJob{
		id:      uuid.NewString(),
		name:    name,
		kind:    kind,
		armedAt: s.now(),
	}
}

func (s *CronScheduler) run(name string, job Job) {
	if !s.beginRun(name) {
		s.logger.Debug("job still running, run skipped", "job", name)
		return
	}
	defer s.endRun(name)

	kind, _, _ := jobscheduler.ParseName(name)
	s.metrics.IncJobRun(string(kind))
	job(s.ctx)
}

func (s *CronScheduler) beginRun(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.running[name]; busy {
		return false
	}
	s.running[name] = struct{}{}
	return true
}

func (s *CronScheduler) endRun(name string) {
	s.mu.Lock()
	delete(s.running, name)
	s.mu.Unlock()
}

// release unregisters a fired one-shot job. It reports false when the job was
// replaced or canceled after cron dispatched it.
func (s *CronScheduler) release(armed *armedJob) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.jobs[armed.name]
	if !ok || current.id != armed.id {
		return false
	}
	s.cron.Remove(current.entryID)
	delete(s.jobs, armed.name)
	s.publishCountsLocked()
	return true
}

func (s *CronScheduler) isCurrent(armed *armedJob) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.jobs[armed.name]
	return ok && current.id == armed.id
}

func (s *CronScheduler) removeLocked(name string) bool {
	existing, ok := s.jobs[name]
	if !ok {
		return false
	}
	s.cron.Remove(existing.entryID)
	delete(s.jobs, name)
	return true
}

func (s *CronScheduler) publishCountsLocked() {
	if s.metrics == nil {
		return
	}
	counts := map[jobscheduler.Kind]int{
		jobscheduler.KindTrigger: 0,
		jobscheduler.KindPoll:    0,
		jobscheduler.KindCron:    0,
	}
	for _, armed := range s.jobs {
		counts[armed.kind]++
	}
	for kind, count := range counts {
		s.metrics.SetArmedJobs(string(kind), count)
	}
}

func validateArm(name string, job Job) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("job name is required")
	}
	if job == nil {
		return fmt.Errorf("job %s callback is required", name)
	}
	return nil
}

// onceSchedule fires a single time at a fixed instant. The first Next call is
// cron registering the entry, so it always answers at; an instant that slipped
// into the past by then is run right away.
type onceSchedule struct {
	at         time.Time
	registered atomic.Bool
}

func (o *onceSchedule) Next(t time.Time) time.Time {
	if first := o.registered.CompareAndSwap(false, true); first || t.Before(o.at) {
		return o.at
	}
	return time.Time{}
}
