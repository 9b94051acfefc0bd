package poller

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/attendr/attendr-api/internal/eligibility"
	"github.com/attendr/attendr-api/internal/models"
	"github.com/attendr/attendr-api/internal/service"
)

type scheduleSource interface {
	StudentSchedule(ctx context.Context, studentID string) ([]models.Course, error)
}

type checkInChecker interface {
	HasCheckedIn(ctx context.Context, studentID, courseID string, day time.Time) (bool, error)
}

type prompter interface {
	Prompt(ctx context.Context, studentID string, course models.Course) error
}

// Student poll states, exposed through Snapshot.
const (
	StateIdle      = "IDLE"
	StateChecking  = "CHECKING"
	StatePrompting = "PROMPTING"
)

// Config tunes the schedule poller.
type Config struct {
	Interval    time.Duration
	TickTimeout time.Duration
	StudentIDs  []string
}

// Status is a point-in-time view of the poller for the status endpoint.
type Status struct {
	Running  bool              `json:"running"`
	Interval string            `json:"interval"`
	LastTick *time.Time        `json:"last_tick,omitempty"`
	Students map[string]string `json:"students"`
}

// Poller periodically walks the tracked students' schedules and prompts
// anyone inside an open class window who has not checked in today. Prompting
// is asynchronous; a per student-course lock keeps at most one prompt in
// flight for a pair, so a slow confirmation never stacks duplicates.
type Poller struct {
	schedules scheduleSource
	checkins  checkInChecker
	prompter  prompter
	evaluator *eligibility.Evaluator
	metrics   *service.MetricsService
	logger    *zap.Logger
	cfg       Config
	now       func() time.Time

	mu        sync.Mutex
	started   bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	prompting map[string]bool
	states    map[string]string
	lastTick  *time.Time
}

// New builds a poller over the given schedule source and prompter.
func New(schedules scheduleSource, checkins checkInChecker, prompt prompter, evaluator *eligibility.Evaluator, metrics *service.MetricsService, cfg Config, logger *zap.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.TickTimeout <= 0 {
		cfg.TickTimeout = 30 * time.Second
	}
	if evaluator == nil {
		evaluator = eligibility.NewEvaluator(eligibility.WindowModeWeekly)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	states := make(map[string]string, len(cfg.StudentIDs))
	for _, id := range cfg.StudentIDs {
		states[id] = StateIdle
	}
	return &Poller{
		schedules: schedules,
		checkins:  checkins,
		prompter:  prompt,
		evaluator: evaluator,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		ctx:       context.Background(),
		prompting: make(map[string]bool),
		states:    states,
	}
}

// Start begins the poll loop. Safe to call once.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.started = true
	p.wg.Add(1)
	go p.run()
	p.logger.Info("poller started",
		zap.Duration("interval", p.cfg.Interval), zap.Int("students", len(p.cfg.StudentIDs)))
}

// Stop cancels the loop and waits for in-flight prompts to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.mu.Unlock()
	p.wg.Wait()
	p.mu.Lock()
	p.started = false
	p.mu.Unlock()
	p.logger.Info("poller stopped")
}

// Snapshot reports the current poller state.
func (p *Poller) Snapshot() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	students := make(map[string]string, len(p.states))
	for id, state := range p.states {
		students[id] = state
	}
	var last *time.Time
	if p.lastTick != nil {
		t := *p.lastTick
		last = &t
	}
	return Status{
		Running:  p.started,
		Interval: p.cfg.Interval.String(),
		LastTick: last,
		Students: students,
	}
}

func (p *Poller) run() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.pollOnce()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce()
		}
	}
}

func (p *Poller) pollOnce() {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.TickTimeout)
	defer cancel()
	p.tick(ctx)
}

func (p *Poller) tick(ctx context.Context) {
	p.metrics.RecordPollerTick()
	now := p.now()
	p.mu.Lock()
	t := now
	p.lastTick = &t
	p.mu.Unlock()

	for _, studentID := range p.cfg.StudentIDs {
		p.setState(studentID, StateChecking)
		schedule, err := p.schedules.StudentSchedule(ctx, studentID)
		if err != nil {
			p.logger.Warn("failed to fetch schedule, skipping student",
				zap.String("student_id", studentID), zap.Error(err))
			p.setState(studentID, StateIdle)
			continue
		}
		prompted := false
		for _, course := range schedule {
			if !p.evaluator.WindowContains(course, now) {
				continue
			}
			checked, err := p.checkins.HasCheckedIn(ctx, studentID, course.ID, models.DayOf(now))
			if err != nil {
				p.logger.Warn("failed to query check-in state",
					zap.String("student_id", studentID), zap.String("course_id", course.ID), zap.Error(err))
				continue
			}
			if checked {
				continue
			}
			if p.beginPrompt(studentID, course.ID) {
				prompted = true
				p.wg.Add(1)
				go p.prompt(studentID, course)
			}
		}
		if !prompted {
			p.setState(studentID, StateIdle)
		}
	}
}

// prompt runs off the tick goroutine so a slow prompt never delays the loop.
func (p *Poller) prompt(studentID string, course models.Course) {
	defer p.wg.Done()
	defer p.endPrompt(studentID, course.ID)

	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.TickTimeout)
	defer cancel()
	if err := p.prompter.Prompt(ctx, studentID, course); err != nil {
		p.logger.Warn("failed to issue prompt",
			zap.String("student_id", studentID), zap.String("course_id", course.ID), zap.Error(err))
	}
}

// beginPrompt claims the student-course prompt lock. It reports false when a
// prompt for the pair is already in flight.
func (p *Poller) beginPrompt(studentID, courseID string) bool {
	key := studentID + ":" + courseID
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.prompting[key] {
		return false
	}
	p.prompting[key] = true
	p.states[studentID] = StatePrompting
	return true
}

func (p *Poller) endPrompt(studentID, courseID string) {
	key := studentID + ":" + courseID
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.prompting, key)
	stillPrompting := false
	for other := range p.prompting {
		if strings.HasPrefix(other, studentID+":") {
			stillPrompting = true
			break
		}
	}
	if !stillPrompting {
		p.states[studentID] = StateIdle
	}
}

// setState never downgrades PROMPTING; endPrompt owns that transition.
func (p *Poller) setState(studentID, state string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.states[studentID] == StatePrompting {
		return
	}
	p.states[studentID] = state
}
