package relocate

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"ClayCatalog/internal/catalog"
	"ClayCatalog/internal/game"
)

// Phase is where the current relocation is in its lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSearching
	PhaseScanning
	PhaseApplying
)

func (p Phase) String() string {
	switch p {
	case PhaseSearching:
		return "searching for a free position"
	case PhaseScanning:
		return "scanning for references"
	case PhaseApplying:
		return "applying"
	}
	return "idle"
}

// Option customises a Coordinator.
type Option func(*Coordinator)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger.With().Str("component", "relocate").Logger()
	}
}

// WithScanner replaces the worker that finds affected records.
func WithScanner(scan ScanFunc) Option {
	return func(c *Coordinator) {
		if scan != nil {
			c.scan = scan
		}
	}
}

// WithFinder replaces the worker that looks for a free position.
func WithFinder(find FindFunc) Option {
	return func(c *Coordinator) {
		c.find = find
	}
}

// Coordinator owns the current relocation, the queue behind it and the
// touched set. Every method must be called on the game loop goroutine.
type Coordinator struct {
	host      Host
	rules     Rules
	validator *Validator
	sup       *Supervisor
	resolver  *TargetResolver
	engine    *ApplyEngine
	scan      ScanFunc
	find      FindFunc
	logger    zerolog.Logger

	phase   Phase
	current *Request
	queue   []Request
	touched TouchedSet

	// searched is set when the current target came from a search, and
	// searchFree records that the found slot was empty when scanning began.
	searched      bool
	searchFree    bool
	searchRetried bool

	lastReport *Report
}

func NewCoordinator(host Host, rules Rules, opts ...Option) *Coordinator {
	if rules.QueueLimit <= 0 {
		rules.QueueLimit = DefaultRules().QueueLimit
	}
	c := &Coordinator{
		host:   host,
		rules:  rules,
		scan:   ScanRecords,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.validator = NewValidator(rules, host)
	c.sup = NewSupervisor(rules.StreamBuffer)
	c.resolver = NewTargetResolver(c.sup, host.Store(), c.find, rules.MaxPosition, rules.Reserved)
	c.engine = NewApplyEngine(host, c.logger)
	host.Store().OnSave(c.ObserveSave)
	return c
}

// Submit validates req and either starts it, returning position 1, or
// queues it behind the current relocation.
func (c *Coordinator) Submit(req Request) (int, error) {
	if err := c.validator.Check(req); err != nil {
		return 0, err
	}
	if c.isDuplicate(req) {
		return 0, ErrDuplicate
	}
	if c.current == nil {
		if err := c.promote(req); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if len(c.queue) >= c.rules.QueueLimit {
		return 0, ErrQueueFull
	}
	c.queue = append(c.queue, req)
	c.logger.Info().Str("swap", req.Swap.String()).Str("requester", req.Requester).Int("position", len(c.queue)+1).Msg("relocation queued")
	return len(c.queue) + 1, nil
}

// SubmitRange submits count relocations with consecutive origins, and
// consecutive targets when base has one. Nothing is submitted unless every
// entry is acceptable.
func (c *Coordinator) SubmitRange(base Request, count int) (int, error) {
	if count <= 0 {
		return 0, invalid("the range must cover at least one position")
	}
	batch := make([]Request, 0, count)
	for i := 0; i < count; i++ {
		req := base
		req.Origin = base.Origin.Next(i)
		req.Target = base.Target.Next(i)
		if err := c.validator.Check(req); err != nil {
			return 0, err
		}
		if c.isDuplicate(req) {
			return 0, fmt.Errorf("%s: %w", req.Origin.Display(), ErrDuplicate)
		}
		batch = append(batch, req)
	}
	queued := len(batch)
	if c.current == nil {
		queued--
	}
	if len(c.queue)+queued > c.rules.QueueLimit {
		return 0, fmt.Errorf("%w: %d free, %d requested", ErrQueueFull, c.rules.QueueLimit-len(c.queue), queued)
	}
	submitted := 0
	for _, req := range batch {
		if _, err := c.Submit(req); err != nil {
			return submitted, fmt.Errorf("%s: %w", req.Origin.Display(), err)
		}
		submitted++
	}
	return submitted, nil
}

func (c *Coordinator) isDuplicate(req Request) bool {
	if c.current != nil && c.current.sameOrigin(req) {
		return true
	}
	return slices.ContainsFunc(c.queue, req.sameOrigin)
}

// Advance promotes queued requests until one starts or the queue is empty.
// Requests that are no longer valid are dropped and their owners told.
func (c *Coordinator) Advance() {
	for c.current == nil && len(c.queue) > 0 {
		next := c.queue[0]
		c.queue = slices.Delete(c.queue, 0, 1)
		if err := c.promote(next); err != nil {
			c.logger.Warn().Err(err).Str("swap", next.Swap.String()).Msg("queued relocation dropped")
			c.host.Notify(next.Requester, game.Ansi(game.Style(fmt.Sprintf("Relocation %s dropped: %v", next.Swap, err), game.AnsiYellow)))
		}
	}
}

func (c *Coordinator) promote(req Request) error {
	if err := c.validator.Check(req); err != nil {
		return err
	}
	c.current = &req
	c.searched, c.searchFree, c.searchRetried = false, false, false
	if !req.Target.Resolved() {
		if err := c.startSearch(); err != nil {
			c.current = nil
			c.phase = PhaseIdle
			return err
		}
		return nil
	}
	c.beginScan()
	return nil
}

func (c *Coordinator) startSearch() error {
	c.phase = PhaseSearching
	c.current.Target = catalog.Ref{Segment: c.current.Target.Segment, ID: catalog.Unresolved}
	_, err := c.resolver.Start(*c.current, c.onTargetFound)
	if err != nil {
		return err
	}
	c.logger.Debug().Str("swap", c.current.Swap.String()).Msg("searching for free position")
	return nil
}

func (c *Coordinator) onTargetFound(ref catalog.Ref, err error) {
	if c.current == nil || c.phase != PhaseSearching {
		return
	}
	if err != nil {
		c.fail(err)
		return
	}
	if c.host.Store().Exists(c.current.Kind, ref) {
		c.raceLost(ref)
		return
	}
	c.current.Target = ref
	c.searched = true
	if err := c.validator.Check(*c.current); err != nil {
		c.fail(err)
		return
	}
	c.host.Notify(c.current.Requester, fmt.Sprintf("Next free position is %s.", game.HighlightRef(ref.Display())))
	c.beginScan()
}

// raceLost restarts the search once when a found slot is filled before it
// could be used, and gives up the second time.
func (c *Coordinator) raceLost(taken catalog.Ref) {
	c.logger.Warn().Str("swap", c.current.Swap.String()).Str("taken", taken.String()).Bool("retried", c.searchRetried).Msg("free position taken")
	if c.searchRetried {
		c.fail(fmt.Errorf("%w: %s", ErrTargetTaken, taken.Display()))
		return
	}
	c.searchRetried = true
	c.searched, c.searchFree = false, false
	c.touched.Clear()
	if err := c.startSearch(); err != nil {
		c.fail(err)
	}
}

func (c *Coordinator) beginScan() {
	c.phase = PhaseScanning
	c.touched.Clear()
	req := *c.current
	for _, end := range []catalog.Ref{req.Origin, req.Target} {
		if c.host.Store().Exists(req.Kind, end) {
			c.NoteTouched(refTag(req.Kind, end))
		}
	}
	if c.searched {
		c.searchFree = !c.host.Store().Exists(req.Kind, req.Target)
	}
	scanAreaRooms(c.host, req.Swap, c.NoteTouched)
	c.sup.Spawn(JobScan, req.Requester, c.scan(c.host.Store(), req.Swap), c.onScanLine, c.onScanExit)
	c.logger.Info().Str("swap", req.Swap.String()).Str("requester", req.Requester).Msg("relocation scan started")
	c.host.Notify(req.Requester, fmt.Sprintf("Scanning for references to %s...", req.Swap))
}

func (c *Coordinator) onScanLine(line string) {
	if c.current == nil || c.phase != PhaseScanning {
		return
	}
	tag, err := ParseTag(line)
	if err != nil {
		c.logger.Warn().Err(err).Msg("bad scan output")
		return
	}
	c.NoteTouched(tag)
	if viewer, ok := c.host.Requester(c.current.Requester); ok && c.visible(viewer, tag) {
		c.host.Notify(c.current.Requester, game.Style("Receiving "+tag.String(), game.AnsiDim))
	}
}

func (c *Coordinator) onScanExit(err error) {
	if c.current == nil || c.phase != PhaseScanning {
		return
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		c.fail(fmt.Errorf("%w: %v", ErrWorker, err))
		return
	}
	if c.searched && c.searchFree && c.host.Store().Exists(c.current.Kind, c.current.Target) {
		c.raceLost(c.current.Target)
		return
	}
	c.apply()
}

func (c *Coordinator) apply() {
	c.phase = PhaseApplying
	req := *c.current
	report := c.engine.Apply(req, c.touched.Tags(), c.queue)
	c.lastReport = &report
	msg := report.Summary()
	if details := report.Details(); details != "" {
		msg += "\n" + details
	}
	c.host.Notify(req.Requester, msg)
	c.finish()
}

// fail reports err to the owner of the current relocation and moves on.
func (c *Coordinator) fail(err error) {
	req := *c.current
	c.logger.Warn().Err(err).Str("swap", req.Swap.String()).Str("requester", req.Requester).Msg("relocation failed")
	c.host.Notify(req.Requester, game.Ansi(game.Style(fmt.Sprintf("Relocation %s aborted: %v", req.Swap, err), game.AnsiYellow)))
	c.finish()
}

func (c *Coordinator) finish() {
	c.current = nil
	c.phase = PhaseIdle
	c.touched.Clear()
	c.searched, c.searchFree, c.searchRetried = false, false, false
	c.Advance()
}

// Abort kills every worker and forgets the current relocation and the whole
// queue. It returns how many requests were discarded.
func (c *Coordinator) Abort() int {
	dropped := len(c.queue)
	if c.current != nil {
		dropped++
	}
	killed := c.sup.KillAll()
	c.current = nil
	c.queue = nil
	c.phase = PhaseIdle
	c.touched.Clear()
	c.searched, c.searchFree, c.searchRetried = false, false, false
	c.logger.Warn().Int("dropped", dropped).Int("workers", killed).Msg("relocation aborted")
	return dropped
}

// At returns the request shown at position; 1 is the current relocation.
func (c *Coordinator) At(position int) (Request, bool) {
	if position == 1 && c.current != nil {
		return *c.current, true
	}
	idx := position - 2
	if idx < 0 || idx >= len(c.queue) {
		return Request{}, false
	}
	return c.queue[idx], true
}

// Cancel removes one request. Cancelling position 1 stops the current
// relocation and starts the next one.
func (c *Coordinator) Cancel(position int) (Request, error) {
	req, ok := c.At(position)
	if !ok {
		return Request{}, fmt.Errorf("%w: %d", ErrNoSuchPosition, position)
	}
	if position == 1 {
		c.sup.KillAll()
		c.logger.Info().Str("swap", req.Swap.String()).Msg("current relocation cancelled")
		c.finish()
		return req, nil
	}
	c.queue = slices.Delete(c.queue, position-2, position-1)
	c.logger.Info().Str("swap", req.Swap.String()).Int("position", position).Msg("queued relocation cancelled")
	return req, nil
}

// NoteTouched records tag and loads room and monster records into the world
// cache so the apply step finds them resident.
func (c *Coordinator) NoteTouched(tag Tag) {
	c.touched.Add(tag)
	if tag.Kind != TagRoom && tag.Kind != TagMonster {
		return
	}
	ref, err := catalog.Parse(tag.Key, "")
	if err != nil || !ref.Resolved() {
		return
	}
	if tag.Kind == TagRoom {
		_, err = c.host.Room(ref)
	} else {
		_, err = c.host.Monster(ref)
	}
	if err != nil && !errors.Is(err, game.ErrNotFound) {
		c.logger.Debug().Err(err).Str("tag", tag.String()).Msg("materialise touched record")
	}
}

// ObserveSave notes records the live game writes while a scan is running,
// since the scan may already have walked past them.
func (c *Coordinator) ObserveSave(partition game.Partition, key string, record catalog.Relocatable) {
	if c.current == nil || c.phase != PhaseScanning {
		return
	}
	if !record.Affected(c.current.Swap) {
		return
	}
	if tag, ok := partitionTag(partition, key); ok {
		c.touched.Add(tag)
	}
}

// Poll drains worker output. The game loop calls it every tick.
func (c *Coordinator) Poll() {
	c.sup.Poll()
}

// Busy reports whether a relocation is current.
func (c *Coordinator) Busy() bool { return c.current != nil }

func (c *Coordinator) Phase() Phase { return c.phase }

// Current returns the current relocation.
func (c *Coordinator) Current() (Request, bool) {
	if c.current == nil {
		return Request{}, false
	}
	return *c.current, true
}

// Queue returns a copy of the waiting requests.
func (c *Coordinator) Queue() []Request { return slices.Clone(c.queue) }

// Touched returns the touched set in discovery order.
func (c *Coordinator) Touched() []Tag { return c.touched.Tags() }

// Workers lists running jobs.
func (c *Coordinator) Workers() []JobInfo { return c.sup.Jobs() }

// LastReport returns the outcome of the most recently applied relocation.
func (c *Coordinator) LastReport() (Report, bool) {
	if c.lastReport == nil {
		return Report{}, false
	}
	return *c.lastReport, true
}
