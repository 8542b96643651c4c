package engine

import (
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// NoActivationLimit disables the activation limit.
const NoActivationLimit = -1

// DefaultMaxActivationLimit is used when Config.MaxActivationLimit is 0.
const DefaultMaxActivationLimit = 1

// LimitBehavior decides what happens when an activation would exceed the
// activation limit.
type LimitBehavior string

const (
	// LimitCircular activates and then deactivates the oldest active content.
	LimitCircular LimitBehavior = "circular"
	// LimitError rejects the activation with ACTIVATION_LIMIT_REACHED.
	LimitError LimitBehavior = "error"
	// LimitIgnore silently drops the activation.
	LimitIgnore LimitBehavior = "ignore"
)

// Valid reports whether b is a known behavior. The empty string is valid
// and means LimitCircular.
func (b LimitBehavior) Valid() bool {
	switch b {
	case "", LimitCircular, LimitError, LimitIgnore:
		return true
	}
	return false
}

// Directions holds the two labels reported by Direction().
type Directions struct {
	Next     string
	Previous string
}

// DefaultDirections are used when Config.Directions is the zero value.
var DefaultDirections = Directions{Next: "right", Previous: "left"}

// Config holds the domain settings of an engine. The zero value is an empty,
// linear engine with an activation limit of 1.
type Config[T comparable] struct {
	// Contents are the initial values, in order.
	Contents []T

	// MaxActivationLimit bounds the number of simultaneously active contents.
	// 0 means DefaultMaxActivationLimit, NoActivationLimit means unbounded.
	MaxActivationLimit int

	// MaxActivationLimitBehavior defaults to LimitCircular.
	MaxActivationLimitBehavior LimitBehavior

	// Active lists values to activate initially, in activation order.
	Active []T

	// ActiveIndexes lists positions to activate initially, after Active.
	ActiveIndexes []int

	// IsCircular makes traversal and direction wrap around the ends.
	IsCircular bool

	// Autoplay enables automatic advancing when non-nil.
	Autoplay *AutoplayConfig[T]

	// Directions defaults to DefaultDirections.
	Directions Directions

	// KeepHistoryFor is the number of events retained by History().
	KeepHistoryFor int

	// Cooldown is the window after a user interaction during which further
	// user interactions are ignored. CooldownFunc takes precedence.
	Cooldown     time.Duration
	CooldownFunc func(s Snapshot[T]) time.Duration
}

// ActionOptions qualify activation and deactivation requests.
type ActionOptions struct {
	// IsUserInteraction marks the request as user-driven: it is subject to
	// the cooldown, arms it, and may stop autoplay.
	IsUserInteraction bool

	// Cooldown overrides the configured cooldown for this request.
	Cooldown time.Duration
}

// User returns options for a user-driven request.
func User() ActionOptions {
	return ActionOptions{IsUserInteraction: true}
}

// Auto returns options for a programmatic request that bypasses cooldown.
func Auto() ActionOptions {
	return ActionOptions{}
}

// Option configures engine infrastructure.
type Option func(*options)

type options struct {
	clock  Clock
	logger *slog.Logger
	idGen  IDGenerator
	seq    *Sequencer
}

// WithClock sets the time source and timer scheduler. Default: SystemClock.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithIDGenerator sets the generator for the engine ID.
// Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *options) {
		o.idGen = g
	}
}

// WithSequencer sets the event sequencer, e.g. to continue numbering after a
// replayed log. Default: a fresh Sequencer.
func WithSequencer(s *Sequencer) Option {
	return func(o *options) {
		o.seq = s
	}
}

// Engine is an ordered collection of contents with activation state.
//
// Active membership is a flag on each Content plus one insertion-ordered
// slice of the active contents. Because the slice holds content identities
// rather than positions, structural mutations never need to repair it; the
// derived positional facts are recomputed by repair() after every change.
//
// INVARIANTS (hold whenever e.mu is not held):
//   - contents[i].index == i
//   - every content in active has isActive set, and no other content does
//   - len(active) <= maxActivationLimit unless unbounded
//   - the last activated content is the last entry of active
//
// All exported methods are safe for concurrent use. Events produced by a
// method are delivered to subscribers before it returns, unless the method
// was itself called from a subscriber; then they are delivered by the
// outer dispatch once the current subscriber returns.
type Engine[T comparable] struct {
	mu sync.Mutex

	id     string
	clock  Clock
	seq    *Sequencer
	logger *slog.Logger

	contents []*Content[T]
	active   []*Content[T] // insertion order

	maxActivationLimit int
	limitBehavior      LimitBehavior
	isCircular         bool
	directions         Directions
	direction          string

	cooldown cooldown[T]
	autoplay autoplay[T]

	history     *historyRing[T]
	initialized Event[T]
	queue       *dispatchQueue[T]
	suppress    bool

	subsMu    sync.Mutex
	subs      []subscription[T]
	nextSubID int
}

type subscription[T comparable] struct {
	id int
	fn Subscriber[T]
}

// New creates an engine from cfg.
//
// The Initialized event is recorded in history but is not delivered to any
// subscriber, since none can be registered yet.
func New[T comparable](cfg Config[T], opts ...Option) (*Engine[T], error) {
	o := options{
		clock:  SystemClock{},
		logger: slog.Default(),
		idGen:  UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.seq == nil {
		o.seq = NewSequencer()
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	e := &Engine[T]{
		id:     o.idGen.Generate(),
		clock:  o.clock,
		seq:    o.seq,
		logger: o.logger,
		queue:  newDispatchQueue[T](),
	}

	if err := e.Initialize(cfg); err != nil {
		return nil, err
	}
	return e, nil
}

// Initialize resets the engine to cfg.
//
// Events produced while applying the initial activations are suppressed;
// exactly one Initialized event is emitted. Pending autoplay timers and the
// cooldown window are discarded. Subscribers are kept.
func (e *Engine[T]) Initialize(cfg Config[T]) error {
	e.mu.Lock()
	err := e.initialize(cfg)
	e.mu.Unlock()
	e.flush()
	return err
}

func (e *Engine[T]) initialize(cfg Config[T]) error {
	limit := cfg.MaxActivationLimit
	if limit == 0 {
		limit = DefaultMaxActivationLimit
	}
	if limit < 0 {
		limit = NoActivationLimit
	}
	behavior := cfg.MaxActivationLimitBehavior
	if behavior == "" {
		behavior = LimitCircular
	}
	directions := cfg.Directions
	if directions == (Directions{}) {
		directions = DefaultDirections
	}

	// Reject a bad config before anything is torn down.
	initial, err := resolveInitialActive(cfg, limit, behavior)
	if err != nil {
		return err
	}

	e.stopAutoplay()
	e.queue.reset()

	// Build every wrapper before any derived fact is computed, then do one
	// consistent repair pass.
	contents := make([]*Content[T], len(cfg.Contents))
	for i, v := range cfg.Contents {
		contents[i] = &Content[T]{engine: e, value: v, index: i}
	}

	e.contents = contents
	e.active = nil
	e.maxActivationLimit = limit
	e.limitBehavior = behavior
	e.isCircular = cfg.IsCircular
	e.directions = directions
	e.direction = directions.Next
	e.cooldown = cooldown[T]{duration: cfg.Cooldown, durationFunc: cfg.CooldownFunc}
	e.autoplay = autoplay[T]{config: cfg.Autoplay, playing: cfg.Autoplay != nil}
	e.history = newHistoryRing[T](cfg.KeepHistoryFor)
	e.repair()

	e.suppress = true
	defer func() { e.suppress = false }()

	for _, i := range initial {
		if err := e.activate(i, Auto()); err != nil {
			return err
		}
	}

	// Initial activations do not report a direction.
	e.direction = directions.Next

	e.suppress = false
	e.emit(EventInitialized, e.values(), e.activeIndexes(), nil)

	e.logger.Debug("engine initialized",
		"engine_id", e.id,
		"contents", len(e.contents),
		"active", len(e.active),
		"circular", e.isCircular,
		"limit", e.maxActivationLimit,
	)
	return nil
}

// resolveInitialActive maps cfg.Active and then cfg.ActiveIndexes to
// positions in cfg.Contents, in activation order.
func resolveInitialActive[T comparable](cfg Config[T], limit int, behavior LimitBehavior) ([]int, error) {
	const op = "initialize"
	out := make([]int, 0, len(cfg.Active)+len(cfg.ActiveIndexes))
	for _, v := range cfg.Active {
		i := slices.Index(cfg.Contents, v)
		if i == -1 {
			return nil, newNotFoundError(op, "active value")
		}
		out = append(out, i)
	}
	for _, i := range cfg.ActiveIndexes {
		if i < 0 || i >= len(cfg.Contents) {
			return nil, newIndexError(op, i, len(cfg.Contents), false)
		}
		out = append(out, i)
	}

	if behavior == LimitError && limit != NoActivationLimit {
		distinct := slices.Clone(out)
		slices.Sort(distinct)
		if len(slices.Compact(distinct)) > limit {
			return nil, newLimitError(op, limit)
		}
	}
	return out, nil
}

// Subscribe registers fn and returns a function that unregisters it.
// The returned function is idempotent.
func (e *Engine[T]) Subscribe(fn Subscriber[T]) (unsubscribe func()) {
	e.subsMu.Lock()
	id := e.nextSubID
	e.nextSubID++
	e.subs = append(e.subs, subscription[T]{id: id, fn: fn})
	e.subsMu.Unlock()

	return func() {
		e.subsMu.Lock()
		defer e.subsMu.Unlock()
		e.subs = slices.DeleteFunc(e.subs, func(s subscription[T]) bool {
			return s.id == id
		})
	}
}

// UnsubscribeAll removes every subscriber.
func (e *Engine[T]) UnsubscribeAll() {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	e.subs = nil
}

// emit stamps and queues an event. Caller holds e.mu.
func (e *Engine[T]) emit(typ EventType, values []T, indexes []int, evicted []*Content[T]) {
	if e.suppress {
		return
	}
	ev := Event[T]{
		Type:     typ,
		Seq:      e.seq.Next(),
		Time:     e.clock.Now(),
		EngineID: e.id,
		Values:   values,
		Indexes:  indexes,
	}
	for _, c := range evicted {
		ev.EvictedValues = append(ev.EvictedValues, c.value)
		ev.EvictedIndexes = append(ev.EvictedIndexes, c.index)
	}
	if typ == EventInitialized {
		e.initialized = ev
	}
	e.history.add(ev)
	e.queue.enqueue(ev)
}

// flush delivers queued events. Must be called without e.mu held.
func (e *Engine[T]) flush() {
	e.queue.drain(func(ev Event[T]) {
		e.subsMu.Lock()
		subs := slices.Clone(e.subs)
		e.subsMu.Unlock()

		for _, s := range subs {
			s.fn(e, ev)
		}
	})
}

// locked runs fn under e.mu and then delivers any events it produced.
func (e *Engine[T]) locked(fn func() error) error {
	e.mu.Lock()
	err := fn()
	e.mu.Unlock()
	e.flush()
	return err
}

// withContent resolves c to its current position and runs fn with it.
func (e *Engine[T]) withContent(c *Content[T], op string, fn func(i int) error) error {
	return e.locked(func() error {
		i, ok := e.positionOf(c)
		if !ok {
			return newNotFoundError(op, "content")
		}
		return fn(i)
	})
}

// repair recomputes every derived positional fact. Caller holds e.mu.
func (e *Engine[T]) repair() {
	n := len(e.contents)
	for i, c := range e.contents {
		c.index = i
		c.isFirst = i == 0
		c.isLast = i == n-1
		if e.isCircular {
			c.hasNext = true
			c.hasPrevious = true
		} else {
			c.hasNext = i < n-1
			c.hasPrevious = i > 0
		}
		c.isNext = false
		c.isPrevious = false
	}

	last := e.last()
	if last == nil {
		return
	}
	e.contents[e.unboundedNext(last.index)].isNext = true
	e.contents[e.unboundedPrevious(last.index)].isPrevious = true
}

// unboundedNext returns the successor of i, wrapping regardless of
// isCircular. Caller guarantees len(contents) > 0.
func (e *Engine[T]) unboundedNext(i int) int {
	next := i + 1
	if next >= len(e.contents) {
		return 0
	}
	return next
}

// unboundedPrevious returns the predecessor of i, wrapping regardless of
// isCircular. Caller guarantees len(contents) > 0.
func (e *Engine[T]) unboundedPrevious(i int) int {
	prev := i - 1
	if prev < 0 {
		return len(e.contents) - 1
	}
	return prev
}

// neighbour returns the position delta steps away from i, honouring
// isCircular. ok is false when a linear engine has no such position.
func (e *Engine[T]) neighbour(i, delta int) (int, bool) {
	n := len(e.contents)
	j := i + delta
	if j >= 0 && j < n {
		return j, true
	}
	if !e.isCircular || n == 0 {
		return 0, false
	}
	return ((j % n) + n) % n, true
}

// last returns the last activated content, or nil.
func (e *Engine[T]) last() *Content[T] {
	if len(e.active) == 0 {
		return nil
	}
	return e.active[len(e.active)-1]
}

func (e *Engine[T]) lastIndex() int {
	if c := e.last(); c != nil {
		return c.index
	}
	return -1
}

func (e *Engine[T]) positionOf(c *Content[T]) (int, bool) {
	if c == nil || c.engine != e {
		return 0, false
	}
	i := c.index
	if i < 0 || i >= len(e.contents) || e.contents[i] != c {
		return 0, false
	}
	return i, true
}

func (e *Engine[T]) indexOfValue(v T) int {
	for i, c := range e.contents {
		if c.value == v {
			return i
		}
	}
	return -1
}

func (e *Engine[T]) checkIndex(op string, i int) error {
	if i < 0 || i >= len(e.contents) {
		return newIndexError(op, i, len(e.contents), false)
	}
	return nil
}

func (e *Engine[T]) values() []T {
	out := make([]T, len(e.contents))
	for i, c := range e.contents {
		out[i] = c.value
	}
	return out
}

func (e *Engine[T]) activeIndexes() []int {
	out := make([]int, len(e.active))
	for i, c := range e.active {
		out[i] = c.index
	}
	return out
}

// ID returns the engine instance ID carried by every event.
func (e *Engine[T]) ID() string {
	return e.id
}

// Len returns the number of contents.
func (e *Engine[T]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.contents)
}

// Contents returns the wrappers in order.
func (e *Engine[T]) Contents() []*Content[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.contents)
}

// ContentAt returns the wrapper at position i.
func (e *Engine[T]) ContentAt(i int) (*Content[T], error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkIndex("content", i); err != nil {
		return nil, err
	}
	return e.contents[i], nil
}

// Values returns the wrapped values in order.
func (e *Engine[T]) Values() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.values()
}

// Snapshots returns a snapshot of every content in order.
func (e *Engine[T]) Snapshots() []Snapshot[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Snapshot[T], len(e.contents))
	for i, c := range e.contents {
		out[i] = c.snapshot()
	}
	return out
}

// Active returns the active values in activation order.
func (e *Engine[T]) Active() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]T, len(e.active))
	for i, c := range e.active {
		out[i] = c.value
	}
	return out
}

// ActiveIndexes returns the positions of the active contents in activation
// order. Entry i describes the same activation as Active()[i].
func (e *Engine[T]) ActiveIndexes() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeIndexes()
}

// ActiveContents returns the active wrappers in activation order.
func (e *Engine[T]) ActiveContents() []*Content[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.active)
}

// LastActivated returns the most recently activated value still active.
func (e *Engine[T]) LastActivated() (T, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c := e.last(); c != nil {
		return c.value, true
	}
	var zero T
	return zero, false
}

// LastActivatedIndex returns the position of LastActivated, or -1.
func (e *Engine[T]) LastActivatedIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastIndex()
}

// LastActivatedContent returns the wrapper of LastActivated, or nil.
func (e *Engine[T]) LastActivatedContent() *Content[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last()
}

// Direction returns the label of the last computed traversal direction.
func (e *Engine[T]) Direction() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.direction
}

// Directions returns the configured direction labels.
func (e *Engine[T]) Directions() Directions {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.directions
}

// IsCircular reports whether traversal wraps around.
func (e *Engine[T]) IsCircular() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isCircular
}

// MaxActivationLimit returns the activation limit, or NoActivationLimit.
func (e *Engine[T]) MaxActivationLimit() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxActivationLimit
}

// MaxActivationLimitBehavior returns the configured limit behavior.
func (e *Engine[T]) MaxActivationLimitBehavior() LimitBehavior {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.limitBehavior
}

// Initialized returns the INITIALIZED event of the current configuration.
// It lets a subscriber registered after New start its trace from the
// beginning regardless of KeepHistoryFor.
func (e *Engine[T]) Initialized() Event[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// History returns the retained events, oldest first.
func (e *Engine[T]) History() []Event[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.snapshot()
}

// CooldownActive reports whether a user interaction would currently be
// ignored.
func (e *Engine[T]) CooldownActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cooldown.isActive(User(), e.clock.Now())
}
