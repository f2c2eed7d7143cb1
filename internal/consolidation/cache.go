package consolidation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"production-scheduler-go/internal/allocator"
	"production-scheduler-go/internal/equipment"
	"production-scheduler-go/internal/metrics"
)

// Status of a consolidation group.
type Status string

const (
	StatusPending   Status = "pending"
	StatusExecuting Status = "executing"
	StatusDone      Status = "done"
	StatusFailed    Status = "failed"
)

var (
	// ErrGroupFailed is delivered to every member when the merged
	// allocation finds no feasible slot. The cache never retries by
	// splitting the group back into individual attempts; that is the
	// caller's call.
	ErrGroupFailed = errors.New("consolidated allocation failed for the whole group")
	// ErrRemoved is delivered to a member withdrawn before execution.
	ErrRemoved = errors.New("request removed from consolidation group before execution")
	// ErrDuplicateActivity rejects a second submission of an activity that
	// is already pending or executing.
	ErrDuplicateActivity = errors.New("activity already tracked by a consolidation group")
	// ErrGroupExecuting rejects joining a group whose allocation already
	// started; the caller should allocate individually instead.
	ErrGroupExecuting = errors.New("consolidation group for this key is already executing")
)

// Outcome is the result delivered to each group member exactly once.
type Outcome struct {
	Result *allocator.Result
	Err    error
}

// Member is one request's membership in a group. The member's outcome is
// delivered on a buffered channel, so resolution never blocks the executor.
type Member struct {
	Request allocator.Request
	done    chan Outcome
}

// Wait blocks until the member's outcome is delivered or the context is
// cancelled.
func (m *Member) Wait(ctx context.Context) Outcome {
	select {
	case out := <-m.done:
		return out
	case <-ctx.Done():
		return Outcome{Err: ctx.Err()}
	}
}

func (m *Member) resolve(out Outcome) {
	m.done <- out
}

// Key identifies a consolidation opportunity: same equipment kind, same item,
// same exact interval. Interval bounds are truncated to the minute.
type Key struct {
	Kind      equipment.Kind
	ItemID    int
	StartUnix int64
	EndUnix   int64
}

func keyFor(kind equipment.Kind, itemID int, start, end time.Time) Key {
	return Key{
		Kind:      kind,
		ItemID:    itemID,
		StartUnix: start.Truncate(time.Minute).Unix(),
		EndUnix:   end.Truncate(time.Minute).Unix(),
	}
}

// Group accumulates requests for one key until someone executes it. All
// fields are guarded by the owning cache's mutex.
type Group struct {
	cache *Cache

	key     Key
	start   time.Time
	end     time.Time
	status  Status
	members []*Member
	total   float64
}

// Status returns the group's current state.
func (g *Group) Status() Status {
	g.cache.mu.Lock()
	defer g.cache.mu.Unlock()
	return g.status
}

// Total returns the summed quantity across current members.
func (g *Group) Total() float64 {
	g.cache.mu.Lock()
	defer g.cache.mu.Unlock()
	return g.total
}

// Size returns the current member count.
func (g *Group) Size() int {
	g.cache.mu.Lock()
	defer g.cache.mu.Unlock()
	return len(g.members)
}

// Stats are the cache's lifetime counters.
type Stats struct {
	RequestsSubmitted    int
	GroupsCreated        int
	Merges               int
	ConsolidationsDone   int
	ConsolidationsFailed int
	GroupsAbandoned      int
}

// Cache detects when several simultaneous requests for the same sub-item can
// be merged into one equipment occupation that meets minimum-capacity rules.
// It sits in front of the allocator for requests whose interval was already
// fixed upstream (the request window IS the interval). One instance per
// scheduling run; there is no process-wide singleton.
type Cache struct {
	allocator allocator.Interface
	logger    *zap.Logger

	mu      sync.Mutex
	groups  map[Key]*Group
	tracked map[int]bool // activity ids currently pending or executing
	stats   Stats
}

// New creates a consolidation cache that executes merged allocations through
// the given allocator.
func New(alloc allocator.Interface, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		allocator: alloc,
		logger:    logger,
		groups:    make(map[Key]*Group),
		tracked:   make(map[int]bool),
	}
}

// Submit registers a request for consolidation. The request's window must be
// the exact, already-decided interval of the activity.
//
// The first request for a key creates a pending group and gets a nil group
// back: the caller should attempt an individual allocation first, and
// withdraw the member with Remove if that succeeds. Subsequent requests join
// the group and must NOT allocate individually; their outcome arrives on the
// member's channel once someone calls Execute.
func (c *Cache) Submit(req allocator.Request) (*Group, *Member, error) {
	if req.Duration <= 0 || !req.WindowStart.Add(req.Duration).Equal(req.WindowEnd) {
		return nil, nil, fmt.Errorf("consolidation requires a fixed interval: window must span exactly the activity duration")
	}
	kind, err := targetKind(req)
	if err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tracked[req.ActivityID] {
		return nil, nil, ErrDuplicateActivity
	}

	key := keyFor(kind, req.ItemID, req.WindowStart, req.WindowEnd)
	member := &Member{Request: req, done: make(chan Outcome, 1)}
	c.stats.RequestsSubmitted++

	group, exists := c.groups[key]
	if !exists {
		group = &Group{
			cache:   c,
			key:     key,
			start:   req.WindowStart,
			end:     req.WindowEnd,
			status:  StatusPending,
			members: []*Member{member},
			total:   req.Quantity,
		}
		c.groups[key] = group
		c.tracked[req.ActivityID] = true
		c.stats.GroupsCreated++
		c.logger.Debug("consolidation group created",
			zap.Int("item_id", req.ItemID),
			zap.String("kind", kind.String()),
			zap.Time("start", req.WindowStart),
			zap.Time("end", req.WindowEnd),
			zap.Float64("quantity", req.Quantity))
		// First-comer: no group handed back, it should try individually.
		return nil, member, nil
	}

	if group.status != StatusPending {
		return nil, nil, ErrGroupExecuting
	}

	group.members = append(group.members, member)
	group.total += req.Quantity
	c.tracked[req.ActivityID] = true
	c.stats.Merges++
	metrics.ConsolidationMergesTotal.Inc()
	c.logger.Info("request merged into consolidation group",
		zap.Int("activity_id", req.ActivityID),
		zap.Int("item_id", req.ItemID),
		zap.Int("members", len(group.members)),
		zap.Float64("total_quantity", group.total))
	return group, member, nil
}

// Execute runs the group's single merged allocation. It is idempotent: a
// second call on a group that already left Pending is a no-op, as is a call
// on a group emptied by withdrawals before it ever ran. The merged request
// carries the summed quantity over the group's fixed interval, under the
// first member's order/pedido/activity identity; every member receives the
// shared outcome on its own channel, exactly once, and the group is evicted
// from the cache.
func (c *Cache) Execute(group *Group) error {
	c.mu.Lock()
	if group.status != StatusPending || len(group.members) == 0 {
		c.mu.Unlock()
		return nil
	}
	group.status = StatusExecuting
	members := make([]*Member, len(group.members))
	copy(members, group.members)
	total := group.total
	start, end := group.start, group.end
	c.mu.Unlock()

	merged := members[0].Request
	merged.Quantity = total
	merged.WindowStart = start
	merged.WindowEnd = end
	merged.Duration = end.Sub(start)

	res, err := c.allocator.TryAllocate(merged)

	c.mu.Lock()
	if err != nil {
		group.status = StatusFailed
		c.stats.ConsolidationsFailed++
		metrics.ConsolidationGroupsTotal.WithLabelValues("failed").Inc()
	} else {
		group.status = StatusDone
		c.stats.ConsolidationsDone++
		metrics.ConsolidationGroupsTotal.WithLabelValues("done").Inc()
	}
	c.evictLocked(group)
	c.mu.Unlock()

	if err != nil {
		failure := fmt.Errorf("%w: %v", ErrGroupFailed, err)
		for _, m := range members {
			m.resolve(Outcome{Err: failure})
		}
		c.logger.Warn("consolidation group failed",
			zap.Int("members", len(members)),
			zap.Float64("total_quantity", total),
			zap.Error(err))
		return failure
	}

	for _, m := range members {
		m.resolve(Outcome{Result: res})
	}
	c.logger.Info("consolidation group allocated",
		zap.Int("members", len(members)),
		zap.Float64("total_quantity", total),
		zap.String("equipment", res.Equipment),
		zap.Time("start", res.Start),
		zap.Time("end", res.End))
	return nil
}

// Remove withdraws an activity from its pending group, before execution. The
// member is resolved with ErrRemoved, the group total is recomputed, and a
// group left empty is evicted without ever running. Reports whether the
// activity was found.
func (c *Cache) Remove(activityID int) bool {
	c.mu.Lock()

	var (
		found   *Member
		inGroup *Group
	)
	for _, group := range c.groups {
		if group.status != StatusPending {
			continue
		}
		for i, m := range group.members {
			if m.Request.ActivityID == activityID {
				found = m
				inGroup = group
				group.members = append(group.members[:i], group.members[i+1:]...)
				break
			}
		}
		if found != nil {
			break
		}
	}

	if found == nil {
		c.mu.Unlock()
		return false
	}

	delete(c.tracked, activityID)
	inGroup.total = 0
	for _, m := range inGroup.members {
		inGroup.total += m.Request.Quantity
	}
	if len(inGroup.members) == 0 {
		c.evictLocked(inGroup)
		c.stats.GroupsAbandoned++
		metrics.ConsolidationGroupsTotal.WithLabelValues("abandoned").Inc()
	}
	c.mu.Unlock()

	found.resolve(Outcome{Err: ErrRemoved})
	c.logger.Debug("activity withdrawn from consolidation",
		zap.Int("activity_id", activityID))
	return true
}

// PendingGroup returns the pending group for the given coordinates, if one
// exists.
func (c *Cache) PendingGroup(kind equipment.Kind, itemID int, start, end time.Time) (*Group, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	group, ok := c.groups[keyFor(kind, itemID, start, end)]
	if !ok || group.status != StatusPending {
		return nil, false
	}
	return group, true
}

// Stats returns a copy of the cache's lifetime counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// evictLocked removes a group and its members' activity tracking. Caller
// must hold c.mu.
func (c *Cache) evictLocked(group *Group) {
	delete(c.groups, group.key)
	for _, m := range group.members {
		delete(c.tracked, m.Request.ActivityID)
	}
}

// targetKind derives the group's equipment kind from the request's candidate
// list. All candidates of a consolidatable request share one kind.
func targetKind(req allocator.Request) (equipment.Kind, error) {
	if len(req.Candidates) == 0 || req.Candidates[0].Equipment == nil {
		return equipment.KindUnknown, fmt.Errorf("consolidation request for activity %d has no candidate equipment", req.ActivityID)
	}
	kind := req.Candidates[0].Equipment.Kind()
	if kind == equipment.KindUnknown {
		return equipment.KindUnknown, allocator.ErrUnknownEquipmentKind
	}
	return kind, nil
}
