//go:build unit

package automation_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"shop-automation/internal/automation"
	"shop-automation/internal/domain/coupon"
	"shop-automation/internal/domain/event"
	"shop-automation/internal/domain/schedule"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memEventStore mirrors the conditional-update semantics of the SQL store.
type memEventStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*eventRecord
}

type eventRecord struct {
	evt       *event.Event
	processed bool
	attempts  int32
	lastError string
}

func newMemEventStore() *memEventStore {
	return &memEventStore{records: make(map[uuid.UUID]*eventRecord)}
}

func (s *memEventStore) Append(_ context.Context, evt *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[evt.ID()] = &eventRecord{evt: evt}
	return nil
}

func (s *memEventStore) ListPending(_ context.Context, limit int32) ([]*event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []*event.Event
	for _, rec := range s.records {
		if !rec.processed {
			pending = append(pending, rec.evt)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].OccurredAt().Before(pending[j].OccurredAt())
	})
	if int32(len(pending)) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *memEventStore) MarkProcessed(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok || rec.processed {
		return false, nil
	}
	rec.processed = true
	return true, nil
}

func (s *memEventStore) RecordFailure(_ context.Context, id uuid.UUID, handlerErr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[id]; ok {
		rec.attempts++
		rec.lastError = handlerErr
	}
	return nil
}

func (s *memEventStore) record(id uuid.UUID) *eventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id]
}

func (s *memEventStore) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, rec := range s.records {
		if !rec.processed {
			count++
		}
	}
	return count
}

// memCouponStore deduplicates on code, like the ON CONFLICT clause.
type memCouponStore struct {
	mu      sync.Mutex
	byCode  map[coupon.Code]*coupon.Coupon
	inserts int
}

func newMemCouponStore() *memCouponStore {
	return &memCouponStore{byCode: make(map[coupon.Code]*coupon.Coupon)}
}

func (s *memCouponStore) Insert(_ context.Context, c *coupon.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inserts++
	if _, exists := s.byCode[c.Code()]; exists {
		return nil
	}
	s.byCode[c.Code()] = c
	return nil
}

func (s *memCouponStore) all() []*coupon.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()

	coupons := make([]*coupon.Coupon, 0, len(s.byCode))
	for _, c := range s.byCode {
		coupons = append(coupons, c)
	}
	return coupons
}

// memCustomerStore ledgers credits per event, like the SQL store.
type memCustomerStore struct {
	mu       sync.Mutex
	points   map[uuid.UUID]int32
	orders   map[uuid.UUID]int32
	credited map[uuid.UUID]bool
}

func newMemCustomerStore() *memCustomerStore {
	return &memCustomerStore{
		points:   make(map[uuid.UUID]int32),
		orders:   make(map[uuid.UUID]int32),
		credited: make(map[uuid.UUID]bool),
	}
}

func (s *memCustomerStore) ApplyPurchase(_ context.Context, eventID, customerID uuid.UUID, points int32, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.credited[eventID] {
		return nil
	}
	s.credited[eventID] = true
	s.points[customerID] += points
	s.orders[customerID]++
	return nil
}

func (s *memCustomerStore) pointsFor(customerID uuid.UUID) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.points[customerID]
}

type memOrderStore struct {
	recentOrder map[uuid.UUID]bool
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{recentOrder: make(map[uuid.UUID]bool)}
}

func (s *memOrderStore) HasCompletedOrderSince(_ context.Context, customerID uuid.UUID, _ time.Time) (bool, error) {
	return s.recentOrder[customerID], nil
}

// memOutboundQueue dedups on (event, recipient, template), like the ON
// CONFLICT clause.
type memOutboundQueue struct {
	mu       sync.Mutex
	messages []automation.OutboundMessage
	seen     map[outboundKey]bool
	enqueues int
}

type outboundKey struct {
	eventID     uuid.UUID
	recipientID uuid.UUID
	template    string
}

func (q *memOutboundQueue) Enqueue(_ context.Context, msg automation.OutboundMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.seen == nil {
		q.seen = make(map[outboundKey]bool)
	}
	q.enqueues++
	key := outboundKey{eventID: msg.EventID, recipientID: msg.RecipientID, template: msg.Template}
	if q.seen[key] {
		return nil
	}
	q.seen[key] = true
	q.messages = append(q.messages, msg)
	return nil
}

func (q *memOutboundQueue) all() []automation.OutboundMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]automation.OutboundMessage(nil), q.messages...)
}

func (q *memOutboundQueue) byTemplate(template string) []automation.OutboundMessage {
	q.mu.Lock()
	defer q.mu.Unlock()

	var matched []automation.OutboundMessage
	for _, msg := range q.messages {
		if msg.Template == template {
			matched = append(matched, msg)
		}
	}
	return matched
}

// memScheduleStore mirrors the claim-then-emit contract of the SQL store and
// its source-event dedup. failNext injects one insert failure.
type memScheduleStore struct {
	mu       sync.Mutex
	actions  map[uuid.UUID]*scheduleRecord
	bySource map[uuid.UUID]bool
	failNext error
}

type scheduleRecord struct {
	sa       *schedule.ScheduledAction
	executed bool
}

func newMemScheduleStore() *memScheduleStore {
	return &memScheduleStore{
		actions:  make(map[uuid.UUID]*scheduleRecord),
		bySource: make(map[uuid.UUID]bool),
	}
}

func (s *memScheduleStore) Insert(_ context.Context, sa *schedule.ScheduledAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	if s.bySource[sa.SourceEventID()] {
		return nil
	}
	s.bySource[sa.SourceEventID()] = true
	s.actions[sa.ID()] = &scheduleRecord{sa: sa}
	return nil
}

func (s *memScheduleStore) ListDue(_ context.Context, now time.Time, limit int32) ([]*schedule.ScheduledAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*schedule.ScheduledAction
	for _, rec := range s.actions {
		if !rec.executed && !rec.sa.ExecuteAt().After(now) {
			due = append(due, rec.sa)
		}
		if int32(len(due)) == limit {
			break
		}
	}
	return due, nil
}

func (s *memScheduleStore) Claim(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.actions[id]
	if !ok || rec.executed {
		return false, nil
	}
	rec.executed = true
	return true, nil
}

func (s *memScheduleStore) all() []*scheduleRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]*scheduleRecord, 0, len(s.actions))
	for _, rec := range s.actions {
		records = append(records, rec)
	}
	return records
}

type memAdminTaskStore struct {
	mu       sync.Mutex
	tasks    []automation.AdminTask
	bySource map[uuid.UUID]bool
}

func (s *memAdminTaskStore) Insert(_ context.Context, task automation.AdminTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bySource == nil {
		s.bySource = make(map[uuid.UUID]bool)
	}
	if s.bySource[task.SourceEventID] {
		return nil
	}
	s.bySource[task.SourceEventID] = true
	s.tasks = append(s.tasks, task)
	return nil
}

func (s *memAdminTaskStore) all() []automation.AdminTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]automation.AdminTask(nil), s.tasks...)
}

type memUserDirectory struct {
	admins []automation.AdminUser
}

func (d *memUserDirectory) ListAdmins(_ context.Context, limit int32) ([]automation.AdminUser, error) {
	if int32(len(d.admins)) > limit {
		return d.admins[:limit], nil
	}
	return d.admins, nil
}

// world bundles the fakes plus the engine wired against them.
type world struct {
	events    *memEventStore
	coupons   *memCouponStore
	customers *memCustomerStore
	orders    *memOrderStore
	outbound  *memOutboundQueue
	schedules *memScheduleStore
	tasks     *memAdminTaskStore
	users     *memUserDirectory

	clock    *clockStub
	handlers *automation.Handlers
	registry *automation.Registry
}

type clockStub struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clockStub) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clockStub) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newWorld(now time.Time) *world {
	w := &world{
		events:    newMemEventStore(),
		coupons:   newMemCouponStore(),
		customers: newMemCustomerStore(),
		orders:    newMemOrderStore(),
		outbound:  &memOutboundQueue{},
		schedules: newMemScheduleStore(),
		tasks:     &memAdminTaskStore{},
		users:     &memUserDirectory{},
		clock:     &clockStub{now: now},
	}
	w.handlers = automation.NewHandlers(
		w.coupons, w.customers, w.orders, w.outbound, w.schedules, w.tasks, w.users,
		w.clock, discardLogger(),
	)
	w.registry = automation.BuildRegistry(w.handlers)
	return w
}

func (w *world) processor(cfg automation.ProcessorConfig) *automation.Processor {
	return automation.NewProcessor(w.events, w.registry, w.clock, discardLogger(), cfg)
}

func (w *world) sweeper() *automation.Sweeper {
	return automation.NewSweeper(w.schedules, w.events, w.clock, discardLogger())
}
