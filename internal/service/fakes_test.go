package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/clock"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/sla"
)

// memDB is an in-memory stand-in for Postgres shared by the fake repositories.
// WithinTx serializes transactions and rolls the state back when fn fails.
type memDB struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID      int64
	tickets     map[int64]domain.Ticket
	history     []domain.StatusHistoryEntry
	attachments map[int64]domain.Attachment
	assignments map[[2]int64]domain.Assignment
	holidays    map[string]domain.Holiday
	perms       map[int64]auth.PermissionSet

	queries int

	failAttachmentDelete map[int64]bool
	failHistoryAppend    bool
}

func newMemDB() *memDB {
	return &memDB{
		tickets:              map[int64]domain.Ticket{},
		attachments:          map[int64]domain.Attachment{},
		assignments:          map[[2]int64]domain.Assignment{},
		holidays:             map[string]domain.Holiday{},
		perms:                map[int64]auth.PermissionSet{},
		failAttachmentDelete: map[int64]bool{},
	}
}

type memTxKey struct{}

type memSnapshot struct {
	nextID      int64
	tickets     map[int64]domain.Ticket
	history     []domain.StatusHistoryEntry
	attachments map[int64]domain.Attachment
	assignments map[[2]int64]domain.Assignment
	holidays    map[string]domain.Holiday
}

func (db *memDB) snapshot() memSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	s := memSnapshot{
		nextID:      db.nextID,
		tickets:     make(map[int64]domain.Ticket, len(db.tickets)),
		history:     append([]domain.StatusHistoryEntry(nil), db.history...),
		attachments: make(map[int64]domain.Attachment, len(db.attachments)),
		assignments: make(map[[2]int64]domain.Assignment, len(db.assignments)),
		holidays:    make(map[string]domain.Holiday, len(db.holidays)),
	}
	for k, v := range db.tickets {
		s.tickets[k] = v
	}
	for k, v := range db.attachments {
		s.attachments[k] = v
	}
	for k, v := range db.assignments {
		s.assignments[k] = v
	}
	for k, v := range db.holidays {
		s.holidays[k] = v
	}
	return s
}

func (db *memDB) restore(s memSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nextID = s.nextID
	db.tickets = s.tickets
	db.history = s.history
	db.attachments = s.attachments
	db.assignments = s.assignments
	db.holidays = s.holidays
}

func (db *memDB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	db.txMu.Lock()
	defer db.txMu.Unlock()

	snap := db.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		db.restore(snap)
		return err
	}
	return nil
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *memDB) queryCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.queries
}

func (db *memDB) ticket(t *testing.T, id int64) domain.Ticket {
	t.Helper()
	db.mu.Lock()
	defer db.mu.Unlock()
	ticket, ok := db.tickets[id]
	require.True(t, ok, "ticket %d missing", id)
	return ticket
}

func (db *memDB) historyOf(ticketID int64) []domain.StatusHistoryEntry {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []domain.StatusHistoryEntry
	for _, e := range db.history {
		if e.TicketID == ticketID {
			out = append(out, e)
		}
	}
	return out
}

// memTickets implements repository.TicketRepository.
type memTickets struct{ db *memDB }

func (r memTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.tickets {
		if existing.Number == ticket.Number {
			return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
		}
	}
	ticket.ID = r.db.id()
	ticket.Active = true
	r.db.tickets[ticket.ID] = *ticket
	return nil
}

func (r memTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	updated := *ticket
	updated.Number = existing.Number
	updated.Active = existing.Active
	updated.DeletedAt = existing.DeletedAt
	r.db.tickets[ticket.ID] = updated
	return nil
}

func (r memTickets) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.queries++
	ticket, ok := r.db.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (r memTickets) GetForUpdate(ctx context.Context, id int64) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r memTickets) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, ticket := range r.db.tickets {
		if ticket.Number == number {
			return &ticket, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memTickets) MaxNumberWithPrefix(_ context.Context, prefix string) (string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	best, bestN := "", -1
	for _, ticket := range r.db.tickets {
		n, err := numberSuffix(ticket.Number, prefix)
		if err != nil {
			continue
		}
		if n > bestN {
			best, bestN = ticket.Number, n
		}
	}
	return best, nil
}

func (r memTickets) ExistsNumber(_ context.Context, number string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, ticket := range r.db.tickets {
		if ticket.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (r memTickets) scoped(scope auth.Scope) []domain.Ticket {
	var out []domain.Ticket
	for _, ticket := range r.db.tickets {
		_, assigned := r.db.assignments[[2]int64{ticket.ID, scope.UserID}]
		ticket := ticket
		if scope.Permits(&ticket, assigned) {
			out = append(out, ticket)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r memTickets) List(_ context.Context, scope auth.Scope, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.queries++

	var matched []domain.Ticket
	for _, ticket := range r.scoped(scope) {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		matched = append(matched, ticket)
	}
	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	start := filter.Offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r memTickets) CountByStatus(_ context.Context, scope auth.Scope, statuses ...domain.TicketStatus) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.queries++
	n := 0
	for _, ticket := range r.scoped(scope) {
		if len(statuses) == 0 || containsStatus(statuses, ticket.Status) {
			n++
		}
	}
	return n, nil
}

func (r memTickets) CategoryBreakdown(_ context.Context, scope auth.Scope, year int, tz string) ([]domain.CategoryBreakdown, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.queries++
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	counts := map[domain.CategoryBreakdown]int{}
	for _, ticket := range r.scoped(scope) {
		created := ticket.CreatedAt.In(loc)
		if created.Year() != year {
			continue
		}
		counts[domain.CategoryBreakdown{CategoryID: ticket.CategoryID, Month: created.Format("2006-01")}]++
	}
	var out []domain.CategoryBreakdown
	for key, n := range counts {
		key.Count = n
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month == out[j].Month {
			return out[i].CategoryID < out[j].CategoryID
		}
		return out[i].Month < out[j].Month
	})
	return out, nil
}

func (r memTickets) SoftDelete(_ context.Context, id int64, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	ticket, ok := r.db.tickets[id]
	if !ok || !ticket.Active {
		return pgx.ErrNoRows
	}
	ticket.Active = false
	ticket.DeletedAt = &at
	r.db.tickets[id] = ticket
	return nil
}

func (r memTickets) Restore(_ context.Context, id int64, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	ticket, ok := r.db.tickets[id]
	if !ok || ticket.Active {
		return pgx.ErrNoRows
	}
	ticket.Active = true
	ticket.DeletedAt = nil
	ticket.UpdatedAt = at
	r.db.tickets[id] = ticket
	return nil
}

func (r memTickets) ListDeleted(_ context.Context, creatorID int64) ([]domain.Ticket, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.db.tickets {
		if !ticket.Active && ticket.CreatedBy == creatorID {
			out = append(out, ticket)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeletedAt.After(*out[j].DeletedAt) })
	return out, nil
}

func (r memTickets) ListDeletedBefore(_ context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.db.tickets {
		if !ticket.Active && !ticket.DeletedAt.After(cutoff) {
			out = append(out, ticket)
		}
	}
	return out, nil
}

func containsStatus(list []domain.TicketStatus, s domain.TicketStatus) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}

// memHistory implements repository.TicketHistoryRepository.
type memHistory struct{ db *memDB }

func (r memHistory) Append(_ context.Context, entry *domain.StatusHistoryEntry) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failHistoryAppend {
		return errHistoryDown
	}
	entry.ID = r.db.id()
	r.db.history = append(r.db.history, *entry)
	return nil
}

func (r memHistory) ListByTicket(_ context.Context, ticketID int64) ([]domain.StatusHistoryEntry, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.StatusHistoryEntry
	for _, e := range r.db.history {
		if e.TicketID == ticketID {
			out = append(out, e)
		}
	}
	return out, nil
}

type testError string

func (e testError) Error() string { return string(e) }

const (
	errHistoryDown    = testError("history store unavailable")
	errAttachmentDown = testError("attachment store unavailable")
)

// memAttachments implements repository.AttachmentRepository.
type memAttachments struct{ db *memDB }

func (r memAttachments) Create(_ context.Context, a *domain.Attachment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.attachments {
		if existing.StoredName == a.StoredName {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	a.ID = r.db.id()
	a.Active = true
	r.db.attachments[a.ID] = *a
	return nil
}

func (r memAttachments) NextSequence(_ context.Context, ticketID int64, tag domain.AttachmentTag) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tickets[ticketID]; !ok {
		return 0, pgx.ErrNoRows
	}
	max := 0
	for _, a := range r.db.attachments {
		if a.TicketID == ticketID && a.Tag == tag && a.Sequence > max {
			max = a.Sequence
		}
	}
	return max + 1, nil
}

func (r memAttachments) GetByID(_ context.Context, id int64) (*domain.Attachment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.attachments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &a, nil
}

func (r memAttachments) ListByTicket(_ context.Context, ticketID int64, includeDeleted bool) ([]domain.Attachment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Attachment
	for _, a := range r.db.attachments {
		if a.TicketID == ticketID && (includeDeleted || a.Active) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memAttachments) SoftDelete(_ context.Context, id int64, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failAttachmentDelete[id] {
		return errAttachmentDown
	}
	a, ok := r.db.attachments[id]
	if !ok || !a.Active {
		return pgx.ErrNoRows
	}
	a.Active = false
	a.DeletedAt = &at
	r.db.attachments[id] = a
	return nil
}

func (r memAttachments) Restore(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.attachments[id]
	if !ok || a.Active {
		return pgx.ErrNoRows
	}
	a.Active = true
	a.DeletedAt = nil
	r.db.attachments[id] = a
	return nil
}

func (r memAttachments) ListDeletedBefore(_ context.Context, cutoff time.Time) ([]domain.Attachment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Attachment
	for _, a := range r.db.attachments {
		if !a.Active && !a.DeletedAt.After(cutoff) {
			out = append(out, a)
		}
	}
	return out, nil
}

// memAssignments implements repository.AssignmentRepository.
type memAssignments struct{ db *memDB }

func (r memAssignments) Assign(_ context.Context, a *domain.Assignment) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := [2]int64{a.TicketID, a.UserID}
	if _, ok := r.db.assignments[key]; ok {
		return false, nil
	}
	r.db.assignments[key] = *a
	return true, nil
}

func (r memAssignments) Unassign(_ context.Context, ticketID, userID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := [2]int64{ticketID, userID}
	if _, ok := r.db.assignments[key]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.db.assignments, key)
	return nil
}

func (r memAssignments) ListByTicket(_ context.Context, ticketID int64) ([]domain.Assignment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Assignment
	for key, a := range r.db.assignments {
		if key[0] == ticketID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r memAssignments) IsAssigned(_ context.Context, ticketID, userID int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	_, ok := r.db.assignments[[2]int64{ticketID, userID}]
	return ok, nil
}

// memHolidays implements repository.HolidayRepository.
type memHolidays struct{ db *memDB }

func (r memHolidays) Add(_ context.Context, h domain.Holiday) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.holidays[h.Date.Format("2006-01-02")] = h
	return nil
}

func (r memHolidays) Remove(_ context.Context, date time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := date.Format("2006-01-02")
	if _, ok := r.db.holidays[key]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.db.holidays, key)
	return nil
}

func (r memHolidays) Replace(_ context.Context, holidays []domain.Holiday) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.holidays = map[string]domain.Holiday{}
	for _, h := range holidays {
		r.db.holidays[h.Date.Format("2006-01-02")] = h
	}
	return nil
}

func (r memHolidays) List(_ context.Context) ([]domain.Holiday, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Holiday
	for _, h := range r.db.holidays {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// memPermissions implements auth.PermissionLookup.
type memPermissions struct{ db *memDB }

func (r memPermissions) PermissionsForUser(_ context.Context, userID int64) (auth.PermissionSet, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if perms, ok := r.db.perms[userID]; ok {
		return perms, nil
	}
	return auth.PermissionSet{}, nil
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

// Fixed users of the test environment.
const (
	adminID     int64 = 1
	supporterID int64 = 2
	reporterID  int64 = 3
	viewerID    int64 = 4
	otherID     int64 = 5
)

// testEnv wires every service over one memDB and a fake clock.
type testEnv struct {
	db          *memDB
	clock       *clock.FakeClock
	dispatcher  *recordingDispatcher
	sequencer   *Sequencer
	tickets     *TicketService
	status      *StatusService
	trash       *TrashService
	assignments *AssignmentService
	attachments *AttachmentService
	calendars   *CalendarService
	dashboard   *DashboardService

	admin, supporter, reporter, viewer, other auth.Actor
}

// March 3rd 2025 is a Monday.
var envStart = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newMemDB()
	c := clock.Fake(envStart)
	d := &recordingDispatcher{}

	tickets := memTickets{db}
	history := memHistory{db}
	attachments := memAttachments{db}
	assignments := memAssignments{db}

	env := &testEnv{
		db:         db,
		clock:      c,
		dispatcher: d,
		admin:      auth.NewActor(adminID, auth.CapabilitiesForRole(auth.RoleAdmin)),
		supporter:  auth.NewActor(supporterID, auth.CapabilitiesForRole(auth.RoleSupporter)),
		reporter:   auth.NewActor(reporterID, auth.CapabilitiesForRole(auth.RoleReporter)),
		viewer:     auth.NewActor(viewerID, auth.CapabilitiesForRole(auth.RoleViewer)),
		other:      auth.NewActor(otherID, auth.CapabilitiesForRole(auth.RoleReporter)),
	}
	for _, a := range []auth.Actor{env.admin, env.supporter, env.reporter, env.viewer, env.other} {
		db.perms[a.UserID] = a.Permissions
	}

	env.calendars = NewCalendarService(CalendarDependencies{
		Base:        sla.DefaultCalendar(),
		HolidayRepo: memHolidays{db},
		TxManager:   db,
	})
	env.sequencer = NewSequencer(SequencerDependencies{
		TicketRepo: tickets,
		TxManager:  db,
		Locker:     NewLocalLocker(),
		Clock:      c,
	})
	env.tickets = NewTicketService(TicketDependencies{
		TicketRepo:     tickets,
		HistoryRepo:    history,
		AssignmentRepo: assignments,
		TxManager:      db,
		Sequencer:      env.sequencer,
		Calendars:      env.calendars,
		Dispatcher:     d,
		Clock:          c,
	})
	env.status = NewStatusService(StatusDependencies{
		TicketRepo:     tickets,
		HistoryRepo:    history,
		AssignmentRepo: assignments,
		TxManager:      db,
		Calendars:      env.calendars,
		Dispatcher:     d,
		Clock:          c,
	})
	env.trash = NewTrashService(TrashDependencies{
		TicketRepo:     tickets,
		AttachmentRepo: attachments,
		Dispatcher:     d,
		Clock:          c,
	})
	env.assignments = NewAssignmentService(AssignmentDependencies{
		TicketRepo:     tickets,
		AssignmentRepo: assignments,
		Permissions:    memPermissions{db},
		Dispatcher:     d,
		Clock:          c,
	})
	env.attachments = NewAttachmentService(AttachmentDependencies{
		TicketRepo:     tickets,
		AttachmentRepo: attachments,
		AssignmentRepo: assignments,
		TxManager:      db,
		Clock:          c,
	})
	env.dashboard = NewDashboardService(DashboardDependencies{TicketRepo: tickets})
	return env
}

// create files a ticket as actor and fails the test on error.
func (e *testEnv) create(t *testing.T, actor auth.Actor) *domain.Ticket {
	t.Helper()
	ticket, err := e.tickets.Create(context.Background(), actor, TicketCreateInput{
		ProjectID:  10,
		CategoryID: 20,
		Issue:      "printer on fire",
	})
	require.NoError(t, err)
	return ticket
}

// move drives a ticket through statuses as admin.
func (e *testEnv) move(t *testing.T, ticketID int64, statuses ...domain.TicketStatus) *domain.Ticket {
	t.Helper()
	var ticket *domain.Ticket
	for _, status := range statuses {
		var err error
		ticket, err = e.status.Transition(context.Background(), e.admin, ticketID, status)
		require.NoError(t, err)
	}
	return ticket
}

// racingTickets runs interleave once, right after the first GetByID returns.
// It simulates another request committing between a service's unlocked read
// and its transaction.
type racingTickets struct {
	memTickets
	once       sync.Once
	interleave func()
}

func (r *racingTickets) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := r.memTickets.GetByID(ctx, id)
	r.once.Do(r.interleave)
	return ticket, err
}

// racingTicketService builds a TicketService whose first read races with
// interleave.
func (e *testEnv) racingTicketService(interleave func()) *TicketService {
	return NewTicketService(TicketDependencies{
		TicketRepo:     &racingTickets{memTickets: memTickets{e.db}, interleave: interleave},
		HistoryRepo:    memHistory{e.db},
		AssignmentRepo: memAssignments{e.db},
		TxManager:      e.db,
		Sequencer:      e.sequencer,
		Calendars:      e.calendars,
		Clock:          e.clock,
	})
}

// racingStatusService is the StatusService counterpart of racingTicketService.
func (e *testEnv) racingStatusService(interleave func()) *StatusService {
	return NewStatusService(StatusDependencies{
		TicketRepo:     &racingTickets{memTickets: memTickets{e.db}, interleave: interleave},
		HistoryRepo:    memHistory{e.db},
		AssignmentRepo: memAssignments{e.db},
		TxManager:      e.db,
		Calendars:      e.calendars,
		Clock:          e.clock,
	})
}
