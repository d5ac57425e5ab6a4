package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"carrental/internal/booking"
	"carrental/internal/db"
	"carrental/internal/repository"
)

// memDB is an in-memory stand-in for the PostgreSQL repositories.
// Transactions are serialised and roll back on error.
type memDB struct {
	txMu sync.Mutex
	mu   sync.Mutex

	cars     map[int64]db.Car
	bookings map[int64]db.Booking
	users    map[int64]db.User
	outbox   []db.OutboxMessage
	nextID   int64

	failInsert error
}

func newMemDB() *memDB {
	return &memDB{
		cars:     map[int64]db.Car{},
		bookings: map[int64]db.Booking{},
		users:    map[int64]db.User{},
	}
}

type memSnapshot struct {
	cars     map[int64]db.Car
	bookings map[int64]db.Booking
	users    map[int64]db.User
	outbox   []db.OutboxMessage
}

func (m *memDB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snap := memSnapshot{
		cars:     copyMap(m.cars),
		bookings: copyMap(m.bookings),
		users:    copyMap(m.users),
		outbox:   append([]db.OutboxMessage(nil), m.outbox...),
	}
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.cars, m.bookings, m.users, m.outbox = snap.cars, snap.bookings, snap.users, snap.outbox
		m.mu.Unlock()
		return err
	}
	return nil
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *memDB) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memDB) addCar(name string, available bool) db.Car {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := db.Car{ID: m.id(), Name: name, Model: "2024", IsAvailable: available}
	m.cars[c.ID] = c
	return c
}

func (m *memDB) addBooking(customerID, carID int64, pickup, ret string) db.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := db.Booking{ID: m.id(), CustomerID: customerID, CarID: carID, PickupDate: day(pickup), ReturnDate: day(ret)}
	m.bookings[b.ID] = b
	return b
}

func (m *memDB) addUser(u db.User) db.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.id()
	m.users[u.ID] = u
	return u
}

func (m *memDB) bookingsFor(carID int64) []db.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Booking
	for _, b := range m.bookings {
		if b.CarID == carID {
			out = append(out, b)
		}
	}
	return out
}

func (m *memDB) outboxMessages() []db.OutboxMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]db.OutboxMessage(nil), m.outbox...)
}

// cars

func (m *memDB) ListCars(_ context.Context, onlyAvailable bool) ([]db.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Car
	for _, c := range m.cars {
		if !onlyAvailable || c.IsAvailable {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDB) GetCar(_ context.Context, id int64) (*db.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cars[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (m *memDB) GetCarForUpdate(ctx context.Context, id int64) (*db.Car, error) {
	return m.GetCar(ctx, id)
}

func (m *memDB) CreateCar(_ context.Context, c *db.Car) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	m.cars[c.ID] = *c
	return nil
}

func (m *memDB) UpdateCar(_ context.Context, c *db.Car) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cars[c.ID]; !ok {
		return repository.ErrNotFound
	}
	m.cars[c.ID] = *c
	return nil
}

func (m *memDB) DeleteCar(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cars[id]; !ok {
		return repository.ErrNotFound
	}
	for _, b := range m.bookings {
		if b.CarID == id {
			return repository.ErrReferenced
		}
	}
	delete(m.cars, id)
	return nil
}

// bookings

func (m *memDB) ListBookingsForCar(_ context.Context, carID int64) ([]booking.Interval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []booking.Interval
	for _, b := range m.bookings {
		if b.CarID == carID {
			out = append(out, booking.NewInterval(b.PickupDate, b.ReturnDate))
		}
	}
	return out, nil
}

func (m *memDB) InsertBooking(_ context.Context, b *db.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsert != nil {
		return m.failInsert
	}
	candidate := booking.NewInterval(b.PickupDate, b.ReturnDate)
	for _, e := range m.bookings {
		if e.CarID == b.CarID && booking.Overlaps(booking.NewInterval(e.PickupDate, e.ReturnDate), candidate) {
			return repository.ErrOverlap
		}
	}
	b.ID = m.id()
	b.CreatedAt = time.Now()
	m.bookings[b.ID] = *b
	return nil
}

func (m *memDB) detail(b db.Booking) db.BookingDetail {
	c := m.cars[b.CarID]
	u := m.users[b.CustomerID]
	return db.BookingDetail{Booking: b, CarName: c.Name, CarModel: c.Model, CustomerUsername: u.Username, CustomerEmail: u.Email}
}

func (m *memDB) DeleteBooking(_ context.Context, id int64) (*db.BookingDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(m.bookings, id)
	d := m.detail(b)
	return &d, nil
}

func (m *memDB) DeleteCustomerBooking(_ context.Context, id, customerID int64) (*db.BookingDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.CustomerID != customerID {
		return nil, repository.ErrNotFound
	}
	delete(m.bookings, id)
	d := m.detail(b)
	return &d, nil
}

func (m *memDB) listDetails(keep func(db.Booking) bool) []db.BookingDetail {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.BookingDetail
	for _, b := range m.bookings {
		if keep(b) {
			out = append(out, m.detail(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PickupDate.After(out[j].PickupDate) })
	return out
}

func (m *memDB) ListCustomerBookings(_ context.Context, customerID int64) ([]db.BookingDetail, error) {
	return m.listDetails(func(b db.Booking) bool { return b.CustomerID == customerID }), nil
}

func (m *memDB) ListAllBookings(_ context.Context) ([]db.BookingDetail, error) {
	return m.listDetails(func(db.Booking) bool { return true }), nil
}

// users

func (m *memDB) CreateUser(_ context.Context, u *db.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.users {
		if e.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	u.ID = m.id()
	u.CreatedAt = time.Now()
	m.users[u.ID] = *u
	return nil
}

func (m *memDB) findUser(match func(db.User) bool) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memDB) GetUserByID(_ context.Context, id int64) (*db.User, error) {
	return m.findUser(func(u db.User) bool { return u.ID == id })
}

func (m *memDB) GetUserByUsername(_ context.Context, username string) (*db.User, error) {
	return m.findUser(func(u db.User) bool { return u.Username == username })
}

func (m *memDB) GetUserByVerificationCode(_ context.Context, code string) (*db.User, error) {
	return m.findUser(func(u db.User) bool { return u.VerificationCode.Valid && u.VerificationCode.String == code })
}

func (m *memDB) MarkEmailVerified(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.EmailVerified = true
	u.VerificationCode.Valid = false
	u.VerificationExpiresAt.Valid = false
	m.users[id] = u
	return nil
}

func (m *memDB) DeleteExpiredUnverified(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, u := range m.users {
		if !u.EmailVerified && u.VerificationExpiresAt.Valid && u.VerificationExpiresAt.Time.Before(now) {
			delete(m.users, id)
			n++
		}
	}
	return n, nil
}

// outbox

func (m *memDB) Create(_ context.Context, msg *db.OutboxMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.Status == "" {
		msg.Status = db.OutboxStatusNew
	}
	m.outbox = append(m.outbox, *msg)
	return nil
}

func (m *memDB) ClaimBatch(_ context.Context, limit int) ([]db.OutboxMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.OutboxMessage
	for i := range m.outbox {
		if len(out) == limit {
			break
		}
		if m.outbox[i].Status == db.OutboxStatusNew {
			m.outbox[i].Status = db.OutboxStatusDispatched
			out = append(out, m.outbox[i])
		}
	}
	return out, nil
}

func (m *memDB) setStatus(id, status, reason string) {
	for i := range m.outbox {
		if m.outbox[i].ID == id {
			m.outbox[i].Status = status
			if reason != "" {
				m.outbox[i].LastError.String, m.outbox[i].LastError.Valid = reason, true
			}
		}
	}
}

func (m *memDB) MarkSent(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.setStatus(id, db.OutboxStatusSent, "")
	}
	return nil
}

func (m *memDB) MarkFailed(_ context.Context, id string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setStatus(id, db.OutboxStatusFailed, reason)
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	got  []Notification
	fail error
}

func (r *recordingNotifier) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return r.fail
}

func (r *recordingNotifier) received() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.got...)
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleDetail(id int64) db.BookingDetail {
	return db.BookingDetail{
		Booking: db.Booking{
			ID:         id,
			CustomerID: 1,
			CarID:      1,
			PickupDate: day("2025-01-10"),
			ReturnDate: day("2025-01-12"),
			TotalCost:  booking.DefaultDailyRate.Mul(decimal.NewFromInt(2)),
		},
		CarName:          "Toyota Camry",
		CarModel:         "2024",
		CustomerUsername: "alice",
	}
}
