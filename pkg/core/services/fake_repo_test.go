package services

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/wadjakorntonsri/go-qr-platform/pkg/core/domain"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/ports"
)

// fakeRepo is an in-memory ports.Repository.
type fakeRepo struct {
	mu     sync.Mutex
	qrs    map[string]domain.QRCode
	users  map[string]domain.User
	images map[string]domain.HostedImage
	events []domain.AccessEvent

	qrWrites   int
	insertErr  error
	insertHook func()
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		qrs:    map[string]domain.QRCode{},
		users:  map[string]domain.User{},
		images: map[string]domain.HostedImage{},
	}
}

func (f *fakeRepo) CreateQRCode(_ context.Context, qr *domain.QRCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.qrWrites++
	f.qrs[qr.ID] = *qr
	return nil
}

func (f *fakeRepo) GetQRCode(_ context.Context, id string) (*domain.QRCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	qr, ok := f.qrs[id]
	if !ok {
		return nil, nil
	}
	qr.AccessCount = 0
	return &qr, nil
}

func (f *fakeRepo) UpdateQRCode(_ context.Context, qr *domain.QRCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.qrWrites++
	f.qrs[qr.ID] = *qr
	return nil
}

func (f *fakeRepo) UpdateQRCodeStatus(_ context.Context, id string, status domain.Status, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.qrWrites++
	qr := f.qrs[id]
	qr.Status = status
	qr.UpdatedAt = updatedAt
	f.qrs[id] = qr
	return nil
}

func (f *fakeRepo) match(qr domain.QRCode, filter domain.QRCodeFilter) bool {
	if filter.OwnerID != "" && qr.OwnerID != filter.OwnerID {
		return false
	}
	if len(filter.Statuses) == 0 {
		return qr.Status != domain.StatusDeleted
	}
	return slices.Contains(filter.Statuses, qr.Status)
}

func (f *fakeRepo) ListQRCodes(_ context.Context, filter domain.QRCodeFilter) ([]domain.QRCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.QRCode
	for _, qr := range f.qrs {
		if f.match(qr, filter) {
			qr.AccessCount = f.countLocked(qr.ID)
			out = append(out, qr)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListQRCodesWithOwner(_ context.Context, filter domain.QRCodeFilter) ([]domain.QRCodeWithOwner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.QRCodeWithOwner
	for _, qr := range f.qrs {
		if !f.match(qr, filter) {
			continue
		}
		qr.AccessCount = f.countLocked(qr.ID)
		item := domain.QRCodeWithOwner{QRCode: qr}
		if u, ok := f.users[qr.OwnerID]; ok {
			item.Owner = &domain.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
		}
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeRepo) CountActiveQRCodes(_ context.Context, ownerID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, qr := range f.qrs {
		if qr.OwnerID == ownerID && qr.Status != domain.StatusDeleted {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) Dump(_ context.Context) ([]domain.QRCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.QRCode
	for _, qr := range f.qrs {
		out = append(out, qr)
	}
	return out, nil
}

func (f *fakeRepo) InsertAccessEvent(_ context.Context, ev *domain.AccessEvent) error {
	if f.insertHook != nil {
		f.insertHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.events = append(f.events, *ev)
	return nil
}

func (f *fakeRepo) ListAccessEventsInRange(_ context.Context, qrID string, start, end time.Time) ([]domain.AccessEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AccessEvent
	for _, ev := range f.events {
		if ev.QRCodeID == qrID && !ev.Timestamp.Before(start) && !ev.Timestamp.After(end) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeRepo) countLocked(qrID string) int64 {
	var n int64
	for _, ev := range f.events {
		if ev.QRCodeID == qrID {
			n++
		}
	}
	return n
}

func (f *fakeRepo) CountAccessEvents(_ context.Context, qrID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countLocked(qrID), nil
}

func (f *fakeRepo) CountAccessEventsInRange(ctx context.Context, qrID string, start, end time.Time) (int64, error) {
	evs, _ := f.ListAccessEventsInRange(ctx, qrID, start, end)
	return int64(len(evs)), nil
}

func (f *fakeRepo) CreateUser(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = *u
	return nil
}

func (f *fakeRepo) GetUser(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) UpdateUser(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = *u
	return nil
}

func (f *fakeRepo) ListUsers(_ context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.User
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeRepo) CreateHostedImage(_ context.Context, img *domain.HostedImage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images[img.ID] = *img
	return nil
}

func (f *fakeRepo) GetHostedImage(_ context.Context, id string) (*domain.HostedImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.images[id]
	if !ok {
		return nil, nil
	}
	return &img, nil
}

func (f *fakeRepo) DumpHostedImages(_ context.Context) ([]domain.HostedImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.HostedImage, 0, len(f.images))
	for _, img := range f.images {
		out = append(out, img)
	}
	return out, nil
}

func (f *fakeRepo) eventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func (f *fakeRepo) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.qrWrites
}

func (f *fakeRepo) seedUser(id string, limit int) {
	f.users[id] = domain.User{ID: id, Name: id, Email: id + "@example.com", Role: domain.RoleUser, QRCodeLimit: limit}
}

func (f *fakeRepo) seedQR(qr domain.QRCode) {
	f.qrs[qr.ID] = qr
}

// syncRecorder records inline.
type syncRecorder struct {
	mu     sync.Mutex
	events []domain.AccessEvent
}

func (r *syncRecorder) Record(ev domain.AccessEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ ports.Repository = (*fakeRepo)(nil)
