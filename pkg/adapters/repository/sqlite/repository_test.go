package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-qr-platform/pkg/core/domain"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	dbURL := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := Open(context.Background(), dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := NewSQLiteRepository(db)
	require.NoError(t, err)
	return repo
}

var base = time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)

func seedQR(t *testing.T, repo *SQLiteRepository, id, owner string, st domain.Status, created time.Time) domain.QRCode {
	t.Helper()
	qr := domain.QRCode{
		ID: id, OwnerID: owner, CustomName: "code " + id,
		TargetType: domain.TargetURL, TargetURL: "https://example.com/" + id,
		Status: st, CreatedAt: created, UpdatedAt: created,
	}
	require.NoError(t, repo.CreateQRCode(context.Background(), &qr))
	return qr
}

func seedEvent(t *testing.T, repo *SQLiteRepository, qrID string, ts time.Time) {
	t.Helper()
	require.NoError(t, repo.InsertAccessEvent(context.Background(), &domain.AccessEvent{
		ID: uuid.NewString(), QRCodeID: qrID, Timestamp: ts, UserAgent: "ua", Referer: "ref", IPAddress: "127.0.0.1",
	}))
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	_, err := NewSQLiteRepository(repo.db)
	require.NoError(t, err)
}

func TestQRCodeRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	created := seedQR(t, repo, "a", "u1", domain.StatusActive, base)

	got, err := repo.GetQRCode(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created, *got)

	got.CustomName = "Renamed"
	got.TargetType = domain.TargetImage
	got.TargetURL = ""
	got.HostedImageID = "img-1"
	got.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, repo.UpdateQRCode(ctx, got))

	updated, err := repo.GetQRCode(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.CustomName)
	assert.Equal(t, domain.TargetImage, updated.TargetType)
	assert.Empty(t, updated.TargetURL)
	assert.Equal(t, "img-1", updated.HostedImageID)
	assert.Equal(t, base.Add(time.Hour), updated.UpdatedAt)
	assert.Equal(t, base, updated.CreatedAt)

	require.NoError(t, repo.UpdateQRCodeStatus(ctx, "a", domain.StatusPaused, base.Add(2*time.Hour)))
	paused, err := repo.GetQRCode(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaused, paused.Status)

	missing, err := repo.GetQRCode(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListQRCodes(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	seedQR(t, repo, "a", "u1", domain.StatusActive, base)
	seedQR(t, repo, "p", "u1", domain.StatusPaused, base.Add(time.Minute))
	seedQR(t, repo, "r", "u1", domain.StatusArchived, base.Add(2*time.Minute))
	seedQR(t, repo, "d", "u1", domain.StatusDeleted, base.Add(3*time.Minute))
	seedQR(t, repo, "x", "u2", domain.StatusActive, base.Add(4*time.Minute))
	seedEvent(t, repo, "a", base)
	seedEvent(t, repo, "a", base.Add(time.Second))
	seedEvent(t, repo, "p", base)

	tests := []struct {
		name   string
		filter domain.QRCodeFilter
		want   []string
	}{
		{name: "owner non-deleted", filter: domain.QRCodeFilter{OwnerID: "u1"}, want: []string{"r", "p", "a"}},
		{name: "owner active", filter: domain.QRCodeFilter{OwnerID: "u1", Statuses: []domain.Status{domain.StatusActive}}, want: []string{"a"}},
		{name: "owner paused or archived", filter: domain.QRCodeFilter{OwnerID: "u1", Statuses: []domain.Status{domain.StatusPaused, domain.StatusArchived}}, want: []string{"r", "p"}},
		{name: "every owner", filter: domain.QRCodeFilter{}, want: []string{"x", "r", "p", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListQRCodes(ctx, tt.filter)
			require.NoError(t, err)

			ids := make([]string, 0, len(got))
			for _, qr := range got {
				ids = append(ids, qr.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	got, err := repo.ListQRCodes(ctx, domain.QRCodeFilter{OwnerID: "u1", Statuses: []domain.Status{domain.StatusActive, domain.StatusPaused}})
	require.NoError(t, err)
	counts := map[string]int64{}
	for _, qr := range got {
		counts[qr.ID] = qr.AccessCount
	}
	assert.Equal(t, map[string]int64{"a": 2, "p": 1}, counts)
}

func TestListQRCodesWithOwner(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateUser(ctx, &domain.User{
		ID: "u1", Name: "Alice", Email: "alice@example.com", Role: domain.RoleUser, QRCodeLimit: 20, CreatedAt: base, UpdatedAt: base,
	}))
	seedQR(t, repo, "a", "u1", domain.StatusActive, base)
	seedQR(t, repo, "orphan", "ghost", domain.StatusActive, base.Add(time.Minute))
	seedEvent(t, repo, "a", base)

	got, err := repo.ListQRCodesWithOwner(ctx, domain.QRCodeFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "orphan", got[0].ID)
	assert.Nil(t, got[0].Owner)

	assert.Equal(t, "a", got[1].ID)
	require.NotNil(t, got[1].Owner)
	assert.Equal(t, domain.UserSummary{ID: "u1", Name: "Alice", Email: "alice@example.com"}, *got[1].Owner)
	assert.Equal(t, int64(1), got[1].AccessCount)
}

func TestCountActiveQRCodesAndDump(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	seedQR(t, repo, "a", "u1", domain.StatusActive, base)
	seedQR(t, repo, "r", "u1", domain.StatusArchived, base.Add(time.Minute))
	seedQR(t, repo, "d", "u1", domain.StatusDeleted, base.Add(2*time.Minute))

	n, err := repo.CountActiveQRCodes(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	all, err := repo.Dump(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, domain.StatusDeleted, all[2].Status)
}

func TestAccessEventsInRange(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.January, 15, 23, 59, 59, 0, time.UTC)

	seedEvent(t, repo, "a", start.Add(-time.Millisecond)) // before
	seedEvent(t, repo, "a", start)                        // boundary, included
	seedEvent(t, repo, "a", start.Add(5*time.Hour))
	seedEvent(t, repo, "a", end) // boundary, included
	seedEvent(t, repo, "a", end.Add(time.Second))
	seedEvent(t, repo, "b", start.Add(time.Hour))

	events, err := repo.ListAccessEventsInRange(ctx, "a", start, end)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, start, events[0].Timestamp)
	assert.Equal(t, end, events[2].Timestamp)
	assert.Equal(t, "ua", events[0].UserAgent)
	assert.Equal(t, "ref", events[0].Referer)
	assert.Equal(t, "127.0.0.1", events[0].IPAddress)

	n, err := repo.CountAccessEventsInRange(ctx, "a", start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	total, err := repo.CountAccessEvents(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
}

func TestUsers(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	u := &domain.User{ID: "u1", Name: "Alice", Email: "alice@example.com", Role: domain.RoleUser, QRCodeLimit: 20, CreatedAt: base, UpdatedAt: base}
	require.NoError(t, repo.CreateUser(ctx, u))

	dup := *u
	dup.ID = "u2"
	require.Error(t, repo.CreateUser(ctx, &dup), "email is unique")

	byEmail, err := repo.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, *u, *byEmail)

	u.Role = domain.RoleAdmin
	u.QRCodeLimit = 99
	u.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, repo.UpdateUser(ctx, u))

	byID, err := repo.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, byID.Role)
	assert.Equal(t, 99, byID.QRCodeLimit)

	missing, err := repo.GetUser(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestHostedImages(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	img := &domain.HostedImage{
		ID: "img-1", OwnerID: "u1", Filename: "menu.png", FilePath: "/uploads/u1/menu.png",
		MimeType: "image/png", FileSize: 2048, CreatedAt: base,
	}
	require.NoError(t, repo.CreateHostedImage(ctx, img))

	got, err := repo.GetHostedImage(ctx, "img-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *img, *got)

	missing, err := repo.GetHostedImage(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	second := &domain.HostedImage{
		ID: "img-2", OwnerID: "u2", Filename: "logo.jpg", FilePath: "/uploads/u2/logo.jpg",
		MimeType: "image/jpeg", CreatedAt: base.Add(time.Hour),
	}
	require.NoError(t, repo.CreateHostedImage(ctx, second))

	all, err := repo.DumpHostedImages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.HostedImage{*img, *second}, all)
}
