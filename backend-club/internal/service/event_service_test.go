package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gronit/club-portal/backend-club/internal/clock"
	"github.com/gronit/club-portal/backend-club/internal/domain"
	"github.com/gronit/club-portal/backend-club/internal/dto"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int              { return &v }
func strPtr(v string) *string        { return &v }
func boolPtr(v bool) *bool           { return &v }
func timePtr(t time.Time) *time.Time { return &t }

func pngUpload() *dto.ImageUpload {
	return &dto.ImageUpload{Data: []byte("\x89PNG\r\n\x1a\n"), Filename: "cover.png", MimeType: "image/png"}
}

func seededEvent(id string, date time.Time) *domain.Event {
	return &domain.Event{
		ID:                 id,
		Title:              "Hack Night",
		Content:            "## Agenda\n\n- pizza",
		Author:             "Alice",
		Description:        "Monthly hack night",
		RegistrationLink:   "https://forms.example.com/hack",
		ImageURL:           "https://img.example.com/old.png",
		ImagePublicID:      "gronit/old",
		Date:               date,
		IsRegistrationOpen: true,
		EventType:          domain.EventTypeOffline,
		Tags:               []string{"hack"},
		CreatedAt:          testNow.Add(-48 * time.Hour),
		UpdatedAt:          testNow.Add(-48 * time.Hour),
	}
}

type eventFixture struct {
	repo      *fakeEventRepo
	images    *fakeImageStore
	publisher *fakePublisher
	svc       EventService
}

func newEventFixture(events ...*domain.Event) *eventFixture {
	f := &eventFixture{
		repo:      newFakeEventRepo(events...),
		images:    &fakeImageStore{},
		publisher: &fakePublisher{},
	}
	f.svc = NewEventService(f.repo, f.images, f.publisher, clock.NewFixed(testNow))
	return f
}

func validCreateEventRequest() *dto.CreateEventRequest {
	return &dto.CreateEventRequest{
		Title:            "  Go Workshop ",
		Content:          "# Hello",
		Description:      "Intro to Go",
		RegistrationLink: "https://forms.example.com/go",
		Date:             "2026-04-01T18:00",
		Tags:             []string{"Go, backend", "go"},
		Author:           "Alice",
		Image:            pngUpload(),
	}
}

func TestEventService_CreateEvent(t *testing.T) {
	f := newEventFixture()

	resp, err := f.svc.CreateEvent(context.Background(), validCreateEventRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "Go Workshop", resp.Title)
	assert.Equal(t, "Alice", resp.Author)
	assert.Equal(t, domain.EventTypeOffline, resp.EventType)
	assert.True(t, resp.IsRegistrationOpen)
	assert.Equal(t, []string{"go", "backend"}, resp.Tags)
	assert.Equal(t, "gronit/img-1", resp.ImagePublicID)
	assert.Equal(t, time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC), resp.Date)
	assert.Equal(t, testNow, resp.CreatedAt)
	assert.True(t, resp.IsUpcoming)
	assert.Equal(t, 23, resp.DaysUntilEvent)
	assert.True(t, resp.RegistrationStatus.CanRegister)
	assert.Equal(t, "Registration is open", resp.RegistrationStatus.Message)

	stored, err := f.repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, []string{"event.created"}, f.publisher.types())
	assert.Equal(t, "Alice", f.publisher.changes[0].Actor)
	assert.Equal(t, resp.ID, f.publisher.changes[0].ID)
}

func TestEventService_CreateEvent_ExplicitFields(t *testing.T) {
	f := newEventFixture()
	req := validCreateEventRequest()
	req.EventType = "hybrid"
	req.IsRegistrationOpen = boolPtr(false)
	req.RegistrationStartDate = "2026-03-01"
	req.RegistrationEndDate = "2026-03-20"
	req.MaxParticipants = intPtr(30)

	resp, err := f.svc.CreateEvent(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.EventTypeHybrid, resp.EventType)
	assert.False(t, resp.IsRegistrationOpen)
	require.NotNil(t, resp.RegistrationStartDate)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *resp.RegistrationStartDate)
	assert.Equal(t, 30, *resp.MaxParticipants)
	assert.Equal(t, "Registration is currently closed", resp.RegistrationStatus.Message)
}

func TestEventService_CreateEvent_Errors(t *testing.T) {
	t.Run("image required", func(t *testing.T) {
		f := newEventFixture()
		req := validCreateEventRequest()
		req.Image = nil
		_, err := f.svc.CreateEvent(context.Background(), req)
		assert.ErrorIs(t, err, ErrImageRequired)
	})

	t.Run("invalid image", func(t *testing.T) {
		f := newEventFixture()
		req := validCreateEventRequest()
		req.Image = &dto.ImageUpload{Data: []byte("bad bytes"), Filename: "x.txt"}
		_, err := f.svc.CreateEvent(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidImage)
	})

	t.Run("invalid date", func(t *testing.T) {
		f := newEventFixture()
		req := validCreateEventRequest()
		req.Date = "next friday"
		_, err := f.svc.CreateEvent(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Zero(t, f.images.uploads)
	})

	t.Run("repository failure destroys uploaded image", func(t *testing.T) {
		f := newEventFixture()
		f.repo.createErr = errBoom
		_, err := f.svc.CreateEvent(context.Background(), validCreateEventRequest())
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, []string{"gronit/img-1"}, f.images.destroyed)
		assert.Empty(t, f.publisher.types())
	})
}

func TestEventService_CreateEvent_PublishFailureIgnored(t *testing.T) {
	f := newEventFixture()
	f.publisher.err = errBoom

	resp, err := f.svc.CreateEvent(context.Background(), validCreateEventRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
}

func TestEventService_GetEvent(t *testing.T) {
	f := newEventFixture(seededEvent("e1", testNow.Add(36*time.Hour)))

	resp, err := f.svc.GetEvent(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "Hack Night", resp.Title)
	assert.Contains(t, resp.ContentHTML, "<h2")
	assert.Contains(t, resp.ContentHTML, "<li>pizza</li>")
	assert.Equal(t, 2, resp.DaysUntilEvent)
	assert.True(t, resp.IsUpcoming)

	_, err = f.svc.GetEvent(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventService_GetRegistrationStatus(t *testing.T) {
	full := seededEvent("full", testNow.Add(30*24*time.Hour))
	full.MaxParticipants = intPtr(20)
	full.CurrentParticipants = intPtr(20)

	closing := seededEvent("closing", testNow.Add(30*24*time.Hour))
	closing.RegistrationEndDate = timePtr(testNow.Add(24 * time.Hour))

	past := seededEvent("past", testNow.Add(-time.Hour))

	f := newEventFixture(full, closing, past)

	tests := []struct {
		id          string
		canRegister bool
		message     string
	}{
		{"full", false, "Event is full - registration closed"},
		{"closing", true, "Registration closes in 1 day"},
		{"past", false, "Event has already concluded"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			resp, err := f.svc.GetRegistrationStatus(context.Background(), tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.id, resp.Event.ID)
			assert.Equal(t, tt.canRegister, resp.RegistrationStatus.CanRegister)
			assert.Equal(t, tt.message, resp.RegistrationStatus.Message)
		})
	}

	_, err := f.svc.GetRegistrationStatus(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventService_ListEvents(t *testing.T) {
	f := newEventFixture(
		seededEvent("past", testNow.Add(-24*time.Hour)),
		seededEvent("soon", testNow.Add(24*time.Hour)),
		seededEvent("later", testNow.Add(72*time.Hour)),
	)

	upcoming, total, err := f.svc.ListEvents(context.Background(), &dto.EventListQuery{When: "upcoming"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "soon", upcoming[0].ID)
	assert.True(t, upcoming[0].RegistrationStatus.IsOpen)
	assert.Equal(t, testNow, f.repo.lastQuery.Now)
	assert.Equal(t, 20, f.repo.lastQuery.Limit)

	all, total, err := f.svc.ListEvents(context.Background(), &dto.EventListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, all, 3)
	assert.Equal(t, domain.EventPeriodAll, f.repo.lastQuery.Period)
	assert.Equal(t, "Event has already concluded", all[0].RegistrationStatus.Message)
}

func TestEventService_UpdateEvent(t *testing.T) {
	f := newEventFixture(seededEvent("e1", testNow.Add(10*24*time.Hour)))

	resp, err := f.svc.UpdateEvent(context.Background(), "e1", "Bob", &dto.UpdateEventRequest{
		Title:               strPtr("Hack Night v2"),
		MaxParticipants:     intPtr(15),
		CurrentParticipants: intPtr(8),
		Tags:                []string{""},
		Image:               pngUpload(),
	})
	require.NoError(t, err)

	assert.Equal(t, "Hack Night v2", resp.Title)
	assert.Equal(t, "Alice", resp.Author)
	assert.Equal(t, 15, *resp.MaxParticipants)
	assert.Empty(t, resp.Tags)
	assert.Equal(t, "gronit/img-1", resp.ImagePublicID)
	assert.Equal(t, testNow, resp.UpdatedAt)
	assert.Equal(t, "Only 7 spots left!", resp.RegistrationStatus.Message)
	assert.Equal(t, []string{"gronit/old"}, f.images.destroyed)
	assert.Equal(t, []string{"event.updated"}, f.publisher.types())
	assert.Equal(t, "Bob", f.publisher.changes[0].Actor)
}

func TestEventService_UpdateEvent_ClearsOptionalFields(t *testing.T) {
	event := seededEvent("e1", testNow.Add(10*24*time.Hour))
	event.MaxParticipants = intPtr(50)
	event.RegistrationEndDate = timePtr(testNow.Add(5 * 24 * time.Hour))
	f := newEventFixture(event)

	resp, err := f.svc.UpdateEvent(context.Background(), "e1", "Bob", &dto.UpdateEventRequest{
		MaxParticipants:     intPtr(0),
		RegistrationEndDate: strPtr(""),
	})
	require.NoError(t, err)
	assert.Nil(t, resp.MaxParticipants)
	assert.Nil(t, resp.RegistrationEndDate)
	assert.Empty(t, f.images.destroyed)
}

func TestEventService_UpdateEvent_Errors(t *testing.T) {
	t.Run("no changes", func(t *testing.T) {
		f := newEventFixture(seededEvent("e1", testNow.Add(time.Hour)))
		_, err := f.svc.UpdateEvent(context.Background(), "e1", "Bob", &dto.UpdateEventRequest{})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("not found", func(t *testing.T) {
		f := newEventFixture()
		_, err := f.svc.UpdateEvent(context.Background(), "e1", "Bob", &dto.UpdateEventRequest{Title: strPtr("x")})
		assert.ErrorIs(t, err, ErrEventNotFound)
	})

	t.Run("end before existing start", func(t *testing.T) {
		event := seededEvent("e1", testNow.Add(10*24*time.Hour))
		event.RegistrationStartDate = timePtr(testNow.Add(2 * 24 * time.Hour))
		f := newEventFixture(event)
		_, err := f.svc.UpdateEvent(context.Background(), "e1", "Bob", &dto.UpdateEventRequest{
			RegistrationEndDate: strPtr("2026-03-11"),
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("repository failure destroys new image", func(t *testing.T) {
		f := newEventFixture(seededEvent("e1", testNow.Add(time.Hour)))
		f.repo.updateErr = errBoom
		_, err := f.svc.UpdateEvent(context.Background(), "e1", "Bob", &dto.UpdateEventRequest{Image: pngUpload()})
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, []string{"gronit/img-1"}, f.images.destroyed)
	})
}

func TestEventService_DeleteEvent(t *testing.T) {
	f := newEventFixture(seededEvent("e1", testNow.Add(time.Hour)))

	require.NoError(t, f.svc.DeleteEvent(context.Background(), "e1", "Bob"))
	assert.Equal(t, []string{"gronit/old"}, f.images.destroyed)
	assert.Equal(t, []string{"event.deleted"}, f.publisher.types())

	err := f.svc.DeleteEvent(context.Background(), "e1", "Bob")
	assert.ErrorIs(t, err, ErrEventNotFound)
}
