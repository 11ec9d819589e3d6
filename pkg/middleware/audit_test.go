package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultActionMapper(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		expected AuditAction
	}{
		{"POST creates", "POST", "/api/v1/events", AuditActionCreate},
		{"PUT updates", "PUT", "/api/v1/blogs/65f1c0ffee0000000000abcd", AuditActionUpdate},
		{"PATCH updates", "PATCH", "/api/v1/team/65f1c0ffee0000000000abcd", AuditActionUpdate},
		{"DELETE deletes", "DELETE", "/api/v1/events/789", AuditActionDelete},
		{"GET views", "GET", "/api/v1/events", AuditActionView},
		{"add admin grants", "POST", "/api/v1/admin/users", AuditActionGrant},
		{"remove admin revokes", "DELETE", "/api/v1/admin/users/abc", AuditActionRevoke},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, defaultActionMapper(tt.method, tt.path))
		})
	}
}

func TestDefaultResourceExtractor(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		expectedType string
		expectedID   string
	}{
		{"event by uuid", "/api/v1/events/123e4567-e89b-12d3-a456-426614174000", "event", "123e4567-e89b-12d3-a456-426614174000"},
		{"event list", "/api/v1/events", "event", ""},
		{"blog by object id", "/api/v1/blogs/65f1c0ffee0000000000abcd", "blog", "65f1c0ffee0000000000abcd"},
		{"team member", "/api/v1/team/65f1c0ffee0000000000abcd", "member", "65f1c0ffee0000000000abcd"},
		{"admin user by uid", "/api/v1/admin/users/Xy7pQ2rT9sLm4NbV8cKd1FgH3jW5", "admin_user", "Xy7pQ2rT9sLm4NbV8cKd1FgH3jW5"},
		{"admin user list", "/api/v1/admin/users", "admin_user", ""},
		{"sub resource keeps parent id", "/api/v1/events/123/registration-status", "event", "123"},
		{"non id segment", "/api/v1/blogs/draft-post", "blog", ""},
		{"root", "/", "unknown", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resourceType, resourceID := defaultResourceExtractor(tt.path)
			assert.Equal(t, tt.expectedType, resourceType)
			assert.Equal(t, tt.expectedID, resourceID)
		})
	}
}

func TestMatchPath(t *testing.T) {
	assert.True(t, matchPath("/health", "/health"))
	assert.False(t, matchPath("/healthz", "/health"))
	assert.True(t, matchPath("/api/v1/admin/users/1", "/api/v1/admin/*"))
	assert.False(t, matchPath("/api/v1/events", "/api/v1/admin/*"))
	assert.True(t, matchPath("/anything", "*"))
}

func TestMaskSensitiveFields(t *testing.T) {
	sensitiveFields := []string{"password", "token", "secret", "api_key"}

	tests := []struct {
		name     string
		input    map[string]any
		expected map[string]any
	}{
		{
			name:     "nil input",
			input:    nil,
			expected: nil,
		},
		{
			name:     "no sensitive fields",
			input:    map[string]any{"title": "Hack Night", "location": "Lab 3"},
			expected: map[string]any{"title": "Hack Night", "location": "Lab 3"},
		},
		{
			name:     "masks matching keys case-insensitively",
			input:    map[string]any{"email": "a@gronit.club", "Password": "hunter2", "refresh_token": "abc"},
			expected: map[string]any{"email": "a@gronit.club", "Password": "[REDACTED]", "refresh_token": "[REDACTED]"},
		},
		{
			name: "nested maps",
			input: map[string]any{
				"socialLinks": map[string]any{"github": "gronit", "api_key": "k"},
			},
			expected: map[string]any{
				"socialLinks": map[string]any{"github": "gronit", "api_key": "[REDACTED]"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskSensitiveFields(tt.input, sensitiveFields))
		})
	}
}

func TestComputeChanges(t *testing.T) {
	oldVals := map[string]any{"title": "Old", "location": "Lab 1", "tags": []string{"ai"}}
	newVals := map[string]any{"title": "New", "tags": []string{"ai"}, "maxParticipants": 40}

	changes := computeChanges(oldVals, newVals)

	assert.Equal(t, map[string]any{"old": "Old", "new": "New"}, changes["title"])
	assert.Equal(t, map[string]any{"old": "Lab 1", "new": nil}, changes["location"])
	assert.Equal(t, map[string]any{"old": nil, "new": 40}, changes["maxParticipants"])
	assert.NotContains(t, changes, "tags")
}

func TestIsValidID(t *testing.T) {
	assert.True(t, isValidID("123e4567-e89b-12d3-a456-426614174000"))
	assert.True(t, isValidID("65f1c0ffee0000000000abcd"))
	assert.True(t, isValidID("Xy7pQ2rT9sLm4NbV8cKd1FgH3jW5"))
	assert.True(t, isValidID("42"))
	assert.False(t, isValidID(""))
	assert.False(t, isValidID("registration-status"))
}

func newTestAuditLogger(sink AuditSink) *AuditLogger {
	config := DefaultAuditConfig(sink)
	config.FlushInterval = time.Hour
	return NewAuditLogger(config)
}

func TestAuditLogger_FlushOnClose(t *testing.T) {
	sink := &MemoryAuditSink{}
	al := newTestAuditLogger(sink)

	al.Log(&AuditEntry{ID: "entry-1", Action: AuditActionCreate, ResourceType: "event"})
	require.NoError(t, al.Close())

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "entry-1", entries[0].ID)
}

func TestAuditLogger_BatchFlush(t *testing.T) {
	sink := &MemoryAuditSink{}
	config := &AuditConfig{Sink: sink, BufferSize: 10, FlushInterval: time.Hour, BatchSize: 2}
	al := NewAuditLogger(config)
	defer al.Close()

	al.Log(&AuditEntry{ID: "a"})
	al.Log(&AuditEntry{ID: "b"})

	assert.Eventually(t, func() bool { return len(sink.Entries()) == 2 }, time.Second, 10*time.Millisecond)
}

func TestAuditLogger_TickerFlush(t *testing.T) {
	sink := &MemoryAuditSink{}
	config := &AuditConfig{Sink: sink, BufferSize: 10, FlushInterval: 20 * time.Millisecond, BatchSize: 100}
	al := NewAuditLogger(config)
	defer al.Close()

	al.Log(&AuditEntry{ID: "a"})

	assert.Eventually(t, func() bool { return len(sink.Entries()) == 1 }, time.Second, 10*time.Millisecond)
}

type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) WriteAudit(context.Context, []*AuditEntry) error {
	<-s.release
	return nil
}

func TestAuditLogger_BufferFullDrops(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	config := &AuditConfig{Sink: sink, BufferSize: 1, FlushInterval: time.Hour, BatchSize: 1}
	al := NewAuditLogger(config)

	for i := 0; i < 10; i++ {
		al.Log(&AuditEntry{ID: "x"})
	}

	assert.Positive(t, al.Dropped())
	close(sink.release)
	require.NoError(t, al.Close())
}

type failingSink struct{}

func (failingSink) WriteAudit(context.Context, []*AuditEntry) error {
	return errors.New("db down")
}

func TestAuditLogger_SinkErrorDoesNotPanic(t *testing.T) {
	al := newTestAuditLogger(failingSink{})
	al.Log(&AuditEntry{ID: "x"})
	assert.NotPanics(t, func() { _ = al.Close() })
}

func TestAuditLogger_CloseIdempotent(t *testing.T) {
	al := newTestAuditLogger(&MemoryAuditSink{})
	require.NoError(t, al.Close())
	require.NoError(t, al.Close())
}

func withIdentity(uid, email, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyUserID, uid)
		c.Set(ContextKeyEmail, email)
		c.Set(ContextKeyName, name)
		c.Next()
	}
}

func TestAuditMiddleware_SkipsPathsAndMethods(t *testing.T) {
	sink := &MemoryAuditSink{}
	al := newTestAuditLogger(sink)

	router := gin.New()
	router.Use(AuditMiddleware(al))
	router.POST("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/v1/events", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "/health", nil),
		httptest.NewRequest(http.MethodGet, "/api/v1/events", nil),
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	require.NoError(t, al.Close())
	assert.Empty(t, sink.Entries())
}

func TestAuditMiddleware_RecordsMutation(t *testing.T) {
	sink := &MemoryAuditSink{}
	al := newTestAuditLogger(sink)

	router := gin.New()
	router.Use(RequestID(), withIdentity("uid-1", "lead@gronit.club", "Club Lead"), AuditMiddleware(al))
	router.DELETE("/api/v1/events/:id", func(c *gin.Context) {
		SetAuditOldValues(c, map[string]any{"title": "Hack Night"})
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/events/123e4567-e89b-12d3-a456-426614174000", nil)
	req.Header.Set("X-Request-ID", "req-42")
	req.Header.Set("User-Agent", "club-admin")
	req.RemoteAddr = "192.0.2.1:4000"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.NoError(t, al.Close())

	entries := sink.Entries()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, AuditActionDelete, entry.Action)
	assert.Equal(t, "event", entry.ResourceType)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, "123e4567-e89b-12d3-a456-426614174000", *entry.ResourceID)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "uid-1", *entry.UserID)
	assert.Equal(t, "lead@gronit.club", entry.UserEmail)
	assert.Equal(t, "Club Lead", entry.UserName)
	assert.Equal(t, http.StatusNoContent, entry.StatusCode)
	assert.Equal(t, "req-42", entry.RequestID)
	assert.Equal(t, "club-admin", entry.UserAgent)
	assert.Equal(t, "192.0.2.1", entry.IPAddress)
	assert.Equal(t, "Hack Night", entry.OldValues["title"])
	assert.NotEmpty(t, entry.ID)
}

func TestAuditMiddleware_HandlerOverridesAndChanges(t *testing.T) {
	sink := &MemoryAuditSink{}
	al := newTestAuditLogger(sink)

	router := gin.New()
	router.Use(AuditMiddleware(al))
	router.POST("/api/v1/blogs", func(c *gin.Context) {
		SetAuditResourceID(c, "65f1c0ffee0000000000abcd")
		SetAuditOldValues(c, map[string]any{"title": "a"})
		SetAuditNewValues(c, map[string]any{"title": "b"})
		SetAuditMetadata(c, map[string]any{"image": "gronit/x"})
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/blogs", nil))
	require.NoError(t, al.Close())

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "blog", entries[0].ResourceType)
	assert.Equal(t, "65f1c0ffee0000000000abcd", *entries[0].ResourceID)
	assert.Contains(t, entries[0].Changes, "title")
	assert.Equal(t, "gronit/x", entries[0].Metadata["image"])
}

func TestAuditMiddleware_SkipAudit(t *testing.T) {
	sink := &MemoryAuditSink{}
	al := newTestAuditLogger(sink)

	router := gin.New()
	router.Use(AuditMiddleware(al))
	router.POST("/api/v1/events", func(c *gin.Context) {
		SkipAudit(c)
		c.Status(http.StatusBadRequest)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/events", nil))
	require.NoError(t, al.Close())

	assert.Empty(t, sink.Entries())
}

func TestAuditMiddleware_CapturesJSONBodyMasked(t *testing.T) {
	sink := &MemoryAuditSink{}
	al := newTestAuditLogger(sink)

	var seen string
	router := gin.New()
	router.Use(AuditMiddleware(al))
	router.POST("/api/v1/admin/users", func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		seen = string(b)
		c.Status(http.StatusCreated)
	})

	body := `{"email":"new@gronit.club","token":"abc"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/users", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.NoError(t, al.Close())

	assert.Equal(t, body, seen)
	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, AuditActionGrant, entries[0].Action)
	assert.Equal(t, "admin_user", entries[0].ResourceType)
	assert.Equal(t, "new@gronit.club", entries[0].NewValues["email"])
	assert.Equal(t, "[REDACTED]", entries[0].NewValues["token"])
}

func TestAuditMiddleware_IgnoresMultipartBody(t *testing.T) {
	sink := &MemoryAuditSink{}
	al := newTestAuditLogger(sink)

	router := gin.New()
	router.Use(AuditMiddleware(al))
	router.POST("/api/v1/team", func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/team", bytes.NewBufferString("--x--"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.NoError(t, al.Close())

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].NewValues)
	assert.Equal(t, "member", entries[0].ResourceType)
}

func TestJSONColumn(t *testing.T) {
	assert.Nil(t, jsonColumn(nil, false))
	assert.Equal(t, []byte("{}"), jsonColumn(nil, true))
	assert.JSONEq(t, `{"a":1}`, string(jsonColumn(map[string]any{"a": 1}, false)))
}

func TestDefaultAuditConfig(t *testing.T) {
	sink := &MemoryAuditSink{}
	config := DefaultAuditConfig(sink)

	assert.Same(t, sink, config.Sink)
	assert.Equal(t, 1000, config.BufferSize)
	assert.Equal(t, 5*time.Second, config.FlushInterval)
	assert.Equal(t, 100, config.BatchSize)
	assert.Contains(t, config.SkipPaths, "/health")
	assert.Contains(t, config.SkipMethods, http.MethodGet)
	assert.Contains(t, config.SensitiveFields, "private_key")
}
