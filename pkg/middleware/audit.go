package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/gronit/club-portal/pkg/logger"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
	AuditActionGrant  AuditAction = "grant"
	AuditActionRevoke AuditAction = "revoke"
	AuditActionView   AuditAction = "view"
)

// Context keys for audit data
const (
	ContextKeyAuditResourceID = "audit_resource_id"
	ContextKeyAuditOldValues  = "audit_old_values"
	ContextKeyAuditNewValues  = "audit_new_values"
	ContextKeyAuditMetadata   = "audit_metadata"
	contextKeyAuditSkip       = "audit_skip"
)

// AuditEntry is one admin mutation recorded in audit_logs.
type AuditEntry struct {
	ID           string         `json:"id"`
	UserID       *string        `json:"user_id,omitempty"`
	UserEmail    string         `json:"user_email,omitempty"`
	UserName     string         `json:"user_name,omitempty"`
	Action       AuditAction    `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   *string        `json:"resource_id,omitempty"`
	StatusCode   int            `json:"status_code"`
	IPAddress    string         `json:"ip_address,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	RequestID    string         `json:"request_id,omitempty"`
	TraceID      string         `json:"trace_id,omitempty"`
	OldValues    map[string]any `json:"old_values,omitempty"`
	NewValues    map[string]any `json:"new_values,omitempty"`
	Changes      map[string]any `json:"changes,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// AuditSink persists batches of audit entries.
type AuditSink interface {
	WriteAudit(ctx context.Context, entries []*AuditEntry) error
}

// AuditConfig holds configuration for the audit middleware
type AuditConfig struct {
	Sink AuditSink
	// BufferSize is the size of the async audit buffer (default: 1000)
	BufferSize int
	// FlushInterval is how often to flush the buffer (default: 5 seconds)
	FlushInterval time.Duration
	// BatchSize is the maximum number of entries to insert in one batch (default: 100)
	BatchSize int
	// SkipPaths are exact paths, or prefixes when ending in "*"
	SkipPaths []string
	// SkipMethods defaults to GET, HEAD, OPTIONS
	SkipMethods       []string
	ActionMapper      func(method, path string) AuditAction
	ResourceExtractor func(path string) (resourceType string, resourceID string)
	// EnableRequestBody captures JSON request bodies only; multipart uploads are never read
	EnableRequestBody bool
	MaxBodySize       int
	SensitiveFields   []string
}

// DefaultAuditConfig returns default configuration
func DefaultAuditConfig(sink AuditSink) *AuditConfig {
	return &AuditConfig{
		Sink:              sink,
		BufferSize:        1000,
		FlushInterval:     5 * time.Second,
		BatchSize:         100,
		SkipPaths:         []string{"/health", "/ready"},
		SkipMethods:       []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		ActionMapper:      defaultActionMapper,
		ResourceExtractor: defaultResourceExtractor,
		EnableRequestBody: true,
		MaxBodySize:       10 * 1024,
		SensitiveFields:   []string{"password", "token", "secret", "api_key", "private_key"},
	}
}

// AuditLogger handles async audit logging
type AuditLogger struct {
	config    *AuditConfig
	buffer    chan *AuditEntry
	wg        sync.WaitGroup
	closeOnce sync.Once

	mu      sync.Mutex
	dropped int
}

// NewAuditLogger creates a new audit logger and starts its flush worker.
func NewAuditLogger(config *AuditConfig) *AuditLogger {
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 5 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = 10 * 1024
	}

	al := &AuditLogger{
		config: config,
		buffer: make(chan *AuditEntry, config.BufferSize),
	}

	al.wg.Add(1)
	go al.worker()

	return al
}

// Log adds an audit entry to the buffer without blocking. Entries are
// dropped when the buffer is full.
func (al *AuditLogger) Log(entry *AuditEntry) {
	select {
	case al.buffer <- entry:
	default:
		al.mu.Lock()
		al.dropped++
		al.mu.Unlock()
	}
}

// Dropped returns how many entries were discarded on a full buffer.
func (al *AuditLogger) Dropped() int {
	al.mu.Lock()
	defer al.mu.Unlock()
	return al.dropped
}

// Close flushes buffered entries and stops the worker.
func (al *AuditLogger) Close() error {
	al.closeOnce.Do(func() {
		close(al.buffer)
		al.wg.Wait()
	})
	return nil
}

func (al *AuditLogger) worker() {
	defer al.wg.Done()

	ticker := time.NewTicker(al.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]*AuditEntry, 0, al.config.BatchSize)

	for {
		select {
		case entry, ok := <-al.buffer:
			if !ok {
				al.flush(batch)
				return
			}
			batch = append(batch, entry)
			if len(batch) >= al.config.BatchSize {
				al.flush(batch)
				batch = make([]*AuditEntry, 0, al.config.BatchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				al.flush(batch)
				batch = make([]*AuditEntry, 0, al.config.BatchSize)
			}
		}
	}
}

func (al *AuditLogger) flush(entries []*AuditEntry) {
	if len(entries) == 0 || al.config.Sink == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := al.config.Sink.WriteAudit(ctx, entries); err != nil {
		logger.Warn("failed to write audit entries", zap.Int("count", len(entries)), zap.Error(err))
	}
}

const insertAuditQuery = `
	INSERT INTO audit_logs (
		id, user_id, user_email, user_name,
		action, resource_type, resource_id, status_code,
		ip_address, user_agent, request_id, trace_id,
		old_values, new_values, changes, metadata, created_at
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7, $8,
		$9, $10, $11, $12,
		$13, $14, $15, $16, $17
	)
`

// PostgresAuditSink writes audit entries to the audit_logs table in one batch.
type PostgresAuditSink struct {
	pool *pgxpool.Pool
}

// NewPostgresAuditSink creates a sink backed by pool.
func NewPostgresAuditSink(pool *pgxpool.Pool) *PostgresAuditSink {
	return &PostgresAuditSink{pool: pool}
}

// WriteAudit inserts entries using a pgx batch.
func (s *PostgresAuditSink) WriteAudit(ctx context.Context, entries []*AuditEntry) error {
	if s.pool == nil || len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, entry := range entries {
		batch.Queue(insertAuditQuery,
			entry.ID, entry.UserID, entry.UserEmail, entry.UserName,
			string(entry.Action), entry.ResourceType, entry.ResourceID, entry.StatusCode,
			entry.IPAddress, entry.UserAgent, entry.RequestID, entry.TraceID,
			jsonColumn(entry.OldValues, false), jsonColumn(entry.NewValues, false),
			jsonColumn(entry.Changes, false), jsonColumn(entry.Metadata, true),
			entry.CreatedAt,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	var firstErr error
	for range entries {
		if _, err := results.Exec(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// jsonColumn encodes m for a JSONB column. Empty maps become NULL unless
// emptyObject is set.
func jsonColumn(m map[string]any, emptyObject bool) []byte {
	if len(m) == 0 {
		if emptyObject {
			return []byte("{}")
		}
		return nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return b
}

// MemoryAuditSink keeps entries in memory. Used by tests and when no
// database is configured.
type MemoryAuditSink struct {
	mu      sync.Mutex
	entries []*AuditEntry
}

func (s *MemoryAuditSink) WriteAudit(_ context.Context, entries []*AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	return nil
}

// Entries returns a copy of the written entries.
func (s *MemoryAuditSink) Entries() []*AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*AuditEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// AuditMiddleware records every non-skipped request after the handler runs.
func AuditMiddleware(al *AuditLogger) gin.HandlerFunc {
	config := al.config

	return func(c *gin.Context) {
		if skipAudit(c, config) {
			c.Next()
			return
		}

		body := captureJSONBody(c, config)
		start := time.Now().UTC()

		c.Next()

		if skip, _ := c.Get(contextKeyAuditSkip); skip == true {
			return
		}
		al.Log(buildAuditEntry(c, config, body, start))
	}
}

func skipAudit(c *gin.Context, config *AuditConfig) bool {
	for _, path := range config.SkipPaths {
		if matchPath(c.Request.URL.Path, path) {
			return true
		}
	}
	for _, method := range config.SkipMethods {
		if c.Request.Method == method {
			return true
		}
	}
	return false
}

// captureJSONBody reads up to MaxBodySize bytes of a JSON body and puts
// them back in front of the unread remainder for the handler.
func captureJSONBody(c *gin.Context, config *AuditConfig) map[string]any {
	if !config.EnableRequestBody || c.Request.Body == nil || !strings.HasPrefix(c.ContentType(), "application/json") {
		return nil
	}
	head, err := io.ReadAll(io.LimitReader(c.Request.Body, int64(config.MaxBodySize)))
	if err != nil || len(head) == 0 {
		return nil
	}
	c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(head), c.Request.Body))

	var body map[string]any
	if json.Unmarshal(head, &body) != nil {
		return nil
	}
	return maskSensitiveFields(body, config.SensitiveFields)
}

func buildAuditEntry(c *gin.Context, config *AuditConfig, body map[string]any, start time.Time) *AuditEntry {
	entry := &AuditEntry{
		ID:         uuid.New().String(),
		StatusCode: c.Writer.Status(),
		IPAddress:  c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
		RequestID:  GetRequestID(c),
		CreatedAt:  start,
	}

	if uid, ok := GetUserID(c); ok && uid != "" {
		entry.UserID = &uid
	}
	entry.UserEmail, _ = GetEmail(c)
	entry.UserName, _ = GetDisplayName(c)

	if config.ActionMapper != nil {
		entry.Action = config.ActionMapper(c.Request.Method, c.Request.URL.Path)
	}
	if config.ResourceExtractor != nil {
		resourceType, resourceID := config.ResourceExtractor(c.Request.URL.Path)
		entry.ResourceType = resourceType
		if resourceID != "" {
			entry.ResourceID = &resourceID
		}
	}
	// a create only knows its id once the handler has run
	if id := c.GetString(ContextKeyAuditResourceID); id != "" {
		entry.ResourceID = &id
	}

	entry.OldValues = contextMap(c, ContextKeyAuditOldValues)
	entry.NewValues = contextMap(c, ContextKeyAuditNewValues)
	entry.Metadata = contextMap(c, ContextKeyAuditMetadata)
	if entry.OldValues != nil && entry.NewValues != nil {
		entry.Changes = computeChanges(entry.OldValues, entry.NewValues)
	}
	if entry.NewValues == nil {
		entry.NewValues = body
	}

	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		entry.TraceID = sc.TraceID().String()
	}
	return entry
}

func contextMap(c *gin.Context, key string) map[string]any {
	v, ok := c.Get(key)
	if !ok {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}

// matchPath reports whether path equals pattern, or starts with pattern
// minus a trailing "*".
func matchPath(path, pattern string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(path, prefix)
	}
	return path == pattern
}

func defaultActionMapper(method, path string) AuditAction {
	adminUsers := strings.Contains(strings.ToLower(path), "/admin/users")

	switch method {
	case http.MethodPost:
		if adminUsers {
			return AuditActionGrant
		}
		return AuditActionCreate
	case http.MethodPut, http.MethodPatch:
		return AuditActionUpdate
	case http.MethodDelete:
		if adminUsers {
			return AuditActionRevoke
		}
		return AuditActionDelete
	default:
		return AuditActionView
	}
}

var resourceNames = map[string]string{
	"events": "event",
	"blogs":  "blog",
	"team":   "member",
	"users":  "admin_user",
}

// defaultResourceExtractor maps a route to its resource.
// Example: /api/v1/events/8d0c... -> ("event", "8d0c...")
func defaultResourceExtractor(path string) (resourceType string, resourceID string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")

	startIdx := -1
	for i, part := range parts {
		if part == "api" || part == "admin" || isVersionSegment(part) || part == "" {
			continue
		}
		startIdx = i
		break
	}

	if startIdx < 0 {
		return "unknown", ""
	}

	segment := parts[startIdx]
	if name, ok := resourceNames[segment]; ok {
		resourceType = name
	} else {
		resourceType = strings.TrimSuffix(segment, "s")
	}

	if startIdx+1 < len(parts) && isValidID(parts[startIdx+1]) {
		resourceID = parts[startIdx+1]
	}

	return resourceType, resourceID
}

func isVersionSegment(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, c := range s[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

var (
	objectIDPattern    = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	firebaseUIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{20,128}$`)
)

// isValidID accepts event UUIDs, Mongo ObjectIDs, Firebase uids and numbers.
func isValidID(s string) bool {
	if s == "" {
		return false
	}
	if _, err := uuid.Parse(s); err == nil {
		return true
	}
	if objectIDPattern.MatchString(s) || firebaseUIDPattern.MatchString(s) {
		return true
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func maskSensitiveFields(data map[string]any, sensitiveFields []string) map[string]any {
	if data == nil {
		return nil
	}

	result := make(map[string]any, len(data))
	for k, v := range data {
		lowKey := strings.ToLower(k)
		masked := false
		for _, sf := range sensitiveFields {
			if strings.Contains(lowKey, strings.ToLower(sf)) {
				result[k] = "[REDACTED]"
				masked = true
				break
			}
		}
		if masked {
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			result[k] = maskSensitiveFields(nested, sensitiveFields)
		} else {
			result[k] = v
		}
	}
	return result
}

// computeChanges returns {field: {old, new}} for every field that differs.
func computeChanges(oldVals, newVals map[string]any) map[string]any {
	changes := make(map[string]any)

	for k, newV := range newVals {
		oldV, exists := oldVals[k]
		if exists && jsonEqual(oldV, newV) {
			continue
		}
		changes[k] = map[string]any{"old": oldV, "new": newV}
	}

	for k, oldV := range oldVals {
		if _, exists := newVals[k]; !exists {
			changes[k] = map[string]any{"old": oldV, "new": nil}
		}
	}

	return changes
}

func jsonEqual(a, b any) bool {
	aJSON, err1 := json.Marshal(a)
	bJSON, err2 := json.Marshal(b)
	if err1 != nil || err2 != nil {
		return false
	}
	return string(aJSON) == string(bJSON)
}

// SetAuditResourceID sets the resource ID for audit logging, e.g. the id
// assigned by a create.
func SetAuditResourceID(c *gin.Context, resourceID string) {
	c.Set(ContextKeyAuditResourceID, resourceID)
}

// SetAuditOldValues records the state before an update or delete.
func SetAuditOldValues(c *gin.Context, oldValues map[string]any) {
	c.Set(ContextKeyAuditOldValues, oldValues)
}

// SetAuditNewValues records the state after a create or update.
func SetAuditNewValues(c *gin.Context, newValues map[string]any) {
	c.Set(ContextKeyAuditNewValues, newValues)
}

func SetAuditMetadata(c *gin.Context, metadata map[string]any) {
	c.Set(ContextKeyAuditMetadata, metadata)
}

// SkipAudit marks the current request to skip audit logging
func SkipAudit(c *gin.Context) {
	c.Set(contextKeyAuditSkip, true)
}
