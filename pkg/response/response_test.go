package response

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccess_OmitsErrorAndMeta(t *testing.T) {
	raw, err := json.Marshal(Success(map[string]string{"id": "evt-1"}))
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body, "data")
	assert.NotContains(t, body, "error")
	assert.NotContains(t, body, "meta")
}

func TestError_JSONShape(t *testing.T) {
	raw, err := json.Marshal(Error(ErrCodeImageRequired, "Image is required"))
	require.NoError(t, err)

	assert.JSONEq(t, `{"success":false,"error":{"code":"IMAGE_REQUIRED","message":"Image is required"}}`, string(raw))
}

func TestErrorWithDetails(t *testing.T) {
	resp := ErrorWithDetails(ErrCodeServiceUnavailable, "Service not ready", map[string]string{
		"postgres": "ok",
		"mongodb":  "unavailable",
	})

	require.NotNil(t, resp.Error)
	assert.False(t, resp.Success)
	assert.Equal(t, "unavailable", resp.Error.Details["mongodb"])
}

func TestPaginated(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		total      int64
		page       int
		totalPages int
		hasMore    bool
	}{
		{"first page", 20, 0, 45, 1, 3, true},
		{"middle page", 20, 20, 45, 2, 3, true},
		{"last page", 20, 40, 45, 3, 3, false},
		{"exact fit", 10, 0, 10, 1, 1, false},
		{"empty", 20, 0, 0, 1, 0, false},
		{"offset not on a page boundary", 10, 15, 30, 2, 3, true},
		{"zero limit", 0, 0, 5, 1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Paginated([]string{}, tt.limit, tt.offset, tt.total)
			require.NotNil(t, resp.Meta)
			assert.True(t, resp.Success)
			assert.Equal(t, tt.page, resp.Meta.Page)
			assert.Equal(t, tt.totalPages, resp.Meta.TotalPages)
			assert.Equal(t, tt.hasMore, resp.Meta.HasMore)
			assert.Equal(t, tt.limit, resp.Meta.Limit)
			assert.Equal(t, tt.offset, resp.Meta.Offset)
		})
	}
}

func TestStatus(t *testing.T) {
	tests := map[string]int{
		ErrCodeBadRequest:      http.StatusBadRequest,
		ErrCodeNotFound:        http.StatusNotFound,
		ErrCodeMissingToken:    http.StatusUnauthorized,
		ErrCodeTokenExpired:    http.StatusUnauthorized,
		ErrCodeImageRequired:   http.StatusBadRequest,
		ErrCodeInvalidImage:    http.StatusUnsupportedMediaType,
		ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,
		ErrCodeAlreadyExists:   http.StatusConflict,
		ErrCodeTooManyRequests: http.StatusTooManyRequests,
		ErrCodeInternalError:   http.StatusInternalServerError,
		"SOMETHING_ELSE":       http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, Status(code), code)
	}
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, ErrCodeBadRequest, BadRequest("bad").Error.Code)
	assert.Equal(t, "bad", BadRequest("bad").Error.Message)

	tm := TooManyRequests("")
	assert.Equal(t, ErrCodeTooManyRequests, tm.Error.Code)
	assert.NotEmpty(t, tm.Error.Message)
}
