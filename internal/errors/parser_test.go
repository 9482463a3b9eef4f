package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		context    string
		wantCode   string
		wantStatus int
	}{
		{
			name:       "Record not found",
			err:        gorm.ErrRecordNotFound,
			context:    "store",
			wantCode:   ResourceNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Duplicate slug",
			err:        errors.New(`duplicate key value violates unique constraint "idx_stores_slug"`),
			context:    "store",
			wantCode:   ResourceAlreadyExists,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "Duplicate email",
			err:        errors.New(`UNIQUE constraint failed: users.email`),
			context:    "register user",
			wantCode:   AuthEmailAlreadyExists,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "Foreign key violation",
			err:        errors.New("insert or update violates foreign key constraint"),
			context:    "review",
			wantCode:   ResourceNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Connection refused",
			err:        errors.New("dial tcp 127.0.0.1:5432: connection refused"),
			context:    "store",
			wantCode:   InternalDatabaseError,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "Unclassified error",
			err:        errors.New("something odd"),
			context:    "store",
			wantCode:   InternalServerError,
			wantStatus: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, tt.context)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.Equal(t, tt.wantStatus, info.Status)
			assert.NotEmpty(t, info.Message)
		})
	}
}

type jsonRecorder struct {
	status int
	body   interface{}
}

func (r *jsonRecorder) JSON(status int, body interface{}) {
	r.status = status
	r.body = body
}

func TestParseAndRespondStatus(t *testing.T) {
	// The parsed status outranks the caller's fallback
	rec := &jsonRecorder{}
	ParseAndRespond(rec, http.StatusInternalServerError, errors.New(`UNIQUE constraint failed: stores.slug`), "store")
	assert.Equal(t, http.StatusConflict, rec.status)

	// Unclassified errors keep the fallback
	rec = &jsonRecorder{}
	ParseAndRespond(rec, http.StatusInternalServerError, errors.New("something odd"), "store")
	assert.Equal(t, http.StatusInternalServerError, rec.status)
}
