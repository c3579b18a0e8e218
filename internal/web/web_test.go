package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"food-marketplace/internal/logger"
	"food-marketplace/internal/models"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind models.ErrorKind
		want int
	}{
		{models.KindNotFound, http.StatusNotFound},
		{models.KindValidation, http.StatusBadRequest},
		{models.KindInvalidQuantity, http.StatusBadRequest},
		{models.KindEmptyCart, http.StatusBadRequest},
		{models.KindUnavailable, http.StatusConflict},
		{models.KindConflict, http.StatusConflict},
		{models.KindInvalidTransition, http.StatusConflict},
		{models.KindPermissionDenied, http.StatusForbidden},
		{models.KindNoRestaurant, http.StatusForbidden},
		{"", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := StatusFor(tt.kind); got != tt.want {
				t.Errorf("StatusFor(%q) = %d, want %d", tt.kind, got, tt.want)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.NewWithWriter("test", io.Discard)

	tests := []struct {
		name    string
		err     error
		status  int
		kind    string
		message string
	}{
		{
			name:    "wrapped domain error",
			err:     fmt.Errorf("checkout: %w", models.EmptyCart()),
			status:  http.StatusBadRequest,
			kind:    "empty_cart",
			message: "cart is empty",
		},
		{
			name:    "internal error is hidden",
			err:     errors.New("pq: connection refused at 10.0.0.3"),
			status:  http.StatusInternalServerError,
			kind:    "internal",
			message: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RequestIDMiddleware())
			r.GET("/x", func(c *gin.Context) { WriteError(c, log, "test", tt.err) })

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set(RequestIDHeader, "req-1")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["kind"] != tt.kind || body["error"] != tt.message {
				t.Errorf("body = %v", body)
			}
			if body["request_id"] != "req-1" {
				t.Errorf("request_id = %q, want req-1", body["request_id"])
			}
			if body["timestamp"] == "" {
				t.Error("timestamp missing")
			}
		})
	}
}

func TestRequestIDMiddleware_Generates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, RequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if w.Body.String() == "" {
		t.Fatal("expected generated request id")
	}
	if got := w.Header().Get(RequestIDHeader); got != w.Body.String() {
		t.Errorf("header = %q, body = %q", got, w.Body.String())
	}
}

func TestPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query string
		want  models.Page
	}{
		{"", models.Page{Limit: models.DefaultPageLimit}},
		{"?limit=10&offset=20", models.Page{Limit: 10, Offset: 20}},
		{"?limit=abc&offset=-5", models.Page{Limit: models.DefaultPageLimit}},
		{"?limit=1000", models.Page{Limit: models.MaxPageLimit}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/x"+tt.query, nil)
			if got := Pagination(c); got != tt.want {
				t.Errorf("Pagination() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
