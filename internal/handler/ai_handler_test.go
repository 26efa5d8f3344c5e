package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eaglebank/ai-engine/internal/cqrs"
	"github.com/eaglebank/ai-engine/internal/middleware"
	"github.com/eaglebank/ai-engine/internal/models"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- mock implementations ----

type mockSuggester struct {
	suggestFn func(cqrs.SuggestQuery) (*models.Suggestion, error)
}

func (m *mockSuggester) Suggest(_ context.Context, q cqrs.SuggestQuery) (*models.Suggestion, error) {
	if m.suggestFn != nil {
		return m.suggestFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

type mockFraudChecker struct {
	checkFn func(cqrs.FraudCheckQuery) (*models.FraudAssessment, error)
}

func (m *mockFraudChecker) CheckTransaction(_ context.Context, q cqrs.FraudCheckQuery) (*models.FraudAssessment, error) {
	if m.checkFn != nil {
		return m.checkFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func newAITestRouter(s Suggester, f FraudChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewAIHandler(s, f), NewHealthHandler("ai-engine"), log.WithField("service", "ai-engine"))
}

func aiDoRequest(router *gin.Engine, method, url string, body any) *httptest.ResponseRecorder {
	var req *http.Request
	switch b := body.(type) {
	case nil:
		req, _ = http.NewRequest(method, url, nil)
	case string:
		req, _ = http.NewRequest(method, url, strings.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	default:
		raw, _ := json.Marshal(b)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(raw)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func emptySuggestion(cqrs.SuggestQuery) (*models.Suggestion, error) {
	return &models.Suggestion{Suggestion: ""}, nil
}

func notSuspicious(cqrs.FraudCheckQuery) (*models.FraudAssessment, error) {
	return &models.FraudAssessment{Suspicious: false, Score: 0.0}, nil
}

func txBody() map[string]any {
	return map[string]any{"user_id": "usr-001", "amount": 125.5, "type": "withdraw", "timestamp": "2024-05-01T10:00:00Z"}
}

// detailsOf returns "field:type" for each validation detail in the body.
func detailsOf(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	var resp middleware.ValidationErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	out := make([]string, 0, len(resp.Details))
	for _, d := range resp.Details {
		out = append(out, d.Field+":"+d.Type)
	}
	return out
}

// ---- tests ----

func TestSuggest(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		suggestFn      func(cqrs.SuggestQuery) (*models.Suggestion, error)
		expectedStatus int
		expectedBody   string
		details        []string
	}{
		{
			name:           "success - prompt returns empty suggestion",
			body:           map[string]any{"prompt": "How can I save on fees?"},
			suggestFn:      emptySuggestion,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"suggestion":""}`,
		},
		{
			name:           "success - empty prompt is accepted",
			body:           map[string]any{"prompt": ""},
			suggestFn:      emptySuggestion,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"suggestion":""}`,
		},
		{
			name:           "unprocessable - missing prompt",
			body:           map[string]any{},
			expectedStatus: http.StatusUnprocessableEntity,
			details:        []string{"prompt:required"},
		},
		{
			name:           "unprocessable - null prompt",
			body:           `{"prompt": null}`,
			expectedStatus: http.StatusUnprocessableEntity,
			details:        []string{"prompt:required"},
		},
		{
			name:           "unprocessable - prompt is not a string",
			body:           map[string]any{"prompt": 42},
			expectedStatus: http.StatusUnprocessableEntity,
			details:        []string{"prompt:string_type"},
		},
		{
			name:           "unprocessable - malformed json",
			body:           `{"prompt": `,
			expectedStatus: http.StatusUnprocessableEntity,
			details:        []string{"body:json_invalid"},
		},
		{
			name:           "unprocessable - invalid json token",
			body:           `{prompt: "hi"}`,
			expectedStatus: http.StatusUnprocessableEntity,
			details:        []string{"body:json_invalid"},
		},
		{
			name:           "unprocessable - empty body",
			body:           ``,
			expectedStatus: http.StatusUnprocessableEntity,
			details:        []string{"body:missing"},
		},
		{
			name:           "unprocessable - no body",
			body:           nil,
			expectedStatus: http.StatusUnprocessableEntity,
			details:        []string{"body:missing"},
		},
		{
			name:           "internal error - service failure",
			body:           map[string]any{"prompt": "hi"},
			suggestFn:      func(cqrs.SuggestQuery) (*models.Suggestion, error) { return nil, fmt.Errorf("model offline") },
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"message":"Failed to generate suggestion"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAITestRouter(&mockSuggester{suggestFn: tt.suggestFn}, &mockFraudChecker{})
			w := aiDoRequest(router, http.MethodPost, "/ai/suggest", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code, "body: %s", w.Body.String())
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
			if len(tt.details) > 0 {
				assert.ElementsMatch(t, tt.details, detailsOf(t, w))
			}
		})
	}
}

func TestSuggest_PassesPrompt(t *testing.T) {
	var got cqrs.SuggestQuery
	router := newAITestRouter(&mockSuggester{suggestFn: func(q cqrs.SuggestQuery) (*models.Suggestion, error) {
		got = q
		return &models.Suggestion{}, nil
	}}, &mockFraudChecker{})

	w := aiDoRequest(router, http.MethodPost, "/ai/suggest", map[string]any{"prompt": "budget tips"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "budget tips", got.Prompt)
}

func TestFraudCheck(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		checkFn        func(cqrs.FraudCheckQuery) (*models.FraudAssessment, error)
		expectedStatus int
		expectedBody   string
		details        []string
	}{
		{
			name:           "success - transaction is not suspicious",
			body:           txBody(),
			checkFn:        notSuspicious,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"suspicious":false,"score":0}`,
		},
		{
			name:           "success - zero amount is accepted",
			body:           map[string]any{"user_id": "usr-001", "amount": 0, "type": "deposit", "timestamp": "t"},
			checkFn:        notSuspicious,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "success - empty strings are accepted",
			body:           `{"user_id":"","amount":1,"type":"","timestamp":""}`,
			checkFn:        notSuspicious,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"suspicious":false,"score":0}`,
		},
		{
			name:           "success - integer amount is accepted",
			body:           `{"user_id":"usr-001","amount":100,"type":"deposit","timestamp":"t"}`,
			checkFn:        notSuspicious,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "success - numeric string amount is accepted",
			body:           `{"user_id":"usr-001","amount":"12.5","type":"deposit","timestamp":"t"}`,
			checkFn:        notSuspicious,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unprocessable - missing all fields",
			body:           map[string]any{},
			expectedStatus: http.StatusUnprocessableEntity,
			details:        []string{"user_id:required", "amount:required", "type:required", "timestamp:required"},
		},
		{
			name:           "unprocessable - null fields",
			body:           `{"user_id":null,"amount":null,"type":"deposit","timestamp":"t"}`,
			expectedStatus: http.StatusUnprocessableEntity,
			details:        []string{"user_id:required", "amount:required"},
		},
		{
			name:           "unprocessable - missing amount",
			body:           map[string]any{"user_id": "usr-001", "type": "deposit", "timestamp": "t"},
			expectedStatus: http.StatusUnprocessableEntity,
			details:        []string{"amount:required"},
		},
		{
			name:           "unprocessable - amount is not numeric",
			body:           map[string]any{"user_id": "usr-001", "amount": "ten", "type": "deposit", "timestamp": "t"},
			expectedStatus: http.StatusUnprocessableEntity,
			details:        []string{"amount:float_parsing"},
		},
		{
			name:           "unprocessable - amount is a bool",
			body:           `{"user_id":"usr-001","amount":true,"type":"deposit","timestamp":"t"}`,
			expectedStatus: http.StatusUnprocessableEntity,
			details:        []string{"amount:float_parsing"},
		},
		{
			name:           "unprocessable - user id is not a string",
			body:           `{"user_id":7,"amount":1,"type":"deposit","timestamp":"t"}`,
			expectedStatus: http.StatusUnprocessableEntity,
			details:        []string{"user_id:string_type"},
		},
		{
			name:           "unprocessable - body is an array",
			body:           `[]`,
			expectedStatus: http.StatusUnprocessableEntity,
			details:        []string{"body:model_attributes_type"},
		},
		{
			name:           "internal error - service failure",
			body:           txBody(),
			checkFn:        func(cqrs.FraudCheckQuery) (*models.FraudAssessment, error) { return nil, fmt.Errorf("scorer offline") },
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"message":"Failed to check transaction"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAITestRouter(&mockSuggester{}, &mockFraudChecker{checkFn: tt.checkFn})
			w := aiDoRequest(router, http.MethodPost, "/ai/fraud-check", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code, "body: %s", w.Body.String())
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
			if len(tt.details) > 0 {
				assert.ElementsMatch(t, tt.details, detailsOf(t, w))
			}
		})
	}
}

func TestFraudCheck_PassesTransaction(t *testing.T) {
	tests := []struct {
		name string
		body any
		want cqrs.FraudCheckQuery
	}{
		{
			name: "numeric amount",
			body: txBody(),
			want: cqrs.FraudCheckQuery{UserID: "usr-001", Amount: 125.5, Type: "withdraw", Timestamp: "2024-05-01T10:00:00Z"},
		},
		{
			name: "numeric string amount",
			body: `{"user_id":"usr-002","amount":" 12.5 ","type":"deposit","timestamp":"t"}`,
			want: cqrs.FraudCheckQuery{UserID: "usr-002", Amount: 12.5, Type: "deposit", Timestamp: "t"},
		},
		{
			name: "empty strings",
			body: `{"user_id":"","amount":-3,"type":"","timestamp":""}`,
			want: cqrs.FraudCheckQuery{Amount: -3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got cqrs.FraudCheckQuery
			router := newAITestRouter(&mockSuggester{}, &mockFraudChecker{checkFn: func(q cqrs.FraudCheckQuery) (*models.FraudAssessment, error) {
				got = q
				return &models.FraudAssessment{}, nil
			}})

			w := aiDoRequest(router, http.MethodPost, "/ai/fraud-check", tt.body)

			require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	router := newAITestRouter(&mockSuggester{suggestFn: func(cqrs.SuggestQuery) (*models.Suggestion, error) {
		panic("unexpected")
	}}, &mockFraudChecker{})

	w := aiDoRequest(router, http.MethodPost, "/ai/suggest", map[string]any{"prompt": "hi"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestRouter_WrongMethod(t *testing.T) {
	router := newAITestRouter(&mockSuggester{}, &mockFraudChecker{})

	w := aiDoRequest(router, http.MethodGet, "/ai/suggest", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
