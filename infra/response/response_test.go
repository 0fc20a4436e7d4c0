package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSuccessResponse(t *testing.T) {
	w := httptest.NewRecorder()

	Success(w, http.StatusOK, "payment created", map[string]string{"orderId": "ORD1"})

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	contentType := w.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", contentType)
	}

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("Expected success=true")
	}
	if resp.Message != "payment created" {
		t.Errorf("Expected message 'payment created', got '%s'", resp.Message)
	}
	data, ok := resp.Data.(map[string]any)
	if !ok || data["orderId"] != "ORD1" {
		t.Errorf("Expected data.orderId 'ORD1', got %v", resp.Data)
	}
}

func TestErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusBadRequest, "validation failed", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Success {
		t.Error("Expected success=false")
	}
	if resp.Error != "" {
		t.Errorf("Expected empty error field for nil error, got '%s'", resp.Error)
	}
}

func TestErrorResponseWithErr(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusUnprocessableEntity, "currency rejected", errUnsupported)

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Error != errUnsupported.Error() {
		t.Errorf("Expected error '%s', got '%s'", errUnsupported.Error(), resp.Error)
	}
}

var errUnsupported = &testError{msg: "unsupported currency: XXX"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

func BenchmarkSuccessResponse(b *testing.B) {
	data := map[string]string{"orderId": "ORD1"}

	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		Success(w, http.StatusOK, "ok", data)
	}
}
