package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
	Setup()
}

func bindBody(t *testing.T, body string) (model.SubmitAttendanceRequest, map[string]string) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var req model.SubmitAttendanceRequest
	return req, Bind(c, &req)
}

func TestBindSubmitRequest(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"valid", `{"statuses":{"1":"present","2":"late"},"confirm":true}`, ""},
		{"empty class", `{"statuses":{}}`, ""},
		{"missing statuses", `{}`, "statuses"},
		{"unmarked is not storable", `{"statuses":{"1":"unmarked"}}`, "statuses[1]"},
		{"unknown status", `{"statuses":{"1":"excused"}}`, "statuses[1]"},
		{"bad student id", `{"statuses":{"0":"present"}}`, "statuses[0]"},
		{"malformed json", `{"statuses":`, "detail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, fields := bindBody(t, tt.body)
			if tt.wantField == "" {
				if fields != nil {
					t.Fatalf("Bind() fields = %v, want none", fields)
				}
				return
			}
			if _, ok := fields[tt.wantField]; !ok {
				t.Errorf("Bind() fields = %v, want key %q", fields, tt.wantField)
			}
		})
	}
}

func TestStatusMessageIsTranslated(t *testing.T) {
	_, fields := bindBody(t, `{"statuses":{"4":"maybe"}}`)
	if msg := fields["statuses[4]"]; !strings.Contains(msg, "present, absent or late") {
		t.Errorf("message = %q", msg)
	}
}

func TestBindQuery(t *testing.T) {
	tests := []struct {
		query   string
		wantErr bool
	}{
		{"from=2024-01-01&to=2024-01-31&period=weekly", false},
		{"", false},
		{"from=01/02/2024", true},
		{"period=yearly", true},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)

		var q model.RangeQuery
		fields := BindQuery(c, &q)
		if (fields != nil) != tt.wantErr {
			t.Errorf("BindQuery(%q) fields = %v, wantErr %v", tt.query, fields, tt.wantErr)
		}
	}
}
