package handler

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/config"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/marking"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/middleware"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/repository"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/service"
	ws "github.com/Smalik1203/Classbridge-V1-sub001/internal/websocket"
)

type streamEvent struct {
	Event        ws.Event             `json:"event"`
	Code         string               `json:"code"`
	State        marking.View         `json:"state"`
	Confirmation marking.Confirmation `json:"confirmation"`
}

func dialStream(t *testing.T, perms []model.Permission) (*websocket.Conn, *repository.MemoryAttendanceStore) {
	t.Helper()
	store := repository.NewMemoryAttendanceStore()
	roster := repository.NewMemoryRoster()
	roster.AddClass(model.ClassInstance{ID: 7, Grade: 7, Section: "B", SchoolCode: "S1"},
		model.Student{ID: 1, Name: "Ade"},
		model.Student{ID: 2, Name: "Bola"},
	)
	svc := service.NewAttendanceService(store, roster, roster, roster, nil, service.AttendanceOptions{}, zerolog.Nop())
	auth := service.NewAuthService(&config.Config{JWTSecret: "ws-test", JWTExpiry: time.Hour}, nil)

	r := gin.New()
	r.GET("/stream", middleware.RequireOperatorJWT(auth), NewWSHandler(svc, zerolog.Nop(), nil).AttendanceStream)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	token, err := auth.IssueToken(model.Operator{ID: 40, Role: "teacher", SchoolCode: "S1"}, perms)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, store
}

func exchange(t *testing.T, conn *websocket.Conn, msg ws.RequestPayload) streamEvent {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON(%s) error = %v", msg.Action, err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev streamEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON after %s error = %v", msg.Action, err)
	}
	return ev
}

func TestAttendanceStreamMarksAndSaves(t *testing.T) {
	conn, store := dialStream(t, model.AllPermissions)

	if ev := exchange(t, conn, ws.RequestPayload{Action: ws.ActionPing}); ev.Event != ws.EventPong {
		t.Fatalf("ping answered with %s", ev.Event)
	}

	ev := exchange(t, conn, ws.RequestPayload{Action: ws.ActionLoad, ClassID: 7, Date: "2024-01-10"})
	if ev.Event != ws.EventState || !ev.State.Loaded || len(ev.State.Entries) != 2 {
		t.Fatalf("load = %+v", ev)
	}

	ev = exchange(t, conn, ws.RequestPayload{Action: ws.ActionSubmit})
	if ev.Event != ws.EventError || ev.Code != "ATTENDANCE_INCOMPLETE" {
		t.Errorf("early submit = %+v", ev)
	}

	ev = exchange(t, conn, ws.RequestPayload{Action: ws.ActionMarkAll, Status: model.StatusPresent})
	if ev.Event != ws.EventState || !ev.State.CanSubmit {
		t.Fatalf("mark_all = %+v", ev.State)
	}
	ev = exchange(t, conn, ws.RequestPayload{Action: ws.ActionToggle, StudentID: 2})
	if ev.State.Counts.Absent != 1 {
		t.Errorf("toggle counts = %+v", ev.State.Counts)
	}

	ev = exchange(t, conn, ws.RequestPayload{Action: ws.ActionSubmit})
	if ev.Event != ws.EventConfirm || ev.Confirmation.Stage != marking.StageSummary {
		t.Fatalf("submit = %+v", ev)
	}
	ev = exchange(t, conn, ws.RequestPayload{Action: ws.ActionConfirm})
	if ev.Event != ws.EventSaved || ev.Confirmation.Stage != marking.StageCommitted {
		t.Fatalf("confirm = %+v", ev)
	}
	if !ev.State.Saved {
		t.Error("saved indicator not set after commit")
	}
	if store.Len() != 2 {
		t.Errorf("stored = %d, want 2", store.Len())
	}
}

func TestAttendanceStreamReadOnly(t *testing.T) {
	conn, store := dialStream(t, []model.Permission{model.PermissionAttendanceRead})

	if ev := exchange(t, conn, ws.RequestPayload{Action: ws.ActionLoad, ClassID: 7, Date: "2024-01-10"}); ev.Event != ws.EventState {
		t.Fatalf("load = %+v", ev)
	}
	ev := exchange(t, conn, ws.RequestPayload{Action: ws.ActionMarkAll, Status: model.StatusPresent})
	if ev.Event != ws.EventError || ev.Code != "PERMISSION_DENIED" {
		t.Errorf("mark_all = %+v", ev)
	}
	ev = exchange(t, conn, ws.RequestPayload{Action: "dance"})
	if ev.Event != ws.EventError || ev.Code != "INVALID_PAYLOAD" {
		t.Errorf("unknown action = %+v", ev)
	}
	if store.Len() != 0 {
		t.Errorf("stored = %d", store.Len())
	}
}
