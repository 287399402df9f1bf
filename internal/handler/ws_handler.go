package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/marking"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/middleware"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/response"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/service"
	ws "github.com/Smalik1203/Classbridge-V1-sub001/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// opTimeout bounds a single load or commit issued from the stream.
const opTimeout = 15 * time.Second

// WSHandler runs an interactive marking session per WebSocket connection.
type WSHandler struct {
	attendance *service.AttendanceService
	log        zerolog.Logger
	upgrader   websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attendance *service.AttendanceService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attendance: attendance,
		log:        log.With().Str("component", "ws_handler").Logger(),
		upgrader:   buildUpgrader(allowedOrigins),
	}
}

// streamConn is the state of one connected operator.
type streamConn struct {
	h    *WSHandler
	conn *ws.Conn
	sess *marking.Session
	op   model.Operator
	log  zerolog.Logger

	ctx        context.Context
	timerMu    sync.Mutex
	savedTimer *time.Timer
}

// AttendanceStream godoc
// WS /ws/v1/admin/attendance/stream?token=
// Each connection owns one marking session. Every change answers with a state
// event; submit and confirm answer with confirm or saved events.
func (h *WSHandler) AttendanceStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	op := claims.Operator()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sc := &streamConn{
		h:    h,
		conn: conn,
		sess: h.attendance.NewSession(op),
		op:   op,
		log:  h.log.With().Int("operator_id", op.ID).Logger(),
		ctx:  ctx,
	}
	defer sc.stopSavedTimer()

	sc.log.Info().Msg("Operator connected")
	canWrite := claims.Can(model.PermissionAttendanceWrite)

	for {
		var msg ws.RequestPayload
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				sc.log.Warn().Err(err).Msg("Unexpected close")
			} else {
				sc.log.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			_ = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		case ws.ActionLoad:
			sc.handleLoad(msg)
		case ws.ActionToggle, ws.ActionSet, ws.ActionMarkAll, ws.ActionReset, ws.ActionSubmit, ws.ActionConfirm:
			if !canWrite {
				sc.writeErr(response.ErrPermissionDenied, nil)
				continue
			}
			sc.handleEdit(msg)
		case ws.ActionCancel:
			sc.sess.Cancel()
			sc.writeState()
		default:
			sc.log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			_ = conn.WriteError(string(response.ErrInvalidPayload), "unknown action: "+string(msg.Action))
		}
	}
}

func (sc *streamConn) handleLoad(msg ws.RequestPayload) {
	date, err := model.ParseDay(msg.Date)
	if err != nil || msg.ClassID <= 0 {
		sc.writeErr(response.ErrInvalidPayload, err)
		return
	}
	sc.stopSavedTimer()

	ctx, cancel := context.WithTimeout(sc.ctx, opTimeout)
	defer cancel()
	if err := sc.h.attendance.Open(ctx, sc.op, sc.sess, msg.ClassID, date); err != nil {
		if errors.Is(err, marking.ErrSuperseded) {
			return
		}
		_, code := classify(err)
		sc.writeErr(code, err)
		sc.writeState()
		return
	}
	sc.writeState()
}

func (sc *streamConn) handleEdit(msg ws.RequestPayload) {
	var err error
	switch msg.Action {
	case ws.ActionToggle:
		_, err = sc.sess.Toggle(msg.StudentID)
	case ws.ActionSet:
		err = sc.sess.Set(msg.StudentID, msg.Status)
	case ws.ActionMarkAll:
		err = sc.sess.MarkAll(msg.Status)
	case ws.ActionReset:
		err = sc.sess.Reset()
	case ws.ActionSubmit:
		var conf marking.Confirmation
		if conf, err = sc.sess.Submit(); err == nil {
			_ = sc.conn.WriteTyped(ws.ConfirmResponse{Event: ws.EventConfirm, Confirmation: conf})
			return
		}
	case ws.ActionConfirm:
		sc.handleConfirm()
		return
	}

	if err != nil {
		_, code := classify(err)
		sc.writeErr(code, err)
		return
	}
	sc.writeState()
}

func (sc *streamConn) handleConfirm() {
	ctx, cancel := context.WithTimeout(sc.ctx, opTimeout)
	defer cancel()

	conf, err := sc.h.attendance.Confirm(ctx, sc.op, sc.sess)
	if err != nil {
		_, code := classify(err)
		sc.writeErr(code, err)
		sc.writeState()
		return
	}
	if conf.Stage != marking.StageCommitted {
		_ = sc.conn.WriteTyped(ws.ConfirmResponse{Event: ws.EventConfirm, Confirmation: conf})
		return
	}

	_ = sc.conn.WriteTyped(ws.SavedResponse{Event: ws.EventSaved, Confirmation: conf, State: sc.sess.Snapshot()})
	sc.scheduleSavedExpiry()
}

// scheduleSavedExpiry pushes a fresh state once the saved indicator lapses so
// the client can drop it without polling.
func (sc *streamConn) scheduleSavedExpiry() {
	sc.timerMu.Lock()
	defer sc.timerMu.Unlock()
	if sc.savedTimer != nil {
		sc.savedTimer.Stop()
	}
	sc.savedTimer = time.AfterFunc(marking.SavedIndicatorTTL+50*time.Millisecond, func() {
		if sc.ctx.Err() != nil {
			return
		}
		sc.writeState()
	})
}

func (sc *streamConn) stopSavedTimer() {
	sc.timerMu.Lock()
	defer sc.timerMu.Unlock()
	if sc.savedTimer != nil {
		sc.savedTimer.Stop()
		sc.savedTimer = nil
	}
}

func (sc *streamConn) writeState() {
	if err := sc.conn.WriteTyped(ws.StateResponse{Event: ws.EventState, State: sc.sess.Snapshot()}); err != nil {
		sc.log.Debug().Err(err).Msg("State write failed")
	}
}

func (sc *streamConn) writeErr(code response.ErrCode, err error) {
	resp := ws.ErrorResponse{Event: ws.EventError, Code: string(code), Error: response.GetMessage(code)}
	if err != nil && code != response.ErrInternal {
		resp.Details = err.Error()
	}
	_ = sc.conn.WriteTyped(resp)
}
