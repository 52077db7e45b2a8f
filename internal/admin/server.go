// Package admin exposes the mission over HTTP for instructors and tooling.
package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"launchops-sim/internal/fault"
	"launchops-sim/internal/mission"
	"launchops-sim/internal/schedule"
)

//go:embed templates/index.html
var content embed.FS

// Server serves mission state and admin controls. Every controller call is
// funnelled through the executor so it runs on the mission loop.
type Server struct {
	ctrl   *mission.Controller
	exec   schedule.Executor
	tpl    *template.Template
	mux    *http.ServeMux
	logger *slog.Logger
}

// NewServer wires the routes for ctrl.
func NewServer(ctrl *mission.Controller, exec schedule.Executor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		ctrl:   ctrl,
		exec:   exec,
		tpl:    template.Must(template.New("index.html").ParseFS(content, "templates/index.html")),
		mux:    http.NewServeMux(),
		logger: logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /state", s.handleState)
	s.mux.HandleFunc("GET /logs", s.handleLogs)
	s.mux.HandleFunc("GET /logs/export", s.handleExportLogs)
	s.mux.HandleFunc("GET /debrief", s.handleDebrief)

	s.mux.HandleFunc("POST /admin/lock", s.handleLock)
	s.mux.HandleFunc("POST /admin/unlock", s.handleUnlock)
	s.mux.HandleFunc("POST /admin/force-diagnostics", s.handleForceDiagnostics)
	s.mux.HandleFunc("POST /admin/reset", s.handleReset)
	s.mux.HandleFunc("POST /admin/fault", s.handleInjectFault)
	s.mux.HandleFunc("DELETE /admin/fault/{subsystem}", s.handleClearFault)
	s.mux.HandleFunc("POST /admin/toggle-fault", s.handleToggleFault)
	s.mux.HandleFunc("POST /admin/delay", s.handleDelay)

	s.mux.HandleFunc("POST /operator/{action}", s.handleOperator)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.mux }

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("admin server listening", "addr", addr)
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeOptional decodes a JSON body; an empty body leaves v untouched.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// snapshot runs fn on the loop and returns the resulting run.
func (s *Server) snapshot(fn func()) mission.Run {
	var run mission.Run
	s.exec.Do(func() {
		if fn != nil {
			fn()
		}
		run = s.ctrl.Snapshot()
	})
	return run
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var data struct {
		Run    mission.Run
		Phase  string
		Export string
	}
	s.exec.Do(func() {
		data.Run = s.ctrl.Snapshot()
		data.Export = s.ctrl.ExportLogs()
	})
	data.Phase = data.Run.Phase.String()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		s.logger.Error("render index", "err", err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot(nil))
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	var events any
	s.exec.Do(func() { events = s.ctrl.Events() })
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleExportLogs(w http.ResponseWriter, r *http.Request) {
	var out string
	s.exec.Do(func() { out = s.ctrl.ExportLogs() })
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="mission-log.txt"`)
	_, _ = w.Write([]byte(out))
}

func (s *Server) handleDebrief(w http.ResponseWriter, r *http.Request) {
	var (
		b   []byte
		err error
	)
	s.exec.Do(func() { b, err = s.ctrl.ExportDebrief() })
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	mode := mission.LockMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = mission.LockSoft
	}
	if mode != mission.LockSoft && mode != mission.LockHard {
		writeError(w, http.StatusBadRequest, "mode must be soft or hard")
		return
	}
	writeJSON(w, http.StatusOK, s.snapshot(func() { s.ctrl.Lock(mode) }))
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot(s.ctrl.Unlock))
}

func (s *Server) handleForceDiagnostics(w http.ResponseWriter, r *http.Request) {
	var overrides map[string]fault.Result
	if err := decodeOptional(r, &overrides); err != nil {
		writeError(w, http.StatusBadRequest, "invalid overrides: "+err.Error())
		return
	}
	for id, res := range overrides {
		if !fault.Known(id) {
			writeError(w, http.StatusBadRequest, "unknown subsystem "+id)
			return
		}
		if !res.Valid() || res == fault.Pending {
			writeError(w, http.StatusBadRequest, "invalid result for "+id)
			return
		}
	}
	writeJSON(w, http.StatusAccepted, s.snapshot(func() { s.ctrl.ForceDiagnostics(overrides) }))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot(func() { s.ctrl.Reset(true) }))
}

type faultRequest struct {
	Subsystem string     `json:"subsystem"`
	Spec      fault.Spec `json:"spec"`
}

func (s *Server) handleInjectFault(w http.ResponseWriter, r *http.Request) {
	var req faultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid fault: "+err.Error())
		return
	}
	if !fault.Known(req.Subsystem) {
		writeError(w, http.StatusBadRequest, "unknown subsystem "+req.Subsystem)
		return
	}
	if err := req.Spec.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.snapshot(func() { s.ctrl.InjectFault(req.Subsystem, req.Spec) }))
}

func (s *Server) handleClearFault(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("subsystem")
	writeJSON(w, http.StatusOK, s.snapshot(func() { s.ctrl.ClearFault(id) }))
}

func (s *Server) handleToggleFault(w http.ResponseWriter, r *http.Request) {
	run := s.snapshot(s.ctrl.ToggleLegacyFault)
	writeJSON(w, http.StatusOK, map[string]any{"inject_fault": run.InjectFault})
}

func (s *Server) handleDelay(w http.ResponseWriter, r *http.Request) {
	m, err := strconv.ParseFloat(r.URL.Query().Get("multiplier"), 64)
	if err != nil || m <= 0 {
		writeError(w, http.StatusBadRequest, "multiplier must be a positive number")
		return
	}
	writeJSON(w, http.StatusOK, s.snapshot(func() { s.ctrl.SetDelayMultiplier(m) }))
}

type operatorRequest struct {
	Slot int    `json:"slot"`
	Code string `json:"code"`
	Lat  string `json:"lat"`
	Lon  string `json:"lon"`
	Item string `json:"item"`
}

func (s *Server) handleOperator(w http.ResponseWriter, r *http.Request) {
	var req operatorRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	var fn func()
	switch r.PathValue("action") {
	case "start":
		fn = s.ctrl.Start
	case "diagnostics":
		fn = s.ctrl.RunDiagnostics
	case "proceed":
		fn = s.ctrl.ProceedToAuthentication
	case "verify":
		fn = func() { s.ctrl.VerifyCode(req.Slot, req.Code) }
	case "command":
		fn = func() { s.ctrl.SubmitCommand(req.Lat, req.Lon) }
	case "key":
		fn = func() { s.ctrl.TurnKey(req.Slot) }
	case "launch":
		fn = s.ctrl.Launch
	case "abort":
		fn = s.ctrl.Abort
	case "checklist":
		fn = func() { s.ctrl.ToggleChecklist(req.Item) }
	default:
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}
	writeJSON(w, http.StatusOK, s.snapshot(fn))
}
