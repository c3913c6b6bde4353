package lights

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hubertat/xmaskit"
)

const httpTimeout = 3 * time.Second

type boardStatus struct {
	Bitfield byte   `json:"bitfield"`
	Lights   []bool `json:"lights"`
}

type setRequest struct {
	Bitfield *int `json:"bitfield"`
}

type api struct {
	board  *Board
	logger *log.Logger
}

// NewHandler serves the board over HTTP:
//
//	GET  /lights                       board state
//	PUT  /lights                       {"bitfield": n} sets every light
//	POST /lights/:index/enable|disable|toggle
//	GET  /metrics                      prometheus metrics
func NewHandler(board *Board, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	a := &api{board: board, logger: logger}

	router := httprouter.New()
	router.GET("/lights", a.instrument("/lights", a.handleStatus))
	router.PUT("/lights", a.instrument("/lights", a.handleSet))
	router.POST("/lights/:index/:action", a.instrument("/lights/:index/:action", a.handleAction))

	RegisterMetrics()
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())
	return router
}

// NewServer wraps NewHandler with the timeouts used for every xmas HTTP
// listener.
func NewServer(addr string, board *Board, logger *log.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewHandler(board, logger),
		ReadTimeout:       httpTimeout,
		ReadHeaderTimeout: httpTimeout,
		WriteTimeout:      httpTimeout,
		IdleTimeout:       2 * httpTimeout,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

func (a *api) instrument(path string, handle httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handle(rec, r, p)
		recordHTTPRequest(r.Method, path, rec.status, time.Since(start))
	}
}

func (a *api) handleStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	a.writeStatus(w, http.StatusOK)
}

func (a *api) handleSet(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := setRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Bitfield == nil || *req.Bitfield < 0 || *req.Bitfield > 255 {
		http.Error(w, "bitfield must be 0-255", http.StatusBadRequest)
		return
	}

	a.reply(w, a.board.Set(byte(*req.Bitfield)))
}

func (a *api) handleAction(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	index, err := strconv.Atoi(p.ByName("index"))
	if err != nil {
		http.Error(w, "light index must be a number", http.StatusNotFound)
		return
	}

	switch p.ByName("action") {
	case "enable":
		err = a.board.Enable(index)
	case "disable":
		err = a.board.Disable(index)
	case "toggle":
		err = a.board.Toggle(index)
	default:
		http.Error(w, "unknown action", http.StatusNotFound)
		return
	}

	a.reply(w, err)
}

func (a *api) reply(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		a.writeStatus(w, http.StatusOK)
	case errors.Is(err, ErrNoSuchLight):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrTooSoon):
		a.writeStatus(w, http.StatusTooManyRequests)
	case errors.Is(err, xmaskit.ErrNoReader):
		a.logger.Warn("board state kept, daemon not reading", "err", err)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		a.logger.Error("board update failed", "err", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}

func (a *api) writeStatus(w http.ResponseWriter, code int) {
	states := a.board.States()
	status := boardStatus{Bitfield: xmaskit.Bitfield(states), Lights: states[:]}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		a.logger.Warn("failed to write response", "err", err)
	}
}
