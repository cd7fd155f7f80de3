package main

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"sync"

	lacc "github.com/Rakshith2605/ABAP-VScode-assistant"
	"github.com/Rakshith2605/ABAP-VScode-assistant/generate"
)

// maxRequestBytes bounds one request line. Documents travel inline.
const maxRequestBytes = 16 << 20

// Dispatcher runs one editor operation.
type Dispatcher interface {
	Dispatch(ctx context.Context, op lacc.Op, sess *generate.Session) error
}

// Server listens on a Unix domain socket for operation requests.
type Server struct {
	listener net.Listener
	sockPath string
	tracker  *Tracker

	mu     sync.Mutex
	engine Dispatcher
}

// NewServer creates a new IPC server bound to the given socket path.
func NewServer(sockPath string) (*Server, error) {
	return NewServerWithDispatcher(sockPath, newEngine())
}

// NewServerWithDispatcher creates a new IPC server with a custom Dispatcher.
func NewServerWithDispatcher(sockPath string, d Dispatcher) (*Server, error) {
	// Remove stale socket file if it exists
	if err := os.Remove(sockPath); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		return nil, err
	}

	return &Server{
		listener: listener,
		sockPath: sockPath,
		tracker:  NewTracker(opTTL),
		engine:   d,
	}, nil
}

func newEngine() *generate.Engine {
	cfg, err := lacc.LoadConfig()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = lacc.DefaultConfig()
	}
	for _, w := range lacc.ValidateConfig(cfg) {
		slog.Warn("config", "warning", w)
	}
	return generate.NewEngine(cfg)
}

// Serve accepts connections and handles requests.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(conn)
	}
}

// Close shuts down the server, the op tracker, and removes the socket file.
func (s *Server) Close() {
	s.listener.Close()
	s.tracker.Close()
	os.Remove(s.sockPath)
}

func (s *Server) dispatcher() Dispatcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRequestBytes)
	if !scanner.Scan() {
		return
	}

	raw := scanner.Bytes()
	slog.Debug("request", "bytes", len(raw))

	// Status and cancel requests carry a "type" field
	var stReq lacc.StatusRequest
	if err := json.Unmarshal(raw, &stReq); err == nil && stReq.Type != "" {
		s.handleStatusRequest(conn, &stReq)
		return
	}

	// Config requests carry an "action" field
	var cfgReq lacc.ConfigRequest
	if err := json.Unmarshal(raw, &cfgReq); err == nil && cfgReq.Action != "" {
		s.handleConfigRequest(conn, &cfgReq)
		return
	}

	var req lacc.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		slog.Warn("invalid request", "error", err)
		writeJSON(conn, &lacc.Response{
			Edits: []lacc.Edit{},
			Error: &lacc.Error{Code: "invalid_request", Message: err.Error()},
		})
		return
	}

	resp := s.run(&req)
	writeJSON(conn, resp)
}

// run executes one operation and builds its response.
func (s *Server) run(req *lacc.Request) *lacc.Response {
	opID := req.OpID
	if opID == "" {
		opID = NewOpID()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	seq := s.tracker.Begin(opID, req.Op, cancel)

	surface := newResponseSurface(req.Secret, func(msg string) {
		s.tracker.Progress(opID, seq, msg)
	})
	sess := &generate.Session{
		Surface:   surface,
		Document:  req.Document,
		Selection: req.Selection,
	}
	if len(req.Settings) > 0 {
		sess.Settings = lacc.MapSettings(req.Settings)
	}

	slog.Debug("running operation", "op", req.Op, "op_id", opID)
	err := s.dispatcher().Dispatch(ctx, req.Op, sess)

	resp := surface.response()
	resp.RequestID = req.RequestID
	resp.OpID = opID
	resp.Error = lacc.WireError(err)
	s.tracker.Finish(opID, seq, resp.Error)

	if err != nil {
		slog.Debug("operation failed", "op", req.Op, "op_id", opID, "code", resp.Error.Code)
	}
	return resp
}

func (s *Server) handleStatusRequest(conn net.Conn, req *lacc.StatusRequest) {
	var resp lacc.StatusResponse

	switch req.Type {
	case "status":
		st, ok := s.tracker.Status(req.OpID)
		if !ok {
			resp = lacc.StatusResponse{
				OpID:  req.OpID,
				Error: &lacc.Error{Code: "unknown_op_id", Message: "no operation with id " + req.OpID},
			}
		} else {
			resp = st
		}

	case "cancel":
		if !s.tracker.Cancel(req.OpID) {
			resp.Error = &lacc.Error{Code: "not_running", Message: "operation " + req.OpID + " is not running"}
		}
		if st, ok := s.tracker.Status(req.OpID); ok {
			st.Error = resp.Error
			resp = st
		}
		resp.OpID = req.OpID

	default:
		resp.Error = &lacc.Error{Code: "unknown_type", Message: "unknown request type: " + req.Type}
	}

	writeJSON(conn, &resp)
}

func (s *Server) handleConfigRequest(conn net.Conn, req *lacc.ConfigRequest) {
	var resp lacc.ConfigResponse

	switch req.Action {
	case "get":
		cfg, err := lacc.LoadConfig()
		if err != nil {
			resp.Error = &lacc.Error{
				Code:    "config_error",
				Message: err.Error(),
			}
		} else {
			resp.Config = redactConfig(cfg)
		}

	case "reload":
		s.reloadEngine()
		cfg, _ := lacc.LoadConfig()
		resp.Config = redactConfig(cfg)

	case "defaults":
		resp.Config = lacc.DefaultConfig()

	case "validate":
		cfg, err := lacc.LoadConfig()
		if err != nil {
			resp.Error = &lacc.Error{
				Code:    "config_error",
				Message: err.Error(),
			}
		} else {
			resp.Warnings = lacc.ValidateConfig(cfg)
		}

	default:
		resp.Error = &lacc.Error{
			Code:    "unknown_action",
			Message: "unknown config action: " + req.Action,
		}
	}

	writeJSON(conn, &resp)
}

// redactConfig masks the stored API key before it leaves the daemon.
func redactConfig(cfg *lacc.Config) *lacc.Config {
	if cfg == nil {
		return nil
	}
	c := *cfg
	c.Credential.APIKey = lacc.MaskSecret(c.Credential.APIKey)
	return &c
}

func (s *Server) reloadEngine() {
	engine := newEngine()
	s.mu.Lock()
	s.engine = engine
	s.mu.Unlock()
	slog.Info("engine reloaded")
}

func writeJSON(conn net.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal response", "error", err)
		return
	}

	slog.Debug("response", "bytes", len(data))

	conn.Write(append(data, '\n'))
}
