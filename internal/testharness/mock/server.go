package mock

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Endpoint names served by the fuzzing server.
const (
	EndpointCaseCount     = "getCaseCount"
	EndpointCaseInfo      = "getCaseInfo"
	EndpointRunCase       = "runCase"
	EndpointCaseStatus    = "getCaseStatus"
	EndpointUpdateReports = "updateReports"
)

// Request records one connection attempt seen by the server.
type Request struct {
	// Endpoint is the path without the leading slash.
	Endpoint string

	// Case is the case query parameter, 0 when absent.
	Case int

	// Agent is the agent query parameter.
	Agent string

	// Refused is set when the server rejected the handshake.
	Refused bool
}

// ServerHandlers holds callbacks for server events.
type ServerHandlers struct {
	// OnRequest is called for every incoming request before it is served.
	OnRequest func(req Request)

	// OnEcho is called for every message echoed back during a case run.
	OnEcho func(caseNum int, msg Message)
}

type refusal struct {
	endpoint string
	caseNum  int
}

// Server is an in-process fuzzing server speaking the test-suite protocol
// over gorilla/websocket. Cases are numbered from 1 in the order given.
type Server struct {
	// Cases are the served test cases.
	Cases []*Case

	// CaseCountBody replaces the getCaseCount payload when non-empty.
	CaseCountBody string

	// Handlers are callbacks for server events.
	Handlers ServerHandlers

	requests []Request
	echoes   map[int][]Message
	refused  map[refusal]bool
	reports  int

	upgrader websocket.Upgrader
	srv      *httptest.Server
	mu       sync.RWMutex
}

// NewServer creates a mock server for the given cases.
func NewServer(cases ...*Case) *Server {
	return &Server{
		Cases:   cases,
		echoes:  make(map[int][]Message),
		refused: make(map[refusal]bool),
	}
}

// Start starts serving plain ws:// connections.
func (s *Server) Start() {
	s.srv = httptest.NewServer(s)
}

// StartTLS starts serving wss:// connections with a self-signed certificate.
func (s *Server) StartTLS() {
	s.srv = httptest.NewTLSServer(s)
}

// Close shuts the server down.
func (s *Server) Close() {
	if s.srv != nil {
		s.srv.Close()
	}
}

// Addr returns the host and port the server listens on.
func (s *Server) Addr() (string, int, error) {
	if s.srv == nil {
		return "", 0, ErrNotStarted
	}
	host, portStr, err := net.SplitHostPort(s.srv.Listener.Addr().String())
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}

// Refuse makes the server reject the handshake on endpoint for the given
// case. Case 0 refuses every request to the endpoint.
func (s *Server) Refuse(endpoint string, caseNum int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refused[refusal{endpoint, caseNum}] = true
}

// Requests returns a copy of the requests seen so far.
func (s *Server) Requests() []Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RanCases returns the case numbers for which runCase was served, in order.
func (s *Server) RanCases() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []int
	for _, r := range s.requests {
		if r.Endpoint == EndpointRunCase && !r.Refused {
			out = append(out, r.Case)
		}
	}
	return out
}

// Echoes returns the messages the client echoed for a case.
func (s *Server) Echoes(caseNum int) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.echoes[caseNum]))
	copy(out, s.echoes[caseNum])
	return out
}

// ReportUpdates returns how many times updateReports was served.
func (s *Server) ReportUpdates() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reports
}

// ServeHTTP dispatches an incoming handshake to the endpoint handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := Request{
		Endpoint: strings.TrimPrefix(r.URL.Path, "/"),
		Agent:    r.URL.Query().Get("agent"),
	}
	req.Case, _ = strconv.Atoi(r.URL.Query().Get("case"))

	s.mu.Lock()
	req.Refused = s.refused[refusal{req.Endpoint, 0}] || s.refused[refusal{req.Endpoint, req.Case}]
	s.requests = append(s.requests, req)
	onRequest := s.Handlers.OnRequest
	s.mu.Unlock()

	if onRequest != nil {
		onRequest(req)
	}
	if req.Refused {
		http.Error(w, "refused", http.StatusServiceUnavailable)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	switch req.Endpoint {
	case EndpointCaseCount:
		body := s.CaseCountBody
		if body == "" {
			body = strconv.Itoa(len(s.Cases))
		}
		_ = ws.WriteMessage(websocket.TextMessage, []byte(body))
		closeNormally(ws, websocket.CloseNormalClosure, "")

	case EndpointCaseInfo:
		c, err := s.lookup(req.Case)
		if err != nil {
			closeNormally(ws, websocket.ClosePolicyViolation, err.Error())
			return
		}
		body := c.RawInfo
		if body == "" {
			body = mustJSON(map[string]string{"id": c.ID, "description": c.Description})
		}
		_ = ws.WriteMessage(websocket.TextMessage, []byte(body))
		closeNormally(ws, websocket.CloseNormalClosure, "")

	case EndpointRunCase:
		c, err := s.lookup(req.Case)
		if err != nil {
			closeNormally(ws, websocket.ClosePolicyViolation, err.Error())
			return
		}
		s.runCase(ws, req.Case, c)

	case EndpointCaseStatus:
		c, err := s.lookup(req.Case)
		if err != nil {
			closeNormally(ws, websocket.ClosePolicyViolation, err.Error())
			return
		}
		body := c.RawStatus
		if body == "" {
			body = mustJSON(map[string]string{"behavior": c.Behavior})
		}
		_ = ws.WriteMessage(websocket.TextMessage, []byte(body))
		closeNormally(ws, websocket.CloseNormalClosure, "")

	case EndpointUpdateReports:
		s.mu.Lock()
		s.reports++
		s.mu.Unlock()
		closeNormally(ws, websocket.CloseNormalClosure, "")

	default:
		closeNormally(ws, websocket.ClosePolicyViolation, "unknown endpoint")
	}
}

func (s *Server) lookup(caseNum int) (*Case, error) {
	if caseNum < 1 || caseNum > len(s.Cases) {
		return nil, ErrUnknownCase
	}
	return s.Cases[caseNum-1], nil
}

func (s *Server) runCase(ws *websocket.Conn, caseNum int, c *Case) {
	for _, p := range c.Pings {
		if err := ws.WriteControl(websocket.PingMessage, p, time.Now().Add(time.Second)); err != nil {
			return
		}
	}
	for _, m := range c.Messages {
		mt := websocket.TextMessage
		if m.Binary {
			mt = websocket.BinaryMessage
		}
		if err := ws.WriteMessage(mt, m.Data); err != nil {
			return
		}
		rt, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		echo := Message{Data: data, Binary: rt == websocket.BinaryMessage}

		s.mu.Lock()
		s.echoes[caseNum] = append(s.echoes[caseNum], echo)
		onEcho := s.Handlers.OnEcho
		s.mu.Unlock()
		if onEcho != nil {
			onEcho(caseNum, echo)
		}
	}

	switch {
	case c.Hold:
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	case c.Abnormal:
		_ = ws.UnderlyingConn().Close()
	default:
		code := c.CloseCode
		if code == 0 {
			code = websocket.CloseNormalClosure
		}
		closeNormally(ws, code, c.CloseReason)
	}
}

// closeNormally sends a close frame and waits for the client's reply.
func closeNormally(ws *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	if err := ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		return
	}
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
