package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/websocket"

	"benchmix/internal/bench"
	"benchmix/internal/config"
	"benchmix/internal/events"
	"benchmix/internal/logger"
	"benchmix/internal/metrics"
)

// Server はAPIサーバー
type Server struct {
	addr     string
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	bus      *events.Bus

	mu        sync.RWMutex
	running   bool
	current   bench.Config
	last      *bench.Result
	lastErr   string
	wsClients map[*websocket.Conn]bool
	runs      sync.WaitGroup

	server *http.Server
}

// NewServer は新しいAPIサーバーを作成する
func NewServer(addr string) *Server {
	registry := prometheus.NewRegistry()
	return &Server{
		addr:      addr,
		registry:  registry,
		metrics:   metrics.New(registry),
		bus:       events.NewBus(),
		wsClients: make(map[*websocket.Conn]bool),
	}
}

// Handler はAPIのルーティングを返す
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/presets", s.handlePresets)
	mux.HandleFunc("/api/plan", s.handlePlan)
	mux.HandleFunc("/api/run", s.handleRun)
	mux.HandleFunc("/api/result", s.handleResult)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	// WebSocket
	mux.Handle("/ws", websocket.Handler(s.handleWebSocket))

	return mux
}

// Start はサーバーを開始する
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// バックグラウンドでイベント配信
	go s.forwardEvents(ctx)

	logger.Info("", "API Server starting on http://%s", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Wait は実行中のベンチマークの完了を待つ
func (s *Server) Wait() {
	s.runs.Wait()
}

// StatusResponse はステータスレスポンス
type StatusResponse struct {
	Running   bool   `json:"running"`
	Name      string `json:"name,omitempty"`
	Mode      string `json:"mode,omitempty"`
	Endpoints int    `json:"endpoints,omitempty"`
	LastError string `json:"last_error,omitempty"`
	HasResult bool   `json:"has_result"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, s.status())
}

func (s *Server) status() StatusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := StatusResponse{
		Running:   s.running,
		LastError: s.lastErr,
		HasResult: s.last != nil,
	}
	if s.current.Name != "" {
		resp.Name = s.current.Name
		resp.Mode = s.current.Mode
		resp.Endpoints = s.current.EndpointCount
	}
	return resp
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, bench.Presets())
}

// decodeConfig はリクエストボディを検証してbench.Configに変換する
func decodeConfig(r *http.Request) (bench.Config, error) {
	// 空のボディはデフォルト設定として扱う
	var req config.BenchConfig
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return bench.Config{}, err
	}

	fc := &config.FileConfig{Bench: req}
	if err := fc.Validate(); err != nil {
		return bench.Config{}, err
	}
	return fc.ToBenchConfig()
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cfg, err := decodeConfig(r)
	if err != nil {
		http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	plan, err := bench.New(cfg).Plan()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.writeJSON(w, plan)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cfg, err := decodeConfig(r)
	if err != nil {
		http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		http.Error(w, "Benchmark already running", http.StatusConflict)
		return
	}
	s.current = cfg
	s.running = true
	s.lastErr = ""
	s.mu.Unlock()

	engine := bench.New(cfg)
	engine.SetEventBus(s.bus)
	engine.SetMetrics(s.metrics)

	// バックグラウンドで実行
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()

		result, err := engine.Run(context.Background())

		s.mu.Lock()
		s.running = false
		if err != nil {
			s.lastErr = err.Error()
		} else {
			s.last = result
		}
		s.mu.Unlock()

		if err != nil {
			logger.Error("", "Benchmark failed: %v", err)
			s.broadcast(map[string]any{"type": "run_failed", "error": err.Error()})
			return
		}
		logger.Info("", "Benchmark completed: %d workloads", result.TotalInstances)
		s.broadcast(map[string]any{"type": "run_complete", "result": result})
	}()

	s.writeJSONStatus(w, http.StatusAccepted, map[string]string{"status": "started", "name": cfg.Name})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	if last == nil {
		http.Error(w, "No result yet", http.StatusNotFound)
		return
	}
	s.writeJSON(w, last)
}

// WebSocket handling
func (s *Server) handleWebSocket(ws *websocket.Conn) {
	s.mu.Lock()
	s.wsClients[ws] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.wsClients, ws)
		s.mu.Unlock()
		_ = ws.Close()
	}()

	// Keep connection alive
	for {
		var msg string
		if err := websocket.Message.Receive(ws, &msg); err != nil {
			break
		}
	}
}

func (s *Server) broadcast(data any) {
	s.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(s.wsClients))
	for ws := range s.wsClients {
		clients = append(clients, ws)
	}
	s.mu.RUnlock()

	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}

	for _, ws := range clients {
		_ = websocket.Message.Send(ws, string(jsonData))
	}
}

// forwardEvents は割り当てイベントを全てのWebSocketクライアントに配信する
func (s *Server) forwardEvents(ctx context.Context) {
	ch := s.bus.Subscribe()
	defer s.bus.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			s.broadcast(map[string]any{"type": "event", "event": e})
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	s.writeJSONStatus(w, http.StatusOK, data)
}

func (s *Server) writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("", "Failed to encode JSON: %v", err)
	}
}
