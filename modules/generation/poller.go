package generation

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"fashion-ai-server/modules/common/model"
)

// Poll interval for in-flight tasks
const watchInterval = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Watcher - the client polling loop as a cancellable scheduled task: a
// fixed-period ticker that re-reads the task status and pushes it over
// a WebSocket, cancelled on terminal status, client disconnect or
// server teardown.
type Watcher struct {
	service  *Service
	interval time.Duration
}

func NewWatcher(service *Service) *Watcher {
	return &Watcher{service: service, interval: watchInterval}
}

// Serve - upgrade and stream status frames until a terminal state
func (w *Watcher) Serve(rw http.ResponseWriter, r *http.Request, generationID string) {
	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		log.Printf("❌ [Watch] Upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader goroutine: a close frame or read error cancels the loop.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Printf("👀 [Watch] Streaming status for %s", generationID)
	w.run(ctx, conn, generationID)
}

func (w *Watcher) run(ctx context.Context, conn *websocket.Conn, generationID string) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if done := w.push(ctx, conn, generationID); done {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// push - send one status frame; reports true when the loop should stop
func (w *Watcher) push(ctx context.Context, conn *websocket.Conn, generationID string) bool {
	data, err := w.service.GetStatus(ctx, generationID)
	if err != nil {
		conn.WriteJSON(StatusResponse{Success: false, Error: "查询失败"})
		return true
	}

	if err := conn.WriteJSON(StatusResponse{Success: true, Data: data}); err != nil {
		return true
	}

	if model.IsTerminal(data.Status) {
		log.Printf("✅ [Watch] %s reached terminal status: %s", generationID, data.Status)
		return true
	}

	return false
}
