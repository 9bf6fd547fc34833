package dashboard

import (
	"encoding/json"
	"log"
	"time"

	"daytrack/internal/streak"
	"daytrack/internal/sync"
)

// Handler formats engine events as dashboard messages. It bridges
// between the reconciliation daemon and the WebSocket server.
type Handler struct {
	server *Server
	logger *log.Logger
}

// NewHandler creates an event handler connected to a dashboard server
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{server: server, logger: logger}
}

// OnCycleComplete broadcasts a finished reconciliation cycle.
func (h *Handler) OnCycleComplete(res *sync.CycleResult) {
	if res == nil {
		return
	}

	data := CycleData{
		Pushed:   res.Pushed,
		Pulled:   res.Pulled,
		Pruned:   res.Pruned,
		Errors:   len(res.Errors),
		Offline:  res.Offline,
		Duration: res.Duration,
	}

	h.send(MessageTypeCycleComplete, data)
}

// OnStreakUpdate broadcasts recomputed streak counters for a habit.
func (h *Handler) OnStreakUpdate(habit, date string, s streak.Streaks) {
	data := StreakData{
		Habit:    habit,
		Date:     date,
		Achiever: s.Achiever,
		Fighter:  s.Fighter,
	}

	h.send(MessageTypeStreakUpdate, data)
}

// OnStats broadcasts local store statistics.
func (h *Handler) OnStats(stats StatsData) {
	h.send(MessageTypeStats, stats)
}

func (h *Handler) send(typ MessageType, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal %s data: %v", typ, err)
		return
	}

	h.server.Broadcast(Message{
		Type:      typ,
		Timestamp: time.Now(),
		Data:      payload,
	})
}
