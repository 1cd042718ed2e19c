package api

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/antonio59/standard-notes-kanban/board"
)

type gestureMetrics struct {
	logger     *log.Logger
	start      time.Time
	gesture    board.Gesture
	outcome    board.Outcome
	errorStage string
}

func newGestureMetrics(logger *log.Logger) *gestureMetrics {
	return &gestureMetrics{
		logger: logger,
		start:  time.Now(),
	}
}

func (m *gestureMetrics) SetGesture(g board.Gesture) {
	m.gesture = g
}

func (m *gestureMetrics) SetOutcome(o board.Outcome) {
	m.outcome = o
}

func (m *gestureMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *gestureMetrics) Log(status int, err error) {
	if m == nil || m.logger == nil {
		return
	}

	fields := log.Fields{
		"route":    boardGesturesPath,
		"status":   status,
		"total_ms": durationToMillis(time.Since(m.start)),
	}
	if m.gesture.Type != "" {
		fields["gesture"] = string(m.gesture.Type)
	}
	if m.gesture.NoteID != "" {
		fields["note_id"] = m.gesture.NoteID
	}
	if m.gesture.ColumnID != "" {
		fields["column_id"] = m.gesture.ColumnID
	}
	if m.outcome != "" {
		fields["outcome"] = string(m.outcome)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	// Hover events are frequent; only drops are worth an info line.
	entry := m.logger.WithFields(fields)
	if m.gesture.Type == board.GestureDrop || m.errorStage != "" {
		entry.Info("board.gesture.metrics")
		return
	}
	entry.Debug("board.gesture.metrics")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
