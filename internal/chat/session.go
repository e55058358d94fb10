// Package chat keeps a support conversation transcript and logs each
// completed exchange to the trace store.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/supportlens/internal/models"
)

const (
	Greeting = "Hi! I'm the BillPro support assistant. How can I help you today?"
	Apology  = "Sorry, I'm having trouble responding right now. Please try again."
)

const recordTimeout = 10 * time.Second

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrBusy         = errors.New("a reply is still pending")
)

// Backend is the part of the trace store client a session needs.
type Backend interface {
	SendChat(ctx context.Context, message string) (*models.ChatResponse, error)
	RecordTrace(ctx context.Context, in models.TraceCreate) (*models.Trace, error)
}

// Session is one conversation. Send failures never surface as errors: the
// transcript gets an apology instead. Trace recording runs in the background
// and its failures are only logged.
type Session struct {
	backend Backend
	logger  *zap.Logger

	mu       sync.Mutex
	messages []models.Message
	sending  bool

	recording sync.WaitGroup
}

func NewSession(backend Backend, logger *zap.Logger) *Session {
	return &Session{
		backend:  backend,
		logger:   logger,
		messages: []models.Message{{Role: models.RoleBot, Content: Greeting}},
	}
}

// Send appends text to the transcript, asks for a reply and returns the bot
// message that was appended. Only ErrEmptyMessage and ErrBusy are returned.
func (s *Session) Send(ctx context.Context, text string) (models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return models.Message{}, ErrBusy
	}
	s.sending = true
	s.messages = append(s.messages, models.Message{Role: models.RoleUser, Content: text})
	s.mu.Unlock()

	reply := models.Message{Role: models.RoleBot}
	resp, err := s.backend.SendChat(ctx, text)
	if err != nil {
		s.logger.Warn("Chat request failed", zap.Error(err))
		reply.Content = Apology
	} else {
		reply.Content = resp.Response
		s.record(models.TraceCreate{
			UserMessage:    text,
			BotResponse:    resp.Response,
			ResponseTimeMS: resp.ResponseTimeMS,
		})
	}

	s.mu.Lock()
	s.messages = append(s.messages, reply)
	s.sending = false
	s.mu.Unlock()
	return reply, nil
}

func (s *Session) record(in models.TraceCreate) {
	s.recording.Add(1)
	go func() {
		defer s.recording.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		trace, err := s.backend.RecordTrace(ctx, in)
		if err != nil {
			s.logger.Warn("Failed to record trace", zap.Error(err))
			return
		}
		s.logger.Debug("Recorded trace",
			zap.String("trace_id", trace.ID),
			zap.String("category", string(trace.Category)))
	}()
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.messages...)
}

// Wait blocks until background trace recording has finished.
func (s *Session) Wait() {
	s.recording.Wait()
}
