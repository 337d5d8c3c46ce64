package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driven"
	"github.com/custodia-labs/opsmind/internal/core/ports/driving"
	"github.com/custodia-labs/opsmind/internal/logger"
)

// Ensure AskService implements the interface.
var _ driving.AskService = (*AskService)(nil)

// recordTimeout bounds the analytics write after an answer completes.
const recordTimeout = 5 * time.Second

// AskService answers questions by streaming generation over retrieved context.
type AskService struct {
	retriever    *Retriever
	llm          driven.LLMService
	prompts      driven.PromptStore
	analytics    driving.AnalyticsService
	budget       int
	historyTurns int
	chatOptions  driven.ChatOptions
}

// NewAskService creates a new answer service.
// The prompts and analytics parameters are optional (can be nil).
func NewAskService(
	retriever *Retriever,
	llm driven.LLMService,
	prompts driven.PromptStore,
	analytics driving.AnalyticsService,
	settings domain.AppSettings,
) *AskService {
	return &AskService{
		retriever:    retriever,
		llm:          llm,
		prompts:      prompts,
		analytics:    analytics,
		budget:       settings.Retrieval.ContextBudget,
		historyTurns: settings.Retrieval.HistoryTurns,
		chatOptions: driven.ChatOptions{
			MaxTokens:   settings.LLM.MaxTokens,
			Temperature: settings.LLM.Temperature,
		},
	}
}

// Ask validates the request, retrieves and assembles context, then streams the
// answer on the returned channel.
func (s *AskService) Ask(ctx context.Context, req domain.AskRequest) (<-chan domain.AnswerEvent, error) {
	caps := req.Capabilities
	if err := caps.Require(domain.PermAsk); err != nil {
		return nil, err
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, domain.ErrMissingQuestion
	}
	if s.llm == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, domain.ErrNotConfigured)
	}

	results, err := s.retriever.Retrieve(ctx, caps, question)
	if err != nil {
		return nil, err
	}

	assembled := AssembleContext(results, s.budget)
	if assembled.IsEmpty() {
		logger.Debug("No visible chunks matched, using no-results context")
	} else {
		logger.Debug("Context: %d chunks, %d citations, truncated=%t",
			len(assembled.Included), len(assembled.Citations), assembled.Truncated)
	}

	messages, err := s.buildMessages(assembled, question, req.History)
	if err != nil {
		return nil, err
	}

	events := make(chan domain.AnswerEvent)
	opened := make(chan error, 1)
	go s.stream(ctx, caps, question, assembled, messages, opened, events)

	// No stream is handed out until the generator has produced output.
	if err := <-opened; err != nil {
		return nil, err
	}
	return events, nil
}

// stream is the only writer of events and closes it on return. It reports on
// opened exactly once: nil when the first increment arrives or generation
// ends cleanly, or the error when generation fails before producing output.
// After a failure on opened nothing is sent on events.
func (s *AskService) stream(
	ctx context.Context,
	caps domain.Capabilities,
	question string,
	assembled domain.AssembledContext,
	messages []driven.ChatMessage,
	opened chan<- error,
	events chan<- domain.AnswerEvent,
) {
	defer close(events)
	logger.Section("Generation")

	started := false
	start := func() {
		if !started {
			started = true
			opened <- nil
		}
	}

	send := func(ev domain.AnswerEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	emit := func(text string) error {
		if text == "" {
			return nil
		}
		if !send(domain.AnswerEvent{Type: domain.EventText, Text: text}) {
			return ctx.Err()
		}
		return nil
	}

	decoder := newCitationDecoder(domain.CitationMarker)
	err := s.llm.ChatStream(ctx, messages, s.chatOptions, func(delta string) error {
		start()
		return emit(decoder.Feed(delta))
	})
	if err != nil && !started {
		if ctx.Err() != nil {
			opened <- ctx.Err()
			return
		}
		logger.Warn("Generation failed before streaming: %v", err)
		if !errors.Is(err, domain.ErrLLMUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
		}
		opened <- err
		return
	}
	start()
	if err == nil {
		err = emit(decoder.Flush())
	}

	if ctx.Err() != nil {
		logger.Debug("Caller went away, generation stopped")
		return
	}
	if err != nil {
		logger.Warn("Answer stream failed: %v", err)
		if !errors.Is(err, domain.ErrLLMUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
		}
		send(domain.AnswerEvent{
			Type: domain.EventFailed,
			Err:  fmt.Errorf("%w: %w", domain.ErrStreamInterrupted, err),
		})
		return
	}

	hasSource := decoder.Found() && !assembled.IsEmpty()
	var citation *domain.CitationMetadata
	if hasSource {
		citation = buildCitation(assembled)
	}
	logger.Debug("Answer complete, hasSource=%t", hasSource)

	s.record(ctx, caps, question, citation)
	send(domain.AnswerEvent{Type: domain.EventDone, Citation: citation, Complete: true})
}

func (s *AskService) record(
	ctx context.Context, caps domain.Capabilities, question string, citation *domain.CitationMetadata,
) {
	if s.analytics == nil {
		return
	}
	entry := domain.QueryLog{
		Question:  question,
		Requester: caps.Principal.DisplayName,
	}
	if entry.Requester == "" {
		entry.Requester = caps.Principal.UserID
	}
	if citation != nil {
		entry.HasSource = true
		entry.Confidence = citation.Confidence
		entry.CitedDocument = citation.SourceName
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	s.analytics.Record(ctx, entry)
}

func (s *AskService) buildMessages(
	assembled domain.AssembledContext, question string, history []domain.ConversationTurn,
) ([]driven.ChatMessage, error) {
	system, err := s.loadPrompt(driven.PromptAnswerSystem)
	if err != nil {
		return nil, err
	}
	user, err := s.loadPrompt(driven.PromptAnswerUser)
	if err != nil {
		return nil, err
	}

	messages := []driven.ChatMessage{{
		Role:    driven.RoleSystem,
		Content: fmt.Sprintf(system, domain.NoResultsContext, domain.RefusalPhrase, domain.CitationMarker),
	}}
	for _, turn := range recentTurns(history, s.historyTurns) {
		messages = append(messages, driven.ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, driven.ChatMessage{
		Role:    driven.RoleUser,
		Content: fmt.Sprintf(user, assembled.Text, question),
	})
	return messages, nil
}

func (s *AskService) loadPrompt(name string) (string, error) {
	if s.prompts != nil {
		if p, err := s.prompts.Load(name); err == nil && p != "" {
			return p, nil
		}
	}
	if p, ok := driven.DefaultPrompts()[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("prompt %q not available", name)
}

// recentTurns keeps the last n well-formed turns in their original order.
func recentTurns(history []domain.ConversationTurn, n int) []domain.ConversationTurn {
	var valid []domain.ConversationTurn
	for _, t := range history {
		role := strings.ToLower(strings.TrimSpace(t.Role))
		if (role != driven.RoleUser && role != driven.RoleAssistant) || strings.TrimSpace(t.Content) == "" {
			continue
		}
		valid = append(valid, domain.ConversationTurn{Role: role, Content: t.Content})
	}
	if n <= 0 {
		return nil
	}
	if len(valid) > n {
		valid = valid[len(valid)-n:]
	}
	return valid
}
