// Package tutor provides the conversational tutoring service.  Questions are
// answered by the language model with the formula injected as context; when
// the model is unreachable the service falls back to canned answers keyed on
// common question patterns.
package tutor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	domainFormula "github.com/eli5y/eli5y/internal/domain/formula"
	"github.com/eli5y/eli5y/internal/infrastructure/monitoring/logging"
	"github.com/eli5y/eli5y/pkg/errors"
)

const (
	// maxMessages bounds the conversation history accepted per request so a
	// caller cannot inflate model context at will.
	maxMessages = 50

	// maxMessageChars bounds a single message's length.
	maxMessageChars = 4000

	systemPrompt = "You are a patient STEM tutor. Answer questions about the " +
		"formula below in plain language, at most a short paragraph. Never " +
		"invent properties the formula does not have."
)

// Completer produces a chat completion for a system and user prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Message is one turn of the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Input carries one tutoring question together with its conversation history.
type Input struct {
	FormulaID   uuid.UUID `json:"formula_id"`
	Messages    []Message `json:"messages"`
	FocusedTerm string    `json:"focused_term,omitempty"`
}

// Reply is the tutor's answer plus suggested follow-up questions.
type Reply struct {
	Message            string   `json:"message"`
	SuggestedQuestions []string `json:"suggested_questions,omitempty"`
}

// Service defines tutoring operations.
type Service interface {
	Ask(ctx context.Context, in Input) (*Reply, error)
}

type service struct {
	completer Completer
	repo      domainFormula.Repository
	logger    logging.Logger
}

// NewService wires the tutor service.  completer and repo may be nil; the
// service then answers from the canned table without formula context.
func NewService(completer Completer, repo domainFormula.Repository, logger logging.Logger) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &service{
		completer: completer,
		repo:      repo,
		logger:    logger.Named("tutor_service"),
	}
}

// Ask answers the latest user message in the conversation.
func (s *service) Ask(ctx context.Context, in Input) (*Reply, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	question := in.Messages[len(in.Messages)-1].Content

	if s.completer != nil {
		answer, err := s.completer.Complete(ctx, s.buildSystemPrompt(ctx, in), question)
		if err == nil {
			return &Reply{
				Message:            strings.TrimSpace(answer),
				SuggestedQuestions: suggestionsFor(question),
			}, nil
		}
		s.logger.Warn("tutor completion failed, answering from canned table", logging.Err(err))
	}

	answer, suggestions := cannedAnswer(question)
	return &Reply{Message: answer, SuggestedQuestions: suggestions}, nil
}

func validate(in Input) error {
	if len(in.Messages) == 0 {
		return errors.New(errors.ErrCodeValidation, "conversation must contain at least one message")
	}
	if len(in.Messages) > maxMessages {
		return errors.New(errors.ErrCodeValidation,
			fmt.Sprintf("conversation exceeds %d messages", maxMessages))
	}
	for i, m := range in.Messages {
		if strings.TrimSpace(m.Content) == "" {
			return errors.New(errors.ErrCodeValidation,
				fmt.Sprintf("message %d has empty content", i))
		}
		if len(m.Content) > maxMessageChars {
			return errors.New(errors.ErrCodeValidation,
				fmt.Sprintf("message %d exceeds %d characters", i, maxMessageChars))
		}
	}
	if in.Messages[len(in.Messages)-1].Role != "user" {
		return errors.New(errors.ErrCodeValidation, "conversation must end with a user message")
	}
	return nil
}

// buildSystemPrompt injects the stored formula, when available, into the
// tutor persona.  Lookup failures fall back to the bare persona.
func (s *service) buildSystemPrompt(ctx context.Context, in Input) string {
	var b strings.Builder
	b.WriteString(systemPrompt)

	if s.repo != nil && in.FormulaID != uuid.Nil {
		f, err := s.repo.GetByID(ctx, in.FormulaID)
		if err != nil {
			s.logger.Debug("formula context unavailable",
				logging.String("formula_id", in.FormulaID.String()), logging.Err(err))
		} else {
			fmt.Fprintf(&b, "\n\nFormula: %s\nExplanation: %s", f.Latex, f.Narrative)
		}
	}
	if term := strings.TrimSpace(in.FocusedTerm); term != "" {
		fmt.Fprintf(&b, "\n\nThe student is currently focused on the term: %s", term)
	}
	return b.String()
}

// cannedEntry keys a prepared answer on substrings of the question.
type cannedEntry struct {
	keywords    []string
	answer      string
	suggestions []string
}

var cannedTable = []cannedEntry{
	{
		keywords: []string{"complex exponential", "exponential"},
		answer: "The complex exponential e^(-2πi·kn/N) acts like a 'spinning wheel' " +
			"that rotates at frequency k. It helps us detect how much of that " +
			"specific frequency exists in the original signal by correlation.",
		suggestions: []string{
			"Why is the exponent negative?",
			"What does the frequency k represent?",
		},
	},
	{
		keywords: []string{"divide by n", "normalization"},
		answer: "Dividing by N normalizes the result so that the output values " +
			"represent the average contribution of each frequency, rather than " +
			"the total. This makes the transform scale-independent.",
		suggestions: []string{
			"What if I don't normalize?",
			"Does normalization affect the phase?",
		},
	},
	{
		keywords: []string{"k increases"},
		answer: "As k increases, you're looking at higher frequencies in your signal. " +
			"k=0 represents DC (the average), k=1 is the fundamental frequency, " +
			"k=2 is twice that frequency, and so on.",
		suggestions: []string{
			"What's the maximum useful value of k?",
			"How do I interpret negative frequencies?",
		},
	},
}

var defaultCanned = cannedEntry{
	answer: "The Discrete Fourier Transform (DFT) converts a sequence of values " +
		"in the time domain into components in the frequency domain. " +
		"It answers the question: 'What frequencies are present in my signal?'",
	suggestions: []string{
		"How is this used in audio processing?",
		"What's the difference from continuous Fourier transform?",
	},
}

// cannedAnswer matches the question against the canned table, first entry
// with any keyword hit wins.
func cannedAnswer(question string) (string, []string) {
	q := strings.ToLower(question)
	for _, e := range cannedTable {
		for _, kw := range e.keywords {
			if strings.Contains(q, kw) {
				return e.answer, e.suggestions
			}
		}
	}
	return defaultCanned.answer, defaultCanned.suggestions
}

// suggestionsFor reuses the canned table's follow-ups for model answers so
// the client always has prompts to offer.
func suggestionsFor(question string) []string {
	_, suggestions := cannedAnswer(question)
	return suggestions
}
