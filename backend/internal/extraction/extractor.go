package extraction

import (
	"context"
	"strings"

	"go.uber.org/zap"
	kerrors "kindred/backend/pkg/errors"
	"kindred/backend/pkg/logger"
)

// systemPrompt frames every request to the language-model collaborator.
const systemPrompt = `You are a helpful AI assistant managing a chat platform. Your tasks include:
1. Extracting user characteristics from conversations
2. Helping users find other users based on characteristics
3. Facilitating communication between users
4. Maintaining conversation context

When extracting characteristics, focus on:
- Interests and hobbies
- Professional background
- Personal traits
- Skills and expertise`

const fallbackReply = "I apologize, but I'm having trouble processing your message."

// Generator produces free text from a system prompt and user message.
// Satisfied by adapter.LLMAdapter.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userMsg string) (string, error)
}

// Extractor turns free text into normalized characteristic mappings via the
// language-model collaborator. It never surfaces collaborator failures:
// "no characteristics extracted" is a valid outcome, not an error.
type Extractor struct {
	llm    Generator
	logger *zap.Logger
}

// NewExtractor creates a new extractor
func NewExtractor(llm Generator) *Extractor {
	return &Extractor{
		llm:    llm,
		logger: logger.Get(),
	}
}

// ProcessMessage sends a conversational message to the LLM and returns the
// assistant's reply together with any characteristics parsed from it. On
// failure the reply degrades to a fixed apology and the mapping is empty.
func (e *Extractor) ProcessMessage(ctx context.Context, message string) (string, map[string]string) {
	reply, err := e.llm.Generate(ctx, systemPrompt,
		"Process this message and extract any relevant user characteristics: "+message)
	if err != nil {
		e.logger.Warn("Extraction collaborator failed, continuing without characteristics",
			zap.Error(kerrors.NewExtractionUnavailable(err)))
		return fallbackReply, map[string]string{}
	}
	return reply, ParseCharacteristics(reply)
}

// ExtractCharacteristics returns the characteristics inferred from a
// conversational message, discarding the assistant reply.
func (e *Extractor) ExtractCharacteristics(ctx context.Context, message string) map[string]string {
	_, characteristics := e.ProcessMessage(ctx, message)
	return characteristics
}

// QueryToCharacteristics converts a search-intent string into the same
// normalized mapping shape. Failures degrade to an empty mapping.
func (e *Extractor) QueryToCharacteristics(ctx context.Context, query string) map[string]string {
	response, err := e.llm.Generate(ctx, systemPrompt,
		"Convert this user search query into characteristics: "+query)
	if err != nil {
		e.logger.Warn("Search query extraction failed",
			zap.Error(kerrors.NewExtractionUnavailable(err)))
		return map[string]string{}
	}
	return ParseCharacteristics(response)
}

// ParseCharacteristics parses LLM output line by line under the assumption
// that each meaningful line has the shape "key: value". The split is on the
// first colon only, so values may themselves contain colons. Keys are
// trimmed and lower-cased, values trimmed; lines with no colon or with an
// empty side are skipped.
func ParseCharacteristics(text string) map[string]string {
	characteristics := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		characteristics[key] = value
	}
	return characteristics
}
