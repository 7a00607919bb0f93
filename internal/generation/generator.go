package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/lockstock/trivia-engine/internal/content"
	"github.com/lockstock/trivia-engine/internal/domain"
	"github.com/lockstock/trivia-engine/internal/metrics"
)

// MinGeneratedTextLen is the stricter minimum applied to generated facts.
// Hand-authored pack content only needs domain.MinFactTextLen.
const MinGeneratedTextLen = 20

// fallbackAttempts bounds the single fallback leg. Fallback runs at most
// once per Generate call to keep total latency bounded.
const fallbackAttempts = 2

// Options configure one Generator.
type Options struct {
	Model         string  // primary model identifier
	FallbackModel string  // low-cost model tried once after the primary exhausts
	Temperature   float32 // sampling temperature
	MaxAttempts   int     // attempts on the primary model, default 3
	UseExamples   bool    // attach the few-shot example pair
}

// GenerationError is returned when every attempt, including the fallback
// leg, failed. It carries the total attempt count and the last cause;
// callers surface it and do not retry further.
type GenerationError struct {
	Attempts int
	Last     error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed after %d attempts: %v", e.Attempts, e.Last)
}

// Unwrap exposes the last underlying cause.
func (e *GenerationError) Unwrap() error { return e.Last }

// Generator produces candidate rounds from a chat-completion model, retrying
// on malformed or invalid output with a bounded state machine:
//
//	Attempt(1..MaxAttempts) on the primary model
//	  -> Success
//	  -> exhausted: one fallback leg of up to 2 attempts on FallbackModel
//	       -> Success | GenerationError
//
// The flow is an explicit loop over legs, never recursion, so the attempt
// count is bounded by construction. Every call, success or failure, is
// recorded in the Stats ring buffer.
type Generator struct {
	Client ChatCompleter
	Opts   Options
	Stats  *StatsCollector
}

// genFact and genRound mirror the JSON contract with the model.
type genFact struct {
	Text      string `json:"text"`
	Domain    string `json:"domain"`
	SourceURL string `json:"source_url,omitempty"`
}

type genRound struct {
	Answer   int     `json:"answer"`
	Question genFact `json:"question"`
	Hint1    genFact `json:"hint1"`
	Hint2    genFact `json:"hint2"`
}

// genBannedPatterns are generation-only rejections on top of the base
// validator: four-digit-year phrasing and explicit "exactly N"/"equals N"
// constructions leak the answer into the text.
var genBannedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d{4}\s+год`),
	regexp.MustCompile(`(?i)ровно\s+\d+`),
	regexp.MustCompile(`(?i)составляет\s+\d+`),
}

// Generate runs the attempt state machine and returns one validated,
// unpersisted round bundle.
func (g *Generator) Generate(ctx context.Context) (*domain.RoundBundle, error) {
	start := time.Now()
	maxAttempts := g.Opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	type leg struct {
		model    string
		attempts int
	}
	legs := []leg{{model: g.Opts.Model, attempts: maxAttempts}}
	if fb := g.Opts.FallbackModel; fb != "" && fb != g.Opts.Model {
		legs = append(legs, leg{model: fb, attempts: fallbackAttempts})
	}

	var lastErr error
	total := 0
	for li, l := range legs {
		if li > 0 {
			log.Info().Str("model", l.model).Msg("generation falling back to secondary model")
		}
		for attempt := 1; attempt <= l.attempts; attempt++ {
			if err := ctx.Err(); err != nil {
				lastErr = err
				break
			}
			total++
			log.Debug().
				Str("model", l.model).
				Int("attempt", attempt).
				Int("max_attempts", l.attempts).
				Msg("generation attempt")

			bundle, outcome, err := g.attempt(ctx, l.model)
			metrics.GenerationAttempt(l.model, outcome)
			if err == nil {
				dur := time.Since(start)
				g.record(Record{Model: l.model, Attempts: total, Success: true, Duration: dur})
				metrics.GenerationFinished("success", dur)
				log.Info().
					Str("model", l.model).
					Int("attempts", total).
					Dur("duration", dur).
					Int("answer", bundle.Number).
					Msg("generation successful")
				return bundle, nil
			}
			lastErr = err
			log.Warn().
				Str("model", l.model).
				Int("attempt", attempt).
				Err(err).
				Msg("generation attempt failed")
		}
	}

	dur := time.Since(start)
	errMsg := "unknown error"
	model := g.Opts.Model
	if lastErr != nil {
		errMsg = lastErr.Error()
	}
	g.record(Record{Model: model, Attempts: total, Success: false, Duration: dur, Err: errMsg})
	metrics.GenerationFinished("failure", dur)
	return nil, &GenerationError{Attempts: total, Last: lastErr}
}

// attempt issues one chat completion and validates the response. The second
// return value is the metrics outcome label.
func (g *Generator) attempt(ctx context.Context, model string) (*domain.RoundBundle, string, error) {
	resp, err := g.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: g.Opts.Temperature,
		Messages:    g.messages(),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, "request_error", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, "request_error", fmt.Errorf("model %s returned no choices", model)
	}

	raw := StripCodeFence(resp.Choices[0].Message.Content)
	var gr genRound
	if err := json.Unmarshal([]byte(raw), &gr); err != nil {
		return nil, "parse_error", fmt.Errorf("model did not return valid JSON: %w", err)
	}

	bundle := gr.toBundle()
	if err := validateGenerated(bundle); err != nil {
		return nil, "invalid_round", err
	}
	return bundle, "success", nil
}

// messages assembles the prompt for one attempt.
func (g *Generator) messages() []openai.ChatCompletionMessage {
	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if g.Opts.UseExamples {
		msgs = append(msgs,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: exampleUser},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: exampleAssistant},
		)
	}
	return append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userInstruction,
	})
}

func (g *Generator) record(r Record) {
	if g.Stats != nil {
		g.Stats.Add(r)
	}
}

// toBundle converts the wire shape into the in-memory aggregate. Fact ids
// are left empty; the content store assigns canonical ids at ingestion.
func (gr *genRound) toBundle() *domain.RoundBundle {
	conv := func(f genFact) domain.Fact {
		fact := domain.Fact{
			Number: gr.Answer,
			Domain: domain.Domain(f.Domain),
			Text:   strings.TrimSpace(f.Text),
		}
		if f.SourceURL != "" {
			u := f.SourceURL
			fact.SourceURL = &u
		}
		return fact
	}
	return &domain.RoundBundle{
		Number:   gr.Answer,
		Question: conv(gr.Question),
		Hint1:    conv(gr.Hint1),
		Hint2:    conv(gr.Hint2),
	}
}

// validateGenerated applies the base validator plus the stricter
// generation-only rules.
func validateGenerated(b *domain.RoundBundle) error {
	if err := content.ValidateBundle(b); err != nil {
		return err
	}
	for i, f := range b.Facts() {
		if utf8.RuneCountInString(f.Text) < MinGeneratedTextLen {
			return fmt.Errorf("generated fact %d too short (%d runes)", i, utf8.RuneCountInString(f.Text))
		}
		for _, re := range genBannedPatterns {
			if re.MatchString(f.Text) {
				return fmt.Errorf("generated fact %d leaks the answer: %q", i, f.Text)
			}
		}
	}
	return nil
}

// StripCodeFence removes a surrounding markdown code fence (``` or ```json)
// from a model response, if present. Responses without a fence pass through
// unchanged.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop an optional language tag, whether it sits on its own fence line
	// or runs straight into the payload.
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{[") {
		s = s[i+1:]
	} else if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = s[4:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
