// Package planner turns a stored profile into the week's plan content,
// caching results per (user, week start) so a week is generated at most
// once unless explicitly regenerated.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"mealweek/internal/llm"
	"mealweek/internal/profile"
)

// ErrProfileMissing is returned when a plan is requested before any
// intake was completed.
var ErrProfileMissing = errors.New("no meal profile found: complete the intake first")

// GenerationError wraps a failed or unusable generation call. No cache
// entry is written; any pre-existing entry for the week is untouched,
// so retrying is safe.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return fmt.Sprintf("plan generation failed: %v", e.Err) }
func (e *GenerationError) Unwrap() error { return e.Err }

// StoreWriteError reports that persisting a freshly generated plan
// failed. The content is still usable; callers should surface it and
// treat the error as a soft warning, not corruption.
type StoreWriteError struct {
	Content string
	Err     error
}

func (e *StoreWriteError) Error() string { return fmt.Sprintf("failed to cache plan: %v", e.Err) }
func (e *StoreWriteError) Unwrap() error { return e.Err }

// ProfileStore is the slice of the persistent store the planner reads
// profiles from.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (*profile.Profile, error)
}

// PlanStore is the slice of the persistent store plans are cached in.
type PlanStore interface {
	GetForWeek(ctx context.Context, userID string, weekStart time.Time) (*PlanEntry, error)
	Upsert(ctx context.Context, userID string, weekStart time.Time, content string) error
}

// Recorder receives operational metadata about generation calls.
type Recorder interface {
	RecordGeneration(model string, usage llm.TokenUsage, latency time.Duration) error
}

// Planner handles cached generation of weekly meal plans.
type Planner struct {
	profiles ProfileStore
	plans    PlanStore
	textGen  llm.TextGenerator
	metrics  Recorder
}

// NewPlanner creates a new Planner instance. metrics may be nil.
func NewPlanner(profiles ProfileStore, plans PlanStore, textGen llm.TextGenerator, metrics Recorder) *Planner {
	return &Planner{
		profiles: profiles,
		plans:    plans,
		textGen:  textGen,
		metrics:  metrics,
	}
}

// GetOrGenerate returns the plan for the week containing now. A cached
// entry short-circuits without touching the generation provider; on a
// miss the plan is generated from the user's profile and cached.
func (p *Planner) GetOrGenerate(ctx context.Context, userID string, now time.Time) (string, error) {
	weekStart := StartOfWeek(now)

	entry, err := p.plans.GetForWeek(ctx, userID, weekStart)
	if err != nil {
		return "", fmt.Errorf("failed to check plan cache: %w", err)
	}
	if entry != nil {
		return entry.Content, nil
	}

	return p.generateForWeek(ctx, userID, weekStart)
}

// Regenerate always calls the generation provider and overwrites the
// current week's cached entry, regardless of cache state.
func (p *Planner) Regenerate(ctx context.Context, userID string, now time.Time) (string, error) {
	return p.generateForWeek(ctx, userID, StartOfWeek(now))
}

func (p *Planner) generateForWeek(ctx context.Context, userID string, weekStart time.Time) (string, error) {
	prof, err := p.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load profile: %w", err)
	}
	if prof == nil {
		return "", ErrProfileMissing
	}

	prompt := BuildPrompt(prof)

	start := time.Now()
	resp, err := p.textGen.GenerateContent(ctx, prompt)
	latency := time.Since(start)
	if err != nil {
		return "", &GenerationError{Err: err}
	}

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", &GenerationError{Err: errors.New("provider returned empty content")}
	}

	if p.metrics != nil {
		if err := p.metrics.RecordGeneration(resp.Usage.Model, resp.Usage, latency); err != nil {
			log.Printf("Warning: failed to record generation metrics: %v", err)
		}
	}

	if err := p.plans.Upsert(ctx, userID, weekStart, content); err != nil {
		// The content is not lost even if caching failed.
		return content, &StoreWriteError{Content: content, Err: err}
	}

	return content, nil
}
