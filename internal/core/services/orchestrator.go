package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
)

// OrchestratorConfig bounds one pipeline run.
type OrchestratorConfig struct {
	// MaxHops is the hop ceiling guarding against next-agent cycles.
	MaxHops int
	// MaxRetries bounds automatic repetition of a transiently failing hop.
	MaxRetries int
	// RetryBaseDelay is doubled on each successive retry of the same hop.
	RetryBaseDelay time.Duration
}

func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MaxHops:        32,
		MaxRetries:     3,
		RetryBaseDelay: 250 * time.Millisecond,
	}
}

// HopRecord is one completed hop in a run's log.
type HopRecord struct {
	Agent  domain.AgentName `json:"agent"`
	Action string           `json:"action"`
	Output domain.Output    `json:"output_data"`
}

// RunResult is what a pipeline run leaves behind: the ordered hop log and
// the final memory snapshot. Every failure path still returns the partial
// log, so callers can see the last hop that completed.
type RunResult struct {
	RunID      string           `json:"run_id"`
	UserID     domain.UserID    `json:"user_id"`
	Hops       []HopRecord      `json:"hops"`
	Memory     map[string]any   `json:"memory"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Error      string           `json:"error,omitempty"`
	LastAgent  domain.AgentName `json:"last_agent,omitempty"`
}

// Orchestrator drives one pipeline run as an explicit loop over a single
// pending envelope. Hops within a run are strictly sequential: hop n's
// memory writes are merged before hop n+1 is dispatched.
type Orchestrator struct {
	cfg      OrchestratorConfig
	logger   *slog.Logger
	registry *Registry
	memory   *SharedMemoryStore
	bus      *EventBus
}

func NewOrchestrator(cfg OrchestratorConfig, logger *slog.Logger, registry *Registry, memory *SharedMemoryStore, bus *EventBus) *Orchestrator {
	if cfg.MaxHops <= 0 {
		cfg.MaxHops = 32
	}
	return &Orchestrator{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		memory:   memory,
		bus:      bus,
	}
}

// Run executes the pipeline starting from the initial envelope's NextAgent
// and loops until a stage returns an empty NextAgent, the hop ceiling is
// hit, the context is cancelled, or a hop fails permanently. Memory writes
// merged by completed hops are never rolled back; a failed run means
// "stopped partway", not "nothing happened".
func (o *Orchestrator) Run(ctx context.Context, userID domain.UserID, initial domain.Envelope) (*RunResult, error) {
	return o.RunWithID(ctx, uuid.New().String(), userID, initial)
}

// RunWithID is Run with a caller-assigned run ID, so callers can subscribe
// to the run's events before it starts.
func (o *Orchestrator) RunWithID(ctx context.Context, runID string, userID domain.UserID, initial domain.Envelope) (*RunResult, error) {
	result := &RunResult{
		RunID:     runID,
		UserID:    userID,
		Hops:      []HopRecord{},
		StartedAt: time.Now().UTC(),
	}
	log := o.logger.With("run_id", result.RunID, "user_id", userID)
	log.Info("run started", "first_agent", initial.NextAgent)

	payload := initial.Pass.Extra
	env := initial
	hops := 0

	for env.NextAgent != "" {
		if err := ctx.Err(); err != nil {
			return o.finish(result, log, fmt.Errorf("run cancelled: %w", err))
		}
		hops++
		if hops > o.cfg.MaxHops {
			return o.finish(result, log, fmt.Errorf("%w: %d hops", domain.ErrPipelineOverrun, o.cfg.MaxHops))
		}

		stage, err := o.registry.Resolve(env.NextAgent)
		if err != nil {
			return o.finish(result, log, err)
		}

		cc := ports.CapabilityContext{
			UserID:  userID,
			Action:  env.Action,
			Payload: payload,
			Pass:    env.Pass,
			Memory:  o.memory.Snapshot(ctx, userID),
		}

		next, err := o.invoke(ctx, stage, cc, log)
		if err != nil {
			return o.finish(result, log, fmt.Errorf("hop %d (%s): %w", hops, env.NextAgent, err))
		}

		if err := o.memory.Merge(ctx, userID, next.SaveToMemory); err != nil {
			return o.finish(result, log, fmt.Errorf("hop %d (%s): %w", hops, env.NextAgent, err))
		}

		result.Hops = append(result.Hops, HopRecord{
			Agent:  next.Agent,
			Action: next.Action,
			Output: next.Output,
		})
		result.LastAgent = next.Agent
		o.publishHop(result.RunID, next)
		log.Debug("hop completed", "hop", hops, "agent", next.Agent, "action", next.Action, "next", next.NextAgent)

		env = next
	}

	return o.finish(result, log, nil)
}

// invoke runs one hop, retrying transient failures with exponential backoff.
// Permanent failures and exhausted retries surface to the run loop.
func (o *Orchestrator) invoke(ctx context.Context, stage ports.Capability, cc ports.CapabilityContext, log *slog.Logger) (domain.Envelope, error) {
	delay := o.cfg.RetryBaseDelay
	var lastErr error

	for attempt := 0; attempt <= o.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Warn("retrying hop", "agent", stage.Name(), "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return domain.Envelope{}, ctx.Err()
			}
			delay *= 2
		}

		env, err := stage.Process(ctx, cc)
		if err == nil {
			return env, nil
		}
		if !domain.IsTransient(err) {
			return domain.Envelope{}, err
		}
		lastErr = err
	}
	return domain.Envelope{}, fmt.Errorf("retries exhausted after %d attempts: %w", o.cfg.MaxRetries+1, lastErr)
}

func (o *Orchestrator) finish(result *RunResult, log *slog.Logger, err error) (*RunResult, error) {
	result.FinishedAt = time.Now().UTC()
	result.Memory = o.memory.Snapshot(context.Background(), result.UserID)

	if err != nil {
		result.Error = err.Error()
		log.Error("run failed", "hops", len(result.Hops), "last_agent", result.LastAgent, "error", err)
		o.bus.Publish(Event{RunID: result.RunID, Type: EventTypeError, Agent: string(result.LastAgent), Data: err.Error()})
		return result, err
	}

	log.Info("run completed", "hops", len(result.Hops), "duration", result.FinishedAt.Sub(result.StartedAt))
	o.bus.Publish(Event{RunID: result.RunID, Type: EventTypeStatus, Data: "completed"})
	return result, nil
}

func (o *Orchestrator) publishHop(runID string, env domain.Envelope) {
	data, err := json.Marshal(map[string]any{
		"action": env.Action,
		"next":   env.NextAgent,
	})
	if err != nil {
		data = []byte(`{}`)
	}
	o.bus.Publish(Event{
		RunID: runID,
		Type:  EventTypeHop,
		Agent: string(env.Agent),
		Data:  string(data),
	})
}
