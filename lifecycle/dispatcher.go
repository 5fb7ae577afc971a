// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/duovoice/duovoice/discord"
	"github.com/duovoice/duovoice/gateway"
	"github.com/duovoice/duovoice/lib/clock"
)

const tracerName = "github.com/duovoice/duovoice/lifecycle"

// Report is everything one event's handler did.
type Report struct {
	Event      Event
	Allocation AllocationResult
	Reclaim    ReclaimResult
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	Allocator *Allocator
	Reclaimer *Reclaimer
	// State is the guild cache the dispatcher keeps current and reads
	// previous rooms from.
	State *discord.State
	// Clock stamps events. If nil, the real clock is used.
	Clock clock.Clock
	// Tracer records a span per event. If nil, the global provider's
	// tracer is used.
	Tracer trace.Tracer
	// Observer, if set, receives each event's Report from the
	// handler goroutine.
	Observer func(Report)
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Dispatcher routes gateway dispatches to the guild cache and to the
// Allocator and Reclaimer.
type Dispatcher struct {
	allocator *Allocator
	reclaimer *Reclaimer
	state     *discord.State
	clock     clock.Clock
	tracer    trace.Tracer
	observer  func(Report)
	logger    *slog.Logger

	inflight sync.WaitGroup
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(config DispatcherConfig) (*Dispatcher, error) {
	if config.Allocator == nil || config.Reclaimer == nil {
		return nil, fmt.Errorf("lifecycle: dispatcher requires an Allocator and a Reclaimer")
	}
	if config.State == nil {
		return nil, fmt.Errorf("lifecycle: dispatcher requires a State")
	}
	dispatcher := &Dispatcher{
		allocator: config.Allocator,
		reclaimer: config.Reclaimer,
		state:     config.State,
		clock:     config.Clock,
		tracer:    config.Tracer,
		observer:  config.Observer,
		logger:    config.Logger,
	}
	if dispatcher.clock == nil {
		dispatcher.clock = clock.Real()
	}
	if dispatcher.tracer == nil {
		dispatcher.tracer = otel.Tracer(tracerName)
	}
	if dispatcher.logger == nil {
		dispatcher.logger = slog.Default()
	}
	return dispatcher, nil
}

// HandleDispatch applies one gateway dispatch. It must be called in
// delivery order; it returns once the cache is updated and any
// allocation is reserved, leaving directory calls to a handler
// goroutine.
func (d *Dispatcher) HandleDispatch(ctx context.Context, dispatch gateway.Dispatch) {
	switch dispatch.Type {
	case "GUILD_CREATE":
		var guild discord.GuildCreate
		if !d.decode(dispatch, &guild) {
			return
		}
		d.state.ApplyGuildCreate(guild)
		d.logger.Info("guild available",
			"guild_id", guild.ID.String(),
			"channels", len(guild.Channels),
			"voice_states", len(guild.VoiceStates),
		)

	case "CHANNEL_CREATE", "CHANNEL_UPDATE":
		var channel discord.Channel
		if d.decode(dispatch, &channel) {
			d.state.ApplyChannel(channel)
		}

	case "CHANNEL_DELETE":
		var channel discord.Channel
		if d.decode(dispatch, &channel) {
			d.state.RemoveChannel(channel.ID)
		}

	case "VOICE_STATE_UPDATE":
		var update discord.VoiceState
		if !d.decode(dispatch, &update) {
			return
		}
		if event, changed := d.normalize(update); changed {
			d.Handle(ctx, event)
		}
	}
}

func (d *Dispatcher) decode(dispatch gateway.Dispatch, target any) bool {
	if err := json.Unmarshal(dispatch.Data, target); err != nil {
		d.logger.Warn("dropping malformed dispatch",
			"type", dispatch.Type,
			"sequence", dispatch.Sequence,
			"error", err,
		)
		return false
	}
	return true
}

// normalize records the update in the cache and builds the Event. The
// previous room is whatever the cache held before this update. Updates
// that do not change the user's channel (mute, deafen, stream) report
// changed=false.
func (d *Dispatcher) normalize(update discord.VoiceState) (event Event, changed bool) {
	previous := d.state.ApplyVoiceState(update)
	if previous == update.ChannelID {
		return Event{}, false
	}
	event = Event{
		ID:         uuid.NewString(),
		GuildID:    update.GuildID,
		UserID:     update.UserID,
		ReceivedAt: d.clock.Now(),
	}
	if !previous.IsZero() {
		event.Previous = &RoomRef{ID: previous, Name: d.state.ChannelName(previous)}
	}
	if !update.ChannelID.IsZero() {
		event.Current = &RoomRef{ID: update.ChannelID, Name: d.state.ChannelName(update.ChannelID)}
	}
	return event, true
}

// Handle processes one normalized event: the allocation is reserved
// before Handle returns, everything else runs on a new goroutine.
// Commands already issued run to completion even if ctx is cancelled.
func (d *Dispatcher) Handle(ctx context.Context, event Event) {
	reservation, reserved := d.allocator.Reserve(event)
	d.logger.Debug("handling voice transition", "event", event, "reserved", reservation.Name)

	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		d.run(context.WithoutCancel(ctx), event, reservation, reserved)
	}()
}

// Wait blocks until every handler started so far has finished.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

func (d *Dispatcher) run(ctx context.Context, event Event, reservation Reservation, reserved bool) {
	ctx, span := d.tracer.Start(ctx, "lifecycle.handle", trace.WithAttributes(
		attribute.String("duovoice.event_id", event.ID),
		attribute.String("duovoice.user_id", event.UserID.String()),
	))
	defer span.End()

	report := Report{Event: event}
	if reserved {
		allocateCtx, allocateSpan := d.tracer.Start(ctx, "lifecycle.allocate", trace.WithAttributes(
			attribute.String("duovoice.room_name", reservation.Name),
		))
		report.Allocation = d.allocator.Complete(allocateCtx, reservation)
		endSpan(allocateSpan, report.Allocation.Outcome.String(), report.Allocation.Err)
	}

	reclaimCtx, reclaimSpan := d.tracer.Start(ctx, "lifecycle.reclaim")
	report.Reclaim = d.reclaimer.Reclaim(reclaimCtx, event)
	endSpan(reclaimSpan, report.Reclaim.Outcome.String(), report.Reclaim.Err)

	if d.observer != nil {
		d.observer(report)
	}
}

func endSpan(span trace.Span, outcome string, err error) {
	span.SetAttributes(attribute.String("duovoice.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
