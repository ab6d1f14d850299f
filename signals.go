package spool

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for spool events.
var (
	SignalProcessorCreated = capitan.NewSignal("spool.processor.created", "Processor instantiated")
	SignalRegistryBuilt    = capitan.NewSignal("spool.registry.built", "Type registry constructed")
	SignalEncodeStart      = capitan.NewSignal("spool.encode.start", "Encode operation beginning")
	SignalEncodeComplete   = capitan.NewSignal("spool.encode.complete", "Encode operation finished")
	SignalDecodeStart      = capitan.NewSignal("spool.decode.start", "Decode operation beginning")
	SignalDecodeComplete   = capitan.NewSignal("spool.decode.complete", "Decode operation finished")
	SignalCloneStart       = capitan.NewSignal("spool.clone.start", "Clone operation beginning")
	SignalCloneComplete    = capitan.NewSignal("spool.clone.complete", "Clone operation finished")
)

// Keys for typed event data.
var (
	KeyContentType = capitan.NewStringKey("content_type")
	KeyTypeName    = capitan.NewStringKey("type_name")
	KeySize        = capitan.NewIntKey("size")
	KeyObjects     = capitan.NewIntKey("objects")
	KeyTypes       = capitan.NewIntKey("types")
	KeyDuration    = capitan.NewDurationKey("duration")
	KeyError       = capitan.NewErrorKey("error")
)

// emitProcessorCreated emits an event when a processor is created.
func emitProcessorCreated(ctx context.Context, typeName string) {
	capitan.Emit(ctx, SignalProcessorCreated,
		KeyContentType.Field(ContentType),
		KeyTypeName.Field(typeName),
	)
}

// emitRegistryBuilt emits an event when a registry is constructed.
func emitRegistryBuilt(ctx context.Context, types int) {
	capitan.Emit(ctx, SignalRegistryBuilt,
		KeyTypes.Field(types),
	)
}

// emitEncodeStart emits an event when encode begins.
func emitEncodeStart(ctx context.Context, typeName string) {
	capitan.Emit(ctx, SignalEncodeStart,
		KeyContentType.Field(ContentType),
		KeyTypeName.Field(typeName),
	)
}

// emitEncodeComplete emits an event when encode finishes.
func emitEncodeComplete(ctx context.Context, typeName string, size, objects int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyContentType.Field(ContentType),
		KeyTypeName.Field(typeName),
		KeySize.Field(size),
		KeyObjects.Field(objects),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalEncodeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalEncodeComplete, fields...)
	}
}

// emitDecodeStart emits an event when decode begins.
func emitDecodeStart(ctx context.Context, typeName string, size int) {
	capitan.Emit(ctx, SignalDecodeStart,
		KeyContentType.Field(ContentType),
		KeyTypeName.Field(typeName),
		KeySize.Field(size),
	)
}

// emitDecodeComplete emits an event when decode finishes.
func emitDecodeComplete(ctx context.Context, typeName string, objects int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyContentType.Field(ContentType),
		KeyTypeName.Field(typeName),
		KeyObjects.Field(objects),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalDecodeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalDecodeComplete, fields...)
	}
}

// emitCloneStart emits an event when clone begins.
func emitCloneStart(ctx context.Context, typeName string) {
	capitan.Emit(ctx, SignalCloneStart,
		KeyTypeName.Field(typeName),
	)
}

// emitCloneComplete emits an event when clone finishes.
func emitCloneComplete(ctx context.Context, typeName string, objects int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyObjects.Field(objects),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalCloneComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalCloneComplete, fields...)
	}
}
