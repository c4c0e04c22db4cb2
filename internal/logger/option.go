package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// floorCore drops entries below floor on top of the wrapped core's own level.
type floorCore struct {
	zapcore.Core

	// floor is the lowest level this core lets through.
	floor zapcore.Level
}

// Enabled reports whether both the floor and the wrapped core accept l.
func (c *floorCore) Enabled(l zapcore.Level) bool {
	return c.floor.Enabled(l) && c.Core.Enabled(l)
}

// Check adds the core to the entry when its level passes.
//
//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *floorCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}

	return ce
}

// With keeps the floor on derived cores.
//
//nolint:ireturn,nolintlint // Returning zapcore.Core is intended for zap integration.
func (c *floorCore) With(fields []zapcore.Field) zapcore.Core {
	return &floorCore{
		Core:  c.Core.With(fields),
		floor: c.floor,
	}
}

// WithMinimumLevel raises the lowest level a logger writes to floor, whatever
// the global atomic level allows. Command line tools use it so routine info
// logs do not repeat what they print for the user.
//
//nolint:ireturn,nolintlint // Returning zap.Option is intended for zap integration.
func WithMinimumLevel(floor zapcore.Level) zap.Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &floorCore{
			Core:  core,
			floor: floor,
		}
	})
}
