package stock

import (
	"slices"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/nginx/pricewatch/internal/mode/stock/config"
)

// ZapLogLevelSetter defines an interface for setting the logging level of a zap logger.
type ZapLogLevelSetter interface {
	SetLevel(string) error
	Enabled(zapcore.Level) bool
}

type zapSetterImpl struct {
	atomicLevel zap.AtomicLevel
}

// NewZapLogLevelSetter creates a ZapLogLevelSetter that changes the level of the atomicLevel.
func NewZapLogLevelSetter(atomicLevel zap.AtomicLevel) ZapLogLevelSetter {
	return zapSetterImpl{
		atomicLevel: atomicLevel,
	}
}

// SetLevel sets the logging level for the zap logger.
func (z zapSetterImpl) SetLevel(level string) error {
	if !slices.Contains(config.SupportedLogLevels, level) {
		return field.NotSupported(field.NewPath("log-level"), level, config.SupportedLogLevels)
	}

	parsedLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return field.Invalid(field.NewPath("log-level"), level, err.Error())
	}
	z.atomicLevel.SetLevel(parsedLevel)

	return nil
}

// Enabled returns true if the given level is at or above the current level.
func (z zapSetterImpl) Enabled(level zapcore.Level) bool {
	return z.atomicLevel.Enabled(level)
}
