package migration

import (
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

type gooseAdapter struct {
	logger zerolog.Logger
}

// NewGooseAdapter routes goose output through the structured logger.
func NewGooseAdapter(logger zerolog.Logger) goose.Logger {
	return &gooseAdapter{
		logger: logger.With().Str("component", "goose").Logger(),
	}
}

func (a *gooseAdapter) Fatalf(format string, v ...interface{}) {
	a.logger.Fatal().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (a *gooseAdapter) Printf(format string, v ...interface{}) {
	a.logger.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
