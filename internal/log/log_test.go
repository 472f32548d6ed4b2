package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerLevels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		emit     func()
		contains string
		empty    bool
	}{
		{
			name:     "error shown at default level",
			level:    "",
			emit:     func() { Errorf("boom %d", 1) },
			contains: " E boom 1",
		},
		{
			name:  "debug hidden at default level",
			level: "",
			emit:  func() { Debugf("quiet") },
			empty: true,
		},
		{
			name:     "debug shown at debug level",
			level:    "debug",
			emit:     func() { Debugf("loud") },
			contains: " D loud",
		},
		{
			name:  "trace hidden at debug level",
			level: "debug",
			emit:  func() { Tracef("deep") },
			empty: true,
		},
		{
			name:     "trace shown at trace level",
			level:    "TRACE",
			emit:     func() { Tracef("deep %s", "dive") },
			contains: " T deep dive",
		},
		{
			name:     "fields rendered sorted",
			level:    "info",
			emit:     func() { WithField("region", "us-east-1").Info("fetched") },
			contains: " I fetched region=us-east-1",
		},
		{
			name:     "error field",
			level:    "warn",
			emit:     func() { WithError(errors.New("nope")).Warn("failed") },
			contains: " W failed error=nope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			InitLoggerTo(&buf, tt.level)
			tt.emit()
			if tt.empty {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), tt.contains)
		})
	}
}
