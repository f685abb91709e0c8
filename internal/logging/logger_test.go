package logging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/2beens/cardioprogress/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestGetLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, GetLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, GetLevel("warn"))
	assert.Equal(t, logrus.ErrorLevel, GetLevel("error"))
	assert.Equal(t, logrus.TraceLevel, GetLevel("unknown"))
	assert.Equal(t, logrus.TraceLevel, GetLevel(""))
}

type captureTransport struct {
	events []*sentry.Event
}

func (c *captureTransport) Flush(time.Duration) bool { return true }
func (c *captureTransport) Configure(sentry.ClientOptions) {}
func (c *captureTransport) Close()                          {}
func (c *captureTransport) SendEvent(event *sentry.Event) {
	c.events = append(c.events, event)
}

func TestSentryHook_Fire(t *testing.T) {
	transport := &captureTransport{}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:       "https://public@sentry.example.com/1",
		Transport: transport,
	})
	require.NoError(t, err)

	hook := NewSentryHook([]logrus.Level{logrus.ErrorLevel})
	hook.hub = sentry.NewHub(client, sentry.NewScope())
	assert.Equal(t, []logrus.Level{logrus.ErrorLevel}, hook.Levels())

	logger := logrus.New()
	logger.AddHook(hook)
	logger.WithField("range", "week").WithError(errors.New("permission denied")).Error("snapshot unavailable")
	logger.Warn("not forwarded")

	require.Len(t, transport.events, 1)
	event := transport.events[0]
	assert.Equal(t, sentry.LevelError, event.Level)
	assert.Equal(t, "snapshot unavailable", event.Message)
	assert.Equal(t, "week", event.Extra["range"])
	assert.Equal(t, "permission denied", event.Extra[logrus.ErrorKey])
}

func TestLogOutput(t *testing.T) {
	assert.Equal(t, os.Stdout, logOutput("", true))

	dir := t.TempDir()
	rotated, ok := logOutput(filepath.Join(dir, "cardio"), false).(*lumberjack.Logger)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "cardio.log"), rotated.Filename)
	assert.True(t, rotated.Compress)

	_, ok = logOutput(filepath.Join(dir, "cardio.log"), true).(*pkg.FanOutWriter)
	assert.True(t, ok)
}
