package log

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatEntry(t *testing.T) {
	ts := time.Date(2026, 2, 23, 10, 45, 0, 0, time.UTC)

	got := formatEntry(ts, LevelWarn, CatLoader, "skipping file", "file", "x.csv", "rows", 3)
	require.Equal(t, "2026-02-23T10:45:00 [WARN] [loader] skipping file file=x.csv rows=3\n", got)
}

func TestFormatEntry_OddFields(t *testing.T) {
	ts := time.Date(2026, 2, 23, 10, 45, 0, 0, time.UTC)

	got := formatEntry(ts, LevelInfo, CatUI, "msg", "orphan")
	require.True(t, strings.HasSuffix(got, " orphan=<missing>\n"))
}

func TestWrite_RespectsMinLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelInfo)
	t.Cleanup(Reset)

	Debug(CatConfig, "hidden")
	Info(CatConfig, "shown")
	ErrorErr(CatConfig, "failed", errors.New("boom"))

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "[INFO] [config] shown")
	require.Contains(t, out, "error=boom")
}

func TestWrite_Disabled(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)
	t.Cleanup(Reset)

	SetEnabled(false)
	Info(CatConfig, "dropped")
	require.Empty(t, buf.String())
}

func TestNewListener_ReceivesEntries(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)
	t.Cleanup(Reset)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener := NewListener(ctx)
	require.NotNil(t, listener)

	Info(CatRegistry, "replaced", "products", 2)

	msg := listener.Listen()()
	event, ok := msg.(LogEvent)
	require.True(t, ok)
	require.Contains(t, event.Payload, "[registry] replaced products=2")
}

func TestNoLogger_NoPanic(t *testing.T) {
	Reset()
	require.NotPanics(t, func() {
		Info(CatUI, "nothing")
		SetMinLevel(LevelError)
	})
	require.Nil(t, NewListener(context.Background()))
}

func TestFormatEntry_QuotesSpacedValues(t *testing.T) {
	ts := time.Date(2026, 2, 23, 10, 45, 0, 0, time.UTC)

	got := formatEntry(ts, LevelInfo, CatLoader, "loaded", "file", "CHEDS-LT-01_new students.csv", "note", "")
	require.Equal(t, `2026-02-23T10:45:00 [INFO] [loader] loaded file="CHEDS-LT-01_new students.csv" note=""`+"\n", got)
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"debug", "INFO", "Warn", "error"} {
		l, err := ParseLevel(name)
		require.NoError(t, err)
		require.True(t, strings.EqualFold(name, l.String()))
	}
	_, err := ParseLevel("verbose")
	require.Error(t, err)
}
