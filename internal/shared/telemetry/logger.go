// Package telemetry writes JSON log lines, one object per event.
package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu  sync.Mutex
	out io.Writer = os.Stdout
)

// SetOutput redirects log lines and returns a func restoring the previous writer.
func SetOutput(w io.Writer) (restore func()) {
	mu.Lock()
	prev := out
	out = w
	mu.Unlock()
	return func() {
		mu.Lock()
		out = prev
		mu.Unlock()
	}
}

func Info(msg string, fields map[string]any)  { write("info", msg, fields) }
func Warn(msg string, fields map[string]any)  { write("warn", msg, fields) }
func Error(msg string, fields map[string]any) { write("error", msg, fields) }

// Log writes at an explicit level, for callers that pick the level at runtime.
func Log(level, msg string, fields map[string]any) { write(level, msg, fields) }

func write(level, msg string, fields map[string]any) {
	ts := time.Now().UTC().Format(time.RFC3339Nano)
	entry := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		if err, ok := v.(error); ok && err != nil {
			v = err.Error()
		}
		entry[k] = v
	}
	// Reserved keys always win over caller fields.
	entry["ts"] = ts
	entry["level"] = level
	entry["msg"] = msg

	data, err := json.Marshal(entry)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"ts":%q,"level":"error","msg":"logger marshal failed","err":%q,"dropped_msg":%q}`, ts, err.Error(), msg))
	}
	mu.Lock()
	defer mu.Unlock()
	_, _ = out.Write(append(data, '\n'))
}
