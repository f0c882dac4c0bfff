package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/scalableminds/wknml/pkg/pipeline"
)

// newLogger returns the command logger: timestamps as "15:04:05.00",
// messages below level dropped.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one operation on an input file.
type progress struct {
	logger *log.Logger
	input  string
	start  time.Time
}

func newProgress(l *log.Logger, input string) *progress {
	return &progress{logger: l, input: input, start: time.Now()}
}

// done logs "<verb> <input>" with the size of the result and the elapsed
// time, e.g. "Transformed tracing.nml trees=12 nodes=3400 elapsed=1.2s".
func (p *progress) done(verb string, trees, nodes int) {
	p.logger.Info(verb+" "+p.input,
		"trees", trees,
		"nodes", nodes,
		"elapsed", time.Since(p.start).Round(time.Millisecond))
}

// logChanges writes the non-zero transform counts at debug level.
func logChanges(l *log.Logger, ch pipeline.Changes) {
	var kv []any
	for _, c := range []struct {
		key string
		n   int
	}{
		{"split_trees", ch.SplitTrees},
		{"added_nodes", ch.AddedNodes},
		{"removed_nodes", ch.RemovedNodes},
		{"merged_trees", ch.MergedTrees},
	} {
		if c.n != 0 {
			kv = append(kv, c.key, c.n)
		}
	}
	if len(kv) == 0 {
		l.Debug("transforms changed nothing")
		return
	}
	l.Debug("changes", kv...)
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by the root command, or
// log.Default() outside of a command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
