// Command aco-watch connects to an aco-server broadcast address and logs the
// status frames it receives.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dd0wney/cluso-aco/pkg/broadcast"
	"github.com/dd0wney/cluso-aco/pkg/logging"
	"github.com/dd0wney/cluso-aco/pkg/pubsub"
)

func main() {
	addr := flag.String("addr", "tcp://127.0.0.1:40899", "broadcast address to subscribe to")
	topics := flag.String("topics", "", "comma-separated topics (iteration,state); empty for all")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(*level))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := watch(ctx, *addr, parseTopics(*topics), logger); err != nil {
		fmt.Fprintln(os.Stderr, "aco-watch:", err)
		os.Exit(1)
	}
}

func parseTopics(s string) []pubsub.Topic {
	var out []pubsub.Topic
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, pubsub.Topic(t))
		}
	}
	return out
}

func watch(ctx context.Context, addr string, topics []pubsub.Topic, logger logging.Logger) error {
	w, err := broadcast.Dial(addr, logger, topics...)
	if err != nil {
		return err
	}
	defer w.Close()

	logger.Info("watching", logging.String("addr", addr))
	return w.Watch(ctx, func(msg broadcast.Message) {
		logMessage(logger, msg)
	})
}

func logMessage(logger logging.Logger, msg broadcast.Message) {
	switch {
	case msg.Iteration != nil:
		ev := msg.Iteration
		fields := []logging.Field{
			logging.Session(ev.SessionID),
			logging.Iteration(ev.Report.Iteration),
			logging.State(ev.State.String()),
			logging.Float64("progress", ev.Progress),
			logging.Int("arrived", ev.Report.Arrived),
		}
		if ev.Found && ev.BestCost != nil {
			fields = append(fields,
				logging.Cost(*ev.BestCost),
				logging.String("route", strings.Join(ev.BestPathNames, " -> ")),
			)
		}
		if ev.Report.Improved {
			logger.Info("route improved", fields...)
		} else {
			logger.Debug("iteration", fields...)
		}
	case msg.State != nil:
		ev := msg.State
		logger.Info("state changed",
			logging.Session(ev.SessionID),
			logging.String("from", ev.From.String()),
			logging.String("to", ev.To.String()),
			logging.Iteration(ev.Iteration),
		)
	}
}
