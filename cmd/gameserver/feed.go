package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/warcraft/internal/game/dispatch"
	"github.com/cory-johannsen/warcraft/internal/game/session"
)

const feedOpTimeout = 10 * time.Second

// feedLine is the wire form of one event on the development feed:
// a single JSON object per line.
type feedLine struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

// stdinFeed reads newline-delimited JSON events from standard input and
// routes them through the session manager and dispatcher. It stands in
// for the game host's event stream during development.
type stdinFeed struct {
	manager    *session.Manager
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
	input      io.Reader
	done       chan struct{}
}

func newStdinFeed(manager *session.Manager, dispatcher *dispatch.Dispatcher, logger *zap.Logger) *stdinFeed {
	return &stdinFeed{
		manager:    manager,
		dispatcher: dispatcher,
		logger:     logger,
		input:      os.Stdin,
		done:       make(chan struct{}),
	}
}

// Start blocks reading events until the input is exhausted or the feed
// is stopped. A closed stdin is a normal end of stream, not an error.
func (f *stdinFeed) Start() error {
	scanner := bufio.NewScanner(f.input)
	for scanner.Scan() {
		select {
		case <-f.done:
			return nil
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var ev feedLine
		if err := json.Unmarshal(line, &ev); err != nil {
			f.logger.Warn("malformed event line",
				zap.Error(err),
			)
			continue
		}
		f.handle(ev)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	// End of input: park until shutdown so the lifecycle does not
	// treat a drained feed as a failed service.
	<-f.done
	return nil
}

// Stop unblocks Start.
func (f *stdinFeed) Stop() {
	select {
	case <-f.done:
	default:
		close(f.done)
	}
}

func (f *stdinFeed) handle(ev feedLine) {
	if ev.Args == nil {
		ev.Args = map[string]interface{}{}
	}

	switch ev.Name {
	case "player_connect":
		uid, _ := ev.Args[dispatch.KeyUserID].(string)
		if uid == "" {
			f.logger.Warn("player_connect without userid")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), feedOpTimeout)
		defer cancel()
		if _, err := f.manager.Connect(ctx, uid); err != nil {
			f.logger.Error("connecting player",
				zap.String("player", uid),
				zap.Error(err),
			)
		}
	case "player_disconnect":
		// Dispatch first so disconnect-bound skills fire while the
		// session still exists, then persist and drop the session.
		f.dispatcher.Dispatch(dispatch.Event{Name: ev.Name, Args: ev.Args})
		uid, _ := ev.Args[dispatch.KeyUserID].(string)
		if uid == "" {
			f.logger.Warn("player_disconnect without userid")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), feedOpTimeout)
		defer cancel()
		if err := f.manager.Disconnect(ctx, uid); err != nil {
			f.logger.Error("disconnecting player",
				zap.String("player", uid),
				zap.Error(err),
			)
		}
	default:
		f.dispatcher.Dispatch(dispatch.Event{Name: ev.Name, Args: ev.Args})
	}
}
