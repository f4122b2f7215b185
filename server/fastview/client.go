package fastview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var log = logrus.New()

// SetLogger replaces the package logger.
func SetLogger(logger *logrus.Logger) {
	log = logger
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 1 * time.Second
	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	// PubResolution is the rate at which pages flush coalesced ele-updates to the client.
	PubResolution  = time.Millisecond * 100
	pingResolution = time.Millisecond * 200
	// The number of pings to tolerate losing before concluding the peer is gone.
	pongWait = pingResolution * 4
	// Inbound messages buffered before the reader waits on the consumer.
	inboundBuffer = 64
)

var upgrader = websocket.Upgrader{}

// Client publishes updates of type Out to a web client via websocket, and
// decodes the client's json messages into values of type In.
type Client[Out any, In any] struct {
	updates  <-chan Out
	messages chan In
	ws       *websock
}

// NewClient upgrades the request to a websocket. Every item received on
// updates is published as json; pages are expected to coalesce their
// updates upstream, so nothing is dropped here.
func NewClient[Out any, In any](
	updates <-chan Out,
	w http.ResponseWriter,
	r *http.Request,
) (*Client[Out, In], error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		return nil, fmt.Errorf("upgrade: %w", err)
	}
	ws.SetReadLimit(maxMessageSize)

	return &Client[Out, In]{
		updates:  updates,
		messages: make(chan In, inboundBuffer),
		ws:       newWebSock(ws),
	}, nil
}

// Messages returns the decoded client messages. The channel is closed when Sync returns.
func (cli *Client[Out, In]) Messages() <-chan In {
	return cli.messages
}

// Sync runs the reader, the ping-pong liveness check and the publisher until
// one of them stops: the client disconnects, the updates chan is closed,
// ctx is cancelled, or an error occurs.
// Sync returns nil upon client disconnect or an error if an unexpected error occurred.
func (cli *Client[Out, In]) Sync(ctx context.Context) error {
	defer close(cli.messages)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer cancel()
		return cli.readMessages(groupCtx)
	})
	group.Go(func() error {
		defer cancel()
		return cli.pingPong(groupCtx)
	})
	group.Go(func() error {
		defer cancel()
		return cli.publish(groupCtx)
	})
	group.Go(func() error {
		// Unblock the reader once anything else has stopped.
		<-groupCtx.Done()
		_ = cli.ws.Conn().SetReadDeadline(time.Now())
		return nil
	})

	return group.Wait()
}

// Close sends a close frame and closes the connection.
func (cli *Client[Out, In]) Close() error {
	return cli.ws.Close()
}

var ErrPongDeadlineExceeded error = errors.New("client disconnect, pong deadline exceeded")

// Runs the ping-pong for the client liveness check.
// NOTE: This function requires that readMessages is running to ensure the pong handler is called.
func (cli *Client[Out, In]) pingPong(ctx context.Context) error {
	pong := make(chan struct{})
	cli.ws.Conn().SetPongHandler(func(_ string) error {
		select {
		case pong <- struct{}{}:
		case <-ctx.Done():
		}
		return nil
	})

	pinger := channerics.NewTicker(ctx.Done(), pingResolution)
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pinger:
			if time.Since(lastPong) > pongWait {
				return ErrPongDeadlineExceeded
			}

			if err := cli.ping(ctx); err != nil {
				return err
			}
		case <-pong:
			lastPong = time.Now()
		}
	}
}

func (cli *Client[Out, In]) ping(ctx context.Context) error {
	return cli.ws.Write(
		ctx,
		func(ws *websocket.Conn) (err error) {
			if err = ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				err = fmt.Errorf("ping failed: %w", err)
			}
			return
		})
}

// readMessages decodes messages from the client onto the messages chan.
// Errors returned by websocket Read methods are permanent, hence any error
// must trigger full teardown. Malformed messages are logged and skipped.
func (cli *Client[Out, In]) readMessages(ctx context.Context) error {
	for {
		err := cli.ws.Read(
			ctx,
			func(ws *websocket.Conn) error {
				_, data, readErr := ws.ReadMessage()
				if readErr != nil {
					return readErr
				}

				var msg In
				if jsonErr := json.Unmarshal(data, &msg); jsonErr != nil {
					log.WithField("message", string(data)).Warnf("dropping malformed message: %v", jsonErr)
					return nil
				}

				select {
				case cli.messages <- msg:
				case <-ctx.Done():
				}
				return nil
			})

		switch {
		case ctx.Err() != nil, isClosure(err):
			return nil
		case err != nil:
			return fmt.Errorf("read failed: %w", err)
		}
	}
}

func (cli *Client[Out, In]) publish(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-cli.updates:
			// Graceful input channel closure
			if !ok {
				return nil
			}

			err := cli.ws.Write(
				ctx,
				func(ws *websocket.Conn) (writeErr error) {
					if writeErr = ws.SetWriteDeadline(time.Now().Add(writeWait)); writeErr != nil {
						return fmt.Errorf("failed to set deadline: %w", writeErr)
					}
					if writeErr = ws.WriteJSON(update); writeErr != nil {
						writeErr = fmt.Errorf("publish failed: %w", writeErr)
					}
					return
				})
			if err != nil {
				return err
			}
		}
	}
}

func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived)
}
