package pushover

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Frame bytes sent by the push websocket.
const (
	frameHeartbeat = '#'
	frameMessage   = '!'
	frameReload    = 'R'
	frameError     = 'E'
	frameClosed    = 'A'
)

// ErrSessionInvalid means the server rejected the session permanently;
// the caller has to log in and register again.
var ErrSessionInvalid = errors.New("pushover: session invalidated by server")

// Listen holds the persistent websocket open and invokes wake for every
// message frame. The connection is re-established with capped exponential
// backoff after transient failures; the backoff resets once a connection
// delivers a frame. Listen returns when ctx is done or the session is
// permanently invalidated.
func (c *Client) Listen(ctx context.Context, streamURL string, log *zap.Logger, wake func(context.Context) error) error {
	if streamURL == "" {
		streamURL = DefaultStreamURL
	}
	if log == nil {
		log = zap.NewNop()
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 2 * time.Second
	policy.MaxInterval = 5 * time.Minute
	policy.MaxElapsedTime = 0 // retry forever, only ctx stops us

	connect := func() error {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, streamURL, nil)
		if err != nil {
			return fmt.Errorf("dialing stream: %w", err)
		}
		defer conn.Close()

		// a blocked read only notices cancellation through the connection
		// being closed under it
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			select {
			case <-ctx.Done():
				conn.Close()
			case <-stop:
			}
		}()

		login := fmt.Sprintf("login:%s:%s\n", c.device, c.secret)
		if err := conn.WriteMessage(websocket.TextMessage, []byte(login)); err != nil {
			return fmt.Errorf("stream login: %w", err)
		}
		log.Info("stream connected")

		for {
			if err := ctx.Err(); err != nil {
				return backoff.Permanent(err)
			}
			_, data, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil {
					return backoff.Permanent(ctx.Err())
				}
				return fmt.Errorf("stream read: %w", err)
			}
			// any traffic, heartbeats included, proves the connection is
			// healthy again
			policy.Reset()
			for _, frame := range data {
				switch frame {
				case frameHeartbeat:
				case frameMessage:
					if err := wake(ctx); err != nil {
						log.Error("processing messages failed", zap.Error(err))
					}
				case frameReload:
					log.Debug("server requested reconnect")
					return errors.New("reload requested")
				case frameError:
					return backoff.Permanent(ErrSessionInvalid)
				case frameClosed:
					return backoff.Permanent(ErrSessionInvalid)
				default:
					log.Debug("unknown stream frame", zap.Uint8("frame", frame))
				}
			}
		}
	}

	err := backoff.Retry(func() error {
		err := connect()
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("stream disconnected", zap.Error(err))
		}
		return err
	}, backoff.WithContext(policy, ctx))

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
