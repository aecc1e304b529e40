package fastview

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 1 * time.Second
	// Maximum message size accepted from the peer; the page only sends control frames.
	maxMessageSize = 8192
	// Minimum spacing between published updates.
	pubResolution  = time.Millisecond * 100
	pingResolution = time.Millisecond * 200
	// The number of lost pings to tolerate before concluding the peer is gone.
	pongWait = pingResolution * 4
	// Per-op wait for the socket's read or write slot.
	sockWait = time.Second
)

var upgrader = websocket.Upgrader{}

// ErrPongDeadlineExceeded is returned by Sync when the peer stops answering pings.
var ErrPongDeadlineExceeded = errors.New("client disconnect, pong deadline exceeded")

// ErrSockCongestion indicates a socket op waited too long for its turn.
var ErrSockCongestion = errors.New("sock op failed due to congestion")

// Client publishes updates to one websocket peer, at most one per pubResolution.
type Client[T any] struct {
	updates <-chan T
	conn    *websocket.Conn
	// Single-slot semaphores: gorilla allows one concurrent reader and one writer.
	readSem  chan struct{}
	writeSem chan struct{}
	rootCtx  context.Context
}

// NewClient upgrades the request to a websocket. On failure the http error has
// already been written to w.
func NewClient[T any](
	updates <-chan T,
	w http.ResponseWriter,
	r *http.Request,
) (*Client[T], error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("upgrade: %w", err)
	}
	conn.SetReadLimit(maxMessageSize)

	return &Client[T]{
		updates:  updates,
		conn:     conn,
		readSem:  make(chan struct{}, 1),
		writeSem: make(chan struct{}, 1),
		rootCtx:  r.Context(),
	}, nil
}

// Sync runs the reader, the ping-pong liveness check and the publisher until one
// fails or the peer goes away, then closes the socket. A clean disconnect or an
// exhausted update channel returns nil.
func (cli *Client[T]) Sync() error {
	group, groupCtx := errgroup.WithContext(cli.rootCtx)

	pongs := make(chan struct{}, 1)
	cli.conn.SetPongHandler(func(string) error {
		select {
		case pongs <- struct{}{}:
		default:
		}
		return nil
	})

	group.Go(func() error {
		return cli.readMessages(groupCtx)
	})
	// ReadMessage ignores ctx; an expired deadline is what unblocks it.
	go func() {
		<-groupCtx.Done()
		_ = cli.conn.SetReadDeadline(time.Now())
	}()
	group.Go(func() error {
		return cli.pingPong(groupCtx, pongs)
	})
	group.Go(func() error {
		err := cli.publish(groupCtx)
		if err == nil {
			// Publishing finished normally; stop the siblings too.
			err = errDone
		}
		return err
	})

	err := group.Wait()
	cli.close()
	if errors.Is(err, errDone) || isClosure(err) {
		return nil
	}
	return err
}

// errDone ends the group once the update stream is exhausted.
var errDone = errors.New("updates exhausted")

func (cli *Client[T]) pingPong(ctx context.Context, pongs <-chan struct{}) error {
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
			err := cli.write(ctx, func(conn *websocket.Conn) error {
				return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			})
			if err != nil {
				return fmt.Errorf("ping: %w", err)
			}
		case <-pongs:
			lastPong = time.Now()
		}
	}
}

// readMessages drains the peer, which is how pong and close frames get processed.
// Read errors are permanent, so any error tears the client down.
func (cli *Client[T]) readMessages(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cli.readSem <- struct{}{}:
		}
		_, _, err := cli.conn.ReadMessage()
		<-cli.readSem
		if err != nil {
			return err
		}
	}
}

// publish sends every update, pausing pubResolution between sends. Updates are
// not dropped here; a producer that outpaces the client should coalesce upstream.
func (cli *Client[T]) publish(ctx context.Context) error {
	pacer := channerics.NewTicker(ctx.Done(), pubResolution)
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-cli.updates:
			if !ok {
				return nil
			}
			if err := cli.send(ctx, update); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-pacer:
		}
	}
}

func (cli *Client[T]) send(ctx context.Context, update T) error {
	return cli.write(ctx, func(conn *websocket.Conn) error {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return fmt.Errorf("set deadline: %w", err)
		}
		if err := conn.WriteJSON(update); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		return nil
	})
}

// write serializes writers on the socket.
func (cli *Client[T]) write(ctx context.Context, writeFn func(*websocket.Conn) error) error {
	select {
	case <-ctx.Done():
		return nil
	case cli.writeSem <- struct{}{}:
		defer func() { <-cli.writeSem }()
		return writeFn(cli.conn)
	case <-time.After(sockWait):
		return ErrSockCongestion
	}
}

// close sends a close frame and drops the connection. It runs after every
// reader and writer has returned.
func (cli *Client[T]) close() {
	_ = cli.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	cli.conn.Close()
}

func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}
