package cs2

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/hailam/othello/internal/board"
)

// ErrAbandoned is returned by every call after a read was given up on. The
// abandoned read still owns the player's output, so the client is unusable.
var ErrAbandoned = errors.New("cs2: client abandoned a pending read")

// Client is the driver side of the protocol, talking to one player.
type Client struct {
	in     io.Writer
	out    *bufio.Reader
	ready  string
	broken bool

	cmd   *exec.Cmd
	stdin io.Closer
}

// NewClient wraps the pipes of an already running player.
func NewClient(toPlayer io.Writer, fromPlayer io.Reader) *Client {
	return &Client{in: toPlayer, out: bufio.NewReader(fromPlayer)}
}

// Start launches command (split into words with shell quoting rules) with
// the color as its last argument and waits for the ready line.
func Start(ctx context.Context, command string, color board.Color) (*Client, error) {
	args, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("player command: %w", err)
	}
	if len(args) == 0 {
		return nil, errors.New("empty player command")
	}
	args = append(args, color.String())

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", args[0], err)
	}

	c := NewClient(stdin, stdout)
	c.cmd = cmd
	c.stdin = stdin

	if _, err := c.ReadReady(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// ReadReady reads the player's greeting line.
func (c *Client) ReadReady(ctx context.Context) (string, error) {
	line, err := c.readLine(ctx)
	if err != nil {
		return "", fmt.Errorf("ready line: %w", err)
	}
	c.ready = line
	log.Debug().Str("ready", line).Msg("player ready")
	return line, nil
}

// Ready returns the greeting line read by ReadReady.
func (c *Client) Ready() string {
	return c.ready
}

// Exchange sends the opponent's move and the clock, then reads the reply.
// It returns ctx.Err() if ctx ends first; after that the client only
// returns ErrAbandoned and should be closed.
func (c *Client) Exchange(ctx context.Context, turn Turn) (board.Square, error) {
	if c.broken {
		return board.NoSquare, ErrAbandoned
	}
	if _, err := fmt.Fprintln(c.in, FormatTurn(turn)); err != nil {
		return board.NoSquare, fmt.Errorf("send turn: %w", err)
	}
	line, err := c.readLine(ctx)
	if err != nil {
		return board.NoSquare, err
	}
	return ParseMove(line)
}

type lineResult struct {
	line string
	err  error
}

// readLine reads one line, giving up when ctx ends. The pending read is
// abandoned and completes once the player's output closes.
func (c *Client) readLine(ctx context.Context) (string, error) {
	if c.broken {
		return "", ErrAbandoned
	}
	ch := make(chan lineResult, 1)
	go func() {
		line, err := c.out.ReadString('\n')
		if err != nil && line != "" && errors.Is(err, io.EOF) {
			err = nil
		}
		ch <- lineResult{strings.TrimSpace(line), err}
	}()

	select {
	case r := <-ch:
		return r.line, r.err
	case <-ctx.Done():
		c.broken = true
		return "", ctx.Err()
	}
}

// Close ends the player process, if Start launched one.
func (c *Client) Close() error {
	if c.cmd == nil {
		return nil
	}
	c.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- c.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(time.Second):
		c.cmd.Process.Kill()
		return <-done
	}
}
