// Package gtp talks to an external Go engine over the line-oriented GTP
// protocol: each command is "<id> <command> <args>\n", responses start with
// "=" (success) or "?" (failure), echo the id and end with a blank line.
package gtp

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"goban/internal/domain/game"
	"goban/internal/errors"
)

const responseTimeout = 10 * time.Second

type response struct {
	ok   bool
	text string
}

// Client управляет процессом движка: пишет команды в stdin, читает ответы из
// stdout. One client per game session; the subprocess lives and dies with it.
type Client struct {
	log    *zap.SugaredLogger
	binary string
	args   []string

	mu           sync.Mutex // guards cmd, stdin and writes
	cmd          *exec.Cmd
	stdin        *bufio.Writer
	closed       bool
	restarts     int
	restartLimit int
	timeout      time.Duration // admin commands (boardsize, play, ...)
	genTimeout   time.Duration // genmove: the configured max thinking time

	nextID  uint64
	idMu    sync.Mutex
	pending sync.Map // map[id string]chan response
}

// NewClient spawns the engine subprocess and starts the response reader.
// maxThink bounds how long a genmove may run; zero falls back to the default
// response timeout.
func NewClient(log *zap.SugaredLogger, binary string, args []string, restartLimit int, maxThink time.Duration) (*Client, error) {
	c := &Client{
		log:          log,
		binary:       binary,
		args:         args,
		restartLimit: restartLimit,
		timeout:      responseTimeout,
		genTimeout:   maxThink,
	}
	if c.genTimeout <= 0 {
		c.genTimeout = responseTimeout
	}
	if err := c.start(); err != nil {
		return nil, err
	}
	return c, nil
}

// newPipeClient wires the client to explicit reader/writer pairs. Used by
// tests to fake the engine without a subprocess.
func newPipeClient(log *zap.SugaredLogger, w io.Writer, r io.Reader) *Client {
	c := &Client{log: log, stdin: bufio.NewWriter(w), timeout: responseTimeout, genTimeout: responseTimeout}
	go c.listenForResponses(bufio.NewScanner(r))
	return c
}

func (c *Client) start() error {
	cmd := exec.Command(c.binary, c.args...)

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	c.mu.Lock()
	c.cmd = cmd
	c.stdin = bufio.NewWriter(stdinPipe)
	c.mu.Unlock()

	go c.listenForResponses(bufio.NewScanner(stdoutPipe))
	return nil
}

// listenForResponses accumulates lines until the blank line terminating a GTP
// response, then routes it to the pending channel by echoed id.
func (c *Client) listenForResponses(scanner *bufio.Scanner) {
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
			continue
		}
		if len(lines) == 0 {
			continue
		}
		c.dispatch(lines)
		lines = nil
	}
	if len(lines) > 0 {
		c.dispatch(lines)
	}
}

func (c *Client) dispatch(lines []string) {
	head := lines[0]
	if len(head) == 0 || (head[0] != '=' && head[0] != '?') {
		c.log.Warnw("unparseable engine response", "line", head)
		return
	}
	ok := head[0] == '='
	rest := head[1:]

	id := ""
	text := rest
	if sp := strings.IndexByte(rest, ' '); sp >= 0 {
		id, text = rest[:sp], strings.TrimSpace(rest[sp+1:])
	} else {
		id, text = rest, ""
	}
	if len(lines) > 1 {
		text = strings.TrimSpace(text + "\n" + strings.Join(lines[1:], "\n"))
	}

	chIface, found := c.pending.LoadAndDelete(id)
	if !found {
		c.log.Warnw("no pending command for engine response id", "id", id)
		return
	}
	chIface.(chan response) <- response{ok: ok, text: text}
}

// send issues one command and waits for its answer. On timeout the engine is
// restarted (a bounded number of times over the client's lifetime), but the
// command is NOT resent: a respawned process has a clean board, so the caller
// gets ErrEngineRestarted and must replay the position first.
func (c *Client) send(command string) (string, error) {
	return c.sendTimeout(command, c.timeout)
}

func (c *Client) sendTimeout(command string, timeout time.Duration) (string, error) {
	text, err := c.sendOnce(command, timeout)
	if err == nil || err != errors.ErrEngineTimeout {
		return text, err
	}
	if restartErr := c.restart(); restartErr != nil {
		return "", restartErr
	}
	c.log.Warnw("engine restarted after command timeout", "command", command)
	return "", fmt.Errorf("%w: after %q", errors.ErrEngineRestarted, command)
}

func (c *Client) sendOnce(command string, timeout time.Duration) (string, error) {
	c.idMu.Lock()
	c.nextID++
	id := strconv.FormatUint(c.nextID, 10)
	c.idMu.Unlock()

	ch := make(chan response, 1)
	c.pending.Store(id, ch)

	c.mu.Lock()
	if c.closed || c.stdin == nil {
		c.mu.Unlock()
		c.pending.Delete(id)
		return "", errors.ErrEngineStopped
	}
	_, err := fmt.Fprintf(c.stdin, "%s %s\n", id, command)
	if err == nil {
		err = c.stdin.Flush()
	}
	c.mu.Unlock()
	if err != nil {
		c.pending.Delete(id)
		return "", fmt.Errorf("write to engine: %w", err)
	}

	select {
	case resp := <-ch:
		if !resp.ok {
			return "", fmt.Errorf("engine rejected %q: %s", command, resp.text)
		}
		return resp.text, nil
	case <-time.After(timeout):
		c.pending.Delete(id)
		return "", errors.ErrEngineTimeout
	}
}

func (c *Client) restart() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.ErrEngineStopped
	}
	if c.restarts >= c.restartLimit {
		c.mu.Unlock()
		return errors.ErrEngineUnhealthy
	}
	c.restarts++
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
	canSpawn := c.binary != ""
	c.mu.Unlock()

	if !canSpawn {
		return errors.ErrEngineUnhealthy
	}
	return c.start()
}

// Close terminates the subprocess. Pending commands fail with timeouts.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
}

// -----------------------------------------------------
// Command vocabulary
// -----------------------------------------------------

func (c *Client) BoardSize(n int) error {
	_, err := c.send(fmt.Sprintf("boardsize %d", n))
	return err
}

func (c *Client) ClearBoard() error {
	_, err := c.send("clear_board")
	return err
}

func (c *Client) Komi(k float64) error {
	_, err := c.send(fmt.Sprintf("komi %.1f", k))
	return err
}

// Play reports a move to the engine. A nil position is a pass.
func (c *Client) Play(color game.Color, pos *game.Position, boardSize int) error {
	vertex := Pass
	if pos != nil {
		v, err := ToVertex(*pos, boardSize)
		if err != nil {
			return err
		}
		vertex = v
	}
	_, err := c.send(fmt.Sprintf("play %s %s", colorName(color), vertex))
	return err
}

// GenMoveResult is the engine's answer to genmove together with the
// wall-clock thinking time, which is charged to the bot's clock exactly as a
// human move would be.
type GenMoveResult struct {
	Position *game.Position // nil on pass or resign
	Resigned bool
	Elapsed  time.Duration
}

func (c *Client) GenMove(color game.Color, boardSize int) (GenMoveResult, error) {
	started := time.Now()
	text, err := c.sendTimeout(fmt.Sprintf("genmove %s", colorName(color)), c.genTimeout)
	elapsed := time.Since(started)
	if err != nil {
		return GenMoveResult{}, err
	}
	if strings.EqualFold(strings.TrimSpace(text), "resign") {
		return GenMoveResult{Resigned: true, Elapsed: elapsed}, nil
	}
	pos, err := ParseVertex(text, boardSize)
	if err != nil {
		return GenMoveResult{}, fmt.Errorf("genmove returned %q: %w", text, err)
	}
	return GenMoveResult{Position: pos, Elapsed: elapsed}, nil
}

func (c *Client) FinalScore() (string, error) {
	return c.send("final_score")
}
