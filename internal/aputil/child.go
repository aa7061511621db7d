// Package aputil holds small pieces of ambient infrastructure - child
// process wrapping and structured logging - shared by every component of
// the daemon.
package aputil

import (
	"bufio"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Child tracks a spawned subprocess and makes sure it is reachable for a
// hard kill regardless of how the owner stops caring about it.
type Child struct {
	Cmd     *exec.Cmd
	Process *os.Process

	pipes int
	done  chan bool
	log   *zap.SugaredLogger
	mu    sync.Mutex
}

// NewChild builds, but does not start, a tracking structure for a child
// process.
func NewChild(log *zap.SugaredLogger, execpath string, args ...string) *Child {
	return &Child{
		Cmd: exec.Command(execpath, args...),
		log: log,
	}
}

func (c *Child) handlePipe(prefix string, r io.ReadCloser) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if c.log != nil {
			c.log.Infof("%s%s", prefix, scanner.Text())
		}
	}
	c.done <- true
}

// LogOutputTo captures the child's stdout/stderr and re-logs each line with
// the given prefix.
func (c *Child) LogOutputTo(prefix string) {
	c.pipes = 0
	c.done = make(chan bool)

	if stdout, err := c.Cmd.StdoutPipe(); err == nil {
		c.pipes++
		go c.handlePipe(prefix, stdout)
	}
	if stderr, err := c.Cmd.StderrPipe(); err == nil {
		c.pipes++
		go c.handlePipe(prefix, stderr)
	}
}

// Start launches the prepared child process.
func (c *Child) Start() error {
	err := c.Cmd.Start()
	if err == nil {
		c.mu.Lock()
		c.Process = c.Cmd.Process
		c.mu.Unlock()
	}
	return err
}

// Wait blocks until the child exits and, if its output is being captured,
// until both pipes have closed.
func (c *Child) Wait() error {
	for c.pipes > 0 {
		<-c.done
		c.pipes--
	}
	return c.Cmd.Wait()
}

// Kill sends SIGKILL to the child if it is still running. It is safe to
// call more than once and safe to call on a Child that never started.
func (c *Child) Kill() {
	c.mu.Lock()
	p := c.Process
	c.mu.Unlock()

	if p == nil {
		return
	}
	_ = p.Signal(syscall.SIGKILL)
}

// RetryKill signals a process and polls until it is gone or a deadline
// passes, escalating nothing further - SIGKILL is not ignorable, so a
// process that survives it is stuck in uninterruptible sleep and no amount
// of retrying will help.
func RetryKill(kill func(syscall.Signal) error, alive func() bool, wait time.Duration) {
	deadline := time.Now().Add(wait)
	for alive() && time.Now().Before(deadline) {
		_ = kill(syscall.SIGKILL)
		time.Sleep(20 * time.Millisecond)
	}
}

// FileExists reports whether a path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
