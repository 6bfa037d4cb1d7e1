package ffmpeg

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// tailLines is how many stderr lines a Process keeps for error reports.
const tailLines = 20

// Process is a running ffmpeg whose stderr is streamed line by line.
// It is stopped with Stop, which lets ffmpeg finalize its output file.
type Process struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser

	lines    chan string
	done     chan struct{}
	quit     chan struct{}
	stopOnce sync.Once

	mu   sync.Mutex
	tail []string
	err  error
}

// Start launches ffmpeg with args. Callers must eventually call Stop or Wait.
func Start(ffmpegPath string, args []string) (*Process, error) {
	cmd := exec.Command(ffmpegPath, args...) // #nosec G204 -- path comes from Resolver

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	p := &Process{
		cmd:   cmd,
		stdin: stdin,
		lines: make(chan string, 64),
		done:  make(chan struct{}),
		quit:  make(chan struct{}),
	}
	go p.pump(stderr)
	return p, nil
}

// pump forwards stderr lines until EOF, then reaps the process.
// ffmpeg separates progress updates with \r, so both \r and \n end a line.
func (p *Process) pump(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	scanner.Split(scanLinesCR)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		p.remember(line)
		select {
		case p.lines <- line:
		case <-p.quit:
		}
	}
	close(p.lines)

	err := p.cmd.Wait()
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
	close(p.done)
}

func (p *Process) remember(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tail = append(p.tail, line)
	if len(p.tail) > tailLines {
		p.tail = p.tail[len(p.tail)-tailLines:]
	}
}

// Lines streams stderr lines. Closed when ffmpeg closes stderr.
func (p *Process) Lines() <-chan string { return p.lines }

// Done is closed once the process has exited.
func (p *Process) Done() <-chan struct{} { return p.done }

// Tail returns the last stderr lines, newest last.
func (p *Process) Tail() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strings.Join(p.tail, "\n")
}

// Wait blocks until the process exits and returns its exit error.
func (p *Process) Wait() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return fmt.Errorf("ffmpeg: %w\nOutput: %s", p.err, strings.Join(p.tail, "\n"))
	}
	return nil
}

// Stop asks ffmpeg to quit by sending 'q' on stdin so the container is
// finalized, then kills it if it has not exited within timeout.
// A non-zero exit after 'q' is expected and not reported.
func (p *Process) Stop(timeout time.Duration) error {
	p.stopOnce.Do(func() { close(p.quit) })

	select {
	case <-p.done:
		return nil
	default:
	}

	_, _ = io.WriteString(p.stdin, "q")
	_ = p.stdin.Close()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.done:
		return nil
	case <-timer.C:
		_ = p.cmd.Process.Kill()
		<-p.done
		return fmt.Errorf("%w: killed after %v", ErrTimeout, timeout)
	}
}

// scanLinesCR is bufio.ScanLines that also splits on a bare \r.
func scanLinesCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
