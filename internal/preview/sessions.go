// Package preview spawns and tracks UI processes for applications
// inside the cloned repository. Each running preview is a session that
// can be stopped individually or swept on shutdown.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tooldesk/tooldesk/internal/telemetry"
)

// Session is one running preview process.
type Session struct {
	ID      string
	AppPath string
	URL     string
	Port    int

	cmd  *exec.Cmd
	done chan struct{}
}

// Sessions tracks live preview processes by session id.
type Sessions struct {
	mu    sync.Mutex
	procs map[string]*Session
	grace time.Duration
}

func NewSessions() *Sessions {
	return &Sessions{
		procs: make(map[string]*Session),
		grace: 5 * time.Second,
	}
}

// Active reports the number of live sessions.
func (s *Sessions) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.procs)
}

// launch describes one preview process: the command, where to run it,
// and how long to wait before declaring it alive.
type launch struct {
	argv    []string
	dir     string
	env     []string
	appPath string
	url     string
	port    int
	wait    time.Duration
	server  bool // file-server wording instead of application wording
}

// launchSession starts the process, waits the probe interval and either
// registers the session or reports the captured output of the dead
// process. The returned error means the process could not be started at
// all.
func (s *Sessions) launchSession(l launch) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(l.argv[0], l.argv[1:]...)
	cmd.Dir = l.dir
	if len(l.env) > 0 {
		cmd.Env = append(os.Environ(), l.env...)
	}
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	setupProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return "", err
	}
	done := make(chan struct{})
	go func() {
		cmd.Wait()
		close(done)
	}()

	select {
	case <-done:
		title := "Application"
		if l.server {
			title = "Server"
		}
		return fmt.Sprintf("%s failed to start:\n\nSTDOUT:\n%s\n\nSTDERR:\n%s", title, stdout.String(), stderr.String()), nil
	case <-time.After(l.wait):
	}

	u := uuid.New()
	sess := &Session{
		ID:      fmt.Sprintf("ui_%d_%x", time.Now().Unix(), u[:4]),
		AppPath: l.appPath,
		URL:     l.url,
		Port:    l.port,
		cmd:     cmd,
		done:    done,
	}
	s.mu.Lock()
	s.procs[sess.ID] = sess
	n := len(s.procs)
	s.mu.Unlock()
	telemetry.SetPreviewSessionsActive(n)

	if l.server {
		return fmt.Sprintf("HTTP server started for %s!\n\nSession ID: %s\nURL: %s\n\nThe HTML file is now being served. You can access it at the URL above.\nTo stop the server, use the 'stop_ui' action with the session ID.", l.appPath, sess.ID, l.url), nil
	}
	return fmt.Sprintf("UI generated for %s!\n\nSession ID: %s\nURL: %s\n\nThe application is now running. You can access it at the URL above.\nTo stop the application, use the 'stop_ui' action with the session ID.", l.appPath, sess.ID, l.url), nil
}

// Stop terminates a session gracefully and removes it from the
// tracker: SIGTERM to the process group, a grace period, then SIGKILL.
func (s *Sessions) Stop(id string) string {
	sess, n, ok := s.take(id)
	if !ok {
		return "Error: Invalid or unknown session ID"
	}
	telemetry.SetPreviewSessionsActive(n)
	if err := sess.shutdown(s.grace); err != nil {
		return "Error stopping UI: " + err.Error()
	}
	return fmt.Sprintf("UI session %s has been stopped", id)
}

// StopAll terminates every live session concurrently. Used on server
// shutdown.
func (s *Sessions) StopAll(ctx context.Context) error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.procs))
	for id := range s.procs {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			sess, n, ok := s.take(id)
			if !ok {
				return nil
			}
			telemetry.SetPreviewSessionsActive(n)
			return sess.shutdown(s.grace)
		})
	}
	return g.Wait()
}

func (s *Sessions) take(id string) (*Session, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.procs[id]
	if !ok {
		return nil, len(s.procs), false
	}
	delete(s.procs, id)
	return sess, len(s.procs), true
}

func (sess *Session) shutdown(grace time.Duration) error {
	select {
	case <-sess.done:
		return nil
	default:
	}
	if err := terminateProcess(sess.cmd); err != nil {
		return err
	}
	select {
	case <-sess.done:
	case <-time.After(grace):
		killProcess(sess.cmd)
		<-sess.done
	}
	return nil
}

func freePort() (int, error) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		return 0, err
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port, nil
}
