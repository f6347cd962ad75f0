// Package rpcserver implements the server core shared by the directory and
// every lobby (§4.2): a listener, a fixed-size worker pool, and a FIFO
// work queue with no capacity limit, all driven by a single running flag.
package rpcserver

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ThreadPoolSize is the default worker-pool size per §4.2. New sets Server's
// Workers field to this; a caller may override Workers before Start to size
// the pool differently (cmd/directoryd's --workers flag does this).
const ThreadPoolSize = 2

// acceptPollInterval bounds how long Accept blocks before the loop re-checks
// Running. Mirrors the non-blocking-accept-with-polling design note (§9):
// a deliberate choice over blocking accept + signalling.
const acceptPollInterval = 100 * time.Millisecond

// Server is the (listener, worker pool, work queue) triple every directory
// and lobby instance embeds.
type Server struct {
	Name     string // for logging: "directory" or "lobby"
	Listener net.Listener
	Running  *RunningFlag
	Queue    *WorkQueue
	Log      *logrus.Logger
	Workers  int // worker-pool size; set by New to ThreadPoolSize, overridable before Start

	wg sync.WaitGroup
}

// New binds addr and prepares the worker pool's shutdown coordination. It
// does not start accepting connections — call Start for that.
func New(name, addr string, log *logrus.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("rpcserver: listen on %s: %w", addr, err)
	}
	return &Server{
		Name:     name,
		Listener: ln,
		Running:  NewRunningFlag(),
		Queue:    NewWorkQueue(),
		Log:      log,
		Workers:  ThreadPoolSize,
	}, nil
}

// Addr returns the bound listener's actual address (useful when addr was
// ":0" and the OS picked an ephemeral port, as every lobby does).
func (s *Server) Addr() net.Addr { return s.Listener.Addr() }

// Start spawns the worker pool and runs the accept loop on the calling
// goroutine. It returns once Running is cleared and the listener closes.
func (s *Server) Start(d Dispatcher) {
	for i := 0; i < s.Workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	s.acceptLoop(d)
	s.wg.Wait()
}

func (s *Server) acceptLoop(d Dispatcher) {
	for s.Running.Get() {
		if tl, ok := s.Listener.(*net.TCPListener); ok {
			_ = tl.SetDeadline(time.Now().Add(acceptPollInterval))
		}

		conn, err := s.Listener.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue // expected: poll for shutdown
			}
			if !s.Running.Get() {
				return // listener closed during shutdown
			}
			s.Log.WithField("server", s.Name).WithError(err).Warn("accept error")
			continue
		}

		req := d.Dispatch(conn)
		s.Queue.Push(req)
	}
}

func (s *Server) worker(id int) {
	defer s.wg.Done()
	for {
		if !s.Running.Get() {
			return
		}
		req := s.Queue.Pop()
		if !s.Running.Get() {
			return
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.Log.WithField("server", s.Name).WithField("worker", id).
						Errorf("worker panic recovered: %v", r)
				}
			}()
			req.Execute()
		}()
	}
}

// Stop clears Running, unblocks every worker parked on the queue with a
// no-op request, and closes the listener so the accept loop's next Accept
// fails fast. Unlike Shutdown it does not wait for workers to exit, so it
// is safe to call from inside a handler running on one of this server's
// own worker goroutines (e.g. CloseLobby) without deadlocking on itself.
func (s *Server) Stop() {
	s.Running.Clear()
	for i := 0; i < s.Workers; i++ {
		s.Queue.Push(exitRequest{})
	}
	s.Queue.WakeAll()
	_ = s.Listener.Close()
}

// Shutdown stops the server and blocks until every worker has exited. Used
// by an external caller (the directory's own shutdown, which cascades to
// every registered lobby) that isn't itself one of this server's workers.
func (s *Server) Shutdown() {
	s.Stop()
	s.wg.Wait()
}
