package rpcserver

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// countingRequest records that it ran and closes the connection it owns.
type countingRequest struct {
	conn net.Conn
	wg   *sync.WaitGroup
}

func (r countingRequest) Execute() {
	defer r.conn.Close()
	defer r.wg.Done()
}

type countingDispatcher struct {
	wg *sync.WaitGroup
}

func (d countingDispatcher) Dispatch(conn net.Conn) Request {
	return countingRequest{conn: conn, wg: d.wg}
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(testWriter{})
	return l
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestServerAcceptsAndDispatches(t *testing.T) {
	srv, err := New("test", "127.0.0.1:0", discardLogger())
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(3)
	done := make(chan struct{})
	go func() {
		srv.Start(countingDispatcher{wg: &wg})
		close(done)
	}()

	for i := 0; i < 3; i++ {
		conn, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
		require.NoError(t, err)
		conn.Close()
	}

	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(2 * time.Second):
		t.Fatal("requests were not dispatched in time")
	}

	srv.Shutdown()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestNewDefaultsWorkersToThreadPoolSize(t *testing.T) {
	srv, err := New("test", "127.0.0.1:0", discardLogger())
	require.NoError(t, err)
	require.Equal(t, ThreadPoolSize, srv.Workers)
	srv.Listener.Close()
}

func TestStartHonorsOverriddenWorkerCount(t *testing.T) {
	srv, err := New("test", "127.0.0.1:0", discardLogger())
	require.NoError(t, err)
	srv.Workers = 5

	var wg sync.WaitGroup
	wg.Add(1)
	done := make(chan struct{})
	go func() {
		srv.Start(countingDispatcher{wg: &wg})
		close(done)
	}()

	conn, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
	require.NoError(t, err)
	conn.Close()

	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(2 * time.Second):
		t.Fatal("request was not dispatched in time")
	}

	srv.Shutdown()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestRunningFlag(t *testing.T) {
	f := NewRunningFlag()
	require.True(t, f.Get())
	f.Clear()
	require.False(t, f.Get())
}

func TestWorkQueueFIFO(t *testing.T) {
	q := NewWorkQueue()
	var order []int
	var mu sync.Mutex
	done := make(chan struct{})

	go func() {
		for i := 0; i < 3; i++ {
			req := q.Pop()
			req.Execute()
		}
		close(done)
	}()

	for i := 0; i < 3; i++ {
		idx := i
		q.Push(funcRequest(func() {
			mu.Lock()
			order = append(order, idx)
			mu.Unlock()
		}))
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("queue did not drain in time")
	}
	require.Equal(t, []int{0, 1, 2}, order)
}

type funcRequest func()

func (f funcRequest) Execute() { f() }
