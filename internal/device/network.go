package device

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"rebcore/internal/hostio"
)

var netLog = hostio.Default.Named("device/network")

// NetworkBackend answers device requests against a single websocket
// connection, either dialed out (CmdConnect) or accepted from an
// http.Server handler (NewNetworkServer). Reads/writes are framed as
// whole messages, queued so CmdRead/CmdPoll never block past Timeout.
type NetworkBackend struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	inbox   chan []byte
	closeCh chan struct{}
}

var dialer = websocket.Dialer{HandshakeTimeout: 10 * time.Second}

// DialNetwork opens an outbound websocket connection to addr.
func DialNetwork(addr string) (*NetworkBackend, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("device/network: bad address %q: %w", addr, err)
	}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("device/network: dial %q: %w", addr, err)
	}
	return newNetworkBackend(conn), nil
}

// NetworkServer accepts one inbound websocket connection per Backend it
// hands to its caller via the Accept channel, the pattern a device
// INIT/OPEN pair maps onto for a listening port.
type NetworkServer struct {
	upgrader websocket.Upgrader
	Accept   chan *NetworkBackend
}

// NewNetworkServer builds an http.Handler-compatible acceptor; mounting
// it on a mux and starting an http.Server is the caller's job (the host
// CLI / embedding API owns process lifetime, not this package).
func NewNetworkServer() *NetworkServer {
	return &NetworkServer{Accept: make(chan *NetworkBackend, 8)}
}

func (s *NetworkServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.Accept <- newNetworkBackend(conn)
}

func newNetworkBackend(conn *websocket.Conn) *NetworkBackend {
	b := &NetworkBackend{conn: conn, inbox: make(chan []byte, 32), closeCh: make(chan struct{})}
	go b.readLoop()
	return b
}

func (b *NetworkBackend) readLoop() {
	for {
		_, msg, err := b.conn.ReadMessage()
		if err != nil {
			close(b.inbox)
			return
		}
		select {
		case b.inbox <- msg:
		case <-b.closeCh:
			return
		}
	}
}

func (b *NetworkBackend) Name() string { return "network" }

// Handle answers CmdWrite (send req.Data as one message), CmdRead/
// CmdPoll (DONE with the next queued message, or PEND if none has
// arrived within req.Timeout), and CmdClose.
func (b *NetworkBackend) Handle(req *Request) Result {
	switch req.Command {
	case CmdWrite:
		b.mu.Lock()
		err := b.conn.WriteMessage(websocket.BinaryMessage, req.Data)
		b.mu.Unlock()
		if err != nil {
			req.Err = err
			return ResultError
		}
		req.Actual = len(req.Data)
		return ResultDone

	case CmdRead, CmdPoll:
		timeout := req.Timeout
		if timeout <= 0 {
			timeout = 0
		}
		select {
		case msg, ok := <-b.inbox:
			if !ok {
				req.Err = fmt.Errorf("device/network: connection closed")
				return ResultError
			}
			req.Data = msg
			req.Actual = len(msg)
			return ResultDone
		case <-time.After(timeout):
			netLog.Printf("%s", hostio.Timeout("read", timeout))
			return ResultPend
		}

	case CmdClose:
		close(b.closeCh)
		req.Err = b.conn.Close()
		if req.Err != nil {
			return ResultError
		}
		return ResultDone

	default:
		req.Err = fmt.Errorf("device/network: unsupported command %d", req.Command)
		return ResultError
	}
}
