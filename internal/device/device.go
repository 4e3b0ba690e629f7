// Package device implements the external-interface device/port request
// protocol: a uniform request record (device id, command, flags, length,
// actual, error, timeout) that every concrete backend — a SQL connection,
// a websocket — answers the same way, returning DONE once the work is
// complete, PEND while it is still in flight, or ERROR on failure. This
// is the collaborator named at the interface only; this package
// supplies two concrete backends so the embedding API has real ports to
// open against, grounded on an `internal/database` connection-manager
// idiom (`sync.RWMutex`-guarded map of named connections, `database/sql`
// driver registration) and a matching websocket backend in the same
// shape.
package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Command is one of the device protocol's verbs.
type Command int

const (
	CmdInit Command = iota
	CmdQuit
	CmdOpen
	CmdClose
	CmdRead
	CmdWrite
	CmdPoll
	CmdConnect
	CmdQuery
	CmdModify
	CmdCreate
	CmdDelete
	CmdRename
	CmdLookup
)

// Result is a device request's completion status.
type Result int

const (
	ResultDone Result = iota
	ResultPend
	ResultError
)

// Request is the uniform record exchanged with a device backend.
type Request struct {
	DeviceID  string
	Command   Command
	Flags     uint32
	Length    int
	Actual    int
	Err       error
	Data      []byte
	Timeout   time.Duration
	Special   any // backend-specific extra payload (a SQL statement + args, a socket frame)

	CorrelationID string
}

// NewRequest builds a Request with a fresh correlation id, the way every
// device request is tagged for matching an eventual PEND's completion
// back to its caller.
func NewRequest(deviceID string, cmd Command) *Request {
	return &Request{DeviceID: deviceID, Command: cmd, CorrelationID: uuid.NewString()}
}

// Backend is a concrete device driver: SQL, network, or any future
// addition, answering one request at a time.
type Backend interface {
	Name() string
	Handle(req *Request) Result
}

// Registry holds the open device backends by id, the way a DBManager
// holds open connections by id — generalized here to any Backend, not
// only SQL ones.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry creates an empty device registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Open registers a backend under id, failing if one is already open
// there.
func (r *Registry) Open(id string, b Backend) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.backends[id]; exists {
		return fmt.Errorf("device: %q already open", id)
	}
	r.backends[id] = b
	return nil
}

// Close removes and forgets a backend; callers needing to release its
// resources (closing a *sql.DB, a websocket conn) must do so themselves
// before calling Close, since Backend carries no generic Close method —
// each backend's own CmdClose handling is where that happens.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.backends, id)
}

// Dispatch routes req to its named backend.
func (r *Registry) Dispatch(req *Request) Result {
	r.mu.RLock()
	b, ok := r.backends[req.DeviceID]
	r.mu.RUnlock()
	if !ok {
		req.Err = fmt.Errorf("device: no open backend %q", req.DeviceID)
		return ResultError
	}
	return b.Handle(req)
}
