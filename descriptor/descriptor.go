// Package descriptor implements the method-descriptor catalog that backs
// §4.5's Validate<Req,Resp>(name). Full protobuf descriptor-set parsing is
// out of scope (§1 delegates it to "a descriptor pool service"); this
// package is that service, backed by a small JSON catalog instead of a
// compiled FileDescriptorSet, and loaded with jsonparser the way the
// teacher library's json package scans BGP wire JSON without a full
// unmarshal pass. A Pool backed by protoregistry.GlobalFiles can implement
// the same Lookup/Validate contract without touching callers.
package descriptor

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/evrpc/evrpc/json"
)

// Method describes one RPC method's shape, as registered in the catalog.
type Method struct {
	Name            string // "pkg.Service.Method"
	RequestType     string // fully-qualified message type name
	ResponseType    string
	ClientStreaming bool
	ServerStreaming bool
}

// Pool is a method descriptor catalog. The zero value is usable.
type Pool struct {
	mu      sync.RWMutex
	methods map[string]Method
}

// NewPool returns an empty Pool.
func NewPool() *Pool {
	return &Pool{methods: make(map[string]Method)}
}

// Register adds m to the pool. Re-registering the same method name
// overwrites the previous entry — catalogs are expected to be loaded once
// at startup, before any Validate call, not mutated concurrently with
// dispatch.
func (p *Pool) Register(m Method) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.methods == nil {
		p.methods = make(map[string]Method)
	}
	p.methods[m.Name] = m
}

// Lookup returns the descriptor for name, if known.
func (p *Pool) Lookup(name string) (Method, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.methods[name]
	return m, ok
}

// ErrNotFound mirrors the "Method not found" failure of §4.5.
var ErrNotFound = fmt.Errorf("method not found")

// Validate checks that name exists in the pool and that its declared
// request/response type names match reqType/respType. A mismatch produces
// a diagnostic error naming both the expected and actual types, per §4.5.
func (p *Pool) Validate(name, reqType, respType string) (Method, error) {
	m, ok := p.Lookup(name)
	if !ok {
		return Method{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if m.RequestType != "" && m.RequestType != reqType {
		return Method{}, fmt.Errorf("method %q: request type mismatch: descriptor wants %q, got %q",
			name, m.RequestType, reqType)
	}
	if m.ResponseType != "" && m.ResponseType != respType {
		return Method{}, fmt.Errorf("method %q: response type mismatch: descriptor wants %q, got %q",
			name, m.ResponseType, respType)
	}
	return m, nil
}

// MethodPath derives the transport path from a dotted method name per
// §4.5/§6: the last '.' becomes '/', prefixed with '/'. "pkg.Svc.Method"
// becomes "/pkg.Svc/Method".
func MethodPath(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return "/" + name
	}
	return "/" + name[:i] + "/" + name[i+1:]
}

// LoadJSON parses a catalog of the form:
//
//	{
//	  "pkg.Svc.Method": {
//	    "request": "pkg.Request",
//	    "response": "pkg.Response",
//	    "clientStreaming": false,
//	    "serverStreaming": false
//	  }
//	}
//
// into the pool, using jsonparser.ObjectEach rather than a full unmarshal,
// matching how the teacher library's json package scans wire JSON.
func (p *Pool) LoadJSON(data []byte) error {
	return json.ObjectEach(data, func(key, val []byte) error {
		name := json.SQ(key)
		var m Method
		m.Name = name
		if err := json.ObjectEach(val, func(fk, fv []byte) error {
			switch json.SQ(fk) {
			case "request":
				m.RequestType = json.SQ(fv)
			case "response":
				m.ResponseType = json.SQ(fv)
			case "clientStreaming":
				b, err := strconv.ParseBool(json.SQ(fv))
				if err != nil {
					return fmt.Errorf("method %q: clientStreaming: %w", name, err)
				}
				m.ClientStreaming = b
			case "serverStreaming":
				b, err := strconv.ParseBool(json.SQ(fv))
				if err != nil {
					return fmt.Errorf("method %q: serverStreaming: %w", name, err)
				}
				m.ServerStreaming = b
			}
			return nil
		}); err != nil {
			return err
		}
		p.Register(m)
		return nil
	})
}
