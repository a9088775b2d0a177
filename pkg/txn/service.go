package txn

import (
	"context"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Service records the transaction disposition of every method of one
// business service. Every write method must end up either wrapped or
// excluded with a justification; Report and Audit make the outcome
// inspectable.
type Service struct {
	name string
	mgr  *Manager
	prop Propagation
	log  *slog.Logger

	mu      sync.Mutex
	methods map[string]methodInfo
}

type methodInfo struct {
	wrapped     bool
	propagation Propagation
	reason      string
}

// ServiceOption configures a Service registration.
type ServiceOption func(*Service)

// WithPropagation sets the default propagation for wrapped methods.
func WithPropagation(p Propagation) ServiceOption {
	return func(s *Service) { s.prop = p }
}

// WithLogger sets the logger used by Audit warnings.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates a registration for the named service on the given
// manager. Panics on an empty name or nil manager; service wiring errors are
// fatal at startup.
func NewService(name string, mgr *Manager, opts ...ServiceOption) *Service {
	if name == "" {
		panic("txn: service requires a name")
	}
	if mgr == nil {
		panic("txn: service " + name + " requires a transaction manager")
	}
	s := &Service{
		name:    name,
		mgr:     mgr,
		prop:    Required,
		log:     slog.Default(),
		methods: make(map[string]methodInfo),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) register(method string, info methodInfo) {
	if method == "" {
		panic("txn: empty method name on service " + s.name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.methods[method]; dup {
		panic("txn: method " + method + " registered twice on service " + s.name)
	}
	s.methods[method] = info
}

// Wrap registers method as transactional under the service's default
// propagation and returns a distinct wrapped function. The wrapper resolves
// the transaction per the policy, runs fn inside it, and leaves the outcome
// to the owning invocation. Panics on a nil fn.
func Wrap[In, Out any](s *Service, method string, fn func(context.Context, In) (Out, error)) func(context.Context, In) (Out, error) {
	return WrapWith(s, method, s.prop, fn)
}

// WrapWith is Wrap with an explicit propagation mode.
func WrapWith[In, Out any](s *Service, method string, p Propagation, fn func(context.Context, In) (Out, error)) func(context.Context, In) (Out, error) {
	if fn == nil {
		panic("txn: nil function for method " + method + " on service " + s.name)
	}
	s.register(method, methodInfo{wrapped: true, propagation: p})
	return func(ctx context.Context, in In) (Out, error) {
		var out Out
		err := s.mgr.Run(ctx, p, func(ctx context.Context) error {
			var err error
			out, err = fn(ctx, in)
			return err
		})
		return out, err
	}
}

// WrapVoid registers and wraps a method without a result value.
func WrapVoid[In any](s *Service, method string, fn func(context.Context, In) error) func(context.Context, In) error {
	return WrapVoidWith(s, method, s.prop, fn)
}

// WrapVoidWith is WrapVoid with an explicit propagation mode.
func WrapVoidWith[In any](s *Service, method string, p Propagation, fn func(context.Context, In) error) func(context.Context, In) error {
	if fn == nil {
		panic("txn: nil function for method " + method + " on service " + s.name)
	}
	s.register(method, methodInfo{wrapped: true, propagation: p})
	return func(ctx context.Context, in In) error {
		return s.mgr.Run(ctx, p, func(ctx context.Context) error {
			return fn(ctx, in)
		})
	}
}

// Exclude records method as deliberately non-transactional and returns fn
// untouched. The justification is mandatory and appears in Report. Panics on
// a nil fn or blank reason.
func Exclude[F any](s *Service, method, reason string, fn F) F {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		panic("txn: nil function for excluded method " + method + " on service " + s.name)
	}
	if strings.TrimSpace(reason) == "" {
		panic("txn: exclusion of method " + method + " on service " + s.name + " requires a justification")
	}
	s.register(method, methodInfo{reason: reason})
	return fn
}

// MethodReport describes one method's transaction disposition.
type MethodReport struct {
	Name        string
	Wrapped     bool
	Propagation Propagation
	Reason      string
}

// Report lists every registered method of the service with its disposition,
// sorted by method name.
func (s *Service) Report() []MethodReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]MethodReport, 0, len(s.methods))
	for name, info := range s.methods {
		out = append(out, MethodReport{
			Name:        name,
			Wrapped:     info.wrapped,
			Propagation: info.propagation,
			Reason:      info.reason,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// writeVerbs are the method-name prefixes Audit treats as write-like.
var writeVerbs = []string{"create", "update", "delete", "remove", "save", "upsert", "insert"}

// Audit checks the given full method list against registered dispositions and
// flags write-verb-named methods that have none. The check is heuristic and
// non-fatal: it logs a warning per finding and returns the flagged names, but
// never blocks a request.
func (s *Service) Audit(methods ...string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var flagged []string
	for _, name := range methods {
		if _, ok := s.methods[name]; ok {
			continue
		}
		lower := strings.ToLower(name)
		for _, verb := range writeVerbs {
			if strings.HasPrefix(lower, verb) {
				flagged = append(flagged, name)
				s.log.Warn("write-like method has no transaction disposition",
					slog.String("service", s.name),
					slog.String("method", name))
				break
			}
		}
	}
	return flagged
}
