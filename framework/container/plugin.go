package container

// Selector computes further import targets at resolution time.
//
// The returned identities are processed as if they had been declared in
// place of the selector. An empty result is valid and imports nothing.
// Implementations must be deterministic for a given Snapshot.
//
//	// Spring: class CacheSelector implements ImportSelector { ... }
//	sel := container.SelectorFunc(func(s container.Snapshot) ([]string, error) {
//	    if s.Property("CACHE_DRIVER") == "redis" {
//	        return []string{"RedisCacheModule"}, nil
//	    }
//	    return []string{"MemoryCacheModule"}, nil
//	})
type Selector interface {
	Select(s Snapshot) ([]string, error)
}

// Registrar emits terminal definitions into a Sink.
//
// Nothing a Registrar emits is ever expanded further.
type Registrar interface {
	Register(s Snapshot, sink *Sink) error
}

// SelectorFunc adapts a plain function to Selector.
type SelectorFunc func(s Snapshot) ([]string, error)

func (f SelectorFunc) Select(s Snapshot) ([]string, error) { return f(s) }

// RegistrarFunc adapts a plain function to Registrar.
type RegistrarFunc func(s Snapshot, sink *Sink) error

func (f RegistrarFunc) Register(s Snapshot, sink *Sink) error { return f(s, sink) }

// Sink collects the definitions a Registrar emits during one invocation.
// Definitions are merged only after the Registrar returns without error.
type Sink struct {
	source  string
	origin  Chain
	emitted []Definition
}

func newSink(source string, origin Chain) *Sink {
	return &Sink{source: source, origin: origin}
}

// Emit queues a generated definition.
func (s *Sink) Emit(name string, payload any) {
	s.emitted = append(s.emitted, Definition{
		Name:    name,
		Kind:    KindGenerated,
		Payload: payload,
		Source:  s.source,
		Origin:  s.origin.Clone(),
	})
}

// Len returns how many definitions have been emitted so far.
func (s *Sink) Len() int { return len(s.emitted) }
