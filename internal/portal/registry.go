package portal

import (
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/gateway"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/login"
	"github.com/ovaphlow/pitchfork/service-campus-portal/pkg/utilities"
)

// Registry keeps one orchestrator per rendered form instance, so a second
// POST of the same page while the first is in flight is rejected. Idle
// instances expire after the configured TTL; an instance never expires while
// it is submitting.
type Registry struct {
	cache  *cache.Cache
	gw     gateway.Gateway
	logger *zap.SugaredLogger
}

func NewRegistry(gw gateway.Gateway, ttl time.Duration, logger *zap.SugaredLogger) *Registry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Registry{cache: cache.New(ttl, 2*ttl), gw: gw, logger: logger}
}

type instance struct {
	form string
	orch *login.Orchestrator
}

// Acquire returns the orchestrator of instance id of form. An unknown, expired
// or foreign id gets a fresh instance with a new id.
func (r *Registry) Acquire(form, id string) (string, *login.Orchestrator) {
	if id != "" {
		if v, ok := r.cache.Get(id); ok {
			if inst := v.(*instance); inst.form == form {
				if inst.orch.State() == login.Idle {
					r.cache.SetDefault(id, inst)
				}
				return id, inst.orch
			}
		}
	}
	id = utilities.NewKSUID()
	inst := &instance{form: form}
	inst.orch = login.New(r.gw,
		login.WithForm(form),
		login.WithLogger(r.logger),
		login.WithTransitionHook(r.pin(id, inst)),
	)
	if err := r.cache.Add(id, inst, cache.DefaultExpiration); err != nil {
		// ksuid collision; take whatever is stored
		if v, ok := r.cache.Get(id); ok {
			inst = v.(*instance)
		}
	}
	return id, inst.orch
}

// pin keeps id in the cache without expiry while its request is in flight and
// restarts the idle TTL once it is back to Idle.
func (r *Registry) pin(id string, inst *instance) func(from, to login.State) {
	return func(_, to login.State) {
		switch to {
		case login.Submitting:
			r.cache.Set(id, inst, cache.NoExpiration)
		case login.Idle:
			r.cache.SetDefault(id, inst)
		}
	}
}

// Len reports the number of live instances.
func (r *Registry) Len() int { return r.cache.ItemCount() }
