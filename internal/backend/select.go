package backend

import (
	"log/slog"

	"github.com/cockroachdb/errors"
)

// Plan returns the backends to try, in order. A forced request yields only
// the requested backend; otherwise every other known backend follows it in
// the order of Kinds.
func Plan(requested Kind, forced bool) []Kind {
	plan := []Kind{requested}
	if forced {
		return plan
	}
	for _, k := range Kinds {
		if k != requested {
			plan = append(plan, k)
		}
	}
	return plan
}

// Selector initializes the first backend of a plan that succeeds.
type Selector struct {
	Factories map[Kind]Factory
	Logger    *slog.Logger
}

// Select walks Plan(requested, forced) and returns the first backend that
// initializes. If none does, the returned error combines every attempt and
// is marked ErrInit.
func (s *Selector) Select(requested Kind, forced bool) (Backend, error) {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}

	var failures error
	plan := Plan(requested, forced)
	for i, kind := range plan {
		log.Info("loading backend", "backend", kind)

		factory, ok := s.Factories[kind]
		if !ok {
			err := errors.Newf("backend %s: not available in this build", kind)
			failures = errors.CombineErrors(failures, err)
			log.Warn("backend unavailable", "backend", kind)
			continue
		}

		b, err := factory()
		if err == nil {
			log.Info("initialization finished", "backend", kind, "forced", forced)
			return b, nil
		}

		failures = errors.CombineErrors(failures, errors.Wrapf(err, "backend %s", kind))
		if i+1 < len(plan) {
			log.Warn("backend failed, falling back",
				"backend", kind, "next", plan[i+1], "err", err)
		}
	}

	log.Error("initialization failed", "requested", requested, "forced", forced)
	return nil, InitFailure(errors.Wrap(failures, "no backend could be initialized"))
}
