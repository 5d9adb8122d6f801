// Package registry maps model names to factories for each of the four model
// roles and builds validated model sets from settings.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/okian/alscreen/internal/domain/balance"
	"github.com/okian/alscreen/internal/domain/classifier"
	"github.com/okian/alscreen/internal/domain/feature"
	"github.com/okian/alscreen/internal/domain/model"
	"github.com/okian/alscreen/internal/domain/query"
)

// Role names used in configuration errors.
const (
	RoleClassifier = "classifier"
	RoleQuery      = "query_strategy"
	RoleBalance    = "balance_strategy"
	RoleFeature    = "feature_extraction"
)

// Factory types, one per role.
type (
	ExtractorFactory  = func(Params) (feature.Extractor, error)
	BalanceFactory    = func(Params) (balance.Strategy, error)
	ClassifierFactory = func(Params) (classifier.Classifier, error)
	QueryFactory      = func(Params) (query.Strategy, error)
)

// Models is a built, compatible set of role implementations.
type Models struct {
	Extractor  feature.Extractor
	Balance    balance.Strategy
	Classifier classifier.Classifier
	Query      query.Strategy
}

// Registry holds the factories known to a review. It is safe for concurrent
// use.
type Registry struct {
	mu          sync.RWMutex
	extractors  map[string]ExtractorFactory
	balances    map[string]BalanceFactory
	classifiers map[string]ClassifierFactory
	queries     map[string]QueryFactory
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		extractors:  make(map[string]ExtractorFactory),
		balances:    make(map[string]BalanceFactory),
		classifiers: make(map[string]ClassifierFactory),
		queries:     make(map[string]QueryFactory),
	}
}

// RegisterExtractor adds or replaces a feature extractor factory.
func (r *Registry) RegisterExtractor(name string, f ExtractorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[name] = f
}

// RegisterBalance adds or replaces a balance strategy factory.
func (r *Registry) RegisterBalance(name string, f BalanceFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[name] = f
}

// RegisterClassifier adds or replaces a classifier factory.
func (r *Registry) RegisterClassifier(name string, f ClassifierFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classifiers[name] = f
}

// RegisterQuery adds or replaces a query strategy factory.
func (r *Registry) RegisterQuery(name string, f QueryFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries[name] = f
}

// Names lists the registered names of role, sorted.
func (r *Registry) Names(role string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch role {
	case RoleFeature:
		return keys(r.extractors)
	case RoleBalance:
		return keys(r.balances)
	case RoleClassifier:
		return keys(r.classifiers)
	case RoleQuery:
		return keys(r.queries)
	default:
		return nil
	}
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build instantiates every role of settings and checks that the choices work
// together. All failures are *ConfigurationError.
func (r *Registry) Build(s model.Settings) (Models, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		m   Models
		err error
	)
	if m.Extractor, err = build(r.extractors, RoleFeature, s.Feature); err != nil {
		return Models{}, err
	}
	if m.Balance, err = build(r.balances, RoleBalance, s.Balance); err != nil {
		return Models{}, err
	}
	if m.Classifier, err = build(r.classifiers, RoleClassifier, s.Classifier); err != nil {
		return Models{}, err
	}
	if m.Query, err = build(r.queries, RoleQuery, s.Query); err != nil {
		return Models{}, err
	}

	if m.Classifier.RequiresNonNegative() && !m.Extractor.NonNegative() {
		return Models{}, &ConfigurationError{
			Role:   RoleClassifier,
			Name:   s.Classifier.Name,
			Reason: fmt.Sprintf("requires non-negative features, %q yields signed values", s.Feature.Name),
		}
	}
	if s.NInstances < 1 {
		return Models{}, &ConfigurationError{Role: "n_instances", Name: fmt.Sprint(s.NInstances), Reason: "must be at least 1"}
	}
	return m, nil
}

func build[T any](factories map[string]func(Params) (T, error), role string, rc model.RoleConfig) (T, error) {
	var zero T
	f, ok := factories[rc.Name]
	if !ok {
		return zero, &ConfigurationError{Role: role, Name: rc.Name, Available: keys(factories), Reason: "unknown name"}
	}
	v, err := f(Params(rc.Params))
	if err != nil {
		return zero, &ConfigurationError{Role: role, Name: rc.Name, Reason: err.Error()}
	}
	return v, nil
}
