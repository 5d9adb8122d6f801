package registry

import (
	"fmt"
	"strings"

	"github.com/okian/alscreen/internal/domain/balance"
	"github.com/okian/alscreen/internal/domain/classifier"
	"github.com/okian/alscreen/internal/domain/feature"
	"github.com/okian/alscreen/internal/domain/query"
)

// Default returns a registry with every built-in model registered.
func Default() *Registry {
	r := New()

	r.RegisterExtractor("tfidf", func(p Params) (feature.Extractor, error) {
		if err := strict(p, "min_df", "ngram_max"); err != nil {
			return nil, err
		}
		minDF, err := p.Int("min_df", 1)
		if err != nil {
			return nil, err
		}
		ngram, err := p.Int("ngram_max", 1)
		if err != nil {
			return nil, err
		}
		if minDF < 1 || ngram < 1 || ngram > 2 {
			return nil, fmt.Errorf("min_df must be >= 1 and ngram_max 1 or 2")
		}
		return feature.NewTFIDF(feature.WithMinDF(minDF), feature.WithNgramMax(ngram)), nil
	})
	r.RegisterExtractor("embedding", func(p Params) (feature.Extractor, error) {
		if err := strict(p); err != nil {
			return nil, err
		}
		return feature.NewEmbedding(), nil
	})

	r.RegisterBalance("simple", func(p Params) (balance.Strategy, error) {
		return balance.NewSimple(), strict(p)
	})
	r.RegisterBalance("weighted", func(p Params) (balance.Strategy, error) {
		return balance.NewWeighted(), strict(p)
	})
	r.RegisterBalance("undersample", func(p Params) (balance.Strategy, error) {
		if err := strict(p, "ratio"); err != nil {
			return nil, err
		}
		ratio, err := p.Float("ratio", 1)
		if err != nil {
			return nil, err
		}
		if ratio <= 0 {
			return nil, fmt.Errorf("ratio must be positive")
		}
		return balance.NewUndersample(balance.WithRatio(ratio)), nil
	})
	r.RegisterBalance("double", func(p Params) (balance.Strategy, error) {
		if err := strict(p, "a", "alpha", "b", "beta"); err != nil {
			return nil, err
		}
		var curve [4]float64
		for i, k := range []struct {
			name string
			def  float64
		}{{"a", 2.155}, {"alpha", 0.94}, {"b", 0.789}, {"beta", 1}} {
			v, err := p.Float(k.name, k.def)
			if err != nil {
				return nil, err
			}
			curve[i] = v
		}
		if curve[0] <= 0 || curve[1] < 0 || curve[2] <= 0 || curve[2] > 1 || curve[3] < 0 {
			return nil, fmt.Errorf("double balance needs a > 0, alpha >= 0, 0 < b <= 1, beta >= 0")
		}
		return balance.NewDouble(
			balance.WithRelevantCurve(curve[0], curve[1]),
			balance.WithIrrelevantCurve(curve[2], curve[3]),
		), nil
	})

	r.RegisterClassifier("nb", func(p Params) (classifier.Classifier, error) {
		if err := strict(p, "alpha"); err != nil {
			return nil, err
		}
		alpha, err := p.Float("alpha", 3.822)
		if err != nil {
			return nil, err
		}
		if alpha <= 0 {
			return nil, fmt.Errorf("alpha must be positive")
		}
		return classifier.NewNaiveBayes(classifier.WithAlpha(alpha)), nil
	})
	r.RegisterClassifier("logistic", func(p Params) (classifier.Classifier, error) {
		if err := strict(p, "epochs", "learning_rate", "l2"); err != nil {
			return nil, err
		}
		epochs, err := p.Int("epochs", 20)
		if err != nil {
			return nil, err
		}
		lr, err := p.Float("learning_rate", 0.1)
		if err != nil {
			return nil, err
		}
		l2, err := p.Float("l2", 1e-4)
		if err != nil {
			return nil, err
		}
		if epochs < 1 || lr <= 0 || l2 < 0 {
			return nil, fmt.Errorf("epochs must be >= 1, learning_rate > 0 and l2 >= 0")
		}
		return classifier.NewLogistic(classifier.WithEpochs(epochs), classifier.WithLearningRate(lr), classifier.WithL2(l2)), nil
	})

	r.RegisterQuery("max", func(p Params) (query.Strategy, error) {
		return query.NewMax(), strict(p)
	})
	r.RegisterQuery("random", func(p Params) (query.Strategy, error) {
		return query.NewRandom(), strict(p)
	})
	r.RegisterQuery("uncertainty", func(p Params) (query.Strategy, error) {
		return query.NewUncertainty(), strict(p)
	})
	r.RegisterQuery("max_random", func(p Params) (query.Strategy, error) {
		if err := strict(p, "mix_ratio"); err != nil {
			return nil, err
		}
		ratio, err := p.Float("mix_ratio", 0.95)
		if err != nil {
			return nil, err
		}
		if ratio < 0 || ratio > 1 {
			return nil, fmt.Errorf("mix_ratio must be within [0, 1]")
		}
		return query.NewMaxRandom(query.WithMixRatio(ratio)), nil
	})

	return r
}

// strict rejects parameters the model does not understand.
func strict(p Params, known ...string) error {
	if unknown := p.Unknown(known...); len(unknown) > 0 {
		return fmt.Errorf("unknown params: %s", strings.Join(unknown, ", "))
	}
	return nil
}
