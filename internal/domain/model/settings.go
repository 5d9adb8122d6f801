package model

// RoleConfig selects an implementation for one model role.
type RoleConfig struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

// Settings is the full model configuration of a review.
type Settings struct {
	Classifier RoleConfig `json:"classifier"`
	Query      RoleConfig `json:"query_strategy"`
	Balance    RoleConfig `json:"balance_strategy"`
	Feature    RoleConfig `json:"feature_extraction"`
	Seed       int64      `json:"seed"`
	NInstances int        `json:"n_instances"`
}

// Clone returns a deep copy of s; params maps are copied one level deep.
func (s Settings) Clone() Settings {
	out := s
	out.Classifier.Params = cloneParams(s.Classifier.Params)
	out.Query.Params = cloneParams(s.Query.Params)
	out.Balance.Params = cloneParams(s.Balance.Params)
	out.Feature.Params = cloneParams(s.Feature.Params)
	return out
}

func cloneParams(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
