package classifier

import "errors"

// Sentinel errors for the classifier package.
var (
	ErrInsufficientClassDiversity = errors.New("classifier: training data needs both classes")
	ErrShapeMismatch              = errors.New("classifier: rows, labels and weights differ in length")
	ErrNegativeFeature            = errors.New("classifier: negative feature value")
	ErrDimensionMismatch          = errors.New("classifier: feature width differs from training")
)
