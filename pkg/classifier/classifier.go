//go:generate go run go.uber.org/mock/mockgen -source=classifier.go -destination=../../mocks/mock_classifier.go -package=mocks

package classifier

import (
	"context"
	"errors"
)

var (
	ErrClassifierUnavailable = errors.New("intent classifier is not loaded")
	ErrPredictionFailed      = errors.New("intent prediction failed")
	ErrEmptyLogits           = errors.New("model returned no scores")
)

// ClassificationResult is the outcome of one forward pass.
type ClassificationResult struct {
	LabelIndex int       `json:"label_index"`
	Logits     []float32 `json:"logits,omitempty"`
}

type IClassifier interface {
	// Classify returns the index of the highest scoring class for text.
	Classify(ctx context.Context, text string) (ClassificationResult, error)
	IsReady() bool
	Close() error
}

// Argmax returns the index of the largest score. Ties resolve to the lowest index.
func Argmax(scores []float32) (int, error) {
	if len(scores) == 0 {
		return 0, ErrEmptyLogits
	}

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best, nil
}

type unavailable struct {
	cause error
}

// Unavailable returns a classifier that fails every call. It stands in for a model
// that could not be loaded when the server runs in degrade mode.
func Unavailable(cause error) IClassifier {
	return &unavailable{cause: cause}
}

func (u *unavailable) Classify(_ context.Context, _ string) (ClassificationResult, error) {
	if u.cause != nil {
		return ClassificationResult{}, errors.Join(ErrClassifierUnavailable, u.cause)
	}
	return ClassificationResult{}, ErrClassifierUnavailable
}

func (u *unavailable) IsReady() bool {
	return false
}

func (u *unavailable) Close() error {
	return nil
}
