//go:generate go run go.uber.org/mock/mockgen -source=service.go -destination=../../../../mocks/mock_suggestion_service.go -package=mocks

package suggestionService

import (
	"AIService/internal/api/suggestion"
	suggestionRepository "AIService/internal/api/suggestion/repository"
	"AIService/pkg/classifier"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type ISuggestionService interface {
	// Suggest never fails: every failure is folded into one of the fallback texts.
	Suggest(ctx context.Context, text string) suggestion.SuggestionResult
	Status() suggestion.ServiceStatus
}

type suggestionService struct {
	log        *logrus.Logger
	store      *suggestionRepository.Store
	classifier classifier.IClassifier
}

// NewSuggestionService accepts a nil store or a nil classifier. Both leave the
// service answering with the prediction error text.
func NewSuggestionService(
	log *logrus.Logger,
	store *suggestionRepository.Store,
	classifier classifier.IClassifier,
) ISuggestionService {
	return &suggestionService{
		log:        log,
		store:      store,
		classifier: classifier,
	}
}
