package suggestionService

import (
	"AIService/internal/api/suggestion"
	"AIService/internal/entity"
	"AIService/pkg/log"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"time"
)

func (s *suggestionService) Suggest(ctx context.Context, text string) suggestion.SuggestionResult {
	entry := log.WithRequestID(s.log, ctx)

	if s.classifier == nil || s.store == nil {
		entry.WithFields(logrus.Fields{
			"classifier_loaded": s.classifier != nil,
			"store_loaded":      s.store != nil,
		}).Warn("Suggestion requested before start-up completed")
		return predictionError()
	}

	start := time.Now()
	result, err := s.classifier.Classify(ctx, text)
	if err != nil {
		log.ErrorWithTraceID(s.log, log.Fields{
			log.RequestIDKey: requestIDFrom(ctx),
			"error":          err.Error(),
			"text_length":    len(text),
		}, "Intent prediction failed")
		return predictionError()
	}

	resolution := Resolve(result.LabelIndex, s.store.Mapping, s.store.Table)

	fields := logrus.Fields{
		"label":      result.LabelIndex,
		"label_name": resolution.LabelName,
		"outcome":    resolution.Outcome,
		"latency":    time.Since(start).String(),
	}
	if result.LabelIndex >= 0 && result.LabelIndex < len(result.Logits) {
		fields["score"] = result.Logits[result.LabelIndex]
	}
	switch resolution.Outcome {
	case suggestion.OutcomeMatched:
		entry.WithFields(fields).Debug("Intent resolved")
	default:
		entry.WithFields(fields).Warn("Intent could not be resolved to a reply")
	}

	return suggestion.SuggestionResult{
		Text:       resolution.Text,
		LabelIndex: result.LabelIndex,
		LabelName:  resolution.LabelName,
		Outcome:    resolution.Outcome,
	}
}

func (s *suggestionService) Status() suggestion.ServiceStatus {
	return suggestion.ServiceStatus{
		ClassifierReady: s.classifier != nil && s.classifier.IsReady(),
		StoreLoaded:     s.store != nil,
	}
}

// Resolve turns a predicted label index into the reply text.
func Resolve(labelIndex int, mapping entity.LabelMapping, table entity.ResponseTable) suggestion.Resolution {
	row, ok := mapping.Find(labelIndex)
	if !ok {
		return suggestion.Resolution{
			Text:    suggestion.UnknownIntentText,
			Outcome: suggestion.OutcomeUnknownIntent,
		}
	}

	reply, ok := table.Lookup(row.LabelName)
	if !ok {
		return suggestion.Resolution{
			Text:      suggestion.ResponseMissingText,
			LabelName: row.LabelName,
			Outcome:   suggestion.OutcomeResponseMissing,
		}
	}

	return suggestion.Resolution{
		Text:      reply,
		LabelName: row.LabelName,
		Outcome:   suggestion.OutcomeMatched,
	}
}

func predictionError() suggestion.SuggestionResult {
	return suggestion.SuggestionResult{
		Text:       suggestion.PredictionErrorText,
		LabelIndex: -1,
		Outcome:    suggestion.OutcomePredictionError,
	}
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(log.RequestIDKey).(string); ok {
		return id
	}
	return ""
}
