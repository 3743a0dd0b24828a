package suggestion

// SuggestionRequest is the documented body of POST /predict. The handler reads
// the text key itself so that a missing key and a non-string value stay distinct.
type SuggestionRequest struct {
	Text string `json:"text"`
}

type SuggestionResponse struct {
	ResponseText string `json:"responseText"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Message         string `json:"message"`
	ClassifierReady bool   `json:"classifier_ready"`
	StoreLoaded     bool   `json:"store_loaded"`
}

type Outcome string

const (
	OutcomeMatched         Outcome = "matched"
	OutcomeUnknownIntent   Outcome = "unknown_intent"
	OutcomeResponseMissing Outcome = "response_missing"
	OutcomePredictionError Outcome = "prediction_error"
)

// Resolution is the result of mapping a label index to a reply.
type Resolution struct {
	Text      string
	LabelName string
	Outcome   Outcome
}

type SuggestionResult struct {
	Text       string
	LabelIndex int
	LabelName  string
	Outcome    Outcome
}

type ServiceStatus struct {
	ClassifierReady bool
	StoreLoaded     bool
}
