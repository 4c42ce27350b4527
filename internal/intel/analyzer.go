package intel

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/SPY-Github22/Shining-Zenith/internal/llm"
)

// Analyzer runs both extraction channels over the caller turns, merges their
// output into the session's current record and reclassifies the scam type.
type Analyzer struct {
	model      *ModelExtractor
	classifier *Classifier
}

func NewAnalyzer(client llm.Client, log *logrus.Entry) *Analyzer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Analyzer{
		model:      NewModelExtractor(client, log),
		classifier: NewClassifier(client, log),
	}
}

// Analyze returns the enriched record and the (possibly revised) scam type.
// The pattern channel is the base; model findings are unioned in and can
// never remove a pattern finding. The current record is not mutated.
func (a *Analyzer) Analyze(ctx context.Context, callerTexts []string, current Record) (Record, string) {
	merged := Merge(current, Extract(callerTexts))
	merged = Merge(merged, a.model.Extract(ctx, callerTexts))
	scamType := a.classifier.Classify(ctx, callerTexts)
	return merged, scamType
}
