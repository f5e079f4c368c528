package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/merchant-ops/internal/blackboard"
	"github.com/sells-group/merchant-ops/internal/cost"
	"github.com/sells-group/merchant-ops/internal/model"
	"github.com/sells-group/merchant-ops/internal/resilience"
)

const (
	// SpikeVelocity is the complaint velocity above which a spike is declared.
	SpikeVelocity = 7.0
	// SpikeComplaintRatio is the complaint share above which a spike is declared.
	SpikeComplaintRatio = 0.5
)

const supportSystemPrompt = `You analyze customer support messages for an online merchant.
Classify each message as exactly one of: Inquiry, Complaint, Suggestion, Transactional Request.
Estimate overall sentiment and how fast complaints are arriving.

Respond with a single JSON object and nothing else:
{
  "message_classifications": [{"id": "M001", "type": "Complaint", "sentiment": "negative"}],
  "overall_sentiment": -0.5,
  "complaint_velocity": 5.0,
  "trending_topics": ["late delivery"],
  "spike_detected": false
}

overall_sentiment is between -1 and 1. complaint_velocity is between 0 and 10.`

type supportResponse struct {
	MessageClassifications []model.MessageClassification `json:"message_classifications"`
	OverallSentiment       float64                       `json:"overall_sentiment"`
	ComplaintVelocity      float64                       `json:"complaint_velocity"`
	TrendingTopics         []string                      `json:"trending_topics"`
	SpikeDetected          bool                          `json:"spike_detected"`
}

// SupportAgent classifies customer messages and detects complaint spikes.
type SupportAgent struct {
	inf *Inferencer
}

// NewSupportAgent creates a SupportAgent.
func NewSupportAgent(inf *Inferencer) *SupportAgent {
	return &SupportAgent{inf: inf}
}

// Analyze never fails: errors degrade to zero sentiment, no spike, and an
// error-shaped summary.
func (a *SupportAgent) Analyze(ctx context.Context, messages []model.CustomerMessage, ledger *cost.Ledger) blackboard.Update {
	log := zap.L().With(zap.String("stage", "support"), zap.String("model", a.inf.Model()))

	if len(messages) == 0 {
		log.Info("support: no messages")
		return neutralSupport(&model.SupportSummary{Status: "no_data"}, "no_data")
	}

	res, err := a.classify(ctx, messages, ledger)
	if err != nil {
		errType := resilience.ClassifyError(err)
		log.Warn("support: analysis failed, assuming neutral sentiment",
			zap.Error(err),
			zap.String("error_type", errType),
		)
		return neutralSupport(&model.SupportSummary{Error: err.Error(), ErrorType: errType}, "error")
	}

	sentiment := clamp(res.OverallSentiment, -1, 1)
	velocity := clamp(res.ComplaintVelocity, 0, 10)

	complaints := 0
	for _, c := range res.MessageClassifications {
		if c.IsComplaint() {
			complaints++
		}
	}
	spike := DetectSpike(res.SpikeDetected, velocity, complaints, len(res.MessageClassifications))

	summary := &model.SupportSummary{
		Classifications: res.MessageClassifications,
		Sentiment:       sentiment,
		Velocity:        velocity,
		Topics:          res.TrendingTopics,
		TotalMessages:   len(messages),
		ComplaintCount:  complaints,
	}

	log.Info("support: analyzed",
		zap.Int("classified", len(res.MessageClassifications)),
		zap.Float64("sentiment", sentiment),
		zap.Float64("velocity", velocity),
		zap.Bool("spike", spike),
	)

	return blackboard.Update{
		SupportSummary:         summary,
		SentimentScore:         blackboard.Float(sentiment),
		ComplaintSpikeDetected: blackboard.Bool(spike),
		AuditLog: []model.AuditEntry{model.NewAuditEntry("support_analyzed", map[string]any{
			"messages":   len(messages),
			"complaints": complaints,
			"sentiment":  sentiment,
			"velocity":   velocity,
			"spike":      spike,
		})},
	}
}

// DetectSpike is true when the provider flagged a spike, velocity exceeds
// SpikeVelocity, or complaints exceed SpikeComplaintRatio of classified messages.
func DetectSpike(flagged bool, velocity float64, complaints, classified int) bool {
	if flagged || velocity > SpikeVelocity {
		return true
	}
	return classified > 0 && float64(complaints)/float64(classified) > SpikeComplaintRatio
}

func (a *SupportAgent) classify(ctx context.Context, messages []model.CustomerMessage, ledger *cost.Ledger) (*supportResponse, error) {
	payload, err := json.Marshal(messages)
	if err != nil {
		return nil, eris.Wrap(err, "agent: encode messages")
	}

	text, err := a.inf.Complete(ctx, "support", supportSystemPrompt, fmt.Sprintf("Customer messages:\n%s", payload), ledger)
	if err != nil {
		return nil, err
	}

	var res supportResponse
	if err := json.Unmarshal([]byte(cleanJSON(text)), &res); err != nil {
		return nil, eris.Wrap(err, "agent: decode support response")
	}
	return &res, nil
}

func neutralSupport(summary *model.SupportSummary, status string) blackboard.Update {
	return blackboard.Update{
		SupportSummary:         summary,
		SentimentScore:         blackboard.Float(0),
		ComplaintSpikeDetected: blackboard.Bool(false),
		AuditLog: []model.AuditEntry{model.NewAuditEntry("support_analyzed", map[string]any{
			"status": status,
		})},
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
