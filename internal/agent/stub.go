package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/merchant-ops/internal/model"
	"github.com/sells-group/merchant-ops/pkg/anthropic"
)

var _ anthropic.Client = (*StubClient)(nil)

var complaintWords = []string{
	"broken", "refund", "terrible", "worst", "angry", "damaged", "late",
	"never arrived", "scam", "disappointed", "awful", "complaint",
}

// StubClient answers catalog and support prompts deterministically without
// calling a provider. Used by --offline runs.
type StubClient struct{}

// CreateMessage implements anthropic.Client.
func (s *StubClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	var system, user string
	for _, b := range req.System {
		system += b.Text
	}
	for _, m := range req.Messages {
		user += m.Content
	}

	payload := user
	if i := strings.Index(payload, "["); i >= 0 {
		payload = payload[i:]
	}

	var (
		out any
		err error
	)
	switch {
	case strings.Contains(system, "product catalogs"):
		out, err = stubCatalog(payload)
	case strings.Contains(system, "customer support"):
		out, err = stubSupport(payload)
	default:
		return nil, eris.New("stub: unrecognized prompt")
	}
	if err != nil {
		return nil, err
	}

	text, err := json.Marshal(out)
	if err != nil {
		return nil, eris.Wrap(err, "stub: encode response")
	}
	return &anthropic.MessageResponse{
		ID:         "stub-msg",
		Model:      req.Model,
		Content:    []anthropic.ContentBlock{{Type: "text", Text: string(text)}},
		StopReason: "end_turn",
		Usage: anthropic.TokenUsage{
			InputTokens:  int64(len(system)+len(user)) / 4,
			OutputTokens: int64(len(text)) / 4,
		},
	}, nil
}

func stubCatalog(payload string) (*catalogResponse, error) {
	var products []model.Product
	if err := json.Unmarshal([]byte(payload), &products); err != nil {
		return nil, eris.Wrap(err, "stub: decode products")
	}

	confidence := 0.9
	res := &catalogResponse{ConfidenceScore: &confidence, Issues: []model.CatalogIssue{}}
	for _, p := range products {
		p.Name = strings.TrimSpace(p.Name)
		switch {
		case p.Price <= 0:
			res.Issues = append(res.Issues, model.CatalogIssue{
				Type: model.IssueCritical, ProductID: p.ID,
				Message: "Price is missing or not positive", Suggestion: "Set a valid list price",
			})
		case p.Cost == nil:
			res.Issues = append(res.Issues, model.CatalogIssue{
				Type: model.IssueWarning, ProductID: p.ID,
				Message: "Cost is missing", Suggestion: "Add unit cost so margins can be enforced",
			})
		case *p.Cost > p.Price:
			res.Issues = append(res.Issues, model.CatalogIssue{
				Type: model.IssueWarning, ProductID: p.ID, Severity: "medium",
				Message: "Cost exceeds price", Suggestion: "Verify cost and price",
			})
		}
		if p.Name == "" {
			res.Issues = append(res.Issues, model.CatalogIssue{
				Type: model.IssueInfo, ProductID: p.ID, Message: "Product name is empty",
			})
		}
		res.NormalizedProducts = append(res.NormalizedProducts, p)
	}
	return res, nil
}

func stubSupport(payload string) (*supportResponse, error) {
	var messages []model.CustomerMessage
	if err := json.Unmarshal([]byte(payload), &messages); err != nil {
		return nil, eris.Wrap(err, "stub: decode messages")
	}

	res := &supportResponse{TrendingTopics: []string{}}
	complaints := 0
	for _, m := range messages {
		c := model.MessageClassification{ID: m.ID, Type: classifyMessage(m.Message), Sentiment: "neutral"}
		switch c.Type {
		case "Complaint":
			complaints++
			c.Sentiment = "negative"
		case "Suggestion":
			c.Sentiment = "positive"
		}
		res.MessageClassifications = append(res.MessageClassifications, c)
	}
	if n := len(messages); n > 0 {
		ratio := float64(complaints) / float64(n)
		res.ComplaintVelocity = 10 * ratio
		res.OverallSentiment = 0.3 - 1.3*ratio
	}
	if complaints > 0 {
		res.TrendingTopics = append(res.TrendingTopics, "product quality")
	}
	return res, nil
}

func classifyMessage(text string) string {
	lower := strings.ToLower(text)
	for _, w := range complaintWords {
		if strings.Contains(lower, w) {
			return "Complaint"
		}
	}
	switch {
	case strings.Contains(lower, "suggest") || strings.Contains(lower, "would be nice"):
		return "Suggestion"
	case strings.Contains(lower, "order") || strings.Contains(lower, "cancel") || strings.Contains(lower, "return"):
		return "Transactional Request"
	default:
		return "Inquiry"
	}
}
