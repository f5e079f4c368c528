package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/merchant-ops/internal/blackboard"
	"github.com/sells-group/merchant-ops/internal/cost"
	"github.com/sells-group/merchant-ops/internal/model"
	"github.com/sells-group/merchant-ops/internal/resilience"
)

// MinSchemaConfidence is the confidence a normalization must exceed to pass
// schema validation.
const MinSchemaConfidence = 0.6

const catalogSystemPrompt = `You normalize e-commerce product catalogs.
For the products provided:
- standardize names, units and spelling
- detect missing, inconsistent or implausible attributes (price below cost, missing cost, empty names)
- detect probable duplicates

Respond with a single JSON object and nothing else:
{
  "normalized_products": [{"id": "P001", "name": "Product Name", "price": 100.0, "cost": 50.0}],
  "issues": [{"type": "warning", "product_id": "P001", "message": "what is wrong", "suggestion": "how to fix it"}],
  "confidence_score": 0.85
}

Issue type must be one of "critical", "warning" or "info". Use "critical" only when the
product data is unusable for pricing. Keep every product id exactly as given.`

// catalogResponse is the wire shape the catalog prompt asks for.
type catalogResponse struct {
	NormalizedProducts []model.Product      `json:"normalized_products"`
	Issues             []model.CatalogIssue `json:"issues"`
	ConfidenceScore    *float64             `json:"confidence_score"`
}

// CatalogAgent normalizes raw product data and reports data-quality issues.
type CatalogAgent struct {
	inf   *Inferencer
	limit int
}

// NewCatalogAgent creates a CatalogAgent that sends at most limit products
// per call; limit <= 0 sends all of them.
func NewCatalogAgent(inf *Inferencer, limit int) *CatalogAgent {
	return &CatalogAgent{inf: inf, limit: limit}
}

// Analyze never fails: provider or parse errors degrade to the raw catalog
// plus an error-shaped issue.
func (a *CatalogAgent) Analyze(ctx context.Context, products []model.Product, ledger *cost.Ledger) blackboard.Update {
	log := zap.L().With(zap.String("stage", "catalog"), zap.String("model", a.inf.Model()))

	if len(products) == 0 {
		log.Info("catalog: no products")
		return blackboard.Update{
			CatalogIssues:          []model.CatalogIssue{{Type: model.IssueError, Message: "No product data provided"}},
			SchemaValidationPassed: blackboard.Bool(false),
			AuditLog: []model.AuditEntry{model.NewAuditEntry("catalog_normalized", map[string]any{
				"products": 0,
				"status":   "no_data",
			})},
		}
	}

	res, err := a.normalize(ctx, products, ledger)
	if err != nil {
		errType := resilience.ClassifyError(err)
		log.Warn("catalog: normalization failed, using raw products",
			zap.Error(err),
			zap.String("error_type", errType),
		)
		return blackboard.Update{
			NormalizedCatalog: append([]model.Product(nil), products...),
			CatalogIssues: []model.CatalogIssue{{
				Type:      model.IssueError,
				Message:   err.Error(),
				ErrorType: errType,
			}},
			SchemaValidationPassed: blackboard.Bool(false),
			AuditLog: []model.AuditEntry{model.NewAuditEntry("catalog_normalized", map[string]any{
				"products":   len(products),
				"status":     "fallback",
				"error_type": errType,
			})},
		}
	}

	confidence := 0.8
	if res.ConfidenceScore != nil {
		confidence = *res.ConfidenceScore
	}
	critical := 0
	for _, issue := range res.Issues {
		if issue.Type == model.IssueCritical {
			critical++
		}
	}
	passed := confidence > MinSchemaConfidence && critical == 0

	log.Info("catalog: normalized",
		zap.Int("products", len(res.NormalizedProducts)),
		zap.Int("issues", len(res.Issues)),
		zap.Float64("confidence", confidence),
		zap.Bool("schema_passed", passed),
	)

	return blackboard.Update{
		NormalizedCatalog:      res.NormalizedProducts,
		CatalogIssues:          res.Issues,
		SchemaValidationPassed: blackboard.Bool(passed),
		AuditLog: []model.AuditEntry{model.NewAuditEntry("catalog_normalized", map[string]any{
			"products":      len(res.NormalizedProducts),
			"issues":        len(res.Issues),
			"confidence":    confidence,
			"schema_passed": passed,
		})},
	}
}

func (a *CatalogAgent) normalize(ctx context.Context, products []model.Product, ledger *cost.Ledger) (*catalogResponse, error) {
	batch := products
	if a.limit > 0 && len(batch) > a.limit {
		batch = batch[:a.limit]
	}
	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, eris.Wrap(err, "agent: encode products")
	}

	text, err := a.inf.Complete(ctx, "catalog", catalogSystemPrompt, fmt.Sprintf("Products to analyze:\n%s", payload), ledger)
	if err != nil {
		return nil, err
	}

	var res catalogResponse
	if err := json.Unmarshal([]byte(cleanJSON(text)), &res); err != nil {
		return nil, eris.Wrap(err, "agent: decode catalog response")
	}
	return &res, nil
}
