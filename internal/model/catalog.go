package model

// Product is a single catalog entry as supplied by the merchant or as
// normalized by the catalog collaborator.
type Product struct {
	ID          string   `json:"id" csv:"id" yaml:"id"`
	Name        string   `json:"name" csv:"name" yaml:"name"`
	Price       float64  `json:"price" csv:"price" yaml:"price"`
	Cost        *float64 `json:"cost,omitempty" csv:"cost,omitempty" yaml:"cost,omitempty"`
	Category    string   `json:"category,omitempty" csv:"category,omitempty" yaml:"category,omitempty"`
	Description string   `json:"description,omitempty" csv:"description,omitempty" yaml:"description,omitempty"`
}

// CostOrDefault returns the explicit cost, or half the current price when
// the catalog did not carry one.
func (p Product) CostOrDefault() float64 {
	if p.Cost != nil {
		return *p.Cost
	}
	return p.Price * 0.5
}

// IssueType classifies a catalog data-quality issue.
type IssueType string

const (
	IssueCritical IssueType = "critical"
	IssueWarning  IssueType = "warning"
	IssueInfo     IssueType = "info"
	IssueError    IssueType = "error"
)

// CatalogIssue is a data-quality finding reported by the catalog collaborator,
// or an error-shaped entry recorded when that collaborator failed.
type CatalogIssue struct {
	Type       IssueType `json:"type"`
	ProductID  string    `json:"product_id,omitempty"`
	ID         string    `json:"id,omitempty"`
	Message    string    `json:"message"`
	Severity   string    `json:"severity,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
	ErrorType  string    `json:"error_type,omitempty"`
}

// SubjectID returns the product the issue refers to: product_id first, then id.
func (i CatalogIssue) SubjectID() string {
	if i.ProductID != "" {
		return i.ProductID
	}
	return i.ID
}

// IsBlocking reports whether the issue marks its product as untrustworthy for
// automated pricing.
func (i CatalogIssue) IsBlocking() bool {
	return i.Type == IssueCritical || i.Severity == "high"
}

// PricingContext is ground-truth competitor pricing for one product.
type PricingContext struct {
	ProductID       string  `json:"product_id" csv:"product_id" yaml:"product_id"`
	CompetitorPrice float64 `json:"competitor_price" csv:"competitor_price" yaml:"competitor_price"`
	MarketTrend     string  `json:"market_trend,omitempty" csv:"market_trend,omitempty" yaml:"market_trend,omitempty"`
}

// CompetitorPrices indexes pricing context by product id. Duplicated ids keep
// the last record.
func CompetitorPrices(ctx []PricingContext) map[string]float64 {
	out := make(map[string]float64, len(ctx))
	for _, c := range ctx {
		out[c.ProductID] = c.CompetitorPrice
	}
	return out
}

// CustomerMessage is a raw inbound customer support message.
type CustomerMessage struct {
	ID        string `json:"id" csv:"id" yaml:"id"`
	Message   string `json:"message" csv:"message" yaml:"message"`
	Timestamp string `json:"timestamp,omitempty" csv:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

// MerchantLocks maps a product id to the merchant's override reason. Locked
// products keep their current price regardless of proposals.
type MerchantLocks map[string]string

// Has reports whether productID is locked.
func (l MerchantLocks) Has(productID string) bool {
	_, ok := l[productID]
	return ok
}
