package blackboard

// Policy is how a field combines an incoming value with the current one.
type Policy int

const (
	// Replace keeps the last written value.
	Replace Policy = iota
	// Append concatenates the incoming list after the current one.
	Append
)

func (p Policy) String() string {
	if p == Append {
		return "append"
	}
	return "replace"
}

type field struct {
	name   string
	policy Policy
	merge  func(s *State, u Update)
}

// schema is the declared merge policy for every stage-writable field, in
// the order Apply visits them.
var schema = []field{
	{"raw_products", Replace, func(s *State, u Update) {
		if u.RawProducts != nil {
			s.RawProducts = u.RawProducts
		}
	}},
	{"customer_messages", Replace, func(s *State, u Update) {
		if u.CustomerMessages != nil {
			s.CustomerMessages = u.CustomerMessages
		}
	}},
	{"pricing_context", Replace, func(s *State, u Update) {
		if u.PricingContext != nil {
			s.PricingContext = u.PricingContext
		}
	}},
	{"merchant_locks", Replace, func(s *State, u Update) {
		if u.MerchantLocks != nil {
			s.MerchantLocks = u.MerchantLocks
		}
	}},
	{"support_summary", Replace, func(s *State, u Update) {
		if u.SupportSummary != nil {
			s.SupportSummary = u.SupportSummary
		}
	}},
	{"sentiment_score", Replace, func(s *State, u Update) {
		if u.SentimentScore != nil {
			s.SentimentScore = *u.SentimentScore
		}
	}},
	{"complaint_spike_detected", Replace, func(s *State, u Update) {
		if u.ComplaintSpikeDetected != nil {
			s.ComplaintSpikeDetected = *u.ComplaintSpikeDetected
		}
	}},
	{"schema_validation_passed", Replace, func(s *State, u Update) {
		if u.SchemaValidationPassed != nil {
			s.SchemaValidationPassed = *u.SchemaValidationPassed
		}
	}},
	{"throttle_mode_active", Replace, func(s *State, u Update) {
		if u.ThrottleModeActive != nil {
			s.ThrottleModeActive = *u.ThrottleModeActive
		}
	}},
	{"retry_count", Replace, func(s *State, u Update) {
		if u.RetryCount != nil {
			s.RetryCount = *u.RetryCount
		}
	}},
	{"final_report", Replace, func(s *State, u Update) {
		if u.FinalReport != nil {
			s.FinalReport = u.FinalReport
		}
	}},
	{"normalized_catalog", Append, func(s *State, u Update) {
		s.NormalizedCatalog = concat(s.NormalizedCatalog, u.NormalizedCatalog)
	}},
	{"catalog_issues", Append, func(s *State, u Update) {
		s.CatalogIssues = concat(s.CatalogIssues, u.CatalogIssues)
	}},
	{"pricing_proposals", Append, func(s *State, u Update) {
		s.PricingProposals = concat(s.PricingProposals, u.PricingProposals)
	}},
	{"validation_flags", Append, func(s *State, u Update) {
		s.ValidationFlags = concat(s.ValidationFlags, u.ValidationFlags)
	}},
	{"audit_log", Append, func(s *State, u Update) {
		s.AuditLog = concat(s.AuditLog, u.AuditLog)
	}},
}

// PolicyOf returns the declared merge policy for a field name.
func PolicyOf(name string) (Policy, bool) {
	for _, f := range schema {
		if f.name == name {
			return f.policy, true
		}
	}
	return Replace, false
}

// Fields lists every stage-writable field name.
func Fields() []string {
	out := make([]string, len(schema))
	for i, f := range schema {
		out[i] = f.name
	}
	return out
}

// Apply merges u into s according to each field's policy.
func (s *State) Apply(u Update) {
	for _, f := range schema {
		f.merge(s, u)
	}
}

// concat appends in emission order without letting the result share a
// backing array with the incoming update.
func concat[T any](cur, in []T) []T {
	if len(in) == 0 {
		return cur
	}
	out := make([]T, 0, len(cur)+len(in))
	out = append(out, cur...)
	return append(out, in...)
}
