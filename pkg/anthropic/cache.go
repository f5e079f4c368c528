package anthropic

// CachedSystem wraps a static system prompt in a single block with an
// ephemeral cache breakpoint. Merchants in the same batch share the prompt,
// so every call after the first reads it from cache.
func CachedSystem(text string) []SystemBlock {
	return []SystemBlock{
		{
			Text:         text,
			CacheControl: &CacheControl{TTL: "5m"},
		},
	}
}
