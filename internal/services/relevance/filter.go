package relevance

import (
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/interfaces"
	"github.com/ternarybob/venator/internal/models"
)

// DefaultKeywords is the built-in crypto/web3 vocabulary
var DefaultKeywords = []string{
	"web3", "crypto", "cryptocurrency", "blockchain", "bitcoin", "ethereum",
	"defi", "nft", "layer2", "solana", "polygon", "cardano", "chainlink",
	"token", "smart contract", "dapp", "metaverse", "dao", "gamefi",
	"yield farming", "staking", "mining", "wallet", "exchange", "trading",
	"altcoin", "hodl", "binance", "coinbase", "uniswap", "opensea",
	"avalanche", "terra", "cosmos", "polkadot", "near", "fantom",
	"decentralized", "consensus", "peer-to-peer", "p2p", "fintech blockchain",
	"digital assets", "tokenomics", "liquidity pool", "flash loan",
	"cross-chain", "interoperability", "zero knowledge", "zk", "rollup",
	"dex", "cefi", "cbdc", "stablecoin", "depin", "rwa", "tokenization",
	"hackathon", "zk-rollup", "layer-2", "web3 conference", "crypto meetup",
}

// Filter keeps records whose text mentions a vocabulary keyword as a whole word
type Filter struct {
	pattern *regexp.Regexp
	ignored map[string]bool
	logger  arbor.ILogger
}

var _ interfaces.RelevanceFilter = (*Filter)(nil)

// NewFilter creates a relevance filter. Keywords that are empty or all blank
// fall back to DefaultKeywords.
// ignoredTags (base tags and source markers) are left out of the matched text,
// otherwise every record would match the tags it was stamped with.
func NewFilter(keywords []string, ignoredTags []string, logger arbor.ILogger) *Filter {
	quoted := quoteKeywords(keywords)
	if len(quoted) == 0 {
		quoted = quoteKeywords(DefaultKeywords)
	}

	ignored := make(map[string]bool, len(ignoredTags))
	for _, t := range ignoredTags {
		ignored[strings.ToLower(strings.TrimSpace(t))] = true
	}

	return &Filter{
		pattern: regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`),
		ignored: ignored,
		logger:  logger,
	}
}

// IsRelevant reports whether the record's title, description, discovered tags,
// venue or organizer mention a keyword
func (f *Filter) IsRelevant(record *models.EventRecord) bool {
	if record == nil {
		return false
	}
	return f.pattern.MatchString(f.text(record))
}

// Apply returns the relevant records in their original order and the number excluded
func (f *Filter) Apply(records []*models.EventRecord) ([]*models.EventRecord, int) {
	kept := make([]*models.EventRecord, 0, len(records))
	excluded := 0
	for _, r := range records {
		if f.IsRelevant(r) {
			kept = append(kept, r)
			continue
		}
		excluded++
		if r != nil {
			f.logger.Trace().Str("external_id", r.ExternalID).Str("title", r.Title).Msg("Excluded as not relevant")
		}
	}
	return kept, excluded
}

func (f *Filter) text(record *models.EventRecord) string {
	parts := []string{record.Title, record.Description, record.Venue, record.Organizer}
	for _, tag := range record.CategoryTags {
		if !f.ignored[strings.ToLower(tag)] {
			parts = append(parts, tag)
		}
	}
	return strings.Join(parts, " ")
}

func quoteKeywords(keywords []string) []string {
	var quoted []string
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(k)))
		}
	}
	return quoted
}
