package entitlement

import "github.com/dmitrymomot/billingkit/pkg/catalog"

// FeatureUnrestrictedContent is the public key for unrestricted content
// access. Plans store it under the legacy inverted limited_content flag;
// callers only ever see this positive form.
const FeatureUnrestrictedContent catalog.Feature = "unrestricted_content"

type legacyAlias struct {
	stored   catalog.Feature
	inverted bool
}

// legacyAliases is the single place that knows about inverted legacy flag
// semantics. Nothing outside the resolver reads the stored keys directly.
var legacyAliases = map[catalog.Feature]legacyAlias{
	FeatureUnrestrictedContent: {stored: catalog.FeatureLimitedContent, inverted: true},
}

// translateLegacyKey maps a public feature key to its stored form and
// whether the stored flag's meaning is inverted.
func translateLegacyKey(key catalog.Feature) (catalog.Feature, bool) {
	if alias, ok := legacyAliases[key]; ok {
		return alias.stored, alias.inverted
	}
	return key, false
}
