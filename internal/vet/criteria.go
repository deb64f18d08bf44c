package vet

// CrevCriteriaURL is the provenance recorded on every standard criterion.
const CrevCriteriaURL = "https://github.com/crev-dev"

// StandardCriteria returns the fixed criteria taxonomy.
func StandardCriteria() map[string]CriteriaEntry {
	entry := func(desc string, implies ...string) CriteriaEntry {
		if implies == nil {
			implies = []string{}
		}
		return CriteriaEntry{
			Description:    desc,
			Implies:        implies,
			AggregatedFrom: []string{CrevCriteriaURL},
		}
	}
	return map[string]CriteriaEntry{
		TrustHigh: entry("Author of this review is well known and trusted by the publisher of this audit repository. "+
			"This means 'at least this much', so higher levels imply all lower levels", TrustMedium),
		TrustMedium: entry("Author of this review is somewhat known and trusted by the publisher of this audit repository", TrustLow),
		TrustLow:    entry("Author of this review is not well known, or not trusted much, by the publisher of this audit repository"),
		Strong:      entry("Strong endorsement. It implies a positive rating", Positive),
		Positive:    entry("Positive review rating"),
		Neutral:     entry("There is no rating either way. Check the comments for reports of issues"),
		LevelHigh: entry("The code has been thoroughly reviewed and/or with high understanding. "+
			"This means 'at least this much' so higher levels imply all lower levels", LevelMedium),
		LevelMedium: entry("The code has been reviewed with average thoroughness or understanding. "+
			"This means 'at least this much' so higher levels imply all lower levels", LevelLow),
		LevelLow: entry("The code has been only checked at a glance and/or with low understanding. "+
			"This means 'at least this much' so higher levels imply all lower levels", LevelNone),
		LevelNone:    entry("The code hasn't been reviewed or hasn't been understood"),
		Unmaintained: entry("The package has been flagged as unmaintained"),
	}
}
