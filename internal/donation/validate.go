package donation

import (
	"fmt"
	"sort"

	"github.com/corvid-assistant/corvid/internal/corerrors"
)

// ValidationOpts controls strictness: with Strict set, a lemma-sync
// violation is a hard DonationInvalid error; otherwise it is returned as
// a warning. Strict does not cover unknown fields: donation documents are
// decoded with encoding/json in both modes, which drops fields the
// Donation type does not declare without an error or a warning.
type ValidationOpts struct {
	Strict bool
}

// ValidationWarning is a non-fatal finding (lemma-sync gaps in lenient
// mode) surfaced to the admin API for one-click auto-sync.
type ValidationWarning struct {
	Method string
	Detail string
}

// Validate enforces spec §4.5's validator rules: required fields
// present, schema version accepted, method_name/intent_suffix presence,
// and the lemma-sync invariant (promoted to a hard error in strict
// mode, a warning otherwise).
func Validate(d Donation, opts ValidationOpts) ([]ValidationWarning, error) {
	if d.HandlerDomain == "" {
		return nil, corerrors.New(corerrors.DonationInvalid, "handler_domain is required")
	}
	if d.Language == "" {
		return nil, corerrors.New(corerrors.DonationInvalid, "language is required")
	}
	if d.SchemaVersion != CurrentSchemaVersion {
		return nil, corerrors.New(corerrors.SchemaMismatch,
			fmt.Sprintf("schema_version %d not accepted, expected %d", d.SchemaVersion, CurrentSchemaVersion))
	}

	var warnings []ValidationWarning
	seen := make(map[string]bool, len(d.MethodDonations))

	for _, m := range d.MethodDonations {
		if m.MethodName == "" {
			return nil, corerrors.New(corerrors.DonationInvalid, "method_name is required").
				WithField("method", m.MethodName)
		}
		if m.IntentSuffix == "" {
			return nil, corerrors.New(corerrors.DonationInvalid, "intent_suffix is required").
				WithField("method", m.MethodName)
		}
		if seen[m.MethodName] {
			return nil, corerrors.New(corerrors.DonationInvalid, "duplicate method_name "+m.MethodName)
		}
		seen[m.MethodName] = true

		lemmaSet := make(map[string]bool, len(m.Lemmas))
		for _, l := range m.Lemmas {
			lemmaSet[l] = true
		}

		missing := missingLemmas(lemmaSet, m.referencedLemmas())
		if len(missing) > 0 {
			detail := fmt.Sprintf("lemmas missing from method %q: %v", m.MethodName, missing)
			if opts.Strict {
				return nil, corerrors.New(corerrors.DonationInvalid, detail).
					WithField("method", m.MethodName).
					WithField("missing_lemmas", fmt.Sprint(missing))
			}
			warnings = append(warnings, ValidationWarning{Method: m.MethodName, Detail: detail})
		}
	}

	return warnings, nil
}

// ValidateImmutableEdit rejects an edit that changes intent_suffix for
// any method_name present in both the previous and the candidate
// donation. Methods are paired by method_name, so a renamed method is
// seen as one method removed and another added, and is not rejected.
func ValidateImmutableEdit(previous, candidate Donation) error {
	prevByName := make(map[string]MethodDonation, len(previous.MethodDonations))
	for _, m := range previous.MethodDonations {
		prevByName[m.MethodName] = m
	}
	for _, m := range candidate.MethodDonations {
		prev, ok := prevByName[m.MethodName]
		if !ok {
			continue
		}
		if prev.IntentSuffix != m.IntentSuffix {
			return corerrors.New(corerrors.DonationInvalid,
				"intent_suffix is immutable for method "+m.MethodName).WithField("method", m.MethodName)
		}
	}
	return nil
}

func missingLemmas(declared, referenced map[string]bool) []string {
	var missing []string
	for l := range referenced {
		if !declared[l] {
			missing = append(missing, l)
		}
	}
	sort.Strings(missing)
	return missing
}

// ParityReport is the result of CheckParity (spec §4.5 cross-language
// completeness; §9 scenario 5's `completeness.missing[lang]`).
type ParityReport struct {
	// Missing maps language -> method names present in at least one other
	// language's donation for the same handler but absent here.
	Missing map[string][]string
}

// CheckParity compares method sets across every language's donation for
// one handler and reports, per language, which methods from the union
// are missing.
func CheckParity(byLanguage map[string]Donation) ParityReport {
	union := make(map[string]bool)
	methodsOf := make(map[string]map[string]bool, len(byLanguage))

	for lang, d := range byLanguage {
		set := make(map[string]bool, len(d.MethodDonations))
		for _, m := range d.MethodDonations {
			set[m.MethodName] = true
			union[m.MethodName] = true
		}
		methodsOf[lang] = set
	}

	report := ParityReport{Missing: make(map[string][]string)}
	for lang, set := range methodsOf {
		var missing []string
		for method := range union {
			if !set[method] {
				missing = append(missing, method)
			}
		}
		sort.Strings(missing)
		if len(missing) > 0 {
			report.Missing[lang] = missing
		}
	}
	return report
}

// ParamMismatch records a shared method whose declared parameter set
// differs between two languages (spec §3 invariant: "params(H,L1,M) ==
// params(H,L2,M) for each shared method M").
type ParamMismatch struct {
	Method     string
	Language   string
	OnlyHere   []string
	OnlyInOther []string
	OtherLang  string
}

// CheckParamParity compares parameter sets for every method shared
// across two or more languages and reports mismatches. Languages are
// taken in sorted order: the first language declaring a method is the
// base (Language/OnlyHere) and every later one is compared against it
// (OtherLang/OnlyInOther).
func CheckParamParity(byLanguage map[string]Donation) []ParamMismatch {
	type methodParams struct {
		lang   string
		params map[string]bool
	}
	perMethod := make(map[string][]methodParams)

	langs := make([]string, 0, len(byLanguage))
	for lang := range byLanguage {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	for _, lang := range langs {
		d := byLanguage[lang]
		for _, m := range d.MethodDonations {
			perMethod[m.MethodName] = append(perMethod[m.MethodName], methodParams{lang: lang, params: m.ParameterNames()})
		}
	}

	var mismatches []ParamMismatch
	for method, entries := range perMethod {
		if len(entries) < 2 {
			continue
		}
		base := entries[0]
		for _, other := range entries[1:] {
			onlyBase := setDiff(base.params, other.params)
			onlyOther := setDiff(other.params, base.params)
			if len(onlyBase) > 0 || len(onlyOther) > 0 {
				mismatches = append(mismatches, ParamMismatch{
					Method: method, Language: base.lang, OtherLang: other.lang,
					OnlyHere: onlyBase, OnlyInOther: onlyOther,
				})
			}
		}
	}
	return mismatches
}

func setDiff(a, b map[string]bool) []string {
	var out []string
	for k := range a {
		if !b[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
