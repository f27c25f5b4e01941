/*
flavor.go - Flavor-exclusion expander

PURPOSE:
  A subscriber vetoes flavor *words* ("Berry"); the catalog tags items
  with flavor *surface forms* ("Berries"). This module bridges the gap:
  each vetoed word is reduced to a stem and the stem is re-expanded into
  every surface form the catalog might carry, so tag comparison stays a
  cheap exact match.

EXAMPLE:
  "Berry" -> stem "berr" -> {Berr, Berre, Berry, Berrs, Berres, Berred,
                             Berring, Berries}

DETERMINISM:
  Suffix matching uses a fixed ordered table (longest first, ties broken
  by table order) and the output is sorted, so expansion is stable.

SEE ALSO:
  - filter.go: Applies the expanded set against item flavor tags
*/
package engine

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// stripSuffixes is matched longest-first; equal lengths keep this order.
var stripSuffixes = []string{"ies", "ing", "es", "ed", "s", "y"}

// expandSuffixes generates candidate surface forms from a stem.
var expandSuffixes = []string{"", "e", "y", "s", "es", "ed", "ing", "ies"}

// stemFlavorWord lowers a vetoed word to its base stem by stripping the
// longest matching suffix. Stripping "ies" from a word longer than three
// characters yields stem+"y" (berries -> berry), not the bare stem.
func stemFlavorWord(word string) string {
	for _, suffix := range stripSuffixes {
		if !strings.HasSuffix(word, suffix) {
			continue
		}
		if suffix == "ies" && len(word) > 3 {
			return word[:len(word)-3] + "y"
		}
		return word[:len(word)-len(suffix)]
	}
	return word
}

// expandStem generates every surface form of a stem. Appending "ies" to
// a stem already ending in "y" replaces the trailing y instead of
// concatenating.
func expandStem(stem string) []string {
	forms := make([]string, 0, len(expandSuffixes))
	for _, suffix := range expandSuffixes {
		if suffix == "ies" && strings.HasSuffix(stem, "y") {
			forms = append(forms, stem[:len(stem)-1]+"ies")
			continue
		}
		forms = append(forms, stem+suffix)
	}
	return forms
}

// capitalize upper-cases the first rune and lower-cases the rest,
// matching how catalog flavor tags are written. The first rune is
// decoded, not byte-sliced, so non-ASCII words stay valid UTF-8.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// ExpandVetoedFlavors turns vetoed flavor words into the full sorted,
// deduplicated set of surface-form tags to exclude.
func ExpandVetoedFlavors(vetoed []string) []string {
	seen := make(map[string]bool)
	var result []string
	for _, word := range vetoed {
		stem := stemFlavorWord(strings.ToLower(word))
		for _, form := range expandStem(stem) {
			form = capitalize(form)
			if form == "" || seen[form] {
				continue
			}
			seen[form] = true
			result = append(result, form)
		}
	}
	sort.Strings(result)
	return result
}

// FlavorExclusionSet is ExpandVetoedFlavors as a membership set.
func FlavorExclusionSet(vetoed []string) map[string]bool {
	set := make(map[string]bool)
	for _, form := range ExpandVetoedFlavors(vetoed) {
		set[form] = true
	}
	return set
}
