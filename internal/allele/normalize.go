// Package allele normalizes MHC allele names to a two-field form,
// ex: "A*02:01:01:01" and "HLA-A0201" are both "HLA-A*02:01".
package allele

import (
	"fmt"
	"regexp"
	"strings"
)

// defaultSpecies is assumed for names without a species prefix.
const defaultSpecies = "HLA"

var (
	// Species-Gene*GG:PP[:XX[:YY]][suffix], ex: HLA-A*02:01:01:01, Mamu-A1*001:01
	fieldsRegex = regexp.MustCompile(`^(?:([A-Z][A-Za-z0-9]*)-)?([A-Z0-9]+)\*(\d{2,3}):?(\d{2,3})(?::\d{2,3}){0,2}([NLSCAQ])?$`)

	// names without colons, ex: HLA-A*0201, A*02101
	colonlessRegex = regexp.MustCompile(`^(?:([A-Z][A-Za-z0-9]*)-)?([A-Z0-9]+)\*(\d{4,8})([NLSCAQ])?$`)

	// compact class I names without a '*' or ':', ex: A0201, HLA-B5701
	compactRegex = regexp.MustCompile(`^(?:([A-Z][A-Za-z0-9]*)-)?([ABCEFG])(\d{2})(\d{2,3})([NLSCAQ])?$`)

	// mouse haplotype names, ex: H-2-Kb, H2-Db, H2Kd
	mouseRegex = regexp.MustCompile(`^H-?2-?([KDLkdl])([A-Za-z]{1,2})$`)

	digitsRegex = regexp.MustCompile(`^\d+$`)
)

// Normalize returns the two-field name of an allele. Names that are
// empty, purely numeric, or not recognizable as an MHC allele return an error.
func Normalize(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("empty allele name")
	}

	if digitsRegex.MatchString(trimmed) {
		return "", fmt.Errorf("allele name %q is numeric", name)
	}

	if m := mouseRegex.FindStringSubmatch(trimmed); m != nil {
		return "H-2-" + strings.ToUpper(m[1]) + strings.ToLower(m[2]), nil
	}

	// species prefixes like "Mamu" keep their case, everything else is upper-cased
	upper := upperGene(trimmed)

	// HLA allele groups have two digits, so an odd digit count means a
	// three digit protein field
	if m := colonlessRegex.FindStringSubmatch(upper); m != nil && (m[1] == "" || m[1] == defaultSpecies) {
		digits := m[3]
		protein := 2
		if len(digits)%2 == 1 {
			protein = 3
		}
		return format(m[1], m[2], digits[:2], digits[2:2+protein], m[4]), nil
	}

	if m := fieldsRegex.FindStringSubmatch(upper); m != nil {
		return format(m[1], m[2], m[3], m[4], m[5]), nil
	}

	if m := compactRegex.FindStringSubmatch(upper); m != nil {
		return format(m[1], m[2], m[3], m[4], m[5]), nil
	}

	return "", fmt.Errorf("failed to parse allele name %q", name)
}

// MustNormalize is like Normalize but panics on an unparseable name.
func MustNormalize(name string) string {
	n, err := Normalize(name)
	if err != nil {
		panic(err)
	}
	return n
}

// upperGene upper-cases everything after the species prefix. An all-caps
// species like "hla" is upper-cased too.
func upperGene(name string) string {
	dash := strings.Index(name, "-")
	if dash < 0 {
		return strings.ToUpper(name)
	}

	species := name[:dash]
	if strings.EqualFold(species, defaultSpecies) {
		species = defaultSpecies
	}
	return species + "-" + strings.ToUpper(name[dash+1:])
}

func format(species, gene, group, protein, suffix string) string {
	if species == "" {
		species = defaultSpecies
	}
	return fmt.Sprintf("%s-%s*%s:%s%s", species, gene, group, protein, suffix)
}
