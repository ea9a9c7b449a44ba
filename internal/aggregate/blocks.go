package aggregate

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Role is the part a survey question plays in a satisfaction block.
type Role string

const (
	RoleInterest           Role = "interest"
	RoleRelevance          Role = "relevance"
	RoleExperience         Role = "experience"
	RoleTraitNonClient     Role = "trait_non_client"
	RoleTraitClient        Role = "trait_client"
	RoleBecomeClient       Role = "become_client"
	RoleExpandRelationship Role = "expand_relationship"
)

var knownRoles = []Role{
	RoleInterest, RoleRelevance, RoleExperience,
	RoleTraitNonClient, RoleTraitClient,
	RoleBecomeClient, RoleExpandRelationship,
}

// RoleRule matches question text case-insensitively. Every group in AllOf
// must have at least one substring present, and no NoneOf substring may be.
type RoleRule struct {
	Role   Role       `yaml:"role"`
	AllOf  [][]string `yaml:"all_of"`
	NoneOf []string   `yaml:"none_of"`
}

func (r RoleRule) Matches(question string) bool {
	if len(r.AllOf) == 0 {
		return false
	}
	for _, group := range r.AllOf {
		if !containsAnyFold(question, group...) {
			return false
		}
	}
	return !containsAnyFold(question, r.NoneOf...)
}

// RoleRules is evaluated in order; each rule claims the first matching
// question not already claimed by an earlier rule.
type RoleRules []RoleRule

var (
	traitMarkers     = []string{"personalidade", "atributo", "característica", "caracteristica"}
	nonClientMarkers = []string{"não cliente", "nao cliente", "não é cliente", "nao e cliente"}
)

func DefaultRoleRules() RoleRules {
	return RoleRules{
		{Role: RoleInterest, AllOf: [][]string{{"interesse", "interessante", "assunto"}}},
		{Role: RoleRelevance, AllOf: [][]string{{"relevância", "relevancia", "relevante"}}},
		{Role: RoleExperience, AllOf: [][]string{experienceMarkers}},
		{Role: RoleTraitNonClient, AllOf: [][]string{traitMarkers, nonClientMarkers}},
		{Role: RoleTraitClient, AllOf: [][]string{traitMarkers}, NoneOf: nonClientMarkers},
		{Role: RoleBecomeClient, AllOf: [][]string{becomeClientMarkers}},
		{Role: RoleExpandRelationship, AllOf: [][]string{expandRelationshipMarkers}},
	}
}

var ErrInvalidRoleRules = errors.New("invalid role rules")

// Validate requires exactly one rule per known role, each with a non-empty pattern.
func (rs RoleRules) Validate() error {
	seen := make(map[Role]bool, len(rs))
	for _, r := range rs {
		if !slices.Contains(knownRoles, r.Role) {
			return fmt.Errorf("%w: unknown role %q", ErrInvalidRoleRules, r.Role)
		}
		if seen[r.Role] {
			return fmt.Errorf("%w: duplicate role %q", ErrInvalidRoleRules, r.Role)
		}
		if len(r.AllOf) == 0 {
			return fmt.Errorf("%w: role %q has no all_of patterns", ErrInvalidRoleRules, r.Role)
		}
		for _, g := range r.AllOf {
			if len(g) == 0 {
				return fmt.Errorf("%w: role %q has an empty all_of group", ErrInvalidRoleRules, r.Role)
			}
		}
		seen[r.Role] = true
	}
	for _, role := range knownRoles {
		if !seen[role] {
			return fmt.Errorf("%w: missing role %q", ErrInvalidRoleRules, role)
		}
	}
	return nil
}

type roleRulesFile struct {
	Rules RoleRules `yaml:"rules"`
}

// LoadRoleRules reads a YAML rule table of the form `rules: [{role, all_of, none_of}]`.
func LoadRoleRules(path string) (RoleRules, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read role rules: %w", err)
	}
	var f roleRulesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoleRules, err)
	}
	if err := f.Rules.Validate(); err != nil {
		return nil, err
	}
	return f.Rules, nil
}

// Assign maps each role to the question stat it claims.
func (rs RoleRules) Assign(stats []SurveyQuestionStat) map[Role]SurveyQuestionStat {
	claimed := make([]bool, len(stats))
	out := make(map[Role]SurveyQuestionStat, len(rs))
	for _, r := range rs {
		for i, st := range stats {
			if claimed[i] || !r.Matches(st.QuestionText) {
				continue
			}
			claimed[i] = true
			out[r.Role] = st
			break
		}
	}
	return out
}

// Compose builds the satisfaction, positioning and relationship blocks.
// A block is emitted only when all of its member questions were found.
func (rs RoleRules) Compose(stats []SurveyQuestionStat) []SatisfactionBlock {
	roles := rs.Assign(stats)
	pick := func(want ...Role) ([]SurveyQuestionStat, bool) {
		out := make([]SurveyQuestionStat, 0, len(want))
		for _, r := range want {
			st, ok := roles[r]
			if !ok {
				return nil, false
			}
			out = append(out, st)
		}
		return out, true
	}

	blocks := []SatisfactionBlock{}
	if qs, ok := pick(RoleInterest, RoleRelevance, RoleExperience); ok {
		interest, relevance, experience := qs[0], qs[1], qs[2]
		blocks = append(blocks, SatisfactionBlock{
			Title:          "Satisfação com a Experiência",
			Category:       CategorySatisfaction,
			Questions:      qs,
			BlockMeanScore: round2((interest.MeanScore + relevance.MeanScore + experience.MeanScore) / 3),
			BlockGrade:     round2((interest.SatisfactionGrade + relevance.SatisfactionGrade + 3*experience.SatisfactionGrade) / 5),
		})
	}
	if qs, ok := pick(RoleTraitNonClient, RoleTraitClient); ok {
		blocks = append(blocks, pairBlock("Posicionamento da Marca", CategoryPositioning, qs))
	}
	if qs, ok := pick(RoleBecomeClient, RoleExpandRelationship); ok {
		blocks = append(blocks, pairBlock("Intenção de Relacionamento", CategoryRelationship, qs))
	}
	return blocks
}

func pairBlock(title string, category BlockCategory, qs []SurveyQuestionStat) SatisfactionBlock {
	return SatisfactionBlock{
		Title:          title,
		Category:       category,
		Questions:      qs,
		BlockMeanScore: round2((qs[0].MeanScore + qs[1].MeanScore) / 2),
		BlockGrade:     round2((qs[0].SatisfactionGrade + qs[1].SatisfactionGrade) / 2),
	}
}

// ComposeSatisfactionBlocks composes blocks using the default role rules.
func ComposeSatisfactionBlocks(stats []SurveyQuestionStat) []SatisfactionBlock {
	return DefaultRoleRules().Compose(stats)
}
