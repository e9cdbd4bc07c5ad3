package scoring

import (
	"fmt"
	"strings"
)

// Policy fixes how sub-scores combine and how skill names are compared. It is
// a value: callers hold a snapshot and scores computed with the same snapshot
// are comparable.
type Policy struct {
	skillsWeight     int
	experienceWeight int
	aliases          map[string]string
}

// defaultAliases folds common spellings onto one canonical skill name. Keys and
// values are already normalized.
var defaultAliases = map[string]string{
	"js":                     "javascript",
	"es6":                    "javascript",
	"ecmascript":             "javascript",
	"ts":                     "typescript",
	"reactjs":                "react",
	"react.js":               "react",
	"react js":               "react",
	"vuejs":                  "vue",
	"vue.js":                 "vue",
	"vue js":                 "vue",
	"angularjs":              "angular",
	"angular.js":             "angular",
	"nodejs":                 "node.js",
	"node":                   "node.js",
	"node js":                "node.js",
	"nextjs":                 "next.js",
	"expressjs":              "express",
	"express.js":             "express",
	"py":                     "python",
	"python3":                "python",
	"python 3":               "python",
	"fast api":               "fastapi",
	"golang":                 "go",
	"postgres":               "postgresql",
	"psql":                   "postgresql",
	"pg":                     "postgresql",
	"mongo":                  "mongodb",
	"elastic":                "elasticsearch",
	"amazon web services":    "aws",
	"amazon aws":             "aws",
	"google cloud":           "gcp",
	"google cloud platform":  "gcp",
	"microsoft azure":        "azure",
	"ms azure":               "azure",
	"k8s":                    "kubernetes",
	"kube":                   "kubernetes",
	"cicd":                   "ci/cd",
	"ci cd":                  "ci/cd",
	"continuous integration": "ci/cd",
	"restful":                "rest api",
	"rest":                   "rest api",
	"restful api":            "rest api",
	"graph ql":               "graphql",
	"ml":                     "machine learning",
	"ai":                     "artificial intelligence",
}

const (
	defaultSkillsWeight     = 70
	defaultExperienceWeight = 30
)

// DefaultPolicy weighs skills at 70% and experience at 30%.
func DefaultPolicy() Policy {
	p, _ := NewPolicy(defaultSkillsWeight, defaultExperienceWeight, defaultAliases)
	return p
}

// NewPolicy builds a policy from integer percentage weights that must sum to
// 100. The alias map is copied.
func NewPolicy(skillsWeight, experienceWeight int, aliases map[string]string) (Policy, error) {
	if skillsWeight < 0 || experienceWeight < 0 || skillsWeight+experienceWeight != 100 {
		return Policy{}, fmt.Errorf("scoring weights must be non-negative and sum to 100, got %d/%d", skillsWeight, experienceWeight)
	}
	folded := make(map[string]string, len(aliases))
	for from, to := range aliases {
		folded[collapse(from)] = collapse(to)
	}
	return Policy{
		skillsWeight:     skillsWeight,
		experienceWeight: experienceWeight,
		aliases:          folded,
	}, nil
}

func (p Policy) Weights() (skills, experience int) {
	return p.skillsWeight, p.experienceWeight
}

// Normalize maps a skill name to its comparison key: lower case, single
// spaces, aliases folded.
func (p Policy) Normalize(skill string) string {
	key := collapse(skill)
	if canonical, ok := p.aliases[key]; ok {
		return canonical
	}
	return key
}

// Composite combines the two rounded sub-scores, rounding half up.
func (p Policy) Composite(skills, experience int) int {
	return clamp(roundDiv(p.skillsWeight*skills+p.experienceWeight*experience, 100))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// roundDiv returns num/den rounded to the nearest integer, halves up. Both
// arguments must be non-negative and den positive.
func roundDiv(num, den int) int {
	return (2*num + den) / (2 * den)
}

func clamp(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
