package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/model"
)

// notProvided is the single placeholder rendered for any missing field.
// Formatting never fails: a sparse work-package still compiles.
const notProvided = "not provided"

// TemplateInput is everything a category template may reference, flattened
// from the work-package, its project and its steps.
type TemplateInput struct {
	ProjectTitle     string
	EstimatedBudget  float64
	EstimatedDays    int
	WorkPackageTitle string
	Description      string
	EstimatedHours   float64
	EstimatedCost    float64
	RequiredTools    []string
	Difficulty       string
	ProfessionalTips []string
}

// BuildTemplateInput flattens the entity tree into template fields. Tools
// are the union across steps; difficulty is the hardest step's grade.
func BuildTemplateInput(p *model.Project, wp *model.WorkPackage, steps []model.Step) TemplateInput {
	toolSet := make(map[string]struct{})
	var tips []string
	hardest := 0
	rank := map[model.Difficulty]int{
		model.DifficultyEasy:   1,
		model.DifficultyMedium: 2,
		model.DifficultyHard:   3,
	}
	difficulty := ""
	for _, s := range steps {
		for _, tool := range s.RequiredTools {
			toolSet[tool] = struct{}{}
		}
		if s.ProfessionalTip != "" {
			tips = append(tips, s.ProfessionalTip)
		}
		if r := rank[s.Difficulty]; r > hardest {
			hardest = r
			difficulty = string(s.Difficulty)
		}
	}

	tools := make([]string, 0, len(toolSet))
	for tool := range toolSet {
		tools = append(tools, tool)
	}
	sort.Strings(tools)

	return TemplateInput{
		ProjectTitle:     p.Title,
		EstimatedBudget:  p.EstimatedBudget,
		EstimatedDays:    p.EstimatedDays,
		WorkPackageTitle: wp.Title,
		Description:      wp.Description,
		EstimatedHours:   wp.EstimatedHours,
		EstimatedCost:    wp.EstimatedCost,
		RequiredTools:    tools,
		Difficulty:       difficulty,
		ProfessionalTips: tips,
	}
}

// field binds a template label to its extractor. Each category template
// declares its fields explicitly, so missing-field behaviour is one rule
// here instead of guards scattered per template.
type field struct {
	label string
	value func(in TemplateInput) string
}

func text(s string) string {
	if strings.TrimSpace(s) == "" {
		return notProvided
	}
	return s
}

func money(v float64) string {
	if v == 0 {
		return notProvided
	}
	return fmt.Sprintf("%.2f EUR", v)
}

func hours(v float64) string {
	if v == 0 {
		return notProvided
	}
	return fmt.Sprintf("%.1f h", v)
}

func days(v int) string {
	if v == 0 {
		return notProvided
	}
	return fmt.Sprintf("%d days", v)
}

func list(items []string) string {
	if len(items) == 0 {
		return notProvided
	}
	return strings.Join(items, ", ")
}

var templates = map[model.ResourceCategory]struct {
	title  string
	fields []field
}{
	model.CategoryDiscovery: {
		title: "Work overview",
		fields: []field{
			{"Project", func(in TemplateInput) string { return text(in.ProjectTitle) }},
			{"Work package", func(in TemplateInput) string { return text(in.WorkPackageTitle) }},
			{"Description", func(in TemplateInput) string { return text(in.Description) }},
			{"Estimated duration", func(in TemplateInput) string { return days(in.EstimatedDays) }},
			{"Estimated budget", func(in TemplateInput) string { return money(in.EstimatedBudget) }},
		},
	},
	model.CategoryPreselection: {
		title: "Requirements and constraints",
		fields: []field{
			{"Work package", func(in TemplateInput) string { return text(in.WorkPackageTitle) }},
			{"Difficulty", func(in TemplateInput) string { return text(in.Difficulty) }},
			{"Required tools", func(in TemplateInput) string { return list(in.RequiredTools) }},
			{"Estimated effort", func(in TemplateInput) string { return hours(in.EstimatedHours) }},
		},
	},
	model.CategorySelection: {
		title: "Full work detail",
		fields: []field{
			{"Project", func(in TemplateInput) string { return text(in.ProjectTitle) }},
			{"Work package", func(in TemplateInput) string { return text(in.WorkPackageTitle) }},
			{"Description", func(in TemplateInput) string { return text(in.Description) }},
			{"Difficulty", func(in TemplateInput) string { return text(in.Difficulty) }},
			{"Required tools", func(in TemplateInput) string { return list(in.RequiredTools) }},
			{"Estimated effort", func(in TemplateInput) string { return hours(in.EstimatedHours) }},
			{"Estimated cost", func(in TemplateInput) string { return money(in.EstimatedCost) }},
			{"Professional tips", func(in TemplateInput) string { return list(in.ProfessionalTips) }},
		},
	},
}

// Render produces the content block for one category. Unknown categories
// render an empty overview rather than failing; the pool catalog is the
// gatekeeper for which categories exist.
func Render(category model.ResourceCategory, in TemplateInput) string {
	tpl, ok := templates[category]
	if !ok {
		tpl = templates[model.CategoryDiscovery]
	}

	var b strings.Builder
	b.WriteString(tpl.title)
	b.WriteString("\n\n")
	for _, f := range tpl.fields {
		b.WriteString(f.label)
		b.WriteString(": ")
		b.WriteString(f.value(in))
		b.WriteString("\n")
	}
	return b.String()
}
