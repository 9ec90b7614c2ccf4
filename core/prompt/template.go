package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/siherrmann/matcher/helper"
	"github.com/siherrmann/matcher/model"
)

// partKind tags a template part with the placeholder it carries. The kind
// decides how the part is repeated during expansion: a source-attribute part
// is emitted once per source attribute in the prompt's source group, a
// target-attribute part once per target attribute, and a plain part once.
type partKind int

const (
	partPlain partKind = iota
	partSourceAttribute
	partTargetAttribute
)

// templatePart is one role-tagged message part with its parsed template.
type templatePart struct {
	role string
	kind partKind
	tpl  *template.Template
}

// Template is a loaded prompt template: an ordered list of role-tagged
// message parts with placeholder kinds decided once at load time, so
// rendering is a pure function of (template, attribute groups).
type Template struct {
	Name  string
	parts []templatePart
}

// templateFilePart is the on-disk shape of one template part.
type templateFilePart struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LoadTemplate reads and parses a template file ("<dir>/<name>.json", a JSON
// array of {role, content} objects). Content placeholders use text/template
// syntax over a lowercase dotted context: {{.source_relation.name}},
// {{.source_attribute.name}}, {{.source_attribute.description}},
// {{.target_relation.name}}, {{.target_attribute.name}},
// {{.target_attribute.description}} and {{.feedback.general}} /
// {{.feedback.attributes}} / {{.feedback.pair}}.
func LoadTemplate(dir string, name string) (*Template, error) {
	path := filepath.Join(dir, name+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, helper.NewError(
			fmt.Sprintf("read template %v", path),
			fmt.Errorf("%w: %v", helper.ErrConfiguration, err),
		)
	}

	var fileParts []templateFilePart
	err = json.Unmarshal(raw, &fileParts)
	if err != nil {
		return nil, helper.NewError(
			fmt.Sprintf("parse template %v", path),
			fmt.Errorf("%w: %v", helper.ErrConfiguration, err),
		)
	}

	parts := make([]templatePart, 0, len(fileParts))
	for i, filePart := range fileParts {
		kind := partPlain
		if strings.Contains(filePart.Content, "{{.source_attribute") {
			kind = partSourceAttribute
		} else if strings.Contains(filePart.Content, "{{.target_attribute") {
			kind = partTargetAttribute
		}

		tpl, err := template.New(fmt.Sprintf("%s[%d]", name, i)).Parse(filePart.Content)
		if err != nil {
			return nil, helper.NewError(
				fmt.Sprintf("parse template part %d of %v", i, path),
				fmt.Errorf("%w: %v", helper.ErrConfiguration, err),
			)
		}

		parts = append(parts, templatePart{
			role: filePart.Role,
			kind: kind,
			tpl:  tpl,
		})
	}

	return &Template{Name: name, parts: parts}, nil
}

// Render expands the template against the given attribute groups. A
// source-attribute part repeats per source attribute with the target fixed
// at the group's first member, and symmetrically for target parts. Parts
// that render to empty content are dropped from the message sequence.
func (t *Template) Render(parameters *model.Parameters, sources []*model.Attribute, targets []*model.Attribute) ([]model.Message, error) {
	var messages []model.Message

	render := func(part templatePart, source *model.Attribute, target *model.Attribute) error {
		var buf bytes.Buffer
		err := part.tpl.Execute(&buf, renderContext(parameters, source, target))
		if err != nil {
			return helper.NewError(fmt.Sprintf("render template %v", t.Name), err)
		}
		if buf.Len() > 0 {
			messages = append(messages, model.Message{Role: part.role, Content: buf.String()})
		}
		return nil
	}

	for _, part := range t.parts {
		switch part.kind {
		case partSourceAttribute:
			for _, source := range sources {
				if err := render(part, source, targets[0]); err != nil {
					return nil, err
				}
			}
		case partTargetAttribute:
			for _, target := range targets {
				if err := render(part, sources[0], target); err != nil {
					return nil, err
				}
			}
		default:
			if err := render(part, sources[0], targets[0]); err != nil {
				return nil, err
			}
		}
	}

	return messages, nil
}

// renderContext builds the substitution context for one (source, target)
// combination.
func renderContext(parameters *model.Parameters, source *model.Attribute, target *model.Attribute) map[string]interface{} {
	return map[string]interface{}{
		"source_relation":  relationContext(parameters.SourceRelation),
		"source_attribute": attributeContext(source),
		"target_relation":  relationContext(parameters.TargetRelation),
		"target_attribute": attributeContext(target),
		"feedback":         feedbackContext(parameters.Feedback, source, target),
	}
}

func relationContext(relation *model.Relation) map[string]string {
	return map[string]string{
		"name":        relation.Name,
		"description": relation.Description,
	}
}

func attributeContext(attribute *model.Attribute) map[string]string {
	return map[string]string{
		"name":        attribute.Name,
		"description": attribute.Description,
	}
}

// feedbackContext exposes the general note plus the annotations relevant to
// the current (source, target) combination.
func feedbackContext(feedback *model.Feedback, source *model.Attribute, target *model.Attribute) map[string]string {
	context := map[string]string{
		"general":    "",
		"attributes": "",
		"pair":       "",
	}
	if feedback == nil {
		return context
	}

	context["general"] = feedback.General

	var notes []string
	for _, attribute := range []*model.Attribute{source, target} {
		if note := feedback.PerAttribute[attribute.Name]; note != "" {
			notes = append(notes, fmt.Sprintf("%s: %s", attribute.Name, note))
		}
	}
	context["attributes"] = strings.Join(notes, "\n")

	pairKey := model.AttributePair{Source: source, Target: target}.String()
	context["pair"] = feedback.PerPair[pairKey]

	return context
}
