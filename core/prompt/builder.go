package prompt

import (
	"fmt"
	"strings"
	"sync"

	"github.com/siherrmann/matcher/database"
	"github.com/siherrmann/matcher/helper"
	"github.com/siherrmann/matcher/model"
)

// Mode is a cardinality mode: how many source and target attributes one
// prompt addresses at once.
type Mode string

const (
	ModeOneToOne Mode = "1-1"
	ModeOneToN   Mode = "1-n"
	ModeNToOne   Mode = "n-1"
	ModeNToN     Mode = "n-n"
)

// DefaultModes are the modes used when the caller does not request specific
// ones.
var DefaultModes = []Mode{ModeOneToN, ModeNToOne, ModeNToN}

// TemplateName returns the template file name (without extension) for the
// mode.
func (m Mode) TemplateName() string {
	switch m {
	case ModeOneToOne:
		return "oneToOne"
	case ModeOneToN:
		return "oneToN"
	case ModeNToOne:
		return "nToOne"
	case ModeNToN:
		return "nToN"
	}
	return string(m)
}

// arities splits the mode into its source and target arity ("1" or "n").
func (m Mode) arities() (string, string) {
	source, target, _ := strings.Cut(string(m), "-")
	return source, target
}

// Builder expands parameters into the full set of prompts needed to cover
// every included attribute combination under the requested cardinality
// modes. Loaded templates are cached per builder.
type Builder struct {
	config model.MatchConfig
	store  *database.Store

	mu        sync.Mutex
	templates map[string]*Template
}

// NewBuilder creates a prompt builder.
func NewBuilder(config model.MatchConfig, store *database.Store) *Builder {
	return &Builder{
		config:    config,
		store:     store,
		templates: map[string]*Template{},
	}
}

// BuildPrompts generates one prompt per (mode, attribute group) combination
// over the included attributes of both relations. Every generated prompt is
// stored before being returned so downstream dispatch can link completions
// and answers to it.
func (b *Builder) BuildPrompts(parameters *model.Parameters, modes ...Mode) ([]*model.Prompt, error) {
	if len(modes) == 0 {
		modes = DefaultModes
	}

	sources := parameters.SourceRelation.IncludedAttributes()
	if len(sources) == 0 {
		return nil, helper.NewError(
			fmt.Sprintf("build prompts for relation %v", parameters.SourceRelation.Name),
			fmt.Errorf("%w: relation has no included attributes", helper.ErrInvalidInput),
		)
	}
	targets := parameters.TargetRelation.IncludedAttributes()
	if len(targets) == 0 {
		return nil, helper.NewError(
			fmt.Sprintf("build prompts for relation %v", parameters.TargetRelation.Name),
			fmt.Errorf("%w: relation has no included attributes", helper.ErrInvalidInput),
		)
	}

	modelName := parameters.LLMModel
	if modelName == "" {
		modelName = b.config.ModelName
	}

	var prompts []*model.Prompt
	for _, mode := range modes {
		tpl, err := b.template(mode)
		if err != nil {
			return nil, err
		}

		sourceArity, targetArity := mode.arities()
		sourceGroups := groupAttributes(sources, sourceArity)
		targetGroups := groupAttributes(targets, targetArity)

		for _, sourceGroup := range sourceGroups {
			for _, targetGroup := range targetGroups {
				messages, err := tpl.Render(parameters, sourceGroup, targetGroup)
				if err != nil {
					return nil, err
				}

				prompt := &model.Prompt{
					Parameters: parameters,
					Attributes: model.PromptAttributePair{
						Sources: sourceGroup,
						Targets: targetGroup,
					},
					Request: model.CompletionRequest{
						Model:       modelName,
						Temperature: b.config.Temperature,
						Messages:    messages,
						N:           b.config.CompletionsPerPrompt,
						Timeout:     b.config.RequestTimeout.Seconds(),
					},
					Meta: model.Meta{},
				}

				prompt, err = b.store.StorePrompt(prompt)
				if err != nil {
					return nil, helper.NewError("store prompt", err)
				}
				prompts = append(prompts, prompt)
			}
		}
	}

	return prompts, nil
}

// template returns the cached template for a mode, loading it on first use.
func (b *Builder) template(mode Mode) (*Template, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	name := mode.TemplateName()
	if tpl, ok := b.templates[name]; ok {
		return tpl, nil
	}

	tpl, err := LoadTemplate(b.config.TemplateDir, name)
	if err != nil {
		return nil, err
	}
	b.templates[name] = tpl

	return tpl, nil
}

// groupAttributes returns the attribute groups for one arity: one group per
// attribute for arity "1", a single group holding all attributes for "n".
func groupAttributes(attributes []*model.Attribute, arity string) [][]*model.Attribute {
	if arity == "n" {
		return [][]*model.Attribute{attributes}
	}
	groups := make([][]*model.Attribute, 0, len(attributes))
	for _, attribute := range attributes {
		groups = append(groups, []*model.Attribute{attribute})
	}
	return groups
}
