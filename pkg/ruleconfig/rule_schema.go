package ruleconfig

import "fmt"

func validateMacro(v any) error {
	if err := ValidateArray(v, 2, stringValidator(false)); err != nil {
		return err
	}
	if name, _ := v.([]any)[0].(string); name == "" {
		return &ValidationIssue{Path: "[0]", Message: "macro name must not be empty."}
	}
	return nil
}

func validateMacros(v any) error {
	return ValidateArray(v, 0, validateMacro)
}

var templateShape = Shape{
	Fields: []Field{
		{Name: "template", Validate: stringValidator(false)},
		{Name: "comment", Validate: stringValidator(false), Optional: true},
	},
}

func validateTemplate(v any) error {
	return ValidateObject(v, templateShape)
}

func validateTemplates(v any) error {
	if obj, ok := v.(map[string]any); ok {
		if _, ok := obj[""]; ok {
			return &ValidationIssue{Path: `[""]`, Message: "template name must not be empty."}
		}
	}
	return ValidateObject(v, Shape{Rest: validateTemplate})
}

// validateCustomStyle accepts a string or a template reference array. A
// top-level element may also be null, which resets the inherited list.
func validateCustomStyle(topLevel bool) Validator {
	return func(v any) error {
		switch v.(type) {
		case string:
			return nil
		case nil:
			if topLevel {
				return nil
			}
		case []any:
			return ValidateArray(v, 0, validateCustomStyle(false))
		default:
			if topLevel {
				return issuef("must be a string, an array, or null.")
			}
		}
		return issuef("must be a string or an array.")
	}
}

func validateCustomStyles(v any) error {
	return ValidateArray(v, 0, validateCustomStyle(true))
}

// validateRules only checks the container; each child is validated when
// it is compiled against its parent.
func validateRules(v any) error {
	return ValidateArray(v, 0)
}

// ruleShape returns the schema of a rule object for the given style names.
func ruleShape(styles StyleNames) Shape {
	return Shape{
		Fields: []Field{
			{Name: "regex", Validate: ValidatePattern, Optional: true},
			{Name: "level", Validate: ValidateLevel},
			{Name: "comment", Validate: stringValidator(false), Optional: true},
			{Name: "macros", Validate: validateMacros},
			{Name: "templates", Validate: validateTemplates},
			{Name: "staticStyles", Validate: func(v any) error {
				return ValidateArray(v, 0, includesValidator(styles.allowedStatic()))
			}},
			{Name: "dynamicStyles", Validate: func(v any) error {
				return ValidateArray(v, 0, includesValidator(styles.allowedDynamic()))
			}},
			{Name: "customStyles", Validate: validateCustomStyles},
			{Name: "rules", Validate: validateRules},
		},
	}
}

// ValidateRule checks a single rule object, without defaults applied and
// without descending into its children.
func ValidateRule(v any, styles StyleNames) error {
	return ValidateObject(v, ruleShape(styles))
}

func indexPath(field string, i int) string {
	return fmt.Sprintf("%s[%d]", field, i)
}
