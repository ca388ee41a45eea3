package stage

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	placeholderRe = regexp.MustCompile(`\{\{(in|out)\.([a-zA-Z_][a-zA-Z0-9_-]*)\}\}`)
	nameRe        = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)
)

// ValidName reports whether an input or output name can be referenced
// as a {{in.x}} / {{out.x}} placeholder. Names outside this grammar
// (e.g. dotted keys) would never match a placeholder and must be
// rejected at config time.
func ValidName(name string) bool {
	return nameRe.MatchString(name)
}

// RenderCommand expands {{in.name}} and {{out.name}} placeholders in a
// command string against concrete paths. Placeholders that reference an
// undeclared input or output cause an error.
func RenderCommand(command string, ins, outs map[string]string) (string, error) {
	var missing []string
	expanded := placeholderRe.ReplaceAllStringFunc(command, func(match string) string {
		m := placeholderRe.FindStringSubmatch(match)
		kind, name := m[1], m[2]
		var val string
		var ok bool
		if kind == "in" {
			val, ok = ins[name]
		} else {
			val, ok = outs[name]
		}
		if !ok {
			missing = append(missing, kind+"."+name)
			return match // leave placeholder for error reporting
		}
		return val
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("undeclared command placeholders: %s", strings.Join(missing, ", "))
	}
	return expanded, nil
}

// Placeholders returns every {{in.x}} / {{out.x}} reference in a command
// as "in.x" / "out.x" strings. Used by config validation.
func Placeholders(command string) []string {
	var refs []string
	for _, m := range placeholderRe.FindAllStringSubmatch(command, -1) {
		refs = append(refs, m[1]+"."+m[2])
	}
	return refs
}
