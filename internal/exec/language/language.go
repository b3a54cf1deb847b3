// Package language defines the language registry mapping identifiers to toolchain recipes.
package language

import (
	"strings"
	"time"

	"github.com/google/shlex"

	appErr "termchat/pkg/errors"
)

// Spec defines how to compile and run one language.
type Spec struct {
	ID              string        `yaml:"id"`
	Name            string        `yaml:"name"`
	SourceExtension string        `yaml:"sourceExtension"`
	CompileEnabled  bool          `yaml:"compileEnabled"`
	CompileCmdTpl   string        `yaml:"compileCmdTpl"`
	RunCmdTpl       string        `yaml:"runCmdTpl"`
	BinaryFile      string        `yaml:"binaryFile"`
	Env             []string      `yaml:"env"`
	DefaultTimeout  time.Duration `yaml:"defaultTimeout"`
}

// Registry resolves language identifiers to specs. Read-only after construction.
type Registry struct {
	specs   map[string]Spec
	aliases map[string]string
}

// NewRegistry builds a registry from spec lists. Later entries override earlier
// ones with the same ID, so callers can layer config over Defaults().
func NewRegistry(lists ...[]Spec) (*Registry, error) {
	specs := make(map[string]Spec)
	for _, list := range lists {
		for _, spec := range list {
			if spec.ID == "" {
				continue
			}
			if err := validateSpec(spec); err != nil {
				return nil, err
			}
			specs[spec.ID] = spec
		}
	}
	return &Registry{specs: specs, aliases: defaultAliases()}, nil
}

// Lookup returns the spec for a language identifier or its alias.
func (r *Registry) Lookup(id string) (Spec, error) {
	key := strings.ToLower(strings.TrimSpace(id))
	if key == "" {
		return Spec{}, appErr.ValidationError("language_id", "required")
	}
	if canonical, ok := r.aliases[key]; ok {
		key = canonical
	}
	spec, ok := r.specs[key]
	if !ok {
		return Spec{}, appErr.Newf(appErr.LanguageNotSupported, "language not supported: %s", id)
	}
	return spec, nil
}

// IDs returns the canonical identifiers of all registered languages.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.specs))
	for id := range r.specs {
		ids = append(ids, id)
	}
	return ids
}

// CompileCommand expands the compile template into an argument vector.
func (s Spec) CompileCommand(srcPath, binPath string) ([]string, error) {
	if !s.CompileEnabled {
		return nil, appErr.Newf(appErr.InvalidParams, "language %s has no compile step", s.ID)
	}
	return expandTemplate(s.CompileCmdTpl, srcPath, binPath, nil)
}

// RunCommand expands the run template into an argument vector with user
// arguments appended. Arguments are never re-tokenized.
func (s Spec) RunCommand(srcPath, binPath string, args []string) ([]string, error) {
	return expandTemplate(s.RunCmdTpl, srcPath, binPath, args)
}

// expandTemplate tokenizes the template first and substitutes placeholders
// inside each token afterwards, so untrusted paths cannot alter the token
// structure of the command.
func expandTemplate(tpl, srcPath, binPath string, args []string) ([]string, error) {
	if strings.TrimSpace(tpl) == "" {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("command template is required")
	}
	tokens, err := shlex.Split(tpl)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.InvalidParams, "parse command template failed")
	}
	if len(tokens) == 0 {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("command is empty after expansion")
	}
	cmd := make([]string, 0, len(tokens)+len(args))
	for _, token := range tokens {
		token = strings.ReplaceAll(token, "{src}", srcPath)
		token = strings.ReplaceAll(token, "{bin}", binPath)
		cmd = append(cmd, token)
	}
	cmd = append(cmd, args...)
	return cmd, nil
}

func validateSpec(spec Spec) error {
	if spec.SourceExtension == "" {
		return appErr.Newf(appErr.InvalidParams, "language %s: source extension is required", spec.ID)
	}
	if !strings.HasPrefix(spec.SourceExtension, ".") {
		return appErr.Newf(appErr.InvalidParams, "language %s: source extension must start with a dot", spec.ID)
	}
	if strings.TrimSpace(spec.RunCmdTpl) == "" {
		return appErr.Newf(appErr.InvalidParams, "language %s: run command template is required", spec.ID)
	}
	if spec.CompileEnabled {
		if strings.TrimSpace(spec.CompileCmdTpl) == "" {
			return appErr.Newf(appErr.InvalidParams, "language %s: compile command template is required", spec.ID)
		}
		if spec.BinaryFile == "" {
			return appErr.Newf(appErr.InvalidParams, "language %s: binary file name is required", spec.ID)
		}
	}
	if _, err := shlex.Split(spec.RunCmdTpl); err != nil {
		return appErr.Wrapf(err, appErr.InvalidParams, "language %s: invalid run command template", spec.ID)
	}
	if spec.CompileCmdTpl != "" {
		if _, err := shlex.Split(spec.CompileCmdTpl); err != nil {
			return appErr.Wrapf(err, appErr.InvalidParams, "language %s: invalid compile command template", spec.ID)
		}
	}
	return nil
}

func defaultAliases() map[string]string {
	return map[string]string{
		"c99":    "c",
		"c11":    "c",
		"c++":    "cpp",
		"cxx":    "cpp",
		"c#":     "cs",
		"csharp": "cs",
		"bash":   "shell",
		"sh":     "shell",
	}
}
