package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	env "github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/lerenn/asyncapi-codegen/internal/emitter/appemitter"
	"github.com/lerenn/asyncapi-codegen/internal/emitter/common"
	"github.com/lerenn/asyncapi-codegen/internal/emitter/typesemitter"
	"github.com/lerenn/asyncapi-codegen/internal/emitter/useremitter"
	"github.com/lerenn/asyncapi-codegen/internal/ir"
	genspec "github.com/lerenn/asyncapi-codegen/internal/spec"
)

// Generation kinds accepted by --generate.
const (
	KindTypes       = "types"
	KindApplication = "application"
	KindUser        = "user"
	KindAll         = "all"
)

// GenerateConfig captures all inputs that influence the generate command
// after merging defaults, environment variables, config file values, and
// CLI overrides (in that precedence order, lowest first).
type GenerateConfig struct {
	Input       string
	Kind        string
	Output      string
	PackageName string
	ConfigPath  string
	DryRun      bool
	Force       bool
	Verbose     bool
}

// envOverrides is the environment layer of the config merge.
type envOverrides struct {
	Input       string `env:"ASYNCAPI_CODEGEN_INPUT"`
	Kind        string `env:"ASYNCAPI_CODEGEN_GENERATE"`
	Output      string `env:"ASYNCAPI_CODEGEN_OUTPUT"`
	PackageName string `env:"ASYNCAPI_CODEGEN_PACKAGE"`
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{Kind: KindAll, PackageName: "asyncapi"}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate Go code from an AsyncAPI document",
		Long: "Generate Go code from an AsyncAPI document. " +
			"Options can be provided via flags, environment variables, config files, or defaults.",
		Example: strings.TrimSpace(`  asyncapi-codegen generate -i asyncapi.yaml -g all -p account -o account.gen.go
  asyncapi-codegen generate -i asyncapi.yaml -g user -o user.gen.go
  asyncapi-codegen --config codegen.yaml generate --force --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringP("input", "i", "", "Path to the AsyncAPI document (YAML or JSON)")
	flags.StringP("generate", "g", "", "Generation kind (types|application|user|all); defaults to all")
	flags.StringP("output", "o", "", "Output file (derived from the kind when omitted)")
	flags.StringP("package", "p", "", "Package name of the generated file; defaults to asyncapi")
	flags.Bool("dry-run", false, "Render without writing the output file")
	flags.Bool("force", false, "Overwrite an existing output file")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	var envs envOverrides
	if err := env.Parse(&envs); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	applyEnvOverrides(&cfg, envs)

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnvOverrides(cfg *GenerateConfig, envs envOverrides) {
	if v := strings.TrimSpace(envs.Input); v != "" {
		cfg.Input = v
	}
	if v := strings.TrimSpace(envs.Kind); v != "" {
		cfg.Kind = v
	}
	if v := strings.TrimSpace(envs.Output); v != "" {
		cfg.Output = v
	}
	if v := strings.TrimSpace(envs.PackageName); v != "" {
		cfg.PackageName = v
	}
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	if flags.Changed("input") {
		value, err := flags.GetString("input")
		if err != nil {
			return err
		}
		cfg.Input = strings.TrimSpace(value)
	}
	if flags.Changed("generate") {
		value, err := flags.GetString("generate")
		if err != nil {
			return err
		}
		cfg.Kind = strings.TrimSpace(value)
	}
	if flags.Changed("output") {
		value, err := flags.GetString("output")
		if err != nil {
			return err
		}
		cfg.Output = strings.TrimSpace(value)
	}
	if flags.Changed("package") {
		value, err := flags.GetString("package")
		if err != nil {
			return err
		}
		cfg.PackageName = strings.TrimSpace(value)
	}
	if flags.Changed("dry-run") {
		value, err := flags.GetBool("dry-run")
		if err != nil {
			return err
		}
		cfg.DryRun = value
	}
	if flags.Changed("force") {
		value, err := flags.GetBool("force")
		if err != nil {
			return err
		}
		cfg.Force = value
	}
	if flags.Changed("verbose") {
		value, err := flags.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = value
	}

	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Kind = strings.ToLower(strings.TrimSpace(c.Kind))
	c.Output = strings.TrimSpace(c.Output)
	c.PackageName = strings.TrimSpace(c.PackageName)
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: --input is required (set via flag, env, or config file)")
	}

	switch c.Kind {
	case "":
		c.Kind = KindAll
	case KindTypes, KindApplication, KindUser, KindAll:
	default:
		return newUsageError(fmt.Sprintf("generate: unsupported --generate %q (allowed: types, application, user, all)", c.Kind))
	}

	if c.PackageName == "" {
		c.PackageName = "asyncapi"
	}
	if c.Output == "" {
		c.Output = defaultOutputFile(c.Kind)
	}
	return nil
}

func defaultOutputFile(kind string) string {
	switch kind {
	case KindTypes:
		return "types.gen.go"
	case KindApplication:
		return "app.gen.go"
	case KindUser:
		return "user.gen.go"
	default:
		return "asyncapi.gen.go"
	}
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	// 1) Load and resolve the document.
	doc, err := genspec.Load(cfg.Input)
	if err != nil {
		return mapSpecError(err)
	}

	// 2) Derive the type model and the generation units.
	ts, err := ir.ResolveTypes(doc)
	if err != nil {
		return mapSpecError(err)
	}
	units, err := ir.BuildIR(doc, ts)
	if err != nil {
		return mapSpecError(err)
	}

	opts := common.Options{
		PackageName: cfg.PackageName,
		OutFile:     cfg.Output,
		Force:       cfg.Force,
		DryRun:      cfg.DryRun,
		Verbose:     cfg.Verbose,
	}

	// 3) Emit the selected target.
	var res *common.Result
	switch cfg.Kind {
	case KindTypes:
		res, err = typesemitter.Emit(ctx, ts, opts)
	case KindApplication:
		res, err = appemitter.Emit(ctx, units, opts)
	case KindUser:
		res, err = useremitter.Emit(ctx, units, opts)
	case KindAll:
		res, err = emitAll(units, ts, opts)
	default:
		// Should not happen due to earlier validation, but keep defensive.
		return newUsageError(fmt.Sprintf("generate: unsupported --generate %q", cfg.Kind))
	}
	if err != nil {
		if emitErr := mapSpecError(err); emitErr != err {
			return emitErr
		}
		return wrapOutputError(err, cfg.Output)
	}

	if cfg.DryRun {
		fmt.Fprintf(os.Stdout, "Planned write to %s (%d bytes)\n", res.OutFile, res.Size)
	} else if cfg.Verbose {
		fmt.Fprintf(os.Stdout, "Wrote %s (%d bytes)\n", res.OutFile, res.Size)
	}
	return nil
}

// emitAll combines the three targets into one output file, the generator's
// default mode.
func emitAll(units []ir.GenerationUnit, ts *ir.TypeSet, opts common.Options) (*common.Result, error) {
	typesFrag, err := typesemitter.Fragment(ts)
	if err != nil {
		return nil, err
	}
	appFrag, err := appemitter.Fragment(units)
	if err != nil {
		return nil, err
	}
	userFrag, err := useremitter.Fragment(units)
	if err != nil {
		return nil, err
	}
	return common.Emit(opts, typesFrag, appFrag, userFrag)
}

// mapSpecError turns structured pipeline errors into friendly messages; any
// other error passes through unchanged.
func mapSpecError(err error) error {
	var se *genspec.Error
	if !errors.As(err, &se) {
		return err
	}
	msg := fmt.Sprintf("%s: %s", se.Kind, se.Message)
	if se.Path != "" {
		msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Path)
	}
	if se.Pointer != "" {
		msg = fmt.Sprintf("%s\nPointer: %s", msg, se.Pointer)
	}
	return newUsageError(msg)
}

func wrapOutputError(err error, outFile string) error {
	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "already exists") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --output or use --force when appropriate.", outFile, msg))
	}
	return err
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	for key, value := range raw {
		normalized := normalizeKey(key)
		switch normalized {
		case "input":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Input = str
		case "generate":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Kind = str
		case "output":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Output = str
		case "package", "packagename":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.PackageName = str
		case "dryrun":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.DryRun = val
		case "force":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Force = val
		case "verbose":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Verbose = val
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}
