package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/simonhull/firebird-suite/molt/internal/codemod"
	"github.com/simonhull/firebird-suite/molt/internal/config"
	"github.com/simonhull/firebird-suite/molt/internal/input"
	"github.com/simonhull/firebird-suite/molt/internal/logger"
	"github.com/simonhull/firebird-suite/molt/internal/output"
	"github.com/simonhull/firebird-suite/molt/internal/project"
	"github.com/simonhull/firebird-suite/molt/internal/prompt"
	"github.com/simonhull/firebird-suite/molt/internal/snapshot"
	"github.com/simonhull/firebird-suite/molt/internal/version"
)

// workspaceEnv is what every project command starts from.
type workspaceEnv struct {
	root string
	cfg  *config.Config
	log  logger.Logger
	out  *output.Printer
}

// openProject finds the project around the --dir flag and loads its
// configuration.
func openProject(cmd *cobra.Command) (*workspaceEnv, error) {
	root, err := project.FindRoot(flagDir, project.ConfigName, config.DefaultMarker)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	out := output.NewPrinter(cmd.OutOrStdout())
	out.SetVerbose(flagVerbose)

	level, err := logger.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, err
	}
	if flagVerbose {
		level = logger.LevelDebug
	}
	log := logger.New(level, cmd.ErrOrStderr())

	out.Verbose(fmt.Sprintf("Project root: %s", root))
	return &workspaceEnv{root: root, cfg: cfg, log: log, out: out}, nil
}

// projectData returns the template data for the project, filling gaps in
// the configuration from go.mod.
func (e *workspaceEnv) projectData() snapshot.Data {
	data := snapshot.Data{Name: e.cfg.Project.Name, Module: e.cfg.Project.Module}
	if data.Name != "" && data.Module != "" {
		return data
	}

	mod, err := project.DetectModule(e.root)
	if err != nil {
		e.log.Debug("no module info", logger.Err(err))
		if data.Name == "" {
			data.Name = filepath.Base(e.root)
		}
		return data
	}
	if data.Module == "" {
		data.Module = mod.Path
	}
	if data.Name == "" {
		data.Name = mod.Name()
	}
	return data
}

// provider opens the blueprint source named by the configuration.
func (e *workspaceEnv) provider(ctx context.Context) (snapshot.Provider, error) {
	bp := e.cfg.Blueprints
	data := e.projectData()

	switch {
	case bp.Dir != "":
		info, err := os.Stat(bp.Dir)
		if err != nil {
			return nil, fmt.Errorf("blueprints directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("blueprints directory %s is not a directory", bp.Dir)
		}
		return snapshot.NewFSProvider(os.DirFS(bp.Dir), data), nil
	case bp.Git != "":
		source := bp.Git
		if isLocalPath(source) && !filepath.IsAbs(source) {
			source = filepath.Join(e.root, source)
		}
		e.out.Verbose(fmt.Sprintf("Opening blueprint repository %s", source))
		return snapshot.OpenGit(ctx, source, bp.Subdir, data)
	default:
		return nil, errors.New("no blueprint source configured (set blueprints.dir or blueprints.git in molt.yml)")
	}
}

func isLocalPath(source string) bool {
	return !strings.Contains(source, "://") && !strings.HasPrefix(source, "git@")
}

// codemods returns the bundled codemods followed by the project's own.
func (e *workspaceEnv) codemods() ([]codemod.Spec, error) {
	local, err := e.cfg.CodemodSpecs()
	if err != nil {
		return nil, err
	}
	return append(codemod.DefaultRegistry().Specs(), local...), nil
}

// confirmer picks how codemod confirmation is asked: not at all with --yes,
// a menu on a terminal, line prompts otherwise.
func confirmer(cmd *cobra.Command, yes bool) codemod.Confirmer {
	if yes {
		return codemod.AcceptAll
	}
	in, out := cmd.InOrStdin(), cmd.OutOrStdout()
	if isTerminal(in) && isTerminal(out) {
		return codemod.NewInteractive(prompt.Menu{In: in, Out: out})
	}
	return codemod.NewInteractive(codemod.LineAsker{Reader: input.New(in, out)})
}

// announced lists the selected codemods before the first one is asked about.
type announced struct {
	codemod.Confirmer
	out *output.Printer
}

func (a announced) Announce(specs []codemod.Spec) {
	listCodemods(a.out, specs)
}

func listCodemods(out *output.Printer, specs []codemod.Spec) {
	out.Info("These codemods apply to your project:")
	for _, s := range specs {
		out.Step(fmt.Sprintf("%s  %s", s.ID, s.Description))
	}
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// parseVersion parses an optional version flag.
func parseVersion(flag, value string) (*version.Version, error) {
	if value == "" {
		return nil, nil
	}
	v, err := version.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", flag, err)
	}
	return v, nil
}

// latest returns the newest stable blueprint version.
func latest(ctx context.Context, p snapshot.Provider) (*version.Version, error) {
	vs, err := p.Versions(ctx)
	if err != nil {
		return nil, err
	}
	if v := version.Latest(vs, false); v != nil {
		return v, nil
	}
	return nil, snapshot.ErrUnknownVersion
}

// offered returns the codemods an update from..to would offer, including
// those shipped with the target blueprint.
func (e *workspaceEnv) offered(ctx context.Context, p snapshot.Provider, from, to *version.Version) ([]codemod.Spec, error) {
	specs, err := e.codemods()
	if err != nil {
		return nil, err
	}
	if src, ok := p.(snapshot.CodemodSource); ok {
		shipped, err := src.Codemods(ctx, to)
		if err != nil {
			return nil, err
		}
		specs = append(specs, shipped...)
	}
	return codemod.Select(specs, from, to), nil
}
