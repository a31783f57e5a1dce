package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"devbox/internal/appconfig"
	"devbox/internal/fileutil"
	"devbox/internal/project"
	"devbox/internal/services"
	"devbox/internal/shell"
)

const aptEnv = "DEBIAN_FRONTEND=noninteractive"

func (p *provisioner) packagesUpdate(ctx context.Context) outcome {
	switch {
	case p.opts.SkipPackages:
		return skipped("--skip-packages")
	case !p.cfg.Packages.Update:
		return skipped("packages.update is false")
	}
	cmd := privileged(p.cfg.Packages.Sudo, []string{aptEnv}, p.cfg.Packages.Manager, "update")
	return p.run(ctx, cmd, "package index refreshed")
}

func (p *provisioner) packagesInstall(ctx context.Context) outcome {
	pkgs := p.cfg.Packages.Install
	switch {
	case p.opts.SkipPackages:
		return skipped("--skip-packages")
	case len(pkgs) == 0:
		return skipped("no packages configured")
	}
	args := append([]string{"install", "-y", "--no-install-recommends"}, pkgs...)
	cmd := privileged(p.cfg.Packages.Sudo, []string{aptEnv}, p.cfg.Packages.Manager, args...)
	return p.run(ctx, cmd, fmt.Sprintf("installed %s", strings.Join(pkgs, ", ")))
}

func (p *provisioner) pythonTool(ctx context.Context) outcome {
	tool := p.cfg.Python.Tool
	if path, err := lookPath(tool); err == nil {
		return skipped(fmt.Sprintf("%s already installed at %s", tool, path))
	}
	if len(p.cfg.Python.InstallCommands) == 0 {
		return failed(fmt.Sprintf("%s not found and no install commands configured", tool), fmt.Errorf("%w: %s", services.ErrNotFound, tool), nil)
	}

	var lastErr error
	var lastTail []string
	for _, argv := range p.cfg.Python.InstallCommands {
		if len(argv) == 0 {
			continue
		}
		if _, err := lookPath(argv[0]); err != nil {
			lastErr = fmt.Errorf("%w: installer %s", services.ErrNotFound, argv[0])
			continue
		}
		cmd := shell.Command{Name: argv[0], Args: argv[1:], Dir: p.cfg.Project.Root}
		result, err := p.runner.Run(ctx, cmd)
		if err != nil {
			lastErr, lastTail = err, result.Tail
			if ctx.Err() != nil {
				break
			}
			continue
		}
		detail := fmt.Sprintf("installed %s via %s", tool, cmd.String())
		if dir, added := ensureToolOnPath(tool); added {
			detail += fmt.Sprintf("; added %s to PATH", dir)
		}
		return ok(detail)
	}
	return failed(fmt.Sprintf("could not install %s", tool), lastErr, lastTail)
}

func (p *provisioner) pythonSync(ctx context.Context) outcome {
	if p.opts.SkipSync {
		return skipped("--skip-sync")
	}
	root := p.cfg.Project.Root
	info, err := project.Detect(root)
	if err != nil {
		return failed("detect python project", err, nil)
	}
	if !info.Syncable() {
		return skipped("no python project found in " + root)
	}
	if _, err := lookPath(p.cfg.Python.Tool); err != nil {
		return failed(p.cfg.Python.Tool+" is not installed", fmt.Errorf("%w: %s", services.ErrNotFound, p.cfg.Python.Tool), nil)
	}

	args := p.cfg.Python.SyncArgs
	if !info.HasPyproject && info.Marker == project.RequirementsFile {
		args = []string{"pip", "install", "-r", project.RequirementsFile}
	}
	cmd := shell.Command{
		Name: p.cfg.Python.Tool,
		Args: args,
		Dir:  root,
		Env:  []string{"UV_LINK_MODE=" + p.cfg.Python.LinkMode},
	}
	detail := fmt.Sprintf("synced %s project", info.Kind)
	if info.Name != "" {
		detail = fmt.Sprintf("synced %s (%d declared dependencies)", info.Name, info.Dependencies)
	}
	return p.run(ctx, cmd, detail)
}

func (p *provisioner) appConfig(context.Context) outcome {
	result, err := appconfig.Seed(p.cfg)
	if err != nil {
		return failed("seed app config", err, nil)
	}
	switch result.Outcome {
	case appconfig.SeedCreated:
		return ok(fmt.Sprintf("created %s from %s", filepath.Base(result.Path), filepath.Base(result.Example)))
	case appconfig.SeedExists:
		return skipped(filepath.Base(result.Path) + " already present")
	default:
		return skipped("no " + filepath.Base(result.Example) + " to seed from")
	}
}

func (p *provisioner) setupScript(ctx context.Context) outcome {
	rel := p.cfg.Project.SetupScript
	if rel == "" {
		return skipped("project.setup_script not configured")
	}
	script := p.cfg.ProjectPath(rel)
	if !fileutil.Exists(script) {
		return skipped("no setup script at " + rel)
	}
	cmd := shell.Command{Name: "bash", Args: []string{script}, Dir: p.cfg.Project.Root}
	return p.run(ctx, cmd, "ran "+rel)
}

func (p *provisioner) run(ctx context.Context, cmd shell.Command, successDetail string) outcome {
	result, err := p.runner.Run(ctx, cmd)
	if err != nil {
		return failed(cmd.String(), err, result.Tail)
	}
	return outcome{status: StatusOK, detail: successDetail, tail: result.Tail}
}

// ensureToolOnPath prepends the user-level bin directories that pip and the
// uv installer write to when tool is not yet resolvable.
func ensureToolOnPath(tool string) (string, bool) {
	if _, err := lookPath(tool); err == nil {
		return "", false
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	for _, dir := range []string{filepath.Join(home, ".local", "bin"), filepath.Join(home, ".cargo", "bin")} {
		if !fileutil.Exists(filepath.Join(dir, tool)) {
			continue
		}
		current := os.Getenv("PATH")
		if err := os.Setenv("PATH", dir+string(os.PathListSeparator)+current); err != nil {
			return "", false
		}
		return dir, true
	}
	return "", false
}
