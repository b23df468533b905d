package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	plugins "github.com/chabad360/blocks"
	"github.com/chabad360/blocks/config"
	"github.com/chabad360/blocks/manifest"
)

type listOptions struct {
	*rootOptions

	dirs        []string
	configs     []string
	strict      bool
	scoped      bool
	concurrency int
	cacheDir    string
	metrics     bool
}

func newListCommand(root *rootOptions) *cobra.Command {
	opts := &listOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Load plugins and list the ones that registered",
		Long: `List loads every plugin directory in the given roots and prints the
plugins that were registered.

Without --dir, the plugins directory beside the executable is scanned, then
the directory named by the net.ddns.advaith.blocks.pluginsDir property of the
config files, or by $BLOCKS_PLUGINS_DIR.

Example:
  blocks list --dir ./plugins
  blocks list --config blocks.yaml --concurrency 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&opts.dirs, "dir", nil, "plugin root to scan (repeatable)")
	f.StringArrayVar(&opts.configs, "config", nil, "YAML config file, later files override earlier ones (repeatable)")
	f.BoolVar(&opts.strict, "strict", false, "stop at the first plugin that fails to load")
	f.BoolVar(&opts.scoped, "scoped", false, "scope manifest keys to their section")
	f.IntVar(&opts.concurrency, "concurrency", 1, "plugins loaded in parallel when not strict")
	f.StringVar(&opts.cacheDir, "cache-dir", "", "extract plugin archives here before loading")
	f.BoolVar(&opts.metrics, "metrics", false, "print load metrics after the table")

	return cmd
}

func runList(cmd *cobra.Command, opts *listOptions) error {
	ctx := cmd.Context()

	cfg := config.New(config.WithLogger(opts.log))
	if err := cfg.Load(opts.configs...); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.BindEnv(plugins.PluginsDirProperty, config.EnvPluginsDir)

	rt := plugins.NewInterpRuntime(opts.log)
	rt.CacheDir = opts.cacheDir

	reg := prometheus.NewRegistry()
	hostOpts := []plugins.Option{
		plugins.WithLogger(opts.log),
		plugins.WithRuntime(rt),
		plugins.WithMetrics(plugins.NewMetrics(reg)),
		plugins.WithConcurrency(opts.concurrency),
	}
	if opts.scoped {
		hostOpts = append(hostOpts, plugins.WithScoping(manifest.Scoped))
	}

	var host *plugins.Host
	if len(opts.dirs) == 0 {
		h, err := plugins.Open(ctx, cfg, hostOpts...)
		if err != nil {
			return err
		}
		host = h
	} else {
		host = plugins.NewHost(hostOpts...)
		for _, dir := range opts.dirs {
			if err := host.LoadPluginsFromDirectory(ctx, dir, !opts.strict); err != nil {
				return err
			}
		}
	}
	defer func() {
		if err := host.Close(); err != nil {
			opts.log.WithError(err).Warn("closing plugins")
		}
	}()
	host.NotifyLoaded()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(host.Plugins()))

	if opts.metrics {
		return printMetrics(out, reg)
	}
	return nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func renderTable(recs []*plugins.Record) string {
	if len(recs) == 0 {
		return emptyStyle.Render("no plugins registered")
	}

	rows := [][]string{{"UUID", "NAME", "VERSION", "ARCHIVE"}}
	for _, r := range recs {
		id := r.Identity()
		rows = append(rows, []string{id.ID().String(), id.Name(), id.Version(), r.Archive()})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			style := cellStyle.Width(widths[j] + 2)
			if i == 0 {
				style = style.Inherit(headerStyle)
			}
			cells[j] = style.Render(cell)
		}
		lines[i] = strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cells...), " ")
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func printMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}

			switch {
			case m.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("%s %g", name, m.GetCounter().GetValue()))
			case m.GetGauge() != nil:
				lines = append(lines, fmt.Sprintf("%s %g", name, m.GetGauge().GetValue()))
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				lines = append(lines, fmt.Sprintf("%s_count %d", name, h.GetSampleCount()))
				lines = append(lines, fmt.Sprintf("%s_sum %g", name, h.GetSampleSum()))
			}
		}
	}
	sort.Strings(lines)

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	return nil
}
