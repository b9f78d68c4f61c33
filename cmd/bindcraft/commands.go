package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/taejun-song/bindcraft-nhej/internal/campaign"
	"github.com/taejun-song/bindcraft-nhej/internal/config"
	"github.com/taejun-song/bindcraft-nhej/internal/domain"
	"github.com/taejun-song/bindcraft-nhej/internal/executor"
	"github.com/taejun-song/bindcraft-nhej/internal/loop"
	"github.com/taejun-song/bindcraft-nhej/internal/pipeline"
	"github.com/taejun-song/bindcraft-nhej/internal/settings"
	"github.com/taejun-song/bindcraft-nhej/internal/statstore"
	"github.com/taejun-song/bindcraft-nhej/internal/watcher"
	"github.com/taejun-song/bindcraft-nhej/internal/workspace"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
)

var (
	designSettingsFile string
	designPath         string
	binderName         string
	startingPDB        string
	targetChains       string
	targetHotspots     string
	minLength          int
	maxLength          int
	numDesigns         int
	designDebug        bool

	statusPath   string
	statusLimit  int
	campaignFile string
	watchPath    string
)

func init() {
	// design command
	designCmd := &cobra.Command{
		Use:   "design",
		Short: "Run a binder design campaign until the quota is met",
		RunE:  runDesign,
	}
	designCmd.Flags().StringVar(&designSettingsFile, "settings", "", "settings JSON file (overrides the individual flags)")
	designCmd.Flags().StringVar(&designPath, "design-path", "", "workspace directory for run artifacts")
	designCmd.Flags().StringVar(&binderName, "binder-name", "", "binder name, used as the trajectory name prefix")
	designCmd.Flags().StringVar(&startingPDB, "starting-pdb", "", "target structure PDB file")
	designCmd.Flags().StringVar(&targetChains, "chains", "A", "target chains, comma separated")
	designCmd.Flags().StringVar(&targetHotspots, "target-hotspot-residues", "", "hotspot residues, comma separated")
	designCmd.Flags().IntVar(&minLength, "min-length", 30, "minimum binder length")
	designCmd.Flags().IntVar(&maxLength, "max-length", 110, "maximum binder length")
	designCmd.Flags().IntVar(&numDesigns, "number-of-designs", 2, "accepted designs required to finish")
	designCmd.Flags().BoolVar(&designDebug, "debug", false, "log every loop decision")
	rootCmd.AddCommand(designCmd)

	// create-config command
	createConfigCmd := &cobra.Command{
		Use:   "create-config",
		Short: "Write a protocol settings file with the standard defaults",
		RunE:  runCreateConfig,
	}
	rootCmd.AddCommand(createConfigCmd)

	// validate-config command
	validateConfigCmd := &cobra.Command{
		Use:   "validate-config SETTINGS",
		Short: "Validate a settings JSON record",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidateConfig,
	}
	rootCmd.AddCommand(validateConfigCmd)

	// check-env command
	checkEnvCmd := &cobra.Command{
		Use:   "check-env",
		Short: "Check that the configured predictor and tools are available",
		RunE:  runCheckEnv,
	}
	rootCmd.AddCommand(checkEnvCmd)

	// status command
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show run history for a design workspace",
		RunE:  runStatus,
	}
	statusCmd.Flags().StringVar(&statusPath, "design-path", "", "workspace directory")
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "number of runs to show")
	statusCmd.MarkFlagRequired("design-path")
	rootCmd.AddCommand(statusCmd)

	// campaign commands
	campaignCmd := &cobra.Command{
		Use:   "campaign",
		Short: "Manage scheduled design campaigns",
	}
	campaignCmd.PersistentFlags().StringVar(&campaignFile, "file", "campaigns.toml", "campaign schedule file")

	campaignRunCmd := &cobra.Command{
		Use:   "run",
		Short: "Run every configured campaign once, concurrently",
		RunE:  runCampaignRun,
	}
	campaignCmd.AddCommand(campaignRunCmd)

	campaignListCmd := &cobra.Command{
		Use:   "list",
		Short: "List configured campaigns and their next run times",
		RunE:  runCampaignList,
	}
	campaignCmd.AddCommand(campaignListCmd)

	campaignStartCmd := &cobra.Command{
		Use:   "start",
		Short: "Run the campaign scheduler until interrupted",
		RunE:  runCampaignStart,
	}
	campaignCmd.AddCommand(campaignStartCmd)
	rootCmd.AddCommand(campaignCmd)

	// watch command
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow new trajectory artifacts in a workspace",
		RunE:  runWatch,
	}
	watchCmd.Flags().StringVar(&watchPath, "design-path", "", "workspace directory")
	watchCmd.MarkFlagRequired("design-path")
	rootCmd.AddCommand(watchCmd)
}

func loadProtocol() (*config.Protocol, error) {
	path := protocolPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func loadDesignSettings() (*settings.RunSettings, error) {
	if designSettingsFile != "" {
		return settings.Load(designSettingsFile)
	}
	return settings.New(designPath, binderName, startingPDB,
		splitList(targetChains), splitList(targetHotspots),
		minLength, maxLength, numDesigns)
}

func runDesign(cmd *cobra.Command, args []string) error {
	protocol, err := loadProtocol()
	if err != nil {
		return err
	}

	run, err := loadDesignSettings()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("%s %s\n", headerStyle.Render("Designing binder"), run.BinderName)
	fmt.Printf("  target:  %s (chains %s)\n", run.StartingPDB, strings.Join(run.Chains, ", "))
	fmt.Printf("  lengths: %d-%d | quota: %d designs\n", run.MinLength(), run.MaxLength(), run.NumberOfFinalDesigns)

	p := &pipeline.Pipeline{
		Run:      run,
		Protocol: protocol,
		Debug:    designDebug,
	}
	result, execErr := p.Execute(ctx)
	if result == nil {
		return execErr
	}

	printSummary(result.Summary)
	return execErr
}

func printSummary(s loop.Summary) {
	var verdict string
	switch s.Outcome {
	case loop.OutcomeQuotaReached:
		verdict = successStyle.Render("Design quota reached")
	case loop.OutcomeCeilingReached:
		verdict = warnStyle.Render("Trajectory ceiling reached before quota")
	case loop.OutcomeCancelled:
		verdict = warnStyle.Render("Run cancelled")
	default:
		verdict = errorStyle.Render("Run aborted by executor fault")
	}

	fmt.Println(verdict)
	fmt.Printf("  %d accepted | %d attempted | %d skipped\n", s.Accepted, s.Attempted, s.Skipped)
	fmt.Printf("  elapsed: %s\n", s.ElapsedText())
}

func runCreateConfig(cmd *cobra.Command, args []string) error {
	path := protocolPath
	if path == "" {
		path = config.DefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	if err := config.Default().Save(path); err != nil {
		return err
	}
	fmt.Printf("Wrote default protocol settings to %s\n", path)
	return nil
}

func runValidateConfig(cmd *cobra.Command, args []string) error {
	run, err := settings.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Println(successStyle.Render("Settings valid"))
	fmt.Printf("  binder:   %s\n", run.BinderName)
	fmt.Printf("  target:   %s (chains %s)\n", run.StartingPDB, strings.Join(run.Chains, ", "))
	if len(run.TargetHotspotResidues) > 0 {
		fmt.Printf("  hotspots: %s\n", strings.Join(run.TargetHotspotResidues, ", "))
	}
	fmt.Printf("  lengths:  %d-%d | quota: %d designs\n", run.MinLength(), run.MaxLength(), run.NumberOfFinalDesigns)
	return nil
}

func runCheckEnv(cmd *cobra.Command, args []string) error {
	protocol, err := loadProtocol()
	if err != nil {
		return err
	}

	tools := protocol.RequiredTools()
	if len(tools) == 0 {
		fmt.Println(warnStyle.Render("No tools configured, nothing to check"))
		return nil
	}

	if err := executor.ValidateTools(tools); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("Environment OK"))
	for _, tool := range tools {
		fmt.Printf("  %s\n", tool)
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ws := workspace.New(statusPath)
	store, err := statstore.New(ws.StatsPath())
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(statusLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded in this workspace")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tBINDER\tSTARTED\tOUTCOME\tACCEPTED\tATTEMPTED\tSKIPPED")
	for _, r := range runs {
		outcome := r.Outcome
		if outcome == "" {
			outcome = "running"
		}
		fmt.Fprintf(w, "%.8s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.ID, r.BinderName, humanize.Time(r.StartedAt), outcome,
			r.Accepted, r.Attempted, r.Skipped)
	}
	w.Flush()

	counts, err := store.CountByStatus(runs[0].ID)
	if err != nil {
		return err
	}
	fmt.Printf("\nLatest run: %s %s | %s %s | %s %s\n",
		successStyle.Render(fmt.Sprint(counts[domain.TrajectoryAccepted])), "accepted",
		warnStyle.Render(fmt.Sprint(counts[domain.TrajectoryAborted])), "aborted",
		errorStyle.Render(fmt.Sprint(counts[domain.TrajectoryFailed])), "failed")

	return nil
}

func loadCampaigns() (*campaign.ScheduleConfig, error) {
	cfg, err := campaign.LoadScheduleConfig(campaignFile)
	if err != nil {
		return nil, err
	}
	if len(cfg.Campaigns) == 0 {
		return nil, fmt.Errorf("no campaigns configured in %s", campaignFile)
	}
	return cfg, nil
}

func runCampaignRun(cmd *cobra.Command, args []string) error {
	protocol, err := loadProtocol()
	if err != nil {
		return err
	}

	cfg, err := loadCampaigns()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &campaign.Runner{Protocol: protocol}
	results, err := runner.RunAll(ctx, cfg.Campaigns)

	for name, result := range results {
		fmt.Printf("%s %s: %d accepted, %d attempted\n",
			headerStyle.Render("Campaign"), name,
			result.Summary.Accepted, result.Summary.Attempted)
	}
	return err
}

func runCampaignList(cmd *cobra.Command, args []string) error {
	cfg, err := loadCampaigns()
	if err != nil {
		return err
	}

	sched, err := campaign.NewScheduler(cfg.Campaigns)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCRON\tSTATE\tNEXT RUN\tSETTINGS")
	for _, c := range cfg.Campaigns {
		state := "scheduled"
		if sched.Due(c.Name) {
			state = "due"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			c.Name, c.Cron, state, humanize.Time(sched.NextRun(c.Name)), c.SettingsPath)
	}
	w.Flush()
	return nil
}

func runCampaignStart(cmd *cobra.Command, args []string) error {
	protocol, err := loadProtocol()
	if err != nil {
		return err
	}

	cfg, err := loadCampaigns()
	if err != nil {
		return err
	}

	sched, err := campaign.NewScheduler(cfg.Campaigns)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &campaign.Runner{Protocol: protocol}
	go sched.Start(func(c campaign.CampaignConfig) error {
		_, err := runner.Run(ctx, c)
		return err
	})

	fmt.Printf("Scheduler running with %d campaigns, ctrl-c to stop\n", len(cfg.Campaigns))
	<-ctx.Done()
	sched.Stop()
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	ws := workspace.New(watchPath)

	w, err := watcher.New(func(category workspace.Category, names []string) {
		for _, name := range names {
			fmt.Printf("%s %s\n", headerStyle.Render(string(category)+":"), name)
		}
	})
	if err != nil {
		return err
	}
	defer w.Stop()

	if err := w.AddWorkspace(ws); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w.Start(ctx)
	fmt.Printf("Watching %s, ctrl-c to stop\n", watchPath)
	<-ctx.Done()
	return nil
}
