package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agrovisio/satfield/internal/analysis"
	"github.com/agrovisio/satfield/internal/config"
	"github.com/agrovisio/satfield/internal/ee"
	"github.com/agrovisio/satfield/internal/export"
	"github.com/agrovisio/satfield/internal/roi"
	"github.com/agrovisio/satfield/internal/status"
	"github.com/agrovisio/satfield/pkg/models"
)

var (
	flagJobID        string
	flagROI          string
	flagStartDate    string
	flagEndDate      string
	flagCrop         string
	flagBuffer       float64
	flagAnalysisType string
	flagDriveFolder  string
	flagOutputDir    string
)

var rootCmd = &cobra.Command{
	Use:   "satfield",
	Short: "Remote agronomic satellite analysis driver",
	Long: "satfield runs one analysis mode per invocation against a remote\n" +
		"geospatial compute service: execute an analysis, poll its export\n" +
		"tasks, start stalled tasks, or gate result collection on completion.",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Usage()
		}
		// An unrecognized mode is a caller mistake, not a crash: report it
		// in the payload and exit zero so the orchestrator can read it.
		return emitLogicalError(flagJobID, "UNKNOWN_MODE",
			fmt.Sprintf("unknown mode %q, expected execute, check-status, download-results or start-tasks", args[0]))
	},
}

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Run the analysis pipeline and submit export tasks",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runExecute(cmd)
	},
}

var checkStatusCmd = &cobra.Command{
	Use:   "check-status",
	Short: "Report the lifecycle state of a job's export tasks",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCheckStatus(cmd)
	},
}

var downloadResultsCmd = &cobra.Command{
	Use:   "download-results",
	Short: "List result artifacts once every export task completed",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDownloadResults(cmd)
	},
}

var startTasksCmd = &cobra.Command{
	Use:   "start-tasks",
	Short: "Start any submitted task not yet running",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStartTasks(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagJobID, "job-id", "", "opaque job identifier (required)")
	_ = rootCmd.MarkPersistentFlagRequired("job-id")

	executeCmd.Flags().StringVar(&flagROI, "roi", "", "ROI GeoJSON, inline or @file (required)")
	executeCmd.Flags().StringVar(&flagStartDate, "start-date", "", "analysis window start, YYYY-MM-DD inclusive (required)")
	executeCmd.Flags().StringVar(&flagEndDate, "end-date", "", "analysis window end, YYYY-MM-DD exclusive (required)")
	executeCmd.Flags().StringVar(&flagCrop, "crop", "", "crop label for phenological context")
	executeCmd.Flags().Float64Var(&flagBuffer, "buffer", 0, "outward ROI buffer in meters")
	executeCmd.Flags().StringVar(&flagAnalysisType, "analysis-type", "standard", "analysis type tag")
	executeCmd.Flags().StringVar(&flagDriveFolder, "drive-folder", "", "export destination folder (default from SATFIELD_DRIVE_FOLDER)")
	_ = executeCmd.MarkFlagRequired("roi")
	_ = executeCmd.MarkFlagRequired("start-date")
	_ = executeCmd.MarkFlagRequired("end-date")

	downloadResultsCmd.Flags().StringVar(&flagOutputDir, "output-dir", "results", "local directory for collected artifacts")

	rootCmd.AddCommand(executeCmd, checkStatusCmd, downloadResultsCmd, startTasksCmd)
}

// newService loads configuration and builds the authenticated client handle
// every component receives explicitly.
func newService() (ee.Service, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	svc, err := ee.NewHTTPClient(cfg.EE)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize compute client: %w", err)
	}
	return svc, cfg, nil
}

// readROI resolves the --roi value: a leading @ reads the GeoJSON from file,
// anything else is taken as inline GeoJSON.
func readROI(value string) ([]byte, error) {
	if strings.HasPrefix(value, "@") {
		raw, err := os.ReadFile(strings.TrimPrefix(value, "@"))
		if err != nil {
			return nil, fmt.Errorf("reading roi file: %w", err)
		}
		return raw, nil
	}
	return []byte(value), nil
}

func runExecute(cmd *cobra.Command) error {
	svc, cfg, err := newService()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	raw, err := readROI(flagROI)
	if err != nil {
		return err
	}

	geom, err := roi.NewBuilder(svc).Build(ctx, raw, flagBuffer)
	if err != nil {
		return fmt.Errorf("building roi: %w", err)
	}

	job := models.Job{
		ID:           flagJobID,
		Crop:         flagCrop,
		AnalysisType: flagAnalysisType,
		StartDate:    flagStartDate,
		EndDate:      flagEndDate,
		BufferMeters: flagBuffer,
		DriveFolder:  flagDriveFolder,
	}
	if job.DriveFolder == "" {
		job.DriveFolder = cfg.Output.DriveFolder
	}

	result, err := analysis.NewAnalyzer(svc).Run(ctx, job, geom)
	if errors.Is(err, analysis.ErrEmptyCollection) {
		slog.Info("no imagery matched", "job_id", job.ID)
		return emitLogicalError(job.ID, "EMPTY_COLLECTION", err.Error())
	}
	if err != nil {
		return fmt.Errorf("running analysis: %w", err)
	}

	tasks, err := export.NewOrchestrator(svc, job.DriveFolder).Submit(ctx, job, result)
	if err != nil {
		return fmt.Errorf("submitting exports: %w", err)
	}

	return emit(map[string]any{
		"job_id": job.ID,
		"kpis":   result.KPIs,
		"scenes": result.Scenes,
		"tasks":  tasks,
	})
}

func runCheckStatus(cmd *cobra.Command) error {
	svc, _, err := newService()
	if err != nil {
		return err
	}

	tasks, summary, err := status.NewAggregator(svc).Snapshot(cmd.Context(), flagJobID)
	if err != nil {
		return fmt.Errorf("checking status: %w", err)
	}

	return emit(map[string]any{
		"job_id":  flagJobID,
		"tasks":   tasks,
		"summary": summary,
	})
}

func runDownloadResults(cmd *cobra.Command) error {
	svc, _, err := newService()
	if err != nil {
		return err
	}

	result, err := status.NewAggregator(svc).Download(cmd.Context(), flagJobID, flagOutputDir)
	if err != nil {
		return fmt.Errorf("resolving downloads: %w", err)
	}

	return emit(map[string]any{
		"job_id":         flagJobID,
		"status":         result.Status,
		"download_ready": result.Ready,
		"files":          result.Files,
		"output_dir":     result.OutputDir,
		"summary":        result.Summary,
	})
}

func runStartTasks(cmd *cobra.Command) error {
	svc, _, err := newService()
	if err != nil {
		return err
	}

	started, err := status.NewAggregator(svc).StartReady(cmd.Context(), flagJobID)
	if err != nil {
		return fmt.Errorf("starting tasks: %w", err)
	}

	return emit(map[string]any{
		"job_id":        flagJobID,
		"started":       started,
		"started_count": len(started),
	})
}
