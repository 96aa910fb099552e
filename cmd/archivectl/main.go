package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/garyjia/procurement-workflow/internal/archive"
	"github.com/garyjia/procurement-workflow/internal/config"
	"github.com/garyjia/procurement-workflow/internal/infrastructure/persistence/repository"
	"github.com/garyjia/procurement-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/procurement-workflow/pkg/database"
	"github.com/garyjia/procurement-workflow/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

var (
	configPath string
	startDate  string
	endDate    string
	outputDir  string
	dryRun     bool
)

var rootCmd = &cobra.Command{
	Use:   "archivectl",
	Short: "Export completed procurement requests and purge them from the live database",
	Long: `archivectl exports completed requests updated within a date range to a
zipped Excel workbook, then deletes the exported rows and their approval
history. The export is written before anything is deleted.`,
	RunE: runArchive,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to the configuration file")
	rootCmd.Flags().StringVar(&startDate, "start", "", "period start date (YYYY-MM-DD, inclusive)")
	rootCmd.Flags().StringVar(&endDate, "end", "", "period end date (YYYY-MM-DD, exclusive)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (defaults to archive.output_dir from config)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "export the workbook but keep the rows in the database")
	rootCmd.MarkFlagRequired("start")
	rootCmd.MarkFlagRequired("end")
}

func runArchive(cmd *cobra.Command, args []string) error {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return fmt.Errorf("invalid --start date %q: %w", startDate, err)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return fmt.Errorf("invalid --end date %q: %w", endDate, err)
	}
	if !end.After(start) {
		return fmt.Errorf("--end must be after --start")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if outputDir == "" {
		outputDir = cfg.Archive.OutputDir
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: "stdout",
		Format:     "console",
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync()

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	txManager := sqlite.NewDB(db.DB, logger)
	requestRepo := repository.NewRequestRepository(db.DB, logger)
	historyRepo := repository.NewHistoryRepository(db.DB, logger)
	userRepo := repository.NewUserRepository(db.DB, logger)

	svc := archive.NewService(requestRepo, historyRepo, userRepo, txManager, logger)

	result, err := svc.Run(context.Background(), archive.Options{
		Start:     start,
		End:       end,
		OutputDir: outputDir,
		DryRun:    dryRun,
	})
	if err != nil {
		return err
	}

	if result.RequestCount == 0 {
		fmt.Println("No completed requests in the given period; nothing archived.")
		return nil
	}

	logger.Info("Archive run finished",
		zap.Int("requests", result.RequestCount),
		zap.String("archive", result.ArchivePath),
		zap.Bool("dry_run", dryRun))
	fmt.Printf("Archived %d request(s) to %s\n", result.RequestCount, result.ArchivePath)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
