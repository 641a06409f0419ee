package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"
	"time"

	"afpdash/adapters/excel"
	"afpdash/adapters/postgres"
	"afpdash/app"
	"afpdash/internal/config"
	"afpdash/internal/errors"
	"afpdash/ports"
	"afpdash/ui"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
)

// openSource selects the dataset source from configuration. The returned
// database handle is nil for the file source.
func openSource(ctx context.Context, appConfig *config.Config) (ports.DatasetSource, *sqlx.DB, error) {
	switch appConfig.Data.Source {
	case config.SourcePostgres:
		db, err := postgres.Open(ctx, appConfig.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewBeneficiaryRepository(db), db, nil
	default:
		return excel.NewFileSource(appConfig.Data.File), nil, nil
	}
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	controls, err := config.LoadControls(appConfig.Dashboard.ControlsFile)
	if err != nil {
		log.Fatalf("Failed to load controls: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	source, db, err := openSource(ctx, appConfig)
	if err != nil {
		cancel()
		log.Fatalf("Failed to open dataset source: %v", err)
	}
	if db != nil {
		defer db.Close()
	}

	// The dataset is loaded exactly once; a load error halts startup
	start := time.Now()
	dataset, err := source.Load(ctx)
	cancel()
	if err != nil {
		if errors.HasCode(err, errors.CodeLoadError) {
			log.Fatalf("Dataset could not be loaded: %v", err)
		}
		log.Fatalf("Failed to load dataset from %s: %v", source.Describe(), err)
	}
	if dataset.IsEmpty() {
		log.Printf("[Startup] Dataset %s has no rows; serving the empty-state page only", source.Describe())
	} else {
		log.Printf("[Startup] Loaded %d rows from %s in %s", dataset.Len(), dataset.Source, time.Since(start).Round(time.Millisecond))
	}

	service := app.NewDashboardService(dataset, controls)

	server := ui.NewServer(ui.Assets, service, appConfig)
	if repo, ok := source.(ports.DatasetRepository); ok {
		server.SetImportRepository(repo)
	}
	if err := server.Initialize(); err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	// Start pprof server for performance profiling
	if appConfig.Profiling.Enabled {
		go func() {
			log.Printf("[pprof] Profiling server starting on :%s", appConfig.Profiling.Port)
			if err := http.ListenAndServe(":"+appConfig.Profiling.Port, nil); err != nil {
				log.Printf("[pprof] Server failed: %v", err)
			}
		}()
	}

	log.Printf("Starting AFP dashboard on port %s", appConfig.Server.Port)
	log.Fatal(server.Start(":" + appConfig.Server.Port))
}
