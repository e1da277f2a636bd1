package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"api-orchestrator/internal/airesolver"
	"api-orchestrator/internal/config"
	"api-orchestrator/internal/flow"
	"api-orchestrator/internal/flowdef"
	"api-orchestrator/internal/llm"
	"api-orchestrator/internal/logger"
	"api-orchestrator/internal/openapi"
	"api-orchestrator/internal/prompt"
	"api-orchestrator/internal/reporter"
	"api-orchestrator/internal/seed"
	"api-orchestrator/internal/transport"
	"api-orchestrator/internal/types"

	"github.com/google/uuid"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "import":
		runImport(os.Args[2:])
	case "run":
		runFlow(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  api-orchestrator import -url <service-url> [-output flow.json]")
	fmt.Println("  api-orchestrator run -flow <flow.json> [-config config/config.yaml] [db seeding flags]")
}

// runImport fetches a service's OpenAPI document and writes an editable
// flow definition skeleton
func runImport(args []string) {
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	serviceURL := importCmd.String("url", "", "Base URL of the service to import")
	outputPath := importCmd.String("output", "flow.json", "Path to the flow definition to write")
	if err := importCmd.Parse(args); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}
	if *serviceURL == "" {
		fmt.Println("Error: -url is required")
		importCmd.Usage()
		os.Exit(1)
	}

	importer := openapi.NewImporter(*serviceURL)
	endpoints, err := importer.ImportEndpoints()
	if err != nil {
		log.Fatalf("Failed to import endpoints: %v", err)
	}
	fmt.Printf("Imported %d endpoints from %s\n", len(endpoints), *serviceURL)

	if err := flowdef.Save(*outputPath, "", *serviceURL, endpoints); err != nil {
		log.Fatalf("Failed to write flow definition: %v", err)
	}
	fmt.Printf("Flow definition written to %s\n", *outputPath)
	fmt.Println("Add connections and natural-language intents, then run the flow.")
}

// runFlow executes a flow definition file
func runFlow(args []string) {
	runCmd := flag.NewFlagSet("run", flag.ExitOnError)
	flowPath := runCmd.String("flow", "flow.json", "Path to the flow definition")
	configPath := runCmd.String("config", "config/config.yaml", "Path to the configuration file")
	dbType := runCmd.String("db-type", "", "Database type for context seeding (postgres|mysql|sqlserver)")
	dbHost := runCmd.String("db-host", "", "Database host")
	dbPort := runCmd.Int("db-port", 0, "Database port")
	dbName := runCmd.String("db-name", "", "Database name")
	dbUser := runCmd.String("db-user", "", "Database user")
	dbPassword := runCmd.String("db-password", "", "Database password")
	dbTables := runCmd.String("db-tables", "", "Comma-separated tables to sample into context variables")
	if err := runCmd.Parse(args); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	flowLog, err := logger.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer flowLog.Close()

	endpoints, err := flowdef.Load(*flowPath)
	if err != nil {
		log.Fatalf("Failed to load flow definition: %v", err)
	}
	applyConfigDefaults(endpoints, cfg)
	fmt.Printf("Loaded %d endpoints from %s\n", len(endpoints), *flowPath)

	execCtx := types.NewExecutionContext()

	if *dbType != "" {
		seedContext(execCtx, seed.DBConfig{
			Type:     *dbType,
			Host:     *dbHost,
			Port:     *dbPort,
			Database: *dbName,
			User:     *dbUser,
			Password: *dbPassword,
		}, *dbTables)
	}

	var resolver *airesolver.Resolver
	if cfg.AI.Enabled {
		resolver = buildResolver(cfg, flowLog)
	}

	executor := flow.NewExecutor(flow.Config{
		ValidateResponses: cfg.Flow.ValidateResponses,
		ContinueOnError:   cfg.Flow.ContinueOnError,
		DefaultTimeout:    time.Duration(cfg.Flow.Timeout) * time.Second,
	}, transport.NewClient(nil), nil, resolver, flowLog)

	results, runErr := executor.ExecuteFlow(context.Background(), endpoints, execCtx)

	flowReporter := reporter.NewReporter(reporter.ReportingConfig{
		Format:    cfg.Reporting.Format,
		OutputDir: cfg.Reporting.OutputDir,
		Detailed:  cfg.Reporting.Detailed,
	})
	if err := flowReporter.GenerateReport(uuid.New().String(), *flowPath, results); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}

	if runErr != nil {
		log.Fatalf("Flow execution failed: %v", runErr)
	}
	fmt.Println("Flow execution completed successfully!")
}

func applyConfigDefaults(endpoints []*types.Endpoint, cfg *config.Config) {
	for _, ep := range endpoints {
		if ep.BaseURL == "" {
			ep.BaseURL = cfg.Environment.BaseURL
		}
		if ep.Timeout == 0 {
			ep.Timeout = time.Duration(cfg.Flow.Timeout) * time.Second
		}
		if ep.Retries == 0 {
			ep.Retries = cfg.Flow.Retries
		}
		if ep.Auth == nil && cfg.Environment.Auth.Type != "" {
			ep.Auth = &types.AuthConfig{
				Type:   cfg.Environment.Auth.Type,
				Config: map[string]string{"token": cfg.Environment.Auth.Token},
			}
		}
	}
}

func seedContext(execCtx *types.ExecutionContext, dbConfig seed.DBConfig, tableList string) {
	seeder := seed.NewSeeder(dbConfig)
	if err := seeder.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer seeder.Close()

	var tables []string
	if tableList != "" {
		tables = strings.Split(tableList, ",")
	} else {
		var err error
		tables, err = seeder.ListTables()
		if err != nil {
			log.Fatalf("Failed to list tables: %v", err)
		}
	}

	warnings := seeder.SeedVariables(execCtx, tables, 5)
	for _, warning := range warnings {
		fmt.Printf("Warning: %s\n", warning)
	}
	fmt.Printf("Seeded context variables from %d tables\n", len(tables)-len(warnings))
}

func buildResolver(cfg *config.Config, flowLog *logger.Logger) *airesolver.Resolver {
	llmCfg, err := llm.LoadConfig(cfg.AI.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load LLM configuration: %v", err)
	}

	client, err := llm.NewClient(llmCfg, flowLog)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	renderer := prompt.NewRenderer()
	if cfg.AI.TemplateDir != "" {
		renderer, err = prompt.NewRendererFromDir(cfg.AI.TemplateDir)
		if err != nil {
			log.Fatalf("Failed to load prompt templates: %v", err)
		}
	}

	return airesolver.NewResolver(client, renderer, flowLog, cfg.AI.Model, cfg.AI.MaxBodyBytes)
}
