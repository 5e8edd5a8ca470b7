package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/themizzi/shopcheck/internal/browser"
	"github.com/themizzi/shopcheck/internal/catalog"
	internalcli "github.com/themizzi/shopcheck/internal/cli"
	"github.com/themizzi/shopcheck/internal/config"
	"github.com/themizzi/shopcheck/internal/database"
	"github.com/themizzi/shopcheck/internal/demosite"
	"github.com/themizzi/shopcheck/internal/metrics"
	"github.com/themizzi/shopcheck/internal/repository"
)

var version = "0.1.0"

// application carries what every command shares once Before has run.
type application struct {
	log     *zap.Logger
	metrics *metrics.Metrics
	envErr  error
}

func (a *application) before(c *cli.Context) error {
	var err error
	if c.Bool("debug") {
		a.log, err = zap.NewDevelopment()
	} else {
		a.log, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	zap.ReplaceGlobals(a.log)
	if a.envErr != nil {
		a.log.Debug(".env file not loaded, using environment variables", zap.Error(a.envErr))
	}
	a.metrics = metrics.New()
	return nil
}

func (a *application) after(c *cli.Context) error {
	if a.log == nil {
		return nil
	}
	defer a.log.Sync() //nolint:errcheck // stderr sync fails on some terminals
	return a.metrics.WriteTextfile(c.String("metrics-file"))
}

// withBrowser launches the configured browser, runs fn on a fresh page and
// saves a screenshot when fn fails.
func (a *application) withBrowser(name string, getenv func(string) string, fn func(internalcli.CheckDependencies) error) error {
	site, err := config.LoadSiteConfig(getenv)
	if err != nil {
		return fmt.Errorf("missing required site configuration: %w", err)
	}
	browserConfig, err := config.LoadBrowserConfig(getenv)
	if err != nil {
		return fmt.Errorf("invalid browser configuration: %w", err)
	}

	session, err := browser.Launch(browserConfig, site.Timeout, a.log)
	if err != nil {
		return err
	}
	defer session.Close()

	page, raw, err := session.NewPage()
	if err != nil {
		return err
	}

	err = fn(internalcli.CheckDependencies{
		Site:    site,
		Page:    page,
		Logger:  a.log,
		Metrics: a.metrics,
	})
	if err != nil {
		if path, shotErr := session.Screenshot(raw, name); shotErr != nil {
			a.log.Warn("could not save failure screenshot", zap.Error(shotErr))
		} else if path != "" {
			a.log.Info("failure screenshot saved", zap.String("path", path))
		}
	}
	return err
}

// ServeDemoCommand returns the serve-demo command
func (a *application) ServeDemoCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve-demo",
		Usage: "Serve the demo storefront the checks can run against",
		Action: func(c *cli.Context) error {
			serverConfig := config.LoadServerConfig(os.Getenv)
			storefront, err := demosite.NewServer(demosite.NewStore(demosite.DefaultCatalog()), serverConfig, a.log)
			if err != nil {
				return fmt.Errorf("failed to create storefront: %w", err)
			}
			return internalcli.RunServe(internalcli.ServerDependencies{
				ServerConfig: serverConfig,
				Storefront:   storefront,
				Logger:       a.log,
			})
		},
	}
}

// SmokeCommand returns the smoke command
func (a *application) SmokeCommand() *cli.Command {
	return &cli.Command{
		Name:  "smoke",
		Usage: "Log in with LOGIN_EMAIL / LOGIN_PASSWORD and log out again",
		Action: func(c *cli.Context) error {
			return a.withBrowser("smoke", os.Getenv, internalcli.RunSmoke)
		},
	}
}

// AuditCartCommand returns the audit-cart command
func (a *application) AuditCartCommand() *cli.Command {
	return &cli.Command{
		Name:  "audit-cart",
		Usage: "Add products to the cart and check every line total is price times quantity",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "add", Value: 3, Usage: "number of listed products to add"},
			&cli.BoolFlag{Name: "store", Usage: "persist the audit to PostgreSQL (POSTGRES_* variables)"},
		},
		Action: func(c *cli.Context) error {
			var audits internalcli.AuditStore
			if c.Bool("store") {
				pgConfig, err := config.LoadPostgresConfig(os.Getenv)
				if err != nil {
					return fmt.Errorf("failed to load postgres config: %w", err)
				}
				db, err := database.Connect(c.Context, pgConfig)
				if err != nil {
					return fmt.Errorf("failed to connect to database: %w", err)
				}
				defer db.Close()
				if err := database.RunMigrations(c.Context, db); err != nil {
					return fmt.Errorf("failed to run database migrations: %w", err)
				}
				a.log.Info("audit store ready", zap.String("host", pgConfig.Host), zap.String("database", pgConfig.Database))
				audits = repository.NewAuditRepository(db)
			}

			return a.withBrowser("audit-cart", os.Getenv, func(deps internalcli.CheckDependencies) error {
				deps.Audits = audits
				return internalcli.RunAuditCart(c.Context, deps, c.Int("add"))
			})
		},
	}
}

// DeleteAccountCommand returns the delete-account command
func (a *application) DeleteAccountCommand() *cli.Command {
	return &cli.Command{
		Name:  "delete-account",
		Usage: "Sign up a throwaway account and delete it again",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "domain", Value: "shopcheck.test", Usage: "email domain of the throwaway account"},
		},
		Action: func(c *cli.Context) error {
			return a.withBrowser("delete-account", os.Getenv, func(deps internalcli.CheckDependencies) error {
				return internalcli.RunDeleteAccount(deps, c.String("domain"))
			})
		},
	}
}

// WikiCommand returns the wiki command
func (a *application) WikiCommand() *cli.Command {
	return &cli.Command{
		Name:  "wiki",
		Usage: "Check the reference wiki's main page title and search box",
		Action: func(c *cli.Context) error {
			// The wiki check does not touch the storefront, so ADDRESS may be unset.
			getenv := func(key string) string {
				if value := os.Getenv(key); value != "" || key != "ADDRESS" {
					return value
				}
				return config.DefaultWikiURL
			}
			return a.withBrowser("wiki", getenv, internalcli.RunWiki)
		},
	}
}

// CatalogCommand returns the catalog command
func (a *application) CatalogCommand() *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Crawl the product listing and details pages without a browser",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "parallelism", Value: 1, Usage: "concurrent requests"},
			&cli.DurationFlag{Name: "delay", Usage: "delay between requests"},
			&cli.StringFlag{Name: "out", Usage: "write the catalog JSON to this file instead of stdout"},
		},
		Action: func(c *cli.Context) error {
			site, err := config.LoadSiteConfig(os.Getenv)
			if err != nil {
				return fmt.Errorf("missing required site configuration: %w", err)
			}

			crawlConfig := catalog.DefaultConfig(site.Address)
			crawlConfig.Parallelism = c.Int("parallelism")
			crawlConfig.Delay = c.Duration("delay")
			crawlConfig.Timeout = site.Timeout
			crawler, err := catalog.NewCrawler(crawlConfig, a.log, a.metrics)
			if err != nil {
				return err
			}

			var out io.Writer = os.Stdout
			if path := c.String("out"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("create %s: %w", path, err)
				}
				defer f.Close()
				out = f
			}

			return internalcli.RunCatalog(c.Context, internalcli.CatalogDependencies{
				Crawler: crawler,
				Logger:  a.log,
				Out:     out,
			})
		},
	}
}

func main() {
	a := &application{}
	// Load environment variables from .env file
	a.envErr = godotenv.Load()

	app := &cli.App{
		Name:    "shopcheck",
		Usage:   "Browser checks for the demo e-commerce storefront",
		Version: version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", EnvVars: []string{"DEBUG"}, Usage: "development logging"},
			&cli.StringFlag{Name: "metrics-file", EnvVars: []string{"METRICS_FILE"}, Usage: "write Prometheus metrics to this textfile on exit"},
		},
		Before: a.before,
		After:  a.after,
		Commands: []*cli.Command{
			a.ServeDemoCommand(),
			a.SmokeCommand(),
			a.AuditCartCommand(),
			a.DeleteAccountCommand(),
			a.WikiCommand(),
			a.CatalogCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
