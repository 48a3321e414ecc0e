package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"infocollector/internal/app"
	"infocollector/internal/config"
	"infocollector/internal/domain"
	"infocollector/internal/logging"
)

type cliContext struct {
	ctx context.Context
	app *app.Application
}

type runCmd struct{}

func (c *runCmd) Run(rc *cliContext) error {
	return rc.app.Run(rc.ctx)
}

type fetchCmd struct {
	ID string `help:"Process a single subscription by ID instead of every due one."`
}

func (c *fetchCmd) Run(rc *cliContext) error {
	if c.ID != "" {
		result, err := rc.app.RunSubscription(rc.ctx, c.ID)
		if err != nil {
			return err
		}
		fmt.Printf("new items: %d\n", result.NewItems)
		if result.Err != nil {
			fmt.Printf("errors: %v\n", result.Err)
		}
		if !result.Success {
			return fmt.Errorf("subscription %s failed", c.ID)
		}
		return nil
	}

	report, err := rc.app.RunPass(rc.ctx)
	if err != nil {
		return err
	}
	fmt.Printf("due: %d, succeeded: %d, failed: %d, new items: %d\n",
		report.Total, report.Succeeded, report.Failed, report.NewItems)
	return nil
}

type scrapeCmd struct {
	URL string `arg:"" help:"Page URL to fetch and extract."`
}

func (c *scrapeCmd) Run(rc *cliContext) error {
	article, err := rc.app.Scrape(rc.ctx, c.URL)
	if err != nil {
		return err
	}

	fmt.Printf("# %s\n\n", article.Title)
	if article.Author != "" {
		fmt.Printf("> %s\n\n", article.Author)
	}
	fmt.Println(article.Body)
	if article.LowConfidence {
		fmt.Fprintln(os.Stderr, "warning: low-confidence extraction")
	}
	return nil
}

type addCmd struct {
	Name      string   `arg:"" help:"Subscription name."`
	Feed      []string `help:"Feed URL, repeatable." required:""`
	Company   string   `help:"Company the subscription tracks."`
	Keywords  []string `help:"Keep only items matching at least one keyword."`
	Category  string   `help:"Category ID assigned to created items."`
	Frequency string   `help:"Fetch cadence." enum:"hourly,daily,weekly" default:"daily"`
}

func (c *addCmd) Run(rc *cliContext) error {
	sub := domain.Subscription{
		Name:       c.Name,
		Company:    c.Company,
		Keywords:   c.Keywords,
		CategoryID: c.Category,
		Enabled:    true,
		Frequency:  domain.Frequency(c.Frequency),
	}
	for _, url := range c.Feed {
		sub.Sources = append(sub.Sources, domain.Source{
			Type:    domain.SourceRSS,
			URL:     url,
			Enabled: true,
		})
	}

	id, err := rc.app.AddSubscription(rc.ctx, sub)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

type listCmd struct{}

func (c *listCmd) Run(rc *cliContext) error {
	subs, err := rc.app.Subscriptions(rc.ctx)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		state := "enabled"
		if !sub.Enabled {
			state = "disabled"
		}
		fmt.Printf("%s\t%s\t%s\t%s\t%d sources\n",
			sub.ID, sub.Name, sub.Frequency, state, len(sub.Sources))
	}
	return nil
}

var cli struct {
	Run    runCmd    `cmd:"" help:"Run the scheduler daemon."`
	Fetch  fetchCmd  `cmd:"" help:"Run one scheduling pass, or a single subscription."`
	Scrape scrapeCmd `cmd:"" help:"Fetch one page and print the extracted markdown."`
	Add    addCmd    `cmd:"" help:"Add a feed subscription."`
	List   listCmd   `cmd:"" help:"List subscriptions."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("infocollector"),
		kong.Description("Feed and article collection pipeline."),
		kong.UsageOnError(),
	)

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx.FatalIfErrorf(kctx.Run(&cliContext{ctx: ctx, app: application}))
}
