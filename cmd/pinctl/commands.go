package main

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"pin-scheduler/domain/dto"
	"pin-scheduler/domain/model"
	"pin-scheduler/infrastructure/csvimport"
)

func client(c *cli.Context) *serviceClient {
	return newServiceClient(c.String("server"), c.String("token"))
}

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	return t
}

func ListCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list scheduled pins",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "status",
				Usage: "only show pins with this status",
			},
		},
		Action: func(c *cli.Context) error {
			var resp dto.PinsResponse
			if err := client(c).do(c.Context, http.MethodGet, "/pin-scheduler", nil, "", &resp); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			pins := resp.Pins
			if status := c.String("status"); status != "" {
				pins = lo.Filter(pins, func(p model.ScheduledPin, _ int) bool { return string(p.Status) == status })
			}

			t := newTable(c.App.Writer, table.Row{"ID", "Title", "Board", "Scheduled", "Status", "Pinterest ID"})
			for _, p := range pins {
				t.AppendRow(table.Row{p.ID, p.Title, p.BoardID, p.ScheduledTime.Local().Format(time.RFC3339), p.Status, lo.FromPtr(p.PinterestID)})
			}
			t.AppendFooter(table.Row{"", "", "", "", "Total", len(pins)})
			t.Render()
			return nil
		},
	}
}

func ImportCmd() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "schedule pins from a CSV file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "CSV file with title, description, imageUrl and optional link columns",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "per-day",
				Value: 5,
				Usage: "pins per day, 1 to 15",
			},
			&cli.StringSliceFlag{
				Name:  "board",
				Usage: "board id to spread pins over; defaults to every board of --token",
			},
			&cli.StringFlag{
				Name:  "account",
				Usage: "account to publish as; defaults to the active account",
			},
			&cli.BoolFlag{
				Name:  "preview",
				Usage: "print the planned times without scheduling",
			},
		},
		Action: func(c *cli.Context) error {
			sc := client(c)
			boards := c.StringSlice("board")
			if len(boards) == 0 && c.String("token") != "" {
				var resp dto.BoardsResponse
				if err := sc.do(c.Context, http.MethodGet, "/boards", nil, "", &resp); err != nil {
					return cli.Exit(err.Error(), 1)
				}
				boards = lo.Map(resp.Items, func(b model.Board, _ int) string { return b.ID })
			}

			file, err := csvimport.Open(c.String("file"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer file.Close()

			opts := bulkOptions{
				File:        filepath.Base(c.String("file")),
				CSV:         file,
				PostsPerDay: c.Int("per-day"),
				BoardIDs:    boards,
				Account:     c.String("account"),
				Preview:     c.Bool("preview"),
			}
			if opts.Preview {
				var plan dto.BulkPlan
				if err := sc.bulk(c.Context, opts, &plan); err != nil {
					return cli.Exit(err.Error(), 1)
				}
				printPlan(c.App.Writer, plan)
				return nil
			}

			var resp dto.BulkScheduleResponse
			if err := sc.bulk(c.Context, opts, &resp); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			fmt.Fprintln(c.App.Writer, resp.Message)
			printRowErrors(c.App.Writer, "Skipped", resp.Skipped)
			printRowErrors(c.App.Writer, "Failed", resp.Errors)
			return nil
		},
	}
}

func printPlan(w io.Writer, plan dto.BulkPlan) {
	t := newTable(w, table.Row{"Row", "Title", "Board", "Scheduled"})
	for _, p := range plan.Pins {
		t.AppendRow(table.Row{p.Row, p.Title, p.BoardID, p.ScheduledTime})
	}
	t.Render()
	printRowErrors(w, "Skipped", plan.Skipped)
}

func printRowErrors(w io.Writer, title string, rows []dto.RowError) {
	if len(rows) == 0 {
		return
	}
	t := newTable(w, table.Row{"Row", title})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Row, r.Error})
	}
	t.Render()
}

func PublishDueCmd() *cli.Command {
	return &cli.Command{
		Name:  "publish-due",
		Usage: "publish every pin whose scheduled time has passed",
		Action: func(c *cli.Context) error {
			var summary dto.RunSummary
			if err := client(c).do(c.Context, http.MethodPost, "/scheduled-publisher", nil, "", &summary); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			fmt.Fprintln(c.App.Writer, summary.Message)
			if len(summary.Results) == 0 {
				return nil
			}
			t := newTable(c.App.Writer, table.Row{"ID", "Result", "Pinterest ID", "Error"})
			for _, r := range summary.Results {
				result := "failed"
				if r.Success {
					result = "published"
				}
				t.AppendRow(table.Row{r.ID, result, r.PinterestID, r.Error})
			}
			t.Render()
			if summary.Failed > 0 {
				return cli.Exit(fmt.Sprintf("%d pins failed", summary.Failed), 2)
			}
			return nil
		},
	}
}

func AccountsCmd() *cli.Command {
	return &cli.Command{
		Name:  "accounts",
		Usage: "list connected Pinterest accounts",
		Subcommands: []*cli.Command{
			{
				Name:      "use",
				Usage:     "make an account active",
				ArgsUsage: "<username>",
				Action: func(c *cli.Context) error {
					if !c.Args().Present() {
						return cli.Exit("username is required", 1)
					}
					body := fmt.Sprintf(`{"username":%q}`, c.Args().First())
					var resp dto.AccountsResponse
					if err := client(c).do(c.Context, http.MethodPut, "/accounts/active", strings.NewReader(body), "application/json", &resp); err != nil {
						return cli.Exit(err.Error(), 1)
					}
					printAccounts(c.App.Writer, resp)
					return nil
				},
			},
		},
		Action: func(c *cli.Context) error {
			var resp dto.AccountsResponse
			if err := client(c).do(c.Context, http.MethodGet, "/accounts", nil, "", &resp); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			printAccounts(c.App.Writer, resp)
			return nil
		},
	}
}

func printAccounts(w io.Writer, resp dto.AccountsResponse) {
	t := newTable(w, table.Row{"Username", "Active", "Refresh After", "Expires At"})
	for _, a := range resp.Accounts {
		active := ""
		if a.Active {
			active = "*"
		}
		t.AppendRow(table.Row{a.Username, active, a.RefreshAfter, a.ExpiresAt})
	}
	t.Render()
}

func TemplateCmd() *cli.Command {
	return &cli.Command{
		Name:  "template",
		Usage: "print an example bulk import CSV",
		Action: func(c *cli.Context) error {
			var raw []byte
			if err := client(c).do(c.Context, http.MethodGet, "/pin-scheduler/bulk/template", nil, "", &raw); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			_, err := c.App.Writer.Write(raw)
			return err
		},
	}
}
