package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/gofiber/fiber/v3/log"
	"github.com/hidenkeys/studios/booking"
	"github.com/hidenkeys/studios/config"
	"github.com/hidenkeys/studios/storage"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, config.Load())
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.withGuard(); err != nil {
				return err
			}

			app := a.fiberApp()
			go func() {
				<-ctx.Done()
				if err := app.Shutdown(); err != nil {
					log.Errorf("shutdown: %v", err)
				}
			}()
			return app.Listen(":" + a.cfg.Port)
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	open := func() (*storage.Migrator, func(), error) {
		db, err := storage.Connect(config.Load())
		if err != nil {
			return nil, nil, err
		}
		m := storage.NewMigrator(db)
		m.Register(storage.Migrations()...)
		closeDB := func() {}
		if sqlDB, err := db.DB(); err == nil {
			closeDB = func() { sqlDB.Close() }
		}
		return m, closeDB, nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, done, err := open()
				if err != nil {
					return err
				}
				defer done()
				n, err := m.Up()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, done, err := open()
				if err != nil {
					return err
				}
				defer done()
				ok, err := m.Down()
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "nothing to roll back")
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List applied migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, done, err := open()
				if err != nil {
					return err
				}
				defer done()
				records, err := m.Applied()
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED")
				for _, r := range records {
					fmt.Fprintf(w, "%s\t%s\t%s\n", r.Version, r.Name, r.AppliedAt.Format("2006-01-02 15:04"))
				}
				return w.Flush()
			},
		},
	)
	return cmd
}

func quoteCmd() *cobra.Command {
	var adults, children int
	cmd := &cobra.Command{
		Use:   "quote STUDIO_ID CHECK_IN CHECK_OUT",
		Short: "Price a stay",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid studio id %q", args[0])
			}
			in, err := booking.ParseDate("checkIn", args[1])
			if err != nil {
				return err
			}
			out, err := booking.ParseDate("checkOut", args[2])
			if err != nil {
				return err
			}

			a, err := setup(cmd.Context(), config.Load())
			if err != nil {
				return err
			}
			defer a.close()

			q, err := a.service.Quote(cmd.Context(), uint(id), in, out, adults, children)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, n := range q.Breakdown {
				fmt.Fprintf(w, "%s\t%s\t%d\n", n.Date.Format(booking.DateLayout), n.Band, n.Rate)
			}
			fmt.Fprintf(w, "total\t%d nights\t%d\n", q.Nights, q.Total)
			if !q.Available {
				fmt.Fprintln(w, "not available\t\t")
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&adults, "adults", 1, "number of adults")
	cmd.Flags().IntVar(&children, "children", 0, "number of children")
	return cmd
}

func exportCmd() *cobra.Command {
	var tab, output string
	var studioID uint
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write reservations to an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, config.Load())
			if err != nil {
				return err
			}
			defer a.close()

			rs, err := a.service.List(ctx, booking.ListQuery{Tab: tab, UnitID: studioID})
			if err != nil {
				return err
			}
			booking.SortReservations(rs, booking.ByCheckIn)

			units, err := a.units.List(ctx)
			if err != nil {
				return err
			}
			names := make(map[uint]string, len(units))
			for _, u := range units {
				names[u.ID] = u.Name
			}

			f, err := booking.Workbook(rs, names)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := f.SaveAs(output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d reservation(s) to %s\n", len(rs), output)
			return nil
		},
	}
	cmd.Flags().StringVar(&tab, "tab", "", "current, past or empty for all")
	cmd.Flags().UintVar(&studioID, "studio", 0, "only this studio")
	cmd.Flags().StringVarP(&output, "output", "o", "reservations.xlsx", "output file")
	return cmd
}
