package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"skylane/internal/chart"
	"skylane/internal/config"
	"skylane/internal/db"
	"skylane/internal/deconflict"
	"skylane/internal/domain"
	"skylane/internal/engine"
	"skylane/internal/migrate"
	"skylane/internal/mission"
	"skylane/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "sky",
	Short: "Skylane CLI",
	Long: `Skylane checks drone missions for spatio-temporal conflicts.
A mission set has one primary mission (waypoints plus a start/end window)
and any number of simulated flights with fixed timestamps. A check walks
every flight segment of the primary against every segment of every other
drone, flagging pairs that come closer than the safety buffer while
airborne at overlapping times, plus exact waypoint collisions.

Workspace state lives in .skylane/ (a SQLite database) next to an
optional skylane.yml with the airspace id, default buffer, and webhooks.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("SKYLANE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(missionCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(chartCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func checkCmd() *cobra.Command {
	var buffer float64
	var missionID string
	cmd := &cobra.Command{
		Use:   "check [mission-file]",
		Short: "Run a conflict check",
		Long:  "Checks the primary mission against every simulated flight and stores the verdict with its conflict records.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (missionID == "") {
				return fmt.Errorf("pass a mission file or --mission, not both")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.RunCheckOptions{
					MissionID: missionID,
					ActorID:   viper.GetString("actor-id"),
				}
				if cmd.Flags().Changed("buffer") {
					opts.Buffer = &buffer
				}
				if len(args) > 0 {
					data, err := os.ReadFile(args[0])
					if err != nil {
						return err
					}
					opts.Payload = data
				}
				run, err := e.RunCheck(ctx, opts)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(run)
				}
				printVerdict(run)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&buffer, "buffer", config.DefaultSafetyBuffer, "safety buffer distance")
	cmd.Flags().StringVar(&missionID, "mission", "", "stored mission id")
	return cmd
}

func printVerdict(run domain.CheckRun) {
	if run.ConflictFound {
		fmt.Printf("Conflict Detected (%d record(s), buffer %g)\n", len(run.Records), run.Buffer)
	} else {
		fmt.Printf("Clear (buffer %g)\n", run.Buffer)
	}
	if len(run.Records) == 0 {
		fmt.Println("run:", run.ID)
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Kind", "Primary Seg/WP", "Other Drone", "Other Seg/WP", "Window", "Description"})
	for _, rec := range run.Records {
		window := fmt.Sprintf("%d-%d", rec.WindowStart, rec.WindowEnd)
		tw.AppendRow(table.Row{string(rec.Kind), rec.PrimaryIndex, rec.OtherID, rec.OtherIndex, window, rec.Description})
	}
	tw.Render()
	fmt.Println("run:", run.ID)
}

func missionCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "mission", Short: "Manage stored mission sets"}
	cmd.AddCommand(missionImportCmd())
	cmd.AddCommand(missionListCmd())
	cmd.AddCommand(missionShowCmd())
	cmd.AddCommand(missionDeleteCmd())
	return cmd
}

func missionImportCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Validate and store a mission set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				m, err := e.ImportMission(ctx, name, data, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(m)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "mission name")
	return cmd
}

func missionListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List missions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListMissions(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Created"})
				for _, m := range items {
					tw.AppendRow(table.Row{m.ID, m.Name, m.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func missionShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a mission set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				m, err := e.GetMission(ctx, args[0])
				if err != nil {
					return err
				}
				set, err := mission.Parse([]byte(m.Payload))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"mission": m, "primary": set.Primary, "others": set.Others})
				}
				fmt.Printf("%s  %s  (created %s)\n", m.ID, m.Name, m.CreatedAt)
				printTrajectory("primary", set.Primary)
				for _, other := range set.Others {
					printTrajectory("simulated", other)
				}
				return nil
			})
		},
	}
	return cmd
}

func printTrajectory(role string, t domain.Trajectory) {
	start, end := t.Window()
	fmt.Printf("  %-9s %-12s %d waypoints, minutes %d-%d\n", role, t.ID, len(t.Points), start, end)
}

func missionDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a mission set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteMission(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
	return cmd
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "report", Short: "Inspect past check runs"}
	cmd.AddCommand(reportListCmd())
	cmd.AddCommand(reportShowCmd())
	return cmd
}

func reportListCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List check runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				runs, err := e.ListCheckRuns(ctx, n)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(runs)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Primary", "Buffer", "Verdict", "Created"})
				for _, run := range runs {
					verdict := "clear"
					if run.ConflictFound {
						verdict = "conflict"
					}
					tw.AppendRow(table.Row{run.ID, run.PrimaryID, run.Buffer, verdict, run.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of runs")
	return cmd
}

func reportShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a check run with its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				run, err := e.GetCheckRun(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(run)
				}
				printVerdict(run)
				return nil
			})
		},
	}
	return cmd
}

func chartCmd() *cobra.Command {
	var missionID, out string
	var buffer float64
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render a mission set as an HTML 3D plot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if missionID == "" {
				return fmt.Errorf("--mission required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				set, err := e.ResolveSet(ctx, missionID)
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("buffer") {
					buffer = e.Config.Deconfliction.SafetyBuffer
				}
				report, err := deconflict.FindConflicts(set.Primary, set.Others, buffer)
				if err != nil {
					return err
				}
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				title := fmt.Sprintf("Mission %s (buffer %g)", missionID, buffer)
				if err := chart.Render(f, set, report, title); err != nil {
					return err
				}
				fmt.Println("wrote", out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&missionID, "mission", "", "stored mission id")
	cmd.Flags().StringVar(&out, "out", "mission.html", "output HTML file")
	cmd.Flags().Float64Var(&buffer, "buffer", config.DefaultSafetyBuffer, "safety buffer distance")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Workspace configuration"}
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configInitCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSONOrTable(cfg)
		},
	}
	return cmd
}

func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default skylane.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Event log",
		Long:  "The diary of everything that happened: mission imports, checks, and deletions.",
	}
	cmd.AddCommand(logTailCmd())
	return cmd
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				events, err := e.Repo.LatestEvents(ctx, n, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				authCfg := server.AuthConfig{JWTSecret: os.Getenv("SKYLANE_JWT_SECRET")}
				if authCfg.JWTSecret == "" {
					return fmt.Errorf("SKYLANE_JWT_SECRET is required for bearer auth")
				}
				handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				fmt.Printf("Serving Skylane API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
