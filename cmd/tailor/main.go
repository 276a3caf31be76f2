package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pbaille/tailor/internal/api"
	"github.com/pbaille/tailor/internal/clipboard"
	"github.com/pbaille/tailor/internal/config"
	"github.com/pbaille/tailor/internal/dailylog"
	"github.com/pbaille/tailor/internal/domain"
	"github.com/pbaille/tailor/internal/download"
	"github.com/pbaille/tailor/internal/fetcher"
	"github.com/pbaille/tailor/internal/generation"
	"github.com/pbaille/tailor/internal/store"
	"github.com/pbaille/tailor/internal/workflow"
)

var (
	configPath string
	endpoint   string
	outDir     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "tailor",
		Short:        "Request tailored resumes and cover letters for a job",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "generation service URL (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&outDir, "out", "o", "", "download directory (overrides config)")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(todayCmd())
	rootCmd.AddCommand(copyCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if outDir != "" {
		cfg.DownloadDir = outDir
	}
	return cfg, cfg.Validate()
}

// session bundles a controller with the store it must close
type session struct {
	cfg  *config.Config
	kv   store.KV
	ctrl *workflow.Controller
}

func (s *session) Close() error { return s.kv.Close() }

func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	kv, err := cfg.OpenStore()
	if err != nil {
		return nil, err
	}

	ctrl, err := workflow.New(ctx,
		generation.New(cfg.Endpoint),
		download.Trigger{Dir: cfg.DownloadDir},
		dailylog.New(kv),
	)
	if err != nil {
		kv.Close()
		return nil, err
	}

	return &session{cfg: cfg, kv: kv, ctrl: ctrl}, nil
}

func generateCmd() *cobra.Command {
	var (
		title           string
		description     string
		descriptionFile string
		postingURL      string
	)

	cmd := &cobra.Command{
		Use:       "generate [resume|cover_letter|both]",
		Short:     "Generate tailored documents and save them as a zip",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"resume", "cover_letter", "both"},
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := domain.ParseGenerationType(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if descriptionFile != "" {
				text, err := readDescription(cmd.InOrStdin(), descriptionFile)
				if err != nil {
					return err
				}
				description = text
			}

			if postingURL != "" && strings.TrimSpace(description) == "" {
				fmt.Print("Fetching posting... ")
				posting, err := fetcher.New(nil).Fetch(ctx, postingURL)
				if err != nil {
					fmt.Println("failed")
					return fmt.Errorf("fetch posting: %w", err)
				}
				fmt.Println("done")
				description = posting.Description
				if strings.TrimSpace(title) == "" {
					title = posting.Title
				}
			}

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			fmt.Printf("Generating %s for %q... ", t, title)
			out, err := s.ctrl.Generate(ctx, title, description, t)
			if err != nil {
				fmt.Println("failed")
				return errors.New(s.ctrl.Snapshot().Error)
			}
			fmt.Println("done")

			fmt.Printf("Saved:  %s\n", out.Path)
			fmt.Printf("Logged: %s  %s\n", out.Record.Timestamp, out.Record.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "job title / role")
	cmd.Flags().StringVarP(&description, "description", "d", "", "job description text")
	cmd.Flags().StringVarP(&descriptionFile, "description-file", "f", "", "read the job description from a file (- for stdin)")
	cmd.Flags().StringVarP(&postingURL, "url", "u", "", "fetch the job description from a posting URL")
	return cmd
}

func readDescription(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read description: %w", err)
	}
	return string(data), nil
}

func todayCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "today",
		Short: "List applications generated today",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			kv, err := cfg.OpenStore()
			if err != nil {
				return err
			}
			defer kv.Close()

			day := time.Now()
			if date != "" {
				day, err = time.ParseInLocation("2006-01-02", date, time.Local)
				if err != nil {
					return fmt.Errorf("invalid date %q (want YYYY-MM-DD)", date)
				}
			}

			records, err := dailylog.New(kv).LoadDay(cmd.Context(), day)
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println("No applications yet. Use 'tailor generate' to create one.")
				return nil
			}

			for _, r := range records {
				fmt.Printf("%-11s  %-12s  %s\n", r.Timestamp, r.Type, truncate(r.Title, 60))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "show another day (YYYY-MM-DD)")
	return cmd
}

func copyCmd() *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "copy [text]",
		Short: "Copy text to the clipboard",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if label == "" {
				label = truncate(text, 20)
			}

			h := clipboard.New(clipboard.System{})
			h.Copy(cmd.Context(), text, label)
			if copied := h.Copied(); copied != "" {
				fmt.Printf("Copied %s\n", copied)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "name shown in the copied feedback")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workflow API for a local browser page",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			// Note: don't defer s.Close() as server runs indefinitely

			if addr == "" {
				addr = s.cfg.Addr
			}
			return api.New(s.ctrl, addr).Run()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address (overrides config)")
	return cmd
}

func truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
