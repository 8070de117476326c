package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"driveway/internal/app"
	"driveway/internal/config"
	"driveway/internal/drive"
	"driveway/internal/model"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal error in driveway")
		for e := err; e != nil; e = errors.Unwrap(e) {
			fmt.Fprintf(os.Stderr, "  caused by: %v\n", e)
		}
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer a.Close().
func newApp() (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// syncMode resolves the --sync flag.
func syncMode(cmd *cobra.Command) (drive.SyncMode, error) {
	flag, _ := cmd.Flags().GetString("sync")
	return drive.ParseSyncMode(flag)
}

// preSync runs the automatic synchronization that read commands perform
// before consulting the local mirror.
func preSync(cmd *cobra.Command, a *app.App) error {
	mode, err := syncMode(cmd)
	if err != nil {
		return err
	}
	return a.Sync(cmd.Context(), mode)
}

// reportDocs prints the documents and records them as the last listing.
func reportDocs(a *app.App, docs []model.Doc) error {
	printDocs(os.Stdout, docs)
	return a.Service().RecordListing(docs)
}

// reportAmbiguous prints the candidates of an ambiguous specifier and
// records them, so the user can retry with a "%N" reference.
func reportAmbiguous(a *app.App, err error) (bool, error) {
	var ambiguous *drive.AmbiguousSpecError
	if !errors.As(err, &ambiguous) {
		return false, nil
	}

	fmt.Printf("%d documents matched %q:\n", ambiguous.Total, ambiguous.Spec)
	if recErr := reportDocs(a, ambiguous.Candidates); recErr != nil {
		return true, recErr
	}
	if ambiguous.Total > len(ambiguous.Candidates) {
		fmt.Printf("...and %d more. Please be more specific.\n", ambiguous.Total-len(ambiguous.Candidates))
	} else {
		fmt.Println("Please be more specific.")
	}
	return true, nil
}

var rootCmd = &cobra.Command{
	Use:           "driveway",
	Short:         "Mirror and navigate your cloud documents locally",
	SilenceErrors: true,
	SilenceUsage:  true,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize an account and import its documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Login(cmd.Context())
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Apply remote changes to the local mirror",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Sync(cmd.Context(), drive.SyncYes)
	},
}

var resyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Rebuild the mirror with a full import of every account",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Resync(cmd.Context())
	},
}

var listCmd = &cobra.Command{
	Use:   "list [SPEC...]",
	Short: "List documents matching the given specifiers",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := preSync(cmd, a); err != nil {
			return err
		}

		var docs []model.Doc
		if len(args) == 0 {
			docs, err = a.Service().Database().ListDocs()
			if err != nil {
				return fmt.Errorf("listing documents: %w", err)
			}
		} else {
			seen := make(map[string]bool)
			for _, spec := range args {
				matched, err := a.Service().Resolve(spec, true)
				if err != nil {
					return err
				}
				for _, doc := range matched {
					if seen[doc.ID] {
						continue
					}
					seen[doc.ID] = true
					docs = append(docs, doc)
				}
			}
			if len(docs) == 0 {
				return fmt.Errorf("no documents matched")
			}
		}

		return reportDocs(a, docs)
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls [SPEC]",
	Short: "List the contents of a folder and make it the virtual CWD",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := preSync(cmd, a); err != nil {
			return err
		}

		spec := "."
		if len(args) > 0 {
			spec = args[0]
		}

		folder, err := a.Service().ResolveOne(spec)
		if err != nil {
			if handled, herr := reportAmbiguous(a, err); handled {
				return herr
			}
			return err
		}

		if err := a.Service().SetCWD(folder); err != nil {
			return err
		}

		children, err := a.Service().Children(folder)
		if err != nil {
			return err
		}

		fmt.Printf("%s:\n", folder.Name)
		return reportDocs(a, children)
	},
}

var pathCmd = &cobra.Command{
	Use:   "path SPEC",
	Short: "Show every folder path leading to a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := preSync(cmd, a); err != nil {
			return err
		}

		doc, err := a.Service().ResolveOne(args[0])
		if err != nil {
			if handled, herr := reportAmbiguous(a, err); handled {
				return herr
			}
			return err
		}

		accountPaths, err := a.Service().FolderPaths(doc)
		if err != nil {
			return err
		}

		fmt.Printf("%s:\n", doc.Name)
		for _, ap := range accountPaths {
			fmt.Printf("%s:\n", ap.Account.Email)
			if len(ap.Paths) == 0 {
				fmt.Println("  (not reachable from any folder)")
				continue
			}
			for _, p := range ap.Paths {
				printPath(os.Stdout, p)
			}
		}
		return nil
	},
}

var openCmd = &cobra.Command{
	Use:   "open SPEC",
	Short: "Open a document in the browser",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := preSync(cmd, a); err != nil {
			return err
		}

		doc, err := a.OpenDoc(args[0])
		if err != nil {
			if handled, herr := reportAmbiguous(a, err); handled {
				return herr
			}
			return err
		}

		fmt.Printf("Opened %s\n", doc.Name)
		return nil
	},
}

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List authorized accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		states, err := a.Accounts()
		if err != nil {
			return err
		}

		if len(states) == 0 {
			fmt.Println("No accounts. Run `driveway login` first.")
			return nil
		}

		for _, st := range states {
			lastSync := "never synced"
			if st.LastSync != nil {
				lastSync = "synced " + humanize.Time(*st.LastSync)
			}
			root := st.RootFolderID
			if root == "" {
				root = "(not imported)"
			}
			fmt.Printf("%s  root=%s  %s\n", st.Email, root, lastSync)
		}
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Printf("Place your OAuth client secret at %s\n", cfg.Remote.ClientSecretPath)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:      %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:       %s\n", cfg.LogDir)
		fmt.Printf("Database:      %s (%s)\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Credentials:   %s (%s)\n", cfg.Credentials.Type, cfg.Credentials.Dir)
		fmt.Printf("Client Secret: %s\n", cfg.Remote.ClientSecretPath)
		fmt.Printf("Sync:          %s every %s\n", cfg.Sync.Mode, cfg.Sync.Interval.Duration)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("sync", "auto", "Synchronize before reading: auto, yes or no")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(resyncCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(configCmd)
}
