package main

import (
	"os"

	"anime-character-catalog/backend/pkg/client"

	"github.com/spf13/cobra"
)

// Version is set via ldflags at build time
var Version = "dev"

const defaultServer = "http://localhost:5000"

type options struct {
	server string
	json   bool
}

func (o *options) client() *client.Client {
	return client.New(o.server)
}

func (o *options) state() *client.State {
	return client.NewState(o.client())
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:     "catalog",
		Short:   "Browse and curate the anime character catalog",
		Version: Version,
		Example: `  # List Death Note characters, alphabetically
  catalog list --search "death note" --sort name-asc

  # Add a character
  catalog create --name "Light Yagami" --anime "Death Note" \
    --description "A student who finds a notebook." \
    --image-url https://example.com/light.png --role Anti-Hero \
    --ability "Genius intellect"

  # Filter the fetched catalog locally by name, anime or ability
  catalog filter rasengan`,
		SilenceUsage: true,
	}

	server := os.Getenv("CATALOG_URL")
	if server == "" {
		server = defaultServer
	}
	rootCmd.PersistentFlags().StringVarP(&opts.server, "server", "s", server, "catalog server URL (env CATALOG_URL)")
	rootCmd.PersistentFlags().BoolVar(&opts.json, "json", false, "print JSON instead of a table")

	rootCmd.AddCommand(
		newListCmd(opts),
		newGetCmd(opts),
		newCreateCmd(opts),
		newUpdateCmd(opts),
		newDeleteCmd(opts),
		newFilterCmd(opts),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
