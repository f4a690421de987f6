package main

import (
	"fmt"
	"net"
	"net/url"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/raphi011/jim/internal/config"
	"github.com/raphi011/jim/internal/log"
	"github.com/raphi011/jim/internal/output"
)

func newURLCmd() *cobra.Command {
	var copyURL bool

	cmd := &cobra.Command{
		Use:               "url <name>",
		Short:             "Print a hook's trigger URL",
		GroupID:           GroupServe,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeHookArg,
		Long: `Print the URL that triggers a hook when jim serve is running, for pasting
into a webhook configuration. The host comes from [server] addr; wildcard
addresses are shown as localhost.`,
		Example: `  jim url deploy         # http://localhost:8080/hooks/deploy
  jim url deploy --copy  # Also copy it to the clipboard`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)

			reg, err := openRegistry(ctx)
			if err != nil {
				return err
			}
			h, err := existingHook(reg, args[0])
			if err != nil {
				return err
			}

			u, err := triggerURL(cfg.Server.Addr, h.Name)
			if err != nil {
				return err
			}
			output.FromContext(ctx).Println(u)

			if copyURL {
				if err := clipboard.WriteAll(u); err != nil {
					return fmt.Errorf("copy to clipboard: %w", err)
				}
				log.FromContext(ctx).Log("copied to clipboard", "copy")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&copyURL, "copy", "c", false, "Copy the URL to the clipboard")

	return cmd
}

// triggerURL returns the http URL that triggers name on a server listening
// on addr.
func triggerURL(addr, name string) (string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("invalid server address %q: %w", addr, err)
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}

	u := url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(host, port),
		Path:   "/hooks/" + name,
	}
	return u.String(), nil
}
