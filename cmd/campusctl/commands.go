package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/credential"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/gateway"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/login"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/portal"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/remember"
	"github.com/ovaphlow/pitchfork/service-campus-portal/pkg/utilities"
)

type options struct {
	gatewayURL string
	stateFile  string
	timeout    time.Duration
	verbose    bool
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	_ = godotenv.Load()

	opts := &options{
		gatewayURL: envOr("CAMPUS_GATEWAY_URL", "http://localhost:8431"),
		stateFile:  os.Getenv("CAMPUS_STATE_FILE"),
		timeout:    10 * time.Second,
	}

	root := &cobra.Command{
		Use:           "campusctl",
		Short:         "Campus portal login from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&opts.gatewayURL, "gateway-url", opts.gatewayURL, "auth gateway base URL (env CAMPUS_GATEWAY_URL)")
	root.PersistentFlags().StringVar(&opts.stateFile, "state-file", opts.stateFile, "remember-me state file (env CAMPUS_STATE_FILE)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", opts.timeout, "gateway request timeout")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(newLoginCmd(opts), newForgetCmd(opts), newRememberedCmd(opts))
	return root
}

func (o *options) store() (*remember.FileStore, error) {
	path := o.stateFile
	if path == "" {
		p, err := remember.DefaultFilePath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return remember.NewFileStore(path), nil
}

func (o *options) logger() *zap.SugaredLogger {
	if !o.verbose {
		return zap.NewNop().Sugar()
	}
	cfg := utilities.ConfigFromEnv()
	cfg.Dev = true
	cfg.Level = "debug"
	cfg.File = ""
	lg, err := utilities.Init(cfg)
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return lg.Sugar()
}

func formFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "form", "student", "login form: "+strings.Join(portal.FormNames(), "|"))
}

func lookupForm(name string) (portal.Form, error) {
	f, ok := portal.LookupForm(name)
	if !ok {
		return portal.Form{}, fmt.Errorf("unknown form %q (want %s)", name, strings.Join(portal.FormNames(), " or "))
	}
	return f, nil
}

// cliUI prints notices; the destination is only reported.
type cliUI struct {
	out     io.Writer
	session *gateway.Session
}

func (u *cliUI) KeepSession(s *gateway.Session) { u.session = s }

func (u *cliUI) Notify(n login.Notice) {
	fmt.Fprintf(u.out, "[%s] %s\n", n.Kind, n.Message)
}

func (u *cliUI) Navigate(destination string) {
	if u.session == nil {
		fmt.Fprintf(u.out, "signed in -> %s\n", destination)
		return
	}
	name := u.session.DisplayName
	if name == "" {
		name = u.session.Identifier
	}
	fmt.Fprintf(u.out, "signed in as %s (%s) -> %s\n", name, u.session.Role, destination)
	if !u.session.ExpiresAt.IsZero() {
		fmt.Fprintf(u.out, "session expires %s\n", u.session.ExpiresAt.Local().Format(time.RFC1123))
	}
}

func newLoginCmd(opts *options) *cobra.Command {
	var (
		formName, kindName, identifier, password string
		rememberMe, printToken                   bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Validate and submit a credential to the auth gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := lookupForm(formName)
			if err != nil {
				return err
			}
			kind, ok := form.KindFor(kindName)
			if !ok {
				return fmt.Errorf("%s form does not accept %q identifiers", form.Name, kindName)
			}
			store, err := opts.store()
			if err != nil {
				return err
			}
			slot := remember.New(store, form.Name)

			// fall back to the remembered credential, as the forms prefill
			if saved, ok := slot.Load(); ok {
				if identifier == "" {
					identifier = saved.Identifier
					if kindName == "" {
						kind = form.PrefillKind(identifier)
					}
				}
				if password == "" {
					password = saved.Password
				}
				if !cmd.Flags().Changed("remember") {
					rememberMe = true
				}
			}

			ui := &cliUI{out: cmd.OutOrStdout()}
			orch := login.New(gateway.NewClient(opts.gatewayURL, opts.timeout), login.WithForm(form.Name), login.WithLogger(opts.logger()))
			out := orch.Submit(cmd.Context(), login.Submission{
				Credential: credential.LoginCredential{
					Kind:       kind,
					Identifier: identifier,
					Password:   password,
					RememberMe: rememberMe,
				},
				Remember:    slot,
				Destination: "/dashboard/" + form.Name,
			}, ui)

			if len(out.FieldErrors) > 0 {
				for _, field := range []string{credential.FieldIdentifier, credential.FieldPassword} {
					if msg, ok := out.FieldErrors[field]; ok {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", field, msg)
					}
				}
				return errors.New("credential rejected")
			}
			if out.State != login.Success {
				return fmt.Errorf("login failed: %w", out.Err)
			}
			if printToken && out.Session != nil {
				fmt.Fprintln(cmd.OutOrStdout(), out.Session.Token)
			}
			return nil
		},
	}
	formFlag(cmd, &formName)
	cmd.Flags().StringVar(&kindName, "kind", "", "identifier kind (registration_number|employee_id|email); defaults to the form's first kind")
	cmd.Flags().StringVar(&identifier, "id", "", "identifier; defaults to the remembered one")
	cmd.Flags().StringVar(&password, "password", "", "password; defaults to the remembered one")
	cmd.Flags().BoolVar(&rememberMe, "remember", false, "remember the credential on success (clears it when false)")
	cmd.Flags().BoolVar(&printToken, "print-token", false, "print the session token on success")
	return cmd
}

func newForgetCmd(opts *options) *cobra.Command {
	var formName string
	cmd := &cobra.Command{
		Use:   "forget",
		Short: "Clear the remembered credential of a form",
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := lookupForm(formName)
			if err != nil {
				return err
			}
			store, err := opts.store()
			if err != nil {
				return err
			}
			if err := remember.New(store, form.Name).Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "forgot %s credential\n", form.Name)
			return nil
		},
	}
	formFlag(cmd, &formName)
	return cmd
}

func newRememberedCmd(opts *options) *cobra.Command {
	var formName string
	cmd := &cobra.Command{
		Use:   "remembered",
		Short: "Show the remembered identifier of a form",
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := lookupForm(formName)
			if err != nil {
				return err
			}
			store, err := opts.store()
			if err != nil {
				return err
			}
			saved, ok := remember.New(store, form.Name).Load()
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "nothing remembered for %s\n", form.Name)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", form.Name, saved.Identifier)
			return nil
		},
	}
	formFlag(cmd, &formName)
	return cmd
}
