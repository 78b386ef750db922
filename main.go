package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"pushprint/config"
	"pushprint/engine"
	"pushprint/media"
	"pushprint/printer"
	"pushprint/pushover"
	"pushprint/rules"
)

// env is everything a subcommand needs after the shared setup.
type env struct {
	path string // resolved configuration path
	cfg  *config.Config
	log  *zap.Logger
}

func setup(cmd *cli.Command) (*env, error) {
	path := cmd.String("config")
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cmd.Bool("debug") {
		cfg.Logging.Level = "debug"
	}
	log, err := cfg.Logging.Prepare()
	if err != nil {
		return nil, fmt.Errorf("unable to prepare logs: %w", err)
	}
	return &env{path: path, cfg: cfg, log: log}, nil
}

func main() {
	// allow graceful shutdown on interrupt: serve blocks on the stream and
	// should close the session cleanly
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            "pushprint",
		Usage:           "prints push notifications on a thermal receipt printer",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "verbose logging"},
		},
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Logs in and registers this printer as a device",
				Action: runLogin,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "account email (prompted when absent)"},
					&cli.StringFlag{Name: "password", Usage: "account password (prompted when absent)"},
					&cli.StringFlag{Name: "twofa", Usage: "two-factor code, if the account requires one"},
					&cli.StringFlag{Name: "name", Value: "pushprint", Usage: "device `NAME` to register"},
				},
			},
			{
				Name:   "serve",
				Usage:  "Streams notifications and prints each one as it arrives",
				Action: runServe,
			},
			{
				Name:      "print",
				Usage:     "Renders and prints a single message from the command line",
				Action:    runPrint,
				ArgsUsage: "[BODY]",
				Flags:     messageFlags(),
			},
			{
				Name:      "preview",
				Usage:     "Renders a single message to a PNG instead of the printer",
				Action:    runPreview,
				ArgsUsage: "[BODY]",
				Flags: append(messageFlags(),
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "preview.png", Usage: "output `FILE`"}),
			},
		},
	}

	err := app.Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pushprint: %v\n", err)
		os.Exit(1)
	}
}

func messageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Usage: "message title"},
		&cli.BoolFlag{Name: "html", Usage: "treat the body as markup"},
		&cli.IntFlag{Name: "priority", Usage: "message priority (-2..2)"},
		&cli.StringFlag{Name: "url", Usage: "supplementary URL, printed as a QR code"},
		&cli.StringFlag{Name: "url-title", Usage: "label printed above the URL's QR code"},
	}
}

func runLogin(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.log.Sync() //nolint:errcheck

	email := cmd.String("email")
	if email == "" {
		if email, err = prompt("Email: "); err != nil {
			return err
		}
	}
	password := cmd.String("password")
	if password == "" {
		if password, err = prompt("Password: "); err != nil {
			return err
		}
	}

	client := pushover.NewClient(e.cfg.Server.APIBase, "", "")
	if err := client.Login(ctx, email, password, cmd.String("twofa")); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	name := cmd.String("name")
	if err := client.RegisterDevice(ctx, name); err != nil {
		return fmt.Errorf("device registration failed: %w", err)
	}

	e.cfg.Server.Secret = client.Secret()
	e.cfg.Server.DeviceID = client.DeviceID()
	e.cfg.Server.DeviceName = name
	if err := e.cfg.Save(e.path); err != nil {
		return err
	}
	e.log.Info("logged in", zap.String("device", client.DeviceID()), zap.String("config", e.path))
	fmt.Printf("Registered device %q (%s); session saved to %s\n", name, client.DeviceID(), e.path)
	return nil
}

func prompt(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.log.Sync() //nolint:errcheck

	srv := e.cfg.Server
	if srv.Secret == "" || srv.DeviceID == "" {
		return errors.New("no session in configuration, run `pushprint login` first")
	}

	var set *rules.Set
	if e.cfg.Rules != "" {
		f, err := os.Open(e.cfg.Rules)
		if err != nil {
			return fmt.Errorf("opening rule file: %w", err)
		}
		set, err = rules.Parse(f)
		f.Close()
		if err != nil {
			return err
		}
		e.log.Info("loaded rules", zap.String("file", e.cfg.Rules))
	}

	transport, err := printer.NewTransport(e.cfg.Printer.Device)
	if err != nil {
		return err
	}

	client := pushover.NewClient(srv.APIBase, srv.Secret, srv.DeviceID)
	eng := engine.New(media.NewFetcher(0), e.log)

	drain := func(ctx context.Context) error {
		return drainOnce(ctx, e, client, eng, set, transport)
	}

	// pick up whatever queued while we were offline, then follow the stream
	if err := drain(ctx); err != nil {
		return err
	}
	err = client.Listen(ctx, srv.StreamURL, e.log, drain)
	if errors.Is(err, pushover.ErrSessionInvalid) {
		return fmt.Errorf("%w, run `pushprint login` again", err)
	}
	return err
}

// drainOnce fetches all pending messages, prints the ones the rules let
// through and acknowledges everything it saw, printed or not.
func drainOnce(ctx context.Context, e *env, client *pushover.Client, eng *engine.Engine, set *rules.Set, transport *printer.Transport) error {
	msgs, err := client.Messages(ctx)
	if err != nil {
		return err
	}
	var highest int64
	for _, msg := range msgs {
		if msg.ID > highest {
			highest = msg.ID
		}
		if msg.Priority < e.cfg.Server.MinPriority {
			e.log.Debug("below minimum priority", zap.Int64("id", msg.ID), zap.Int("priority", msg.Priority))
			continue
		}
		prof := e.cfg.Printer
		if set != nil {
			d := set.Evaluate(msg)
			if d.Skip {
				e.log.Info("skipped by rule", zap.Int64("id", msg.ID), zap.String("app", msg.AppName))
				continue
			}
			if d.Backend != "" {
				prof.Backend = printer.Backend(d.Backend)
			}
		}
		out, err := eng.Render(ctx, msg, prof)
		if err != nil {
			e.log.Error("render failed", zap.Int64("id", msg.ID), zap.Error(err))
			continue
		}
		if err := transport.Send(out); err != nil {
			// leave the message unacknowledged so it prints on the next drain
			return fmt.Errorf("printing message %d: %w", msg.ID, err)
		}
		e.log.Info("printed", zap.Int64("id", msg.ID), zap.String("app", msg.AppName), zap.String("title", msg.DisplayTitle()))
	}
	if highest > 0 {
		if err := client.DeleteUpTo(ctx, highest); err != nil {
			return fmt.Errorf("acknowledging messages: %w", err)
		}
	}
	return nil
}

// messageFromCmd builds a one-shot message from flags and the body argument,
// falling back to stdin when no body is given.
func messageFromCmd(cmd *cli.Command) (pushover.Message, error) {
	body := cmd.Args().First()
	if body == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return pushover.Message{}, fmt.Errorf("reading body from stdin: %w", err)
		}
		body = string(data)
	}
	msg := pushover.Message{
		Title:    cmd.String("title"),
		Body:     body,
		Priority: cmd.Int("priority"),
		URL:      cmd.String("url"),
		URLTitle: cmd.String("url-title"),
	}
	if cmd.Bool("html") {
		msg.HTML = 1
	}
	return msg, nil
}

func runPrint(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.log.Sync() //nolint:errcheck

	msg, err := messageFromCmd(cmd)
	if err != nil {
		return err
	}
	transport, err := printer.NewTransport(e.cfg.Printer.Device)
	if err != nil {
		return err
	}
	eng := engine.New(media.NewFetcher(0), e.log)
	out, err := eng.Render(ctx, msg, e.cfg.Printer)
	if err != nil {
		return err
	}
	return transport.Send(out)
}

func runPreview(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.log.Sync() //nolint:errcheck

	msg, err := messageFromCmd(cmd)
	if err != nil {
		return err
	}
	prof := e.cfg.Printer
	prof.Backend = printer.BackendCanvas

	eng := engine.New(media.NewFetcher(0), e.log)
	out, err := eng.Render(ctx, msg, prof)
	if err != nil {
		return err
	}

	dest := cmd.String("out")
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	defer f.Close()
	if err := png.Encode(f, out.Raster); err != nil {
		return fmt.Errorf("encoding %s: %w", dest, err)
	}
	e.log.Info("preview written", zap.String("file", dest))
	return nil
}
