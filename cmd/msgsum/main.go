// Command msgsum prints the identity tokens of message and service
// definitions.
//
//	msgsum -root ./share                       # every definition under ./share
//	msgsum share/robot_comms/srv/ImageFilter.srv
//	msgsum -config rosrpc.toml robot_comms/ImageFilter   # resolve from the registry
//	msgsum -config rosrpc.toml -root ./share -publish    # load and publish to etcd
//
// Each line is "<type> <md5> <width>"; services print the request and
// response widths as "<request>/<response>".
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"rosrpc/config"
	"rosrpc/logging"
	"rosrpc/registry"
	"rosrpc/schema"
	"rosrpc/service"
)

type options struct {
	configPath string
	roots      []string
	text       bool
	cid        bool
	publish    bool
}

func main() {
	configPath := flag.String("config", "", "TOML config file (defaults apply when empty)")
	roots := flag.String("root", "", "comma-separated definition roots, added to registry.roots")
	text := flag.Bool("text", false, "print the canonical text of each definition")
	showCID := flag.Bool("cid", false, "print tokens as CIDs instead of hex md5")
	publish := flag.Bool("publish", false, "publish loaded definitions to the configured registry")
	flag.Parse()

	opts := options{
		configPath: *configPath,
		text:       *text,
		cid:        *showCID,
		publish:    *publish,
	}
	for _, r := range strings.Split(*roots, ",") {
		if r = strings.TrimSpace(r); r != "" {
			opts.roots = append(opts.roots, r)
		}
	}

	if err := run(context.Background(), opts, flag.Args(), os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, opts options, args []string, out io.Writer) error {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return err
		}
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logging.SetLogger(logger)

	local := registry.NewMemoryRegistry()
	for _, root := range append(cfg.Registry.Roots, opts.roots...) {
		if _, err := registry.Load(ctx, local, root); err != nil {
			return err
		}
	}

	var names []string
	for _, arg := range args {
		if ext := filepath.Ext(arg); ext == ".msg" || ext == ".srv" {
			name, err := registry.LoadFile(ctx, local, arg)
			if err != nil {
				return err
			}
			names = append(names, name)
			continue
		}
		names = append(names, arg)
	}
	if len(args) == 0 {
		msgs, _ := local.Messages(ctx)
		srvs, _ := local.Services(ctx)
		names = append(msgs, srvs...)
	}

	var remote registry.Registry
	if opts.publish || needsRemote(ctx, local, names) {
		if remote, err = registry.Open(cfg.Registry); err != nil {
			return err
		}
		defer registry.Close(remote)
	}
	if opts.publish {
		if err := publish(ctx, local, remote, logger); err != nil {
			return err
		}
	}

	for _, name := range names {
		if err := describe(ctx, out, opts, name, local, remote); err != nil {
			return err
		}
	}
	return nil
}

func needsRemote(ctx context.Context, local registry.Registry, names []string) bool {
	for _, name := range names {
		_, errMsg := local.Message(ctx, name)
		_, errSrv := local.Service(ctx, name)
		if errMsg != nil && errSrv != nil {
			return true
		}
	}
	return false
}

func publish(ctx context.Context, from, to registry.Registry, logger *zap.Logger) error {
	msgs, _ := from.Messages(ctx)
	for _, name := range msgs {
		s, _ := from.Message(ctx, name)
		if err := to.RegisterMessage(ctx, s); err != nil {
			return err
		}
	}
	srvs, _ := from.Services(ctx)
	for _, name := range srvs {
		d, _ := from.Service(ctx, name)
		if err := to.RegisterService(ctx, d); err != nil {
			return err
		}
	}
	logger.Info("published", zap.Int("messages", len(msgs)), zap.Int("services", len(srvs)))
	return nil
}

func describe(ctx context.Context, out io.Writer, opts options, name string, regs ...registry.Registry) error {
	for _, reg := range regs {
		if reg == nil {
			continue
		}
		if s, err := reg.Message(ctx, name); err == nil {
			return printMessage(out, opts, s)
		} else if !errors.Is(err, registry.ErrNotFound) {
			return err
		}
		if d, err := reg.Service(ctx, name); err == nil {
			return printService(out, opts, d)
		} else if !errors.Is(err, registry.ErrNotFound) {
			return err
		}
	}
	return fmt.Errorf("%s: %w", name, registry.ErrNotFound)
}

func formatToken(opts options, tok schema.Token) string {
	if opts.cid {
		return tok.CID().String()
	}
	return tok.String()
}

func printMessage(out io.Writer, opts options, s *schema.Schema) error {
	if opts.text {
		_, err := fmt.Fprintf(out, "%s\n", s.Text())
		return err
	}
	_, err := fmt.Fprintf(out, "%s %s %d\n", s.Name(), formatToken(opts, s.Token()), s.Width())
	return err
}

func printService(out io.Writer, opts options, d *service.Descriptor) error {
	if opts.text {
		_, err := fmt.Fprintf(out, "%s\n", d.Text())
		return err
	}
	_, err := fmt.Fprintf(out, "%s %s %d/%d\n", d.Name(), formatToken(opts, d.Token()), d.Request().Width(), d.Response().Width())
	return err
}
