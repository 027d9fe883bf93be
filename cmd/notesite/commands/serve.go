package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/notesite/internal/metrics"
	"git.home.luguber.info/inful/notesite/internal/serve"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Port      int    `short:"p" help:"HTTP port (overrides serve.port)"`
	AdminPort int    `name:"admin-port" help:"Admin listener port (overrides serve.admin_port)"`
	Dir       string `short:"d" help:"Site directory to serve (overrides build.output)"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	dir := s.Dir
	if dir == "" {
		dir = cfg.Build.Output
	}
	port := s.Port
	if port == 0 {
		port = cfg.Serve.Port
	}
	adminPort := s.AdminPort
	if adminPort == 0 {
		adminPort = cfg.Serve.AdminPort
	}

	opts := serve.Options{
		Dir:            dir,
		Port:           port,
		AdminPort:      adminPort,
		MetricsEnabled: cfg.Serve.Metrics.Enabled,
		MetricsPath:    cfg.Serve.Metrics.Path,
	}
	if cfg.Serve.Metrics.Enabled {
		opts.Registry = metrics.NewPrometheusRecorder(nil).Registry()
	}
	if store := openStore(); store != nil {
		defer func() { _ = store.Close() }()
		opts.Store = store
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return serve.New(opts).Run(ctx)
}
