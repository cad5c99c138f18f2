package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/klingon-exchange/dib-relay/internal/ethereum"
	"github.com/klingon-exchange/dib-relay/internal/ledgeradapter"
	"github.com/klingon-exchange/dib-relay/internal/relay"
	"github.com/klingon-exchange/dib-relay/internal/relayconfig"
	"github.com/klingon-exchange/dib-relay/internal/statusapi"
	"github.com/klingon-exchange/dib-relay/internal/transfer"
	"github.com/klingon-exchange/dib-relay/pkg/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve [config.yaml] [section.key=value ...]",
	Short: "Run the relay engine until interrupted",
	Args:  cobra.MinimumNArgs(0),
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	var path string
	overrides := args
	if len(args) > 0 {
		path = args[0]
		overrides = args[1:]
	}

	cfg, err := relayconfig.LoadConfig(path, overrides)
	if err != nil {
		return err
	}

	log := logging.GetDefault().Component("dibd")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initiator, err := buildInitiator(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build initiator: %w", err)
	}
	responder, err := buildResponder(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build responder: %w", err)
	}

	register := transfer.New()
	engine := relay.New(initiator, responder, register, cfg.EngineConfig())

	var status *statusapi.Server
	if cfg.Node.StatusListen != "" {
		status = statusapi.New(register, cfg.DutyConfig())
		engine.OnEvent(status.OnEvent)
		if err := status.Start(cfg.Node.StatusListen); err != nil {
			return fmt.Errorf("start status surface: %w", err)
		}
	}

	log.Info("relay engine starting", "node_id", cfg.Node.ID, "node_count", cfg.Node.Count)
	runErr := engine.Run(ctx)

	if status != nil {
		if err := status.Stop(); err != nil {
			log.Warn("status surface shutdown error", "error", err)
		}
	}
	if runErr != nil && runErr != context.Canceled {
		return runErr
	}
	log.Info("relay engine stopped")
	return nil
}

func buildInitiator(ctx context.Context, cfg *relayconfig.Config) (ledgeradapter.Initiator, error) {
	section, ok := cfg.Ledgers[cfg.Initiator]
	if !ok {
		return nil, fmt.Errorf("no ledger section %q", cfg.Initiator)
	}
	secret, ok, err := cfg.SecretBytes()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("node.secret is required")
	}
	switch section.Type {
	case relayconfig.LedgerEth:
		ecfg, err := section.EthereumClientConfig()
		if err != nil {
			return nil, err
		}
		client, err := ethereum.Dial(ctx, ecfg, "initiator")
		if err != nil {
			return nil, err
		}
		return ethereum.NewInitiator(client, common.HexToAddress(section.ContractAddress), secret), nil
	default:
		return nil, fmt.Errorf("ledger type %q has no initiator adapter wired yet", section.Type)
	}
}

func buildResponder(ctx context.Context, cfg *relayconfig.Config) (ledgeradapter.Responder, error) {
	section, ok := cfg.Ledgers[cfg.Responder]
	if !ok {
		return nil, fmt.Errorf("no ledger section %q", cfg.Responder)
	}
	switch section.Type {
	case relayconfig.LedgerEth:
		ecfg, err := section.EthereumClientConfig()
		if err != nil {
			return nil, err
		}
		client, err := ethereum.Dial(ctx, ecfg, "responder")
		if err != nil {
			return nil, err
		}
		return ethereum.NewResponder(client, common.HexToAddress(section.ContractAddress)), nil
	default:
		return nil, fmt.Errorf("ledger type %q has no responder adapter wired yet", section.Type)
	}
}
