// Package commands implements the multiasset command handlers: input validation, ledger
// session setup, cost accounting and the printed summaries.
package commands

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chainsafe/multiasset/internal/metrics"
	"github.com/chainsafe/multiasset/pkg/account"
	apperrors "github.com/chainsafe/multiasset/pkg/app/errors"
	"github.com/chainsafe/multiasset/pkg/config"
	"github.com/chainsafe/multiasset/pkg/deployments"
	"github.com/chainsafe/multiasset/pkg/identity"
	"github.com/chainsafe/multiasset/pkg/keys"
	"github.com/chainsafe/multiasset/pkg/ledger"
)

// Dialer connects to the ledger at rpcURL. The returned function releases the connection.
type Dialer func(ctx context.Context, rpcURL string) (ledger.Ledger, func(), error)

// Env is everything a command needs from the process. Config and Dial are required.
type Env struct {
	Config *config.Config
	Logger *zap.Logger
	Dial   Dialer
	// Signer overrides the key configured in Config.Wallet.
	Signer ledger.Signer
	// Out receives the command summaries. Defaults to os.Stdout.
	Out io.Writer
	// Salt is the randomness deployments draw their salt from. Defaults to crypto/rand.
	Salt io.Reader
	// Journal records deployments. When nil, OpenJournal is called the first time a
	// command needs the journal, and an in-memory store is used when both are nil.
	Journal     deployments.Store
	OpenJournal func(ctx context.Context) (deployments.Store, error)
}

// Runner executes commands against the ledger described by its Env.
type Runner struct {
	env    Env
	logger *zap.Logger
}

// New validates env and fills its defaults.
func New(env Env) (*Runner, error) {
	if env.Config == nil {
		return nil, errors.New("config is required")
	}
	if env.Dial == nil {
		return nil, errors.New("dialer is required")
	}
	if env.Logger == nil {
		env.Logger = zap.NewNop()
	}
	if env.Out == nil {
		env.Out = os.Stdout
	}
	if env.Salt == nil {
		env.Salt = rand.Reader
	}
	if env.Journal == nil && env.OpenJournal == nil {
		env.Journal = deployments.NewMemoryStore()
	}
	return &Runner{env: env, logger: env.Logger}, nil
}

// run executes fn as the command name, tagging logs with a run id, counting the outcome
// and classifying the returned error.
func run[T any](ctx context.Context, r *Runner, name string, fn func(ctx context.Context, log *zap.Logger) (T, error)) (T, error) {
	log := r.logger.With(zap.String("run_id", uuid.NewString()), zap.String("command", name))
	start := time.Now()

	out, err := fn(ctx, log)
	if err != nil {
		err = classify(err)
		metrics.CommandsTotal.WithLabelValues(name, "failure").Inc()
		log.Error("Command failed",
			zap.Error(err),
			zap.Stringer("category", apperrors.CategoryOf(err)),
			zap.Duration("elapsed", time.Since(start)))
		return out, err
	}
	metrics.CommandsTotal.WithLabelValues(name, "success").Inc()
	log.Info("Command completed", zap.Duration("elapsed", time.Since(start)))
	return out, nil
}

// journal returns the deployment journal, opening it on first use.
func (r *Runner) journal(ctx context.Context) (deployments.Store, error) {
	if r.env.Journal != nil {
		return r.env.Journal, nil
	}
	j, err := r.env.OpenJournal(ctx)
	if err != nil {
		return nil, fmt.Errorf("open deployment journal: %w", err)
	}
	r.env.Journal = j
	return j, nil
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.env.Out, format, args...)
}

// session is an open ledger connection with the operating account.
type session struct {
	wallet *account.Wallet
	close  func()
	before *big.Int
}

// open dials the ledger. Transactional commands pass snapshot to record the base balance
// cost is measured against. Read-only commands work without a configured key.
func (r *Runner) open(ctx context.Context, rpc string, readOnly, snapshot bool, log *zap.Logger) (*session, error) {
	signer, err := r.signer(readOnly)
	if err != nil {
		return nil, err
	}
	if rpc == "" {
		rpc = r.env.Config.Ledger.RPCURL
	}
	if rpc == "" {
		return nil, ErrNoEndpoint
	}

	l, closeFn, err := r.env.Dial(ctx, rpc)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", rpc, err)
	}
	if closeFn == nil {
		closeFn = func() {}
	}
	wallet, err := account.New(l, signer)
	if err != nil {
		closeFn()
		return nil, err
	}

	s := &session{wallet: wallet, close: closeFn}
	if snapshot {
		if s.before, err = wallet.BaseBalance(ctx); err != nil {
			closeFn()
			return nil, err
		}
	}
	log.Debug("Ledger session opened", zap.String("rpc", rpc), zap.String("account", wallet.Address().String()))
	return s, nil
}

// cost is the base balance spent since the session opened. It is negative when the
// account was funded in between.
func (s *session) cost(ctx context.Context) (*big.Int, error) {
	after, err := s.wallet.BaseBalance(ctx)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Sub(s.before, after), nil
}

func (r *Runner) signer(readOnly bool) (ledger.Signer, error) {
	if r.env.Signer != nil {
		return r.env.Signer, nil
	}
	w := r.env.Config.Wallet
	key, err := keys.Load(keys.Source{
		PrivateKey:          w.PrivateKey,
		EncryptedPrivateKey: w.EncryptedPrivateKey,
		MasterKey:           w.MasterKey,
		Passphrase:          w.Passphrase,
	})
	if errors.Is(err, keys.ErrNoKey) && readOnly {
		return watchOnly{}, nil
	}
	if err != nil {
		return nil, localError{fmt.Errorf("load wallet key: %w", err)}
	}
	return key, nil
}

// watchOnly queries from the zero address when no key is configured.
type watchOnly struct{}

func (watchOnly) Address() identity.Fingerprint { return identity.ZeroFingerprint }

func (watchOnly) Sign([]byte) ([]byte, error) {
	return nil, errors.New("watch-only account cannot sign")
}

// formatCost renders a base asset amount raw and in whole units.
func (r *Runner) formatCost(cost *big.Int, command string) string {
	units := decimal.NewFromBigInt(cost, -r.env.Config.Ledger.BaseAssetDecimals)
	f, _ := units.Float64()
	metrics.CommandCost.WithLabelValues(command).Set(f)
	return fmt.Sprintf("%s (%s)", cost.String(), units.String())
}
