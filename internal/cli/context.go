package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/llehouerou/trackvault/internal/blob"
	"github.com/llehouerou/trackvault/internal/cache"
	"github.com/llehouerou/trackvault/internal/catalog"
	"github.com/llehouerou/trackvault/internal/config"
	"github.com/llehouerou/trackvault/internal/errmsg"
	"github.com/llehouerou/trackvault/internal/logging"
	"github.com/llehouerou/trackvault/internal/media"
	"github.com/llehouerou/trackvault/internal/remote"
	"github.com/llehouerou/trackvault/internal/track"
)

// ErrDataDirLocked is returned when another process holds the data directory.
var ErrDataDirLocked = errors.New("data directory is in use by another trackvault process")

// elementFactory creates the media element used by the play command.
type elementFactory func(logger *slog.Logger) media.Element

func defaultElement(logger *slog.Logger) media.Element {
	return media.NewBackend(media.WithLogger(logger))
}

type commandContext struct {
	newElement elementFactory

	configFlag   *string
	dataDirFlag  *string
	remoteFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(newElement elementFactory, configFlag, dataDirFlag, remoteFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		newElement:   newElement,
		configFlag:   configFlag,
		dataDirFlag:  dataDirFlag,
		remoteFlag:   remoteFlag,
		logLevelFlag: logLevelFlag,
	}
}

// ensureConfig loads the configuration once and applies flag overrides.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var (
			cfg *config.Config
			err error
		)
		if path := flagValue(c.configFlag); path != "" {
			if _, statErr := os.Stat(path); statErr != nil {
				c.configErr = fmt.Errorf("config file: %w", statErr)
				return
			}
			cfg, err = config.LoadFrom(path)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		if v := flagValue(c.dataDirFlag); v != "" {
			cfg.DataDir = v
		}
		if v := flagValue(c.remoteFlag); v != "" {
			cfg.Remote.BaseURL = strings.TrimSuffix(v, "/")
		}
		if v := flagValue(c.logLevelFlag); v != "" {
			cfg.Log.Level = v
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	lc := cfg.GetLogConfig()
	return logging.New(logging.Options{
		Level:  lc.Level,
		Format: lc.Format,
		Output: cmd.ErrOrStderr(),
	})
}

// library is an opened catalogue with its storage tiers. The data directory
// stays locked until close.
type library struct {
	cfg    *config.Config
	logger *slog.Logger
	lock   *flock.Flock
	cache  *cache.Store
	coord  *catalog.Coordinator
}

// withLibrary opens the library, runs the initial load and calls fn.
func (c *commandContext) withLibrary(cmd *cobra.Command, fn func(*library) error) error {
	lib, err := c.openLibrary(cmd)
	if err != nil {
		return err
	}
	defer lib.close()

	if err := lib.coord.Start(cmd.Context()); err != nil {
		return err
	}
	return fn(lib)
}

func (c *commandContext) openLibrary(cmd *cobra.Command) (*library, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.logger(cmd)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDirectory(), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDataDirLocked, cfg.DataDirectory())
	}

	store, err := cache.Open(cfg.CachePath(), cfg.CacheMaxBytes())
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open cache: %w", err)
	}
	blobs, err := blob.NewFileStore(cfg.BlobRoot())
	if err != nil {
		store.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	client := remote.New(cfg.RemoteBaseURL(), cfg.RemoteTimeout())
	coord := catalog.New(client, store, blobs, catalog.WithLogger(logger))

	logger.Debug("library opened",
		slog.String("data_dir", cfg.DataDirectory()),
		slog.String("remote", client.BaseURL()))

	return &library{
		cfg:    cfg,
		logger: logger,
		lock:   lock,
		cache:  store,
		coord:  coord,
	}, nil
}

func (l *library) close() {
	l.coord.Close()
	if err := l.cache.Close(); err != nil {
		l.logger.Warn("failed to close cache", logging.Error(err))
	}
	if err := l.lock.Unlock(); err != nil {
		l.logger.Warn("failed to release data directory lock", logging.Error(err))
	}
}

// track resolves an id argument against the loaded catalogue.
func (l *library) track(arg string) (track.Track, error) {
	id, err := track.ParseID(arg)
	if err != nil {
		return track.Track{}, err
	}
	t, ok := l.coord.Get(id)
	if !ok {
		return track.Track{}, errmsg.Wrap(errmsg.ErrNotFound, "", "track "+arg, nil)
	}
	return t, nil
}

func flagValue(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// opError renders err as a user-facing message while keeping it matchable
// with errors.Is.
type opError struct {
	msg string
	err error
}

func (e *opError) Error() string { return e.msg }
func (e *opError) Unwrap() error { return e.err }

func failure(op errmsg.Op, subject string, err error) error {
	return &opError{msg: errmsg.FormatWith(op, subject, err), err: err}
}

func printWarning(cmd *cobra.Command, warning string) {
	if warning != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
	}
}
