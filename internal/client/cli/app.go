package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/client/client"
	"github.com/dmitrijs2005/timecapsule/internal/client/config"
	"github.com/dmitrijs2005/timecapsule/internal/client/services"
	"github.com/dmitrijs2005/timecapsule/internal/filex"
	"github.com/dmitrijs2005/timecapsule/internal/logging"
)

const cacheFileName = "timecapsule.db"

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	authService    services.AuthService
	capsuleService services.CapsuleService
	socialService  services.SocialService
	session        *services.Session
	reader         *bufio.Reader
	out            io.Writer
	now            func() time.Time

	modeMu sync.RWMutex
	Mode   Mode
}

// NewApp opens the local cache under cfg.CacheDir and prepares the API
// client. No connection is made until the first call.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stderr, c.LogLevel)

	path, err := filex.CachePath(c.CacheDir, cacheFileName)
	if err != nil {
		return nil, fmt.Errorf("error preparing cache dir: %w", err)
	}

	db, err := client.InitDatabase(ctx, path)
	if err != nil {
		logger.Error(ctx, "error initializing database", "path", path, "error", err)
		return nil, err
	}

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{
		config:         c,
		logger:         logger,
		authService:    services.NewAuthService(apiClient, db),
		capsuleService: services.NewCapsuleService(apiClient, db, logger),
		socialService:  services.NewSocialService(apiClient),
		reader:         bufio.NewReader(os.Stdin),
		out:            os.Stdout,
		now:            time.Now,
	}, nil
}

func (a *App) mode() Mode {
	a.modeMu.RLock()
	defer a.modeMu.RUnlock()
	return a.Mode
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.modeMu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "connectivity mode changed", "mode", mode)
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.authService.Close(ctx)
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

// StartOnlineStatusWatcher pings the server every interval and flips Mode
// between online and offline. It does nothing while nobody is logged in.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if a.mode() == "" {
				continue
			}
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	_, err := a.authService.Ping(pctx)
	cancel()

	if err != nil {
		if a.mode() == ModeOnline {
			a.setMode(ModeOffline)
		}
		return
	}
	if a.mode() != ModeOnline {
		a.setMode(ModeOnline)
	}
}
