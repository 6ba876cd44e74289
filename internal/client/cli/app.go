package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/dosekeeper/internal/client/config"
	"github.com/dmitrijs2005/dosekeeper/internal/logging"
	"github.com/dmitrijs2005/dosekeeper/internal/models"
	"github.com/dmitrijs2005/dosekeeper/internal/session"
)

// sessionAPI is the part of *session.Store the CLI drives.
type sessionAPI interface {
	State() session.State
	Subscribe() (<-chan session.State, func())
	SignIn(ctx context.Context, email, password string) bool
	SignUp(ctx context.Context, name, email, password string) bool
	SignOut(ctx context.Context)
	ClearNewUserFlag(ctx context.Context)
	UpdateProfile(ctx context.Context, name string) bool
	UpdateAvatar(ctx context.Context, url string) bool
	Profile(ctx context.Context) (*models.Profile, error)
	RecordDose(ctx context.Context, doseType string) (*models.Dose, error)
	Doses(ctx context.Context, limit int) ([]models.Dose, error)
}

type avatarUploader interface {
	Enabled() bool
	Upload(ctx context.Context, userID string, data []byte, contentType string) (string, error)
}

type connectionChecker interface {
	CheckConnection(ctx context.Context) error
}

type dataResetter interface {
	ClearAll(ctx context.Context) (int, error)
}

type App struct {
	config   *config.Config
	store    sessionAPI
	uploader avatarUploader
	checker  connectionChecker
	resetter dataResetter
	log      logging.Logger
	reader   *bufio.Reader
	out      io.Writer
}

type Option func(*App)

// WithUploader enables the avatar command.
func WithUploader(u avatarUploader) Option {
	return func(a *App) { a.uploader = u }
}

// WithConnectionChecker backs the diag command.
func WithConnectionChecker(c connectionChecker) Option {
	return func(a *App) { a.checker = c }
}

// WithResetter backs the reset command.
func WithResetter(r dataResetter) Option {
	return func(a *App) { a.resetter = r }
}

func NewApp(c *config.Config, store sessionAPI, log logging.Logger, opts ...Option) *App {
	a := &App{
		config: c,
		store:  store,
		log:    log.With("module", "cli"),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *App) isLoggedIn() bool {
	return a.store.State().IsAuthenticated
}

func (a *App) devEnabled() bool {
	return a.config != nil && a.config.DevMenu
}

// Run blocks in the REPL until the user exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}
