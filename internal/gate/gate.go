package gate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/magabrotheeeer/ugc-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

const (
	// NoticeSignIn текст уведомления при отсутствии сессии.
	NoticeSignIn = "please sign in to continue"
	// DefaultLoginRoute маршрут страницы входа.
	DefaultLoginRoute = "/login"
	// DefaultTimeout ограничение на разрешение сессии.
	DefaultTimeout = 10 * time.Second
)

// ErrResolveTimeout возвращается, если сервис авторизации не ответил вовремя.
var ErrResolveTimeout = errors.New("session resolution timed out")

// SessionProvider разрешает текущую сессию. nil без ошибки означает, что сессии нет.
type SessionProvider interface {
	Resolve(ctx context.Context) (*models.Session, error)
}

// Notifier показывает пользователю уведомление.
type Notifier interface {
	Notify(ctx context.Context, msg string)
}

// Navigator выполняет навигацию с заменой истории.
type Navigator interface {
	Replace(target string)
}

// Option настраивает Gate.
type Option func(*Gate)

// WithTimeout задаёт ограничение на разрешение сессии.
func WithTimeout(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithLoginRoute задаёт маршрут входа.
func WithLoginRoute(route string) Option {
	return func(g *Gate) {
		if route != "" {
			g.loginRoute = route
		}
	}
}

// WithReturnTo добавляет к маршруту входа параметр next для возврата после входа.
func WithReturnTo(path string) Option {
	return func(g *Gate) { g.returnTo = path }
}

// WithLogger задаёт логгер.
func WithLogger(log *slog.Logger) Option {
	return func(g *Gate) {
		if log != nil {
			g.log = log
		}
	}
}

// Gate охраняет одно монтирование защищённого представления.
//
// Уведомление и редирект выполняются не более одного раза и никогда после
// Unmount или отмены контекста монтирования. Notifier и Navigator вызываются
// под блокировкой гейта и не должны обращаться к нему повторно.
type Gate struct {
	mu         sync.Mutex
	state      State
	session    *models.Session
	unmounted  bool
	redirected bool

	provider   SessionProvider
	notifier   Notifier
	navigator  Navigator
	timeout    time.Duration
	loginRoute string
	returnTo   string
	log        *slog.Logger
}

// New создаёт гейт в состоянии Unresolved.
func New(provider SessionProvider, notifier Notifier, navigator Navigator, opts ...Option) *Gate {
	g := &Gate{
		state:      Unresolved,
		provider:   provider,
		notifier:   notifier,
		navigator:  navigator,
		timeout:    DefaultTimeout,
		loginRoute: DefaultLoginRoute,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type resolution struct {
	session   *models.Session
	err       error
	abandoned bool
}

// Resolve выполняет одно разрешение сессии и применяет результат.
//
// Если ctx отменён до завершения, результат отбрасывается: гейт остаётся
// в Unresolved и побочных эффектов нет.
func (g *Gate) Resolve(ctx context.Context) State {
	g.mu.Lock()
	if g.unmounted || g.state == Unauthorized {
		s := g.state
		g.mu.Unlock()
		return s
	}
	g.state, _ = Transition(g.state, Signal{Loading: true})
	g.session = nil
	g.mu.Unlock()

	res := g.resolve(ctx)
	if res.abandoned {
		g.log.Debug("session resolution abandoned")
		return g.State()
	}
	return g.Apply(ctx, Signal{Identity: res.session, Err: res.err})
}

func (g *Gate) resolve(ctx context.Context) resolution {
	const op = "gate.resolve"

	rctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan resolution, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- resolution{err: fmt.Errorf("%s: provider panic: %v", op, r)}
			}
		}()
		sess, err := g.provider.Resolve(rctx)
		if err != nil {
			err = fmt.Errorf("%s: %w", op, err)
		}
		done <- resolution{session: sess, err: err}
	}()

	select {
	case res := <-done:
		if ctx.Err() != nil {
			return resolution{abandoned: true}
		}
		return res
	case <-rctx.Done():
		if ctx.Err() != nil {
			return resolution{abandoned: true}
		}
		return resolution{err: fmt.Errorf("%s: %w", op, ErrResolveTimeout)}
	}
}

// Apply применяет внешнее изменение состояния авторизации, например выход
// пользователя, пока защищённая страница открыта.
func (g *Gate) Apply(ctx context.Context, sig Signal) State {
	g.mu.Lock()
	defer g.mu.Unlock()

	next, effect := Transition(g.state, sig)
	g.state = next
	if next == Authorized {
		g.session = sig.Identity
	} else {
		g.session = nil
	}

	if effect != EffectRedirect || g.redirected || g.unmounted || ctx.Err() != nil {
		return next
	}
	g.redirected = true

	if sig.Err != nil {
		g.log.Warn("session resolution failed", sl.Err(sig.Err))
	} else {
		g.log.Info("no session, redirecting to login")
	}
	g.notifier.Notify(ctx, NoticeSignIn)
	g.navigator.Replace(g.loginTarget())
	return next
}

// Unmount отключает все последующие побочные эффекты.
func (g *Gate) Unmount() {
	g.mu.Lock()
	g.unmounted = true
	g.mu.Unlock()
}

// State возвращает текущее состояние.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// View возвращает текущее отображение.
func (g *Gate) View() View {
	return ViewFor(g.State())
}

// Session возвращает сессию в состоянии Authorized, иначе nil.
func (g *Gate) Session() *models.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

func (g *Gate) loginTarget() string {
	if g.returnTo == "" {
		return g.loginRoute
	}
	return g.loginRoute + "?next=" + url.QueryEscape(g.returnTo)
}
