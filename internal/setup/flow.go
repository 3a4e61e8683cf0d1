package setup

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kutbudev/gtm-mcp/internal/credential"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	tagmanager "google.golang.org/api/tagmanager/v2"
)

// Scopes requested during authorization.
var Scopes = []string{
	tagmanager.TagmanagerReadonlyScope,
	tagmanager.TagmanagerEditContainersScope,
	oauth2api.UserinfoProfileScope,
	oauth2api.UserinfoEmailScope,
}

const CallbackPath = "/callback"

// Flow is the authorization code exchange behind `gtm-mcp auth`.
type Flow struct {
	Config *oauth2.Config
	Store  credential.Store
	// HTTPClient is used for the token exchange and userinfo lookup.
	HTTPClient *http.Client
	// UserInfoEndpoint overrides the Google API root for the userinfo call.
	UserInfoEndpoint string

	secrets ClientSecrets
	state   string
	done    chan outcome
}

type outcome struct {
	file *credential.File
	err  error
}

// NewFlow prepares a flow whose redirect points at addr.
func NewFlow(secrets ClientSecrets, addr string, store credential.Store) *Flow {
	return &Flow{
		Config: &oauth2.Config{
			ClientID:     secrets.ClientID,
			ClientSecret: secrets.ClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  "http://" + addr + CallbackPath,
			Scopes:       Scopes,
		},
		Store:   store,
		secrets: secrets,
		state:   uuid.NewString(),
		done:    make(chan outcome, 1),
	}
}

// AuthURL is the consent page URL. It asks for offline access and forces
// the consent prompt so Google always returns a refresh token.
func (f *Flow) AuthURL() string {
	return f.Config.AuthCodeURL(f.state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Handler serves the callback and a landing page.
func (f *Flow) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page("GTM MCP authorization",
			"<p>Waiting for Google to redirect back here. Open the authorization link from your terminal.</p>")))
	})
	r.GET(CallbackPath, f.handleCallback)
	return r
}

func (f *Flow) handleCallback(c *gin.Context) {
	if e := c.Query("error"); e != "" {
		f.fail(c, http.StatusBadRequest, fmt.Errorf("authorization denied: %s", e))
		return
	}
	if c.Query("state") != f.state {
		f.fail(c, http.StatusBadRequest, errors.New("state mismatch in authorization callback"))
		return
	}
	code := c.Query("code")
	if code == "" {
		f.fail(c, http.StatusBadRequest, errors.New("no authorization code received"))
		return
	}

	file, err := f.Complete(c.Request.Context(), code)
	if err != nil {
		f.fail(c, http.StatusInternalServerError, err)
		return
	}

	body := fmt.Sprintf("<h1>Authorization complete</h1><p>Signed in as <strong>%s</strong></p><p>%s</p><p>You can close this window.</p>",
		html.EscapeString(file.User.Name), html.EscapeString(file.User.Email))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page("GTM MCP authorization complete", body)))
	f.finish(outcome{file: file})
}

// Complete exchanges code, looks up the user and saves the credential.
func (f *Flow) Complete(ctx context.Context, code string) (*credential.File, error) {
	if f.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, f.HTTPClient)
	}

	tok, err := f.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if tok.AccessToken == "" || tok.RefreshToken == "" {
		return nil, errors.New("Google did not return a refresh token; remove the app at https://myaccount.google.com/permissions and authorize again")
	}

	user, err := f.identity(ctx, tok)
	if err != nil {
		return nil, err
	}

	file := &credential.File{
		Credentials: credential.FromToken(f.secrets.ClientID, f.secrets.ClientSecret, tok),
		User:        user,
	}
	if err := f.Store.Save(ctx, file); err != nil {
		return nil, fmt.Errorf("failed to save credential: %w", err)
	}
	return file, nil
}

func (f *Flow) identity(ctx context.Context, tok *oauth2.Token) (credential.Identity, error) {
	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, f.Config.TokenSource(ctx, tok)))}
	if f.UserInfoEndpoint != "" {
		opts = append(opts, option.WithEndpoint(f.UserInfoEndpoint))
	}

	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return credential.Identity{}, fmt.Errorf("failed to create userinfo client: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return credential.Identity{}, fmt.Errorf("failed to fetch user info: %w", err)
	}
	return credential.Identity{UserID: info.Id, Name: info.Name, Email: info.Email}, nil
}

func (f *Flow) fail(c *gin.Context, status int, err error) {
	log.Error().Err(err).Msg("authorization callback failed")
	c.Data(status, "text/html; charset=utf-8", []byte(page("GTM MCP authorization failed",
		"<h1>Authorization failed</h1><p>"+html.EscapeString(err.Error())+"</p>")))
	f.finish(outcome{err: err})
}

// finish reports the first outcome only; later callbacks are ignored.
func (f *Flow) finish(o outcome) {
	select {
	case f.done <- o:
	default:
	}
}

// Wait blocks until the callback has completed or ctx is done.
func (f *Flow) Wait(ctx context.Context) (*credential.File, error) {
	select {
	case o := <-f.done:
		return o.file, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run serves the callback on addr, calls ready with the consent URL once
// the listener is up, and returns the saved credential.
func (f *Flow) Run(ctx context.Context, addr string, ready func(authURL string)) (*credential.File, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: f.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.finish(outcome{err: fmt.Errorf("callback server: %w", err)})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Debug().Str("addr", ln.Addr().String()).Msg("authorization callback server listening")
	if ready != nil {
		ready(f.AuthURL())
	}
	return f.Wait(ctx)
}

func page(title, body string) string {
	return `<!doctype html><html><head><meta charset="utf-8"><title>` + html.EscapeString(title) + `</title></head>` +
		`<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Arial; text-align: center; padding: 50px;">` +
		body + `</body></html>`
}
