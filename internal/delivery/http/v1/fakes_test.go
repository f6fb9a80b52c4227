package v1

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-tenants/internal/identity"
	"github.com/adanyl0v/go-todo-tenants/internal/models"
	"github.com/adanyl0v/go-todo-tenants/internal/services"
	"github.com/adanyl0v/go-todo-tenants/internal/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeResolver struct {
	identityFn func(creds identity.Credentials) (string, error)
	roleFn     func(identityID string) (*identity.Role, error)
}

func (f *fakeResolver) ResolveIdentity(_ context.Context, creds identity.Credentials) (string, error) {
	if f.identityFn == nil {
		return "", identity.ErrNoIdentity
	}
	return f.identityFn(creds)
}

func (f *fakeResolver) ResolveRole(_ context.Context, identityID string) (*identity.Role, error) {
	if f.roleFn == nil {
		return nil, identity.ErrRoleUnresolved
	}
	return f.roleFn(identityID)
}

// tokenResolver maps bearer tokens to identities and identities to
// emails.
func tokenResolver(tokens, emails map[string]string) *fakeResolver {
	return &fakeResolver{
		identityFn: func(creds identity.Credentials) (string, error) {
			id, ok := tokens[creds.AccessToken]
			if !ok {
				return "", identity.ErrNoIdentity
			}
			return id, nil
		},
		roleFn: func(identityID string) (*identity.Role, error) {
			email, ok := emails[identityID]
			if !ok {
				return nil, identity.ErrRoleUnresolved
			}
			return &identity.Role{Email: email}, nil
		},
	}
}

type fakeTaskService struct {
	listFn   func(ownerID string) ([]*models.Task, error)
	getFn    func(id, ownerID string) (*models.Task, error)
	createFn func(ownerID string, input validation.CreateTask) (*models.Task, error)
	updateFn func(id, ownerID string, input validation.UpdateTask) (*models.Task, error)
	toggleFn func(id, ownerID string) (*models.Task, error)
	deleteFn func(id, ownerID string) error
}

func (f *fakeTaskService) ListTasks(_ context.Context, ownerID string) ([]*models.Task, error) {
	return f.listFn(ownerID)
}

func (f *fakeTaskService) GetTask(_ context.Context, id, ownerID string) (*models.Task, error) {
	return f.getFn(id, ownerID)
}

func (f *fakeTaskService) CreateTask(_ context.Context, ownerID string, input validation.CreateTask) (*models.Task, error) {
	return f.createFn(ownerID, input)
}

func (f *fakeTaskService) UpdateTask(_ context.Context, id, ownerID string, input validation.UpdateTask) (*models.Task, error) {
	return f.updateFn(id, ownerID, input)
}

func (f *fakeTaskService) ToggleTaskCompletion(_ context.Context, id, ownerID string) (*models.Task, error) {
	return f.toggleFn(id, ownerID)
}

func (f *fakeTaskService) DeleteTask(_ context.Context, id, ownerID string) error {
	return f.deleteFn(id, ownerID)
}

type fakeProfileService struct {
	getFn    func(ownerID string) (*models.Profile, error)
	uploadFn func(ownerID string, upload services.MediaUpload) (string, error)
	fetchFn  func(ref string) (*services.Media, error)
	deleteFn func(ownerID string) error
}

func (f *fakeProfileService) GetProfile(_ context.Context, ownerID string) (*models.Profile, error) {
	return f.getFn(ownerID)
}

func (f *fakeProfileService) UploadProfileImage(_ context.Context, ownerID string, upload services.MediaUpload) (string, error) {
	return f.uploadFn(ownerID, upload)
}

func (f *fakeProfileService) FetchProfileImage(_ context.Context, ref string) (*services.Media, error) {
	return f.fetchFn(ref)
}

func (f *fakeProfileService) DeleteProfileImage(_ context.Context, ownerID string) error {
	return f.deleteFn(ownerID)
}

type fakeStatsService struct {
	summarizeFn func(callerID string) (*services.TaskStats, error)
}

func (f *fakeStatsService) Summarize(_ context.Context, callerID string) (*services.TaskStats, error) {
	return f.summarizeFn(callerID)
}

func newTestRouter(svc Services) *gin.Engine {
	if svc.Resolver == nil {
		svc.Resolver = &fakeResolver{}
	}

	h := New(zerolog.New(io.Discard), svc, GateParams{
		AllowList:   identity.ParseAllowList("admin@example.com"),
		RoutePrefix: "/admin",
		SignInPath:  "/sign-in",
	})

	router := gin.New()
	RegisterRoutes(router, h, "/admin")
	return router
}

func serve(t *testing.T, router http.Handler, req *http.Request, token string) *httptest.ResponseRecorder {
	t.Helper()

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type fakeAuthService struct {
	loginFn    func(params services.LoginParams) (*services.LoginResult, error)
	refreshFn  func(params services.RefreshParams) (*services.LoginResult, error)
	registerFn func(params services.LoginParams) (*services.LoginResult, error)
	logoutFn   func(userID string) error
}

func (f *fakeAuthService) Login(_ context.Context, params services.LoginParams) (*services.LoginResult, error) {
	return f.loginFn(params)
}

func (f *fakeAuthService) Refresh(_ context.Context, params services.RefreshParams) (*services.LoginResult, error) {
	return f.refreshFn(params)
}

func (f *fakeAuthService) Register(_ context.Context, params services.LoginParams) (*services.LoginResult, error) {
	return f.registerFn(params)
}

func (f *fakeAuthService) Logout(_ context.Context, userID string) error {
	return f.logoutFn(userID)
}

func (f *fakeAuthService) VerifyEmail(context.Context, string) error {
	return nil
}
