package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"slices"
	"time"

	"github.com/jo-hoe/cartoonize/internal/backend/database"
	"github.com/jo-hoe/cartoonize/internal/backend/imageprocessing"
	"github.com/jo-hoe/cartoonize/internal/backend/session"
	"github.com/jo-hoe/cartoonize/internal/backend/uploads"
	"github.com/jo-hoe/cartoonize/internal/metrics"
	"golang.org/x/crypto/bcrypt"
)

// UploadsURLPrefix is the URL path under which stored assets are served.
const UploadsURLPrefix = "/uploads/"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrEmptyCredentials   = errors.New("username and password are required")
)

// TransformResult addresses the stored pair of one filtered upload.
type TransformResult struct {
	Upload      uploads.Upload
	Filter      imageprocessing.Filter
	OriginalURL string
	DerivedURL  string
}

type CoreService struct {
	config          *ServiceConfig
	databaseService database.DatabaseService
	sessionService  *session.Service
	uploadStore     *uploads.Store
	decoder         *imageprocessing.Decoder
	applyFilter     func(image.Image, imageprocessing.Filter) (image.Image, error)
	bcryptCost      int
}

func NewCoreService(config *ServiceConfig) (*CoreService, error) {
	databaseService, err := getDatabaseService(config)
	if err != nil {
		return nil, err
	}

	sessionService, err := getSessionService(config)
	if err != nil {
		_ = databaseService.Close()
		return nil, err
	}

	uploadStore, err := uploads.NewStore(config.UploadDir)
	if err != nil {
		_ = sessionService.Close()
		_ = databaseService.Close()
		return nil, err
	}

	return &CoreService{
		config:          config,
		databaseService: databaseService,
		sessionService:  sessionService,
		uploadStore:     uploadStore,
		decoder:         imageprocessing.NewDecoder(config.SVG.FallbackWidth, config.SVG.FallbackHeight),
		applyFilter:     imageprocessing.Apply,
		bcryptCost:      bcrypt.DefaultCost,
	}, nil
}

// SessionTTL is the lifetime of a login.
func (service *CoreService) SessionTTL() time.Duration {
	return service.sessionService.TTL()
}

// RegisterUser stores a new user with a bcrypt hash of password.
func (service *CoreService) RegisterUser(ctx context.Context, username, password string) (*database.User, error) {
	if username == "" || password == "" {
		return nil, ErrEmptyCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), service.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := service.databaseService.CreateUser(ctx, username, string(hash))
	if err != nil {
		return nil, err
	}
	slog.Info("registered user", "username", username, "id", user.ID)
	return user, nil
}

// Authenticate verifies a username and password pair. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (service *CoreService) Authenticate(ctx context.Context, username, password string) (session.Identity, error) {
	if username == "" || password == "" {
		return session.Identity{}, ErrInvalidCredentials
	}

	user, err := service.databaseService.GetUserByUsername(ctx, username)
	if errors.Is(err, database.ErrUserNotFound) {
		return session.Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return session.Identity{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return session.Identity{}, ErrInvalidCredentials
	}
	return session.Identity{Username: user.Username}, nil
}

// Login authenticates and starts a session, returning its token.
func (service *CoreService) Login(ctx context.Context, username, password string) (string, error) {
	identity, err := service.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	return service.sessionService.Start(ctx, identity)
}

func (service *CoreService) Logout(ctx context.Context, token string) error {
	return service.sessionService.End(ctx, token)
}

func (service *CoreService) CurrentIdentity(ctx context.Context, token string) (session.Identity, error) {
	return service.sessionService.CurrentIdentity(ctx, token)
}

// TransformUpload checks filter, sanitizes filename, decodes data, filters and
// encodes the result, and only then stores the original and the filtered copy
// side by side. A failed write removes the partial upload.
func (service *CoreService) TransformUpload(ctx context.Context, filename string, data []byte, filter imageprocessing.Filter) (*TransformResult, error) {
	if !slices.Contains(imageprocessing.Filters(), filter) {
		return nil, fmt.Errorf("%w: %s", imageprocessing.ErrUnsupportedFilter, filter)
	}

	name, err := uploads.SecureFilename(filename)
	if err != nil {
		return nil, err
	}

	img, format, err := service.decoder.Decode(data)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	filtered, err := service.applyFilter(img, filter)
	metrics.RecordFilter(filter.String(), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to apply %s filter: %w", filter, err)
	}

	var encoded bytes.Buffer
	if err := imageprocessing.Encode(&encoded, filtered, name); err != nil {
		return nil, err
	}

	upload, err := service.uploadStore.NewUpload(name)
	if err != nil {
		return nil, err
	}
	if err := service.storeUpload(upload, data, encoded.Bytes()); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "transformed upload",
		"upload_id", upload.ID,
		"filename", upload.Name,
		"input_format", format,
		"filter", filter.String(),
		"duration_ms", time.Since(start).Milliseconds())

	return &TransformResult{
		Upload:      upload,
		Filter:      filter,
		OriginalURL: UploadsURLPrefix + upload.OriginalPath(),
		DerivedURL:  UploadsURLPrefix + upload.DerivedPath(),
	}, nil
}

func (service *CoreService) storeUpload(upload uploads.Upload, original, derived []byte) error {
	err := service.uploadStore.WriteOriginal(upload, original)
	if err == nil {
		err = service.uploadStore.WriteDerived(upload, derived)
	}
	if err != nil {
		if rerr := service.uploadStore.Remove(upload); rerr != nil {
			slog.Error("storeUpload: failed to remove partial upload", "upload_id", upload.ID, "error", rerr)
		}
		return err
	}
	return nil
}

// ListGallery returns the URLs of every stored image.
func (service *CoreService) ListGallery() ([]string, error) {
	paths, err := service.uploadStore.List()
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(paths))
	for _, p := range paths {
		urls = append(urls, UploadsURLPrefix+p)
	}
	return urls, nil
}

// ResolveUpload maps the part of a URL after UploadsURLPrefix to a file path.
func (service *CoreService) ResolveUpload(rel string) (string, error) {
	return service.uploadStore.Resolve(rel)
}

// Ready checks that the credential store is reachable and its users table answers queries.
func (service *CoreService) Ready(ctx context.Context) error {
	if !service.databaseService.DoesDatabaseExist() {
		return errors.New("database does not exist")
	}
	users, err := service.databaseService.CountUsers(ctx)
	if err != nil {
		return err
	}
	slog.DebugContext(ctx, "readiness check passed", "users", users)
	return nil
}

func (service *CoreService) Close() error {
	return errors.Join(service.sessionService.Close(), service.databaseService.Close())
}

func getDatabaseService(config *ServiceConfig) (database.DatabaseService, error) {
	databaseService, err := database.NewDatabase(config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("database initialized successfully", "type", config.Database.Type)
	return databaseService, nil
}

func getSessionService(config *ServiceConfig) (*session.Service, error) {
	store, err := session.NewStore(config.Session.Store, config.Session.RedisAddress, config.Session.RedisPassword, config.Session.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}
	if config.Session.Secret == "" {
		slog.Warn("no session secret configured, sessions will not survive a restart")
	}
	sessionService, err := session.NewService(config.Session.Secret, config.Session.TTL, store)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize session service: %w", err)
	}
	slog.Info("session service initialized", "store", config.Session.Store, "ttl", config.Session.TTL)
	return sessionService, nil
}
