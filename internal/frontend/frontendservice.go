package frontend

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/jo-hoe/cartoonize/internal/backend/database"
	"github.com/jo-hoe/cartoonize/internal/backend/imageprocessing"
	"github.com/jo-hoe/cartoonize/internal/backend/uploads"
	"github.com/jo-hoe/cartoonize/internal/common"
	"github.com/jo-hoe/cartoonize/internal/core"
	"github.com/labstack/echo/v4"
)

const (
	MainPageName    = "index.html"
	GalleryPageName = "photo_gallery.html"
	ResultPageName  = "display_cartoon.html"
	LoginPageName   = "login.html"

	fileFieldName   = "file"
	methodFieldName = "method"
)

type FrontendService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig
}

type registerForm struct {
	Username string `form:"new_username" validate:"required"`
	Password string `form:"new_password" validate:"required"`
}

type filterOption struct {
	Value string
	Label string
}

func NewFrontendService(config *core.ServiceConfig, coreService *core.CoreService) *FrontendService {
	return &FrontendService{
		coreService: coreService,
		config:      config,
	}
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	e.Renderer = newTemplate()
	if e.Validator == nil {
		e.Validator = &common.GenericEchoValidator{}
	}

	e.GET(LoginPath, service.loginPageHandler)
	e.POST(LoginPath, service.loginHandler)
	e.GET("/logout", service.logoutHandler)
	e.POST("/register", service.registerHandler)

	e.GET("/", service.indexHandler, service.requireSession)
	e.GET("/"+GalleryPageName, service.galleryHandler, service.requireSession)
	e.POST("/cartoonize", service.cartoonizeHandler, service.requireSession)
	e.GET(core.UploadsURLPrefix+"*", service.uploadsHandler, service.requireSession)
}

func (service *FrontendService) loginPageHandler(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, LoginPageName, nil)
}

func (service *FrontendService) loginHandler(ctx echo.Context) error {
	username := ctx.FormValue("username")
	password := ctx.FormValue("password")

	token, err := service.coreService.Login(ctx.Request().Context(), username, password)
	if errors.Is(err, core.ErrInvalidCredentials) {
		slog.Info("loginHandler: rejected login", "status", http.StatusUnauthorized, "username", username)
		return ctx.String(http.StatusUnauthorized, "Invalid username or password")
	}
	if err != nil {
		slog.Error("loginHandler: failed to start session",
			"status", http.StatusInternalServerError, "username", username, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to log in")
	}

	service.setSessionCookie(ctx, token)
	return ctx.Redirect(http.StatusSeeOther, "/")
}

func (service *FrontendService) logoutHandler(ctx echo.Context) error {
	if cookie, err := ctx.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := service.coreService.Logout(ctx.Request().Context(), cookie.Value); err != nil {
			slog.Error("logoutHandler: failed to end session", "error", err)
		}
	}
	service.clearSessionCookie(ctx)
	return ctx.Redirect(http.StatusSeeOther, LoginPath)
}

func (service *FrontendService) registerHandler(ctx echo.Context) error {
	var form registerForm
	if err := ctx.Bind(&form); err != nil {
		return ctx.String(http.StatusBadRequest, "Invalid registration form")
	}
	if err := ctx.Validate(&form); err != nil {
		return ctx.String(http.StatusBadRequest, "Username and password are required")
	}

	_, err := service.coreService.RegisterUser(ctx.Request().Context(), form.Username, form.Password)
	switch {
	case errors.Is(err, database.ErrUsernameTaken):
		return ctx.String(http.StatusConflict, "Username already taken")
	case errors.Is(err, core.ErrEmptyCredentials):
		return ctx.String(http.StatusBadRequest, "Username and password are required")
	case err != nil:
		slog.Error("registerHandler: failed to register user",
			"status", http.StatusInternalServerError, "username", form.Username, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to register user")
	}
	return ctx.Redirect(http.StatusSeeOther, LoginPath)
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	filters := imageprocessing.Filters()
	options := make([]filterOption, 0, len(filters))
	for _, f := range filters {
		options = append(options, filterOption{Value: f.String(), Label: f.Label()})
	}
	return ctx.Render(http.StatusOK, MainPageName, map[string]any{
		"username": currentIdentity(ctx).Username,
		"filters":  options,
	})
}

func (service *FrontendService) galleryHandler(ctx echo.Context) error {
	imageList, err := service.coreService.ListGallery()
	if err != nil {
		slog.Error("galleryHandler: failed to list uploads",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to list images")
	}
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, GalleryPageName, map[string]any{
		"image_list": imageList,
	})
}

func (service *FrontendService) cartoonizeHandler(ctx echo.Context) error {
	file, err := ctx.FormFile(fileFieldName)
	if err != nil {
		if service.hasEmptyFilePart(ctx) {
			return ctx.String(http.StatusBadRequest, "No selected file")
		}
		return ctx.String(http.StatusBadRequest, "No file part")
	}
	if file.Filename == "" {
		return ctx.String(http.StatusBadRequest, "No selected file")
	}

	method := ctx.FormValue(methodFieldName)
	filter, err := imageprocessing.ParseFilter(method)
	if err != nil {
		slog.Info("cartoonizeHandler: rejected filter", "status", http.StatusBadRequest, "method", method)
		return ctx.String(http.StatusBadRequest, fmt.Sprintf("unsupported filter: %s", method))
	}

	src, err := file.Open()
	if err != nil {
		slog.Error("cartoonizeHandler: failed to open uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.String(http.StatusInternalServerError, "Failed to open uploaded file")
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("cartoonizeHandler: failed to close uploaded file reader", "error", cerr, "filename", file.Filename)
		}
	}()

	data, err := io.ReadAll(src)
	if err != nil {
		slog.Error("cartoonizeHandler: failed to read uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.String(http.StatusInternalServerError, "Failed to read uploaded file")
	}

	result, err := service.coreService.TransformUpload(ctx.Request().Context(), file.Filename, data, filter)
	switch {
	case errors.Is(err, uploads.ErrInvalidFilename):
		return ctx.String(http.StatusBadRequest, "Invalid file name")
	case errors.Is(err, imageprocessing.ErrUndecodable):
		return ctx.String(http.StatusBadRequest, "Unsupported image")
	case errors.Is(err, imageprocessing.ErrUnsupportedFilter):
		return ctx.String(http.StatusBadRequest, fmt.Sprintf("unsupported filter: %s", method))
	case err != nil:
		slog.Error("cartoonizeHandler: failed to process uploaded image",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.String(http.StatusInternalServerError, "Failed to process uploaded image")
	}

	return ctx.Render(http.StatusOK, ResultPageName, map[string]any{
		"filter":       result.Filter.Label(),
		"original_url": result.OriginalURL,
		"cartoon_url":  result.DerivedURL,
	})
}

// hasEmptyFilePart reports whether the form carried the file field without a
// file name, which multipart parsing turns into a plain value.
func (service *FrontendService) hasEmptyFilePart(ctx echo.Context) bool {
	form := ctx.Request().MultipartForm
	if form == nil {
		return false
	}
	_, ok := form.Value[fileFieldName]
	return ok
}

func (service *FrontendService) uploadsHandler(ctx echo.Context) error {
	target, err := service.coreService.ResolveUpload(ctx.Param("*"))
	if err != nil {
		slog.Warn("uploadsHandler: rejected path", "status", http.StatusNotFound, "path", ctx.Param("*"))
		return ctx.String(http.StatusNotFound, "Not found")
	}
	if contentType := sniffImageType(target); contentType != "" {
		ctx.Response().Header().Set(echo.HeaderContentType, contentType)
	}
	return ctx.File(target)
}

// sniffImageType reports the image type of the stored bytes so that a
// derived asset whose extension has no encoder is not served by its name.
func sniffImageType(target string) string {
	f, err := os.Open(target)
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return ""
	}
	contentType := http.DetectContentType(head[:n])
	if !strings.HasPrefix(contentType, "image/") {
		return ""
	}
	return contentType
}

func (service *FrontendService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}
