package handlers

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/dimitrije/unity-admin/internal/authz"
	"github.com/dimitrije/unity-admin/internal/middleware"
	"github.com/dimitrije/unity-admin/internal/services"
	"github.com/dimitrije/unity-admin/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const schoolCodeNotice = "Please set up your school code in your profile to manage news."

// multipart fields beyond the image itself
const formOverhead = 1 << 20

type NewsHandler struct {
	feed          FeedServiceInterface
	maxImageBytes int64
	logger        *slog.Logger
}

func NewNewsHandler(feed FeedServiceInterface, maxImageBytes int64, logger *slog.Logger) *NewsHandler {
	return &NewsHandler{
		feed:          feed,
		maxImageBytes: maxImageBytes,
		logger:        logger,
	}
}

func (h *NewsHandler) List(c *drift.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.Unauthorized("not authenticated")
		return
	}

	items, err := h.feed.List(c.Request.Context(), actor)
	if err != nil {
		if errors.Is(err, services.ErrSchoolCodeRequired) {
			_ = c.JSON(200, dto.NewsListResponse{
				Items:  []dto.NewsResponse{},
				Notice: schoolCodeNotice,
			})
			return
		}
		c.InternalServerError("failed to load news")
		return
	}

	response := make([]dto.NewsResponse, len(items))
	for i := range items {
		response[i] = dto.NewNewsResponse(&items[i], authz.CanMutate(actor, &items[i]))
	}

	_ = c.JSON(200, dto.NewsListResponse{Items: response})
}

func (h *NewsHandler) Create(c *drift.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.Unauthorized("not authenticated")
		return
	}

	req, image, err := h.bindNews(c)
	if err != nil {
		h.writeBindError(c, err)
		return
	}

	item, err := h.feed.Create(c.Request.Context(), actor, newsInput(req), image)
	if err != nil {
		h.writeFeedError(c, err)
		return
	}

	_ = c.JSON(201, dto.NewNewsResponse(item, true))
}

func (h *NewsHandler) Update(c *drift.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.Unauthorized("not authenticated")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid news id")
		return
	}

	req, image, err := h.bindNews(c)
	if err != nil {
		h.writeBindError(c, err)
		return
	}

	if req.Version == 0 {
		c.BadRequest("version is required for optimistic locking")
		return
	}

	item, err := h.feed.Update(c.Request.Context(), actor, id, newsInput(req), image)
	if err != nil {
		h.writeFeedError(c, err)
		return
	}

	_ = c.JSON(200, dto.NewNewsResponse(item, true))
}

func (h *NewsHandler) Delete(c *drift.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.Unauthorized("not authenticated")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid news id")
		return
	}

	confirmed, _ := strconv.ParseBool(c.QueryParam("confirm"))

	err = h.feed.Delete(c.Request.Context(), actor, id, func() bool { return confirmed })
	if err != nil {
		h.writeFeedError(c, err)
		return
	}

	_ = c.JSON(200, map[string]string{"message": "news deleted"})
}

var (
	errBodyTooLarge = errors.New("request body too large")
	errInvalidBody  = errors.New("invalid request body")
)

// bindNews reads a JSON body, or a multipart form with an optional "image" file.
func (h *NewsHandler) bindNews(c *drift.Context) (dto.NewsRequest, *services.ImageUpload, error) {
	var req dto.NewsRequest

	mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := c.BindJSON(&req); err != nil {
			return req, nil, errInvalidBody
		}
		return req, nil, nil
	}

	r := c.Request
	r.Body = http.MaxBytesReader(nil, r.Body, h.maxImageBytes+formOverhead)
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return req, nil, errBodyTooLarge
		}
		return req, nil, errInvalidBody
	}

	req.Title = r.FormValue("title")
	req.Content = r.FormValue("content")
	req.ImageURL = r.FormValue("image_url")
	req.Category = r.FormValue("category")
	req.Priority = r.FormValue("priority")
	req.SchoolCode = r.FormValue("school_code")
	req.RemoveImage, _ = strconv.ParseBool(r.FormValue("remove_image"))
	if v := r.FormValue("version"); v != "" {
		version, err := strconv.Atoi(v)
		if err != nil {
			return req, nil, errInvalidBody
		}
		req.Version = version
	}
	for _, v := range r.MultipartForm.Value["target_user_types"] {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				req.TargetUserTypes = append(req.TargetUserTypes, t)
			}
		}
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil, nil
	}
	if err != nil {
		return req, nil, errInvalidBody
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxImageBytes+1))
	if err != nil {
		return req, nil, errInvalidBody
	}

	return req, &services.ImageUpload{
		Filename: header.Filename,
		Data:     data,
	}, nil
}

func newsInput(req dto.NewsRequest) services.NewsInput {
	return services.NewsInput{
		Title:           req.Title,
		Content:         req.Content,
		ImageURL:        req.ImageURL,
		Category:        req.Category,
		Priority:        req.Priority,
		SchoolCode:      req.SchoolCode,
		TargetUserTypes: req.TargetUserTypes,
		RemoveImage:     req.RemoveImage,
		Version:         req.Version,
	}
}

func (h *NewsHandler) writeBindError(c *drift.Context, err error) {
	if errors.Is(err, errBodyTooLarge) {
		_ = c.JSON(413, map[string]string{"message": services.ErrImageTooLarge.Error()})
		return
	}
	c.BadRequest("invalid request body")
}

func (h *NewsHandler) writeFeedError(c *drift.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make([]dto.FieldErrorResponse, len(verr.Fields))
		for i, f := range verr.Fields {
			fields[i] = dto.FieldErrorResponse{Field: f.Field, Message: f.Message}
		}
		_ = c.JSON(400, dto.ValidationErrorResponse{
			Message: "validation failed",
			Fields:  fields,
		})
	case errors.Is(err, services.ErrSchoolCodeRequired):
		c.BadRequest(schoolCodeNotice)
	case errors.Is(err, services.ErrImageTooLarge):
		_ = c.JSON(413, map[string]string{"message": err.Error()})
	case errors.Is(err, services.ErrUnsupportedImage):
		_ = c.JSON(415, map[string]string{"message": err.Error()})
	case errors.Is(err, services.ErrNewsNotFound):
		c.NotFound("news item not found")
	case errors.Is(err, services.ErrPermissionDenied):
		c.Forbidden(err.Error())
	case errors.Is(err, services.ErrVersionConflict):
		currentVersion := 0
		var conflict *services.VersionConflictError
		if errors.As(err, &conflict) {
			currentVersion = conflict.CurrentVersion
		}
		_ = c.JSON(409, map[string]any{
			"code":            "VERSION_CONFLICT",
			"message":         "news item has been modified by another user",
			"current_version": currentVersion,
		})
	case errors.Is(err, services.ErrNotConfirmed):
		_ = c.JSON(409, map[string]any{
			"code":    "CONFIRMATION_REQUIRED",
			"message": "are you sure you want to delete this news item? repeat with confirm=true",
		})
	default:
		h.logger.Error("news request failed", "path", c.Request.URL.Path, "error", err)
		c.InternalServerError("something went wrong, please try again")
	}
}
