package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/AnTengye/formrelay/model"
	"github.com/AnTengye/formrelay/pkg/logger"
	"github.com/AnTengye/formrelay/service"
	"github.com/gin-gonic/gin"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling file parts to temporary files.
const multipartMemory = 4 << 20

// SubmissionDispatcher hands an accepted submission to its sinks.
type SubmissionDispatcher interface {
	Dispatch(ctx context.Context, form string, outcome model.ValidationOutcome)
}

type FormHandler struct {
	config    service.ConfigStore
	schemas   *service.SchemaStore
	validator *service.SubmissionValidator
	uploads   *service.UploadGate
	fanout    SubmissionDispatcher
	csrf      service.CsrfTokenService
	redirects *RedirectPolicy
	maxBody   int64
}

func NewFormHandler(
	store service.ConfigStore,
	validator *service.SubmissionValidator,
	uploads *service.UploadGate,
	fanout SubmissionDispatcher,
	csrf service.CsrfTokenService,
	redirects *RedirectPolicy,
	maxBody int64,
) *FormHandler {
	return &FormHandler{
		config:    store,
		schemas:   service.NewSchemaStore(store),
		validator: validator,
		uploads:   uploads,
		fanout:    fanout,
		csrf:      csrf,
		redirects: redirects,
		maxBody:   maxBody,
	}
}

// Submit handles a form POST. It always answers with a redirect carrying
// <form>_sent=1 or <form>_sent=0.
func (h *FormHandler) Submit(c *gin.Context) {
	form := c.Param("form")
	sent := h.process(c, form)

	settings := service.LoadFormSettings(h.config, form)
	target := h.redirects.Resolve(submittedValue(c, "_redirect"), settings.SuccessRedirect)
	c.Redirect(http.StatusSeeOther, WithSentFlag(target, form, sent))
}

func (h *FormHandler) process(c *gin.Context, form string) bool {
	ctx := c.Request.Context()
	log := logger.WithContext(ctx)

	if !service.FormExists(h.config, form) {
		log.Warn("submission for unknown form")
		return false
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	if err := parseSubmission(c); err != nil {
		log.Warn("failed to parse submission", "error", err)
		return false
	}

	token := c.Request.PostForm.Get("_csrf")
	if token == "" {
		token = c.GetHeader("X-CSRF-Token")
	}
	if err := h.csrf.VerifyAndConsume(token); err != nil {
		log.Warn("anti-forgery check failed", "error", err)
		return false
	}

	schema, err := h.schemas.Load(form)
	if err != nil {
		var cfgErr *model.ConfigError
		if errors.As(err, &cfgErr) {
			log.Warn("persisted schema unusable, using default", "reason", cfgErr.Reason, "error", cfgErr.Err)
		} else {
			log.Warn("failed to load schema, using default", "error", err)
		}
	}

	outcome := h.validator.Validate(ctx, schema, rawSubmission(c.Request, schema))
	if !outcome.Accepted() {
		if err := h.uploads.Discard(ctx, outcome.Files); err != nil {
			log.Error("failed to remove files of rejected submission", "error", err)
		}
		log.Info("submission rejected", "has_error", outcome.HasError, "has_email", outcome.Record.Email != "")
		return false
	}

	h.fanout.Dispatch(ctx, form, outcome)
	log.Info("submission accepted", "files", len(outcome.Files))
	return true
}

// Schema returns the field list of a form with a fresh anti-forgery token.
func (h *FormHandler) Schema(c *gin.Context) {
	form := c.Param("form")
	if !service.FormExists(h.config, form) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Form not found"})
		return
	}

	schema, err := h.schemas.Load(form)
	if err != nil {
		logger.Warn(c.Request.Context(), "serving default schema", "error", err)
	}

	token, err := h.csrf.Issue()
	if err != nil {
		logger.Error(c.Request.Context(), "failed to issue token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{
		"form":       form,
		"title":      service.LoadFormSettings(h.config, form).Title,
		"fields":     schema.Fields,
		"csrf_token": token,
	})
}

// Token issues a standalone anti-forgery token.
func (h *FormHandler) Token(c *gin.Context) {
	token, err := h.csrf.Issue()
	if err != nil {
		logger.Error(c.Request.Context(), "failed to issue token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func parseSubmission(c *gin.Context) error {
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		return c.Request.ParseMultipartForm(multipartMemory)
	}
	return c.Request.ParseForm()
}

// submittedValue reads a body value, falling back to the query string.
func submittedValue(c *gin.Context, key string) string {
	if v := c.Request.PostForm.Get(key); v != "" {
		return v
	}
	return c.Query(key)
}

func rawSubmission(r *http.Request, schema model.FieldSchema) model.RawSubmission {
	raw := model.RawSubmission{
		Values: make(map[string]string, len(schema.Fields)),
		Files:  make(map[string]*model.FilePart),
	}
	for _, f := range schema.Fields {
		if f.Type != model.FieldFile {
			raw.Values[f.ID] = r.PostForm.Get(f.ID)
			continue
		}
		if r.MultipartForm == nil {
			continue
		}
		if headers := r.MultipartForm.File[f.ID]; len(headers) > 0 {
			raw.Files[f.ID] = filePart(headers[0])
		}
	}
	return raw
}

func filePart(fh *multipart.FileHeader) *model.FilePart {
	return &model.FilePart{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
